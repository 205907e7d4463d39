package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/siakad-backend/internal/middleware"
	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/stemsi/siakad-backend/internal/response"
	"github.com/stemsi/siakad-backend/internal/service"
)

// UserHandler handles admin-facing user management and account linkage.
type UserHandler struct {
	userService    *service.UserService
	linkageService *service.LinkageService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService, linkageService *service.LinkageService) *UserHandler {
	return &UserHandler{
		userService:    userService,
		linkageService: linkageService,
	}
}

// ListUsers godoc
// GET /api/v1/admin/users
// Lists users with pagination, optionally filtered by search and role.
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, perPage := pageParams(c)
	filter := model.UserFilter{
		Search: c.Query("search"),
		Role:   model.Role(c.Query("role")),
	}
	if filter.Role != "" && !filter.Role.Valid() {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"role": "role must be one of admin, student"})
		return
	}

	users, pagination, err := h.userService.List(c.Request.Context(), filter, page, perPage)
	if err != nil {
		fail(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"users": model.NewUserViews(users)}, pagination)
}

// GetUser godoc
// GET /api/v1/admin/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	u, admin, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	data := gin.H{"user": model.NewUserView(u)}
	if admin != nil {
		data["administrator"] = model.NewAdministratorView(admin, nil)
	}
	response.Success(c, http.StatusOK, data)
}

// CreateUser godoc
// POST /api/v1/admin/users
// Creates a user. Admin users get an administrator record in the same transaction.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var in model.UserInput
	if !bind(c, &in) {
		return
	}

	u, err := h.userService.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": model.NewUserView(u)})
}

// UpdateUser godoc
// PUT /api/v1/admin/users/:id
// Updates a user. An empty password keeps the current one.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var in model.UserInput
	if !bind(c, &in) {
		return
	}

	u, err := h.userService.Update(c.Request.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": model.NewUserView(u)})
}

// DeleteUser godoc
// DELETE /api/v1/admin/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	caller, _ := middleware.GetIdentity(c)

	if err := h.userService.Delete(c.Request.Context(), caller, id); err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "user deleted successfully"})
}

// ActivateAll godoc
// POST /api/v1/admin/users/activate-all
// Reactivates every inactive user.
func (h *UserHandler) ActivateAll(c *gin.Context) {
	n, err := h.userService.ActivateInactive(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"activated": n})
}

// SyncStudents godoc
// POST /api/v1/admin/users/sync-students?name_fallback=true
// Copies contact fields of every student user onto their student record.
func (h *UserHandler) SyncStudents(c *gin.Context) {
	fallback, _ := strconv.ParseBool(c.DefaultQuery("name_fallback", "false"))

	result, err := h.linkageService.SyncAll(c.Request.Context(), service.SyncOptions{NameFallback: fallback})
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// CreateStudentAccounts godoc
// POST /api/v1/admin/users/student-accounts
// Creates or links a student user for every student record without one.
func (h *UserHandler) CreateStudentAccounts(c *gin.Context) {
	result, err := h.linkageService.CreateAccountsForStudents(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}
