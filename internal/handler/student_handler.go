package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/stemsi/siakad-backend/internal/response"
	"github.com/stemsi/siakad-backend/internal/service"
)

// StudentHandler handles admin-facing student management.
type StudentHandler struct {
	studentService    *service.StudentService
	enrollmentService *service.EnrollmentService
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService, enrollmentService *service.EnrollmentService) *StudentHandler {
	return &StudentHandler{
		studentService:    studentService,
		enrollmentService: enrollmentService,
	}
}

// ListStudents godoc
// GET /api/v1/admin/students
// Lists students with pagination, optionally filtered by search (code, name, email).
func (h *StudentHandler) ListStudents(c *gin.Context) {
	page, perPage := pageParams(c)

	students, pagination, err := h.studentService.List(c.Request.Context(), model.StudentFilter{Search: c.Query("search")}, page, perPage)
	if err != nil {
		fail(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"students": model.NewStudentViews(students)}, pagination)
}

// GetStudent godoc
// GET /api/v1/admin/students/:id
func (h *StudentHandler) GetStudent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	st, err := h.studentService.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"student": model.NewStudentView(st)})
}

// CreateStudent godoc
// POST /api/v1/admin/students
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var in model.StudentInput
	if !bind(c, &in) {
		return
	}

	st, err := h.studentService.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"student": model.NewStudentView(st)})
}

// UpdateStudent godoc
// PUT /api/v1/admin/students/:id
// Updates a student. With sync_user set, the linked user's contact fields change in the same transaction.
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var in model.StudentInput
	if !bind(c, &in) {
		return
	}

	st, err := h.studentService.Update(c.Request.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"student": model.NewStudentView(st)})
}

// DeleteStudent godoc
// DELETE /api/v1/admin/students/:id
// Deletes a student and their enrollments.
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.studentService.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "student deleted successfully"})
}

// GetStudentCourses godoc
// GET /api/v1/admin/students/:id/courses?status=
// Lists a student's enrollments with their stats.
func (h *StudentHandler) GetStudentCourses(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if _, err := h.studentService.Get(ctx, id); err != nil {
		fail(c, err)
		return
	}

	status := model.EnrollmentStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"status": "status must be one of enrolled, completed, dropped, withdrawn"})
		return
	}

	list, err := h.enrollmentService.StudentEnrollments(ctx, id, status, c.Query("search"))
	if err != nil {
		fail(c, err)
		return
	}
	stats, err := h.enrollmentService.Stats(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"enrollments": model.NewEnrollmentViews(list),
		"stats":       stats,
	})
}
