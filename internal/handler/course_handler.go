package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/stemsi/siakad-backend/internal/response"
	"github.com/stemsi/siakad-backend/internal/service"
)

// CourseHandler handles course catalog management.
type CourseHandler struct {
	courseService *service.CourseService
}

// NewCourseHandler creates a new CourseHandler.
func NewCourseHandler(courseService *service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

// ListCourses godoc
// GET /api/v1/admin/courses
// Lists courses with pagination, optionally filtered by search and department.
func (h *CourseHandler) ListCourses(c *gin.Context) {
	page, perPage := pageParams(c)
	filter := model.CourseFilter{
		Search:     c.Query("search"),
		Department: c.Query("department"),
	}

	courses, pagination, err := h.courseService.List(c.Request.Context(), filter, page, perPage)
	if err != nil {
		fail(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"courses": model.NewCourseViews(courses)}, pagination)
}

// GetCourse godoc
// GET /api/v1/admin/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	course, err := h.courseService.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"course": model.NewCourseView(course)})
}

// CreateCourse godoc
// POST /api/v1/admin/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var in model.CourseInput
	if !bind(c, &in) {
		return
	}

	course, err := h.courseService.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"course": model.NewCourseView(course)})
}

// UpdateCourse godoc
// PUT /api/v1/admin/courses/:id
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var in model.CourseInput
	if !bind(c, &in) {
		return
	}

	course, err := h.courseService.Update(c.Request.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"course": model.NewCourseView(course)})
}

// DeleteCourse godoc
// DELETE /api/v1/admin/courses/:id
// Deletes a course and its enrollments.
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.courseService.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "course deleted successfully"})
}
