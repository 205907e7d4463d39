package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/stemsi/siakad-backend/internal/response"
	"github.com/stemsi/siakad-backend/internal/service"
)

// EnrollmentHandler handles admin-facing enrollment and grade management.
type EnrollmentHandler struct {
	enrollmentService *service.EnrollmentService
	exportService     *service.ExportService
}

// NewEnrollmentHandler creates a new EnrollmentHandler.
func NewEnrollmentHandler(enrollmentService *service.EnrollmentService, exportService *service.ExportService) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollmentService: enrollmentService,
		exportService:     exportService,
	}
}

// enrollmentFilter reads the shared listing filters. It writes the error response itself.
func enrollmentFilter(c *gin.Context) (model.EnrollmentFilter, bool) {
	filter := model.EnrollmentFilter{
		Status: model.EnrollmentStatus(c.Query("status")),
		Search: c.Query("search"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"status": "status must be one of enrolled, completed, dropped, withdrawn"})
		return filter, false
	}

	var ok bool
	if filter.StudentID, ok = queryID(c, "student_id"); !ok {
		return filter, false
	}
	if filter.CourseID, ok = queryID(c, "course_id"); !ok {
		return filter, false
	}
	return filter, true
}

// ListEnrollments godoc
// GET /api/v1/admin/enrollments
// Lists enrollments with pagination, filtered by status, student_id, course_id and search.
func (h *EnrollmentHandler) ListEnrollments(c *gin.Context) {
	filter, ok := enrollmentFilter(c)
	if !ok {
		return
	}
	page, perPage := pageParams(c)

	list, pagination, err := h.enrollmentService.List(c.Request.Context(), filter, page, perPage)
	if err != nil {
		fail(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"enrollments": model.NewEnrollmentViews(list)}, pagination)
}

// GetEnrollment godoc
// GET /api/v1/admin/enrollments/:id
func (h *EnrollmentHandler) GetEnrollment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	e, err := h.enrollmentService.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"enrollment": model.NewEnrollmentView(e)})
}

// CreateEnrollment godoc
// POST /api/v1/admin/enrollments
// Enrolls a student in a course. A second enrollment of the same pair is rejected with 409.
func (h *EnrollmentHandler) CreateEnrollment(c *gin.Context) {
	var in model.EnrollmentInput
	if !bind(c, &in) {
		return
	}

	e, err := h.enrollmentService.Enroll(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"enrollment": model.NewEnrollmentView(e)})
}

// EditEnrollment godoc
// PUT /api/v1/admin/enrollments/:id
// Administrative edit of status, grade and remarks.
func (h *EnrollmentHandler) EditEnrollment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var edit model.EnrollmentEdit
	if !bind(c, &edit) {
		return
	}

	e, err := h.enrollmentService.Edit(c.Request.Context(), id, edit)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"enrollment": model.NewEnrollmentView(e)})
}

// DeleteEnrollment godoc
// DELETE /api/v1/admin/enrollments/:id
func (h *EnrollmentHandler) DeleteEnrollment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.enrollmentService.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "enrollment deleted successfully"})
}

// CheckEnrollment godoc
// GET /api/v1/admin/enrollments/check?student_id=&course_id=
// Reports whether the student already holds the course and whether it is graded.
func (h *EnrollmentHandler) CheckEnrollment(c *gin.Context) {
	studentID, ok := queryID(c, "student_id")
	if !ok {
		return
	}
	courseID, ok := queryID(c, "course_id")
	if !ok {
		return
	}
	if studentID == nil || courseID == nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	check, err := h.enrollmentService.Check(c.Request.Context(), *studentID, *courseID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, check)
}

// RecordGrade godoc
// POST /api/v1/admin/grades
// Records a grade on an existing enrollment and marks it completed.
func (h *EnrollmentHandler) RecordGrade(c *gin.Context) {
	var in model.GradeInput
	if !bind(c, &in) {
		return
	}

	e, err := h.enrollmentService.RecordGrade(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"enrollment": model.NewEnrollmentView(e)})
}

// ListGrades godoc
// GET /api/v1/admin/grades
// Lists graded enrollments best first. Status defaults to completed.
func (h *EnrollmentHandler) ListGrades(c *gin.Context) {
	filter, ok := enrollmentFilter(c)
	if !ok {
		return
	}
	page, perPage := pageParams(c)

	list, pagination, err := h.enrollmentService.Grades(c.Request.Context(), filter, page, perPage)
	if err != nil {
		fail(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"grades": model.NewEnrollmentViews(list)}, pagination)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportGrades godoc
// GET /api/v1/admin/grades/export
// Streams the ranked grade report as an .xlsx attachment.
func (h *EnrollmentHandler) ExportGrades(c *gin.Context) {
	filter, ok := enrollmentFilter(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportService.ExportGrades(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
