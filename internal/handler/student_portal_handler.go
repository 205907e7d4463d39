package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/siakad-backend/internal/middleware"
	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/stemsi/siakad-backend/internal/response"
	"github.com/stemsi/siakad-backend/internal/service"
)

// StudentPortalHandler handles student-facing endpoints. Every call acts on the
// caller's own student record, created on first use.
type StudentPortalHandler struct {
	portalService *service.PortalService
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(portalService *service.PortalService) *StudentPortalHandler {
	return &StudentPortalHandler{portalService: portalService}
}

type courseOfferView struct {
	Course     model.CourseView      `json:"course"`
	Enrolled   bool                  `json:"enrolled"`
	Enrollment *model.EnrollmentView `json:"enrollment"`
}

// GetDashboard godoc
// GET /api/v1/student/dashboard
// Returns the caller's student record, stats and latest enrollments.
func (h *StudentPortalHandler) GetDashboard(c *gin.Context) {
	caller, _ := middleware.GetIdentity(c)

	d, err := h.portalService.Dashboard(c.Request.Context(), caller)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"student":            model.NewStudentView(d.Student),
		"stats":              d.Stats,
		"recent_enrollments": model.NewEnrollmentViews(d.RecentEnrollments),
	})
}

// GetProfile godoc
// GET /api/v1/student/profile
func (h *StudentPortalHandler) GetProfile(c *gin.Context) {
	caller, _ := middleware.GetIdentity(c)

	st, stats, err := h.portalService.Profile(c.Request.Context(), caller)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"student": model.NewStudentView(st),
		"stats":   stats,
	})
}

// UpdateProfile godoc
// PUT /api/v1/student/profile
// Edits the caller's student record and copies email, phone and name onto their account.
func (h *StudentPortalHandler) UpdateProfile(c *gin.Context) {
	caller, _ := middleware.GetIdentity(c)

	var in model.StudentInput
	if !bind(c, &in) {
		return
	}

	st, err := h.portalService.UpdateProfile(c.Request.Context(), caller, in)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"student": model.NewStudentView(st)})
}

// GetCourses godoc
// GET /api/v1/student/courses?search=&department=
// Lists the catalog, marking the courses the caller is enrolled in.
func (h *StudentPortalHandler) GetCourses(c *gin.Context) {
	caller, _ := middleware.GetIdentity(c)
	filter := model.CourseFilter{
		Search:     c.Query("search"),
		Department: c.Query("department"),
	}

	offers, err := h.portalService.Courses(c.Request.Context(), caller, filter)
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]courseOfferView, 0, len(offers))
	for i := range offers {
		o := &offers[i]
		v := courseOfferView{Course: model.NewCourseView(&o.Course), Enrolled: o.Enrollment != nil}
		if o.Enrollment != nil {
			ev := model.NewEnrollmentView(o.Enrollment)
			v.Enrollment = &ev
		}
		out = append(out, v)
	}

	response.Success(c, http.StatusOK, gin.H{"courses": out})
}

// EnrollCourse godoc
// POST /api/v1/student/courses/:id/enroll
func (h *StudentPortalHandler) EnrollCourse(c *gin.Context) {
	caller, _ := middleware.GetIdentity(c)
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}

	e, err := h.portalService.Enroll(c.Request.Context(), caller, courseID)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"enrollment": model.NewEnrollmentView(e)})
}

// DropCourse godoc
// DELETE /api/v1/student/courses/:id/enroll
// Removes the caller's enrollment in the course.
func (h *StudentPortalHandler) DropCourse(c *gin.Context) {
	caller, _ := middleware.GetIdentity(c)
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.portalService.Drop(c.Request.Context(), caller, courseID); err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "course dropped successfully"})
}

// GetEnrollments godoc
// GET /api/v1/student/enrollments?status=&search=
func (h *StudentPortalHandler) GetEnrollments(c *gin.Context) {
	caller, _ := middleware.GetIdentity(c)

	list, stats, err := h.portalService.Enrollments(c.Request.Context(), caller, model.EnrollmentStatus(c.Query("status")), c.Query("search"))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"enrollments": model.NewEnrollmentViews(list),
		"stats":       stats,
	})
}

// GetEnrollment godoc
// GET /api/v1/student/enrollments/:id
func (h *StudentPortalHandler) GetEnrollment(c *gin.Context) {
	caller, _ := middleware.GetIdentity(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	e, err := h.portalService.Enrollment(c.Request.Context(), caller, id)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"enrollment": model.NewEnrollmentView(e)})
}

// GetGrades godoc
// GET /api/v1/student/grades
// Lists the caller's graded enrollments, best first.
func (h *StudentPortalHandler) GetGrades(c *gin.Context) {
	caller, _ := middleware.GetIdentity(c)

	grades, stats, err := h.portalService.Grades(c.Request.Context(), caller)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"grades": model.NewEnrollmentViews(grades),
		"stats":  stats,
	})
}
