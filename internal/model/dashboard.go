package model

// DashboardSummary holds the headline counts of the admin dashboard.
type DashboardSummary struct {
	TotalUsers          int                      `json:"total_users"`
	TotalStudents       int                      `json:"total_students"`
	TotalCourses        int                      `json:"total_courses"`
	TotalEnrollments    int                      `json:"total_enrollments"`
	UnlinkedStudents    int                      `json:"unlinked_students"`
	EnrollmentsByStatus map[EnrollmentStatus]int `json:"enrollments_by_status"`
}
