package model

import (
	"strings"
	"time"
)

// EnrollmentStatus is the lifecycle state of an Enrollment.
type EnrollmentStatus string

const (
	StatusEnrolled  EnrollmentStatus = "enrolled"
	StatusCompleted EnrollmentStatus = "completed"
	StatusDropped   EnrollmentStatus = "dropped"
	StatusWithdrawn EnrollmentStatus = "withdrawn"
)

// Valid reports whether s is one of the four known states.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case StatusEnrolled, StatusCompleted, StatusDropped, StatusWithdrawn:
		return true
	}
	return false
}

// Enrollment joins a Student and a Course. The (StudentID, CourseID) pair is unique.
type Enrollment struct {
	ID             int              `json:"id"`
	StudentID      int              `json:"student_id"`
	CourseID       int              `json:"course_id"`
	EnrollmentDate time.Time        `json:"enrollment_date"`
	Status         EnrollmentStatus `json:"status"`
	Grade          *float64         `json:"grade"`
	Remarks        string           `json:"remarks"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`

	// Populated by joined listing queries.
	Student *Student `json:"student,omitempty"`
	Course  *Course  `json:"course,omitempty"`
}

// EnrollmentInput is the payload for creating an Enrollment.
type EnrollmentInput struct {
	StudentID      int    `json:"student_id" form:"student_id" validate:"required"`
	CourseID       int    `json:"course_id" form:"course_id" validate:"required"`
	EnrollmentDate string `json:"enrollment_date" form:"enrollment_date" validate:"omitempty,datetime=2006-01-02"`
}

// GradeInput is the payload for recording a grade on an existing Enrollment.
type GradeInput struct {
	StudentID int      `json:"student_id" form:"student_id" validate:"required"`
	CourseID  int      `json:"course_id" form:"course_id" validate:"required"`
	Grade     *float64 `json:"grade" form:"grade" validate:"required"`
	Remarks   string   `json:"remarks" form:"remarks"`
}

// EnrollmentEdit is the administrative edit payload. An empty Status leaves the status unchanged.
type EnrollmentEdit struct {
	Status  string   `json:"status" form:"status" validate:"omitempty,enrollment_status"`
	Grade   *float64 `json:"grade" form:"grade"`
	Remarks *string  `json:"remarks" form:"remarks"`
}

// Normalize trims free-text fields.
func (in *EnrollmentEdit) Normalize() {
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if in.Remarks != nil {
		r := strings.TrimSpace(*in.Remarks)
		in.Remarks = &r
	}
}

// EnrollmentFilter narrows enrollment and grade listings.
type EnrollmentFilter struct {
	StudentID *int
	CourseID  *int
	Status    EnrollmentStatus
	Search    string
	// GradedOnly restricts the listing to rows with a recorded grade.
	GradedOnly bool
	// OrderByGrade sorts by grade descending, ties by insertion order.
	OrderByGrade bool
}

// EnrollmentStats summarizes a set of enrollments.
type EnrollmentStats struct {
	Total        int     `json:"total_courses"`
	Completed    int     `json:"completed_courses"`
	Current      int     `json:"current_courses"`
	AverageGrade float64 `json:"avg_grade"`
	HighestGrade float64 `json:"highest_grade"`
	LowestGrade  float64 `json:"lowest_grade"`
	TotalCredits int     `json:"total_credits"`
}

// EnrollmentCheck answers whether a student already holds a course.
type EnrollmentCheck struct {
	Exists   bool `json:"exists"`
	HasGrade bool `json:"has_grade"`
}
