package model

import (
	"strings"
	"time"
)

// Course is a catalog entry. Deleting a course deletes its enrollments.
type Course struct {
	ID              int       `json:"id"`
	Code            string    `json:"course_code"`
	Name            string    `json:"course_name"`
	Description     string    `json:"description"`
	Credits         int       `json:"credits"`
	Department      string    `json:"department"`
	Instructor      string    `json:"instructor"`
	EnrollmentCount int       `json:"enrollment_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CourseInput is the normalized create/update payload for a Course.
type CourseInput struct {
	Code        string `json:"course_code" form:"course_code" validate:"required,max=20"`
	Name        string `json:"course_name" form:"course_name" validate:"required,max=100"`
	Description string `json:"description" form:"description"`
	Credits     *int   `json:"credits" form:"credits" validate:"required,gt=0"`
	Department  string `json:"department" form:"department" validate:"omitempty,max=100"`
	Instructor  string `json:"instructor" form:"instructor" validate:"omitempty,max=100"`
}

// Normalize trims free-text fields.
func (in *CourseInput) Normalize() {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Department = strings.TrimSpace(in.Department)
	in.Instructor = strings.TrimSpace(in.Instructor)
}

// Apply copies the input onto c. Credits must already be validated.
func (in *CourseInput) Apply(c *Course) {
	c.Code = in.Code
	c.Name = in.Name
	c.Description = in.Description
	if in.Credits != nil {
		c.Credits = *in.Credits
	}
	c.Department = in.Department
	c.Instructor = in.Instructor
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	Search     string
	Department string
}
