package model

import (
	"strings"
	"time"
)

// Gender represents the student's gender.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Student is the academic record. UserID is the optional link to a login User.
type Student struct {
	ID             int        `json:"id"`
	StudentCode    string     `json:"student_id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	BirthDate      *time.Time `json:"birth_date"`
	Gender         *Gender    `json:"gender"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Address        string     `json:"address"`
	Major          string     `json:"major"`
	EnrollmentYear *int       `json:"enrollment_year"`
	UserID         *int       `json:"user_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// FullName joins first and last name.
func (s *Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// StudentInput is the normalized create/update payload for a Student.
type StudentInput struct {
	StudentCode    string `json:"student_id" form:"student_id" validate:"required,max=20"`
	FirstName      string `json:"first_name" form:"first_name" validate:"required,max=50"`
	LastName       string `json:"last_name" form:"last_name" validate:"required,max=50"`
	BirthDate      string `json:"birth_date" form:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Gender         string `json:"gender" form:"gender" validate:"omitempty,oneof=Male Female Other"`
	Email          string `json:"email" form:"email" validate:"required,email_shape,max=100"`
	Phone          string `json:"phone" form:"phone" validate:"omitempty,phone_digits,max=20"`
	Address        string `json:"address" form:"address"`
	Major          string `json:"major" form:"major" validate:"omitempty,max=100"`
	EnrollmentYear *int   `json:"enrollment_year" form:"enrollment_year" validate:"omitempty,min=1900,max=2100"`
	// SyncUser pushes email, phone and name onto the linked User in the same transaction.
	SyncUser bool `json:"sync_user" form:"sync_user"`
}

// Normalize trims free-text fields.
func (in *StudentInput) Normalize() {
	in.StudentCode = strings.TrimSpace(in.StudentCode)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.BirthDate = strings.TrimSpace(in.BirthDate)
	in.Gender = strings.TrimSpace(in.Gender)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.Major = strings.TrimSpace(in.Major)
}

// Apply copies the input onto s. BirthDate must already be validated.
func (in *StudentInput) Apply(s *Student) {
	s.StudentCode = in.StudentCode
	s.FirstName = in.FirstName
	s.LastName = in.LastName
	s.BirthDate = nil
	if in.BirthDate != "" {
		if d, err := time.Parse(DateLayout, in.BirthDate); err == nil {
			s.BirthDate = &d
		}
	}
	s.Gender = nil
	if in.Gender != "" {
		g := Gender(in.Gender)
		s.Gender = &g
	}
	s.Email = in.Email
	s.Phone = in.Phone
	s.Address = in.Address
	s.Major = in.Major
	s.EnrollmentYear = in.EnrollmentYear
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	Search string
}

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"
