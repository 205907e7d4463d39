package model

import "time"

// The view types below are the stable record shape returned to both the JSON API and any
// HTML rendering: ids, business fields, RFC 3339 timestamps and nested summaries.

// UserView is the presentation shape of a User.
type UserView struct {
	ID        int     `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	FullName  string  `json:"full_name"`
	Phone     string  `json:"phone"`
	Role      Role    `json:"role"`
	IsActive  bool    `json:"is_active"`
	LastLogin *string `json:"last_login"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// AdministratorView is the presentation shape of an Administrator with its User.
type AdministratorView struct {
	ID         int       `json:"id"`
	UserID     int       `json:"user_id"`
	AdminCode  string    `json:"admin_code"`
	Department string    `json:"department"`
	AssignedAt string    `json:"assigned_at"`
	User       *UserView `json:"user"`
}

// StudentView is the presentation shape of a Student.
type StudentView struct {
	ID             int     `json:"id"`
	StudentCode    string  `json:"student_id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	FullName       string  `json:"full_name"`
	BirthDate      *string `json:"birth_date"`
	Gender         *Gender `json:"gender"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	Address        string  `json:"address"`
	Major          string  `json:"major"`
	EnrollmentYear *int    `json:"enrollment_year"`
	UserID         *int    `json:"user_id"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// CourseView is the presentation shape of a Course.
type CourseView struct {
	ID              int    `json:"id"`
	Code            string `json:"course_code"`
	Name            string `json:"course_name"`
	Description     string `json:"description"`
	Credits         int    `json:"credits"`
	Department      string `json:"department"`
	Instructor      string `json:"instructor"`
	EnrollmentCount int    `json:"enrollment_count"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// EnrollmentView is the presentation shape of an Enrollment with student and course summaries.
type EnrollmentView struct {
	ID             int              `json:"id"`
	StudentID      int              `json:"student_id"`
	CourseID       int              `json:"course_id"`
	EnrollmentDate string           `json:"enrollment_date"`
	Status         EnrollmentStatus `json:"status"`
	Grade          *float64         `json:"grade"`
	Remarks        string           `json:"remarks"`
	CreatedAt      string           `json:"created_at"`
	UpdatedAt      string           `json:"updated_at"`
	Student        *StudentView     `json:"student"`
	Course         *CourseView      `json:"course"`
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func optionalTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := timestamp(*t)
	return &s
}

func optionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

// NewUserView builds the presentation shape of u.
func NewUserView(u *User) UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Phone:     u.Phone,
		Role:      u.Role,
		IsActive:  u.IsActive,
		LastLogin: optionalTimestamp(u.LastLogin),
		CreatedAt: timestamp(u.CreatedAt),
		UpdatedAt: timestamp(u.UpdatedAt),
	}
}

// NewUserViews builds views for a slice of users, never returning nil.
func NewUserViews(users []User) []UserView {
	out := make([]UserView, 0, len(users))
	for i := range users {
		out = append(out, NewUserView(&users[i]))
	}
	return out
}

// NewAdministratorView builds the presentation shape of a with its optional user.
func NewAdministratorView(a *Administrator, u *User) AdministratorView {
	v := AdministratorView{
		ID:         a.ID,
		UserID:     a.UserID,
		AdminCode:  a.AdminCode,
		Department: a.Department,
		AssignedAt: timestamp(a.AssignedAt),
	}
	if u != nil {
		uv := NewUserView(u)
		v.User = &uv
	}
	return v
}

// NewStudentView builds the presentation shape of s.
func NewStudentView(s *Student) StudentView {
	return StudentView{
		ID:             s.ID,
		StudentCode:    s.StudentCode,
		FirstName:      s.FirstName,
		LastName:       s.LastName,
		FullName:       s.FullName(),
		BirthDate:      optionalDate(s.BirthDate),
		Gender:         s.Gender,
		Email:          s.Email,
		Phone:          s.Phone,
		Address:        s.Address,
		Major:          s.Major,
		EnrollmentYear: s.EnrollmentYear,
		UserID:         s.UserID,
		CreatedAt:      timestamp(s.CreatedAt),
		UpdatedAt:      timestamp(s.UpdatedAt),
	}
}

// NewStudentViews builds views for a slice of students, never returning nil.
func NewStudentViews(students []Student) []StudentView {
	out := make([]StudentView, 0, len(students))
	for i := range students {
		out = append(out, NewStudentView(&students[i]))
	}
	return out
}

// NewCourseView builds the presentation shape of c.
func NewCourseView(c *Course) CourseView {
	return CourseView{
		ID:              c.ID,
		Code:            c.Code,
		Name:            c.Name,
		Description:     c.Description,
		Credits:         c.Credits,
		Department:      c.Department,
		Instructor:      c.Instructor,
		EnrollmentCount: c.EnrollmentCount,
		CreatedAt:       timestamp(c.CreatedAt),
		UpdatedAt:       timestamp(c.UpdatedAt),
	}
}

// NewCourseViews builds views for a slice of courses, never returning nil.
func NewCourseViews(courses []Course) []CourseView {
	out := make([]CourseView, 0, len(courses))
	for i := range courses {
		out = append(out, NewCourseView(&courses[i]))
	}
	return out
}

// NewEnrollmentView builds the presentation shape of e including any joined student and course.
func NewEnrollmentView(e *Enrollment) EnrollmentView {
	v := EnrollmentView{
		ID:             e.ID,
		StudentID:      e.StudentID,
		CourseID:       e.CourseID,
		EnrollmentDate: e.EnrollmentDate.Format(DateLayout),
		Status:         e.Status,
		Grade:          e.Grade,
		Remarks:        e.Remarks,
		CreatedAt:      timestamp(e.CreatedAt),
		UpdatedAt:      timestamp(e.UpdatedAt),
	}
	if e.Student != nil {
		sv := NewStudentView(e.Student)
		v.Student = &sv
	}
	if e.Course != nil {
		cv := NewCourseView(e.Course)
		v.Course = &cv
	}
	return v
}

// NewEnrollmentViews builds views for a slice of enrollments, never returning nil.
func NewEnrollmentViews(enrollments []Enrollment) []EnrollmentView {
	out := make([]EnrollmentView, 0, len(enrollments))
	for i := range enrollments {
		out = append(out, NewEnrollmentView(&enrollments[i]))
	}
	return out
}
