package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/siakad-backend/internal/config"
	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/stemsi/siakad-backend/internal/repository"
	"github.com/stemsi/siakad-backend/internal/repository/repotest"
	"golang.org/x/crypto/bcrypt"
)

type memSessions struct {
	m map[int]string
}

func (s *memSessions) Set(_ context.Context, userID int, jti string, _ time.Duration) error {
	s.m[userID] = jti
	return nil
}

func (s *memSessions) Get(_ context.Context, userID int) (string, error) {
	jti, ok := s.m[userID]
	if !ok {
		return "", ErrNoSession
	}
	return jti, nil
}

func (s *memSessions) Delete(_ context.Context, userID int) error {
	delete(s.m, userID)
	return nil
}

func newTestAuth() *AuthService {
	cfg := &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: bcrypt.MinCost,
	}
	return NewAuthServiceWithStore(cfg, &memSessions{m: map[int]string{}})
}

type testServices struct {
	repo        *repository.Repository
	store       *repotest.Store
	auth        *AuthService
	users       *UserService
	students    *StudentService
	courses     *CourseService
	enrollments *EnrollmentService
	linkage     *LinkageService
	portal      *PortalService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	return newTestServicesWithPolicy(t, StatusPolicyOverride)
}

func newTestServicesWithPolicy(t *testing.T, policy StatusPolicy) *testServices {
	t.Helper()
	log := zerolog.Nop()
	repo, store := repotest.New()
	auth := newTestAuth()

	ts := &testServices{
		repo:        repo,
		store:       store,
		auth:        auth,
		users:       NewUserService(repo, auth, log),
		students:    NewStudentService(repo, log),
		courses:     NewCourseService(repo, log),
		enrollments: NewEnrollmentService(repo, policy, log),
		linkage:     NewLinkageService(repo, auth, log),
	}
	ts.portal = NewPortalService(repo, ts.linkage, ts.students, ts.courses, ts.enrollments, log)
	return ts
}

func intPtr(n int) *int { return &n }

func floatPtr(f float64) *float64 { return &f }

func strPtr(s string) *string { return &s }

func (ts *testServices) mustUser(t *testing.T, in model.UserInput) *model.User {
	t.Helper()
	u, err := ts.users.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create user %q: %v", in.Username, err)
	}
	return u
}

func (ts *testServices) mustStudent(t *testing.T, code, first, last, email string) *model.Student {
	t.Helper()
	st, err := ts.students.Create(context.Background(), model.StudentInput{
		StudentCode: code,
		FirstName:   first,
		LastName:    last,
		Email:       email,
	})
	if err != nil {
		t.Fatalf("create student %q: %v", code, err)
	}
	return st
}

func (ts *testServices) mustCourse(t *testing.T, code, name string, credits int) *model.Course {
	t.Helper()
	c, err := ts.courses.Create(context.Background(), model.CourseInput{
		Code:    code,
		Name:    name,
		Credits: intPtr(credits),
	})
	if err != nil {
		t.Fatalf("create course %q: %v", code, err)
	}
	return c
}

func (ts *testServices) mustEnroll(t *testing.T, studentID, courseID int) *model.Enrollment {
	t.Helper()
	e, err := ts.enrollments.Enroll(context.Background(), model.EnrollmentInput{StudentID: studentID, CourseID: courseID})
	if err != nil {
		t.Fatalf("enroll student %d in course %d: %v", studentID, courseID, err)
	}
	return e
}

// fieldErrors returns the field map of a ValidationError or fails the test.
func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
	}
	return ve.Fields
}
