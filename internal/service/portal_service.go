package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/stemsi/siakad-backend/internal/repository"
)

// StudentDashboard is the landing data of the student portal.
type StudentDashboard struct {
	Student           *model.Student        `json:"student"`
	Stats             model.EnrollmentStats `json:"stats"`
	RecentEnrollments []model.Enrollment    `json:"recent_enrollments"`
}

// CourseOffer is a catalog course annotated with the caller's enrollment.
type CourseOffer struct {
	Course     model.Course      `json:"course"`
	Enrollment *model.Enrollment `json:"enrollment"`
}

// PortalService serves the student-facing operations. Every call first resolves
// the caller's Student record.
type PortalService struct {
	linkage     *LinkageService
	students    *StudentService
	courses     *CourseService
	enrollments *EnrollmentService
	repo        *repository.Repository
	log         zerolog.Logger
}

// NewPortalService creates a new PortalService.
func NewPortalService(
	repo *repository.Repository,
	linkage *LinkageService,
	students *StudentService,
	courses *CourseService,
	enrollments *EnrollmentService,
	log zerolog.Logger,
) *PortalService {
	return &PortalService{
		linkage:     linkage,
		students:    students,
		courses:     courses,
		enrollments: enrollments,
		repo:        repo,
		log:         log.With().Str("component", "portal_service").Logger(),
	}
}

const recentEnrollmentCount = 5

// Dashboard resolves the caller's Student and summarizes their enrollments.
func (s *PortalService) Dashboard(ctx context.Context, caller model.Identity) (*StudentDashboard, error) {
	st, err := s.linkage.ResolveStudent(ctx, caller)
	if err != nil {
		return nil, err
	}

	all, err := s.enrollments.StudentEnrollments(ctx, st.ID, "", "")
	if err != nil {
		return nil, err
	}

	recent := all
	if len(recent) > recentEnrollmentCount {
		recent = recent[:recentEnrollmentCount]
	}
	return &StudentDashboard{
		Student:           st,
		Stats:             ComputeStats(all),
		RecentEnrollments: recent,
	}, nil
}

// Profile returns the caller's Student with enrollment stats.
func (s *PortalService) Profile(ctx context.Context, caller model.Identity) (*model.Student, model.EnrollmentStats, error) {
	st, err := s.linkage.ResolveStudent(ctx, caller)
	if err != nil {
		return nil, model.EnrollmentStats{}, err
	}
	stats, err := s.enrollments.Stats(ctx, st.ID)
	if err != nil {
		return nil, model.EnrollmentStats{}, err
	}
	return st, stats, nil
}

// UpdateProfile edits the caller's own Student and pushes the contact fields
// to their User in the same transaction. The student id cannot be changed here.
func (s *PortalService) UpdateProfile(ctx context.Context, caller model.Identity, in model.StudentInput) (*model.Student, error) {
	st, err := s.linkage.ResolveStudent(ctx, caller)
	if err != nil {
		return nil, err
	}
	in.StudentCode = st.StudentCode
	in.SyncUser = true
	return s.students.update(ctx, st, in)
}

// Courses lists the catalog with the caller's enrollment on each course.
func (s *PortalService) Courses(ctx context.Context, caller model.Identity, filter model.CourseFilter) ([]CourseOffer, error) {
	st, err := s.linkage.ResolveStudent(ctx, caller)
	if err != nil {
		return nil, err
	}

	courses, err := s.repo.Courses.ListAll(ctx, filter)
	if err != nil {
		return nil, classify(s.log, "list courses", err)
	}
	mine, err := s.enrollments.StudentEnrollments(ctx, st.ID, "", "")
	if err != nil {
		return nil, err
	}

	byCourse := make(map[int]*model.Enrollment, len(mine))
	for i := range mine {
		byCourse[mine[i].CourseID] = &mine[i]
	}

	offers := make([]CourseOffer, 0, len(courses))
	for _, c := range courses {
		offers = append(offers, CourseOffer{Course: c, Enrollment: byCourse[c.ID]})
	}
	return offers, nil
}

// Enroll registers the caller in a course.
func (s *PortalService) Enroll(ctx context.Context, caller model.Identity, courseID int) (*model.Enrollment, error) {
	st, err := s.linkage.ResolveStudent(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.enrollments.Enroll(ctx, model.EnrollmentInput{StudentID: st.ID, CourseID: courseID})
}

// Drop removes the caller's enrollment in a course.
func (s *PortalService) Drop(ctx context.Context, caller model.Identity, courseID int) error {
	st, err := s.linkage.ResolveStudent(ctx, caller)
	if err != nil {
		return err
	}
	return s.enrollments.Drop(ctx, st.ID, courseID)
}

// Enrollments lists the caller's enrollments with stats over all of them.
func (s *PortalService) Enrollments(ctx context.Context, caller model.Identity, status model.EnrollmentStatus, search string) ([]model.Enrollment, model.EnrollmentStats, error) {
	st, err := s.linkage.ResolveStudent(ctx, caller)
	if err != nil {
		return nil, model.EnrollmentStats{}, err
	}
	if status != "" && !status.Valid() {
		return nil, model.EnrollmentStats{}, invalid("status", "status must be one of enrolled, completed, dropped, withdrawn")
	}

	list, err := s.enrollments.StudentEnrollments(ctx, st.ID, status, search)
	if err != nil {
		return nil, model.EnrollmentStats{}, err
	}
	stats, err := s.enrollments.Stats(ctx, st.ID)
	if err != nil {
		return nil, model.EnrollmentStats{}, err
	}
	return list, stats, nil
}

// Enrollment returns one of the caller's enrollments.
func (s *PortalService) Enrollment(ctx context.Context, caller model.Identity, id int) (*model.Enrollment, error) {
	st, err := s.linkage.ResolveStudent(ctx, caller)
	if err != nil {
		return nil, err
	}
	e, err := s.enrollments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.StudentID != st.ID {
		return nil, ErrNotFound
	}
	return e, nil
}

// Grades lists the caller's graded enrollments, best grade first.
func (s *PortalService) Grades(ctx context.Context, caller model.Identity) ([]model.Enrollment, model.EnrollmentStats, error) {
	st, err := s.linkage.ResolveStudent(ctx, caller)
	if err != nil {
		return nil, model.EnrollmentStats{}, err
	}

	all, err := s.enrollments.StudentEnrollments(ctx, st.ID, "", "")
	if err != nil {
		return nil, model.EnrollmentStats{}, err
	}

	graded := make([]model.Enrollment, 0, len(all))
	for _, e := range all {
		if e.Grade != nil {
			graded = append(graded, e)
		}
	}
	RankByGrade(graded)
	return graded, ComputeStats(all), nil
}
