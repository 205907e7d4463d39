package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/stemsi/siakad-backend/internal/repository"
	"github.com/stemsi/siakad-backend/internal/response"
	"github.com/stemsi/siakad-backend/internal/validator"
)

// EnrollmentService runs the enrollment and grade workflow against persistence.
type EnrollmentService struct {
	repo   *repository.Repository
	policy StatusPolicy
	log    zerolog.Logger
}

// NewEnrollmentService creates a new EnrollmentService.
func NewEnrollmentService(repo *repository.Repository, policy StatusPolicy, log zerolog.Logger) *EnrollmentService {
	return &EnrollmentService{
		repo:   repo,
		policy: policy,
		log:    log.With().Str("component", "enrollment_service").Logger(),
	}
}

// checkReferences reports missing students or courses as field errors.
func (s *EnrollmentService) checkReferences(ctx context.Context, errs validator.Errors, studentID, courseID int) error {
	if _, bad := errs["student_id"]; !bad {
		if _, err := s.repo.Students.GetByID(ctx, studentID); err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			errs.Add("student_id", "student does not exist")
		}
	}
	if _, bad := errs["course_id"]; !bad {
		if _, err := s.repo.Courses.GetByID(ctx, courseID); err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			errs.Add("course_id", "course does not exist")
		}
	}
	return nil
}

// Enroll registers a student in a course. An existing enrollment for the
// pair, found up front or raised by the unique constraint, yields
// ErrDuplicateEnrollment.
func (s *EnrollmentService) Enroll(ctx context.Context, in model.EnrollmentInput) (*model.Enrollment, error) {
	errs := validator.Check(&in)
	if err := s.checkReferences(ctx, errs, in.StudentID, in.CourseID); err != nil {
		return nil, classify(s.log, "check references", err)
	}
	if err := validationResult(errs); err != nil {
		return nil, err
	}

	_, err := s.repo.Enrollments.GetByPair(ctx, in.StudentID, in.CourseID)
	switch {
	case err == nil:
		return nil, ErrDuplicateEnrollment
	case !errors.Is(err, repository.ErrNotFound):
		return nil, classify(s.log, "check enrollment", err)
	}

	var date time.Time
	if in.EnrollmentDate != "" {
		date, _ = time.Parse(model.DateLayout, in.EnrollmentDate)
	}
	e := NewEnrollment(in.StudentID, in.CourseID, date)
	if err := s.repo.Enrollments.Create(ctx, e); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			// The student or course was removed after the reference check.
			recheck := validator.Errors{}
			if rerr := s.checkReferences(ctx, recheck, in.StudentID, in.CourseID); rerr == nil && recheck.Any() {
				return nil, &ValidationError{Fields: recheck}
			}
		}
		return nil, classify(s.log, "create enrollment", err)
	}

	s.log.Info().Int("student_id", e.StudentID).Int("course_id", e.CourseID).Msg("student enrolled")
	return s.Get(ctx, e.ID)
}

// RecordGrade sets the grade of an existing enrollment and marks it completed.
func (s *EnrollmentService) RecordGrade(ctx context.Context, in model.GradeInput) (*model.Enrollment, error) {
	if err := validationResult(validator.Check(&in)); err != nil {
		return nil, err
	}

	var saved *model.Enrollment
	err := s.repo.WithTx(ctx, func(r *repository.Repository) error {
		e, err := r.Enrollments.GetByPair(ctx, in.StudentID, in.CourseID)
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("enrollment", "student is not enrolled in this course")
		}
		if err != nil {
			return err
		}

		ApplyGrade(e, *in.Grade, in.Remarks)
		if err := r.Enrollments.Update(ctx, e); err != nil {
			return err
		}
		saved = e
		return nil
	})
	if err != nil {
		return nil, classify(s.log, "record grade", err)
	}
	return saved, nil
}

// Edit applies an administrative edit to an enrollment under the configured status policy.
func (s *EnrollmentService) Edit(ctx context.Context, id int, edit model.EnrollmentEdit) (*model.Enrollment, error) {
	edit.Normalize()
	if err := validationResult(validator.Check(&edit)); err != nil {
		return nil, err
	}

	var saved *model.Enrollment
	err := s.repo.WithTx(ctx, func(r *repository.Repository) error {
		e, err := r.Enrollments.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := ApplyEdit(e, edit, s.policy); err != nil {
			return err
		}
		if err := r.Enrollments.Update(ctx, e); err != nil {
			return err
		}
		saved = e
		return nil
	})
	if err != nil {
		return nil, classify(s.log, "edit enrollment", err)
	}
	return saved, nil
}

// Get retrieves an enrollment with its student and course summaries.
func (s *EnrollmentService) Get(ctx context.Context, id int) (*model.Enrollment, error) {
	e, err := s.repo.Enrollments.GetByID(ctx, id)
	if err != nil {
		return nil, classify(s.log, "get enrollment", err)
	}
	return e, nil
}

// Delete removes an enrollment row. No history is kept; use Edit with dropped
// or withdrawn to preserve it.
func (s *EnrollmentService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Enrollments.Delete(ctx, id); err != nil {
		return classify(s.log, "delete enrollment", err)
	}
	return nil
}

// Drop removes the enrollment of a student in a course.
func (s *EnrollmentService) Drop(ctx context.Context, studentID, courseID int) error {
	err := s.repo.WithTx(ctx, func(r *repository.Repository) error {
		e, err := r.Enrollments.GetByPair(ctx, studentID, courseID)
		if err != nil {
			return err
		}
		return r.Enrollments.Delete(ctx, e.ID)
	})
	if err != nil {
		return classify(s.log, "drop enrollment", err)
	}
	s.log.Info().Int("student_id", studentID).Int("course_id", courseID).Msg("enrollment dropped")
	return nil
}

// List retrieves enrollments with filters and pagination.
func (s *EnrollmentService) List(ctx context.Context, filter model.EnrollmentFilter, p, perPage int) ([]model.Enrollment, *response.Pagination, error) {
	p, perPage, limit, offset := page(p, perPage)
	enrollments, total, err := s.repo.Enrollments.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, nil, classify(s.log, "list enrollments", err)
	}
	return enrollments, newPagination(p, perPage, total), nil
}

// gradeFilter restricts filter to graded rows ranked by grade. The status
// defaults to completed.
func gradeFilter(filter model.EnrollmentFilter) model.EnrollmentFilter {
	filter.GradedOnly = true
	filter.OrderByGrade = true
	if filter.Status == "" {
		filter.Status = model.StatusCompleted
	}
	return filter
}

// Grades lists graded enrollments, best grade first.
func (s *EnrollmentService) Grades(ctx context.Context, filter model.EnrollmentFilter, p, perPage int) ([]model.Enrollment, *response.Pagination, error) {
	return s.List(ctx, gradeFilter(filter), p, perPage)
}

// GradeReport returns every graded enrollment matching filter, ranked by grade
// descending with ties in insertion order.
func (s *EnrollmentService) GradeReport(ctx context.Context, filter model.EnrollmentFilter) ([]model.Enrollment, error) {
	enrollments, err := s.repo.Enrollments.ListAll(ctx, gradeFilter(filter))
	if err != nil {
		return nil, classify(s.log, "grade report", err)
	}
	RankByGrade(enrollments)
	return enrollments, nil
}

// Check reports whether the student holds the course and whether it is graded.
func (s *EnrollmentService) Check(ctx context.Context, studentID, courseID int) (model.EnrollmentCheck, error) {
	e, err := s.repo.Enrollments.GetByPair(ctx, studentID, courseID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.EnrollmentCheck{}, nil
	}
	if err != nil {
		return model.EnrollmentCheck{}, classify(s.log, "check enrollment", err)
	}
	return model.EnrollmentCheck{Exists: true, HasGrade: e.Grade != nil}, nil
}

// StudentEnrollments lists every enrollment of a student with optional status and search filters.
func (s *EnrollmentService) StudentEnrollments(ctx context.Context, studentID int, status model.EnrollmentStatus, search string) ([]model.Enrollment, error) {
	enrollments, err := s.repo.Enrollments.ListAll(ctx, model.EnrollmentFilter{
		StudentID: &studentID,
		Status:    status,
		Search:    search,
	})
	if err != nil {
		return nil, classify(s.log, "list student enrollments", err)
	}
	return enrollments, nil
}

// Stats summarizes all enrollments of a student.
func (s *EnrollmentService) Stats(ctx context.Context, studentID int) (model.EnrollmentStats, error) {
	enrollments, err := s.StudentEnrollments(ctx, studentID, "", "")
	if err != nil {
		return model.EnrollmentStats{}, err
	}
	return ComputeStats(enrollments), nil
}
