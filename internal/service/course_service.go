package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/stemsi/siakad-backend/internal/repository"
	"github.com/stemsi/siakad-backend/internal/response"
	"github.com/stemsi/siakad-backend/internal/validator"
)

// CourseService handles course catalog business logic.
type CourseService struct {
	repo *repository.Repository
	log  zerolog.Logger
}

// NewCourseService creates a new CourseService.
func NewCourseService(repo *repository.Repository, log zerolog.Logger) *CourseService {
	return &CourseService{
		repo: repo,
		log:  log.With().Str("component", "course_service").Logger(),
	}
}

// List retrieves courses with search, department filter and pagination.
func (s *CourseService) List(ctx context.Context, filter model.CourseFilter, p, perPage int) ([]model.Course, *response.Pagination, error) {
	p, perPage, limit, offset := page(p, perPage)
	courses, total, err := s.repo.Courses.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, nil, classify(s.log, "list courses", err)
	}
	return courses, newPagination(p, perPage, total), nil
}

// Get retrieves a course by ID.
func (s *CourseService) Get(ctx context.Context, id int) (*model.Course, error) {
	c, err := s.repo.Courses.GetByID(ctx, id)
	if err != nil {
		return nil, classify(s.log, "get course", err)
	}
	return c, nil
}

func (s *CourseService) validate(ctx context.Context, in *model.CourseInput, excludeID int) error {
	in.Normalize()
	errs := validator.Check(in)
	if _, bad := errs["course_code"]; !bad {
		taken, err := s.repo.Courses.CodeExists(ctx, in.Code, excludeID)
		if err != nil {
			return classify(s.log, "check course code", err)
		}
		if taken {
			errs.Add("course_code", "course code is already taken")
		}
	}
	return validationResult(errs)
}

// Create validates and inserts a course.
func (s *CourseService) Create(ctx context.Context, in model.CourseInput) (*model.Course, error) {
	if err := s.validate(ctx, &in, 0); err != nil {
		return nil, err
	}

	c := &model.Course{}
	in.Apply(c)
	if err := s.repo.Courses.Create(ctx, c); err != nil {
		return nil, classify(s.log, "create course", err)
	}
	return c, nil
}

// Update validates and saves a course.
func (s *CourseService) Update(ctx context.Context, id int, in model.CourseInput) (*model.Course, error) {
	c, err := s.repo.Courses.GetByID(ctx, id)
	if err != nil {
		return nil, classify(s.log, "get course", err)
	}
	if err := s.validate(ctx, &in, id); err != nil {
		return nil, err
	}

	in.Apply(c)
	if err := s.repo.Courses.Update(ctx, c); err != nil {
		return nil, classify(s.log, "update course", err)
	}
	return c, nil
}

// Delete removes a course and, through the schema, its enrollments.
func (s *CourseService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Courses.Delete(ctx, id); err != nil {
		return classify(s.log, "delete course", err)
	}
	s.log.Info().Int("course_id", id).Msg("course deleted")
	return nil
}
