package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/stemsi/siakad-backend/internal/repository"
	"github.com/stemsi/siakad-backend/internal/response"
	"github.com/stemsi/siakad-backend/internal/validator"
)

// StudentService handles academic record business logic.
type StudentService struct {
	repo *repository.Repository
	log  zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(repo *repository.Repository, log zerolog.Logger) *StudentService {
	return &StudentService{
		repo: repo,
		log:  log.With().Str("component", "student_service").Logger(),
	}
}

// List retrieves students with search and pagination.
func (s *StudentService) List(ctx context.Context, filter model.StudentFilter, p, perPage int) ([]model.Student, *response.Pagination, error) {
	p, perPage, limit, offset := page(p, perPage)
	students, total, err := s.repo.Students.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, nil, classify(s.log, "list students", err)
	}
	return students, newPagination(p, perPage, total), nil
}

// Get retrieves a student by ID.
func (s *StudentService) Get(ctx context.Context, id int) (*model.Student, error) {
	st, err := s.repo.Students.GetByID(ctx, id)
	if err != nil {
		return nil, classify(s.log, "get student", err)
	}
	return st, nil
}

func (s *StudentService) validate(ctx context.Context, in *model.StudentInput, excludeID int) (validator.Errors, error) {
	errs := validator.Check(in)

	if _, bad := errs["student_id"]; !bad {
		taken, err := s.repo.Students.CodeExists(ctx, in.StudentCode, excludeID)
		if err != nil {
			return nil, err
		}
		if taken {
			errs.Add("student_id", "student id is already taken")
		}
	}
	if _, bad := errs["email"]; !bad {
		taken, err := s.repo.Students.EmailExists(ctx, in.Email, excludeID)
		if err != nil {
			return nil, err
		}
		if taken {
			errs.Add("email", "email is already used by another student")
		}
	}
	return errs, nil
}

// Create validates and inserts a student.
func (s *StudentService) Create(ctx context.Context, in model.StudentInput) (*model.Student, error) {
	in.Normalize()
	errs, err := s.validate(ctx, &in, 0)
	if err != nil {
		return nil, classify(s.log, "validate student", err)
	}
	if err := validationResult(errs); err != nil {
		return nil, err
	}

	st := &model.Student{}
	in.Apply(st)
	if err := s.repo.Students.Create(ctx, st); err != nil {
		return nil, classify(s.log, "create student", err)
	}
	return st, nil
}

// Update validates and saves a student. With SyncUser set, the linked user's
// email, phone and full name are rewritten in the same transaction.
func (s *StudentService) Update(ctx context.Context, id int, in model.StudentInput) (*model.Student, error) {
	st, err := s.repo.Students.GetByID(ctx, id)
	if err != nil {
		return nil, classify(s.log, "get student", err)
	}
	return s.update(ctx, st, in)
}

func (s *StudentService) update(ctx context.Context, st *model.Student, in model.StudentInput) (*model.Student, error) {
	in.Normalize()
	errs, err := s.validate(ctx, &in, st.ID)
	if err != nil {
		return nil, classify(s.log, "validate student", err)
	}

	propagate := in.SyncUser && st.UserID != nil
	if propagate {
		if _, bad := errs["email"]; !bad {
			taken, err := s.repo.Users.EmailExists(ctx, in.Email, *st.UserID)
			if err != nil {
				return nil, classify(s.log, "check user email", err)
			}
			if taken {
				errs.Add("email", "email is already registered to another user")
			}
		}
	}
	if err := validationResult(errs); err != nil {
		return nil, err
	}

	updated := *st
	in.Apply(&updated)

	err = s.repo.WithTx(ctx, func(r *repository.Repository) error {
		if err := r.Students.Update(ctx, &updated); err != nil {
			return err
		}
		if !propagate {
			return nil
		}
		u, err := r.Users.GetByID(ctx, *updated.UserID)
		if err != nil {
			return err
		}
		u.Email = updated.Email
		u.Phone = updated.Phone
		u.FullName = updated.FullName()
		return r.Users.Update(ctx, u)
	})
	if err != nil {
		return nil, classify(s.log, "update student", err)
	}
	return &updated, nil
}

// Delete removes a student and, through the schema, their enrollments.
func (s *StudentService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Students.Delete(ctx, id); err != nil {
		return classify(s.log, "delete student", err)
	}
	s.log.Info().Int("student_id", id).Msg("student deleted")
	return nil
}
