package service

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/siakad-backend/internal/repository"
	"github.com/stemsi/siakad-backend/internal/validator"
)

// Service-level errors surfaced to the handlers.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrDuplicateEnrollment = errors.New("student is already enrolled in this course")
	ErrOperationFailed     = errors.New("operation failed")
	ErrForbidden           = errors.New("forbidden")
)

// ValidationError carries every field-level problem found in one submission.
type ValidationError struct {
	Fields validator.Errors
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// invalid builds a ValidationError for a single field.
func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: validator.Errors{field: msg}}
}

// validationResult returns nil when errs is empty.
func validationResult(errs validator.Errors) error {
	if !errs.Any() {
		return nil
	}
	return &ValidationError{Fields: errs}
}

// duplicateFields maps unique-constraint violations onto the offending input field.
var duplicateFields = map[error]struct{ field, msg string }{
	repository.ErrDuplicateUsername:     {"username", "username is already taken"},
	repository.ErrDuplicateUserEmail:    {"email", "email is already registered"},
	repository.ErrDuplicateAdminCode:    {"admin_code", "admin code is already taken"},
	repository.ErrDuplicateAdminUser:    {"user", "user already has an administrator record"},
	repository.ErrDuplicateStudentCode:  {"student_id", "student id is already taken"},
	repository.ErrDuplicateStudentEmail: {"email", "email is already used by another student"},
	repository.ErrStudentAlreadyLinked:  {"user_id", "user is already linked to another student"},
	repository.ErrDuplicateCourseCode:   {"course_code", "course code is already taken"},
	repository.ErrGradeOutOfRange:       {"grade", "grade is out of range"},
}

// classify converts a repository error into the service taxonomy. Unexpected
// persistence failures are logged with their cause and reported as ErrOperationFailed.
func classify(log zerolog.Logger, op string, err error) error {
	if err == nil {
		return nil
	}

	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return err
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden),
		errors.Is(err, ErrDuplicateEnrollment), errors.Is(err, ErrOperationFailed),
		errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrAccountInactive):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrMissingReference):
		log.Warn().Str("op", op).Msg("referenced record disappeared")
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicateEnrollment):
		log.Warn().Str("op", op).Msg("duplicate enrollment rejected by unique constraint")
		return ErrDuplicateEnrollment
	}

	for sentinel, f := range duplicateFields {
		if errors.Is(err, sentinel) {
			log.Warn().Str("op", op).Str("field", f.field).Msg("uniqueness conflict")
			return invalid(f.field, f.msg)
		}
	}

	log.Error().Err(err).Str("op", op).Msg("persistence failure")
	return ErrOperationFailed
}
