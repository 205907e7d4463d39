package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Domain errors returned by the repositories.
var (
	ErrNotFound = errors.New("record not found")

	ErrDuplicateUsername     = errors.New("user with this username already exists")
	ErrDuplicateUserEmail    = errors.New("user with this email already exists")
	ErrDuplicateAdminCode    = errors.New("administrator with this admin code already exists")
	ErrDuplicateAdminUser    = errors.New("user already has an administrator record")
	ErrDuplicateStudentCode  = errors.New("student with this student id already exists")
	ErrDuplicateStudentEmail = errors.New("student with this email already exists")
	ErrStudentAlreadyLinked  = errors.New("user is already linked to another student")
	ErrDuplicateCourseCode   = errors.New("course with this code already exists")
	ErrDuplicateEnrollment   = errors.New("student is already enrolled in this course")
	ErrGradeOutOfRange       = errors.New("grade does not fit NUMERIC(5,2)")
)

const (
	codeUniqueViolation    = "23505"
	codeNumericOutOfRange  = "22003"
	codeForeignKeyViolated = "23503"
)

// ErrMissingReference is returned when a foreign key points at a row that does not exist.
var ErrMissingReference = errors.New("referenced record does not exist")

// constraintErrors maps unique constraint names from the schema to domain errors.
var constraintErrors = map[string]error{
	"users_username_key":            ErrDuplicateUsername,
	"users_email_key":               ErrDuplicateUserEmail,
	"administrators_admin_code_key": ErrDuplicateAdminCode,
	"administrators_user_id_key":    ErrDuplicateAdminUser,
	"students_student_code_key":     ErrDuplicateStudentCode,
	"students_email_key":            ErrDuplicateStudentEmail,
	"students_user_id_key":          ErrStudentAlreadyLinked,
	"courses_course_code_key":       ErrDuplicateCourseCode,
	"unique_enrollment":             ErrDuplicateEnrollment,
}

// mapError translates driver errors into domain errors. Unknown errors are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		if mapped, ok := constraintErrors[pgErr.ConstraintName]; ok {
			return mapped
		}
	case codeNumericOutOfRange:
		return ErrGradeOutOfRange
	case codeForeignKeyViolated:
		return ErrMissingReference
	}
	return err
}
