package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/siakad-backend/internal/database"
	"github.com/stemsi/siakad-backend/internal/model"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository persists login identities.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByLogin(ctx context.Context, login string) (*model.User, error)
	UsernameExists(ctx context.Context, username string, excludeID int) (bool, error)
	EmailExists(ctx context.Context, email string, excludeID int) (bool, error)
	Create(ctx context.Context, u *model.User) error
	Update(ctx context.Context, u *model.User) error
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	TouchLastLogin(ctx context.Context, id int) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, filter model.UserFilter, limit, offset int) ([]model.User, int, error)
	ListByRole(ctx context.Context, role model.Role) ([]model.User, error)
	ActivateInactive(ctx context.Context) (int, error)
}

// AdministratorRepository persists the admin extension records.
type AdministratorRepository interface {
	GetByUserID(ctx context.Context, userID int) (*model.Administrator, error)
	CodeExists(ctx context.Context, code string, excludeUserID int) (bool, error)
	Create(ctx context.Context, a *model.Administrator) error
	Update(ctx context.Context, a *model.Administrator) error
	DeleteByUserID(ctx context.Context, userID int) error
}

// StudentRepository persists academic records.
type StudentRepository interface {
	GetByID(ctx context.Context, id int) (*model.Student, error)
	GetByEmail(ctx context.Context, email string) (*model.Student, error)
	GetByUserID(ctx context.Context, userID int) (*model.Student, error)
	CodeExists(ctx context.Context, code string, excludeID int) (bool, error)
	EmailExists(ctx context.Context, email string, excludeID int) (bool, error)
	Create(ctx context.Context, s *model.Student) error
	Update(ctx context.Context, s *model.Student) error
	Link(ctx context.Context, studentID, userID int) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, filter model.StudentFilter, limit, offset int) ([]model.Student, int, error)
	ListAll(ctx context.Context) ([]model.Student, error)
	ListUnlinkedByFirstName(ctx context.Context, firstName string) ([]model.Student, error)
}

// CourseRepository persists the course catalog.
type CourseRepository interface {
	GetByID(ctx context.Context, id int) (*model.Course, error)
	CodeExists(ctx context.Context, code string, excludeID int) (bool, error)
	Create(ctx context.Context, c *model.Course) error
	Update(ctx context.Context, c *model.Course) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, filter model.CourseFilter, limit, offset int) ([]model.Course, int, error)
	ListAll(ctx context.Context, filter model.CourseFilter) ([]model.Course, error)
}

// EnrollmentRepository persists student/course registrations.
type EnrollmentRepository interface {
	GetByID(ctx context.Context, id int) (*model.Enrollment, error)
	GetByPair(ctx context.Context, studentID, courseID int) (*model.Enrollment, error)
	Create(ctx context.Context, e *model.Enrollment) error
	Update(ctx context.Context, e *model.Enrollment) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, filter model.EnrollmentFilter, limit, offset int) ([]model.Enrollment, int, error)
	ListAll(ctx context.Context, filter model.EnrollmentFilter) ([]model.Enrollment, error)
}

// DashboardRepository aggregates counts across tables.
type DashboardRepository interface {
	Summary(ctx context.Context) (*model.DashboardSummary, error)
}

// Transactor runs fn against repositories bound to a single transaction.
// fn's error rolls the transaction back; nil commits it.
type Transactor interface {
	WithTx(ctx context.Context, fn func(r *Repository) error) error
}

// Repository is the aggregate entry point to all repositories.
type Repository struct {
	Users          UserRepository
	Administrators AdministratorRepository
	Students       StudentRepository
	Courses        CourseRepository
	Enrollments    EnrollmentRepository
	Dashboard      DashboardRepository

	Tx Transactor
}

// WithTx runs fn inside a transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(r *Repository) error) error {
	return r.Tx.WithTx(ctx, fn)
}

// RetryPolicy bounds how often a transaction is re-run after a transient failure.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// New builds the pgx-backed repository aggregate.
func New(pool *pgxpool.Pool, retry RetryPolicy) *Repository {
	r := bind(pool)
	r.Tx = &pgxTransactor{pool: pool, retry: retry}
	return r
}

func bind(db DBTX) *Repository {
	sb := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	return &Repository{
		Users:          &userRepository{db: db, sb: sb},
		Administrators: &administratorRepository{db: db, sb: sb},
		Students:       &studentRepository{db: db, sb: sb},
		Courses:        &courseRepository{db: db, sb: sb},
		Enrollments:    &enrollmentRepository{db: db, sb: sb},
		Dashboard:      &dashboardRepository{db: db},
	}
}

type pgxTransactor struct {
	pool  *pgxpool.Pool
	retry RetryPolicy
}

func (t *pgxTransactor) WithTx(ctx context.Context, fn func(r *Repository) error) error {
	return database.Retry(ctx, t.retry.Attempts, t.retry.Backoff, func(ctx context.Context) error {
		tx, err := t.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()

		scoped := bind(tx)
		scoped.Tx = inTx{r: scoped}

		if err := fn(scoped); err != nil {
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", mapError(err))
		}
		return nil
	})
}

// inTx joins the surrounding transaction instead of opening a new one.
type inTx struct {
	r *Repository
}

func (t inTx) WithTx(_ context.Context, fn func(r *Repository) error) error {
	return fn(t.r)
}

// likePattern wraps a search term for ILIKE, escaping wildcard characters.
func likePattern(term string) string {
	escaped := make([]rune, 0, len(term)+2)
	for _, r := range term {
		if r == '%' || r == '_' || r == '\\' {
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, r)
	}
	return "%" + string(escaped) + "%"
}
