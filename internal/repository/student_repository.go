package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/stemsi/siakad-backend/internal/model"
)

var studentColumns = []string{
	"id", "student_code", "first_name", "last_name", "birth_date", "gender", "email",
	"phone", "address", "major", "enrollment_year", "user_id", "created_at", "updated_at",
}

type studentRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

func scanStudent(row interface{ Scan(dest ...any) error }) (*model.Student, error) {
	s := &model.Student{}
	var gender *string
	err := row.Scan(&s.ID, &s.StudentCode, &s.FirstName, &s.LastName, &s.BirthDate, &gender, &s.Email,
		&s.Phone, &s.Address, &s.Major, &s.EnrollmentYear, &s.UserID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if gender != nil {
		g := model.Gender(*gender)
		s.Gender = &g
	}
	return s, nil
}

func genderValue(g *model.Gender) any {
	if g == nil {
		return nil
	}
	return string(*g)
}

func (r *studentRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*model.Student, error) {
	query, args, err := r.sb.Select(studentColumns...).From("students").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build student query: %w", err)
	}
	return scanStudent(r.db.QueryRow(ctx, query, args...))
}

// GetByID retrieves a student by ID.
func (r *studentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a student by exact email.
func (r *studentRepository) GetByEmail(ctx context.Context, email string) (*model.Student, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

// GetByUserID retrieves the student linked to a user.
func (r *studentRepository) GetByUserID(ctx context.Context, userID int) (*model.Student, error) {
	return r.getOne(ctx, squirrel.Eq{"user_id": userID})
}

func (r *studentRepository) exists(ctx context.Context, column, value string, excludeID int) (bool, error) {
	where := squirrel.And{squirrel.Eq{column: value}}
	if excludeID > 0 {
		where = append(where, squirrel.NotEq{"id": excludeID})
	}
	query, args, err := r.sb.Select("1").From("students").Where(where).
		Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, mapError(err)
	}
	return exists, nil
}

// CodeExists checks whether another student already holds the student code.
func (r *studentRepository) CodeExists(ctx context.Context, code string, excludeID int) (bool, error) {
	return r.exists(ctx, "student_code", code, excludeID)
}

// EmailExists checks whether another student already holds the email.
func (r *studentRepository) EmailExists(ctx context.Context, email string, excludeID int) (bool, error) {
	return r.exists(ctx, "email", email, excludeID)
}

// Create inserts a new student.
func (r *studentRepository) Create(ctx context.Context, s *model.Student) error {
	query, args, err := r.sb.Insert("students").
		Columns("student_code", "first_name", "last_name", "birth_date", "gender", "email",
			"phone", "address", "major", "enrollment_year", "user_id").
		Values(s.StudentCode, s.FirstName, s.LastName, s.BirthDate, genderValue(s.Gender), s.Email,
			s.Phone, s.Address, s.Major, s.EnrollmentYear, s.UserID).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create student query: %w", err)
	}
	return mapError(r.db.QueryRow(ctx, query, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt))
}

// Update modifies a student's academic fields. The user link is changed only through Link.
func (r *studentRepository) Update(ctx context.Context, s *model.Student) error {
	query, args, err := r.sb.Update("students").
		Set("student_code", s.StudentCode).
		Set("first_name", s.FirstName).
		Set("last_name", s.LastName).
		Set("birth_date", s.BirthDate).
		Set("gender", genderValue(s.Gender)).
		Set("email", s.Email).
		Set("phone", s.Phone).
		Set("address", s.Address).
		Set("major", s.Major).
		Set("enrollment_year", s.EnrollmentYear).
		Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		Where(squirrel.Eq{"id": s.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update student query: %w", err)
	}
	return mapError(r.db.QueryRow(ctx, query, args...).Scan(&s.UpdatedAt))
}

// Link binds an unlinked student to a user. A student already linked to
// someone else is left untouched and reported as ErrStudentAlreadyLinked.
func (r *studentRepository) Link(ctx context.Context, studentID, userID int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE students SET user_id = $1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $2 AND (user_id IS NULL OR user_id = $1)`,
		userID, studentID,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, studentID); err != nil {
			return err
		}
		return ErrStudentAlreadyLinked
	}
	return nil
}

// Delete removes a student. Enrollments go with it via ON DELETE CASCADE.
func (r *studentRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List retrieves students with pagination and optional search.
func (r *studentRepository) List(ctx context.Context, filter model.StudentFilter, limit, offset int) ([]model.Student, int, error) {
	where := squirrel.And{}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		where = append(where, squirrel.Or{
			squirrel.ILike{"student_code": p},
			squirrel.ILike{"first_name": p},
			squirrel.ILike{"last_name": p},
			squirrel.ILike{"email": p},
			squirrel.ILike{"major": p},
		})
	}

	countQuery, countArgs, err := r.sb.Select("COUNT(*)").From("students").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count students query: %w", err)
	}
	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	query, args, err := r.sb.Select(studentColumns...).From("students").Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list students query: %w", err)
	}

	students, err := r.query(ctx, query, args...)
	return students, total, err
}

// ListAll retrieves every student ordered by id.
func (r *studentRepository) ListAll(ctx context.Context) ([]model.Student, error) {
	query, args, err := r.sb.Select(studentColumns...).From("students").OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list all students query: %w", err)
	}
	return r.query(ctx, query, args...)
}

// ListUnlinkedByFirstName retrieves unlinked students whose first name
// matches firstName case-insensitively.
func (r *studentRepository) ListUnlinkedByFirstName(ctx context.Context, firstName string) ([]model.Student, error) {
	query, args, err := r.sb.Select(studentColumns...).From("students").
		Where(squirrel.Eq{"user_id": nil}).
		Where(squirrel.Expr("LOWER(first_name) = LOWER(?)", firstName)).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build unlinked students query: %w", err)
	}
	return r.query(ctx, query, args...)
}

func (r *studentRepository) query(ctx context.Context, query string, args ...any) ([]model.Student, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	students := []model.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *s)
	}
	return students, mapError(rows.Err())
}
