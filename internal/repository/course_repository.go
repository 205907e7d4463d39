package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/stemsi/siakad-backend/internal/model"
)

var courseColumns = []string{
	"c.id", "c.course_code", "c.course_name", "c.description", "c.credits",
	"c.department", "c.instructor",
	"(SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id) AS enrollment_count",
	"c.created_at", "c.updated_at",
}

type courseRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

func scanCourse(row interface{ Scan(dest ...any) error }) (*model.Course, error) {
	c := &model.Course{}
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Description, &c.Credits,
		&c.Department, &c.Instructor, &c.EnrollmentCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

// GetByID retrieves a course by ID, including its enrollment count.
func (r *courseRepository) GetByID(ctx context.Context, id int) (*model.Course, error) {
	query, args, err := r.sb.Select(courseColumns...).From("courses c").
		Where(squirrel.Eq{"c.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build course query: %w", err)
	}
	return scanCourse(r.db.QueryRow(ctx, query, args...))
}

// CodeExists checks whether another course already holds the code.
func (r *courseRepository) CodeExists(ctx context.Context, code string, excludeID int) (bool, error) {
	where := squirrel.And{squirrel.Eq{"course_code": code}}
	if excludeID > 0 {
		where = append(where, squirrel.NotEq{"id": excludeID})
	}
	query, args, err := r.sb.Select("1").From("courses").Where(where).
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

// Create inserts a new course.
func (r *courseRepository) Create(ctx context.Context, c *model.Course) error {
	query, args, err := r.sb.Insert("courses").
		Columns("course_code", "course_name", "description", "credits", "department", "instructor").
		Values(c.Code, c.Name, c.Description, c.Credits, c.Department, c.Instructor).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create course query: %w", err)
	}
	return mapError(r.db.QueryRow(ctx, query, args...).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt))
}

// Update modifies a course.
func (r *courseRepository) Update(ctx context.Context, c *model.Course) error {
	query, args, err := r.sb.Update("courses").
		Set("course_code", c.Code).
		Set("course_name", c.Name).
		Set("description", c.Description).
		Set("credits", c.Credits).
		Set("department", c.Department).
		Set("instructor", c.Instructor).
		Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		Where(squirrel.Eq{"id": c.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update course query: %w", err)
	}
	return mapError(r.db.QueryRow(ctx, query, args...).Scan(&c.UpdatedAt))
}

// Delete removes a course. Its enrollments go with it via ON DELETE CASCADE.
func (r *courseRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func courseFilterWhere(filter model.CourseFilter) squirrel.And {
	where := squirrel.And{}
	if filter.Department != "" {
		where = append(where, squirrel.Eq{"c.department": filter.Department})
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		where = append(where, squirrel.Or{
			squirrel.ILike{"c.course_code": p},
			squirrel.ILike{"c.course_name": p},
			squirrel.ILike{"c.instructor": p},
		})
	}
	return where
}

// List retrieves courses with pagination, ordered by course code.
func (r *courseRepository) List(ctx context.Context, filter model.CourseFilter, limit, offset int) ([]model.Course, int, error) {
	where := courseFilterWhere(filter)

	countQuery, countArgs, err := r.sb.Select("COUNT(*)").From("courses c").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count courses query: %w", err)
	}
	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	query, args, err := r.sb.Select(courseColumns...).From("courses c").Where(where).
		OrderBy("c.course_code").
		Limit(uint64(limit)).Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list courses query: %w", err)
	}

	courses, err := r.query(ctx, query, args...)
	return courses, total, err
}

// ListAll retrieves every matching course ordered by course code.
func (r *courseRepository) ListAll(ctx context.Context, filter model.CourseFilter) ([]model.Course, error) {
	query, args, err := r.sb.Select(courseColumns...).From("courses c").
		Where(courseFilterWhere(filter)).OrderBy("c.course_code").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list all courses query: %w", err)
	}
	return r.query(ctx, query, args...)
}

func (r *courseRepository) query(ctx context.Context, query string, args ...any) ([]model.Course, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *c)
	}
	return courses, mapError(rows.Err())
}
