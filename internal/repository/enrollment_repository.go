package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/stemsi/siakad-backend/internal/model"
)

// enrollmentColumns selects the enrollment plus student and course summaries.
var enrollmentColumns = []string{
	"e.id", "e.student_id", "e.course_id", "e.enrollment_date", "e.status", "e.grade",
	"e.remarks", "e.created_at", "e.updated_at",
	"s.student_code", "s.first_name", "s.last_name", "s.email", "s.major",
	"c.course_code", "c.course_name", "c.credits", "c.department", "c.instructor",
}

type enrollmentRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

func scanEnrollment(row interface{ Scan(dest ...any) error }) (*model.Enrollment, error) {
	e := &model.Enrollment{Student: &model.Student{}, Course: &model.Course{}}
	var status string
	err := row.Scan(&e.ID, &e.StudentID, &e.CourseID, &e.EnrollmentDate, &status, &e.Grade,
		&e.Remarks, &e.CreatedAt, &e.UpdatedAt,
		&e.Student.StudentCode, &e.Student.FirstName, &e.Student.LastName, &e.Student.Email, &e.Student.Major,
		&e.Course.Code, &e.Course.Name, &e.Course.Credits, &e.Course.Department, &e.Course.Instructor)
	if err != nil {
		return nil, mapError(err)
	}
	e.Status = model.EnrollmentStatus(status)
	e.Student.ID = e.StudentID
	e.Course.ID = e.CourseID
	return e, nil
}

func (r *enrollmentRepository) selectJoined() squirrel.SelectBuilder {
	return r.sb.Select(enrollmentColumns...).
		From("enrollments e").
		Join("students s ON s.id = e.student_id").
		Join("courses c ON c.id = e.course_id")
}

// GetByID retrieves an enrollment with its student and course summaries.
func (r *enrollmentRepository) GetByID(ctx context.Context, id int) (*model.Enrollment, error) {
	query, args, err := r.selectJoined().Where(squirrel.Eq{"e.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build enrollment query: %w", err)
	}
	return scanEnrollment(r.db.QueryRow(ctx, query, args...))
}

// GetByPair retrieves the enrollment of a student in a course.
func (r *enrollmentRepository) GetByPair(ctx context.Context, studentID, courseID int) (*model.Enrollment, error) {
	query, args, err := r.selectJoined().
		Where(squirrel.Eq{"e.student_id": studentID, "e.course_id": courseID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build enrollment query: %w", err)
	}
	return scanEnrollment(r.db.QueryRow(ctx, query, args...))
}

// Create inserts a new enrollment. A second row for the same pair fails with ErrDuplicateEnrollment.
func (r *enrollmentRepository) Create(ctx context.Context, e *model.Enrollment) error {
	query, args, err := r.sb.Insert("enrollments").
		Columns("student_id", "course_id", "enrollment_date", "status", "grade", "remarks").
		Values(e.StudentID, e.CourseID, e.EnrollmentDate, string(e.Status), e.Grade, e.Remarks).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create enrollment query: %w", err)
	}
	return mapError(r.db.QueryRow(ctx, query, args...).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt))
}

// Update writes the status, grade and remarks of an enrollment.
func (r *enrollmentRepository) Update(ctx context.Context, e *model.Enrollment) error {
	query, args, err := r.sb.Update("enrollments").
		Set("status", string(e.Status)).
		Set("grade", e.Grade).
		Set("remarks", e.Remarks).
		Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		Where(squirrel.Eq{"id": e.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update enrollment query: %w", err)
	}
	return mapError(r.db.QueryRow(ctx, query, args...).Scan(&e.UpdatedAt))
}

// Delete removes an enrollment.
func (r *enrollmentRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func enrollmentFilterWhere(filter model.EnrollmentFilter) squirrel.And {
	where := squirrel.And{}
	if filter.StudentID != nil {
		where = append(where, squirrel.Eq{"e.student_id": *filter.StudentID})
	}
	if filter.CourseID != nil {
		where = append(where, squirrel.Eq{"e.course_id": *filter.CourseID})
	}
	if filter.Status != "" {
		where = append(where, squirrel.Eq{"e.status": string(filter.Status)})
	}
	if filter.GradedOnly {
		where = append(where, squirrel.NotEq{"e.grade": nil})
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		where = append(where, squirrel.Or{
			squirrel.ILike{"s.student_code": p},
			squirrel.ILike{"s.first_name": p},
			squirrel.ILike{"s.last_name": p},
			squirrel.ILike{"c.course_code": p},
			squirrel.ILike{"c.course_name": p},
		})
	}
	return where
}

func enrollmentOrder(filter model.EnrollmentFilter) []string {
	if filter.OrderByGrade {
		return []string{"e.grade DESC NULLS LAST", "e.id ASC"}
	}
	return []string{"e.enrollment_date DESC", "e.id DESC"}
}

// List retrieves enrollments with pagination.
func (r *enrollmentRepository) List(ctx context.Context, filter model.EnrollmentFilter, limit, offset int) ([]model.Enrollment, int, error) {
	where := enrollmentFilterWhere(filter)

	countQuery, countArgs, err := r.sb.Select("COUNT(*)").
		From("enrollments e").
		Join("students s ON s.id = e.student_id").
		Join("courses c ON c.id = e.course_id").
		Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count enrollments query: %w", err)
	}
	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	query, args, err := r.selectJoined().Where(where).
		OrderBy(enrollmentOrder(filter)...).
		Limit(uint64(limit)).Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list enrollments query: %w", err)
	}

	enrollments, err := r.query(ctx, query, args...)
	return enrollments, total, err
}

// ListAll retrieves every matching enrollment.
func (r *enrollmentRepository) ListAll(ctx context.Context, filter model.EnrollmentFilter) ([]model.Enrollment, error) {
	query, args, err := r.selectJoined().Where(enrollmentFilterWhere(filter)).
		OrderBy(enrollmentOrder(filter)...).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list all enrollments query: %w", err)
	}
	return r.query(ctx, query, args...)
}

func (r *enrollmentRepository) query(ctx context.Context, query string, args ...any) ([]model.Enrollment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	enrollments := []model.Enrollment{}
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		enrollments = append(enrollments, *e)
	}
	return enrollments, mapError(rows.Err())
}
