package repository

import (
	"context"

	"github.com/stemsi/siakad-backend/internal/model"
)

type dashboardRepository struct {
	db DBTX
}

// Summary retrieves the high-level counts for the admin dashboard.
func (r *dashboardRepository) Summary(ctx context.Context) (*model.DashboardSummary, error) {
	s := &model.DashboardSummary{EnrollmentsByStatus: map[model.EnrollmentStatus]int{}}
	err := r.db.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM students),
			(SELECT COUNT(*) FROM courses),
			(SELECT COUNT(*) FROM enrollments),
			(SELECT COUNT(*) FROM students WHERE user_id IS NULL)`,
	).Scan(&s.TotalUsers, &s.TotalStudents, &s.TotalCourses, &s.TotalEnrollments, &s.UnlinkedStudents)
	if err != nil {
		return nil, mapError(err)
	}

	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM enrollments GROUP BY status`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, mapError(err)
		}
		s.EnrollmentsByStatus[model.EnrollmentStatus(status)] = count
	}
	return s, mapError(rows.Err())
}
