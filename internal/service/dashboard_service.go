package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/stemsi/siakad-backend/internal/repository"
)

// DashboardData consolidates the metrics of the admin dashboard.
type DashboardData struct {
	Summary           *model.DashboardSummary `json:"summary"`
	RecentEnrollments []model.Enrollment      `json:"recent_enrollments"`
	TopGrades         []model.Enrollment      `json:"top_grades"`
}

// DashboardService handles admin dashboard business logic.
type DashboardService struct {
	repo *repository.Repository
	log  zerolog.Logger
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(repo *repository.Repository, log zerolog.Logger) *DashboardService {
	return &DashboardService{
		repo: repo,
		log:  log.With().Str("component", "dashboard_service").Logger(),
	}
}

// GetDashboardData fetches the summary counts, latest enrollments and best grades.
func (s *DashboardService) GetDashboardData(ctx context.Context) (*DashboardData, error) {
	summary, err := s.repo.Dashboard.Summary(ctx)
	if err != nil {
		return nil, classify(s.log, "dashboard summary", err)
	}

	recent, _, err := s.repo.Enrollments.List(ctx, model.EnrollmentFilter{}, 5, 0)
	if err != nil {
		return nil, classify(s.log, "recent enrollments", err)
	}

	top, _, err := s.repo.Enrollments.List(ctx, gradeFilter(model.EnrollmentFilter{}), 5, 0)
	if err != nil {
		return nil, classify(s.log, "top grades", err)
	}

	return &DashboardData{
		Summary:           summary,
		RecentEnrollments: recent,
		TopGrades:         top,
	}, nil
}
