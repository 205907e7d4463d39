package service

import (
	"math"
	"sort"
	"time"

	"github.com/stemsi/siakad-backend/internal/model"
)

// StatusPolicy decides how administrative edits may move an enrollment's status.
type StatusPolicy int

const (
	// StatusPolicyOverride lets an administrator set any of the four statuses directly.
	StatusPolicyOverride StatusPolicy = iota
	// StatusPolicyStrict additionally rejects a completed status without a grade.
	StatusPolicyStrict
)

// RoundGrade rounds g to the two decimal places stored by the database.
func RoundGrade(g float64) float64 {
	return math.Round(g*100) / 100
}

// NewEnrollment returns a fresh enrollment: status enrolled, no grade.
// A zero date means today.
func NewEnrollment(studentID, courseID int, date time.Time) *model.Enrollment {
	if date.IsZero() {
		date = time.Now()
	}
	y, m, d := date.Date()
	return &model.Enrollment{
		StudentID:      studentID,
		CourseID:       courseID,
		EnrollmentDate: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Status:         model.StatusEnrolled,
	}
}

// ApplyGrade records g on e and marks it completed, whatever the prior status.
func ApplyGrade(e *model.Enrollment, g float64, remarks string) {
	rounded := RoundGrade(g)
	e.Grade = &rounded
	e.Status = model.StatusCompleted
	if remarks != "" {
		e.Remarks = remarks
	}
}

// ApplyEdit applies an administrative edit to e. A grade supplied while the
// resulting status is still enrolled advances the status to completed.
func ApplyEdit(e *model.Enrollment, edit model.EnrollmentEdit, policy StatusPolicy) error {
	next := *e

	if edit.Status != "" {
		status := model.EnrollmentStatus(edit.Status)
		if !status.Valid() {
			return invalid("status", "status must be one of enrolled, completed, dropped, withdrawn")
		}
		next.Status = status
	}
	if edit.Grade != nil {
		g := RoundGrade(*edit.Grade)
		next.Grade = &g
		if next.Status == model.StatusEnrolled {
			next.Status = model.StatusCompleted
		}
	}
	if edit.Remarks != nil {
		next.Remarks = *edit.Remarks
	}

	if policy == StatusPolicyStrict && next.Status == model.StatusCompleted && next.Grade == nil {
		return invalid("status", "a completed enrollment requires a grade")
	}

	*e = next
	return nil
}

// RankByGrade orders enrollments by grade descending. Missing grades sort
// last and ties keep their original order.
func RankByGrade(enrollments []model.Enrollment) {
	sort.SliceStable(enrollments, func(i, j int) bool {
		gi, gj := enrollments[i].Grade, enrollments[j].Grade
		switch {
		case gi == nil:
			return false
		case gj == nil:
			return true
		default:
			return *gi > *gj
		}
	})
}

// ComputeStats summarizes a student's enrollments. Grade figures cover
// completed enrollments that carry a grade.
func ComputeStats(enrollments []model.Enrollment) model.EnrollmentStats {
	stats := model.EnrollmentStats{Total: len(enrollments)}

	var sum float64
	graded := 0
	for i := range enrollments {
		e := &enrollments[i]
		switch e.Status {
		case model.StatusEnrolled:
			stats.Current++
		case model.StatusCompleted:
			stats.Completed++
			if e.Course != nil {
				stats.TotalCredits += e.Course.Credits
			}
			if e.Grade == nil {
				continue
			}
			g := *e.Grade
			if graded == 0 || g > stats.HighestGrade {
				stats.HighestGrade = g
			}
			if graded == 0 || g < stats.LowestGrade {
				stats.LowestGrade = g
			}
			sum += g
			graded++
		}
	}

	if graded > 0 {
		stats.AverageGrade = RoundGrade(sum / float64(graded))
	}
	return stats
}
