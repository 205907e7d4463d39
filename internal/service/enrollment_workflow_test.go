package service

import (
	"testing"
	"time"

	"github.com/stemsi/siakad-backend/internal/model"
)

func TestNewEnrollment(t *testing.T) {
	date := time.Date(2024, 9, 2, 15, 30, 0, 0, time.UTC)
	e := NewEnrollment(3, 7, date)

	if e.Status != model.StatusEnrolled {
		t.Errorf("status = %q, want enrolled", e.Status)
	}
	if e.Grade != nil {
		t.Errorf("grade = %v, want nil", *e.Grade)
	}
	if got := e.EnrollmentDate.Format(model.DateLayout); got != "2024-09-02" {
		t.Errorf("enrollment date = %s, want 2024-09-02", got)
	}
	if NewEnrollment(1, 1, time.Time{}).EnrollmentDate.IsZero() {
		t.Error("zero date should default to today")
	}
}

func TestApplyGrade_AlwaysCompletes(t *testing.T) {
	statuses := []model.EnrollmentStatus{
		model.StatusEnrolled, model.StatusCompleted, model.StatusDropped, model.StatusWithdrawn,
	}
	for _, status := range statuses {
		t.Run(string(status), func(t *testing.T) {
			e := &model.Enrollment{Status: status}
			ApplyGrade(e, 88.456, "")

			if e.Status != model.StatusCompleted {
				t.Errorf("status = %q, want completed", e.Status)
			}
			if e.Grade == nil || *e.Grade != 88.46 {
				t.Errorf("grade = %v, want 88.46", e.Grade)
			}
		})
	}
}

func TestApplyGrade_KeepsRemarksWhenEmpty(t *testing.T) {
	e := &model.Enrollment{Status: model.StatusEnrolled, Remarks: "late start"}
	ApplyGrade(e, 70, "")
	if e.Remarks != "late start" {
		t.Errorf("remarks = %q, want unchanged", e.Remarks)
	}
	ApplyGrade(e, 75, "regrade")
	if e.Remarks != "regrade" {
		t.Errorf("remarks = %q, want regrade", e.Remarks)
	}
}

func TestApplyEdit(t *testing.T) {
	tests := []struct {
		name       string
		start      model.Enrollment
		edit       model.EnrollmentEdit
		policy     StatusPolicy
		wantStatus model.EnrollmentStatus
		wantGrade  *float64
		wantErr    string
	}{
		{
			name:       "override sets completed without grade",
			start:      model.Enrollment{Status: model.StatusEnrolled},
			edit:       model.EnrollmentEdit{Status: "completed"},
			policy:     StatusPolicyOverride,
			wantStatus: model.StatusCompleted,
		},
		{
			name:    "strict rejects completed without grade",
			start:   model.Enrollment{Status: model.StatusEnrolled},
			edit:    model.EnrollmentEdit{Status: "completed"},
			policy:  StatusPolicyStrict,
			wantErr: "status",
		},
		{
			name:       "grade advances enrolled",
			start:      model.Enrollment{Status: model.StatusEnrolled},
			edit:       model.EnrollmentEdit{Grade: floatPtr(91)},
			policy:     StatusPolicyStrict,
			wantStatus: model.StatusCompleted,
			wantGrade:  floatPtr(91),
		},
		{
			name:       "grade with explicit dropped keeps dropped",
			start:      model.Enrollment{Status: model.StatusEnrolled},
			edit:       model.EnrollmentEdit{Status: "dropped", Grade: floatPtr(40)},
			policy:     StatusPolicyOverride,
			wantStatus: model.StatusDropped,
			wantGrade:  floatPtr(40),
		},
		{
			name:       "empty status leaves status",
			start:      model.Enrollment{Status: model.StatusWithdrawn},
			edit:       model.EnrollmentEdit{Remarks: strPtr("moved abroad")},
			policy:     StatusPolicyOverride,
			wantStatus: model.StatusWithdrawn,
		},
		{
			name:    "unknown status",
			start:   model.Enrollment{Status: model.StatusEnrolled},
			edit:    model.EnrollmentEdit{Status: "graduated"},
			policy:  StatusPolicyOverride,
			wantErr: "status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.start
			err := ApplyEdit(&e, tt.edit, tt.policy)

			if tt.wantErr != "" {
				fields := fieldErrors(t, err)
				if _, ok := fields[tt.wantErr]; !ok {
					t.Fatalf("expected error on %q, got %v", tt.wantErr, fields)
				}
				if e.Status != tt.start.Status {
					t.Errorf("rejected edit changed status to %q", e.Status)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if e.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", e.Status, tt.wantStatus)
			}
			switch {
			case tt.wantGrade == nil && e.Grade != nil:
				t.Errorf("grade = %v, want nil", *e.Grade)
			case tt.wantGrade != nil && (e.Grade == nil || *e.Grade != *tt.wantGrade):
				t.Errorf("grade = %v, want %v", e.Grade, *tt.wantGrade)
			}
		})
	}
}

func TestRankByGrade_StableWithMissingLast(t *testing.T) {
	list := []model.Enrollment{
		{ID: 1, Grade: floatPtr(80)},
		{ID: 2},
		{ID: 3, Grade: floatPtr(95)},
		{ID: 4, Grade: floatPtr(80)},
		{ID: 5, Grade: floatPtr(60)},
		{ID: 6},
	}
	RankByGrade(list)

	want := []int{3, 1, 4, 5, 2, 6}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("position %d = %d, want %d (order %v)", i, list[i].ID, id, ids(list))
		}
	}
}

func ids(list []model.Enrollment) []int {
	out := make([]int, len(list))
	for i, e := range list {
		out[i] = e.ID
	}
	return out
}

func TestComputeStats(t *testing.T) {
	three := &model.Course{Credits: 3}
	four := &model.Course{Credits: 4}
	list := []model.Enrollment{
		{Status: model.StatusCompleted, Grade: floatPtr(90), Course: three},
		{Status: model.StatusCompleted, Grade: floatPtr(75.5), Course: four},
		{Status: model.StatusCompleted, Course: three},
		{Status: model.StatusEnrolled, Course: three},
		{Status: model.StatusDropped, Grade: floatPtr(10), Course: three},
	}

	got := ComputeStats(list)
	want := model.EnrollmentStats{
		Total:        5,
		Completed:    3,
		Current:      1,
		AverageGrade: 82.75,
		HighestGrade: 90,
		LowestGrade:  75.5,
		TotalCredits: 10,
	}
	if got != want {
		t.Errorf("ComputeStats = %+v, want %+v", got, want)
	}

	if empty := ComputeStats(nil); empty != (model.EnrollmentStats{}) {
		t.Errorf("ComputeStats(nil) = %+v, want zero", empty)
	}
}
