package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/stemsi/siakad-backend/internal/repository"
)

func TestEnrollmentService_EnrollThenGrade(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	st := ts.mustStudent(t, "S001", "Jane", "Doe", "jane@school.edu")
	c := ts.mustCourse(t, "CS101", "Intro to CS", 3)

	e := ts.mustEnroll(t, st.ID, c.ID)
	if e.Status != model.StatusEnrolled || e.Grade != nil {
		t.Fatalf("new enrollment = status %q grade %v", e.Status, e.Grade)
	}
	if e.Course == nil || e.Course.Code != "CS101" || e.Student == nil || e.Student.StudentCode != "S001" {
		t.Errorf("enrollment summaries not populated: %+v", e)
	}

	graded, err := ts.enrollments.RecordGrade(ctx, model.GradeInput{StudentID: st.ID, CourseID: c.ID, Grade: floatPtr(88.5)})
	if err != nil {
		t.Fatalf("record grade: %v", err)
	}
	if graded.Status != model.StatusCompleted || graded.Grade == nil || *graded.Grade != 88.5 {
		t.Errorf("graded = status %q grade %v", graded.Status, graded.Grade)
	}

	stored, _ := ts.enrollments.Get(ctx, e.ID)
	if stored.Status != model.StatusCompleted || *stored.Grade != 88.5 {
		t.Errorf("stored = status %q grade %v", stored.Status, stored.Grade)
	}
}

func TestEnrollmentService_DuplicateEnrollment(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	st := ts.mustStudent(t, "S001", "Jane", "Doe", "jane@school.edu")
	c := ts.mustCourse(t, "CS101", "Intro to CS", 3)
	first := ts.mustEnroll(t, st.ID, c.ID)

	_, err := ts.enrollments.Enroll(ctx, model.EnrollmentInput{StudentID: st.ID, CourseID: c.ID})
	if !errors.Is(err, ErrDuplicateEnrollment) {
		t.Fatalf("second enroll: err = %v, want ErrDuplicateEnrollment", err)
	}

	again, err := ts.enrollments.Get(ctx, first.ID)
	if err != nil || again.Status != model.StatusEnrolled {
		t.Errorf("first enrollment affected: %+v, %v", again, err)
	}
	if ts.store.Count("enrollments") != 1 {
		t.Errorf("enrollments = %d, want 1", ts.store.Count("enrollments"))
	}
}

func TestEnrollmentService_DuplicateRaceMapsConstraint(t *testing.T) {
	ts := newTestServices(t)
	st := ts.mustStudent(t, "S001", "Jane", "Doe", "jane@school.edu")
	c := ts.mustCourse(t, "CS101", "Intro to CS", 3)
	ts.mustEnroll(t, st.ID, c.ID)

	// The pre-check misses, as it would for a concurrent request.
	ts.store.HidePairs = true
	_, err := ts.enrollments.Enroll(context.Background(), model.EnrollmentInput{StudentID: st.ID, CourseID: c.ID})
	if !errors.Is(err, ErrDuplicateEnrollment) {
		t.Fatalf("err = %v, want ErrDuplicateEnrollment", err)
	}
}

func TestEnrollmentService_EnrollValidatesReferences(t *testing.T) {
	ts := newTestServices(t)

	_, err := ts.enrollments.Enroll(context.Background(), model.EnrollmentInput{StudentID: 41, CourseID: 0})
	fields := fieldErrors(t, err)
	if _, ok := fields["student_id"]; !ok {
		t.Errorf("expected error on student_id, got %v", fields)
	}
	if _, ok := fields["course_id"]; !ok {
		t.Errorf("expected error on course_id, got %v", fields)
	}
}

func TestEnrollmentService_ReferenceRemovedBeforeInsert(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	st := ts.mustStudent(t, "S001", "Jane", "Doe", "jane@school.edu")
	c := ts.mustCourse(t, "CS101", "Intro to CS", 3)

	ts.store.Before["enrollments.create"] = func() {
		if err := ts.repo.Courses.Delete(ctx, c.ID); err != nil {
			t.Errorf("delete course: %v", err)
		}
	}
	_, err := ts.enrollments.Enroll(ctx, model.EnrollmentInput{StudentID: st.ID, CourseID: c.ID})
	fields := fieldErrors(t, err)
	if _, ok := fields["course_id"]; !ok || len(fields) != 1 {
		t.Errorf("fields = %v, want only course_id", fields)
	}
	if ts.store.Count("enrollments") != 0 {
		t.Errorf("enrollments = %d, want 0", ts.store.Count("enrollments"))
	}
}

func TestEnrollmentService_MissingReferenceIsNotFound(t *testing.T) {
	ts := newTestServices(t)
	st := ts.mustStudent(t, "S001", "Jane", "Doe", "jane@school.edu")
	c := ts.mustCourse(t, "CS101", "Intro to CS", 3)

	// The constraint fires although both rows are still visible.
	ts.store.FailOnce["enrollments.create"] = repository.ErrMissingReference
	_, err := ts.enrollments.Enroll(context.Background(), model.EnrollmentInput{StudentID: st.ID, CourseID: c.ID})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestEnrollmentService_GradeRequiresEnrollment(t *testing.T) {
	ts := newTestServices(t)
	st := ts.mustStudent(t, "S001", "Jane", "Doe", "jane@school.edu")
	c := ts.mustCourse(t, "CS101", "Intro to CS", 3)

	_, err := ts.enrollments.RecordGrade(context.Background(), model.GradeInput{StudentID: st.ID, CourseID: c.ID, Grade: floatPtr(70)})
	if _, ok := fieldErrors(t, err)["enrollment"]; !ok {
		t.Fatalf("expected error on enrollment, got %v", err)
	}
	if ts.store.Count("enrollments") != 0 {
		t.Error("recording a grade must not create an enrollment")
	}

	_, err = ts.enrollments.RecordGrade(context.Background(), model.GradeInput{StudentID: st.ID, CourseID: c.ID})
	if _, ok := fieldErrors(t, err)["grade"]; !ok {
		t.Fatalf("expected error on grade, got %v", err)
	}
}

func TestEnrollmentService_GradeFailureRollsBack(t *testing.T) {
	ts := newTestServices(t)
	st := ts.mustStudent(t, "S001", "Jane", "Doe", "jane@school.edu")
	c := ts.mustCourse(t, "CS101", "Intro to CS", 3)
	e := ts.mustEnroll(t, st.ID, c.ID)

	ts.store.Failures["enrollments.update"] = repository.ErrGradeOutOfRange
	_, err := ts.enrollments.RecordGrade(context.Background(), model.GradeInput{StudentID: st.ID, CourseID: c.ID, Grade: floatPtr(12345)})
	if _, ok := fieldErrors(t, err)["grade"]; !ok {
		t.Fatalf("expected error on grade, got %v", err)
	}

	stored, _ := ts.enrollments.Get(context.Background(), e.ID)
	if stored.Status != model.StatusEnrolled || stored.Grade != nil {
		t.Errorf("enrollment changed after failure: %+v", stored)
	}
}

func TestEnrollmentService_EditPolicies(t *testing.T) {
	ctx := context.Background()

	override := newTestServices(t)
	st := override.mustStudent(t, "S001", "Jane", "Doe", "jane@school.edu")
	c := override.mustCourse(t, "CS101", "Intro to CS", 3)
	e := override.mustEnroll(t, st.ID, c.ID)
	got, err := override.enrollments.Edit(ctx, e.ID, model.EnrollmentEdit{Status: " Completed "})
	if err != nil {
		t.Fatalf("override edit: %v", err)
	}
	if got.Status != model.StatusCompleted || got.Grade != nil {
		t.Errorf("override edit = %q %v", got.Status, got.Grade)
	}

	strict := newTestServicesWithPolicy(t, StatusPolicyStrict)
	st = strict.mustStudent(t, "S001", "Jane", "Doe", "jane@school.edu")
	c = strict.mustCourse(t, "CS101", "Intro to CS", 3)
	e = strict.mustEnroll(t, st.ID, c.ID)
	_, err = strict.enrollments.Edit(ctx, e.ID, model.EnrollmentEdit{Status: "completed"})
	if _, ok := fieldErrors(t, err)["status"]; !ok {
		t.Fatalf("strict edit: expected error on status, got %v", err)
	}

	_, err = strict.enrollments.Edit(ctx, e.ID, model.EnrollmentEdit{Status: "finished"})
	if _, ok := fieldErrors(t, err)["status"]; !ok {
		t.Fatalf("unknown status: expected error on status, got %v", err)
	}

	if _, err := strict.enrollments.Edit(ctx, 9999, model.EnrollmentEdit{Status: "dropped"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing enrollment: err = %v, want ErrNotFound", err)
	}
}

func TestEnrollmentService_CascadeDeletes(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	jane := ts.mustStudent(t, "S001", "Jane", "Doe", "jane@school.edu")
	john := ts.mustStudent(t, "S002", "John", "Roe", "john@school.edu")
	cs := ts.mustCourse(t, "CS101", "Intro to CS", 3)
	ma := ts.mustCourse(t, "MA101", "Calculus", 4)
	ts.mustEnroll(t, jane.ID, cs.ID)
	ts.mustEnroll(t, jane.ID, ma.ID)
	ts.mustEnroll(t, john.ID, cs.ID)
	keep := ts.mustEnroll(t, john.ID, ma.ID)

	if err := ts.courses.Delete(ctx, cs.ID); err != nil {
		t.Fatalf("delete course: %v", err)
	}
	if err := ts.students.Delete(ctx, jane.ID); err != nil {
		t.Fatalf("delete student: %v", err)
	}

	remaining, _, err := ts.enrollments.List(ctx, model.EnrollmentFilter{}, 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != keep.ID {
		t.Errorf("remaining enrollments = %v, want only %d", ids(remaining), keep.ID)
	}
	if err := ts.courses.Delete(ctx, cs.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestEnrollmentService_GradeReportRanks(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	c := ts.mustCourse(t, "CS101", "Intro to CS", 3)

	grades := []float64{72, 95, 72, 88}
	var want []int
	for i, g := range grades {
		st := ts.mustStudent(t, "S00"+string(rune('1'+i)), "Student", string(rune('A'+i)), string(rune('a'+i))+"@school.edu")
		e := ts.mustEnroll(t, st.ID, c.ID)
		if _, err := ts.enrollments.RecordGrade(ctx, model.GradeInput{StudentID: st.ID, CourseID: c.ID, Grade: floatPtr(g)}); err != nil {
			t.Fatalf("grade: %v", err)
		}
		want = append(want, e.ID)
	}
	ungraded := ts.mustStudent(t, "S009", "No", "Grade", "none@school.edu")
	ts.mustEnroll(t, ungraded.ID, c.ID)

	report, err := ts.enrollments.GradeReport(ctx, model.EnrollmentFilter{CourseID: &c.ID})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	order := []int{want[1], want[3], want[0], want[2]}
	got := ids(report)
	if len(got) != len(order) {
		t.Fatalf("report = %v, want %v", got, order)
	}
	for i := range order {
		if got[i] != order[i] {
			t.Fatalf("report = %v, want %v", got, order)
		}
	}
}

func TestEnrollmentService_CheckAndDrop(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	st := ts.mustStudent(t, "S001", "Jane", "Doe", "jane@school.edu")
	c := ts.mustCourse(t, "CS101", "Intro to CS", 3)

	check, err := ts.enrollments.Check(ctx, st.ID, c.ID)
	if err != nil || check.Exists {
		t.Fatalf("check before enroll = %+v, %v", check, err)
	}

	ts.mustEnroll(t, st.ID, c.ID)
	check, _ = ts.enrollments.Check(ctx, st.ID, c.ID)
	if !check.Exists || check.HasGrade {
		t.Errorf("check after enroll = %+v", check)
	}

	if err := ts.enrollments.Drop(ctx, st.ID, c.ID); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if err := ts.enrollments.Drop(ctx, st.ID, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second drop: err = %v, want ErrNotFound", err)
	}
}
