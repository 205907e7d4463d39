package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stemsi/siakad-backend/internal/model"
)

func TestStudentService_CreateValidation(t *testing.T) {
	ts := newTestServices(t)
	ts.mustStudent(t, "S001", "Jane", "Doe", "jane@school.edu")

	_, err := ts.students.Create(context.Background(), model.StudentInput{
		StudentCode: "S001",
		FirstName:   "",
		LastName:    "Roe",
		Email:       "jane@school.edu",
		Gender:      "Unknown",
		BirthDate:   "2001-13-40",
		Phone:       "123",
	})

	fields := fieldErrors(t, err)
	for _, f := range []string{"student_id", "first_name", "email", "gender", "birth_date", "phone"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("expected error on %q, got %v", f, fields)
		}
	}
}

func TestStudentService_CreateParsesOptionalFields(t *testing.T) {
	ts := newTestServices(t)
	st, err := ts.students.Create(context.Background(), model.StudentInput{
		StudentCode:    " S001 ",
		FirstName:      "Jane",
		LastName:       "Doe",
		Email:          "jane@school.edu",
		Gender:         "Female",
		BirthDate:      "2003-04-05",
		EnrollmentYear: intPtr(2022),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if st.StudentCode != "S001" {
		t.Errorf("student code = %q, want trimmed", st.StudentCode)
	}
	if st.Gender == nil || *st.Gender != model.GenderFemale {
		t.Errorf("gender = %v", st.Gender)
	}
	if st.BirthDate == nil || st.BirthDate.Format(model.DateLayout) != "2003-04-05" {
		t.Errorf("birth date = %v", st.BirthDate)
	}
}

func TestStudentService_UpdateRejectsDuplicates(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	ts.mustStudent(t, "S001", "Jane", "Doe", "jane@school.edu")
	other := ts.mustStudent(t, "S002", "Budi", "Santoso", "budi@school.edu")

	tests := []struct {
		name  string
		code  string
		email string
		field string
	}{
		{"student id", "S001", "budi@school.edu", "student_id"},
		{"email", "S002", "jane@school.edu", "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.students.Update(ctx, other.ID, model.StudentInput{
				StudentCode: tt.code, FirstName: "Budi", LastName: "Santoso", Email: tt.email,
			})
			fields := fieldErrors(t, err)
			if _, ok := fields[tt.field]; !ok || len(fields) != 1 {
				t.Errorf("fields = %v, want only %q", fields, tt.field)
			}
		})
	}

	if _, err := ts.students.Update(ctx, other.ID, model.StudentInput{
		StudentCode: "S002", FirstName: "Budi", LastName: "S.", Email: "budi@school.edu",
	}); err != nil {
		t.Errorf("update keeping own id and email: %v", err)
	}
}

func TestStudentService_UpdatePropagatesToUser(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	u := ts.mustUser(t, janeInput())
	st, err := ts.linkage.ResolveStudent(ctx, model.Identity{UserID: u.ID, Role: model.RoleStudent})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	_, err = ts.students.Update(ctx, st.ID, model.StudentInput{
		StudentCode: st.StudentCode,
		FirstName:   "Janet",
		LastName:    "Smith",
		Email:       "janet@b.com",
		Phone:       "+62 812 0000 111",
		SyncUser:    true,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := ts.repo.Users.GetByID(ctx, u.ID)
	if got.Email != "janet@b.com" || got.FullName != "Janet Smith" || got.Phone != "+62 812 0000 111" {
		t.Errorf("user after propagation = %+v", got)
	}
}

func TestStudentService_UpdateWithoutSyncLeavesUser(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	u := ts.mustUser(t, janeInput())
	st, _ := ts.linkage.ResolveStudent(ctx, model.Identity{UserID: u.ID, Role: model.RoleStudent})

	_, err := ts.students.Update(ctx, st.ID, model.StudentInput{
		StudentCode: st.StudentCode, FirstName: "Janet", LastName: "Smith", Email: "janet@b.com",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := ts.repo.Users.GetByID(ctx, u.ID)
	if got.Email != "a@b.com" || got.FullName != "Jane Doe" {
		t.Errorf("user changed without sync: %+v", got)
	}
}

func TestStudentService_PropagationFailureRollsBackBoth(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	u := ts.mustUser(t, janeInput())
	st, _ := ts.linkage.ResolveStudent(ctx, model.Identity{UserID: u.ID, Role: model.RoleStudent})

	ts.store.Failures["users.update"] = errors.New("connection lost")
	_, err := ts.students.Update(ctx, st.ID, model.StudentInput{
		StudentCode: st.StudentCode, FirstName: "Janet", LastName: "Smith", Email: "janet@b.com", SyncUser: true,
	})
	if !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("err = %v, want ErrOperationFailed", err)
	}

	stored, _ := ts.repo.Students.GetByID(ctx, st.ID)
	if stored.Email != "a@b.com" || stored.FirstName != "Jane" {
		t.Errorf("student changed after rollback: %+v", stored)
	}
}

func TestStudentService_PropagationEmailConflict(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	u := ts.mustUser(t, janeInput())
	ts.mustUser(t, model.UserInput{Username: "taken", Email: "taken@b.com", Password: "secret1", FullName: "Taken"})
	st, _ := ts.linkage.ResolveStudent(ctx, model.Identity{UserID: u.ID, Role: model.RoleStudent})

	_, err := ts.students.Update(ctx, st.ID, model.StudentInput{
		StudentCode: st.StudentCode, FirstName: "Jane", LastName: "Doe", Email: "taken@b.com", SyncUser: true,
	})
	if _, ok := fieldErrors(t, err)["email"]; !ok {
		t.Fatalf("expected error on email, got %v", err)
	}
}

func TestPortalService_ProfileEditKeepsStudentCode(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	u := ts.mustUser(t, janeInput())
	caller := model.Identity{UserID: u.ID, Role: model.RoleStudent}

	st, err := ts.portal.UpdateProfile(ctx, caller, model.StudentInput{
		StudentCode: "HACKED",
		FirstName:   "Jane",
		LastName:    "Doe",
		Email:       "jane.doe@b.com",
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if st.StudentCode != StudentCodeFor(u.ID) {
		t.Errorf("student code = %q, want unchanged", st.StudentCode)
	}
	got, _ := ts.repo.Users.GetByID(ctx, u.ID)
	if got.Email != "jane.doe@b.com" {
		t.Errorf("profile edit did not propagate email: %q", got.Email)
	}
}

func TestPortalService_EnrollDropAndGrades(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	u := ts.mustUser(t, janeInput())
	caller := model.Identity{UserID: u.ID, Role: model.RoleStudent}
	cs := ts.mustCourse(t, "CS101", "Intro to CS", 3)
	ma := ts.mustCourse(t, "MA101", "Calculus", 4)

	if _, err := ts.portal.Enroll(ctx, caller, cs.ID); err != nil {
		t.Fatalf("enroll cs: %v", err)
	}
	if _, err := ts.portal.Enroll(ctx, caller, cs.ID); !errors.Is(err, ErrDuplicateEnrollment) {
		t.Fatalf("second enroll: err = %v", err)
	}
	if _, err := ts.portal.Enroll(ctx, caller, ma.ID); err != nil {
		t.Fatalf("enroll ma: %v", err)
	}

	st, _ := ts.linkage.ResolveStudent(ctx, caller)
	if _, err := ts.enrollments.RecordGrade(ctx, model.GradeInput{StudentID: st.ID, CourseID: ma.ID, Grade: floatPtr(91)}); err != nil {
		t.Fatalf("grade: %v", err)
	}

	offers, err := ts.portal.Courses(ctx, caller, model.CourseFilter{})
	if err != nil || len(offers) != 2 {
		t.Fatalf("courses = %d, %v", len(offers), err)
	}
	for _, o := range offers {
		if o.Enrollment == nil {
			t.Errorf("course %s missing caller enrollment", o.Course.Code)
		}
	}

	grades, stats, err := ts.portal.Grades(ctx, caller)
	if err != nil {
		t.Fatalf("grades: %v", err)
	}
	if len(grades) != 1 || stats.Completed != 1 || stats.Current != 1 || stats.TotalCredits != 4 || stats.AverageGrade != 91 {
		t.Errorf("grades = %d, stats = %+v", len(grades), stats)
	}

	if err := ts.portal.Drop(ctx, caller, cs.ID); err != nil {
		t.Fatalf("drop: %v", err)
	}
	list, _, err := ts.portal.Enrollments(ctx, caller, "", "")
	if err != nil || len(list) != 1 {
		t.Errorf("enrollments after drop = %d, %v", len(list), err)
	}
	if _, _, err := ts.portal.Enrollments(ctx, caller, "graduated", ""); err == nil {
		t.Error("expected validation error for unknown status filter")
	}
}

func TestPortalService_EnrollmentOwnership(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	jane := ts.mustUser(t, janeInput())
	bob := ts.mustUser(t, model.UserInput{Username: "bobby", Email: "bob@b.com", Password: "secret1", FullName: "Bob Roe"})
	c := ts.mustCourse(t, "CS101", "Intro to CS", 3)

	e, err := ts.portal.Enroll(ctx, model.Identity{UserID: jane.ID, Role: model.RoleStudent}, c.ID)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, err := ts.portal.Enrollment(ctx, model.Identity{UserID: bob.ID, Role: model.RoleStudent}, e.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign enrollment: err = %v, want ErrNotFound", err)
	}
}
