// Package repotest provides an in-memory repository.Repository for tests.
//
// Store enforces the unique constraints and cascades of the PostgreSQL schema, and
// a transaction restores a snapshot when its function fails.
package repotest

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stemsi/siakad-backend/internal/database"
	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/stemsi/siakad-backend/internal/repository"
)

// Store is the shared state behind every repository returned by New.
type Store struct {
	mu sync.Mutex

	users       map[int]model.User
	admins      map[int]model.Administrator // keyed by user id
	students    map[int]model.Student
	courses     map[int]model.Course
	enrollments map[int]model.Enrollment
	nextID      int

	// Failures injects an error for the named operation, e.g. "users.update".
	Failures map[string]error
	// FailOnce is like Failures but each error is returned a single time.
	FailOnce map[string]error
	// Before runs just ahead of an operation, outside the store lock.
	Before map[string]func()
	// HidePairs makes GetByPair miss so the unique constraint is hit on insert.
	HidePairs bool
	// TxAttempts re-runs a transaction after a transient failure, like the pgx transactor.
	TxAttempts int
	TxCount    int
}

func newStore() *Store {
	return &Store{
		users:       map[int]model.User{},
		admins:      map[int]model.Administrator{},
		students:    map[int]model.Student{},
		courses:     map[int]model.Course{},
		enrollments: map[int]model.Enrollment{},
		Failures:    map[string]error{},
		FailOnce:    map[string]error{},
		Before:      map[string]func(){},
	}
}

// New returns an empty Store and a Repository bound to it.
func New() (*repository.Repository, *Store) {
	s := newStore()
	return &repository.Repository{
		Users:          &memUsers{s},
		Administrators: &memAdmins{s},
		Students:       &memStudents{s},
		Courses:        &memCourses{s},
		Enrollments:    &memEnrollments{s},
		Dashboard:      &memDashboard{s},
		Tx:             &memTx{s: s},
	}, s
}

// Count returns the number of rows in table: users, admins, students, courses or enrollments.
func (s *Store) Count(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch table {
	case "users":
		return len(s.users)
	case "admins":
		return len(s.admins)
	case "students":
		return len(s.students)
	case "courses":
		return len(s.courses)
	case "enrollments":
		return len(s.enrollments)
	}
	return 0
}

func rankByGrade(rows []model.Enrollment) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Grade, rows[j].Grade
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return *a > *b
	})
}

func (s *Store) id() int {
	s.nextID++
	return s.nextID
}

func (s *Store) fail(op string) error {
	if hook, ok := s.Before[op]; ok {
		hook()
	}
	if err, ok := s.FailOnce[op]; ok {
		delete(s.FailOnce, op)
		return err
	}
	return s.Failures[op]
}

type memSnapshot struct {
	users       map[int]model.User
	admins      map[int]model.Administrator
	students    map[int]model.Student
	courses     map[int]model.Course
	enrollments map[int]model.Enrollment
}

func (s *Store) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		users:       maps.Clone(s.users),
		admins:      maps.Clone(s.admins),
		students:    maps.Clone(s.students),
		courses:     maps.Clone(s.courses),
		enrollments: maps.Clone(s.enrollments),
	}
}

func (s *Store) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.admins = snap.admins
	s.students = snap.students
	s.courses = snap.courses
	s.enrollments = snap.enrollments
}

type memTx struct {
	s *Store
}

func (t *memTx) WithTx(ctx context.Context, fn func(r *repository.Repository) error) error {
	return database.Retry(ctx, t.s.TxAttempts, 0, func(ctx context.Context) error {
		t.s.TxCount++
		snap := t.s.snapshot()
		r := &repository.Repository{
			Users:          &memUsers{t.s},
			Administrators: &memAdmins{t.s},
			Students:       &memStudents{t.s},
			Courses:        &memCourses{t.s},
			Enrollments:    &memEnrollments{t.s},
			Dashboard:      &memDashboard{t.s},
		}
		r.Tx = memNestedTx{r: r}
		if err := fn(r); err != nil {
			t.s.restore(snap)
			return err
		}
		return nil
	})
}

type memNestedTx struct {
	r *repository.Repository
}

func (t memNestedTx) WithTx(_ context.Context, fn func(r *repository.Repository) error) error {
	return fn(t.r)
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// ─── Users ───────────────────────────────────────────────────────────────

type memUsers struct{ s *Store }

func (m *memUsers) find(match func(u model.User) bool) (*model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id int) (*model.User, error) {
	return m.find(func(u model.User) bool { return u.ID == id })
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return m.find(func(u model.User) bool { return u.Email == email })
}

func (m *memUsers) GetByLogin(_ context.Context, login string) (*model.User, error) {
	return m.find(func(u model.User) bool { return u.Username == login || u.Email == login })
}

func (m *memUsers) UsernameExists(_ context.Context, username string, excludeID int) (bool, error) {
	_, err := m.find(func(u model.User) bool { return u.Username == username && u.ID != excludeID })
	return err == nil, nil
}

func (m *memUsers) EmailExists(_ context.Context, email string, excludeID int) (bool, error) {
	_, err := m.find(func(u model.User) bool { return u.Email == email && u.ID != excludeID })
	return err == nil, nil
}

func (m *memUsers) unique(u *model.User) error {
	for _, other := range m.s.users {
		if other.ID == u.ID {
			continue
		}
		if other.Username == u.Username {
			return repository.ErrDuplicateUsername
		}
		if other.Email == u.Email {
			return repository.ErrDuplicateUserEmail
		}
	}
	return nil
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	if err := m.s.fail("users.create"); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.unique(u); err != nil {
		return err
	}
	u.ID = m.s.id()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.s.users[u.ID] = *u
	return nil
}

func (m *memUsers) Update(_ context.Context, u *model.User) error {
	if err := m.s.fail("users.update"); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := m.unique(u); err != nil {
		return err
	}
	next := *u
	next.PasswordHash = stored.PasswordHash
	next.LastLogin = stored.LastLogin
	next.CreatedAt = stored.CreatedAt
	next.UpdatedAt = time.Now()
	u.UpdatedAt = next.UpdatedAt
	m.s.users[u.ID] = next
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id int, passwordHash string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	m.s.users[id] = u
	return nil
}

func (m *memUsers) TouchLastLogin(_ context.Context, id int) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if u, ok := m.s.users[id]; ok {
		now := time.Now()
		u.LastLogin = &now
		m.s.users[id] = u
	}
	return nil
}

func (m *memUsers) Delete(_ context.Context, id int) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.s.users, id)
	delete(m.s.admins, id)
	for sid, st := range m.s.students {
		if st.UserID != nil && *st.UserID == id {
			st.UserID = nil
			m.s.students[sid] = st
		}
	}
	return nil
}

func (m *memUsers) sorted(match func(u model.User) bool) []model.User {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []model.User{}
	for _, u := range m.s.users {
		if match(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memUsers) List(_ context.Context, filter model.UserFilter, limit, offset int) ([]model.User, int, error) {
	all := m.sorted(func(u model.User) bool {
		if filter.Role != "" && u.Role != filter.Role {
			return false
		}
		return filter.Search == "" || contains(u.Username, filter.Search) ||
			contains(u.Email, filter.Search) || contains(u.FullName, filter.Search)
	})
	return window(all, limit, offset), len(all), nil
}

func (m *memUsers) ListByRole(_ context.Context, role model.Role) ([]model.User, error) {
	return m.sorted(func(u model.User) bool { return u.Role == role }), nil
}

func (m *memUsers) ActivateInactive(_ context.Context) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	n := 0
	for id, u := range m.s.users {
		if !u.IsActive {
			u.IsActive = true
			m.s.users[id] = u
			n++
		}
	}
	return n, nil
}

// ─── Administrators ──────────────────────────────────────────────────────

type memAdmins struct{ s *Store }

func (m *memAdmins) GetByUserID(_ context.Context, userID int) (*model.Administrator, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a, ok := m.s.admins[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (m *memAdmins) CodeExists(_ context.Context, code string, excludeUserID int) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, a := range m.s.admins {
		if a.AdminCode == code && a.UserID != excludeUserID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memAdmins) Create(_ context.Context, a *model.Administrator) error {
	if err := m.s.fail("admins.create"); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.users[a.UserID]; !ok {
		return repository.ErrMissingReference
	}
	if _, ok := m.s.admins[a.UserID]; ok {
		return repository.ErrDuplicateAdminUser
	}
	for _, other := range m.s.admins {
		if other.AdminCode == a.AdminCode {
			return repository.ErrDuplicateAdminCode
		}
	}
	a.ID = m.s.id()
	a.AssignedAt = time.Now()
	m.s.admins[a.UserID] = *a
	return nil
}

func (m *memAdmins) Update(_ context.Context, a *model.Administrator) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.admins[a.UserID]; !ok {
		return repository.ErrNotFound
	}
	for _, other := range m.s.admins {
		if other.UserID != a.UserID && other.AdminCode == a.AdminCode {
			return repository.ErrDuplicateAdminCode
		}
	}
	m.s.admins[a.UserID] = *a
	return nil
}

func (m *memAdmins) DeleteByUserID(_ context.Context, userID int) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	delete(m.s.admins, userID)
	return nil
}

// ─── Students ────────────────────────────────────────────────────────────

type memStudents struct{ s *Store }

func (m *memStudents) find(match func(st model.Student) bool) (*model.Student, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, st := range m.s.students {
		if match(st) {
			return &st, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStudents) GetByID(_ context.Context, id int) (*model.Student, error) {
	return m.find(func(st model.Student) bool { return st.ID == id })
}

func (m *memStudents) GetByEmail(_ context.Context, email string) (*model.Student, error) {
	return m.find(func(st model.Student) bool { return st.Email == email })
}

func (m *memStudents) GetByUserID(_ context.Context, userID int) (*model.Student, error) {
	return m.find(func(st model.Student) bool { return st.UserID != nil && *st.UserID == userID })
}

func (m *memStudents) CodeExists(_ context.Context, code string, excludeID int) (bool, error) {
	_, err := m.find(func(st model.Student) bool { return st.StudentCode == code && st.ID != excludeID })
	return err == nil, nil
}

func (m *memStudents) EmailExists(_ context.Context, email string, excludeID int) (bool, error) {
	_, err := m.find(func(st model.Student) bool { return st.Email == email && st.ID != excludeID })
	return err == nil, nil
}

func (m *memStudents) unique(st *model.Student) error {
	for _, other := range m.s.students {
		if other.ID == st.ID {
			continue
		}
		switch {
		case other.StudentCode == st.StudentCode:
			return repository.ErrDuplicateStudentCode
		case other.Email == st.Email:
			return repository.ErrDuplicateStudentEmail
		case st.UserID != nil && other.UserID != nil && *other.UserID == *st.UserID:
			return repository.ErrStudentAlreadyLinked
		}
	}
	return nil
}

func (m *memStudents) Create(_ context.Context, st *model.Student) error {
	if err := m.s.fail("students.create"); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.unique(st); err != nil {
		return err
	}
	st.ID = m.s.id()
	st.CreatedAt = time.Now()
	st.UpdatedAt = st.CreatedAt
	m.s.students[st.ID] = *st
	return nil
}

func (m *memStudents) Update(_ context.Context, st *model.Student) error {
	if err := m.s.fail("students.update"); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.students[st.ID]
	if !ok {
		return repository.ErrNotFound
	}
	next := *st
	next.UserID = stored.UserID
	if err := m.unique(&next); err != nil {
		return err
	}
	next.CreatedAt = stored.CreatedAt
	next.UpdatedAt = time.Now()
	st.UpdatedAt = next.UpdatedAt
	m.s.students[st.ID] = next
	return nil
}

func (m *memStudents) Link(_ context.Context, studentID, userID int) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	st, ok := m.s.students[studentID]
	if !ok {
		return repository.ErrNotFound
	}
	if st.UserID != nil && *st.UserID != userID {
		return repository.ErrStudentAlreadyLinked
	}
	st.UserID = &userID
	if err := m.unique(&st); err != nil {
		return err
	}
	m.s.students[studentID] = st
	return nil
}

func (m *memStudents) Delete(_ context.Context, id int) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.students[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.s.students, id)
	for eid, e := range m.s.enrollments {
		if e.StudentID == id {
			delete(m.s.enrollments, eid)
		}
	}
	return nil
}

func (m *memStudents) sorted(match func(st model.Student) bool) []model.Student {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []model.Student{}
	for _, st := range m.s.students {
		if match(st) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStudents) List(_ context.Context, filter model.StudentFilter, limit, offset int) ([]model.Student, int, error) {
	all := m.sorted(func(st model.Student) bool {
		return filter.Search == "" || contains(st.StudentCode, filter.Search) ||
			contains(st.FirstName, filter.Search) || contains(st.LastName, filter.Search) ||
			contains(st.Email, filter.Search)
	})
	return window(all, limit, offset), len(all), nil
}

func (m *memStudents) ListAll(_ context.Context) ([]model.Student, error) {
	return m.sorted(func(model.Student) bool { return true }), nil
}

func (m *memStudents) ListUnlinkedByFirstName(_ context.Context, firstName string) ([]model.Student, error) {
	return m.sorted(func(st model.Student) bool {
		return st.UserID == nil && strings.EqualFold(st.FirstName, firstName)
	}), nil
}

// ─── Courses ─────────────────────────────────────────────────────────────

type memCourses struct{ s *Store }

// withCount fills EnrollmentCount. Callers hold the lock.
func (m *memCourses) withCount(c model.Course) model.Course {
	c.EnrollmentCount = 0
	for _, e := range m.s.enrollments {
		if e.CourseID == c.ID {
			c.EnrollmentCount++
		}
	}
	return c
}

func (m *memCourses) GetByID(_ context.Context, id int) (*model.Course, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.courses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c = m.withCount(c)
	return &c, nil
}

func (m *memCourses) CodeExists(_ context.Context, code string, excludeID int) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, c := range m.s.courses {
		if c.Code == code && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memCourses) Create(_ context.Context, c *model.Course) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("courses.create"); err != nil {
		return err
	}
	for _, other := range m.s.courses {
		if other.Code == c.Code {
			return repository.ErrDuplicateCourseCode
		}
	}
	c.ID = m.s.id()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.s.courses[c.ID] = *c
	return nil
}

func (m *memCourses) Update(_ context.Context, c *model.Course) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.courses[c.ID]; !ok {
		return repository.ErrNotFound
	}
	for _, other := range m.s.courses {
		if other.ID != c.ID && other.Code == c.Code {
			return repository.ErrDuplicateCourseCode
		}
	}
	c.UpdatedAt = time.Now()
	m.s.courses[c.ID] = *c
	return nil
}

func (m *memCourses) Delete(_ context.Context, id int) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.courses[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.s.courses, id)
	for eid, e := range m.s.enrollments {
		if e.CourseID == id {
			delete(m.s.enrollments, eid)
		}
	}
	return nil
}

func (m *memCourses) filtered(filter model.CourseFilter) []model.Course {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []model.Course{}
	for _, c := range m.s.courses {
		if filter.Department != "" && c.Department != filter.Department {
			continue
		}
		if filter.Search != "" && !contains(c.Code, filter.Search) && !contains(c.Name, filter.Search) &&
			!contains(c.Instructor, filter.Search) {
			continue
		}
		out = append(out, m.withCount(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (m *memCourses) List(_ context.Context, filter model.CourseFilter, limit, offset int) ([]model.Course, int, error) {
	all := m.filtered(filter)
	return window(all, limit, offset), len(all), nil
}

func (m *memCourses) ListAll(_ context.Context, filter model.CourseFilter) ([]model.Course, error) {
	return m.filtered(filter), nil
}

// ─── Enrollments ─────────────────────────────────────────────────────────

type memEnrollments struct{ s *Store }

// joined attaches student and course summaries. Callers hold the lock.
func (m *memEnrollments) joined(e model.Enrollment) model.Enrollment {
	if st, ok := m.s.students[e.StudentID]; ok {
		e.Student = &st
	}
	if c, ok := m.s.courses[e.CourseID]; ok {
		e.Course = &c
	}
	return e
}

func (m *memEnrollments) GetByID(_ context.Context, id int) (*model.Enrollment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	e, ok := m.s.enrollments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	e = m.joined(e)
	return &e, nil
}

func (m *memEnrollments) GetByPair(_ context.Context, studentID, courseID int) (*model.Enrollment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.HidePairs {
		return nil, repository.ErrNotFound
	}
	for _, e := range m.s.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			e = m.joined(e)
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memEnrollments) Create(_ context.Context, e *model.Enrollment) error {
	if err := m.s.fail("enrollments.create"); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.students[e.StudentID]; !ok {
		return repository.ErrMissingReference
	}
	if _, ok := m.s.courses[e.CourseID]; !ok {
		return repository.ErrMissingReference
	}
	for _, other := range m.s.enrollments {
		if other.StudentID == e.StudentID && other.CourseID == e.CourseID {
			return repository.ErrDuplicateEnrollment
		}
	}
	e.ID = m.s.id()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	stored := *e
	stored.Student, stored.Course = nil, nil
	m.s.enrollments[e.ID] = stored
	return nil
}

func (m *memEnrollments) Update(_ context.Context, e *model.Enrollment) error {
	if err := m.s.fail("enrollments.update"); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.enrollments[e.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Status = e.Status
	stored.Grade = e.Grade
	stored.Remarks = e.Remarks
	stored.UpdatedAt = time.Now()
	e.UpdatedAt = stored.UpdatedAt
	m.s.enrollments[e.ID] = stored
	return nil
}

func (m *memEnrollments) Delete(_ context.Context, id int) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.enrollments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.s.enrollments, id)
	return nil
}

func (m *memEnrollments) filtered(filter model.EnrollmentFilter) []model.Enrollment {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []model.Enrollment{}
	for _, e := range m.s.enrollments {
		switch {
		case filter.StudentID != nil && e.StudentID != *filter.StudentID,
			filter.CourseID != nil && e.CourseID != *filter.CourseID,
			filter.Status != "" && e.Status != filter.Status,
			filter.GradedOnly && e.Grade == nil:
			continue
		}
		e = m.joined(e)
		if filter.Search != "" && !contains(e.Student.FullName(), filter.Search) &&
			!contains(e.Student.StudentCode, filter.Search) && !contains(e.Course.Code, filter.Search) &&
			!contains(e.Course.Name, filter.Search) {
			continue
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.OrderByGrade {
		rankByGrade(out)
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	}
	return out
}

func (m *memEnrollments) List(_ context.Context, filter model.EnrollmentFilter, limit, offset int) ([]model.Enrollment, int, error) {
	all := m.filtered(filter)
	return window(all, limit, offset), len(all), nil
}

func (m *memEnrollments) ListAll(_ context.Context, filter model.EnrollmentFilter) ([]model.Enrollment, error) {
	return m.filtered(filter), nil
}

// ─── Dashboard ───────────────────────────────────────────────────────────

type memDashboard struct{ s *Store }

func (m *memDashboard) Summary(_ context.Context) (*model.DashboardSummary, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := &model.DashboardSummary{
		TotalUsers:          len(m.s.users),
		TotalStudents:       len(m.s.students),
		TotalCourses:        len(m.s.courses),
		TotalEnrollments:    len(m.s.enrollments),
		EnrollmentsByStatus: map[model.EnrollmentStatus]int{},
	}
	for _, st := range m.s.students {
		if st.UserID == nil {
			out.UnlinkedStudents++
		}
	}
	for _, e := range m.s.enrollments {
		out.EnrollmentsByStatus[e.Status]++
	}
	return out, nil
}
