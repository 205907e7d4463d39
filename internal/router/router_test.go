package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/siakad-backend/internal/config"
	"github.com/stemsi/siakad-backend/internal/handler"
	"github.com/stemsi/siakad-backend/internal/middleware"
	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/stemsi/siakad-backend/internal/repository/repotest"
	"github.com/stemsi/siakad-backend/internal/service"
	"github.com/stemsi/siakad-backend/internal/validator"
)

func init() {
	validator.Setup()
}

type memSessions struct {
	m map[int]string
}

func (s *memSessions) Set(_ context.Context, userID int, jti string, _ time.Duration) error {
	s.m[userID] = jti
	return nil
}

func (s *memSessions) Get(_ context.Context, userID int) (string, error) {
	jti, ok := s.m[userID]
	if !ok {
		return "", service.ErrNoSession
	}
	return jti, nil
}

func (s *memSessions) Delete(_ context.Context, userID int) error {
	delete(s.m, userID)
	return nil
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

type testApp struct {
	router http.Handler
	auth   *service.AuthService
	users  *service.UserService
}

func newTestRouter(t *testing.T) (http.Handler, *service.AuthService) {
	t.Helper()
	app := buildRouter(t, okPinger{}, 100)
	return app.router, app.auth
}

func buildRouter(t *testing.T, db handler.Pinger, loginLimit int) *testApp {
	t.Helper()
	log := zerolog.Nop()
	cfg := &config.Config{GinMode: "test", JWTSecret: "test-secret", JWTExpiry: time.Hour, BcryptCost: 4}
	repo, _ := repotest.New()
	auth := service.NewAuthServiceWithStore(cfg, &memSessions{m: map[int]string{}})

	users := service.NewUserService(repo, auth, log)
	students := service.NewStudentService(repo, log)
	courses := service.NewCourseService(repo, log)
	enrollments := service.NewEnrollmentService(repo, service.StatusPolicyOverride, log)
	linkage := service.NewLinkageService(repo, auth, log)
	portal := service.NewPortalService(repo, linkage, students, courses, enrollments, log)

	handlers := &Handlers{
		Auth:          handler.NewAuthHandler(users),
		User:          handler.NewUserHandler(users, linkage),
		Student:       handler.NewStudentHandler(students, enrollments),
		Course:        handler.NewCourseHandler(courses),
		Enrollment:    handler.NewEnrollmentHandler(enrollments, service.NewExportService(enrollments, log)),
		Dashboard:     handler.NewDashboardHandler(service.NewDashboardService(repo, log)),
		StudentPortal: handler.NewStudentPortalHandler(portal),
		System:        handler.NewSystemHandler(map[string]handler.Pinger{"postgres": db}, nil, log),
	}
	limiter := middleware.NewRateLimiter(middleware.NewMemoryCounter(), loginLimit, time.Minute, log)
	return &testApp{router: SetupRouter(auth, limiter, handlers, cfg, log), auth: auth, users: users}
}

func get(r http.Handler, path, token string) int {
	return send(r, http.MethodGet, path, token, "")
}

func send(r http.Handler, method, path, token, body string) int {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRouter_RoleGroups(t *testing.T) {
	r, auth := newTestRouter(t)
	ctx := context.Background()

	adminToken, err := auth.GenerateToken(ctx, &model.User{ID: 1, Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("admin token: %v", err)
	}
	studentToken, err := auth.GenerateToken(ctx, &model.User{ID: 2, Role: model.RoleStudent})
	if err != nil {
		t.Fatalf("student token: %v", err)
	}

	tests := []struct {
		path  string
		token string
		want  int
	}{
		{"/health", "", http.StatusOK},
		{"/api/v1/admin/courses", "", http.StatusUnauthorized},
		{"/api/v1/admin/courses", studentToken, http.StatusForbidden},
		{"/api/v1/admin/courses", adminToken, http.StatusOK},
		{"/api/v1/admin/dashboard", adminToken, http.StatusOK},
		{"/api/v1/student/grades", adminToken, http.StatusForbidden},
	}
	for _, tt := range tests {
		if got := get(r, tt.path, tt.token); got != tt.want {
			t.Errorf("GET %s: status = %d, want %d", tt.path, got, tt.want)
		}
	}
}

func TestRouter_HealthReportsDownDependency(t *testing.T) {
	app := buildRouter(t, downPinger{}, 100)
	if got := get(app.router, "/health", ""); got != http.StatusServiceUnavailable {
		t.Errorf("GET /health: status = %d, want 503", got)
	}
}

func TestRouter_LoginIsRateLimited(t *testing.T) {
	r := buildRouter(t, okPinger{}, 2).router

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"login":"nobody","password":"secret1"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	for i, want := range []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests} {
		if got := post(); got != want {
			t.Errorf("attempt %d: status = %d, want %d", i+1, got, want)
		}
	}
}

func TestRouter_AuthenticatedResponsesAreNotCached(t *testing.T) {
	r, auth := newTestRouter(t)
	token, err := auth.GenerateToken(context.Background(), &model.User{ID: 1, Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/courses", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID missing")
	}
}

func TestRouter_RevokedAccountsLoseAccess(t *testing.T) {
	app := buildRouter(t, okPinger{}, 100)
	ctx := context.Background()

	login := func(username string) string {
		t.Helper()
		resp, err := app.users.Login(ctx, model.LoginRequest{Login: username, Password: "secret1"})
		if err != nil {
			t.Fatalf("login %s: %v", username, err)
		}
		return resp.Token
	}
	newAdmin := func(username string) *model.User {
		t.Helper()
		u, err := app.users.Create(ctx, model.UserInput{
			Username: username, Email: username + "@school.edu", Password: "secret1",
			FullName: "Admin " + username, Role: model.RoleAdmin,
		})
		if err != nil {
			t.Fatalf("create %s: %v", username, err)
		}
		return u
	}

	root := newAdmin("root")
	demoted := newAdmin("demoted")
	disabled := newAdmin("disabled")
	removed := newAdmin("removed")
	rootToken := login("root")

	tests := []struct {
		name   string
		token  string
		method string
		path   string
		body   string
		by     string
	}{
		{"demoted", login("demoted"), http.MethodPut, fmt.Sprintf("/api/v1/admin/users/%d", demoted.ID),
			`{"username":"demoted","email":"demoted@school.edu","full_name":"Admin demoted","role":"student"}`, rootToken},
		{"deactivated", login("disabled"), http.MethodPut, fmt.Sprintf("/api/v1/admin/users/%d", disabled.ID),
			`{"username":"disabled","email":"disabled@school.edu","full_name":"Admin disabled","role":"admin","is_active":false}`, rootToken},
		{"deleted", login("removed"), http.MethodDelete, fmt.Sprintf("/api/v1/admin/users/%d", removed.ID), "", rootToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := get(app.router, "/api/v1/admin/users", tt.token); got != http.StatusOK {
				t.Fatalf("before: status = %d, want 200", got)
			}
			if got := send(app.router, tt.method, tt.path, tt.by, tt.body); got != http.StatusOK {
				t.Fatalf("%s %s: status = %d, want 200", tt.method, tt.path, got)
			}
			if got := get(app.router, "/api/v1/admin/users", tt.token); got != http.StatusUnauthorized {
				t.Errorf("after: status = %d, want 401", got)
			}
		})
	}

	t.Run("password changed", func(t *testing.T) {
		body := `{"old_password":"secret1","new_password":"newpass1","confirm_password":"newpass1"}`
		if got := send(app.router, http.MethodPut, "/api/v1/auth/password", rootToken, body); got != http.StatusOK {
			t.Fatalf("change password: status = %d, want 200", got)
		}
		if got := get(app.router, "/api/v1/admin/users", rootToken); got != http.StatusUnauthorized {
			t.Errorf("old token: status = %d, want 401", got)
		}
	})

	t.Run("self delete", func(t *testing.T) {
		resp, err := app.users.Login(ctx, model.LoginRequest{Login: "root", Password: "newpass1"})
		if err != nil {
			t.Fatalf("login with new password: %v", err)
		}
		path := fmt.Sprintf("/api/v1/admin/users/%d", root.ID)
		if got := send(app.router, http.MethodDelete, path, resp.Token, ""); got != http.StatusForbidden {
			t.Errorf("self delete: status = %d, want 403", got)
		}
	})
}
