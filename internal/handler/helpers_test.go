package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/siakad-backend/internal/config"
	"github.com/stemsi/siakad-backend/internal/middleware"
	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/stemsi/siakad-backend/internal/repository"
	"github.com/stemsi/siakad-backend/internal/repository/repotest"
	"github.com/stemsi/siakad-backend/internal/response"
	"github.com/stemsi/siakad-backend/internal/service"
	"github.com/stemsi/siakad-backend/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
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

type testEnv struct {
	repo        *repository.Repository
	auth        *service.AuthService
	users       *service.UserService
	students    *service.StudentService
	courses     *service.CourseService
	enrollments *service.EnrollmentService
	linkage     *service.LinkageService
	portal      *service.PortalService
	export      *service.ExportService
}

func newTestEnv() *testEnv {
	log := zerolog.Nop()
	repo, _ := repotest.New()
	auth := service.NewAuthServiceWithStore(
		&config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, BcryptCost: 4},
		&memSessions{m: map[int]string{}},
	)

	env := &testEnv{
		repo:        repo,
		auth:        auth,
		users:       service.NewUserService(repo, auth, log),
		students:    service.NewStudentService(repo, log),
		courses:     service.NewCourseService(repo, log),
		enrollments: service.NewEnrollmentService(repo, service.StatusPolicyOverride, log),
		linkage:     service.NewLinkageService(repo, auth, log),
	}
	env.portal = service.NewPortalService(repo, env.linkage, env.students, env.courses, env.enrollments, log)
	env.export = service.NewExportService(env.enrollments, log)
	return env
}

// as injects claims for caller the way RequireJWT does.
func as(caller model.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyClaims, &service.Claims{UserID: caller.UserID, Role: caller.Role})
		c.Next()
	}
}

type envelope struct {
	Data       json.RawMessage      `json:"data"`
	Error      *response.ErrorBody  `json:"error"`
	Pagination *response.Pagination `json:"pagination"`
}

func call(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != xlsxContentType {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode data: %v (%s)", err, raw)
	}
	return v
}

func httptestRequest(method, path, token string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
