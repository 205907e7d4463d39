package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/siakad-backend/internal/config"
	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/stemsi/siakad-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
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

func newAuth() *service.AuthService {
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, BcryptCost: 4}
	return service.NewAuthServiceWithStore(cfg, &memSessions{m: map[int]string{}})
}

func protected(auth *service.AuthService, role model.Role) *gin.Engine {
	r := gin.New()
	r.GET("/x", RequireJWT(auth), CheckActiveSession(auth, zerolog.Nop()), RequireRole(role), func(c *gin.Context) {
		id, _ := GetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id.UserID})
	})
	return r
}

func do(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireJWT(t *testing.T) {
	auth := newAuth()
	r := protected(auth, model.RoleStudent)
	student := &model.User{ID: 7, Role: model.RoleStudent}

	token, err := auth.GenerateToken(context.Background(), student)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	if w := do(r, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d", w.Code)
	}
	if w := do(r, "garbage"); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d", w.Code)
	}
	if w := do(r, token); w.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestRequireJWT_ExpiredToken(t *testing.T) {
	auth := newAuth()
	r := protected(auth, model.RoleStudent)
	token, _, err := auth.SignToken(&model.User{ID: 7, Role: model.RoleStudent}, time.Now().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	w := do(r, token)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "TOKEN_EXPIRED") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestCheckActiveSession_NewerLoginReplacesOld(t *testing.T) {
	auth := newAuth()
	r := protected(auth, model.RoleStudent)
	u := &model.User{ID: 7, Role: model.RoleStudent}

	first, _ := auth.GenerateToken(context.Background(), u)
	second, _ := auth.GenerateToken(context.Background(), u)

	if w := do(r, first); w.Code != http.StatusUnauthorized {
		t.Errorf("replaced token: status = %d", w.Code)
	}
	if w := do(r, second); w.Code != http.StatusOK {
		t.Errorf("current token: status = %d", w.Code)
	}

	_ = auth.RevokeSession(context.Background(), u.ID)
	if w := do(r, second); w.Code != http.StatusUnauthorized {
		t.Errorf("revoked token: status = %d", w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	auth := newAuth()
	r := protected(auth, model.RoleAdmin)
	token, _ := auth.GenerateToken(context.Background(), &model.User{ID: 3, Role: model.RoleStudent})

	w := do(r, token)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ADMIN_ACCESS_ONLY") {
		t.Errorf("body = %s", w.Body.String())
	}
}

type failingCounter struct{}

func (failingCounter) Hit(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("redis down")
}

func TestRateLimiter(t *testing.T) {
	counter := NewMemoryCounter()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	counter.now = func() time.Time { return now }

	r := gin.New()
	r.GET("/x", NewRateLimiter(counter, 2, time.Minute, zerolog.Nop()).Middleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for i, want := range []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests} {
		if w := do(r, ""); w.Code != want {
			t.Errorf("request %d: status = %d, want %d", i+1, w.Code, want)
		}
	}

	now = now.Add(time.Minute)
	if w := do(r, ""); w.Code != http.StatusNoContent {
		t.Errorf("after window: status = %d", w.Code)
	}
}

func TestRateLimiter_CounterFailureLetsThrough(t *testing.T) {
	r := gin.New()
	r.GET("/x", NewRateLimiter(failingCounter{}, 1, time.Minute, zerolog.Nop()).Middleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	for i := 0; i < 3; i++ {
		if w := do(r, ""); w.Code != http.StatusNoContent {
			t.Errorf("request %d: status = %d", i+1, w.Code)
		}
	}
}

func TestNoStore(t *testing.T) {
	r := gin.New()
	r.GET("/x", NoStore(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	w := do(r, "")
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
}
