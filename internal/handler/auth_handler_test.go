package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/siakad-backend/internal/middleware"
	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/stemsi/siakad-backend/internal/response"
	"github.com/stemsi/siakad-backend/internal/service"
)

func TestAuthHandler_RegisterLoginLogout(t *testing.T) {
	env := newTestEnv()
	h := NewAuthHandler(env.users)

	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/logout", middleware.RequireJWT(env.auth), h.Logout)

	w, _ := call(t, r, http.MethodPost, "/register", gin.H{
		"username": "jane", "email": "jane@b.com", "password": "secret1", "confirm_password": "secret1", "full_name": "Jane Doe",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body = %s", w.Code, w.Body.String())
	}

	w, body := call(t, r, http.MethodPost, "/login", gin.H{"login": "jane", "password": "wrong"})
	if w.Code != http.StatusUnauthorized || body.Error == nil || body.Error.Code != response.ErrInvalidCredentials {
		t.Fatalf("bad login: status = %d, error = %+v", w.Code, body.Error)
	}

	w, body = call(t, r, http.MethodPost, "/login", gin.H{"login": "jane@b.com", "password": "secret1"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body = %s", w.Code, w.Body.String())
	}
	login := decode[model.LoginResponse](t, body.Data)
	if login.Token == "" || login.User.Role != model.RoleStudent {
		t.Fatalf("login response = %+v", login)
	}

	claims, err := env.auth.ValidateToken(login.Token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if err := env.auth.ValidateSession(context.Background(), claims.UserID, claims.ID); err != nil {
		t.Fatalf("session after login: %v", err)
	}

	req := httptestRequest(http.MethodPost, "/logout", login.Token)
	w = serve(r, req)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: status = %d, body = %s", w.Code, w.Body.String())
	}
	if err := env.auth.ValidateSession(context.Background(), claims.UserID, claims.ID); !errors.Is(err, service.ErrSessionInvalidated) {
		t.Errorf("session after logout: err = %v", err)
	}
}

func TestAuthHandler_LoginMissingFields(t *testing.T) {
	env := newTestEnv()
	r := gin.New()
	r.POST("/login", NewAuthHandler(env.users).Login)

	w, body := call(t, r, http.MethodPost, "/login", gin.H{})
	if w.Code != http.StatusBadRequest || body.Error == nil || body.Error.Code != response.ErrValidation {
		t.Errorf("status = %d, error = %+v", w.Code, body.Error)
	}
}
