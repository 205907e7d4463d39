package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/siakad-backend/internal/response"
	"github.com/stemsi/siakad-backend/internal/service"
	"github.com/stemsi/siakad-backend/internal/validator"
)

func TestFail(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   response.ErrCode
	}{
		{&service.ValidationError{Fields: validator.Errors{"email": "bad"}}, http.StatusBadRequest, response.ErrValidation},
		{service.ErrNotFound, http.StatusNotFound, response.ErrNotFound},
		{fmt.Errorf("enroll: %w", service.ErrDuplicateEnrollment), http.StatusConflict, response.ErrDuplicateEnrollment},
		{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials},
		{service.ErrAccountInactive, http.StatusForbidden, response.ErrAccountInactive},
		{service.ErrForbidden, http.StatusForbidden, response.ErrActionForbidden},
		{service.ErrExportFailed, http.StatusInternalServerError, response.ErrExportFailed},
		{service.ErrOperationFailed, http.StatusInternalServerError, response.ErrOperationFailed},
		{errors.New("boom"), http.StatusInternalServerError, response.ErrInternal},
	}

	for _, tt := range tests {
		r := gin.New()
		r.GET("/x", func(c *gin.Context) { fail(c, tt.err) })

		w, env := call(t, r, http.MethodGet, "/x", nil)
		if w.Code != tt.status {
			t.Errorf("%v: status = %d, want %d", tt.err, w.Code, tt.status)
		}
		if env.Error == nil || env.Error.Code != tt.code {
			t.Errorf("%v: error = %+v, want %s", tt.err, env.Error, tt.code)
		}
	}
}

func TestFail_ValidationCarriesFields(t *testing.T) {
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		fail(c, &service.ValidationError{Fields: validator.Errors{"username": "username is already taken"}})
	})

	_, env := call(t, r, http.MethodGet, "/x", nil)
	if env.Error == nil || env.Error.Fields["username"] != "username is already taken" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestParamID(t *testing.T) {
	r := gin.New()
	r.GET("/x/:id", func(c *gin.Context) {
		if id, ok := paramID(c, "id"); ok {
			c.JSON(http.StatusOK, gin.H{"data": id})
		}
	})

	for _, raw := range []string{"abc", "0", "-3"} {
		w, env := call(t, r, http.MethodGet, "/x/"+raw, nil)
		if w.Code != http.StatusBadRequest || env.Error == nil || env.Error.Code != response.ErrInvalidID {
			t.Errorf("id %q: status = %d, error = %+v", raw, w.Code, env.Error)
		}
	}
	if w, _ := call(t, r, http.MethodGet, "/x/12", nil); w.Code != http.StatusOK {
		t.Errorf("valid id: status = %d", w.Code)
	}
}
