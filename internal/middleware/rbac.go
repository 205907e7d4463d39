package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/stemsi/siakad-backend/internal/response"
)

// RequireRole lets the request through only when the token carries role.
// It must run after RequireJWT.
func RequireRole(role model.Role) gin.HandlerFunc {
	denied := response.ErrForbidden
	switch role {
	case model.RoleAdmin:
		denied = response.ErrAdminAccessOnly
	case model.RoleStudent:
		denied = response.ErrStudentAccessOnly
	}

	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if claims.Role != role {
			response.AbortFail(c, http.StatusForbidden, denied)
			return
		}

		c.Next()
	}
}
