package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hems-edu/examgate/internal/dto"
	"github.com/hems-edu/examgate/internal/service"
)

const (
	ContextUserID       = "user_id"
	ContextLoginSession = "login_session"
	ContextAdminID      = "admin_id"
)

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// SessionAuth validates the opaque login-session token and stashes the
// session on the request context for the controllers.
func SessionAuth(credentials service.CredentialService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "authorization header required"})
			return
		}
		session, err := credentials.ValidateLoginSession(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "invalid or expired session"})
			return
		}
		c.Set(ContextUserID, session.UserID)
		c.Set(ContextLoginSession, session)
		c.Next()
	}
}

// AdminAuth validates the HS256 admin token.
func AdminAuth(admin service.AdminExamService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "authorization header required"})
			return
		}
		adminID, err := admin.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "invalid or expired token"})
			return
		}
		c.Set(ContextAdminID, adminID)
		c.Next()
	}
}
