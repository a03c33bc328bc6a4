package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"message-service/internal/auth"
	"message-service/internal/observability"
)

// UsernameKey is the gin context key the auth middleware stores the caller
// identity under.
const UsernameKey = "username"

// Auth validates the Authorization header with the token service and puts
// the authenticated username into the context.
func Auth(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.String(http.StatusUnauthorized, "missing authorization")
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.String(http.StatusUnauthorized, "invalid authorization header")
			c.Abort()
			return
		}

		username, err := tokens.Verify(parts[1])
		if err != nil {
			observability.IncAuthFailure("token")
			c.String(http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set(UsernameKey, username)
		c.Next()
	}
}

// ValidateSignin rejects signin requests with missing credentials before the
// handler consumes the body.
func ValidateSignin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindBodyWithJSON(&req); err != nil || req.Username == "" || req.Password == "" {
			c.String(http.StatusBadRequest, "non-empty username and password expected")
			c.Abort()
			return
		}
		c.Next()
	}
}
