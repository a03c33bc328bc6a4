package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"message-service/internal/apperror"
	"message-service/internal/middleware"
)

// msgOperationFail is the only text a 500 response ever carries. The real
// cause goes to the server log.
const msgOperationFail = "Exception 500! Operation failed."

const requestIDContextKey = "request_id"

// writeError maps a failure to its response. Typed errors keep their status
// and message; anything else collapses to the opaque 500 text.
func writeError(c *gin.Context, err error) {
	if appErr, ok := apperror.As(err); ok {
		c.String(appErr.StatusCode(), appErr.Message)
		return
	}
	log.Printf("unexpected error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.String(http.StatusInternalServerError, msgOperationFail)
}

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func callerFromContext(c *gin.Context) string {
	return c.GetString(middleware.UsernameKey)
}

func apperrorMessage(err error) (string, bool) {
	if appErr, ok := apperror.As(err); ok {
		return appErr.Message, true
	}
	return "", false
}
