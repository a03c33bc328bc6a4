package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"message-service/internal/auth"
	"message-service/internal/models"
	"message-service/internal/repositories"
	"message-service/internal/telemetry"
)

// UserHandler manages signup, signin and the user CRUD endpoints.
type UserHandler struct {
	users  repositories.UserRepository
	groups repositories.GroupRepository
	tokens *auth.TokenService
	audit  *telemetry.AuditEmitter
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users repositories.UserRepository, groups repositories.GroupRepository, tokens *auth.TokenService, audit *telemetry.AuditEmitter) *UserHandler {
	return &UserHandler{
		users:  users,
		groups: groups,
		tokens: tokens,
		audit:  audit,
	}
}

// Signup handles POST /api/user/signup.
func (h *UserHandler) Signup(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.String(http.StatusBadRequest, "non-empty username and password expected")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.String(http.StatusBadRequest, "could not create user")
		return
	}

	user, err := h.users.Create(c.Request.Context(), models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		h.emitAudit(c, "ERROR", "signup rejected")
		c.String(http.StatusBadRequest, userErrorText(err, "could not create user"))
		return
	}

	h.emitAudit(c, "INFO", "user signed up")
	c.JSON(http.StatusCreated, user)
}

// Signin handles POST /api/user/signin: verifies credentials and returns a
// bearer token as a JSON string.
func (h *UserHandler) Signin(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindBodyWithJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "non-empty username and password expected")
		return
	}

	user, err := h.users.Get(c.Request.Context(), req.Username)
	if err != nil {
		h.emitAudit(c, "ERROR", "signin rejected")
		c.String(http.StatusUnauthorized, "invalid credentials")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		h.emitAudit(c, "ERROR", "signin rejected")
		c.String(http.StatusUnauthorized, "Invalid Password")
		return
	}

	token, err := h.tokens.Generate(user.Username)
	if err != nil {
		c.String(http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.emitAudit(c, "INFO", "user signed in")
	c.JSON(http.StatusOK, token)
}

// Get handles GET /api/user/:username.
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		c.String(http.StatusBadRequest, userErrorText(err, "could not get user"))
		return
	}
	c.JSON(http.StatusOK, user)
}

// Update handles PUT /api/user/:username with a partial profile patch.
func (h *UserHandler) Update(c *gin.Context) {
	var req struct {
		Email    *string `json:"email"`
		Password *string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid request payload")
		return
	}

	patch := models.UserPatch{Email: req.Email}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			c.String(http.StatusBadRequest, "could not update user")
			return
		}
		patch.PasswordHash = &hash
	}

	user, err := h.users.Update(c.Request.Context(), c.Param("username"), patch)
	if err != nil {
		c.String(http.StatusBadRequest, userErrorText(err, "could not update user"))
		return
	}
	c.JSON(http.StatusOK, user)
}

// Delete handles DELETE /api/user/:username. Succeeds with no content even
// when the user was already gone.
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("username")); err != nil {
		c.String(http.StatusBadRequest, "could not delete user")
		return
	}
	h.emitAudit(c, "INFO", "user deleted")
	c.Status(http.StatusNoContent)
}

// Groups handles GET /api/user/:username/groups.
func (h *UserHandler) Groups(c *gin.Context) {
	username := c.Param("username")
	if _, err := h.users.Get(c.Request.Context(), username); err != nil {
		c.String(http.StatusBadRequest, userErrorText(err, "could not get user groups"))
		return
	}

	groups, err := h.groups.ListGroupsForUser(c.Request.Context(), username)
	if err != nil {
		c.String(http.StatusBadRequest, "could not get user groups")
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (h *UserHandler) emitAudit(c *gin.Context, level, text string) {
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), callerFromContext(c))
}

// userErrorText picks the client-facing message for a user lookup failure.
// Everything on these routes is a 400; only the text varies.
func userErrorText(err error, fallback string) string {
	if errors.Is(err, repositories.ErrUserNotFound) {
		return "user not found"
	}
	if appErr, ok := apperrorMessage(err); ok {
		return appErr
	}
	return fallback
}
