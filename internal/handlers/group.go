package handlers

import (
	"math/rand"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"message-service/internal/apperror"
	"message-service/internal/middleware"
	"message-service/internal/models"
	"message-service/internal/repositories"
	"message-service/internal/telemetry"
	"message-service/internal/ws"
)

var groupNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// GroupHandler manages group, membership and message endpoints. The group
// gates (RequireGroupMember / RequireGroupOwner) run before every handler
// that takes a :groupId, so the group is already loaded and authorized here.
type GroupHandler struct {
	groups   repositories.GroupRepository
	messages repositories.MessageRepository
	users    repositories.UserRepository
	hub      *ws.Hub
	audit    *telemetry.AuditEmitter
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(groups repositories.GroupRepository, messages repositories.MessageRepository, users repositories.UserRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *GroupHandler {
	return &GroupHandler{
		groups:   groups,
		messages: messages,
		users:    users,
		hub:      hub,
		audit:    audit,
	}
}

// Create handles POST /api/group. The id may be client-supplied; a missing
// id gets a generated one. Validation failures concatenate all messages.
func (h *GroupHandler) Create(c *gin.Context) {
	var req struct {
		ID          int    `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid request payload")
		return
	}

	if msgs := validateGroupName(req.Name); len(msgs) > 0 {
		c.String(http.StatusBadRequest, strings.Join(msgs, "\n"))
		return
	}

	id := req.ID
	if id == 0 {
		id = 1 + rand.Intn(models.MaxGroupID-1)
	}

	group, err := h.groups.Create(c.Request.Context(), models.Group{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Owner:       callerFromContext(c),
	})
	if err != nil {
		h.emitAudit(c, "ERROR", "group creation failed")
		writeError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "group created")
	c.JSON(http.StatusCreated, group)
}

// AddUser handles POST /api/group/:groupId/user (members only). The target
// user must exist; any persistence failure bubbles to the opaque 500.
func (h *GroupHandler) AddUser(c *gin.Context) {
	group, _ := middleware.GroupFromContext(c)

	var req struct {
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusInternalServerError, msgOperationFail)
		return
	}

	if _, err := h.users.Get(c.Request.Context(), req.Username); err != nil {
		h.emitAudit(c, "ERROR", "member add failed")
		c.String(http.StatusInternalServerError, msgOperationFail)
		return
	}

	if err := h.groups.AddMember(c.Request.Context(), group.ID, req.Username); err != nil {
		h.emitAudit(c, "ERROR", "member add failed")
		c.String(http.StatusInternalServerError, msgOperationFail)
		return
	}

	h.emitAudit(c, "INFO", "member added")
	c.Status(http.StatusOK)
}

// RemoveUser handles DELETE /api/group/:groupId/user (owner only).
func (h *GroupHandler) RemoveUser(c *gin.Context) {
	group, _ := middleware.GroupFromContext(c)

	var req struct {
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusInternalServerError, msgOperationFail)
		return
	}

	if err := h.groups.RemoveMember(c.Request.Context(), group.ID, req.Username); err != nil {
		h.emitAudit(c, "ERROR", "member removal failed")
		c.String(http.StatusInternalServerError, msgOperationFail)
		return
	}

	h.emitAudit(c, "INFO", "member removed")
	c.Status(http.StatusOK)
}

// AddMessage handles POST /api/group/:groupId/message (members only).
// Message ids are unique; a reused id is a 400, anything unexpected the
// opaque 500.
func (h *GroupHandler) AddMessage(c *gin.Context) {
	group, _ := middleware.GroupFromContext(c)

	var req struct {
		ID       int    `json:"id"`
		Text     string `json:"text"`
		Priority string `json:"priority"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusInternalServerError, msgOperationFail)
		return
	}

	id := req.ID
	if id == 0 {
		id = 1 + rand.Intn(models.MaxGroupID-1)
	}
	priority := req.Priority
	if priority == "" {
		priority = "normal"
	}

	msg, err := h.messages.Create(c.Request.Context(), models.Message{
		ID:       id,
		GroupID:  group.ID,
		Sender:   callerFromContext(c),
		Text:     req.Text,
		Priority: priority,
	})
	if err != nil {
		if apperror.IsValidation(err) {
			writeError(c, err)
			return
		}
		h.emitAudit(c, "ERROR", "message post failed")
		c.String(http.StatusInternalServerError, msgOperationFail)
		return
	}

	h.hub.Broadcast(group.ID, msg)
	h.emitAudit(c, "INFO", "message posted")
	c.JSON(http.StatusOK, msg)
}

// Messages handles GET /api/group/:groupId/messages (members only),
// returning messages in creation order.
func (h *GroupHandler) Messages(c *gin.Context) {
	group, _ := middleware.GroupFromContext(c)

	msgs, err := h.messages.ListByGroup(c.Request.Context(), group.ID)
	if err != nil {
		c.String(http.StatusInternalServerError, msgOperationFail)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *GroupHandler) emitAudit(c *gin.Context, level, text string) {
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), callerFromContext(c))
}

// validateGroupName returns every failed constraint so the client sees them
// all at once.
func validateGroupName(name string) []string {
	var msgs []string
	if name == "" {
		msgs = append(msgs, "Group name cannot be an empty string")
	}
	if !groupNamePattern.MatchString(name) {
		msgs = append(msgs, "Name can contain only letters, numbers and underscores")
	}
	return msgs
}
