package ws

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"message-service/internal/auth"
	"message-service/internal/observability"
	"message-service/internal/repositories"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GroupFeedHandler upgrades group members to a live message feed.
type GroupFeedHandler struct {
	hub    *Hub
	groups repositories.GroupRepository
	tokens *auth.TokenService
}

// NewGroupFeedHandler constructs a GroupFeedHandler.
func NewGroupFeedHandler(hub *Hub, groups repositories.GroupRepository, tokens *auth.TokenService) *GroupFeedHandler {
	return &GroupFeedHandler{hub: hub, groups: groups, tokens: tokens}
}

// Handle authenticates (header or ?token=), checks membership, and keeps the
// connection registered until the peer goes away.
func (h *GroupFeedHandler) Handle(c *gin.Context) {
	groupID, err := strconv.Atoi(c.Param("groupId"))
	if err != nil {
		c.String(http.StatusNotFound, "Error! Group does not exist")
		return
	}

	ctx, span := otel.Tracer("message-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := bearerToken(c)
	username, err := h.tokens.Verify(token)
	if err != nil {
		c.String(http.StatusUnauthorized, "invalid token")
		return
	}

	member, err := h.groups.IsMember(ctx, groupID, username)
	if err != nil || !member {
		c.String(http.StatusForbidden, "Access denied! You need group membership")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		Username:    username,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(groupID, conn, info)
	observability.IncWSActive()
	observability.IncWSEvent("connect")

	go func() {
		defer func() {
			h.hub.RemoveClient(groupID, conn)
			conn.Close()
			observability.DecWSActive()
			observability.IncWSEvent("disconnect")
		}()
		// the feed is write-only; reads only detect the peer closing
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		if len(header) > 7 && header[:7] == "Bearer " {
			return header[7:]
		}
		return header
	}
	return c.Query("token")
}

func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
