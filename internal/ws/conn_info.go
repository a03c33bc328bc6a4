package ws

import "time"

// ConnInfo describes one live feed connection for logs and events.
type ConnInfo struct {
	ConnID      string
	Username    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
