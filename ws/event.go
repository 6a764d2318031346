// Package ws pushes live data to browsers over WebSocket.
//
// Architecture:
//   - Hub tracks every connection, grouped by session.
//   - Client is one connection with its read and write pumps and, while its
//     session is on the dashboard, a soil stream.
//   - Event is the wire format in both directions.
//
// Services never see the Hub directly; they depend on EventPublisher.
package ws

import "github.com/edithfert/fertpro/models"

// Event is one message on the socket.
//
// Seq increases by one for every outbound event across the whole hub, so a
// client can spot gaps.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client -> server ops.
const (
	OpHeartbeat  = "heartbeat"
	OpSelectView = "select_view"
)

// Server -> client ops.
const (
	OpReady                = "ready"
	OpHeartbeatAck         = "heartbeat_ack"
	OpError                = "error"
	OpViewChanged          = "view_changed"
	OpSoilUpdate           = "soil_update"
	OpRecommendationReady  = "recommendation_ready"
	OpRecommendationFailed = "recommendation_failed"
	OpSessionUpdate        = "session_update"
	OpForumPostCreate      = "forum_post_create"
	OpForumReplyCreate     = "forum_reply_create"
)

// ReadyData is sent once, right after the upgrade.
type ReadyData struct {
	Session         models.Session `json:"session"`
	IntervalSeconds float64        `json:"soil_interval_seconds"`
}

// SelectViewData is the payload of select_view.
type SelectViewData struct {
	View string `json:"view"`
}

// ViewChangedData is the payload of view_changed.
type ViewChangedData struct {
	View models.View `json:"view"`
}

// RecommendationFailedData is the payload of recommendation_failed.
type RecommendationFailedData struct {
	Crop     string `json:"crop"`
	ErrorKey string `json:"error_key"`
}

// ErrorData reports a rejected client op. Key is an i18n key.
type ErrorData struct {
	Op  string `json:"op"`
	Key string `json:"key"`
}
