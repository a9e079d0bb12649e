package audit

import (
	"context"
	"time"

	"github.com/authgw/gateway/pkg/logger"
)

// EventType names a session lifecycle transition.
type EventType string

const (
	EventIssued         EventType = "issued"
	EventRotated        EventType = "rotated"
	EventRevoked        EventType = "revoked"
	EventRevokedAll     EventType = "revoked_all"
	EventReplayRejected EventType = "replay_rejected"
)

// Event is one audit entry. Fingerprint is the client User-Agent captured at issuance.
type Event struct {
	Type        EventType `bson:"type" json:"type"`
	UserID      string    `bson:"userId" json:"userId"`
	SessionID   string    `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	Successor   string    `bson:"successor,omitempty" json:"successor,omitempty"`
	Fingerprint string    `bson:"fingerprint,omitempty" json:"fingerprint,omitempty"`
	Count       int       `bson:"count,omitempty" json:"count,omitempty"`
	At          time.Time `bson:"at" json:"at"`
}

// Recorder receives session events. Callers treat it as best effort.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// LogRecorder writes events to the debug log; used when no audit database is configured.
type LogRecorder struct{}

func (LogRecorder) Record(_ context.Context, e Event) error {
	logger.L().Debug().
		Str("event", string(e.Type)).
		Str("user_id", e.UserID).
		Str("session_id", e.SessionID).
		Str("successor", e.Successor).
		Str("fingerprint", e.Fingerprint).
		Int("count", e.Count).
		Time("at", e.At).
		Msg("session event")
	return nil
}
