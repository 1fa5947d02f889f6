package domain

import (
	"time"

	"github.com/google/uuid"
)

type RoomAuditLog struct {
	ID        string         `bson:"_id" json:"id"`
	RoomID    string         `bson:"room_id" json:"roomId"`
	EventType RoomEventType  `bson:"event_type" json:"eventType"`
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
	Metadata  map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// NewAuditLog flattens a lifecycle event. Only sanitized data is recorded.
func NewAuditLog(ev RoomEvent) *RoomAuditLog {
	metadata := map[string]any{
		"member_count": len(ev.Room.Members),
		"world":        string(ev.Room.World),
	}
	if ev.UserID != "" {
		metadata["user_id"] = ev.UserID
	}
	if ev.Type == EventMemberLeft {
		metadata["was_owner"] = ev.WasOwner
	}

	ts := ev.At
	if ts.IsZero() {
		ts = time.Now()
	}

	return &RoomAuditLog{
		ID:        uuid.NewString(),
		RoomID:    ev.RoomID,
		EventType: ev.Type,
		Timestamp: ts,
		Metadata:  metadata,
	}
}
