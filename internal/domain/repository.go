package domain

import "context"

// RoomStore is the authoritative registry of rooms keyed by room code.
type RoomStore interface {
	Create(ctx context.Context, room *Room) error
	Get(ctx context.Context, id string) (*Room, error)
	Delete(ctx context.Context, id string) error
	// Snapshot returns the rooms present at call time. Callers lock each
	// room and skip the ones that closed in the meantime.
	Snapshot(ctx context.Context) []*Room
	Len() int
}

// Broadcaster delivers pushes to every connection subscribed to a room.
// Implementations must not block the caller.
type Broadcaster interface {
	Subscribe(connID, roomID string)
	Unsubscribe(connID, roomID string)
	Publish(roomID, event string, payload any)
	// Drop releases the room's connection group.
	Drop(roomID string)
}

type RoomAuditRepository interface {
	Log(ctx context.Context, log *RoomAuditLog) error
	GetByRoomID(ctx context.Context, roomID string, limit int) ([]RoomAuditLog, error)
	EnsureIndexes(ctx context.Context) error
}
