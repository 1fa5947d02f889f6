package domain

import "time"

// Server push event names.
const (
	PushConnected   = "connected"
	PushRoomUpdated = "room-updated"
	PushRoomClosed  = "room-closed"
	PushRoomExpired = "room-expired"
	PushRoomStarted = "room-started"
)

type RoomEventType string

const (
	EventRoomCreated       RoomEventType = "room.created"
	EventMemberJoined      RoomEventType = "member.joined"
	EventMemberReconnected RoomEventType = "member.reconnected"
	EventMemberOffline     RoomEventType = "member.offline"
	EventMemberLeft        RoomEventType = "member.left"
	EventRoomClosed        RoomEventType = "room.closed"
	EventRoomExpired       RoomEventType = "room.expired"
	EventRoomStarted       RoomEventType = "room.started"
	EventRoomFull          RoomEventType = "room.full_rejected"
)

// RoomEvent is emitted by the lifecycle engine after a transition has been
// applied and the room lock released.
type RoomEvent struct {
	Type     RoomEventType `json:"type"`
	RoomID   string        `json:"roomId"`
	UserID   string        `json:"userId,omitempty"`
	WasOwner bool          `json:"wasOwner,omitempty"`
	Room     SafeRoom      `json:"room"`
	At       time.Time     `json:"at"`
}
