package rooms

import "github.com/hilthontt/duelrooms/internal/domain"

type createRoomRequest struct {
	UserName string `json:"userName"`
	World    string `json:"world"`
}

type joinRoomRequest struct {
	UserName string `json:"userName"`
	RoomID   string `json:"roomId"`
}

// getRoomRequest carries the identifier the client stored before a reload.
// A null socketId is allowed on the wire and is rejected as NOT_MEMBER.
type getRoomRequest struct {
	RoomID   string  `json:"roomId"`
	SocketID *string `json:"socketId"`
}

// leaveRoomRequest.SocketID is informational; the member is resolved from
// the calling connection.
type leaveRoomRequest struct {
	RoomID   string `json:"roomId"`
	SocketID string `json:"socketId,omitempty"`
}

type startGameRequest struct {
	RoomID string `json:"roomId"`
}

type roomSocketResponse struct {
	Room     domain.SafeRoom `json:"room"`
	SocketID string          `json:"socketId"`
}

type getRoomResponse struct {
	Room        domain.SafeRoom `json:"room"`
	SocketIDNow string          `json:"socketIdNow"`
}

type leaveRoomResponse struct {
	Closed bool             `json:"closed,omitempty"`
	Room   *domain.SafeRoom `json:"room,omitempty"`
}

type roomResponse struct {
	Room domain.SafeRoom `json:"room"`
}

type auditResponse struct {
	RoomID string                `json:"roomId"`
	Logs   []domain.RoomAuditLog `json:"logs"`
}
