package messaging

import "github.com/hilthontt/duelrooms/internal/domain"

const (
	RoomsQueue      = "rooms.audit"
	DeadLetterQueue = "dead_letter_queue"
)

type RoomEventData struct {
	Event domain.RoomEvent `json:"event"`
}
