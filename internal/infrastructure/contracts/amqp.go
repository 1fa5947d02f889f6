package contracts

import "github.com/hilthontt/duelrooms/internal/domain"

// AmqpMessage is the message structure for AMQP.
type AmqpMessage struct {
	RoomID string `json:"roomId"`
	Data   []byte `json:"data"`
}

// Routing keys mirror the lifecycle event types.
var RoomRoutingKeys = []string{
	string(domain.EventRoomCreated),
	string(domain.EventMemberJoined),
	string(domain.EventMemberReconnected),
	string(domain.EventMemberOffline),
	string(domain.EventMemberLeft),
	string(domain.EventRoomClosed),
	string(domain.EventRoomExpired),
	string(domain.EventRoomStarted),
	string(domain.EventRoomFull),
}
