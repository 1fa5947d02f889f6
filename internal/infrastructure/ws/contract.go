package ws

import "encoding/json"

// Message is the server -> client frame used for pushes and acks.
type Message struct {
	Event  string `json:"event"`
	Ack    *int64 `json:"ack,omitempty"`
	RoomID string `json:"roomId,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// Inbound is a client -> server frame. Data is decoded by the event handler.
type Inbound struct {
	Event string          `json:"event"`
	Ack   *int64          `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

type ConnectedPayload struct {
	SocketID string `json:"socketId"`
}

func NewPush(roomID, event string, data any) *Message {
	return &Message{
		Event:  event,
		RoomID: roomID,
		Data:   data,
	}
}

func NewAck(id int64, data any) *Message {
	return &Message{
		Event: AckEvent,
		Ack:   &id,
		Data:  data,
	}
}

func NewAckError(id int64, code string) *Message {
	return NewAck(id, ErrorPayload{Error: code})
}
