package ws

// Client -> server events.
const (
	CreateRoomEvent = "create-room"
	JoinRoomEvent   = "join-room"
	GetRoomEvent    = "get-room"
	LeaveRoomEvent  = "leave-room"
	StartGameEvent  = "start-game"
)

// AckEvent answers a client event that carried an ack id.
const AckEvent = "ack"
