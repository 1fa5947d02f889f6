package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	Internal        Category = "Internal"
	RoomLifecycle   Category = "RoomLifecycle"
	Sweeper         Category = "Sweeper"
	WebSocket       Category = "WebSocket"
	RabbitMQ        Category = "RabbitMQ"
	MongoDB         Category = "MongoDB"
	RequestResponse Category = "RequestResponse"
	Prometheus      Category = "Prometheus"
)

const (
	// General
	Startup  SubCategory = "Startup"
	Shutdown SubCategory = "Shutdown"

	// RoomLifecycle
	CreateRoom SubCategory = "CreateRoom"
	JoinRoom   SubCategory = "JoinRoom"
	GetRoom    SubCategory = "GetRoom"
	LeaveRoom  SubCategory = "LeaveRoom"
	StartGame  SubCategory = "StartGame"
	Disconnect SubCategory = "Disconnect"
	Expire     SubCategory = "Expire"

	// WebSocket
	Connect  SubCategory = "Connect"
	Dispatch SubCategory = "Dispatch"
	Push     SubCategory = "Push"

	// Side channels
	Publish         SubCategory = "Publish"
	Consume         SubCategory = "Consume"
	Audit           SubCategory = "Audit"
	ExternalService SubCategory = "ExternalService"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	ClientIp     ExtraKey = "ClientIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	ErrorMessage ExtraKey = "ErrorMessage"
	RoomID       ExtraKey = "RoomId"
	UserID       ExtraKey = "UserId"
	SocketID     ExtraKey = "SocketId"
	Event        ExtraKey = "Event"
	Members      ExtraKey = "Members"
	Reason       ExtraKey = "Reason"
)
