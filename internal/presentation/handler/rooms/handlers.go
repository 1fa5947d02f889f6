package rooms

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hilthontt/duelrooms/internal/domain"
	"github.com/hilthontt/duelrooms/internal/infrastructure/json"
	"github.com/hilthontt/duelrooms/internal/infrastructure/logging"
	"github.com/hilthontt/duelrooms/internal/infrastructure/validate"
	"github.com/hilthontt/duelrooms/internal/infrastructure/ws"
	"github.com/hilthontt/duelrooms/internal/lobby"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// Recorder receives per-command and per-connection counters.
type Recorder interface {
	Command(event, result string)
	ConnectionOpened()
	ConnectionClosed()
}

type nopRecorder struct{}

func (nopRecorder) Command(string, string) {}
func (nopRecorder) ConnectionOpened()      {}
func (nopRecorder) ConnectionClosed()      {}

type Config struct {
	AllowedOrigins []string
	Socket         ws.Options
}

type Handler struct {
	engine   *lobby.Engine
	hub      *ws.Hub
	audit    domain.RoomAuditRepository
	recorder Recorder
	logger   logging.Logger
	upgrader websocket.Upgrader
	socket   ws.Options
}

// NewHandler wires the socket dispatcher. audit and recorder may be nil.
func NewHandler(
	engine *lobby.Engine,
	hub *ws.Hub,
	audit domain.RoomAuditRepository,
	recorder Recorder,
	logger logging.Logger,
	cfg Config,
) *Handler {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Handler{
		engine:   engine,
		hub:      hub,
		audit:    audit,
		recorder: recorder,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(cfg.AllowedOrigins),
		},
		socket: cfg.Socket,
	}
}

// ServeWS godoc
// @Summary      Open the room event socket
// @Description  Upgrades to a WebSocket carrying create-room, join-room, get-room, leave-room and start-game events. The connection id is assigned here and pushed to the client as `connected`.
// @Tags         rooms
// @Produce      json
// @Success      101 {object} map[string]interface{} "Switching Protocols - WebSocket connection established"
// @Failure      403 {object} map[string]interface{} "Origin not allowed"
// @Router       /ws [get]
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(logging.WebSocket, logging.Connect, "websocket upgrade failed", map[logging.ExtraKey]any{
			logging.ClientIp:     r.RemoteAddr,
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	// the hijacked connection outlives the request context
	ctx := context.WithoutCancel(r.Context())

	client := ws.NewClient(conn, uuid.NewString(), h.socket)
	h.hub.Register(client)
	h.recorder.ConnectionOpened()

	h.logger.Debug(logging.WebSocket, logging.Connect, "client connected", map[logging.ExtraKey]any{
		logging.SocketID: client.ID,
		logging.ClientIp: r.RemoteAddr,
	})

	h.hub.SendTo(client.ID, ws.NewPush("", domain.PushConnected, ws.ConnectedPayload{SocketID: client.ID}))

	go func() {
		if err := client.WritePump(); err != nil {
			h.logger.Debug(logging.WebSocket, logging.Push, "write pump stopped", map[logging.ExtraKey]any{
				logging.SocketID:     client.ID,
				logging.ErrorMessage: err.Error(),
			})
		}
	}()

	if err := client.ReadPump(func(in *ws.Inbound) {
		h.dispatch(ctx, client, in)
	}); err != nil {
		h.logger.Debug(logging.WebSocket, logging.Connect, "read pump stopped", map[logging.ExtraKey]any{
			logging.SocketID:     client.ID,
			logging.ErrorMessage: err.Error(),
		})
	}

	touched := h.engine.Disconnect(ctx, client.ID)
	h.hub.Unregister(client)
	h.recorder.ConnectionClosed()

	h.logger.Debug(logging.WebSocket, logging.Connect, "client disconnected", map[logging.ExtraKey]any{
		logging.SocketID: client.ID,
		"Rooms":          touched,
	})
}

func (h *Handler) dispatch(ctx context.Context, client *ws.Client, in *ws.Inbound) {
	var (
		data any
		err  error
	)

	event := in.Event
	switch event {
	case ws.CreateRoomEvent:
		data, err = h.createRoom(ctx, client.ID, in.Data)
	case ws.JoinRoomEvent:
		data, err = h.joinRoom(ctx, client.ID, in.Data)
	case ws.GetRoomEvent:
		data, err = h.getRoom(ctx, client.ID, in.Data)
	case ws.LeaveRoomEvent:
		data, err = h.leaveRoom(ctx, client.ID, in.Data)
	case ws.StartGameEvent:
		data, err = h.startGame(ctx, client.ID, in.Data)
	case "":
		event = "invalid"
		err = invalidPayload(errors.New("missing event name"))
	default:
		event = "unknown"
		err = errUnknownEvent
	}

	result := "ok"
	if err != nil {
		result = errorCode(err)
		h.logFailure(client.ID, in.Event, result, err)
	}
	h.recorder.Command(event, result)

	if in.Ack == nil {
		return
	}

	reply := ws.NewAck(*in.Ack, data)
	if err != nil {
		reply = ws.NewAckError(*in.Ack, result)
	}

	if !client.Send(reply) {
		h.logger.Warn(logging.WebSocket, logging.Dispatch, "failed to queue ack", map[logging.ExtraKey]any{
			logging.Event: in.Event,
		})
		h.logger.Debug(logging.WebSocket, logging.Dispatch, "ack dropped", map[logging.ExtraKey]any{
			logging.SocketID: client.ID,
			logging.Event:    in.Event,
		})
	}
}

// logFailure keeps connection ids at Debug.
func (h *Handler) logFailure(connID, event, code string, err error) {
	if code == CodeInternal {
		h.logger.Error(logging.WebSocket, logging.Dispatch, "event failed", map[logging.ExtraKey]any{
			logging.Event:        event,
			"Code":               code,
			logging.ErrorMessage: err.Error(),
		})
	}

	h.logger.Debug(logging.WebSocket, logging.Dispatch, "event rejected", map[logging.ExtraKey]any{
		logging.SocketID:     connID,
		logging.Event:        event,
		"Code":               code,
		logging.ErrorMessage: err.Error(),
	})
}

func (h *Handler) createRoom(ctx context.Context, connID string, raw []byte) (any, error) {
	var req createRoomRequest
	if err := json.Decode(raw, &req); err != nil {
		return nil, invalidPayload(err)
	}

	userName, err := validate.UserName(req.UserName)
	if err != nil {
		return nil, invalidPayload(err)
	}
	world, err := validate.World(req.World)
	if err != nil {
		return nil, invalidPayload(err)
	}

	room, err := h.engine.CreateRoom(ctx, connID, userName, world)
	if err != nil {
		return nil, err
	}

	return roomSocketResponse{Room: room, SocketID: connID}, nil
}

func (h *Handler) joinRoom(ctx context.Context, connID string, raw []byte) (any, error) {
	var req joinRoomRequest
	if err := json.Decode(raw, &req); err != nil {
		return nil, invalidPayload(err)
	}

	userName, err := validate.UserName(req.UserName)
	if err != nil {
		return nil, invalidPayload(err)
	}
	roomID, err := roomCode(req.RoomID)
	if err != nil {
		return nil, err
	}

	room, err := h.engine.JoinRoom(ctx, connID, roomID, userName)
	if err != nil {
		return nil, err
	}

	return roomSocketResponse{Room: room, SocketID: connID}, nil
}

func (h *Handler) getRoom(ctx context.Context, connID string, raw []byte) (any, error) {
	var req getRoomRequest
	if err := json.Decode(raw, &req); err != nil {
		return nil, invalidPayload(err)
	}

	roomID, err := roomCode(req.RoomID)
	if err != nil {
		return nil, err
	}

	var lastKnown string
	if req.SocketID != nil {
		lastKnown = *req.SocketID
	}

	room, socketIDNow, err := h.engine.GetRoom(ctx, connID, roomID, lastKnown)
	if err != nil {
		return nil, err
	}

	return getRoomResponse{Room: room, SocketIDNow: socketIDNow}, nil
}

func (h *Handler) leaveRoom(ctx context.Context, connID string, raw []byte) (any, error) {
	var req leaveRoomRequest
	if err := json.Decode(raw, &req); err != nil {
		return nil, invalidPayload(err)
	}

	roomID, err := roomCode(req.RoomID)
	if err != nil {
		return nil, err
	}

	res, err := h.engine.LeaveRoom(ctx, connID, roomID)
	if err != nil {
		return nil, err
	}

	return leaveRoomResponse{Closed: res.Closed, Room: res.Room}, nil
}

func (h *Handler) startGame(ctx context.Context, connID string, raw []byte) (any, error) {
	var req startGameRequest
	if err := json.Decode(raw, &req); err != nil {
		return nil, invalidPayload(err)
	}

	roomID, err := roomCode(req.RoomID)
	if err != nil {
		return nil, err
	}

	room, err := h.engine.StartGame(ctx, connID, roomID)
	if err != nil {
		return nil, err
	}

	return roomResponse{Room: room}, nil
}

// GetRoomHandler godoc
// @Summary      Get a room snapshot
// @Description  Returns the sanitized room without connection ids. Read-only.
// @Tags         rooms
// @Produce      json
// @Param        roomId path string true "Room code"
// @Success      200 {object} roomResponse "Room snapshot"
// @Failure      404 {object} map[string]interface{} "Room not found"
// @Failure      500 {object} map[string]interface{} "Internal server error"
// @Router       /rooms/{roomId} [get]
func (h *Handler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := validate.RoomID(chi.URLParam(r, "roomId"))
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			json.WriteNotFoundError(w, "Room not found")
			return
		}
		json.WriteValidationError(w, err)
		return
	}

	room, err := h.engine.Snapshot(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			json.WriteNotFoundError(w, "Room not found")
			return
		}
		h.logger.Error(logging.RequestResponse, logging.GetRoom, "failed to load room", map[logging.ExtraKey]any{
			logging.RoomID:       roomID,
			logging.ErrorMessage: err.Error(),
		})
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, roomResponse{Room: room})
}

// GetRoomAuditHandler godoc
// @Summary      List room audit records
// @Description  Lists the newest lifecycle records of a room, newest first. Rooms that already closed still have a trail. Only available when MongoDB is enabled.
// @Tags         rooms
// @Produce      json
// @Param        roomId path string true "Room code"
// @Param        limit query int false "Maximum records (default 50, max 200)"
// @Success      200 {object} auditResponse "Audit records"
// @Failure      400 {object} map[string]interface{} "Bad request - invalid limit"
// @Failure      404 {object} map[string]interface{} "Room not found or audit disabled"
// @Failure      500 {object} map[string]interface{} "Internal server error"
// @Router       /rooms/{roomId}/audit [get]
func (h *Handler) GetRoomAuditHandler(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		json.WriteNotFoundError(w, "Audit trail is disabled")
		return
	}

	roomID, err := validate.RoomID(chi.URLParam(r, "roomId"))
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			json.WriteNotFoundError(w, "Room not found")
			return
		}
		json.WriteValidationError(w, err)
		return
	}

	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			json.WriteBadRequestError(w, "limit must be a positive integer")
			return
		}
		limit = min(n, maxAuditLimit)
	}

	logs, err := h.audit.GetByRoomID(r.Context(), roomID, limit)
	if err != nil {
		h.logger.Error(logging.MongoDB, logging.Audit, "failed to read audit trail", map[logging.ExtraKey]any{
			logging.RoomID:       roomID,
			logging.ErrorMessage: err.Error(),
		})
		json.WriteInternalError(w, err)
		return
	}
	if logs == nil {
		logs = []domain.RoomAuditLog{}
	}

	json.Write(w, http.StatusOK, auditResponse{RoomID: roomID, Logs: logs})
}

// roomCode keeps ErrRoomNotFound for codes that were never issued so the
// client sees ROOM_NOT_FOUND.
func roomCode(raw string) (string, error) {
	id, err := validate.RoomID(raw)
	if err != nil && !errors.Is(err, domain.ErrRoomNotFound) {
		return "", invalidPayload(err)
	}
	return id, err
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	_, wildcard := set["*"]

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || wildcard {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
