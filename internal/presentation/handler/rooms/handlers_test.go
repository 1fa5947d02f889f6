package rooms_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/hilthontt/duelrooms/internal/domain"
	"github.com/hilthontt/duelrooms/internal/infrastructure/logging"
	"github.com/hilthontt/duelrooms/internal/infrastructure/repository"
	"github.com/hilthontt/duelrooms/internal/infrastructure/ws"
	"github.com/hilthontt/duelrooms/internal/lobby"
	"github.com/hilthontt/duelrooms/internal/presentation/handler/rooms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const readTimeout = 2 * time.Second

type frame struct {
	Event  string          `json:"event"`
	Ack    *int64          `json:"ack"`
	RoomID string          `json:"roomId"`
	Data   json.RawMessage `json:"data"`
}

type ackResult struct {
	Error       string          `json:"error"`
	Room        domain.SafeRoom `json:"room"`
	SocketID    string          `json:"socketId"`
	SocketIDNow string          `json:"socketIdNow"`
	Closed      bool            `json:"closed"`
}

type commandCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *commandCounter) Command(event, result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[event+"/"+result]++
}

func (c *commandCounter) ConnectionOpened() {}
func (c *commandCounter) ConnectionClosed() {}

func (c *commandCounter) get(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[key]
}

type testServer struct {
	srv      *httptest.Server
	engine   *lobby.Engine
	recorder *commandCounter
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithLogger(t, logging.NewNop())
}

func newTestServerWithLogger(t *testing.T, logger logging.Logger) *testServer {
	t.Helper()

	hub := ws.NewHub(logger)
	engine := lobby.NewEngine(repository.NewRoomRepository(), hub)
	recorder := &commandCounter{counts: make(map[string]int)}

	h := rooms.NewHandler(engine, hub, nil, recorder, logger, rooms.Config{
		AllowedOrigins: []string{"http://localhost:5173"},
	})

	r := chi.NewRouter()
	r.Get("/ws", h.ServeWS)
	r.Get("/api/rooms/{roomId}", h.GetRoomHandler)
	r.Get("/api/rooms/{roomId}/audit", h.GetRoomAuditHandler)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, engine: engine, recorder: recorder}
}

type testClient struct {
	t       *testing.T
	conn    *websocket.Conn
	id      string
	nextAck int64
	pending []frame
}

func (s *testServer) dial(t *testing.T) *testClient {
	t.Helper()

	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	c := &testClient{t: t, conn: conn}

	welcome := c.waitPush(domain.PushConnected)
	var payload ws.ConnectedPayload
	require.NoError(t, json.Unmarshal(welcome.Data, &payload))
	require.NotEmpty(t, payload.SocketID)
	c.id = payload.SocketID

	return c
}

func (c *testClient) read() frame {
	c.t.Helper()

	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(readTimeout)))
	var f frame
	require.NoError(c.t, c.conn.ReadJSON(&f))
	return f
}

// emit sends an event with an ack id and returns the matching ack. Pushes
// that arrive first are kept for waitPush.
func (c *testClient) emit(event string, data any) ackResult {
	c.t.Helper()

	c.nextAck++
	id := c.nextAck
	require.NoError(c.t, c.conn.WriteJSON(map[string]any{"event": event, "ack": id, "data": data}))

	for {
		f := c.read()
		if f.Event == ws.AckEvent && f.Ack != nil && *f.Ack == id {
			var res ackResult
			require.NoError(c.t, json.Unmarshal(f.Data, &res))
			return res
		}
		c.pending = append(c.pending, f)
	}
}

func (c *testClient) waitPush(event string) frame {
	c.t.Helper()

	for i, f := range c.pending {
		if f.Event == event {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return f
		}
	}
	for {
		f := c.read()
		if f.Event == event {
			return f
		}
		c.pending = append(c.pending, f)
	}
}

// lastRoomUpdate drains buffered pushes and waits for the room-updated push
// that satisfies match.
func (c *testClient) waitRoomUpdate(match func(domain.SafeRoom) bool) domain.SafeRoom {
	c.t.Helper()

	for {
		f := c.waitPush(domain.PushRoomUpdated)
		var room domain.SafeRoom
		require.NoError(c.t, json.Unmarshal(f.Data, &room))
		if match(room) {
			return room
		}
	}
}

func memberCount(n int) func(domain.SafeRoom) bool {
	return func(r domain.SafeRoom) bool { return len(r.Members) == n }
}

func TestSocket_CreateJoinLeaveScenario(t *testing.T) {
	s := newTestServer(t)
	alice := s.dial(t)
	bob := s.dial(t)

	created := alice.emit(ws.CreateRoomEvent, map[string]any{"userName": "Alice", "world": "dark"})
	require.Empty(t, created.Error)
	assert.Equal(t, alice.id, created.SocketID)
	assert.Equal(t, "Alice's Room", created.Room.Name)
	assert.Equal(t, domain.WorldDark, created.Room.World)
	require.Len(t, created.Room.Members, 1)
	assert.Equal(t, "Alice #1", created.Room.Members[0].Name)
	assert.True(t, created.Room.Members[0].IsOwner)
	roomID := created.Room.ID

	joined := bob.emit(ws.JoinRoomEvent, map[string]any{"userName": "Bob", "roomId": strings.ToLower(roomID)})
	require.Empty(t, joined.Error)
	assert.Equal(t, bob.id, joined.SocketID)
	require.Len(t, joined.Room.Members, 2)
	assert.Equal(t, "Bob #2", joined.Room.Members[1].Name)

	update := alice.waitRoomUpdate(memberCount(2))
	assert.Equal(t, roomID, update.ID)

	left := bob.emit(ws.LeaveRoomEvent, map[string]any{"roomId": roomID, "socketId": bob.id})
	require.Empty(t, left.Error)
	assert.False(t, left.Closed)
	require.Len(t, left.Room.Members, 1)
	alice.waitRoomUpdate(memberCount(1))

	closed := alice.emit(ws.LeaveRoomEvent, map[string]any{"roomId": roomID, "socketId": alice.id})
	require.Empty(t, closed.Error)
	assert.True(t, closed.Closed)
	assert.Equal(t, 0, s.engine.RoomCount())

	missing := bob.emit(ws.GetRoomEvent, map[string]any{"roomId": roomID, "socketId": bob.id})
	assert.Equal(t, rooms.CodeRoomNotFound, missing.Error)
}

func TestSocket_OwnerLeaveClosesRoomForOthers(t *testing.T) {
	s := newTestServer(t)
	alice := s.dial(t)
	bob := s.dial(t)

	created := alice.emit(ws.CreateRoomEvent, map[string]any{"userName": "Alice", "world": "light"})
	roomID := created.Room.ID
	require.Empty(t, bob.emit(ws.JoinRoomEvent, map[string]any{"userName": "Bob", "roomId": roomID}).Error)

	res := alice.emit(ws.LeaveRoomEvent, map[string]any{"roomId": roomID, "socketId": alice.id})
	assert.True(t, res.Closed)

	bob.waitRoomUpdate(memberCount(1))
	closed := bob.waitPush(domain.PushRoomClosed)
	assert.Equal(t, roomID, closed.RoomID)
}

func TestSocket_JoinRejections(t *testing.T) {
	s := newTestServer(t)
	alice := s.dial(t)
	bob := s.dial(t)
	carol := s.dial(t)

	roomID := alice.emit(ws.CreateRoomEvent, map[string]any{"userName": "Alice", "world": "dark"}).Room.ID
	require.Empty(t, bob.emit(ws.JoinRoomEvent, map[string]any{"userName": "Bob", "roomId": roomID}).Error)

	full := carol.emit(ws.JoinRoomEvent, map[string]any{"userName": "Carol", "roomId": roomID})
	assert.Equal(t, rooms.CodeRoomFull, full.Error)

	unknown := carol.emit(ws.JoinRoomEvent, map[string]any{"userName": "Carol", "roomId": "ZZZZZZZZ"})
	assert.Equal(t, rooms.CodeRoomNotFound, unknown.Error)

	// a member joining again is a reconnect even at capacity
	again := bob.emit(ws.JoinRoomEvent, map[string]any{"userName": "Bob", "roomId": roomID})
	require.Empty(t, again.Error)
	assert.Len(t, again.Room.Members, 2)

	assert.Equal(t, 1, s.recorder.get("join-room/"+rooms.CodeRoomFull))
}

func TestSocket_DisconnectAndRestoreSession(t *testing.T) {
	s := newTestServer(t)
	alice := s.dial(t)
	bob := s.dial(t)

	roomID := alice.emit(ws.CreateRoomEvent, map[string]any{"userName": "Alice", "world": "dark"}).Room.ID
	require.Empty(t, bob.emit(ws.JoinRoomEvent, map[string]any{"userName": "Bob", "roomId": roomID}).Error)
	oldBobID := bob.id

	require.NoError(t, bob.conn.Close())

	offline := alice.waitRoomUpdate(func(r domain.SafeRoom) bool {
		return len(r.Members) == 2 && !r.Members[1].Online
	})
	assert.Equal(t, "Bob #2", offline.Members[1].Name)

	bob2 := s.dial(t)
	restored := bob2.emit(ws.GetRoomEvent, map[string]any{"roomId": roomID, "socketId": oldBobID})
	require.Empty(t, restored.Error)
	assert.Equal(t, bob2.id, restored.SocketIDNow)
	require.Len(t, restored.Room.Members, 2)
	assert.True(t, restored.Room.Members[1].Online)

	alice.waitRoomUpdate(func(r domain.SafeRoom) bool {
		return len(r.Members) == 2 && r.Members[1].Online
	})
}

func TestSocket_GetRoomErrors(t *testing.T) {
	s := newTestServer(t)
	alice := s.dial(t)
	mallory := s.dial(t)

	roomID := alice.emit(ws.CreateRoomEvent, map[string]any{"userName": "Alice", "world": "dark"}).Room.ID

	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{name: "null socket id", data: map[string]any{"roomId": roomID, "socketId": nil}, want: rooms.CodeNotMember},
		{name: "unknown socket id", data: map[string]any{"roomId": roomID, "socketId": "nobody"}, want: rooms.CodeNotMember},
		{name: "live id of another connection", data: map[string]any{"roomId": roomID, "socketId": alice.id}, want: rooms.CodeInvalidGetRoom},
		{name: "unknown room", data: map[string]any{"roomId": "ZZZZZZZZ", "socketId": alice.id}, want: rooms.CodeRoomNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mallory.emit(ws.GetRoomEvent, tt.data)
			assert.Equal(t, tt.want, res.Error)
		})
	}
}

func TestSocket_StartGame(t *testing.T) {
	s := newTestServer(t)
	alice := s.dial(t)
	bob := s.dial(t)

	roomID := alice.emit(ws.CreateRoomEvent, map[string]any{"userName": "Alice", "world": "dark"}).Room.ID

	notReady := alice.emit(ws.StartGameEvent, map[string]any{"roomId": roomID})
	assert.Equal(t, rooms.CodeRoomNotReady, notReady.Error)

	require.Empty(t, bob.emit(ws.JoinRoomEvent, map[string]any{"userName": "Bob", "roomId": roomID}).Error)

	notOwner := bob.emit(ws.StartGameEvent, map[string]any{"roomId": roomID})
	assert.Equal(t, rooms.CodeNotOwner, notOwner.Error)

	started := alice.emit(ws.StartGameEvent, map[string]any{"roomId": roomID})
	require.Empty(t, started.Error)
	assert.Len(t, started.Room.Members, 2)

	push := bob.waitPush(domain.PushRoomStarted)
	assert.Equal(t, roomID, push.RoomID)
}

func TestSocket_MalformedInput(t *testing.T) {
	s := newTestServer(t)
	c := s.dial(t)

	tests := []struct {
		name  string
		event string
		data  any
		want  string
	}{
		{name: "unknown event", event: "chat", data: map[string]any{}, want: rooms.CodeUnknownEvent},
		{name: "bad world", event: ws.CreateRoomEvent, data: map[string]any{"userName": "A", "world": "grey"}, want: rooms.CodeInvalidPayload},
		{name: "empty user name", event: ws.CreateRoomEvent, data: map[string]any{"userName": " ", "world": "dark"}, want: rooms.CodeInvalidPayload},
		{name: "malformed code on join", event: ws.JoinRoomEvent, data: map[string]any{"userName": "A", "roomId": "ABC123"}, want: rooms.CodeRoomNotFound},
		{name: "malformed code on get", event: ws.GetRoomEvent, data: map[string]any{"roomId": "ABC123", "socketId": "x"}, want: rooms.CodeRoomNotFound},
		{name: "malformed code on leave", event: ws.LeaveRoomEvent, data: map[string]any{"roomId": "ABC-1234"}, want: rooms.CodeRoomNotFound},
		{name: "malformed code on start", event: ws.StartGameEvent, data: map[string]any{"roomId": "abc"}, want: rooms.CodeRoomNotFound},
		{name: "missing room id", event: ws.JoinRoomEvent, data: map[string]any{"userName": "A"}, want: rooms.CodeInvalidPayload},
		{name: "room id not a string", event: ws.GetRoomEvent, data: map[string]any{"roomId": 12345678}, want: rooms.CodeInvalidPayload},
		{name: "payload not an object", event: ws.LeaveRoomEvent, data: []int{1, 2}, want: rooms.CodeInvalidPayload},
		{name: "leave without membership", event: ws.LeaveRoomEvent, data: map[string]any{"roomId": "ZZZZZZZZ"}, want: rooms.CodeRoomNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.emit(tt.event, tt.data)
			assert.Equal(t, tt.want, res.Error)
		})
	}

	// the connection survives garbage frames
	require.NoError(t, c.conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	ok := c.emit(ws.CreateRoomEvent, map[string]any{"userName": "Alice", "world": "dark"})
	assert.Empty(t, ok.Error)
}

func TestSocket_ConnectionIDsOnlyLoggedAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := newTestServerWithLogger(t, logging.NewWithCore(core))
	c := s.dial(t)

	res := c.emit(ws.JoinRoomEvent, map[string]any{"userName": "A", "roomId": "ZZZZZZZZ"})
	require.Equal(t, rooms.CodeRoomNotFound, res.Error)

	rejected := logs.FilterMessage("event rejected").All()
	require.NotEmpty(t, rejected)
	assert.Equal(t, c.id, rejected[0].ContextMap()[string(logging.SocketID)])

	for _, entry := range logs.FilterLevelExact(zapcore.WarnLevel).All() {
		assert.NotContains(t, entry.ContextMap(), string(logging.SocketID), entry.Message)
	}
	for _, entry := range logs.FilterLevelExact(zapcore.ErrorLevel).All() {
		assert.NotContains(t, entry.ContextMap(), string(logging.SocketID), entry.Message)
	}
}

func TestSocket_PushesCarryNoConnectionIDs(t *testing.T) {
	s := newTestServer(t)
	alice := s.dial(t)
	bob := s.dial(t)

	roomID := alice.emit(ws.CreateRoomEvent, map[string]any{"userName": "Alice", "world": "dark"}).Room.ID
	require.Empty(t, bob.emit(ws.JoinRoomEvent, map[string]any{"userName": "Bob", "roomId": roomID}).Error)

	f := alice.waitPush(domain.PushRoomUpdated)
	raw := string(f.Data)
	assert.NotContains(t, raw, alice.id)
	assert.NotContains(t, raw, bob.id)
	assert.NotContains(t, raw, "socketIdNow")
	assert.NotContains(t, raw, "ownerId")
}

func TestSocket_RejectsForeignOrigin(t *testing.T) {
	s := newTestServer(t)

	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetRoomHandler(t *testing.T) {
	s := newTestServer(t)

	room, err := s.engine.CreateRoom(context.Background(), "conn-1", "Alice", domain.WorldLight)
	require.NoError(t, err)

	resp, err := http.Get(s.srv.URL + "/api/rooms/" + room.ID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Room domain.SafeRoom `json:"room"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, room.ID, body.Room.ID)
	assert.Len(t, body.Room.Members, 1)

	notFound, err := http.Get(s.srv.URL + "/api/rooms/ZZZZZZZZ")
	require.NoError(t, err)
	notFound.Body.Close()
	assert.Equal(t, http.StatusNotFound, notFound.StatusCode)

	malformed, err := http.Get(s.srv.URL + "/api/rooms/nope")
	require.NoError(t, err)
	malformed.Body.Close()
	assert.Equal(t, http.StatusNotFound, malformed.StatusCode)
}

func TestGetRoomAuditHandler_Disabled(t *testing.T) {
	s := newTestServer(t)

	resp, err := http.Get(s.srv.URL + "/api/rooms/ABCD1234/audit")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
