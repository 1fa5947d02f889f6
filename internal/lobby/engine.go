package lobby

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hilthontt/duelrooms/internal/domain"
	"github.com/hilthontt/duelrooms/internal/infrastructure/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName      = "github.com/hilthontt/duelrooms/internal/lobby"
	maxCodeAttempts = 5
)

// Engine applies room lifecycle events. Every operation holds the target
// room's lock from lookup to broadcast, so no two operations observe or mutate
// the same room concurrently; different rooms proceed in parallel.
type Engine struct {
	store       domain.RoomStore
	broadcaster domain.Broadcaster
	observers   []Observer
	logger      logging.Logger
	tracer      trace.Tracer
	ttl         time.Duration
	now         func() time.Time
	newCode     func() (string, error)
}

func NewEngine(store domain.RoomStore, broadcaster domain.Broadcaster, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		broadcaster: broadcaster,
		logger:      logging.NewNop(),
		tracer:      otel.Tracer(tracerName),
		ttl:         domain.DefaultRoomTTL,
		now:         time.Now,
		newCode:     domain.GenerateCode,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// LeaveResult carries either Closed or the room that remains.
type LeaveResult struct {
	Closed bool
	Room   *domain.SafeRoom
}

func (e *Engine) CreateRoom(ctx context.Context, connID, userName string, world domain.World) (domain.SafeRoom, error) {
	ctx, span := e.tracer.Start(ctx, "lobby.CreateRoom")
	defer span.End()

	now := e.now()

	userID, err := e.newCode()
	if err != nil {
		return domain.SafeRoom{}, e.fail(span, fmt.Errorf("generate user id: %w", err))
	}

	var room *domain.Room
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		id, err := e.newCode()
		if err != nil {
			return domain.SafeRoom{}, e.fail(span, fmt.Errorf("generate room id: %w", err))
		}

		candidate := domain.NewRoom(id, userName, world, connID, userID, now, e.ttl)
		candidate.Lock()
		err = e.store.Create(ctx, candidate)
		if err == nil {
			room = candidate
			break
		}
		candidate.Unlock()

		if !errors.Is(err, domain.ErrRoomAlreadyExists) {
			return domain.SafeRoom{}, e.fail(span, fmt.Errorf("store room: %w", err))
		}
	}
	if room == nil {
		return domain.SafeRoom{}, e.fail(span, fmt.Errorf("no free room code after %d attempts: %w", maxCodeAttempts, domain.ErrRoomAlreadyExists))
	}

	e.broadcaster.Subscribe(connID, room.ID)
	safe := domain.Sanitize(room)
	e.broadcaster.Publish(room.ID, domain.PushRoomUpdated, safe)
	room.Unlock()

	span.SetAttributes(attribute.String("room.id", room.ID), attribute.String("room.world", string(world)))
	e.logger.Info(logging.RoomLifecycle, logging.CreateRoom, "room created", map[logging.ExtraKey]any{
		logging.RoomID: room.ID,
		logging.UserID: userID,
	})

	e.emit(ctx, domain.RoomEvent{Type: domain.EventRoomCreated, RoomID: room.ID, UserID: userID, Room: safe, At: now})

	return safe, nil
}

func (e *Engine) JoinRoom(ctx context.Context, connID, roomID, userName string) (domain.SafeRoom, error) {
	ctx, span := e.tracer.Start(ctx, "lobby.JoinRoom", trace.WithAttributes(attribute.String("room.id", roomID)))
	defer span.End()

	room, err := e.lockRoom(ctx, roomID)
	if err != nil {
		return domain.SafeRoom{}, e.fail(span, err)
	}

	now := e.now()
	member, reconnected, err := e.reconcileJoin(room, connID, userName, now)
	if err != nil {
		safe := domain.Sanitize(room)
		room.Unlock()
		if errors.Is(err, domain.ErrRoomFull) {
			e.emit(ctx, domain.RoomEvent{Type: domain.EventRoomFull, RoomID: roomID, Room: safe, At: now})
		}
		return domain.SafeRoom{}, e.fail(span, err)
	}

	e.broadcaster.Subscribe(connID, room.ID)
	safe := domain.Sanitize(room)
	e.broadcaster.Publish(room.ID, domain.PushRoomUpdated, safe)
	state := room.State()
	room.Unlock()

	evType := domain.EventMemberJoined
	if reconnected {
		evType = domain.EventMemberReconnected
	}

	e.logger.Info(logging.RoomLifecycle, logging.JoinRoom, "member joined room", map[logging.ExtraKey]any{
		logging.RoomID:  roomID,
		logging.UserID:  member.UserID,
		logging.Members: len(safe.Members),
		logging.Event:   string(evType),
		"State":         string(state),
	})

	e.emit(ctx, domain.RoomEvent{Type: evType, RoomID: roomID, UserID: member.UserID, Room: safe, At: now})

	return safe, nil
}

// GetRoom re-validates a client's stored identifier and rebinds the member to
// the calling connection. It returns the now-current connection id.
func (e *Engine) GetRoom(ctx context.Context, connID, roomID, lastKnownID string) (domain.SafeRoom, string, error) {
	ctx, span := e.tracer.Start(ctx, "lobby.GetRoom", trace.WithAttributes(attribute.String("room.id", roomID)))
	defer span.End()

	room, err := e.lockRoom(ctx, roomID)
	if err != nil {
		return domain.SafeRoom{}, "", e.fail(span, err)
	}

	member, displaced, err := e.reconcileSession(room, connID, lastKnownID)
	if err != nil {
		room.Unlock()
		return domain.SafeRoom{}, "", e.fail(span, err)
	}

	if displaced != "" {
		e.broadcaster.Unsubscribe(displaced, room.ID)
	}
	e.broadcaster.Subscribe(connID, room.ID)
	safe := domain.Sanitize(room)
	e.broadcaster.Publish(room.ID, domain.PushRoomUpdated, safe)
	room.Unlock()

	e.logger.Info(logging.RoomLifecycle, logging.GetRoom, "member session restored", map[logging.ExtraKey]any{
		logging.RoomID: roomID,
		logging.UserID: member.UserID,
	})

	e.emit(ctx, domain.RoomEvent{Type: domain.EventMemberReconnected, RoomID: roomID, UserID: member.UserID, Room: safe, At: e.now()})

	return safe, connID, nil
}

// LeaveRoom removes the calling connection's member. The room closes when the
// owner leaves or nobody is left.
func (e *Engine) LeaveRoom(ctx context.Context, connID, roomID string) (LeaveResult, error) {
	ctx, span := e.tracer.Start(ctx, "lobby.LeaveRoom", trace.WithAttributes(attribute.String("room.id", roomID)))
	defer span.End()

	room, err := e.lockRoom(ctx, roomID)
	if err != nil {
		return LeaveResult{}, e.fail(span, err)
	}

	member := room.FindByConnection(connID)
	if member == nil {
		room.Unlock()
		return LeaveResult{}, e.fail(span, domain.ErrNotMember)
	}

	if err := room.RemoveMember(member); err != nil {
		room.Unlock()
		return LeaveResult{}, e.fail(span, err)
	}
	e.broadcaster.Unsubscribe(connID, room.ID)

	now := e.now()
	left := domain.RoomEvent{Type: domain.EventMemberLeft, RoomID: roomID, UserID: member.UserID, WasOwner: member.IsOwner, At: now}

	if member.IsOwner || len(room.Members) == 0 {
		safe := e.closeRoom(ctx, room, domain.PushRoomClosed)
		room.Unlock()

		left.Room = safe
		e.logger.Info(logging.RoomLifecycle, logging.LeaveRoom, "room closed", map[logging.ExtraKey]any{
			logging.RoomID: roomID,
			logging.UserID: member.UserID,
			logging.Reason: closeReason(member),
		})
		e.emit(ctx, left, domain.RoomEvent{Type: domain.EventRoomClosed, RoomID: roomID, Room: safe, At: now})

		return LeaveResult{Closed: true}, nil
	}

	safe := domain.Sanitize(room)
	e.broadcaster.Publish(room.ID, domain.PushRoomUpdated, safe)
	room.Unlock()

	left.Room = safe
	e.logger.Info(logging.RoomLifecycle, logging.LeaveRoom, "member left room", map[logging.ExtraKey]any{
		logging.RoomID:  roomID,
		logging.UserID:  member.UserID,
		logging.Members: len(safe.Members),
	})
	e.emit(ctx, left)

	return LeaveResult{Room: &safe}, nil
}

// StartGame moves a full room in game, which exempts it from expiry.
func (e *Engine) StartGame(ctx context.Context, connID, roomID string) (domain.SafeRoom, error) {
	ctx, span := e.tracer.Start(ctx, "lobby.StartGame", trace.WithAttributes(attribute.String("room.id", roomID)))
	defer span.End()

	room, err := e.lockRoom(ctx, roomID)
	if err != nil {
		return domain.SafeRoom{}, e.fail(span, err)
	}

	member := room.FindByConnection(connID)
	switch {
	case member == nil:
		err = domain.ErrNotMember
	case !member.IsOwner:
		err = domain.ErrNotOwner
	case room.InGame || !room.IsFull() || !allOnline(room):
		err = domain.ErrRoomNotReady
	}
	if err != nil {
		room.Unlock()
		return domain.SafeRoom{}, e.fail(span, err)
	}

	room.InGame = true
	safe := domain.Sanitize(room)
	e.broadcaster.Publish(room.ID, domain.PushRoomUpdated, safe)
	e.broadcaster.Publish(room.ID, domain.PushRoomStarted, safe)
	room.Unlock()

	e.logger.Info(logging.RoomLifecycle, logging.StartGame, "room started", map[logging.ExtraKey]any{
		logging.RoomID: roomID,
		logging.UserID: member.UserID,
	})
	e.emit(ctx, domain.RoomEvent{Type: domain.EventRoomStarted, RoomID: roomID, UserID: member.UserID, Room: safe, At: e.now()})

	return safe, nil
}

// Disconnect marks every member bound to connID offline. Members are kept and
// rooms stay open so the client can come back through GetRoom. It returns the
// number of rooms touched.
func (e *Engine) Disconnect(ctx context.Context, connID string) int {
	ctx, span := e.tracer.Start(ctx, "lobby.Disconnect")
	defer span.End()

	var events []domain.RoomEvent
	now := e.now()

	for _, room := range e.store.Snapshot(ctx) {
		room.Lock()
		if room.Closed() {
			room.Unlock()
			continue
		}

		member := room.FindByCurrentConnection(connID)
		if member == nil {
			room.Unlock()
			continue
		}

		member.GoOffline()
		e.broadcaster.Unsubscribe(connID, room.ID)
		safe := domain.Sanitize(room)
		e.broadcaster.Publish(room.ID, domain.PushRoomUpdated, safe)
		room.Unlock()

		e.logger.Info(logging.RoomLifecycle, logging.Disconnect, "member went offline", map[logging.ExtraKey]any{
			logging.RoomID: room.ID,
			logging.UserID: member.UserID,
		})
		events = append(events, domain.RoomEvent{Type: domain.EventMemberOffline, RoomID: room.ID, UserID: member.UserID, Room: safe, At: now})
	}

	span.SetAttributes(attribute.Int("rooms.touched", len(events)))
	e.emit(ctx, events...)

	return len(events)
}

// Sweep deletes every room that is not in game and whose expiry has passed.
// It returns the number of rooms removed.
func (e *Engine) Sweep(ctx context.Context) int {
	ctx, span := e.tracer.Start(ctx, "lobby.Sweep")
	defer span.End()

	var events []domain.RoomEvent
	now := e.now()

	for _, room := range e.store.Snapshot(ctx) {
		room.Lock()
		if room.Closed() || !room.Expired(now) {
			room.Unlock()
			continue
		}

		safe := e.closeRoom(ctx, room, domain.PushRoomExpired)
		room.Unlock()

		e.logger.Info(logging.Sweeper, logging.Expire, "room expired", map[logging.ExtraKey]any{
			logging.RoomID:  room.ID,
			logging.Members: len(safe.Members),
		})
		events = append(events, domain.RoomEvent{Type: domain.EventRoomExpired, RoomID: room.ID, Room: safe, At: now})
	}

	span.SetAttributes(attribute.Int("rooms.expired", len(events)))
	e.emit(ctx, events...)

	return len(events)
}

// Snapshot returns the sanitized room without touching membership.
func (e *Engine) Snapshot(ctx context.Context, roomID string) (domain.SafeRoom, error) {
	room, err := e.lockRoom(ctx, roomID)
	if err != nil {
		return domain.SafeRoom{}, err
	}
	defer room.Unlock()

	return domain.Sanitize(room), nil
}

func (e *Engine) RoomCount() int {
	return e.store.Len()
}

// lockRoom returns the room locked, or ErrRoomNotFound when it is missing or
// was closed while we waited for the lock.
func (e *Engine) lockRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	room, err := e.store.Get(ctx, roomID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}

	room.Lock()
	if room.Closed() {
		room.Unlock()
		return nil, domain.ErrRoomNotFound
	}

	return room, nil
}

// closeRoom tears the room down. For an explicit close the members first get
// the final membership, then the close notice. Must hold the room lock.
func (e *Engine) closeRoom(ctx context.Context, room *domain.Room, push string) domain.SafeRoom {
	safe := domain.Sanitize(room)
	if push == domain.PushRoomClosed {
		e.broadcaster.Publish(room.ID, domain.PushRoomUpdated, safe)
	}
	e.broadcaster.Publish(room.ID, push, nil)

	room.MarkClosed()
	if err := e.store.Delete(ctx, room.ID); err != nil {
		e.logger.Error(logging.RoomLifecycle, logging.LeaveRoom, "failed to delete room", map[logging.ExtraKey]any{
			logging.RoomID:       room.ID,
			logging.ErrorMessage: err.Error(),
		})
	}
	e.broadcaster.Drop(room.ID)

	return safe
}

func (e *Engine) emit(ctx context.Context, events ...domain.RoomEvent) {
	for _, ev := range events {
		for _, o := range e.observers {
			o.Observe(ctx, ev)
		}
	}
}

func (e *Engine) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func allOnline(room *domain.Room) bool {
	for _, m := range room.Members {
		if !m.Online {
			return false
		}
	}
	return true
}

func closeReason(m *domain.Member) string {
	if m.IsOwner {
		return "owner_left"
	}
	return "empty"
}
