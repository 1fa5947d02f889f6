package lobby_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hilthontt/duelrooms/internal/domain"
	"github.com/hilthontt/duelrooms/internal/infrastructure/repository"
	"github.com/hilthontt/duelrooms/internal/lobby"
)

type push struct {
	RoomID  string
	Event   string
	Payload any
}

// recordingBroadcaster keeps every publish and the subscription table.
type recordingBroadcaster struct {
	mu      sync.Mutex
	pushes  []push
	subs    map[string]map[string]bool // roomID -> connID
	dropped []string
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{subs: make(map[string]map[string]bool)}
}

func (b *recordingBroadcaster) Subscribe(connID, roomID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[roomID] == nil {
		b.subs[roomID] = make(map[string]bool)
	}
	b.subs[roomID][connID] = true
}

func (b *recordingBroadcaster) Unsubscribe(connID, roomID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs[roomID], connID)
}

func (b *recordingBroadcaster) Publish(roomID, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pushes = append(b.pushes, push{RoomID: roomID, Event: event, Payload: payload})
}

func (b *recordingBroadcaster) Drop(roomID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, roomID)
	b.dropped = append(b.dropped, roomID)
}

func (b *recordingBroadcaster) events(roomID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, p := range b.pushes {
		if p.RoomID == roomID {
			out = append(out, p.Event)
		}
	}
	return out
}

func (b *recordingBroadcaster) last(roomID, event string) (push, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.pushes) - 1; i >= 0; i-- {
		if b.pushes[i].RoomID == roomID && b.pushes[i].Event == event {
			return b.pushes[i], true
		}
	}
	return push{}, false
}

func (b *recordingBroadcaster) subscribed(roomID, connID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subs[roomID][connID]
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sequentialCodes() func() (string, error) {
	var n atomic.Int64
	return func() (string, error) {
		return fmt.Sprintf("C%07d", n.Add(1)), nil
	}
}

type eventLog struct {
	mu     sync.Mutex
	events []domain.RoomEvent
}

func (l *eventLog) Observe(_ context.Context, ev domain.RoomEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) types() []domain.RoomEventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.RoomEventType, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	engine *lobby.Engine
	store  domain.RoomStore
	bc     *recordingBroadcaster
	clock  *manualClock
	log    *eventLog
}

func newFixture(opts ...lobby.Option) *fixture {
	f := &fixture{
		store: repository.NewRoomRepository(),
		bc:    newRecordingBroadcaster(),
		clock: newManualClock(),
		log:   &eventLog{},
	}

	base := []lobby.Option{
		lobby.WithClock(f.clock.Now),
		lobby.WithCodeGenerator(sequentialCodes()),
		lobby.WithObservers(f.log),
		lobby.WithTTL(5 * time.Minute),
	}
	f.engine = lobby.NewEngine(f.store, f.bc, append(base, opts...)...)

	return f
}
