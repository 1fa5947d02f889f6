package domain

import (
	"sync"
	"time"
)

const (
	RoomCapacity      = 2
	DefaultRoomTTL    = 5 * time.Minute
)

type World string

const (
	WorldDark  World = "dark"
	WorldLight World = "light"
)

type RoomState string

const (
	RoomOpen   RoomState = "open"
	RoomFull   RoomState = "full"
	RoomInGame RoomState = "in_game"
	RoomClosed RoomState = "closed"
)

// Room is mutated only while its lock is held. Members are kept in join
// order, so the owner is always Members[0].
type Room struct {
	ID         string
	Name       string
	World      World
	OwnerID    string // connection id of the creator; informational only
	CreatedAt  time.Time
	ExpiresAt  time.Time
	InGame     bool
	Members    []*Member
	MaxMembers int
	IsLocked   bool

	joins  int
	closed bool
	mu     sync.Mutex
}

func NewRoom(id, userName string, world World, ownerConn, ownerUserID string, now time.Time, ttl time.Duration) *Room {
	if ttl <= 0 {
		ttl = DefaultRoomTTL
	}

	room := &Room{
		ID:         id,
		Name:       userName + "'s Room",
		World:      world,
		OwnerID:    ownerConn,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
		Members:    make([]*Member, 0, RoomCapacity),
		MaxMembers: RoomCapacity,
	}

	owner := room.admit(ownerUserID, userName, ownerConn, now)
	owner.IsOwner = true

	return room
}

func (r *Room) Lock()   { r.mu.Lock() }
func (r *Room) Unlock() { r.mu.Unlock() }

// Closed reports whether the room has been torn down. Callers that found the
// room in a store before acquiring its lock must check this.
func (r *Room) Closed() bool { return r.closed }

func (r *Room) MarkClosed() { r.closed = true }

func (r *Room) State() RoomState {
	switch {
	case r.closed:
		return RoomClosed
	case r.InGame:
		return RoomInGame
	case r.IsFull():
		return RoomFull
	default:
		return RoomOpen
	}
}

func (r *Room) IsFull() bool {
	return len(r.Members) >= r.MaxMembers
}

func (r *Room) Expired(now time.Time) bool {
	return !r.InGame && !r.ExpiresAt.After(now)
}

// AddMember appends a new member named "<userName> #<ordinal>". Ordinals
// count every admission and are never reused after a leave.
func (r *Room) AddMember(userID, userName, connID string, now time.Time) (*Member, error) {
	if r.IsFull() {
		return nil, ErrRoomFull
	}
	return r.admit(userID, userName, connID, now), nil
}

func (r *Room) admit(userID, userName, connID string, now time.Time) *Member {
	r.joins++
	m := NewMember(userID, userName, r.joins, connID, now)
	r.Members = append(r.Members, m)
	return m
}

// FindByConnection matches a member by its current or last known connection.
func (r *Room) FindByConnection(connID string) *Member {
	if connID == "" {
		return nil
	}
	for _, m := range r.Members {
		if m.SocketIDNow == connID || m.SocketIDOld == connID {
			return m
		}
	}
	return nil
}

// FindByCurrentConnection matches only live connections.
func (r *Room) FindByCurrentConnection(connID string) *Member {
	if connID == "" {
		return nil
	}
	for _, m := range r.Members {
		if m.SocketIDNow == connID {
			return m
		}
	}
	return nil
}

func (r *Room) RemoveMember(target *Member) error {
	for i, m := range r.Members {
		if m == target {
			// keep join order
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			return nil
		}
	}
	return ErrNotMember
}
