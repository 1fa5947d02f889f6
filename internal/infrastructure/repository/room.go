package repository

import (
	"context"
	"sync"

	"github.com/hilthontt/duelrooms/internal/domain"
)

type roomRepository struct {
	rooms map[string]*domain.Room // ID -> Room
	mu    *sync.RWMutex
}

func NewRoomRepository() domain.RoomStore {
	return &roomRepository{
		rooms: make(map[string]*domain.Room),
		mu:    &sync.RWMutex{},
	}
}

// Create adds a room if its code is not already taken.
func (r *roomRepository) Create(ctx context.Context, room *domain.Room) error {
	if room == nil || room.ID == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[room.ID]; exists {
		return domain.ErrRoomAlreadyExists
	}

	r.rooms[room.ID] = room

	return nil
}

func (r *roomRepository) Get(ctx context.Context, id string) (*domain.Room, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.RLock()
	room, exists := r.rooms[id]
	r.mu.RUnlock()
	if !exists {
		return nil, domain.ErrRoomNotFound
	}

	return room, nil
}

// Delete removes a room by ID (idempotent).
func (r *roomRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rooms, id)

	return nil
}

func (r *roomRepository) Snapshot(ctx context.Context) []*domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cpy := make([]*domain.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		cpy = append(cpy, room)
	}

	return cpy
}

func (r *roomRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}
