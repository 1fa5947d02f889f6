package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hilthontt/duelrooms/internal/domain"
	"github.com/hilthontt/duelrooms/internal/infrastructure/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoom(id string) *domain.Room {
	return domain.NewRoom(id, "Alice", domain.WorldDark, "conn-1", "USER0001", time.Now(), time.Minute)
}

func TestRoomRepository_CreateAndGet(t *testing.T) {
	store := repository.NewRoomRepository()
	ctx := context.Background()

	room := newRoom("ABCD1234")
	require.NoError(t, store.Create(ctx, room))

	got, err := store.Get(ctx, "ABCD1234")
	require.NoError(t, err)
	assert.Same(t, room, got)
	assert.Equal(t, 1, store.Len())
}

func TestRoomRepository_CreateRejectsCollision(t *testing.T) {
	store := repository.NewRoomRepository()
	ctx := context.Background()

	original := newRoom("ABCD1234")
	require.NoError(t, store.Create(ctx, original))

	err := store.Create(ctx, newRoom("ABCD1234"))
	assert.ErrorIs(t, err, domain.ErrRoomAlreadyExists)

	got, err := store.Get(ctx, "ABCD1234")
	require.NoError(t, err)
	assert.Same(t, original, got, "collision must not overwrite the existing room")
}

func TestRoomRepository_CreateInvalid(t *testing.T) {
	store := repository.NewRoomRepository()

	assert.ErrorIs(t, store.Create(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.Create(context.Background(), &domain.Room{}), domain.ErrInvalidInput)
}

func TestRoomRepository_GetMissing(t *testing.T) {
	store := repository.NewRoomRepository()

	_, err := store.Get(context.Background(), "NOPE0000")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRoomRepository_DeleteIsIdempotent(t *testing.T) {
	store := repository.NewRoomRepository()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newRoom("ABCD1234")))
	require.NoError(t, store.Delete(ctx, "ABCD1234"))
	require.NoError(t, store.Delete(ctx, "ABCD1234"))

	_, err := store.Get(ctx, "ABCD1234")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestRoomRepository_SnapshotIsDetached(t *testing.T) {
	store := repository.NewRoomRepository()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newRoom("AAAA0001")))
	require.NoError(t, store.Create(ctx, newRoom("AAAA0002")))

	snap := store.Snapshot(ctx)
	require.Len(t, snap, 2)

	require.NoError(t, store.Delete(ctx, "AAAA0001"))
	assert.Len(t, snap, 2, "snapshot must not change after deletes")
	assert.Equal(t, 1, store.Len())
}

func TestRoomRepository_ConcurrentAccess(t *testing.T) {
	store := repository.NewRoomRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := domain.GenerateCode()
			if err != nil {
				return
			}
			_ = store.Create(ctx, newRoom(code))
			_ = store.Snapshot(ctx)
			_ = store.Delete(ctx, code)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, store.Len())
}
