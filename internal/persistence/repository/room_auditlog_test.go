package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/hilthontt/duelrooms/internal/domain"
	"github.com/hilthontt/duelrooms/internal/persistence/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestRoomAuditLogRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("log inserts one document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		repo := repository.NewRoomAuditLogRepository(mt.DB)
		err := repo.Log(context.Background(), domain.NewAuditLog(domain.RoomEvent{
			Type:   domain.EventRoomCreated,
			RoomID: "ABCD1234",
			At:     time.Now(),
		}))
		require.NoError(mt, err)
	})

	mt.Run("get by room id decodes cursor", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + ".room_audit_logs"
		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "log-2"},
			{Key: "room_id", Value: "ABCD1234"},
			{Key: "event_type", Value: "member.joined"},
			{Key: "timestamp", Value: time.Unix(1700000100, 0)},
		}, bson.D{
			{Key: "_id", Value: "log-1"},
			{Key: "room_id", Value: "ABCD1234"},
			{Key: "event_type", Value: "room.created"},
			{Key: "timestamp", Value: time.Unix(1700000000, 0)},
		})
		killCursors := mtest.CreateCursorResponse(0, ns, mtest.NextBatch)
		mt.AddMockResponses(first, killCursors)

		repo := repository.NewRoomAuditLogRepository(mt.DB)
		logs, err := repo.GetByRoomID(context.Background(), "ABCD1234", 10)
		require.NoError(mt, err)
		require.Len(mt, logs, 2)
		assert.Equal(mt, "log-2", logs[0].ID)
		assert.Equal(mt, domain.EventMemberJoined, logs[0].EventType)
		assert.Equal(mt, domain.EventRoomCreated, logs[1].EventType)
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		repo := repository.NewRoomAuditLogRepository(mt.DB)
		require.NoError(mt, repo.EnsureIndexes(context.Background()))
	})
}
