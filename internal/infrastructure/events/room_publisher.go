package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hilthontt/duelrooms/internal/domain"
	"github.com/hilthontt/duelrooms/internal/infrastructure/contracts"
	"github.com/hilthontt/duelrooms/internal/infrastructure/logging"
	"github.com/hilthontt/duelrooms/internal/infrastructure/messaging"
)

const publishTimeout = 5 * time.Second

type MessagePublisher interface {
	PublishMessage(ctx context.Context, routingKey string, msg contracts.AmqpMessage) error
}

// RoomPublisher forwards lifecycle events to the message broker. Publish
// failures are logged and never reach the engine.
type RoomPublisher struct {
	publisher MessagePublisher
	logger    logging.Logger
}

func NewRoomPublisher(publisher MessagePublisher, logger logging.Logger) *RoomPublisher {
	return &RoomPublisher{
		publisher: publisher,
		logger:    logger,
	}
}

func (p *RoomPublisher) Observe(ctx context.Context, ev domain.RoomEvent) {
	if err := p.Publish(ctx, ev); err != nil {
		p.logger.Error(logging.RabbitMQ, logging.Publish, "failed to publish room event", map[logging.ExtraKey]any{
			logging.RoomID:       ev.RoomID,
			logging.Event:        string(ev.Type),
			logging.ErrorMessage: err.Error(),
		})
	}
}

func (p *RoomPublisher) Publish(ctx context.Context, ev domain.RoomEvent) error {
	payload := messaging.RoomEventData{Event: ev}

	roomEventJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	// the broker round trip must outlive a cancelled request
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	return p.publisher.PublishMessage(ctx, string(ev.Type), contracts.AmqpMessage{
		RoomID: ev.RoomID,
		Data:   roomEventJSON,
	})
}
