package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hilthontt/duelrooms/internal/domain"
	"github.com/hilthontt/duelrooms/internal/infrastructure/contracts"
	"github.com/hilthontt/duelrooms/internal/infrastructure/logging"
	"github.com/hilthontt/duelrooms/internal/infrastructure/messaging"
	"github.com/rabbitmq/amqp091-go"
)

type MessageConsumer interface {
	ConsumeMessages(ctx context.Context, queueName string, handler func(context.Context, amqp091.Delivery) error) error
}

// RoomConsumer drains the rooms queue into the audit trail. A nil audit
// repository only logs what it receives.
type RoomConsumer struct {
	consumer MessageConsumer
	audit    domain.RoomAuditRepository
	logger   logging.Logger
}

func NewRoomConsumer(consumer MessageConsumer, audit domain.RoomAuditRepository, logger logging.Logger) *RoomConsumer {
	return &RoomConsumer{
		consumer: consumer,
		audit:    audit,
		logger:   logger,
	}
}

func (c *RoomConsumer) Listen(ctx context.Context) error {
	return c.consumer.ConsumeMessages(ctx, messaging.RoomsQueue, func(ctx context.Context, msg amqp091.Delivery) error {
		return c.Handle(ctx, msg.Body)
	})
}

func (c *RoomConsumer) Handle(ctx context.Context, body []byte) error {
	var message contracts.AmqpMessage
	if err := json.Unmarshal(body, &message); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	var payload messaging.RoomEventData
	if err := json.Unmarshal(message.Data, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal room event: %w", err)
	}

	c.logger.Debug(logging.RabbitMQ, logging.Consume, "room event received", map[logging.ExtraKey]any{
		logging.RoomID: payload.Event.RoomID,
		logging.Event:  string(payload.Event.Type),
	})

	if c.audit == nil {
		return nil
	}

	if err := c.audit.Log(ctx, domain.NewAuditLog(payload.Event)); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}

	return nil
}
