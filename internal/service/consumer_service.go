package service

import (
	"context"

	"screening-bot-be/internal/pkg/logger"
	"screening-bot-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventRelay forwards events to an external bus. *nats.Publisher satisfies it.
type EventRelay interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	relay      EventRelay
	logger     logger.ILogger
}

// NewConsumerService builds the lifecycle event consumer. relay may be nil when
// no external bus is configured; events are then only logged.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	relay EventRelay,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		relay:      relay,
		logger:     logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks. The in-process bus redelivers a nacked message
// immediately, so an unreachable relay would otherwise spin.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	event, err := events.Decode(msg.Payload)
	if err != nil {
		cs.logger.Error("ConsumerService", "Dropping undecodable event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err,
		})
		return
	}

	cs.logger.Info("ConsumerService", "Session event", map[string]interface{}{
		"event_type":  event.Type,
		"session_id":  event.Data["session_id"],
		"occurred_at": event.OccurredAt,
	})

	if cs.relay == nil {
		return
	}
	if err := cs.relay.Publish(ctx, event); err != nil {
		cs.logger.Warn("ConsumerService", "Failed to relay event", map[string]interface{}{
			"event_type": event.Type,
			"error":      err,
		})
	}
}
