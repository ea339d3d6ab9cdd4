package service

import (
	"context"
	"encoding/json"

	"field-data-be/internal/pkg/logger"
	"field-data-be/internal/websocket"
	"field-data-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// FeedBroadcaster pushes messages to live feed subscribers. PublishLocal
// skips cross-instance fanout.
type FeedBroadcaster interface {
	Publish(topic, msgType string, data interface{})
	PublishLocal(topic, msgType string, data interface{})
}

// EventForwarder sends events off-process.
type EventForwarder interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService fans domain events out to the websocket feed and, when
// configured, to NATS.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	feed      FeedBroadcaster
	forwarder EventForwarder
	logger    logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	feed FeedBroadcaster,
	forwarder EventForwarder,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		feed:      feed,
		forwarder: forwarder,
		logger:    log,
	}
}

// Consume subscribes and processes messages until ctx ends.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
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

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var event events.BaseEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		// Ack invalid messages to prevent infinite redelivery
		msg.Ack()
		return
	}

	if cs.feed != nil {
		cs.feed.Publish(websocket.TopicFeed, event.Type, event)
	}

	if cs.forwarder != nil {
		if err := cs.forwarder.Publish(ctx, event); err != nil {
			cs.logger.Warn("ConsumerService", "Failed to forward event", map[string]interface{}{
				"type":  event.Type,
				"error": err.Error(),
			})
		}
	}

	msg.Ack()
}
