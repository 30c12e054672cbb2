package service

import (
	"context"
	"encoding/json"

	"pdf-annotator-be/internal/pkg/logger"
	"pdf-annotator-be/pkg/events"
	pktNats "pdf-annotator-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type IPublisherService interface {
	Publish(ctx context.Context, event events.Event) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
	nats      *pktNats.Publisher
	logger    logger.ILogger
}

// NewPublisherService publishes events on the in-process bus and, when a NATS
// publisher is given, forwards them there too.
func NewPublisherService(topicName string, publisher message.Publisher, natsPub *pktNats.Publisher, log logger.ILogger) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
		nats:      natsPub,
		logger:    log,
	}
}

func (p *publisherService) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(events.ToEnvelope(event))
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("type", event.EventType())
	if err := p.publisher.Publish(p.topicName, msg); err != nil {
		return err
	}

	if p.nats != nil {
		// NATS is auxiliary; the local bus already has the event
		if err := p.nats.Publish(ctx, event); err != nil {
			p.logger.Warn("PublisherService", "Failed to forward event to NATS", map[string]interface{}{
				"type":  event.EventType(),
				"error": err.Error(),
			})
		}
	}
	return nil
}
