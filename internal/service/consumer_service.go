// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"log"

	"ai-storycraft-be/internal/websocket"
	"ai-storycraft-be/pkg/events"
	"ai-storycraft-be/pkg/generation"
	natsbus "ai-storycraft-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService relays generation job updates from the in-process bus to
// the user's open websocket connections and onto the NATS event stream.
type consumerService struct {
	pubSub  *gochannel.GoChannel
	hub     *websocket.Hub
	natsPub *natsbus.Publisher // nil when NATS is unavailable
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	hub *websocket.Hub,
	natsPub *natsbus.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:  pubSub,
		hub:     hub,
		natsPub: natsPub,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, generation.JobsTopic)
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
	var update generation.Update
	if err := json.Unmarshal(msg.Payload, &update); err != nil {
		log.Printf("[ERROR] Failed to unmarshal job update: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	// 1. Push to the user's open panel connections
	if userId, err := uuid.Parse(update.UserID); err == nil {
		cs.hub.Send(userId, "generation_update", update)
	}

	// 2. Fan out to the NATS stream for other services
	if cs.natsPub != nil {
		detail := map[string]interface{}{"kind": update.Kind}
		if update.Result != nil {
			detail["result_url"] = update.Result.URL
		}
		if update.Error != "" {
			detail["error"] = update.Error
		}
		event := events.NewGenerationEvent(update.Status, update.JobID.String(), update.SessionID, update.UserID, detail)
		if err := cs.natsPub.Publish(ctx, event); err != nil {
			log.Printf("[WARN] Failed to publish %s to NATS: %v", event.EventType(), err)
		}
	}

	msg.Ack()
}
