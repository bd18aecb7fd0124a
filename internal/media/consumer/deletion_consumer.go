package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/greenbuddy/greenbuddy-backend/internal/media"
	"github.com/greenbuddy/greenbuddy-backend/pkg/logger"
)

// DeletionConsumer drains media deletion events and destroys the hosted
// assets they reference.
type DeletionConsumer struct {
	destroyer    media.Destroyer
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

type processResult struct {
	ack  bool
	nack bool
}

// NewDeletionConsumer wires the dependencies required for media cleanup.
func NewDeletionConsumer(destroyer media.Destroyer, subscription *pubsub.Subscriber, logg *logger.Logger) (*DeletionConsumer, error) {
	if destroyer == nil {
		return nil, errors.New("destroyer is required")
	}
	if subscription == nil {
		return nil, errors.New("media deletion subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &DeletionConsumer{
		destroyer:    destroyer,
		subscription: subscription,
		logg:         logg,
	}, nil
}

// Run processes deletion events until the context is canceled.
func (c *DeletionConsumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (c *DeletionConsumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	logCtx := c.logg.WithField(ctx, "message_id", msg.ID)

	var event media.DeletionEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logg.Error(logCtx, "failed to decode deletion event", err)
		return processResult{ack: true}
	}
	if event.PublicID == "" {
		c.logg.Error(logCtx, "deletion event missing public id", fmt.Errorf("empty public_id"))
		return processResult{ack: true}
	}

	logCtx = c.logg.WithField(logCtx, "public_id", event.PublicID)

	if err := c.destroyer.Destroy(ctx, event.PublicID); err != nil {
		// Media host hiccups are retried via redelivery.
		c.logg.Error(logCtx, "failed to destroy media asset", err)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "media asset destroyed")
	return processResult{ack: true}
}
