package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/greenbuddy/greenbuddy-backend/pkg/logger"
	"go.uber.org/multierr"
)

type eventPublisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
}

// Cleaner removes hosted assets after their owning rows are gone. When a
// publisher is configured the work is handed to the deletion worker;
// otherwise assets are destroyed inline. Failures are reported to the
// caller but must never roll back the originating request.
type Cleaner struct {
	publisher eventPublisher
	direct    Destroyer
	logg      *logger.Logger
}

// CleanerParams bundles the Cleaner dependencies.
type CleanerParams struct {
	Publisher eventPublisher
	Direct    Destroyer
	Logger    *logger.Logger
}

// NewCleaner builds a cleaner. At least one removal path is required.
func NewCleaner(params CleanerParams) (*Cleaner, error) {
	if params.Publisher == nil && params.Direct == nil {
		return nil, errors.New("a publisher or a direct destroyer is required")
	}
	return &Cleaner{
		publisher: params.Publisher,
		direct:    params.Direct,
		logg:      params.Logger,
	}, nil
}

// Cleanup removes every provided asset, aggregating failures so one bad
// handle does not stop the rest.
func (c *Cleaner) Cleanup(ctx context.Context, publicIDs []string) error {
	var errs error
	for _, publicID := range publicIDs {
		publicID = strings.TrimSpace(publicID)
		if publicID == "" {
			continue
		}
		if err := c.remove(ctx, publicID); err != nil {
			if c.logg != nil {
				logCtx := c.logg.WithField(ctx, "public_id", publicID)
				c.logg.Error(logCtx, "media cleanup failed", err)
			}
			errs = multierr.Append(errs, fmt.Errorf("cleanup %s: %w", publicID, err))
		}
	}
	return errs
}

func (c *Cleaner) remove(ctx context.Context, publicID string) error {
	if c.publisher != nil {
		data, err := json.Marshal(DeletionEvent{PublicID: publicID})
		if err != nil {
			return fmt.Errorf("encode deletion event: %w", err)
		}
		result := c.publisher.Publish(ctx, &pubsub.Message{Data: data})
		if _, err := result.Get(ctx); err != nil {
			return fmt.Errorf("publish deletion event: %w", err)
		}
		return nil
	}
	return c.direct.Destroy(ctx, publicID)
}
