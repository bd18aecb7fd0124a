package media

import (
	"context"
	"io"

	"github.com/greenbuddy/greenbuddy-backend/pkg/storage/cloudinary"
)

// Uploader pushes image bytes to the media host.
type Uploader interface {
	Upload(ctx context.Context, filename string, content io.Reader) (*cloudinary.UploadResult, error)
}

// Destroyer removes a hosted asset by its public ID.
type Destroyer interface {
	Destroy(ctx context.Context, publicID string) error
}

// DeletionEvent is the message published for async media cleanup.
type DeletionEvent struct {
	PublicID string `json:"public_id"`
}
