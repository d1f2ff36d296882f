package fallback

import (
	"context"

	"scanpay/internal/models"
)

// Decoder statically decodes a barcode from image bytes. The service
// has no bundled software decoder; when none is configured, image
// submissions fail with an explicit error directing the operator to
// manual entry.
type Decoder interface {
	Decode(ctx context.Context, image []byte, mimeType string) (string, models.BarcodeFormat, error)
}
