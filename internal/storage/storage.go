package storage

import (
	"context"
	"io"
)

type UploadResult struct {
	URL      string
	PublicID string
}

// ImageStore holds product images. Destroy is best-effort for callers
// replacing an image; a stale asset is preferable to a failed update.
type ImageStore interface {
	Upload(ctx context.Context, file io.Reader, folder string) (*UploadResult, error)
	Destroy(ctx context.Context, publicID string) error
}
