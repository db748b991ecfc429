package domain

import (
	"context"
	"io"
	"time"
)

// StoredUpload is one statement kept in object storage under a user's
// upload prefix.
type StoredUpload struct {
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// BlobWriter uploads data to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// BlobReader reads statements back from object storage. Get reports a
// missing object as ErrNotFound.
type BlobReader interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]StoredUpload, error)
}
