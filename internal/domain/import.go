package domain

import "time"

// ImportResult summarises one statement upload.
type ImportResult struct {
	ImportID   string    `json:"import_id"`
	UserID     string    `json:"user_id"`
	Format     string    `json:"format"`
	Filename   string    `json:"filename,omitempty"`
	Count      int       `json:"count"`
	Closed     int       `json:"closed"`
	Open       int       `json:"open"`
	BlobPath   string    `json:"blob_path,omitempty"`
	ImportedAt time.Time `json:"imported_at"`
}
