package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/alanyoungcy/tradejournal/internal/domain"
)

const (
	csvContentType   = "text/csv"
	jsonlContentType = "application/x-ndjson"
	defaultFilename  = "statement.csv"
)

// Archiver keeps a copy of every uploaded statement next to the trades that
// were parsed from it, so an import can be audited or replayed later.
//
// Key schema:
//
//	imports/{user}/{yyyy}/{mm}/{importID}-{filename}         raw upload
//	imports/{user}/{yyyy}/{mm}/{importID}-{filename}.jsonl   parsed trades
type Archiver struct {
	writer domain.BlobWriter
}

// NewArchiver creates an Archiver that stores objects through writer.
func NewArchiver(writer domain.BlobWriter) *Archiver {
	return &Archiver{writer: writer}
}

// ArchiveUpload stores the raw statement and a JSONL snapshot of trades and
// returns the key of the raw object.
func (a *Archiver) ArchiveUpload(
	ctx context.Context,
	userID, importID, filename string,
	data []byte,
	trades []domain.Trade,
	at time.Time,
) (string, error) {
	key := UploadPath(userID, importID, filename, at)

	if err := a.writer.Put(ctx, key, bytes.NewReader(data), csvContentType); err != nil {
		return "", fmt.Errorf("s3blob: archive upload: %w", err)
	}

	buf, err := marshalJSONL(trades)
	if err != nil {
		return key, fmt.Errorf("s3blob: archive trades marshal: %w", err)
	}
	if err := a.writer.Put(ctx, key+".jsonl", bytes.NewReader(buf), jsonlContentType); err != nil {
		return key, fmt.Errorf("s3blob: archive trades upload: %w", err)
	}
	return key, nil
}

// UploadPath builds the object key for a raw upload, partitioned by the
// upload's year and month in UTC.
func UploadPath(userID, importID, filename string, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("imports/%s/%04d/%02d/%s-%s",
		safeSegment(userID), at.Year(), int(at.Month()), importID, safeFilename(filename))
}

// safeFilename drops any directory part of a client-supplied name.
func safeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" || name == ".." {
		return defaultFilename
	}
	return name
}

func safeSegment(s string) string {
	s = strings.NewReplacer("/", "_", `\`, "_", "..", "_").Replace(strings.TrimSpace(s))
	if s == "" {
		return "_"
	}
	return s
}

// marshalJSONL serialises records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
