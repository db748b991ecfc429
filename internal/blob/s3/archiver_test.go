package s3blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/tradejournal/internal/domain"
)

type memWriter struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemWriter() *memWriter {
	return &memWriter{objects: map[string][]byte{}, types: map[string]string{}}
}

func (w *memWriter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	if w.err != nil {
		return w.err
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.objects[path] = b
	w.types[path] = contentType
	return nil
}

func TestUploadPath(t *testing.T) {
	at := time.Date(2025, 3, 9, 23, 0, 0, 0, time.FixedZone("X", -5*3600))

	assert.Equal(t, "imports/u1/2025/03/imp-1-trades.csv", UploadPath("u1", "imp-1", "trades.csv", at.Add(-time.Hour)))
	assert.Equal(t, "imports/u1/2025/03/imp-1-trades.csv", UploadPath("u1", "imp-1", "../../etc/trades.csv", at.Add(-time.Hour)))
	assert.Equal(t, "imports/u1/2025/03/imp-1-statement.csv", UploadPath("u1", "imp-1", "", at.Add(-time.Hour)))
	assert.Equal(t, "imports/a_b/2025/03/imp-1-x.csv", UploadPath("a/b", "imp-1", `C:\docs\x.csv`, at.Add(-time.Hour)))
}

func TestUploadPath_UsesUTCMonth(t *testing.T) {
	// 23:30 on Mar 31 at UTC-5 is already April in UTC.
	at := time.Date(2025, 3, 31, 23, 30, 0, 0, time.FixedZone("X", -5*3600))
	assert.True(t, strings.HasPrefix(UploadPath("u", "i", "f.csv", at), "imports/u/2025/04/"))
}

func TestArchiveUpload(t *testing.T) {
	w := newMemWriter()
	a := NewArchiver(w)
	pnl := 12.5
	trades := []domain.Trade{
		{Symbol: "AAPL", ProfitLoss: &pnl},
		{Symbol: "<MSFT>"},
	}

	key, err := a.ArchiveUpload(context.Background(), "u1", "imp", "s.csv", []byte("raw"), trades,
		time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "imports/u1/2025/01/imp-s.csv", key)
	assert.Equal(t, []byte("raw"), w.objects[key])
	assert.Equal(t, "text/csv", w.types[key])

	lines := bytes.Split(bytes.TrimSpace(w.objects[key+".jsonl"]), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), `"symbol":"AAPL"`)
	assert.Contains(t, string(lines[1]), `"symbol":"<MSFT>"`, "HTML escaping is off")
}

func TestArchiveUpload_WriterError(t *testing.T) {
	w := newMemWriter()
	w.err = errors.New("boom")

	_, err := NewArchiver(w).ArchiveUpload(context.Background(), "u", "i", "f.csv", nil, nil, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3blob: archive upload")
}

func TestNormaliseEndpoint(t *testing.T) {
	assert.Equal(t, "https://s3.example.com", normaliseEndpoint("https://s3.example.com", false))
	assert.Equal(t, "http://minio:9000", normaliseEndpoint("minio:9000", false))
	assert.Equal(t, "https://minio:9000", normaliseEndpoint("minio:9000", true))
}
