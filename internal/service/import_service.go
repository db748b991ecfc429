package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/tradejournal/internal/domain"
	"github.com/alanyoungcy/tradejournal/internal/notify"
	"github.com/alanyoungcy/tradejournal/internal/statement"
)

// EventNotifier is the slice of notify.Notifier the services use.
type EventNotifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// UploadArchiver stores a raw statement next to the trades parsed from it and
// returns the key of the raw object.
type UploadArchiver interface {
	ArchiveUpload(ctx context.Context, userID, importID, filename string, data []byte, trades []domain.Trade, at time.Time) (string, error)
}

// ImportConfig holds the tunable parameters of statement imports.
type ImportConfig struct {
	DefaultFormat  statement.Format
	LockTTL        time.Duration
	MaxUploadBytes int64
	ArchiveUploads bool
}

// ImportDeps groups the collaborators of ImportService. Archiver, Blobs and
// Notifier are optional.
type ImportDeps struct {
	Trades   domain.TradeStore
	Audit    domain.AuditStore
	Cache    domain.MetricsCache
	Locks    domain.LockManager
	Archiver UploadArchiver
	Blobs    domain.BlobReader
	Notifier EventNotifier
}

// ImportService turns uploaded broker statements into stored journal trades.
// Imports for a single user are serialised with a distributed lock.
type ImportService struct {
	deps   ImportDeps
	cfg    ImportConfig
	logger *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewImportService creates an ImportService with all required dependencies.
func NewImportService(deps ImportDeps, cfg ImportConfig, logger *slog.Logger) *ImportService {
	if cfg.DefaultFormat == "" {
		cfg.DefaultFormat = statement.FormatAuto
	}
	return &ImportService{
		deps:   deps,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "import_service")),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// importRequest is one statement to import, from an upload or from storage.
type importRequest struct {
	userID   string
	format   string
	filename string
	data     []byte
	blobPath string
}

// Import parses data in the named format ("" uses the configured default),
// stores every trade for userID, and returns a summary. A statement without
// trades fails with domain.ErrNoTrades and stores nothing.
func (s *ImportService) Import(ctx context.Context, userID, format, filename string, data []byte) (domain.ImportResult, error) {
	return s.run(ctx, importRequest{
		userID:   userID,
		format:   format,
		filename: filename,
		data:     data,
	})
}

// ImportBlob imports a statement previously uploaded to object storage at
// blobPath. The object is not archived a second time.
func (s *ImportService) ImportBlob(ctx context.Context, userID, format, blobPath string) (domain.ImportResult, error) {
	if s.deps.Blobs == nil {
		return domain.ImportResult{}, fmt.Errorf("import_service: import blob %s: %w", blobPath, domain.ErrNoBlobStorage)
	}

	body, err := s.deps.Blobs.Get(ctx, blobPath)
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("import_service: get blob %s: %w", blobPath, err)
	}
	defer body.Close()

	data, err := readLimited(body, s.cfg.MaxUploadBytes)
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("import_service: read blob %s: %w", blobPath, err)
	}

	return s.run(ctx, importRequest{
		userID:   userID,
		format:   format,
		filename: path.Base(blobPath),
		data:     data,
		blobPath: blobPath,
	})
}

// ListUploads returns the raw statements archived for userID, newest first.
// Parsed-trade snapshots stored next to them are left out.
func (s *ImportService) ListUploads(ctx context.Context, userID string) ([]domain.StoredUpload, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("import_service: list uploads: %w", domain.ErrUnauthorized)
	}
	if s.deps.Blobs == nil {
		return nil, fmt.Errorf("import_service: list uploads: %w", domain.ErrNoBlobStorage)
	}

	objects, err := s.deps.Blobs.List(ctx, uploadPrefix(userID))
	if err != nil {
		return nil, fmt.Errorf("import_service: list uploads: %w", err)
	}

	uploads := make([]domain.StoredUpload, 0, len(objects))
	for _, obj := range objects {
		if strings.HasSuffix(obj.Path, snapshotSuffix) {
			continue
		}
		uploads = append(uploads, obj)
	}
	sort.SliceStable(uploads, func(i, j int) bool {
		return uploads[i].UploadedAt.After(uploads[j].UploadedAt)
	})
	return uploads, nil
}

func (s *ImportService) run(ctx context.Context, req importRequest) (domain.ImportResult, error) {
	if strings.TrimSpace(req.userID) == "" {
		return domain.ImportResult{}, fmt.Errorf("import_service: missing user id: %w", domain.ErrUnauthorized)
	}

	format := s.cfg.DefaultFormat
	if strings.TrimSpace(req.format) != "" {
		f, err := statement.ParseFormat(req.format)
		if err != nil {
			return domain.ImportResult{}, fmt.Errorf("import_service: %w", err)
		}
		format = f
	}

	unlock, err := s.deps.Locks.Acquire(ctx, importLockKey(req.userID), s.cfg.LockTTL)
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("import_service: lock user %s: %w", req.userID, err)
	}
	defer unlock()

	trades, used, err := statement.Parse(string(req.data), format)
	if err != nil {
		return domain.ImportResult{}, s.fail(ctx, req, fmt.Errorf("import_service: parse: %w", err))
	}
	if len(trades) == 0 {
		return domain.ImportResult{}, s.fail(ctx, req, fmt.Errorf("import_service: parse %s: %w", used, domain.ErrNoTrades))
	}

	res := domain.ImportResult{
		ImportID:   s.newID(),
		UserID:     req.userID,
		Format:     string(used),
		Filename:   req.filename,
		Count:      len(trades),
		BlobPath:   req.blobPath,
		ImportedAt: s.now().UTC(),
	}
	for i := range trades {
		trades[i].UserID = req.userID
		trades[i].ImportID = res.ImportID
		if trades[i].IsClosed() {
			res.Closed++
		} else {
			res.Open++
		}
	}

	if req.blobPath == "" && s.cfg.ArchiveUploads && s.deps.Archiver != nil {
		key, archErr := s.deps.Archiver.ArchiveUpload(ctx, req.userID, res.ImportID, req.filename, req.data, trades, res.ImportedAt)
		if archErr != nil {
			s.logger.WarnContext(ctx, "archive upload failed",
				slog.String("user_id", req.userID),
				slog.String("import_id", res.ImportID),
				slog.String("error", archErr.Error()),
			)
		} else {
			res.BlobPath = key
		}
	}

	if err := s.deps.Trades.InsertBatch(ctx, trades); err != nil {
		return domain.ImportResult{}, s.fail(ctx, req, fmt.Errorf("import_service: insert trades: %w", err))
	}

	if err := s.deps.Cache.Invalidate(ctx, req.userID); err != nil {
		s.logger.WarnContext(ctx, "metrics cache invalidation failed",
			slog.String("user_id", req.userID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.deps.Audit.Log(ctx, req.userID, "trades_imported", map[string]any{
		"import_id": res.ImportID,
		"format":    res.Format,
		"filename":  res.Filename,
		"count":     res.Count,
		"closed":    res.Closed,
		"open":      res.Open,
		"blob_path": res.BlobPath,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit log failed",
			slog.String("user_id", req.userID),
			slog.String("error", err.Error()),
		)
	}

	title, msg := notify.ImportCompleted(res)
	s.notify(ctx, notify.EventImportCompleted, title, msg)

	s.logger.InfoContext(ctx, "trades imported",
		slog.String("user_id", res.UserID),
		slog.String("import_id", res.ImportID),
		slog.String("format", res.Format),
		slog.Int("count", res.Count),
		slog.Int("closed", res.Closed),
		slog.Int("open", res.Open),
	)
	return res, nil
}

// fail reports a failed import through the notifier and returns err.
func (s *ImportService) fail(ctx context.Context, req importRequest, err error) error {
	s.logger.WarnContext(ctx, "import failed",
		slog.String("user_id", req.userID),
		slog.String("filename", req.filename),
		slog.String("error", err.Error()),
	)
	cause := err
	if errors.Is(err, domain.ErrNoTrades) {
		cause = domain.ErrNoTrades
	}
	title, msg := notify.ImportFailed(req.userID, req.filename, cause)
	s.notify(ctx, notify.EventImportFailed, title, msg)
	return err
}

func (s *ImportService) notify(ctx context.Context, event, title, msg string) {
	if s.deps.Notifier == nil {
		return
	}
	if err := s.deps.Notifier.Notify(ctx, event, title, msg); err != nil {
		s.logger.WarnContext(ctx, "notification failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// snapshotSuffix marks the JSONL trade snapshot written beside a raw upload.
const snapshotSuffix = ".jsonl"

func uploadPrefix(userID string) string {
	return "imports/" + userID + "/"
}

func importLockKey(userID string) string {
	return "import:" + userID
}

// readLimited reads r fully, failing with domain.ErrTooLarge past limit bytes. A
// non-positive limit disables the check.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: limit is %d bytes", domain.ErrTooLarge, limit)
	}
	return data, nil
}
