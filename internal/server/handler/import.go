package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/alanyoungcy/tradejournal/internal/domain"
)

// multipartOverhead is the allowance for boundaries and part headers on top of
// the file size limit.
const multipartOverhead = 64 << 10

// ImportService defines the methods that the import handler requires from the
// service layer.
type ImportService interface {
	Import(ctx context.Context, userID, format, filename string, data []byte) (domain.ImportResult, error)
	ImportBlob(ctx context.Context, userID, format, path string) (domain.ImportResult, error)
	ListUploads(ctx context.Context, userID string) ([]domain.StoredUpload, error)
}

// ImportHandler accepts broker statement uploads.
type ImportHandler struct {
	imports  ImportService
	maxBytes int64
	logger   *slog.Logger
}

// NewImportHandler creates an ImportHandler that rejects statements larger
// than maxBytes.
func NewImportHandler(imports ImportService, maxBytes int64, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		imports:  imports,
		maxBytes: maxBytes,
		logger:   logHandler(logger, "imports"),
	}
}

// Upload imports a statement sent either as the multipart field "file" or as
// the raw request body.
// POST /api/imports?format=auto|generic|ibkr|ibkr_statement&filename=...
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	filename, data, err := h.readStatement(w, r)
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) || errors.Is(err, domain.ErrTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, domain.ErrTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid upload: "+err.Error())
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty upload")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" && r.MultipartForm != nil {
		format = r.FormValue("format")
	}

	res, err := h.imports.Import(r.Context(), user, format, filename, data)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to import statement")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *ImportHandler) readStatement(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType != "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return "", nil, err
		}
		return r.URL.Query().Get("filename"), data, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		return "", nil, fmt.Errorf("parse multipart form: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("multipart field \"file\": %w", err)
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		return "", nil, fmt.Errorf("%s: %w", header.Filename, domain.ErrTooLarge)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, data, nil
}

type importBlobRequest struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

// ImportBlob imports a statement already stored in object storage. Paths are
// confined to the caller's own upload prefix.
// POST /api/imports/blob
func (h *ImportHandler) ImportBlob(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var req importBlobRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.Path = strings.TrimSpace(req.Path)
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	if !strings.HasPrefix(req.Path, "imports/"+user+"/") || strings.Contains(req.Path, "..") {
		writeError(w, http.StatusForbidden, "path is outside the caller's uploads")
		return
	}

	res, err := h.imports.ImportBlob(r.Context(), user, req.Format, req.Path)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to import stored statement")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type uploadsResponse struct {
	Uploads []domain.StoredUpload `json:"uploads"`
}

// ListUploads returns the caller's archived statements, newest first. Any
// listed path can be passed to ImportBlob.
// GET /api/imports/uploads
func (h *ImportHandler) ListUploads(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	uploads, err := h.imports.ListUploads(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to list uploads")
		return
	}
	if uploads == nil {
		uploads = []domain.StoredUpload{}
	}
	writeJSON(w, http.StatusOK, uploadsResponse{Uploads: uploads})
}
