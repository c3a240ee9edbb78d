package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leotorrealba/Kratostech-Converter/internal/entities"
)

// multipartOverhead is the room left for boundaries and the other form
// fields on top of the file size limit. The body cap and the in-memory
// threshold share it, so the multipart reader never spools a part to disk
// and upload-<uuid> stays the only temp copy of the input.
const multipartOverhead = 1 << 20

type upload struct {
	Path string
	Name string
	Size int64
}

// spoolUpload parses the multipart body and copies the "file" part to a
// uniquely named file in the temp dir. The returned cleanup is never nil and
// must run once the request is done, whatever the outcome.
func (h *Handler) spoolUpload(w http.ResponseWriter, r *http.Request) (upload, func(), error) {
	up := upload{}
	limit := h.cfg.Upload.MaxFileSize()
	cleanup := func() {
		if r.MultipartForm != nil {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				h.logger.Warn("failed to remove multipart spool", zap.Error(err))
			}
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(limit + multipartOverhead); err != nil {
		return up, cleanup, h.multipartError(err)
	}

	file, fh, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return up, cleanup, entities.ErrNoFile
		}
		return up, cleanup, entities.NewError(entities.KindBadRequest, "An error occurred while uploading the file", err)
	}
	defer file.Close()

	if fh.Size > limit {
		return up, cleanup, h.sizeError(nil)
	}

	tmp, err := os.OpenFile(filepath.Join(h.tempDir(), "upload-"+uuid.NewString()), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return up, cleanup, entities.NewError(entities.KindInternal, "Failed to store uploaded file", err)
	}

	path := tmp.Name()
	reqID := middleware.GetReqID(r.Context())
	cleanup = func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.logger.Warn("failed to delete temp file", zap.String("request_id", reqID), zap.String("path", path), zap.Error(err))
		}
		if r.MultipartForm != nil {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				h.logger.Warn("failed to remove multipart spool", zap.String("request_id", reqID), zap.Error(err))
			}
		}
	}

	n, err := io.Copy(tmp, io.LimitReader(file, limit+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return up, cleanup, entities.NewError(entities.KindInternal, "Failed to store uploaded file", err)
	}
	if n > limit {
		return up, cleanup, h.sizeError(nil)
	}

	up.Path = path
	up.Name = fh.Filename
	up.Size = n
	return up, cleanup, nil
}

func (h *Handler) tempDir() string {
	if h.cfg.Upload.TempDir != "" {
		return h.cfg.Upload.TempDir
	}
	return os.TempDir()
}

func (h *Handler) sizeError(err error) error {
	return entities.NewError(entities.KindSizeLimitExceeded,
		fmt.Sprintf("File exceeds the maximum allowed size of %d MB", h.cfg.Upload.MaxFileSizeMB), err)
}

func (h *Handler) multipartError(err error) error {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr), strings.Contains(strings.ToLower(err.Error()), "too large"):
		return h.sizeError(err)
	case errors.Is(err, http.ErrNotMultipart):
		return entities.NewError(entities.KindBadRequest, "Invalid content type, expected multipart/form-data", err)
	default:
		return entities.NewError(entities.KindBadRequest, "Malformed multipart body", err)
	}
}
