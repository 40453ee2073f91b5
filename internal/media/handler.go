package media

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/elskow/portfolio/internal/api"
)

const (
	formFile   = "file"
	formSubdir = "subdir"

	// Room for multipart headers and the other form fields
	multipartOverhead = 1 << 20
)

type Handler struct {
	uploader *Uploader
	log      *zap.Logger
}

func NewHandler(uploader *Uploader, log *zap.Logger) *Handler {
	return &Handler{
		uploader: uploader,
		log:      log,
	}
}

type uploadResponse struct {
	Path              string             `json:"path"`
	Filename          string             `json:"filename"`
	Format            Format             `json:"format"`
	MIME              string             `json:"mime"`
	Width             int                `json:"width"`
	Height            int                `json:"height"`
	ExtensionMismatch *ExtensionMismatch `json:"extension_mismatch,omitempty"`
}

// RegisterRoutes mounts the upload routes. Callers are expected to wrap r
// with authentication.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post(api.AdminUploads, h.Upload)
	r.Delete(api.AdminUploads+"/*", h.Delete)
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.uploader.MaxBytes()
	if r.ContentLength > maxBytes+multipartOverhead {
		h.writeResult(w, failure(KindFileTooLarge, Info{MaxBytes: maxBytes}))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

	file, header, err := r.FormFile(formFile)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeResult(w, failure(KindFileTooLarge, Info{MaxBytes: maxBytes}))
			return
		}
		api.Failure(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	// One byte past the limit is enough for the size check to reject it
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		api.Failure(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	result := h.uploader.Save(r.Context(), data, header.Filename, r.FormValue(formSubdir))
	h.writeResult(w, result)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	storedPath := chi.URLParam(r, "*")

	err := h.uploader.Remove(r.Context(), storedPath)
	switch {
	case err == nil:
		api.Success(w, http.StatusOK, nil, "image deleted")
	case errors.Is(err, ErrObjectNotFound):
		api.Failure(w, http.StatusNotFound, "image not found")
	case errors.Is(err, ErrPathEscapesRoot):
		api.Failure(w, http.StatusBadRequest, "invalid path")
	default:
		h.log.Error("failed to delete image", zap.String("path", storedPath), zap.Error(err))
		api.Failure(w, http.StatusInternalServerError, "failed to delete image")
	}
}

func (h *Handler) writeResult(w http.ResponseWriter, result Result) {
	if !result.OK {
		api.FailureWithData(w, StatusCode(result.Kind), string(result.Kind), result.Info)
		return
	}

	api.Success(w, http.StatusCreated, uploadResponse{
		Path:              result.Path,
		Filename:          result.Filename,
		Format:            result.Format,
		MIME:              result.Info.MIME,
		Width:             result.Info.Width,
		Height:            result.Info.Height,
		ExtensionMismatch: result.Info.ExtensionMismatch,
	}, "image uploaded")
}

// StatusCode maps an image failure kind to its HTTP status.
func StatusCode(kind ErrorKind) int {
	switch kind {
	case KindFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindProcessingError, KindWriteFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
