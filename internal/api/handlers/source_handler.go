package handlers

import (
	"errors"
	"io"
	"net/http"

	middleware "github.com/markdave123-py/Slidewise/internal/api/middlewares"
	"github.com/markdave123-py/Slidewise/internal/services"
)

// SourceHandler serves uploaded source documents and robots checks.
type SourceHandler struct {
	sources  *services.SourceService
	maxBytes int64
}

func NewSourceHandler(sources *services.SourceService, maxBytes int64) *SourceHandler {
	return &SourceHandler{sources: sources, maxBytes: maxBytes}
}

// Upload extracts the text of an uploaded PDF or DOCX.
func (h *SourceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file")
		return
	}

	res, err := h.sources.Upload(r.Context(), middleware.UserIDFromContext(r.Context()), header.Filename, data)
	if err != nil {
		writeServiceError(w, r, err, "Source not found", "Failed to process uploaded file")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type robotsResponse struct {
	URL     string `json:"url"`
	Allowed bool   `json:"allowed"`
	Message string `json:"message"`
}

func (h *SourceHandler) RobotsCheck(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	d, err := h.sources.RobotsCheck(r.Context(), target)
	if err != nil {
		writeServiceError(w, r, err, "URL not found", "Failed to check robots.txt")
		return
	}
	writeJSON(w, http.StatusOK, robotsResponse{URL: target, Allowed: d.Allowed, Message: d.Message})
}
