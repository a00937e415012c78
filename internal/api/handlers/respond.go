package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/markdave123-py/Slidewise/internal/core"
	"github.com/markdave123-py/Slidewise/internal/services"
)

// errorBody is the envelope every failed request gets.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Code: status})
}

// Unauthorized is the 401 writer used by the auth middleware.
func Unauthorized(w http.ResponseWriter, _ *http.Request, msg string) {
	writeError(w, http.StatusUnauthorized, msg)
}

// writeServiceError maps err to the envelope. notFound names the missing
// resource; internal is the generic text for anything unexpected, whose
// detail is only logged.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound, internal string) {
	switch {
	case errors.Is(err, core.ErrSlideIndex):
		writeError(w, http.StatusBadRequest, "Slide index out of range")
	case errors.Is(err, core.ErrValidation):
		writeError(w, http.StatusBadRequest, detail(err, core.ErrValidation))
	case errors.Is(err, services.ErrNoBinary):
		writeError(w, http.StatusNotFound, "Presentation file not available")
	case errors.Is(err, services.ErrImageNotFound):
		writeError(w, http.StatusNotFound, "Image not found")
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, core.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, core.ErrVersionConflict):
		writeError(w, http.StatusConflict, "Presentation was modified concurrently, please retry")
	case errors.Is(err, core.ErrNoAIProvider):
		hlog.FromRequest(r).Error().Err(err).Msg("no AI provider configured")
		writeError(w, http.StatusInternalServerError, "No AI API key configured (GEMINI_API_KEY, GROQ_API_KEY, OPENAI_API_KEY or CLAUDE_API_KEY required)")
	case errors.Is(err, services.ErrExtraction):
		writeError(w, http.StatusInternalServerError, "Failed to extract text from document")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg(internal)
		writeError(w, http.StatusInternalServerError, internal)
	}
}

// detail is the caller-facing part of an error wrapped as "...sentinel: detail".
func detail(err error, sentinel error) string {
	msg := err.Error()
	marker := sentinel.Error() + ": "
	if i := strings.Index(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return sentinel.Error()
}
