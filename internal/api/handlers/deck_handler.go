package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	middleware "github.com/markdave123-py/Slidewise/internal/api/middlewares"
	"github.com/markdave123-py/Slidewise/internal/core/render"
	"github.com/markdave123-py/Slidewise/internal/services"
)

type DeckHandler struct {
	decks *services.DeckService
}

func NewDeckHandler(decks *services.DeckService) *DeckHandler {
	return &DeckHandler{decks: decks}
}

func (h *DeckHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.decks.Get(r.Context(), middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "Presentation not found", "Failed to retrieve presentation")
		return
	}
	writeJSON(w, http.StatusOK, newDeckView(d))
}

func (h *DeckHandler) Download(w http.ResponseWriter, r *http.Request) {
	name, data, err := h.decks.Download(r.Context(), middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "Presentation not found", "Failed to download presentation")
		return
	}
	w.Header().Set("Content-Type", render.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *DeckHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.decks.Delete(r.Context(), middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err, "Presentation not found", "Failed to delete presentation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Presentation deleted"})
}

type editSlideRequest struct {
	Title        *string   `json:"title"`
	Bullets      *[]string `json:"bullets"`
	Content      *[]string `json:"content"`
	SpeakerNotes *string   `json:"speaker_notes"`
}

func (h *DeckHandler) EditSlide(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Slide index must be an integer")
		return
	}
	var req editSlideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No updates provided")
		return
	}
	bullets := req.Bullets
	if bullets == nil {
		bullets = req.Content
	}

	d, err := h.decks.EditSlide(r.Context(), middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "id"), index, services.SlideEdit{
		Title:        req.Title,
		Bullets:      bullets,
		SpeakerNotes: req.SpeakerNotes,
	})
	if err != nil {
		writeServiceError(w, r, err, "Presentation not found", "Failed to update slide")
		return
	}
	writeJSON(w, http.StatusOK, newDeckView(d))
}

type replaceImageRequest struct {
	PptID          string     `json:"ppt_id"`
	SlideIndex     *int       `json:"slide_index"`
	ImageID        flexString `json:"image_id"`
	PixabayImageID flexString `json:"pixabay_image_id"`
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (h *DeckHandler) ReplaceImage(w http.ResponseWriter, r *http.Request) {
	var req replaceImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}
	imageID := string(req.ImageID)
	if imageID == "" {
		imageID = string(req.PixabayImageID)
	}
	if req.PptID == "" || req.SlideIndex == nil || imageID == "" {
		writeError(w, http.StatusBadRequest, "ppt_id, slide_index, and image_id are required")
		return
	}

	d, err := h.decks.ReplaceImage(r.Context(), middleware.UserIDFromContext(r.Context()), req.PptID, *req.SlideIndex, imageID)
	if err != nil {
		writeServiceError(w, r, err, "Presentation not found", "Failed to replace image")
		return
	}
	writeJSON(w, http.StatusOK, newDeckView(d))
}

func (h *DeckHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	rows, err := h.decks.History(r.Context(), middleware.UserIDFromContext(r.Context()), limit)
	if err != nil {
		writeServiceError(w, r, err, "Presentation not found", "Failed to fetch presentation history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"presentations": rows, "count": len(rows)})
}
