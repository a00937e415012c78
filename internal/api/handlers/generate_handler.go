package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	middleware "github.com/markdave123-py/Slidewise/internal/api/middlewares"
	"github.com/markdave123-py/Slidewise/internal/services"
)

type GenerateHandler struct {
	decks *services.DeckService
}

func NewGenerateHandler(decks *services.DeckService) *GenerateHandler {
	return &GenerateHandler{decks: decks}
}

type generateRequest struct {
	Topic       string   `json:"topic"`
	URLs        []string `json:"urls"`
	SourceText  string   `json:"source_text"`
	Theme       string   `json:"theme"`
	NumSlides   *int     `json:"num_slides"`
	SlideCount  *int     `json:"slide_count"`
	BrandColors []string `json:"brand_colors"`
	AIProvider  string   `json:"ai_provider"`
}

type generateResponse struct {
	ID             string              `json:"ppt_id"`
	Slides         []slideView         `json:"slides"`
	DownloadURL    string              `json:"download_url"`
	ContentSources []contentSourceView `json:"content_sources"`
	Fallback       bool                `json:"fallback_outline"`
}

// Generate runs the full pipeline for one topic.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "No data provided")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := services.GenerateInput{
		OwnerID:     middleware.UserIDFromContext(r.Context()),
		Topic:       req.Topic,
		URLs:        req.URLs,
		SourceText:  req.SourceText,
		Theme:       req.Theme,
		BrandColors: req.BrandColors,
		Provider:    req.AIProvider,
	}
	switch {
	case req.NumSlides != nil:
		in.NumSlides = *req.NumSlides
	case req.SlideCount != nil:
		in.NumSlides = *req.SlideCount
	}
	if in.NumSlides == 0 && (req.NumSlides != nil || req.SlideCount != nil) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("num_slides must be between 1 and %d", services.MaxSlides))
		return
	}

	res, err := h.decks.Generate(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err, "Presentation not found", "Failed to generate presentation")
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		ID:             res.Deck.ID,
		Slides:         slideViews(res.Deck, res.Suggestions),
		DownloadURL:    downloadURL(res.Deck.ID),
		ContentSources: sourceViews(res.Sources),
		Fallback:       res.Fallback,
	})
}
