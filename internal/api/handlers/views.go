package handlers

import (
	"fmt"
	"time"

	"github.com/markdave123-py/Slidewise/internal/models"
)

type slideView struct {
	Index           int                     `json:"index"`
	Title           string                  `json:"title"`
	Content         []string                `json:"content"`
	Bullets         []string                `json:"bullets"`
	SpeakerNotes    string                  `json:"speaker_notes"`
	Layout          string                  `json:"layout"`
	Chart           *models.ChartSpec       `json:"chart,omitempty"`
	SuggestedImages []models.ImageCandidate `json:"suggested_images,omitempty"`
	ImageURL        *string                 `json:"image_url"`
}

type deckView struct {
	ID          string      `json:"ppt_id"`
	Topic       string      `json:"topic"`
	Theme       string      `json:"theme"`
	Slides      []slideView `json:"slides"`
	GeneratedAt string      `json:"generated_at"`
	UpdatedAt   string      `json:"updated_at"`
	Version     int         `json:"version"`
	DownloadURL string      `json:"download_url"`
}

type contentSourceView struct {
	Type    models.SourceKind `json:"type"`
	Details []string          `json:"details"`
}

func downloadURL(id string) string {
	return fmt.Sprintf("/api/v1/download/%s", id)
}

func slideViews(d *models.Deck, suggestions map[int][]models.ImageCandidate) []slideView {
	out := make([]slideView, 0, len(d.Outline.Slides))
	for i, s := range d.Outline.Slides {
		bullets := s.Bullets
		if bullets == nil {
			bullets = []string{}
		}
		v := slideView{
			Index:           i,
			Title:           s.Title,
			Content:         bullets,
			Bullets:         bullets,
			SpeakerNotes:    s.SpeakerNotes,
			Layout:          "content",
			Chart:           s.Chart,
			SuggestedImages: suggestions[s.Number],
		}
		if s.Chart != nil {
			v.Layout = "chart"
		}
		if ref, ok := d.ImageRefs[s.Number]; ok {
			url := ref.URL
			v.ImageURL = &url
		}
		out = append(out, v)
	}
	return out
}

func newDeckView(d *models.Deck) deckView {
	return deckView{
		ID:          d.ID,
		Topic:       d.Topic,
		Theme:       d.Theme,
		Slides:      slideViews(d, nil),
		GeneratedAt: d.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   d.UpdatedAt.UTC().Format(time.RFC3339),
		Version:     d.Version,
		DownloadURL: downloadURL(d.ID),
	}
}

func sourceViews(sources []models.ContentSource) []contentSourceView {
	out := make([]contentSourceView, 0, len(sources))
	for _, s := range sources {
		details := s.Provenance.URLs
		switch {
		case len(s.Provenance.Articles) > 0:
			details = s.Provenance.Articles
		case s.Provenance.Filename != "":
			details = []string{s.Provenance.Filename}
		}
		if details == nil {
			details = []string{}
		}
		out = append(out, contentSourceView{Type: s.Kind, Details: details})
	}
	return out
}
