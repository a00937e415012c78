package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// AnonymousOwner owns decks generated without a bearer token.
const AnonymousOwner = "anonymous"

// SourceKind tags where a piece of context text came from.
type SourceKind string

const (
	SourceScraped      SourceKind = "scraped"
	SourceUserText     SourceKind = "user_text"
	SourceEncyclopedia SourceKind = "encyclopedia"
	SourceUpload       SourceKind = "upload"
)

// Provenance records what produced a ContentSource.
type Provenance struct {
	URLs         []string `json:"urls,omitempty"`
	Articles     []string `json:"articles,omitempty"`
	Filename     string   `json:"filename,omitempty"`
	SuccessCount int      `json:"success_count,omitempty"`
	TotalCount   int      `json:"total_count,omitempty"`
}

// ContentSource is one block of raw context fed to the outline generator.
type ContentSource struct {
	Kind       SourceKind `json:"kind"`
	Text       string     `json:"-"`
	Provenance Provenance `json:"provenance"`
}

// Summary drops the text and keeps what a client needs to show provenance.
func (s ContentSource) Summary() ContentSourceSummary {
	return ContentSourceSummary{Type: s.Kind, Provenance: s.Provenance, Chars: len([]rune(s.Text))}
}

// ContentSourceSummary is what a Deck keeps about its sources.
type ContentSourceSummary struct {
	Type       SourceKind `json:"type"`
	Provenance Provenance `json:"provenance"`
	Chars      int        `json:"chars"`
}

// Chart types understood by the renderer.
const (
	ChartBar    = "bar"
	ChartColumn = "column"
	ChartLine   = "line"
	ChartPie    = "pie"
)

// ChartSpec is structured data for a chart slide.
type ChartSpec struct {
	Type       string    `json:"type"`
	SeriesName string    `json:"series_name,omitempty"`
	Categories []string  `json:"categories"`
	Values     []float64 `json:"values"`
}

// SlideOutline is one content slide. Number is 1-based and equals index+1.
type SlideOutline struct {
	Number        int        `json:"slide_number"`
	Title         string     `json:"title"`
	Bullets       []string   `json:"bullets"`
	SpeakerNotes  string     `json:"speaker_notes,omitempty"`
	ImageKeywords string     `json:"image_keywords,omitempty"`
	Chart         *ChartSpec `json:"chart,omitempty"`
}

// Outline is the structured form of a deck before rendering.
type Outline struct {
	Title    string         `json:"title"`
	Subtitle string         `json:"subtitle,omitempty"`
	Slides   []SlideOutline `json:"slides"`
}

// Renumber restores the dense 1..N numbering.
func (o *Outline) Renumber() {
	for i := range o.Slides {
		o.Slides[i].Number = i + 1
	}
}

// StripNUL removes NUL characters, which Postgres text and jsonb reject.
func StripNUL(s string) string {
	if strings.IndexByte(s, 0) < 0 {
		return s
	}
	return strings.ReplaceAll(s, "\x00", "")
}

// StripNUL removes NUL characters from every text field in place.
func (o *Outline) StripNUL() {
	o.Title = StripNUL(o.Title)
	o.Subtitle = StripNUL(o.Subtitle)
	for i := range o.Slides {
		s := &o.Slides[i]
		s.Title = StripNUL(s.Title)
		s.SpeakerNotes = StripNUL(s.SpeakerNotes)
		s.ImageKeywords = StripNUL(s.ImageKeywords)
		for j := range s.Bullets {
			s.Bullets[j] = StripNUL(s.Bullets[j])
		}
		if s.Chart != nil {
			s.Chart.SeriesName = StripNUL(s.Chart.SeriesName)
			for j := range s.Chart.Categories {
				s.Chart.Categories[j] = StripNUL(s.Chart.Categories[j])
			}
		}
	}
}

// Clone returns a deep copy.
func (o Outline) Clone() Outline {
	out := o
	out.Slides = make([]SlideOutline, len(o.Slides))
	for i, s := range o.Slides {
		s.Bullets = append([]string(nil), s.Bullets...)
		if s.Chart != nil {
			c := *s.Chart
			c.Categories = append([]string(nil), c.Categories...)
			c.Values = append([]float64(nil), c.Values...)
			s.Chart = &c
		}
		out.Slides[i] = s
	}
	return out
}

// ImageCandidate is one image-search hit. Not persisted.
type ImageCandidate struct {
	ID           string `json:"id"`
	PreviewURL   string `json:"previewURL"`
	WebformatURL string `json:"webformatURL"`
	LargeURL     string `json:"largeImageURL"`
	Tags         string `json:"tags"`
	User         string `json:"user"`
	PageURL      string `json:"pageURL"`
}

// FullURL is the best resolution available for download.
func (c ImageCandidate) FullURL() string {
	if c.LargeURL != "" {
		return c.LargeURL
	}
	return c.WebformatURL
}

// ImageRef points at a persisted slide image.
type ImageRef struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	SourceID    string `json:"source_id,omitempty"`
}

// ImageRefs maps slide number to its image.
type ImageRefs map[int]ImageRef

func (r ImageRefs) Clone() ImageRefs {
	if r == nil {
		return nil
	}
	out := make(ImageRefs, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Deck is a generated presentation and all of its mutable state.
type Deck struct {
	ID                string                 `json:"ppt_id"`
	OwnerID           string                 `json:"owner_id"`
	Topic             string                 `json:"topic"`
	Theme             string                 `json:"theme"`
	BrandColors       []string               `json:"brand_colors,omitempty"`
	Outline           Outline                `json:"outline"`
	ImageRefs         ImageRefs              `json:"image_refs"`
	RenderedBinary    []byte                 `json:"-"`
	RenderFingerprint string                 `json:"render_fingerprint"`
	ContentSources    []ContentSourceSummary `json:"content_sources"`
	Version           int                    `json:"version"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// Clone returns a deep copy so callers can't mutate store-owned state.
func (d *Deck) Clone() *Deck {
	if d == nil {
		return nil
	}
	out := *d
	out.BrandColors = append([]string(nil), d.BrandColors...)
	out.Outline = d.Outline.Clone()
	out.ImageRefs = d.ImageRefs.Clone()
	out.RenderedBinary = append([]byte(nil), d.RenderedBinary...)
	out.ContentSources = append([]ContentSourceSummary(nil), d.ContentSources...)
	return &out
}

// ContentFingerprint hashes every input the renderer reads.
func (d *Deck) ContentFingerprint() string {
	return Fingerprint(d.Outline, d.ImageRefs, d.Theme, d.BrandColors)
}

// IsStale reports whether the stored binary was rendered from different content.
func (d *Deck) IsStale() bool {
	return d.RenderFingerprint != d.ContentFingerprint()
}

// Fingerprint is the render-input hash shared by decks and patches.
func Fingerprint(o Outline, refs ImageRefs, theme string, brand []string) string {
	// Clone maps empty slices to nil so storage round trips hash the same.
	o = o.Clone()
	if len(refs) == 0 {
		refs = nil
	}
	if len(brand) == 0 {
		brand = nil
	}
	payload := struct {
		Outline Outline   `json:"o"`
		Refs    ImageRefs `json:"r"`
		Theme   string    `json:"t"`
		Brand   []string  `json:"b"`
	}{o, refs, theme, brand}
	// map keys are sorted by encoding/json, so this is stable
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// IsOwnedBy reports whether caller may see and mutate the deck.
// Anonymous decks are reachable by anyone who holds the id.
func (d *Deck) IsOwnedBy(caller string) bool {
	return d.OwnerID == AnonymousOwner || d.OwnerID == caller
}

// DeckPatch carries the fields of an update. Nil fields are left alone.
type DeckPatch struct {
	Outline        *Outline
	ImageRefs      ImageRefs
	Theme          *string
	RenderedBinary []byte
	// ExpectedVersion guards against lost updates; zero skips the check.
	ExpectedVersion int
}

// ChangesContent reports whether the patch touches a render input.
func (p DeckPatch) ChangesContent() bool {
	return p.Outline != nil || p.ImageRefs != nil || p.Theme != nil
}

// DeckSummary is a row in a user's history.
type DeckSummary struct {
	ID           string    `json:"ppt_id"`
	Topic        string    `json:"topic"`
	Theme        string    `json:"theme"`
	SlideCount   int       `json:"slide_count"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary builds the history row for a deck.
func (d *Deck) Summary() DeckSummary {
	s := DeckSummary{
		ID:         d.ID,
		Topic:      d.Topic,
		Theme:      d.Theme,
		SlideCount: len(d.Outline.Slides),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	for n := 1; n <= len(d.Outline.Slides); n++ {
		if ref, ok := d.ImageRefs[n]; ok {
			s.ThumbnailURL = ref.URL
			break
		}
	}
	return s
}
