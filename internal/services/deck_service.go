// Package services runs the deck pipeline and the edits made to stored decks.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/moby/locker"
	"github.com/rs/zerolog"

	"github.com/markdave123-py/Slidewise/internal/core"
	"github.com/markdave123-py/Slidewise/internal/core/imagery"
	"github.com/markdave123-py/Slidewise/internal/core/ingestion_engine"
	"github.com/markdave123-py/Slidewise/internal/core/outline"
	"github.com/markdave123-py/Slidewise/internal/core/render"
	"github.com/markdave123-py/Slidewise/internal/metrics"
	"github.com/markdave123-py/Slidewise/internal/models"
)

const (
	DefaultSlides  = 7
	MaxSlides      = 20
	MaxURLs        = 10
	DefaultTheme   = "modern"
	DefaultHistory = 50
	MaxHistory     = 100
)

var (
	// ErrNoBinary means a deck exists but has nothing to download.
	ErrNoBinary = fmt.Errorf("presentation file not available: %w", core.ErrNotFound)

	// ErrImageNotFound means the image id of a replacement is unknown.
	ErrImageNotFound = fmt.Errorf("image not found: %w", core.ErrNotFound)
)

// ContentAggregator gathers the context a deck is generated from.
type ContentAggregator interface {
	Aggregate(ctx context.Context, req ingestion_engine.AggregateRequest) ingestion_engine.AggregateResult
}

// OutlineGenerator produces the structured outline.
type OutlineGenerator interface {
	Generate(ctx context.Context, req outline.Request) (*models.Outline, error)
}

// ImageEnricher finds, stores and reloads slide images.
type ImageEnricher interface {
	Enrich(ctx context.Context, o models.Outline, ownerID, topic string) imagery.EnrichResult
	Replace(ctx context.Context, ownerID, topic string, slideNumber int, imageID string) (models.ImageRef, []byte, error)
	Load(ctx context.Context, refs models.ImageRefs) map[int][]byte
	Release(ctx context.Context, keys []string)
}

// GenerateInput is a validated-at-entry generation request.
type GenerateInput struct {
	OwnerID     string
	Topic       string
	URLs        []string
	SourceText  string
	Theme       string
	NumSlides   int
	BrandColors []string
	Provider    string
}

// GenerateResult is the stored deck plus what only exists at generation time.
type GenerateResult struct {
	Deck        *models.Deck
	Suggestions map[int][]models.ImageCandidate
	Sources     []models.ContentSource
	Fallback    bool
}

// SlideEdit holds the optional fields of a slide edit.
type SlideEdit struct {
	Title        *string
	Bullets      *[]string
	SpeakerNotes *string
}

func (e SlideEdit) empty() bool {
	return e.Title == nil && e.Bullets == nil && e.SpeakerNotes == nil
}

// DeckService owns the generation pipeline and every deck mutation.
type DeckService struct {
	store      core.DeckStore
	aggregator ContentAggregator
	generator  OutlineGenerator
	images     ImageEnricher
	locks      *locker.Locker
	log        zerolog.Logger
}

func NewDeckService(store core.DeckStore, aggregator ContentAggregator, generator OutlineGenerator, images ImageEnricher, log zerolog.Logger) *DeckService {
	return &DeckService{
		store:      store,
		aggregator: aggregator,
		generator:  generator,
		images:     images,
		locks:      locker.New(),
		log:        log.With().Str("component", "deck-service").Logger(),
	}
}

// lock serialises work on one name and returns the matching unlock, which is
// safe to call more than once.
func (s *DeckService) lock(name string) func() {
	s.locks.Lock(name)
	return sync.OnceFunc(func() { _ = s.locks.Unlock(name) })
}

// lockImages guards the image keys of one owner and topic. Keys are shared by
// every deck of that pair, so uploads and releases must not interleave. It
// is always taken after a deck lock, never before.
func (s *DeckService) lockImages(ownerID, topic string) func() {
	return s.lock("images:" + imagery.Scope(ownerID, topic))
}

func (in *GenerateInput) normalize() error {
	in.Topic = strings.TrimSpace(models.StripNUL(in.Topic))
	in.SourceText = models.StripNUL(in.SourceText)
	if in.Topic == "" {
		return fmt.Errorf("%w: Topic is required", core.ErrValidation)
	}
	if in.NumSlides == 0 {
		in.NumSlides = DefaultSlides
	}
	if in.NumSlides < 1 || in.NumSlides > MaxSlides {
		return fmt.Errorf("%w: num_slides must be between 1 and %d", core.ErrValidation, MaxSlides)
	}
	if len(in.URLs) > MaxURLs {
		return fmt.Errorf("%w: at most %d urls are allowed", core.ErrValidation, MaxURLs)
	}
	in.Theme = strings.ToLower(strings.TrimSpace(in.Theme))
	if in.Theme == "" {
		in.Theme = DefaultTheme
	}
	for _, c := range in.BrandColors {
		if _, ok := render.NormalizeHex(c); !ok {
			return fmt.Errorf("%w: brand color %q is not #RRGGBB", core.ErrValidation, c)
		}
	}
	if in.OwnerID == "" {
		in.OwnerID = models.AnonymousOwner
	}
	return nil
}

// Generate runs aggregate, outline, enrich, render and create. Only a missing
// AI provider or a store failure fails the request; everything else degrades.
func (s *DeckService) Generate(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	log := s.log.With().Str("topic", in.Topic).Str("owner", in.OwnerID).Logger()

	start := time.Now()
	agg := s.aggregator.Aggregate(ctx, ingestion_engine.AggregateRequest{
		Topic:                in.Topic,
		URLs:                 in.URLs,
		UserText:             in.SourceText,
		EncyclopediaFallback: true,
	})
	metrics.RecordStage("aggregate", time.Since(start).Seconds())

	start = time.Now()
	o, err := s.generator.Generate(ctx, outline.Request{
		Topic:    in.Topic,
		Context:  agg.Text,
		Slides:   in.NumSlides,
		Provider: in.Provider,
	})
	metrics.RecordStage("outline", time.Since(start).Seconds())
	fallback := false
	switch {
	case errors.Is(err, core.ErrNoAIProvider):
		return nil, err
	case err != nil:
		log.Warn().Err(err).Msg("outline generation failed; using fallback outline")
		metrics.OutlineFallbacks.WithLabelValues(fallbackReason(err)).Inc()
		o = outline.Fallback(in.Topic, in.NumSlides)
		fallback = true
	}

	o.StripNUL()

	unlockImages := s.lockImages(in.OwnerID, in.Topic)
	defer unlockImages()

	start = time.Now()
	enriched := s.images.Enrich(ctx, *o, in.OwnerID, in.Topic)
	metrics.RecordStage("enrich", time.Since(start).Seconds())

	start = time.Now()
	binary, err := render.Render(render.Input{
		Outline:     *o,
		Images:      renderImages(enriched.Images),
		Theme:       in.Theme,
		BrandColors: in.BrandColors,
	})
	metrics.RecordStage("render", time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("render deck: %w", err)
	}

	summaries := make([]models.ContentSourceSummary, 0, len(agg.Sources))
	for _, src := range agg.Sources {
		summaries = append(summaries, src.Summary())
	}
	deck := &models.Deck{
		OwnerID:        in.OwnerID,
		Topic:          in.Topic,
		Theme:          in.Theme,
		BrandColors:    in.BrandColors,
		Outline:        *o,
		ImageRefs:      enriched.Refs,
		RenderedBinary: binary,
		ContentSources: summaries,
	}
	id, err := s.store.Create(ctx, deck)
	unlockImages()
	if err != nil {
		return nil, fmt.Errorf("store deck: %w", err)
	}
	stored, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload deck: %w", err)
	}

	label := "generated"
	if fallback {
		label = "fallback"
	}
	metrics.DecksGenerated.WithLabelValues(label).Inc()
	log.Info().Str("ppt_id", id).Int("slides", len(o.Slides)).Int("images", len(enriched.Refs)).Bool("fallback", fallback).Msg("deck generated")

	return &GenerateResult{
		Deck:        stored,
		Suggestions: enriched.Suggestions,
		Sources:     agg.Sources,
		Fallback:    fallback,
	}, nil
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, core.ErrGenerationFailed):
		return "generation_failed"
	default:
		return "error"
	}
}

func renderImages(data map[int][]byte) map[int]render.Image {
	out := make(map[int]render.Image, len(data))
	for n, b := range data {
		out[n] = render.Image{Data: b}
	}
	return out
}

// Get returns a deck the caller may see. Decks owned by someone else look missing.
func (s *DeckService) Get(ctx context.Context, caller, id string) (*models.Deck, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.IsOwnedBy(caller) {
		return nil, fmt.Errorf("deck %s: %w", id, core.ErrNotFound)
	}
	return d, nil
}

// Download returns the attachment filename and the rendered deck. A deck
// whose binary no longer matches its content is re-rendered first.
func (s *DeckService) Download(ctx context.Context, caller, id string) (string, []byte, error) {
	d, err := s.Get(ctx, caller, id)
	if err != nil {
		return "", nil, err
	}
	if len(d.RenderedBinary) == 0 {
		return "", nil, ErrNoBinary
	}
	if d.IsStale() {
		s.log.Warn().Str("ppt_id", id).Msg("stored binary is stale; re-rendering")
		if d, err = s.rerender(ctx, caller, id); err != nil {
			return "", nil, err
		}
	}
	return DownloadFilename(d.Topic), d.RenderedBinary, nil
}

func (s *DeckService) rerender(ctx context.Context, caller, id string) (*models.Deck, error) {
	unlock := s.lock(id)
	defer unlock()

	d, err := s.Get(ctx, caller, id)
	if err != nil || !d.IsStale() {
		return d, err
	}
	binary, err := s.renderDeck(ctx, d.Outline, d.ImageRefs, nil, d.Theme, d.BrandColors)
	if err != nil {
		return nil, err
	}
	return s.store.Update(ctx, id, models.DeckPatch{RenderedBinary: binary, ExpectedVersion: d.Version})
}

// DownloadFilename keeps letters, digits, spaces, '-' and '_' of the topic and
// turns spaces into underscores.
func DownloadFilename(topic string) string {
	var b strings.Builder
	for _, r := range topic {
		if isASCIIAlnum(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	name := strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_")
	if name == "" {
		name = "presentation"
	}
	return name + ".pptx"
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// EditSlide applies a text edit to one slide, re-renders and stores both
// together so readers never see an edit without its render.
func (s *DeckService) EditSlide(ctx context.Context, caller, id string, index int, edit SlideEdit) (d *models.Deck, err error) {
	defer func() { metrics.RecordMutation("edit_slide", err) }()
	if edit.empty() {
		return nil, fmt.Errorf("%w: No updates provided", core.ErrValidation)
	}

	unlock := s.lock(id)
	defer unlock()

	cur, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(cur.Outline.Slides) {
		return nil, fmt.Errorf("slide %d of %d: %w", index, len(cur.Outline.Slides), core.ErrSlideIndex)
	}

	o := cur.Outline.Clone()
	slide := &o.Slides[index]
	if edit.Title != nil {
		slide.Title = *edit.Title
	}
	if edit.Bullets != nil {
		slide.Bullets = append([]string(nil), (*edit.Bullets)...)
	}
	if edit.SpeakerNotes != nil {
		slide.SpeakerNotes = *edit.SpeakerNotes
	}
	o.StripNUL()

	binary, err := s.renderDeck(ctx, o, cur.ImageRefs, nil, cur.Theme, cur.BrandColors)
	if err != nil {
		return nil, err
	}
	d, err = s.store.Update(ctx, id, models.DeckPatch{Outline: &o, RenderedBinary: binary, ExpectedVersion: cur.Version})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("ppt_id", id).Int("slide_index", index).Int("version", d.Version).Msg("slide edited")
	return d, nil
}

// ReplaceImage stores image imageID for one slide, re-renders and stores the
// new ref and binary together.
func (s *DeckService) ReplaceImage(ctx context.Context, caller, id string, index int, imageID string) (d *models.Deck, err error) {
	defer func() { metrics.RecordMutation("replace_image", err) }()
	imageID = strings.TrimSpace(imageID)
	if id == "" || imageID == "" {
		return nil, fmt.Errorf("%w: ppt_id, slide_index, and image_id are required", core.ErrValidation)
	}

	unlock := s.lock(id)
	defer unlock()

	cur, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(cur.Outline.Slides) {
		return nil, fmt.Errorf("slide %d of %d: %w", index, len(cur.Outline.Slides), core.ErrSlideIndex)
	}
	n := cur.Outline.Slides[index].Number

	unlockImages := s.lockImages(cur.OwnerID, cur.Topic)
	defer unlockImages()

	ref, data, err := s.images.Replace(ctx, cur.OwnerID, cur.Topic, n, imageID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrImageNotFound, imageID)
	}
	if err != nil {
		return nil, fmt.Errorf("replace image: %w", err)
	}
	refs := cur.ImageRefs.Clone()
	if refs == nil {
		refs = models.ImageRefs{}
	}
	refs[n] = ref

	binary, err := s.renderDeck(ctx, cur.Outline, refs, map[int][]byte{n: data}, cur.Theme, cur.BrandColors)
	if err != nil {
		return nil, err
	}
	d, err = s.store.Update(ctx, id, models.DeckPatch{ImageRefs: refs, RenderedBinary: binary, ExpectedVersion: cur.Version})
	if err != nil {
		return nil, err
	}
	// A different extension lands on a different key.
	if prev := cur.ImageRefs[n].Key; prev != "" && prev != ref.Key {
		s.releaseOrphans(ctx, cur.OwnerID, []string{prev})
	}
	s.log.Info().Str("ppt_id", id).Int("slide_index", index).Str("image_id", imageID).Msg("slide image replaced")
	return d, nil
}

// renderDeck loads stored images, lets preloaded bytes win, and renders.
func (s *DeckService) renderDeck(ctx context.Context, o models.Outline, refs models.ImageRefs, preloaded map[int][]byte, theme string, brand []string) ([]byte, error) {
	pending := models.ImageRefs{}
	for n, ref := range refs {
		if _, ok := preloaded[n]; !ok {
			pending[n] = ref
		}
	}
	images := s.images.Load(ctx, pending)
	if images == nil {
		images = map[int][]byte{}
	}
	for n, data := range preloaded {
		images[n] = data
	}

	start := time.Now()
	binary, err := render.Render(render.Input{Outline: o, Images: renderImages(images), Theme: theme, BrandColors: brand})
	metrics.RecordStage("render", time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("render deck: %w", err)
	}
	return binary, nil
}

// Delete removes a deck and the stored images no other deck of its owner uses.
func (s *DeckService) Delete(ctx context.Context, caller, id string) (err error) {
	defer func() { metrics.RecordMutation("delete", err) }()

	unlock := s.lock(id)
	defer unlock()

	d, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.releaseUnreferenced(ctx, []*models.Deck{d})
	s.log.Info().Str("ppt_id", id).Msg("deck deleted")
	return nil
}

// releaseUnreferenced deletes the images of removed decks unless a remaining
// deck of the same owner points at the same key.
func (s *DeckService) releaseUnreferenced(ctx context.Context, removed []*models.Deck) {
	type scope struct{ owner, prefix string }
	keys := map[scope][]string{}
	var order []scope
	for _, d := range removed {
		sc := scope{d.OwnerID, imagery.Scope(d.OwnerID, d.Topic)}
		for _, ref := range d.ImageRefs {
			if ref.Key == "" {
				continue
			}
			if _, ok := keys[sc]; !ok {
				order = append(order, sc)
			}
			keys[sc] = append(keys[sc], ref.Key)
		}
	}
	for _, sc := range order {
		unlock := s.lock("images:" + sc.prefix)
		s.releaseOrphans(ctx, sc.owner, keys[sc])
		unlock()
	}
}

// releaseOrphans deletes the keys no stored deck of owner references. The
// caller holds the images lock covering keys.
func (s *DeckService) releaseOrphans(ctx context.Context, owner string, keys []string) {
	remaining, err := s.store.ListByOwner(ctx, owner, 0)
	if err != nil {
		s.log.Warn().Err(err).Str("owner", owner).Msg("cannot list decks; keeping images")
		return
	}
	inUse := map[string]bool{}
	for _, d := range remaining {
		for _, ref := range d.ImageRefs {
			inUse[ref.Key] = true
		}
	}
	var orphans []string
	for _, k := range keys {
		if !inUse[k] {
			orphans = append(orphans, k)
			inUse[k] = true
		}
	}
	if len(orphans) > 0 {
		s.images.Release(ctx, orphans)
	}
}

// History lists the owner's decks, newest first.
func (s *DeckService) History(ctx context.Context, owner string, limit int) ([]models.DeckSummary, error) {
	if limit <= 0 {
		limit = DefaultHistory
	}
	if limit > MaxHistory {
		limit = MaxHistory
	}
	decks, err := s.store.ListByOwner(ctx, owner, limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.DeckSummary, 0, len(decks))
	for _, d := range decks {
		out = append(out, d.Summary())
	}
	return out, nil
}
