// Package imagery finds, stores and reloads the pictures placed on slides.
package imagery

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/Slidewise/internal/core"
	"github.com/markdave123-py/Slidewise/internal/metrics"
	"github.com/markdave123-py/Slidewise/internal/models"
)

const (
	// CandidatesPerSlide is how many search hits are offered per slide.
	CandidatesPerSlide = 5

	maxConcurrentSlides = 3
	maxImageBytes       = 10 << 20
)

// EnrichResult holds what enrichment produced, keyed by slide number.
type EnrichResult struct {
	Refs        models.ImageRefs
	Images      map[int][]byte
	Suggestions map[int][]models.ImageCandidate
}

// Enricher attaches a stored image to each slide of an outline.
type Enricher struct {
	searcher       core.ImageSearcher
	store          core.ObjectClient
	http           *resty.Client
	storageTimeout time.Duration
	log            zerolog.Logger
}

// NewEnricher builds an enricher. A nil searcher disables enrichment.
func NewEnricher(searcher core.ImageSearcher, store core.ObjectClient, httpTimeout, storageTimeout time.Duration, log zerolog.Logger) *Enricher {
	return &Enricher{
		searcher:       searcher,
		store:          store,
		http:           newRestyClient(httpTimeout),
		storageTimeout: storageTimeout,
		log:            log.With().Str("component", "enricher").Logger(),
	}
}

// Enabled reports whether image search and storage are both available.
func (e *Enricher) Enabled() bool {
	return e.searcher != nil && e.store != nil && e.store.Enabled()
}

// Enrich searches, downloads and stores an image per slide. Failures only
// cost the affected slide its image.
func (e *Enricher) Enrich(ctx context.Context, outline models.Outline, ownerID, topic string) EnrichResult {
	res := EnrichResult{
		Refs:        models.ImageRefs{},
		Images:      map[int][]byte{},
		Suggestions: map[int][]models.ImageCandidate{},
	}
	if !e.Enabled() {
		return res
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSlides)
	for _, s := range outline.Slides {
		s := s
		g.Go(func() error {
			query := strings.TrimSpace(s.ImageKeywords)
			if query == "" {
				query = topic
			}
			log := e.log.With().Int("slide", s.Number).Str("query", query).Logger()

			found, err := e.searcher.Search(gctx, query, 1, CandidatesPerSlide)
			if err != nil {
				log.Warn().Err(err).Msg("image search failed")
				metrics.ImageEnrichment.WithLabelValues("search_failed").Inc()
				return nil
			}
			if len(found.Images) == 0 {
				metrics.ImageEnrichment.WithLabelValues("no_results").Inc()
				return nil
			}

			mu.Lock()
			res.Suggestions[s.Number] = found.Images
			mu.Unlock()

			ref, data, err := e.fetchAndStore(gctx, found.Images[0], ownerID, topic, s.Number)
			if err != nil {
				log.Warn().Err(err).Msg("image store failed")
				metrics.ImageEnrichment.WithLabelValues("store_failed").Inc()
				return nil
			}
			metrics.ImageEnrichment.WithLabelValues("stored").Inc()

			mu.Lock()
			res.Refs[s.Number] = ref
			res.Images[s.Number] = data
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	e.log.Info().Int("slides", len(outline.Slides)).Int("images", len(res.Refs)).Msg("enrichment done")
	return res
}

// Replace stores the image imageID for one slide at its deterministic key.
func (e *Enricher) Replace(ctx context.Context, ownerID, topic string, slideNumber int, imageID string) (models.ImageRef, []byte, error) {
	if !e.Enabled() {
		return models.ImageRef{}, nil, fmt.Errorf("%w: image search is not configured", core.ErrUpstreamUnavailable)
	}
	cand, err := e.searcher.Lookup(ctx, imageID)
	if err != nil {
		return models.ImageRef{}, nil, err
	}
	return e.fetchAndStore(ctx, *cand, ownerID, topic, slideNumber)
}

// Load fetches the stored bytes of every ref. Unreadable images are left out
// so the slide renders without one.
func (e *Enricher) Load(ctx context.Context, refs models.ImageRefs) map[int][]byte {
	out := make(map[int][]byte, len(refs))
	if e.store == nil {
		return out
	}
	for n, ref := range refs {
		data, err := e.withStorageTimeout(ctx, func(sctx context.Context) ([]byte, error) {
			return e.store.GetFile(sctx, ref.Key)
		})
		if err != nil {
			e.log.Warn().Err(err).Int("slide", n).Str("key", ref.Key).Msg("stored image unavailable")
			continue
		}
		out[n] = data
	}
	return out
}

// Release deletes stored images by key. Missing objects are ignored.
func (e *Enricher) Release(ctx context.Context, keys []string) {
	if e.store == nil {
		return
	}
	for _, key := range keys {
		_, err := e.withStorageTimeout(ctx, func(sctx context.Context) ([]byte, error) {
			return nil, e.store.DeleteFile(sctx, key)
		})
		if err != nil {
			e.log.Warn().Err(err).Str("key", key).Msg("image release failed")
		}
	}
}

// fetchAndStore downloads one candidate and uploads it for a slide.
func (e *Enricher) fetchAndStore(ctx context.Context, cand models.ImageCandidate, ownerID, topic string, slideNumber int) (models.ImageRef, []byte, error) {
	src := cand.WebformatURL
	if src == "" {
		src = cand.LargeURL
	}
	if src == "" {
		return models.ImageRef{}, nil, fmt.Errorf("image %s has no downloadable url", cand.ID)
	}
	data, mtype, err := e.download(ctx, src)
	if err != nil {
		return models.ImageRef{}, nil, err
	}

	key := SlideKey(ownerID, topic, slideNumber, strings.TrimPrefix(mtype.Extension(), "."))
	var url string
	_, err = e.withStorageTimeout(ctx, func(sctx context.Context) ([]byte, error) {
		var uerr error
		url, uerr = e.store.UploadFile(sctx, key, data, mtype.String())
		return nil, uerr
	})
	if err != nil {
		return models.ImageRef{}, nil, fmt.Errorf("upload %s: %w", key, err)
	}
	return models.ImageRef{URL: url, Key: key, ContentType: mtype.String(), SourceID: cand.ID}, data, nil
}

func (e *Enricher) download(ctx context.Context, src string) ([]byte, *mimetype.MIME, error) {
	resp, err := e.http.R().
		SetContext(ctx).
		SetHeader("Accept", "image/*").
		SetDoNotParseResponse(true).
		Get(src)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: download image: %v", core.ErrUpstreamUnavailable, err)
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.IsError() {
		return nil, nil, fmt.Errorf("%w: download image: status %d", core.ErrUpstreamUnavailable, resp.StatusCode())
	}
	data, err := io.ReadAll(io.LimitReader(body, maxImageBytes+1))
	if err != nil {
		return nil, nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, nil, fmt.Errorf("image larger than %d bytes", maxImageBytes)
	}
	mtype := mimetype.Detect(data)
	if !mtype.Is("image/jpeg") && !mtype.Is("image/png") && !mtype.Is("image/gif") {
		return nil, nil, fmt.Errorf("unsupported image type %s", mtype.String())
	}
	return data, mtype, nil
}

func (e *Enricher) withStorageTimeout(ctx context.Context, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	if e.storageTimeout <= 0 {
		return fn(ctx)
	}
	sctx, cancel := context.WithTimeout(ctx, e.storageTimeout)
	defer cancel()
	return fn(sctx)
}
