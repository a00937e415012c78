// Package ingestion_engine gathers the raw text a deck is generated from:
// scraped pages, user supplied text, uploaded documents and the encyclopedia
// fallback.
package ingestion_engine

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/Slidewise/internal/models"
)

const (
	maxConcurrentScrapes = 4
	fallbackArticles     = 3
	truncationMarker     = "..."
)

// PageScraper fetches one URL's readable content.
type PageScraper interface {
	Scrape(ctx context.Context, rawURL string) (*Page, error)
}

// Encyclopedia provides fallback context for a bare topic.
type Encyclopedia interface {
	ContentForQuery(ctx context.Context, query string, maxArticles int) (string, []Article, error)
}

// AggregateRequest lists the sources for one deck.
type AggregateRequest struct {
	Topic                string
	URLs                 []string
	UserText             string
	EncyclopediaFallback bool
}

// AggregateResult is the combined context and where it came from.
type AggregateResult struct {
	Text    string
	Sources []models.ContentSource
}

// Aggregator combines content sources into a single bounded context blob.
type Aggregator struct {
	scraper  PageScraper
	wiki     Encyclopedia
	maxChars int
	log      zerolog.Logger
}

func NewAggregator(scraper PageScraper, wiki Encyclopedia, maxChars int, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		scraper:  scraper,
		wiki:     wiki,
		maxChars: maxChars,
		log:      log.With().Str("component", "aggregator").Logger(),
	}
}

// Aggregate never fails: every source failure is logged and skipped, leaving
// at worst an empty Text for the generator to work from the topic alone.
func (a *Aggregator) Aggregate(ctx context.Context, req AggregateRequest) AggregateResult {
	var sources []models.ContentSource

	if len(req.URLs) > 0 {
		if src, ok := a.scrapeAll(ctx, req.URLs); ok {
			sources = append(sources, src)
		} else {
			a.log.Warn().Int("urls", len(req.URLs)).Msg("all URL scraping attempts failed")
		}
	}

	if text := strings.TrimSpace(req.UserText); text != "" {
		sources = append(sources, models.ContentSource{Kind: models.SourceUserText, Text: text})
	}

	if len(sources) == 0 && req.EncyclopediaFallback && a.wiki != nil {
		text, articles, err := a.wiki.ContentForQuery(ctx, req.Topic, fallbackArticles)
		if err != nil {
			a.log.Warn().Err(err).Str("topic", req.Topic).Msg("encyclopedia fallback failed, using topic only")
		} else if text != "" {
			titles := make([]string, 0, len(articles))
			for _, art := range articles {
				titles = append(titles, art.Title)
			}
			sources = append(sources, models.ContentSource{
				Kind:       models.SourceEncyclopedia,
				Text:       text,
				Provenance: models.Provenance{Articles: titles},
			})
		}
	}

	texts := make([]string, 0, len(sources))
	for _, s := range sources {
		if s.Text != "" {
			texts = append(texts, s.Text)
		}
	}
	combined := truncateContext(strings.Join(texts, "\n\n"), a.maxChars)
	a.log.Info().Int("sources", len(sources)).Int("chars", len([]rune(combined))).Msg("content aggregated")
	return AggregateResult{Text: combined, Sources: sources}
}

// scrapeAll fetches every URL concurrently; pages keep request order.
func (a *Aggregator) scrapeAll(ctx context.Context, urls []string) (models.ContentSource, bool) {
	pages := make([]*Page, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentScrapes)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			p, err := a.scraper.Scrape(gctx, u)
			if err != nil {
				a.log.Warn().Err(err).Str("url", u).Msg("scrape failed")
				return nil
			}
			pages[i] = p
			return nil
		})
	}
	_ = g.Wait()

	var blocks []string
	for _, p := range pages {
		if p != nil {
			blocks = append(blocks, p.Format())
		}
	}
	if len(blocks) == 0 {
		return models.ContentSource{}, false
	}
	return models.ContentSource{
		Kind: models.SourceScraped,
		Text: strings.Join(blocks, articleDivider),
		Provenance: models.Provenance{
			URLs:         urls,
			SuccessCount: len(blocks),
			TotalCount:   len(urls),
		},
	}, true
}

// truncateContext bounds s to max runes, marking the cut.
func truncateContext(s string, max int) string {
	if max <= 0 {
		return s
	}
	return truncateRunes(s, max)
}
