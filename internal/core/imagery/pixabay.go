package imagery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/markdave123-py/Slidewise/internal/core"
	"github.com/markdave123-py/Slidewise/internal/core/cache"
	"github.com/markdave123-py/Slidewise/internal/models"
)

const (
	minPerPage = 3
	maxPerPage = 200
)

var _ core.ImageSearcher = (*PixabayClient)(nil)

// PixabayConfig configures the Pixabay search client.
type PixabayConfig struct {
	APIKey   string
	BaseURL  string
	RPS      float64
	Timeout  time.Duration
	CacheTTL time.Duration
}

// PixabayClient searches Pixabay for horizontal, safe-search photos.
type PixabayClient struct {
	http     *resty.Client
	apiKey   string
	baseURL  string
	limiter  *rate.Limiter
	cache    cache.Client
	cacheTTL time.Duration
	log      zerolog.Logger
}

// NewPixabayClient builds a client. cacheClient may be nil.
func NewPixabayClient(cfg PixabayConfig, cacheClient cache.Client, log zerolog.Logger) (*PixabayClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("pixabay: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://pixabay.com/api/"
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	return &PixabayClient{
		http:     newRestyClient(cfg.Timeout),
		apiKey:   cfg.APIKey,
		baseURL:  cfg.BaseURL,
		limiter:  rate.NewLimiter(limit, 1),
		cache:    cacheClient,
		cacheTTL: cfg.CacheTTL,
		log:      log.With().Str("component", "pixabay").Logger(),
	}, nil
}

// newRestyClient retries transport errors, 429 and 5xx a couple of times.
func newRestyClient(timeout time.Duration) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})
}

type pixabayHit struct {
	ID            int    `json:"id"`
	PreviewURL    string `json:"previewURL"`
	WebformatURL  string `json:"webformatURL"`
	LargeImageURL string `json:"largeImageURL"`
	Tags          string `json:"tags"`
	User          string `json:"user"`
	PageURL       string `json:"pageURL"`
}

type pixabayResponse struct {
	Total     int          `json:"total"`
	TotalHits int          `json:"totalHits"`
	Hits      []pixabayHit `json:"hits"`
}

func (h pixabayHit) candidate() models.ImageCandidate {
	user := h.User
	if user == "" {
		user = "Unknown"
	}
	return models.ImageCandidate{
		ID:           strconv.Itoa(h.ID),
		PreviewURL:   h.PreviewURL,
		WebformatURL: h.WebformatURL,
		LargeURL:     h.LargeImageURL,
		Tags:         h.Tags,
		User:         user,
		PageURL:      h.PageURL,
	}
}

// ClampPerPage keeps perPage inside what the API accepts.
func ClampPerPage(perPage int) int {
	switch {
	case perPage < minPerPage:
		return minPerPage
	case perPage > maxPerPage:
		return maxPerPage
	default:
		return perPage
	}
}

// Search returns one page of photos for query.
func (p *PixabayClient) Search(ctx context.Context, query string, page, perPage int) (*core.ImageSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty image query", core.ErrValidation)
	}
	if page < 1 {
		page = 1
	}
	perPage = ClampPerPage(perPage)

	params := map[string]string{
		"q":           query,
		"page":        strconv.Itoa(page),
		"per_page":    strconv.Itoa(perPage),
		"image_type":  "photo",
		"orientation": "horizontal",
		"safesearch":  "true",
	}
	resp, err := p.fetch(ctx, cache.Key("pixabay", "search", strings.ToLower(query), strconv.Itoa(page), strconv.Itoa(perPage)), params)
	if err != nil {
		return nil, err
	}

	out := &core.ImageSearchResult{Page: page, PerPage: perPage, Images: make([]models.ImageCandidate, 0, len(resp.Hits))}
	for _, h := range resp.Hits {
		out.Images = append(out.Images, h.candidate())
	}
	out.Total = len(out.Images)
	return out, nil
}

// Lookup resolves a single image by its Pixabay id.
func (p *PixabayClient) Lookup(ctx context.Context, id string) (*models.ImageCandidate, error) {
	id = strings.TrimSpace(id)
	if _, err := strconv.Atoi(id); err != nil {
		return nil, fmt.Errorf("%w: invalid image id %q", core.ErrValidation, id)
	}
	resp, err := p.fetch(ctx, cache.Key("pixabay", "id", id), map[string]string{"id": id})
	if err != nil {
		return nil, err
	}
	if len(resp.Hits) == 0 {
		return nil, fmt.Errorf("image %s: %w", id, core.ErrNotFound)
	}
	c := resp.Hits[0].candidate()
	return &c, nil
}

func (p *PixabayClient) fetch(ctx context.Context, cacheKey string, params map[string]string) (*pixabayResponse, error) {
	if p.cache != nil {
		if raw, err := p.cache.Get(ctx, cacheKey); err == nil {
			var cached pixabayResponse
			if json.Unmarshal(raw, &cached) == nil {
				return &cached, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			p.log.Warn().Err(err).Msg("cache read failed")
		}
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: pixabay rate limit: %v", core.ErrUpstreamUnavailable, err)
	}

	// Pixabay reports errors as plain text, so only the result is decoded.
	var out pixabayResponse
	resp, err := p.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("key", p.apiKey).
		ForceContentType("application/json").
		SetResult(&out).
		Get(p.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: pixabay: %v", core.ErrUpstreamUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: pixabay status %d: %s", core.ErrUpstreamUnavailable, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	if p.cache != nil && p.cacheTTL > 0 {
		if raw, err := json.Marshal(out); err == nil {
			if err := p.cache.Set(ctx, cacheKey, raw, p.cacheTTL); err != nil {
				p.log.Warn().Err(err).Msg("cache write failed")
			}
		}
	}
	return &out, nil
}
