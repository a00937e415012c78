package imagery

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Slidewise/internal/core"
	"github.com/markdave123-py/Slidewise/internal/models"
)

type fakeSearcher struct {
	hits map[string][]models.ImageCandidate
}

func (f *fakeSearcher) Search(_ context.Context, q string, page, perPage int) (*core.ImageSearchResult, error) {
	if q == "broken" {
		return nil, errors.New("search down")
	}
	return &core.ImageSearchResult{Images: f.hits[q], Page: page, PerPage: perPage}, nil
}

func (f *fakeSearcher) Lookup(_ context.Context, id string) (*models.ImageCandidate, error) {
	for _, hits := range f.hits {
		for _, h := range hits {
			if h.ID == id {
				h := h
				return &h, nil
			}
		}
	}
	return nil, core.ErrNotFound
}

type countingSearcher struct {
	fakeSearcher
	calls *atomic.Int32
}

func (c *countingSearcher) Search(ctx context.Context, q string, page, perPage int) (*core.ImageSearchResult, error) {
	c.calls.Add(1)
	return c.fakeSearcher.Search(ctx, q, page, perPage)
}

func (c *countingSearcher) Lookup(ctx context.Context, id string) (*models.ImageCandidate, error) {
	c.calls.Add(1)
	return c.fakeSearcher.Lookup(ctx, id)
}

type fakeStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	fail     bool
	disabled bool
}

func (f *fakeStore) Enabled() bool { return !f.disabled }

func newFakeStore() *fakeStore { return &fakeStore{objects: map[string][]byte{}} }

func (f *fakeStore) UploadFile(_ context.Context, key string, data []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("bucket gone")
	}
	f.objects[key] = data
	return "https://cdn.test/" + key, nil
}

func (f *fakeStore) GetFile(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	return data, nil
}

func (f *fakeStore) DeleteFile(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 3))))
	pngData := buf.Bytes()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/img.png":
			_, _ = w.Write(pngData)
		case "/text":
			_, _ = w.Write([]byte("just some text"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEnrich(t *testing.T) {
	img := imageServer(t)
	searcher := &fakeSearcher{hits: map[string][]models.ImageCandidate{
		"sun":      {{ID: "1", WebformatURL: img.URL + "/img.png"}, {ID: "2", WebformatURL: img.URL + "/text"}},
		"My Topic": {{ID: "3", WebformatURL: img.URL + "/img.png"}},
		"text":     {{ID: "4", WebformatURL: img.URL + "/text"}},
		"gone":     {{ID: "5", WebformatURL: img.URL + "/missing"}},
	}}
	store := newFakeStore()
	e := NewEnricher(searcher, store, time.Second, time.Second, zerolog.Nop())

	o := models.Outline{Slides: []models.SlideOutline{
		{Number: 1, ImageKeywords: "sun"},
		{Number: 2},
		{Number: 3, ImageKeywords: "text"},
		{Number: 4, ImageKeywords: "broken"},
		{Number: 5, ImageKeywords: "gone"},
		{Number: 6, ImageKeywords: "nothing"},
	}}
	res := e.Enrich(context.Background(), o, "user-1", "My Topic")

	require.Len(t, res.Refs, 2)
	assert.Equal(t, models.ImageRef{
		URL:         "https://cdn.test/users/user-1/presentations/My_Topic/slide_1.png",
		Key:         "users/user-1/presentations/My_Topic/slide_1.png",
		ContentType: "image/png",
		SourceID:    "1",
	}, res.Refs[1])
	assert.Equal(t, "3", res.Refs[2].SourceID, "empty keywords search the topic")
	assert.NotEmpty(t, res.Images[1])

	assert.Len(t, res.Suggestions[1], 2)
	assert.Len(t, res.Suggestions[3], 1, "suggestions kept when storing fails")
	assert.NotContains(t, res.Suggestions, 4)
	assert.Len(t, store.objects, 2)
}

func TestEnrichDisabled(t *testing.T) {
	e := NewEnricher(nil, newFakeStore(), time.Second, time.Second, zerolog.Nop())
	assert.False(t, e.Enabled())
	res := e.Enrich(context.Background(), models.Outline{Slides: []models.SlideOutline{{Number: 1}}}, "u", "t")
	assert.Empty(t, res.Refs)
}

func TestEnrichSkipsSearchWhenStorageDisabled(t *testing.T) {
	var searches atomic.Int32
	searcher := &countingSearcher{fakeSearcher: fakeSearcher{hits: map[string][]models.ImageCandidate{
		"t": {{ID: "1", WebformatURL: "http://unused/img.png"}},
	}}, calls: &searches}
	store := newFakeStore()
	store.disabled = true
	e := NewEnricher(searcher, store, time.Second, time.Second, zerolog.Nop())

	assert.False(t, e.Enabled())
	res := e.Enrich(context.Background(), models.Outline{Slides: []models.SlideOutline{{Number: 1}, {Number: 2}}}, "u", "t")
	assert.Empty(t, res.Refs)
	assert.Empty(t, res.Suggestions)
	assert.Zero(t, searches.Load(), "no search quota is spent without storage")

	_, _, err := e.Replace(context.Background(), "u", "t", 1, "1")
	assert.ErrorIs(t, err, core.ErrUpstreamUnavailable)
	assert.Zero(t, searches.Load())
}

func TestEnrichUploadFailure(t *testing.T) {
	img := imageServer(t)
	searcher := &fakeSearcher{hits: map[string][]models.ImageCandidate{"t": {{ID: "1", WebformatURL: img.URL + "/img.png"}}}}
	store := newFakeStore()
	store.fail = true

	res := NewEnricher(searcher, store, time.Second, time.Second, zerolog.Nop()).
		Enrich(context.Background(), models.Outline{Slides: []models.SlideOutline{{Number: 1}}}, "u", "t")
	assert.Empty(t, res.Refs)
}

func TestReplaceLoadRelease(t *testing.T) {
	img := imageServer(t)
	searcher := &fakeSearcher{hits: map[string][]models.ImageCandidate{"x": {{ID: "77", WebformatURL: img.URL + "/img.png"}}}}
	store := newFakeStore()
	e := NewEnricher(searcher, store, time.Second, time.Second, zerolog.Nop())

	ref, data, err := e.Replace(context.Background(), "anonymous", "Deck", 2, "77")
	require.NoError(t, err)
	assert.Equal(t, "users/anonymous/presentations/Deck/slide_2.png", ref.Key)
	assert.Equal(t, "77", ref.SourceID)

	loaded := e.Load(context.Background(), models.ImageRefs{2: ref, 3: {Key: "missing"}})
	assert.Equal(t, map[int][]byte{2: data}, loaded)

	e.Release(context.Background(), []string{ref.Key})
	assert.Empty(t, store.objects)

	_, _, err = e.Replace(context.Background(), "anonymous", "Deck", 2, "404")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSanitizeTopic(t *testing.T) {
	assert.Equal(t, "AI___ML__2024_", SanitizeTopic("AI & ML: 2024!"))
	assert.Equal(t, "caf_", SanitizeTopic("café"))
	assert.Equal(t, "users/u/presentations/a_b/slide_3.jpg", SlideKey("u", "a b", 3, "jpg"))
}
