package ingestion_engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageExtract = "Solar power is energy from the sun.\n\n== History ==\nEarly photovoltaics.\n\n== Empty ==\n\n== Uses ==\nRooftops and farms."

func wikiServer(t *testing.T) (*httptest.Server, *string) {
	t.Helper()
	var lastSearch string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/w/api.php", r.URL.Path)
		q := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		if q.Get("list") == "search" {
			lastSearch = q.Get("srsearch")
			assert.Equal(t, "6", q.Get("srlimit"))
			_, _ = w.Write([]byte(`{"query":{"search":[{"title":"Solar power"},{"title":"Ghost"},{"title":"Solar panel"}]}}`))
			return
		}
		switch q.Get("titles") {
		case "Ghost":
			_, _ = w.Write([]byte(`{"query":{"pages":{"-1":{"title":"Ghost","missing":""}}}}`))
		default:
			title := q.Get("titles")
			_, _ = w.Write([]byte(`{"query":{"pages":{"1":{"title":"` + title + `","fullurl":"https://en.wikipedia.org/wiki/X","extract":` +
				`"Solar power is energy from the sun.\n\n== History ==\nEarly photovoltaics.\n\n== Empty ==\n\n== Uses ==\nRooftops and farms."}}}}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &lastSearch
}

func TestWikiContentForQuery(t *testing.T) {
	srv, lastSearch := wikiServer(t)
	w := NewWikiClient(srv.URL+"/", "bot", time.Second)

	text, articles, err := w.ContentForQuery(context.Background(), "A presentation about solar power", 3)
	require.NoError(t, err)
	assert.Equal(t, "solar power", *lastSearch)

	require.Len(t, articles, 2, "missing page is skipped")
	assert.Equal(t, "Solar power", articles[0].Title)
	assert.Equal(t, "Solar panel", articles[1].Title)
	assert.Equal(t, "Solar power is energy from the sun.", articles[0].Summary)

	assert.Contains(t, text, "# Solar power\n\nSource: https://en.wikipedia.org/wiki/X")
	assert.Contains(t, text, "### Uses\nRooftops and farms.")
	assert.NotContains(t, text, "### Empty")
	assert.Equal(t, 1, strings.Count(text, strings.TrimSpace(articleDivider)))
}

func TestWikiNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"query":{"search":[]}}`))
	}))
	defer srv.Close()

	_, _, err := NewWikiClient(srv.URL, "bot", time.Second).ContentForQuery(context.Background(), "zzzz", 3)
	assert.Error(t, err)
}

func TestWikiRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bot", r.Header.Get("User-Agent"))
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"query":{"search":[{"title":"Rome"}]}}`))
	}))
	defer srv.Close()

	titles, err := NewWikiClient(srv.URL, "bot", time.Second).Search(context.Background(), "rome", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rome"}, titles)
	assert.Equal(t, int32(2), calls.Load())
}

func TestWikiSearchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewWikiClient(srv.URL, "bot", time.Second).Search(context.Background(), "rome", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestSplitSections(t *testing.T) {
	s := splitSections(pageExtract)
	require.Len(t, s, 3)
	assert.Equal(t, Section{Title: "Introduction", Content: "Solar power is energy from the sun."}, s[0])
	assert.Equal(t, Section{Title: "History", Content: "Early photovoltaics."}, s[1])
	assert.Equal(t, "Uses", s[2].Title)

	assert.Equal(t, []Section{{Title: "Content", Content: "plain"}}, splitSections(" plain "))
}

func TestExtractKeywords(t *testing.T) {
	assert.Equal(t, []string{"history", "rome"}, ExtractKeywords("The History of Rome in a PowerPoint presentation"))
	assert.Empty(t, ExtractKeywords("a to of"))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héllo", truncateRunes("héllo", 5))
	assert.Equal(t, "hé...", truncateRunes("héllo", 2))
}
