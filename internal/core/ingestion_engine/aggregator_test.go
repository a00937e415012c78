package ingestion_engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Slidewise/internal/models"
)

type fakeScraper map[string]*Page

func (f fakeScraper) Scrape(_ context.Context, u string) (*Page, error) {
	if p, ok := f[u]; ok {
		return p, nil
	}
	return nil, errors.New("unreachable")
}

type fakeWiki struct {
	text  string
	err   error
	calls int
}

func (f *fakeWiki) ContentForQuery(context.Context, string, int) (string, []Article, error) {
	f.calls++
	return f.text, []Article{{Title: "Article"}}, f.err
}

func TestAggregateOrder(t *testing.T) {
	scraper := fakeScraper{
		"a.test": {URL: "https://a.test", Text: "page a"},
		"b.test": {URL: "https://b.test", Text: "page b"},
	}
	wiki := &fakeWiki{text: "wiki"}
	a := NewAggregator(scraper, wiki, 10000, zerolog.Nop())

	res := a.Aggregate(context.Background(), AggregateRequest{
		Topic:                "t",
		URLs:                 []string{"b.test", "down.test", "a.test"},
		UserText:             "  my notes  ",
		EncyclopediaFallback: true,
	})

	require.Len(t, res.Sources, 2)
	assert.Equal(t, models.SourceScraped, res.Sources[0].Kind)
	assert.Equal(t, 2, res.Sources[0].Provenance.SuccessCount)
	assert.Equal(t, 3, res.Sources[0].Provenance.TotalCount)
	assert.Equal(t, models.SourceUserText, res.Sources[1].Kind)
	assert.Zero(t, wiki.calls, "fallback only runs without other sources")

	assert.Less(t, strings.Index(res.Text, "page b"), strings.Index(res.Text, "page a"), "request order kept")
	assert.True(t, strings.HasSuffix(res.Text, "\n\nmy notes"))
}

func TestAggregateFallsBackToEncyclopedia(t *testing.T) {
	wiki := &fakeWiki{text: "encyclopedia text"}
	a := NewAggregator(fakeScraper{}, wiki, 10000, zerolog.Nop())

	res := a.Aggregate(context.Background(), AggregateRequest{Topic: "t", URLs: []string{"down.test"}, EncyclopediaFallback: true})
	require.Len(t, res.Sources, 1)
	assert.Equal(t, models.SourceEncyclopedia, res.Sources[0].Kind)
	assert.Equal(t, []string{"Article"}, res.Sources[0].Provenance.Articles)
	assert.Equal(t, "encyclopedia text", res.Text)
}

func TestAggregateFallbackFailureIsNotFatal(t *testing.T) {
	a := NewAggregator(fakeScraper{}, &fakeWiki{err: errors.New("offline")}, 10000, zerolog.Nop())
	res := a.Aggregate(context.Background(), AggregateRequest{Topic: "t", EncyclopediaFallback: true})
	assert.Empty(t, res.Sources)
	assert.Empty(t, res.Text)

	wiki := &fakeWiki{text: "unused"}
	res = NewAggregator(fakeScraper{}, wiki, 10000, zerolog.Nop()).Aggregate(context.Background(), AggregateRequest{Topic: "t"})
	assert.Empty(t, res.Text)
	assert.Zero(t, wiki.calls, "fallback disabled")
}

func TestAggregateTruncates(t *testing.T) {
	a := NewAggregator(fakeScraper{}, nil, 10, zerolog.Nop())
	res := a.Aggregate(context.Background(), AggregateRequest{Topic: "t", UserText: strings.Repeat("é", 25)})
	assert.Equal(t, strings.Repeat("é", 10)+"...", res.Text)
	assert.Equal(t, strings.Repeat("é", 25), res.Sources[0].Text, "sources keep their full text")
}
