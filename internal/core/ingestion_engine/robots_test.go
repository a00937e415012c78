package ingestion_engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func robotsServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRobotsCheck(t *testing.T) {
	srv := robotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /private/\n")
	c := NewRobotsChecker("Slidewise-Bot/1.0", time.Second)

	d := c.Check(context.Background(), srv.URL+"/articles/1")
	assert.True(t, d.Allowed)
	assert.Equal(t, "Scraping is allowed by robots.txt", d.Message)
	assert.Equal(t, srv.URL+"/robots.txt", d.RobotsURL)

	d = c.Check(context.Background(), srv.URL+"/private/page")
	assert.False(t, d.Allowed)
	assert.Equal(t, "Scraping is disallowed by robots.txt", d.Message)
}

func TestRobotsCheckStatusCodes(t *testing.T) {
	c := NewRobotsChecker("Slidewise-Bot/1.0", time.Second)

	missing := robotsServer(t, http.StatusNotFound, "")
	assert.True(t, c.Check(context.Background(), missing.URL+"/x").Allowed, "no robots.txt allows everything")

	broken := robotsServer(t, http.StatusInternalServerError, "")
	assert.False(t, c.Check(context.Background(), broken.URL+"/x").Allowed)

	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		guarded := robotsServer(t, status, "User-agent: *\nAllow: /\n")
		d := c.Check(context.Background(), guarded.URL+"/x")
		assert.False(t, d.Allowed, "status %d", status)
		assert.Equal(t, "Scraping is disallowed by robots.txt", d.Message)
		assert.Equal(t, guarded.URL+"/robots.txt", d.RobotsURL)
	}

	gone := robotsServer(t, http.StatusGone, "")
	assert.True(t, c.Check(context.Background(), gone.URL+"/x").Allowed, "other 4xx allow everything")
}

func TestRobotsCheckFailsClosed(t *testing.T) {
	srv := robotsServer(t, http.StatusOK, "")
	url := srv.URL + "/page"
	srv.Close()

	d := NewRobotsChecker("bot", time.Second).Check(context.Background(), url)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Message, "Could not access robots.txt")
}

func TestRobotsURL(t *testing.T) {
	u, err := RobotsURL("https://example.com/a/b?c=d")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/robots.txt", u)

	_, err = RobotsURL("ftp://example.com/file")
	assert.Error(t, err)
	_, err = RobotsURL("not a url")
	assert.Error(t, err)
}
