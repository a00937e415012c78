package ingestion_engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/temoto/robotstxt"
)

const maxRobotsBytes = 512 << 10

// RobotsDecision is the outcome of a robots.txt check.
type RobotsDecision struct {
	Allowed   bool   `json:"allowed"`
	Message   string `json:"message"`
	RobotsURL string `json:"robots_url,omitempty"`
}

// RobotsChecker decides whether a page may be fetched. Any failure to read
// robots.txt disallows the fetch.
type RobotsChecker struct {
	client    *resty.Client
	userAgent string
}

func NewRobotsChecker(userAgent string, timeout time.Duration) *RobotsChecker {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent)
	return &RobotsChecker{client: client, userAgent: userAgent}
}

// RobotsURL returns the robots.txt location for rawURL's host.
func RobotsURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid url %q", rawURL)
	}
	return u.Scheme + "://" + u.Host + "/robots.txt", nil
}

// Check fetches robots.txt for rawURL and tests the configured agent against it.
func (c *RobotsChecker) Check(ctx context.Context, rawURL string) RobotsDecision {
	robotsURL, err := RobotsURL(rawURL)
	if err != nil {
		return RobotsDecision{Message: fmt.Sprintf("Error checking robots.txt: %v", err)}
	}
	deny := func(err error) RobotsDecision {
		return RobotsDecision{RobotsURL: robotsURL, Message: fmt.Sprintf("Could not access robots.txt: %v", err)}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(robotsURL)
	if err != nil {
		return deny(err)
	}
	body := resp.RawBody()
	defer body.Close()

	// 401 and 403 disallow everything.
	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return RobotsDecision{RobotsURL: robotsURL, Message: "Scraping is disallowed by robots.txt"}
	}
	raw, err := io.ReadAll(io.LimitReader(body, maxRobotsBytes))
	if err != nil {
		return deny(err)
	}

	// other 4xx allow everything, 5xx disallows everything
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode(), raw)
	if err != nil {
		return deny(err)
	}

	u, _ := url.Parse(rawURL)
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	if data.TestAgent(path, c.userAgent) {
		return RobotsDecision{Allowed: true, RobotsURL: robotsURL, Message: "Scraping is allowed by robots.txt"}
	}
	return RobotsDecision{RobotsURL: robotsURL, Message: "Scraping is disallowed by robots.txt"}
}
