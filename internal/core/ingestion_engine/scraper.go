package ingestion_engine

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const (
	maxHeadings     = 10
	minParagraphLen = 20
	maxPageBytes    = 5 << 20
)

// Page is the readable content of one scraped URL.
type Page struct {
	URL      string
	Title    string
	Headings []string
	Text     string
}

// Scraper fetches a page after a robots.txt check and extracts its readable text.
type Scraper struct {
	client *resty.Client
	robots *RobotsChecker
}

func NewScraper(robots *RobotsChecker, userAgent string, timeout time.Duration) *Scraper {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent)
	return &Scraper{client: client, robots: robots}
}

// NormalizeURL adds https:// to scheme-less input.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	return raw
}

// Scrape fetches one URL. It fails when robots.txt disallows the fetch.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*Page, error) {
	target := NormalizeURL(rawURL)

	if d := s.robots.Check(ctx, target); !d.Allowed {
		return nil, fmt.Errorf("scraping not allowed: %s", d.Message)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(target)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("failed to fetch url: status %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse content: %w", err)
	}
	page := extractPage(doc)
	page.URL = target
	return page, nil
}

func extractPage(doc *goquery.Document) *Page {
	doc.Find("script, style, nav, footer, header").Remove()

	p := &Page{Title: strings.TrimSpace(doc.Find("title").First().Text())}
	if p.Title == "" {
		p.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	doc.Find("h1, h2, h3").Each(func(_ int, h *goquery.Selection) {
		if t := strings.TrimSpace(h.Text()); len(t) > 3 {
			p.Headings = append(p.Headings, t)
		}
	})

	scope := doc.Find("main").First()
	if scope.Length() == 0 {
		scope = doc.Find("article").First()
	}
	if scope.Length() == 0 {
		scope = doc.Find("div.content").First()
	}
	if scope.Length() == 0 {
		scope = doc.Selection
	}

	var paras []string
	scope.Find("p").Each(func(_ int, s *goquery.Selection) {
		if t := strings.Join(strings.Fields(s.Text()), " "); len(t) > minParagraphLen {
			paras = append(paras, t)
		}
	})
	p.Text = strings.Join(paras, "\n\n")
	return p
}

// Format renders a page as a context block.
func (p *Page) Format() string {
	var b strings.Builder
	if p.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", p.Title)
	}
	fmt.Fprintf(&b, "Source: %s\n\n", p.URL)
	if len(p.Headings) > 0 {
		b.WriteString("## Key Topics:\n")
		for i, h := range p.Headings {
			if i == maxHeadings {
				break
			}
			fmt.Fprintf(&b, "- %s\n", h)
		}
		b.WriteString("\n")
	}
	b.WriteString(p.Text)
	return strings.TrimSpace(b.String())
}
