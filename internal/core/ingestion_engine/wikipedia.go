package ingestion_engine

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	maxSections    = 5
	maxSectionLen  = 1000
	articleDivider = "\n\n" + "================================================================================" + "\n\n"
)

var (
	keywordRE = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)
	sectionRE = regexp.MustCompile(`(?m)^==[ \t]*([^=\n].*?)[ \t]*==[ \t]*$`)

	stopWords = map[string]struct{}{}
)

func init() {
	for _, w := range strings.Fields(`the a an and or but in on at to for of with by from about as into through
		during including is are was were been be have has had do does did will would could should may might
		must can presentation ppt powerpoint slides`) {
		stopWords[w] = struct{}{}
	}
}

// Article is one encyclopedia page reduced to its summary and leading sections.
type Article struct {
	Title    string
	URL      string
	Summary  string
	Sections []Section
}

type Section struct {
	Title   string
	Content string
}

// WikiClient queries the MediaWiki action API.
type WikiClient struct {
	client *resty.Client
}

// NewWikiClient retries transport errors, 429 and 5xx before giving up.
func NewWikiClient(baseURL, userAgent string, timeout time.Duration) *WikiClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})
	return &WikiClient{client: client}
}

// ExtractKeywords drops stop words and words shorter than three letters.
func ExtractKeywords(query string) []string {
	var out []string
	for _, w := range keywordRE.FindAllString(strings.ToLower(query), -1) {
		if _, stop := stopWords[w]; !stop {
			out = append(out, w)
		}
	}
	return out
}

// ContentForQuery searches for query and returns up to maxArticles articles
// combined into one context block.
func (w *WikiClient) ContentForQuery(ctx context.Context, query string, maxArticles int) (string, []Article, error) {
	titles, err := w.Search(ctx, query, maxArticles*2)
	if err != nil {
		return "", nil, err
	}
	if len(titles) == 0 {
		return "", nil, fmt.Errorf("no articles found for %q", query)
	}

	var articles []Article
	for _, t := range titles {
		if len(articles) == maxArticles {
			break
		}
		a, err := w.Article(ctx, t)
		if err != nil {
			continue
		}
		articles = append(articles, *a)
	}
	if len(articles) == 0 {
		return "", nil, fmt.Errorf("failed to fetch article content for %q", query)
	}
	return combineArticles(articles), articles, nil
}

// Search returns article titles for the query's keywords.
func (w *WikiClient) Search(ctx context.Context, query string, limit int) ([]string, error) {
	search := strings.Join(ExtractKeywords(query), " ")
	if search == "" {
		search = query
	}
	var resp struct {
		Query struct {
			Search []struct {
				Title string `json:"title"`
			} `json:"search"`
		} `json:"query"`
	}
	params := map[string]string{
		"action":   "query",
		"list":     "search",
		"srsearch": search,
		"srlimit":  strconv.Itoa(limit),
		"format":   "json",
	}
	if err := w.get(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("wikipedia search: %w", err)
	}
	titles := make([]string, 0, len(resp.Query.Search))
	for _, s := range resp.Query.Search {
		titles = append(titles, s.Title)
	}
	return titles, nil
}

// Article fetches the plain text extract of one page.
func (w *WikiClient) Article(ctx context.Context, title string) (*Article, error) {
	var resp struct {
		Query struct {
			Pages map[string]struct {
				Title   string  `json:"title"`
				Extract string  `json:"extract"`
				FullURL string  `json:"fullurl"`
				Missing *string `json:"missing"`
			} `json:"pages"`
		} `json:"query"`
	}
	params := map[string]string{
		"action":      "query",
		"prop":        "extracts|info",
		"inprop":      "url",
		"explaintext": "1",
		"redirects":   "1",
		"titles":      title,
		"format":      "json",
	}
	if err := w.get(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("wikipedia page %q: %w", title, err)
	}
	for _, p := range resp.Query.Pages {
		if p.Missing != nil || strings.TrimSpace(p.Extract) == "" {
			continue
		}
		sections := splitSections(p.Extract)
		a := &Article{Title: p.Title, URL: p.FullURL, Sections: sections}
		if len(sections) > 0 {
			a.Summary = sections[0].Content
		}
		return a, nil
	}
	return nil, fmt.Errorf("wikipedia page %q not found", title)
}

func (w *WikiClient) get(ctx context.Context, params map[string]string, out any) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		ForceContentType("application/json").
		SetResult(out).
		Get("/w/api.php")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("status %d", resp.StatusCode())
	}
	return nil
}

// splitSections cuts a plain text extract at its "== Heading ==" lines.
// Text before the first heading becomes the Introduction.
func splitSections(extract string) []Section {
	locs := sectionRE.FindAllStringSubmatchIndex(extract, -1)
	if len(locs) == 0 {
		return []Section{{Title: "Content", Content: strings.TrimSpace(extract)}}
	}
	var out []Section
	if intro := strings.TrimSpace(extract[:locs[0][0]]); intro != "" {
		out = append(out, Section{Title: "Introduction", Content: intro})
	}
	for i, loc := range locs {
		end := len(extract)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimSpace(extract[loc[1]:end])
		if body == "" {
			continue
		}
		out = append(out, Section{Title: extract[loc[2]:loc[3]], Content: body})
	}
	return out
}

func combineArticles(articles []Article) string {
	blocks := make([]string, 0, len(articles))
	for _, a := range articles {
		var b strings.Builder
		fmt.Fprintf(&b, "# %s\n\nSource: %s\n\n", a.Title, a.URL)
		if a.Summary != "" {
			fmt.Fprintf(&b, "## Summary\n%s\n\n", a.Summary)
		}
		if len(a.Sections) > 0 {
			b.WriteString("## Key Information\n\n")
			for i, s := range a.Sections {
				if i == maxSections {
					break
				}
				fmt.Fprintf(&b, "### %s\n%s\n\n", s.Title, truncateRunes(s.Content, maxSectionLen))
			}
		}
		blocks = append(blocks, strings.TrimSpace(b.String()))
	}
	return strings.Join(blocks, articleDivider)
}

// truncateRunes cuts s to n runes and marks the cut with "...".
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + truncationMarker
}
