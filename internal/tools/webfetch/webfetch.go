// Package webfetch is the HTML-parsing counterpart to the sandbox's
// shell-command tool and the browser pool's headless-browser tool: a
// sandboxed agent turn's third tool kind, fetching a URL through the shared
// HTTP client and extracting readable text from the response body.
package webfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/moltislabs/moltis/internal/errkit"
	"github.com/moltislabs/moltis/internal/httpclient"
	"github.com/moltislabs/moltis/internal/logging"
)

var log = logging.NewComponentLogger("WebFetch")

// Result is what a fetch call hands back to the agent turn.
type Result struct {
	URL        string
	StatusCode int
	Title      string
	Text       string
	Truncated  bool
}

// Fetcher fetches url and extracts its readable text, capping the response
// body at maxBytes (the tool's web_fetch.max_response_bytes config).
type Fetcher struct {
	maxBytes int64
}

// New builds a Fetcher. maxBytes <= 0 falls back to a 5 MiB default.
func New(maxBytes int64) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &Fetcher{maxBytes: maxBytes}
}

// Fetch retrieves url and returns its extracted title/text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("webfetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", "moltis-gateway/webfetch")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := httpclient.Shared().Do(req)
	if err != nil {
		return Result{}, &errkit.TransportError{Err: err}
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, f.maxBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return Result{}, fmt.Errorf("webfetch: read body: %w", err)
	}
	truncated := int64(len(body)) > f.maxBytes
	if truncated {
		body = body[:f.maxBytes]
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return Result{URL: url, StatusCode: resp.StatusCode, Text: string(body), Truncated: truncated}, nil
	}

	doc.Find("script, style, noscript, nav, footer").Remove()
	title := strings.TrimSpace(doc.Find("title").First().Text())
	text := extractText(doc)

	if resp.StatusCode >= 400 {
		log.Warn("web_fetch got status %d for %s", resp.StatusCode, url)
	}

	return Result{
		URL:        url,
		StatusCode: resp.StatusCode,
		Title:      title,
		Text:       text,
		Truncated:  truncated,
	}, nil
}

// extractText collapses a parsed document's body to normalized, whitespace-
// joined readable text — headings, paragraphs, list items, and table cells.
func extractText(doc *goquery.Document) string {
	var b strings.Builder
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, td, th, blockquote").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		b.WriteString(text)
		b.WriteByte('\n')
	})
	if b.Len() == 0 {
		return strings.TrimSpace(doc.Find("body").Text())
	}
	return strings.TrimSpace(b.String())
}
