// Package research enriches well-formed URLs found in a deck with a
// single fetch-and-extract pass. The whole pass is best effort: an
// unreachable site becomes an annotation, never an error.
package research

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/go-shiori/go-readability"
	"github.com/markusmobius/go-trafilatura"
	"go.uber.org/zap"

	"decklens/config"
	"decklens/deck"
)

// maxBodyBytes caps how much of a response is read. Marketing pages fit
// comfortably; anything larger is not worth summarizing.
const maxBodyBytes = 2 << 20

// maxExcerptRunes bounds what goes into the report per URL.
const maxExcerptRunes = 1200

// Finding is the per-URL outcome passed through to the report stage.
type Finding struct {
	URL       string
	Reachable bool
	Title     string
	Excerpt   string
	Error     string
}

type Researcher struct {
	client    *http.Client
	userAgent string
	maxURLs   int
	logger    *zap.Logger
}

func NewResearcher(cfg config.ResearchConfig, logger *zap.Logger) *Researcher {
	return &Researcher{
		client: &http.Client{
			Timeout: cfg.Timeout(),
			Transport: &http.Transport{
				IdleConnTimeout:       90 * time.Second,
				MaxIdleConns:          10,
				ResponseHeaderTimeout: cfg.Timeout(),
			},
		},
		userAgent: cfg.UserAgent,
		maxURLs:   cfg.MaxURLs,
		logger:    logger,
	}
}

// Lookup fetches each well-formed URL in order, up to the configured
// budget. Malformed URLs never reach this path.
func (r *Researcher) Lookup(ctx context.Context, urls []deck.ExtractedURL) []Finding {
	findings := make([]Finding, 0, len(urls))
	for i, u := range urls {
		if i >= r.maxURLs {
			r.logger.Info("research budget reached, skipping remaining urls",
				zap.Int("skipped", len(urls)-i))
			break
		}
		if !u.WellFormed {
			continue
		}
		findings = append(findings, r.lookupOne(ctx, u.Raw))
	}
	return findings
}

func (r *Researcher) lookupOne(ctx context.Context, rawURL string) Finding {
	f := Finding{URL: rawURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		f.Error = err.Error()
		return f
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Info("url unreachable", zap.String("url", rawURL), zap.Error(err))
		f.Error = err.Error()
		return f
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.Error = fmt.Sprintf("status %d", resp.StatusCode)
		return f
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		f.Error = err.Error()
		return f
	}
	f.Reachable = true

	title, text := r.extract(body, rawURL)
	f.Title = title
	f.Excerpt = clip(text, maxExcerptRunes)
	return f
}

// extract pulls the main content out of a fetched page, trafilatura
// first with readability as fallback, then renders it to markdown.
func (r *Researcher) extract(body []byte, rawURL string) (title, text string) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", ""
	}

	opts := trafilatura.Options{
		OriginalURL:     parsedURL,
		ExcludeComments: true,
	}
	result, err := trafilatura.Extract(bytes.NewReader(body), opts)
	if err == nil && result != nil && strings.TrimSpace(result.ContentText) != "" {
		return result.Metadata.Title, strings.TrimSpace(result.ContentText)
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		r.logger.Debug("content extraction failed", zap.String("url", rawURL), zap.Error(err))
		return "", ""
	}
	md, err := htmltomarkdown.ConvertString(article.Content)
	if err != nil {
		return article.Title, strings.TrimSpace(article.TextContent)
	}
	return article.Title, strings.TrimSpace(md)
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
