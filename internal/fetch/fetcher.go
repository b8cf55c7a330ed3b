// Package fetch downloads article URLs and extracts readable content as
// markdown, producing the input items for classification.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	nurl "net/url"
	"strings"
	"time"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	readability "github.com/go-shiori/go-readability"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/LongAiden/news-classification/internal/classify"
)

const (
	// maxBodySize bounds how much of a page is read.
	maxBodySize = 8 * 1024 * 1024

	// maxContentChars truncates extracted content to cap per-item token cost.
	maxContentChars = 8000

	defaultTimeout     = 30 * time.Second
	defaultConcurrency = 8

	userAgent = "newsbatch/1.0"
)

// Fetcher downloads pages and turns them into classification-ready articles.
type Fetcher struct {
	httpClient  *http.Client
	converter   *md.Converter
	concurrency int
	logger      zerolog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient substitutes the HTTP client, typically for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) { f.httpClient = client }
}

// WithConcurrency sets how many URLs are fetched at once.
func WithConcurrency(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// NewFetcher creates a Fetcher with GitHub-flavored markdown conversion.
func NewFetcher(logger zerolog.Logger, opts ...Option) *Fetcher {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	f := &Fetcher{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		converter:   converter,
		concurrency: defaultConcurrency,
		logger:      logger.With().Str("component", "fetcher").Logger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads one URL and extracts its readable content.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (classify.Article, error) {
	parsed, err := nurl.Parse(rawURL)
	if err != nil {
		return classify.Article{}, fmt.Errorf("parsing url %s: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return classify.Article{}, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return classify.Article{}, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classify.Article{}, fmt.Errorf("fetching %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxBodySize), parsed)
	if err != nil {
		return classify.Article{}, fmt.Errorf("extracting content from %s: %w", rawURL, err)
	}

	markdown, err := f.converter.ConvertString(article.Content)
	if err != nil {
		return classify.Article{}, fmt.Errorf("converting %s to markdown: %w", rawURL, err)
	}

	markdown = truncateUTF8(strings.TrimSpace(markdown), maxContentChars)

	return classify.Article{
		ID:      rawURL,
		Title:   article.Title,
		Content: markdown,
	}, nil
}

// truncateUTF8 shortens s to at most max bytes, backing up so a multi-byte
// rune is never split.
func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// FetchAll downloads urls with bounded concurrency. Failed URLs are logged
// and dropped; the returned articles keep the input order of the URLs that
// succeeded. An error is returned only when the context is cancelled.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) ([]classify.Article, error) {
	results := make([]*classify.Article, len(urls))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(f.concurrency)
	for i, url := range urls {
		group.Go(func() error {
			article, err := f.Fetch(groupCtx, url)
			if err != nil {
				if groupCtx.Err() != nil {
					return groupCtx.Err()
				}
				f.logger.Warn().
					Str("url", url).
					Err(err).
					Msg("Skipping URL that failed to fetch")
				return nil
			}
			results[i] = &article
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	articles := make([]classify.Article, 0, len(urls))
	for _, a := range results {
		if a != nil {
			articles = append(articles, *a)
		}
	}
	f.logger.Info().
		Int("requested", len(urls)).
		Int("fetched", len(articles)).
		Msg("Fetched article content")
	return articles, nil
}
