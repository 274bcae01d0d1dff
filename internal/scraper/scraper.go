// Package scraper discovers related artist names from the music-map relation pages.
//
// Every call fetches and parses its own document; nothing is shared between calls.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/relx/internal/shared"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "https://www.music-map.com"

	// relatedSelector matches every anchor in the map that directly follows another anchor, which skips the seed artist itself.
	relatedSelector = "#gnodMap a + a"
)

// Options configures a [Scraper].
type Options struct {
	BaseURL   string        // defaults to [DefaultBaseURL]
	Timeout   time.Duration // per request; zero means no client timeout
	Transport http.RoundTripper
	Logger    *log.Logger
}

// Scraper fetches relation pages over HTTP.
type Scraper struct {
	client *resty.Client
	logger *log.Logger
}

// New creates a [Scraper].
func New(opts Options) *Scraper {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	logger := shared.WithLogger(opts.Logger, "component", "scraper")

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetHeader("Accept", "text/html").
		SetLogger(logger)
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.Transport != nil {
		client.SetTransport(opts.Transport)
	}

	return &Scraper{client: client, logger: logger}
}

// Related fetches <base>/<artist>.html and returns the related artist names in document order.
//
// Any transport failure or non-2xx status is [shared.ErrFetchFailed]; there is no partial result. Zero names is a valid result.
func (s *Scraper) Related(ctx context.Context, artist string) ([]string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("artist", artist).
		Get("/{artist}.html")
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", shared.ErrFetchFailed, artist, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %q: status %d", shared.ErrFetchFailed, artist, resp.StatusCode())
	}

	names, err := Parse(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", shared.ErrFetchFailed, artist, err)
	}

	s.logger.Debug("scraped related artists", "artist", artist, "count", len(names))
	return names, nil
}

// Parse extracts related artist names from a relation page.
//
// Names are trimmed; anchors with no text are skipped. Duplicates are kept.
func Parse(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	names := []string{}
	doc.Find(relatedSelector).Each(func(_ int, sel *goquery.Selection) {
		if name := strings.TrimSpace(sel.Text()); name != "" {
			names = append(names, name)
		}
	})
	return names, nil
}
