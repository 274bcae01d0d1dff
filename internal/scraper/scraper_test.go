package scraper

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/desertthunder/relx/internal/shared"
	tu "github.com/desertthunder/relx/internal/testing"
)

func newTestScraper(t *testing.T, h http.HandlerFunc) *Scraper {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, Logger: shared.NewLogger(&bytes.Buffer{})})
}

func TestParse(t *testing.T) {
	t.Run("Fixture", func(t *testing.T) {
		f, err := os.Open("testdata/muse.html")
		if err != nil {
			t.Fatalf("failed to open fixture: %v", err)
		}
		defer f.Close()

		names, err := Parse(f)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := []string{"Queens of the Stone Age", "The Raconteurs", "Queens of the Stone Age"}
		if !slices.Equal(names, want) {
			t.Errorf("expected %v, got %v", want, names)
		}
	})

	t.Run("Anchors Outside Map Are Ignored", func(t *testing.T) {
		names, err := Parse(strings.NewReader(`<p><a>One</a><a>Two</a></p>`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(names) != 0 {
			t.Errorf("expected no names, got %v", names)
		}
	})

	t.Run("Only Seed", func(t *testing.T) {
		names, err := Parse(strings.NewReader(`<div id="gnodMap"><a>Seed</a></div>`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if names == nil || len(names) != 0 {
			t.Errorf("expected an empty non-nil result, got %#v", names)
		}
	})

	t.Run("Non Adjacent Anchor", func(t *testing.T) {
		names, err := Parse(strings.NewReader(`<div id="gnodMap"><a>Seed</a><span>x</span><a>Related</a></div>`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(names) != 0 {
			t.Errorf("expected anchors separated by another element to be skipped, got %v", names)
		}
	})
}

func TestScraperRelated(t *testing.T) {
	t.Run("Fetches Artist Page", func(t *testing.T) {
		page, err := os.ReadFile("testdata/muse.html")
		if err != nil {
			t.Fatalf("failed to read fixture: %v", err)
		}
		var gotPath string
		s := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.Header().Set("Content-Type", "text/html")
			w.Write(page)
		})

		names, err := s.Related(context.Background(), "Muse")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if gotPath != "/Muse.html" {
			t.Errorf("expected /Muse.html, got %s", gotPath)
		}
		if len(names) != 3 || names[0] != "Queens of the Stone Age" {
			t.Errorf("unexpected names %v", names)
		}
	})

	t.Run("Escapes Names", func(t *testing.T) {
		var gotPath string
		s := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.Write([]byte(`<div id="gnodMap"><a>x</a></div>`))
		})

		if _, err := s.Related(context.Background(), "The Raconteurs"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if gotPath != "/The Raconteurs.html" {
			t.Errorf("expected decoded path /The Raconteurs.html, got %s", gotPath)
		}
	})

	t.Run("Error Status", func(t *testing.T) {
		s := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusServiceUnavailable)
		})

		_, err := s.Related(context.Background(), "Muse")
		if !errors.Is(err, shared.ErrFetchFailed) {
			t.Errorf("expected ErrFetchFailed, got %v", err)
		}
	})

	t.Run("Transport Error", func(t *testing.T) {
		s := New(Options{
			BaseURL:   "http://relations.invalid",
			Transport: tu.NewMockRoundTripper(nil, errors.New("connection reset")),
			Logger:    shared.NewLogger(&bytes.Buffer{}),
		})

		names, err := s.Related(context.Background(), "Muse")
		if !errors.Is(err, shared.ErrFetchFailed) {
			t.Errorf("expected ErrFetchFailed, got %v", err)
		}
		if names != nil {
			t.Errorf("expected no partial result, got %v", names)
		}
	})

	t.Run("Body Read Error", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
		s := New(Options{
			BaseURL:   "http://relations.invalid",
			Transport: tu.NewMockRoundTripper(resp, nil),
			Logger:    shared.NewLogger(&bytes.Buffer{}),
		})

		if _, err := s.Related(context.Background(), "Muse"); !errors.Is(err, shared.ErrFetchFailed) {
			t.Errorf("expected ErrFetchFailed, got %v", err)
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		s := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<div id="gnodMap"></div>`))
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := s.Related(ctx, "Muse"); !errors.Is(err, shared.ErrFetchFailed) {
			t.Errorf("expected ErrFetchFailed, got %v", err)
		}
	})
}
