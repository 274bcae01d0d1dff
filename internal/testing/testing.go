// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/relx/internal/models"
	"github.com/desertthunder/relx/internal/services"
)

// AddCall records one [FakeCatalog.AddTracks] invocation.
type AddCall struct {
	PlaylistID string
	URIs       []string
	Started    time.Time
	Finished   time.Time
}

// FakeCatalog is an in-memory [services.Catalog].
//
// Lookups that are missing from the maps behave like an empty catalog response.
type FakeCatalog struct {
	Artists   map[string]string              // name -> artist ID
	SearchErr map[string]error               // name -> error
	Tracks    map[string][]string            // artist ID -> top track URIs
	TrackErr  map[string]error               // artist ID -> error
	Delay     func(key string) time.Duration // optional per-call latency, keyed by name or artist ID
	User      *services.User
	UserErr   error
	CreateErr error
	AddErr    func(call int, uris []string) error
	AddDelay  time.Duration

	mu        sync.Mutex
	searches  []string
	topTracks []string
	created   []models.Playlist
	adds      []AddCall
	inFlight  int
	maxFlight int
}

func (f *FakeCatalog) Name() string { return "fake" }

func (f *FakeCatalog) wait(ctx context.Context, key string) error {
	if f.Delay == nil {
		return nil
	}
	select {
	case <-time.After(f.Delay(key)):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *FakeCatalog) SearchArtist(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	f.searches = append(f.searches, name)
	f.mu.Unlock()

	if err := f.wait(ctx, name); err != nil {
		return "", err
	}
	if err, ok := f.SearchErr[name]; ok {
		return "", err
	}
	return f.Artists[name], nil
}

func (f *FakeCatalog) TopTracks(ctx context.Context, artistID, market string) ([]string, error) {
	f.mu.Lock()
	f.topTracks = append(f.topTracks, artistID)
	f.mu.Unlock()

	if err := f.wait(ctx, artistID); err != nil {
		return nil, err
	}
	if err, ok := f.TrackErr[artistID]; ok {
		return nil, err
	}
	return f.Tracks[artistID], nil
}

func (f *FakeCatalog) CurrentUser(ctx context.Context) (*services.User, error) {
	if f.UserErr != nil {
		return nil, f.UserErr
	}
	if f.User == nil {
		return &services.User{ID: "user1", DisplayName: "Test User"}, nil
	}
	return f.User, nil
}

func (f *FakeCatalog) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	pl := models.Playlist{ID: fmt.Sprintf("pl%d", len(f.created)+1), OwnerID: userID, Name: name, Public: public}
	f.created = append(f.created, pl)
	return &pl, nil
}

func (f *FakeCatalog) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	f.mu.Lock()
	call := len(f.adds)
	f.adds = append(f.adds, AddCall{PlaylistID: playlistID, URIs: append([]string(nil), uris...), Started: time.Now()})
	f.inFlight++
	if f.inFlight > f.maxFlight {
		f.maxFlight = f.inFlight
	}
	f.mu.Unlock()

	if f.AddDelay > 0 {
		time.Sleep(f.AddDelay)
	}

	var err error
	if f.AddErr != nil {
		err = f.AddErr(call, uris)
	}

	f.mu.Lock()
	f.inFlight--
	f.adds[call].Finished = time.Now()
	f.mu.Unlock()
	return err
}

// Searches returns the names searched so far.
func (f *FakeCatalog) Searches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searches...)
}

// TopTrackCalls returns the artist IDs whose top tracks were requested.
func (f *FakeCatalog) TopTrackCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.topTracks...)
}

// Created returns the playlists created so far.
func (f *FakeCatalog) Created() []models.Playlist {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Playlist(nil), f.created...)
}

// Adds returns every AddTracks call in submission order.
func (f *FakeCatalog) Adds() []AddCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]AddCall(nil), f.adds...)
}

// MaxConcurrentAdds reports the highest number of overlapping AddTracks calls.
func (f *FakeCatalog) MaxConcurrentAdds() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxFlight
}

// Factory returns a [services.CatalogFactory] that always yields f and records the tokens it was asked for.
func (f *FakeCatalog) Factory(tokens *[]string) services.CatalogFactory {
	var mu sync.Mutex
	return func(accessToken string) services.Catalog {
		if tokens != nil {
			mu.Lock()
			*tokens = append(*tokens, accessToken)
			mu.Unlock()
		}
		return f
	}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// Eventually polls cond until it returns true or timeout elapses.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// FWriter is an [io.Writer] that always fails.
type FWriter struct{}

func (f *FWriter) Write(p []byte) (int, error) {
	return 0, errors.New("write failed")
}

// LimitedWriter succeeds for the first n writes, then fails.
type LimitedWriter struct {
	n, calls int
	w        io.Writer
}

// NewLimitedWriter returns a [LimitedWriter] that allows n writes to w after skipping calls already made.
func NewLimitedWriter(n, calls int, w io.Writer) LimitedWriter {
	return LimitedWriter{n: n, calls: calls, w: w}
}

func (l *LimitedWriter) Write(p []byte) (int, error) {
	l.calls++
	if l.calls > l.n {
		return 0, errors.New("write limit reached")
	}
	return l.w.Write(p)
}

// SafeBuffer is a [bytes.Buffer] guarded by a mutex, for loggers written from several goroutines.
type SafeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Contains reports whether s has been written so far.
func (b *SafeBuffer) Contains(s string) bool {
	return strings.Contains(b.String(), s)
}
