package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/relx/internal/models"
	"github.com/desertthunder/relx/internal/services"
	"github.com/desertthunder/relx/internal/shared"
	"github.com/samber/lo"
	"golang.org/x/time/rate"
)

// DefaultBatchSize is the largest number of URIs sent in one insertion call.
const DefaultBatchSize = 5

// BatchResult is the settled outcome of one insertion call.
type BatchResult struct {
	Index int   `json:"index"`
	Size  int   `json:"size"`
	Err   error `json:"-"`
}

// InsertionSummary reports how a playlist was populated once every batch has settled.
type InsertionSummary struct {
	PlaylistID string        `json:"playlist_id"`
	Batches    int           `json:"batches"`
	Inserted   int           `json:"inserted"`
	Failed     int           `json:"failed"`
	Results    []BatchResult `json:"results"`
}

// Complete reports whether every batch was inserted.
func (s InsertionSummary) Complete() bool {
	return s.Failed == 0
}

// Publication is a created playlist whose tracks may still be inserting.
//
// Done yields exactly one [InsertionSummary] and is then closed.
type Publication struct {
	Playlist *models.Playlist
	Tracks   int
	Batches  int
	Done     <-chan InsertionSummary
}

// Wait blocks until insertion settles or ctx ends.
func (p *Publication) Wait(ctx context.Context) (InsertionSummary, error) {
	select {
	case s := <-p.Done:
		return s, nil
	case <-ctx.Done():
		return InsertionSummary{}, ctx.Err()
	}
}

// Publisher creates playlists and inserts tracks into them one batch at a time.
type Publisher struct {
	batchSize int
	rate      rate.Limit
	timeout   time.Duration
	logger    *log.Logger
}

// NewPublisher creates a [Publisher].
//
// insertRate is the number of insertion calls allowed per second; zero or less means unlimited. timeout bounds the detached insertion run.
func NewPublisher(batchSize int, insertRate float64, timeout time.Duration, logger *log.Logger) *Publisher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	limit := rate.Inf
	if insertRate > 0 {
		limit = rate.Limit(insertRate)
	}
	return &Publisher{batchSize: batchSize, rate: limit, timeout: timeout, logger: logger}
}

// Partition splits uris into contiguous batches of at most size entries, preserving order.
func Partition(uris []string, size int) []models.Batch {
	if size <= 0 {
		size = DefaultBatchSize
	}
	chunks := lo.Chunk(uris, size)
	batches := make([]models.Batch, len(chunks))
	for i, c := range chunks {
		batches[i] = models.Batch{Index: i, URIs: c}
	}
	return batches
}

// Publish creates a public playlist named after seed for the token's user, then starts inserting uris.
//
// It returns as soon as the playlist exists. The returned playlist is created, not necessarily populated;
// insertion continues on a context detached from ctx and reports through [Publication.Done].
func (p *Publisher) Publish(ctx context.Context, catalog services.Catalog, seed string, uris []string) (*Publication, error) {
	user, err := catalog.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrProfileFetchFailed, err)
	}

	name := models.PlaylistName(seed)
	desc := fmt.Sprintf("Artists related to %s", seed)
	pl, err := catalog.CreatePlaylist(ctx, user.ID, name, desc, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPlaylistCreateFailed, err)
	}

	batches := Partition(uris, p.batchSize)
	done := make(chan InsertionSummary, 1)

	insertCtx, cancel := p.detach(ctx)

	go func() {
		defer cancel()
		defer close(done)
		done <- p.insert(insertCtx, catalog, pl.ID, batches)
	}()

	return &Publication{Playlist: pl, Tracks: len(uris), Batches: len(batches), Done: done}, nil
}

func (p *Publisher) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if p.timeout > 0 {
		return context.WithTimeout(detached, p.timeout)
	}
	return context.WithCancel(detached)
}

// insert submits batches strictly in order; batch N+1 starts only after batch N has settled.
func (p *Publisher) insert(ctx context.Context, catalog services.Catalog, playlistID string, batches []models.Batch) InsertionSummary {
	summary := InsertionSummary{
		PlaylistID: playlistID,
		Batches:    len(batches),
		Results:    make([]BatchResult, 0, len(batches)),
	}
	limiter := rate.NewLimiter(p.rate, 1)

	for _, b := range batches {
		res := BatchResult{Index: b.Index, Size: len(b.URIs)}

		if err := limiter.Wait(ctx); err != nil {
			res.Err = fmt.Errorf("%w: batch %d: %v", shared.ErrBatchInsertFailed, b.Index, err)
		} else if err := catalog.AddTracks(ctx, playlistID, b.URIs); err != nil {
			res.Err = fmt.Errorf("%w: batch %d: %v", shared.ErrBatchInsertFailed, b.Index, err)
		}

		if res.Err != nil {
			summary.Failed++
			p.logger.Error("batch insertion failed", "playlist", playlistID, "batch", b.Index, "error", res.Err)
		} else {
			summary.Inserted += res.Size
			p.logger.Debug("batch inserted", "playlist", playlistID, "batch", b.Index, "size", res.Size)
		}
		summary.Results = append(summary.Results, res)
	}

	return summary
}
