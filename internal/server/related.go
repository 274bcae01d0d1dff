package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/relx/internal/shared"
	"github.com/desertthunder/relx/internal/tasks"
)

// Pipeline runs one discovery for a seed artist and access token.
type Pipeline interface {
	Run(ctx context.Context, progress chan<- tasks.ProgressUpdate, seed, accessToken string) (*tasks.RunResult, error)
}

// RelatedResponse is the success body of /related_artists.
//
// Status is always "created": the playlist exists, but tracks may still be inserting.
type RelatedResponse struct {
	PlaylistID string `json:"playlist_id"`
	Name       string `json:"name"`
	OwnerID    string `json:"owner_id"`
	Public     bool   `json:"public"`
	Related    int    `json:"related"`
	Resolved   int    `json:"resolved"`
	Tracks     int    `json:"tracks"`
	Batches    int    `json:"batches"`
	Status     string `json:"status"`
}

// RelatedHandler serves /related_artists.
type RelatedHandler struct {
	pipeline Pipeline
	logger   *log.Logger
	pending  sync.WaitGroup
	inflight atomic.Int64
}

// NewRelatedHandler creates a [RelatedHandler].
func NewRelatedHandler(p Pipeline, logger *log.Logger) *RelatedHandler {
	return &RelatedHandler{pipeline: p, logger: shared.WithLogger(logger, "component", "related")}
}

// Routes returns the HTTP routes this handler serves.
func (h *RelatedHandler) Routes() []string {
	return []string{"/related_artists"}
}

// ServeHTTP runs the pipeline for ?artist and ?access_token and responds once the playlist is created.
//
// The insertion summary is logged when it arrives; the response never waits for it.
func (h *RelatedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	artist, token := q.Get("artist"), q.Get("access_token")
	if artist == "" || token == "" {
		writeError(w, http.StatusBadRequest, shared.ErrMissingArgument)
		return
	}

	id := RequestID(r.Context())
	logger := h.logger.With("id", id, "artist", artist)

	progress := make(chan tasks.ProgressUpdate, 8)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for u := range progress {
			logger.Debug(u.Message, "phase", u.Phase.String(), "step", u.Step, "total", u.Total)
		}
	}()

	result, err := h.pipeline.Run(r.Context(), progress, artist, token)
	close(progress)
	<-drained

	if err != nil {
		logger.Error("discovery failed", "error", err)
		writeError(w, pipelineStatus(err), err)
		return
	}

	pub := result.Publication
	h.pending.Add(1)
	h.inflight.Add(1)
	go func() {
		defer h.pending.Done()
		defer h.inflight.Add(-1)
		s := <-pub.Done
		logger.Info("insertion settled",
			"playlist", s.PlaylistID,
			"batches", s.Batches,
			"inserted", s.Inserted,
			"failed", s.Failed,
		)
	}()

	writeJSON(w, http.StatusOK, RelatedResponse{
		PlaylistID: pub.Playlist.ID,
		Name:       pub.Playlist.Name,
		OwnerID:    pub.Playlist.OwnerID,
		Public:     pub.Playlist.Public,
		Related:    len(result.Related),
		Resolved:   len(result.Resolved),
		Tracks:     pub.Tracks,
		Batches:    pub.Batches,
		Status:     "created",
	})
}

// Wait blocks until every insertion started by h has settled, or ctx ends.
func (h *RelatedHandler) Wait(ctx context.Context) error {
	n := h.inflight.Load()
	if n == 0 {
		return nil
	}
	h.logger.Info("waiting for playlist insertion", "pending", n)

	done := make(chan struct{})
	go func() {
		h.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		left := h.inflight.Load()
		h.logger.Warn("playlist insertion cut short", "pending", left)
		return fmt.Errorf("%w: %d playlist insertions still running", shared.ErrTimeout, left)
	}
}

func pipelineStatus(err error) int {
	switch {
	case errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
