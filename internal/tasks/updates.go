package tasks

import (
	"fmt"

	"github.com/desertthunder/relx/internal/models"
)

// ProgressUpdate represents a progress event during a pipeline run.
//
// Used to send real-time updates to the CLI or HTTP layer for logging and display.
type ProgressUpdate struct {
	Phase   Phase  // Pipeline stage
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Pipeline stage enumeration
type Phase int

const (
	Scrape Phase = iota
	Resolve
	Collect
	CreatePlaylist
	InsertBatches
)

func (p Phase) String() string {
	switch p {
	case Scrape:
		return "scrape"
	case Resolve:
		return "resolve"
	case Collect:
		return "collect"
	case CreatePlaylist:
		return "create_playlist"
	case InsertBatches:
		return "insert_batches"
	default:
		return ""
	}
}

func scrapeUpdate(seed string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Scrape,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Finding artists related to %s...", seed),
	}
}

func resolveUpdate(names []string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Resolve,
		Step:    0,
		Total:   len(names),
		Message: fmt.Sprintf("Resolving %d related artists...", len(names)),
		Data:    names,
	}
}

func collectUpdate(ids []string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Collect,
		Step:    0,
		Total:   len(ids),
		Message: fmt.Sprintf("Collecting top tracks for %d artists...", len(ids)),
		Data:    ids,
	}
}

func createPlaylistUpdate(name string, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q for %d tracks...", name, tracks),
	}
}

func insertBatchesUpdate(pl *models.Playlist, batches int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   InsertBatches,
		Step:    0,
		Total:   batches,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s), inserting %d batches", pl.Name, pl.ID, batches),
		Data:    pl,
	}
}
