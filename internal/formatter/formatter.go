// package formatter renders discovery run reports as JSON, CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/desertthunder/relx/internal/models"
	"github.com/desertthunder/relx/internal/shared"
	"github.com/desertthunder/relx/internal/tasks"
)

// Formats lists the accepted export formats.
var Formats = []string{"json", "csv", "markdown", "txt"}

// TrackRow is one aggregated track and the batch it was sent in.
type TrackRow struct {
	Position int    `json:"position"`
	URI      string `json:"uri"`
	Batch    int    `json:"batch"`
	Inserted bool   `json:"inserted"`
	Error    string `json:"error,omitempty"`
}

// Report is a completed discovery run.
type Report struct {
	Seed     string          `json:"seed"`
	Playlist models.Playlist `json:"playlist"`
	Related  []string        `json:"related"`
	Resolved []string        `json:"resolved"`
	Tracks   []TrackRow      `json:"tracks"`
	Batches  int             `json:"batches"`
	Inserted int             `json:"inserted"`
	Failed   int             `json:"failed"`
	Complete bool            `json:"complete"`
}

// NewReport joins a run with its settled insertion summary.
func NewReport(res *tasks.RunResult, summary tasks.InsertionSummary) *Report {
	r := &Report{
		Seed:     res.Seed,
		Playlist: *res.Publication.Playlist,
		Related:  res.Related,
		Resolved: res.Resolved,
		Tracks:   make([]TrackRow, len(res.Tracks)),
		Batches:  summary.Batches,
		Inserted: summary.Inserted,
		Failed:   summary.Failed,
		Complete: summary.Complete(),
	}

	for i, uri := range res.Tracks {
		r.Tracks[i] = TrackRow{Position: i + 1, URI: uri, Batch: -1}
	}

	pos := 0
	for _, b := range summary.Results {
		for j := 0; j < b.Size && pos < len(r.Tracks); j++ {
			r.Tracks[pos].Batch = b.Index
			r.Tracks[pos].Inserted = b.Err == nil
			if b.Err != nil {
				r.Tracks[pos].Error = b.Err.Error()
			}
			pos++
		}
	}
	return r
}

// ExportToJSON encodes the report as indented JSON.
func ExportToJSON(r *Report) ([]byte, error) {
	return shared.MarshalJSON(r, true)
}

// ExportToCSV converts a report to CSV with columns: Position, URI, Batch, Inserted, Error
func ExportToCSV(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Position", "URI", "Batch", "Inserted", "Error"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, t := range r.Tracks {
		record := []string{
			strconv.Itoa(t.Position),
			t.URI,
			strconv.Itoa(t.Batch),
			strconv.FormatBool(t.Inserted),
			t.Error,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a report to Markdown
func ExportToMarkdown(r *Report) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", r.Playlist.Name)
	fmt.Fprintf(&buf, "**Seed**: %s\n", r.Seed)
	fmt.Fprintf(&buf, "**Playlist ID**: %s\n", r.Playlist.ID)
	fmt.Fprintf(&buf, "**Visibility**: %s\n", visibility(r.Playlist.Public))
	fmt.Fprintf(&buf, "**Inserted**: %d of %d tracks in %d batches\n\n", r.Inserted, len(r.Tracks), r.Batches)

	buf.WriteString("## Related Artists\n\n")
	for i, name := range r.Related {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, name)
	}

	buf.WriteString("\n## Tracks\n\n")
	for _, t := range r.Tracks {
		mark := "x"
		if !t.Inserted {
			mark = " "
		}
		fmt.Fprintf(&buf, "- [%s] %s (batch %d)\n", mark, t.URI, t.Batch)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a report to plain text
func ExportToText(r *Report) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s (%s)\n", r.Playlist.Name, r.Playlist.ID)
	fmt.Fprintf(&buf, "Related: %d, resolved: %d, tracks: %d\n", len(r.Related), len(r.Resolved), len(r.Tracks))
	fmt.Fprintf(&buf, "Batches: %d, inserted: %d, failed: %d\n\n", r.Batches, r.Inserted, r.Failed)

	for _, t := range r.Tracks {
		fmt.Fprintf(&buf, "%d. %s\n", t.Position, t.URI)
	}

	return buf.Bytes(), nil
}

// Export renders r in format.
func Export(r *Report, format string) ([]byte, error) {
	switch format {
	case "json", "":
		return ExportToJSON(r)
	case "csv":
		return ExportToCSV(r)
	case "markdown", "md":
		return ExportToMarkdown(r)
	case "txt", "text":
		return ExportToText(r)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport renders r in format and writes it to path, creating parent directories.
func WriteExport(r *Report, format, path string) error {
	data, err := Export(r, format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

func visibility(public bool) string {
	if public {
		return "Public"
	}
	return "Private"
}
