package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/relx/internal/models"
	"github.com/desertthunder/relx/internal/shared"
	"github.com/desertthunder/relx/internal/tasks"
	tu "github.com/desertthunder/relx/internal/testing"
)

func testReport() *Report {
	res := &tasks.RunResult{
		Seed:     "Muse",
		Related:  []string{"Queens of the Stone Age", "The Raconteurs"},
		Resolved: []string{"QA1", "TR2"},
		Tracks:   []string{"t1", "t2", "t3", "t4", "t5", "t6"},
		Publication: &tasks.Publication{
			Playlist: &models.Playlist{ID: "pl1", OwnerID: "user1", Name: "Muses Recommended Artists", Public: true},
			Tracks:   6,
			Batches:  2,
		},
	}
	summary := tasks.InsertionSummary{
		PlaylistID: "pl1",
		Batches:    2,
		Inserted:   5,
		Failed:     1,
		Results: []tasks.BatchResult{
			{Index: 0, Size: 5},
			{Index: 1, Size: 1, Err: errors.New("batch insertion failed: 502")},
		},
	}
	return NewReport(res, summary)
}

func TestNewReport(t *testing.T) {
	r := testReport()

	if len(r.Tracks) != 6 || r.Complete {
		t.Fatalf("unexpected report %+v", r)
	}
	if r.Tracks[4].Batch != 0 || !r.Tracks[4].Inserted {
		t.Errorf("expected track 5 inserted in batch 0, got %+v", r.Tracks[4])
	}
	if r.Tracks[5].Batch != 1 || r.Tracks[5].Inserted || r.Tracks[5].Error == "" {
		t.Errorf("expected track 6 failed in batch 1, got %+v", r.Tracks[5])
	}
}

func TestExporters(t *testing.T) {
	r := testReport()

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(r)
		if err != nil {
			t.Fatalf("failed to export JSON: %v", err)
		}
		var decoded Report
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Playlist.ID != "pl1" || decoded.Failed != 1 {
			t.Errorf("unexpected decoded report %+v", decoded)
		}
	})

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(r)
		if err != nil {
			t.Fatalf("failed to export CSV: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 7 {
			t.Fatalf("expected header plus 6 rows, got %d", len(lines))
		}
		if lines[0] != "Position,URI,Batch,Inserted,Error" {
			t.Errorf("unexpected header %q", lines[0])
		}
		if !strings.HasPrefix(lines[1], "1,t1,0,true") {
			t.Errorf("unexpected first row %q", lines[1])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(r)
		if err != nil {
			t.Fatalf("failed to export Markdown: %v", err)
		}
		md := string(data)
		for _, want := range []string{"# Muses Recommended Artists", "**Visibility**: Public", "1. Queens of the Stone Age", "- [x] t1", "- [ ] t6"} {
			if !strings.Contains(md, want) {
				t.Errorf("expected markdown to contain %q", want)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(r)
		if err != nil {
			t.Fatalf("failed to export text: %v", err)
		}
		if !strings.Contains(string(data), "Batches: 2, inserted: 5, failed: 1") {
			t.Errorf("unexpected text %s", data)
		}
	})

	t.Run("Unknown Format", func(t *testing.T) {
		if _, err := Export(r, "xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "muse.csv")
	if err := WriteExport(testReport(), "csv", path); err != nil {
		t.Fatalf("failed to write export: %v", err)
	}

	if content := tu.MustReadFile(t, path); !strings.Contains(content, "t6") {
		t.Errorf("expected written CSV to contain t6, got %s", content)
	}
}
