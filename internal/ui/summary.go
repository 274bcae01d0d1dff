package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/relx/internal/formatter"
	"github.com/desertthunder/relx/internal/models"
)

var box = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#7D56F4")).
	Padding(0, 1)

// RenderReport draws a discovery report for the terminal.
func RenderReport(p *Palette, r *formatter.Report) string {
	var b strings.Builder

	b.WriteString(p.Title(r.Playlist.Name))
	b.WriteString("\n")
	row(&b, p, "Playlist", r.Playlist.ID)
	row(&b, p, "Owner", r.Playlist.OwnerID)
	row(&b, p, "Related", fmt.Sprintf("%d scraped, %d resolved", len(r.Related), len(r.Resolved)))
	row(&b, p, "Tracks", fmt.Sprintf("%d in %d batches", len(r.Tracks), r.Batches))

	status := p.OK(fmt.Sprintf("✓ %d inserted", r.Inserted))
	if r.Failed > 0 {
		status += "  " + p.Err(fmt.Sprintf("✗ %d batches failed", r.Failed))
	}
	row(&b, p, "Status", status)

	if r.Failed > 0 {
		b.WriteString("\n")
		for _, t := range r.Tracks {
			if t.Error != "" {
				b.WriteString(p.Warn(fmt.Sprintf("  batch %d: %s", t.Batch, t.URI)))
				b.WriteString("\n")
			}
		}
	}

	return box.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderArtists draws the artist cache as an aligned list.
func RenderArtists(p *Palette, artists []*models.CachedArtist) string {
	if len(artists) == 0 {
		return p.Help("artist cache is empty")
	}

	width := 0
	for _, a := range artists {
		width = max(width, lipgloss.Width(a.Name()))
	}
	name := lipgloss.NewStyle().Width(width + 2)

	var b strings.Builder
	b.WriteString(p.Title(fmt.Sprintf("%d cached artists", len(artists))))
	b.WriteString("\n")
	for _, a := range artists {
		b.WriteString(name.Render(a.Name()))
		b.WriteString(p.Help(a.CatalogID()))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func row(b *strings.Builder, p *Palette, label, value string) {
	b.WriteString(p.Label(label))
	b.WriteString(value)
	b.WriteString("\n")
}
