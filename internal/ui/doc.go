// Package ui renders CLI output with lipgloss styles.
//
// [Palette] holds the named styles. [RenderReport] draws the result of a discovery run and
// [RenderArtists] lists the artist cache.
package ui
