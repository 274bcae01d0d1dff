// Package models defines the values that flow through the discovery pipeline and the persisted artist cache.
//
// Tokens and playlists are plain values owned by one request chain; only [CachedArtist] implements [Model] and is stored.
package models
