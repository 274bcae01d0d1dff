// Package repositories implements SQLite persistence for the artist cache.
//
// [ArtistRepository] stores scraped artist names with the catalog ID they resolved to.
// Names are unique; [ArtistRepository.Upsert] replaces the mapping for a name that resolves differently later.
//
// [ArtistCacheAdapter] exposes the repository as a tasks.ArtistCacher so resolution can skip catalog searches
// for names it has already seen. Access tokens and playlists are never stored.
package repositories
