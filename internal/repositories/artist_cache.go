package repositories

import (
	"errors"
	"fmt"
)

// ArtistCacheAdapter implements tasks.ArtistCacher using ArtistRepository.
type ArtistCacheAdapter struct {
	repo *ArtistRepository
}

// NewArtistCacheAdapter creates a new ArtistCacheAdapter with the given repository
func NewArtistCacheAdapter(repo *ArtistRepository) *ArtistCacheAdapter {
	return &ArtistCacheAdapter{repo: repo}
}

// LookupArtist returns the cached catalog ID for name. A miss is not an error.
func (a *ArtistCacheAdapter) LookupArtist(name string) (string, bool, error) {
	artist, err := a.repo.GetByName(name)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return artist.CatalogID(), true, nil
}

// CacheArtist stores the mapping. Two runs racing on the same name both succeed.
func (a *ArtistCacheAdapter) CacheArtist(name, catalogID string) error {
	if err := a.repo.Upsert(name, catalogID); err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("failed to cache artist: %w", err)
	}
	return nil
}
