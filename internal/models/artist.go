package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CachedArtist records a resolved artist name so later runs can skip the catalog search.
type CachedArtist struct {
	id        string
	name      string
	catalogID string
	createdAt time.Time
	updatedAt time.Time
}

// NewCachedArtist creates an unsaved [CachedArtist]. The repository assigns the ID.
func NewCachedArtist(name, catalogID string) *CachedArtist {
	now := time.Now()
	return &CachedArtist{name: name, catalogID: catalogID, createdAt: now, updatedAt: now}
}

// RestoreCachedArtist rebuilds a [CachedArtist] from stored columns.
func RestoreCachedArtist(id, name, catalogID string, createdAt, updatedAt time.Time) *CachedArtist {
	return &CachedArtist{id: id, name: name, catalogID: catalogID, createdAt: createdAt, updatedAt: updatedAt}
}

func (a *CachedArtist) ID() string { return a.id }
func (a *CachedArtist) Name() string { return a.name }
func (a *CachedArtist) CatalogID() string { return a.catalogID }
func (a *CachedArtist) CreatedAt() time.Time { return a.createdAt }
func (a *CachedArtist) UpdatedAt() time.Time { return a.updatedAt }

func (a *CachedArtist) SetID(id string) { a.id = id }
func (a *CachedArtist) SetCatalogID(catalogID string) { a.catalogID = catalogID }
func (a *CachedArtist) SetUpdatedAt(t time.Time) { a.updatedAt = t }

// Validate requires a non-blank name and catalog ID.
func (a *CachedArtist) Validate() error {
	if strings.TrimSpace(a.name) == "" {
		return fmt.Errorf("artist name is required")
	}
	if strings.TrimSpace(a.catalogID) == "" {
		return fmt.Errorf("catalog id is required")
	}
	return nil
}

// MarshalJSON exposes the cached mapping for `cache list --json`.
func (a *CachedArtist) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		CatalogID string    `json:"catalog_id"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}{a.id, a.name, a.catalogID, a.createdAt, a.updatedAt})
}
