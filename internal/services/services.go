// package services defines interface Catalog for interacting with the music catalog API
package services

import (
	"context"

	"github.com/desertthunder/relx/internal/models"
)

// Catalog is the subset of the music catalog API used by the discovery pipeline.
type Catalog interface {
	// SearchArtist returns the ID of the first artist matching name, or "" when nothing matches.
	SearchArtist(ctx context.Context, name string) (string, error)

	// TopTracks returns the URIs of an artist's top tracks in the given market, in catalog order.
	TopTracks(ctx context.Context, artistID, market string) ([]string, error)

	// CurrentUser returns the profile of the user the access token belongs to.
	CurrentUser(ctx context.Context) (*User, error)

	// CreatePlaylist creates a playlist owned by userID.
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error)

	// AddTracks appends track URIs to a playlist in one request.
	AddTracks(ctx context.Context, playlistID string, uris []string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// CatalogFactory builds a [Catalog] bound to one access token.
type CatalogFactory func(accessToken string) Catalog

// User is the authenticated user's profile.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"`
}
