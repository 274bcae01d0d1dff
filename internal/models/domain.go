package models

import "fmt"

// TokenPair is the result of a successful authorization code exchange.
//
// A refresh produces a new pair with the same RefreshToken and a new AccessToken.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Playlist is created once per pipeline run for the authenticated user.
type Playlist struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
	Public  bool   `json:"public"`
}

// Batch is a contiguous run of track URIs inserted with one call.
type Batch struct {
	Index int
	URIs  []string
}

// PlaylistName returns the name given to the playlist seeded by artist.
func PlaylistName(artist string) string {
	return fmt.Sprintf("%ss Recommended Artists", artist)
}
