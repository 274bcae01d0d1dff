// Spotify API implementation of [Catalog]
//
// Endpoint semantics: https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/relx/internal/models"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

const (
	SpotifyAuthURL  = "https://accounts.spotify.com/authorize"
	SpotifyTokenURL = "https://accounts.spotify.com/api/token"
	SpotifyBaseURL  = "https://api.spotify.com/v1/"
)

// SpotifyOptions configures how [SpotifyService] reaches the Web API.
type SpotifyOptions struct {
	BaseURL    string       // defaults to [SpotifyBaseURL]
	HTTPClient *http.Client // transport and timeout are reused; defaults to [http.DefaultClient]
	Retry      bool         // retry rate limited requests after Retry-After
}

// SpotifyService implements [Catalog] for the Spotify Web API.
type SpotifyService struct {
	client *spotify.Client
}

// NewSpotifyService creates a service that authenticates every request with accessToken.
func NewSpotifyService(accessToken string, opts SpotifyOptions) *SpotifyService {
	base := opts.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{Source: source, Base: base.Transport},
		Timeout:   base.Timeout,
	}

	clientOpts := []spotify.ClientOption{spotify.WithRetry(opts.Retry)}
	if opts.BaseURL != "" {
		baseURL := opts.BaseURL
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		clientOpts = append(clientOpts, spotify.WithBaseURL(baseURL))
	}

	return &SpotifyService{client: spotify.New(httpClient, clientOpts...)}
}

// NewSpotifyFactory returns a [CatalogFactory] producing a fresh [SpotifyService] per token.
func NewSpotifyFactory(opts SpotifyOptions) CatalogFactory {
	return func(accessToken string) Catalog {
		return NewSpotifyService(accessToken, opts)
	}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// SearchArtist searches artists by name and returns the first hit's ID.
func (s *SpotifyService) SearchArtist(ctx context.Context, name string) (string, error) {
	result, err := s.client.Search(ctx, name, spotify.SearchTypeArtist, spotify.Limit(1))
	if err != nil {
		return "", fmt.Errorf("spotify search %q: %w", name, err)
	}

	if result.Artists == nil || len(result.Artists.Artists) == 0 {
		return "", nil
	}

	return string(result.Artists.Artists[0].ID), nil
}

// TopTracks retrieves an artist's top tracks for market and returns their URIs.
func (s *SpotifyService) TopTracks(ctx context.Context, artistID, market string) ([]string, error) {
	tracks, err := s.client.GetArtistsTopTracks(ctx, spotify.ID(artistID), market)
	if err != nil {
		return nil, fmt.Errorf("spotify top tracks for %s: %w", artistID, err)
	}

	uris := make([]string, len(tracks))
	for i, track := range tracks {
		uris[i] = string(track.URI)
	}
	return uris, nil
}

// CurrentUser retrieves the current authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*User, error) {
	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("spotify current user: %w", err)
	}

	return &User{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Country:     user.Country,
		Product:     user.Product,
	}, nil
}

// CreatePlaylist creates a non-collaborative playlist for userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	pl, err := s.client.CreatePlaylistForUser(ctx, userID, name, description, public, false)
	if err != nil {
		return nil, fmt.Errorf("spotify create playlist %q: %w", name, err)
	}

	owner := pl.Owner.ID
	if owner == "" {
		owner = userID
	}

	return &models.Playlist{
		ID:      string(pl.ID),
		OwnerID: owner,
		Name:    pl.Name,
		Public:  pl.IsPublic,
	}, nil
}

// AddTracks adds the tracks to the end of the playlist.
//
// The client takes track IDs, so each "spotify:track:<id>" URI is reduced to its ID.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return nil
	}

	ids := make([]spotify.ID, len(uris))
	for i, uri := range uris {
		ids[i] = spotify.ID(TrackID(uri))
	}

	if _, err := s.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids...); err != nil {
		return fmt.Errorf("spotify add %d tracks to %s: %w", len(uris), playlistID, err)
	}
	return nil
}

// TrackID returns the last colon-separated segment of a track URI.
func TrackID(uri string) string {
	return uri[strings.LastIndex(uri, ":")+1:]
}
