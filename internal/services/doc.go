// Package services defines the [Catalog] interface for the music catalog API and implements it for Spotify.
//
// # Catalog Interface
//
// The pipeline only needs five calls: artist search, top tracks, the current user's profile, playlist creation and playlist item insertion.
// Keeping them behind [Catalog] lets the tasks package be tested against an in-memory fake.
//
// # Spotify Implementation
//
// [SpotifyService] wraps a [spotify.Client] whose HTTP client carries a static bearer token.
// A service is built per access token through a [CatalogFactory]; credential-bearing clients are never shared across requests.
//
// # Error Handling
//
// Errors are returned wrapped with the operation and argument that failed.
// Mapping them onto the shared taxonomy (search, track fetch, profile, create, insert) is the caller's job, because only the caller knows whether a failure is fatal.
package services
