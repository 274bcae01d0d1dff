package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
)

// newSpotifyAPI serves the handful of Web API routes the pipeline uses.
func newSpotifyAPI(t *testing.T, mux *http.ServeMux) *SpotifyService {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewSpotifyService("test_access_token", SpotifyOptions{BaseURL: srv.URL + "/v1"})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func TestSpotifyService(t *testing.T) {
	t.Run("Name", func(t *testing.T) {
		if got := NewSpotifyService("tok", SpotifyOptions{}).Name(); got != "Spotify" {
			t.Errorf("expected service name 'Spotify', got %s", got)
		}
	})

	t.Run("Catalog Interface", func(t *testing.T) {
		var _ Catalog = NewSpotifyService("tok", SpotifyOptions{})
	})

	t.Run("Factory builds independent services", func(t *testing.T) {
		factory := NewSpotifyFactory(SpotifyOptions{})
		a, b := factory("a"), factory("b")
		if a == b {
			t.Error("expected a new service per token")
		}
	})

	t.Run("SearchArtist", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer test_access_token" {
				t.Errorf("expected bearer token header, got %q", got)
			}
			if r.URL.Query().Get("type") != "artist" {
				t.Errorf("expected artist search, got %s", r.URL.RawQuery)
			}
			switch r.URL.Query().Get("q") {
			case "Queens of the Stone Age":
				writeJSON(w, http.StatusOK, `{"artists":{"items":[{"id":"QA1","name":"Queens of the Stone Age"},{"id":"other"}],"total":2}}`)
			case "Nobody":
				writeJSON(w, http.StatusOK, `{"artists":{"items":[],"total":0}}`)
			default:
				writeJSON(w, http.StatusInternalServerError, `{"error":{"status":500,"message":"boom"}}`)
			}
		})
		srv := newSpotifyAPI(t, mux)

		t.Run("first result wins", func(t *testing.T) {
			id, err := srv.SearchArtist(context.Background(), "Queens of the Stone Age")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if id != "QA1" {
				t.Errorf("expected QA1, got %s", id)
			}
		})

		t.Run("no results", func(t *testing.T) {
			id, err := srv.SearchArtist(context.Background(), "Nobody")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if id != "" {
				t.Errorf("expected empty id, got %s", id)
			}
		})

		t.Run("api error", func(t *testing.T) {
			if _, err := srv.SearchArtist(context.Background(), "Broken"); err == nil {
				t.Error("expected error for failed search")
			}
		})
	})

	t.Run("TopTracks", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/artists/QA1/top-tracks", func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("country"); got != "US" {
				t.Errorf("expected country US, got %q", got)
			}
			writeJSON(w, http.StatusOK, `{"tracks":[
				{"id":"t1","uri":"spotify:track:t1"},
				{"id":"t2","uri":"spotify:track:t2"},
				{"id":"t3","uri":"spotify:track:t3"},
				{"id":"t4","uri":"spotify:track:t4"}
			]}`)
		})
		srv := newSpotifyAPI(t, mux)

		uris, err := srv.TopTracks(context.Background(), "QA1", "US")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := []string{"spotify:track:t1", "spotify:track:t2", "spotify:track:t3", "spotify:track:t4"}
		if !slices.Equal(uris, want) {
			t.Errorf("expected %v, got %v", want, uris)
		}
	})

	t.Run("CurrentUser", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/me", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"id":"user1","display_name":"Test User","email":"u@example.com","country":"US","product":"premium"}`)
		})
		srv := newSpotifyAPI(t, mux)

		user, err := srv.CurrentUser(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.ID != "user1" || user.DisplayName != "Test User" {
			t.Errorf("unexpected user %+v", user)
		}
	})

	t.Run("CurrentUser unauthorized", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/me", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, `{"error":{"status":401,"message":"Invalid access token"}}`)
		})
		srv := newSpotifyAPI(t, mux)

		if _, err := srv.CurrentUser(context.Background()); err == nil {
			t.Error("expected error for unauthorized profile fetch")
		}
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/users/user1/playlists", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			var body struct {
				Name   string `json:"name"`
				Public bool   `json:"public"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("failed to decode body: %v", err)
			}
			if body.Name != "Muses Recommended Artists" || !body.Public {
				t.Errorf("unexpected body %+v", body)
			}
			writeJSON(w, http.StatusCreated, `{"id":"pl1","name":"Muses Recommended Artists","public":true,"owner":{"id":"user1"}}`)
		})
		srv := newSpotifyAPI(t, mux)

		pl, err := srv.CreatePlaylist(context.Background(), "user1", "Muses Recommended Artists", "", true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if pl.ID != "pl1" || pl.OwnerID != "user1" || !pl.Public {
			t.Errorf("unexpected playlist %+v", pl)
		}
	})

	t.Run("AddTracks", func(t *testing.T) {
		var got []string
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/playlists/pl1/tracks", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				URIs []string `json:"uris"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("failed to decode body: %v", err)
			}
			got = body.URIs
			writeJSON(w, http.StatusCreated, `{"snapshot_id":"snap1"}`)
		})
		srv := newSpotifyAPI(t, mux)

		uris := []string{"spotify:track:t1", "spotify:track:t2"}
		if err := srv.AddTracks(context.Background(), "pl1", uris); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !slices.Equal(got, uris) {
			t.Errorf("expected %v to be sent, got %v", uris, got)
		}
	})

	t.Run("AddTracks empty is a no-op", func(t *testing.T) {
		srv := NewSpotifyService("tok", SpotifyOptions{BaseURL: "http://127.0.0.1:1/v1/"})
		if err := srv.AddTracks(context.Background(), "pl1", nil); err != nil {
			t.Errorf("expected no request for empty batch, got %v", err)
		}
	})
}

func TestTrackID(t *testing.T) {
	tc := []struct {
		uri  string
		want string
	}{
		{"spotify:track:4iV5W9uYEdYUVa79Axb7Rh", "4iV5W9uYEdYUVa79Axb7Rh"},
		{"plain", "plain"},
		{"", ""},
	}

	for _, tt := range tc {
		t.Run(tt.uri, func(t *testing.T) {
			if got := TrackID(tt.uri); got != tt.want {
				t.Errorf("TrackID(%q) = %q, want %q", tt.uri, got, tt.want)
			}
		})
	}

	if strings.Contains(TrackID("a:b:c"), ":") {
		t.Error("expected no colon in track id")
	}
}
