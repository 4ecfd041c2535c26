package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/ytexport/internal/shared"
	"golang.org/x/oauth2"
)

func testSpotifyConfig(apiURL, tokenURL string) shared.SpotifyConfig {
	return shared.SpotifyConfig{
		ClientID:     "test_client_id",
		ClientSecret: "test_client_secret",
		RedirectURI:  "http://127.0.0.1:5000/callback",
		APIURL:       apiURL,
		TokenURL:     tokenURL,
	}
}

func item(title string, durationMS int, artists ...string) map[string]any {
	as := make([]map[string]any, len(artists))
	for i, a := range artists {
		as[i] = map[string]any{"name": a}
	}
	return map[string]any{
		"is_local": false,
		"track":    map[string]any{"name": title, "type": "track", "duration_ms": durationMS, "artists": as},
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv, err := NewSpotifyService(testSpotifyConfig("", ""), nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}

			if srv.apiURL != spotifyBaseURL {
				t.Errorf("expected default api url, got %s", srv.apiURL)
			}

			if len(srv.config.Scopes) != 1 || srv.config.Scopes[0] != "playlist-read-private" {
				t.Errorf("expected playlist-read-private scope, got %v", srv.config.Scopes)
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			c := testSpotifyConfig("", "")
			c.ClientID = ""
			if _, err := NewSpotifyService(c, nil); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			c := testSpotifyConfig("", "")
			c.ClientSecret = ""
			if _, err := NewSpotifyService(c, nil); err == nil {
				t.Error("expected error for missing client_secret")
			}
		})
	})

	t.Run("AuthURL", func(t *testing.T) {
		srv, err := NewSpotifyService(testSpotifyConfig("", ""), nil)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		authURL := srv.AuthURL("test_state")
		for _, want := range []string{"accounts.spotify.com", "client_id=test_client_id", "state=test_state", "scope=playlist-read-private"} {
			if !strings.Contains(authURL, want) {
				t.Errorf("auth URL %s should contain %s", authURL, want)
			}
		}
	})

	t.Run("WithToken", func(t *testing.T) {
		srv, _ := NewSpotifyService(testSpotifyConfig("", ""), nil)
		bound := srv.WithToken(&oauth2.Token{AccessToken: "abc"})

		if srv.Token() != nil {
			t.Error("binding a token must not modify the shared service")
		}
		if bound.Token().AccessToken != "abc" {
			t.Errorf("expected bound token, got %+v", bound.Token())
		}
	})

	t.Run("Unauthenticated Requests", func(t *testing.T) {
		srv, _ := NewSpotifyService(testSpotifyConfig("", ""), nil)
		if _, err := srv.PlaylistMeta(context.Background(), "abc"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("PlaylistMeta", func(t *testing.T) {
		t.Run("Decodes Metadata", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/playlists/pl1" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer access" {
					t.Errorf("unexpected authorization header %q", got)
				}
				writeJSON(t, w, map[string]any{
					"id": "pl1", "name": "My Mix #1!", "public": true,
					"owner":  map[string]any{"id": "u1", "display_name": "Owner"},
					"tracks": map[string]any{"total": 3},
				})
			}))
			defer server.Close()

			srv, _ := NewSpotifyService(testSpotifyConfig(server.URL, ""), server.Client())
			p, err := srv.WithToken(&oauth2.Token{AccessToken: "access"}).PlaylistMeta(context.Background(), "pl1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if p.Name != "My Mix #1!" || p.TrackCount != 3 || p.Owner != "Owner" || !p.Public {
				t.Errorf("unexpected playlist %+v", p)
			}
		})

		t.Run("Not Found", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				writeJSON(t, w, map[string]any{"error": map[string]any{"status": 404, "message": "Not found."}})
			}))
			defer server.Close()

			srv, _ := NewSpotifyService(testSpotifyConfig(server.URL, ""), server.Client())
			_, err := srv.WithToken(&oauth2.Token{AccessToken: "access"}).PlaylistMeta(context.Background(), "missing")
			if !errors.Is(err, shared.ErrCatalog) || !errors.Is(err, shared.ErrPlaylistNotFound) {
				t.Errorf("expected catalog + not found errors, got %v", err)
			}
			if !strings.Contains(err.Error(), "Not found.") {
				t.Errorf("expected api message in error, got %v", err)
			}
		})

		t.Run("Server Error", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer server.Close()

			srv, _ := NewSpotifyService(testSpotifyConfig(server.URL, ""), server.Client())
			_, err := srv.WithToken(&oauth2.Token{AccessToken: "access"}).PlaylistMeta(context.Background(), "pl1")
			if !errors.Is(err, shared.ErrCatalog) {
				t.Errorf("expected ErrCatalog, got %v", err)
			}
		})
	})

	t.Run("AllTracks", func(t *testing.T) {
		t.Run("Follows Cursor Across Pages", func(t *testing.T) {
			var server *httptest.Server
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				page := r.URL.Query().Get("page")
				switch page {
				case "":
					if r.URL.Query().Get("limit") != "100" {
						t.Errorf("expected limit=100, got %s", r.URL.RawQuery)
					}
					next := server.URL + "/playlists/pl1/tracks?page=2"
					writeJSON(t, w, map[string]any{"items": []any{item("One", 61000, "A"), item("Two", 120500, "B", "C")}, "next": next})
				case "2":
					next := server.URL + "/playlists/pl1/tracks?page=3"
					writeJSON(t, w, map[string]any{"items": []any{map[string]any{"track": nil}}, "next": next})
				case "3":
					writeJSON(t, w, map[string]any{"items": []any{item("Four", 1999, "D")}, "next": nil})
				default:
					t.Errorf("unexpected page %s", page)
				}
			}))
			defer server.Close()

			srv, _ := NewSpotifyService(testSpotifyConfig(server.URL, ""), server.Client())
			tracks, err := srv.WithToken(&oauth2.Token{AccessToken: "access"}).AllTracks(context.Background(), "pl1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(tracks) != 4 {
				t.Fatalf("expected 4 items, got %d", len(tracks))
			}

			titles := []string{tracks[0].Title, tracks[1].Title, tracks[2].Title, tracks[3].Title}
			if strings.Join(titles, ",") != "One,Two,,Four" {
				t.Errorf("items out of order: %v", titles)
			}
			if tracks[2].Present {
				t.Error("null track should not be present")
			}
			if tracks[1].DurationSeconds != 120 || strings.Join(tracks[1].Artists, "|") != "B|C" {
				t.Errorf("unexpected track %+v", tracks[1])
			}
			if tracks[3].DurationSeconds != 1 {
				t.Errorf("duration should truncate, got %d", tracks[3].DurationSeconds)
			}
		})

		t.Run("Local Files And Episodes Are Not Present", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				local := item("Local", 1000, "Me")
				local["is_local"] = true
				episode := item("Episode", 1000)
				episode["track"].(map[string]any)["type"] = "episode"
				writeJSON(t, w, map[string]any{"items": []any{local, episode, item("Song", 1000, "X")}})
			}))
			defer server.Close()

			srv, _ := NewSpotifyService(testSpotifyConfig(server.URL, ""), server.Client())
			tracks, err := srv.WithToken(&oauth2.Token{AccessToken: "access"}).AllTracks(context.Background(), "pl1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tracks[0].Present || tracks[1].Present || !tracks[2].Present {
				t.Errorf("unexpected presence flags %+v", tracks)
			}
		})

		t.Run("Repeated Cursor", func(t *testing.T) {
			var calls atomic.Int32
			var server *httptest.Server
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				writeJSON(t, w, map[string]any{"items": []any{item("Loop", 1000, "A")}, "next": server.URL + "/playlists/pl1/tracks?page=2"})
			}))
			defer server.Close()

			srv, _ := NewSpotifyService(testSpotifyConfig(server.URL, ""), server.Client())
			_, err := srv.WithToken(&oauth2.Token{AccessToken: "access"}).AllTracks(context.Background(), "pl1")
			if !errors.Is(err, shared.ErrPaginationLoop) {
				t.Errorf("expected ErrPaginationLoop, got %v", err)
			}
			if calls.Load() != 2 {
				t.Errorf("expected to stop after the repeated cursor, made %d calls", calls.Load())
			}
		})

		t.Run("Error On Later Page", func(t *testing.T) {
			var server *httptest.Server
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("page") == "2" {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				writeJSON(t, w, map[string]any{"items": []any{item("One", 1000, "A")}, "next": server.URL + "/playlists/pl1/tracks?page=2"})
			}))
			defer server.Close()

			srv, _ := NewSpotifyService(testSpotifyConfig(server.URL, ""), server.Client())
			tracks, err := srv.WithToken(&oauth2.Token{AccessToken: "access"}).AllTracks(context.Background(), "pl1")
			if !errors.Is(err, shared.ErrCatalog) {
				t.Errorf("expected ErrCatalog, got %v", err)
			}
			if tracks != nil {
				t.Error("expected no partial result")
			}
		})
	})

	t.Run("Playlists", func(t *testing.T) {
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/playlists" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.URL.Query().Get("offset") == "" {
				writeJSON(t, w, map[string]any{
					"items": []any{map[string]any{"id": "a", "name": "First", "tracks": map[string]any{"total": 2}}},
					"next":  server.URL + "/me/playlists?offset=50&limit=50",
				})
				return
			}
			writeJSON(t, w, map[string]any{"items": []any{map[string]any{"id": "b", "name": "Second"}, nil}, "next": nil})
		}))
		defer server.Close()

		srv, _ := NewSpotifyService(testSpotifyConfig(server.URL, ""), server.Client())
		playlists, err := srv.WithToken(&oauth2.Token{AccessToken: "access"}).Playlists(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(playlists) != 2 || playlists[0].ID != "a" || playlists[1].ID != "b" {
			t.Errorf("unexpected playlists %+v", playlists)
		}
		if playlists[0].TrackCount != 2 {
			t.Errorf("expected track count 2, got %d", playlists[0].TrackCount)
		}
	})

	t.Run("Tokens", func(t *testing.T) {
		newTokenServer := func(t *testing.T, body string) *httptest.Server {
			return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					t.Errorf("failed to parse form: %v", err)
				}
				user, _, ok := r.BasicAuth()
				if !ok || user != "test_client_id" {
					t.Errorf("expected client credentials in basic auth")
				}
				switch r.PostForm.Get("grant_type") {
				case "authorization_code":
					if r.PostForm.Get("code") != "the-code" {
						w.WriteHeader(http.StatusBadRequest)
						fmt.Fprint(w, `{"error":"invalid_grant"}`)
						return
					}
				case "refresh_token":
					if r.PostForm.Get("refresh_token") != "refresh" {
						w.WriteHeader(http.StatusBadRequest)
						fmt.Fprint(w, `{"error":"invalid_grant"}`)
						return
					}
				}
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, body)
			}))
		}

		t.Run("Exchange", func(t *testing.T) {
			server := newTokenServer(t, `{"access_token":"new","token_type":"Bearer","expires_in":3600,"refresh_token":"refresh"}`)
			defer server.Close()

			srv, _ := NewSpotifyService(testSpotifyConfig("", server.URL), server.Client())
			tok, err := srv.Exchange(context.Background(), "the-code")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tok.AccessToken != "new" || tok.RefreshToken != "refresh" || !tok.Valid() {
				t.Errorf("unexpected token %+v", tok)
			}

			if _, err := srv.Exchange(context.Background(), "wrong"); !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})

		t.Run("Refresh Keeps Refresh Token", func(t *testing.T) {
			server := newTokenServer(t, `{"access_token":"refreshed","token_type":"Bearer","expires_in":3600}`)
			defer server.Close()

			srv, _ := NewSpotifyService(testSpotifyConfig("", server.URL), server.Client())
			old := &oauth2.Token{AccessToken: "stale", RefreshToken: "refresh", Expiry: time.Now().Add(-time.Hour)}

			tok, err := srv.RefreshToken(context.Background(), old)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tok.AccessToken != "refreshed" || tok.RefreshToken != "refresh" {
				t.Errorf("unexpected token %+v", tok)
			}
			if !tok.Expiry.After(time.Now()) {
				t.Errorf("expected future expiry, got %v", tok.Expiry)
			}
		})

		t.Run("Refresh Rejected", func(t *testing.T) {
			server := newTokenServer(t, `{}`)
			defer server.Close()

			srv, _ := NewSpotifyService(testSpotifyConfig("", server.URL), server.Client())
			_, err := srv.RefreshToken(context.Background(), &oauth2.Token{RefreshToken: "revoked"})
			if !errors.Is(err, shared.ErrRefreshFailed) {
				t.Errorf("expected ErrRefreshFailed, got %v", err)
			}
		})

		t.Run("Refresh Without Refresh Token", func(t *testing.T) {
			srv, _ := NewSpotifyService(testSpotifyConfig("", ""), nil)
			_, err := srv.RefreshToken(context.Background(), &oauth2.Token{AccessToken: "x"})
			if !errors.Is(err, shared.ErrRefreshFailed) {
				t.Errorf("expected ErrRefreshFailed, got %v", err)
			}
		})
	})
}
