package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/ytexport/internal/shared"
)

func TestYouTubeService(t *testing.T) {
	t.Run("NewYouTubeService", func(t *testing.T) {
		t.Run("creates service with default URL", func(t *testing.T) {
			if svc := NewYouTubeService("", nil); svc.baseURL != defaultYTBaseURL {
				t.Errorf("expected baseURL to be %s, got %s", defaultYTBaseURL, svc.baseURL)
			}
		})

		t.Run("trims trailing slash", func(t *testing.T) {
			if svc := NewYouTubeService("http://localhost:9000/", nil); svc.baseURL != "http://localhost:9000" {
				t.Errorf("unexpected baseURL %s", svc.baseURL)
			}
		})
	})

	t.Run("BuildQuery", func(t *testing.T) {
		tc := []struct {
			name    string
			title   string
			artists []string
			want    string
		}{
			{name: "single artist", title: "Hey Jude", artists: []string{"The Beatles"}, want: "Hey Jude The Beatles"},
			{name: "several artists", title: "Song", artists: []string{"A", "B"}, want: "Song A, B"},
			{name: "no artists", title: "Song", want: "Song "},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if got := BuildQuery(tt.title, tt.artists); got != tt.want {
					t.Errorf("BuildQuery() = %q, want %q", got, tt.want)
				}
			})
		}
	})

	t.Run("SearchTopMatch", func(t *testing.T) {
		t.Run("takes the first result", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/search" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("q"); got != "Hey Jude The Beatles" {
					t.Errorf("unexpected query %q", got)
				}
				if got := r.URL.Query().Get("filter"); got != "songs" {
					t.Errorf("expected songs filter, got %q", got)
				}
				writeJSON(t, w, []map[string]any{
					{"videoId": "first", "title": "Hey Jude"},
					{"videoId": "second", "title": "Hey Jude (Remastered)"},
				})
			}))
			defer server.Close()

			svc := NewYouTubeService(server.URL, server.Client())
			id, found, err := svc.SearchTopMatch(context.Background(), "Hey Jude The Beatles")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !found || id != "first" {
				t.Errorf("expected first result, got %q found=%v", id, found)
			}
		})

		t.Run("no results is a miss", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, []any{})
			}))
			defer server.Close()

			svc := NewYouTubeService(server.URL, server.Client())
			id, found, err := svc.SearchTopMatch(context.Background(), "nothing")
			if err != nil || found || id != "" {
				t.Errorf("expected miss, got %q found=%v err=%v", id, found, err)
			}
		})

		t.Run("first result without video id is a miss", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, []map[string]any{{"title": "no id"}, {"videoId": "later"}})
			}))
			defer server.Close()

			svc := NewYouTubeService(server.URL, server.Client())
			if _, found, err := svc.SearchTopMatch(context.Background(), "q"); err != nil || found {
				t.Errorf("expected miss, got found=%v err=%v", found, err)
			}
		})

		t.Run("proxy error", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				writeJSON(t, w, map[string]any{"detail": "ytmusicapi exploded"})
			}))
			defer server.Close()

			svc := NewYouTubeService(server.URL, server.Client())
			_, _, err := svc.SearchTopMatch(context.Background(), "q")
			if !errors.Is(err, shared.ErrCatalog) {
				t.Errorf("expected ErrCatalog, got %v", err)
			}
		})

		t.Run("unreachable proxy", func(t *testing.T) {
			server := httptest.NewServer(http.NotFoundHandler())
			server.Close()

			svc := NewYouTubeService(server.URL, nil)
			if _, _, err := svc.SearchTopMatch(context.Background(), "q"); !errors.Is(err, shared.ErrCatalog) {
				t.Errorf("expected ErrCatalog, got %v", err)
			}
		})
	})

	t.Run("Search", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, []map[string]any{
				{"videoId": "v1", "title": "T", "artists": []map[string]any{{"name": "A"}, {"name": "B"}}, "duration": "3:01"},
			})
		}))
		defer server.Close()

		results, err := NewYouTubeService(server.URL, server.Client()).Search(context.Background(), "T")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 1 || results[0].ArtistNames() != "A, B" || results[0].Duration != "3:01" {
			t.Errorf("unexpected results %+v", results)
		}
	})

	t.Run("Health", func(t *testing.T) {
		t.Run("healthy", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, map[string]string{"status": "ok"})
			}))
			defer server.Close()

			if err := NewYouTubeService(server.URL, server.Client()).Health(context.Background()); err != nil {
				t.Errorf("expected healthy proxy, got %v", err)
			}
		})

		t.Run("down", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer server.Close()

			err := NewYouTubeService(server.URL, server.Client()).Health(context.Background())
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})
	})
}
