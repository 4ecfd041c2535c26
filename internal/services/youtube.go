// YouTube Music implementation of [MatchCatalog]
//
// Communicates with the FastAPI proxy server wrapping the ytmusicapi Python library.
// Searches are unauthenticated.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/ytexport/internal/shared"
)

const defaultYTBaseURL string = "http://127.0.0.1:8080"

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type youtubeAlbum struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeTrack is one song search result.
type YouTubeTrack struct {
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	Artists     []YouTubeArtist `json:"artists"`
	Album       *youtubeAlbum   `json:"album"`
	Duration    string          `json:"duration"`
	DurationSec int             `json:"duration_seconds"`
}

// ArtistNames returns the result's artists joined for display.
func (t YouTubeTrack) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return shared.JoinArtists(names)
}

// YouTubeService implements [MatchCatalog] against the ytmusicapi proxy.
type YouTubeService struct {
	baseURL    string
	httpClient *http.Client
}

// NewYouTubeService creates a new YouTube Music service instance.
func NewYouTubeService(baseURL string, client *http.Client) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &YouTubeService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube Music"
}

// BuildQuery renders the search text for a track: the title, a space, then the artists joined by ", ".
func BuildQuery(title string, artists []string) string {
	return title + " " + shared.JoinArtists(artists)
}

func (y *YouTubeService) doRequest(ctx context.Context, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return getJSON(y.httpClient, req, result, func(status int, body []byte) error {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(body, &errResp) == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: youtube music status %d: %s", shared.ErrCatalog, status, errResp.Detail)
		}
		return fmt.Errorf("%w: youtube music status %d", shared.ErrCatalog, status)
	})
}

// Search returns the song results for query in catalog order.
//
// Calls GET /api/search?q={query}&filter=songs on the proxy.
func (y *YouTubeService) Search(ctx context.Context, query string) ([]YouTubeTrack, error) {
	q := url.Values{"q": {query}, "filter": {"songs"}}

	var results []YouTubeTrack
	if err := y.doRequest(ctx, "/api/search?"+q.Encode(), &results); err != nil {
		return nil, err
	}
	return results, nil
}

// SearchTopMatch returns the video id of the first song result for query.
//
// No results, or a first result without a video id, is reported as found == false.
func (y *YouTubeService) SearchTopMatch(ctx context.Context, query string) (string, bool, error) {
	results, err := y.Search(ctx, query)
	if err != nil {
		return "", false, err
	}

	if len(results) == 0 || results[0].VideoID == "" {
		return "", false, nil
	}
	return results[0].VideoID, true, nil
}

// Health checks that the proxy is reachable.
//
// Calls GET /health on the proxy.
func (y *YouTubeService) Health(ctx context.Context) error {
	var status struct {
		Status string `json:"status"`
	}
	if err := y.doRequest(ctx, "/health", &status); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}
	if status.Status != "" && status.Status != "ok" && status.Status != "healthy" {
		return fmt.Errorf("%w: proxy reported %q", shared.ErrServiceUnavailable, status.Status)
	}
	return nil
}
