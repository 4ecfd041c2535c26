// package services defines the catalog interfaces used by the export pipeline
//
// Spotify (source), YouTube Music via proxy (match)
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/ytexport/internal/models"
	"github.com/desertthunder/ytexport/internal/shared"
	"golang.org/x/oauth2"
)

// SourceCatalog reads playlists for an authenticated user.
type SourceCatalog interface {
	// PlaylistMeta returns the playlist's metadata without its items.
	PlaylistMeta(ctx context.Context, playlistID string) (*models.Playlist, error)

	// AllTracks returns every playlist item across all pages, in playlist order.
	AllTracks(ctx context.Context, playlistID string) ([]models.SourceTrack, error)

	// Playlists returns the current user's playlists.
	Playlists(ctx context.Context) ([]models.Playlist, error)
}

// MatchCatalog resolves a free-text query to the id of the top result.
type MatchCatalog interface {
	// SearchTopMatch returns the id of the first result, or found == false when there is none.
	SearchTopMatch(ctx context.Context, query string) (matchID string, found bool, err error)
}

// TokenRefresher exchanges a refresh token for a new access token.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)
}

// getJSON performs req with client and decodes a 2xx JSON body into result.
//
// Non-2xx responses are reported through describe, which receives the status code and the body.
func getJSON(client *http.Client, req *http.Request, result any, describe func(int, []byte) error) error {
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrCatalog, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return describe(resp.StatusCode, body)
	}

	if result == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", shared.ErrCatalog, err)
	}
	return nil
}
