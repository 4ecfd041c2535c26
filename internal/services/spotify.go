// Spotify Web API implementation of [SourceCatalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/ytexport/internal/models"
	"github.com/desertthunder/ytexport/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
	spotifyScope    = "playlist-read-private"

	playlistPageSize = 100
	libraryPageSize  = 50
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Country     string `json:"country"`
	Product     string `json:"product"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrack represents a track (or episode) inside a playlist item.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Artists    []SpotifyArtist `json:"artists"`
	DurationMS int             `json:"duration_ms"`
	IsLocal    bool            `json:"is_local"`
}

// SpotifyPlaylistItem is one entry of a playlist. Track is nil when the track is no longer available.
type SpotifyPlaylistItem struct {
	AddedAt string        `json:"added_at"`
	IsLocal bool          `json:"is_local"`
	Track   *SpotifyTrack `json:"track"`
}

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type trackTotal struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents the playlist metadata fields requested from the API.
type SpotifyPlaylist struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Owner       owner      `json:"owner"`
	Public      bool       `json:"public"`
	Tracks      trackTotal `json:"tracks"`
}

// spotifyPage is the paging object wrapping every list endpoint.
type spotifyPage[T any] struct {
	Items []T     `json:"items"`
	Total int     `json:"total"`
	Next  *string `json:"next"`
}

type spotifyError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyService implements [SourceCatalog] and [TokenRefresher] for the Spotify Web API.
type SpotifyService struct {
	config     *oauth2.Config
	apiURL     string
	token      *oauth2.Token
	httpClient *http.Client
}

// NewSpotifyService creates a Spotify service from the configured credentials.
//
// Empty endpoint URLs fall back to the public Spotify endpoints. A nil client uses [http.DefaultClient].
func NewSpotifyService(c shared.SpotifyConfig, client *http.Client) (*SpotifyService, error) {
	if c.ClientID == "" || c.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret are required", shared.ErrMissingCredentials)
	}
	if client == nil {
		client = http.DefaultClient
	}

	scope := c.Scope
	if scope == "" {
		scope = spotifyScope
	}

	config := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Scopes:       strings.Fields(scope),
		Endpoint: oauth2.Endpoint{
			AuthURL:   withDefault(c.AuthURL, spotifyAuthURL),
			TokenURL:  withDefault(c.TokenURL, spotifyTokenURL),
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	return &SpotifyService{
		config:     config,
		apiURL:     strings.TrimRight(withDefault(c.APIURL, spotifyBaseURL), "/"),
		httpClient: client,
	}, nil
}

func withDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// Name returns the catalog's display name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// WithToken returns a copy of the service that sends tok on every API call.
func (s *SpotifyService) WithToken(tok *oauth2.Token) *SpotifyService {
	bound := *s
	bound.token = tok
	return &bound
}

// Token returns the bound token, if any.
func (s *SpotifyService) Token() *oauth2.Token {
	return s.token
}

// RedirectURL returns the OAuth callback registered for this client.
func (s *SpotifyService) RedirectURL() string {
	return s.config.RedirectURL
}

// AuthURL returns the authorization page URL carrying state.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// oauthContext makes the oauth2 package use the service's HTTP client.
func (s *SpotifyService) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// Exchange trades an authorization code for a token.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := s.config.Exchange(s.oauthContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %w", shared.ErrAuthFailed, err)
	}
	return tok, nil
}

// RefreshToken obtains a new access token with tok's refresh token.
//
// The returned token keeps tok's refresh token when the token endpoint does not rotate it.
func (s *SpotifyService) RefreshToken(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	if tok == nil || tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token available", shared.ErrRefreshFailed)
	}

	expired := &oauth2.Token{RefreshToken: tok.RefreshToken, Expiry: time.Unix(1, 0)}
	fresh, err := s.config.TokenSource(s.oauthContext(ctx), expired).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}

	if fresh.RefreshToken == "" {
		fresh.RefreshToken = tok.RefreshToken
	}
	return fresh, nil
}

// doRequest performs an authenticated GET against the API and decodes the JSON response into result.
//
// endpoint is either a path relative to the API base or an absolute URL (pagination cursors).
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	if s.token == nil || s.token.AccessToken == "" {
		return shared.ErrNotAuthenticated
	}

	apiURL := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		apiURL = s.apiURL + endpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	s.token.SetAuthHeader(req)

	return getJSON(s.httpClient, req, result, func(status int, body []byte) error {
		msg := http.StatusText(status)
		var apiErr spotifyError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}

		switch status {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w: %s", shared.ErrCatalog, shared.ErrPlaylistNotFound, msg)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %w: %s", shared.ErrCatalog, shared.ErrNotAuthenticated, msg)
		default:
			return fmt.Errorf("%w: spotify status %d: %s", shared.ErrCatalog, status, msg)
		}
	})
}

// collectPages walks a paging cursor starting at first and returns the concatenated items.
func collectPages[T any](ctx context.Context, s *SpotifyService, first string) ([]T, error) {
	var items []T
	seen := make(map[string]struct{})

	for next := first; next != ""; {
		if _, ok := seen[next]; ok {
			return nil, fmt.Errorf("%w: %s", shared.ErrPaginationLoop, next)
		}
		seen[next] = struct{}{}

		var page spotifyPage[T]
		if err := s.doRequest(ctx, next, &page); err != nil {
			return nil, err
		}
		items = append(items, page.Items...)

		next = ""
		if page.Next != nil {
			next = *page.Next
		}
	}

	return items, nil
}

// CurrentUser retrieves the authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// PlaylistMeta retrieves a playlist's metadata without its items.
func (s *SpotifyService) PlaylistMeta(ctx context.Context, playlistID string) (*models.Playlist, error) {
	q := url.Values{"fields": {"id,name,description,public,owner(id,display_name),tracks(total)"}}
	endpoint := fmt.Sprintf("/playlists/%s?%s", url.PathEscape(playlistID), q.Encode())

	var sp SpotifyPlaylist
	if err := s.doRequest(ctx, endpoint, &sp); err != nil {
		return nil, err
	}

	p := sp.toModel()
	return &p, nil
}

// AllTracks retrieves every item of a playlist, following the pagination cursor until it runs out.
func (s *SpotifyService) AllTracks(ctx context.Context, playlistID string) ([]models.SourceTrack, error) {
	endpoint := fmt.Sprintf("%s/playlists/%s/tracks?limit=%d", s.apiURL, url.PathEscape(playlistID), playlistPageSize)

	items, err := collectPages[SpotifyPlaylistItem](ctx, s, endpoint)
	if err != nil {
		return nil, err
	}

	tracks := make([]models.SourceTrack, len(items))
	for i, item := range items {
		tracks[i] = item.toModel()
	}
	return tracks, nil
}

// Playlists retrieves all of the current user's playlists.
func (s *SpotifyService) Playlists(ctx context.Context) ([]models.Playlist, error) {
	endpoint := fmt.Sprintf("%s/me/playlists?limit=%d", s.apiURL, libraryPageSize)

	items, err := collectPages[SpotifyPlaylist](ctx, s, endpoint)
	if err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(items))
	for _, sp := range items {
		if sp.ID == "" {
			continue
		}
		playlists = append(playlists, sp.toModel())
	}
	return playlists, nil
}

func (sp SpotifyPlaylist) toModel() models.Playlist {
	return models.Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		Owner:       withDefault(sp.Owner.DisplayName, sp.Owner.ID),
		TrackCount:  sp.Tracks.Total,
		Public:      sp.Public,
	}
}

// toModel converts a playlist item. Unavailable tracks, local files and podcast episodes are not present.
func (item SpotifyPlaylistItem) toModel() models.SourceTrack {
	t := item.Track
	if t == nil || item.IsLocal || t.IsLocal || (t.Type != "" && t.Type != "track") {
		return models.SourceTrack{}
	}

	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}

	return models.SourceTrack{
		Title:           t.Name,
		Artists:         artists,
		DurationSeconds: t.DurationMS / 1000,
		Present:         true,
	}
}
