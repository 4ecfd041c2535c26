// Package services implements the two catalogs a playlist export talks to.
//
// # Source Catalog
//
// [SpotifyService] reads playlist metadata and playlist items from the Spotify Web API and owns the OAuth2
// side of the login flow (authorization URL, code exchange, refresh). A service is bound to one user's
// token with [SpotifyService.WithToken]; the unbound service is safe to share.
//
// Pagination follows the absolute "next" URL returned with each page until it is null. A cursor that
// comes back a second time aborts with [shared.ErrPaginationLoop].
//
// # Match Catalog
//
// [YouTubeService] searches YouTube Music through the FastAPI proxy wrapping ytmusicapi. Searches are
// anonymous. The first song result is the match; an empty result list is a miss, not an error.
//
// # Error Handling
//
//   - [shared.ErrNotAuthenticated] : no token bound to the service
//   - [shared.ErrCatalog] : transport failure or non-2xx response from either catalog
//   - [shared.ErrPlaylistNotFound] : Spotify answered 404 for a playlist
//   - [shared.ErrRefreshFailed] : the token endpoint rejected a refresh
package services
