// Package web implements the browser front door of ytexport.
//
// # Routes
//
//	GET /                  → login page, or the user's playlists once signed in
//	GET /login             → start the Spotify authorization flow
//	GET /logout            → forget the session
//	GET /callback          → finish the authorization flow (path follows the configured redirect URI)
//	GET /convert/{id}      → download a playlist; ?format=m3u|csv, m3u by default
//	GET /health            → liveness probe
//
// # Sessions
//
// The browser holds a signed cookie naming a server-side session; the Spotify token lives in the session
// store and is refreshed on use. Any failure while talking to Spotify or YouTube Music drops the user back on
// the home page. The only error shown as such is an unsupported format (400).
//
// # Templates
//
// Pages are rendered with html/template from files embedded in the binary. Each page template is parsed
// together with base.html, which provides the layout.
package web
