// Package session keeps the Spotify token of each user and hands out a valid one on demand.
//
// # Sessions
//
// Web users are identified by a cookie carrying a signed session ID (an HS256 JWT). The token itself stays on the
// server, inside a [Store]: [MemoryStore] by default or the SQLite repository when configured.
// [Manager] loads, creates and destroys sessions for a request.
//
// # Tokens
//
// [TokenStore.ValidToken] is the only way the rest of the program obtains a token. An expired token is refreshed
// and written back through its [TokenHolder] before it is returned, so callers never see a stale token.
//
// Holders:
//   - [SessionHolder] stores the token in a web session
//   - [ConfigHolder] stores the token in config.toml for the CLI and TUI
package session
