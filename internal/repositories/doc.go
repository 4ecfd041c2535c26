// Package repositories persists web sessions in SQLite.
//
// [SessionRepository] satisfies the session store used by the web front door when the sqlite session
// backend is configured. The schema lives in the embedded migrations of the shared package.
//
// Only sessions and the Spotify tokens bound to them are stored. Conversion results are never persisted.
package repositories
