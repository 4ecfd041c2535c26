// package repositories provides persistence layer implementations for the session store.
package repositories

import (
	"database/sql"
	"time"
)

// nullTime converts a zero [time.Time] into SQL NULL.
func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// timeOrZero converts SQL NULL back into a zero [time.Time].
func timeOrZero(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}
