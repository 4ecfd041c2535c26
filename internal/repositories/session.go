package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytexport/internal/models"
	"github.com/desertthunder/ytexport/internal/shared"
	"golang.org/x/oauth2"
)

// SessionRepository stores [models.Session] rows in the sessions table.
type SessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

// Get retrieves a live session by ID.
//
// Missing and expired sessions both return [shared.ErrSessionNotFound].
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT id, oauth_state, access_token, refresh_token, token_type, token_expiry, created_at, expires_at
		FROM sessions
		WHERE id = ?
	`

	var (
		s            models.Session
		accessToken  string
		refreshToken string
		tokenType    string
		tokenExpiry  sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.OAuthState, &accessToken, &refreshToken, &tokenType, &tokenExpiry, &s.CreatedAt, &s.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	if s.Expired(r.now()) {
		return nil, fmt.Errorf("%w: %w", shared.ErrSessionNotFound, shared.ErrSessionExpired)
	}

	if accessToken != "" || refreshToken != "" {
		s.Token = &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    tokenType,
			Expiry:       timeOrZero(tokenExpiry),
		}
	}

	return &s, nil
}

// Put inserts or replaces a session.
func (r *SessionRepository) Put(ctx context.Context, s *models.Session) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = r.now()
	}

	var accessToken, refreshToken, tokenType string
	var tokenExpiry sql.NullTime
	if s.Token != nil {
		accessToken = s.Token.AccessToken
		refreshToken = s.Token.RefreshToken
		tokenType = s.Token.TokenType
		tokenExpiry = nullTime(s.Token.Expiry)
	}

	query := `
		INSERT INTO sessions (id, oauth_state, access_token, refresh_token, token_type, token_expiry, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			oauth_state = excluded.oauth_state,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			token_expiry = excluded.token_expiry,
			expires_at = excluded.expires_at
	`

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.OAuthState, accessToken, refreshToken, tokenType, tokenExpiry, s.CreatedAt.UTC(), s.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session expired at now and returns how many were removed.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}
