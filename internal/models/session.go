package models

import (
	"errors"
	"time"

	"golang.org/x/oauth2"
)

// Session is a browser session of the web front door.
//
// Token is nil until the user completes the login callback. OAuthState holds the state value of a login
// in flight and is cleared once the callback consumes it.
type Session struct {
	ID         string
	OAuthState string
	Token      *oauth2.Token
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Authenticated reports whether the session carries a Spotify token.
func (s *Session) Authenticated() bool {
	return s.Token != nil && s.Token.AccessToken != ""
}

// Validate checks the fields every stored session must have.
func (s *Session) Validate() error {
	if s.ID == "" {
		return errors.New("session id is required")
	}
	if s.ExpiresAt.IsZero() {
		return errors.New("session expiry is required")
	}
	return nil
}
