package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytexport/internal/models"
	"github.com/desertthunder/ytexport/internal/services"
	"github.com/desertthunder/ytexport/internal/shared"
	"golang.org/x/oauth2"
)

// TokenHolder owns one user's token and knows where to persist it.
type TokenHolder interface {
	Token() *oauth2.Token
	SetToken(ctx context.Context, tok *oauth2.Token) error
}

// TokenStore hands out valid tokens, refreshing expired ones through refresher.
type TokenStore struct {
	refresher services.TokenRefresher
	logger    *log.Logger
}

// NewTokenStore creates a [TokenStore].
func NewTokenStore(refresher services.TokenRefresher, logger *log.Logger) *TokenStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TokenStore{refresher: refresher, logger: shared.WithLogger(logger, "component", "tokens")}
}

// ValidToken returns the holder's token, refreshing and persisting it first when it has expired.
//
// A holder without a token yields [shared.ErrNotAuthenticated]; a failed refresh yields [shared.ErrRefreshFailed].
func (t *TokenStore) ValidToken(ctx context.Context, holder TokenHolder) (*oauth2.Token, error) {
	tok := holder.Token()
	if tok == nil || (tok.AccessToken == "" && tok.RefreshToken == "") {
		return nil, shared.ErrNotAuthenticated
	}
	if tok.Valid() {
		return tok, nil
	}
	if tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token expired and no refresh token", shared.ErrRefreshFailed)
	}

	t.logger.Debug("refreshing expired token", "expiry", tok.Expiry)
	fresh, err := t.refresher.RefreshToken(ctx, tok)
	if err != nil {
		if errors.Is(err, shared.ErrRefreshFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = tok.RefreshToken
	}

	if err := holder.SetToken(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
	}
	t.logger.Info("token refreshed", "expiry", fresh.Expiry)
	return fresh, nil
}

// SessionHolder keeps a token in a web session.
type SessionHolder struct {
	store   Store
	session *models.Session
}

func (h *SessionHolder) Token() *oauth2.Token {
	return h.session.Token
}

func (h *SessionHolder) SetToken(ctx context.Context, tok *oauth2.Token) error {
	h.session.Token = tok
	return h.store.Put(ctx, h.session)
}

// ConfigHolder keeps a token in the config file used by the CLI.
type ConfigHolder struct {
	cfg  *shared.Config
	path string
}

// NewConfigHolder creates a [ConfigHolder]. An empty path keeps the token in memory only.
func NewConfigHolder(cfg *shared.Config, path string) *ConfigHolder {
	return &ConfigHolder{cfg: cfg, path: path}
}

func (h *ConfigHolder) Token() *oauth2.Token {
	sp := h.cfg.Credentials.Spotify
	if sp.AccessToken == "" && sp.RefreshToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  sp.AccessToken,
		RefreshToken: sp.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       sp.TokenExpiry,
	}
}

func (h *ConfigHolder) SetToken(ctx context.Context, tok *oauth2.Token) error {
	h.cfg.Credentials.Spotify.AccessToken = tok.AccessToken
	h.cfg.Credentials.Spotify.RefreshToken = tok.RefreshToken
	h.cfg.Credentials.Spotify.TokenExpiry = tok.Expiry

	if h.path == "" {
		return nil
	}
	return shared.SaveConfig(h.path, h.cfg)
}
