package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/ytexport/internal/models"
	"github.com/desertthunder/ytexport/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CookieName = "ytexport_session"
	issuer     = "ytexport"
)

// Manager binds sessions in a [Store] to browser cookies.
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewManager creates a [Manager]. secret signs the cookie; ttl bounds both the cookie and the stored session.
func NewManager(store Store, secret string, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{store: store, secret: []byte(secret), ttl: ttl, secure: secure, now: time.Now}
}

// Store returns the backing [Store].
func (m *Manager) Store() Store {
	return m.store
}

// Load returns the session referenced by the request cookie.
//
// A missing, tampered or expired cookie is reported as [shared.ErrSessionNotFound].
func (m *Manager) Load(r *http.Request) (*models.Session, error) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil, fmt.Errorf("%w: no session cookie", shared.ErrSessionNotFound)
	}

	id, err := m.parse(c.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrSessionNotFound, err)
	}
	return m.store.Get(r.Context(), id)
}

// LoadOrCreate returns the request's session, starting a new one and setting its cookie when there is none.
func (m *Manager) LoadOrCreate(w http.ResponseWriter, r *http.Request) (*models.Session, error) {
	s, err := m.Load(r)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, shared.ErrSessionNotFound) {
		return nil, err
	}

	now := m.now()
	s = &models.Session{ID: shared.GenerateID(), CreatedAt: now, ExpiresAt: now.Add(m.ttl)}
	if err := m.store.Put(r.Context(), s); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	signed, err := m.sign(s.ID, s.ExpiresAt)
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, m.cookie(signed, s.ExpiresAt))
	return s, nil
}

// Save persists changes made to s.
func (m *Manager) Save(ctx context.Context, s *models.Session) error {
	return m.store.Put(ctx, s)
}

// Destroy deletes the request's session, if any, and expires its cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	defer http.SetCookie(w, m.cookie("", time.Unix(0, 0)))

	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}
	id, err := m.parse(c.Value)
	if err != nil {
		return nil
	}
	return m.store.Delete(r.Context(), id)
}

// Cleanup removes expired sessions from the store.
func (m *Manager) Cleanup(ctx context.Context) (int, error) {
	return m.store.DeleteExpired(ctx, m.now())
}

// Holder returns a [TokenHolder] that persists tokens into s.
func (m *Manager) Holder(s *models.Session) *SessionHolder {
	return &SessionHolder{store: m.store, session: s}
}

func (m *Manager) cookie(value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		c.MaxAge = -1
	}
	return c
}

func (m *Manager) sign(id string, expires time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   id,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(m.now()),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session cookie: %w", err)
	}
	return signed, nil
}

func (m *Manager) parse(value string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(value, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrInvalidSession, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", shared.ErrInvalidSession)
	}
	return claims.Subject, nil
}
