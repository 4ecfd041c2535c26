package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytexport/internal/models"
	"github.com/desertthunder/ytexport/internal/server"
	"github.com/desertthunder/ytexport/internal/services"
	"github.com/desertthunder/ytexport/internal/session"
	"github.com/desertthunder/ytexport/internal/shared"
	"github.com/desertthunder/ytexport/internal/tasks"
)

// App serves the web front door.
type App struct {
	spotify      *services.SpotifyService
	engine       *tasks.PlaylistEngine
	sessions     *session.Manager
	tokens       *session.TokenStore
	templates    map[string]*template.Template
	limiter      *server.ClientLimiter
	callbackPath string
	logger       *log.Logger
}

// NewApp wires the front door from the loaded configuration.
//
// spotify must be unbound; each request binds it to the session's token. store holds the sessions.
func NewApp(
	cfg *shared.Config,
	spotify *services.SpotifyService,
	matcher services.MatchCatalog,
	store session.Store,
	logger *log.Logger,
) (*App, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	var limiter *server.ClientLimiter
	if cfg.Server.ConvertRate > 0 {
		limiter = server.NewClientLimiter(cfg.Server.ConvertRate, cfg.Server.ConvertBurst)
	}

	return &App{
		spotify:      spotify,
		engine:       tasks.NewPlaylistEngine(matcher, cfg.Conversion.Concurrency, logger),
		sessions:     session.NewManager(store, cfg.Server.SessionSecret, cfg.SessionTTL(), cfg.Server.SecureCookies),
		tokens:       session.NewTokenStore(spotify, logger),
		templates:    templates,
		limiter:      limiter,
		callbackPath: callbackPath(spotify.RedirectURL()),
		logger:       shared.WithLogger(logger, "component", "web"),
	}, nil
}

// callbackPath extracts the path Spotify redirects to, defaulting to /callback.
func callbackPath(redirect string) string {
	u, err := url.Parse(redirect)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "/callback"
	}
	return u.Path
}

// Handler returns the router serving every route of the front door.
func (a *App) Handler() http.Handler {
	r := server.NewBasicRouter()
	r.Use(server.Recover(a.logger), server.Logger(a.logger), server.RateLimit(a.limiter, "/convert/"))

	r.HandleFunc(http.MethodGet, "/{$}", a.index)
	r.HandleFunc(http.MethodGet, "/login", a.login)
	r.HandleFunc(http.MethodGet, "/logout", a.logout)
	r.HandleFunc(http.MethodGet, a.callbackPath, a.callback)
	r.HandleFunc(http.MethodGet, "/convert/{id}", a.convert)
	r.Handler(server.HealthHandler{})
	return r
}

// CleanupSessions removes expired sessions every interval until ctx is done.
func (a *App) CleanupSessions(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.sessions.Cleanup(ctx)
			if err != nil {
				a.logger.Warn("session cleanup failed", "error", err)
			} else if n > 0 {
				a.logger.Debug("removed expired sessions", "count", n)
			}
		}
	}
}

func (a *App) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}

// resetSession drops the session after a token or catalog failure and sends the user home.
func (a *App) resetSession(w http.ResponseWriter, r *http.Request, err error) {
	a.logger.Warn("clearing session", "uri", r.URL.Path, "error", err)
	if derr := a.sessions.Destroy(w, r); derr != nil {
		a.logger.Error("failed to destroy session", "error", derr)
	}
	a.redirectHome(w, r)
}

// validToken loads the request's session and returns a usable token for it.
func (a *App) validToken(r *http.Request) (*models.Session, error) {
	s, err := a.sessions.Load(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
	}
	if !s.Authenticated() {
		return nil, shared.ErrNotAuthenticated
	}

	tok, err := a.tokens.ValidToken(r.Context(), a.sessions.Holder(s))
	if err != nil {
		return nil, err
	}
	s.Token = tok
	return s, nil
}

func (a *App) index(w http.ResponseWriter, r *http.Request) {
	s, err := a.validToken(r)
	if errors.Is(err, shared.ErrNotAuthenticated) {
		a.render(w, "index.html", pageData{})
		return
	}
	if err != nil {
		a.resetSession(w, r, err)
		return
	}

	playlists, err := a.spotify.WithToken(s.Token).Playlists(r.Context())
	if err != nil {
		a.resetSession(w, r, err)
		return
	}

	a.render(w, "playlists.html", pageData{SignedIn: true, Playlists: playlists, Formats: models.Formats})
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	s, err := a.sessions.LoadOrCreate(w, r)
	if err != nil {
		a.logger.Error("failed to start session", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.OAuthState = shared.GenerateID()
	if err := a.sessions.Save(r.Context(), s); err != nil {
		a.logger.Error("failed to save session", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, a.spotify.AuthURL(s.OAuthState), http.StatusFound)
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(w, r); err != nil {
		a.logger.Error("failed to destroy session", "error", err)
	}
	a.redirectHome(w, r)
}

func (a *App) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	s, err := a.sessions.Load(r)
	if err != nil || s.OAuthState == "" || q.Get("state") != s.OAuthState {
		a.logger.Warn("rejecting oauth callback", "error", shared.ErrInvalidState)
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}
	s.OAuthState = ""

	code := q.Get("code")
	if code == "" {
		a.logger.Warn("authorization denied", "error", q.Get("error"))
		if err := a.sessions.Save(r.Context(), s); err != nil {
			a.logger.Error("failed to save session", "error", err)
		}
		a.redirectHome(w, r)
		return
	}

	tok, err := a.spotify.Exchange(r.Context(), code)
	if err != nil {
		a.logger.Error("token exchange failed", "error", err)
		if err := a.sessions.Save(r.Context(), s); err != nil {
			a.logger.Error("failed to save session", "error", err)
		}
		a.redirectHome(w, r)
		return
	}

	s.Token = tok
	if err := a.sessions.Save(r.Context(), s); err != nil {
		a.logger.Error("failed to save session", "error", err)
	}
	a.logger.Info("user signed in", "session", s.ID)
	a.redirectHome(w, r)
}

func (a *App) convert(w http.ResponseWriter, r *http.Request) {
	req := models.ConversionRequest{
		PlaylistID: r.PathValue("id"),
		Format:     models.ParseFormat(r.URL.Query().Get("format")),
	}

	// Only an unknown format is reported to the user; everything else goes home.
	if err := tasks.ValidateRequest(req); err != nil {
		if errors.Is(err, shared.ErrInvalidFormat) {
			http.Error(w, "Invalid format", http.StatusBadRequest)
			return
		}
		a.redirectHome(w, r)
		return
	}

	s, err := a.validToken(r)
	if errors.Is(err, shared.ErrNotAuthenticated) {
		a.redirectHome(w, r)
		return
	}
	if err != nil {
		a.resetSession(w, r, err)
		return
	}

	result, err := a.engine.Convert(r.Context(), a.spotify.WithToken(s.Token), req, nil)
	if err != nil {
		a.logger.Error("conversion failed", "playlist", req.PlaylistID, "error", err)
		a.redirectHome(w, r)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Body)))
	w.Write(result.Body)
}
