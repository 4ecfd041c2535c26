package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/desertthunder/ytexport/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"index.html", "playlists.html"}

type pageData struct {
	SignedIn  bool
	Playlists []models.Playlist
	Formats   []models.Format
}

func parseTemplates() (map[string]*template.Template, error) {
	set := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		set[page] = t
	}
	return set, nil
}

// render executes page into a buffer so a failing template never sends a partial page.
func (a *App) render(w http.ResponseWriter, page string, data pageData) {
	t, ok := a.templates[page]
	if !ok {
		a.logger.Error("unknown template", "page", page)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		a.logger.Error("failed to render template", "page", page, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
