package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ytexport/internal/models"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = formatItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.TrackCount)
	if i.playlist.Owner != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Owner)
	}
	return desc
}

// formatItem wraps [models.Format] to implement [list.Item].
type formatItem struct {
	format models.Format
}

func (i formatItem) FilterValue() string { return string(i.format) }
func (i formatItem) Title() string       { return i.format.Label() }
func (i formatItem) Description() string { return "." + i.format.Extension() + " • " + i.format.ContentType() }

func formatItems() []list.Item {
	items := make([]list.Item, len(models.Formats))
	for i, f := range models.Formats {
		items[i] = formatItem{format: f}
	}
	return items
}
