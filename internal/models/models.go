package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Format is an output format for an exported playlist.
type Format string

const (
	FormatM3U Format = "m3u" // extended M3U playlist file
	FormatCSV Format = "csv" // spreadsheet with one row per matched track
)

// DefaultFormat is used when a request does not name one.
const DefaultFormat = FormatM3U

// Formats lists every supported [Format] in display order.
var Formats = []Format{FormatM3U, FormatCSV}

// ParseFormat lowercases s and returns the matching [Format].
// An empty string yields [DefaultFormat]; anything else unknown is returned as is and fails [Format.Valid].
func ParseFormat(s string) Format {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultFormat
	}
	return Format(s)
}

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	return f == FormatM3U || f == FormatCSV
}

// Extension is the filename extension, without the dot.
func (f Format) Extension() string {
	return string(f)
}

// ContentType is the media type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatM3U:
		return "audio/x-mpegurl"
	case FormatCSV:
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

// Label is the human readable name used by the web page and the TUI.
func (f Format) Label() string {
	switch f {
	case FormatM3U:
		return "M3U playlist"
	case FormatCSV:
		return "CSV spreadsheet"
	default:
		return string(f)
	}
}

// Playlist is the source catalog's view of a playlist.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner,omitempty"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
}

// SourceTrack is one playlist entry.
//
// Present is false for entries the catalog no longer resolves to a track and for local files;
// those are never matched or exported.
type SourceTrack struct {
	Title           string   `json:"title"`
	Artists         []string `json:"artists"`
	DurationSeconds int      `json:"duration_seconds"`
	Present         bool     `json:"present"`
}

// MatchedTrack is a source track with the id of its top match catalog result.
// Artists is the display string, already joined with ", ".
type MatchedTrack struct {
	Title           string `json:"title"`
	Artists         string `json:"artists"`
	DurationSeconds int    `json:"duration_seconds"`
	MatchID         string `json:"match_id"`
}

// ConversionRequest names the playlist to export and the output format.
type ConversionRequest struct {
	PlaylistID string `validate:"required"`
	Format     Format `validate:"required,oneof=m3u csv"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the request names a playlist and a supported format.
func (r ConversionRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid conversion request: %w", err)
	}
	return nil
}
