// package formatter serializes matched playlists into the downloadable formats (M3U, CSV)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/desertthunder/ytexport/internal/models"
	"github.com/desertthunder/ytexport/internal/shared"
)

// WatchURLPrefix is prepended to a match id to build its playback URL.
const WatchURLPrefix = "https://youtube.com/watch?v="

// CSVHeader is the header row of the spreadsheet format, in column order.
var CSVHeader = []string{"PlaylistBrowseId", "PlaylistName", "MediaId", "Title", "Artists", "Duration", "ThumbnailUrl"}

// WriteM3U writes tracks as an extended M3U playlist: the #EXTM3U header, then one #EXTINF line
// and one watch URL per track.
func WriteM3U(w io.Writer, tracks []models.MatchedTrack) error {
	if _, err := io.WriteString(w, "#EXTM3U\n"); err != nil {
		return fmt.Errorf("failed to write M3U header: %w", err)
	}

	for _, t := range tracks {
		entry := fmt.Sprintf("#EXTINF:%d,%s - %s\n%s%s\n", t.DurationSeconds, t.Artists, t.Title, WatchURLPrefix, t.MatchID)
		if _, err := io.WriteString(w, entry); err != nil {
			return fmt.Errorf("failed to write M3U entry: %w", err)
		}
	}
	return nil
}

// WriteCSV writes tracks as CRLF-terminated CSV rows under [CSVHeader]. ThumbnailUrl is always empty.
func WriteCSV(w io.Writer, playlist models.Playlist, tracks []models.MatchedTrack) error {
	writer := csv.NewWriter(w)
	writer.UseCRLF = true

	if err := writer.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, t := range tracks {
		record := []string{
			playlist.ID,
			playlist.Name,
			t.MatchID,
			t.Title,
			t.Artists,
			strconv.Itoa(t.DurationSeconds),
			"",
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}

// Encode serializes tracks in the requested format.
func Encode(format models.Format, playlist models.Playlist, tracks []models.MatchedTrack) ([]byte, error) {
	var buf bytes.Buffer

	var err error
	switch format {
	case models.FormatM3U:
		err = WriteM3U(&buf, tracks)
	case models.FormatCSV:
		err = WriteCSV(&buf, playlist, tracks)
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidFormat, format)
	}
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Filename returns "<stem>.<ext>" for a playlist, where stem is the sanitized playlist name.
//
// A name with nothing usable left after sanitizing falls back to the playlist id.
func Filename(playlist models.Playlist, format models.Format) string {
	stem := shared.SanitizeFilename(playlist.Name)
	if stem == "" {
		stem = shared.SanitizeFilename(playlist.ID)
	}
	if stem == "" {
		stem = "playlist"
	}
	return stem + "." + format.Extension()
}

// WriteExport writes body to disk and returns the path written.
//
// output may be empty (current directory), an existing directory, or a file path.
func WriteExport(body []byte, filename, output string) (string, error) {
	path := filename
	if output != "" {
		path = output
		if info, err := os.Stat(output); err == nil && info.IsDir() {
			path = filepath.Join(output, filename)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}
