package tasks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/ytexport/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Phase of a conversion. Phases only move forward; Errored can follow any of them.
type Phase int

const (
	Fetching Phase = iota
	Matching
	Serializing
	Done
	Errored
	Exporting
)

func (p Phase) String() string {
	switch p {
	case Fetching:
		return "fetching"
	case Matching:
		return "matching"
	case Serializing:
		return "serializing"
	case Done:
		return "done"
	case Errored:
		return "errored"
	case Exporting:
		return "exporting"
	default:
		return ""
	}
}

func fetchingUpdate(playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Fetching,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlist %s from Spotify...", playlistID),
	}
}

func fetchedUpdate(p models.Playlist, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Fetching,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", p.Name, total),
		Data:    p,
	}
}

func matchingUpdate(step, total int, t *models.SourceTrack) ProgressUpdate {
	if t == nil {
		return ProgressUpdate{
			Phase:   Matching,
			Step:    step,
			Total:   total,
			Message: "Searching for tracks on YouTube Music...",
		}
	}
	return ProgressUpdate{
		Phase:   Matching,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, strings.Join(t.Artists, ", "), t.Title),
	}
}

func serializingUpdate(f models.Format, matched int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Serializing,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing %d tracks as %s...", matched, f.Label()),
	}
}

func doneUpdate(r *ConversionResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%s ready: %d matched, %d skipped", r.Filename, len(r.Matched), len(r.Skipped)),
		Data:    r,
	}
}

func erroredUpdate(err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Errored,
		Message: fmt.Sprintf("Conversion failed: %v", err),
		Data:    err,
	}
}

func exportingUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Exporting,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Exporting,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%s)", step, total, name, path),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Exporting,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
