// package tasks implements the playlist conversion pipeline.
//
// A conversion fetches a source playlist, matches every track against the match catalog and serializes
// the matches. Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytexport/internal/formatter"
	"github.com/desertthunder/ytexport/internal/models"
	"github.com/desertthunder/ytexport/internal/services"
	"github.com/desertthunder/ytexport/internal/shared"
	"golang.org/x/sync/errgroup"
)

// SkipReason explains why a source track is missing from the output.
type SkipReason string

const (
	SkipUnavailable SkipReason = "unavailable" // null item or local file
	SkipNoMatch     SkipReason = "no_match"    // the match catalog returned nothing
)

// SkippedTrack records a source track left out of the output.
type SkippedTrack struct {
	Position int // zero-based position in the source playlist
	Track    models.SourceTrack
	Reason   SkipReason
}

// ConversionResult is a serialized playlist ready to be downloaded or written to disk.
type ConversionResult struct {
	Playlist    models.Playlist
	Format      models.Format
	Filename    string
	ContentType string
	Body        []byte
	Matched     []models.MatchedTrack
	Skipped     []SkippedTrack
}

// PlaylistEngine runs conversions against a match catalog.
//
// The source catalog is passed per call since it is bound to the requesting user's token.
type PlaylistEngine struct {
	matcher     services.MatchCatalog
	concurrency int
	logger      *log.Logger
}

// NewPlaylistEngine creates a new PlaylistEngine.
//
// concurrency bounds the number of searches in flight; values below 1 mean one at a time.
func NewPlaylistEngine(matcher services.MatchCatalog, concurrency int, logger *log.Logger) *PlaylistEngine {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &PlaylistEngine{
		matcher:     matcher,
		concurrency: concurrency,
		logger:      shared.WithLogger(logger, "component", "engine"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// ValidateRequest checks a request before any catalog is contacted.
//
// An unsupported format is reported as [shared.ErrInvalidFormat].
func ValidateRequest(req models.ConversionRequest) error {
	if !req.Format.Valid() {
		return fmt.Errorf("%w: %q", shared.ErrInvalidFormat, req.Format)
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	return nil
}

// Convert runs a full conversion of req.PlaylistID read through source.
//
// Phases run in order: fetching, matching, serializing. Any catalog error aborts the whole conversion
// and no partial output is returned. Tracks without a match are skipped and reported in the result.
func (e *PlaylistEngine) Convert(
	ctx context.Context,
	source services.SourceCatalog,
	req models.ConversionRequest,
	progress chan<- ProgressUpdate,
) (*ConversionResult, error) {
	result, err := e.convert(ctx, source, req, progress)
	if err != nil {
		e.sendProgress(progress, erroredUpdate(err))
		return nil, err
	}
	e.sendProgress(progress, doneUpdate(result))
	return result, nil
}

func (e *PlaylistEngine) convert(
	ctx context.Context,
	source services.SourceCatalog,
	req models.ConversionRequest,
	progress chan<- ProgressUpdate,
) (*ConversionResult, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if source == nil || e.matcher == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	logger := e.logger.With("playlist", req.PlaylistID, "format", req.Format)

	e.sendProgress(progress, fetchingUpdate(req.PlaylistID))
	playlist, err := source.PlaylistMeta(ctx, req.PlaylistID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist: %w", err)
	}

	tracks, err := source.AllTracks(ctx, req.PlaylistID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tracks: %w", err)
	}
	e.sendProgress(progress, fetchedUpdate(*playlist, len(tracks)))
	logger.Info("fetched playlist", "name", playlist.Name, "tracks", len(tracks))

	matched, skipped, err := e.match(ctx, tracks, progress)
	if err != nil {
		return nil, err
	}
	for _, s := range skipped {
		if s.Reason == SkipNoMatch {
			logger.Warn("no match found", "title", s.Track.Title, "artists", shared.JoinArtists(s.Track.Artists))
		} else {
			logger.Debug("skipping unavailable track", "position", s.Position)
		}
	}

	e.sendProgress(progress, serializingUpdate(req.Format, len(matched)))
	body, err := formatter.Encode(req.Format, *playlist, matched)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize playlist: %w", err)
	}

	logger.Info("conversion complete", "matched", len(matched), "skipped", len(skipped), "bytes", len(body))
	return &ConversionResult{
		Playlist:    *playlist,
		Format:      req.Format,
		Filename:    formatter.Filename(*playlist, req.Format),
		ContentType: req.Format.ContentType(),
		Body:        body,
		Matched:     matched,
		Skipped:     skipped,
	}, nil
}

// match searches every present track and returns matches and skips in source order.
//
// Up to e.concurrency searches run at once. The first search error cancels the rest.
func (e *PlaylistEngine) match(
	ctx context.Context,
	tracks []models.SourceTrack,
	progress chan<- ProgressUpdate,
) ([]models.MatchedTrack, []SkippedTrack, error) {
	type outcome struct {
		id    string
		found bool
	}

	total := len(tracks)
	outcomes := make([]outcome, total)
	e.sendProgress(progress, matchingUpdate(0, total, nil))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, t := range tracks {
		if !t.Present {
			continue
		}
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			query := services.BuildQuery(t.Title, t.Artists)
			id, found, err := e.matcher.SearchTopMatch(gctx, query)
			if err != nil {
				return fmt.Errorf("failed to search %q: %w", query, err)
			}

			outcomes[i] = outcome{id: id, found: found}
			e.sendProgress(progress, matchingUpdate(i+1, total, &t))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	matched := make([]models.MatchedTrack, 0, total)
	var skipped []SkippedTrack
	for i, t := range tracks {
		switch {
		case !t.Present:
			skipped = append(skipped, SkippedTrack{Position: i, Track: t, Reason: SkipUnavailable})
		case !outcomes[i].found:
			skipped = append(skipped, SkippedTrack{Position: i, Track: t, Reason: SkipNoMatch})
		default:
			matched = append(matched, models.MatchedTrack{
				Title:           t.Title,
				Artists:         shared.JoinArtists(t.Artists),
				DurationSeconds: t.DurationSeconds,
				MatchID:         outcomes[i].id,
			})
		}
	}

	return matched, skipped, nil
}
