package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/ytexport/internal/formatter"
	"github.com/desertthunder/ytexport/internal/models"
	"github.com/desertthunder/ytexport/internal/services"
	"github.com/desertthunder/ytexport/internal/shared"
	"github.com/desertthunder/ytexport/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export converts playlists to files.
//
// A single --id is written to --output (a file or a directory). Several ids, or --all, run a bulk export into
// the --output directory.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.StringSlice("id")
	all := cmd.Bool("all")

	if len(ids) == 0 && !all {
		return fmt.Errorf("%w: --id or --all is required", shared.ErrMissingArgument)
	}

	format := models.ParseFormat(cmd.String("format"))
	if !format.Valid() {
		return fmt.Errorf("%w: %q (expected m3u or csv)", shared.ErrInvalidFormat, cmd.String("format"))
	}

	source, err := r.source(ctx)
	if err != nil {
		return err
	}
	engine := r.engine()

	if all {
		playlists, err := source.Playlists(ctx)
		if err != nil {
			return fmt.Errorf("failed to list playlists: %w", err)
		}
		ids = make([]string, 0, len(playlists))
		for _, p := range playlists {
			ids = append(ids, p.ID)
		}
	}

	if len(ids) == 1 && !all {
		return r.exportOne(ctx, engine, source, ids[0], format, cmd.String("output"))
	}

	return r.exportMany(ctx, engine, source, ids, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	})
}

func (r *Runner) exportOne(
	ctx context.Context,
	engine *tasks.PlaylistEngine,
	source services.SourceCatalog,
	id string,
	format models.Format,
	output string,
) error {
	progress := make(chan tasks.ProgressUpdate, 32)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.printProgress(progress)
	}()

	result, err := engine.Convert(ctx, source, models.ConversionRequest{PlaylistID: id, Format: format}, progress)
	close(progress)
	wg.Wait()
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	path, err := formatter.WriteExport(result.Body, result.Filename, output)
	if err != nil {
		return err
	}

	r.writePlainln("✓ Playlist exported to %s", path)
	r.writePlain("  Playlist: %s\n", result.Playlist.Name)
	r.writePlain("  Matched: %d/%d\n", len(result.Matched), len(result.Matched)+len(result.Skipped))
	r.printSkipped(result.Skipped)
	return nil
}

func (r *Runner) exportMany(
	ctx context.Context,
	engine *tasks.PlaylistEngine,
	source services.SourceCatalog,
	ids []string,
	opts tasks.BulkExportOpts,
) error {
	r.writePlainHeader(fmt.Sprintf("Exporting %d playlists as %s", len(ids), opts.Format.Label()))

	progress := make(chan tasks.ProgressUpdate, 32)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.printProgress(progress)
	}()

	result, err := engine.BulkExport(ctx, progress, source, ids, opts)
	close(progress)
	wg.Wait()
	if err != nil && result == nil {
		return fmt.Errorf("bulk export failed: %w", err)
	}

	r.writePlainln("Exported %d/%d playlists to %s", result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
	for _, res := range result.Results {
		if !res.Success {
			r.writePlain("  ✗ %s: %s\n", res.PlaylistName, res.ErrorMessage)
		}
	}
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}
	return err
}

// printProgress writes phase changes and completions until progress is closed.
func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate) {
	last := tasks.Phase(-1)
	for u := range progress {
		switch {
		case u.Phase == tasks.Matching && u.Step > 0:
			r.logger.Debug(u.Message, "step", u.Step, "total", u.Total)
			if u.Step == u.Total {
				r.writePlain("  %s\n", u.Message)
			}
		case u.Phase == tasks.Exporting || u.Phase != last:
			r.writePlain("→ %s\n", u.Message)
		}
		last = u.Phase
	}
}

func (r *Runner) printSkipped(skipped []tasks.SkippedTrack) {
	var unavailable int
	for _, s := range skipped {
		if s.Reason == tasks.SkipUnavailable {
			unavailable++
			continue
		}
		r.writePlain("  ⚠ No match: %s - %s\n", shared.JoinArtists(s.Track.Artists), s.Track.Title)
	}
	if unavailable > 0 {
		r.writePlain("  Skipped %d unavailable or local tracks\n", unavailable)
	}
}
