package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/ytexport/internal/formatter"
	"github.com/desertthunder/ytexport/internal/models"
	"github.com/desertthunder/ytexport/internal/services"
	"github.com/desertthunder/ytexport/internal/shared"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     models.Format // Export format: m3u or csv
	OutputDir  string        // Base output directory (default: ytexport_{epoch})
	NumWorkers int           // Playlists converted at once (default: 2)
	RateLimit  float64       // Conversions started per second (default: 1)
}

// PlaylistExportResult is the outcome of one playlist in a bulk export.
type PlaylistExportResult struct {
	PlaylistID   string `json:"playlist_id"`
	PlaylistName string `json:"playlist_name"`
	Path         string `json:"path,omitempty"`
	Matched      int    `json:"matched"`
	Skipped      int    `json:"skipped"`
	Success      bool   `json:"success"`
	Error        error  `json:"-"`
	ErrorMessage string `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	TotalPlaylists    int                    `json:"total_playlists"`
	SuccessfulExports int                    `json:"successful_exports"`
	FailedExports     int                    `json:"failed_exports"`
	OutputDirectory   string                 `json:"output_directory"`
	Format            models.Format          `json:"format"`
	Results           []PlaylistExportResult `json:"results"`
	ManifestPath      string                 `json:"-"`
}

// BulkExport converts several playlists with a worker pool and writes each file into opts.OutputDir.
//
// Conversions are started no faster than opts.RateLimit per second. A failing playlist is recorded in the
// result and does not stop the others. A manifest summarizing the run is written next to the files.
func (e *PlaylistEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	source services.SourceCatalog,
	ids []string,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}
	if !opts.Format.Valid() {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidFormat, opts.Format)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("ytexport_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 2
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalPlaylists:  len(ids),
		OutputDirectory: opts.OutputDir,
		Format:          opts.Format,
		Results:         make([]PlaylistExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan string)
	results := make(chan PlaylistExportResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, source, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			select {
			case jobs <- id:
				e.sendProgress(prog, exportingUpdate(i+1, len(ids), id))
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(ids), res.PlaylistName, res.Path))
		} else {
			result.FailedExports++
			res.ErrorMessage = res.Error.Error()
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), res.PlaylistName, res.Error))
		}
		result.Results = append(result.Results, res)
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker converts playlists from the jobs channel until it is closed.
func (e *PlaylistEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	source services.SourceCatalog,
	jobs <-chan string,
	results chan<- PlaylistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for id := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- e.exportSinglePlaylist(ctx, source, id, opts)
	}
}

// exportSinglePlaylist converts one playlist and writes it into the output directory.
func (e *PlaylistEngine) exportSinglePlaylist(
	ctx context.Context,
	source services.SourceCatalog,
	id string,
	opts BulkExportOpts,
) PlaylistExportResult {
	res := PlaylistExportResult{PlaylistID: id, PlaylistName: fmt.Sprintf("Unknown (%s)", id)}

	conv, err := e.Convert(ctx, source, models.ConversionRequest{PlaylistID: id, Format: opts.Format}, nil)
	if err != nil {
		res.Error = err
		return res
	}
	res.PlaylistName = conv.Playlist.Name

	path, err := formatter.WriteExport(conv.Body, uniqueFilename(opts.OutputDir, conv), opts.OutputDir)
	if err != nil {
		res.Error = err
		return res
	}

	res.Path = path
	res.Matched = len(conv.Matched)
	res.Skipped = len(conv.Skipped)
	res.Success = true
	return res
}

// uniqueFilename prefixes the playlist id when two playlists sanitize to the same name.
func uniqueFilename(dir string, conv *ConversionResult) string {
	if _, err := os.Stat(filepath.Join(dir, conv.Filename)); err == nil {
		return shared.SanitizeFilename(conv.Playlist.ID) + "_" + conv.Filename
	}
	return conv.Filename
}

func writeManifest(result *BulkExportResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
