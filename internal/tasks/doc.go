// Package tasks turns a source playlist into a downloadable file with real-time progress reporting.
//
// # Conversion
//
// [PlaylistEngine.Convert] runs the phases in order:
//
//  1. [Fetching] : playlist metadata, then every item across all pages
//  2. [Matching] : one search per present track, title followed by the artists joined with ", "
//  3. [Serializing] : M3U or CSV through the formatter package
//  4. [Done] : the [ConversionResult] carries the body, filename and content type
//
// The format is validated before any catalog is contacted. Tracks that are unavailable, or that the match
// catalog has no result for, are skipped and listed in [ConversionResult.Skipped]. Any catalog error
// aborts the conversion; no partial output is produced.
//
// Matching may run several searches at once (see [NewPlaylistEngine]); results are always assembled
// in source order.
//
// # Bulk Export
//
// [PlaylistEngine.BulkExport] converts many playlists with a worker pool and a rate limiter, writing
// one file per playlist plus an export_manifest.json summary.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates. Updates use select with default
// to prevent blocking; a nil channel disables reporting.
package tasks
