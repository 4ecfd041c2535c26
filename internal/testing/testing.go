// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/ytexport/internal/models"
)

// FakeSource is an in-memory source catalog.
type FakeSource struct {
	Playlist    models.Playlist
	Tracks      []models.SourceTrack
	Library     []models.Playlist
	MetaErr     error
	TracksErr   error
	PlaylistErr error

	mu    sync.Mutex
	calls []string
}

func (f *FakeSource) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

// Calls returns the names of the methods called so far, in order.
func (f *FakeSource) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeSource) PlaylistMeta(ctx context.Context, playlistID string) (*models.Playlist, error) {
	f.record("PlaylistMeta")
	if f.MetaErr != nil {
		return nil, f.MetaErr
	}
	p := f.Playlist
	if p.ID == "" {
		p.ID = playlistID
	}
	return &p, nil
}

func (f *FakeSource) AllTracks(ctx context.Context, playlistID string) ([]models.SourceTrack, error) {
	f.record("AllTracks")
	if f.TracksErr != nil {
		return nil, f.TracksErr
	}
	return f.Tracks, nil
}

func (f *FakeSource) Playlists(ctx context.Context) ([]models.Playlist, error) {
	f.record("Playlists")
	if f.PlaylistErr != nil {
		return nil, f.PlaylistErr
	}
	return f.Library, nil
}

// FakeMatcher is an in-memory match catalog keyed by query text.
//
// Queries missing from Matches are misses; queries in Errors fail with the mapped error.
type FakeMatcher struct {
	Matches map[string]string
	Errors  map[string]error

	mu      sync.Mutex
	queries []string
}

func (f *FakeMatcher) SearchTopMatch(ctx context.Context, query string) (string, bool, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if err, ok := f.Errors[query]; ok {
		return "", false, err
	}
	id, ok := f.Matches[query]
	return id, ok, nil
}

// Queries returns every query received. Order follows arrival, which is nondeterministic under concurrency.
func (f *FakeMatcher) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
