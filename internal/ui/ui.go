package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytexport/internal/formatter"
	"github.com/desertthunder/ytexport/internal/models"
	"github.com/desertthunder/ytexport/internal/services"
	"github.com/desertthunder/ytexport/internal/shared"
	"github.com/desertthunder/ytexport/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	FormatView
	ExportView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	source       services.SourceCatalog
	engine       *tasks.PlaylistEngine
	outputDir    string
	width        int
	height       int
	playlistList list.Model
	formatList   list.Model
	selected     *models.Playlist
	format       models.Format
	spinner      spinner.Model
	progressChan chan tasks.ProgressUpdate
	done         chan exportOutcome
	progress     tasks.ProgressUpdate
	outcome      *exportOutcome
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model. source must already be bound to a token; exports are written to outputDir.
func NewModel(ctx context.Context, source services.SourceCatalog, engine *tasks.PlaylistEngine, outputDir string) *Model {
	formats := list.New(formatItems(), list.NewDefaultDelegate(), 0, 0)
	formats.Title = "Export format"
	formats.SetFilteringEnabled(false)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.title.UnsetMarginBottom()

	return &Model{
		ctx:          ctx,
		view:         PlaylistListView,
		source:       source,
		engine:       engine,
		outputDir:    outputDir,
		playlistList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		formatList:   formats,
		spinner:      s,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init initializes the TUI by fetching playlists from Spotify.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		m.formatList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case FormatView:
			return m.handleFormatKeys(msg)
		case ExportView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != ExportView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsFetched:
		data := msg.data.(playlistsFetched)
		if data.err != nil {
			m.err = data.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(data.playlists))
		for i, pl := range data.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Spotify Playlists"
		m.playlistList.SetSize(m.width-4, m.height-8)
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgExportComplete:
		out := msg.data.(exportOutcome)
		m.outcome = &out
		m.view = ResultView
		m.progressChan = nil
		m.done = nil
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderList(m.playlistList, m.keys.enter, m.keys.quit)
	case FormatView:
		return m.renderList(m.formatList, m.keys.enter, m.keys.back, m.keys.quit)
	case ExportView:
		return m.renderExport()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

// Err returns the error that stopped the TUI, if any.
func (m *Model) Err() error {
	return m.err
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.enter):
			if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
				m.selected = &pl.playlist
				m.formatList.Title = fmt.Sprintf("Export '%s' as", pl.playlist.Name)
				m.view = FormatView
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleFormatKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if f, ok := m.formatList.SelectedItem().(formatItem); ok {
			m.format = f.format
			m.view = ExportView
			return m, tea.Batch(m.spinner.Tick, m.startExport())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.formatList, cmd = m.formatList.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = PlaylistListView
		m.selected = nil
		m.outcome = nil
		m.progress = tasks.ProgressUpdate{}
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case FormatView:
		m.formatList, cmd = m.formatList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.source.Playlists(m.ctx)
		return playlistsFetchedMsg(playlists, err)
	}
}

// startExport runs the conversion in the background. The goroutine posts its outcome on done
// before closing the progress channel.
func (m *Model) startExport() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 64)
	m.done = make(chan exportOutcome, 1)

	progress, done := m.progressChan, m.done
	req := models.ConversionRequest{PlaylistID: m.selected.ID, Format: m.format}

	go func() {
		defer close(progress)

		result, err := m.engine.Convert(m.ctx, m.source, req, progress)
		if err != nil {
			done <- exportOutcome{err: err}
			return
		}

		path, err := formatter.WriteExport(result.Body, result.Filename, m.outputDir)
		done <- exportOutcome{result: result, path: path, err: err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.done
	return func() tea.Msg {
		if progress == nil {
			return nil
		}
		update, ok := <-progress
		if !ok {
			return exportCompleteMsg(<-done)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderList(l list.Model, keys ...key.Binding) string {
	return fmt.Sprintf("%s\n\n%s", l.View(), m.help.ShortHelpView(keys))
}

func (m *Model) renderExport() string {
	title := styles.title.Render(fmt.Sprintf("Exporting '%s' as %s", m.selected.Name, m.format.Label()))

	var phase string
	switch m.progress.Phase {
	case tasks.Fetching:
		phase = "Fetching playlist from Spotify..."
	case tasks.Matching:
		phase = fmt.Sprintf("Matching tracks on YouTube Music (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Serializing:
		phase = "Writing file..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s %s\n%s\n\n%s",
		title, m.spinner.View(), phase, styles.help.Render(m.progress.Message), m.help.ShortHelpView([]key.Binding{m.keys.quit}))
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})

	if m.outcome == nil {
		return styles.err.Render("No result available") + "\n\n" + helpView
	}
	if m.outcome.err != nil {
		return styles.err.Render(fmt.Sprintf("Export failed: %v", m.outcome.err)) + "\n\n" + helpView
	}

	res := m.outcome.result
	total := len(res.Matched) + len(res.Skipped)

	var b strings.Builder
	b.WriteString(styles.ok.Render("✓ Export complete"))
	fmt.Fprintf(&b, "\n\nPlaylist: %s\nFile: %s\nMatched: %d/%d", res.Playlist.Name, m.outcome.path, len(res.Matched), total)

	var missed []tasks.SkippedTrack
	for _, s := range res.Skipped {
		if s.Reason == tasks.SkipNoMatch {
			missed = append(missed, s)
		}
	}
	if unavailable := len(res.Skipped) - len(missed); unavailable > 0 {
		fmt.Fprintf(&b, "\nUnavailable on Spotify: %d", unavailable)
	}
	if len(missed) > 0 {
		b.WriteString("\n\n" + styles.warn.Render(fmt.Sprintf("No match for %d tracks:", len(missed))))
		for _, s := range missed {
			fmt.Fprintf(&b, "\n  • %s - %s", shared.JoinArtists(s.Track.Artists), s.Track.Title)
		}
	}

	b.WriteString("\n\n" + helpView)
	return b.String()
}
