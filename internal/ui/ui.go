package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/plshuffle/internal/models"
	"github.com/desertthunder/plshuffle/internal/services"
	"github.com/desertthunder/plshuffle/internal/shared"
	"github.com/desertthunder/plshuffle/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	ConfirmView
	ShuffleView
	ResultView
)

// Shuffler runs one shuffle; satisfied by [tasks.Replicator].
type Shuffler interface {
	Replicate(ctx context.Context, uris []string, progress chan<- tasks.ProgressUpdate) (*tasks.ReplicateResult, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	catalog      services.Catalog
	shuffler     Shuffler
	logger       *log.Logger
	width        int
	height       int
	playlistList list.Model
	listReady    bool
	playlists    []models.Playlist
	selected     *playlistItem
	notice       string
	progressChan chan tasks.ProgressUpdate
	doneChan     chan Msg
	progress     tasks.ProgressUpdate
	spinner      spinner.Model
	bar          progress.Model
	result       *tasks.ReplicateResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, catalog services.Catalog, shuffler Shuffler, logger *log.Logger) *Model {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Model{
		ctx:      ctx,
		view:     PlaylistListView,
		catalog:  catalog,
		shuffler: shuffler,
		logger:   logger,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.ok)),
		bar:      progress.New(progress.WithDefaultGradient()),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init initializes the TUI by fetching the user's playlists.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.listReady {
			m.playlistList.SetSize(max(msg.Width-4, 0), max(msg.Height-8, 0))
		}
		m.bar.Width = max(min(msg.Width-8, 60), 10)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ShuffleView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != ShuffleView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsFetched:
		data := msg.data.(playlistsFetched)
		if data.err != nil {
			m.logger.Error("failed to list playlists", "err", data.err)
			m.err = data.err
			return m, nil
		}
		m.playlists = data.playlists
		m.playlistList = newPlaylistList(data.playlists, m.width, m.height)
		m.listReady = true
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgShuffleComplete:
		data := msg.data.(shuffleComplete)
		m.result = data.result
		m.err = data.err
		m.progressChan = nil
		m.doneChan = nil
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view == PlaylistListView {
		return styles.Err(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case ConfirmView:
		return m.renderConfirm()
	case ShuffleView:
		return m.renderShuffle()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

// State reports the current view state.
func (m *Model) State() ViewState {
	return m.view
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.listReady {
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	filtering := m.playlistList.FilterState() == list.Filtering
	if !filtering {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.pick):
			m.notice = ""
			item, ok := m.playlistList.SelectedItem().(playlistItem)
			if !ok {
				return m, nil
			}
			if !shared.CanShuffle([]string{item.uri()}) {
				m.notice = "That selection can't be shuffled."
				return m, nil
			}
			m.selected = &item
			m.view = ConfirmView
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.view = PlaylistListView
		m.selected = nil
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = ShuffleView
		m.progress = tasks.ProgressUpdate{}
		return m, tea.Batch(m.spinner.Tick, m.startShuffle())
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.again):
		m.view = PlaylistListView
		m.selected = nil
		m.result = nil
		m.err = nil
		// counts changed if the new playlist landed in the library
		return m, m.fetchPlaylists()
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view != PlaylistListView || !m.listReady {
		return m, nil
	}
	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.catalog.Playlists(m.ctx)
		return playlistsFetchedMsg(playlists, err)
	}
}

func (m *Model) startShuffle() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 64)
	m.doneChan = make(chan Msg, 1)

	progressChan, doneChan := m.progressChan, m.doneChan
	uri := m.selected.uri()
	go func() {
		result, err := m.shuffler.Replicate(m.ctx, []string{uri}, progressChan)
		close(progressChan)
		doneChan <- shuffleCompleteMsg(result, err)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan, doneChan := m.progressChan, m.doneChan
	return func() tea.Msg {
		if update, ok := <-progressChan; ok {
			return progressUpdateMsg(update)
		}
		return <-doneChan
	}
}

func (m *Model) renderPlaylistList() string {
	if !m.listReady {
		return fmt.Sprintf("%s Loading playlists...", m.spinner.View())
	}
	helpView := m.help.ShortHelpView(m.keys.footer(PlaylistListView))
	if m.notice != "" {
		return fmt.Sprintf("%s\n%s\n\n%s", m.playlistList.View(), styles.Warn(m.notice), helpView)
	}
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	p := m.selected.playlist
	title := styles.Title(fmt.Sprintf("Shuffle '%s'?", p.Name))
	info := fmt.Sprintf("\nTracks: %d\nNew playlist: %s\n%s\n",
		p.TrackCount, p.Name+tasks.NameSuffix, styles.Help("The original playlist is left as it is."))

	helpView := m.help.ShortHelpView(m.keys.footer(ConfirmView))

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderShuffle() string {
	title := styles.Title("Shuffling Playlist")

	status := tasks.StartedMessage
	if m.progress.Message != "" && m.progress.Phase != tasks.Started {
		status = m.progress.Message
	}

	percent := 0.0
	if m.progress.Phase == tasks.WriteBatch && m.progress.Total > 0 {
		percent = float64(m.progress.Step) / float64(m.progress.Total)
	}

	return fmt.Sprintf("%s\n\n%s %s\n\n%s", title, m.spinner.View(), status, m.bar.ViewAs(percent))
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView(m.keys.footer(ResultView))

	if m.err != nil {
		body := styles.Err(tasks.FailedMessage)
		if r := m.result; r != nil && r.DestID != "" {
			if r.CleanedUp {
				body += "\n\n" + styles.Help(fmt.Sprintf("The partial playlist '%s' was removed.", r.DestName))
			} else {
				body += "\n\n" + styles.Warn(fmt.Sprintf("'%s' was kept with %d of %d tracks.", r.DestName, r.Written, r.Total))
			}
		}
		return fmt.Sprintf("%s\n\n%s", body, helpView)
	}

	if m.result == nil {
		return styles.Err("No result available") + "\n\n" + helpView
	}

	title := styles.OK("✓ " + tasks.SucceededMessage)
	info := fmt.Sprintf("\nSource: %s (%d tracks)\nNew playlist: %s\nBatches: %d",
		m.result.SourceName, m.result.Total, m.result.DestName, m.result.Batches)

	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}
