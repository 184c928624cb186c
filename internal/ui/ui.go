package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tunebox/internal/models"
	"github.com/desertthunder/tunebox/internal/stores"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SongListView ViewState = iota
	PlaylistListView
	PlaylistSongsView
)

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	songs     *stores.SongStore
	playlists *stores.PlaylistStore
	notices   <-chan stores.Notification

	width  int
	height int

	songList     list.Model
	playlistList list.Model
	trackList    list.Model
	selected     *models.Playlist

	status stores.Notification
	err    error
	help   help.Model
	keys   keyMap
}

type songsLoadedMsg struct {
	err error
}

type playlistsLoadedMsg struct {
	err error
}

type playlistOpenedMsg struct {
	playlist models.Playlist
	songs    []models.Song
	err      error
}

type noticeMsg stores.Notification

// NewModel creates a new TUI model over the song and playlist stores. The
// notices channel is optional; when set, store notifications show up in the
// status line.
func NewModel(ctx context.Context, songs *stores.SongStore, playlists *stores.PlaylistStore, notices <-chan stores.Notification) *Model {
	return &Model{
		ctx:       ctx,
		view:      SongListView,
		songs:     songs,
		playlists: playlists,
		notices:   notices,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init fetches both mirrors and starts listening for notifications.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.fetchSongs(), m.fetchPlaylists()}
	if m.notices != nil {
		cmds = append(cmds, m.waitForNotice())
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.songList.SetSize(msg.Width-4, msg.Height-8)
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SongListView:
			return m.handleSongListKeys(msg)
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case PlaylistSongsView:
			return m.handlePlaylistSongsKeys(msg)
		}

	case songsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.songList = newSongList("Songs", m.songs.FilteredSongs(), m.width, m.height)
		return m, nil

	case playlistsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		playlists := m.playlists.Playlists()
		items := make([]list.Item, len(playlists))
		for i, pl := range playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Playlists"
		m.playlistList.SetSize(m.width-4, m.height-8)
		return m, nil

	case playlistOpenedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = PlaylistListView
			return m, nil
		}
		m.err = nil
		m.selected = &msg.playlist
		m.trackList = newSongList(fmt.Sprintf("Songs in '%s'", msg.playlist.Name), msg.songs, m.width, m.height)
		m.view = PlaylistSongsView
		return m, nil

	case noticeMsg:
		m.status = stores.Notification(msg)
		return m, m.waitForNotice()
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
	}

	var body string
	switch m.view {
	case SongListView:
		body = m.renderSongList()
	case PlaylistListView:
		body = m.renderPlaylistList()
	case PlaylistSongsView:
		body = m.renderPlaylistSongs()
	}

	if status := m.renderStatus(); status != "" {
		body = fmt.Sprintf("%s\n%s", body, status)
	}
	return body
}

func (m *Model) handleSongListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The list's own filter input consumes keys while active.
	if m.songList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.songList, cmd = m.songList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.view = PlaylistListView
		return m, nil
	case "r":
		return m, m.fetchSongs()
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.playlistList, cmd = m.playlistList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab", "esc":
		m.view = SongListView
		return m, nil
	case "r":
		return m, m.fetchPlaylists()
	case "enter":
		selected := m.playlistList.SelectedItem()
		if selected != nil {
			if pl, ok := selected.(playlistItem); ok {
				return m, m.openPlaylist(pl.playlist)
			}
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handlePlaylistSongsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = PlaylistListView
		m.selected = nil
		return m, nil
	case "r":
		if m.selected != nil {
			return m, m.openPlaylist(*m.selected)
		}
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SongListView:
		m.songList, cmd = m.songList.Update(msg)
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case PlaylistSongsView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchSongs() tea.Cmd {
	return func() tea.Msg {
		err := m.songs.FetchAll(m.ctx)
		return songsLoadedMsg{err: err}
	}
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		err := m.playlists.FetchAll(m.ctx)
		return playlistsLoadedMsg{err: err}
	}
}

func (m *Model) openPlaylist(playlist models.Playlist) tea.Cmd {
	return func() tea.Msg {
		songs, err := m.playlists.GetSongs(m.ctx, playlist.ID)
		return playlistOpenedMsg{playlist: playlist, songs: songs, err: err}
	}
}

func (m *Model) waitForNotice() tea.Cmd {
	return func() tea.Msg {
		note, ok := <-m.notices
		if !ok {
			return nil
		}
		return noticeMsg(note)
	}
}

func newSongList(title string, songs []models.Song, width, height int) list.Model {
	items := make([]list.Item, len(songs))
	for i, song := range songs {
		items[i] = songItem{song: song}
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetSize(width-4, height-8)
	return l
}

func (m *Model) renderSongList() string {
	helpKeys := []key.Binding{m.keys.tab, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.songList.View(), helpView)
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.tab, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderPlaylistSongs() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderStatus() string {
	if m.status.Message == "" {
		return ""
	}
	switch m.status.Level {
	case stores.LevelError:
		return styles.err.Render(m.status.Message)
	case stores.LevelWarn:
		return styles.warn.Render(m.status.Message)
	case stores.LevelSuccess:
		return styles.ok.Render(m.status.Message)
	default:
		return styles.help.Render(m.status.Message)
	}
}
