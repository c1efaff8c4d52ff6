// Package ui is the terminal front end: a folder browser, a station list,
// and a player bar over the library store and the mpv transport. Everything
// that mutates the store happens on the bubbletea update loop.
package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/diamondburned/pulse/internal/muse"
	"github.com/diamondburned/pulse/internal/playlist"
	"github.com/diamondburned/pulse/internal/share"
	"github.com/diamondburned/pulse/internal/state"
)

// Transport is the slice of muse.Session the UI drives.
type Transport interface {
	PlayURL(url string) error
	SetPlay(playing bool) error
	SetVolume(v float64) error
	StopPlayback() error
}

// Publisher receives now-playing updates for desktop integration. A nil
// publisher is fine.
type Publisher interface {
	NowPlaying(name, url string, playing bool)
}

// shareBaseURL is where share links point; the web build of Pulse decodes
// the same parameter.
const shareBaseURL = "https://pulseos.fm/"

const listenerTickEvery = 8 * time.Second

// Status line tokens, straight from the Pulse branding.
const (
	statusIdle    = "SIGNAL_IDLE"
	statusSyncing = "SYNCING..."
	statusLive    = "LIVE_SIGNAL"
	statusLost    = "SIGNAL_LOST_404"
)

type view int

const (
	viewRoot view = iota
	viewFolder
)

// Model is the bubbletea model for the whole app.
type Model struct {
	store     *state.Store
	transport Transport
	publisher Publisher
	dataDir   string

	view   view
	cursor int

	searching bool
	search    string

	status    string
	icyTitle  string
	volume    float64
	playGen   uint64
	startedAt time.Time

	recorder *muse.Recorder
	notice   string

	spin          spinner.Model
	width, height int
}

// New builds the model. Call SetPublisher before running if desktop
// integration is wanted.
func New(store *state.Store, transport Transport, dataDir string) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		store:     store,
		transport: transport,
		dataDir:   dataDir,
		status:    statusIdle,
		volume:    0.7,
		spin:      sp,
	}
}

// SetPublisher wires a now-playing publisher; may be nil.
func (m *Model) SetPublisher(p Publisher) {
	m.publisher = p
}

// Messages.

type (
	listenerTickMsg time.Time

	streamReadyMsg struct{}
	streamEndMsg   struct{ reason string }
	pauseMsg       struct{ paused bool }
	titleMsg       struct{ title string }

	playFailedMsg struct {
		gen uint64
		err error
	}

	// PlayStationMsg asks the UI to play a station, e.g. one decoded from a
	// share link.
	PlayStationMsg struct{ Station playlist.Station }

	// PlayPauseMsg and StopMsg arrive from MPRIS.
	PlayPauseMsg struct{}
	StopMsg      struct{}
)

func listenerTick() tea.Cmd {
	return tea.Tick(listenerTickEvery, func(t time.Time) tea.Msg {
		return listenerTickMsg(t)
	})
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(listenerTick(), m.spin.Tick)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case listenerTickMsg:
		m.store.TickListeners()
		return m, listenerTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case streamReadyMsg:
		if m.store.ConfirmPlaying(m.playGen) {
			m.status = statusLive
			m.startedAt = time.Now()
			m.publish()
		}
		return m, nil

	case streamEndMsg:
		if m.store.FailPlayback(m.playGen) {
			m.status = statusLost
			m.icyTitle = ""
			m.publish()
		}
		return m, nil

	case playFailedMsg:
		if m.store.FailPlayback(msg.gen) {
			m.status = statusLost
			m.publish()
		}
		log.Warn().Err(msg.err).Msg("play request failed")
		return m, nil

	case pauseMsg:
		m.store.SetPlaying(!msg.paused)
		m.publish()
		return m, nil

	case titleMsg:
		m.icyTitle = msg.title
		return m, nil

	case PlayStationMsg:
		return m, m.playStation(msg.Station)

	case PlayPauseMsg:
		return m, m.togglePlay()

	case StopMsg:
		m.stopPlayback()
		return m, nil
	}

	return m, nil
}

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.updateSearchKey(msg)
	}

	m.notice = ""

	switch msg.String() {
	case "ctrl+c", "q":
		if rec := m.recorder; rec != nil {
			rec.Stop()
		}
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < m.rowCount()-1 {
			m.cursor++
		}

	case "enter":
		return m, m.openRow()

	case "esc", "backspace":
		if m.view == viewFolder {
			m.view = viewRoot
			m.cursor = 0
			m.search = ""
			m.store.ClearSelection()
		}

	case "/":
		if m.view == viewFolder {
			m.searching = true
		}

	case "f":
		if st, ok := m.stationUnderCursor(); ok {
			m.store.ToggleFavorite(st)
		}

	case "F":
		m.store.SelectFavorites()
		m.view = viewFolder
		m.cursor = 0
		m.search = ""

	case "d":
		m.deleteRow()

	case " ":
		return m, m.togglePlay()

	case "x":
		m.stopPlayback()

	case "+", "=":
		return m, m.setVolume(m.volume + 0.05)

	case "-":
		return m, m.setVolume(m.volume - 0.05)

	case "r":
		m.toggleRecord()

	case "s":
		m.shareCurrent()

	case "e":
		m.exportFolder()
	}

	return m, nil
}

func (m *Model) updateSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.searching = false
	case "backspace":
		if len(m.search) > 0 {
			m.search = m.search[:len(m.search)-1]
		}
	default:
		if msg.Type == tea.KeyRunes {
			m.search += string(msg.Runes)
		}
	}

	m.cursor = 0
	return m, nil
}

// rowCount is the number of selectable rows in the current view. The root
// view shows the favorites entry above the folders.
func (m *Model) rowCount() int {
	if m.view == viewRoot {
		return len(m.store.Folders()) + 1
	}
	return len(m.visibleStations())
}

// sortedFolders lists the library with the busiest folders first, the way
// the trend sidebar orders them.
func (m *Model) sortedFolders() []playlist.Folder {
	folders := append([]playlist.Folder(nil), m.store.Folders()...)
	sort.SliceStable(folders, func(i, j int) bool {
		return folders[i].Listeners > folders[j].Listeners
	})
	return folders
}

func (m *Model) visibleStations() []playlist.Station {
	f, ok := m.store.SelectedFolder()
	if !ok {
		return nil
	}

	if m.search == "" {
		return f.Stations
	}

	var visible []playlist.Station
	for _, st := range f.Stations {
		if fuzzyMatch(m.search, st.Name) {
			visible = append(visible, st)
		}
	}
	return visible
}

func (m *Model) stationUnderCursor() (playlist.Station, bool) {
	if m.view != viewFolder {
		return playlist.Station{}, false
	}

	stations := m.visibleStations()
	if m.cursor < 0 || m.cursor >= len(stations) {
		return playlist.Station{}, false
	}

	return stations[m.cursor], true
}

func (m *Model) openRow() tea.Cmd {
	if m.view == viewRoot {
		if m.cursor == 0 {
			m.store.SelectFavorites()
		} else {
			folders := m.sortedFolders()
			ix := m.cursor - 1
			if ix >= len(folders) {
				return nil
			}
			m.store.SelectFolder(folders[ix].ID)
		}

		m.view = viewFolder
		m.cursor = 0
		m.search = ""
		return nil
	}

	st, ok := m.stationUnderCursor()
	if !ok {
		return nil
	}

	// Hitting enter on the playing station toggles pause instead.
	if current, ok := m.store.CurrentStation(); ok && current.ID == st.ID {
		return m.togglePlay()
	}

	return m.playStation(st)
}

func (m *Model) deleteRow() {
	if m.view == viewRoot {
		if m.cursor == 0 {
			return // the favorites entry is not a real folder
		}

		folders := m.sortedFolders()
		ix := m.cursor - 1
		if ix >= len(folders) {
			return
		}

		if err := m.store.DeleteFolder(folders[ix].ID); err != nil {
			m.notice = "CORE_DIRECTORY_LOCKED"
		}

		if m.cursor >= m.rowCount() {
			m.cursor = m.rowCount() - 1
		}
		return
	}

	f, ok := m.store.SelectedFolder()
	if !ok {
		return
	}

	st, ok := m.stationUnderCursor()
	if !ok {
		return
	}

	if f.ID == state.FavoritesFolderID {
		m.store.ToggleFavorite(st) // removing from the pseudo-folder unfavorites
	} else {
		m.store.DeleteStation(f.ID, st.ID)
	}

	if m.cursor >= m.rowCount() && m.cursor > 0 {
		m.cursor--
	}
}

func (m *Model) playStation(st playlist.Station) tea.Cmd {
	gen := m.store.PlayStation(st)
	m.playGen = gen
	m.status = statusSyncing
	m.icyTitle = ""
	m.publish()

	url := st.URL
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		if err := m.transport.PlayURL(url); err != nil {
			return playFailedMsg{gen: gen, err: err}
		}
		return nil
	})
}

func (m *Model) togglePlay() tea.Cmd {
	if _, ok := m.store.CurrentStation(); !ok {
		return nil
	}

	if m.store.IsLoading() {
		return nil
	}

	playing := !m.store.IsPlaying()
	if err := m.transport.SetPlay(playing); err != nil {
		log.Warn().Err(err).Msg("failed to toggle playback")
		return nil
	}

	m.store.SetPlaying(playing)
	m.publish()
	return nil
}

func (m *Model) stopPlayback() {
	if err := m.transport.StopPlayback(); err != nil {
		log.Warn().Err(err).Msg("failed to stop playback")
	}

	m.store.Stop()
	m.status = statusIdle
	m.icyTitle = ""
	m.publish()
}

func (m *Model) setVolume(v float64) tea.Cmd {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}

	m.volume = v
	if err := m.transport.SetVolume(v); err != nil {
		log.Warn().Err(err).Msg("failed to set volume")
	}
	return nil
}

func (m *Model) toggleRecord() {
	if rec := m.recorder; rec != nil {
		m.recorder = nil
		if err := rec.Stop(); err != nil {
			log.Warn().Err(err).Msg("recording ended with error")
		}
		m.notice = "REC_SAVED " + filepath.Base(rec.Path)
		return
	}

	current, ok := m.store.CurrentStation()
	if !ok || !m.store.IsPlaying() {
		m.notice = "SIGNAL_REQUIRED"
		return
	}

	name := strings.ReplaceAll(current.Name, "/", "-")
	path := filepath.Join(m.dataDir, fmt.Sprintf("PULSE_REC_%s_%d.mp3", name, time.Now().Unix()))

	rec, err := muse.StartRecording(context.Background(), current.URL, path)
	if err != nil {
		log.Warn().Err(err).Msg("failed to start recording")
		m.notice = "REC_FAILED"
		return
	}

	m.recorder = rec
	m.notice = "REC_LIVE"
}

func (m *Model) exportFolder() {
	f, ok := m.store.SelectedFolder()
	if !ok {
		return
	}

	path := filepath.Join(m.dataDir, strings.ToLower(f.Name)+".m3u")

	out, err := os.Create(path)
	if err != nil {
		log.Warn().Err(err).Msg("failed to create export file")
		m.notice = "EXPORT_FAILED"
		return
	}
	defer out.Close()

	if err := playlist.Write(f, out); err != nil {
		log.Warn().Err(err).Msg("failed to export folder")
		m.notice = "EXPORT_FAILED"
		return
	}

	m.notice = "EXPORTED " + filepath.Base(path)
}

func (m *Model) shareCurrent() {
	current, ok := m.store.CurrentStation()
	if !ok {
		return
	}

	link, err := share.Link(shareBaseURL, current)
	if err != nil {
		log.Warn().Err(err).Msg("failed to build share link")
		return
	}

	m.notice = link
}

func (m *Model) publish() {
	if m.publisher == nil {
		return
	}

	current, ok := m.store.CurrentStation()
	if !ok {
		m.publisher.NowPlaying("", "", false)
		return
	}

	m.publisher.NowPlaying(current.Name, current.URL, m.store.IsPlaying())
}
