package ui

import (
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/diamondburned/pulse/internal/playlist"
	"github.com/diamondburned/pulse/internal/state"
)

// fakeTransport records calls and can be told to fail specific URLs.
type fakeTransport struct {
	loaded   []string
	failURLs map[string]bool
}

func (f *fakeTransport) PlayURL(url string) error {
	if f.failURLs[url] {
		return errors.New("connection refused")
	}
	f.loaded = append(f.loaded, url)
	return nil
}

func (f *fakeTransport) SetPlay(bool) error      { return nil }
func (f *fakeTransport) SetVolume(float64) error { return nil }
func (f *fakeTransport) StopPlayback() error     { return nil }

type nullStorage struct{}

func (nullStorage) Load(string) ([]byte, error) { return nil, state.ErrNotFound }
func (nullStorage) Save(string, []byte) error   { return nil }

func newTestModel(t *testing.T) (*Model, *fakeTransport) {
	t.Helper()

	store := state.NewStore(nullStorage{})
	store.Hydrate()

	transport := &fakeTransport{failURLs: map[string]bool{}}
	return New(store, transport, t.TempDir()), transport
}

// drain runs a command tree and feeds every resulting message back in.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()

	if cmd == nil {
		return
	}

	msg := cmd()
	if msg == nil {
		return
	}

	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, cmd := range batch {
			drain(t, m, cmd)
		}
		return
	}

	// The spinner re-ticks itself forever; don't follow it.
	if _, ok := msg.(spinner.TickMsg); ok {
		return
	}

	_, next := m.Update(msg)
	drain(t, m, next)
}

func TestPlayStationReady(t *testing.T) {
	m, transport := newTestModel(t)

	st := playlist.Station{ID: playlist.NewID(), Name: "Nightride FM", URL: "https://stream.nightride.fm/nightride.mp3"}
	drain(t, m, m.playStation(st))

	if len(transport.loaded) != 1 || transport.loaded[0] != st.URL {
		t.Fatalf("transport loaded %v, expected the station URL", transport.loaded)
	}
	if !m.store.IsLoading() {
		t.Fatal("store not in loading state while the stream resolves")
	}

	m.Update(streamReadyMsg{})

	if !m.store.IsPlaying() {
		t.Error("stream ready did not flip the store to playing")
	}
	if m.status != statusLive {
		t.Errorf("status %q, expected %q", m.status, statusLive)
	}
}

func TestStaleLoadFailureIgnored(t *testing.T) {
	m, transport := newTestModel(t)

	slow := playlist.Station{ID: playlist.NewID(), Name: "Slow", URL: "http://x/slow"}
	fast := playlist.Station{ID: playlist.NewID(), Name: "Fast", URL: "http://x/fast"}

	transport.failURLs[slow.URL] = true
	slowCmd := m.playStation(slow)

	// The user moves on before the first load resolves.
	drain(t, m, m.playStation(fast))
	m.Update(streamReadyMsg{})

	// Now the abandoned load's failure lands.
	drain(t, m, slowCmd)

	if !m.store.IsPlaying() {
		t.Error("stale load failure knocked out the playing station")
	}
	if m.status != statusLive {
		t.Errorf("status %q after stale failure, expected %q", m.status, statusLive)
	}

	current, ok := m.store.CurrentStation()
	if !ok || current.ID != fast.ID {
		t.Error("current station is not the latest request")
	}
}

func TestLoadFailureReportsLostSignal(t *testing.T) {
	m, transport := newTestModel(t)
	transport.failURLs["http://x/dead"] = true

	st := playlist.Station{ID: playlist.NewID(), Name: "Dead", URL: "http://x/dead"}
	drain(t, m, m.playStation(st))

	if m.store.IsLoading() || m.store.IsPlaying() {
		t.Error("flags not reset after load failure")
	}
	if m.status != statusLost {
		t.Errorf("status %q, expected %q", m.status, statusLost)
	}
}

func TestDeleteInFavoritesViewUnfavorites(t *testing.T) {
	m, _ := newTestModel(t)

	f := m.store.ImportFolder("#EXTINF:-1,Kept\nhttp://x/y\n", "mine.m3u")
	st := f.Stations[0]
	m.store.ToggleFavorite(st)

	m.store.SelectFavorites()
	m.view = viewFolder
	m.cursor = 0

	m.deleteRow()

	if m.store.IsFavorite(st.ID) {
		t.Error("delete in the favorites view did not unfavorite")
	}

	// The source folder must be untouched.
	if len(m.store.Folders()[0].Stations) != 1 {
		t.Error("delete in the favorites view touched the source folder")
	}
}

func TestSearchFiltersStations(t *testing.T) {
	m, _ := newTestModel(t)

	content := "#EXTINF:-1,Groove Salad\nhttp://x/groove\n" +
		"#EXTINF:-1,Drone Zone\nhttp://x/drone\n" +
		"#EXTINF:-1,Deep Space One\nhttp://x/space\n"

	f := m.store.ImportFolder(content, "somafm.m3u")
	m.store.SelectFolder(f.ID)
	m.view = viewFolder
	m.search = "drone"

	visible := m.visibleStations()
	if len(visible) != 1 || visible[0].Name != "Drone Zone" {
		t.Errorf("filter matched %v, expected just Drone Zone", visible)
	}
}
