package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/diamondburned/pulse/internal/mpris"
	"github.com/diamondburned/pulse/internal/muse"
	"github.com/diamondburned/pulse/internal/share"
	"github.com/diamondburned/pulse/internal/state"
	"github.com/diamondburned/pulse/internal/ui"
)

func main() {
	var (
		dataDir    = flag.String("data", defaultDataDir(), "library, log and recordings directory")
		playlists  = flag.String("playlists", "playlists", "bundled playlist directory or base URL")
		importPath = flag.String("import", "", "import an M3U file into the library and exit")
		openLink   = flag.String("open", "", "open a share link and start playing its station")
	)
	flag.Parse()

	setupLogging(*dataDir)

	storage, err := state.NewFileStorage(*dataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open data directory")
	}

	store := state.NewStore(storage)
	store.Hydrate()

	if *importPath != "" {
		importAndExit(store, *importPath)
		return
	}

	store.BulkPreloadIfEmpty(
		context.Background(),
		state.PreloadSources(*playlists, state.DefaultSourceNames),
	)

	session, err := muse.NewSession()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create mpv session")
	}
	defer session.Stop()

	model := ui.New(store, session, *dataDir)
	prog := tea.NewProgram(model, tea.WithAltScreen())

	session.SetHandler(ui.NewEvents(prog))
	session.Start()

	// MPRIS is best-effort; a box without a session bus still plays radio.
	if conn, err := mpris.New(ui.NewRemote(prog)); err != nil {
		log.Warn().Err(err).Msg("MPRIS unavailable")
	} else {
		model.SetPublisher(conn)
		defer conn.Close()
	}

	if *openLink != "" {
		if st, ok := share.FromURL(*openLink); ok {
			go prog.Send(ui.PlayStationMsg{Station: st})
		}
	}

	if _, err := prog.Run(); err != nil {
		log.Fatal().Err(err).Msg("UI exited with error")
	}
}

func importAndExit(store *state.Store, path string) {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read playlist")
	}

	f := store.ImportFolder(string(b), filepath.Base(path))
	fmt.Printf("imported %s with %d stations\n", f.Name, len(f.Stations))
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "pulse"
	}
	return filepath.Join(base, "pulse")
}

// setupLogging points zerolog at a file; the terminal belongs to the UI.
func setupLogging(dataDir string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return
	}

	f, err := os.OpenFile(
		filepath.Join(dataDir, "pulse.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644,
	)
	if err != nil {
		return
	}

	log.Logger = zerolog.New(f).With().Timestamp().Logger()
}
