package muse

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/DexterLB/mpvipc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type mpvEvent uint

const (
	allEvent mpvEvent = iota
	pauseEvent
	mediaTitleEvent
)

var events = []string{
	"file-loaded",
	"end-file",
}

var propertyMap = map[mpvEvent]string{
	pauseEvent:      "pause",
	mediaTitleEvent: "media-title",
}

var tmpdir = filepath.Join(os.TempDir(), "pulse")

type execCmd struct{ *exec.Cmd }

func (c execCmd) Interrupt() error { return c.Process.Signal(os.Interrupt) }
func (c execCmd) Kill() error      { return c.Process.Kill() }
func (c execCmd) Wait() error      { return c.Cmd.Wait() }

func newMpv() (*Session, error) {
	sockPath := filepath.Join(tmpdir, "mpv", "mpv.sock")

	if err := os.MkdirAll(filepath.Dir(sockPath), os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "failed to make socket directory")
	}

	if err := os.RemoveAll(sockPath); err != nil {
		return nil, errors.Wrap(err, "failed to clean up socket")
	}

	args := []string{
		"--idle",
		"--quiet",
		"--pause",
		"--no-input-terminal",
		"--no-video",
		"--input-ipc-server=" + sockPath,
		"--volume=70",
		"--volume-max=100",
	}

	cmd := exec.Command("mpv", args...)
	cmd.Env = os.Environ()

	conn := mpvipc.NewConnection(sockPath)

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start mpv")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Spin until the socket accepts us.
	var err error
RetryOpen:
	for {
		err = conn.Open()
		if err == nil {
			break RetryOpen
		}
		select {
		case <-ctx.Done():
			break RetryOpen
		default:
			runtime.Gosched()
			continue RetryOpen
		}
	}

	if err != nil {
		return nil, errors.Wrap(err, "failed to open connection")
	}

	for _, event := range events {
		if _, err := conn.Call("enable_event", event); err != nil {
			return nil, errors.Wrapf(err, "failed to enable event %q", event)
		}
	}

	for id, property := range propertyMap {
		if _, err := conn.Call("observe_property", id, property); err != nil {
			return nil, errors.Wrapf(err, "failed to observe property %q", property)
		}
	}

	return &Session{
		Playback:   conn,
		command:    execCmd{cmd},
		socketPath: sockPath,
	}, nil
}

// Start starts the event listener in a background goroutine; it is
// non-blocking. SetHandler must have been called.
func (s *Session) Start() {
	handler := s.handler

	s.Playback.ListenForEvents(func(event *mpvipc.Event) {
		if event.Error != "" {
			log.Warn().Str("error", event.Error).Msg("error in mpv event")
		}

		if event.Data != nil {
			switch mpvEvent(event.ID) {
			case pauseEvent:
				if b, ok := event.Data.(bool); ok {
					handler.OnPauseUpdate(b)
				}
				return

			case mediaTitleEvent:
				if title, ok := event.Data.(string); ok {
					handler.OnTitleUpdate(title)
				}
				return
			}
		}

		switch event.Name {
		case "file-loaded":
			handler.OnStreamReady()

		case "end-file":
			// stop/replace reasons are our own doing; only surface the
			// ends the user didn't ask for.
			switch event.Reason {
			case "stop", "redirect":
			default:
				handler.OnStreamEnd(event.Reason)
			}
		}
	})
}

// Stop tears down the mpv session. A stopped session cannot be reused.
func (s *Session) Stop() {
	s.Playback.Close()

	if err := s.command.Interrupt(); err != nil {
		log.Warn().Err(err).Msg("SIGINT failed, killing mpv")

		if err := s.command.Kill(); err != nil {
			log.Warn().Err(err).Msg("failed to kill mpv")
		}
	} else {
		s.command.Wait()
	}

	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to clean up socket")
	}
}
