// Package muse drives an external mpv process over its JSON IPC socket and
// exposes it as the playback transport: load a stream URL, pause, set
// volume, and hear back about readiness and errors. mpv demuxes HLS
// manifests natively, so m3u8 stream URLs are handed over verbatim.
package muse

import (
	"github.com/DexterLB/mpvipc"
	"github.com/pkg/errors"
)

// ErrNoStreamLoaded is returned by playback controls used before PlayURL.
var ErrNoStreamLoaded = errors.New("no stream loaded")

// EventHandler receives transport signals. All methods are called from the
// IPC listener goroutine; implementations must hand off to their own loop.
type EventHandler interface {
	// OnStreamReady fires once a loaded stream is ready to produce audio.
	OnStreamReady()
	// OnStreamEnd fires when playback stops on its own; reason is mpv's
	// end-file reason, "error" for load/decode failures.
	OnStreamEnd(reason string)
	// OnPauseUpdate mirrors the transport's pause property.
	OnPauseUpdate(pause bool)
	// OnTitleUpdate reports ICY/stream title changes.
	OnTitleUpdate(title string)
}

// Session is one mpv process plus its IPC connection.
type Session struct {
	Playback *mpvipc.Connection

	handler    EventHandler
	command    command
	socketPath string
	currentURL string
}

type command interface {
	Interrupt() error
	Kill() error
	Wait() error
}

// NewSession spawns mpv and connects to it.
func NewSession() (*Session, error) {
	return newMpv()
}

// SetHandler must be called before Start.
func (s *Session) SetHandler(h EventHandler) {
	s.handler = h
}

// PlayURL replaces whatever is loaded with the given stream URL and unpauses.
// Loading an URL while a previous load is still resolving aborts the old
// one; mpv only ever resolves the most recent load.
func (s *Session) PlayURL(url string) error {
	if _, err := s.Playback.Call("loadfile", url, "replace"); err != nil {
		return errors.Wrap(err, "failed to load stream")
	}

	s.currentURL = url
	return s.SetPlay(true)
}

// CurrentURL returns the most recently loaded stream URL.
func (s *Session) CurrentURL() string {
	return s.currentURL
}

// SetPlay pauses or resumes the loaded stream.
func (s *Session) SetPlay(playing bool) error {
	if s.currentURL == "" {
		return ErrNoStreamLoaded
	}

	return s.Playback.Set("pause", !playing)
}

// SetVolume sets the output volume; v is clamped to [0, 1].
func (s *Session) SetVolume(v float64) error {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}

	return s.Playback.Set("volume", v*100)
}

// StopPlayback unloads the current stream without tearing the session down.
func (s *Session) StopPlayback() error {
	s.currentURL = ""

	_, err := s.Playback.Call("stop")
	return errors.Wrap(err, "failed to stop playback")
}
