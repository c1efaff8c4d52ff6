package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/diamondburned/pulse/internal/muse"
)

// Events forwards transport callbacks into the bubbletea loop. muse invokes
// these from its IPC goroutine; Send hands them to Update on the UI thread.
type Events struct {
	prog *tea.Program
}

var _ muse.EventHandler = (*Events)(nil)

// NewEvents wraps a running program.
func NewEvents(prog *tea.Program) *Events {
	return &Events{prog: prog}
}

func (e *Events) OnStreamReady() {
	e.prog.Send(streamReadyMsg{})
}

func (e *Events) OnStreamEnd(reason string) {
	e.prog.Send(streamEndMsg{reason: reason})
}

func (e *Events) OnPauseUpdate(pause bool) {
	e.prog.Send(pauseMsg{paused: pause})
}

func (e *Events) OnTitleUpdate(title string) {
	e.prog.Send(titleMsg{title: title})
}

// Remote adapts the program to the MPRIS controller.
type Remote struct {
	prog *tea.Program
}

// NewRemote wraps a running program.
func NewRemote(prog *tea.Program) *Remote {
	return &Remote{prog: prog}
}

func (r *Remote) PlayPause() {
	r.prog.Send(PlayPauseMsg{})
}

func (r *Remote) Stop() {
	r.prog.Send(StopMsg{})
}
