// Package mpris exposes Pulse on the session bus as an MPRIS media player,
// so desktop media keys can drive the radio.
package mpris

import (
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	mprisPath = "/org/mpris/MediaPlayer2"

	introspectID = "org.freedesktop.DBus.Introspectable"
	mprisID      = "org.mpris.MediaPlayer2"
	playerID     = mprisID + ".Player"
	pulseID      = mprisID + ".pulse"
)

// Controller is what the desktop can do to the player. Methods are invoked
// from the DBus dispatch goroutine; implementations must hand off to their
// own event loop.
type Controller interface {
	PlayPause()
	Stop()
}

// Conn is a single MPRIS DBus connection.
type Conn struct {
	conn  *dbus.Conn
	props *prop.Properties
}

// New connects to the session bus and claims the MPRIS name. Callers treat
// failure as non-fatal; a headless box has no session bus.
func New(ctrl Controller) (*Conn, error) {
	c, err := newConn(ctrl)
	if err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

func newConn(ctrl Controller) (*Conn, error) {
	s, err := dbus.SessionBus()
	if err != nil {
		return &Conn{}, errors.Wrap(err, "failed to connect to session bus")
	}

	conn := &Conn{conn: s}

	props := map[string]map[string]*prop.Prop{
		mprisID:  rootProps,
		playerID: playerProps(),
	}

	p, err := prop.Export(s, mprisPath, props)
	if err != nil {
		return conn, errors.Wrap(err, "failed to create DBus properties")
	}
	conn.props = p

	if err := s.Export(&player{ctrl: ctrl}, mprisPath, playerID); err != nil {
		return conn, errors.Wrap(err, "failed to export the MPRIS player")
	}

	if err := s.Export(root{}, mprisPath, mprisID); err != nil {
		return conn, errors.Wrap(err, "failed to export the MPRIS root")
	}

	if err := s.Export(introspectionXML, mprisPath, introspectID); err != nil {
		return conn, errors.Wrap(err, "failed to export introspection")
	}

	reply, err := s.RequestName(pulseID, dbus.NameFlagDoNotQueue)
	if err != nil {
		return conn, errors.Wrap(err, "failed to request name")
	}

	if reply != dbus.RequestNameReplyPrimaryOwner {
		return conn, errors.New("requested name is not primary, name already taken")
	}

	return conn, nil
}

// Close closes the DBus connection. A nil Conn closes to nil.
func (c *Conn) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// NowPlaying publishes the current station and playback status.
func (c *Conn) NowPlaying(name, url string, playing bool) {
	if c == nil || c.props == nil {
		return
	}

	status := "Stopped"
	if name != "" {
		status = "Paused"
	}
	if playing {
		status = "Playing"
	}

	metadata := map[string]interface{}{
		"xesam:title": name,
		"xesam:url":   url,
	}

	c.setProp("PlaybackStatus", status)
	c.setProp("Metadata", metadata)
}

func (c *Conn) setProp(name string, v interface{}) {
	if err := c.props.Set(playerID, name, dbus.MakeVariant(v)); err != nil {
		log.Warn().Err(err).Str("prop", name).Msg("failed to set MPRIS prop")
	}
}

type root struct{}

func (root) Raise() *dbus.Error { return nil }
func (root) Quit() *dbus.Error  { return nil }

type player struct {
	ctrl Controller
}

func (p *player) PlayPause() *dbus.Error {
	p.ctrl.PlayPause()
	return nil
}

func (p *player) Play() *dbus.Error  { return p.PlayPause() }
func (p *player) Pause() *dbus.Error { return p.PlayPause() }

func (p *player) Stop() *dbus.Error {
	p.ctrl.Stop()
	return nil
}

// Live radio has no track list to walk.
func (p *player) Next() *dbus.Error     { return nil }
func (p *player) Previous() *dbus.Error { return nil }

var rootProps = map[string]*prop.Prop{
	"Identity":            {Value: "Pulse", Writable: false, Emit: prop.EmitFalse},
	"CanQuit":             {Value: false, Writable: false, Emit: prop.EmitFalse},
	"CanRaise":            {Value: false, Writable: false, Emit: prop.EmitFalse},
	"HasTrackList":        {Value: false, Writable: false, Emit: prop.EmitFalse},
	"SupportedUriSchemes": {Value: []string{"http", "https"}, Writable: false, Emit: prop.EmitFalse},
	"SupportedMimeTypes":  {Value: []string{"audio/mpeg", "application/vnd.apple.mpegurl"}, Writable: false, Emit: prop.EmitFalse},
}

func playerProps() map[string]*prop.Prop {
	return map[string]*prop.Prop{
		"PlaybackStatus": {Value: "Stopped", Writable: false, Emit: prop.EmitTrue},
		"Metadata":       {Value: map[string]interface{}{}, Writable: false, Emit: prop.EmitTrue},
		"CanGoNext":      {Value: false, Writable: false, Emit: prop.EmitFalse},
		"CanGoPrevious":  {Value: false, Writable: false, Emit: prop.EmitFalse},
		"CanPlay":        {Value: true, Writable: false, Emit: prop.EmitFalse},
		"CanPause":       {Value: true, Writable: false, Emit: prop.EmitFalse},
		"CanSeek":        {Value: false, Writable: false, Emit: prop.EmitFalse},
		"CanControl":     {Value: true, Writable: false, Emit: prop.EmitFalse},
	}
}

const introspectionXML introspect.Introspectable = `
<node>
	<interface name="org.mpris.MediaPlayer2">
		<method name="Raise"/>
		<method name="Quit"/>
		<property name="Identity" type="s" access="read"/>
		<property name="CanQuit" type="b" access="read"/>
		<property name="CanRaise" type="b" access="read"/>
		<property name="HasTrackList" type="b" access="read"/>
		<property name="SupportedUriSchemes" type="as" access="read"/>
		<property name="SupportedMimeTypes" type="as" access="read"/>
	</interface>
	<interface name="org.mpris.MediaPlayer2.Player">
		<method name="Next"/>
		<method name="Previous"/>
		<method name="Pause"/>
		<method name="PlayPause"/>
		<method name="Stop"/>
		<method name="Play"/>
		<property name="PlaybackStatus" type="s" access="read"/>
		<property name="Metadata" type="a{sv}" access="read"/>
		<property name="CanGoNext" type="b" access="read"/>
		<property name="CanGoPrevious" type="b" access="read"/>
		<property name="CanPlay" type="b" access="read"/>
		<property name="CanPause" type="b" access="read"/>
		<property name="CanSeek" type="b" access="read"/>
		<property name="CanControl" type="b" access="read"/>
	</interface>
</node>
`
