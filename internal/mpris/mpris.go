// Package mpris exports the player sheet over the MPRIS DBus interface.
package mpris

import (
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	"github.com/pkg/errors"
)

const (
	appPath    = "/com/github/diamondburned/nowplaying"
	tracksPath = appPath + "/Tracks"

	mprisPath = "/org/mpris/MediaPlayer2"

	introspectID = "org.freedesktop.DBus.Introspectable"
	mprisID      = "org.mpris.MediaPlayer2"
	playerID     = mprisID + ".Player"
	appID        = mprisID + ".nowplaying"
)

// Conn is a single MPRIS DBus connection.
type Conn struct {
	conn   *dbus.Conn
	player *player
}

// New creates a new MPRIS connection that forwards method calls to c.
func New(c Controller) (*Conn, error) {
	s, err := dbus.SessionBus()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to session bus")
	}

	conn, err := export(s, c)
	if err != nil {
		s.Close()
		return nil, err
	}

	return conn, nil
}

func export(s *dbus.Conn, c Controller) (*Conn, error) {
	props := map[string]map[string]*prop.Prop{
		mprisID:  rootProps(),
		playerID: playerProps(),
	}

	p, err := prop.Export(s, mprisPath, props)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create DBus properties")
	}

	conn := &Conn{
		conn:   s,
		player: newPlayer(c, p),
	}

	if err := s.Export(conn.player, mprisPath, playerID); err != nil {
		conn.player.Destroy()
		return nil, errors.Wrap(err, "failed to export the MPRIS Player")
	}

	if err := s.Export(root{c}, mprisPath, mprisID); err != nil {
		conn.player.Destroy()
		return nil, errors.Wrap(err, "failed to export the MPRIS root")
	}

	if err := s.Export(introspectionXML, mprisPath, introspectID); err != nil {
		conn.player.Destroy()
		return nil, errors.Wrap(err, "failed to export introspection.xml")
	}

	reply, err := s.RequestName(appID, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.player.Destroy()
		return nil, errors.Wrap(err, "failed to request name")
	}

	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.player.Destroy()
		return nil, errors.New("requested name is not primary, name already taken")
	}

	return conn, nil
}

// Close closes the current DBus connection and destroys background workers. If
// c is nil, then Close returns nil.
func (c *Conn) Close() error {
	if c == nil {
		return nil
	}

	c.player.Destroy()
	return c.conn.Close()
}

// root implements org.mpris.MediaPlayer2.
type root struct {
	c Controller
}

func (r root) Raise() *dbus.Error { return nil }

func (r root) Quit() *dbus.Error {
	r.c.Quit()
	return nil
}

func rootProps() map[string]*prop.Prop {
	return map[string]*prop.Prop{
		"CanQuit":             newReadOnlyProp(true),
		"CanRaise":            newReadOnlyProp(false),
		"HasTrackList":        newReadOnlyProp(false),
		"Identity":            newReadOnlyProp("nowplaying"),
		"SupportedUriSchemes": newReadOnlyProp([]string{"file", "http", "https"}),
		"SupportedMimeTypes":  newReadOnlyProp([]string{"audio/mpeg", "audio/ogg", "audio/flac", "audio/webm"}),
	}
}

const introspectionXML introspect.Introspectable = `
<node>
	<interface name="org.mpris.MediaPlayer2">
		<method name="Raise">
		</method>
		<method name="Quit">
		</method>
		<property name="CanQuit" type="b" access="read"/>
		<property name="CanRaise" type="b" access="read"/>
		<property name="HasTrackList" type="b" access="read"/>
		<property name="Identity" type="s" access="read"/>
		<property name="SupportedUriSchemes" type="as" access="read"/>
		<property name="SupportedMimeTypes" type="as" access="read"/>
	</interface>
	<interface name="org.mpris.MediaPlayer2.Player">
		<method name="Next">
		</method>
		<method name="Previous">
		</method>
		<method name="Pause">
		</method>
		<method name="PlayPause">
		</method>
		<method name="Stop">
		</method>
		<method name="Play">
		</method>
		<method name="Seek">
			<arg type="x" name="Offset" direction="in"/>
		</method>
		<method name="SetPosition">
			<arg type="o" name="TrackId" direction="in"/>
			<arg type="x" name="Offset" direction="in"/>
		</method>
		<method name="OpenUri">
			<arg type="s" name="Uri" direction="in"/>
		</method>
		<signal name="Seeked">
			<arg type="x" name="Position" direction="out"/>
		</signal>
		<property name="PlaybackStatus" type="s" access="read"/>
		<property name="LoopStatus" type="s" access="readwrite"/>
		<property name="Rate" type="d" access="readwrite"/>
		<property name="Shuffle" type="b" access="readwrite"/>
		<property name="Metadata" type="a{sv}" access="read"/>
		<property name="Volume" type="d" access="readwrite"/>
		<property name="Position" type="x" access="read"/>
		<property name="MinimumRate" type="d" access="read"/>
		<property name="MaximumRate" type="d" access="read"/>
		<property name="CanGoNext" type="b" access="read"/>
		<property name="CanGoPrevious" type="b" access="read"/>
		<property name="CanPlay" type="b" access="read"/>
		<property name="CanPause" type="b" access="read"/>
		<property name="CanSeek" type="b" access="read"/>
		<property name="CanControl" type="b" access="read"/>
	</interface>
</node>
`
