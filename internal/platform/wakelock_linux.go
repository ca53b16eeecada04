//go:build linux

package platform

import (
	"errors"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	screenSaverDest  = "org.freedesktop.ScreenSaver"
	screenSaverPath  = dbus.ObjectPath("/org/freedesktop/ScreenSaver")
	screenSaverIface = "org.freedesktop.ScreenSaver"
	nameOwnerChanged = "org.freedesktop.DBus.NameOwnerChanged"
)

type screenSaverInhibitor struct {
	appName string
}

// NewInhibitor returns the platform wake lock implementation.
func NewInhibitor(appName string) Inhibitor {
	return &screenSaverInhibitor{appName: appName}
}

// Inhibit holds a ScreenSaver inhibit cookie. When the screensaver service
// loses its bus name the cookie is gone with it, so onLost is reported.
func (inhibitor *screenSaverInhibitor) Inhibit(reason string, onLost func()) (func() error, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("%w: session bus: %v", ErrUnsupported, err)
	}

	object := conn.Object(screenSaverDest, screenSaverPath)
	var cookie uint32
	if err := object.Call(screenSaverIface+".Inhibit", 0, inhibitor.appName, reason).Store(&cookie); err != nil {
		var dbusErr dbus.Error
		if errors.As(err, &dbusErr) && dbusErr.Name == "org.freedesktop.DBus.Error.ServiceUnknown" {
			return nil, ErrUnsupported
		}
		return nil, fmt.Errorf("screensaver inhibit: %w", err)
	}

	stopWatch := watchOwner(conn, onLost)
	return func() error {
		stopWatch()
		if err := object.Call(screenSaverIface+".UnInhibit", 0, cookie).Err; err != nil {
			return fmt.Errorf("screensaver uninhibit: %w", err)
		}
		return nil
	}, nil
}

// watchOwner calls onLost once if the screensaver service leaves the bus.
// The returned func stops watching and never blocks.
func watchOwner(conn *dbus.Conn, onLost func()) func() {
	if onLost == nil {
		return func() {}
	}
	options := []dbus.MatchOption{
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, screenSaverDest),
	}
	if err := conn.AddMatchSignal(options...); err != nil {
		return func() {}
	}
	signals := make(chan *dbus.Signal, 4)
	conn.Signal(signals)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case signal := <-signals:
				if ownerLost(signal) {
					onLost()
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			conn.RemoveSignal(signals)
			_ = conn.RemoveMatchSignal(options...)
		})
	}
}

// ownerLost reports whether signal says the screensaver name changed hands.
// Either way the new owner does not know the old cookie.
func ownerLost(signal *dbus.Signal) bool {
	if signal == nil || signal.Name != nameOwnerChanged || len(signal.Body) != 3 {
		return false
	}
	name, _ := signal.Body[0].(string)
	previous, _ := signal.Body[1].(string)
	return name == screenSaverDest && previous != ""
}
