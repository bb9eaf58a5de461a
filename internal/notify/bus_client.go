package notify

import (
	"github.com/godbus/dbus/v5"
)

const (
	notificationsDest   = "org.freedesktop.Notifications"
	notificationsPath   = "/org/freedesktop/Notifications"
	notificationsMethod = "org.freedesktop.Notifications.Notify"
)

// BusClient defines the D-Bus operations the notifier needs.
// This abstraction allows us to mock D-Bus interactions in tests.
//
//go:generate mockgen -destination=mocks/bus_client_mock.go -package=mocks github.com/siacavazzi/amogus-sonos-connector/internal/notify BusClient
type BusClient interface {
	// Close closes the D-Bus connection
	Close() error

	// Notify shows a desktop notification and returns its id.
	// A non-zero replacesID updates an earlier notification in place.
	Notify(appName string, replacesID uint32, summary, body string, timeoutMs int32) (uint32, error)
}

// StdBusClient is the real implementation using godbus
type StdBusClient struct {
	conn *dbus.Conn
}

// NewStdBusClient creates a real D-Bus client connected to the session bus
func NewStdBusClient() (*StdBusClient, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	return &StdBusClient{conn: conn}, nil
}

// Close closes the D-Bus connection
func (c *StdBusClient) Close() error {
	return c.conn.Close()
}

// Notify calls org.freedesktop.Notifications.Notify
func (c *StdBusClient) Notify(appName string, replacesID uint32, summary, body string, timeoutMs int32) (uint32, error) {
	obj := c.conn.Object(notificationsDest, dbus.ObjectPath(notificationsPath))

	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(1)),
	}

	var id uint32
	err := obj.Call(notificationsMethod, 0,
		appName, replacesID, "audio-speakers", summary, body,
		[]string{}, hints, timeoutMs,
	).Store(&id)
	return id, err
}
