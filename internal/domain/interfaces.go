package domain

import (
	"context"
	"time"
)

// Device is a networked speaker the connector can control.
// Implementations handle the device protocol (UPnP/SOAP for Sonos).
//
//go:generate mockgen -destination=mocks/device_mock.go -package=mocks github.com/siacavazzi/amogus-sonos-connector/internal/domain Device
type Device interface {
	// ID returns the stable device identifier used for grouping
	ID() string

	// Name returns the human readable room name
	Name() string

	// Address returns the network host of the device
	Address() string

	// Volume reads the current volume (0-100)
	Volume(ctx context.Context) (int, error)

	// SetVolume writes the volume (0-100)
	SetVolume(ctx context.Context, volume int) error

	// IsFollower reports whether the device currently follows another device
	IsFollower(ctx context.Context) (bool, error)

	// Join makes the device follow the given leader
	Join(ctx context.Context, leader Device) error

	// Leave detaches the device from its current group
	Leave(ctx context.Context) error

	// PlayURI starts playback of the given URI
	PlayURI(ctx context.Context, uri string) error

	// Stop stops playback
	Stop(ctx context.Context) error

	// TransportState reads the current transport state
	TransportState(ctx context.Context) (TransportState, error)
}

// Discoverer finds the devices reachable on the local network
type Discoverer interface {
	// Discover returns every reachable device that passed filtering
	Discover(ctx context.Context) ([]Device, error)
}

// Sink is a group of devices exposed as a single audio output.
// Every method reports failure through its result and never panics.
//
//go:generate mockgen -destination=mocks/sink_mock.go -package=mocks github.com/siacavazzi/amogus-sonos-connector/internal/domain Sink
type Sink interface {
	// Ready reports whether a leader was initialized
	Ready() bool

	// Play plays a sound once, stopping current playback first when interrupt is set
	Play(ctx context.Context, sound string, interrupt bool) bool

	// Loop replays a sound until the duration elapses or Stop is called
	Loop(ctx context.Context, sound string, duration time.Duration) bool

	// Stop stops playback and any active loop
	Stop()

	// SetVolume changes the group volume
	SetVolume(ctx context.Context, volume int) bool
}

// EventHandler receives named events from the transport
type EventHandler interface {
	// Dispatch routes a named event with its payload (nil when absent)
	Dispatch(event string, payload map[string]any)
}

// EventTransport is a duplex named-event channel to the game server
type EventTransport interface {
	// Connect dials the server and keeps reconnecting until Close is called.
	// It returns an error only when the first connection attempt fails.
	Connect(ctx context.Context, serverURL string, handler EventHandler) error

	// Emit sends a named event
	Emit(event string, payload any) error

	// Close disconnects and stops reconnecting
	Close() error
}

// Notifier shows human readable status messages to the user
type Notifier interface {
	Notify(summary, body string)
}

// Session is the room membership API the orchestrator drives
type Session interface {
	Connect(ctx context.Context) bool
	JoinRoom(ctx context.Context, code string) bool
	Disconnect()
	Membership() Membership
	Connected() bool
	ResetRoom()
}

// RoomPrompter obtains a room code from the user
type RoomPrompter interface {
	// RoomCode blocks until a code is entered, the input ends or ctx is cancelled
	RoomCode(ctx context.Context) (string, error)
}

// SoundResolver maps sound identifiers to audio URIs
type SoundResolver interface {
	Resolve(sound string) (string, error)
}

// Config defines the interface for application configuration
type Config interface {
	// ServerURL returns the game server base URL
	ServerURL() string

	// Volume returns the initial speaker volume
	Volume() int

	// InitialRoomCode returns the room code given at startup, if any
	InitialRoomCode() string

	// JoinTimeout returns how long JoinRoom waits for an answer
	JoinTimeout() time.Duration

	// ConfirmSound returns the sound played when a room is joined
	ConfirmSound() string
}
