package domain

// TransportState represents the transport state reported by a playback device
type TransportState string

const (
	// TransportPlaying indicates the device is playing a track
	TransportPlaying TransportState = "PLAYING"
	// TransportTransitioning indicates the device is loading or buffering a track
	TransportTransitioning TransportState = "TRANSITIONING"
	// TransportStopped indicates playback is stopped
	TransportStopped TransportState = "STOPPED"
	// TransportPaused indicates playback is paused
	TransportPaused TransportState = "PAUSED_PLAYBACK"
	// TransportUnknown is used for any state the device reports that we do not model
	TransportUnknown TransportState = "UNKNOWN"
)

// ParseTransportState maps a raw device state string onto a TransportState
func ParseTransportState(raw string) TransportState {
	switch TransportState(raw) {
	case TransportPlaying, TransportTransitioning, TransportStopped, TransportPaused:
		return TransportState(raw)
	default:
		return TransportUnknown
	}
}

// Active reports whether a track is still in progress
func (s TransportState) Active() bool {
	return s == TransportPlaying || s == TransportTransitioning
}

// Membership is the state of the client's membership in a room
type Membership string

const (
	// MembershipUnjoined means no join attempt is in flight and no room is joined
	MembershipUnjoined Membership = "unjoined"
	// MembershipPending means a join request was sent and no answer arrived yet
	MembershipPending Membership = "pending"
	// MembershipJoined means the server confirmed the join
	MembershipJoined Membership = "joined"
	// MembershipDisbanded means the host ended the room after a successful join
	MembershipDisbanded Membership = "disbanded"
	// MembershipError means the server rejected the join
	MembershipError Membership = "error"
)

// Inbound and outbound event names exchanged with the game server
const (
	EventConnected     = "connected"
	EventDisconnected  = "disconnected"
	EventConnectError  = "connect_error"
	EventJoined        = "sonos_joined"
	EventJoinError     = "sonos_error"
	EventRoomDisbanded = "room_disbanded"
	EventPlaySound     = "play_sound"
	EventLoopSound     = "loop_sound"
	EventStopSound     = "stop_sound"
	EventSetVolume     = "set_volume"

	EventJoinRequest = "sonos_join"
)

// SessionSnapshot is a point-in-time copy of the session state
type SessionSnapshot struct {
	Connected  bool       `json:"connected"`
	RoomCode   string     `json:"room_code,omitempty"`
	Membership Membership `json:"membership"`
	LastError  string     `json:"last_error,omitempty"`
}
