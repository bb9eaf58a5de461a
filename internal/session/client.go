package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/siacavazzi/amogus-sonos-connector/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultJoinPollInterval = 100 * time.Millisecond
	defaultLoopDuration     = 60 * time.Second
	maxLoopDuration         = 24 * time.Hour
	unknownJoinError        = "Unknown error"
)

type handlerFunc func(payload map[string]any)

// Client owns the server connection and the room membership state machine,
// and forwards playback events to the sink.
//
// Handlers run on the transport's delivery goroutine, concurrently with
// JoinRoom polling on the caller's goroutine. All state is guarded by mu.
type Client struct {
	logger    *zap.Logger
	cfg       domain.Config
	sink      domain.Sink
	transport domain.EventTransport
	notifier  domain.Notifier

	joinPollInterval time.Duration
	handlers         map[string]handlerFunc

	// ctx bounds sink calls made by handlers; cancelled by Disconnect
	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.RWMutex
	connected     bool
	transportOpen bool
	roomCode      string
	membership    domain.Membership
	lastError     string

	// dropped is set when an established connection was lost; the next
	// connected event re-sends the join request
	dropped bool
}

var (
	_ domain.Session      = (*Client)(nil)
	_ domain.EventHandler = (*Client)(nil)
)

// NewClient creates a session client
func NewClient(
	logger *zap.Logger,
	cfg domain.Config,
	sink domain.Sink,
	transport domain.EventTransport,
	notifier domain.Notifier,
) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		logger:           logger,
		cfg:              cfg,
		sink:             sink,
		transport:        transport,
		notifier:         notifier,
		joinPollInterval: defaultJoinPollInterval,
		ctx:              ctx,
		cancel:           cancel,
		membership:       domain.MembershipUnjoined,
	}
	c.handlers = map[string]handlerFunc{
		domain.EventConnected:     c.onConnected,
		domain.EventDisconnected:  c.onDisconnected,
		domain.EventConnectError:  c.onConnectError,
		domain.EventJoined:        c.onJoined,
		domain.EventJoinError:     c.onJoinError,
		domain.EventRoomDisbanded: c.onRoomDisbanded,
		domain.EventPlaySound:     c.onPlaySound,
		domain.EventLoopSound:     c.onLoopSound,
		domain.EventStopSound:     c.onStopSound,
		domain.EventSetVolume:     c.onSetVolume,
	}
	return c
}

// Connect opens the transport. The transport keeps reconnecting on its own afterwards.
func (c *Client) Connect(ctx context.Context) bool {
	if !c.sink.Ready() {
		c.logger.Error("Speakers not ready, refusing to connect")
		return false
	}

	if err := c.transport.Connect(ctx, c.cfg.ServerURL(), c); err != nil {
		c.logger.Error("Failed to connect to server",
			zap.String("server", c.cfg.ServerURL()),
			zap.Error(err))
		return false
	}

	c.mu.Lock()
	c.connected = true
	c.transportOpen = true
	c.mu.Unlock()

	c.logger.Info("Connected to game server", zap.String("server", c.cfg.ServerURL()))
	return true
}

// JoinRoom requests membership of a room and waits for the server's answer.
// It returns true only when the join is confirmed within the join timeout.
func (c *Client) JoinRoom(ctx context.Context, code string) bool {
	code = normalizeCode(code)

	c.mu.Lock()
	c.roomCode = code
	c.membership = domain.MembershipPending
	c.lastError = ""
	connected := c.connected
	c.mu.Unlock()

	if code == "" {
		c.logger.Warn("Empty room code")
		c.resetPending()
		return false
	}
	if !connected {
		c.logger.Warn("Not connected, cannot join room", zap.String("roomCode", code))
		c.resetPending()
		return false
	}

	if err := c.emitJoin(code); err != nil {
		c.logger.Error("Failed to send join request", zap.String("roomCode", code), zap.Error(err))
		c.resetPending()
		return false
	}
	c.logger.Info("Joining room", zap.String("roomCode", code))

	timeout := time.NewTimer(c.cfg.JoinTimeout())
	defer timeout.Stop()
	ticker := time.NewTicker(c.joinPollInterval)
	defer ticker.Stop()

	for {
		switch c.Membership() {
		case domain.MembershipJoined:
			return true
		case domain.MembershipError:
			c.logger.Warn("Join rejected", zap.String("roomCode", code), zap.String("reason", c.LastError()))
			return false
		case domain.MembershipDisbanded, domain.MembershipUnjoined:
			c.logger.Warn("Room lost while joining", zap.String("roomCode", code))
			return false
		}

		select {
		case <-ctx.Done():
			c.resetPending()
			return false
		case <-timeout.C:
			c.logger.Warn("Timed out waiting for join confirmation",
				zap.String("roomCode", code),
				zap.Duration("timeout", c.cfg.JoinTimeout()))
			c.resetPending()
			return false
		case <-ticker.C:
		}
	}
}

// Disconnect stops playback and closes the transport. Safe to call repeatedly.
func (c *Client) Disconnect() {
	c.sink.Stop()

	c.mu.Lock()
	open := c.transportOpen
	c.transportOpen = false
	c.connected = false
	c.membership = domain.MembershipUnjoined
	c.mu.Unlock()

	if !open {
		return
	}
	c.cancel()
	if err := c.transport.Close(); err != nil {
		c.logger.Warn("Error while closing connection", zap.Error(err))
	}
	c.logger.Info("Disconnected from game server")
}

// ResetRoom forgets the current room so a new code can be joined
func (c *Client) ResetRoom() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomCode = ""
	c.lastError = ""
	c.membership = domain.MembershipUnjoined
}

// Membership returns the current room membership state
func (c *Client) Membership() domain.Membership {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.membership
}

// Connected reports whether the server connection is currently up
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// RoomCode returns the normalized code of the last requested room
func (c *Client) RoomCode() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomCode
}

// LastError returns the server's reason for the last rejected join
func (c *Client) LastError() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

// Snapshot returns a consistent copy of the session state
func (c *Client) Snapshot() domain.SessionSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.SessionSnapshot{
		Connected:  c.connected,
		RoomCode:   c.roomCode,
		Membership: c.membership,
		LastError:  c.lastError,
	}
}

// Dispatch routes an inbound event to its handler
func (c *Client) Dispatch(event string, payload map[string]any) {
	h, ok := c.handlers[event]
	if !ok {
		c.logger.Debug("Ignoring unhandled event", zap.String("event", event))
		return
	}
	h(payload)
}

func (c *Client) onConnected(map[string]any) {
	c.mu.Lock()
	c.connected = true
	rejoin := c.dropped && c.roomCode != ""
	c.dropped = false
	code := c.roomCode
	c.mu.Unlock()

	if !rejoin {
		return
	}
	c.logger.Info("Reconnected, rejoining room", zap.String("roomCode", code))
	if err := c.emitJoin(code); err != nil {
		c.logger.Warn("Failed to rejoin room", zap.String("roomCode", code), zap.Error(err))
	}
}

func (c *Client) onDisconnected(map[string]any) {
	c.mu.Lock()
	c.connected = false
	c.dropped = true
	c.membership = domain.MembershipUnjoined
	c.mu.Unlock()

	c.logger.Warn("Disconnected from game server")
	c.notifier.Notify("Connection lost", "Trying to reconnect to the game server")
}

func (c *Client) onConnectError(payload map[string]any) {
	msg, _ := stringField(payload, "message")
	c.logger.Warn("Connection error", zap.String("message", msg))
}

func (c *Client) onJoined(map[string]any) {
	c.mu.Lock()
	c.membership = domain.MembershipJoined
	c.lastError = ""
	code := c.roomCode
	c.mu.Unlock()

	c.logger.Info("Joined room", zap.String("roomCode", code))
	c.notifier.Notify("Speakers connected", "Joined room "+code)

	if c.sink.Ready() {
		c.sink.Play(c.ctx, c.cfg.ConfirmSound(), true)
	}
}

func (c *Client) onJoinError(payload map[string]any) {
	msg, ok := stringField(payload, "message")
	if !ok || msg == "" {
		msg = unknownJoinError
	}

	c.mu.Lock()
	c.membership = domain.MembershipError
	c.lastError = msg
	c.mu.Unlock()

	c.logger.Error("Server rejected join", zap.String("message", msg))
	c.notifier.Notify("Could not join room", msg)
}

func (c *Client) onRoomDisbanded(map[string]any) {
	c.sink.Stop()

	c.mu.Lock()
	c.membership = domain.MembershipDisbanded
	code := c.roomCode
	c.mu.Unlock()

	c.logger.Info("Room disbanded by host", zap.String("roomCode", code))
	c.notifier.Notify("Room ended", "The host closed room "+code)
}

func (c *Client) onPlaySound(payload map[string]any) {
	sound, ok := stringField(payload, "sound")
	if !ok || sound == "" {
		c.logger.Warn("Ignoring play_sound without sound")
		return
	}
	c.sink.Play(c.ctx, sound, true)
}

func (c *Client) onLoopSound(payload map[string]any) {
	sound, ok := stringField(payload, "sound")
	if !ok || sound == "" {
		c.logger.Warn("Ignoring loop_sound without sound")
		return
	}

	duration := defaultLoopDuration
	if raw, present := payload["duration"]; present && raw != nil {
		seconds, ok := numberField(raw)
		if !ok || seconds <= 0 {
			c.logger.Warn("Ignoring loop_sound with invalid duration", zap.Any("duration", raw))
			return
		}
		duration = time.Duration(min(seconds, maxLoopDuration.Seconds()) * float64(time.Second))
	}
	c.sink.Loop(c.ctx, sound, duration)
}

func (c *Client) onStopSound(map[string]any) {
	c.sink.Stop()
}

func (c *Client) onSetVolume(payload map[string]any) {
	raw, present := payload["volume"]
	if !present {
		c.logger.Warn("Ignoring set_volume without volume")
		return
	}
	volume, ok := numberField(raw)
	if !ok {
		c.logger.Warn("Ignoring set_volume with invalid volume", zap.Any("volume", raw))
		return
	}
	c.sink.SetVolume(c.ctx, int(max(0, min(volume, 100))))
}

func (c *Client) emitJoin(code string) error {
	return c.transport.Emit(domain.EventJoinRequest, map[string]string{"room_code": code})
}

// resetPending drops a pending join attempt back to unjoined
func (c *Client) resetPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.membership == domain.MembershipPending {
		c.membership = domain.MembershipUnjoined
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
