package playback

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/siacavazzi/amogus-sonos-connector/internal/config"
	"github.com/siacavazzi/amogus-sonos-connector/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultPollInterval  = 500 * time.Millisecond
	defaultStopWait      = 2 * time.Second
	defaultDeviceTimeout = 10 * time.Second
)

// Options tunes the timing of a Group
type Options struct {
	// PollInterval is how often a loop polls the leader's transport state
	PollInterval time.Duration
	// StopWait bounds how long Stop waits for an active loop to exit
	StopWait time.Duration
	// DeviceTimeout bounds every single device command
	DeviceTimeout time.Duration
}

// Group drives a fixed set of devices as one audio sink through a leader device.
//
// Two locks are involved: cmdMu serializes the public commands (Play, Loop, Stop,
// SetVolume) and devMu is held around every individual device call, including the
// ones issued by the loop goroutine. The loop never takes cmdMu, so Stop can cancel
// it and wait for it without deadlocking. The state getters take neither lock.
type Group struct {
	logger *zap.Logger
	sounds domain.SoundResolver
	opts   Options

	members atomic.Pointer[[]domain.Device]
	leader  domain.Device
	ready   atomic.Bool

	cmdMu sync.Mutex
	devMu sync.Mutex

	loopMu sync.Mutex
	loop   *loopRun
}

var _ domain.Sink = (*Group)(nil)

// NewGroup creates an empty, not yet ready group
func NewGroup(logger *zap.Logger, sounds domain.SoundResolver, opts Options) *Group {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.StopWait <= 0 {
		opts.StopWait = defaultStopWait
	}
	if opts.DeviceTimeout <= 0 {
		opts.DeviceTimeout = defaultDeviceTimeout
	}
	return &Group{
		logger: logger,
		sounds: sounds,
		opts:   opts,
	}
}

// Initialize groups the devices behind the first usable leader and sets its volume.
// Follower join failures are logged and skipped. It returns whether the group is ready.
func (g *Group) Initialize(ctx context.Context, devices []domain.Device, volume int) bool {
	g.cmdMu.Lock()
	defer g.cmdMu.Unlock()

	if existing := g.members.Load(); existing != nil {
		g.logger.Warn("Playback group already initialized", zap.Int("members", len(*existing)))
		return g.ready.Load()
	}
	if len(devices) == 0 {
		g.logger.Error("No speakers available for the playback group")
		return false
	}

	members := append([]domain.Device(nil), devices...)
	g.members.Store(&members)
	volume = config.ClampVolume(volume)

	g.detachFollowers(ctx, members)

	for _, candidate := range members {
		if err := g.deviceCall(ctx, func(ctx context.Context) error {
			return candidate.SetVolume(ctx, volume)
		}); err != nil {
			g.logger.Warn("Speaker unusable as leader, trying next",
				zap.String("speaker", candidate.Name()),
				zap.Error(err))
			continue
		}

		g.leader = candidate
		g.logger.Info("Leader speaker selected",
			zap.String("speaker", candidate.Name()),
			zap.String("address", candidate.Address()),
			zap.Int("volume", volume))

		g.joinFollowers(ctx, members, candidate)
		g.ready.Store(true)
		return true
	}

	g.logger.Error("Could not initialize any speaker as leader", zap.Int("candidates", len(members)))
	return false
}

// detachFollowers makes sure no member still follows a group outside our control
func (g *Group) detachFollowers(ctx context.Context, members []domain.Device) {
	for _, d := range members {
		var follower bool
		err := g.deviceCall(ctx, func(ctx context.Context) error {
			var err error
			follower, err = d.IsFollower(ctx)
			return err
		})
		if err != nil {
			g.logger.Warn("Failed to read grouping state", zap.String("speaker", d.Name()), zap.Error(err))
			continue
		}
		if !follower {
			continue
		}
		if err := g.deviceCall(ctx, d.Leave); err != nil {
			g.logger.Warn("Failed to detach speaker from its group", zap.String("speaker", d.Name()), zap.Error(err))
			continue
		}
		g.logger.Info("Detached speaker from previous group", zap.String("speaker", d.Name()))
	}
}

func (g *Group) joinFollowers(ctx context.Context, members []domain.Device, leader domain.Device) {
	for _, d := range members {
		if d == leader {
			continue
		}
		if err := g.deviceCall(ctx, func(ctx context.Context) error {
			return d.Join(ctx, leader)
		}); err != nil {
			g.logger.Warn("Failed to join speaker to leader",
				zap.String("speaker", d.Name()),
				zap.String("leader", leader.Name()),
				zap.Error(err))
			continue
		}
		g.logger.Info("Speaker joined leader", zap.String("speaker", d.Name()))
	}
}

// Ready reports whether a leader was initialized. Once true it stays true.
func (g *Group) Ready() bool {
	return g.ready.Load()
}

// Leader returns the leader device, nil when not ready
func (g *Group) Leader() domain.Device {
	if !g.ready.Load() {
		return nil
	}
	return g.leader
}

// Members returns a copy of the member devices. It never waits for a running command.
func (g *Group) Members() []domain.Device {
	members := g.members.Load()
	if members == nil {
		return nil
	}
	return append([]domain.Device(nil), (*members)...)
}

// LoopActive reports whether a loop is currently running
func (g *Group) LoopActive() bool {
	g.loopMu.Lock()
	defer g.loopMu.Unlock()
	return g.loop != nil && !g.loop.finished()
}

// Play plays a sound once on the leader
func (g *Group) Play(ctx context.Context, sound string, interrupt bool) bool {
	if !g.ready.Load() {
		g.logger.Warn("Playback group not ready, ignoring play", zap.String("sound", sound))
		return false
	}
	uri, err := g.sounds.Resolve(sound)
	if err != nil {
		g.logger.Error("Cannot play sound", zap.String("sound", sound), zap.Error(err))
		return false
	}

	if interrupt {
		g.cancelLoop()
	}

	g.cmdMu.Lock()
	defer g.cmdMu.Unlock()

	if interrupt {
		g.stopLocked(ctx)
	}

	if err := g.deviceCall(ctx, func(ctx context.Context) error {
		return g.leader.PlayURI(ctx, uri)
	}); err != nil {
		g.logger.Error("Failed to play sound", zap.String("sound", sound), zap.Error(err))
		return false
	}

	g.logger.Info("Playing sound", zap.String("sound", sound))
	return true
}

// Loop replays a sound on the leader until duration elapses or Stop is called
func (g *Group) Loop(ctx context.Context, sound string, duration time.Duration) bool {
	if !g.ready.Load() {
		g.logger.Warn("Playback group not ready, ignoring loop", zap.String("sound", sound))
		return false
	}
	uri, err := g.sounds.Resolve(sound)
	if err != nil {
		g.logger.Error("Cannot loop sound", zap.String("sound", sound), zap.Error(err))
		return false
	}

	g.cancelLoop()

	g.cmdMu.Lock()
	defer g.cmdMu.Unlock()

	g.stopLocked(ctx)

	run := newLoopRun(sound, uri, duration)
	g.loopMu.Lock()
	g.loop = run
	g.loopMu.Unlock()

	go g.runLoop(run)

	g.logger.Info("Loop started", zap.String("sound", sound), zap.Duration("duration", duration))
	return true
}

// Stop cancels any loop and stops the leader. Safe to call at any time.
func (g *Group) Stop() {
	g.cancelLoop()

	g.cmdMu.Lock()
	defer g.cmdMu.Unlock()

	g.stopLocked(context.Background())
}

// SetVolume applies a volume to the leader immediately, even while a loop is running
func (g *Group) SetVolume(ctx context.Context, volume int) bool {
	if !g.ready.Load() {
		g.logger.Warn("Playback group not ready, ignoring volume change")
		return false
	}
	volume = config.ClampVolume(volume)

	g.cmdMu.Lock()
	defer g.cmdMu.Unlock()

	if err := g.deviceCall(ctx, func(ctx context.Context) error {
		return g.leader.SetVolume(ctx, volume)
	}); err != nil {
		g.logger.Error("Failed to set volume", zap.Int("volume", volume), zap.Error(err))
		return false
	}

	g.logger.Info("Volume set", zap.Int("volume", volume))
	return true
}

// cancelLoop flags the active loop as cancelled without waiting for it
func (g *Group) cancelLoop() {
	g.loopMu.Lock()
	defer g.loopMu.Unlock()
	if g.loop != nil {
		g.loop.cancel()
	}
}

// stopLocked cancels the active loop and stops the leader. Caller holds cmdMu.
//
// With a loop running, the leader is stopped before waiting for the loop to
// exit, and once more afterwards in case a replay was already in flight.
func (g *Group) stopLocked(ctx context.Context) {
	g.loopMu.Lock()
	run := g.loop
	g.loop = nil
	g.loopMu.Unlock()

	if run == nil {
		g.stopLeader(ctx, g.deviceCall)
		return
	}

	run.cancel()
	g.stopLeader(ctx, g.directCall)
	if !run.wait(g.opts.StopWait) {
		g.logger.Warn("Loop did not exit in time",
			zap.String("sound", run.sound),
			zap.Duration("wait", g.opts.StopWait))
	}
	g.stopLeader(ctx, g.deviceCall)
}

func (g *Group) stopLeader(ctx context.Context, call func(context.Context, func(context.Context) error) error) {
	if !g.ready.Load() {
		return
	}
	if err := call(ctx, g.leader.Stop); err != nil {
		g.logger.Debug("Failed to stop leader", zap.Error(err))
	}
}

// deviceCall runs one device command under the device guard with a bounded timeout
func (g *Group) deviceCall(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, g.opts.DeviceTimeout)
	defer cancel()

	g.devMu.Lock()
	defer g.devMu.Unlock()
	// A command queued behind a cancellation is dropped
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

// directCall runs one device command with a bounded timeout, without waiting for devMu
func (g *Group) directCall(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, g.opts.DeviceTimeout)
	defer cancel()
	return fn(ctx)
}
