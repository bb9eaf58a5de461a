package playback

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// loopRun is the state of one looping sound. At most one is active per Group.
type loopRun struct {
	sound    string
	uri      string
	deadline time.Time

	ctx        context.Context
	cancelFunc context.CancelFunc
	done       chan struct{}
	once       sync.Once
}

func newLoopRun(sound, uri string, duration time.Duration) *loopRun {
	deadline := time.Now().Add(duration)
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	return &loopRun{
		sound:      sound,
		uri:        uri,
		deadline:   deadline,
		ctx:        ctx,
		cancelFunc: cancel,
		done:       make(chan struct{}),
	}
}

func (r *loopRun) cancel() {
	r.cancelFunc()
}

// wait blocks until the loop goroutine exits or the timeout elapses
func (r *loopRun) wait(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-r.done:
		return true
	case <-timer.C:
		return false
	}
}

func (r *loopRun) finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *loopRun) finish() {
	r.once.Do(func() {
		r.cancelFunc()
		close(r.done)
	})
}

// runLoop replays the sound until the deadline passes or the run is cancelled.
// A track that ends on its own is replayed immediately.
func (g *Group) runLoop(run *loopRun) {
	defer run.finish()

	logger := g.logger.With(zap.String("sound", run.sound))

	for run.ctx.Err() == nil {
		if err := g.deviceCall(run.ctx, func(ctx context.Context) error {
			return g.leader.PlayURI(ctx, run.uri)
		}); err != nil {
			if run.ctx.Err() == nil {
				logger.Error("Loop playback failed", zap.Error(err))
			}
			return
		}
		logger.Info("Looping sound")

		if err := g.waitTrackEnd(run); err != nil {
			if run.ctx.Err() == nil {
				logger.Error("Loop state polling failed", zap.Error(err))
			}
			return
		}
	}

	if time.Now().Before(run.deadline) {
		logger.Debug("Loop cancelled")
	} else {
		logger.Info("Loop duration elapsed")
	}
}

// waitTrackEnd polls the leader until the track is no longer active or the run ends
func (g *Group) waitTrackEnd(run *loopRun) error {
	ticker := time.NewTicker(g.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-run.ctx.Done():
			return nil
		case <-ticker.C:
		}

		var active bool
		if err := g.deviceCall(run.ctx, func(ctx context.Context) error {
			state, err := g.leader.TransportState(ctx)
			active = state.Active()
			return err
		}); err != nil {
			return err
		}
		if !active {
			return nil
		}
	}
}
