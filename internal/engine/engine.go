package engine

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/siacavazzi/amogus-sonos-connector/internal/domain"
	"go.uber.org/zap"
)

var (
	// ErrConnectFailed is returned when the first connection to the server fails
	ErrConnectFailed = errors.New("failed to connect to game server")
	// ErrConnectionLost is returned when the connection drops while in a room
	ErrConnectionLost = errors.New("connection to game server lost")
)

const defaultWaitInterval = 500 * time.Millisecond

// Engine drives the session: connect once, then join rooms until the
// connection is lost, the input ends or the context is cancelled.
type Engine struct {
	logger   *zap.Logger
	cfg      domain.Config
	session  domain.Session
	prompter domain.RoomPrompter

	waitInterval time.Duration
}

// NewEngine creates a new orchestration engine
func NewEngine(
	logger *zap.Logger,
	cfg domain.Config,
	session domain.Session,
	prompter domain.RoomPrompter,
) *Engine {
	return &Engine{
		logger:       logger,
		cfg:          cfg,
		session:      session,
		prompter:     prompter,
		waitInterval: defaultWaitInterval,
	}
}

// Run blocks until the engine is done. Cancellation and end of input are a
// clean exit and return nil.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("Engine starting...")

	if !e.session.Connect(ctx) {
		return ErrConnectFailed
	}
	defer e.session.Disconnect()

	code := e.cfg.InitialRoomCode()
	for {
		if ctx.Err() != nil {
			e.logger.Info("Engine stopped")
			return nil
		}

		if code == "" {
			var err error
			code, err = e.prompter.RoomCode(ctx)
			switch {
			case ctx.Err() != nil:
				e.logger.Info("Engine stopped")
				return nil
			case errors.Is(err, io.EOF):
				e.logger.Info("Input closed, shutting down")
				return nil
			case err != nil:
				return err
			}
			code = strings.TrimSpace(code)
			if code == "" {
				continue
			}
		}

		if !e.session.JoinRoom(ctx, code) {
			e.logger.Warn("Could not join room, enter another code", zap.String("roomCode", code))
			code = ""
			continue
		}

		e.logger.Info("Listening for game events", zap.String("roomCode", strings.ToUpper(code)))

		switch e.waitWhileJoined(ctx) {
		case domain.MembershipDisbanded:
			e.logger.Info("Room closed by host, waiting for a new room code")
			e.session.ResetRoom()
			code = ""
		case domain.MembershipJoined:
			// Context cancelled while still joined
			e.logger.Info("Engine stopped")
			return nil
		default:
			e.logger.Error("Lost connection to the game server")
			return ErrConnectionLost
		}
	}
}

// waitWhileJoined polls the membership until it leaves Joined or ctx ends
func (e *Engine) waitWhileJoined(ctx context.Context) domain.Membership {
	ticker := time.NewTicker(e.waitInterval)
	defer ticker.Stop()

	for {
		m := e.session.Membership()
		if m != domain.MembershipJoined {
			return m
		}
		select {
		case <-ctx.Done():
			return domain.MembershipJoined
		case <-ticker.C:
		}
	}
}
