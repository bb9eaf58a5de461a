package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/siacavazzi/amogus-sonos-connector/internal/domain"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
	"go.uber.org/zap"
)

var (
	// ErrClosed is returned when the client was closed
	ErrClosed = errors.New("transport closed")
	// ErrNotConnected is returned by Emit while no connection is established
	ErrNotConnected = errors.New("transport not connected")
)

const (
	defaultPath              = "/socket.io"
	defaultReconnectDelay    = time.Second
	defaultReconnectDelayMax = 5 * time.Second
	defaultConnectTimeout    = 10 * time.Second
	eventBuffer              = 64
	userAgent                = "amogusSonosConnector/1.0"
)

// Options tunes the Socket.IO client
type Options struct {
	Path              string
	ReconnectDelay    time.Duration
	ReconnectDelayMax time.Duration
	ConnectTimeout    time.Duration

	// WebsocketOnly disables the HTTP long-polling fallback
	WebsocketOnly bool
}

// Client is a Socket.IO v4 client for the default namespace. It reconnects
// forever after the first successful connection until Close is called.
//
// Library callbacks only enqueue events; a single goroutine invokes the
// handler, so handlers never run concurrently with each other.
type Client struct {
	logger *zap.Logger
	opts   Options

	mu      sync.Mutex
	sock    *socket.Socket
	closed  bool
	started bool
	cancel  context.CancelFunc
	retry   *time.Timer
	retries int

	events chan Event
	wg     sync.WaitGroup
}

var _ domain.EventTransport = (*Client)(nil)

// NewClient creates a client that is not yet connected
func NewClient(logger *zap.Logger, opts Options) *Client {
	if opts.Path == "" {
		opts.Path = defaultPath
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	if opts.ReconnectDelayMax < opts.ReconnectDelay {
		opts.ReconnectDelayMax = max(defaultReconnectDelayMax, opts.ReconnectDelay)
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	return &Client{
		logger: logger,
		opts:   opts,
		events: make(chan Event, eventBuffer),
	}
}

// Connect performs the first connection synchronously. Once it succeeds the
// library keeps the connection alive in the background.
func (c *Client) Connect(ctx context.Context, serverURL string, handler domain.EventHandler) error {
	origin, err := serverOrigin(serverURL)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return errors.New("transport already connected")
	}
	c.started = true
	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()

	c.logger.Info("Connecting to server", zap.String("url", origin), zap.String("path", c.opts.Path))

	sock := socket.NewManager(origin, c.managerOptions()).Socket("/", nil)
	first := make(chan error, 1)
	c.subscribe(runCtx, sock, first)

	c.mu.Lock()
	c.sock = sock
	c.mu.Unlock()

	c.wg.Add(1)
	go c.deliver(runCtx, handler)
	sock.Connect()

	select {
	case err = <-first:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		c.abort(sock)
		return fmt.Errorf("failed to connect to %s: %w", serverURL, err)
	}

	c.logger.Info("Connected to server", zap.String("sid", sock.Id()))
	return nil
}

// Emit sends a named event on the current connection
func (c *Client) Emit(event string, payload any) error {
	c.mu.Lock()
	closed, sock := c.closed, c.sock
	c.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if sock == nil || !sock.Connected() {
		return ErrNotConnected
	}

	var args []any
	if payload != nil {
		args = append(args, payload)
	}
	if err := sock.Emit(event, args...); err != nil {
		return fmt.Errorf("failed to emit %s: %w", event, err)
	}
	c.logger.Debug("Event emitted", zap.String("event", event))
	return nil
}

// Close disconnects and stops reconnecting. Calling it again is a no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	sock, cancel, retry := c.sock, c.cancel, c.retry
	c.sock, c.retry = nil, nil
	c.mu.Unlock()

	if retry != nil {
		retry.Stop()
	}
	if sock != nil {
		sock.Disconnect()
	}
	if cancel != nil {
		cancel()
	}

	c.wg.Wait()
	c.logger.Info("Disconnected from server")
	return nil
}

func (c *Client) managerOptions() *socket.Options {
	opts := socket.DefaultOptions()
	opts.SetPath(c.opts.Path)
	opts.SetAutoConnect(false)
	opts.SetReconnection(true)
	opts.SetReconnectionDelay(float64(c.opts.ReconnectDelay.Milliseconds()))
	opts.SetReconnectionDelayMax(float64(c.opts.ReconnectDelayMax.Milliseconds()))
	opts.SetTimeout(c.opts.ConnectTimeout)

	header := http.Header{}
	header.Set("User-Agent", userAgent)
	opts.SetExtraHeaders(header)

	if c.opts.WebsocketOnly {
		opts.SetTransports(types.NewSet(socket.WebSocket))
	} else {
		opts.SetTransports(types.NewSet(socket.WebSocket, socket.Polling))
		opts.SetTryAllTransports(true)
	}
	return opts
}

// subscribe turns socket callbacks into queued events. Until the first
// connection succeeds, failures are only reported to Connect.
func (c *Client) subscribe(ctx context.Context, sock *socket.Socket, first chan<- error) {
	var established atomic.Bool
	report := func(err error) {
		select {
		case first <- err:
		default:
		}
	}

	sock.On("connect", func(...any) {
		if !c.owns(sock) {
			return
		}
		c.resetRetries()
		if established.CompareAndSwap(false, true) {
			report(nil)
		} else {
			c.logger.Info("Reconnected to server", zap.String("sid", sock.Id()))
		}
		c.enqueue(ctx, Event{Name: domain.EventConnected})
	})

	sock.On("connect_error", func(args ...any) {
		err := connectError(args)
		if !established.Load() {
			report(err)
			return
		}
		if !c.owns(sock) {
			return
		}
		c.logger.Warn("Reconnect attempt failed", zap.Error(err))
		c.enqueue(ctx, Event{Name: domain.EventConnectError, Payload: errorPayload(err)})
		if !sock.Active() {
			c.scheduleReconnect(sock)
		}
	})

	sock.On("disconnect", func(args ...any) {
		if !established.Load() || !c.owns(sock) {
			return
		}
		reason, cause := disconnectReason(args)
		c.logger.Warn("Connection to server lost", zap.String("reason", reason), zap.Error(cause))
		c.enqueue(ctx, Event{Name: domain.EventDisconnected})
		if !sock.Active() {
			// The server closed the namespace, so the library will not retry
			c.scheduleReconnect(sock)
		}
	})

	sock.OnAny(func(args ...any) {
		if !c.owns(sock) {
			return
		}
		ev, ok := eventFromArgs(args)
		if !ok {
			c.logger.Warn("Dropping malformed event", zap.Int("args", len(args)))
			return
		}
		c.enqueue(ctx, ev)
	})
}

// scheduleReconnect reopens a socket the library gave up on, with backoff
func (c *Client) scheduleReconnect(sock *socket.Socket) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.sock != sock || c.retry != nil {
		return
	}

	delay := min(c.opts.ReconnectDelay<<min(c.retries, 10), c.opts.ReconnectDelayMax)
	c.retries++
	c.retry = time.AfterFunc(delay, func() {
		c.mu.Lock()
		c.retry = nil
		current := !c.closed && c.sock == sock
		c.mu.Unlock()

		if current && !sock.Active() {
			c.logger.Info("Reopening connection to server", zap.Duration("after", delay))
			sock.Connect()
		}
	})
}

func (c *Client) resetRetries() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retries = 0
}

// abort tears down a socket whose first connection failed
func (c *Client) abort(sock *socket.Socket) {
	c.mu.Lock()
	cancel := c.cancel
	if c.sock == sock {
		c.sock = nil
	}
	c.cancel = nil
	c.started = false
	c.mu.Unlock()

	sock.Disconnect()
	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
}

// owns reports whether sock is the live socket of an open client
func (c *Client) owns(sock *socket.Socket) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && c.sock == sock
}

// deliver invokes the handler for each received event in arrival order
func (c *Client) deliver(ctx context.Context, handler domain.EventHandler) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.events:
			handler.Dispatch(ev.Name, ev.Payload)
		}
	}
}

func (c *Client) enqueue(ctx context.Context, ev Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}
