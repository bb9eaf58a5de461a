package notify

import (
	"sync"

	"github.com/siacavazzi/amogus-sonos-connector/internal/domain"
	"go.uber.org/zap"
)

const (
	appName        = "Amogus Sonos Connector"
	defaultTimeout = 5000 // ms
)

// Config is the configuration the notifier depends on
type Config interface {
	NotificationsEnabled() bool
}

// DesktopNotifier logs every status message and mirrors it as a desktop
// notification when a session bus is available.
type DesktopNotifier struct {
	logger *zap.Logger

	mu     sync.Mutex
	bus    BusClient
	lastID uint32
}

var _ domain.Notifier = (*DesktopNotifier)(nil)

// NewDesktopNotifier connects to the session bus. Without a bus, or when
// notifications are disabled, messages are only logged.
func NewDesktopNotifier(logger *zap.Logger, cfg Config) *DesktopNotifier {
	if !cfg.NotificationsEnabled() {
		logger.Debug("Desktop notifications disabled")
		return newDesktopNotifier(logger, nil)
	}

	bus, err := NewStdBusClient()
	if err != nil {
		logger.Info("Desktop notifications unavailable, logging only", zap.Error(err))
		return newDesktopNotifier(logger, nil)
	}
	return newDesktopNotifier(logger, bus)
}

func newDesktopNotifier(logger *zap.Logger, bus BusClient) *DesktopNotifier {
	return &DesktopNotifier{logger: logger, bus: bus}
}

// Notify shows a status message. Successive messages replace each other.
func (n *DesktopNotifier) Notify(summary, body string) {
	n.logger.Info(summary, zap.String("detail", body))

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.bus == nil {
		return
	}

	id, err := n.bus.Notify(appName, n.lastID, summary, body, defaultTimeout)
	if err != nil {
		n.logger.Debug("Failed to send desktop notification", zap.Error(err))
		return
	}
	n.lastID = id
}

// Close releases the bus connection
func (n *DesktopNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.bus == nil {
		return nil
	}
	err := n.bus.Close()
	n.bus = nil
	return err
}
