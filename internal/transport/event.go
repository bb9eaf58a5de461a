package transport

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/zishang520/socket.io-client-go/socket"
)

// Event is a decoded Socket.IO event
type Event struct {
	Name    string
	Payload map[string]any
}

// eventFromArgs converts the arguments of a catch-all listener: the event
// name followed by its data. Non-object payloads are delivered as nil.
func eventFromArgs(args []any) (Event, bool) {
	if len(args) == 0 {
		return Event{}, false
	}
	name, ok := args[0].(string)
	if !ok || name == "" {
		return Event{}, false
	}
	ev := Event{Name: name}
	if len(args) > 1 {
		ev.Payload, _ = args[1].(map[string]any)
	}
	return ev, true
}

// connectError extracts the error of a connect_error callback
func connectError(args []any) error {
	if len(args) > 0 {
		if err, ok := args[0].(error); ok && err != nil {
			return err
		}
		if args[0] != nil {
			return fmt.Errorf("%v", args[0])
		}
	}
	return errors.New("connection error")
}

// errorPayload is the connect_error payload handed to the event handler
func errorPayload(err error) map[string]any {
	payload := map[string]any{"message": err.Error()}
	var refused *socket.ExtendedError
	if errors.As(err, &refused) {
		payload["message"] = refused.Message
		if refused.Data != nil {
			payload["data"] = refused.Data
		}
	}
	return payload
}

func disconnectReason(args []any) (string, error) {
	var (
		reason string
		cause  error
	)
	if len(args) > 0 {
		reason, _ = args[0].(string)
	}
	if len(args) > 1 {
		cause, _ = args[1].(error)
	}
	return reason, cause
}

// serverOrigin validates the server URL and strips it down to the origin the
// Socket.IO manager expects; the handshake path comes from Options.Path.
func serverOrigin(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "http"
	case "https", "wss":
		u.Scheme = "https"
	default:
		return "", fmt.Errorf("invalid server url %q: unsupported scheme", serverURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server url %q: missing host", serverURL)
	}

	return (&url.URL{Scheme: u.Scheme, Host: u.Host}).String(), nil
}
