package session

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/siacavazzi/amogus-sonos-connector/internal/domain"
	"github.com/siacavazzi/amogus-sonos-connector/internal/domain/mocks"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type stubConfig struct {
	joinTimeout time.Duration
	serverURL   string
}

func (c stubConfig) ServerURL() string {
	if c.serverURL == "" {
		return "http://game.test"
	}
	return c.serverURL
}
func (c stubConfig) Volume() int { return 30 }
func (c stubConfig) InitialRoomCode() string {
	return ""
}
func (c stubConfig) JoinTimeout() time.Duration {
	if c.joinTimeout == 0 {
		return time.Second
	}
	return c.joinTimeout
}
func (c stubConfig) ConfirmSound() string { return "test" }

type emitted struct {
	event   string
	payload any
}

// fakeTransport records emits and lets tests answer them through the handler
type fakeTransport struct {
	connectErr error
	onEmit     func(h domain.EventHandler, event string)

	mu      sync.Mutex
	handler domain.EventHandler
	emits   []emitted
	closes  int
}

func (f *fakeTransport) Connect(_ context.Context, _ string, h domain.EventHandler) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.mu.Lock()
	f.handler = h
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Emit(event string, payload any) error {
	f.mu.Lock()
	f.emits = append(f.emits, emitted{event: event, payload: payload})
	h := f.handler
	f.mu.Unlock()

	if f.onEmit != nil {
		// Answer asynchronously like a real delivery goroutine
		go f.onEmit(h, event)
	}
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeTransport) recorded() []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]emitted(nil), f.emits...)
}

type notification struct{ summary, body string }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) Notify(summary, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{summary, body})
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func waitSignals(t *testing.T, ch <-chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("Timeout waiting for signal %d of %d", i+1, n)
		}
	}
}

func answer(event string, payload map[string]any) func(domain.EventHandler, string) {
	return func(h domain.EventHandler, emittedEvent string) {
		if emittedEvent == domain.EventJoinRequest {
			h.Dispatch(event, payload)
		}
	}
}

// newConnectedClient returns a client whose transport connected successfully
func newConnectedClient(t *testing.T, sink *mocks.MockSink, tr *fakeTransport, cfg stubConfig) *Client {
	t.Helper()
	c := NewClient(zap.NewNop(), cfg, sink, tr, &recordingNotifier{})
	c.joinPollInterval = 5 * time.Millisecond
	if !c.Connect(context.Background()) {
		t.Fatal("Connect failed")
	}
	return c
}

func TestClient_Connect(t *testing.T) {
	tests := []struct {
		name          string
		ready         bool
		connectErr    error
		expectOK      bool
		expectHandler bool
	}{
		{name: "Sink Not Ready", ready: false, expectOK: false},
		{name: "Server Unreachable", ready: true, connectErr: errors.New("connection refused"), expectOK: false},
		{name: "Success", ready: true, expectOK: true, expectHandler: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			sink := mocks.NewMockSink(ctrl)
			sink.EXPECT().Ready().Return(tt.ready)

			tr := &fakeTransport{connectErr: tt.connectErr}
			c := NewClient(zap.NewNop(), stubConfig{}, sink, tr, &recordingNotifier{})

			if got := c.Connect(context.Background()); got != tt.expectOK {
				t.Fatalf("Connect: want %v, got %v", tt.expectOK, got)
			}
			if c.Connected() != tt.expectOK {
				t.Errorf("Connected: want %v, got %v", tt.expectOK, c.Connected())
			}
			if (tr.handler != nil) != tt.expectHandler {
				t.Errorf("Transport handler registered: want %v", tt.expectHandler)
			}
		})
	}
}

func TestClient_JoinRoom_NormalizesCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	sink.EXPECT().Ready().Return(true).AnyTimes()
	// Exactly one confirmation sound per successful join
	played := make(chan struct{}, 2)
	sink.EXPECT().Play(gomock.Any(), "test", true).
		Do(func(context.Context, string, bool) { played <- struct{}{} }).
		Return(true).Times(2)

	tr := &fakeTransport{onEmit: answer(domain.EventJoined, nil)}
	c := newConnectedClient(t, sink, tr, stubConfig{})

	for _, code := range []string{"abc", " ABC "} {
		if !c.JoinRoom(context.Background(), code) {
			t.Fatalf("JoinRoom(%q) failed", code)
		}
		if c.RoomCode() != "ABC" {
			t.Errorf("RoomCode: got %s", c.RoomCode())
		}
	}

	emits := tr.recorded()
	if len(emits) != 2 {
		t.Fatalf("Expected 2 join requests, got %d", len(emits))
	}
	for _, e := range emits {
		payload, ok := e.payload.(map[string]string)
		if e.event != domain.EventJoinRequest || !ok || payload["room_code"] != "ABC" {
			t.Errorf("Unexpected join request: %+v", e)
		}
	}
	if c.Membership() != domain.MembershipJoined {
		t.Errorf("Membership: got %s", c.Membership())
	}
	waitSignals(t, played, 2)
}

func TestClient_JoinRoom_Rejected(t *testing.T) {
	tests := []struct {
		name        string
		payload     map[string]any
		expectError string
	}{
		{name: "With Message", payload: map[string]any{"message": "Room not found"}, expectError: "Room not found"},
		{name: "Without Message", payload: nil, expectError: "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			sink := mocks.NewMockSink(ctrl)
			sink.EXPECT().Ready().Return(true).AnyTimes()
			// No Play expectation: a rejected join must stay silent

			tr := &fakeTransport{onEmit: answer(domain.EventJoinError, tt.payload)}
			c := newConnectedClient(t, sink, tr, stubConfig{})

			if c.JoinRoom(context.Background(), "zzzz") {
				t.Fatal("JoinRoom should fail")
			}
			if c.Membership() != domain.MembershipError {
				t.Errorf("Membership: got %s", c.Membership())
			}
			if c.LastError() != tt.expectError {
				t.Errorf("LastError: want %q, got %q", tt.expectError, c.LastError())
			}
		})
	}
}

func TestClient_JoinRoom_NotConnected(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)

	tr := &fakeTransport{}
	c := NewClient(zap.NewNop(), stubConfig{joinTimeout: 5 * time.Second}, sink, tr, &recordingNotifier{})

	start := time.Now()
	if c.JoinRoom(context.Background(), "abcd") {
		t.Fatal("JoinRoom must fail when not connected")
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("JoinRoom blocked for %v", elapsed)
	}
	if len(tr.recorded()) != 0 {
		t.Error("No join request should be sent")
	}
	if c.Membership() != domain.MembershipUnjoined {
		t.Errorf("Membership: got %s", c.Membership())
	}
}

func TestClient_JoinRoom_TimeoutThenLateConfirmation(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	sink.EXPECT().Ready().Return(true).AnyTimes()
	sink.EXPECT().Play(gomock.Any(), "test", true).Return(true)

	tr := &fakeTransport{}
	c := newConnectedClient(t, sink, tr, stubConfig{joinTimeout: 100 * time.Millisecond})

	if c.JoinRoom(context.Background(), "late") {
		t.Fatal("JoinRoom should time out")
	}
	if c.Membership() != domain.MembershipUnjoined {
		t.Errorf("Pending state must be reset after timeout, got %s", c.Membership())
	}

	c.Dispatch(domain.EventJoined, nil)
	if c.Membership() != domain.MembershipJoined {
		t.Errorf("Late confirmation must still update state, got %s", c.Membership())
	}
}

func TestClient_JoinRoom_ContextCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	sink.EXPECT().Ready().Return(true).AnyTimes()

	c := newConnectedClient(t, sink, &fakeTransport{}, stubConfig{joinTimeout: 5 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if c.JoinRoom(ctx, "abcd") {
		t.Fatal("JoinRoom should fail on cancellation")
	}
}

func TestClient_RoomDisbanded(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	sink.EXPECT().Ready().Return(true).AnyTimes()
	played := make(chan struct{}, 1)
	sink.EXPECT().Play(gomock.Any(), "test", true).
		Do(func(context.Context, string, bool) { played <- struct{}{} }).
		Return(true)
	sink.EXPECT().Stop().Times(1)

	tr := &fakeTransport{onEmit: answer(domain.EventJoined, nil)}
	c := newConnectedClient(t, sink, tr, stubConfig{})

	if !c.JoinRoom(context.Background(), "wxyz") {
		t.Fatal("JoinRoom failed")
	}
	waitSignals(t, played, 1)

	c.Dispatch(domain.EventRoomDisbanded, nil)
	if c.Membership() != domain.MembershipDisbanded {
		t.Errorf("Membership: got %s", c.Membership())
	}

	c.ResetRoom()
	snap := c.Snapshot()
	if snap.RoomCode != "" || snap.Membership != domain.MembershipUnjoined || !snap.Connected {
		t.Errorf("Unexpected snapshot after reset: %+v", snap)
	}
}

func TestClient_PlaybackEvents(t *testing.T) {
	tests := []struct {
		name    string
		event   string
		payload map[string]any
		expect  func(s *mocks.MockSink)
	}{
		{
			name:    "Play Sound",
			event:   domain.EventPlaySound,
			payload: map[string]any{"sound": "emergency_meeting"},
			expect: func(s *mocks.MockSink) {
				s.EXPECT().Play(gomock.Any(), "emergency_meeting", true).Return(true)
			},
		},
		{
			name:    "Play Sound Missing Id",
			event:   domain.EventPlaySound,
			payload: map[string]any{"volume": 3},
		},
		{
			name:    "Play Sound Wrong Type",
			event:   domain.EventPlaySound,
			payload: map[string]any{"sound": 42},
		},
		{
			name:    "Loop Default Duration",
			event:   domain.EventLoopSound,
			payload: map[string]any{"sound": "theme"},
			expect: func(s *mocks.MockSink) {
				s.EXPECT().Loop(gomock.Any(), "theme", 60*time.Second).Return(true)
			},
		},
		{
			name:    "Loop Numeric Duration",
			event:   domain.EventLoopSound,
			payload: map[string]any{"sound": "theme", "duration": float64(30)},
			expect: func(s *mocks.MockSink) {
				s.EXPECT().Loop(gomock.Any(), "theme", 30*time.Second).Return(true)
			},
		},
		{
			name:    "Loop String Duration",
			event:   domain.EventLoopSound,
			payload: map[string]any{"sound": "theme", "duration": "2.5"},
			expect: func(s *mocks.MockSink) {
				s.EXPECT().Loop(gomock.Any(), "theme", 2500*time.Millisecond).Return(true)
			},
		},
		{
			name:    "Loop Oversized Duration Is Capped",
			event:   domain.EventLoopSound,
			payload: map[string]any{"sound": "theme", "duration": float64(1e11)},
			expect: func(s *mocks.MockSink) {
				s.EXPECT().Loop(gomock.Any(), "theme", 24*time.Hour).Return(true)
			},
		},
		{
			name:    "Loop Invalid Duration",
			event:   domain.EventLoopSound,
			payload: map[string]any{"sound": "theme", "duration": "forever"},
		},
		{
			name:    "Loop Missing Sound",
			event:   domain.EventLoopSound,
			payload: nil,
		},
		{
			name:  "Stop Sound",
			event: domain.EventStopSound,
			expect: func(s *mocks.MockSink) {
				s.EXPECT().Stop()
			},
		},
		{
			name:    "Set Volume",
			event:   domain.EventSetVolume,
			payload: map[string]any{"volume": float64(55)},
			expect: func(s *mocks.MockSink) {
				s.EXPECT().SetVolume(gomock.Any(), 55).Return(true)
			},
		},
		{
			name:    "Set Volume Above Range",
			event:   domain.EventSetVolume,
			payload: map[string]any{"volume": float64(1e20)},
			expect: func(s *mocks.MockSink) {
				s.EXPECT().SetVolume(gomock.Any(), 100).Return(true)
			},
		},
		{
			name:    "Set Volume Below Range",
			event:   domain.EventSetVolume,
			payload: map[string]any{"volume": "-1e30"},
			expect: func(s *mocks.MockSink) {
				s.EXPECT().SetVolume(gomock.Any(), 0).Return(true)
			},
		},
		{
			name:    "Set Volume Not A Number",
			event:   domain.EventSetVolume,
			payload: map[string]any{"volume": math.NaN()},
		},
		{
			name:    "Set Volume Invalid",
			event:   domain.EventSetVolume,
			payload: map[string]any{"volume": true},
		},
		{
			name:    "Unknown Event",
			event:   "vote_cast",
			payload: map[string]any{"sound": "theme"},
		},
		{
			name:    "Connect Error Is Logged Only",
			event:   domain.EventConnectError,
			payload: map[string]any{"message": "xhr poll error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			sink := mocks.NewMockSink(ctrl)
			if tt.expect != nil {
				tt.expect(sink)
			}

			c := NewClient(zap.NewNop(), stubConfig{}, sink, &fakeTransport{}, &recordingNotifier{})
			c.Dispatch(tt.event, tt.payload)
		})
	}
}

func TestClient_ReconnectRejoins(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	sink.EXPECT().Ready().Return(true).AnyTimes()
	sink.EXPECT().Play(gomock.Any(), "test", true).Return(true).AnyTimes()

	tr := &fakeTransport{onEmit: answer(domain.EventJoined, nil)}
	notifier := &recordingNotifier{}
	c := NewClient(zap.NewNop(), stubConfig{}, sink, tr, notifier)
	c.joinPollInterval = 5 * time.Millisecond
	if !c.Connect(context.Background()) {
		t.Fatal("Connect failed")
	}
	if !c.JoinRoom(context.Background(), "room") {
		t.Fatal("JoinRoom failed")
	}
	tr.onEmit = nil

	c.Dispatch(domain.EventDisconnected, nil)
	if c.Connected() {
		t.Error("Expected disconnected state")
	}
	if c.Membership() != domain.MembershipUnjoined {
		t.Errorf("Membership after disconnect: got %s", c.Membership())
	}
	if notifier.count() == 0 {
		t.Error("Expected a connection lost notification")
	}

	c.Dispatch(domain.EventConnected, nil)
	if !c.Connected() {
		t.Error("Expected connected state")
	}

	emits := tr.recorded()
	if len(emits) != 2 {
		t.Fatalf("Expected a re-join request, got %d emits", len(emits))
	}
	if payload := emits[1].payload.(map[string]string); payload["room_code"] != "ROOM" {
		t.Errorf("Unexpected re-join payload: %v", payload)
	}
}

func TestClient_ConnectedAfterJoinDoesNotRejoin(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	sink.EXPECT().Ready().Return(true).AnyTimes()
	sink.EXPECT().Play(gomock.Any(), "test", true).Return(true).Times(1)

	tr := &fakeTransport{onEmit: answer(domain.EventJoined, nil)}
	c := newConnectedClient(t, sink, tr, stubConfig{})
	if !c.JoinRoom(context.Background(), "room") {
		t.Fatal("JoinRoom failed")
	}

	// The transport reports its first connection late, after the join went out
	c.Dispatch(domain.EventConnected, nil)

	if n := len(tr.recorded()); n != 1 {
		t.Errorf("Expected a single join request, got %d", n)
	}
	if c.Membership() != domain.MembershipJoined {
		t.Errorf("Membership: got %s", c.Membership())
	}
}

func TestClient_ConnectedWithoutRoomDoesNotEmit(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := &fakeTransport{}
	c := NewClient(zap.NewNop(), stubConfig{}, mocks.NewMockSink(ctrl), tr, &recordingNotifier{})

	c.Dispatch(domain.EventConnected, nil)
	if !c.Connected() || len(tr.recorded()) != 0 {
		t.Error("Connected event without a room must only flip the connection flag")
	}
}

func TestClient_Disconnect(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	sink.EXPECT().Ready().Return(true)
	sink.EXPECT().Stop().Times(2)

	tr := &fakeTransport{}
	c := newConnectedClient(t, sink, tr, stubConfig{})

	c.Disconnect()
	c.Disconnect()

	if tr.closes != 1 {
		t.Errorf("Transport should be closed once, got %d", tr.closes)
	}
	if c.Connected() {
		t.Error("Expected disconnected state")
	}
}
