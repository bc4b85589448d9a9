package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewAppliesReconnectDefaults(t *testing.T) {
	s, err := New("127.0.0.1:19132", Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if s.maxReconnectAttempts != defaultMaxReconnectAttempts {
		t.Fatalf("got maxReconnectAttempts %d, want %d", s.maxReconnectAttempts, defaultMaxReconnectAttempts)
	}

	if s.reconnectDelay != defaultReconnectDelay {
		t.Fatalf("got reconnectDelay %v, want %v", s.reconnectDelay, defaultReconnectDelay)
	}
}

func TestNewHonorsExplicitReconnectOptions(t *testing.T) {
	s, err := New("127.0.0.1:19132", Options{
		MaxReconnectAttempts: 10,
		ReconnectDelay:       time.Second,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if s.maxReconnectAttempts != 10 {
		t.Fatalf("got maxReconnectAttempts %d, want 10", s.maxReconnectAttempts)
	}

	if s.reconnectDelay != time.Second {
		t.Fatalf("got reconnectDelay %v, want 1s", s.reconnectDelay)
	}
}

func TestSessionCommandsRequireAConnection(t *testing.T) {
	s, err := New("127.0.0.1:19132", Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	for name, call := range map[string]func() error{
		"Chat":            func() error { return s.Chat("hi") },
		"SendCommand":     func() error { return s.SendCommand("help") },
		"RespondToForm":   func() error { return s.RespondToForm(0, nil) },
		"SetInitialized":  s.SetInitialized,
		"Disconnect":      s.Disconnect,
	} {
		if err := call(); !errors.Is(err, errNotConnected) {
			t.Fatalf("%s: got err %v, want errNotConnected", name, err)
		}
	}
}

func TestRunDoesNotReconnectBeforeSpawn(t *testing.T) {
	s, err := New("127.0.0.1:1", Options{AutoReconnect: true, MaxReconnectAttempts: 5})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if s.hasReachedSpawn() {
		t.Fatal("expected a fresh session to not have reached spawn")
	}

	reconnects := 0
	s.OnReconnect.On(func(int) { reconnects++ })

	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected Run to return the dial error")
	}

	if reconnects != 0 {
		t.Fatalf("expected no reconnect attempt before spawn, got %d", reconnects)
	}
}
