package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected = errors.New("session not connected")
	ErrClosed       = errors.New("session closed")
	ErrNotStarted   = errors.New("no sessions started for user")
)

// Kind distinguishes the two physical endpoints.
type Kind string

const (
	KindPrivate Kind = "private"
	KindPublic  Kind = "public"
)

// State is the session lifecycle state.
type State int32

const (
	StateConnecting State = iota
	StateAuthenticating
	StateSubscribing
	StateConnected
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateSubscribing:
		return "subscribing"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// SessionConfig configures one Session.
type SessionConfig struct {
	URL              string        // WebSocket endpoint
	PingInterval     time.Duration // Keepalive text "ping" cadence
	ReconnectDelay   time.Duration // Fixed delay between reconnect attempts
	LoginTimeout     time.Duration // Max time in Authenticating before forcing reconnect (0 = no timeout)
	WriteTimeout     time.Duration // Write deadline for sends
	HandshakeTimeout time.Duration // Dial handshake timeout
}

// ManagerConfig configures the Connection Manager.
type ManagerConfig struct {
	PrivateURL       string
	PublicURL        string
	PingInterval     time.Duration
	ReconnectDelay   time.Duration
	LoginTimeout     time.Duration
	WriteTimeout     time.Duration
	HandshakeTimeout time.Duration
}

// DefaultManagerConfig returns the venue defaults. The reconnect delay is
// deliberately fixed with unbounded retries: availability wins over
// thundering-herd avoidance at this scale.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		PrivateURL:       "wss://ws.bitget.com/v2/ws/private",
		PublicURL:        "wss://ws.bitget.com/v2/ws/public",
		PingInterval:     30 * time.Second,
		ReconnectDelay:   1 * time.Second,
		LoginTimeout:     10 * time.Second,
		WriteTimeout:     5 * time.Second,
		HandshakeTimeout: 10 * time.Second,
	}
}

func (c ManagerConfig) sessionConfig(url string) SessionConfig {
	return SessionConfig{
		URL:              url,
		PingInterval:     c.PingInterval,
		ReconnectDelay:   c.ReconnectDelay,
		LoginTimeout:     c.LoginTimeout,
		WriteTimeout:     c.WriteTimeout,
		HandshakeTimeout: c.HandshakeTimeout,
	}
}
