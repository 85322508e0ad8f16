package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultPrivateWSURL = "wss://ws.bitget.com/v2/ws/private"
	DefaultPublicWSURL  = "wss://ws.bitget.com/v2/ws/public"
	DefaultRestURL      = "https://api.bitget.com"

	DefaultRestTimeout = 30 * time.Second
	DefaultMaxRetries  = 3

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 10
	DefaultMinConns  = 2

	DefaultPingInterval     = 30 * time.Second
	DefaultReconnectDelay   = 1 * time.Second
	DefaultLoginTimeout     = 10 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second

	DefaultServerAddr      = ":4000"
	DefaultStreamPing      = 25 * time.Second
	DefaultStreamBuffer    = 256
	DefaultShutdownTimeout = 10 * time.Second
)

func (c *RelayConfig) applyDefaults() {
	// Venue defaults
	if c.Venue.PrivateWSURL == "" {
		c.Venue.PrivateWSURL = DefaultPrivateWSURL
	}
	if c.Venue.PublicWSURL == "" {
		c.Venue.PublicWSURL = DefaultPublicWSURL
	}
	if c.Venue.RestURL == "" {
		c.Venue.RestURL = DefaultRestURL
	}
	if c.Venue.RestTimeout == 0 {
		c.Venue.RestTimeout = DefaultRestTimeout
	}
	if c.Venue.MaxRetries == 0 {
		c.Venue.MaxRetries = DefaultMaxRetries
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Session defaults
	if c.Sessions.PingInterval == 0 {
		c.Sessions.PingInterval = DefaultPingInterval
	}
	if c.Sessions.ReconnectDelay == 0 {
		c.Sessions.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Sessions.LoginTimeout == 0 {
		c.Sessions.LoginTimeout = DefaultLoginTimeout
	}
	if c.Sessions.WriteTimeout == 0 {
		c.Sessions.WriteTimeout = DefaultWriteTimeout
	}
	if c.Sessions.HandshakeTimeout == 0 {
		c.Sessions.HandshakeTimeout = DefaultHandshakeTimeout
	}

	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.StreamPing == 0 {
		c.Server.StreamPing = DefaultStreamPing
	}
	if c.Server.StreamBuffer == 0 {
		c.Server.StreamBuffer = DefaultStreamBuffer
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
}
