package config

import "time"

// RelayConfig is the root configuration for a relay instance.
type RelayConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Venue    VenueConfig    `yaml:"venue"`
	Database DBConfig       `yaml:"database"`
	Sessions SessionsConfig `yaml:"sessions"`
	Server   ServerConfig   `yaml:"server"`
}

// InstanceConfig identifies this relay.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// VenueConfig holds venue endpoint and credential settings.
type VenueConfig struct {
	PrivateWSURL  string        `yaml:"private_ws_url"`
	PublicWSURL   string        `yaml:"public_ws_url"`
	RestURL       string        `yaml:"rest_url"`
	RestTimeout   time.Duration `yaml:"rest_timeout"`
	MaxRetries    int           `yaml:"max_retries"`
	CredentialKey string        `yaml:"credential_key"` // 64 hex chars, AES-256 key for stored API credentials
}

// DBConfig holds the Postgres connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// SessionsConfig holds WebSocket session timings.
type SessionsConfig struct {
	PingInterval     time.Duration `yaml:"ping_interval"`
	ReconnectDelay   time.Duration `yaml:"reconnect_delay"`
	LoginTimeout     time.Duration `yaml:"login_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
}

// ServerConfig holds the consumer-facing HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	StreamPing      time.Duration `yaml:"stream_ping"`
	StreamBuffer    int           `yaml:"stream_buffer"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}
