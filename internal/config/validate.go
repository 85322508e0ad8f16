package config

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *RelayConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Venue.CredentialKey == "" {
		return errors.New("venue.credential_key is required")
	}
	if key, err := hex.DecodeString(c.Venue.CredentialKey); err != nil || len(key) != 32 {
		return errors.New("venue.credential_key must be 64 hex characters (AES-256)")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Sessions.ReconnectDelay <= 0 {
		return errors.New("sessions.reconnect_delay must be positive")
	}
	if c.Sessions.PingInterval <= 0 {
		return errors.New("sessions.ping_interval must be positive")
	}

	if c.Server.StreamBuffer < 1 {
		return errors.New("server.stream_buffer must be >= 1")
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
