package internal

import (
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Store backends.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	Store StoreConfig       `yaml:"store"`
	Sync  SyncConfig        `yaml:"sync"`
	Auth  AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Sync.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig selects the key-value backend and its location.
//
// Backend is "badger" or "sqlite". For badger an empty Path opens an
// in-memory database, which only makes sense in tests.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendBadger
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendBadger, BackendSQLite)),
	); err != nil {
		return err
	}
	if c.Backend == BackendSQLite && c.Path == "" {
		return fmt.Errorf("store: backend is %q but path is empty", BackendSQLite)
	}
	return nil
}

// SyncConfig holds cross-replica synchronization configuration.
//
// Peer is the WebSocket URL of another node's /api/sync endpoint. When
// empty the node runs standalone on an in-process loopback bus.
type SyncConfig struct {
	ReplicaID        string `yaml:"replica_id"`
	Peer             string `yaml:"peer"`
	ToleranceSeconds int    `yaml:"tolerance_seconds"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
	HeartbeatSeconds int    `yaml:"heartbeat_seconds"`
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	if c.Peer != "" && !strings.HasPrefix(c.Peer, "ws://") && !strings.HasPrefix(c.Peer, "wss://") {
		return fmt.Errorf("sync: peer must be a ws:// or wss:// URL, got %q", c.Peer)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.ToleranceSeconds, validation.Min(0)),
		validation.Field(&c.TimeoutSeconds, validation.Min(0)),
		validation.Field(&c.HeartbeatSeconds, validation.Min(0)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Backend: BackendBadger,
			Path:    "./data/ansuz",
		},
		Sync: SyncConfig{
			ToleranceSeconds: 3,
			TimeoutSeconds:   3,
			HeartbeatSeconds: 15,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
