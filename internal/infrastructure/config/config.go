// Package config loads client configuration with viper, layered as
// defaults < config file < environment. A .env file, when present, is loaded
// into the environment by the entry point before Load runs.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full client configuration.
type Config struct {
	API  APIConfig  `mapstructure:"api"`
	Push PushConfig `mapstructure:"push"`
	Sync SyncConfig `mapstructure:"sync"`
	Log  LogConfig  `mapstructure:"log"`
}

// APIConfig configures the REST collaborator.
type APIConfig struct {
	URL      string `mapstructure:"url"`
	Token    string `mapstructure:"token"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// PushConfig configures the push channel.
type PushConfig struct {
	// URL of the websocket endpoint. Derived from API.URL when empty.
	URL string `mapstructure:"url"`

	// ReconnectAttempts bounds automatic reconnection.
	ReconnectAttempts int `mapstructure:"reconnect_attempts"`

	// ReconnectDelay is the fixed delay between attempts.
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
}

// SyncConfig configures the synchronization engine.
type SyncConfig struct {
	// PollInterval is the active-conversation re-fetch interval.
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		API: APIConfig{URL: "http://localhost:8080"},
		Push: PushConfig{
			ReconnectAttempts: 5,
			ReconnectDelay:    time.Second,
		},
		Sync: SyncConfig{PollInterval: 5 * time.Second},
		Log:  LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads configuration from the optional file at path and from
// GIGACHAT_* environment variables (e.g. GIGACHAT_API_URL).
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetDefault("api.url", cfg.API.URL)
	v.SetDefault("push.reconnect_attempts", cfg.Push.ReconnectAttempts)
	v.SetDefault("push.reconnect_delay", cfg.Push.ReconnectDelay)
	v.SetDefault("sync.poll_interval", cfg.Sync.PollInterval)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)

	v.SetEnvPrefix("GIGACHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// AutomaticEnv does not surface env-only keys through Unmarshal for
	// nested structs; pick them up explicitly.
	applyEnvOverrides(v, cfg)

	if cfg.Push.URL == "" {
		cfg.Push.URL = PushURLFor(cfg.API.URL)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(v *viper.Viper, cfg *Config) {
	for key, target := range map[string]*string{
		"api.url":      &cfg.API.URL,
		"api.token":    &cfg.API.Token,
		"api.email":    &cfg.API.Email,
		"api.password": &cfg.API.Password,
		"push.url":     &cfg.Push.URL,
		"log.level":    &cfg.Log.Level,
		"log.format":   &cfg.Log.Format,
	} {
		if s := v.GetString(key); s != "" {
			*target = s
		}
	}
	if d := v.GetDuration("sync.poll_interval"); d > 0 {
		cfg.Sync.PollInterval = d
	}
	if n := v.GetInt("push.reconnect_attempts"); n > 0 {
		cfg.Push.ReconnectAttempts = n
	}
	if d := v.GetDuration("push.reconnect_delay"); d > 0 {
		cfg.Push.ReconnectDelay = d
	}
}

// Validate checks the loaded configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.API.URL == "" {
		return errors.New("config: api.url is required")
	}
	if c.Sync.PollInterval <= 0 {
		return errors.New("config: sync.poll_interval must be positive")
	}
	if c.Push.ReconnectDelay < 0 {
		return errors.New("config: push.reconnect_delay must not be negative")
	}
	return nil
}

// PushURLFor maps an http(s) API base URL to the websocket endpoint.
func PushURLFor(apiURL string) string {
	ws := apiURL
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return strings.TrimSuffix(ws, "/") + "/ws"
}
