// Package config loads the chat client configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the chat client.
type Config struct {
	// Collaborator REST API, e.g. http://localhost:8000.
	APIURL string `env:"CHAT_API_URL" envDefault:"http://localhost:8000" validate:"required,url"`
	// Socket base URL. Derived from APIURL when empty.
	WSURL  string `env:"CHAT_WS_URL" validate:"omitempty,url"`
	Token  string `env:"CHAT_TOKEN"`
	UserID string `env:"CHAT_USER_ID"`

	Transport      string        `env:"CHAT_TRANSPORT" envDefault:"coder" validate:"oneof=coder gorilla"`
	ReconnectDelay time.Duration `env:"CHAT_RECONNECT_DELAY" envDefault:"3s" validate:"gt=0"`
	PingInterval   time.Duration `env:"CHAT_PING_INTERVAL" envDefault:"0s" validate:"gte=0"`
	ReadLimit      int64         `env:"CHAT_READ_LIMIT" envDefault:"1048576" validate:"gt=0"`
	AutoReadAck    bool          `env:"CHAT_AUTO_READ_ACK" envDefault:"true"`
	TypingWindow   time.Duration `env:"CHAT_TYPING_WINDOW" envDefault:"3s" validate:"gt=0"`
	HTTPTimeout    time.Duration `env:"CHAT_HTTP_TIMEOUT" envDefault:"10s" validate:"gt=0"`

	LogFormat string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`

	TracingEnabled bool   `env:"CHAT_TRACING_ENABLED" envDefault:"false"`
	ZipkinURL      string `env:"CHAT_TRACING_ZIPKIN_URL" envDefault:"http://localhost:9411/api/v2/spans" validate:"omitempty,url"`
}

var validate = validator.New()

// Load reads the given .env files (".env" when none are named) into the process
// environment without overriding variables that are already set, then parses
// and validates the configuration. A missing default .env file is not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		if len(files) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
		slog.Debug("no .env file found, relying on environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// WebSocketURL returns WSURL, or APIURL with its scheme switched to ws/wss.
func (c *Config) WebSocketURL() (string, error) {
	if c.WSURL != "" {
		return c.WSURL, nil
	}
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return "", fmt.Errorf("parse api url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("cannot derive socket url from %q", c.APIURL)
	}
	return u.String(), nil
}
