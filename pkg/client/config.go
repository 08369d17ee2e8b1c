package client

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/omochice/toy-icb-chat/pkg/protocol"
)

const (
	DefaultPort  = 7326
	DefaultGroup = "1"

	TransportTCP = "tcp"
	TransportWS  = "ws"
)

// ErrInvalidConfig is wrapped by every error returned from Config.Validate.
var ErrInvalidConfig = errors.New("client: invalid config")

// Config describes a single ICB session.
type Config struct {
	Host     string
	Port     int
	Nickname string
	Group    string
	Password string
	// LoginID defaults to Nickname.
	LoginID string

	// Transport is TransportTCP or TransportWS. Path is the WebSocket
	// request path.
	Transport string
	Path      string

	ConnectTimeout   time.Duration
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

// DefaultConfig returns a Config with every optional field set.
func DefaultConfig() Config {
	return Config{
		Port:             DefaultPort,
		Group:            DefaultGroup,
		Transport:        TransportTCP,
		Path:             "/",
		ConnectTimeout:   10 * time.Second,
		HandshakeTimeout: 30 * time.Second,
		WriteTimeout:     30 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Port == 0 {
		c.Port = d.Port
	}
	if c.Group == "" {
		c.Group = d.Group
	}
	if c.Transport == "" {
		c.Transport = d.Transport
	}
	if c.Path == "" {
		c.Path = d.Path
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	return c
}

// Validate reports the first problem found in c.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Host) == "":
		return fmt.Errorf("%w: empty host", ErrInvalidConfig)
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	case c.Nickname == "":
		return fmt.Errorf("%w: empty nickname", ErrInvalidConfig)
	case c.Transport != TransportTCP && c.Transport != TransportWS:
		return fmt.Errorf("%w: unknown transport %q", ErrInvalidConfig, c.Transport)
	case c.ConnectTimeout < 0 || c.HandshakeTimeout < 0 || c.WriteTimeout < 0:
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	if err := protocol.ValidateCommand(c.login()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c Config) login() protocol.Login {
	return protocol.Login{
		LoginID:  c.LoginID,
		Nickname: c.Nickname,
		Group:    c.Group,
		Command:  protocol.LoginCommand,
		Password: c.Password,
	}
}
