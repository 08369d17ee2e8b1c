package client

import (
	"github.com/rs/zerolog"

	"github.com/omochice/toy-icb-chat/internal/transport"
	"github.com/omochice/toy-icb-chat/internal/transport/tcp"
	"github.com/omochice/toy-icb-chat/internal/transport/ws"
)

// Conn is the byte stream a session runs on.
type Conn = transport.Conn

// Dialer opens the connection for a session. Errors of type
// *transport.DialError are mapped to ResolveError or ConnectError.
type Dialer = transport.Dialer

// DialFunc adapts a function to Dialer.
type DialFunc = transport.DialFunc

const (
	defaultInboundBuffer  = 64
	defaultOutboundBuffer = 64
	controlBuffer         = 8
)

type options struct {
	log            zerolog.Logger
	dialer         Dialer
	inboundBuffer  int
	outboundBuffer int
}

// Option configures optional behaviour of Init.
type Option func(*options)

// WithLogger sets the logger used by the session. The default discards
// everything.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithDialer replaces the dialer chosen from Config.Transport.
func WithDialer(d Dialer) Option {
	return func(o *options) {
		o.dialer = d
	}
}

// WithInboundBuffer sets the capacity of the Messages channel.
func WithInboundBuffer(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.inboundBuffer = n
		}
	}
}

// WithOutboundBuffer sets how many commands Send can queue before it blocks.
func WithOutboundBuffer(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.outboundBuffer = n
		}
	}
}

func newOptions(cfg Config, opts []Option) options {
	o := options{
		log:            zerolog.Nop(),
		inboundBuffer:  defaultInboundBuffer,
		outboundBuffer: defaultOutboundBuffer,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.dialer == nil {
		o.dialer = dialerFor(cfg)
	}
	return o
}

func dialerFor(cfg Config) Dialer {
	if cfg.Transport == TransportWS {
		return ws.Dialer{Timeout: cfg.ConnectTimeout, Path: cfg.Path}
	}
	return tcp.Dialer{Timeout: cfg.ConnectTimeout}
}
