// Package client runs an ICB session: it logs in, then moves messages from
// the server to the consumer and commands from the consumer to the server on
// two goroutines coordinated by Session.Run.
package client

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/omochice/toy-icb-chat/internal/transport"
	"github.com/omochice/toy-icb-chat/pkg/protocol"
)

// Session owns the connection and the state machine of one login.
type Session struct {
	id  uuid.UUID
	cfg Config
	log zerolog.Logger

	conn   Conn
	reader *bufio.Reader

	state      atomic.Int32
	running    atomic.Bool
	localClose atomic.Bool

	primed   []protocol.Message
	messages chan protocol.Message
	outbound chan protocol.Command
	control  chan protocol.Command

	// closing is closed once commands are no longer accepted; stop is
	// closed when Run tears the pumps down.
	closing     chan struct{}
	closingOnce sync.Once
	quitOnce    sync.Once
	stop        chan struct{}
	stopOnce    sync.Once
}

// Init connects, logs in and returns the two halves of the session. The
// caller must call Session.Run to start moving messages; the first message
// delivered is always protocol.LoginOK.
func Init(ctx context.Context, cfg Config, opts ...Option) (*Handle, *Session, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	o := newOptions(cfg, opts)
	s := newSession(cfg, o)

	s.setState(Connecting)
	dialCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	conn, err := o.dialer.Dial(dialCtx, cfg.Host, cfg.Port)
	cancel()
	if err != nil {
		s.setState(Closed)
		err = dialError(cfg, err)
		s.log.Error().Err(err).Msg("dial failed")
		return nil, nil, err
	}
	s.conn = conn
	s.reader = bufio.NewReader(conn)
	if addr := conn.RemoteAddr(); addr != nil {
		s.log = s.log.With().Str("remote", addr.String()).Logger()
	}

	s.setState(AwaitingLoginAck)
	primed, err := s.handshake(ctx)
	if err != nil {
		conn.Close()
		s.setState(Closed)
		s.log.Error().Err(err).Msg("login failed")
		return nil, nil, err
	}
	s.primed = primed
	s.setState(Connected)
	s.log.Info().Str("nick", cfg.Nickname).Str("group", cfg.Group).Msg("logged in")

	return &Handle{s: s}, s, nil
}

func newSession(cfg Config, o options) *Session {
	id := uuid.New()
	return &Session{
		id:       id,
		cfg:      cfg,
		log:      o.log.With().Str("session", id.String()).Logger(),
		messages: make(chan protocol.Message, o.inboundBuffer),
		outbound: make(chan protocol.Command, o.outboundBuffer),
		control:  make(chan protocol.Command, controlBuffer),
		closing:  make(chan struct{}),
		stop:     make(chan struct{}),
	}
}

// Run drives the session until the server disconnects, the consumer closes
// the handle, a pump fails or ctx is cancelled. It returns nil for a graceful
// close and the terminal error otherwise; the same value is delivered as the
// final protocol.Closed message.
//
// Inbound messages are delivered with backpressure: once the Messages buffer
// is full the connection is not read, so server pings and disconnects go
// unnoticed until the consumer drains the channel. A consumer that stops
// reading must cancel ctx or call Handle.Close for Run to return.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	events := make(chan error, 2)
	go func() { events <- s.readLoop() }()
	go func() { events <- s.writeLoop() }()

	var err error
	pending := 2
	select {
	case err = <-events:
		pending--
	case <-ctx.Done():
		err = ctx.Err()
	}

	s.setState(Closing)
	s.shutdown()
	for ; pending > 0; pending-- {
		<-events
	}
	s.setState(Closed)

	if err != nil {
		s.log.Error().Err(err).Msg("session terminated")
	} else {
		s.log.Info().Msg("session closed")
	}
	s.finish(ctx, protocol.Closed{Err: err})
	return err
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id.String()
}

// RemoteAddr returns the server address, or nil before the connection exists.
func (s *Session) RemoteAddr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.RemoteAddr()
}

func (s *Session) setState(st State) {
	prev := State(s.state.Swap(int32(st)))
	if prev != st {
		s.log.Debug().Stringer("from", prev).Stringer("to", st).Msg("state change")
	}
}

func (s *Session) stopAccepting() {
	s.closingOnce.Do(func() { close(s.closing) })
}

func (s *Session) shutdown() {
	s.stopAccepting()
	s.stopOnce.Do(func() {
		s.localClose.Store(true)
		close(s.stop)
		if err := s.conn.Close(); err != nil {
			s.log.Trace().Err(err).Msg("close connection")
		}
	})
}

// finish delivers the terminal message and closes the channel. If the
// consumer is not reading and ctx is already done, delivery is left to a
// goroutine so Run can return.
func (s *Session) finish(ctx context.Context, closed protocol.Closed) {
	select {
	case s.messages <- closed:
		close(s.messages)
	case <-ctx.Done():
		go func() {
			s.messages <- closed
			close(s.messages)
		}()
	}
}

func (s *Session) enqueue(cmd protocol.Command) error {
	select {
	case s.outbound <- cmd:
		return nil
	case <-s.stop:
		return ErrClosed
	}
}

func dialError(cfg Config, err error) error {
	var derr *transport.DialError
	if errors.As(err, &derr) {
		if derr.Stage == transport.StageResolve {
			return &ResolveError{Host: cfg.Host, Err: derr.Err}
		}
		return &ConnectError{Addr: derr.Addr, Err: derr.Err}
	}
	return &ConnectError{Addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)), Err: err}
}
