package tcp

import (
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/omochice/toy-icb-chat/internal/transport"
)

// Handler serves one accepted connection. The connection is closed when the
// handler returns.
type Handler func(conn transport.Conn)

// Server accepts TCP connections and runs a Handler for each one.
type Server struct {
	address  string
	listener net.Listener
	handler  Handler
	log      zerolog.Logger
	quit     chan struct{}
	wg       sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// New creates a TCP server that uses the provided Handler.
func New(address string, handler Handler, log zerolog.Logger) *Server {
	return &Server{
		address: address,
		handler: handler,
		log:     log,
		quit:    make(chan struct{}),
		conns:   make(map[net.Conn]struct{}),
	}
}

// Start listens and begins accepting connections in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to start TCP server: %w", err)
	}
	s.listener = listener

	s.log.Debug().Str("addr", listener.Addr().String()).Msg("tcp server started")

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and every open connection, then waits for all
// handlers to return.
func (s *Server) Stop() {
	close(s.quit)
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
				s.log.Warn().Err(err).Msg("failed to accept TCP connection")
				continue
			}
		}

		s.mu.Lock()
		select {
		case <-s.quit:
			s.mu.Unlock()
			conn.Close()
			return
		default:
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()
	s.handler(conn)
}
