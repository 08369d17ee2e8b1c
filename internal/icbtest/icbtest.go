// Package icbtest provides a scripted ICB server for tests. Each accepted
// connection is handed to a handler as a Peer that reads client commands and
// writes server messages.
package icbtest

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/omochice/toy-icb-chat/internal/logging"
	"github.com/omochice/toy-icb-chat/internal/transport"
	"github.com/omochice/toy-icb-chat/internal/transport/tcp"
	"github.com/omochice/toy-icb-chat/internal/transport/ws"
	"github.com/omochice/toy-icb-chat/pkg/client"
	"github.com/omochice/toy-icb-chat/pkg/protocol"
)

// Timeout bounds every Peer read so a broken test fails instead of hanging.
const Timeout = 2 * time.Second

// Server is a fake ICB server listening on 127.0.0.1.
type Server struct {
	srv       *tcp.Server
	transport string
}

// NewServer starts a plain TCP server and stops it when the test ends.
func NewServer(t testing.TB, handler func(*Peer)) *Server {
	t.Helper()
	s := &Server{transport: client.TransportTCP}
	s.srv = tcp.New("127.0.0.1:0", s.wrap(handler), logging.ForTests("icbtest"))
	s.start(t)
	return s
}

// NewWSServer starts a server that expects a WebSocket upgrade first.
func NewWSServer(t testing.TB, handler func(*Peer)) *Server {
	t.Helper()
	s := &Server{transport: client.TransportWS}
	s.srv = ws.NewServer("127.0.0.1:0", s.wrap(handler), logging.ForTests("icbtest"))
	s.start(t)
	return s
}

// NewDualServer accepts both transports on one port. Config defaults to
// plain TCP; set Transport to use WebSocket.
func NewDualServer(t testing.TB, handler func(*Peer)) *Server {
	t.Helper()
	s := &Server{transport: client.TransportTCP}
	s.srv = ws.NewDualServer("127.0.0.1:0", s.wrap(handler), logging.ForTests("icbtest"))
	s.start(t)
	return s
}

func (s *Server) start(t testing.TB) {
	t.Helper()
	if err := s.srv.Start(); err != nil {
		t.Fatalf("icbtest: %v", err)
	}
	t.Cleanup(s.srv.Stop)
}

func (s *Server) wrap(handler func(*Peer)) tcp.Handler {
	return func(conn transport.Conn) {
		handler(&Peer{conn: conn, r: bufio.NewReader(conn)})
	}
}

func (s *Server) Addr() string {
	return s.srv.Addr()
}

// Port returns the listening port.
func (s *Server) Port() int {
	_, p, _ := net.SplitHostPort(s.srv.Addr())
	port, _ := strconv.Atoi(p)
	return port
}

// Config returns a client configuration pointing at this server.
func (s *Server) Config(nickname string) client.Config {
	cfg := client.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = s.Port()
	cfg.Nickname = nickname
	cfg.Transport = s.transport
	cfg.HandshakeTimeout = Timeout
	cfg.WriteTimeout = Timeout
	return cfg
}

// Peer is the server side of one connection.
type Peer struct {
	conn transport.Conn
	r    *bufio.Reader
}

// ReadPacket reads the next packet from the client.
func (p *Peer) ReadPacket() (protocol.Packet, error) {
	_ = p.conn.SetReadDeadline(time.Now().Add(Timeout))
	return protocol.ReadPacket(p.r)
}

// ReadCommand reads and decodes the next client command.
func (p *Peer) ReadCommand() (protocol.Command, error) {
	pk, err := p.ReadPacket()
	if err != nil {
		return nil, err
	}
	return protocol.DecodeCommand(pk)
}

// Send encodes and writes a server message.
func (p *Peer) Send(msgs ...protocol.Message) error {
	for _, m := range msgs {
		pk, err := protocol.EncodeMessage(m)
		if err != nil {
			return err
		}
		if err := p.SendPacket(pk); err != nil {
			return err
		}
	}
	return nil
}

func (p *Peer) SendPacket(pk protocol.Packet) error {
	_ = p.conn.SetWriteDeadline(time.Now().Add(Timeout))
	return protocol.WritePacket(p.conn, pk)
}

// WriteRaw writes bytes that need not form valid packets.
func (p *Peer) WriteRaw(b []byte) error {
	_ = p.conn.SetWriteDeadline(time.Now().Add(Timeout))
	_, err := p.conn.Write(b)
	return err
}

// Login reads the login packet without answering it.
func (p *Peer) Login() (protocol.Login, error) {
	cmd, err := p.ReadCommand()
	if err != nil {
		return protocol.Login{}, err
	}
	login, ok := cmd.(protocol.Login)
	if !ok {
		return protocol.Login{}, fmt.Errorf("icbtest: expected login, got %T", cmd)
	}
	return login, nil
}

// Handshake reads the login packet and accepts it.
func (p *Peer) Handshake() (protocol.Login, error) {
	login, err := p.Login()
	if err != nil {
		return login, err
	}
	return login, p.Send(protocol.LoginOK{})
}

// ExpectClosed waits until the client closes its side.
func (p *Peer) ExpectClosed() error {
	for {
		_, err := p.ReadPacket()
		if err == nil {
			continue
		}
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return fmt.Errorf("icbtest: client did not close: %w", err)
		}
		return nil
	}
}

func (p *Peer) Close() error {
	return p.conn.Close()
}
