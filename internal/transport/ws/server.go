package ws

import (
	"bufio"
	"bytes"
	"time"

	"github.com/gobwas/ws"
	"github.com/rs/zerolog"

	"github.com/omochice/toy-icb-chat/internal/transport"
	"github.com/omochice/toy-icb-chat/internal/transport/tcp"
)

const upgradeTimeout = 5 * time.Second

// NewServer returns a TCP server that completes the WebSocket upgrade on
// each accepted connection before handing the stream to handler.
func NewServer(address string, handler tcp.Handler, log zerolog.Logger) *tcp.Server {
	return tcp.New(address, func(conn transport.Conn) {
		_ = conn.SetReadDeadline(time.Now().Add(upgradeTimeout))
		if _, err := ws.Upgrade(conn); err != nil {
			log.Warn().Err(err).Msg("failed to upgrade websocket connection")
			return
		}
		_ = conn.SetReadDeadline(time.Time{})

		sc := NewServerConn(conn)
		defer sc.Close()
		handler(sc)
	}, log)
}

// NewDualServer serves plain TCP and WebSocket clients on one port. ICB
// clients speak first, so a connection that opens with an HTTP GET is
// upgraded and anything else is handed over as raw ICB.
func NewDualServer(address string, handler tcp.Handler, log zerolog.Logger) *tcp.Server {
	return tcp.New(address, func(conn transport.Conn) {
		_ = conn.SetReadDeadline(time.Now().Add(upgradeTimeout))
		bc := &bufferedConn{Conn: conn, r: bufio.NewReader(conn)}
		peek, err := bc.r.Peek(4)
		if err != nil {
			log.Warn().Err(err).Msg("failed to detect protocol")
			return
		}
		if !bytes.Equal(peek, []byte("GET ")) {
			_ = conn.SetReadDeadline(time.Time{})
			handler(bc)
			return
		}

		if _, err := ws.Upgrade(bc); err != nil {
			log.Warn().Err(err).Msg("failed to upgrade websocket connection")
			return
		}
		_ = conn.SetReadDeadline(time.Time{})

		sc := NewServerConn(bc)
		defer sc.Close()
		handler(sc)
	}, log)
}

// bufferedConn keeps bytes consumed while sniffing the protocol.
type bufferedConn struct {
	transport.Conn
	r *bufio.Reader
}

func (c *bufferedConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}
