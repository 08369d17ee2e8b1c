// Package ws carries ICB over WebSocket. Every packet travels in one binary
// message and the receiving side is exposed as a plain byte stream, so the
// framer works unchanged on top of it.
package ws

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/omochice/toy-icb-chat/internal/transport"
)

const closeTimeout = time.Second

// Conn adapts a WebSocket connection to transport.Conn.
type Conn struct {
	conn transport.Conn
	side ws.State

	rmu       sync.Mutex
	rd        wsutil.Reader
	inMessage bool

	wmu       sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewClientConn wraps a connection that completed the client handshake. br
// is the reader returned by the dialer and may be nil.
func NewClientConn(conn transport.Conn, br *bufio.Reader) *Conn {
	var src io.Reader = conn
	if br != nil {
		src = br
	}
	return newConn(conn, src, ws.StateClientSide)
}

// NewServerConn wraps a connection that completed the server handshake.
func NewServerConn(conn transport.Conn) *Conn {
	return newConn(conn, conn, ws.StateServerSide)
}

func newConn(conn transport.Conn, src io.Reader, side ws.State) *Conn {
	c := &Conn{conn: conn, side: side}
	c.rd = wsutil.Reader{
		Source:         src,
		State:          side,
		OnIntermediate: c.control,
	}
	return c
}

// Read returns bytes from consecutive data messages. A close frame from the
// peer is answered and reported as io.EOF.
func (c *Conn) Read(p []byte) (int, error) {
	c.rmu.Lock()
	defer c.rmu.Unlock()

	for {
		if !c.inMessage {
			hdr, err := c.rd.NextFrame()
			if err != nil {
				return 0, err
			}
			if hdr.OpCode.IsControl() {
				if err := c.control(hdr, &c.rd); err != nil {
					return 0, err
				}
				continue
			}
			if hdr.OpCode != ws.OpBinary && hdr.OpCode != ws.OpText {
				if err := c.rd.Discard(); err != nil {
					return 0, err
				}
				continue
			}
			c.inMessage = true
		}

		n, err := c.rd.Read(p)
		if err == io.EOF {
			c.inMessage = false
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, closedAsEOF(err)
	}
}

// Write sends p as a single binary message.
func (c *Conn) Write(p []byte) (int, error) {
	var buf bytes.Buffer
	var err error
	if c.side.ClientSide() {
		err = wsutil.WriteClientBinary(&buf, p)
	} else {
		err = wsutil.WriteServerBinary(&buf, p)
	}
	if err != nil {
		return 0, err
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := c.conn.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a close frame when no write is in flight and closes the
// underlying connection.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		if c.wmu.TryLock() {
			var buf bytes.Buffer
			if c.side.ClientSide() {
				_ = wsutil.WriteClientMessage(&buf, ws.OpClose, nil)
			} else {
				_ = wsutil.WriteServerMessage(&buf, ws.OpClose, nil)
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(closeTimeout))
			_, _ = c.conn.Write(buf.Bytes())
			c.wmu.Unlock()
		}
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

func (c *Conn) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// control answers ping and close frames. The reply is assembled first and
// written under the write lock so it never interleaves with a data message.
// A close frame is reported as io.EOF.
func (c *Conn) control(h ws.Header, r io.Reader) error {
	var out bytes.Buffer
	handler := wsutil.ControlHandler{
		Src:                 r,
		Dst:                 &out,
		State:               c.side,
		DisableSrcCiphering: true,
	}
	err := handler.Handle(h)
	if out.Len() > 0 {
		c.wmu.Lock()
		_, werr := c.conn.Write(out.Bytes())
		c.wmu.Unlock()
		if err == nil {
			err = werr
		}
	}
	if h.OpCode == ws.OpClose {
		// the peer is gone whether or not the reply made it out
		return io.EOF
	}
	return err
}

func closedAsEOF(err error) error {
	var closed wsutil.ClosedError
	if errors.As(err, &closed) {
		return io.EOF
	}
	return err
}
