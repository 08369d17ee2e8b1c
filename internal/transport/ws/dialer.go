package ws

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/gobwas/ws"

	"github.com/omochice/toy-icb-chat/internal/transport"
)

// Dialer connects to ws://host:port/Path. The host is resolved up front so
// lookup failures are reported separately from connect failures.
type Dialer struct {
	Resolver *net.Resolver
	Timeout  time.Duration
	Path     string
}

// Dial implements transport.Dialer.
func (d Dialer) Dial(ctx context.Context, host string, port int) (transport.Conn, error) {
	addrs, err := transport.Resolve(ctx, d.Resolver, host)
	if err != nil {
		return nil, err
	}

	path := d.Path
	if path == "" {
		path = "/"
	}
	u := url.URL{Scheme: "ws", Host: net.JoinHostPort(host, strconv.Itoa(port)), Path: path}

	wd := ws.Dialer{
		Timeout: d.Timeout,
		NetDial: func(ctx context.Context, _, _ string) (net.Conn, error) {
			return transport.DialFirst(ctx, &net.Dialer{Timeout: d.Timeout}, addrs, port)
		},
	}
	conn, br, _, err := wd.Dial(ctx, u.String())
	if err != nil {
		var derr *transport.DialError
		if errors.As(err, &derr) {
			return nil, derr
		}
		return nil, &transport.DialError{
			Stage: transport.StageConnect,
			Addr:  u.String(),
			Err:   fmt.Errorf("websocket handshake: %w", err),
		}
	}
	return NewClientConn(conn, br), nil
}
