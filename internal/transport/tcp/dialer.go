// Package tcp provides the plain TCP transport for ICB sessions.
package tcp

import (
	"context"
	"net"
	"time"

	"github.com/omochice/toy-icb-chat/internal/transport"
)

// Dialer resolves the host before connecting so that a lookup failure and a
// refused connection surface as different transport.DialError stages.
type Dialer struct {
	Resolver  *net.Resolver
	Timeout   time.Duration
	KeepAlive time.Duration
}

// Dial implements transport.Dialer.
func (d Dialer) Dial(ctx context.Context, host string, port int) (transport.Conn, error) {
	addrs, err := transport.Resolve(ctx, d.Resolver, host)
	if err != nil {
		return nil, err
	}
	nd := &net.Dialer{Timeout: d.Timeout, KeepAlive: d.KeepAlive}
	conn, err := transport.DialFirst(ctx, nd, addrs, port)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
