// Package transport defines the byte stream an ICB session runs on and the
// dial errors shared by the concrete transports.
package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

// Conn is a bidirectional byte stream. *net.TCPConn satisfies it, as does the
// WebSocket stream adapter.
type Conn interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	RemoteAddr() net.Addr
}

// Dialer opens a Conn to host:port.
type Dialer interface {
	Dial(ctx context.Context, host string, port int) (Conn, error)
}

// DialFunc adapts a function to the Dialer interface.
type DialFunc func(ctx context.Context, host string, port int) (Conn, error)

func (f DialFunc) Dial(ctx context.Context, host string, port int) (Conn, error) {
	return f(ctx, host, port)
}

// Stage tells which step of dialing failed.
type Stage int

const (
	StageResolve Stage = iota
	StageConnect
)

func (s Stage) String() string {
	switch s {
	case StageResolve:
		return "resolve"
	case StageConnect:
		return "connect"
	default:
		return "stage(" + strconv.Itoa(int(s)) + ")"
	}
}

// DialError is returned by every Dialer in this module.
type DialError struct {
	Stage Stage
	Addr  string
	Err   error
}

func (e *DialError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Addr, e.Err)
}

func (e *DialError) Unwrap() error {
	return e.Err
}

// Resolve looks up host and returns its addresses. Literal IPs are returned
// as is without a lookup.
func Resolve(ctx context.Context, r *net.Resolver, host string) ([]string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []string{host}, nil
	}
	if r == nil {
		r = net.DefaultResolver
	}
	addrs, err := r.LookupHost(ctx, host)
	if err != nil {
		return nil, &DialError{Stage: StageResolve, Addr: host, Err: err}
	}
	if len(addrs) == 0 {
		return nil, &DialError{Stage: StageResolve, Addr: host, Err: fmt.Errorf("no addresses for %s", host)}
	}
	return addrs, nil
}

// DialFirst connects to the first reachable address on port, returning the
// last connect error when none is.
func DialFirst(ctx context.Context, d *net.Dialer, addrs []string, port int) (net.Conn, error) {
	var lastErr error
	for _, a := range addrs {
		addr := net.JoinHostPort(a, strconv.Itoa(port))
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			return conn, nil
		}
		lastErr = &DialError{Stage: StageConnect, Addr: addr, Err: err}
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}
