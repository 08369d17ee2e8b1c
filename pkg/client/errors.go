package client

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by Handle methods once the session stopped
	// accepting commands, and by Receive once every message was delivered.
	ErrClosed = errors.New("client: session closed")

	ErrAlreadyRunning = errors.New("client: session already running")
)

// ResolveError means the server host name could not be resolved.
type ResolveError struct {
	Host string
	Err  error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Host, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// ConnectError means the server could not be reached.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// LoginError means the server refused the login or the handshake broke
// down. Reason holds the server's text when it answered with an error.
type LoginError struct {
	Reason string
	Err    error
}

func (e *LoginError) Error() string {
	if e.Reason != "" {
		return "login rejected: " + e.Reason
	}
	return fmt.Sprintf("login failed: %v", e.Err)
}

func (e *LoginError) Unwrap() error { return e.Err }

// IoError is a transport failure after login.
type IoError struct {
	Op  string
	Err error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }
