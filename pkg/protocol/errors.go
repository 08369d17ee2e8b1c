package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated    = errors.New("protocol: truncated packet")
	ErrTooLarge     = errors.New("protocol: packet too large")
	ErrEmptyPacket  = errors.New("protocol: empty packet")
	ErrReservedByte = errors.New("protocol: field contains reserved byte")
	ErrMissingField = errors.New("protocol: missing required field")
	ErrInvalidField = errors.New("protocol: invalid field")
	ErrNotEncodable = errors.New("protocol: value cannot be encoded")
)

// ProtocolError reports a packet received from the peer that could not be decoded.
type ProtocolError struct {
	Type byte
	Err  error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error in packet %q: %v", e.Type, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// ValidationError reports a value rejected locally before it reached the wire.
type ValidationError struct {
	Op  string
	Err error
}

func (e *ValidationError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("validation failed: %v", e.Err)
	}
	return fmt.Sprintf("%s: validation failed: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
