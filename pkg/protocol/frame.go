package protocol

import (
	"errors"
	"fmt"
	"io"
)

// ReadPacket reads exactly one length-prefixed packet from r.
//
// io.EOF is returned unchanged when the stream ends cleanly before a length
// byte; a stream that ends inside a packet yields ErrTruncated.
func ReadPacket(r io.Reader) (Packet, error) {
	var head [1]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return Packet{}, err
	}
	n := int(head[0])
	if n == 0 {
		return Packet{}, ErrEmptyPacket
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Packet{}, fmt.Errorf("%w: want %d bytes", ErrTruncated, n)
		}
		return Packet{}, err
	}
	return parsePayload(payload)
}

// WritePacket encodes p and writes it with a single Write call. Nothing is
// written when the packet is invalid or too large.
func WritePacket(w io.Writer, p Packet) error {
	frame, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}
