// Package protocol implements the ICB wire format: length-prefixed packet
// framing and the codec between packets and typed messages and commands.
package protocol

import (
	"bytes"
	"fmt"
)

const (
	// MaxPayloadLen is the largest number of bytes that may follow the
	// length byte: type tag, fields, separators and the terminator.
	MaxPayloadLen = 255

	// Separator delimits fields inside a packet.
	Separator byte = 0x01

	// Terminator ends every packet written by this package.
	Terminator byte = 0x00
)

// Packet is one unit on the wire: a single-character type tag and an ordered
// list of byte-string fields.
type Packet struct {
	Type   byte
	Fields [][]byte
}

// NewPacket builds a packet from string fields.
func NewPacket(typ byte, fields ...string) Packet {
	p := Packet{Type: typ}
	if len(fields) > 0 {
		p.Fields = make([][]byte, len(fields))
		for i, f := range fields {
			p.Fields[i] = []byte(f)
		}
	}
	return p
}

// Field returns field i as a string, or "" when the packet is shorter.
func (p Packet) Field(i int) string {
	if i < 0 || i >= len(p.Fields) {
		return ""
	}
	return string(p.Fields[i])
}

// Strings returns all fields as strings.
func (p Packet) Strings() []string {
	if len(p.Fields) == 0 {
		return nil
	}
	out := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		out[i] = string(f)
	}
	return out
}

// withFields returns p with at least one field when want is positive. A
// tag-only body and a body holding one empty field are the same bytes on the
// wire, so the single empty field is restored here.
func (p Packet) withFields(want int) Packet {
	if want > 0 && len(p.Fields) == 0 {
		p.Fields = [][]byte{{}}
	}
	return p
}

// MarshalBinary returns the complete frame including the length byte.
func (p Packet) MarshalBinary() ([]byte, error) {
	size := 2
	for i, f := range p.Fields {
		if bytes.IndexByte(f, Separator) >= 0 || bytes.IndexByte(f, Terminator) >= 0 {
			return nil, fmt.Errorf("field %d: %w", i, ErrReservedByte)
		}
		if i > 0 {
			size++
		}
		size += len(f)
	}
	if size > MaxPayloadLen {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, size, MaxPayloadLen)
	}

	buf := make([]byte, 0, size+1)
	buf = append(buf, byte(size), p.Type)
	for i, f := range p.Fields {
		if i > 0 {
			buf = append(buf, Separator)
		}
		buf = append(buf, f...)
	}
	buf = append(buf, Terminator)
	return buf, nil
}

// parsePayload splits the bytes that followed the length byte. One trailing
// terminator is dropped if present; a trailing empty field only exists when
// the peer sent a trailing separator.
func parsePayload(payload []byte) (Packet, error) {
	if len(payload) == 0 {
		return Packet{}, ErrEmptyPacket
	}
	p := Packet{Type: payload[0]}
	body := payload[1:]
	if n := len(body); n > 0 && body[n-1] == Terminator {
		body = body[:n-1]
	}
	if len(body) == 0 {
		return p, nil
	}
	parts := bytes.Split(body, []byte{Separator})
	p.Fields = make([][]byte, len(parts))
	for i, part := range parts {
		p.Fields[i] = bytes.Clone(part)
	}
	return p, nil
}
