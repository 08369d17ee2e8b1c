package client

import (
	"errors"
	"io"

	"github.com/omochice/toy-icb-chat/pkg/protocol"
)

// readLoop is the inbound pump. It is the only reader of the connection and
// the only writer of s.messages until Run finishes.
func (s *Session) readLoop() error {
	for _, msg := range s.primed {
		if !s.deliver(msg) {
			return nil
		}
	}
	s.primed = nil

	exited := false
	for {
		p, err := protocol.ReadPacket(s.reader)
		if err != nil {
			if s.localClose.Load() {
				return nil
			}
			if exited && errors.Is(err, io.EOF) {
				s.log.Debug().Msg("server closed the connection after exit")
				return nil
			}
			if errors.Is(err, protocol.ErrEmptyPacket) {
				return &protocol.ProtocolError{Err: err}
			}
			return &IoError{Op: "read", Err: err}
		}

		msg, err := protocol.DecodeMessage(p)
		if err != nil {
			return err
		}

		switch m := msg.(type) {
		case protocol.Ping:
			s.log.Trace().Str("id", m.ID).Msg("ping")
			select {
			case s.control <- protocol.Pong{ID: m.ID}:
			case <-s.stop:
				return nil
			}
			continue
		case protocol.Exit:
			exited = true
		case protocol.Unknown:
			s.log.Debug().Str("type", string(m.Type)).Msg("unknown packet type")
		}

		if !s.deliver(msg) {
			return nil
		}
	}
}

func (s *Session) deliver(msg protocol.Message) bool {
	select {
	case s.messages <- msg:
		return true
	case <-s.stop:
		return false
	}
}
