package client

import (
	"time"

	"github.com/omochice/toy-icb-chat/pkg/protocol"
)

// writeLoop is the outbound pump and the only writer of the connection.
// Pongs are sent ahead of queued user commands.
func (s *Session) writeLoop() error {
	for {
		var cmd protocol.Command
		select {
		case cmd = <-s.control:
		default:
			select {
			case cmd = <-s.control:
			case cmd = <-s.outbound:
			case <-s.stop:
				return nil
			}
		}

		if _, ok := cmd.(protocol.Quit); ok {
			s.log.Debug().Msg("quit requested, closing connection")
			s.localClose.Store(true)
			s.conn.Close()
			return nil
		}
		if err := s.write(cmd); err != nil {
			return err
		}
	}
}

func (s *Session) write(cmd protocol.Command) error {
	p, err := protocol.EncodeCommand(cmd)
	if err != nil {
		s.log.Warn().Err(err).Msg("dropping command that cannot be encoded")
		return nil
	}
	if s.cfg.WriteTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if err := protocol.WritePacket(s.conn, p); err != nil {
		if s.localClose.Load() {
			return nil
		}
		return &IoError{Op: "write", Err: err}
	}
	s.log.Trace().Str("type", string(p.Type)).Msg("sent")
	return nil
}
