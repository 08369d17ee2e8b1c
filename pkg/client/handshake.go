package client

import (
	"context"
	"errors"
	"time"

	"github.com/omochice/toy-icb-chat/pkg/protocol"
)

// handshake sends the login packet and waits for the server to accept it.
// Messages that arrive before the acknowledgement are returned after it so
// the consumer always sees LoginOK first.
func (s *Session) handshake(ctx context.Context) ([]protocol.Message, error) {
	deadline := time.Now().Add(s.cfg.HandshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = s.conn.SetReadDeadline(deadline)
	_ = s.conn.SetWriteDeadline(deadline)

	stop := context.AfterFunc(ctx, func() {
		now := time.Now()
		_ = s.conn.SetReadDeadline(now)
		_ = s.conn.SetWriteDeadline(now)
	})
	msgs, err := s.awaitLogin()
	stop()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		var lerr *LoginError
		if errors.As(err, &lerr) {
			return nil, lerr
		}
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, &LoginError{Err: err}
	}

	_ = s.conn.SetReadDeadline(time.Time{})
	_ = s.conn.SetWriteDeadline(time.Time{})
	return msgs, nil
}

func (s *Session) awaitLogin() ([]protocol.Message, error) {
	login, err := protocol.EncodeCommand(s.cfg.login())
	if err != nil {
		return nil, err
	}
	if err := protocol.WritePacket(s.conn, login); err != nil {
		return nil, &IoError{Op: "write", Err: err}
	}
	s.log.Debug().Msg("login sent")

	var early []protocol.Message
	for {
		p, err := protocol.ReadPacket(s.reader)
		if err != nil {
			return nil, &IoError{Op: "read", Err: err}
		}
		msg, err := protocol.DecodeMessage(p)
		if err != nil {
			return nil, err
		}

		switch m := msg.(type) {
		case protocol.LoginOK:
			return append([]protocol.Message{m}, early...), nil
		case protocol.ErrorMessage:
			return nil, &LoginError{Reason: m.Text}
		case protocol.Exit:
			return nil, &LoginError{Reason: "server closed the connection"}
		case protocol.Ping:
			pong, err := protocol.EncodeCommand(protocol.Pong{ID: m.ID})
			if err != nil {
				return nil, err
			}
			if err := protocol.WritePacket(s.conn, pong); err != nil {
				return nil, &IoError{Op: "write", Err: err}
			}
			s.log.Trace().Str("id", m.ID).Msg("pong during login")
		default:
			early = append(early, msg)
		}
	}
}
