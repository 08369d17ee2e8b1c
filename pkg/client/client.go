package client

import (
	"context"
	"errors"

	"github.com/omochice/toy-icb-chat/pkg/protocol"
)

// Handle is the consumer's side of a session. It is safe for concurrent use.
type Handle struct {
	s *Session
}

// Send validates cmd and queues it for the outbound pump. It does not wait
// for the packet to be written. Sending protocol.Quit is the same as Close.
func (h *Handle) Send(cmd protocol.Command) error {
	if err := protocol.ValidateCommand(cmd); err != nil {
		return err
	}
	select {
	case <-h.s.closing:
		return ErrClosed
	default:
	}
	if _, ok := cmd.(protocol.Quit); ok {
		return h.Close()
	}
	return h.s.enqueue(cmd)
}

// Say sends open text to the current group.
func (h *Handle) Say(text string) error {
	return h.Send(protocol.Say{Text: text})
}

// PrivateMessage sends text to a single user.
func (h *Handle) PrivateMessage(target, text string) error {
	return h.Send(protocol.PrivateMessage{Target: target, Text: text})
}

func (h *Handle) ChangeNickname(name string) error {
	return h.Send(protocol.ChangeNickname{Name: name})
}

func (h *Handle) ChangeGroup(name string) error {
	return h.Send(protocol.ChangeGroup{Name: name})
}

// Beep asks the server to beep another user.
func (h *Handle) Beep(nickname string) error {
	return h.Send(protocol.BeepUser{Nickname: nickname})
}

// Messages returns the channel of server messages in wire order. The last
// value is a single protocol.Closed, after which the channel is closed.
func (h *Handle) Messages() <-chan protocol.Message {
	return h.s.messages
}

// Receive waits for the next message. It returns ErrClosed after the final
// protocol.Closed has been received.
func (h *Handle) Receive(ctx context.Context) (protocol.Message, error) {
	select {
	case msg, ok := <-h.s.messages:
		if !ok {
			return nil, ErrClosed
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting commands. Commands queued before it are still
// written, then the connection is closed. Close is idempotent.
func (h *Handle) Close() error {
	var err error
	h.s.quitOnce.Do(func() {
		h.s.stopAccepting()
		err = h.s.enqueue(protocol.Quit{})
	})
	if errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}
