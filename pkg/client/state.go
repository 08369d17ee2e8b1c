package client

import "fmt"

// State is the lifecycle position of a Session.
type State int32

const (
	Disconnected State = iota
	Connecting
	AwaitingLoginAck
	Connected
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case AwaitingLoginAck:
		return "awaiting-login-ack"
	case Connected:
		return "connected"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}
