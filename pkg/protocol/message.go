package protocol

import "fmt"

// Packet type tags from the ICB protocol.
const (
	TypeLogin         byte = 'a'
	TypeOpen          byte = 'b'
	TypePersonal      byte = 'c'
	TypeStatus        byte = 'd'
	TypeError         byte = 'e'
	TypeImportant     byte = 'f'
	TypeExit          byte = 'g'
	TypeCommand       byte = 'h'
	TypeCommandOutput byte = 'i'
	TypeProtocol      byte = 'j'
	TypeBeep          byte = 'k'
	TypePing          byte = 'l'
	TypePong          byte = 'm'
	TypeNoop          byte = 'n'
)

// Message is an event sent by the server.
type Message interface {
	Tag() byte
}

// LoginOK acknowledges a successful login.
type LoginOK struct{}

// OpenMessage is public chat in the current group.
type OpenMessage struct {
	Nickname string
	Text     string
}

// PersonalMessage is a private message addressed to this client.
type PersonalMessage struct {
	Nickname string
	Text     string
}

// StatusMessage carries a category such as "Arrive", "Sign-off" or "Topic".
type StatusMessage struct {
	Category string
	Text     string
}

// ErrorMessage reports a failed command or a rejected login.
type ErrorMessage struct {
	Text string
}

// ImportantMessage is a server notice the client should make prominent.
type ImportantMessage struct {
	Category string
	Text     string
}

// Exit tells the client the server is about to drop the connection.
type Exit struct{}

// CommandOutput is the reply to a server command. Kind is "co" for generic
// output, "wl"/"wh" for who listings and so on.
type CommandOutput struct {
	Kind   string
	Fields []string
}

// ProtocolInfo is the banner the server sends right after connecting.
type ProtocolInfo struct {
	Level    string
	HostID   string
	ServerID string
}

// Beep means Nickname beeped this client.
type Beep struct {
	Nickname string
}

// Ping is a server keepalive. The ID, if any, is echoed in the Pong.
type Ping struct {
	ID string
}

// Unknown preserves packets with tags this package does not model. A packet
// with one empty field decodes with Fields == nil.
type Unknown struct {
	Type   byte
	Fields [][]byte
}

// Closed is never sent on the wire. The client emits it once as the last
// message of a session; Err is nil for a graceful close.
type Closed struct {
	Err error
}

func (LoginOK) Tag() byte          { return TypeLogin }
func (OpenMessage) Tag() byte      { return TypeOpen }
func (PersonalMessage) Tag() byte  { return TypePersonal }
func (StatusMessage) Tag() byte    { return TypeStatus }
func (ErrorMessage) Tag() byte     { return TypeError }
func (ImportantMessage) Tag() byte { return TypeImportant }
func (Exit) Tag() byte             { return TypeExit }
func (CommandOutput) Tag() byte    { return TypeCommandOutput }
func (ProtocolInfo) Tag() byte     { return TypeProtocol }
func (Beep) Tag() byte             { return TypeBeep }
func (Ping) Tag() byte             { return TypePing }
func (m Unknown) Tag() byte        { return m.Type }
func (Closed) Tag() byte           { return 0 }

// minMessageFields lists the known server packet types and the number of
// fields each one requires.
var minMessageFields = map[byte]int{
	TypeLogin:         0,
	TypeOpen:          2,
	TypePersonal:      2,
	TypeStatus:        2,
	TypeError:         1,
	TypeImportant:     2,
	TypeExit:          0,
	TypeCommandOutput: 1,
	TypeProtocol:      1,
	TypeBeep:          1,
	TypePing:          0,
}

// DecodeMessage converts a packet received from the server into a Message.
// Unrecognised tags decode to Unknown; a known tag with too few fields is a
// *ProtocolError.
func DecodeMessage(p Packet) (Message, error) {
	want, ok := minMessageFields[p.Type]
	if !ok {
		return Unknown{Type: p.Type, Fields: p.Fields}, nil
	}
	p = p.withFields(want)
	if len(p.Fields) < want {
		return nil, missing(p, want)
	}

	switch p.Type {
	case TypeLogin:
		return LoginOK{}, nil
	case TypeOpen:
		return OpenMessage{Nickname: p.Field(0), Text: p.Field(1)}, nil
	case TypePersonal:
		return PersonalMessage{Nickname: p.Field(0), Text: p.Field(1)}, nil
	case TypeStatus:
		return StatusMessage{Category: p.Field(0), Text: p.Field(1)}, nil
	case TypeError:
		return ErrorMessage{Text: p.Field(0)}, nil
	case TypeImportant:
		return ImportantMessage{Category: p.Field(0), Text: p.Field(1)}, nil
	case TypeExit:
		return Exit{}, nil
	case TypeCommandOutput:
		out := CommandOutput{Kind: p.Field(0)}
		if len(p.Fields) > 1 {
			out.Fields = p.Strings()[1:]
		}
		return out, nil
	case TypeProtocol:
		return ProtocolInfo{Level: p.Field(0), HostID: p.Field(1), ServerID: p.Field(2)}, nil
	case TypeBeep:
		return Beep{Nickname: p.Field(0)}, nil
	default:
		return Ping{ID: p.Field(0)}, nil
	}
}

// EncodeMessage is the inverse of DecodeMessage. Clients never send these
// packets; it exists for peers and tests that play the server side.
func EncodeMessage(m Message) (Packet, error) {
	var p Packet
	switch m := m.(type) {
	case LoginOK:
		p = NewPacket(TypeLogin)
	case OpenMessage:
		p = NewPacket(TypeOpen, m.Nickname, m.Text)
	case PersonalMessage:
		p = NewPacket(TypePersonal, m.Nickname, m.Text)
	case StatusMessage:
		p = NewPacket(TypeStatus, m.Category, m.Text)
	case ErrorMessage:
		p = NewPacket(TypeError, m.Text)
	case ImportantMessage:
		p = NewPacket(TypeImportant, m.Category, m.Text)
	case Exit:
		p = NewPacket(TypeExit)
	case CommandOutput:
		p = NewPacket(TypeCommandOutput, append([]string{m.Kind}, m.Fields...)...)
	case ProtocolInfo:
		fields := []string{m.Level}
		if m.HostID != "" || m.ServerID != "" {
			fields = append(fields, m.HostID)
		}
		if m.ServerID != "" {
			fields = append(fields, m.ServerID)
		}
		p = NewPacket(TypeProtocol, fields...)
	case Beep:
		p = NewPacket(TypeBeep, m.Nickname)
	case Ping:
		p = optionalID(TypePing, m.ID)
	case Unknown:
		p = Packet{Type: m.Type, Fields: m.Fields}
	default:
		return Packet{}, &ValidationError{
			Op:  "encode message",
			Err: fmt.Errorf("%w: %T", ErrNotEncodable, m),
		}
	}
	return checked("encode message", p)
}

func optionalID(typ byte, id string) Packet {
	if id == "" {
		return NewPacket(typ)
	}
	return NewPacket(typ, id)
}

// checked rejects packets that would not survive WritePacket.
func checked(op string, p Packet) (Packet, error) {
	if _, err := p.MarshalBinary(); err != nil {
		return Packet{}, &ValidationError{Op: op, Err: err}
	}
	return p, nil
}
