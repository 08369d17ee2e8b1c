package protocol

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Server command names carried in TypeCommand packets.
const (
	CmdPrivate = "m"
	CmdName    = "name"
	CmdGroup   = "g"
	CmdBeep    = "beep"
	CmdTopic   = "topic"
	CmdWho     = "w"

	// LoginCommand is the default command field of a login packet.
	LoginCommand = "login"
)

// MaxSayText is the longest text that fits in a single open message packet.
const MaxSayText = MaxPayloadLen - 2

// Command is a request sent by the client.
type Command interface {
	Tag() byte
}

// Login is the first packet of every session. An empty LoginID defaults to
// the nickname and an empty Command to "login".
type Login struct {
	LoginID  string
	Nickname string
	Group    string
	Command  string
	Password string
}

// Say sends open text to the current group.
type Say struct {
	Text string
}

// PrivateMessage sends Text to a single user.
type PrivateMessage struct {
	Target string
	Text   string
}

// ChangeNickname renames this client.
type ChangeNickname struct {
	Name string
}

// ChangeGroup moves this client to another group.
type ChangeGroup struct {
	Name string
}

// BeepUser beeps another user.
type BeepUser struct {
	Nickname string
}

// ServerCommand is any other server command, such as "topic" or "w".
type ServerCommand struct {
	Name string
	Args string
}

// Pong answers a Ping with the same ID.
type Pong struct {
	ID string
}

// Quit asks the client to flush queued commands and close the connection.
type Quit struct{}

// Raw sends an arbitrary packet. Fields == nil and a single empty field
// encode to the same bytes and decode as Fields == nil.
type Raw struct {
	Type   byte
	Fields []string
}

func (Login) Tag() byte          { return TypeLogin }
func (Say) Tag() byte            { return TypeOpen }
func (PrivateMessage) Tag() byte { return TypeCommand }
func (ChangeNickname) Tag() byte { return TypeCommand }
func (ChangeGroup) Tag() byte    { return TypeCommand }
func (BeepUser) Tag() byte       { return TypeCommand }
func (ServerCommand) Tag() byte  { return TypeCommand }
func (Pong) Tag() byte           { return TypePong }
func (Quit) Tag() byte           { return TypeExit }
func (c Raw) Tag() byte          { return c.Type }

// EncodeCommand builds the packet for c. Any field that contains a reserved
// byte, or a packet that would exceed MaxPayloadLen, fails with a
// *ValidationError.
func EncodeCommand(c Command) (Packet, error) {
	var p Packet
	switch c := c.(type) {
	case Login:
		if c.Nickname == "" {
			return Packet{}, invalid("login", "empty nickname")
		}
		loginID := c.LoginID
		if loginID == "" {
			loginID = c.Nickname
		}
		command := c.Command
		if command == "" {
			command = LoginCommand
		}
		fields := []string{loginID, c.Nickname, c.Group, command}
		if c.Password != "" {
			fields = append(fields, c.Password)
		}
		p = NewPacket(TypeLogin, fields...)
	case Say:
		if c.Text == "" {
			return Packet{}, invalid("text", "empty")
		}
		p = NewPacket(TypeOpen, c.Text)
	case PrivateMessage:
		if err := checkWord("private message target", c.Target); err != nil {
			return Packet{}, err
		}
		p = NewPacket(TypeCommand, CmdPrivate, c.Target+" "+c.Text)
	case ChangeNickname:
		if err := checkWord("nickname", c.Name); err != nil {
			return Packet{}, err
		}
		p = NewPacket(TypeCommand, CmdName, c.Name)
	case ChangeGroup:
		if c.Name == "" {
			return Packet{}, invalid("group", "empty name")
		}
		p = NewPacket(TypeCommand, CmdGroup, c.Name)
	case BeepUser:
		if err := checkWord("beep target", c.Nickname); err != nil {
			return Packet{}, err
		}
		p = NewPacket(TypeCommand, CmdBeep, c.Nickname)
	case ServerCommand:
		if err := checkWord("command name", c.Name); err != nil {
			return Packet{}, err
		}
		p = NewPacket(TypeCommand, c.Name, c.Args)
	case Pong:
		p = optionalID(TypePong, c.ID)
	case Quit:
		p = NewPacket(TypeExit)
	case Raw:
		p = NewPacket(c.Type, c.Fields...)
	default:
		return Packet{}, &ValidationError{
			Op:  "encode command",
			Err: fmt.Errorf("%w: %T", ErrNotEncodable, c),
		}
	}
	return checked("encode command", p)
}

// ValidateCommand reports whether c can be encoded.
func ValidateCommand(c Command) error {
	_, err := EncodeCommand(c)
	return err
}

// DecodeCommand converts a packet sent by a client into a Command. It is the
// server-side view of EncodeCommand and unknown tags decode to Raw.
func DecodeCommand(p Packet) (Command, error) {
	switch p.Type {
	case TypeLogin:
		if len(p.Fields) < 4 {
			return nil, missing(p, 4)
		}
		return Login{
			LoginID:  p.Field(0),
			Nickname: p.Field(1),
			Group:    p.Field(2),
			Command:  p.Field(3),
			Password: p.Field(4),
		}, nil
	case TypeOpen:
		return Say{Text: p.Field(0)}, nil
	case TypeCommand:
		return decodeServerCommand(p.Field(0), p.Field(1)), nil
	case TypePong:
		return Pong{ID: p.Field(0)}, nil
	case TypeExit:
		return Quit{}, nil
	default:
		return Raw{Type: p.Type, Fields: p.Strings()}, nil
	}
}

func decodeServerCommand(name, args string) Command {
	switch name {
	case CmdPrivate, "msg":
		target, text, _ := strings.Cut(args, " ")
		return PrivateMessage{Target: target, Text: text}
	case CmdName:
		return ChangeNickname{Name: args}
	case CmdGroup:
		return ChangeGroup{Name: args}
	case CmdBeep:
		return BeepUser{Nickname: args}
	default:
		return ServerCommand{Name: name, Args: args}
	}
}

// ChunkText splits text into pieces of at most limit bytes, breaking at the
// last space where possible and never inside a UTF-8 sequence. A limit of
// zero or less means MaxSayText.
func ChunkText(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxSayText
	}
	var out []string
	for len(text) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if i := strings.LastIndexByte(text[:cut+1], ' '); i > 0 {
			cut = i
		}
		if cut == 0 {
			cut = limit
		}
		out = append(out, text[:cut])
		text = strings.TrimLeft(text[cut:], " ")
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

func checkWord(what, s string) error {
	if s == "" {
		return invalid(what, "empty")
	}
	if strings.ContainsAny(s, " \t") {
		return invalid(what, "contains whitespace")
	}
	return nil
}

func invalid(what, why string) error {
	return &ValidationError{
		Op:  "encode command",
		Err: fmt.Errorf("%w: %s %s", ErrInvalidField, what, why),
	}
}

func missing(p Packet, want int) error {
	return &ProtocolError{
		Type: p.Type,
		Err:  fmt.Errorf("%w: have %d, want %d", ErrMissingField, len(p.Fields), want),
	}
}
