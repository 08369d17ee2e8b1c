package protocol_test

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/omochice/toy-icb-chat/pkg/protocol"
)

func TestEncodeCommand(t *testing.T) {
	tests := []struct {
		name string
		cmd  protocol.Command
		want protocol.Packet
	}{
		{
			name: "login with defaults",
			cmd:  protocol.Login{Nickname: "alice", Group: "lobby"},
			want: protocol.NewPacket('a', "alice", "alice", "lobby", "login"),
		},
		{
			name: "login with password",
			cmd:  protocol.Login{LoginID: "al", Nickname: "alice", Group: "lobby", Command: "login", Password: "secret"},
			want: protocol.NewPacket('a', "al", "alice", "lobby", "login", "secret"),
		},
		{
			name: "say",
			cmd:  protocol.Say{Text: "hello"},
			want: protocol.NewPacket('b', "hello"),
		},
		{
			name: "private message",
			cmd:  protocol.PrivateMessage{Target: "bob", Text: "hi bob"},
			want: protocol.NewPacket('h', "m", "bob hi bob"),
		},
		{
			name: "change nickname",
			cmd:  protocol.ChangeNickname{Name: "alicia"},
			want: protocol.NewPacket('h', "name", "alicia"),
		},
		{
			name: "change group",
			cmd:  protocol.ChangeGroup{Name: "dev"},
			want: protocol.NewPacket('h', "g", "dev"),
		},
		{
			name: "beep",
			cmd:  protocol.BeepUser{Nickname: "bob"},
			want: protocol.NewPacket('h', "beep", "bob"),
		},
		{
			name: "server command",
			cmd:  protocol.ServerCommand{Name: "topic", Args: "release day"},
			want: protocol.NewPacket('h', "topic", "release day"),
		},
		{
			name: "pong",
			cmd:  protocol.Pong{},
			want: protocol.NewPacket('m'),
		},
		{
			name: "pong with id",
			cmd:  protocol.Pong{ID: "7"},
			want: protocol.NewPacket('m', "7"),
		},
		{
			name: "quit",
			cmd:  protocol.Quit{},
			want: protocol.NewPacket('g'),
		},
		{
			name: "raw",
			cmd:  protocol.Raw{Type: 'n'},
			want: protocol.NewPacket('n'),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := protocol.EncodeCommand(tt.cmd)
			if err != nil {
				t.Fatalf("EncodeCommand() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("EncodeCommand() = %v, want %v", got.Strings(), tt.want.Strings())
			}
			if got.Type != tt.cmd.Tag() {
				t.Errorf("packet type %q does not match Tag() %q", got.Type, tt.cmd.Tag())
			}
		})
	}
}

func TestEncodeCommand_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		cmd     protocol.Command
		wantErr error
	}{
		{"login without nickname", protocol.Login{Group: "lobby"}, protocol.ErrInvalidField},
		{"empty say", protocol.Say{}, protocol.ErrInvalidField},
		{"say with separator", protocol.Say{Text: "a\x01b"}, protocol.ErrReservedByte},
		{"say with nul", protocol.Say{Text: "a\x00b"}, protocol.ErrReservedByte},
		{"say too long", protocol.Say{Text: strings.Repeat("x", protocol.MaxSayText+1)}, protocol.ErrTooLarge},
		{"private message without target", protocol.PrivateMessage{Text: "hi"}, protocol.ErrInvalidField},
		{"private message target with space", protocol.PrivateMessage{Target: "bo b", Text: "hi"}, protocol.ErrInvalidField},
		{"nickname with space", protocol.ChangeNickname{Name: "a b"}, protocol.ErrInvalidField},
		{"empty group", protocol.ChangeGroup{}, protocol.ErrInvalidField},
		{"beep without target", protocol.BeepUser{}, protocol.ErrInvalidField},
		{"server command without name", protocol.ServerCommand{Args: "x"}, protocol.ErrInvalidField},
		{"nil command", nil, protocol.ErrNotEncodable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := protocol.ValidateCommand(tt.cmd)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateCommand() error = %v, want %v", err, tt.wantErr)
			}
			var verr *protocol.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("expected *ValidationError, got %T", err)
			}
		})
	}
}

func TestEncodeCommand_MaxSayText(t *testing.T) {
	if err := protocol.ValidateCommand(protocol.Say{Text: strings.Repeat("x", protocol.MaxSayText)}); err != nil {
		t.Errorf("ValidateCommand() at MaxSayText error = %v", err)
	}
}

func TestCommand_RoundTrip(t *testing.T) {
	commands := []protocol.Command{
		protocol.Login{LoginID: "al", Nickname: "alice", Group: "lobby", Command: "login"},
		protocol.Login{LoginID: "al", Nickname: "alice", Group: "", Command: "w", Password: "pw"},
		protocol.Say{Text: "hello there"},
		protocol.PrivateMessage{Target: "bob", Text: "how are you"},
		protocol.ChangeNickname{Name: "alicia"},
		protocol.ChangeGroup{Name: "dev"},
		protocol.BeepUser{Nickname: "bob"},
		protocol.ServerCommand{Name: "topic", Args: "release day"},
		protocol.ServerCommand{Name: "w", Args: ""},
		protocol.Pong{},
		protocol.Pong{ID: "9"},
		protocol.Quit{},
		protocol.Raw{Type: 'n'},
		protocol.Raw{Type: 'z', Fields: []string{"x", "y"}},
		protocol.Raw{Type: 'z', Fields: []string{"", ""}},
	}

	for _, c := range commands {
		p, err := protocol.EncodeCommand(c)
		if err != nil {
			t.Fatalf("EncodeCommand(%#v) error = %v", c, err)
		}
		frame, err := p.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary(%#v) error = %v", c, err)
		}
		read, err := protocol.ReadPacket(strings.NewReader(string(frame)))
		if err != nil {
			t.Fatalf("ReadPacket(%#v) error = %v", c, err)
		}
		got, err := protocol.DecodeCommand(read)
		if err != nil {
			t.Fatalf("DecodeCommand(%#v) error = %v", c, err)
		}
		if !reflect.DeepEqual(got, c) {
			t.Errorf("round trip = %#v, want %#v", got, c)
		}
	}
}

func TestDecodeCommand_MsgAlias(t *testing.T) {
	got, err := protocol.DecodeCommand(protocol.NewPacket('h', "msg", "bob hello"))
	if err != nil {
		t.Fatalf("DecodeCommand() error = %v", err)
	}
	want := protocol.PrivateMessage{Target: "bob", Text: "hello"}
	if got != want {
		t.Errorf("DecodeCommand() = %#v, want %#v", got, want)
	}
}

func TestDecodeCommand_EmptyBody(t *testing.T) {
	tests := []struct {
		packet protocol.Packet
		want   protocol.Command
	}{
		{protocol.NewPacket('b'), protocol.Say{}},
		{protocol.NewPacket('h'), protocol.ServerCommand{}},
		{protocol.NewPacket('z'), protocol.Raw{Type: 'z'}},
	}

	for _, tt := range tests {
		got, err := protocol.DecodeCommand(tt.packet)
		if err != nil {
			t.Fatalf("DecodeCommand(%q) error = %v", tt.packet.Type, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("DecodeCommand(%q) = %#v, want %#v", tt.packet.Type, got, tt.want)
		}
	}
}

func TestRaw_SingleEmptyFieldIsTagOnly(t *testing.T) {
	empty, err := protocol.EncodeCommand(protocol.Raw{Type: 'z', Fields: []string{""}})
	if err != nil {
		t.Fatalf("EncodeCommand() error = %v", err)
	}
	bare, err := protocol.EncodeCommand(protocol.Raw{Type: 'z'})
	if err != nil {
		t.Fatalf("EncodeCommand() error = %v", err)
	}

	a, _ := empty.MarshalBinary()
	b, _ := bare.MarshalBinary()
	if !bytes.Equal(a, b) {
		t.Fatalf("frames differ: %q vs %q", a, b)
	}

	read, err := protocol.ReadPacket(bytes.NewReader(a))
	if err != nil {
		t.Fatalf("ReadPacket() error = %v", err)
	}
	got, err := protocol.DecodeCommand(read)
	if err != nil {
		t.Fatalf("DecodeCommand() error = %v", err)
	}
	if want := (protocol.Raw{Type: 'z'}); !reflect.DeepEqual(got, want) {
		t.Errorf("DecodeCommand() = %#v, want %#v", got, want)
	}
}

func TestDecodeCommand_MissingField(t *testing.T) {
	for _, p := range []protocol.Packet{
		protocol.NewPacket('a', "id", "nick"),
		protocol.NewPacket('a'),
	} {
		if _, err := protocol.DecodeCommand(p); !errors.Is(err, protocol.ErrMissingField) {
			t.Errorf("DecodeCommand(%q) error = %v, want ErrMissingField", p.Type, err)
		}
	}
}

func TestChunkText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"empty", "", 10, nil},
		{"fits", "hello", 10, []string{"hello"}},
		{"exact", "0123456789", 10, []string{"0123456789"}},
		{"break at space", "hello brave new world", 11, []string{"hello brave", "new world"}},
		{"no space", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"multibyte", "ééé", 3, []string{"é", "é", "é"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := protocol.ChunkText(tt.text, tt.limit)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ChunkText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChunkText_DefaultLimit(t *testing.T) {
	text := strings.Repeat("word ", 200)
	chunks := protocol.ChunkText(text, 0)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > protocol.MaxSayText {
			t.Errorf("chunk %d has %d bytes, limit %d", i, len(c), protocol.MaxSayText)
		}
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d is not valid UTF-8", i)
		}
		if err := protocol.ValidateCommand(protocol.Say{Text: c}); err != nil {
			t.Errorf("chunk %d rejected: %v", i, err)
		}
	}
}
