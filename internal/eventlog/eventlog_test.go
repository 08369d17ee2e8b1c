package eventlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/omochice/toy-icb-chat/pkg/protocol"
)

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", data, err)
	}
	return out
}

func TestMarshal(t *testing.T) {
	tests := []struct {
		name string
		msg  protocol.Message
		want map[string]any
	}{
		{
			name: "open",
			msg:  protocol.OpenMessage{Nickname: "bob", Text: "hi"},
			want: map[string]any{"kind": "open", "nick": "bob", "text": "hi"},
		},
		{
			name: "command output",
			msg:  protocol.CommandOutput{Kind: "co", Fields: []string{"a", "b"}},
			want: map[string]any{"kind": "command_output", "output": "co", "fields": []any{"a", "b"}},
		},
		{
			name: "unknown",
			msg:  protocol.Unknown{Type: 'z', Fields: [][]byte{[]byte("x")}},
			want: map[string]any{"kind": "unknown", "type": "z", "fields": []any{"x"}},
		},
		{
			name: "graceful close",
			msg:  protocol.Closed{},
			want: map[string]any{"kind": "closed"},
		},
		{
			name: "failed close",
			msg:  protocol.Closed{Err: errors.New("read: reset")},
			want: map[string]any{"kind": "closed", "error": "read: reset"},
		},
		{
			name: "invalid utf-8 replaced",
			msg:  protocol.ErrorMessage{Text: "bad \xff byte"},
			want: map[string]any{"kind": "error", "text": "bad � byte"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Marshal(tt.msg)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if bytes.ContainsRune(data, '\n') {
				t.Errorf("Marshal() output spans lines: %q", data)
			}
			if got := decode(t, data); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Marshal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	if err := w.Write(protocol.LoginOK{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Write(protocol.Beep{Nickname: "carol"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	second := decode(t, []byte(lines[1]))
	want := map[string]any{"kind": "beep", "nick": "carol", "time": "2024-05-01T12:00:00Z"}
	if !reflect.DeepEqual(second, want) {
		t.Errorf("line = %v, want %v", second, want)
	}
}

func TestKind_AllVariants(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range []protocol.Message{
		protocol.LoginOK{}, protocol.OpenMessage{}, protocol.PersonalMessage{},
		protocol.StatusMessage{}, protocol.ErrorMessage{}, protocol.ImportantMessage{},
		protocol.Exit{}, protocol.CommandOutput{}, protocol.ProtocolInfo{},
		protocol.Beep{}, protocol.Ping{}, protocol.Unknown{}, protocol.Closed{},
	} {
		k := Kind(m)
		if seen[k] {
			t.Errorf("duplicate kind %q for %T", k, m)
		}
		seen[k] = true
	}
}
