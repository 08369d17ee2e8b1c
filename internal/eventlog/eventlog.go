// Package eventlog renders server messages as JSON lines.
package eventlog

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/omochice/toy-icb-chat/pkg/protocol"
)

// Kind returns a stable lower-case name for the message variant.
func Kind(m protocol.Message) string {
	switch m.(type) {
	case protocol.LoginOK:
		return "login_ok"
	case protocol.OpenMessage:
		return "open"
	case protocol.PersonalMessage:
		return "personal"
	case protocol.StatusMessage:
		return "status"
	case protocol.ErrorMessage:
		return "error"
	case protocol.ImportantMessage:
		return "important"
	case protocol.Exit:
		return "exit"
	case protocol.CommandOutput:
		return "command_output"
	case protocol.ProtocolInfo:
		return "protocol"
	case protocol.Beep:
		return "beep"
	case protocol.Ping:
		return "ping"
	case protocol.Unknown:
		return "unknown"
	case protocol.Closed:
		return "closed"
	default:
		return fmt.Sprintf("%T", m)
	}
}

// Fields flattens m into a JSON-compatible map.
func Fields(m protocol.Message) map[string]any {
	f := map[string]any{"kind": Kind(m)}
	switch m := m.(type) {
	case protocol.OpenMessage:
		f["nick"], f["text"] = m.Nickname, m.Text
	case protocol.PersonalMessage:
		f["nick"], f["text"] = m.Nickname, m.Text
	case protocol.StatusMessage:
		f["category"], f["text"] = m.Category, m.Text
	case protocol.ErrorMessage:
		f["text"] = m.Text
	case protocol.ImportantMessage:
		f["category"], f["text"] = m.Category, m.Text
	case protocol.CommandOutput:
		f["output"] = m.Kind
		f["fields"] = strings2any(m.Fields)
	case protocol.ProtocolInfo:
		f["level"], f["host_id"], f["server_id"] = m.Level, m.HostID, m.ServerID
	case protocol.Beep:
		f["nick"] = m.Nickname
	case protocol.Ping:
		f["id"] = m.ID
	case protocol.Unknown:
		f["type"] = string(m.Type)
		raw := make([]string, len(m.Fields))
		for i, b := range m.Fields {
			raw[i] = string(b)
		}
		f["fields"] = strings2any(raw)
	case protocol.Closed:
		if m.Err != nil {
			f["error"] = m.Err.Error()
		}
	}
	for k, v := range f {
		if s, ok := v.(string); ok {
			f[k] = strings.ToValidUTF8(s, "\uFFFD")
		}
	}
	return f
}

// Marshal renders m as a single-line JSON object.
func Marshal(m protocol.Message) ([]byte, error) {
	return marshal(Fields(m))
}

func marshal(fields map[string]any) ([]byte, error) {
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("eventlog: %w", err)
	}
	return protojson.MarshalOptions{}.Marshal(st)
}

// Writer appends one JSON line per message, stamped with the receive time.
type Writer struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, now: time.Now}
}

func (w *Writer) Write(m protocol.Message) error {
	fields := Fields(m)
	fields["time"] = w.now().UTC().Format(time.RFC3339Nano)
	line, err := marshal(fields)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("eventlog: write: %w", err)
	}
	return nil
}

// strings2any converts to the []any form structpb expects, replacing
// invalid UTF-8 which protobuf strings cannot carry.
func strings2any(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = strings.ToValidUTF8(s, "\uFFFD")
	}
	return out
}
