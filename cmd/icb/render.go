package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/omochice/toy-icb-chat/internal/eventlog"
	"github.com/omochice/toy-icb-chat/pkg/protocol"
)

type printer interface {
	Print(protocol.Message) error
}

type textPrinter struct {
	w io.Writer
}

func (p textPrinter) Print(m protocol.Message) error {
	line := format(m)
	if line == "" {
		return nil
	}
	_, err := fmt.Fprintln(p.w, line)
	return err
}

type jsonPrinter struct {
	w *eventlog.Writer
}

func (p jsonPrinter) Print(m protocol.Message) error {
	return p.w.Write(m)
}

// format renders a message the way ICB clients traditionally show it.
func format(m protocol.Message) string {
	switch m := m.(type) {
	case protocol.LoginOK:
		return "[=Login=] logged in"
	case protocol.OpenMessage:
		return fmt.Sprintf("<%s> %s", m.Nickname, m.Text)
	case protocol.PersonalMessage:
		return fmt.Sprintf("<*%s*> %s", m.Nickname, m.Text)
	case protocol.StatusMessage:
		return fmt.Sprintf("[=%s=] %s", m.Category, m.Text)
	case protocol.ErrorMessage:
		return "[=Error=] " + m.Text
	case protocol.ImportantMessage:
		return fmt.Sprintf("[!%s!] %s", m.Category, m.Text)
	case protocol.Exit:
		return "[=Exit=] server is closing the connection"
	case protocol.CommandOutput:
		return formatOutput(m)
	case protocol.ProtocolInfo:
		s := "[=Connected=] protocol level " + m.Level
		if m.HostID != "" {
			s += " on " + m.HostID
		}
		if m.ServerID != "" {
			s += " (" + m.ServerID + ")"
		}
		return s
	case protocol.Beep:
		return fmt.Sprintf("\a[=Beep=] %s beeped you", m.Nickname)
	case protocol.Unknown:
		fields := make([]string, len(m.Fields))
		for i, f := range m.Fields {
			fields[i] = string(f)
		}
		return fmt.Sprintf("[=Unknown %q=] %s", m.Type, strings.Join(fields, " | "))
	case protocol.Closed:
		if m.Err != nil {
			return "[=Disconnected=] " + m.Err.Error()
		}
		return "[=Disconnected=]"
	default:
		return ""
	}
}

func formatOutput(m protocol.CommandOutput) string {
	switch m.Kind {
	case "co":
		return strings.Join(m.Fields, " ")
	case "wl":
		// moderator flag, nick, idle seconds, response, login time, user, host
		if len(m.Fields) >= 7 {
			return fmt.Sprintf("%1s %-16s idle %5ss  %s@%s", strings.TrimSpace(m.Fields[0]), m.Fields[1], m.Fields[2], m.Fields[5], m.Fields[6])
		}
	case "wh":
		return "   Nickname          Idle  Sign-on  Account"
	case "ec":
		return ""
	}
	return fmt.Sprintf("[=%s=] %s", m.Kind, strings.Join(m.Fields, " "))
}
