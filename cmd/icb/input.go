package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/omochice/toy-icb-chat/pkg/protocol"
)

var errUsage = errors.New("usage")

// parseLine turns one line typed by the user into the commands to send.
// Plain text becomes one or more Say commands; "//" escapes a leading slash.
func parseLine(line string) ([]protocol.Command, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return nil, nil
	}
	if !strings.HasPrefix(line, "/") || strings.HasPrefix(line, "//") {
		text := line
		if strings.HasPrefix(text, "//") {
			text = text[1:]
		}
		var cmds []protocol.Command
		for _, chunk := range protocol.ChunkText(text, protocol.MaxSayText) {
			cmds = append(cmds, protocol.Say{Text: chunk})
		}
		return cmds, nil
	}

	name, args, _ := strings.Cut(line[1:], " ")
	args = strings.TrimSpace(args)
	switch name {
	case "quit", "q":
		return []protocol.Command{protocol.Quit{}}, nil
	case "m", "msg":
		target, text, ok := strings.Cut(args, " ")
		if !ok || target == "" || strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("%w: /m nick text", errUsage)
		}
		return []protocol.Command{protocol.PrivateMessage{Target: target, Text: strings.TrimSpace(text)}}, nil
	case "nick", "name":
		if args == "" {
			return nil, fmt.Errorf("%w: /nick name", errUsage)
		}
		return []protocol.Command{protocol.ChangeNickname{Name: args}}, nil
	case "g", "group":
		if args == "" {
			return nil, fmt.Errorf("%w: /g group", errUsage)
		}
		return []protocol.Command{protocol.ChangeGroup{Name: args}}, nil
	case "beep":
		if args == "" {
			return nil, fmt.Errorf("%w: /beep nick", errUsage)
		}
		return []protocol.Command{protocol.BeepUser{Nickname: args}}, nil
	case "":
		return nil, fmt.Errorf("%w: missing command name", errUsage)
	default:
		return []protocol.Command{protocol.ServerCommand{Name: name, Args: args}}, nil
	}
}
