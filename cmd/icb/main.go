// Command icb is a line-oriented ICB chat client.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/omochice/toy-icb-chat/internal/config"
	"github.com/omochice/toy-icb-chat/internal/eventlog"
	"github.com/omochice/toy-icb-chat/internal/logging"
	"github.com/omochice/toy-icb-chat/pkg/client"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	log := logging.New("icb", logging.ProfileRuntime)

	fs := flag.NewFlagSet("icb", flag.ContinueOnError)
	configPath := fs.String("config", "", "TOML config file")
	host := fs.String("host", "", "server host")
	port := fs.Int("port", client.DefaultPort, "server port")
	nick := fs.String("nick", "", "nickname")
	group := fs.String("group", client.DefaultGroup, "initial group")
	password := fs.String("password", "", "password")
	transport := fs.String("transport", client.TransportTCP, "transport: tcp or ws")
	asJSON := fs.Bool("json", false, "print messages as JSON lines")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := client.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Error().Err(err).Msg("failed to load config")
			return 1
		}
		cfg = loaded
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = *host
		case "port":
			cfg.Port = *port
		case "nick":
			cfg.Nickname = *nick
		case "group":
			cfg.Group = *group
		case "password":
			cfg.Password = *password
		case "transport":
			cfg.Transport = *transport
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, sess, err := client.Init(ctx, cfg, client.WithLogger(log))
	if err != nil {
		log.Error().Err(err).Msg("failed to connect")
		return 1
	}
	log.Info().Str("session", sess.ID()).Stringer("remote", sess.RemoteAddr()).Msg("connected")

	var out printer = textPrinter{w: stdout}
	if *asJSON {
		out = jsonPrinter{w: eventlog.NewWriter(stdout)}
	}

	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx) }()
	go readInput(stdin, h, log)

	for msg := range h.Messages() {
		if err := out.Print(msg); err != nil {
			log.Warn().Err(err).Msg("failed to print message")
		}
	}

	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("session ended")
		return 1
	}
	return 0
}

// readInput sends every line from r until EOF or /quit, then closes the
// session.
func readInput(r io.Reader, h *client.Handle, log zerolog.Logger) {
	defer h.Close()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		cmds, err := parseLine(scanner.Text())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		for _, cmd := range cmds {
			if err := h.Send(cmd); err != nil {
				if errors.Is(err, client.ErrClosed) {
					return
				}
				log.Warn().Err(err).Msg("failed to send")
			}
		}
	}
	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("error reading input")
	}
}
