package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/omochice/toy-icb-chat/internal/config"
	"github.com/omochice/toy-icb-chat/pkg/client"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "icb.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
host = "icb.example.org"
port = 7327
nickname = " alice "
group = "dev"
password = "secret"
transport = "WS"
path = "/icb"
connect_timeout = "3s"
handshake_timeout = "1m"
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := client.DefaultConfig()
	want.Host = "icb.example.org"
	want.Port = 7327
	want.Nickname = "alice"
	want.Group = "dev"
	want.Password = "secret"
	want.Transport = client.TransportWS
	want.Path = "/icb"
	want.ConnectTimeout = 3 * time.Second
	want.HandshakeTimeout = time.Minute

	if cfg != want {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
}

func TestLoad_DefaultsKept(t *testing.T) {
	path := writeFile(t, `host = "localhost"`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := client.DefaultConfig()
	if cfg.Port != def.Port || cfg.Group != def.Group || cfg.WriteTimeout != def.WriteTimeout {
		t.Errorf("defaults not kept: %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"bad duration", `write_timeout = "soon"`, "parse write_timeout"},
		{"unknown key", `colour = "blue"`, "unknown key"},
		{"bad syntax", `host = `, "load config"},
		{"wrong type", `port = "7326"`, "load config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}
