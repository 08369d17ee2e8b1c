package transport_test

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"

	"github.com/omochice/toy-icb-chat/internal/transport"
)

func TestResolve_LiteralIP(t *testing.T) {
	addrs, err := transport.Resolve(context.Background(), nil, "127.0.0.1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(addrs) != 1 || addrs[0] != "127.0.0.1" {
		t.Errorf("Resolve() = %v, want [127.0.0.1]", addrs)
	}
}

func TestResolve_Failure(t *testing.T) {
	_, err := transport.Resolve(context.Background(), nil, "no-such-host.invalid")
	var derr *transport.DialError
	if !errors.As(err, &derr) {
		t.Fatalf("expected *DialError, got %v", err)
	}
	if derr.Stage != transport.StageResolve {
		t.Errorf("Stage = %v, want resolve", derr.Stage)
	}
}

func TestDialFirst(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	conn, err := transport.DialFirst(context.Background(), &net.Dialer{}, []string{"127.0.0.1"}, port)
	if err != nil {
		t.Fatalf("DialFirst() error = %v", err)
	}
	conn.Close()
}

func TestDialFirst_Refused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	_, err = transport.DialFirst(context.Background(), &net.Dialer{}, []string{"127.0.0.1"}, port)
	var derr *transport.DialError
	if !errors.As(err, &derr) {
		t.Fatalf("expected *DialError, got %v", err)
	}
	if derr.Stage != transport.StageConnect {
		t.Errorf("Stage = %v, want connect", derr.Stage)
	}
	if want := net.JoinHostPort("127.0.0.1", strconv.Itoa(port)); derr.Addr != want {
		t.Errorf("Addr = %q, want %q", derr.Addr, want)
	}
}
