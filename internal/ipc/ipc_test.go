//go:build !windows

package ipc

import (
	"os"
	"path/filepath"
	"testing"

	"go.klb.dev/clipvault/internal/message"
	"go.klb.dev/clipvault/internal/wire"
)

func TestListenDial(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "clipvault.sock")
	t.Setenv("CLIPVAULT_SOCKET", sock)

	if IsRunning() {
		t.Fatal("daemon reported running before listen")
	}

	ln, err := Listen()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	if SocketPath() != sock {
		t.Fatalf("socket path = %q, want override %q", SocketPath(), sock)
	}
	if !IsRunning() {
		t.Fatal("daemon not reported running while listening")
	}

	done := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			done <- err
			return
		}
		wc := wire.New(conn)
		defer wc.Close()
		msg, err := wc.ReadMsg()
		if err != nil {
			done <- err
			return
		}
		done <- wc.WriteMsg(&message.Message{Type: message.TypeOK, ID: msg.ID})
	}()

	conn, err := Dial()
	if err != nil {
		t.Fatal(err)
	}
	wc := wire.New(conn)
	defer wc.Close()
	if err := wc.WriteMsg(&message.Message{Type: message.TypeStatus, ID: 7}); err != nil {
		t.Fatal(err)
	}
	resp, err := wc.ReadMsg()
	if err != nil {
		t.Fatal(err)
	}
	if resp.Type != message.TypeOK || resp.ID != 7 {
		t.Fatalf("resp = %+v", resp)
	}
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestListen_RemovesStaleSocket(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "clipvault.sock")
	t.Setenv("CLIPVAULT_SOCKET", sock)

	// Simulate a crash: an endpoint left behind without a listener.
	if err := os.WriteFile(sock, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	ln, err := Listen()
	if err != nil {
		t.Fatalf("stale socket not cleaned up: %v", err)
	}
	ln.Close()
}
