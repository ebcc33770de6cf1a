package wire

import (
	"net"
	"testing"
	"time"

	"go.klb.dev/clipvault/internal/message"
)

// net.Pipe is unbuffered, so each exchange writes from a goroutine.
func exchange(t *testing.T, msg *message.Message) *message.Message {
	t.Helper()
	a, b := net.Pipe()
	ca, cb := New(a), New(b)
	t.Cleanup(func() {
		ca.Close()
		cb.Close()
	})

	errc := make(chan error, 1)
	go func() { errc <- ca.WriteMsg(msg) }()
	got, err := cb.ReadMsg()
	if err != nil {
		t.Fatal(err)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
	return got
}

func TestRoundTrip(t *testing.T) {
	got := exchange(t, &message.Message{
		Type:  message.TypeSearch,
		Query: "with\nnewline and ünïcode",
		Limit: 5,
	})
	if got.Type != message.TypeSearch || got.Query != "with\nnewline and ünïcode" || got.Limit != 5 {
		t.Fatalf("round trip = %+v", got)
	}
}

func TestRoundTrip_BinaryPayload(t *testing.T) {
	raw := []byte{0, 1, 2, '\n', 0xff, 0xfe}
	got := exchange(t, message.NewPayload(raw))
	data, err := got.DecodePayload()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(raw) {
		t.Fatalf("payload = %v, want %v", data, raw)
	}
}

func TestReadMsg_GarbageLine(t *testing.T) {
	a, b := net.Pipe()
	ca, cb := New(a), New(b)
	t.Cleanup(func() {
		ca.Close()
		cb.Close()
	})

	go a.Write([]byte("not json at all\n"))
	if _, err := cb.ReadMsg(); err == nil {
		t.Fatal("garbage line decoded without error")
	}
}

func TestReadDeadline(t *testing.T) {
	a, b := net.Pipe()
	ca, cb := New(a), New(b)
	t.Cleanup(func() {
		ca.Close()
		cb.Close()
	})

	cb.SetReadDeadline(20 * time.Millisecond)
	if _, err := cb.ReadMsg(); err == nil {
		t.Fatal("read past deadline succeeded")
	}
}
