package message

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncode_SingleLine(t *testing.T) {
	m := &Message{Type: TypeSearch, Query: "line\nbreak"}
	raw, err := m.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if bytes.ContainsRune(raw, '\n') {
		t.Fatalf("encoded message spans lines: %q", raw)
	}
	back, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if back.Query != "line\nbreak" {
		t.Fatalf("query = %q", back.Query)
	}
}

func TestDecode_Garbage(t *testing.T) {
	if _, err := Decode([]byte("{truncated")); err == nil {
		t.Fatal("garbage decoded without error")
	}
}

func TestPayload_RoundTrip(t *testing.T) {
	raw := []byte{0x89, 'P', 'N', 'G', 0, '\n'}
	m := NewPayload(raw)
	if m.Type != TypePayload {
		t.Fatalf("type = %s", m.Type)
	}
	got, err := m.DecodePayload()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatalf("payload = %v", got)
	}
}

func TestNewError(t *testing.T) {
	m := NewError(errors.New("entry not found"))
	if m.Type != TypeError || m.Error != "entry not found" {
		t.Fatalf("message = %+v", m)
	}
}
