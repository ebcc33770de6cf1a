// Package message defines the clipvault IPC protocol.
//
// All messages are newline-delimited JSON: exactly one line per message,
// <json>\n. Representation payloads are base64-encoded so binary content
// (images, RTF) is safe to embed in JSON strings. The protocol is
// request/response except for SUBSCRIBE, which turns the connection into a
// one-way EVENT stream.
package message

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Type identifies the kind of message.
type Type string

const (
	// Commands (client → daemon).
	TypeList      Type = "LIST"
	TypeSearch    Type = "SEARCH"
	TypeShow      Type = "SHOW"
	TypeRestore   Type = "RESTORE"
	TypeRemove    Type = "REMOVE"
	TypeClear     Type = "CLEAR"
	TypePin       Type = "PIN"
	TypePause     Type = "PAUSE"
	TypeResume    Type = "RESUME"
	TypePersist   Type = "PERSIST"
	TypeCapacity  Type = "CAPACITY"
	TypeStatus    Type = "STATUS"
	TypeSubscribe Type = "SUBSCRIBE"

	// Responses (daemon → client).
	TypeOK             Type = "OK"
	TypeEntries        Type = "ENTRIES"
	TypePayload        Type = "PAYLOAD"
	TypeStatusResponse Type = "STATUS_RESPONSE"
	TypeEvent          Type = "EVENT"
	TypeError          Type = "ERROR"
)

// Entry is the wire projection of a history entry: metadata and preview
// only, never payloads. Use SHOW to fetch a payload.
type Entry struct {
	ID          uint64    `json:"id"`
	CapturedAt  time.Time `json:"captured_at"`
	PrimaryKind string    `json:"primary_kind"`
	Kinds       []string  `json:"kinds"`
	Pinned      bool      `json:"pinned,omitempty"`
	Preview     string    `json:"preview"`
}

// Event mirrors the engine's feed events for SUBSCRIBE streams.
type Event struct {
	Kind    string `json:"kind"` // added | removed | cleared | persistence
	Seq     uint64 `json:"seq"`
	Entry   *Entry `json:"entry,omitempty"`
	ID      uint64 `json:"id,omitempty"`
	Enabled bool   `json:"enabled,omitempty"`
}

// StatusInfo is the daemon status report.
type StatusInfo struct {
	Version     string `json:"version"`
	State       string `json:"state"`
	Entries     int    `json:"entries"`
	Capacity    int    `json:"capacity"`
	Persistence bool   `json:"persistence"`
	DBPath      string `json:"db_path,omitempty"`
	Device      string `json:"device"`
	Socket      string `json:"socket"`
}

// Message is the top-level wire envelope.
type Message struct {
	Type Type `json:"type"`

	// Command parameters.
	ID       uint64 `json:"id,omitempty"`       // RESTORE, REMOVE, PIN, SHOW
	Query    string `json:"query,omitempty"`    // SEARCH
	Limit    int    `json:"limit,omitempty"`    // LIST, SEARCH
	Offset   int    `json:"offset,omitempty"`   // LIST
	Kind     string `json:"kind,omitempty"`     // SHOW: which representation
	Pinned   bool   `json:"pinned,omitempty"`   // PIN
	Enabled  bool   `json:"enabled,omitempty"`  // PERSIST
	Capacity int    `json:"capacity,omitempty"` // CAPACITY

	// Response bodies.
	Entries []Entry     `json:"entries,omitempty"` // ENTRIES
	Payload string      `json:"payload,omitempty"` // PAYLOAD, base64
	Status  *StatusInfo `json:"status,omitempty"`  // STATUS_RESPONSE
	Event   *Event      `json:"event,omitempty"`   // EVENT
	Error   string      `json:"error,omitempty"`   // ERROR
}

// Encode serialises the message to JSON without a trailing newline.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode deserialises a message from raw JSON bytes.
func Decode(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("message decode: %w", err)
	}
	return &m, nil
}

// NewError wraps an error into an ERROR message.
func NewError(err error) *Message {
	return &Message{Type: TypeError, Error: err.Error()}
}

// NewPayload base64-encodes raw representation bytes into a PAYLOAD
// message.
func NewPayload(data []byte) *Message {
	return &Message{
		Type:    TypePayload,
		Payload: base64.StdEncoding.EncodeToString(data),
	}
}

// DecodePayload returns the raw bytes of a PAYLOAD message.
func (m *Message) DecodePayload() ([]byte, error) {
	return base64.StdEncoding.DecodeString(m.Payload)
}
