// Package clip models access to the system clipboard as an explicit Device
// capability. All OS clipboard interaction in the engine funnels through
// this one interface, so the watcher, codec and write-back paths can be
// exercised against an in-memory fake.
//
// Backends:
//
//	native.go   — golang.design/x/clipboard (text + image), change polling
//	cmdline.go  — atotto/clipboard text-only fallback (xclip/pbcopy et al.)
//	headless.go — no-op stub for displays-less environments
//	fake.go     — scriptable in-memory device for tests
package clip

import (
	"errors"
	"time"

	"go.klb.dev/clipvault/internal/snapshot"
)

// ErrBusy means the clipboard is transiently held by another process.
// Callers retry with bounded backoff; it is never surfaced as a failure.
var ErrBusy = errors.New("clipboard busy")

// ErrUnavailable means the clipboard cannot be used at all in this
// environment (no display server, no helper binary).
var ErrUnavailable = errors.New("clipboard unavailable")

// Device is the narrow handle to one system clipboard.
type Device interface {
	// Name returns a human-readable backend name for logs and status.
	Name() string

	// Read returns the raw payloads currently offered, keyed by kind.
	// An empty map means the clipboard is empty or holds only unsupported
	// formats. The read must hold clipboard access as briefly as possible.
	Read() (map[snapshot.Kind][]byte, error)

	// Write replaces the clipboard contents with every given
	// representation in one exclusive access.
	Write(reps map[snapshot.Kind][]byte) error

	// Watch returns a channel signalled whenever the clipboard may have
	// changed. The channel is never closed and signals may be spurious;
	// the watcher dedups by fingerprint.
	Watch() <-chan struct{}

	// Close releases backend resources.
	Close()
}

// New returns the best available Device: the native multi-format backend
// when the display environment supports it, the command-line text backend
// as a fallback, and a no-op headless device otherwise.
func New(pollInterval time.Duration) Device {
	if d, err := newNative(pollInterval); err == nil {
		return d
	}
	if d, err := newCmdline(pollInterval); err == nil {
		return d
	}
	return newHeadless()
}
