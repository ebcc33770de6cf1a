// Package snapshot defines the immutable multi-format clipboard snapshot,
// its content fingerprint, and the canonicalization rules applied at
// capture time (line-ending normalization for text, a single canonical
// raster encoding for images).
//
// A Snapshot holds every representation a single copy action offered, keyed
// by Kind. It is a value: once built it is never mutated, so it can be
// shared freely between the watcher, the history store, and the event feed.
package snapshot

import (
	"bytes"
	"errors"
	"time"
)

// Kind identifies one clipboard representation format.
type Kind string

const (
	KindText     Kind = "text"
	KindFileList Kind = "files"
	KindImage    Kind = "image"
	KindHTML     Kind = "html"
	KindRTF      Kind = "rtf"
)

// displayPriority picks the representation shown in lists and previews
// when a snapshot carries more than one kind.
var displayPriority = []Kind{KindFileList, KindImage, KindHTML, KindRTF, KindText}

// canonicalOrder is the fixed kind order used for fingerprinting and for
// Kinds(). It must never change between releases or persisted fingerprints
// would stop matching fresh captures.
var canonicalOrder = []Kind{KindText, KindFileList, KindImage, KindHTML, KindRTF}

// ParseKind converts a stored kind string back to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindText, KindFileList, KindImage, KindHTML, KindRTF:
		return Kind(s), true
	}
	return "", false
}

// ErrEmpty is returned when a capture offered no supported representation.
// It is a skip signal, not a failure.
var ErrEmpty = errors.New("snapshot: no representations")

// Snapshot is everything extracted from one clipboard-change instant.
type Snapshot struct {
	capturedAt time.Time
	reps       map[Kind][]byte
}

// New builds a Snapshot from raw representation payloads. Empty payloads
// are dropped; if nothing remains, ErrEmpty is reported and the snapshot
// must not be stored. The payload map is copied, the payload bytes are not:
// callers hand over ownership.
func New(capturedAt time.Time, reps map[Kind][]byte) (*Snapshot, error) {
	kept := make(map[Kind][]byte, len(reps))
	for k, data := range reps {
		if _, ok := ParseKind(string(k)); !ok {
			continue
		}
		if len(data) == 0 {
			continue
		}
		kept[k] = data
	}
	if len(kept) == 0 {
		return nil, ErrEmpty
	}
	return &Snapshot{capturedAt: capturedAt, reps: kept}, nil
}

// Canonicalize builds a Snapshot from the raw payloads a clipboard device
// returned, applying the capture-time normalizations: text line endings are
// folded to \n and image payloads are re-encoded to the canonical raster
// format so fingerprints are stable across producing applications.
func Canonicalize(capturedAt time.Time, raw map[Kind][]byte) (*Snapshot, error) {
	reps := make(map[Kind][]byte, len(raw))
	for k, data := range raw {
		switch k {
		case KindText:
			data = NormalizeText(data)
		case KindImage:
			data = NormalizeImage(data)
		}
		reps[k] = data
	}
	return New(capturedAt, reps)
}

// CapturedAt returns the capture timestamp.
func (s *Snapshot) CapturedAt() time.Time { return s.capturedAt }

// Has reports whether the snapshot carries the given representation.
func (s *Snapshot) Has(k Kind) bool {
	_, ok := s.reps[k]
	return ok
}

// Payload returns the raw bytes of one representation. The returned slice
// is shared; callers must not modify it.
func (s *Snapshot) Payload(k Kind) ([]byte, bool) {
	data, ok := s.reps[k]
	return data, ok
}

// Kinds returns the representations present, in canonical order.
func (s *Snapshot) Kinds() []Kind {
	out := make([]Kind, 0, len(s.reps))
	for _, k := range canonicalOrder {
		if _, ok := s.reps[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Representations returns a copy of the payload map, for writing the
// snapshot back to a clipboard device.
func (s *Snapshot) Representations() map[Kind][]byte {
	out := make(map[Kind][]byte, len(s.reps))
	for k, data := range s.reps {
		out[k] = data
	}
	return out
}

// PrimaryKind returns the representation used for display and search,
// chosen by fixed priority: files > image > html > rtf > text.
func (s *Snapshot) PrimaryKind() Kind {
	for _, k := range displayPriority {
		if _, ok := s.reps[k]; ok {
			return k
		}
	}
	// Unreachable: New guarantees at least one representation.
	return KindText
}

// FileList decodes the file-path list representation, or nil if absent.
func (s *Snapshot) FileList() []string {
	data, ok := s.reps[KindFileList]
	if !ok {
		return nil
	}
	return DecodeFileList(data)
}

// fileListSep joins paths inside the KindFileList payload. NUL cannot
// appear in a path on any supported platform.
const fileListSep = "\x00"

// EncodeFileList packs an ordered path list into a single payload.
func EncodeFileList(paths []string) []byte {
	return []byte(joinNonEmpty(paths, fileListSep))
}

// DecodeFileList unpacks a KindFileList payload.
func DecodeFileList(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	parts := bytes.Split(data, []byte(fileListSep))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(p) > 0 {
			out = append(out, string(p))
		}
	}
	return out
}

func joinNonEmpty(parts []string, sep string) string {
	var b bytes.Buffer
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(p)
	}
	return b.String()
}
