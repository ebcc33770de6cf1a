package snapshot

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Fingerprint is a deterministic digest over a snapshot's representation
// set. Two snapshots with byte-identical payloads per kind fingerprint the
// same regardless of capture time or map iteration order.
//
// It is an equality approximation: a collision dedups distinct content.
// At 256 bits that risk is accepted; there is no full-byte fallback.
type Fingerprint [sha256.Size]byte

// String returns a short hex form for logs.
func (f Fingerprint) String() string { return hex.EncodeToString(f[:8]) }

// IsZero reports whether the fingerprint is unset.
func (f Fingerprint) IsZero() bool { return f == Fingerprint{} }

// Fingerprint computes the snapshot's content digest. Representations are
// hashed in canonical kind order with an explicit length prefix per payload
// so that kind/payload boundaries are unambiguous.
func (s *Snapshot) Fingerprint() Fingerprint {
	h := sha256.New()
	var lenBuf [8]byte
	for _, k := range canonicalOrder {
		data, ok := s.reps[k]
		if !ok {
			continue
		}
		h.Write([]byte(k))
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(data)))
		h.Write(lenBuf[:])
		h.Write(data)
	}
	var f Fingerprint
	h.Sum(f[:0])
	return f
}
