package clip

import (
	"slices"
	"sync"

	"go.klb.dev/clipvault/internal/snapshot"
)

// Fake is an in-memory Device for tests. SetContents replaces the
// clipboard and fires a watch signal; FailReads makes the next reads
// return ErrBusy to exercise the retry path.
type Fake struct {
	watchCh chan struct{}

	mu        sync.Mutex
	contents  map[snapshot.Kind][]byte
	failReads int
	writes    []map[snapshot.Kind][]byte
	writeErr  error
}

// NewFake returns an empty fake clipboard.
func NewFake() *Fake {
	return &Fake{watchCh: make(chan struct{}, 8)}
}

func (f *Fake) Name() string { return "fake" }

// SetContents replaces the clipboard contents and signals the watcher,
// like an external application copying.
func (f *Fake) SetContents(reps map[snapshot.Kind][]byte) {
	f.mu.Lock()
	f.contents = cloneReps(reps)
	f.mu.Unlock()
	f.Signal()
}

// Signal fires a watch notification without changing contents, simulating
// a spurious OS notification.
func (f *Fake) Signal() {
	select {
	case f.watchCh <- struct{}{}:
	default:
	}
}

// FailReads makes the next n Read calls return ErrBusy.
func (f *Fake) FailReads(n int) {
	f.mu.Lock()
	f.failReads = n
	f.mu.Unlock()
}

// FailWrites makes Write return err until reset with FailWrites(nil).
func (f *Fake) FailWrites(err error) {
	f.mu.Lock()
	f.writeErr = err
	f.mu.Unlock()
}

func (f *Fake) Read() (map[snapshot.Kind][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads > 0 {
		f.failReads--
		return nil, ErrBusy
	}
	return cloneReps(f.contents), nil
}

func (f *Fake) Write(reps map[snapshot.Kind][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.contents = cloneReps(reps)
	f.writes = append(f.writes, cloneReps(reps))
	return nil
}

// Writes returns every representation set written so far.
func (f *Fake) Writes() []map[snapshot.Kind][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[snapshot.Kind][]byte, len(f.writes))
	copy(out, f.writes)
	return out
}

func (f *Fake) Watch() <-chan struct{} { return f.watchCh }
func (f *Fake) Close()                {}

// cloneReps deep-copies a representation map so callers and the fake never
// share payload slices, matching a real backend's freshly-read buffers.
func cloneReps(reps map[snapshot.Kind][]byte) map[snapshot.Kind][]byte {
	if reps == nil {
		return nil
	}
	out := make(map[snapshot.Kind][]byte, len(reps))
	for k, v := range reps {
		out[k] = slices.Clone(v)
	}
	return out
}
