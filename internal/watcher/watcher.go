// Package watcher turns raw clipboard change signals into deduplicated
// history submissions.
//
// The watcher is a three-state machine. Idle means no baseline fingerprint
// is known yet; the first successful capture arms it. Armed compares every
// capture against the baseline and submits only genuine changes, which
// absorbs spurious OS notifications and re-copies of identical content.
// Suspended performs no captures at all until resumed.
//
// Self-echo suppression: before the engine writes an entry back to the
// clipboard it pre-seeds the baseline with that entry's fingerprint, so the
// notification caused by our own write is indistinguishable from a
// duplicate and never re-enters the history.
package watcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.klb.dev/clipvault/internal/clip"
	"go.klb.dev/clipvault/internal/history"
	"go.klb.dev/clipvault/internal/metrics"
	"go.klb.dev/clipvault/internal/snapshot"
)

// State is the watcher's monitoring state.
type State int32

const (
	StateIdle State = iota
	StateArmed
	StateSuspended
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// Options tunes the watcher.
type Options struct {
	// Debounce coalesces notification bursts: capture runs only after the
	// clipboard has been quiet for this long. Windows fires several
	// WM_CLIPBOARDUPDATE-style events for one user copy. Default 120ms.
	Debounce time.Duration
	// Retries is how many times a busy capture is retried within one tick
	// before giving up until the next notification. Default 3.
	Retries int
	// RetryDelay is the initial backoff between retries, doubled each
	// attempt. Default 20ms.
	RetryDelay time.Duration
}

func (o *Options) defaults() {
	if o.Debounce < 0 {
		o.Debounce = 0
	} else if o.Debounce == 0 {
		o.Debounce = 120 * time.Millisecond
	}
	if o.Retries <= 0 {
		o.Retries = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 20 * time.Millisecond
	}
}

// Watcher owns the capture loop. It is the sole submitter into the
// history store.
type Watcher struct {
	dev   clip.Device
	store *history.Store
	opts  Options

	mu       sync.Mutex
	state    State
	baseline snapshot.Fingerprint
	seeded   bool
}

// New creates a watcher in the Idle state.
func New(dev clip.Device, store *history.Store, opts Options) *Watcher {
	opts.defaults()
	return &Watcher{dev: dev, store: store, opts: opts}
}

// State returns the current monitoring state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Run consumes the device's change signals until ctx is cancelled. It
// first attempts an arming capture so a pre-existing clipboard value
// becomes the baseline without producing a history entry.
func (w *Watcher) Run(ctx context.Context) {
	w.arm(false)

	var (
		debounce *time.Timer
		fire     <-chan time.Time
	)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.dev.Watch():
			if w.opts.Debounce == 0 {
				w.tick()
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(w.opts.Debounce)
				fire = debounce.C
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(w.opts.Debounce)
			}
		case <-fire:
			w.tick()
		}
	}
}

// Pause suspends monitoring. Takes effect from the next tick; an in-flight
// capture completes.
func (w *Watcher) Pause() {
	w.mu.Lock()
	w.state = StateSuspended
	w.mu.Unlock()
	slog.Info("watcher paused")
}

// Resume re-arms monitoring. The current clipboard content is re-captured
// to refresh the baseline without emitting an event: whatever was copied
// while suspended is deliberately not history.
func (w *Watcher) Resume() {
	w.arm(true)
	slog.Info("watcher resumed")
}

// PreSeed sets the baseline to the given fingerprint ahead of a
// write-back, so the resulting change notification dedups as an echo.
func (w *Watcher) PreSeed(fp snapshot.Fingerprint) {
	w.mu.Lock()
	w.baseline = fp
	w.seeded = true
	w.mu.Unlock()
}

// arm captures the current clipboard as the new baseline without
// submitting. force also leaves Suspended; the initial arming only
// upgrades Idle.
func (w *Watcher) arm(force bool) {
	snap := w.captureWithRetry()

	w.mu.Lock()
	defer w.mu.Unlock()
	if !force && w.state == StateSuspended {
		return
	}
	if snap != nil {
		w.baseline = snap.Fingerprint()
		w.seeded = true
		w.state = StateArmed
	} else if force {
		// Nothing on the clipboard (or busy): armed with the old baseline,
		// the next notification sorts it out.
		w.state = StateArmed
	}
}

// tick runs one capture-compare-submit cycle.
func (w *Watcher) tick() {
	w.mu.Lock()
	if w.state == StateSuspended {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	snap := w.captureWithRetry()
	if snap == nil {
		return
	}
	metrics.Captures.Inc()
	fp := snap.Fingerprint()

	w.mu.Lock()
	if w.state == StateSuspended {
		// Paused between capture start and now; drop the result.
		w.mu.Unlock()
		return
	}
	if w.seeded && fp == w.baseline {
		w.mu.Unlock()
		metrics.Duplicates.Inc()
		slog.Debug("clipboard unchanged, skipping", "fingerprint", fp)
		return
	}
	w.baseline = fp
	w.seeded = true
	w.state = StateArmed
	w.mu.Unlock()

	entry, inserted := w.store.Submit(snap)
	if inserted {
		slog.Debug("captured clipboard change",
			"id", entry.ID,
			"kind", snap.PrimaryKind(),
			"fingerprint", fp,
		)
	}
}

// captureWithRetry reads and canonicalizes the clipboard, retrying busy
// reads with doubling backoff. Returns nil when the clipboard is empty,
// unsupported, or stayed busy for every attempt — all recovered locally,
// never fatal.
func (w *Watcher) captureWithRetry() *snapshot.Snapshot {
	delay := w.opts.RetryDelay
	for attempt := 0; ; attempt++ {
		raw, err := w.dev.Read()
		if err == nil {
			snap, err := snapshot.Canonicalize(time.Now(), raw)
			if err != nil {
				return nil // nothing we support on the clipboard
			}
			return snap
		}
		if attempt >= w.opts.Retries {
			slog.Debug("capture failed, waiting for next notification", "err", err)
			return nil
		}
		metrics.CaptureRetries.Inc()
		time.Sleep(delay)
		delay *= 2
	}
}
