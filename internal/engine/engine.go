// Package engine wires the clipboard device, history store, persistence
// adapter and change watcher into one component and exposes the command
// surface consumed by the IPC and HTTP frontends: pause/resume, restore,
// remove, clear, pin, persistence and capacity control, list and search.
package engine

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"go.klb.dev/clipvault/internal/clip"
	"go.klb.dev/clipvault/internal/history"
	"go.klb.dev/clipvault/internal/metrics"
	"go.klb.dev/clipvault/internal/persist"
	"go.klb.dev/clipvault/internal/snapshot"
	"go.klb.dev/clipvault/internal/watcher"
)

// ErrWriteDenied means clipboard ownership could not be acquired for a
// restore within the bounded wait. History state is unaffected; the caller
// may retry.
var ErrWriteDenied = errors.New("clipboard write denied")

// ErrNotFound means the referenced entry is no longer in the history.
var ErrNotFound = errors.New("entry not found")

// ErrNoPersistence means no database could be opened, so persistence
// cannot be enabled.
var ErrNoPersistence = errors.New("persistence unavailable")

// Config carries the engine's tunables, read from the configuration
// surface at startup.
type Config struct {
	Capacity     int
	Persist      bool
	DBPath       string
	Debounce     time.Duration
	RetryDelay   time.Duration
	Retries      int
	WriteRetries int
}

// Engine is the assembled capture/history/restore core.
type Engine struct {
	dev     clip.Device
	store   *history.Store
	persist *persist.Store // nil when the database could not be opened
	watcher *watcher.Watcher

	writeRetries int
	retryDelay   time.Duration
}

// New builds the engine: opens the database, rehydrates history when
// persistence is enabled, and prepares (but does not start) the watcher.
// A failed database open degrades to memory-only history with a logged
// error; it never prevents startup.
func New(cfg Config, dev clip.Device) *Engine {
	store := history.New(cfg.Capacity)

	var p *persist.Store
	if cfg.DBPath != "" {
		var err error
		p, err = persist.Open(cfg.DBPath)
		if err != nil {
			metrics.PersistErrors.Inc()
			slog.Error("history database unavailable, running memory-only",
				"path", cfg.DBPath, "err", err)
			p = nil
		}
	}

	if p != nil {
		p.SetEnabled(cfg.Persist)
		if cfg.Persist {
			recs, err := p.Load(store.Capacity())
			if err != nil {
				metrics.PersistErrors.Inc()
				slog.Error("history load failed, starting empty", "err", err)
			} else {
				store.Rehydrate(entriesFromRecords(recs))
				slog.Info("history loaded", "entries", len(recs))
			}
		}
		// Ids must stay unique across restarts even past the loaded window.
		if maxID, err := p.MaxID(); err == nil {
			store.SeedID(maxID)
		}
		store.SetSink(&persistSink{p})
	}

	e := &Engine{
		dev:          dev,
		store:        store,
		persist:      p,
		writeRetries: cfg.WriteRetries,
		retryDelay:   cfg.RetryDelay,
	}
	if e.writeRetries <= 0 {
		e.writeRetries = 3
	}
	if e.retryDelay <= 0 {
		e.retryDelay = 20 * time.Millisecond
	}
	e.watcher = watcher.New(dev, store, watcher.Options{
		Debounce:   cfg.Debounce,
		Retries:    cfg.Retries,
		RetryDelay: cfg.RetryDelay,
	})
	return e
}

// Watcher returns the change watcher; callers run it on their own
// goroutine.
func (e *Engine) Watcher() *watcher.Watcher { return e.watcher }

// Store returns the history store.
func (e *Engine) Store() *history.Store { return e.store }

// Device returns the clipboard device in use.
func (e *Engine) Device() clip.Device { return e.dev }

// Close drains persistence and releases the device.
func (e *Engine) Close() {
	if e.persist != nil {
		e.persist.Close()
	}
	e.dev.Close()
}

// Pause suspends clipboard monitoring.
func (e *Engine) Pause() { e.watcher.Pause() }

// Resume re-arms clipboard monitoring.
func (e *Engine) Resume() { e.watcher.Resume() }

// Restore writes every representation of the entry back onto the system
// clipboard, so the destination application can pick its preferred format
// exactly as the original copy offered. The watcher baseline is pre-seeded
// first so the resulting change notification is suppressed as an echo.
func (e *Engine) Restore(id uint64) error {
	entry, ok := e.store.Get(id)
	if !ok {
		return fmt.Errorf("restore %d: %w", id, ErrNotFound)
	}

	e.watcher.PreSeed(entry.Fingerprint)

	delay := e.retryDelay
	var err error
	for attempt := 0; attempt < e.writeRetries; attempt++ {
		if err = e.dev.Write(entry.Snapshot.Representations()); err == nil {
			metrics.Restores.Inc()
			slog.Info("entry restored to clipboard", "id", id, "kind", entry.Snapshot.PrimaryKind())
			return nil
		}
		time.Sleep(delay)
		delay *= 2
	}
	return fmt.Errorf("restore %d: %w: %v", id, ErrWriteDenied, err)
}

// Remove deletes one entry.
func (e *Engine) Remove(id uint64) error {
	if !e.store.Remove(id) {
		return fmt.Errorf("remove %d: %w", id, ErrNotFound)
	}
	return nil
}

// Clear wipes the history, pinned entries included.
func (e *Engine) Clear() { e.store.Clear() }

// SetPinned pins or unpins an entry.
func (e *Engine) SetPinned(id uint64, pinned bool) error {
	if !e.store.SetPinned(id, pinned) {
		return fmt.Errorf("pin %d: %w", id, ErrNotFound)
	}
	return nil
}

// SetCapacity reconfigures the history bound.
func (e *Engine) SetCapacity(n int) { e.store.SetCapacity(n) }

// SetPersistence flips persistence. Enabling backfills storage with the
// current in-memory log so disk and memory agree from that point on.
func (e *Engine) SetPersistence(enabled bool) error {
	if e.persist == nil {
		if !enabled {
			return nil
		}
		return ErrNoPersistence
	}
	was := e.persist.Enabled()
	e.persist.SetEnabled(enabled)
	if enabled && !was {
		entries := e.store.All()
		recs := make([]*persist.Record, len(entries))
		for i, entry := range entries {
			recs[i] = recordFromEntry(entry)
		}
		e.persist.Backfill(recs)
	}
	if was != enabled {
		e.store.Feed().PersistenceChanged(enabled)
	}
	return nil
}

// PersistenceEnabled reports whether history survives restarts.
func (e *Engine) PersistenceEnabled() bool {
	return e.persist != nil && e.persist.Enabled()
}

// List returns a page of the history, most-recent-first.
func (e *Engine) List(limit, offset int) []*history.Entry {
	return e.store.List(limit, offset)
}

// Get returns one entry by id.
func (e *Engine) Get(id uint64) (*history.Entry, bool) { return e.store.Get(id) }

// Search returns matching entries in history order.
func (e *Engine) Search(query string) iter.Seq[*history.Entry] {
	return e.store.Search(query)
}

// Subscribe attaches an event feed subscriber.
func (e *Engine) Subscribe(buffer int) (string, <-chan history.Event) {
	return e.store.Feed().Subscribe(buffer)
}

// Unsubscribe detaches an event feed subscriber.
func (e *Engine) Unsubscribe(id string) { e.store.Feed().Unsubscribe(id) }

// Status is a point-in-time view of the engine for status commands.
type Status struct {
	State       string `json:"state"`
	Entries     int    `json:"entries"`
	Capacity    int    `json:"capacity"`
	Persistence bool   `json:"persistence"`
	DBPath      string `json:"db_path,omitempty"`
	Device      string `json:"device"`
}

// Status reports the engine state.
func (e *Engine) Status() Status {
	st := Status{
		State:       e.watcher.State().String(),
		Entries:     e.store.Len(),
		Capacity:    e.store.Capacity(),
		Persistence: e.PersistenceEnabled(),
		Device:      e.dev.Name(),
	}
	if e.persist != nil {
		st.DBPath = e.persist.Path()
	}
	return st
}

// persistSink adapts the persistence store to the history.Sink interface,
// converting entries to their on-disk projection.
type persistSink struct {
	p *persist.Store
}

func (s *persistSink) SaveEntry(entry *history.Entry) { s.p.SaveEntry(recordFromEntry(entry)) }
func (s *persistSink) DeleteEntry(id uint64)          { s.p.DeleteEntry(id) }
func (s *persistSink) DeleteAll()                     { s.p.DeleteAll() }

func recordFromEntry(entry *history.Entry) *persist.Record {
	return &persist.Record{
		ID:          entry.ID,
		CapturedAt:  entry.Snapshot.CapturedAt(),
		PrimaryKind: entry.Snapshot.PrimaryKind(),
		Pinned:      entry.Pinned,
		Payloads:    entry.Snapshot.Representations(),
	}
}

func entriesFromRecords(recs []*persist.Record) []*history.Entry {
	entries := make([]*history.Entry, 0, len(recs))
	for _, rec := range recs {
		snap, err := snapshot.New(rec.CapturedAt, rec.Payloads)
		if err != nil {
			slog.Warn("skipping empty persisted record", "id", rec.ID)
			continue
		}
		entries = append(entries, &history.Entry{
			ID:          rec.ID,
			Snapshot:    snap,
			Fingerprint: snap.Fingerprint(),
			Pinned:      rec.Pinned,
		})
	}
	return entries
}
