// Package persist mirrors the history log to SQLite.
//
// Writes are asynchronous: a single worker goroutine owns the database
// connection for mutations, fed by a bounded channel. The capture path
// enqueues and returns immediately; if the queue is full or a write fails
// the operation is dropped with a logged error — in-memory history stays
// authoritative. Load runs synchronously at startup, before the watcher
// arms.
package persist

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"go.klb.dev/clipvault/internal/metrics"
	"go.klb.dev/clipvault/internal/snapshot"
)

// SchemaVersion is stored in the meta table for forward migration.
const SchemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
	id             INTEGER PRIMARY KEY,
	captured_at_ms INTEGER NOT NULL,
	primary_kind   TEXT NOT NULL,
	pinned         INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS payloads (
	entry_id INTEGER NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
	kind     TEXT NOT NULL,
	payload  BLOB NOT NULL,
	PRIMARY KEY (entry_id, kind)
);
CREATE INDEX IF NOT EXISTS idx_entries_captured ON entries(captured_at_ms DESC);
`

// Record is the on-disk projection of a history entry.
type Record struct {
	ID          uint64
	CapturedAt  time.Time
	PrimaryKind snapshot.Kind
	Pinned      bool
	Payloads    map[snapshot.Kind][]byte
}

type opKind int

const (
	opSave opKind = iota
	opDelete
	opClear
)

type op struct {
	kind opKind
	rec  *Record
	id   uint64
}

// Store is the SQLite persistence adapter. The enabled flag gates all
// I/O: when off, operations are no-ops and nothing is read or written.
type Store struct {
	db      *sql.DB
	path    string
	enabled atomic.Bool

	ch     chan op
	done   chan struct{}
	closed chan struct{}
	once   sync.Once
}

// Open opens (creating if needed) the history database and starts the
// writer goroutine. The store starts disabled; call SetEnabled.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// The single writer plus synchronous loads share this one connection;
	// sqlite serializes fine at this rate and WAL keeps readers cheap.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	if _, err := db.Exec(
		`INSERT INTO meta(key, value) VALUES('schema_version', ?)
		 ON CONFLICT(key) DO NOTHING`, fmt.Sprint(SchemaVersion)); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema version: %w", err)
	}

	s := &Store{
		db:     db,
		path:   path,
		ch:     make(chan op, 256),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	go s.writeLoop()
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Enabled reports whether persistence is on.
func (s *Store) Enabled() bool { return s.enabled.Load() }

// SetEnabled flips persistence. Disabling wipes the database — the privacy
// default is that no history survives process exit unless persistence is
// on.
func (s *Store) SetEnabled(enabled bool) {
	if s.enabled.Swap(enabled) == enabled {
		return
	}
	if !enabled {
		// Queued behind in-flight writes so a flip off wins over them.
		s.enqueue(op{kind: opClear})
	}
	slog.Info("persistence state changed", "enabled", enabled)
}

// SaveEntry queues an entry write. Non-blocking; drops (with a logged
// error) if the queue is full.
func (s *Store) SaveEntry(rec *Record) {
	if !s.enabled.Load() {
		return
	}
	s.enqueue(op{kind: opSave, rec: rec})
}

// DeleteEntry queues a deletion by id.
func (s *Store) DeleteEntry(id uint64) {
	if !s.enabled.Load() {
		return
	}
	s.enqueue(op{kind: opDelete, id: id})
}

// DeleteAll queues a full wipe.
func (s *Store) DeleteAll() {
	if !s.enabled.Load() {
		return
	}
	s.enqueue(op{kind: opClear})
}

// Backfill queues a wipe followed by every given record. Used when
// persistence is enabled while entries already exist in memory.
func (s *Store) Backfill(recs []*Record) {
	if !s.enabled.Load() {
		return
	}
	s.enqueue(op{kind: opClear})
	for _, rec := range recs {
		s.enqueue(op{kind: opSave, rec: rec})
	}
}

func (s *Store) enqueue(o op) {
	select {
	case s.ch <- o:
	case <-s.done:
	default:
		metrics.PersistErrors.Inc()
		slog.Error("persistence queue full, dropping operation", "op", o.kind)
	}
}

// Close drains queued writes and closes the database. In-flight writes
// complete rather than being aborted, so no partial records are left
// behind.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
	<-s.closed
}

func (s *Store) writeLoop() {
	for {
		select {
		case <-s.done:
			// Drain whatever was queued before Close, then shut down.
			for {
				select {
				case o := <-s.ch:
					s.apply(o)
				default:
					s.db.Close()
					close(s.closed)
					return
				}
			}
		case o := <-s.ch:
			s.apply(o)
		}
	}
}

func (s *Store) apply(o op) {
	var err error
	switch o.kind {
	case opSave:
		err = s.save(o.rec)
	case opDelete:
		_, err = s.db.Exec(`DELETE FROM entries WHERE id = ?`, int64(o.id))
	case opClear:
		_, err = s.db.Exec(`DELETE FROM entries`)
	}
	if err != nil {
		metrics.PersistErrors.Inc()
		slog.Error("persistence write failed", "op", o.kind, "err", err)
	}
}

func (s *Store) save(rec *Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO entries(id, captured_at_ms, primary_kind, pinned)
		 VALUES(?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET pinned = excluded.pinned`,
		int64(rec.ID), rec.CapturedAt.UnixMilli(), string(rec.PrimaryKind), boolInt(rec.Pinned),
	); err != nil {
		return err
	}
	for kind, payload := range rec.Payloads {
		if _, err := tx.Exec(
			`INSERT INTO payloads(entry_id, kind, payload) VALUES(?, ?, ?)
			 ON CONFLICT(entry_id, kind) DO UPDATE SET payload = excluded.payload`,
			int64(rec.ID), string(kind), payload,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Load reads the newest records up to limit, most-recent-first. Records
// that fail to decode (unknown kind, no payloads) are skipped with a
// warning; the rest of the load continues.
func (s *Store) Load(limit int) ([]*Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.Query(
		`SELECT id, captured_at_ms, primary_kind, pinned
		 FROM entries ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	var recs []*Record
	for rows.Next() {
		var (
			id, capturedMs int64
			primary        string
			pinned         int
		)
		if err := rows.Scan(&id, &capturedMs, &primary, &pinned); err != nil {
			slog.Warn("skipping unreadable history record", "err", err)
			continue
		}
		kind, ok := snapshot.ParseKind(primary)
		if !ok {
			slog.Warn("skipping history record with unknown kind", "id", id, "kind", primary)
			continue
		}
		recs = append(recs, &Record{
			ID:          uint64(id),
			CapturedAt:  time.UnixMilli(capturedMs),
			PrimaryKind: kind,
			Pinned:      pinned != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	out := recs[:0]
	for _, rec := range recs {
		if err := s.loadPayloads(rec); err != nil {
			slog.Warn("skipping history record without payloads", "id", rec.ID, "err", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) loadPayloads(rec *Record) error {
	rows, err := s.db.Query(
		`SELECT kind, payload FROM payloads WHERE entry_id = ?`, int64(rec.ID))
	if err != nil {
		return err
	}
	defer rows.Close()

	rec.Payloads = make(map[snapshot.Kind][]byte)
	for rows.Next() {
		var (
			kindStr string
			payload []byte
		)
		if err := rows.Scan(&kindStr, &payload); err != nil {
			return err
		}
		kind, ok := snapshot.ParseKind(kindStr)
		if !ok {
			continue
		}
		rec.Payloads[kind] = payload
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(rec.Payloads) == 0 {
		return fmt.Errorf("no decodable payloads")
	}
	return nil
}

// MaxID returns the highest entry id ever persisted, or 0.
func (s *Store) MaxID() (uint64, error) {
	var id sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(id) FROM entries`).Scan(&id); err != nil {
		return 0, err
	}
	if !id.Valid {
		return 0, nil
	}
	return uint64(id.Int64), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
