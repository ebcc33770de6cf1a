package persist

import (
	"path/filepath"
	"testing"
	"time"

	"go.klb.dev/clipvault/internal/snapshot"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func textRecord(id uint64, text string) *Record {
	return &Record{
		ID:          id,
		CapturedAt:  time.UnixMilli(1700000000000 + int64(id)),
		PrimaryKind: snapshot.KindText,
		Payloads:    map[snapshot.Kind][]byte{snapshot.KindText: []byte(text)},
	}
}

// Writes are asynchronous; Close drains the queue, so tests close and
// reopen the store to observe what landed on disk.
func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s := openStore(t, path)
	s.SetEnabled(true)
	s.SaveEntry(textRecord(1, "first"))
	s.SaveEntry(&Record{
		ID:          2,
		CapturedAt:  time.UnixMilli(1700000000002),
		PrimaryKind: snapshot.KindHTML,
		Pinned:      true,
		Payloads: map[snapshot.Kind][]byte{
			snapshot.KindText: []byte("rich"),
			snapshot.KindHTML: []byte("<b>rich</b>"),
		},
	})
	s.Close()

	s = openStore(t, path)
	defer s.Close()
	recs, err := s.Load(100)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("loaded %d records, want 2", len(recs))
	}
	if recs[0].ID != 2 || recs[1].ID != 1 {
		t.Fatalf("load order = [%d %d], want newest first [2 1]", recs[0].ID, recs[1].ID)
	}
	got := recs[0]
	if got.PrimaryKind != snapshot.KindHTML || !got.Pinned {
		t.Fatalf("record 2 = %+v", got)
	}
	if string(got.Payloads[snapshot.KindHTML]) != "<b>rich</b>" || string(got.Payloads[snapshot.KindText]) != "rich" {
		t.Fatalf("payloads = %v", got.Payloads)
	}
	if got.CapturedAt.UnixMilli() != 1700000000002 {
		t.Fatalf("captured at = %v", got.CapturedAt)
	}
}

func TestLoad_Limit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s := openStore(t, path)
	s.SetEnabled(true)
	for i := uint64(1); i <= 3; i++ {
		s.SaveEntry(textRecord(i, "x"))
	}
	s.Close()

	s = openStore(t, path)
	defer s.Close()
	recs, err := s.Load(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].ID != 3 || recs[1].ID != 2 {
		t.Fatalf("Load(2) = %v", recs)
	}
}

func TestDisabled_WritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s := openStore(t, path)
	s.SaveEntry(textRecord(1, "secret"))
	s.Close()

	s = openStore(t, path)
	defer s.Close()
	recs, err := s.Load(100)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Fatalf("disabled store persisted %d records", len(recs))
	}
}

func TestDisable_WipesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s := openStore(t, path)
	s.SetEnabled(true)
	s.SaveEntry(textRecord(1, "secret"))
	s.SetEnabled(false)
	s.Close()

	s = openStore(t, path)
	defer s.Close()
	recs, err := s.Load(100)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Fatalf("%d records survived a persistence flip-off", len(recs))
	}
}

func TestDeleteEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s := openStore(t, path)
	s.SetEnabled(true)
	s.SaveEntry(textRecord(1, "a"))
	s.SaveEntry(textRecord(2, "b"))
	s.DeleteEntry(1)
	s.Close()

	s = openStore(t, path)
	defer s.Close()
	recs, err := s.Load(100)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].ID != 2 {
		t.Fatalf("after delete: %v", recs)
	}
}

func TestBackfill_ReplacesContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s := openStore(t, path)
	s.SetEnabled(true)
	s.SaveEntry(textRecord(1, "stale"))
	s.Backfill([]*Record{textRecord(5, "live"), textRecord(6, "live too")})
	s.Close()

	s = openStore(t, path)
	defer s.Close()
	recs, err := s.Load(100)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].ID != 6 || recs[1].ID != 5 {
		t.Fatalf("after backfill: %v", recs)
	}
}

func TestLoad_SkipsCorruptRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s := openStore(t, path)
	s.SetEnabled(true)
	s.SaveEntry(textRecord(1, "good"))
	s.Close()

	s = openStore(t, path)
	// An entry row with no payloads and one with a kind this version does
	// not know. Both must be skipped, not fail the whole load.
	if _, err := s.db.Exec(
		`INSERT INTO entries(id, captured_at_ms, primary_kind, pinned) VALUES(2, 0, 'text', 0)`); err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.Exec(
		`INSERT INTO entries(id, captured_at_ms, primary_kind, pinned) VALUES(3, 0, 'hologram', 0)`); err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	recs, err := s.Load(100)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].ID != 1 {
		t.Fatalf("load = %v, want only the intact record", recs)
	}
}

func TestMaxID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s := openStore(t, path)
	if id, err := s.MaxID(); err != nil || id != 0 {
		t.Fatalf("empty MaxID = %d, %v", id, err)
	}
	s.SetEnabled(true)
	s.SaveEntry(textRecord(7, "x"))
	s.Close()

	s = openStore(t, path)
	defer s.Close()
	id, err := s.MaxID()
	if err != nil {
		t.Fatal(err)
	}
	if id != 7 {
		t.Fatalf("MaxID = %d, want 7", id)
	}
}
