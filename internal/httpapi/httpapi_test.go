package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.klb.dev/clipvault/internal/clip"
	"go.klb.dev/clipvault/internal/engine"
	"go.klb.dev/clipvault/internal/message"
	"go.klb.dev/clipvault/internal/snapshot"
)

func setup(t *testing.T) *Server {
	t.Helper()
	eng := engine.New(engine.Config{Capacity: 10}, clip.NewFake())
	t.Cleanup(eng.Close)
	for _, text := range []string{"alpha", "beta", "gamma"} {
		snap, err := snapshot.Canonicalize(time.Now(), map[snapshot.Kind][]byte{
			snapshot.KindText: []byte(text),
		})
		if err != nil {
			t.Fatal(err)
		}
		eng.Store().Submit(snap)
	}
	return New("127.0.0.1:0", eng, "test")
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeEntries(t *testing.T, rec *httptest.ResponseRecorder) []message.Entry {
	t.Helper()
	var entries []message.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return entries
}

func TestHealth(t *testing.T) {
	rec := get(t, setup(t), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestEntries(t *testing.T) {
	s := setup(t)

	entries := decodeEntries(t, get(t, s, "/v1/entries"))
	if len(entries) != 3 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].Preview != "gamma" || entries[2].Preview != "alpha" {
		t.Fatalf("order = [%s ... %s], want most recent first", entries[0].Preview, entries[2].Preview)
	}
	if entries[0].PrimaryKind != "text" || len(entries[0].Kinds) != 1 {
		t.Fatalf("entry = %+v", entries[0])
	}

	paged := decodeEntries(t, get(t, s, "/v1/entries?limit=1&offset=1"))
	if len(paged) != 1 || paged[0].Preview != "beta" {
		t.Fatalf("paged = %+v", paged)
	}
}

func TestSearch(t *testing.T) {
	s := setup(t)

	hits := decodeEntries(t, get(t, s, "/v1/search?q=ALPHA"))
	if len(hits) != 1 || hits[0].Preview != "alpha" {
		t.Fatalf("hits = %+v", hits)
	}

	limited := decodeEntries(t, get(t, s, "/v1/search?q=a&limit=2"))
	if len(limited) != 2 {
		t.Fatalf("limited search returned %d entries", len(limited))
	}
}

func TestStatus(t *testing.T) {
	rec := get(t, setup(t), "/v1/status")
	var body struct {
		Version string        `json:"version"`
		Status  engine.Status `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Version != "test" || body.Status.Entries != 3 {
		t.Fatalf("status = %+v", body)
	}
}

func TestMetricsExposed(t *testing.T) {
	rec := get(t, setup(t), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
}
