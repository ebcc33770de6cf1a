package snapshot

import (
	"testing"
	"time"
)

func mustSnapshot(t *testing.T, reps map[Kind][]byte) *Snapshot {
	t.Helper()
	s, err := New(time.Now(), reps)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNew_RejectsEmpty(t *testing.T) {
	if _, err := New(time.Now(), nil); err != ErrEmpty {
		t.Fatalf("nil reps: got %v, want ErrEmpty", err)
	}
	if _, err := New(time.Now(), map[Kind][]byte{KindText: nil}); err != ErrEmpty {
		t.Fatalf("empty payload: got %v, want ErrEmpty", err)
	}
	if _, err := New(time.Now(), map[Kind][]byte{Kind("bogus"): []byte("x")}); err != ErrEmpty {
		t.Fatalf("unknown kind: got %v, want ErrEmpty", err)
	}
}

func TestPrimaryKind_Priority(t *testing.T) {
	cases := []struct {
		reps map[Kind][]byte
		want Kind
	}{
		{map[Kind][]byte{KindText: []byte("a")}, KindText},
		{map[Kind][]byte{KindText: []byte("a"), KindHTML: []byte("<b>a</b>")}, KindHTML},
		{map[Kind][]byte{KindText: []byte("a"), KindRTF: []byte(`{\rtf1 a}`)}, KindRTF},
		{map[Kind][]byte{KindHTML: []byte("<i>x</i>"), KindImage: []byte("img")}, KindImage},
		{map[Kind][]byte{KindImage: []byte("img"), KindFileList: EncodeFileList([]string{"/tmp/a"})}, KindFileList},
	}
	for _, tc := range cases {
		s := mustSnapshot(t, tc.reps)
		if got := s.PrimaryKind(); got != tc.want {
			t.Errorf("reps %v: primary = %s, want %s", tc.reps, got, tc.want)
		}
	}
}

func TestCanonicalize_NormalizesLineEndings(t *testing.T) {
	s, err := Canonicalize(time.Now(), map[Kind][]byte{
		KindText: []byte("a\r\nb\rc\nd"),
	})
	if err != nil {
		t.Fatal(err)
	}
	data, _ := s.Payload(KindText)
	if got := string(data); got != "a\nb\nc\nd" {
		t.Fatalf("normalized text = %q", got)
	}
}

func TestFileList_RoundTrip(t *testing.T) {
	paths := []string{`C:\Users\a\report.pdf`, "/home/b/photo with spaces.png"}
	s := mustSnapshot(t, map[Kind][]byte{KindFileList: EncodeFileList(paths)})
	got := s.FileList()
	if len(got) != len(paths) {
		t.Fatalf("got %d paths, want %d", len(got), len(paths))
	}
	for i := range paths {
		if got[i] != paths[i] {
			t.Errorf("path %d = %q, want %q", i, got[i], paths[i])
		}
	}
}

func TestKinds_CanonicalOrder(t *testing.T) {
	s := mustSnapshot(t, map[Kind][]byte{
		KindHTML:  []byte("<p>x</p>"),
		KindText:  []byte("x"),
		KindImage: []byte("img"),
	})
	want := []Kind{KindText, KindImage, KindHTML}
	got := s.Kinds()
	if len(got) != len(want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", got, want)
		}
	}
}
