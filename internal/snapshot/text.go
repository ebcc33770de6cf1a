package snapshot

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// NormalizeText folds CRLF and lone CR line endings to LF. Character
// content is otherwise preserved exactly.
func NormalizeText(data []byte) []byte {
	if !bytes.ContainsRune(data, '\r') {
		return data
	}
	out := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(out, []byte("\r"), []byte("\n"))
}

// rtfControl matches RTF control words (\b0, \par ...) and group braces.
var rtfControl = regexp.MustCompile(`\\[a-zA-Z]+-?\d* ?|\\'[0-9a-fA-F]{2}|[{}]`)

var collapseWS = regexp.MustCompile(`\s+`)

// Projection returns the entry's searchable text. Text, HTML and RTF
// project to their decoded text; file lists to the joined path list; images
// to the empty string (they match only an empty query). When a rich
// snapshot also carries a plain-text representation that text is used
// directly — it is the exact decoded content the producer offered.
func (s *Snapshot) Projection() string {
	switch s.PrimaryKind() {
	case KindFileList:
		return strings.Join(s.FileList(), "\n")
	case KindImage:
		return ""
	case KindHTML:
		if text, ok := s.reps[KindText]; ok {
			return string(text)
		}
		data, _ := s.reps[KindHTML]
		return HTMLText(data)
	case KindRTF:
		if text, ok := s.reps[KindText]; ok {
			return string(text)
		}
		data, _ := s.reps[KindRTF]
		return RTFText(data)
	default:
		data, _ := s.reps[KindText]
		return string(data)
	}
}

// HTMLText extracts the visible text of an HTML payload. Script and style
// subtrees are dropped and runs of whitespace are collapsed.
func HTMLText(data []byte) string {
	tok := html.NewTokenizer(bytes.NewReader(data))
	var b strings.Builder
	skipDepth := 0
	for {
		switch tok.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(collapseWS.ReplaceAllString(b.String(), " "))
		case html.StartTagToken:
			name, _ := tok.TagName()
			if skippedTag(name) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tok.TagName()
			if skippedTag(name) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(tok.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func skippedTag(name []byte) bool {
	return bytes.Equal(name, []byte("script")) || bytes.Equal(name, []byte("style"))
}

// RTFText strips RTF control words, groups and hex escapes, leaving an
// approximation of the document text. Good enough for search and previews;
// the raw payload is what gets restored.
func RTFText(data []byte) string {
	s := rtfControl.ReplaceAllString(string(data), "")
	return strings.TrimSpace(collapseWS.ReplaceAllString(s, " "))
}

// Preview returns a single-line description of the snapshot for list
// output and event logs, truncated to maxLen runes.
func (s *Snapshot) Preview(maxLen int) string {
	if maxLen <= 0 {
		maxLen = 120
	}
	switch s.PrimaryKind() {
	case KindFileList:
		paths := s.FileList()
		switch len(paths) {
		case 0:
			return "(empty file list)"
		case 1:
			return truncate(paths[0], maxLen)
		default:
			return truncate(fmt.Sprintf("%s +%d", paths[0], len(paths)-1), maxLen)
		}
	case KindImage:
		data, _ := s.reps[KindImage]
		return fmt.Sprintf("(image %d bytes)", len(data))
	default:
		line := strings.ReplaceAll(s.Projection(), "\n", " ")
		return truncate(strings.TrimSpace(line), maxLen)
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-1]) + "…"
}
