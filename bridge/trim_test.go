package bridge

import (
	"strings"
	"testing"
)

// collect runs a chunked write sequence through the filter and returns
// everything it released plus the flush remainder, concatenated.
func collect(f *TrimFilter, chunks []string) string {
	var out strings.Builder
	for _, chunk := range chunks {
		for _, segment := range f.Write(chunk) {
			out.WriteString(segment)
		}
	}
	out.WriteString(f.Flush())
	return out.String()
}

func TestTrimPrefixAndSuffix(t *testing.T) {
	f := NewTrimFilter("P:", ":E")
	got := collect(f, []string{"P:hello\nworld:E"})
	if got != "hello\nworld" {
		t.Errorf("expected 'hello\\nworld', got %q", got)
	}
}

func TestTrimSurvivesArbitraryChunking(t *testing.T) {
	text := "P:hello\nworld:E"
	want := "hello\nworld"

	// Every split point, plus one-rune-at-a-time.
	for i := 1; i < len(text); i++ {
		f := NewTrimFilter("P:", ":E")
		if got := collect(f, []string{text[:i], text[i:]}); got != want {
			t.Errorf("split at %d: expected %q, got %q", i, want, got)
		}
	}

	f := NewTrimFilter("P:", ":E")
	chunks := make([]string, 0, len(text))
	for _, r := range text {
		chunks = append(chunks, string(r))
	}
	if got := collect(f, chunks); got != want {
		t.Errorf("per-rune chunking: expected %q, got %q", want, got)
	}
}

func TestTrimPrefixSpanningDeltas(t *testing.T) {
	f := NewTrimFilter("<think>", "")
	got := collect(f, []string{"<th", "ink>reasoning here"})
	if got != "reasoning here" {
		t.Errorf("expected prefix stripped across deltas, got %q", got)
	}
}

func TestTrimPrefixAbsentIsNeverStripped(t *testing.T) {
	f := NewTrimFilter("P:", "")
	got := collect(f, []string{"no marker here"})
	if got != "no marker here" {
		t.Errorf("expected passthrough, got %q", got)
	}
}

func TestTrimPrefixStrippedOnlyOnce(t *testing.T) {
	f := NewTrimFilter("P:", "")
	got := collect(f, []string{"P:first P:second"})
	if got != "first P:second" {
		t.Errorf("expected one-shot prefix strip, got %q", got)
	}
}

func TestTrimSuffixOnlyAtEndOfStream(t *testing.T) {
	f := NewTrimFilter("", ":E")
	got := collect(f, []string{"mid :E marker\nreal end:E"})
	if got != "mid :E marker\nreal end" {
		t.Errorf("expected only trailing suffix stripped, got %q", got)
	}
}

func TestTrimNoSuffixMatchKeepsText(t *testing.T) {
	f := NewTrimFilter("", ":E")
	got := collect(f, []string{"ends differently"})
	if got != "ends differently" {
		t.Errorf("expected passthrough, got %q", got)
	}
}

func TestTrimRetainsLineTail(t *testing.T) {
	f := NewTrimFilter("", ":E")

	// Four completed lines: exactly one may be released early.
	released := f.Write("l1\nl2\nl3\nl4\nl5")
	if len(released) != 1 || released[0] != "l1\n" {
		t.Fatalf("expected ['l1\\n'] released, got %v", released)
	}

	// Flush returns the retained tail, order preserved.
	if got := f.Flush(); got != "l2\nl3\nl4\nl5" {
		t.Errorf("expected retained tail, got %q", got)
	}
}

func TestTrimDrainReleasesEverythingHeld(t *testing.T) {
	f := NewTrimFilter("P:", ":E")
	f.Write("P:a\nb\npartial")

	if got := f.Drain(); got != "a\nb\npartial" {
		t.Fatalf("expected held lines and running buffer, got %q", got)
	}
	if got := f.Drain(); got != "" {
		t.Errorf("expected second drain empty, got %q", got)
	}

	// The filter keeps working after a drain.
	f.Write("tail:E")
	if got := f.Flush(); got != "tail" {
		t.Errorf("expected suffix still stripped at end of stream, got %q", got)
	}
}

func TestTrimFlushEmptyStream(t *testing.T) {
	f := NewTrimFilter("P:", ":E")
	if got := f.Flush(); got != "" {
		t.Errorf("expected empty flush, got %q", got)
	}
}

func TestTrimMultilineSpanningSuffix(t *testing.T) {
	// A suffix that is the whole last line is still wholly buffered at
	// end of stream.
	f := NewTrimFilter("", "END")
	got := collect(f, []string{"a\nb\nc\nd\ne\nEND"})
	if got != "a\nb\nc\nd\ne\n" {
		t.Errorf("expected suffix line emptied, got %q", got)
	}
}
