// Line-buffered trim filter for the dispatcher's text path.
//
// Some providers prefix every response with a fixed banner or suffix it
// with a fixed marker (reasoning-model delimiters being the common
// case). The filter removes exactly one occurrence of each, without
// ever releasing a partial prefix/suffix fragment and without
// unbounded buffering.

package bridge

import "strings"

// pendingLineLimit is the number of completed lines the filter retains.
// The retained tail guarantees that a multi-line-spanning suffix is
// still wholly buffered when the stream ends. Release cadence follows
// from the limit: the first line is released once a fourth completed
// line arrives, and Flush emits whatever is still retained.
const pendingLineLimit = 3

// TrimFilter strips a configured prefix from the start of a streamed
// text and a configured suffix from its end. State is owned by one
// request and discarded with it.
type TrimFilter struct {
	prefix string
	suffix string

	buf           string   // current, possibly incomplete line
	pending       []string // completed lines not yet released
	prefixPending bool     // prefix not found yet
}

// NewTrimFilter creates a filter for the given prefix/suffix pair.
// Either may be empty, disabling that side of the trim.
func NewTrimFilter(prefix, suffix string) *TrimFilter {
	return &TrimFilter{
		prefix:        prefix,
		suffix:        suffix,
		prefixPending: prefix != "",
	}
}

// Write appends one incoming delta and returns the text segments the
// filter releases, in order. Each released segment is a completed line
// with its terminating newline reattached.
//
// The prefix is matched against the running buffer after every append,
// so a prefix split across deltas is found as soon as it is complete.
// If the prefix never appears it is never stripped.
func (f *TrimFilter) Write(delta string) []string {
	f.buf += delta

	if f.prefixPending {
		if idx := strings.Index(f.buf, f.prefix); idx >= 0 {
			f.buf = f.buf[idx+len(f.prefix):]
			f.prefixPending = false
		}
	}

	// Move completed lines into the pending queue; the last piece stays
	// in the buffer as the new (possibly incomplete) line.
	parts := strings.Split(f.buf, "\n")
	f.pending = append(f.pending, parts[:len(parts)-1]...)
	f.buf = parts[len(parts)-1]

	var released []string
	for len(f.pending) > pendingLineLimit {
		released = append(released, f.pending[0]+"\n")
		f.pending = f.pending[1:]
	}
	return released
}

// Drain releases everything currently held, completed lines and the
// running buffer both, with no suffix handling. Used when a non-text
// event must not overtake held text; suffix stripping stays an
// end-of-stream concern. The prefix state is unchanged: an unmatched
// prefix can still match later text.
func (f *TrimFilter) Drain() string {
	f.pending = append(f.pending, f.buf)
	f.buf = ""

	out := strings.Join(f.pending, "\n")
	f.pending = nil
	return out
}

// Flush ends the stream: the running buffer becomes the final pending
// line, the suffix (if configured) is stripped once from the last line
// when it ends with it, and everything still retained is returned as
// one text segment. Returns the empty string when nothing was retained.
func (f *TrimFilter) Flush() string {
	f.pending = append(f.pending, f.buf)
	f.buf = ""

	if f.suffix != "" {
		last := f.pending[len(f.pending)-1]
		if strings.HasSuffix(last, f.suffix) {
			f.pending[len(f.pending)-1] = strings.TrimSuffix(last, f.suffix)
		}
	}

	out := strings.Join(f.pending, "\n")
	f.pending = nil
	return out
}
