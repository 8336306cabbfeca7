// Chunk dispatcher - the protocol state machine at the center of the
// bridge.
//
// The dispatcher consumes a provider's chunk sequence one chunk at a
// time, in arrival order, and pushes normalized events to the sink.
// Content derived from trimmed text may be delayed behind the filter's
// line retention, but is never reordered: text is only withheld, never
// skipped past, so tool-call and error events always appear after the
// text that preceded them.

package bridge

import (
	"fmt"
	"strconv"
	"time"

	"github.com/richinex/styx/llm"
)

// dispatcherState is the dispatcher's lifecycle stage.
type dispatcherState int

const (
	stateStreaming dispatcherState = iota
	stateDraining
	stateClosed
	stateFailed
)

// Dispatcher converts one request's chunk sequence into protocol
// events. Create one per request; it is not reusable.
type Dispatcher struct {
	sink  Sink
	trim  *TrimFilter // nil when no trim is configured
	state dispatcherState
}

// NewDispatcher creates a dispatcher writing to sink. trim may be nil.
func NewDispatcher(sink Sink, trim *TrimFilter) *Dispatcher {
	return &Dispatcher{sink: sink, trim: trim, state: stateStreaming}
}

// Run consumes the stream to a terminal state. Every fault - an in-band
// error chunk, a stream iteration error, or a panic below this frame -
// becomes a single terminal EventError; on success the sink is closed.
// Run never returns before one of the two terminals has happened.
func (d *Dispatcher) Run(stream llm.ChunkStream) {
	defer stream.Close()
	defer func() {
		if r := recover(); r != nil {
			d.fail(fmt.Errorf("dispatch panic: %v", r))
		}
	}()

	for d.state == stateStreaming && stream.Next() {
		d.handle(stream.Current())
	}

	if d.state == stateFailed {
		return
	}
	if err := stream.Err(); err != nil {
		d.fail(fmt.Errorf("provider stream failed: %w", err))
		return
	}

	if d.trim != nil {
		d.state = stateDraining
		if text := d.trim.Flush(); text != "" {
			d.sink.Push(Event{Kind: EventContent, Text: text})
		}
	}

	d.sink.Close()
	d.state = stateClosed
}

// handle processes one chunk. Strict switch over the chunk kind.
func (d *Dispatcher) handle(chunk llm.Chunk) {
	switch chunk.Kind {
	case llm.ChunkText:
		if d.trim == nil {
			// Streamed verbatim at the finest granularity the provider gives us.
			d.sink.Push(Event{Kind: EventContent, Text: chunk.Text})
			return
		}
		for _, line := range d.trim.Write(chunk.Text) {
			d.sink.Push(Event{Kind: EventContent, Text: line})
		}

	case llm.ChunkToolCallStart:
		d.releaseHeldText()
		d.sink.Push(Event{Kind: EventToolCall, ToolCall: &ToolCallEvent{
			ID:    chunk.CallID,
			Name:  chunk.ToolName,
			State: ToolCallStreamingStart,
		}})

	case llm.ChunkToolCallDelta:
		d.releaseHeldText()
		d.sink.Push(Event{Kind: EventToolCall, ToolCall: &ToolCallEvent{
			ID:    chunk.CallID,
			Name:  chunk.ToolName,
			Args:  chunk.Args,
			State: ToolCallStreaming,
		}})

	case llm.ChunkToolCallComplete:
		d.releaseHeldText()
		id := chunk.CallID
		if id == "" {
			// Atomic, non-streamed calls can arrive without an id; the
			// consumer never saw a start/streaming id to correlate with,
			// so a synthesized one is sufficient.
			id = synthesizeCallID()
		}
		d.sink.Push(Event{Kind: EventToolCall, ToolCall: &ToolCallEvent{
			ID:    id,
			Name:  chunk.ToolName,
			Args:  chunk.Args,
			State: ToolCallComplete,
		}})

	case llm.ChunkToolResult:
		d.releaseHeldText()
		d.sink.Push(Event{Kind: EventToolCall, ToolCall: &ToolCallEvent{
			ID:     chunk.CallID,
			Name:   chunk.ToolName,
			Args:   chunk.Args,
			State:  ToolCallResult,
			Result: chunk.Result,
		}})

	case llm.ChunkError:
		d.fail(fmt.Errorf("provider error: %s", chunk.Message))
	}
}

// releaseHeldText drains the trim filter so a non-text event never
// overtakes the text that logically preceded it. Held text is only
// delayed, never dropped; suffix stripping stays an end-of-stream
// concern and does not apply here.
func (d *Dispatcher) releaseHeldText() {
	if d.trim == nil {
		return
	}
	if text := d.trim.Drain(); text != "" {
		d.sink.Push(Event{Kind: EventContent, Text: text})
	}
}

// fail pushes the terminal error event and stops consumption. The sink
// is not closed: the error event is itself the terminal. Text the trim
// filter still holds is released first.
func (d *Dispatcher) fail(err error) {
	if d.state == stateFailed || d.state == stateClosed {
		return
	}
	d.releaseHeldText()
	d.sink.Push(Event{Kind: EventError, Err: err})
	d.state = stateFailed
}

// synthesizeCallID builds a fallback tool-call id from the wall clock.
func synthesizeCallID() string {
	return "call-" + strconv.FormatInt(time.Now().UnixNano(), 10)
}
