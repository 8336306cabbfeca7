// Package bridge converts a provider's live chunk sequence into a
// normalized, ordered protocol event stream for a downstream consumer,
// applying optional text-boundary trimming and supporting mid-stream
// cancellation.
//
// All state in this package is request-scoped: one dispatcher, one trim
// filter, and one cancel signal per in-flight request, shared with
// nothing else.
package bridge

// ToolCallState is the lifecycle stage of one tool invocation as
// observed through the stream.
type ToolCallState int

const (
	// ToolCallStreamingStart announces the invocation; no arguments yet.
	ToolCallStreamingStart ToolCallState = iota
	// ToolCallStreaming carries one argument-text fragment.
	ToolCallStreaming
	// ToolCallComplete carries the full argument text.
	ToolCallComplete
	// ToolCallResult carries the executed invocation's outcome.
	ToolCallResult
)

// String returns the state name for logging.
func (s ToolCallState) String() string {
	switch s {
	case ToolCallStreamingStart:
		return "streaming_start"
	case ToolCallStreaming:
		return "streaming"
	case ToolCallComplete:
		return "complete"
	case ToolCallResult:
		return "result"
	default:
		return "unknown"
	}
}

// EventKind discriminates the protocol event variants.
type EventKind int

const (
	// EventContent is a text fragment of the assistant response.
	EventContent EventKind = iota
	// EventToolCall is a tool invocation lifecycle update.
	EventToolCall
	// EventError is the terminal failure event. No event follows it and
	// the sink is not separately closed.
	EventError
)

// Event is one normalized protocol event.
type Event struct {
	Kind EventKind

	// Text is set for EventContent.
	Text string

	// ToolCall is set for EventToolCall.
	ToolCall *ToolCallEvent

	// Err is set for EventError.
	Err error
}

// ToolCallEvent describes one tool invocation update.
type ToolCallEvent struct {
	ID   string
	Name string

	// Args is a fragment in the ToolCallStreaming state and the full
	// argument text in the Complete and Result states. The consumer is
	// responsible for concatenating fragments if it wants the argument
	// text before completion.
	Args string

	State ToolCallState

	// Result is set in the ToolCallResult state, forwarded verbatim
	// from the tool handler.
	Result any
}

// Sink is the ordered output channel for protocol events. The bridge is
// its exclusive writer for the duration of one request: events arrive
// in chunk-encounter order, and exactly one terminal occurs per request
// (either Close on success or a final EventError push, never both).
type Sink interface {
	// Push appends one event.
	Push(Event)

	// Close signals successful end of stream. No Push follows it.
	Close()
}

// EventChannel is a Sink backed by a Go channel. The channel is closed
// on either terminal, so consumers can range over Events(); an error
// terminal is observed as an EventError immediately before the close.
type EventChannel struct {
	ch chan Event
}

// NewEventChannel creates a channel sink with the given buffer size.
func NewEventChannel(buffer int) *EventChannel {
	return &EventChannel{ch: make(chan Event, buffer)}
}

// Events returns the receiving side of the channel.
func (c *EventChannel) Events() <-chan Event { return c.ch }

// Push implements Sink.
func (c *EventChannel) Push(event Event) {
	c.ch <- event
	if event.Kind == EventError {
		close(c.ch)
	}
}

// Close implements Sink.
func (c *EventChannel) Close() {
	close(c.ch)
}
