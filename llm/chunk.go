// Streaming chunk model shared by all providers.
//
// A provider's live output is exposed as a pull-driven, finite,
// non-restartable sequence of typed chunks. Each chunk is consumed
// exactly once and never replayed.

package llm

import (
	"context"
	"errors"
)

// ChunkKind discriminates the variants of a provider chunk.
type ChunkKind int

const (
	// ChunkText is a plain text fragment of the assistant response.
	ChunkText ChunkKind = iota
	// ChunkToolCallStart announces a tool invocation before its arguments stream.
	ChunkToolCallStart
	// ChunkToolCallDelta carries a fragment of the invocation's argument text.
	ChunkToolCallDelta
	// ChunkToolCallComplete carries the full argument text of a finished invocation.
	ChunkToolCallComplete
	// ChunkToolResult carries the outcome of an executed tool invocation.
	ChunkToolResult
	// ChunkError is a terminal in-band provider failure.
	ChunkError
)

// Chunk is one atomic unit of a provider's live output sequence.
// Fields are populated according to Kind.
type Chunk struct {
	Kind ChunkKind

	// Text is set for ChunkText.
	Text string

	// CallID and ToolName identify a tool invocation. CallID may be empty
	// for providers that report atomic, non-streamed calls.
	CallID   string
	ToolName string

	// Args is the argument fragment for ChunkToolCallDelta and the full
	// argument text for ChunkToolCallComplete and ChunkToolResult.
	Args string

	// Result is the tool handler's outcome, forwarded verbatim.
	Result any

	// Message is set for ChunkError.
	Message string
}

// ChunkStream is a lazy iterator over a provider's chunk sequence.
//
// Usage mirrors the SDK streaming iterators:
//
//	for stream.Next() {
//	    chunk := stream.Current()
//	    ...
//	}
//	if err := stream.Err(); err != nil { ... }
type ChunkStream interface {
	// Next advances to the next chunk, blocking until one is available.
	// Returns false when the sequence is exhausted or failed.
	Next() bool

	// Current returns the chunk Next advanced to.
	Current() Chunk

	// Err returns the fault that ended the sequence, if any. A stream
	// ended by request cancellation reports no error: an abort-induced
	// end is normal exhaustion.
	Err() error

	// Close aborts the underlying request and releases the producer.
	// Safe to call multiple times.
	Close() error
}

// chunkPipe adapts a producer function into a ChunkStream. The producer
// runs in its own goroutine and hands chunks over one at a time; the
// consumer pulls at its own pace, so the pipe never buffers ahead.
type chunkPipe struct {
	ch     chan Chunk
	errc   chan error
	cancel context.CancelFunc
	cur    Chunk
	err    error
	done   bool
}

// emitFunc hands one chunk to the consumer. It returns false once the
// stream is closed; producers should stop when that happens.
type emitFunc func(Chunk) bool

// newChunkPipe starts produce in a goroutine and returns the consuming
// side. The error produce returns becomes the stream's Err.
func newChunkPipe(ctx context.Context, produce func(ctx context.Context, emit emitFunc) error) *chunkPipe {
	ctx, cancel := context.WithCancel(ctx)
	p := &chunkPipe{
		ch:     make(chan Chunk),
		errc:   make(chan error, 1),
		cancel: cancel,
	}

	emit := func(c Chunk) bool {
		select {
		case p.ch <- c:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		p.errc <- produce(ctx, emit)
		close(p.ch)
	}()

	return p
}

// Next implements ChunkStream.
func (p *chunkPipe) Next() bool {
	if p.done {
		return false
	}
	c, ok := <-p.ch
	if !ok {
		p.done = true
		p.err = <-p.errc
		return false
	}
	p.cur = c
	return true
}

// Current implements ChunkStream.
func (p *chunkPipe) Current() Chunk { return p.cur }

// Err implements ChunkStream. Context cancellation is not a stream
// fault: a cancelled request ends as normal exhaustion.
func (p *chunkPipe) Err() error {
	if errors.Is(p.err, context.Canceled) {
		return nil
	}
	return p.err
}

// Close implements ChunkStream. It cancels the producer and drains any
// in-flight chunk so the goroutine can exit.
func (p *chunkPipe) Close() error {
	p.cancel()
	for p.Next() {
	}
	return nil
}
