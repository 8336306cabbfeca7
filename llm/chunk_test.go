package llm

import (
	"context"
	"errors"
	"testing"
)

func TestChunkPipeDeliversInOrder(t *testing.T) {
	stream := newChunkPipe(context.Background(), func(ctx context.Context, emit emitFunc) error {
		emit(Chunk{Kind: ChunkText, Text: "a"})
		emit(Chunk{Kind: ChunkText, Text: "b"})
		emit(Chunk{Kind: ChunkText, Text: "c"})
		return nil
	})
	defer stream.Close()

	var got []string
	for stream.Next() {
		got = append(got, stream.Current().Text)
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("expected ordered delivery, got %v", got)
	}
	if err := stream.Err(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestChunkPipeSurfacesProducerError(t *testing.T) {
	wantErr := errors.New("upstream exploded")
	stream := newChunkPipe(context.Background(), func(ctx context.Context, emit emitFunc) error {
		emit(Chunk{Kind: ChunkText, Text: "partial"})
		return wantErr
	})
	defer stream.Close()

	for stream.Next() {
	}
	if !errors.Is(stream.Err(), wantErr) {
		t.Errorf("expected producer error, got %v", stream.Err())
	}
}

func TestChunkPipeCloseIsNotAnError(t *testing.T) {
	stream := newChunkPipe(context.Background(), func(ctx context.Context, emit emitFunc) error {
		for {
			if !emit(Chunk{Kind: ChunkText, Text: "x"}) {
				return ctx.Err()
			}
		}
	})

	if !stream.Next() {
		t.Fatal("expected at least one chunk")
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := stream.Err(); err != nil {
		t.Errorf("aborted stream must end as normal exhaustion, got %v", err)
	}
}

func TestChunkPipeParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stream := newChunkPipe(ctx, func(ctx context.Context, emit emitFunc) error {
		<-ctx.Done()
		return ctx.Err()
	})
	defer stream.Close()

	cancel()
	for stream.Next() {
	}
	if err := stream.Err(); err != nil {
		t.Errorf("cancellation must not surface as a stream fault, got %v", err)
	}
}
