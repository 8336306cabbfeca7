package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/richinex/styx/llm"
)

// stubProvider captures the request it receives and replays fixed chunks.
type stubProvider struct {
	lastReq llm.Request
	chunks  []llm.Chunk
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) ResolveModel(modelID string) string {
	if modelID == "" {
		return "stub-default"
	}
	return modelID
}

func (p *stubProvider) Stream(ctx context.Context, req llm.Request) llm.ChunkStream {
	p.lastReq = req
	return &stubStream{chunks: p.chunks}
}

// stubSource returns a fixed adapter table and records lookups.
type stubSource struct {
	table    map[string]llm.ToolAdapter
	sessions []string
}

func (s *stubSource) Tools(sessionID string) map[string]llm.ToolAdapter {
	s.sessions = append(s.sessions, sessionID)
	return s.table
}

// stubAdapter is a minimal ToolAdapter.
type stubAdapter struct{ name string }

func (a stubAdapter) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{Name: a.name}
}

func (a stubAdapter) Call(ctx context.Context, args any) (any, error) {
	return nil, nil
}

func TestStreamRejectsMissingSession(t *testing.T) {
	provider := &stubProvider{}
	client := NewClient(provider)
	sink := &recordSink{}

	for _, sessionID := range []string{"", "   "} {
		err := client.Stream(context.Background(), Request{SessionID: sessionID, Prompt: "hi"}, sink)
		if !errors.Is(err, ErrMissingSession) {
			t.Errorf("session %q: expected ErrMissingSession, got %v", sessionID, err)
		}
	}
	if len(sink.events) != 0 || sink.closed {
		t.Error("rejected request must leave the sink untouched")
	}
}

func TestStreamAppliesSamplingDefaults(t *testing.T) {
	provider := &stubProvider{}
	client := NewClient(provider)
	sink := &recordSink{}

	if err := client.Stream(context.Background(), Request{SessionID: "s1", Prompt: "hi"}, sink); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := provider.lastReq
	if req.Temperature != 0.7 {
		t.Errorf("expected default temperature 0.7, got %v", req.Temperature)
	}
	if req.TopP != 0.8 {
		t.Errorf("expected default top_p 0.8, got %v", req.TopP)
	}
	if req.TopK != 1 {
		t.Errorf("expected default top_k 1, got %v", req.TopK)
	}
	if req.MaxTokens != DefaultMaxTokens {
		t.Errorf("expected default max tokens %d, got %d", DefaultMaxTokens, req.MaxTokens)
	}
	if req.Model != "stub-default" {
		t.Errorf("expected provider default model, got %q", req.Model)
	}
}

func TestStreamHonorsExplicitSampling(t *testing.T) {
	provider := &stubProvider{}
	client := NewClient(provider).WithLimits(1024, 3)
	sink := &recordSink{}

	temp, topP, topK := 0.2, 0.95, 40
	err := client.Stream(context.Background(), Request{
		SessionID:   "s1",
		Prompt:      "hi",
		Model:       "custom-model",
		Temperature: &temp,
		TopP:        &topP,
		TopK:        &topK,
	}, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := provider.lastReq
	if req.Temperature != 0.2 || req.TopP != 0.95 || req.TopK != 40 {
		t.Errorf("expected explicit sampling passed through, got %v/%v/%v",
			req.Temperature, req.TopP, req.TopK)
	}
	if req.MaxTokens != 1024 || req.MaxToolSteps != 3 {
		t.Errorf("expected configured limits, got %d/%d", req.MaxTokens, req.MaxToolSteps)
	}
	if req.Model != "custom-model" {
		t.Errorf("expected model override, got %q", req.Model)
	}
}

func TestStreamToolsDisabledSendsEmptyTable(t *testing.T) {
	provider := &stubProvider{}
	source := &stubSource{table: map[string]llm.ToolAdapter{"echo": stubAdapter{name: "echo"}}}
	client := NewClient(provider).WithTools(source)
	sink := &recordSink{}

	err := client.Stream(context.Background(), Request{SessionID: "s1", Prompt: "hi"}, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(provider.lastReq.Tools) != 0 {
		t.Errorf("expected empty tool table, got %v", provider.lastReq.Tools)
	}
	if len(source.sessions) != 0 {
		t.Error("tool source must not be consulted when tools are disabled")
	}
}

func TestStreamToolsEnabledUsesSourceSnapshot(t *testing.T) {
	provider := &stubProvider{}
	source := &stubSource{table: map[string]llm.ToolAdapter{"echo": stubAdapter{name: "echo"}}}
	client := NewClient(provider).WithTools(source)
	sink := &recordSink{}

	err := client.Stream(context.Background(), Request{
		SessionID:    "s1",
		Prompt:       "hi",
		ToolsEnabled: true,
	}, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(provider.lastReq.Tools) != 1 {
		t.Errorf("expected source table forwarded, got %v", provider.lastReq.Tools)
	}
	if len(source.sessions) != 1 || source.sessions[0] != "s1" {
		t.Errorf("expected one lookup for session 's1', got %v", source.sessions)
	}
}

func TestStreamAppendsPromptAsFinalUserTurn(t *testing.T) {
	provider := &stubProvider{}
	client := NewClient(provider)
	sink := &recordSink{}

	history := []llm.Message{
		llm.UserMessage("earlier"),
		llm.AssistantMessage("reply"),
	}
	err := client.Stream(context.Background(), Request{
		SessionID: "s1",
		Prompt:    "now",
		History:   history,
	}, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := provider.lastReq.Messages
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	last := msgs[len(msgs)-1]
	if last.Role != llm.RoleUser || last.Content != "now" {
		t.Errorf("expected prompt as final user turn, got %+v", last)
	}
}

func TestStreamRunsToTerminal(t *testing.T) {
	provider := &stubProvider{chunks: []llm.Chunk{
		{Kind: llm.ChunkText, Text: "hello"},
	}}
	client := NewClient(provider)
	sink := &recordSink{}

	if err := client.Stream(context.Background(), Request{SessionID: "s1", Prompt: "hi"}, sink); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.events) != 1 || sink.events[0].Text != "hello" {
		t.Errorf("expected streamed content, got %v", sink.events)
	}
	if !sink.closed {
		t.Error("expected close terminal")
	}
}

func TestStreamCancelEndsAsNormalExhaustion(t *testing.T) {
	provider := &blockingProvider{started: make(chan struct{})}
	client := NewClient(provider)
	sink := &recordSink{}
	cancel := NewCancelSignal()

	done := make(chan error, 1)
	go func() {
		done <- client.Stream(context.Background(), Request{
			SessionID: "s1",
			Prompt:    "hi",
			Cancel:    cancel,
		}, sink)
	}()

	<-provider.started
	cancel.Cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancel did not unblock the stream")
	}

	if sink.errorCount() != 0 {
		t.Errorf("cancellation must not synthesize an error event, got %v", sink.events)
	}
	if !sink.closed {
		t.Error("expected close terminal after cancellation")
	}
}

// blockingProvider returns a stream that only ends when its context is
// aborted.
type blockingProvider struct {
	started chan struct{}
}

func (p *blockingProvider) Name() string                       { return "blocking" }
func (p *blockingProvider) ResolveModel(modelID string) string { return modelID }

func (p *blockingProvider) Stream(ctx context.Context, req llm.Request) llm.ChunkStream {
	close(p.started)
	return &blockingStream{ctx: ctx}
}

// blockingStream blocks in Next until its context is done.
type blockingStream struct {
	ctx context.Context
}

func (s *blockingStream) Next() bool {
	<-s.ctx.Done()
	return false
}

func (s *blockingStream) Current() llm.Chunk { return llm.Chunk{} }
func (s *blockingStream) Err() error         { return nil }
func (s *blockingStream) Close() error       { return nil }
