// Provider interface - the abstract boundary for streaming LLM providers.
// Each implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - The model->tool->model step loop and its chunk surfacing
// - Provider-specific error handling

package llm

import (
	"context"
	"sort"
)

// Provider is the capability set this module requires of an upstream
// model API: open a streaming chat completion and resolve a model id.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// ResolveModel returns the model to use for the given identifier.
	// An empty identifier resolves to the provider's configured default.
	ResolveModel(modelID string) string

	// Stream opens a streaming chat completion and returns its chunk
	// sequence. Request construction failures surface through the
	// stream's Err, never as a second return value: the caller always
	// gets a sequence it can drain to a terminal state.
	//
	// Tool execution happens inside the provider's step loop; the
	// caller only observes the resulting chunks. Aborting ctx aborts
	// the in-flight upstream request.
	Stream(ctx context.Context, req Request) ChunkStream
}

// Request carries everything a provider needs for one streaming call.
type Request struct {
	Model    string
	Messages []Message

	// Tools is the name-keyed table of invocable adapters for this
	// request. Empty or nil means tool use is disabled. The table is a
	// snapshot: it does not change for the lifetime of the request.
	Tools map[string]ToolAdapter

	MaxTokens   int
	Temperature float64
	TopP        float64
	TopK        int

	// MaxToolSteps bounds the number of sequential model->tool->model
	// rounds within this request.
	MaxToolSteps int

	// Options carries provider-specific pass-through settings.
	Options map[string]any
}

// ToolDefinition is the wire-neutral description of a callable tool.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema
}

// ToolAdapter is an invocable tool as seen by a provider. Call accepts
// the structured arguments in whatever shape the provider produced
// (JSON text or a decoded map) and returns the handler's result
// unmodified.
type ToolAdapter interface {
	Definition() ToolDefinition
	Call(ctx context.Context, args any) (any, error)
}

// toolSteps returns the effective step bound for a request.
func toolSteps(req Request) int {
	if req.MaxToolSteps > 0 {
		return req.MaxToolSteps
	}
	return 1
}

// sortedTools returns the request's adapters in deterministic name
// order, for building provider tool tables.
func sortedTools(req Request) []ToolAdapter {
	names := make([]string, 0, len(req.Tools))
	for name := range req.Tools {
		names = append(names, name)
	}
	sort.Strings(names)

	adapters := make([]ToolAdapter, 0, len(names))
	for _, name := range names {
		adapters = append(adapters, req.Tools[name])
	}
	return adapters
}
