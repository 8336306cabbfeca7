// Client - the request orchestration entry point.
//
// A client binds one provider and an optional tool source. Each Stream
// call validates the request, assembles the message sequence and the
// per-request tool snapshot, wires cancellation to the provider's abort
// mechanism, and runs the dispatcher to a terminal state.

package bridge

import (
	"context"
	"errors"
	"strings"

	"github.com/richinex/styx/llm"
)

// ErrMissingSession is returned when a request arrives without a
// session identifier. This is a configuration error: it fails before
// any provider call and before any sink activity.
var ErrMissingSession = errors.New("session id is required")

// Default request limits, overridable via WithLimits.
const (
	DefaultMaxTokens    = 4096
	DefaultMaxToolSteps = 8
)

// Sampling defaults applied when the request leaves them unset.
const (
	defaultTemperature = 0.7
	defaultTopP        = 0.8
	defaultTopK        = 1
)

// ToolSource supplies the per-request tool table. Implementations must
// return a snapshot: the returned table is used unmodified for the
// lifetime of the request even if the backing registry changes.
type ToolSource interface {
	Tools(sessionID string) map[string]llm.ToolAdapter
}

// TrimConfig is the optional prefix/suffix pair stripped from the
// response text. Zero value disables trimming.
type TrimConfig struct {
	Prefix string
	Suffix string
}

// Request is one inbound streaming chat request.
type Request struct {
	// SessionID identifies the client session. Required.
	SessionID string

	// Prompt is the new user turn, always appended last.
	Prompt string

	// History is the prior conversation, oldest first.
	History []llm.Message

	// Model optionally overrides the provider's default model.
	Model string

	// Sampling parameters. Nil means the default (0.7 / 0.8 / 1).
	Temperature *float64
	TopP        *float64
	TopK        *int

	// Options is an opaque provider pass-through map.
	Options map[string]any

	// Trim optionally strips a fixed banner/marker from the text path.
	Trim *TrimConfig

	// ToolsEnabled exposes the client's tool source to the model. When
	// false the provider receives an empty tool table regardless of
	// what the source holds.
	ToolsEnabled bool

	// Cancel optionally aborts the in-flight upstream request. After
	// the stream reaches a terminal state, firing it is a no-op.
	Cancel *CancelSignal
}

// Client streams chat requests from one provider to sinks.
type Client struct {
	provider     llm.Provider
	tools        ToolSource
	maxTokens    int
	maxToolSteps int
}

// NewClient creates a client for the given provider with default limits.
func NewClient(provider llm.Provider) *Client {
	return &Client{
		provider:     provider,
		maxTokens:    DefaultMaxTokens,
		maxToolSteps: DefaultMaxToolSteps,
	}
}

// WithTools sets the tool source consulted when a request enables tools.
func (c *Client) WithTools(source ToolSource) *Client {
	c.tools = source
	return c
}

// WithLimits overrides the output-token budget and the tool-step bound.
func (c *Client) WithLimits(maxTokens, maxToolSteps int) *Client {
	if maxTokens > 0 {
		c.maxTokens = maxTokens
	}
	if maxToolSteps > 0 {
		c.maxToolSteps = maxToolSteps
	}
	return c
}

// Provider returns the underlying provider.
func (c *Client) Provider() llm.Provider {
	return c.provider
}

// Stream runs one request to a terminal state on the sink. A non-nil
// return means the request was rejected before streaming began and the
// sink saw no activity; once streaming starts, all faults surface as a
// terminal EventError on the sink and Stream returns nil.
func (c *Client) Stream(ctx context.Context, req Request, sink Sink) error {
	if strings.TrimSpace(req.SessionID) == "" {
		return ErrMissingSession
	}

	if req.Cancel != nil {
		var abort context.CancelFunc
		ctx, abort = context.WithCancel(ctx)
		defer abort()
		req.Cancel.OnCancel(abort)
	}

	table := map[string]llm.ToolAdapter{}
	if req.ToolsEnabled && c.tools != nil {
		table = c.tools.Tools(req.SessionID)
	}

	llmReq := llm.Request{
		Model:        c.provider.ResolveModel(req.Model),
		Messages:     llm.BuildMessages(req.History, req.Prompt),
		Tools:        table,
		MaxTokens:    c.maxTokens,
		Temperature:  floatOr(req.Temperature, defaultTemperature),
		TopP:         floatOr(req.TopP, defaultTopP),
		TopK:         intOr(req.TopK, defaultTopK),
		MaxToolSteps: c.maxToolSteps,
		Options:      req.Options,
	}

	var trim *TrimFilter
	if req.Trim != nil && (req.Trim.Prefix != "" || req.Trim.Suffix != "") {
		trim = NewTrimFilter(req.Trim.Prefix, req.Trim.Suffix)
	}

	NewDispatcher(sink, trim).Run(c.provider.Stream(ctx, llmReq))
	return nil
}

func floatOr(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

func intOr(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}
