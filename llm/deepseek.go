// DeepSeek Provider implementation using go-openai library.
//
// Information Hiding:
// - Uses OpenAI-compatible API with different base URL
// - Supports deepseek-chat and deepseek-reasoner models
// - Shares the OpenAI step loop

package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

const deepseekBaseURL = "https://api.deepseek.com/v1"

// DeepSeekProvider implements the Provider interface for DeepSeek.
//
// Reasoner models prefix their responses with a chain-of-thought block;
// callers that want it removed configure the bridge's trim filter.
type DeepSeekProvider struct {
	client *openai.Client
	model  string
}

// NewDeepSeekProvider creates a new DeepSeek provider.
func NewDeepSeekProvider(apiKey, model string) *DeepSeekProvider {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = deepseekBaseURL

	return &DeepSeekProvider{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Name returns the provider name.
func (p *DeepSeekProvider) Name() string {
	return "deepseek"
}

// ResolveModel returns the model for the given identifier.
func (p *DeepSeekProvider) ResolveModel(modelID string) string {
	if modelID != "" {
		return modelID
	}
	return p.model
}

// Stream opens a streaming chat completion.
func (p *DeepSeekProvider) Stream(ctx context.Context, req Request) ChunkStream {
	model := p.ResolveModel(req.Model)
	return newChunkPipe(ctx, func(ctx context.Context, emit emitFunc) error {
		return runOpenAIStream(ctx, p.client, model, req, emit)
	})
}

// Verify DeepSeekProvider implements Provider
var _ Provider = (*DeepSeekProvider)(nil)
