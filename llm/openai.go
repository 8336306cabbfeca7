// OpenAI Provider implementation using go-openai library.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for OpenAI Chat Completions API
// - Tool-call delta accumulation across stream chunks
// - The model->tool->model step loop

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// ResolveModel returns the model for the given identifier.
func (p *OpenAIProvider) ResolveModel(modelID string) string {
	if modelID != "" {
		return modelID
	}
	return p.model
}

// Stream opens a streaming chat completion.
func (p *OpenAIProvider) Stream(ctx context.Context, req Request) ChunkStream {
	model := p.ResolveModel(req.Model)
	return newChunkPipe(ctx, func(ctx context.Context, emit emitFunc) error {
		return runOpenAIStream(ctx, p.client, model, req, emit)
	})
}

// pendingToolCall accumulates one tool invocation's streamed fragments.
type pendingToolCall struct {
	id   string
	name string
	args strings.Builder
}

// runOpenAIStream drives the step loop against an OpenAI-compatible
// chat completions API. Shared with the DeepSeek provider.
func runOpenAIStream(ctx context.Context, client *openai.Client, model string, req Request, emit emitFunc) error {
	messages := convertToOpenAIMessages(req.Messages)
	tools := convertToOpenAITools(req)

	for step := 0; step < toolSteps(req); step++ {
		oaiReq := openai.ChatCompletionRequest{
			Model:       model,
			Messages:    messages,
			MaxTokens:   req.MaxTokens,
			Temperature: float32(req.Temperature),
			TopP:        float32(req.TopP),
			Tools:       tools,
			Stream:      true,
		}
		if user, ok := req.Options["user"].(string); ok {
			oaiReq.User = user
		}

		stream, err := client.CreateChatCompletionStream(ctx, oaiReq)
		if err != nil {
			return fmt.Errorf("stream creation failed: %w", err)
		}

		var content strings.Builder
		var order []int
		byIndex := make(map[int]*pendingToolCall)
		finish := openai.FinishReasonNull

		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				stream.Close()
				return fmt.Errorf("stream recv failed: %w", err)
			}
			if len(response.Choices) == 0 {
				continue
			}

			choice := response.Choices[0]
			if choice.FinishReason != "" {
				finish = choice.FinishReason
			}

			if choice.Delta.Content != "" {
				content.WriteString(choice.Delta.Content)
				if !emit(Chunk{Kind: ChunkText, Text: choice.Delta.Content}) {
					stream.Close()
					return ctx.Err()
				}
			}

			for _, tc := range choice.Delta.ToolCalls {
				index := 0
				if tc.Index != nil {
					index = *tc.Index
				}

				call := byIndex[index]
				if call == nil {
					call = &pendingToolCall{id: tc.ID, name: tc.Function.Name}
					byIndex[index] = call
					order = append(order, index)
					if !emit(Chunk{Kind: ChunkToolCallStart, CallID: call.id, ToolName: call.name}) {
						stream.Close()
						return ctx.Err()
					}
				}
				if call.id == "" {
					call.id = tc.ID
				}
				if call.name == "" {
					call.name = tc.Function.Name
				}

				if tc.Function.Arguments != "" {
					call.args.WriteString(tc.Function.Arguments)
					if !emit(Chunk{
						Kind:     ChunkToolCallDelta,
						CallID:   call.id,
						ToolName: call.name,
						Args:     tc.Function.Arguments,
					}) {
						stream.Close()
						return ctx.Err()
					}
				}
			}
		}
		stream.Close()

		if finish != openai.FinishReasonToolCalls || len(order) == 0 {
			return nil
		}

		// The model stopped to call tools: complete each call, execute
		// it, and feed the results back for the next step.
		assistant := openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: content.String(),
		}
		var toolMessages []openai.ChatCompletionMessage

		for _, index := range order {
			call := byIndex[index]
			args := call.args.String()

			if !emit(Chunk{Kind: ChunkToolCallComplete, CallID: call.id, ToolName: call.name, Args: args}) {
				return ctx.Err()
			}

			adapter, ok := req.Tools[call.name]
			if !ok {
				emit(Chunk{Kind: ChunkError, Message: fmt.Sprintf("model requested unknown tool %q", call.name)})
				return nil
			}

			result, err := adapter.Call(ctx, args)
			if err != nil {
				emit(Chunk{Kind: ChunkError, Message: fmt.Sprintf("tool %q failed: %v", call.name, err)})
				return nil
			}

			if !emit(Chunk{Kind: ChunkToolResult, CallID: call.id, ToolName: call.name, Args: args, Result: result}) {
				return ctx.Err()
			}

			assistant.ToolCalls = append(assistant.ToolCalls, openai.ToolCall{
				ID:   call.id,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      call.name,
					Arguments: args,
				},
			})
			toolMessages = append(toolMessages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    stringifyResult(result),
				ToolCallID: call.id,
			})
		}

		messages = append(messages, assistant)
		messages = append(messages, toolMessages...)
	}

	return nil
}

// stringifyResult renders a tool result for the follow-up tool message.
func stringifyResult(result any) string {
	switch v := result.(type) {
	case string:
		return v
	case json.RawMessage:
		return string(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

// convertToOpenAIMessages converts our Message to openai.ChatCompletionMessage.
func convertToOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		oaiMsg := openai.ChatCompletionMessage{
			Role:    msg.Role.Wire(),
			Content: msg.Content,
		}

		for _, tc := range msg.ToolCalls {
			oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}

		if msg.ToolCallID != "" {
			oaiMsg.ToolCallID = msg.ToolCallID
		}

		result[i] = oaiMsg
	}
	return result
}

// convertToOpenAITools converts the request's tool table to OpenAI format.
func convertToOpenAITools(req Request) []openai.Tool {
	adapters := sortedTools(req)
	if len(adapters) == 0 {
		return nil
	}

	result := make([]openai.Tool, len(adapters))
	for i, adapter := range adapters {
		def := adapter.Definition()
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		}
	}
	return result
}

// Verify OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)
