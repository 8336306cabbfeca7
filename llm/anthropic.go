// Anthropic Provider implementation using official anthropic-sdk-go.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for Anthropic Messages API
// - Streaming event dispatch and tool-use accumulation
// - The model->tool->model step loop

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements the Provider interface for Anthropic Claude.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &AnthropicProvider{
		client: client,
		model:  model,
	}
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// ResolveModel returns the model for the given identifier.
func (p *AnthropicProvider) ResolveModel(modelID string) string {
	if modelID != "" {
		return modelID
	}
	return p.model
}

// Stream opens a streaming chat completion.
func (p *AnthropicProvider) Stream(ctx context.Context, req Request) ChunkStream {
	model := p.ResolveModel(req.Model)
	return newChunkPipe(ctx, func(ctx context.Context, emit emitFunc) error {
		return p.runStream(ctx, model, req, emit)
	})
}

// toolBlock tracks one in-flight tool_use content block.
type toolBlock struct {
	id   string
	name string
	args strings.Builder
}

func (p *AnthropicProvider) runStream(ctx context.Context, model string, req Request, emit emitFunc) error {
	messages, systemPrompt := convertToAnthropicMessages(req.Messages)
	tools := convertToAnthropicTools(req)

	for step := 0; step < toolSteps(req); step++ {
		params := anthropic.MessageNewParams{
			Model:       anthropic.Model(model),
			MaxTokens:   int64(req.MaxTokens),
			Messages:    messages,
			Temperature: anthropic.Float(req.Temperature),
			TopP:        anthropic.Float(req.TopP),
			TopK:        anthropic.Int(int64(req.TopK)),
			Tools:       tools,
		}
		if systemPrompt != "" {
			params.System = []anthropic.TextBlockParam{
				{Text: systemPrompt},
			}
		}

		stream := p.client.Messages.NewStreaming(ctx, params)

		var accumulated anthropic.Message
		blocks := make(map[int64]*toolBlock)

		for stream.Next() {
			event := stream.Current()
			if err := accumulated.Accumulate(event); err != nil {
				stream.Close()
				return fmt.Errorf("stream accumulation failed: %w", err)
			}

			switch eventVariant := event.AsAny().(type) {
			case anthropic.ContentBlockStartEvent:
				if block, ok := eventVariant.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
					tb := &toolBlock{id: block.ID, name: block.Name}
					blocks[eventVariant.Index] = tb
					if !emit(Chunk{Kind: ChunkToolCallStart, CallID: tb.id, ToolName: tb.name}) {
						stream.Close()
						return ctx.Err()
					}
				}

			case anthropic.ContentBlockDeltaEvent:
				switch deltaVariant := eventVariant.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					if deltaVariant.Text != "" {
						if !emit(Chunk{Kind: ChunkText, Text: deltaVariant.Text}) {
							stream.Close()
							return ctx.Err()
						}
					}
				case anthropic.InputJSONDelta:
					tb := blocks[eventVariant.Index]
					if tb != nil && deltaVariant.PartialJSON != "" {
						tb.args.WriteString(deltaVariant.PartialJSON)
						if !emit(Chunk{
							Kind:     ChunkToolCallDelta,
							CallID:   tb.id,
							ToolName: tb.name,
							Args:     deltaVariant.PartialJSON,
						}) {
							stream.Close()
							return ctx.Err()
						}
					}
				}

			case anthropic.ContentBlockStopEvent:
				tb := blocks[eventVariant.Index]
				if tb != nil {
					args := tb.args.String()
					if args == "" {
						args = "{}"
					}
					if !emit(Chunk{Kind: ChunkToolCallComplete, CallID: tb.id, ToolName: tb.name, Args: args}) {
						stream.Close()
						return ctx.Err()
					}
				}
			}
		}
		stream.Close()

		if err := stream.Err(); err != nil {
			return fmt.Errorf("stream error: %w", err)
		}

		if accumulated.StopReason != anthropic.StopReasonToolUse {
			return nil
		}

		// Execute the requested tools and feed results back for the
		// next step.
		var resultBlocks []anthropic.ContentBlockParamUnion
		for _, block := range accumulated.Content {
			toolUse, ok := block.AsAny().(anthropic.ToolUseBlock)
			if !ok {
				continue
			}

			argsJSON, err := json.Marshal(toolUse.Input)
			if err != nil {
				emit(Chunk{Kind: ChunkError, Message: fmt.Sprintf("tool %q arguments unreadable: %v", toolUse.Name, err)})
				return nil
			}

			adapter, ok := req.Tools[toolUse.Name]
			if !ok {
				emit(Chunk{Kind: ChunkError, Message: fmt.Sprintf("model requested unknown tool %q", toolUse.Name)})
				return nil
			}

			result, err := adapter.Call(ctx, string(argsJSON))
			if err != nil {
				emit(Chunk{Kind: ChunkError, Message: fmt.Sprintf("tool %q failed: %v", toolUse.Name, err)})
				return nil
			}

			if !emit(Chunk{
				Kind:     ChunkToolResult,
				CallID:   toolUse.ID,
				ToolName: toolUse.Name,
				Args:     string(argsJSON),
				Result:   result,
			}) {
				return ctx.Err()
			}

			resultBlocks = append(resultBlocks, anthropic.NewToolResultBlock(toolUse.ID, stringifyResult(result), false))
		}

		if len(resultBlocks) == 0 {
			return nil
		}

		messages = append(messages, accumulated.ToParam())
		messages = append(messages, anthropic.MessageParam{
			Role:    anthropic.MessageParamRoleUser,
			Content: resultBlocks,
		})
	}

	return nil
}

// convertToAnthropicMessages converts our Message sequence to Anthropic
// format. The system prompt is extracted and returned separately.
func convertToAnthropicMessages(messages []Message) ([]anthropic.MessageParam, string) {
	var anthropicMessages []anthropic.MessageParam
	var systemPrompt string

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			systemPrompt = msg.Content
		case RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				content := &anthropic.MessageParam{
					Role: anthropic.MessageParamRoleAssistant,
				}
				if msg.Content != "" {
					content.Content = append(content.Content, anthropic.NewTextBlock(msg.Content))
				}
				for _, tc := range msg.ToolCalls {
					var input map[string]interface{}
					_ = json.Unmarshal(tc.Arguments, &input)
					content.Content = append(content.Content, anthropic.ContentBlockParamUnion{
						OfToolUse: &anthropic.ToolUseBlockParam{
							ID:    tc.ID,
							Name:  tc.Name,
							Input: input,
						},
					})
				}
				anthropicMessages = append(anthropicMessages, *content)
			} else {
				anthropicMessages = append(anthropicMessages, anthropic.NewAssistantMessage(
					anthropic.NewTextBlock(msg.Content),
				))
			}
		case RoleTool:
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false),
			))
		default:
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}

	return anthropicMessages, systemPrompt
}

// convertToAnthropicTools converts the request's tool table to Anthropic format.
func convertToAnthropicTools(req Request) []anthropic.ToolUnionParam {
	adapters := sortedTools(req)
	if len(adapters) == 0 {
		return nil
	}

	result := make([]anthropic.ToolUnionParam, len(adapters))
	for i, adapter := range adapters {
		def := adapter.Definition()
		properties, _ := def.Parameters["properties"].(map[string]interface{})

		toolParam := anthropic.ToolParam{
			Name:        def.Name,
			Description: anthropic.String(def.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: properties,
				Required:   requiredFields(def.Parameters),
			},
		}
		result[i] = anthropic.ToolUnionParam{OfTool: &toolParam}
	}
	return result
}

// requiredFields extracts the required-field list from a JSON schema map,
// accepting both []string and decoded []any forms.
func requiredFields(params map[string]any) []string {
	if req, ok := params["required"].([]string); ok {
		return req
	}
	if req, ok := params["required"].([]interface{}); ok {
		var fields []string
		for _, r := range req {
			if s, ok := r.(string); ok {
				fields = append(fields, s)
			}
		}
		return fields
	}
	return nil
}

// Verify AnthropicProvider implements Provider
var _ Provider = (*AnthropicProvider)(nil)
