// Google Gemini Provider implementation using official google.golang.org/genai SDK.
//
// Information Hiding:
// - API authentication and client creation
// - Request/response format for Gemini API
// - System instruction handling via config
// - Streaming via official SDK iterator
//
// Gemini reports function calls whole, without call ids; the chunk
// consumer is responsible for synthesizing ids where it needs them.

package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface for Google Gemini.
type GeminiProvider struct {
	client  *genai.Client
	model   string
	initErr error // Stores client initialization error for deferred reporting
}

// NewGeminiProvider creates a new Gemini provider.
// If client initialization fails, the error is stored and surfaced on first use.
func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return &GeminiProvider{
			model:   model,
			initErr: fmt.Errorf("failed to initialize Gemini client: %w", err),
		}
	}

	return &GeminiProvider{
		client: client,
		model:  model,
	}
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// ResolveModel returns the model for the given identifier.
func (p *GeminiProvider) ResolveModel(modelID string) string {
	if modelID != "" {
		return modelID
	}
	return p.model
}

// Stream opens a streaming chat completion.
func (p *GeminiProvider) Stream(ctx context.Context, req Request) ChunkStream {
	model := p.ResolveModel(req.Model)
	return newChunkPipe(ctx, func(ctx context.Context, emit emitFunc) error {
		return p.runStream(ctx, model, req, emit)
	})
}

func (p *GeminiProvider) runStream(ctx context.Context, model string, req Request, emit emitFunc) error {
	if p.initErr != nil {
		return p.initErr
	}
	if p.client == nil {
		return fmt.Errorf("gemini client not initialized")
	}

	contents, systemInstruction := convertToGeminiMessages(req.Messages)

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		TopP:            genai.Ptr(float32(req.TopP)),
		TopK:            genai.Ptr(float32(req.TopK)),
		MaxOutputTokens: int32(req.MaxTokens),
		Tools:           convertToGeminiTools(req),
	}
	if systemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}

	for step := 0; step < toolSteps(req); step++ {
		var calls []*genai.FunctionCall
		var modelParts []*genai.Part

		for response, err := range p.client.Models.GenerateContentStream(ctx, model, contents, config) {
			if err != nil {
				return fmt.Errorf("stream error: %w", err)
			}
			if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
				continue
			}

			for _, part := range response.Candidates[0].Content.Parts {
				if part.Text != "" {
					modelParts = append(modelParts, &genai.Part{Text: part.Text})
					if !emit(Chunk{Kind: ChunkText, Text: part.Text}) {
						return ctx.Err()
					}
				}
				if part.FunctionCall != nil {
					calls = append(calls, part.FunctionCall)
					modelParts = append(modelParts, &genai.Part{FunctionCall: part.FunctionCall})

					argsJSON, err := json.Marshal(part.FunctionCall.Args)
					if err != nil {
						return fmt.Errorf("function call arguments unreadable: %w", err)
					}
					if !emit(Chunk{
						Kind:     ChunkToolCallComplete,
						ToolName: part.FunctionCall.Name,
						Args:     string(argsJSON),
					}) {
						return ctx.Err()
					}
				}
			}
		}

		if len(calls) == 0 {
			return nil
		}

		// Execute the requested functions and feed responses back.
		var responseParts []*genai.Part
		for _, fc := range calls {
			argsJSON, _ := json.Marshal(fc.Args)

			adapter, ok := req.Tools[fc.Name]
			if !ok {
				emit(Chunk{Kind: ChunkError, Message: fmt.Sprintf("model requested unknown tool %q", fc.Name)})
				return nil
			}

			result, err := adapter.Call(ctx, string(argsJSON))
			if err != nil {
				emit(Chunk{Kind: ChunkError, Message: fmt.Sprintf("tool %q failed: %v", fc.Name, err)})
				return nil
			}

			if !emit(Chunk{
				Kind:     ChunkToolResult,
				ToolName: fc.Name,
				Args:     string(argsJSON),
				Result:   result,
			}) {
				return ctx.Err()
			}

			responseParts = append(responseParts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     fc.Name,
					Response: toGeminiResponse(result),
				},
			})
		}

		contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: modelParts})
		contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: responseParts})
	}

	return nil
}

// toGeminiResponse shapes a tool result for genai.FunctionResponse,
// which requires a map payload.
func toGeminiResponse(result any) map[string]any {
	if m, ok := result.(map[string]any); ok {
		return m
	}
	return map[string]any{"result": stringifyResult(result)}
}

// convertToGeminiMessages converts our Message sequence to Gemini format.
// The system prompt is extracted and returned separately.
func convertToGeminiMessages(messages []Message) ([]*genai.Content, string) {
	var contents []*genai.Content
	var systemInstruction string

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			systemInstruction = msg.Content
		case RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				content := &genai.Content{Role: genai.RoleModel}
				if msg.Content != "" {
					content.Parts = append(content.Parts, &genai.Part{Text: msg.Content})
				}
				for _, tc := range msg.ToolCalls {
					var args map[string]any
					_ = json.Unmarshal(tc.Arguments, &args)
					content.Parts = append(content.Parts, &genai.Part{
						FunctionCall: &genai.FunctionCall{
							Name: tc.Name,
							Args: args,
						},
					})
				}
				contents = append(contents, content)
			} else {
				contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
			}
		case RoleTool:
			var result map[string]any
			_ = json.Unmarshal([]byte(msg.Content), &result)
			if result == nil {
				result = map[string]any{"result": msg.Content}
			}
			contents = append(contents, &genai.Content{
				Role: genai.RoleUser, // Gemini expects tool results as user
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						Name:     msg.ToolCallID,
						Response: result,
					},
				}},
			})
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	return contents, systemInstruction
}

// convertToGeminiTools converts the request's tool table to Gemini format.
func convertToGeminiTools(req Request) []*genai.Tool {
	adapters := sortedTools(req)
	if len(adapters) == 0 {
		return nil
	}

	var declarations []*genai.FunctionDeclaration
	for _, adapter := range adapters {
		def := adapter.Definition()
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  convertToGeminiSchema(def.Parameters),
		})
	}

	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// convertToGeminiSchema recursively converts a parameter schema to Gemini format.
// Handles arrays by adding required 'items' field.
func convertToGeminiSchema(params map[string]interface{}) *genai.Schema {
	schema := &genai.Schema{
		Type: genai.TypeObject,
	}

	if t, ok := params["type"].(string); ok {
		schema.Type = mapToGeminiType(t)
	}

	if req, ok := params["required"].([]interface{}); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	if req, ok := params["required"].([]string); ok {
		schema.Required = req
	}

	if props, ok := params["properties"].(map[string]interface{}); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for name, prop := range props {
			propMap, ok := prop.(map[string]interface{})
			if !ok {
				continue
			}
			schema.Properties[name] = convertPropertyToGeminiSchema(propMap)
		}
	}

	return schema
}

// convertPropertyToGeminiSchema converts a single property to Gemini schema.
func convertPropertyToGeminiSchema(prop map[string]interface{}) *genai.Schema {
	schema := &genai.Schema{}

	if t, ok := prop["type"].(string); ok {
		schema.Type = mapToGeminiType(t)
	}

	if d, ok := prop["description"].(string); ok {
		schema.Description = d
	}

	// Gemini requires 'items' for arrays
	if schema.Type == genai.TypeArray {
		if items, ok := prop["items"].(map[string]interface{}); ok {
			schema.Items = convertPropertyToGeminiSchema(items)
		} else {
			schema.Items = &genai.Schema{Type: genai.TypeString}
		}
	}

	if schema.Type == genai.TypeObject {
		if props, ok := prop["properties"].(map[string]interface{}); ok {
			schema.Properties = make(map[string]*genai.Schema)
			for name, p := range props {
				if pMap, ok := p.(map[string]interface{}); ok {
					schema.Properties[name] = convertPropertyToGeminiSchema(pMap)
				}
			}
		}
	}

	return schema
}

// mapToGeminiType maps JSON schema type to Gemini type.
func mapToGeminiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "integer", "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// Verify GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)
