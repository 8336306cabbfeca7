// Package tools provides registry-neutral tool descriptors and the
// bridge that adapts them into the invocation shape providers expect.
//
// Information Hiding:
// - Handler execution details hidden behind the descriptor
// - Argument wire format (stringified JSON) hidden in the adapter
// - Registry storage and snapshot mechanics hidden from consumers
package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Handler is a tool's asynchronous entry point. Arguments arrive as the
// stringified JSON the model produced; the returned value is forwarded
// to the stream consumer unmodified. Cancellation flows through ctx.
type Handler func(ctx context.Context, argsJSON string, inv *Invocation) (any, error)

// Descriptor describes one callable tool. Owned by the registry; the
// bridge only borrows it for the lifetime of one request and never
// mutates it.
type Descriptor struct {
	// Name must be unique within a client scope. Uniqueness is the
	// registrar's responsibility, not validated here.
	Name        string
	Description string

	// Parameters is a JSON-Schema map describing the arguments.
	Parameters map[string]any

	Handler Handler
}

// Invocation is the per-request context handed to handlers, used for
// session attribution and progress signaling.
type Invocation struct {
	// SessionID identifies the requesting session.
	SessionID string

	// Report, when non-nil, lets a long-running handler publish
	// progress lines.
	Report func(message string)
}

// Progress publishes a progress message if a reporter is attached.
func (inv *Invocation) Progress(message string) {
	if inv != nil && inv.Report != nil {
		inv.Report(message)
	}
}

// ObjectSchema builds a JSON-Schema object with the given properties
// and required field names.
func ObjectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// StringProperty builds a string-typed schema property.
func StringProperty(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

// DecodeArgs unmarshals a handler's stringified arguments into out.
func DecodeArgs(argsJSON string, out any) error {
	if argsJSON == "" {
		argsJSON = "{}"
	}
	if err := json.Unmarshal([]byte(argsJSON), out); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}
