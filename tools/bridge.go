// Tool bridge - adapts descriptors into the invocable shape the llm
// package expects, marshalling call arguments to the stringified form
// handlers consume.

package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/richinex/styx/llm"
)

// Adapter wraps one Descriptor as an llm.ToolAdapter for one request.
type Adapter struct {
	desc Descriptor
	inv  *Invocation
}

// NewAdapter binds a descriptor to an invocation context.
func NewAdapter(desc Descriptor, inv *Invocation) Adapter {
	return Adapter{desc: desc, inv: inv}
}

// Definition implements llm.ToolAdapter.
func (a Adapter) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        a.desc.Name,
		Description: a.desc.Description,
		Parameters:  a.desc.Parameters,
	}
}

// Call implements llm.ToolAdapter: the structured arguments are
// serialized to the string form the handler expects, and the handler's
// result is returned unmodified.
func (a Adapter) Call(ctx context.Context, args any) (any, error) {
	argsJSON, err := marshalArgs(args)
	if err != nil {
		return nil, fmt.Errorf("tool %q: %w", a.desc.Name, err)
	}
	return a.desc.Handler(ctx, argsJSON, a.inv)
}

// marshalArgs renders call arguments as JSON text. Providers hand us
// either already-serialized JSON or a decoded value.
func marshalArgs(args any) (string, error) {
	switch v := args.(type) {
	case nil:
		return "{}", nil
	case string:
		return v, nil
	case json.RawMessage:
		return string(v), nil
	case []byte:
		return string(v), nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("cannot serialize arguments: %w", err)
		}
		return string(encoded), nil
	}
}

// BuildTable produces the name-keyed adapter table for one request.
// Name collisions are not validated: the later descriptor in slice
// order silently overwrites the earlier one. Keeping names unique is
// the registrar's responsibility.
func BuildTable(descs []Descriptor, inv *Invocation) map[string]llm.ToolAdapter {
	table := make(map[string]llm.ToolAdapter, len(descs))
	for _, desc := range descs {
		table[desc.Name] = NewAdapter(desc, inv)
	}
	return table
}
