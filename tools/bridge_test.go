package tools

import (
	"context"
	"encoding/json"
	"testing"
)

func TestMarshalArgs(t *testing.T) {
	tests := []struct {
		name string
		args any
		want string
	}{
		{"nil", nil, "{}"},
		{"string passthrough", `{"a":1}`, `{"a":1}`},
		{"raw message", json.RawMessage(`{"b":2}`), `{"b":2}`},
		{"bytes", []byte(`{"c":3}`), `{"c":3}`},
		{"map", map[string]any{"d": "x"}, `{"d":"x"}`},
	}
	for _, tt := range tests {
		got, err := marshalArgs(tt.args)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.want, got)
		}
	}
}

func TestMarshalArgsUnserializable(t *testing.T) {
	if _, err := marshalArgs(make(chan int)); err == nil {
		t.Error("expected error for unserializable arguments")
	}
}

func TestAdapterCallStringifiesArgs(t *testing.T) {
	var seen string
	desc := Descriptor{
		Name: "echo",
		Handler: func(ctx context.Context, argsJSON string, inv *Invocation) (any, error) {
			seen = argsJSON
			return "done", nil
		},
	}

	adapter := NewAdapter(desc, &Invocation{SessionID: "s1"})
	result, err := adapter.Call(context.Background(), map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != `{"k":"v"}` {
		t.Errorf("expected stringified args, got %q", seen)
	}
	if result != "done" {
		t.Errorf("expected handler result forwarded, got %v", result)
	}
}

func TestAdapterCarriesInvocation(t *testing.T) {
	desc := Descriptor{
		Name: "whoami",
		Handler: func(ctx context.Context, argsJSON string, inv *Invocation) (any, error) {
			return inv.SessionID, nil
		},
	}

	adapter := NewAdapter(desc, &Invocation{SessionID: "session-42"})
	result, err := adapter.Call(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "session-42" {
		t.Errorf("expected session id from invocation, got %v", result)
	}
}

func TestBuildTableLastWriteWins(t *testing.T) {
	mk := func(reply string) Descriptor {
		return Descriptor{
			Name: "dup",
			Handler: func(ctx context.Context, argsJSON string, inv *Invocation) (any, error) {
				return reply, nil
			},
		}
	}

	table := BuildTable([]Descriptor{mk("first"), mk("second")}, &Invocation{})
	if len(table) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(table))
	}
	result, err := table["dup"].Call(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "second" {
		t.Errorf("expected the later descriptor to win, got %v", result)
	}
}

func TestDecodeArgsEmptyString(t *testing.T) {
	var out struct {
		X int `json:"x"`
	}
	if err := DecodeArgs("", &out); err != nil {
		t.Errorf("expected empty args decoded as empty object, got %v", err)
	}
}

func TestDecodeArgsInvalid(t *testing.T) {
	var out map[string]any
	if err := DecodeArgs("{not json", &out); err == nil {
		t.Error("expected error for malformed arguments")
	}
}
