package tools

import (
	"context"
	"testing"
)

func noopHandler(ctx context.Context, argsJSON string, inv *Invocation) (any, error) {
	return nil, nil
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Descriptor{Name: "a", Handler: noopHandler}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := registry.Register(Descriptor{Name: "a", Handler: noopHandler}); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := registry.Register(Descriptor{Name: name, Handler: noopHandler}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	names := registry.Names()
	want := []string{"alpha", "mid", "zeta"}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("expected sorted names %v, got %v", want, names)
			break
		}
	}
}

func TestSnapshotIsImmuneToLaterChanges(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Descriptor{Name: "a", Handler: noopHandler}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapshot := registry.Snapshot()
	if err := registry.Register(Descriptor{Name: "b", Handler: noopHandler}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(snapshot) != 1 {
		t.Errorf("expected snapshot unchanged by later registration, got %d entries", len(snapshot))
	}
}

func TestToolsBuildsSessionScopedTable(t *testing.T) {
	registry := NewRegistry()
	err := registry.Register(Descriptor{
		Name: "whoami",
		Handler: func(ctx context.Context, argsJSON string, inv *Invocation) (any, error) {
			return inv.SessionID, nil
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	table := registry.Tools("session-7")
	if len(table) != 1 {
		t.Fatalf("expected 1 adapter, got %d", len(table))
	}
	result, err := table["whoami"].Call(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "session-7" {
		t.Errorf("expected table bound to session, got %v", result)
	}
}

func TestGetMissing(t *testing.T) {
	registry := NewRegistry()
	if _, ok := registry.Get("nope"); ok {
		t.Error("expected lookup miss for unregistered tool")
	}
}
