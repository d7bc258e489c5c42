package source

import "testing"

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(NewClaudeAdapter("/tmp/nope"))

	a, ok := r.Get("claude")
	if !ok {
		t.Fatal("Expected claude adapter to be registered")
	}
	if a.Name() != "claude" {
		t.Errorf("Name() = %q, want claude", a.Name())
	}

	if _, ok := r.Get("unknown"); ok {
		t.Error("Expected lookup of unknown source to fail")
	}
}

func TestRegistryAllSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(NewCursorAdapter("/tmp/nope.vscdb"))
	r.Register(NewClaudeAdapter("/tmp/nope"))
	r.Register(NewCodexAdapter("/tmp/nope"))

	all := r.All()
	if len(all) != 3 {
		t.Fatalf("Expected 3 adapters, got %d", len(all))
	}
	want := []string{"claude", "codex", "cursor"}
	for i, a := range all {
		if a.Name() != want[i] {
			t.Errorf("Adapter %d = %q, want %q", i, a.Name(), want[i])
		}
	}
}

func TestRegistryDetectedSkipsMissing(t *testing.T) {
	r := NewRegistry()
	r.Register(NewClaudeAdapter("/nonexistent/path"))
	r.Register(NewCodexAdapter(t.TempDir()))

	detected := r.Detected()
	if len(detected) != 1 {
		t.Fatalf("Expected 1 detected adapter, got %d", len(detected))
	}
	if detected[0].Name() != "codex" {
		t.Errorf("Detected adapter = %q, want codex", detected[0].Name())
	}
}

func TestAdapterModes(t *testing.T) {
	tests := []struct {
		adapter Adapter
		mode    string
	}{
		{NewClaudeAdapter("/tmp/nope"), "agent"},
		{NewCodexAdapter("/tmp/nope"), "agent"},
		{NewCursorAdapter("/tmp/nope.vscdb"), "chat"},
	}
	for _, tt := range tests {
		if got := tt.adapter.Mode(); got != tt.mode {
			t.Errorf("%s Mode() = %q, want %q", tt.adapter.Name(), got, tt.mode)
		}
	}
}
