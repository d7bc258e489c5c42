// Package source contains one adapter per supported AI coding assistant.
// Adapters know how to locate and parse their own storage format; the shared
// normalization machinery lives in the internal package and every adapter's
// Normalize defers to it.
package source

import (
	"sort"

	"github.com/iksnae/agent-sessions/internal"
)

// Adapter is the capability set each source implements.
type Adapter interface {
	// Name is the canonical source tag ("claude", "codex", "cursor").
	Name() string

	// Mode is the fixed mode tag stamped onto every conversation.
	Mode() string

	// Detect reports whether this source is present on this machine.
	Detect() bool

	// Discover enumerates candidate sessions.
	Discover() ([]internal.SourceLocation, error)

	// Extract parses one location into raw conversations. A location may
	// hold several conversations (Cursor keeps all composers in one db).
	Extract(loc internal.SourceLocation) ([]internal.RawConversation, error)

	// Normalize converts one raw conversation to the canonical entity set.
	Normalize(raw *internal.RawConversation, loc internal.SourceLocation) (*internal.NormalizedConversation, error)

	// DeepLink returns a provider-specific way back into the original
	// session, if the provider has one.
	DeepLink(ref internal.SourceRef) (string, bool)
}

// Registry dispatches source tags to adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// DefaultRegistry returns a registry with every built-in adapter registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewClaudeAdapter(""))
	r.Register(NewCodexAdapter(""))
	r.Register(NewCursorAdapter(""))
	return r
}

// Register adds an adapter, replacing any previous one with the same name.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Name()] = a
}

// Get returns the adapter for a source tag.
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// All returns every registered adapter, ordered by name so iteration is
// stable across runs.
func (r *Registry) All() []Adapter {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Adapter, 0, len(names))
	for _, name := range names {
		out = append(out, r.adapters[name])
	}
	return out
}

// Detected returns the adapters whose source is present on this machine.
func (r *Registry) Detected() []Adapter {
	var out []Adapter
	for _, a := range r.All() {
		if a.Detect() {
			out = append(out, a)
		}
	}
	return out
}
