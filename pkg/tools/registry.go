package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/teller/pkg/domain"
)

// ToolFunction defines the signature for a tool implementation.
// It receives a context and the decoded arguments, and returns a tagged result.
type ToolFunction func(ctx context.Context, args map[string]any) (*domain.Result, error)

// Registry manages the available tools.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]ToolFunction
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]ToolFunction),
	}
}

// Register adds a tool to the registry.
// If a tool with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn ToolFunction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = fn
}

// Names lists the registered tools in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute looks up a tool by name and executes it.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (*domain.Result, error) {
	r.mu.RLock()
	fn, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownTool, name)
	}

	return fn(ctx, args)
}
