package server

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
)

// HandlerFunc executes one tool invocation. The returned payload is
// wrapped into the success envelope; errors are classified and wrapped
// into the failure envelope.
type HandlerFunc func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// ToolDescriptor binds an MCP tool definition to its required scope
// and handler. An empty RequiredScope leaves the tool open to any
// authenticated caller.
type ToolDescriptor struct {
	Tool          mcp.Tool
	RequiredScope string
	Handler       HandlerFunc
}

// Registry holds the registered tools. Registering a name twice
// replaces the earlier descriptor.
type Registry struct {
	mu    sync.RWMutex
	order []string
	tools map[string]ToolDescriptor
}

func NewRegistry() *Registry {
	return &Registry{tools: map[string]ToolDescriptor{}}
}

func (r *Registry) Register(d ToolDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[d.Tool.Name]; !exists {
		r.order = append(r.order, d.Tool.Name)
	}
	r.tools[d.Tool.Name] = d
}

func (r *Registry) Get(name string) (ToolDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.tools[name]
	return d, ok
}

// Descriptors returns all tools in registration order.
func (r *Registry) Descriptors() []ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}
