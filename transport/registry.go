package transport

import (
	"fmt"
	"sync"
)

// Registry maps transport kind names to their builders and capabilities.
// Transport packages register themselves in init.
type Registry struct {
	mu           sync.RWMutex
	builders     map[string]Builder
	capabilities map[string]Capabilities
}

// DefaultRegistry is the global transport registry.
var DefaultRegistry = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{
		builders:     make(map[string]Builder),
		capabilities: make(map[string]Capabilities),
	}
}

// Register adds a builder under a kind name.
func (r *Registry) Register(kind string, builder Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[kind] = builder
}

// RegisterWithCapabilities adds a builder and its capability description.
func (r *Registry) RegisterWithCapabilities(kind string, builder Builder, caps Capabilities) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[kind] = builder
	r.capabilities[kind] = caps
}

// GetCapabilities returns the capabilities for a registered kind, or a zero
// value naming the kind when it is unknown.
func (r *Registry) GetCapabilities(kind string) Capabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if caps, ok := r.capabilities[kind]; ok {
		return caps
	}
	return Capabilities{Name: kind}
}

// Build constructs a transport of the given kind. Unknown kinds typically
// mean the kind's package was not imported.
func (r *Registry) Build(kind string, cfg Config, rt Runtime) (Transport, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if rt == nil {
		return nil, fmt.Errorf("runtime is required")
	}

	r.mu.RLock()
	builder, ok := r.builders[kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown transport: %q (registered: %v)", kind, r.Names())
	}
	return builder(cfg, rt)
}

// Names returns the registered kind names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	return names
}

// Has reports whether a kind is registered.
func (r *Registry) Has(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.builders[kind]
	return ok
}

// Register adds a builder to the default registry.
func Register(kind string, builder Builder) {
	DefaultRegistry.Register(kind, builder)
}

// RegisterWithCapabilities adds a builder and capabilities to the default registry.
func RegisterWithCapabilities(kind string, builder Builder, caps Capabilities) {
	DefaultRegistry.RegisterWithCapabilities(kind, builder, caps)
}

// Build constructs a transport using the default registry.
func Build(kind string, cfg Config, rt Runtime) (Transport, error) {
	return DefaultRegistry.Build(kind, cfg, rt)
}

// GetCapabilities queries the default registry.
func GetCapabilities(kind string) Capabilities {
	return DefaultRegistry.GetCapabilities(kind)
}
