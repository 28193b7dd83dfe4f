package tools

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

var (
	// ErrDuplicateTool is returned when a tool name is already registered.
	ErrDuplicateTool = errors.New("duplicate tool name")
	// ErrUnknownTool is returned when a tool name is not registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrRegistryFrozen is returned on registration after Freeze.
	ErrRegistryFrozen = errors.New("registry is frozen")
)

// Registry holds the set of callable tools for the lifetime of the process.
// Registration happens at startup; once frozen the registry is read-only, so
// tool availability stays stable for the duration of a conversation and
// lookups need no locking on the hot path.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]ITool
	names  []string
	frozen bool
}

func NewRegistry(list ...ITool) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]ITool),
	}
	for _, tool := range list {
		if err := r.Register(tool); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustRegistry creates a registry from the list, panics on duplicates.
// Intended for static startup wiring.
func MustRegistry(list ...ITool) *Registry {
	r, err := NewRegistry(list...)
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds a tool. Names are case-insensitive unique keys.
func (r *Registry) Register(tool ITool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.WithStack(ErrRegistryFrozen)
	}
	name := tool.Name()
	key := strings.ToLower(name)
	if _, ok := r.byName[key]; ok {
		return errors.WithMessagef(ErrDuplicateTool, "%s", name)
	}
	r.byName[key] = tool
	r.names = append(r.names, name)
	return nil
}

// Freeze makes the registry read-only. Safe to call more than once.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Lookup returns the tool registered under name, case-insensitive.
func (r *Registry) Lookup(name string) (ITool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, errors.WithMessagef(ErrUnknownTool, "%s", name)
	}
	return tool, nil
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []ITool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]ITool, 0, len(r.names))
	for _, name := range r.names {
		list = append(list, r.byName[strings.ToLower(name)])
	}
	return list
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}
