package fitness

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrModelExists   = errors.New("model already registered")
	ErrModelNotFound = errors.New("model not found")
)

// Factory constructs a fresh, uninitialized model instance.
type Factory func() Model

var modelRegistry = struct {
	mu sync.RWMutex
	m  map[string]Factory
}{
	m: make(map[string]Factory),
}

// Register adds a named model factory. Model packages register themselves at
// process start; there is no runtime type scanning.
func Register(name string, factory Factory) error {
	if name == "" {
		return errors.New("model name is required")
	}
	if factory == nil {
		return errors.New("model factory is required")
	}

	modelRegistry.mu.Lock()
	defer modelRegistry.mu.Unlock()

	if _, exists := modelRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrModelExists, name)
	}
	modelRegistry.m[name] = factory
	return nil
}

// MustRegister registers a factory and panics on failure. Intended for use
// from package init functions.
func MustRegister(name string, factory Factory) {
	if err := Register(name, factory); err != nil {
		panic(err)
	}
}

// Resolve constructs a new instance of the named model.
func Resolve(name string) (Model, error) {
	modelRegistry.mu.RLock()
	factory, ok := modelRegistry.m[name]
	modelRegistry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}
	return factory(), nil
}

// List returns the registered model names in sorted order.
func List() []string {
	modelRegistry.mu.RLock()
	defer modelRegistry.mu.RUnlock()

	names := make([]string, 0, len(modelRegistry.m))
	for name := range modelRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetModelRegistryForTests() {
	modelRegistry.mu.Lock()
	defer modelRegistry.mu.Unlock()
	modelRegistry.m = make(map[string]Factory)
}
