package store

import (
	"fmt"
	"sync"

	"github.com/xcube-dev/xcube-vdc-places/errors"
)

// Factory creates a data store instance from store parameters.
type Factory func(params map[string]any) (DataStore, error)

// Registry manages data store factories keyed by store kind.
// It provides thread-safe registration and instantiation.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates a new empty store registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// RegisterFactory registers a store factory under the given store kind.
// Returns an error if a factory with the same kind is already registered.
func (r *Registry) RegisterFactory(storeKind string, factory Factory) error {
	if storeKind == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterFactory", "store kind validation")
	}
	if factory == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterFactory", "factory function validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[storeKind]; exists {
		msg := fmt.Errorf("factory %q is already registered", storeKind)
		return errors.WrapInvalid(msg, "Registry", "RegisterFactory", "duplicate factory check")
	}

	r.factories[storeKind] = factory
	return nil
}

// NewStore instantiates a data store of the given kind with the given
// parameters.
func (r *Registry) NewStore(storeKind string, params map[string]any) (DataStore, error) {
	r.mu.RLock()
	factory, ok := r.factories[storeKind]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.WrapInvalid(errors.ErrStoreNotFound, "Registry", "NewStore",
			fmt.Sprintf("no factory registered for store kind %q", storeKind))
	}

	ds, err := factory(params)
	if err != nil {
		return nil, errors.Wrap(err, "Registry", "NewStore", fmt.Sprintf("instantiate %q store", storeKind))
	}
	return ds, nil
}

// Kinds returns the registered store kinds.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	return kinds
}
