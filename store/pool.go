package store

import (
	"errors"
	"fmt"
	"sync"

	pkgerrors "github.com/xcube-dev/xcube-vdc-places/errors"
)

// InstanceConfig describes one configured store instance: the store kind to
// instantiate, its parameters, and opaque user data carried alongside (the
// raw dataset entries owned by the configuration).
type InstanceConfig struct {
	StoreKind string
	Params    map[string]any
	UserData  any
}

// Pool holds the configured store instances for one configuration
// generation. Instance ids are unique and enumeration preserves insertion
// order. Live store handles are created lazily and cached.
type Pool struct {
	registry *Registry

	mu      sync.Mutex
	ids     []string
	configs map[string]InstanceConfig
	handles map[string]DataStore
}

// NewPool creates an empty pool backed by the given factory registry.
func NewPool(registry *Registry) *Pool {
	return &Pool{
		registry: registry,
		configs:  make(map[string]InstanceConfig),
		handles:  make(map[string]DataStore),
	}
}

// AddStoreConfig registers a store instance configuration under its unique
// instance id.
func (p *Pool) AddStoreConfig(instanceID string, cfg InstanceConfig) error {
	if instanceID == "" {
		return pkgerrors.WrapInvalid(pkgerrors.ErrInvalidConfig, "Pool", "AddStoreConfig", "instance id validation")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.configs[instanceID]; exists {
		return pkgerrors.WrapInvalid(
			fmt.Errorf("store instance %q already configured", instanceID),
			"Pool", "AddStoreConfig", "duplicate instance id check")
	}

	p.ids = append(p.ids, instanceID)
	p.configs[instanceID] = cfg
	return nil
}

// StoreInstanceIDs returns the configured instance ids in insertion order.
func (p *Pool) StoreInstanceIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.ids...)
}

// GetStoreConfig returns the configuration for an instance id.
func (p *Pool) GetStoreConfig(instanceID string) (InstanceConfig, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cfg, ok := p.configs[instanceID]
	return cfg, ok
}

// GetStore returns the live store handle for an instance id, instantiating
// it on first use.
func (p *Pool) GetStore(instanceID string) (DataStore, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if handle, ok := p.handles[instanceID]; ok {
		return handle, nil
	}

	cfg, ok := p.configs[instanceID]
	if !ok {
		return nil, pkgerrors.WrapInvalid(pkgerrors.ErrStoreNotFound, "Pool", "GetStore",
			fmt.Sprintf("unknown store instance %q", instanceID))
	}

	handle, err := p.registry.NewStore(cfg.StoreKind, cfg.Params)
	if err != nil {
		return nil, err
	}

	p.handles[instanceID] = handle
	return handle, nil
}

// Close closes all instantiated store handles.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for id, handle := range p.handles {
		if err := handle.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store %q: %w", id, err))
		}
	}
	p.handles = make(map[string]DataStore)
	return errors.Join(errs...)
}
