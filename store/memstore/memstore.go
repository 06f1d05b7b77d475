// Package memstore provides an in-memory data store used by tests and by
// embedders that assemble vector data cubes programmatically.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/xcube-dev/xcube-vdc-places/cube"
	"github.com/xcube-dev/xcube-vdc-places/errors"
	"github.com/xcube-dev/xcube-vdc-places/store"
)

// StoreKind is the factory name this store registers under.
const StoreKind = "memory"

// OpenerID is the default vector-data-cube opener advertised for datasets
// that do not declare their own openers.
const OpenerID = "vectordatacube:memory"

// Dataset is one stored dataset: its id, the openers it advertises, the cube
// returned on open, and an optional injected open error.
type Dataset struct {
	ID      string
	Openers []store.Opener
	Cube    *cube.Cube
	OpenErr error
}

// OpenCall records one Open invocation for test assertions.
type OpenCall struct {
	DataID   string
	OpenerID string
	Params   map[string]any
}

// Store is an in-memory DataStore. Dataset enumeration preserves insertion
// order.
type Store struct {
	mu        sync.Mutex
	datasets  []Dataset
	openCalls []OpenCall
	closed    bool
}

// New creates a store pre-seeded with the given datasets.
func New(datasets ...Dataset) *Store {
	s := &Store{}
	for _, ds := range datasets {
		s.Add(ds)
	}
	return s
}

// Register registers the memory store factory with the given registry.
// The factory accepts an optional "datasets" parameter carrying []Dataset.
func Register(registry *store.Registry) error {
	return registry.RegisterFactory(StoreKind, func(params map[string]any) (store.DataStore, error) {
		s := &Store{}
		if raw, ok := params["datasets"]; ok {
			datasets, ok := raw.([]Dataset)
			if !ok {
				return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "MemStore", "Register",
					"datasets parameter must be []memstore.Dataset")
			}
			for _, ds := range datasets {
				s.Add(ds)
			}
		}
		return s, nil
	})
}

// Add appends a dataset. Datasets without explicit openers advertise the
// default vector-data-cube opener.
func (s *Store) Add(ds Dataset) {
	if ds.Openers == nil {
		ds.Openers = []store.Opener{{ID: OpenerID, Capability: store.CapabilityVectorDataCube}}
	}
	s.mu.Lock()
	s.datasets = append(s.datasets, ds)
	s.mu.Unlock()
}

// ListDataIDs enumerates dataset ids advertising an opener with the given
// capability, in insertion order.
func (s *Store) ListDataIDs(_ context.Context, capability store.Capability) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, ds := range s.datasets {
		for _, opener := range ds.Openers {
			if opener.Capability == capability {
				ids = append(ids, ds.ID)
				break
			}
		}
	}
	return ids, nil
}

// Openers lists the openers advertised for a dataset id.
func (s *Store) Openers(_ context.Context, dataID string) ([]store.Opener, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ds := range s.datasets {
		if ds.ID == dataID {
			return append([]store.Opener(nil), ds.Openers...), nil
		}
	}
	return nil, errors.WrapInvalid(errors.ErrDatasetNotFound, "MemStore", "Openers",
		fmt.Sprintf("dataset %q", dataID))
}

// Open returns the stored cube for the dataset, or the injected open error.
func (s *Store) Open(_ context.Context, dataID, openerID string, params map[string]any) (*cube.Cube, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.openCalls = append(s.openCalls, OpenCall{DataID: dataID, OpenerID: openerID, Params: params})

	for _, ds := range s.datasets {
		if ds.ID != dataID {
			continue
		}
		for _, opener := range ds.Openers {
			if opener.ID == openerID {
				if ds.OpenErr != nil {
					return nil, ds.OpenErr
				}
				return ds.Cube, nil
			}
		}
		return nil, errors.WrapInvalid(errors.ErrNoOpener, "MemStore", "Open",
			fmt.Sprintf("opener %q for dataset %q", openerID, dataID))
	}
	return nil, errors.WrapInvalid(errors.ErrDatasetNotFound, "MemStore", "Open",
		fmt.Sprintf("dataset %q", dataID))
}

// OpenCalls returns the recorded Open invocations.
func (s *Store) OpenCalls() []OpenCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]OpenCall(nil), s.openCalls...)
}

// Close marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
