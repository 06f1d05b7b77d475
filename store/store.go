// Package store defines the data-store abstraction consumed by the
// vector-data-cube places pipeline: a DataStore interface with
// capability-tagged openers, a factory registry for store kinds, and an
// ordered pool of configured store instances.
package store

import (
	"context"

	"github.com/xcube-dev/xcube-vdc-places/cube"
)

// Capability identifies the kind of in-memory structure an opener produces.
type Capability int

const (
	// CapabilityUnknown marks openers whose product this pipeline cannot use.
	CapabilityUnknown Capability = iota
	// CapabilityVectorDataCube marks openers that produce vector data cubes.
	CapabilityVectorDataCube
)

// String returns the string representation of the capability.
func (c Capability) String() string {
	switch c {
	case CapabilityVectorDataCube:
		return "vectordatacube"
	default:
		return "unknown"
	}
}

// Opener describes one capability-tagged strategy a data store exposes for
// turning a stored dataset into an in-memory structure.
type Opener struct {
	ID         string
	Capability Capability
}

// DataStore is a live handle on a backing store.
type DataStore interface {
	// ListDataIDs enumerates the dataset ids the store advertises for the
	// given capability, in the store's own stable order.
	ListDataIDs(ctx context.Context, capability Capability) ([]string, error)

	// Openers lists the openers supported for a dataset id, in preference
	// order.
	Openers(ctx context.Context, dataID string) ([]Opener, error)

	// Open opens the dataset with the named opener and open parameters.
	Open(ctx context.Context, dataID, openerID string, params map[string]any) (*cube.Cube, error)

	// Close releases any resources held by the store handle.
	Close() error
}
