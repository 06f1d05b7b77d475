// Package places manages place groups: named, cacheable collections of
// geographic features materialized from vector data cubes. The Context owns
// the place-group cache and the registry associating groups with the
// datasets they are offered alongside.
package places

import (
	"encoding/json"
	"sync"

	"github.com/xcube-dev/xcube-vdc-places/cube"
)

// GroupType is the fixed type tag carried by every place group.
const GroupType = "FeatureCollection"

// DefaultSourceEncoding is assumed when a dataset entry declares no
// CharacterEncoding.
const DefaultSourceEncoding = "utf-8"

// PlaceGroup is the durable, cached unit of materialization. Features are
// populated exactly once per cache entry; once non-empty they are never
// overwritten.
type PlaceGroup struct {
	ID              string
	Title           string
	Type            string
	PropertyMapping map[string]string
	SourceEncoding  string

	mu        sync.Mutex
	features  []cube.Feature
	populated bool
}

// NewPlaceGroup creates an unpopulated place group. An empty source encoding
// falls back to the default.
func NewPlaceGroup(id, title string, propertyMapping map[string]string, sourceEncoding string) *PlaceGroup {
	if sourceEncoding == "" {
		sourceEncoding = DefaultSourceEncoding
	}
	return &PlaceGroup{
		ID:              id,
		Title:           title,
		Type:            GroupType,
		PropertyMapping: propertyMapping,
		SourceEncoding:  sourceEncoding,
	}
}

// Populated reports whether the group's features have been set.
func (g *PlaceGroup) Populated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.populated
}

// SetFeatures stores the feature list on first call and reports whether the
// list was stored. Later calls are no-ops.
func (g *PlaceGroup) SetFeatures(features []cube.Feature) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.populated {
		return false
	}
	g.features = append([]cube.Feature(nil), features...)
	g.populated = true
	return true
}

// Features returns the populated feature list, or nil when unpopulated.
func (g *PlaceGroup) Features() []cube.Feature {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]cube.Feature(nil), g.features...)
}

// MarshalJSON serializes the group in its servable form, features included.
func (g *PlaceGroup) MarshalJSON() ([]byte, error) {
	g.mu.Lock()
	features := append([]cube.Feature(nil), g.features...)
	g.mu.Unlock()

	return json.Marshal(struct {
		Type            string            `json:"type"`
		ID              string            `json:"id"`
		Title           string            `json:"title"`
		PropertyMapping map[string]string `json:"propertyMapping,omitempty"`
		SourceEncoding  string            `json:"sourceEncoding"`
		Features        []cube.Feature    `json:"features"`
	}{
		Type:            g.Type,
		ID:              g.ID,
		Title:           g.Title,
		PropertyMapping: g.PropertyMapping,
		SourceEncoding:  g.SourceEncoding,
		Features:        features,
	})
}
