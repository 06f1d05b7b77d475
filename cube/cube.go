// Package cube provides the in-memory vector data cube model: a labeled,
// one-dimensional collection of coordinates where at least one coordinate
// carries a geometry per index, plus named data variables aligned with the
// same dimension. Cubes are flattened into tabular feature sets for
// place-group materialization.
package cube

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/xcube-dev/xcube-vdc-places/errors"
)

// Coordinate is a named axis of the cube. A coordinate is geometry-bearing
// when Geometries is non-nil; otherwise Values holds one label per index.
// A geometry coordinate may also carry Values when its positions have labels.
type Coordinate struct {
	Name       string
	Values     []any
	Geometries []orb.Geometry
}

// IsGeometry reports whether this coordinate carries geometries.
func (c Coordinate) IsGeometry() bool {
	return c.Geometries != nil
}

// Len returns the number of indices along the coordinate.
func (c Coordinate) Len() int {
	if c.Geometries != nil {
		return len(c.Geometries)
	}
	return len(c.Values)
}

// DataVar is a named data variable aligned with the cube dimension.
type DataVar struct {
	Name   string
	Values []any
}

// Cube is an opened vector data cube. Its lifetime is the duration of one
// materialization pass; it is never cached.
type Cube struct {
	length   int
	coords   []Coordinate
	dataVars []DataVar
}

// New builds a cube from coordinates and data variables. All coordinates and
// variables must have the same length and at least one coordinate must be
// geometry-bearing.
func New(coords []Coordinate, dataVars ...DataVar) (*Cube, error) {
	if len(coords) == 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "Cube", "New", "at least one coordinate required")
	}

	length := coords[0].Len()
	hasGeom := false
	names := make(map[string]bool, len(coords)+len(dataVars))

	for _, coord := range coords {
		if coord.Name == "" {
			return nil, errors.WrapInvalid(errors.ErrInvalidData, "Cube", "New", "coordinate name required")
		}
		if names[coord.Name] {
			return nil, errors.WrapInvalid(errors.ErrInvalidData, "Cube", "New",
				fmt.Sprintf("duplicate coordinate %q", coord.Name))
		}
		names[coord.Name] = true
		if coord.Len() != length {
			return nil, errors.WrapInvalid(errors.ErrInvalidData, "Cube", "New",
				fmt.Sprintf("coordinate %q has length %d, want %d", coord.Name, coord.Len(), length))
		}
		if coord.IsGeometry() {
			hasGeom = true
			if coord.Values != nil && len(coord.Values) != len(coord.Geometries) {
				return nil, errors.WrapInvalid(errors.ErrInvalidData, "Cube", "New",
					fmt.Sprintf("coordinate %q values and geometries disagree on length", coord.Name))
			}
		}
	}
	if !hasGeom {
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "Cube", "New", "no geometry-bearing coordinate")
	}

	for _, dv := range dataVars {
		if dv.Name == "" {
			return nil, errors.WrapInvalid(errors.ErrInvalidData, "Cube", "New", "data variable name required")
		}
		if names[dv.Name] {
			return nil, errors.WrapInvalid(errors.ErrInvalidData, "Cube", "New",
				fmt.Sprintf("duplicate variable %q", dv.Name))
		}
		names[dv.Name] = true
		if len(dv.Values) != length {
			return nil, errors.WrapInvalid(errors.ErrInvalidData, "Cube", "New",
				fmt.Sprintf("data variable %q has length %d, want %d", dv.Name, len(dv.Values), length))
		}
	}

	return &Cube{
		length:   length,
		coords:   coords,
		dataVars: dataVars,
	}, nil
}

// Len returns the number of indices along the cube dimension.
func (c *Cube) Len() int {
	return c.length
}

// Coords returns the cube's coordinates in declaration order.
func (c *Cube) Coords() []Coordinate {
	return c.coords
}

// Coord looks up a coordinate by name.
func (c *Cube) Coord(name string) (Coordinate, bool) {
	for _, coord := range c.coords {
		if coord.Name == name {
			return coord, true
		}
	}
	return Coordinate{}, false
}

// GeomCoords returns the names of geometry-bearing coordinates in
// declaration order.
func (c *Cube) GeomCoords() []string {
	var names []string
	for _, coord := range c.coords {
		if coord.IsGeometry() {
			names = append(names, coord.Name)
		}
	}
	return names
}

// DataVars returns the cube's data variables in declaration order.
func (c *Cube) DataVars() []DataVar {
	return c.dataVars
}

// ISel slices the cube to the single element at index i. The result is a
// one-length cube with independent copies of all coordinate and variable
// values.
func (c *Cube) ISel(i int) (*Cube, error) {
	if i < 0 || i >= c.length {
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "Cube", "ISel",
			fmt.Sprintf("index %d out of range [0,%d)", i, c.length))
	}

	coords := make([]Coordinate, len(c.coords))
	for j, coord := range c.coords {
		sliced := Coordinate{Name: coord.Name}
		if coord.Values != nil {
			sliced.Values = []any{coord.Values[i]}
		}
		if coord.Geometries != nil {
			sliced.Geometries = []orb.Geometry{coord.Geometries[i]}
		}
		coords[j] = sliced
	}

	dataVars := make([]DataVar, len(c.dataVars))
	for j, dv := range c.dataVars {
		dataVars[j] = DataVar{Name: dv.Name, Values: []any{dv.Values[i]}}
	}

	return New(coords, dataVars...)
}

// ToFeatureSet flattens the cube along the named geometry coordinate into a
// tabular feature set: one feature per index, its geometry taken from the
// geometry coordinate and its properties from every non-geometry coordinate
// and data variable at that index.
func (c *Cube) ToFeatureSet(geomCoord string) (*FeatureSet, error) {
	coord, ok := c.Coord(geomCoord)
	if !ok || !coord.IsGeometry() {
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "Cube", "ToFeatureSet",
			fmt.Sprintf("no geometry coordinate %q", geomCoord))
	}

	features := make([]Feature, c.length)
	for i := 0; i < c.length; i++ {
		props := make(map[string]any)
		for _, other := range c.coords {
			if other.IsGeometry() {
				continue
			}
			props[other.Name] = other.Values[i]
		}
		for _, dv := range c.dataVars {
			props[dv.Name] = dv.Values[i]
		}
		features[i] = Feature{Geometry: coord.Geometries[i], Properties: props}
	}

	return &FeatureSet{Features: features, Attrs: make(map[string]any)}, nil
}
