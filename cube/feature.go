package cube

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature is one geographic feature: a geometry plus a property mapping.
type Feature struct {
	Geometry   orb.Geometry
	Properties map[string]any
}

// GeoJSON converts the feature to its GeoJSON representation.
func (f Feature) GeoJSON() *geojson.Feature {
	gf := geojson.NewFeature(f.Geometry)
	gf.Properties = geojson.Properties(f.Properties)
	return gf
}

// MarshalJSON encodes the feature as a GeoJSON Feature object.
func (f Feature) MarshalJSON() ([]byte, error) {
	return f.GeoJSON().MarshalJSON()
}

// UnmarshalJSON decodes a GeoJSON Feature object.
func (f *Feature) UnmarshalJSON(data []byte) error {
	gf, err := geojson.UnmarshalFeature(data)
	if err != nil {
		return err
	}
	f.Geometry = gf.Geometry
	f.Properties = map[string]any(gf.Properties)
	return nil
}

// FeatureSet is the tabular result of flattening a vector data cube's
// geometry coordinate: an ordered sequence of features plus the attributes
// mapping carried over from the resolved dataset config. Feature sets are
// produced fresh on every load and never cached.
type FeatureSet struct {
	Features []Feature
	Attrs    map[string]any
}

// Len returns the number of features.
func (fs *FeatureSet) Len() int {
	return len(fs.Features)
}

// Attr returns a named attribute, or nil when absent.
func (fs *FeatureSet) Attr(key string) any {
	return fs.Attrs[key]
}

// StringAttr returns a named attribute as a string, or the fallback when the
// attribute is absent or not a string.
func (fs *FeatureSet) StringAttr(key, fallback string) string {
	if v, ok := fs.Attrs[key].(string); ok {
		return v
	}
	return fallback
}

// MarshalJSON encodes the feature set as a GeoJSON FeatureCollection.
func (fs *FeatureSet) MarshalJSON() ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, f := range fs.Features {
		fc.Append(f.GeoJSON())
	}
	return json.Marshal(fc)
}
