package vdc

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xcube-dev/xcube-vdc-places/config"
	"github.com/xcube-dev/xcube-vdc-places/cube"
	"github.com/xcube-dev/xcube-vdc-places/errors"
)

func sitesCube(t *testing.T) *cube.Cube {
	t.Helper()
	c, err := cube.New([]cube.Coordinate{
		{Name: "geometry", Geometries: []orb.Geometry{orb.Point{10, 53.5}, orb.Point{13.4, 52.5}}},
		{Name: "site", Values: []any{"north", "south"}},
	}, cube.DataVar{Name: "temperature", Values: []any{14.5, 12.1}})
	require.NoError(t, err)
	return c
}

func TestCubeToFeatureSetsUnsplit(t *testing.T) {
	resolved := config.DatasetConfig{
		Path:            "sites",
		Identifier:      "S1~sites",
		StoreInstanceID: "S1",
		Title:           "Sites",
		Tags:            []string{"demo"},
	}

	sets, err := cubeToFeatureSets(sitesCube(t), resolved)
	require.NoError(t, err)
	require.Len(t, sets, 1)

	fs := sets[0]
	assert.Equal(t, 2, fs.Len())
	assert.Equal(t, "Sites", fs.Attr("Title"))
	assert.Equal(t, "S1~sites", fs.Attr("Identifier"))
	assert.Equal(t, []string{"demo"}, fs.Attr("Tags"))
	assert.Equal(t, map[string]any{"site": "north", "temperature": 14.5}, fs.Features[0].Properties)
}

func TestCubeToFeatureSetsSplitPositional(t *testing.T) {
	resolved := config.DatasetConfig{
		Identifier: "S1~sites",
		Title:      "Sites",
		Split:      true,
	}

	sets, err := cubeToFeatureSets(sitesCube(t), resolved)
	require.NoError(t, err)
	require.Len(t, sets, 2)

	assert.Equal(t, "Sites - 1", sets[0].Attr("Title"))
	assert.Equal(t, "S1~sites_1", sets[0].Attr("Identifier"))
	assert.Equal(t, "Sites - 2", sets[1].Attr("Title"))
	assert.Equal(t, "S1~sites_2", sets[1].Attr("Identifier"))

	require.Equal(t, 1, sets[0].Len())
	assert.Equal(t, orb.Point{10, 53.5}, sets[0].Features[0].Geometry)
	assert.Equal(t, orb.Point{13.4, 52.5}, sets[1].Features[0].Geometry)
}

func TestCubeToFeatureSetsSplitByLabelCoord(t *testing.T) {
	resolved := config.DatasetConfig{
		Identifier: "S1~sites",
		Title:      "Sites",
		Split:      true,
		LabelCoord: "site",
	}

	sets, err := cubeToFeatureSets(sitesCube(t), resolved)
	require.NoError(t, err)
	require.Len(t, sets, 2)

	assert.Equal(t, "Sites - north", sets[0].Attr("Title"))
	assert.Equal(t, "S1~sites_north", sets[0].Attr("Identifier"))
	assert.Equal(t, "Sites - south", sets[1].Attr("Title"))
	assert.Equal(t, "S1~sites_south", sets[1].Attr("Identifier"))
}

func TestCubeToFeatureSetsSplitLabelCoordIsGeometry(t *testing.T) {
	// Naming the geometry coordinate as LabelCoord falls back to
	// positional extensions.
	resolved := config.DatasetConfig{
		Identifier: "S1~sites",
		Title:      "Sites",
		Split:      true,
		LabelCoord: "geometry",
	}

	sets, err := cubeToFeatureSets(sitesCube(t), resolved)
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, "Sites - 1", sets[0].Attr("Title"))
	assert.Equal(t, "Sites - 2", sets[1].Attr("Title"))
}

func TestCubeToFeatureSetsSplitTitleFallsBackToIdentifier(t *testing.T) {
	resolved := config.DatasetConfig{
		Identifier: "S1~sites",
		Split:      true,
		LabelCoord: "site",
	}

	sets, err := cubeToFeatureSets(sitesCube(t), resolved)
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, "S1~sites - north", sets[0].Attr("Title"))
}

func TestCubeToFeatureSetsSplitValuelessLabelCoord(t *testing.T) {
	// A second geometry-bearing coordinate without label values is a valid
	// cube but cannot supply split labels.
	c, err := cube.New([]cube.Coordinate{
		{Name: "geometry", Geometries: []orb.Geometry{orb.Point{10, 53.5}, orb.Point{13.4, 52.5}}},
		{Name: "centroid", Geometries: []orb.Geometry{orb.Point{10, 53.5}, orb.Point{13.4, 52.5}}},
	})
	require.NoError(t, err)

	resolved := config.DatasetConfig{
		Identifier: "S1~sites",
		Title:      "Sites",
		Split:      true,
		LabelCoord: "centroid",
	}

	_, err = cubeToFeatureSets(c, resolved)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.Contains(t, err.Error(), "no label values")
}

func TestCubeToFeatureSetsSplitUnknownLabelCoord(t *testing.T) {
	resolved := config.DatasetConfig{
		Identifier: "S1~sites",
		Split:      true,
		LabelCoord: "nope",
	}

	_, err := cubeToFeatureSets(sitesCube(t), resolved)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}
