package places

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xcube-dev/xcube-vdc-places/cube"
	"github.com/xcube-dev/xcube-vdc-places/errors"
)

func testFeatures() []cube.Feature {
	return []cube.Feature{
		{Geometry: orb.Point{10, 53.5}, Properties: map[string]any{"name": "hamburg"}},
		{Geometry: orb.Point{13.4, 52.5}, Properties: map[string]any{"name": "berlin"}},
	}
}

func TestNewPlaceGroupDefaults(t *testing.T) {
	g := NewPlaceGroup("S1~regions_2020", "Regions", nil, "")
	assert.Equal(t, GroupType, g.Type)
	assert.Equal(t, DefaultSourceEncoding, g.SourceEncoding)
	assert.False(t, g.Populated())
	assert.Empty(t, g.Features())

	g = NewPlaceGroup("S1~regions_2020", "Regions", nil, "latin-1")
	assert.Equal(t, "latin-1", g.SourceEncoding)
}

func TestSetFeaturesExactlyOnce(t *testing.T) {
	g := NewPlaceGroup("S1~regions_2020", "Regions", nil, "")

	assert.True(t, g.SetFeatures(testFeatures()))
	require.True(t, g.Populated())
	first := g.Features()
	require.Len(t, first, 2)

	assert.False(t, g.SetFeatures(nil))
	assert.Equal(t, first, g.Features())
}

func TestPlaceGroupMarshalJSON(t *testing.T) {
	g := NewPlaceGroup("S1~regions_2020", "Regions", map[string]string{"label": "name"}, "")
	g.SetFeatures(testFeatures())

	data, err := json.Marshal(g)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "FeatureCollection", doc["type"])
	assert.Equal(t, "S1~regions_2020", doc["id"])
	assert.Equal(t, "Regions", doc["title"])
	assert.Equal(t, "utf-8", doc["sourceEncoding"])
	assert.Len(t, doc["features"], 2)
}

func TestGroupID(t *testing.T) {
	ctx, err := NewContext(nil)
	require.NoError(t, err)

	id, err := ctx.GroupID(map[string]any{"Identifier": "S1~regions_2020"})
	require.NoError(t, err)
	assert.Equal(t, "S1~regions_2020", id)

	_, err = ctx.GroupID(map[string]any{"Title": "Regions"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingConfig)
}

func TestStorePlaceGroupIfAbsent(t *testing.T) {
	ctx, err := NewContext(nil)
	require.NoError(t, err)

	first := NewPlaceGroup("g1", "Regions", nil, "")
	cached, stored, err := ctx.StorePlaceGroupIfAbsent(first)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Same(t, first, cached)

	second := NewPlaceGroup("g1", "Other", nil, "")
	cached, stored, err = ctx.StorePlaceGroupIfAbsent(second)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.Same(t, first, cached)

	got, ok := ctx.CachedPlaceGroup("g1")
	require.True(t, ok)
	assert.Same(t, first, got)

	_, ok = ctx.CachedPlaceGroup("g2")
	assert.False(t, ok)
}

func TestPropertyMapping(t *testing.T) {
	ctx, err := NewContext(nil)
	require.NoError(t, err)

	assert.Nil(t, ctx.PropertyMapping("http://localhost:8080", map[string]any{}))

	mapping := ctx.PropertyMapping("http://localhost:8080", map[string]any{
		"PropertyMapping": map[string]string{
			"label": "name",
			"image": "${base_url}/images/${ID}.png",
		},
	})
	assert.Equal(t, map[string]string{
		"label": "name",
		"image": "http://localhost:8080/images/${ID}.png",
	}, mapping)
}

func TestCheckSubGroupConfigs(t *testing.T) {
	ctx, err := NewContext(nil)
	require.NoError(t, err)

	assert.NoError(t, ctx.CheckSubGroupConfigs(map[string]any{"Identifier": "g1"}))

	err = ctx.CheckSubGroupConfigs(map[string]any{"PlaceGroups": []any{}})
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestAddPlaceGroup(t *testing.T) {
	ctx, err := NewContext(nil)
	require.NoError(t, err)

	g1 := NewPlaceGroup("g1", "Regions", nil, "")
	g2 := NewPlaceGroup("g2", "Sites", nil, "")

	ctx.AddPlaceGroup(g1, []string{"demo", "other"})
	ctx.AddPlaceGroup(g2, nil)
	ctx.AddPlaceGroup(g1, []string{"third"})

	groups := ctx.PlaceGroups()
	require.Len(t, groups, 2)
	assert.Same(t, g1, groups[0])
	assert.Same(t, g2, groups[1])

	assert.Equal(t, []*PlaceGroup{g1}, ctx.DatasetPlaceGroups("demo"))
	assert.Equal(t, []*PlaceGroup{g1}, ctx.DatasetPlaceGroups("third"))
	assert.Empty(t, ctx.DatasetPlaceGroups("unknown"))
}

func TestCacheStats(t *testing.T) {
	ctx, err := NewContext(nil)
	require.NoError(t, err)

	_, _, err = ctx.StorePlaceGroupIfAbsent(NewPlaceGroup("g1", "Regions", nil, ""))
	require.NoError(t, err)
	_, ok := ctx.CachedPlaceGroup("g1")
	require.True(t, ok)

	stats := ctx.CacheStats()
	assert.Equal(t, int64(1), stats.Hits())
	assert.Equal(t, int64(1), stats.Sets())
}
