package vdc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xcube-dev/xcube-vdc-places/config"
	"github.com/xcube-dev/xcube-vdc-places/errors"
	"github.com/xcube-dev/xcube-vdc-places/store"
	"github.com/xcube-dev/xcube-vdc-places/store/memstore"
)

func TestSynthesizeID(t *testing.T) {
	assert.Equal(t, "S1~regions_2020", SynthesizeID("S1", "regions_2020"))
}

func TestIsWildcard(t *testing.T) {
	assert.True(t, IsWildcard("regions_*"))
	assert.True(t, IsWildcard("regions_202?"))
	assert.False(t, IsWildcard("regions_2020"))
	assert.False(t, IsWildcard(""))
}

func TestExpandDatasetConfigLiteral(t *testing.T) {
	tests := []struct {
		name           string
		entry          config.DatasetConfig
		wantIdentifier string
	}{
		{
			name:           "identifier synthesized when absent",
			entry:          config.DatasetConfig{Path: "regions_2020"},
			wantIdentifier: "S1~regions_2020",
		},
		{
			name:           "user identifier kept",
			entry:          config.DatasetConfig{Path: "regions_2020", Identifier: "my-regions"},
			wantIdentifier: "my-regions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := expandDatasetConfig("S1", tt.entry, nil)
			require.NoError(t, err)
			require.Len(t, resolved, 1)
			assert.Equal(t, "regions_2020", resolved[0].Path)
			assert.Equal(t, "S1", resolved[0].StoreInstanceID)
			assert.Equal(t, tt.wantIdentifier, resolved[0].Identifier)
		})
	}
}

func TestExpandDatasetConfigWildcard(t *testing.T) {
	advertised := []string{"regions_2020", "regions_2021", "points"}

	resolved, err := expandDatasetConfig("S1", config.DatasetConfig{Path: "regions_*"}, advertised)
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, "S1~regions_2020", resolved[0].Identifier)
	assert.Equal(t, "regions_2020", resolved[0].Path)
	assert.Equal(t, "S1~regions_2021", resolved[1].Identifier)
	assert.Equal(t, "regions_2021", resolved[1].Path)
}

func TestExpandDatasetConfigQuestionMark(t *testing.T) {
	advertised := []string{"regions_2020", "regions_2021", "regions_old"}

	resolved, err := expandDatasetConfig("S1", config.DatasetConfig{Path: "regions_202?"}, advertised)
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, "regions_2020", resolved[0].Path)
	assert.Equal(t, "regions_2021", resolved[1].Path)
}

func TestExpandDatasetConfigEmptyPathMatchesAll(t *testing.T) {
	advertised := []string{"regions_2020", "points"}

	resolved, err := expandDatasetConfig("S1", config.DatasetConfig{}, advertised)
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, "S1~regions_2020", resolved[0].Identifier)
	assert.Equal(t, "S1~points", resolved[1].Identifier)
}

func TestExpandDatasetConfigWildcardWithIdentifier(t *testing.T) {
	_, err := expandDatasetConfig("S1",
		config.DatasetConfig{Path: "regions_*", Identifier: "shared"},
		[]string{"regions_2020"})
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.Contains(t, err.Error(), "non-wildcard paths")
}

func TestExpandDatasetConfigClonesEntry(t *testing.T) {
	entry := config.DatasetConfig{Path: "regions_*", DatasetRefs: []string{"demo"}}

	resolved, err := expandDatasetConfig("S1", entry, []string{"regions_2020"})
	require.NoError(t, err)
	require.Len(t, resolved, 1)

	resolved[0].DatasetRefs[0] = "changed"
	assert.Equal(t, []string{"demo"}, entry.DatasetRefs)
	assert.Equal(t, "regions_*", entry.Path)
}

func TestResolveDatasetConfigs(t *testing.T) {
	registry := store.NewRegistry()
	require.NoError(t, memstore.Register(registry))

	pool := store.NewPool(registry)
	require.NoError(t, pool.AddStoreConfig("S1", store.InstanceConfig{
		StoreKind: memstore.StoreKind,
		Params: map[string]any{"datasets": []memstore.Dataset{
			{ID: "regions_2020"}, {ID: "regions_2021"}, {ID: "points"},
		}},
		UserData: []config.DatasetConfig{
			{Path: "regions_*"},
			{Path: "points", Title: "Points"},
		},
	}))
	require.NoError(t, pool.AddStoreConfig("S2", store.InstanceConfig{
		StoreKind: memstore.StoreKind,
		Params:    map[string]any{"datasets": []memstore.Dataset{{ID: "sites"}}},
		UserData:  []config.DatasetConfig{{Path: "*"}},
	}))

	resolved, err := ResolveDatasetConfigs(context.Background(), pool, nil)
	require.NoError(t, err)
	require.Len(t, resolved, 4)

	identifiers := make([]string, len(resolved))
	for i, cfg := range resolved {
		identifiers[i] = cfg.Identifier
	}
	assert.Equal(t, []string{"S1~regions_2020", "S1~regions_2021", "S1~points", "S2~sites"}, identifiers)
	assert.Equal(t, "Points", resolved[2].Title)
}

func TestResolveDatasetConfigsPropagatesConfigError(t *testing.T) {
	registry := store.NewRegistry()
	require.NoError(t, memstore.Register(registry))

	pool := store.NewPool(registry)
	require.NoError(t, pool.AddStoreConfig("S1", store.InstanceConfig{
		StoreKind: memstore.StoreKind,
		Params:    map[string]any{"datasets": []memstore.Dataset{{ID: "regions_2020"}}},
		UserData:  []config.DatasetConfig{{Path: "regions_*", Identifier: "shared"}},
	}))

	_, err := ResolveDatasetConfigs(context.Background(), pool, nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestResolveDatasetConfigsSkipsStoresWithoutDatasets(t *testing.T) {
	registry := store.NewRegistry()
	require.NoError(t, memstore.Register(registry))

	pool := store.NewPool(registry)
	require.NoError(t, pool.AddStoreConfig("S1", store.InstanceConfig{StoreKind: memstore.StoreKind}))

	resolved, err := ResolveDatasetConfigs(context.Background(), pool, nil)
	require.NoError(t, err)
	assert.Empty(t, resolved)
}
