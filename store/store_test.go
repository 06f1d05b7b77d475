package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xcube-dev/xcube-vdc-places/errors"
	"github.com/xcube-dev/xcube-vdc-places/store"
	"github.com/xcube-dev/xcube-vdc-places/store/memstore"
)

func TestRegistryRegisterFactory(t *testing.T) {
	tests := []struct {
		name      string
		storeKind string
		factory   store.Factory
		wantErr   bool
	}{
		{
			name:      "valid factory",
			storeKind: "memory",
			factory:   func(map[string]any) (store.DataStore, error) { return memstore.New(), nil },
		},
		{
			name:      "empty kind",
			storeKind: "",
			factory:   func(map[string]any) (store.DataStore, error) { return memstore.New(), nil },
			wantErr:   true,
		},
		{
			name:      "nil factory",
			storeKind: "memory",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := store.NewRegistry()
			err := registry.RegisterFactory(tt.storeKind, tt.factory)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalid(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{tt.storeKind}, registry.Kinds())
		})
	}
}

func TestRegistryDuplicateFactory(t *testing.T) {
	registry := store.NewRegistry()
	require.NoError(t, memstore.Register(registry))

	err := memstore.Register(registry)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestRegistryNewStoreUnknownKind(t *testing.T) {
	registry := store.NewRegistry()
	_, err := registry.NewStore("nope", nil)
	assert.ErrorIs(t, err, errors.ErrStoreNotFound)
}

func TestPoolOrderAndLaziness(t *testing.T) {
	registry := store.NewRegistry()
	require.NoError(t, memstore.Register(registry))

	pool := store.NewPool(registry)
	require.NoError(t, pool.AddStoreConfig("S2", store.InstanceConfig{StoreKind: memstore.StoreKind}))
	require.NoError(t, pool.AddStoreConfig("S1", store.InstanceConfig{StoreKind: memstore.StoreKind}))

	// Insertion order, not lexical order.
	assert.Equal(t, []string{"S2", "S1"}, pool.StoreInstanceIDs())

	first, err := pool.GetStore("S1")
	require.NoError(t, err)
	second, err := pool.GetStore("S1")
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.NoError(t, pool.Close())
}

func TestPoolRejectsDuplicateInstance(t *testing.T) {
	pool := store.NewPool(store.NewRegistry())
	require.NoError(t, pool.AddStoreConfig("S1", store.InstanceConfig{StoreKind: "memory"}))

	err := pool.AddStoreConfig("S1", store.InstanceConfig{StoreKind: "memory"})
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestPoolUnknownInstance(t *testing.T) {
	pool := store.NewPool(store.NewRegistry())
	_, err := pool.GetStore("missing")
	assert.ErrorIs(t, err, errors.ErrStoreNotFound)

	_, ok := pool.GetStoreConfig("missing")
	assert.False(t, ok)
}

func TestPoolCarriesUserData(t *testing.T) {
	pool := store.NewPool(store.NewRegistry())
	require.NoError(t, pool.AddStoreConfig("S1", store.InstanceConfig{
		StoreKind: "memory",
		UserData:  []string{"regions_*"},
	}))

	cfg, ok := pool.GetStoreConfig("S1")
	require.True(t, ok)
	assert.Equal(t, []string{"regions_*"}, cfg.UserData)
}
