package vdc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gobwas/glob"

	"github.com/xcube-dev/xcube-vdc-places/config"
	"github.com/xcube-dev/xcube-vdc-places/errors"
	"github.com/xcube-dev/xcube-vdc-places/store"
)

// matchAllPattern is resolved for dataset entries that declare no Path.
const matchAllPattern = "*"

// expandDatasetConfig expands one declarative dataset entry into resolved
// dataset configs. A literal path emits exactly one config, keeping any
// user identifier. A wildcard path emits one config per advertised dataset
// id matching the pattern, in advertisement order, each with a synthesized
// identifier; a user identifier on a wildcard entry is a configuration
// error because one identifier cannot label multiple matched datasets.
func expandDatasetConfig(storeInstanceID string, entry config.DatasetConfig, advertised []string) ([]config.DatasetConfig, error) {
	path := entry.Path
	if path == "" {
		path = matchAllPattern
	}

	if !IsWildcard(path) {
		resolved := entry.Clone()
		resolved.Path = path
		resolved.StoreInstanceID = storeInstanceID
		if resolved.Identifier == "" {
			resolved.Identifier = SynthesizeID(storeInstanceID, path)
		}
		return []config.DatasetConfig{resolved}, nil
	}

	if entry.Identifier != "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Resolver", "expandDatasetConfig",
			fmt.Sprintf("user-defined identifiers can only be assigned to datasets with non-wildcard paths (pattern %q)", path))
	}

	pattern, err := glob.Compile(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Resolver", "expandDatasetConfig",
			fmt.Sprintf("compile dataset path pattern %q", path))
	}

	var resolved []config.DatasetConfig
	for _, dataID := range advertised {
		if !pattern.Match(dataID) {
			continue
		}
		cfg := entry.Clone()
		cfg.Path = dataID
		cfg.StoreInstanceID = storeInstanceID
		cfg.Identifier = SynthesizeID(storeInstanceID, dataID)
		resolved = append(resolved, cfg)
	}
	return resolved, nil
}

// ResolveDatasetConfigs scans every configured store instance in pool order
// and expands its dataset entries in configured order, producing the
// authoritative ordered list of cubes to load for the current configuration
// generation. The store's advertised dataset ids are fetched at most once
// per store, and only when a wildcard entry needs them.
func ResolveDatasetConfigs(ctx context.Context, pool *store.Pool, logger *slog.Logger) ([]config.DatasetConfig, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var all []config.DatasetConfig
	for _, instanceID := range pool.StoreInstanceIDs() {
		logger.Info("scanning store", "store_instance_id", instanceID)

		storeConfig, ok := pool.GetStoreConfig(instanceID)
		if !ok {
			return nil, errors.WrapInvalid(errors.ErrStoreNotFound, "Resolver", "ResolveDatasetConfigs",
				fmt.Sprintf("unknown store instance %q", instanceID))
		}
		entries, _ := storeConfig.UserData.([]config.DatasetConfig)
		if len(entries) == 0 {
			continue
		}

		var advertised []string
		advertisedFetched := false

		for _, entry := range entries {
			if IsWildcard(entry.Path) || entry.Path == "" {
				if !advertisedFetched {
					handle, err := pool.GetStore(instanceID)
					if err != nil {
						return nil, err
					}
					advertised, err = handle.ListDataIDs(ctx, store.CapabilityVectorDataCube)
					if err != nil {
						return nil, errors.Wrap(err, "Resolver", "ResolveDatasetConfigs",
							fmt.Sprintf("list dataset ids of store %q", instanceID))
					}
					advertisedFetched = true
				}
			}

			resolved, err := expandDatasetConfig(instanceID, entry, advertised)
			if err != nil {
				return nil, err
			}
			for _, cfg := range resolved {
				logger.Debug("selected dataset", "identifier", cfg.Identifier, "path", cfg.Path)
			}
			all = append(all, resolved...)
		}
	}
	return all, nil
}
