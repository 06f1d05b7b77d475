package vdc

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/xcube-dev/xcube-vdc-places/config"
	"github.com/xcube-dev/xcube-vdc-places/cube"
	"github.com/xcube-dev/xcube-vdc-places/errors"
	"github.com/xcube-dev/xcube-vdc-places/metric"
	"github.com/xcube-dev/xcube-vdc-places/places"
	"github.com/xcube-dev/xcube-vdc-places/store"
)

// Context runs the resolve-load-materialize pipeline for one configuration
// generation. It owns the store pool built from the configuration and holds
// the authoritative ordered list of resolved dataset configs; place groups
// are cached and registered through the places collaborator.
type Context struct {
	cfg      *config.Config
	pool     *store.Pool
	places   *places.Context
	logger   *slog.Logger
	metrics  *pipelineMetrics
	resolved []config.DatasetConfig
}

// Option configures a pipeline context.
type Option func(*Context) error

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) error {
		c.logger = logger
		return nil
	}
}

// WithMetrics registers pipeline counters with the given metrics registry.
func WithMetrics(registry metric.MetricsRegistrar) Option {
	return func(c *Context) error {
		m, err := newPipelineMetrics(registry)
		if err != nil {
			return errors.Wrap(err, "Context", "WithMetrics", "register pipeline metrics")
		}
		c.metrics = m
		return nil
	}
}

// New validates the configuration, builds the store pool from its store
// entries, and resolves all dataset configs. Configuration defects abort
// construction; per-dataset load failures are deferred to UpdatePlaces.
func New(ctx context.Context, cfg *config.Config, registry *store.Registry, placesCtx *places.Context, options ...Option) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Context{
		cfg:    cfg,
		places: placesCtx,
		logger: slog.Default(),
	}
	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "vdc")

	pool := store.NewPool(registry)
	for _, sc := range cfg.VectorDataCubeStores {
		datasets := make([]config.DatasetConfig, len(sc.Datasets))
		for i, ds := range sc.Datasets {
			datasets[i] = ds.Clone()
		}
		err := pool.AddStoreConfig(sc.Identifier, store.InstanceConfig{
			StoreKind: sc.StoreID,
			Params:    sc.StoreParams,
			UserData:  datasets,
		})
		if err != nil {
			return nil, err
		}
	}
	c.pool = pool

	resolved, err := ResolveDatasetConfigs(ctx, pool, c.logger)
	if err != nil {
		return nil, err
	}
	c.resolved = resolved
	c.metrics.addDatasetsResolved(len(resolved))

	c.logger.Info("resolved dataset configs", "count", len(resolved))
	return c, nil
}

// DatasetConfigs returns the resolved dataset configs in resolution order.
func (c *Context) DatasetConfigs() []config.DatasetConfig {
	out := make([]config.DatasetConfig, len(c.resolved))
	for i, cfg := range c.resolved {
		out[i] = cfg.Clone()
	}
	return out
}

// Pool returns the store pool owned by this context.
func (c *Context) Pool() *store.Pool {
	return c.pool
}

// UpdatePlaces runs one full materialization pass: it loads every resolved
// dataset into feature sets and materializes each as a cached place group.
// Re-running against an unchanged configuration is idempotent: populated
// place groups are detected and left untouched. Configuration errors abort
// the pass; per-dataset load failures are aggregated into the returned
// error after all loadable datasets have been processed.
func (c *Context) UpdatePlaces(ctx context.Context) error {
	if len(c.resolved) == 0 {
		return nil
	}

	runID := uuid.NewString()
	logger := c.logger.With("run_id", runID)
	start := time.Now()

	logger.Debug("reading vector data cubes")
	sets, loadErr := c.LoadFeatureSets(ctx)
	logger.Debug("finished reading vector data cubes", "feature_sets", len(sets))

	for _, fs := range sets {
		group, err := c.createPlaceGroup(fs)
		if err != nil {
			// Keep the per-dataset load failures visible alongside the
			// aborting configuration error.
			return stderrors.Join(loadErr, err)
		}

		datasetIDs, _ := fs.Attr("DatasetRefs").([]string)
		if datasetIDs == nil {
			datasetIDs = []string{}
		}
		c.places.AddPlaceGroup(group, datasetIDs)
	}

	logger.Info("place groups updated",
		"feature_sets", len(sets),
		"place_groups", len(c.places.PlaceGroups()),
		"duration", time.Since(start))
	return loadErr
}

// createPlaceGroup materializes one feature set as a place group: it
// derives the group id, caches a new unpopulated group when none exists,
// and populates the cached group's features exactly once, normalizing each
// feature's time field.
func (c *Context) createPlaceGroup(fs *cube.FeatureSet) (*places.PlaceGroup, error) {
	if ref, ok := fs.Attrs["PlaceGroupRef"]; ok {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Context", "createPlaceGroup",
			fmt.Sprintf("dataset-derived place groups cannot declare a PlaceGroupRef (found %v)", ref))
	}

	groupID, err := c.places.GroupID(fs.Attrs)
	if err != nil {
		return nil, err
	}

	group, ok := c.places.CachedPlaceGroup(groupID)
	if !ok {
		if err := c.places.CheckSubGroupConfigs(fs.Attrs); err != nil {
			return nil, err
		}
		title := fs.StringAttr("Title", groupID)
		propertyMapping := c.places.PropertyMapping(c.cfg.BaseURL(), fs.Attrs)
		sourceEncoding := fs.StringAttr("CharacterEncoding", places.DefaultSourceEncoding)

		group, _, err = c.places.StorePlaceGroupIfAbsent(
			places.NewPlaceGroup(groupID, title, propertyMapping, sourceEncoding))
		if err != nil {
			return nil, err
		}
		c.metrics.incPlaceGroupsCreated()
	}

	if !group.Populated() {
		features := append([]cube.Feature(nil), fs.Features...)
		if err := places.NormalizeFeatureTimes(features); err != nil {
			return nil, err
		}
		if group.SetFeatures(features) {
			c.metrics.addFeaturesLoaded(len(features))
		}
	}
	return group, nil
}

// Close releases the store handles held by the pool.
func (c *Context) Close() error {
	if c.pool == nil {
		return nil
	}
	return c.pool.Close()
}
