package places

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/xcube-dev/xcube-vdc-places/cube"
	"github.com/xcube-dev/xcube-vdc-places/errors"
	"github.com/xcube-dev/xcube-vdc-places/pkg/cache"
)

// baseURLPlaceholder is substituted in property-mapping values so mappings
// can point at server-hosted resources without hard-coding the address.
const baseURLPlaceholder = "${base_url}"

// Context is the places collaborator: it derives place-group ids, owns the
// place-group cache, and tracks which datasets each registered group is
// offered alongside.
type Context struct {
	logger *slog.Logger
	cache  cache.Cache[*PlaceGroup]

	mu         sync.Mutex
	groups     []*PlaceGroup
	seen       map[string]bool
	byDataset  map[string][]*PlaceGroup
	associated map[string]map[string]bool
}

// NewContext creates a places context. Cache options (metrics, eviction
// callbacks) are passed through to the underlying place-group cache.
func NewContext(logger *slog.Logger, options ...cache.Option[*PlaceGroup]) (*Context, error) {
	if logger == nil {
		logger = slog.Default()
	}
	groupCache, err := cache.NewSimple[*PlaceGroup](options...)
	if err != nil {
		return nil, errors.Wrap(err, "PlacesContext", "NewContext", "create place-group cache")
	}
	return &Context{
		logger:     logger.With("component", "places"),
		cache:      groupCache,
		seen:       make(map[string]bool),
		byDataset:  make(map[string][]*PlaceGroup),
		associated: make(map[string]map[string]bool),
	}, nil
}

// GroupID derives the stable place-group id from an attributes mapping. The
// mapping must declare a non-empty Identifier.
func (c *Context) GroupID(attrs map[string]any) (string, error) {
	id, ok := attrs["Identifier"].(string)
	if !ok || id == "" {
		return "", errors.WrapInvalid(errors.ErrMissingConfig, "PlacesContext", "GroupID",
			"place group attributes must declare an Identifier")
	}
	return id, nil
}

// CachedPlaceGroup returns the cached place group for an id, if any.
func (c *Context) CachedPlaceGroup(id string) (*PlaceGroup, bool) {
	return c.cache.Get(id)
}

// StorePlaceGroupIfAbsent caches the group under its id unless an entry
// already exists. It returns the group now cached under the id and whether
// the given group was stored.
func (c *Context) StorePlaceGroupIfAbsent(group *PlaceGroup) (*PlaceGroup, bool, error) {
	cached, stored, err := c.cache.SetIfAbsent(group.ID, group)
	if err != nil {
		return nil, false, errors.Wrap(err, "PlacesContext", "StorePlaceGroupIfAbsent",
			fmt.Sprintf("cache place group %q", group.ID))
	}
	return cached, stored, nil
}

// PropertyMapping computes the group's property mapping from its attributes,
// substituting the base-URL placeholder in mapping values. Returns nil when
// the attributes declare no mapping.
func (c *Context) PropertyMapping(baseURL string, attrs map[string]any) map[string]string {
	raw, ok := attrs["PropertyMapping"].(map[string]string)
	if !ok || len(raw) == 0 {
		return nil
	}
	mapping := make(map[string]string, len(raw))
	for name, field := range raw {
		mapping[name] = strings.ReplaceAll(field, baseURLPlaceholder, baseURL)
	}
	return mapping
}

// CheckSubGroupConfigs validates that a feature-derived group declares no
// nested sub-group configuration, which only reference place groups may
// carry.
func (c *Context) CheckSubGroupConfigs(attrs map[string]any) error {
	if _, ok := attrs["PlaceGroups"]; ok {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "PlacesContext", "CheckSubGroupConfigs",
			"nested place groups are not supported for dataset-derived place groups")
	}
	return nil
}

// AddPlaceGroup registers a group with the datasets it is offered alongside.
// Registering the same group id again only extends the dataset association.
func (c *Context) AddPlaceGroup(group *PlaceGroup, datasetIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.seen[group.ID] {
		c.seen[group.ID] = true
		c.groups = append(c.groups, group)
	}
	for _, datasetID := range datasetIDs {
		if c.associated[datasetID] == nil {
			c.associated[datasetID] = make(map[string]bool)
		}
		if c.associated[datasetID][group.ID] {
			continue
		}
		c.associated[datasetID][group.ID] = true
		c.byDataset[datasetID] = append(c.byDataset[datasetID], group)
	}

	c.logger.Debug("registered place group",
		"group_id", group.ID, "datasets", len(datasetIDs), "populated", group.Populated())
}

// PlaceGroups returns the registered groups in registration order.
func (c *Context) PlaceGroups() []*PlaceGroup {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*PlaceGroup(nil), c.groups...)
}

// DatasetPlaceGroups returns the groups associated with a dataset id.
func (c *Context) DatasetPlaceGroups(datasetID string) []*PlaceGroup {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*PlaceGroup(nil), c.byDataset[datasetID]...)
}

// CacheStats exposes the place-group cache statistics.
func (c *Context) CacheStats() *cache.Statistics {
	return c.cache.Stats()
}

// NormalizeFeatureTimes applies the time-field normalizer to every feature
// in the list, in place.
func NormalizeFeatureTimes(features []cube.Feature) error {
	for i := range features {
		if err := NormalizeTimeField(features[i].Properties); err != nil {
			return err
		}
	}
	return nil
}
