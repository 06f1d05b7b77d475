// Package config defines the server configuration consumed by the
// vector-data-cube places pipeline: an ordered list of data store entries,
// each owning an ordered list of declarative dataset entries whose paths may
// be literal dataset ids or wildcard patterns.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xcube-dev/xcube-vdc-places/errors"
)

// storeIDSeparator is the reserved character used when composite dataset
// identifiers are synthesized from a store instance id and a dataset path.
// Store instance ids containing it are rejected so synthesized identifiers
// cannot collide.
const storeIDSeparator = "~"

// Config represents the server configuration relevant to this subsystem.
// Address and Port are only used to build the base URL handed to the
// property-mapping collaborator.
type Config struct {
	Address              string        `yaml:"address"              json:"address"`
	Port                 int           `yaml:"port"                 json:"port"`
	VectorDataCubeStores []StoreConfig `yaml:"VectorDataCubeStores" json:"VectorDataCubeStores"`
}

// StoreConfig is one configured backing store together with its declarative
// dataset entries.
type StoreConfig struct {
	Identifier  string          `yaml:"Identifier"            json:"Identifier"`
	StoreID     string          `yaml:"StoreId"               json:"StoreId"`
	StoreParams map[string]any  `yaml:"StoreParams,omitempty" json:"StoreParams,omitempty"`
	Datasets    []DatasetConfig `yaml:"Datasets,omitempty"    json:"Datasets,omitempty"`
}

// AccessControl mirrors the pass-through access-control metadata block.
type AccessControl struct {
	IsSubstitute   bool     `yaml:"IsSubstitute,omitempty"   json:"IsSubstitute,omitempty"`
	RequiredScopes []string `yaml:"RequiredScopes,omitempty" json:"RequiredScopes,omitempty"`
}

// DatasetConfig is one declarative dataset entry. Path is mandatory and may
// be a literal dataset id or a wildcard pattern ('*', '?'). StoreInstanceID
// is assigned by the resolver, never by the user. All descriptive fields are
// pass-through metadata copied verbatim onto feature-set attributes.
type DatasetConfig struct {
	Path              string            `yaml:"Path"                        json:"Path"`
	Identifier        string            `yaml:"Identifier,omitempty"        json:"Identifier,omitempty"`
	StoreInstanceID   string            `yaml:"StoreInstanceId,omitempty"   json:"StoreInstanceId,omitempty"`
	Title             string            `yaml:"Title,omitempty"             json:"Title,omitempty"`
	DatasetRefs       []string          `yaml:"DatasetRefs,omitempty"       json:"DatasetRefs,omitempty"`
	Split             bool              `yaml:"Split,omitempty"             json:"Split,omitempty"`
	LabelCoord        string            `yaml:"LabelCoord,omitempty"        json:"LabelCoord,omitempty"`
	StoreOpenParams   map[string]any    `yaml:"StoreOpenParams,omitempty"   json:"StoreOpenParams,omitempty"`
	CharacterEncoding string            `yaml:"CharacterEncoding,omitempty" json:"CharacterEncoding,omitempty"`
	PlaceGroupRef     string            `yaml:"PlaceGroupRef,omitempty"     json:"PlaceGroupRef,omitempty"`
	PropertyMapping   map[string]string `yaml:"PropertyMapping,omitempty"   json:"PropertyMapping,omitempty"`
	Tags              []string          `yaml:"Tags,omitempty"              json:"Tags,omitempty"`
	Variables         []string          `yaml:"Variables,omitempty"         json:"Variables,omitempty"`
	BoundingBox       []float64         `yaml:"BoundingBox,omitempty"       json:"BoundingBox,omitempty"`
	Hidden            bool              `yaml:"Hidden,omitempty"            json:"Hidden,omitempty"`
	AccessControl     *AccessControl    `yaml:"AccessControl,omitempty"     json:"AccessControl,omitempty"`
	Attribution       any               `yaml:"Attribution,omitempty"       json:"Attribution,omitempty"`
}

// Clone returns an independent deep copy. Resolved dataset configs are always
// copies, never aliases into the configuration tree.
func (d DatasetConfig) Clone() DatasetConfig {
	out := d
	if d.DatasetRefs != nil {
		out.DatasetRefs = append([]string(nil), d.DatasetRefs...)
	}
	if d.Tags != nil {
		out.Tags = append([]string(nil), d.Tags...)
	}
	if d.Variables != nil {
		out.Variables = append([]string(nil), d.Variables...)
	}
	if d.BoundingBox != nil {
		out.BoundingBox = append([]float64(nil), d.BoundingBox...)
	}
	if d.StoreOpenParams != nil {
		out.StoreOpenParams = make(map[string]any, len(d.StoreOpenParams))
		for k, v := range d.StoreOpenParams {
			out.StoreOpenParams[k] = v
		}
	}
	if d.PropertyMapping != nil {
		out.PropertyMapping = make(map[string]string, len(d.PropertyMapping))
		for k, v := range d.PropertyMapping {
			out.PropertyMapping[k] = v
		}
	}
	if d.AccessControl != nil {
		ac := *d.AccessControl
		if d.AccessControl.RequiredScopes != nil {
			ac.RequiredScopes = append([]string(nil), d.AccessControl.RequiredScopes...)
		}
		out.AccessControl = &ac
	}
	return out
}

// Attributes returns the dataset entry as an attributes mapping keyed by the
// configuration field names. Only set fields are included. This mapping is
// carried onto feature sets and consumed by the place-group materializer.
func (d DatasetConfig) Attributes() map[string]any {
	attrs := make(map[string]any)
	attrs["Path"] = d.Path
	if d.Identifier != "" {
		attrs["Identifier"] = d.Identifier
	}
	if d.StoreInstanceID != "" {
		attrs["StoreInstanceId"] = d.StoreInstanceID
	}
	if d.Title != "" {
		attrs["Title"] = d.Title
	}
	if d.DatasetRefs != nil {
		attrs["DatasetRefs"] = append([]string(nil), d.DatasetRefs...)
	}
	if d.Split {
		attrs["Split"] = d.Split
	}
	if d.LabelCoord != "" {
		attrs["LabelCoord"] = d.LabelCoord
	}
	if d.StoreOpenParams != nil {
		params := make(map[string]any, len(d.StoreOpenParams))
		for k, v := range d.StoreOpenParams {
			params[k] = v
		}
		attrs["StoreOpenParams"] = params
	}
	if d.CharacterEncoding != "" {
		attrs["CharacterEncoding"] = d.CharacterEncoding
	}
	if d.PlaceGroupRef != "" {
		attrs["PlaceGroupRef"] = d.PlaceGroupRef
	}
	if d.PropertyMapping != nil {
		pm := make(map[string]string, len(d.PropertyMapping))
		for k, v := range d.PropertyMapping {
			pm[k] = v
		}
		attrs["PropertyMapping"] = pm
	}
	if d.Tags != nil {
		attrs["Tags"] = append([]string(nil), d.Tags...)
	}
	if d.Variables != nil {
		attrs["Variables"] = append([]string(nil), d.Variables...)
	}
	if d.BoundingBox != nil {
		attrs["BoundingBox"] = append([]float64(nil), d.BoundingBox...)
	}
	if d.Hidden {
		attrs["Hidden"] = d.Hidden
	}
	if d.AccessControl != nil {
		attrs["AccessControl"] = d.AccessControl
	}
	if d.Attribution != nil {
		attrs["Attribution"] = d.Attribution
	}
	return attrs
}

// Validate checks the static configuration invariants. Dataset-level rules
// that depend on store contents (wildcard expansion) are enforced by the
// resolver, not here.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.VectorDataCubeStores))
	for i, store := range c.VectorDataCubeStores {
		if store.Identifier == "" {
			return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate",
				fmt.Sprintf("VectorDataCubeStores[%d]: Identifier is required", i))
		}
		if strings.Contains(store.Identifier, storeIDSeparator) {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				fmt.Sprintf("store identifier %q must not contain %q", store.Identifier, storeIDSeparator))
		}
		if store.StoreID == "" {
			return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate",
				fmt.Sprintf("store %q: StoreId is required", store.Identifier))
		}
		if seen[store.Identifier] {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				fmt.Sprintf("duplicate store identifier %q", store.Identifier))
		}
		seen[store.Identifier] = true

		for j, ds := range store.Datasets {
			// Path is required by the schema; an empty Path is resolved as
			// the match-all pattern, so only flag entries that also carry a
			// user identifier, which would be ambiguous.
			if ds.Path == "" && ds.Identifier != "" {
				return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
					fmt.Sprintf("store %q dataset[%d]: Identifier requires a literal Path", store.Identifier, j))
			}
			if ds.StoreInstanceID != "" {
				return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
					fmt.Sprintf("store %q dataset[%d]: StoreInstanceId is assigned by the server", store.Identifier, j))
			}
		}
	}
	return nil
}

// BaseURL builds the server base URL handed to the property-mapping
// collaborator.
func (c *Config) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Address, c.Port)
}

// Loader handles configuration loading with environment overrides.
type Loader struct {
	envPrefix  string
	validation bool
}

// NewLoader creates a new configuration loader with validation enabled.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "VDC_PLACES",
		validation: true,
	}
}

// EnableValidation enables or disables configuration validation.
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a YAML or JSON file.
func (l *Loader) LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Loader", "LoadFile", fmt.Sprintf("read %s", path))
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapInvalid(err, "Loader", "LoadFile", fmt.Sprintf("parse %s", path))
	}

	l.applyEnvOverrides(cfg)

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// defaults returns the default configuration.
func defaults() *Config {
	return &Config{
		Address: "0.0.0.0",
		Port:    8080,
	}
}

// applyEnvOverrides applies environment variable overrides.
func (l *Loader) applyEnvOverrides(cfg *Config) {
	if val := os.Getenv(l.envPrefix + "_ADDRESS"); val != "" {
		cfg.Address = val
	}
	if val := os.Getenv(l.envPrefix + "_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Port = port
		}
	}
}
