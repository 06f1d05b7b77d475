// Package vdcplaces turns a declarative, possibly-wildcarded configuration
// of data-store references into cached, servable place groups: named,
// attributed collections of geographic features loaded from vector data
// cubes.
//
// # Architecture
//
// The pipeline runs to completion as one unit of work on configuration
// apply:
//
//	┌──────────────────────────────┐
//	│       Config Resolver        │  wildcard expansion,
//	│  (vdc.ResolveDatasetConfigs) │  identifier synthesis
//	└──────────────┬───────────────┘
//	               ↓ resolved dataset configs
//	┌──────────────────────────────┐
//	│   Cube Opener + Transform    │  capability-based opener
//	│      (vdc loader)            │  selection, optional Split
//	└──────────────┬───────────────┘
//	               ↓ feature sets
//	┌──────────────────────────────┐
//	│  Place Group Materializer    │  cached, populated
//	│   (vdc.Context + places)     │  exactly once
//	└──────────────────────────────┘
//
// # Packages
//
// Domain:
//   - vdc: config resolution, cube opening, the split transform, and
//     place-group materialization
//   - places: place groups, the places context, and the time-field
//     normalizer
//   - cube: the in-memory vector data cube and feature set model
//   - store: the data-store abstraction (capability-tagged openers,
//     factory registry, instance pool)
//   - store/fs: filesystem-backed store serving GeoJSON cube documents
//   - store/memstore: in-memory store for tests and embedders
//
// Infrastructure:
//   - config: YAML configuration with environment overrides
//   - errors: classified error handling
//   - metric: Prometheus metrics registry
//   - pkg/cache: generic cache backing place-group materialization
//
// # Binary
//
// Build and run the server:
//
//	go build -o bin/vdc-places ./cmd/vdc-places
//	./bin/vdc-places --config configs/example.yaml
//
// The binary materializes all configured place groups, then serves them at
// /places with Prometheus metrics at /metrics.
package vdcplaces
