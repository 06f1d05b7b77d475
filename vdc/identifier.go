// Package vdc implements the vector-data-cube places pipeline: wildcard
// dataset expansion with identifier synthesis, capability-based cube
// opening, the cube-to-feature-set transform with optional splitting, and
// idempotent place-group materialization.
package vdc

import "strings"

// IDSeparator joins a store instance id and a dataset path into a composite
// dataset identifier. Store instance ids containing it are rejected at
// configuration validation so synthesized identifiers cannot collide.
const IDSeparator = "~"

// SynthesizeID builds the composite dataset identifier for a dataset path
// within a store instance.
func SynthesizeID(storeInstanceID, datasetPath string) string {
	return storeInstanceID + IDSeparator + datasetPath
}

// IsWildcard reports whether a dataset path is a shell-style pattern rather
// than a literal dataset id.
func IsWildcard(path string) bool {
	return strings.ContainsAny(path, "*?")
}
