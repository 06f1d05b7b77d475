// Package fs provides a filesystem-backed data store. Each dataset is a
// cube document (a "*.vdc.json" file) holding named coordinates — geometry
// coordinates as GeoJSON geometries — and data variables, all aligned along
// one dimension.
package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/xcube-dev/xcube-vdc-places/cube"
	"github.com/xcube-dev/xcube-vdc-places/errors"
	"github.com/xcube-dev/xcube-vdc-places/store"
)

// StoreKind is the factory name this store registers under.
const StoreKind = "file"

// OpenerID is the vector-data-cube opener advertised for cube documents.
const OpenerID = "vectordatacube:geojson:file"

// docExt is the file extension identifying cube documents.
const docExt = ".vdc.json"

// Store serves cube documents from a root directory. Dataset ids are
// root-relative paths with the document extension trimmed; enumeration
// order is the lexical walk order.
type Store struct {
	root string
}

// New creates a store rooted at the given directory.
func New(root string) (*Store, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.WrapInvalid(err, "FileStore", "New", fmt.Sprintf("stat root %q", root))
	}
	if !info.IsDir() {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "FileStore", "New",
			fmt.Sprintf("root %q is not a directory", root))
	}
	return &Store{root: root}, nil
}

// Register registers the file store factory with the given registry.
// The factory requires a "root" parameter naming the data directory.
func Register(registry *store.Registry) error {
	return registry.RegisterFactory(StoreKind, func(params map[string]any) (store.DataStore, error) {
		root, ok := params["root"].(string)
		if !ok || root == "" {
			return nil, errors.WrapInvalid(errors.ErrMissingConfig, "FileStore", "Register",
				"root parameter is required")
		}
		return New(root)
	})
}

// ListDataIDs enumerates cube documents under the root in lexical order.
// Only the vector-data-cube capability is served.
func (s *Store) ListDataIDs(_ context.Context, capability store.Capability) ([]string, error) {
	if capability != store.CapabilityVectorDataCube {
		return nil, nil
	}

	var ids []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), docExt) {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		ids = append(ids, strings.TrimSuffix(filepath.ToSlash(rel), docExt))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "FileStore", "ListDataIDs", "walk root")
	}
	return ids, nil
}

// Openers lists the openers for a dataset id.
func (s *Store) Openers(_ context.Context, dataID string) ([]store.Opener, error) {
	if _, err := os.Stat(s.docPath(dataID)); err != nil {
		return nil, errors.WrapInvalid(errors.ErrDatasetNotFound, "FileStore", "Openers",
			fmt.Sprintf("dataset %q", dataID))
	}
	return []store.Opener{{ID: OpenerID, Capability: store.CapabilityVectorDataCube}}, nil
}

// Open reads and decodes the cube document for a dataset id.
func (s *Store) Open(_ context.Context, dataID, openerID string, _ map[string]any) (*cube.Cube, error) {
	if openerID != OpenerID {
		return nil, errors.WrapInvalid(errors.ErrNoOpener, "FileStore", "Open",
			fmt.Sprintf("opener %q for dataset %q", openerID, dataID))
	}

	data, err := os.ReadFile(s.docPath(dataID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapInvalid(errors.ErrDatasetNotFound, "FileStore", "Open",
				fmt.Sprintf("dataset %q", dataID))
		}
		return nil, errors.Wrap(err, "FileStore", "Open", fmt.Sprintf("read dataset %q", dataID))
	}

	return decodeCubeDocument(data)
}

// Close releases resources; the file store holds none.
func (s *Store) Close() error {
	return nil
}

func (s *Store) docPath(dataID string) string {
	return filepath.Join(s.root, filepath.FromSlash(dataID)+docExt)
}

// cubeDocument is the on-disk cube representation.
type cubeDocument struct {
	Coords   []coordDocument `json:"coords"`
	DataVars []varDocument   `json:"data_vars,omitempty"`
}

type coordDocument struct {
	Name       string              `json:"name"`
	Values     []any               `json:"values,omitempty"`
	Geometries []*geojson.Geometry `json:"geometries,omitempty"`
}

type varDocument struct {
	Name   string `json:"name"`
	Values []any  `json:"values"`
}

// decodeCubeDocument parses a cube document into the in-memory cube model.
func decodeCubeDocument(data []byte) (*cube.Cube, error) {
	var doc cubeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapInvalid(err, "FileStore", "decodeCubeDocument", "parse cube document")
	}

	coords := make([]cube.Coordinate, len(doc.Coords))
	for i, cd := range doc.Coords {
		coord := cube.Coordinate{Name: cd.Name, Values: cd.Values}
		if cd.Geometries != nil {
			geoms := make([]orb.Geometry, len(cd.Geometries))
			for j, g := range cd.Geometries {
				if g == nil {
					return nil, errors.WrapInvalid(errors.ErrInvalidData, "FileStore", "decodeCubeDocument",
						fmt.Sprintf("coordinate %q has a null geometry at index %d", cd.Name, j))
				}
				geoms[j] = g.Geometry()
			}
			coord.Geometries = geoms
		}
		coords[i] = coord
	}

	dataVars := make([]cube.DataVar, len(doc.DataVars))
	for i, vd := range doc.DataVars {
		dataVars[i] = cube.DataVar{Name: vd.Name, Values: vd.Values}
	}

	c, err := cube.New(coords, dataVars...)
	if err != nil {
		return nil, errors.WrapInvalid(err, "FileStore", "decodeCubeDocument", "validate cube document")
	}
	return c, nil
}
