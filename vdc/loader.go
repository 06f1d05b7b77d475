package vdc

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/xcube-dev/xcube-vdc-places/config"
	"github.com/xcube-dev/xcube-vdc-places/cube"
	"github.com/xcube-dev/xcube-vdc-places/errors"
	"github.com/xcube-dev/xcube-vdc-places/store"
)

// openCube opens the cube behind a resolved dataset config using the first
// opener the store advertises with the vector-data-cube capability. A
// dataset with no such opener is not an error: it is skipped with ok=false.
func (c *Context) openCube(ctx context.Context, handle store.DataStore, resolved config.DatasetConfig) (*cube.Cube, bool, error) {
	openers, err := handle.Openers(ctx, resolved.Path)
	if err != nil {
		return nil, false, errors.Wrap(err, "Loader", "openCube",
			fmt.Sprintf("list openers of dataset %q", resolved.Identifier))
	}

	for _, opener := range openers {
		if opener.Capability != store.CapabilityVectorDataCube {
			continue
		}
		opened, err := handle.Open(ctx, resolved.Path, opener.ID, resolved.StoreOpenParams)
		if err != nil {
			return nil, false, errors.Wrap(err, "Loader", "openCube",
				fmt.Sprintf("open dataset %q with opener %q", resolved.Identifier, opener.ID))
		}
		c.metrics.incCubesOpened()
		return opened, true, nil
	}

	c.logger.Debug("no vector data cube opener found, skipping dataset",
		"identifier", resolved.Identifier, "path", resolved.Path)
	c.metrics.incOpenerMisses()
	return nil, false, nil
}

// cubeToFeatureSets converts an opened cube into one or more feature sets.
// Without Split the whole cube becomes one feature set carrying the
// resolved config's attributes verbatim. With Split the cube is sliced
// along its first geometry coordinate, one feature set per index, each with
// Title and Identifier rewritten with a disambiguating extension: the label
// value when a distinct LabelCoord is configured, else the 1-based index.
func cubeToFeatureSets(opened *cube.Cube, resolved config.DatasetConfig) ([]*cube.FeatureSet, error) {
	geomCoords := opened.GeomCoords()
	if len(geomCoords) == 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "Loader", "cubeToFeatureSets",
			fmt.Sprintf("dataset %q has no geometry coordinate", resolved.Identifier))
	}
	geomName := geomCoords[0]

	if !resolved.Split {
		fs, err := opened.ToFeatureSet(geomName)
		if err != nil {
			return nil, err
		}
		fs.Attrs = resolved.Attributes()
		return []*cube.FeatureSet{fs}, nil
	}

	labelName := resolved.LabelCoord
	useLabels := labelName != "" && labelName != geomName
	if labelName == "" {
		labelName = geomName
	}
	labelCoord, ok := opened.Coord(labelName)
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "Loader", "cubeToFeatureSets",
			fmt.Sprintf("dataset %q has no label coordinate %q", resolved.Identifier, labelName))
	}
	if useLabels && len(labelCoord.Values) < opened.Len() {
		// A geometry-bearing coordinate may carry no label values at all.
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "Loader", "cubeToFeatureSets",
			fmt.Sprintf("dataset %q label coordinate %q has no label values", resolved.Identifier, labelName))
	}

	baseTitle := resolved.Title
	if baseTitle == "" {
		baseTitle = resolved.Identifier
	}

	sets := make([]*cube.FeatureSet, 0, opened.Len())
	for i := 0; i < opened.Len(); i++ {
		slice, err := opened.ISel(i)
		if err != nil {
			return nil, err
		}
		fs, err := slice.ToFeatureSet(geomName)
		if err != nil {
			return nil, err
		}

		var extension any = i + 1
		if useLabels {
			extension = labelCoord.Values[i]
		}

		attrs := resolved.Attributes()
		attrs["Title"] = fmt.Sprintf("%s - %v", baseTitle, extension)
		attrs["Identifier"] = fmt.Sprintf("%s_%v", resolved.Identifier, extension)
		fs.Attrs = attrs
		sets = append(sets, fs)
	}
	return sets, nil
}

// LoadFeatureSets opens every resolved dataset and converts it to feature
// sets. Datasets without a compatible opener are skipped; open and
// transform failures are logged, counted, and aggregated into the returned
// error while loading continues with the remaining datasets.
func (c *Context) LoadFeatureSets(ctx context.Context) ([]*cube.FeatureSet, error) {
	var (
		sets []*cube.FeatureSet
		errs []error
	)
	for _, resolved := range c.resolved {
		handle, err := c.pool.GetStore(resolved.StoreInstanceID)
		if err != nil {
			c.metrics.incOpenFailures(resolved.StoreInstanceID)
			c.logger.Error("data store unavailable",
				"identifier", resolved.Identifier, "store_instance_id", resolved.StoreInstanceID, "error", err)
			errs = append(errs, err)
			continue
		}

		opened, ok, err := c.openCube(ctx, handle, resolved)
		if err != nil {
			c.metrics.incOpenFailures(resolved.StoreInstanceID)
			c.logger.Error("failed to open vector data cube",
				"identifier", resolved.Identifier, "error", err)
			errs = append(errs, err)
			continue
		}
		if !ok {
			continue
		}

		datasetSets, err := cubeToFeatureSets(opened, resolved)
		if err != nil {
			c.metrics.incOpenFailures(resolved.StoreInstanceID)
			c.logger.Error("failed to convert vector data cube to feature sets",
				"identifier", resolved.Identifier, "error", err)
			errs = append(errs, err)
			continue
		}
		sets = append(sets, datasetSets...)
	}
	return sets, stderrors.Join(errs...)
}
