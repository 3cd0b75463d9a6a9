package raster

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/airbusgeo/godal"

	"github.com/forest-guardian/spectral-indices/internal/indices"
	"github.com/forest-guardian/spectral-indices/internal/utils"
)

// Export writes result as a single band Float32 GeoTIFF georeferenced like img.
// Undefined cells are stored as NaN, which is also the declared no-data value.
func Export(path string, img *Image, result indices.Result) error {
	if img == nil {
		return fmt.Errorf("%w: no source image to georeference %s", indices.ErrInvalidInput, result.Index)
	}
	values := result.Values
	if values.Width != img.Width || values.Height != img.Height || len(values.Data) != img.Width*img.Height {
		return fmt.Errorf("%w: %s result is %dx%d but %q is %dx%d",
			indices.ErrInvalidInput, result.Index, values.Width, values.Height, img.Path, img.Width, img.Height)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output folder: %w", err)
		}
	}

	register()
	var err error
	utils.ExecuteWithMutex(func() {
		err = export(path, img, result)
	})
	return err
}

func export(path string, img *Image, result indices.Result) (err error) {
	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float32, img.Width, img.Height)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", path, err)
	}
	defer func() {
		if cerr := ds.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %q: %w", path, cerr)
		}
	}()

	if err := ds.SetGeoTransform(img.GeoTransform); err != nil {
		return fmt.Errorf("failed to set geotransform on %q: %w", path, err)
	}
	if img.Projection != "" {
		if err := ds.SetProjection(img.Projection); err != nil {
			return fmt.Errorf("failed to set projection on %q: %w", path, err)
		}
	}

	band := ds.Bands()[0]
	if err := band.SetNoData(math.NaN()); err != nil {
		return fmt.Errorf("failed to set no-data on %q: %w", path, err)
	}
	if err := band.SetDescription(result.Index); err != nil {
		return fmt.Errorf("failed to name band of %q: %w", path, err)
	}
	if err := band.Write(0, 0, result.Values.Data, img.Width, img.Height); err != nil {
		return fmt.Errorf("failed to write %s to %q: %w", result.Index, path, err)
	}
	return nil
}
