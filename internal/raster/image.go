package raster

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"

	"github.com/forest-guardian/spectral-indices/internal/indices"
	"github.com/forest-guardian/spectral-indices/internal/utils"
)

var registerOnce sync.Once

func register() {
	registerOnce.Do(godal.RegisterAll)
}

// Image is a raster loaded fully into memory.
type Image struct {
	Path         string
	Bands        indices.BandSet
	Width        int
	Height       int
	GeoTransform [6]float64
	// Projection is the source WKT, passed through untouched on export.
	Projection string
}

type Options struct {
	// MaskNoData turns each band's no-data value into NaN.
	MaskNoData bool
}

var identityTransform = [6]float64{0, 1, 0, 0, 0, 1}

// metadata items consulted for a band name when the band has no description
var nameKeys = []string{"DESCRIPTION", "Name", "BandName", "LAYER_TYPE"}

func Load(path string, opts Options) (*Image, error) {
	register()

	var img *Image
	var err error
	utils.ExecuteWithMutex(func() {
		img, err = load(path, opts)
	})
	return img, err
}

func load(path string, opts Options) (*Image, error) {
	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raster %q: %w", path, err)
	}
	defer ds.Close()

	structure := ds.Structure()
	width, height := structure.SizeX, structure.SizeY
	bands := ds.Bands()
	if len(bands) == 0 {
		return nil, fmt.Errorf("raster %q has no bands", path)
	}

	gt, err := ds.GeoTransform()
	if err != nil {
		gt = identityTransform
	}

	img := &Image{
		Path:         path,
		Width:        width,
		Height:       height,
		GeoTransform: gt,
		Projection:   ds.Projection(),
		Bands: indices.BandSet{
			Names: make([]string, len(bands)),
			Bands: make([]indices.Grid, len(bands)),
		},
	}

	for i, band := range bands {
		data := make([]float32, width*height)
		if err := band.Read(0, 0, data, width, height); err != nil {
			return nil, fmt.Errorf("failed to read band %d of %q: %w", i+1, path, err)
		}
		if opts.MaskNoData {
			if nd, ok := band.NoData(); ok && !math.IsNaN(nd) {
				maskValue(data, float32(nd))
			}
		}
		img.Bands.Names[i] = bandName(band, i)
		img.Bands.Bands[i] = indices.Grid{Width: width, Height: height, Data: data}
	}

	return img, nil
}

func maskValue(data []float32, nd float32) {
	nan := float32(math.NaN())
	for i, v := range data {
		if v == nd {
			data[i] = nan
		}
	}
}

func bandName(band godal.Band, i int) string {
	if d := strings.TrimSpace(band.Description()); d != "" {
		return d
	}
	for _, key := range nameKeys {
		if v := strings.TrimSpace(band.Metadata(key)); v != "" {
			return v
		}
	}
	return fmt.Sprintf("Band %d", i+1)
}

// DefaultExportName returns the file name <basename>_<INDEX>.tif, without a folder.
func DefaultExportName(imagePath, index string) string {
	base := filepath.Base(imagePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s_%s.tif", base, strings.ToUpper(index))
}
