package dataset

import (
	"fmt"
	"io"
	"math"

	"github.com/gocarina/gocsv"

	"github.com/forest-guardian/spectral-indices/internal/indices"
	"github.com/forest-guardian/spectral-indices/internal/region"
	"github.com/forest-guardian/spectral-indices/internal/stats"
)

type PixelData struct {
	X      int     `csv:"x"`
	Y      int     `csv:"y"`
	WorldX float64 `csv:"world_x"`
	WorldY float64 `csv:"world_y"`
	Value  float64 `csv:"value"`
}

// CreatePixelDataset flattens an index result into one row per pixel.
// NaN cells are kept as NaN unless skipNaN is set.
func CreatePixelDataset(result indices.Result, geoTransform [6]float64, mask stats.Mask, skipNaN bool) []PixelData {
	g := result.Values
	rows := make([]PixelData, 0, len(g.Data))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if mask != nil && !mask(x, y) {
				continue
			}
			v := float64(g.At(x, y))
			if skipNaN && math.IsNaN(v) {
				continue
			}
			p := region.PixelCenter(geoTransform, x, y)
			rows = append(rows, PixelData{X: x, Y: y, WorldX: p.X(), WorldY: p.Y(), Value: v})
		}
	}
	return rows
}

// WritePixels writes the pixel dataset of result as CSV.
func WritePixels(w io.Writer, result indices.Result, geoTransform [6]float64, mask stats.Mask, skipNaN bool) (int, error) {
	rows := CreatePixelDataset(result, geoTransform, mask, skipNaN)
	if len(rows) == 0 {
		return 0, fmt.Errorf("no pixels to write for %s", result.Index)
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return 0, fmt.Errorf("failed to write pixel CSV: %w", err)
	}
	return len(rows), nil
}
