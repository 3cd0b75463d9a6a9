package region

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/forest-guardian/spectral-indices/internal/stats"
)

var ErrNoPolygon = errors.New("region has no polygon")

// Load reads a region of interest from a GeoJSON file. Coordinates must be
// in the raster's own coordinate system; nothing is reprojected.
func Load(path string) (orb.Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read region %q: %w", path, err)
	}
	return Parse(data)
}

// Parse accepts a FeatureCollection, a Feature or a bare geometry. The
// polygons found are returned as a single Polygon or a MultiPolygon.
func Parse(data []byte) (orb.Geometry, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to decode GeoJSON: %w", err)
	}

	var geoms []orb.Geometry
	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode GeoJSON: %w", err)
		}
		for _, f := range fc.Features {
			geoms = append(geoms, f.Geometry)
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode GeoJSON: %w", err)
		}
		geoms = append(geoms, f.Geometry)
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode GeoJSON: %w", err)
		}
		geoms = append(geoms, g.Geometry())
	}

	var polys orb.MultiPolygon
	for _, g := range geoms {
		switch v := g.(type) {
		case orb.Polygon:
			polys = append(polys, v)
		case orb.MultiPolygon:
			polys = append(polys, v...)
		}
	}
	switch len(polys) {
	case 0:
		return nil, ErrNoPolygon
	case 1:
		return polys[0], nil
	}
	return polys, nil
}

// Mask selects the pixels whose centre falls inside geom. geoTransform is
// the GDAL affine transform from pixel/line to world coordinates.
func Mask(geom orb.Geometry, geoTransform [6]float64) stats.Mask {
	bound := geom.Bound()
	return func(x, y int) bool {
		p := PixelCenter(geoTransform, x, y)
		if !bound.Contains(p) {
			return false
		}
		switch g := geom.(type) {
		case orb.Polygon:
			return planar.PolygonContains(g, p)
		case orb.MultiPolygon:
			return planar.MultiPolygonContains(g, p)
		}
		return false
	}
}

// PixelCenter maps a pixel to the world coordinates of its centre.
func PixelCenter(gt [6]float64, x, y int) orb.Point {
	px := float64(x) + 0.5
	py := float64(y) + 0.5
	return orb.Point{
		gt[0] + gt[1]*px + gt[2]*py,
		gt[3] + gt[4]*px + gt[5]*py,
	}
}

// Centroid returns the area weighted centre of geom and its planar area.
func Centroid(geom orb.Geometry) (orb.Point, float64, error) {
	centroid, area := planar.CentroidArea(geom)
	if area <= 0 {
		return orb.Point{}, 0, fmt.Errorf("%w: region has no area", ErrNoPolygon)
	}
	return centroid, area, nil
}
