package delivery

import (
	"context"
	"fmt"
	"os"

	"github.com/forest-guardian/spectral-indices/internal/dataset"
	"github.com/forest-guardian/spectral-indices/internal/indices"
	"github.com/forest-guardian/spectral-indices/internal/mapping"
	"github.com/forest-guardian/spectral-indices/internal/raster"
	"github.com/forest-guardian/spectral-indices/internal/region"
	"github.com/forest-guardian/spectral-indices/internal/stats"
)

type Request struct {
	ImagePath string
	Index     string

	// MappingPath is a saved mapping to use instead of the inferred one.
	MappingPath string
	// Assignments override single roles after the mapping is resolved.
	Assignments indices.RoleMapping
	Edit        EditFunc
	SaveMapping string

	Params map[string]float64

	// RegionPath restricts statistics and pixel rows to a GeoJSON polygon.
	RegionPath string
	OutputPath string
	PixelsPath string
	SkipNaN    bool
}

type Response struct {
	Image         *raster.Image
	Mapping       indices.RoleMapping
	MappingSource MappingSource
	Available     []string
	Result        indices.Result
	Summary       stats.Summary
	OutputPath    string
	PixelsPath    string
	PixelRows     int
}

func (s *Service) Calculate(ctx context.Context, req Request) (*Response, error) {
	if _, err := indices.Lookup(req.Index); err != nil {
		return nil, err
	}

	img, err := raster.Load(req.ImagePath, s.Raster)
	if err != nil {
		return nil, err
	}
	log := s.Log.With().Str("image", img.Path).Str("index", req.Index).Logger()
	log.Debug().Int("bands", img.Bands.Len()).Int("width", img.Width).Int("height", img.Height).Msg("raster loaded")

	m, source, confirmed, err := s.resolveMapping(img, mappingRequest{
		mappingPath: req.MappingPath,
		assignments: req.Assignments,
		edit:        req.Edit,
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp := &Response{
		Image:         img,
		Mapping:       m,
		MappingSource: source,
		Available:     indices.Available(m),
	}

	if req.SaveMapping != "" {
		if err := mapping.Save(req.SaveMapping, m); err != nil {
			return nil, err
		}
		log.Info().Str("path", req.SaveMapping).Msg("band mapping saved")
	}

	resp.Result, err = indices.EvaluateWithParams(img.Bands, m, req.Index, req.Params)
	if err != nil {
		return nil, err
	}

	if confirmed && s.Store != nil {
		if err := s.Store.Remember(img.Path, m); err != nil {
			log.Warn().Err(err).Msg("failed to remember band mapping")
		}
	}

	var mask stats.Mask
	if req.RegionPath != "" {
		geom, err := region.Load(req.RegionPath)
		if err != nil {
			return nil, err
		}
		if centroid, area, err := region.Centroid(geom); err != nil {
			log.Warn().Err(err).Str("region", req.RegionPath).Msg("region has no centroid")
		} else {
			log.Debug().Float64("x", centroid.X()).Float64("y", centroid.Y()).Float64("area", area).Msg("region loaded")
		}
		mask = region.Mask(geom, img.GeoTransform)
	}
	resp.Summary = stats.ComputeMasked(resp.Result.Values, mask)
	if !resp.Summary.Valid() {
		log.Warn().Int("pixels", resp.Summary.Total).Msg("every pixel of the index is undefined")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if req.OutputPath != "" {
		if err := raster.Export(req.OutputPath, img, resp.Result); err != nil {
			return nil, err
		}
		resp.OutputPath = req.OutputPath
		log.Info().Str("path", req.OutputPath).Msg("index exported")
	}

	if req.PixelsPath != "" {
		n, err := writePixels(req.PixelsPath, img, resp.Result, mask, req.SkipNaN)
		if err != nil {
			return nil, err
		}
		resp.PixelsPath, resp.PixelRows = req.PixelsPath, n
		log.Info().Str("path", req.PixelsPath).Int("rows", n).Msg("pixel values written")
	}

	return resp, nil
}

func writePixels(path string, img *raster.Image, result indices.Result, mask stats.Mask, skipNaN bool) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create pixel file: %w", err)
	}
	n, err := dataset.WritePixels(f, result, img.GeoTransform, mask, skipNaN)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close pixel file: %w", cerr)
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return n, nil
}
