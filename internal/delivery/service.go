package delivery

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/forest-guardian/spectral-indices/internal/indices"
	"github.com/forest-guardian/spectral-indices/internal/mapping"
	"github.com/forest-guardian/spectral-indices/internal/raster"
)

// Service runs index calculations against raster files.
type Service struct {
	Log zerolog.Logger
	// Store remembers confirmed mappings per image. Nil disables it.
	Store   *mapping.Store
	Raster  raster.Options
	Workers int
	// NotificationURL receives a webhook when a batch ends. Empty disables it.
	NotificationURL string
	// Progress receives the batch progress bar. Nil hides it.
	Progress io.Writer
}

// MappingSource tells where the band mapping of a calculation came from.
type MappingSource string

const (
	SourceFile       MappingSource = "file"
	SourceRemembered MappingSource = "remembered"
	SourceInferred   MappingSource = "inferred"
)

// EditFunc lets a user review a mapping before it is used.
type EditFunc func(names []string, m indices.RoleMapping) (indices.RoleMapping, error)

type mappingRequest struct {
	mappingPath string
	assignments indices.RoleMapping
	edit        EditFunc
}

// resolveMapping picks the mapping for img: an explicit file, else the
// remembered one, else the inferred one. Assignments and the editor are
// applied on top. confirmed reports whether a user had a say in it.
func (s *Service) resolveMapping(img *raster.Image, req mappingRequest) (m indices.RoleMapping, source MappingSource, confirmed bool, err error) {
	log := s.Log.With().Str("image", img.Path).Logger()
	bandCount := img.Bands.Len()

	switch {
	case req.mappingPath != "":
		var report mapping.Report
		m, report, err = mapping.Load(req.mappingPath, bandCount)
		if err != nil {
			return nil, "", false, err
		}
		logReport(log, report)
		source, confirmed = SourceFile, true
	case s.Store != nil && s.recall(log, img, &m):
		source = SourceRemembered
	default:
		for _, a := range indices.Explain(img.Bands.Names) {
			log.Debug().
				Str("role", a.Role.String()).
				Int("band", a.Position).
				Str("name", a.BandName).
				Str("pattern", a.Pattern).
				Bool("fallback", a.Fallback).
				Msg("band role inferred")
		}
		m = indices.Infer(img.Bands.Names)
		source = SourceInferred
	}
	if m == nil {
		m = indices.RoleMapping{}
	}

	if len(req.assignments) > 0 {
		for r, p := range req.assignments {
			if p >= bandCount {
				return nil, "", false, fmt.Errorf("%w: %s=%d but %q has %d bands", indices.ErrInvalidInput, r, p, img.Path, bandCount)
			}
			m[r] = p
		}
		confirmed = true
	}

	if req.edit != nil {
		if m, err = req.edit(img.Bands.Names, m); err != nil {
			return nil, "", false, err
		}
		confirmed = true
	}

	return m, source, confirmed, nil
}

func (s *Service) recall(log zerolog.Logger, img *raster.Image, m *indices.RoleMapping) bool {
	recalled, report, ok := s.Store.Recall(img.Path, img.Bands.Len())
	if !ok {
		return false
	}
	logReport(log, report)
	*m = recalled
	return true
}

func logReport(log zerolog.Logger, report mapping.Report) {
	for _, key := range report.Ignored {
		log.Warn().Str("key", key).Msg("ignoring unknown band mapping entry")
	}
	for _, r := range report.Dropped {
		log.Warn().Str("role", r.String()).Msg("band mapping points past the last band, role dropped")
	}
}

func (s *Service) workers() int {
	if s.Workers < 1 {
		return 1
	}
	return s.Workers
}
