package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/forest-guardian/spectral-indices/internal/dataset"
	"github.com/forest-guardian/spectral-indices/internal/indices"
	"github.com/forest-guardian/spectral-indices/internal/notification"
	"github.com/forest-guardian/spectral-indices/internal/raster"
	"github.com/forest-guardian/spectral-indices/internal/stats"
)

type BatchRequest struct {
	Images []string
	// Indices to compute for every image. Empty means every index the
	// image's mapping makes available.
	Indices     []string
	MappingPath string
	Params      map[string]float64
	// OutDir receives one GeoTIFF per (image, index). Empty skips export.
	OutDir      string
	SummaryPath string
}

// Batch computes indices for many images. Images are loaded concurrently and
// each image's indices are evaluated on a worker pool. It returns one row per
// (image, index), or one row per image that could not be loaded, together
// with the first failure.
func (s *Service) Batch(ctx context.Context, req BatchRequest) ([]dataset.SummaryData, error) {
	for _, name := range req.Indices {
		if _, err := indices.Lookup(name); err != nil {
			return nil, err
		}
	}
	if len(req.Images) == 0 {
		return nil, fmt.Errorf("%w: no image given", indices.ErrInvalidInput)
	}

	progressOut := s.Progress
	if progressOut == nil {
		progressOut = io.Discard
	}
	bar := progressbar.NewOptions(len(req.Images),
		progressbar.OptionSetWriter(progressOut),
		progressbar.OptionSetDescription("Computing indices"),
		progressbar.OptionShowCount(),
	)

	var (
		perImage = make([][]dataset.SummaryData, len(req.Images))
		firstErr error
		errOnce  sync.Once
		mu       sync.Mutex
	)
	fail := func(err error) {
		errOnce.Do(func() { firstErr = err })
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())
	for i, path := range req.Images {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			rows, err := s.batchImage(gCtx, path, req)
			if err != nil {
				fail(err)
			}
			perImage[i] = rows

			mu.Lock()
			bar.Add(1)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	bar.Finish()

	var rows []dataset.SummaryData
	for _, r := range perImage {
		rows = append(rows, r...)
	}

	if req.SummaryPath != "" {
		if err := writeSummary(req.SummaryPath, rows); err != nil {
			return rows, err
		}
		s.Log.Info().Str("path", req.SummaryPath).Int("rows", len(rows)).Msg("batch summary written")
	}

	s.notify(ctx, rows, firstErr)
	return rows, firstErr
}

const errNoIndexAvailable = "no index can be computed with this band mapping"

func (s *Service) batchImage(ctx context.Context, path string, req BatchRequest) ([]dataset.SummaryData, error) {
	log := s.Log.With().Str("image", path).Logger()

	img, err := raster.Load(path, s.Raster)
	if err != nil {
		log.Error().Err(err).Msg("failed to load image")
		return []dataset.SummaryData{{Image: filepath.Base(path), Error: err.Error()}}, err
	}
	m, _, _, err := s.resolveMapping(img, mappingRequest{mappingPath: req.MappingPath})
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve band mapping")
		return []dataset.SummaryData{{Image: filepath.Base(path), Error: err.Error()}}, err
	}

	names := req.Indices
	if len(names) == 0 {
		names = indices.Available(m)
		if len(names) == 0 {
			log.Warn().Msg("no index can be computed for this image")
			return []dataset.SummaryData{{Image: filepath.Base(path), Error: errNoIndexAvailable}}, nil
		}
	}

	rows := make([]dataset.SummaryData, len(names))
	errs := make([]error, len(names))
	wp := workerpool.New(s.workers())
	for j, name := range names {
		wp.Submit(func() {
			if err := ctx.Err(); err != nil {
				rows[j] = dataset.SummaryData{Image: filepath.Base(path), Index: name, Error: err.Error()}
				errs[j] = err
				return
			}
			rows[j], errs[j] = s.batchIndex(img, m, name, req)
		})
	}
	wp.StopWait()

	for j, err := range errs {
		if err != nil {
			log.Error().Err(err).Str("index", names[j]).Msg("index failed")
			return rows, err
		}
	}
	return rows, nil
}

func (s *Service) batchIndex(img *raster.Image, m indices.RoleMapping, name string, req BatchRequest) (dataset.SummaryData, error) {
	result, err := indices.EvaluateWithParams(img.Bands, m, name, paramsFor(name, req.Params))
	if err != nil {
		return dataset.SummaryData{Image: filepath.Base(img.Path), Index: name, Error: err.Error()}, err
	}

	row := dataset.NewSummaryData(img.Path, result.Index, stats.Compute(result.Values))
	if req.OutDir != "" {
		out := filepath.Join(req.OutDir, raster.DefaultExportName(img.Path, result.Index))
		if err := raster.Export(out, img, result); err != nil {
			row.Error = err.Error()
			return row, err
		}
		row.Output = out
	}
	s.Log.Info().Str("image", img.Path).Str("index", result.Index).Int("valid", row.ValidPixels).Msg("index computed")
	return row, nil
}

// paramsFor keeps only the overrides name actually declares, so a batch can
// pass SAVI's L while also computing NDVI.
func paramsFor(name string, params map[string]float64) map[string]float64 {
	if len(params) == 0 {
		return nil
	}
	def, err := indices.Lookup(name)
	if err != nil {
		return nil
	}
	out := make(map[string]float64)
	for k, v := range params {
		if _, ok := def.Params[k]; ok {
			out[k] = v
		}
	}
	return out
}

func writeSummary(path string, rows []dataset.SummaryData) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create summary folder: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	err = dataset.WriteSummary(f, rows)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close summary file: %w", cerr)
	}
	return err
}

func (s *Service) notify(ctx context.Context, rows []dataset.SummaryData, batchErr error) {
	failed := 0
	for _, r := range rows {
		if r.Error != "" {
			failed++
		}
	}
	title, message := "Batch finished", fmt.Sprintf("%d index results computed", len(rows))
	if batchErr != nil {
		title = "Batch failed"
		message = fmt.Sprintf("%d of %d results failed\n\nFirst error: %s", failed, len(rows), batchErr)
	}
	if err := notification.Send(ctx, s.NotificationURL, title, message, batchErr != nil); err != nil && !errors.Is(err, context.Canceled) {
		s.Log.Warn().Err(err).Msg("failed to send notification")
	}
}
