package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/airbusgeo/godal"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forest-guardian/spectral-indices/internal/indices"
	"github.com/forest-guardian/spectral-indices/internal/mapping"
	"github.com/forest-guardian/spectral-indices/internal/notification"
	"github.com/forest-guardian/spectral-indices/internal/raster"
)

var registerOnce sync.Once

// writeScene creates a 2x2 four band GeoTIFF named B2, B3, B4 and B8.
func writeScene(t *testing.T, dir, name string) string {
	t.Helper()
	registerOnce.Do(godal.RegisterAll)

	path := filepath.Join(dir, name)
	ds, err := godal.Create(godal.GTiff, path, 4, godal.Float32, 2, 2)
	require.NoError(t, err)
	require.NoError(t, ds.SetGeoTransform([6]float64{500000, 10, 0, 4000000, 0, -10}))

	bands := []struct {
		name string
		data []float32
	}{
		{"B2", []float32{0.1, 0.1, 0.1, 0.1}},
		{"B3", []float32{0.2, 0.2, 0.2, 0.2}},
		{"B4", []float32{1, 1, 0, 2}},
		{"B8", []float32{3, 1, 0, 6}},
	}
	for i, band := range ds.Bands() {
		require.NoError(t, band.SetDescription(bands[i].name))
		require.NoError(t, band.Write(0, 0, bands[i].data, 2, 2))
	}
	require.NoError(t, ds.Close())
	return path
}

func newService(t *testing.T) *Service {
	return &Service{
		Log:     zerolog.Nop(),
		Store:   mapping.NewStore(filepath.Join(t.TempDir(), "mappings")),
		Raster:  raster.Options{MaskNoData: true},
		Workers: 2,
	}
}

func TestCalculate(t *testing.T) {
	dir := t.TempDir()
	scene := writeScene(t, dir, "scene.tif")
	svc := newService(t)

	resp, err := svc.Calculate(context.Background(), Request{
		ImagePath:  scene,
		Index:      "NDVI",
		OutputPath: filepath.Join(dir, "out", "scene_NDVI.tif"),
		PixelsPath: filepath.Join(dir, "pixels.csv"),
		SkipNaN:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, SourceInferred, resp.MappingSource)
	assert.Equal(t, indices.RoleMapping{indices.Blue: 0, indices.Green: 1, indices.Red: 2, indices.NIR: 3}, resp.Mapping)
	assert.Contains(t, resp.Available, "NDVI")
	assert.NotContains(t, resp.Available, "NBR")

	v := resp.Result.Values
	assert.Equal(t, float32(0.5), v.At(0, 0))
	assert.Equal(t, float32(0), v.At(1, 0))
	assert.True(t, math.IsNaN(float64(v.At(0, 1))))
	assert.Equal(t, 3, resp.Summary.Count)
	assert.Equal(t, 4, resp.Summary.Total)

	assert.FileExists(t, resp.OutputPath)
	assert.FileExists(t, resp.PixelsPath)
	assert.Equal(t, 3, resp.PixelRows)

	// Inferred mappings are not remembered.
	_, _, ok := svc.Store.Recall(scene, 4)
	assert.False(t, ok)
}

func TestCalculateErrors(t *testing.T) {
	scene := writeScene(t, t.TempDir(), "scene.tif")
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Calculate(ctx, Request{ImagePath: scene, Index: "NOPE"})
	assert.True(t, errors.Is(err, indices.ErrUnknownIndex))

	_, err = svc.Calculate(ctx, Request{ImagePath: scene, Index: "NBR"})
	var missing *indices.MissingRolesError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []indices.Role{indices.SWIR2}, missing.Roles)

	_, err = svc.Calculate(ctx, Request{ImagePath: scene, Index: "NDVI", Assignments: indices.RoleMapping{indices.NIR: 4}})
	assert.True(t, errors.Is(err, indices.ErrInvalidInput))

	_, err = svc.Calculate(ctx, Request{ImagePath: scene, Index: "SAVI", Params: map[string]float64{"Q": 1}})
	assert.True(t, errors.Is(err, indices.ErrInvalidInput))

	_, err = svc.Calculate(ctx, Request{ImagePath: filepath.Join(t.TempDir(), "absent.tif"), Index: "NDVI"})
	assert.Error(t, err)
}

func writeRegion(t *testing.T, dir string, ring string) string {
	t.Helper()
	path := filepath.Join(dir, "region.geojson")
	data := `{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[` + ring + `]}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestCalculateRegion(t *testing.T) {
	dir := t.TempDir()
	scene := writeScene(t, dir, "scene.tif")
	svc := newService(t)

	// Covers the centre of the top-left pixel only.
	square := writeRegion(t, dir, `[[500000,3999990],[500010,3999990],[500010,4000000],[500000,4000000],[500000,3999990]]`)
	resp, err := svc.Calculate(context.Background(), Request{ImagePath: scene, Index: "NDVI", RegionPath: square})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Summary.Total)
	assert.Equal(t, 1, resp.Summary.Count)
	assert.InDelta(t, 0.5, resp.Summary.Mean, 1e-6)
}

func TestCalculateFlatRegion(t *testing.T) {
	dir := t.TempDir()
	scene := writeScene(t, dir, "scene.tif")
	svc := newService(t)

	// A polygon with no area has no centroid; the calculation still runs.
	flat := writeRegion(t, dir, `[[0,0],[1,0],[2,0],[0,0]]`)
	resp, err := svc.Calculate(context.Background(), Request{ImagePath: scene, Index: "NDVI", RegionPath: flat})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Summary.Total)
	assert.Equal(t, 4, resp.Result.Values.Width*resp.Result.Values.Height)
}

func TestCalculateRemembersConfirmedMapping(t *testing.T) {
	dir := t.TempDir()
	scene := writeScene(t, dir, "scene.tif")
	svc := newService(t)
	ctx := context.Background()
	saved := filepath.Join(dir, "mapping.json")

	resp, err := svc.Calculate(ctx, Request{
		ImagePath:   scene,
		Index:       "NBR",
		Assignments: indices.RoleMapping{indices.SWIR2: 0},
		SaveMapping: saved,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Mapping[indices.SWIR2])
	assert.FileExists(t, saved)

	resp, err = svc.Calculate(ctx, Request{ImagePath: scene, Index: "NBR"})
	require.NoError(t, err)
	assert.Equal(t, SourceRemembered, resp.MappingSource)

	fresh := newService(t)
	resp, err = fresh.Calculate(ctx, Request{ImagePath: scene, Index: "NBR", MappingPath: saved})
	require.NoError(t, err)
	assert.Equal(t, SourceFile, resp.MappingSource)
}

func TestCalculateEditor(t *testing.T) {
	scene := writeScene(t, t.TempDir(), "scene.tif")
	svc := newService(t)

	var seen []string
	resp, err := svc.Calculate(context.Background(), Request{
		ImagePath: scene,
		Index:     "NDVI",
		Edit: func(names []string, m indices.RoleMapping) (indices.RoleMapping, error) {
			seen = names
			m[indices.Red], m[indices.NIR] = m[indices.NIR], m[indices.Red]
			return m, nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"B2", "B3", "B4", "B8"}, seen)
	assert.Equal(t, float32(-0.5), resp.Result.Values.At(0, 0))
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	a := writeScene(t, dir, "a.tif")
	b := writeScene(t, dir, "b.tif")

	var got notification.DiscordMessage
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer hook.Close()

	svc := newService(t)
	svc.NotificationURL = hook.URL
	summary := filepath.Join(dir, "report", "summary.csv")

	rows, err := svc.Batch(context.Background(), BatchRequest{
		Images:      []string{a, filepath.Join(dir, "missing.tif"), b},
		Indices:     []string{"NDVI", "SAVI"},
		Params:      map[string]float64{"L": 0.25},
		OutDir:      filepath.Join(dir, "out"),
		SummaryPath: summary,
	})
	require.Error(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, "a.tif", rows[0].Image)
	assert.Equal(t, "NDVI", rows[0].Index)
	assert.Equal(t, "SAVI", rows[1].Index)
	assert.Empty(t, rows[0].Error)
	assert.Equal(t, 3, rows[0].ValidPixels)
	assert.FileExists(t, rows[0].Output)
	assert.Equal(t, "a_NDVI.tif", filepath.Base(rows[0].Output))

	assert.Equal(t, "missing.tif", rows[2].Image)
	assert.NotEmpty(t, rows[2].Error)

	assert.Equal(t, "b.tif", rows[3].Image)
	assert.FileExists(t, summary)

	require.Len(t, got.Embeds, 1)
	assert.Equal(t, "🚨 Batch failed", got.Embeds[0].Title)
}

func TestBatchAvailableIndices(t *testing.T) {
	scene := writeScene(t, t.TempDir(), "scene.tif")
	svc := newService(t)

	rows, err := svc.Batch(context.Background(), BatchRequest{Images: []string{scene}})
	require.NoError(t, err)

	want := indices.Available(indices.RoleMapping{indices.Blue: 0, indices.Green: 1, indices.Red: 2, indices.NIR: 3})
	require.Len(t, rows, len(want))
	for i, name := range want {
		assert.Equal(t, name, rows[i].Index)
		assert.Empty(t, rows[i].Error)
	}
}

// writeUnnamedScene creates a 2x2 GeoTIFF whose two bands match no role.
func writeUnnamedScene(t *testing.T, dir, name string) string {
	t.Helper()
	registerOnce.Do(godal.RegisterAll)

	path := filepath.Join(dir, name)
	ds, err := godal.Create(godal.GTiff, path, 2, godal.Float32, 2, 2)
	require.NoError(t, err)
	for i, band := range ds.Bands() {
		require.NoError(t, band.SetDescription([]string{"foo", "bar"}[i]))
		require.NoError(t, band.Write(0, 0, []float32{1, 2, 3, 4}, 2, 2))
	}
	require.NoError(t, ds.Close())
	return path
}

func TestBatchImageWithoutIndices(t *testing.T) {
	dir := t.TempDir()
	a := writeScene(t, dir, "a.tif")
	blank := writeUnnamedScene(t, dir, "blank.tif")
	summary := filepath.Join(dir, "summary.csv")
	svc := newService(t)

	rows, err := svc.Batch(context.Background(), BatchRequest{Images: []string{blank, a}, SummaryPath: summary})
	require.NoError(t, err)

	require.NotEmpty(t, rows)
	assert.Equal(t, "blank.tif", rows[0].Image)
	assert.Empty(t, rows[0].Index)
	assert.Equal(t, errNoIndexAvailable, rows[0].Error)
	assert.Len(t, rows, 1+len(indices.Available(indices.RoleMapping{indices.Blue: 0, indices.Green: 1, indices.Red: 2, indices.NIR: 3})))

	data, err := os.ReadFile(summary)
	require.NoError(t, err)
	assert.Contains(t, string(data), "blank.tif")
}

func TestBatchRejectsUnknownIndex(t *testing.T) {
	svc := newService(t)
	_, err := svc.Batch(context.Background(), BatchRequest{Images: []string{"x.tif"}, Indices: []string{"NOPE"}})
	assert.True(t, errors.Is(err, indices.ErrUnknownIndex))

	_, err = svc.Batch(context.Background(), BatchRequest{})
	assert.True(t, errors.Is(err, indices.ErrInvalidInput))
}

func TestParamsFor(t *testing.T) {
	assert.Nil(t, paramsFor("NDVI", nil))
	assert.Empty(t, paramsFor("NDVI", map[string]float64{"L": 0.2}))
	assert.Equal(t, map[string]float64{"L": 0.2}, paramsFor("SAVI", map[string]float64{"L": 0.2, "G": 1}))
}
