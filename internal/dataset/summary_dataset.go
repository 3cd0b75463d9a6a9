package dataset

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/forest-guardian/spectral-indices/internal/stats"
)

// SummaryData is one (image, index) line of a batch report. Statistic
// columns are empty when the index had no valid pixel.
type SummaryData struct {
	Image        string   `csv:"image"`
	Index        string   `csv:"index"`
	ValidPixels  int      `csv:"valid_pixels"`
	TotalPixels  int      `csv:"total_pixels"`
	Min          *float64 `csv:"min"`
	Max          *float64 `csv:"max"`
	Mean         *float64 `csv:"mean"`
	Std          *float64 `csv:"std"`
	Percentile2  *float64 `csv:"p2"`
	Percentile98 *float64 `csv:"p98"`
	Output       string   `csv:"output"`
	Error        string   `csv:"error"`
}

func NewSummaryData(image, index string, s stats.Summary) SummaryData {
	row := SummaryData{
		Image:       filepath.Base(image),
		Index:       index,
		ValidPixels: s.Count,
		TotalPixels: s.Total,
	}
	if s.Valid() {
		row.Min = ptr(s.Min)
		row.Max = ptr(s.Max)
		row.Mean = ptr(s.Mean)
		row.Std = ptr(s.Std)
		row.Percentile2 = ptr(s.Percentile2)
		row.Percentile98 = ptr(s.Percentile98)
	}
	return row
}

func ptr(v float64) *float64 {
	return &v
}

func WriteSummary(w io.Writer, rows []SummaryData) error {
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write summary CSV: %w", err)
	}
	return nil
}
