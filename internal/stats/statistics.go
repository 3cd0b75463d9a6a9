package stats

import (
	"math"
	"sort"

	"github.com/forest-guardian/spectral-indices/internal/indices"
)

// Summary describes the non-NaN cells of a grid. When Count is zero every
// other field is meaningless and Valid reports false.
type Summary struct {
	Count        int
	Total        int
	Min          float64
	Max          float64
	Mean         float64
	Std          float64
	Percentile2  float64
	Percentile98 float64
}

func (s Summary) Valid() bool {
	return s.Count > 0
}

// Mask selects the cells that take part in a summary.
type Mask func(x, y int) bool

// Compute summarises every non-NaN cell of g.
func Compute(g indices.Grid) Summary {
	return ComputeMasked(g, nil)
}

// ComputeMasked summarises the non-NaN cells selected by mask. A nil mask
// selects everything.
func ComputeMasked(g indices.Grid, mask Mask) Summary {
	values := make([]float64, 0, len(g.Data))
	total := 0
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if mask != nil && !mask(x, y) {
				continue
			}
			total++
			v := float64(g.Data[y*g.Width+x])
			if math.IsNaN(v) {
				continue
			}
			values = append(values, v)
		}
	}
	return summarize(values, total)
}

func summarize(values []float64, total int) Summary {
	s := Summary{Count: len(values), Total: total}
	if len(values) == 0 {
		return s
	}
	sort.Float64s(values)
	s.Min = values[0]
	s.Max = values[len(values)-1]

	var sum float64
	for _, v := range values {
		sum += v
	}
	s.Mean = sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - s.Mean
		sq += d * d
	}
	s.Std = math.Sqrt(sq / float64(len(values)))

	s.Percentile2 = percentile(values, 2)
	s.Percentile98 = percentile(values, 98)
	return s
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
