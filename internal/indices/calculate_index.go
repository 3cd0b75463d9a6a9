package indices

import "math"

// Grid is a 2-D float32 raster stored row-major.
type Grid struct {
	Width  int
	Height int
	Data   []float32
}

func NewGrid(width, height int) Grid {
	return Grid{Width: width, Height: height, Data: make([]float32, width*height)}
}

// GridFromRows copies a rectangular [][]float32 into a Grid.
func GridFromRows(rows [][]float32) (Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Grid{}, invalidInput("empty grid")
	}
	g := NewGrid(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != g.Width {
			return Grid{}, invalidInput("row %d has %d columns, expected %d", y, len(row), g.Width)
		}
		copy(g.Data[y*g.Width:], row)
	}
	return g, nil
}

// GridFromFloat64 narrows row-major float64 samples to float32.
func GridFromFloat64(width, height int, data []float64) (Grid, error) {
	if len(data) != width*height {
		return Grid{}, invalidInput("%d samples for a %dx%d grid", len(data), width, height)
	}
	g := NewGrid(width, height)
	for i, v := range data {
		g.Data[i] = float32(v)
	}
	return g, nil
}

func (g Grid) At(x, y int) float32 {
	return g.Data[y*g.Width+x]
}

// Rows returns row views sharing the grid's storage.
func (g Grid) Rows() [][]float32 {
	rows := make([][]float32, g.Height)
	for y := range rows {
		rows[y] = g.Data[y*g.Width : (y+1)*g.Width]
	}
	return rows
}

func (g Grid) sameShape(o Grid) bool {
	return g.Width == o.Width && g.Height == o.Height
}

func (g Grid) validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return invalidInput("grid has invalid dimensions %dx%d", g.Width, g.Height)
	}
	if len(g.Data) != g.Width*g.Height {
		return invalidInput("grid holds %d samples, expected %d", len(g.Data), g.Width*g.Height)
	}
	return nil
}

// BandSet is the ordered list of band rasters with their names.
type BandSet struct {
	Names []string
	Bands []Grid
}

func (b BandSet) Len() int {
	return len(b.Bands)
}

// Result is a computed index plus the display hints of its definition.
type Result struct {
	Index       string
	Values      Grid
	Description string
	Colormap    string
	Range       Range
}

var nan32 = float32(math.NaN())

// Evaluate computes index name over bands using the roles in m. Cells whose
// denominator is zero, or whose inputs are NaN, come out as NaN.
func Evaluate(bands BandSet, m RoleMapping, name string) (Result, error) {
	return EvaluateWithParams(bands, m, name, nil)
}

// EvaluateWithParams is Evaluate with some of the index's default
// parameters replaced. Only parameters the index declares may be set.
func EvaluateWithParams(bands BandSet, m RoleMapping, name string, overrides map[string]float64) (Result, error) {
	def, err := Lookup(name)
	if err != nil {
		return Result{}, err
	}
	if bands.Names != nil && len(bands.Names) != len(bands.Bands) {
		return Result{}, invalidInput("%d band names for %d bands", len(bands.Names), len(bands.Bands))
	}
	for k, v := range overrides {
		if _, ok := def.Params[k]; !ok {
			return Result{}, invalidInput("%s has no parameter %q", name, k)
		}
		def.Params[k] = v
	}

	if missing := missingRoles(def, m); len(missing) > 0 {
		return Result{}, &MissingRolesError{Index: name, Roles: missing}
	}

	for _, r := range def.Roles {
		if p := m[r]; p < 0 || p >= bands.Len() {
			return Result{}, &OutOfRangeError{Index: name, Role: r, Position: p, BandCount: bands.Len()}
		}
	}

	var lookup [roleCount][]float32
	var shape Grid
	for i, r := range def.Roles {
		g := bands.Bands[m[r]]
		if err := g.validate(); err != nil {
			return Result{}, err
		}
		if i == 0 {
			shape = g
		} else if !g.sameShape(shape) {
			return Result{}, invalidInput("%s band is %dx%d, expected %dx%d", r, g.Width, g.Height, shape.Width, shape.Height)
		}
		lookup[r] = g.Data
	}

	k := formulas[name](def.Params)
	out := NewGrid(shape.Width, shape.Height)
	var s sample
	for i := range out.Data {
		for _, r := range def.Roles {
			s[r] = lookup[r][i]
		}
		num, den := k(&s)
		if den == 0 {
			out.Data[i] = nan32
			continue
		}
		out.Data[i] = num / den
	}

	return Result{
		Index:       def.Name,
		Values:      out,
		Description: def.Description,
		Colormap:    def.Colormap,
		Range:       def.Range,
	}, nil
}
