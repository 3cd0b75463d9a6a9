package indices

// Range is an advisory colour-scaling interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Definition describes one catalog entry. Values handed out by Lookup and
// All are copies, so the catalog itself never changes after init.
type Definition struct {
	Name        string
	DisplayName string
	Formula     string
	Roles       []Role
	Params      map[string]float64
	Description string
	Colormap    string
	Range       Range
}

func (d Definition) clone() Definition {
	d.Roles = append([]Role(nil), d.Roles...)
	if d.Params != nil {
		params := make(map[string]float64, len(d.Params))
		for k, v := range d.Params {
			params[k] = v
		}
		d.Params = params
	}
	return d
}

// sample holds one pixel's value for every role, indexed by Role.
type sample [roleCount]float32

type kernel func(s *sample) (num, den float32)

// formula binds an index's parameters once per evaluation.
type formula func(params map[string]float64) kernel

var catalog = []Definition{
	{
		Name:        "NDVI",
		DisplayName: "Normalized Difference Vegetation Index",
		Formula:     "(NIR - Red) / (NIR + Red)",
		Roles:       []Role{NIR, Red},
		Description: "Measures vegetation health and density. Values range from -1 to 1, with higher values indicating denser vegetation.",
		Colormap:    "RdYlGn",
		Range:       Range{-0.2, 1.0},
	},
	{
		Name:        "NDWI",
		DisplayName: "Normalized Difference Water Index (McFeeters)",
		Formula:     "(Green - NIR) / (Green + NIR)",
		Roles:       []Role{Green, NIR},
		Description: "Delineates open water features. Positive values typically represent water bodies.",
		Colormap:    "Blues",
		Range:       Range{-0.5, 1.0},
	},
	{
		Name:        "MNDWI",
		DisplayName: "Modified NDWI (Xu)",
		Formula:     "(Green - SWIR1) / (Green + SWIR1)",
		Roles:       []Role{Green, SWIR1},
		Description: "Enhanced water detection, suppresses noise from built-up/soil areas.",
		Colormap:    "Blues",
		Range:       Range{-0.5, 1.0},
	},
	{
		Name:        "NDBI",
		DisplayName: "Normalized Difference Built-up Index",
		Formula:     "(SWIR1 - NIR) / (SWIR1 + NIR)",
		Roles:       []Role{SWIR1, NIR},
		Description: "Highlights urban areas and built-up land. Higher values indicate built-up areas.",
		Colormap:    "YlOrBr",
		Range:       Range{-0.5, 0.5},
	},
	{
		Name:        "SAVI",
		DisplayName: "Soil Adjusted Vegetation Index",
		Formula:     "(NIR - Red) * (1 + L) / (NIR + Red + L)",
		Roles:       []Role{NIR, Red},
		Params:      map[string]float64{"L": 0.5},
		Description: "Minimizes soil brightness influences (L=0.5 typical). Less sensitive than NDVI to soil background.",
		Colormap:    "YlGn",
		Range:       Range{-0.2, 1.0},
	},
	{
		Name:        "EVI",
		DisplayName: "Enhanced Vegetation Index",
		Formula:     "G * (NIR - Red) / (NIR + C1 * Red - C2 * Blue + L)",
		Roles:       []Role{NIR, Red, Blue},
		Params:      map[string]float64{"G": 2.5, "C1": 6.0, "C2": 7.5, "L": 1.0},
		Description: "Improved sensitivity in high biomass areas, reduced atmospheric influence compared to NDVI.",
		Colormap:    "RdYlGn",
		Range:       Range{-0.2, 1.0},
	},
	{
		Name:        "NDSI",
		DisplayName: "Normalized Difference Snow Index",
		Formula:     "(Green - SWIR1) / (Green + SWIR1)",
		Roles:       []Role{Green, SWIR1},
		Description: "Used to detect snow and ice. Positive values typically represent snow cover. Separates snow from clouds.",
		Colormap:    "Blues",
		Range:       Range{-0.5, 1.0},
	},
	{
		Name:        "NDMI",
		DisplayName: "Normalized Difference Moisture Index (NDWI-Gao)",
		Formula:     "(NIR - SWIR1) / (NIR + SWIR1)",
		Roles:       []Role{NIR, SWIR1},
		Description: "Sensitive to vegetation water content and soil moisture. Higher values indicate higher moisture.",
		Colormap:    "YlGnBu",
		Range:       Range{-0.5, 1.0},
	},
	{
		Name:        "BSI",
		DisplayName: "Bare Soil Index",
		Formula:     "((SWIR1 + Red) - (NIR + Blue)) / ((SWIR1 + Red) + (NIR + Blue))",
		Roles:       []Role{SWIR1, Red, NIR, Blue},
		Description: "Detects bare soil areas. Higher values indicate more exposed soil. Useful for soil mapping.",
		Colormap:    "YlOrBr",
		Range:       Range{-0.5, 0.5},
	},
	{
		Name:        "NBR",
		DisplayName: "Normalized Burn Ratio",
		Formula:     "(NIR - SWIR2) / (NIR + SWIR2)",
		Roles:       []Role{NIR, SWIR2},
		Description: "Used for burn severity assessment. Compare pre/post fire. High values = healthy veg, low = burned.",
		Colormap:    "RdYlGn",
		Range:       Range{-1.0, 1.0},
	},
}

func normalizedDifference(a, b Role) formula {
	return func(map[string]float64) kernel {
		return func(s *sample) (float32, float32) {
			return s[a] - s[b], s[a] + s[b]
		}
	}
}

func param(params map[string]float64, name string, fallback float64) float32 {
	if v, ok := params[name]; ok {
		return float32(v)
	}
	return float32(fallback)
}

var formulas = map[string]formula{
	"NDVI":  normalizedDifference(NIR, Red),
	"NDWI":  normalizedDifference(Green, NIR),
	"MNDWI": normalizedDifference(Green, SWIR1),
	"NDBI":  normalizedDifference(SWIR1, NIR),
	"NDSI":  normalizedDifference(Green, SWIR1),
	"NDMI":  normalizedDifference(NIR, SWIR1),
	"NBR":   normalizedDifference(NIR, SWIR2),
	"SAVI": func(p map[string]float64) kernel {
		l := param(p, "L", 0.5)
		return func(s *sample) (float32, float32) {
			return (s[NIR] - s[Red]) * (1 + l), s[NIR] + s[Red] + l
		}
	},
	"EVI": func(p map[string]float64) kernel {
		g := param(p, "G", 2.5)
		c1 := param(p, "C1", 6.0)
		c2 := param(p, "C2", 7.5)
		l := param(p, "L", 1.0)
		return func(s *sample) (float32, float32) {
			return g * (s[NIR] - s[Red]), s[NIR] + c1*s[Red] - c2*s[Blue] + l
		}
	},
	"BSI": func(map[string]float64) kernel {
		return func(s *sample) (float32, float32) {
			soil := s[SWIR1] + s[Red]
			veg := s[NIR] + s[Blue]
			return soil - veg, soil + veg
		}
	},
}

var byName = func() map[string]int {
	m := make(map[string]int, len(catalog))
	for i, d := range catalog {
		m[d.Name] = i
	}
	return m
}()

// Lookup returns the definition registered under name.
func Lookup(name string) (Definition, error) {
	i, ok := byName[name]
	if !ok {
		return Definition{}, unknownIndex(name)
	}
	return catalog[i].clone(), nil
}

// All returns every definition in catalog order.
func All() []Definition {
	out := make([]Definition, len(catalog))
	for i, d := range catalog {
		out[i] = d.clone()
	}
	return out
}

// Names returns the catalog's index codes in catalog order.
func Names() []string {
	out := make([]string, len(catalog))
	for i, d := range catalog {
		out[i] = d.Name
	}
	return out
}
