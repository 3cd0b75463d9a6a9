package ui

import (
	"fmt"
	"strings"

	"github.com/forest-guardian/spectral-indices/internal/indices"
	"github.com/forest-guardian/spectral-indices/internal/stats"
	"github.com/forest-guardian/spectral-indices/internal/utils"
)

func roleNames(roles []indices.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	return strings.Join(names, ", ")
}

func PrintIndices(defs []indices.Definition) {
	for _, d := range defs {
		PrintHeader(fmt.Sprintf("%s (%s)", d.Name, d.DisplayName))
		fmt.Fprintf(Out, "  formula:  %s\n", d.Formula)
		fmt.Fprintf(Out, "  bands:    %s\n", roleNames(d.Roles))
		if len(d.Params) > 0 {
			parts := make([]string, 0, len(d.Params))
			for _, k := range utils.GetSortedKeys(d.Params, true) {
				parts = append(parts, fmt.Sprintf("%s=%g", k, d.Params[k]))
			}
			fmt.Fprintf(Out, "  params:   %s\n", strings.Join(parts, " "))
		}
		fmt.Fprintf(Out, "  range:    [%g, %g]\n", d.Range.Min, d.Range.Max)
		fmt.Fprintf(Out, "  colormap: %s\n", d.Colormap)
		fmt.Fprintf(Out, "  %s\n", d.Description)
	}
}

// PrintAvailable lists the computable indices alphabetically.
func PrintAvailable(names []string) {
	if len(names) == 0 {
		PrintWarning("no index can be computed with this band mapping")
		return
	}
	PrintSuccess("Available indices: " + strings.Join(utils.SortedCopy(names), ", "))
}

func PrintSummary(index string, s stats.Summary) {
	PrintHeader(index)
	if !s.Valid() {
		PrintWarning(fmt.Sprintf("all %d pixels are undefined", s.Total))
		return
	}
	fmt.Fprintf(Out, "  valid:  %d of %d pixels\n", s.Count, s.Total)
	fmt.Fprintf(Out, "  min:    %s\n", formatFloat(s.Min))
	fmt.Fprintf(Out, "  max:    %s\n", formatFloat(s.Max))
	fmt.Fprintf(Out, "  mean:   %s\n", formatFloat(s.Mean))
	fmt.Fprintf(Out, "  std:    %s\n", formatFloat(s.Std))
	fmt.Fprintf(Out, "  p2-p98: %s to %s\n", formatFloat(s.Percentile2), formatFloat(s.Percentile98))
}
