package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/forest-guardian/spectral-indices/internal/indices"
)

func PrintBands(names []string) {
	PrintHeader("Bands")
	for i, n := range names {
		fmt.Fprintf(Out, "  %d. %s\n", i, n)
	}
}

func PrintMapping(names []string, m indices.RoleMapping) {
	PrintHeader("Band mapping")
	for _, r := range indices.Roles() {
		p, ok := m[r]
		switch {
		case !ok:
			fmt.Fprintf(Out, "  %-6s -\n", r)
		case p >= 0 && p < len(names):
			fmt.Fprintf(Out, "  %-6s %d (%s)\n", r, p, names[p])
		default:
			fmt.Fprintf(Out, "  %-6s %d (out of range)\n", r, p)
		}
	}
}

func PrintAssignments(assignments []indices.Assignment) {
	if len(assignments) == 0 {
		PrintWarning("no band role could be inferred from the band names")
		return
	}
	PrintHeader("Inferred roles")
	for _, a := range assignments {
		fmt.Fprintf(Out, "  %s\n", a)
	}
}

// EditMapping walks through every role and lets the user keep, change or
// clear its band. Enter keeps the current value, "-" clears it. The edit
// stops early, keeping what was entered so far, when input runs out.
func EditMapping(in io.Reader, names []string, m indices.RoleMapping) (indices.RoleMapping, error) {
	out := m.Clone()
	reader := bufio.NewReader(in)
	PrintBands(names)

	for _, r := range indices.Roles() {
		for {
			current := "-"
			if p, ok := out[r]; ok {
				current = strconv.Itoa(p)
			}
			input, err := ReadString(reader, fmt.Sprintf("%s [%s]: ", r, current))
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(Out)
				return out, nil
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read band mapping: %w", err)
			}

			if input == "" {
				break
			}
			if input == "-" {
				delete(out, r)
				break
			}
			p, err := strconv.Atoi(input)
			if err != nil || p < 0 || p >= len(names) {
				PrintError(fmt.Sprintf("enter a band number between 0 and %d, '-' or nothing", len(names)-1))
				continue
			}
			out[r] = p
			break
		}
	}
	return out, nil
}
