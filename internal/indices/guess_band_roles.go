package indices

import (
	"fmt"
	"regexp"
	"strings"
)

type pattern struct {
	expr *regexp.Regexp
	// notFollowedBy rejects a match when the text right after it matches.
	notFollowedBy *regexp.Regexp
}

func (p pattern) match(name string) bool {
	if p.notFollowedBy == nil {
		return p.expr.MatchString(name)
	}
	for _, loc := range p.expr.FindAllStringIndex(name, -1) {
		if !p.notFollowedBy.MatchString(name[loc[1]:]) {
			return true
		}
	}
	return false
}

func (p pattern) String() string {
	if p.notFollowedBy == nil {
		return p.expr.String()
	}
	return fmt.Sprintf("%s not followed by %s", p.expr, strings.TrimPrefix(p.notFollowedBy.String(), "^"))
}

func patterns(exprs ...string) []pattern {
	out := make([]pattern, len(exprs))
	for i, e := range exprs {
		out[i] = pattern{expr: regexp.MustCompile(e)}
	}
	return out
}

type roleRule struct {
	role     Role
	patterns []pattern
}

// Narrow NIR and SWIR share numeric ids with the visible bands ("8", "8a",
// "11", "12"), so they are resolved before Red, Green and Blue.
var roleRules = []roleRule{
	{NIR, patterns(`\bb8a\b`, `\bb08a\b`, `nir.?narrow`, `nir.?broad`, `near.?infra`, `\bnir\b`, `\bb8\b`, `\bb0?8\b`, `\bband.?8\b`, `\bb5\b`, `\bb0?5\b`, `\bband.?5\b`)},
	{SWIR2, patterns(`\bb12\b`, `\bb0?12\b`, `\bband.?12`, `\bswir.?2\b`, `\bswir.?2.2`, `\bb7\b`, `\bb0?7\b`, `\bband.?7\b`)},
	{SWIR1, append(append(
		patterns(`\bb11\b`, `\bb0?11\b`, `\bband.?11`, `\bswir.?1\b`, `\bswir.?1.6`),
		pattern{expr: regexp.MustCompile(`\bswir\b`), notFollowedBy: regexp.MustCompile(`^.?2`)}),
		patterns(`\bb6\b`, `\bb0?6\b`, `\bband.?6\b`)...)},
	{Red, patterns(`\bred\b`, `\bb4\b`, `\bb0?4\b`, `\bband.?4`)},
	{Green, patterns(`\bgreen\b`, `\bb3\b`, `\bb0?3\b`, `\bband.?3`)},
	{Blue, patterns(`\bblue\b`, `\bb2\b`, `\bb0?2\b`, `\bband.?2`, `coastal`, `aerosol`, `\bb1\b`, `\bb0?1\b`, `\bband.?1`)},
}

type positionalGuess struct {
	position int
	role     Role
}

var (
	// Four or more bands: assume a Blue, Green, Red, NIR stack after band 0.
	multispectralFallback = []positionalGuess{{1, Blue}, {2, Green}, {3, Red}, {4, NIR}}
	rgbFallback           = []positionalGuess{{0, Red}, {1, Green}, {2, Blue}}
)

// Assignment records why a role was bound to a band position.
type Assignment struct {
	Role     Role
	Position int
	BandName string
	// Pattern is empty for positional guesses.
	Pattern  string
	Fallback bool
}

func (a Assignment) String() string {
	if a.Fallback {
		return fmt.Sprintf("%s -> %d (%q, positional fallback)", a.Role, a.Position, a.BandName)
	}
	return fmt.Sprintf("%s -> %d (%q, pattern %s)", a.Role, a.Position, a.BandName, a.Pattern)
}

// Explain runs the band role heuristics over names and returns every
// assignment made, in decision order. Each position is used at most once.
func Explain(names []string) []Assignment {
	if len(names) == 0 {
		return nil
	}
	lower := make([]string, len(names))
	for i, n := range names {
		lower[i] = strings.ToLower(n)
	}

	consumed := make(map[int]bool, len(names))
	assigned := make(map[Role]bool, roleCount)
	var out []Assignment

	// Bands are scanned in order and the first band matching any of the
	// role's patterns wins: "B8" then "B8A" gives NIR=0.
	for _, rule := range roleRules {
	scan:
		for i, name := range lower {
			if consumed[i] {
				continue
			}
			for _, p := range rule.patterns {
				if !p.match(name) {
					continue
				}
				out = append(out, Assignment{Role: rule.role, Position: i, BandName: names[i], Pattern: p.String()})
				consumed[i] = true
				assigned[rule.role] = true
				break scan
			}
		}
	}

	var guesses []positionalGuess
	switch {
	case len(names) >= 4:
		guesses = multispectralFallback
	case len(names) == 3:
		guesses = rgbFallback
	}
	for _, g := range guesses {
		if g.position >= len(names) || assigned[g.role] || consumed[g.position] {
			continue
		}
		out = append(out, Assignment{Role: g.role, Position: g.position, BandName: names[g.position], Fallback: true})
		consumed[g.position] = true
		assigned[g.role] = true
	}
	return out
}

// Infer guesses a role mapping from raw band names. Roles that cannot be
// resolved are absent from the result.
func Infer(names []string) RoleMapping {
	assignments := Explain(names)
	m := make(RoleMapping, len(assignments))
	for _, a := range assignments {
		m[a.Role] = a.Position
	}
	return m
}
