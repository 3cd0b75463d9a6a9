package indices

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownIndex        = errors.New("unknown index")
	ErrMissingBandRole     = errors.New("missing band role")
	ErrBandIndexOutOfRange = errors.New("band index out of range")
	// ErrInvalidInput marks a caller contract violation: malformed grids,
	// mismatched band names, or bands of different shapes.
	ErrInvalidInput = errors.New("invalid input")
)

// MissingRolesError lists every required role absent from a mapping.
type MissingRolesError struct {
	Index string
	Roles []Role
}

func (e *MissingRolesError) Error() string {
	names := make([]string, len(e.Roles))
	for i, r := range e.Roles {
		names[i] = r.String()
	}
	return fmt.Sprintf("missing required band mapping(s) for %s: %s", e.Index, strings.Join(names, ", "))
}

func (e *MissingRolesError) Unwrap() error { return ErrMissingBandRole }

// OutOfRangeError reports a role mapped past the available bands.
type OutOfRangeError struct {
	Index     string
	Role      Role
	Position  int
	BandCount int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("mapped index %d for %q is out of range (0-%d) in %s", e.Position, e.Role, e.BandCount-1, e.Index)
}

func (e *OutOfRangeError) Unwrap() error { return ErrBandIndexOutOfRange }

func unknownIndex(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownIndex, name)
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
