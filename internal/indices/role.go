package indices

import (
	"fmt"
	"sort"
	"strings"
)

// Role is a semantic band category that formulas are written against,
// independent of a sensor's own band numbering.
type Role int

const (
	Blue Role = iota
	Green
	Red
	NIR
	SWIR1
	SWIR2
	roleCount
)

var roleNames = [roleCount]string{"Blue", "Green", "Red", "NIR", "SWIR1", "SWIR2"}

// Roles lists every role in display order.
func Roles() []Role {
	return []Role{Blue, Green, Red, NIR, SWIR1, SWIR2}
}

func (r Role) String() string {
	if r < 0 || r >= roleCount {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleNames[r]
}

func (r Role) valid() bool {
	return r >= 0 && r < roleCount
}

// ParseRole matches a role name case-insensitively.
func ParseRole(name string) (Role, bool) {
	name = strings.TrimSpace(name)
	for i, n := range roleNames {
		if strings.EqualFold(n, name) {
			return Role(i), true
		}
	}
	return 0, false
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.valid() {
		return nil, fmt.Errorf("%w: role %d", ErrInvalidInput, int(r))
	}
	return []byte(roleNames[r]), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, ok := ParseRole(string(text))
	if !ok {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, string(text))
	}
	*r = parsed
	return nil
}

// RoleMapping assigns roles to zero-based band positions. Uniqueness of
// positions is not required: every role is looked up on its own.
type RoleMapping map[Role]int

func (m RoleMapping) Has(r Role) bool {
	_, ok := m[r]
	return ok
}

func (m RoleMapping) Clone() RoleMapping {
	out := make(RoleMapping, len(m))
	for r, p := range m {
		out[r] = p
	}
	return out
}

// Restrict returns the roles whose position is valid for an image with
// bandCount bands, plus the roles that had to be dropped.
func (m RoleMapping) Restrict(bandCount int) (RoleMapping, []Role) {
	out := make(RoleMapping, len(m))
	var dropped []Role
	for _, r := range Roles() {
		p, ok := m[r]
		if !ok {
			continue
		}
		if p < 0 || p >= bandCount {
			dropped = append(dropped, r)
			continue
		}
		out[r] = p
	}
	return out, dropped
}

// Names flattens the mapping into the persisted {"NIR": 3} form.
func (m RoleMapping) Names() map[string]int {
	out := make(map[string]int, len(m))
	for r, p := range m {
		if r.valid() {
			out[r.String()] = p
		}
	}
	return out
}

// MappingFromNames converts a persisted flat mapping into a RoleMapping.
// A bare "SWIR" entry becomes SWIR1 unless SWIR1 is present. Keys that name
// no role, and negative positions, are returned as ignored.
func MappingFromNames(raw map[string]int) (RoleMapping, []string) {
	out := make(RoleMapping, len(raw))
	var ignored []string
	var swir *int
	for key, p := range raw {
		if strings.EqualFold(strings.TrimSpace(key), "SWIR") {
			v := p
			swir = &v
			continue
		}
		r, ok := ParseRole(key)
		if !ok || p < 0 {
			ignored = append(ignored, key)
			continue
		}
		out[r] = p
	}
	if swir != nil {
		if _, ok := out[SWIR1]; !ok && *swir >= 0 {
			out[SWIR1] = *swir
		} else {
			ignored = append(ignored, "SWIR")
		}
	}
	sort.Strings(ignored)
	return out, ignored
}
