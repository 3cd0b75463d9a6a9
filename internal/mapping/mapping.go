package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/forest-guardian/spectral-indices/internal/cache"
	"github.com/forest-guardian/spectral-indices/internal/indices"
)

// Report lists what was discarded while applying a persisted mapping.
type Report struct {
	// Ignored are keys naming no role, or holding a negative position.
	Ignored []string
	// Dropped are roles pointing past the current image's bands.
	Dropped []indices.Role
}

func (r Report) Empty() bool {
	return len(r.Ignored) == 0 && len(r.Dropped) == 0
}

// Apply turns a flat role-name mapping into a RoleMapping valid for an
// image with bandCount bands.
func Apply(raw map[string]int, bandCount int) (indices.RoleMapping, Report) {
	m, ignored := indices.MappingFromNames(raw)
	m, dropped := m.Restrict(bandCount)
	return m, Report{Ignored: ignored, Dropped: dropped}
}

// Save writes m as an indented {"NIR": 3} JSON object.
func Save(path string, m indices.RoleMapping) error {
	data, err := json.MarshalIndent(m.Names(), "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode band mapping: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create mapping folder: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save band mapping: %w", err)
	}
	return nil
}

// Load reads a mapping file and applies it to an image with bandCount bands.
func Load(path string, bandCount int) (indices.RoleMapping, Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Report{}, fmt.Errorf("failed to read band mapping: %w", err)
	}
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, Report{}, fmt.Errorf("%w: band mapping %q is not a flat role to position object: %v", indices.ErrInvalidInput, path, err)
	}
	m, report := Apply(raw, bandCount)
	return m, report, nil
}

// ParseAssignments reads ROLE=POS pairs such as "nir=3".
func ParseAssignments(pairs []string) (indices.RoleMapping, error) {
	m := make(indices.RoleMapping, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: band assignment %q is not ROLE=POS", indices.ErrInvalidInput, pair)
		}
		role, ok := indices.ParseRole(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a band role", indices.ErrInvalidInput, name)
		}
		pos, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || pos < 0 {
			return nil, fmt.Errorf("%w: band position %q for %s is not a non-negative integer", indices.ErrInvalidInput, value, role)
		}
		m[role] = pos
	}
	return m, nil
}

// ParseParams reads NAME=VALUE formula parameter overrides such as "L=0.25".
func ParseParams(pairs []string) (map[string]float64, error) {
	params := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: parameter %q is not NAME=VALUE", indices.ErrInvalidInput, pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: parameter %s=%q is not a number", indices.ErrInvalidInput, name, value)
		}
		params[strings.TrimSpace(name)] = v
	}
	return params, nil
}

// Store remembers the last mapping confirmed for each image.
type Store struct {
	cache *cache.FileCache[map[string]int]
}

func NewStore(dir string) *Store {
	return &Store{cache: cache.NewFileCache[map[string]int](dir)}
}

func (s *Store) key(imagePath string) string {
	if abs, err := filepath.Abs(imagePath); err == nil {
		imagePath = abs
	}
	return s.cache.GenerateKey(imagePath)
}

func (s *Store) Remember(imagePath string, m indices.RoleMapping) error {
	return s.cache.Set(s.key(imagePath), m.Names())
}

// Recall returns the remembered mapping for imagePath, restricted to
// bandCount bands. ok is false when nothing usable was stored.
func (s *Store) Recall(imagePath string, bandCount int) (indices.RoleMapping, Report, bool) {
	raw, ok := s.cache.Get(s.key(imagePath))
	if !ok {
		return nil, Report{}, false
	}
	m, report := Apply(raw, bandCount)
	return m, report, len(m) > 0
}

func (s *Store) Forget(imagePath string) error {
	return s.cache.Delete(s.key(imagePath))
}
