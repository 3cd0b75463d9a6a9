package indices

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, r := range Roles() {
		got, ok := ParseRole(r.String())
		require.True(t, ok, r.String())
		assert.Equal(t, r, got)
	}

	got, ok := ParseRole(" nir ")
	require.True(t, ok)
	assert.Equal(t, NIR, got)

	_, ok = ParseRole("SWIR")
	assert.False(t, ok)
	_, ok = ParseRole("Alpha")
	assert.False(t, ok)
}

func TestRoleMappingJSON(t *testing.T) {
	m := RoleMapping{NIR: 3, Red: 2, SWIR1: 5}
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"NIR":3,"Red":2,"SWIR1":5}`, string(raw))

	var back RoleMapping
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, m, back)

	err = json.Unmarshal([]byte(`{"Purple":1}`), &back)
	require.Error(t, err)
}

func TestRoleStringOutOfRange(t *testing.T) {
	assert.Equal(t, "Role(42)", Role(42).String())
	_, err := Role(42).MarshalText()
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestMappingFromNames(t *testing.T) {
	tests := []struct {
		name        string
		raw         map[string]int
		want        RoleMapping
		wantIgnored []string
	}{
		{
			name: "plain",
			raw:  map[string]int{"NIR": 3, "Red": 2},
			want: RoleMapping{NIR: 3, Red: 2},
		},
		{
			name: "bare swir becomes swir1",
			raw:  map[string]int{"SWIR": 4, "NIR": 3},
			want: RoleMapping{SWIR1: 4, NIR: 3},
		},
		{
			name:        "bare swir ignored when swir1 present",
			raw:         map[string]int{"SWIR": 4, "SWIR1": 5},
			want:        RoleMapping{SWIR1: 5},
			wantIgnored: []string{"SWIR"},
		},
		{
			name:        "unknown keys and negative positions",
			raw:         map[string]int{"Thermal": 1, "Blue": -1, "Green": 0},
			want:        RoleMapping{Green: 0},
			wantIgnored: []string{"Blue", "Thermal"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ignored := MappingFromNames(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantIgnored, ignored)
		})
	}
}

func TestRestrict(t *testing.T) {
	m := RoleMapping{NIR: 0, Red: 5, Blue: 2}
	got, dropped := m.Restrict(3)
	assert.Equal(t, RoleMapping{NIR: 0, Blue: 2}, got)
	assert.Equal(t, []Role{Red}, dropped)
	assert.Equal(t, 5, m[Red], "receiver must not change")
}

func TestNamesRoundTrip(t *testing.T) {
	m := RoleMapping{Blue: 1, SWIR2: 6}
	back, ignored := MappingFromNames(m.Names())
	assert.Empty(t, ignored)
	assert.Equal(t, m, back)
}
