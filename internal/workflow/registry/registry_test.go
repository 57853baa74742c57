package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/tddflow/internal/workflow"
)

func TestNewKeepsRegistrationOrder(t *testing.T) {
	reg, err := New([]Entry{
		{ID: "c", Tier: TierBasic},
		{ID: "a", Tier: TierBasic, DependsOn: []string{"c"}},
		{ID: "b", Tier: TierAdvanced, DependsOn: []string{"a", "c"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, reg.IDs())
	assert.Equal(t, []string{"a", "c"}, reg.Dependencies("b"))
	assert.Equal(t, []string{"a", "b"}, reg.Dependents("c"))
	assert.Equal(t, 3, reg.Len())
	assert.True(t, reg.Contains("a"))
	assert.False(t, reg.Contains("z"))
}

func TestEntryReturnsCopies(t *testing.T) {
	reg, err := New([]Entry{
		{ID: "a", Tier: TierBasic},
		{ID: "b", Tier: TierBasic, DependsOn: []string{"a"}},
	})
	require.NoError(t, err)
	entry, ok := reg.Entry("b")
	require.True(t, ok)
	entry.DependsOn[0] = "mutated"
	assert.Equal(t, []string{"a"}, reg.Dependencies("b"))

	_, ok = reg.Entry("missing")
	assert.False(t, ok)
}

func TestNewNormalizesFields(t *testing.T) {
	reg, err := New([]Entry{
		{ID: "  a ", Tier: " Basic "},
		{ID: "b", Tier: TierBasic, DependsOn: []string{" a ", ""}},
	})
	require.NoError(t, err)
	entry, ok := reg.Entry("a")
	require.True(t, ok)
	assert.Equal(t, TierBasic, entry.Tier)
	assert.Equal(t, []string{"a"}, reg.Dependencies("b"))
}

func TestNewRejectsInvalidGraphs(t *testing.T) {
	cases := []struct {
		name      string
		entries   []Entry
		component string
		contains  string
	}{
		{
			name:     "empty",
			entries:  nil,
			contains: "at least one component",
		},
		{
			name:     "missing id",
			entries:  []Entry{{Tier: TierBasic}},
			contains: "id is required",
		},
		{
			name:      "duplicate",
			entries:   []Entry{{ID: "a", Tier: TierBasic}, {ID: "a", Tier: TierBasic}},
			component: "a",
			contains:  "duplicate component",
		},
		{
			name:      "unknown tier",
			entries:   []Entry{{ID: "a", Tier: "expert"}},
			component: "a",
			contains:  "unknown tier",
		},
		{
			name:      "dangling",
			entries:   []Entry{{ID: "a", Tier: TierBasic, DependsOn: []string{"ghost"}}},
			component: "a",
			contains:  "ghost is not declared",
		},
		{
			name:      "self",
			entries:   []Entry{{ID: "a", Tier: TierBasic, DependsOn: []string{"a"}}},
			component: "a",
			contains:  "depends on itself",
		},
		{
			name: "duplicate dependency",
			entries: []Entry{
				{ID: "a", Tier: TierBasic},
				{ID: "b", Tier: TierBasic, DependsOn: []string{"a", "a"}},
			},
			component: "b",
			contains:  "duplicate dependency",
		},
		{
			name: "cycle",
			entries: []Entry{
				{ID: "root", Tier: TierBasic},
				{ID: "a", Tier: TierBasic, DependsOn: []string{"root", "c"}},
				{ID: "b", Tier: TierBasic, DependsOn: []string{"a"}},
				{ID: "c", Tier: TierBasic, DependsOn: []string{"b"}},
			},
			component: "a",
			contains:  "a -> c -> b -> a",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reg, err := New(tc.entries)
			require.Error(t, err)
			assert.Nil(t, reg)
			assert.True(t, errors.Is(err, workflow.ErrRegistry))
			var regErr *workflow.RegistryError
			require.True(t, errors.As(err, &regErr))
			assert.Equal(t, tc.component, regErr.Component)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestDefaultCatalog(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)
	ids := reg.IDs()
	require.Len(t, ids, 8)
	assert.Equal(t, "src/utils/types.rs", ids[0])
	assert.Equal(t, "src/quantum/entanglement.rs", ids[7])

	entry, ok := reg.Entry("src/network/kuramoto.rs")
	require.True(t, ok)
	assert.Equal(t, TierAdvanced, entry.Tier)
	assert.Equal(t, "tests/network/kuramoto_tests.rs", entry.TestArtifact)
	assert.Equal(t, []string{"src/quantum/state.rs", "src/sync/phase.rs"}, entry.DependsOn)
}

func TestParseCatalogYAMLErrors(t *testing.T) {
	_, err := ParseCatalogYAML([]byte("   \n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")

	_, err = ParseCatalogYAML([]byte("name: x\ncomponents:\n  - id: a\n    tier: basic\n    owner: me\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode catalog")

	_, err = ParseCatalogYAML([]byte("name: x\ncomponents:\n  - id: a\n    tier: basic\n    depends_on: [b]\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, workflow.ErrRegistry)
}

func TestLoadCatalog(t *testing.T) {
	reg, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, 8, reg.Len())

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: tiny
components:
  - id: lib.go
    tier: basic
  - id: cmd.go
    tier: intermediate
    depends_on: [lib.go]
`), 0o644))
	reg, err = LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"lib.go", "cmd.go"}, reg.IDs())

	_, err = LoadCatalogFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry: read")
}
