package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/l1jgo/causetrack/internal/core/phase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const samplePhases = `
phases:
  - name: block_tick
    capture: [block]
    cancellable: false
  - name: explosion
    capture: [block, item_drop]
    completion: merge
    cancellable: true
`

func TestMissingCatalogUsesBuiltins(t *testing.T) {
	cat, err := LoadPhaseCatalog(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Zero(t, cat.Count())

	reg, err := BuildRegistry(cat, nil)
	require.NoError(t, err)
	assert.Equal(t, len(phase.Builtins()), reg.Count())
	assert.Equal(t, phase.Merge, reg.MustLookup(phase.NeighborNotify).Completion())
}

func TestCatalogOverlay(t *testing.T) {
	cat, err := LoadPhaseCatalog(writeFile(t, "phases.yaml", samplePhases))
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Count())

	reg, err := BuildRegistry(cat, nil)
	require.NoError(t, err)

	bt := reg.MustLookup(phase.BlockTick)
	assert.True(t, bt.Captures(phase.CategoryBlock))
	assert.False(t, bt.Captures(phase.CategoryDrop))
	assert.False(t, bt.Cancellable())

	ex := reg.MustLookup("explosion")
	assert.Equal(t, phase.CaptureOf(phase.CategoryBlock, phase.CategoryDrop), ex.Capture())
	assert.Equal(t, phase.Merge, ex.Completion())
	assert.True(t, ex.Cancellable())

	// untouched builtins keep their blueprint
	assert.True(t, reg.MustLookup(phase.Plugin).DiscardOnFailure())
}

func TestMergePhasesOverridesCompletion(t *testing.T) {
	cat, err := LoadPhaseCatalog(writeFile(t, "phases.yaml", samplePhases))
	require.NoError(t, err)

	reg, err := BuildRegistry(cat, []string{phase.EntityTick})
	require.NoError(t, err)
	assert.Equal(t, phase.Merge, reg.MustLookup(phase.EntityTick).Completion())
	assert.Equal(t, phase.Independent, reg.MustLookup(phase.NeighborNotify).Completion())
	assert.Equal(t, phase.Independent, reg.MustLookup("explosion").Completion())

	none, err := BuildRegistry(nil, []string{})
	require.NoError(t, err)
	for _, name := range none.Names() {
		assert.Equal(t, phase.Independent, none.MustLookup(name).Completion(), name)
	}
}

func TestMergePhasesRejectsUnknownName(t *testing.T) {
	_, err := BuildRegistry(nil, []string{"teleport"})
	assert.ErrorIs(t, err, phase.ErrUnknownPhase)
}

func TestCatalogErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no name", "phases:\n  - capture: [all]\n"},
		{"duplicate", "phases:\n  - name: a\n  - name: a\n"},
		{"bad yaml", "phases: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPhaseCatalog(writeFile(t, "phases.yaml", tt.body))
			assert.Error(t, err)
		})
	}

	cat, err := LoadPhaseCatalog(writeFile(t, "phases.yaml", "phases:\n  - name: x\n    capture: [weather]\n"))
	require.NoError(t, err)
	_, err = BuildRegistry(cat, nil)
	assert.ErrorContains(t, err, "weather")

	cat, err = LoadPhaseCatalog(writeFile(t, "phases.yaml", "phases:\n  - name: x\n    completion: later\n"))
	require.NoError(t, err)
	_, err = BuildRegistry(cat, nil)
	assert.ErrorContains(t, err, "later")
}

func TestIdleOverrideMustNotCapture(t *testing.T) {
	cat, err := LoadPhaseCatalog(writeFile(t, "phases.yaml", "phases:\n  - name: idle\n    capture: [block]\n"))
	require.NoError(t, err)
	_, err = BuildRegistry(cat, nil)
	assert.Error(t, err)
}

func TestBlockTable(t *testing.T) {
	path := writeFile(t, "blocks.yaml", `
blocks:
  - name: SAND
    gravity: true
    drop: sand
  - name: TORCH
    fragile: true
    drop: torch
    drop_count: 2
  - name: GLASS
`)
	tbl, err := LoadBlockTable(path)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Count())

	sand := tbl.Get("SAND")
	require.NotNil(t, sand)
	assert.True(t, sand.Gravity)
	assert.Equal(t, int32(1), sand.DropCount)
	assert.Equal(t, int32(2), tbl.Get("TORCH").DropCount)
	assert.Zero(t, tbl.Get("GLASS").DropCount)
	assert.Nil(t, tbl.Get(phase.BlockAir))

	var nilTable *BlockTable
	assert.Nil(t, nilTable.Get("SAND"))
	assert.Zero(t, nilTable.Count())
}

func TestBlockTableErrors(t *testing.T) {
	_, err := NewBlockTable([]BlockInfo{{Name: "A"}, {Name: "A"}})
	assert.ErrorContains(t, err, "duplicate")
	_, err = NewBlockTable([]BlockInfo{{}})
	assert.Error(t, err)
	_, err = LoadBlockTable(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}

func TestShippedDataFilesLoad(t *testing.T) {
	cat, err := LoadPhaseCatalog("../../data/yaml/phases.yaml")
	require.NoError(t, err)
	_, err = BuildRegistry(cat, []string{phase.NeighborNotify, phase.EntityDeath})
	require.NoError(t, err)

	tbl, err := LoadBlockTable("../../data/yaml/blocks.yaml")
	require.NoError(t, err)
	assert.True(t, tbl.Get("GRASS").Ticking)
}
