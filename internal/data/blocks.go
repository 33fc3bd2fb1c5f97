package data

import (
	"fmt"
	"os"

	"github.com/l1jgo/causetrack/internal/core/phase"
	"gopkg.in/yaml.v3"
)

// BlockInfo describes how a block type behaves during block ticks.
type BlockInfo struct {
	Name      string `yaml:"name"`
	Gravity   bool   `yaml:"gravity"`    // falls into air below it
	Fragile   bool   `yaml:"fragile"`    // breaks when the block below is air
	Drop      string `yaml:"drop"`       // item dropped when broken, "" = nothing
	DropCount int32  `yaml:"drop_count"` // defaults to 1
	Ticking   bool   `yaml:"ticking"`    // offered to the Lua block rule every tick
}

// BlockTable provides lookup of block behaviour by state name.
type BlockTable struct {
	blocks map[phase.BlockState]*BlockInfo
}

type blockFile struct {
	Blocks []BlockInfo `yaml:"blocks"`
}

// LoadBlockTable loads blocks.yaml.
func LoadBlockTable(path string) (*BlockTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read block table: %w", err)
	}
	var f blockFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse block table: %w", err)
	}
	return NewBlockTable(f.Blocks)
}

// NewBlockTable indexes entries by name.
func NewBlockTable(entries []BlockInfo) (*BlockTable, error) {
	t := &BlockTable{blocks: make(map[phase.BlockState]*BlockInfo, len(entries))}
	for i := range entries {
		b := &entries[i]
		if b.Name == "" {
			return nil, fmt.Errorf("block table: entry %d without a name", i)
		}
		state := phase.BlockState(b.Name)
		if _, dup := t.blocks[state]; dup {
			return nil, fmt.Errorf("block table: duplicate block %q", b.Name)
		}
		if b.Drop != "" && b.DropCount <= 0 {
			b.DropCount = 1
		}
		t.blocks[state] = b
	}
	return t, nil
}

// Get returns the behaviour of state, or nil for unknown blocks (and AIR).
func (t *BlockTable) Get(state phase.BlockState) *BlockInfo {
	if t == nil {
		return nil
	}
	return t.blocks[state]
}

// Count returns the total number of block types loaded.
func (t *BlockTable) Count() int {
	if t == nil {
		return 0
	}
	return len(t.blocks)
}
