package phase

import (
	"fmt"
	"strings"
)

// Category identifies one kind of tracked mutation.
type Category uint8

const (
	CategoryBlock     Category = iota // block state change
	CategoryEntity                    // entity spawn
	CategoryDrop                      // item drop
	CategoryScheduled                 // scheduled task invocation

	numCategories
)

var categoryNames = [numCategories]string{
	CategoryBlock:     "block",
	CategoryEntity:    "entity_spawn",
	CategoryDrop:      "item_drop",
	CategoryScheduled: "scheduled",
}

// Categories lists every category in apply order.
func Categories() []Category {
	return []Category{CategoryBlock, CategoryEntity, CategoryDrop, CategoryScheduled}
}

func (c Category) String() string {
	if c < numCategories {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// ParseCategory maps a catalog name back to its Category.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range categoryNames {
		if name == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// CapturePolicy is a bitmask of the categories a phase buffers. Categories
// not in the mask pass straight through to the world.
type CapturePolicy uint8

const (
	CaptureNone CapturePolicy = 0
	CaptureAll  CapturePolicy = 1<<numCategories - 1
)

// CaptureOf builds a policy that buffers exactly the given categories.
func CaptureOf(cats ...Category) CapturePolicy {
	var p CapturePolicy
	for _, c := range cats {
		p |= 1 << c
	}
	return p
}

func (p CapturePolicy) Captures(c Category) bool {
	return c < numCategories && p&(1<<c) != 0
}

func (p CapturePolicy) String() string {
	if p == CaptureNone {
		return "none"
	}
	var parts []string
	for _, c := range Categories() {
		if p.Captures(c) {
			parts = append(parts, c.String())
		}
	}
	return strings.Join(parts, "|")
}
