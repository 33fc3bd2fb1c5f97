package phase

import "fmt"

// BlockPos is an integer block coordinate.
type BlockPos struct {
	X int32
	Y int32
	Z int32
}

func (p BlockPos) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// Offset returns the position shifted by the given deltas.
func (p BlockPos) Offset(dx, dy, dz int32) BlockPos {
	return BlockPos{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

// BlockState is the block type name stored at a position ("AIR", "STONE", ...).
type BlockState string

const BlockAir BlockState = "AIR"

// Applier is the capability the simulation's world type implements so that
// committed effects can be written back to it.
type Applier interface {
	SetBlock(pos BlockPos, state BlockState) error
	SpawnEntity(spawn EntitySpawn) error
	DropItem(drop ItemDrop) error
	Schedule(inv ScheduledInvocation) error
}

// Effect is one buffered mutation. The concrete types below are the only
// implementations.
type Effect interface {
	Category() Category
	Apply(a Applier) error
	String() string
}

// BlockChange replaces the block at Pos.
type BlockChange struct {
	Pos BlockPos
	Old BlockState
	New BlockState
}

func (BlockChange) Category() Category      { return CategoryBlock }
func (e BlockChange) Apply(a Applier) error { return a.SetBlock(e.Pos, e.New) }
func (e BlockChange) String() string {
	return fmt.Sprintf("block %s %s->%s", e.Pos, e.Old, e.New)
}

// EntitySpawn adds a new entity of Kind at Pos. TTL is in ticks, 0 = no expiry.
type EntitySpawn struct {
	Kind string
	Pos  BlockPos
	TTL  int
}

func (EntitySpawn) Category() Category      { return CategoryEntity }
func (e EntitySpawn) Apply(a Applier) error { return a.SpawnEntity(e) }
func (e EntitySpawn) String() string {
	return fmt.Sprintf("spawn %s at %s", e.Kind, e.Pos)
}

// ItemDrop places Count of Item on the ground at Pos.
type ItemDrop struct {
	Item  string
	Count int32
	Pos   BlockPos
	TTL   int
}

func (ItemDrop) Category() Category      { return CategoryDrop }
func (e ItemDrop) Apply(a Applier) error { return a.DropItem(e) }
func (e ItemDrop) String() string {
	return fmt.Sprintf("drop %dx%s at %s", e.Count, e.Item, e.Pos)
}

// ScheduledInvocation hands Run to the scheduler, Delay ticks from now.
type ScheduledInvocation struct {
	Name  string
	Delay int
	Run   func() error
}

func (ScheduledInvocation) Category() Category      { return CategoryScheduled }
func (e ScheduledInvocation) Apply(a Applier) error { return a.Schedule(e) }
func (e ScheduledInvocation) String() string {
	return fmt.Sprintf("schedule %s +%d", e.Name, e.Delay)
}
