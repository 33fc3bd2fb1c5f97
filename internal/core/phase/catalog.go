package phase

// Built-in phase names.
const (
	Idle           = "idle"
	ScheduledTask  = "scheduled_task"
	Plugin         = "plugin"
	Command        = "command"
	BlockTick      = "block_tick"
	BlockBreak     = "block_break"
	NeighborNotify = "neighbor_notify"
	EntityTick     = "entity_tick"
	EntityDeath    = "entity_death"
	WorldGen       = "world_gen"
)

// Builtins returns the default catalog blueprints. Callers may adjust them
// (completion policy, capture mask) before freezing them with Define.
func Builtins() []Spec {
	return []Spec{
		{Name: Idle, Capture: CaptureNone},
		{Name: ScheduledTask, Capture: CaptureAll, Cancellable: true},
		{Name: Plugin, Capture: CaptureAll, Cancellable: true, DiscardOnFailure: true},
		{Name: Command, Capture: CaptureAll, Cancellable: true, DiscardOnFailure: true},
		{Name: BlockTick, Capture: CaptureOf(CategoryBlock, CategoryEntity, CategoryDrop), Cancellable: true},
		{Name: BlockBreak, Capture: CaptureAll, Cancellable: true},
		{Name: NeighborNotify, Capture: CaptureOf(CategoryBlock, CategoryDrop), Completion: Merge},
		// Blocks pass straight through during entity ticks.
		{Name: EntityTick, Capture: CaptureOf(CategoryEntity, CategoryDrop), Cancellable: true},
		{Name: EntityDeath, Capture: CaptureOf(CategoryEntity, CategoryDrop), Completion: Merge, Cancellable: true},
		{Name: WorldGen, Capture: CaptureNone},
	}
}

// DefaultRegistry freezes Builtins as they are.
func DefaultRegistry() *Registry {
	specs := Builtins()
	defs := make([]*Definition, len(specs))
	for i, s := range specs {
		defs[i] = Define(s)
	}
	r, err := NewRegistry(defs...)
	if err != nil {
		panic(err)
	}
	return r
}
