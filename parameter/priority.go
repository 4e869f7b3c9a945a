package parameter

// System Execution Priorities (lower runs first within a stage)
const (
	// Pre-update stage
	PrioritySpawn = 10

	// Update stage
	PriorityMotion = 10
	PriorityBounds = 20

	// Post-update stage
	PriorityTimer = 30 // Tags expired entities
	PriorityCull  = 40 // After timer, destroys tagged entities
)

// Demo spawn tuning
const (
	// SpawnPerTick caps how many entities the spawner creates in one tick
	SpawnPerTick = 16

	// LifetimeMinTicks and LifetimeMaxTicks bound a spawned entity's lifetime
	LifetimeMinTicks = 60
	LifetimeMaxTicks = 240

	// MaxSpeed is the largest per-axis speed in cells per tick
	MaxSpeed = 0.8

	// DefaultArenaWidth and DefaultArenaHeight size the arena when no screen is attached
	DefaultArenaWidth  = 80
	DefaultArenaHeight = 24
)
