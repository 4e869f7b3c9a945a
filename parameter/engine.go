package parameter

import "time"

// Tick Loop & Engine Timing
const (
	// DefaultTPS is the logical simulation rate when none is configured
	DefaultTPS = 30

	// FrameUpdateInterval is the demo render interval (~60 FPS), independent of ticks
	FrameUpdateInterval = 16 * time.Millisecond

	// DefaultTickQueueSize is the capacity of the tick event channel between driver and consumer
	DefaultTickQueueSize = 4

	// DefaultMaxBurst is how many intervals the driver may fall behind before clamping
	DefaultMaxBurst = 2
)

// Entity & Storage Limits
const (
	// DefaultPageSize is the number of entity ids covered by one sparse page, must be power of two
	DefaultPageSize = 1024

	// DefaultMaxEntity caps ids accepted by sparse sets, bounding page allocation to 1024 pages
	DefaultMaxEntity = 1<<20 - 1

	// DefaultRecycleCapacity bounds the allocator's recycle pool; excess ids are discarded
	DefaultRecycleCapacity = 4096

	// DefaultDenseCapacity is the initial dense buffer size of a sparse set
	DefaultDenseCapacity = 64

	// DefaultGrowStep is the minimum number of slots added when a dense buffer grows
	DefaultGrowStep = 64

	// DenseAlign rounds dense capacities up to a multiple of this value
	DenseAlign = 16
)

// Demo
const (
	// DefaultDemoEntities is the population the demo spawner maintains
	DefaultDemoEntities = 200
)
