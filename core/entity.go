package core

import "math"

// Entity is an opaque identifier; it carries no data and is only valid as a lookup key
type Entity uint32

const (
	// NullEntity is never issued and denotes "no entity"
	NullEntity Entity = 0

	// MaxEntity is reserved as the allocator-exhausted marker and is never issued
	MaxEntity Entity = math.MaxUint32
)

// IsNull reports whether e is the null sentinel
func (e Entity) IsNull() bool {
	return e == NullEntity
}
