package engine

import "github.com/rotisserie/eris"

var (
	// ErrDuplicateComponent is returned when adding a component type an entity already has
	ErrDuplicateComponent = eris.New("engine: duplicate component")
	// ErrComponentNotFound is returned by Get on an entity lacking the component type
	ErrComponentNotFound = eris.New("engine: component not found")
	// ErrEntityIDSpaceExhausted is returned when the allocator has no ids left and the recycle pool is empty
	ErrEntityIDSpaceExhausted = eris.New("engine: entity id space exhausted")
	// ErrInvalidEntity is returned for the null entity, ids above the configured maximum, or dead entities
	ErrInvalidEntity = eris.New("engine: invalid entity")
	// ErrConflict is returned on duplicate stage or system registration and invalid lifecycle transitions
	ErrConflict = eris.New("engine: conflict")
	// ErrStageNotFound is returned when looking up an unregistered stage id
	ErrStageNotFound = eris.New("engine: stage not found")
)
