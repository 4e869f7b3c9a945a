package component

// DeathComponent tags an entity for destruction at the end of the tick
type DeathComponent struct{}
