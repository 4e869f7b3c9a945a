package component

// PositionComponent is an entity's location in arena cells
type PositionComponent struct {
	X float64
	Y float64
}
