package component

// TimerComponent counts down ticks until the entity expires
type TimerComponent struct {
	Remaining int
}
