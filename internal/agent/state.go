package agent

// State is the agent loop's position in its cycle.
type State string

const (
	StateIdle      State = "IDLE"
	StateStarting  State = "STARTING"
	StateCapturing State = "CAPTURING"
	StateInferring State = "INFERRING"
	StateParsing   State = "PARSING"
	StateExecuting State = "EXECUTING"
	StatePacing    State = "PACING"
	StateStopped   State = "STOPPED"
	StateFailed    State = "FAILED"
)

// Terminal reports whether the loop has exited.
func (s State) Terminal() bool {
	return s == StateStopped || s == StateFailed
}
