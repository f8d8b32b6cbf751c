package types

// PipelineState is the orchestrator's operating mode. Transitions are
// Initializing → Running (normal start) or Initializing → Degraded
// (accelerator or model unavailable; terminal for the run). Per-cycle
// faults recover in place and never change the state.
type PipelineState int32

const (
	StateInitializing PipelineState = iota
	StateRunning
	StateDegraded
)

// String implements fmt.Stringer.
func (s PipelineState) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}
