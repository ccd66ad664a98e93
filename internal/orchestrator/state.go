package orchestrator

// State tracks one exchange through the pipeline. Every exchange moves
// Idle → FetchingAndGenerating → ToneSelected → Streaming → Done;
// Errored is reachable from any non-terminal state.
type State int

const (
	StateIdle State = iota
	StateFetchingAndGenerating
	StateToneSelected
	StateStreaming
	StateDone
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetchingAndGenerating:
		return "fetching_and_generating"
	case StateToneSelected:
		return "tone_selected"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}
