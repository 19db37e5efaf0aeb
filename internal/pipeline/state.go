package pipeline

// State is the orchestrator's position in a cycle.
type State string

const (
	StateIdle        State = "idle"
	StateFetching    State = "fetching"
	StateAnalyzing   State = "analyzing"
	StateCorrelating State = "correlating"
	StatePredicting  State = "predicting"
	StatePublished   State = "published"
	// StateRecovery is entered while a stage-wide fallback runs. Per-article
	// fallbacks do not change the state.
	StateRecovery State = "recovery"
)
