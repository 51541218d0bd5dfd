package query

// State names a position in the pipeline's linear state machine. Transitions
// run strictly forward: Created, Embedding, Retrieving, Assembling,
// Synthesizing, Done. Failed is terminal and reachable from any stage.
type State string

const (
	// StateCreated is the initial state before any stage has run.
	StateCreated State = "created"
	// StateEmbedding is the question-embedding stage.
	StateEmbedding State = "embedding"
	// StateRetrieving is the top-K similarity search stage.
	StateRetrieving State = "retrieving"
	// StateAssembling is the context-assembly stage.
	StateAssembling State = "assembling"
	// StateSynthesizing is the answer-synthesis stage.
	StateSynthesizing State = "synthesizing"
	// StateDone is the successful terminal state.
	StateDone State = "done"
	// StateFailed is the failure terminal state.
	StateFailed State = "failed"
)
