package query

import "fmt"

// Kind classifies a query failure.
type Kind string

const (
	// KindTimeout means the request deadline expired while a stage was
	// waiting on an external call.
	KindTimeout Kind = "timeout"
	// KindRetrievalEmpty means the similarity search returned no documents.
	KindRetrievalEmpty Kind = "retrieval_empty"
	// KindSynthesisFailed means the LLM could not produce an answer.
	KindSynthesisFailed Kind = "synthesis_failed"
)

// Error is the failure surface of the query pipeline. Stage records where the
// pipeline was when it transitioned to Failed.
type Error struct {
	// Kind classifies the failure.
	Kind Kind
	// Stage is the pipeline state at the time of failure.
	Stage State
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("query: %s during %s: %v", e.Kind, e.Stage, e.Err)
	}
	return fmt.Sprintf("query: %s during %s", e.Kind, e.Stage)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }
