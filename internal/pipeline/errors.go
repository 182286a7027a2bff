package pipeline

import "fmt"

// Stage names used in errors and logs.
const (
	StageIdentify = "identify"
	StageImprove  = "improve"
	StageGenerate = "generate"
)

const promptRequiredMessage = "Prompt must be a non-empty string"

// ValidationError rejects input before any completion call is made. Its
// message is meant to be shown to the user verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotDiagramError is returned by Run when the classifier decides the prompt
// does not ask for a diagram. Message is the classifier's own explanation.
type NotDiagramError struct {
	Message string
}

func (e *NotDiagramError) Error() string { return e.Message }

// StageError reports a failed completion call. Error() is the stage-level
// message; the provider failure stays reachable through Unwrap.
type StageError struct {
	Stage   string
	Message string
	Cause   error
}

func (e *StageError) Error() string { return e.Message }

func (e *StageError) Unwrap() error { return e.Cause }

// EmptyResultError reports a nominally successful call that produced only whitespace.
type EmptyResultError struct {
	Stage string
	Cause error
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("%s stage returned an empty result", e.Stage)
}

func (e *EmptyResultError) Unwrap() error { return e.Cause }
