package host

import "errors"

var (
	// ErrNoRun is returned when an operation needs a live run and there is none.
	ErrNoRun = errors.New("no run")
	// ErrRunInProgress is returned when beginning a run while another is not finished.
	ErrRunInProgress = errors.New("a run is already in progress")
	// ErrTemplateNotFound is returned when the requested template does not exist.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrInvalidTemplate is returned when a template yields no tasks for the pace.
	ErrInvalidTemplate = errors.New("invalid template")
	// ErrInvalidPace is returned for a pace other than low, steady or flow.
	ErrInvalidPace = errors.New("invalid pace")
	// ErrUnknownAction is returned for an action kind the engine does not know.
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidTask is returned for an ad-hoc task without a name or with a negative duration.
	ErrInvalidTask = errors.New("invalid task")
)
