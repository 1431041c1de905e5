package workflow

import "errors"

// Domain errors for the workflow package.
var (
	// ErrInvalidStep is returned for a step outside 1..7.
	ErrInvalidStep = errors.New("workflow: invalid step")

	// ErrStepLocked is returned when a step is not reachable in wizard mode.
	ErrStepLocked = errors.New("workflow: step locked")

	// ErrNothingToReset is returned when resetting a step without artifacts.
	ErrNothingToReset = errors.New("workflow: nothing to reset")
)
