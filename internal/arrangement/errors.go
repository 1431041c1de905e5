package arrangement

import "errors"

// Domain errors for the arrangement package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, arrangement.ErrVersionConflict) {
//	    // reload and retry
//	}
var (
	// ErrNotFound is returned when an arrangement ID does not exist.
	ErrNotFound = errors.New("arrangement: not found")

	// ErrVersionConflict is returned when saving over a newer stored version.
	ErrVersionConflict = errors.New("arrangement: version conflict")

	// ErrInvalidDocument is returned when a document fails validation.
	ErrInvalidDocument = errors.New("arrangement: invalid document")

	// ErrMemberNotSeated is returned when an emergency removal names a member without a seat.
	ErrMemberNotSeated = errors.New("arrangement: member not seated")

	// ErrInvalidEmergency is returned for a malformed emergency request.
	ErrInvalidEmergency = errors.New("arrangement: invalid emergency request")

	// ErrNoCheckpoint is returned when a step reset has no earlier output to return to.
	ErrNoCheckpoint = errors.New("arrangement: no checkpoint")

	// ErrSessionNotFound is returned when no editing session exists for an ID.
	ErrSessionNotFound = errors.New("arrangement: session not found")
)
