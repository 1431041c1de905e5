package seating

import "errors"

// Domain errors for the seating package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, seating.ErrInvalidLayout) {
//	    // reject the layout
//	}
var (
	// ErrInvalidLayout is returned when a grid layout fails validation.
	ErrInvalidLayout = errors.New("seating: invalid layout")

	// ErrInvalidSeatKey is returned when a "row-col" key cannot be parsed.
	ErrInvalidSeatKey = errors.New("seating: invalid seat key")

	// ErrInvalidZone is returned when a part zone fails validation.
	ErrInvalidZone = errors.New("seating: invalid zone")

	// ErrInvalidPart is returned for an unknown part name.
	ErrInvalidPart = errors.New("seating: invalid part")

	// ErrInvalidMember is returned when a member record cannot be seated.
	ErrInvalidMember = errors.New("seating: invalid member")

	// ErrMemberSeated is returned when inserting a member who already has a seat.
	ErrMemberSeated = errors.New("seating: member already seated")

	// ErrCapacityExceeded is returned when members cannot fit the requested rows.
	ErrCapacityExceeded = errors.New("seating: capacity exceeded")

	// ErrProfileNotFound is returned when no zone profile is stored under a name.
	ErrProfileNotFound = errors.New("seating: zone profile not found")
)
