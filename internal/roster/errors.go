package roster

import "errors"

// Domain errors for the roster package.
var (
	// ErrMemberNotFound is returned when a member ID does not exist.
	ErrMemberNotFound = errors.New("roster: member not found")

	// ErrMemberExists is returned when creating a member whose ID is taken.
	ErrMemberExists = errors.New("roster: member already exists")

	// ErrInvalidDate is returned for dates that are not YYYY-MM-DD.
	ErrInvalidDate = errors.New("roster: invalid date")
)
