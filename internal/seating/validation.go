package seating

import (
	"fmt"
	"strings"
)

// Validation limits.
const (
	maxMemberIDLength   = 64
	maxMemberNameLength = 100
)

// ValidateZone checks if a part zone is well formed.
func ValidateZone(z PartZone) error {
	if !ValidPart(string(z.Part)) {
		return fmt.Errorf("%w: %q", ErrInvalidPart, z.Part)
	}
	if z.AllowedRows.Min < 1 || z.AllowedRows.Max < z.AllowedRows.Min {
		return fmt.Errorf("%w: %s allowed rows %d..%d", ErrInvalidZone, z.Part, z.AllowedRows.Min, z.AllowedRows.Max)
	}
	if z.AllowedRows.Max > MaxRows {
		return fmt.Errorf("%w: %s allowed rows exceed %d", ErrInvalidZone, z.Part, MaxRows)
	}
	switch z.Side {
	case SideLeft, SideRight, SideBoth:
	default:
		return fmt.Errorf("%w: %s side %q", ErrInvalidZone, z.Part, z.Side)
	}
	for _, r := range z.ForbiddenRows {
		if r < 1 || r > MaxRows {
			return fmt.Errorf("%w: %s forbidden row %d", ErrInvalidZone, z.Part, r)
		}
	}
	for _, r := range z.PreferredRows {
		if r < 1 || r > MaxRows {
			return fmt.Errorf("%w: %s preferred row %d", ErrInvalidZone, z.Part, r)
		}
	}
	return nil
}

// ValidateMember checks if a member can be seated.
func ValidateMember(m Member) error {
	id := strings.TrimSpace(m.ID)
	if id == "" || len(id) > maxMemberIDLength {
		return fmt.Errorf("%w: member id %q", ErrInvalidMember, m.ID)
	}
	if len(m.Name) > maxMemberNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidMember, maxMemberNameLength)
	}
	if !ValidPart(string(m.Part)) {
		return fmt.Errorf("%w: %q", ErrInvalidPart, m.Part)
	}
	return nil
}
