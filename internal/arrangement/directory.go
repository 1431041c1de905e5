package arrangement

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/seatplan-core/internal/seating"
)

// DirectoryMember is a member record as the member directory supplies it.
type DirectoryMember struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Part     seating.Part `json:"part"`
	IsSinger bool         `json:"is_singer"`
}

// MemberDirectory lists the people an arrangement can seat. The arrangement
// only reads from it.
type MemberDirectory interface {
	ListMembers(ctx context.Context) ([]DirectoryMember, error)
}

// AttendanceService answers whether a member is available on a date.
type AttendanceService interface {
	IsAvailable(ctx context.Context, memberID string, date time.Time) (bool, error)
}

// AvailableMembers returns the singers from dir that att reports available
// on date, in directory order.
func AvailableMembers(ctx context.Context, dir MemberDirectory, att AttendanceService, date time.Time) ([]seating.Member, error) {
	all, err := dir.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	var out []seating.Member
	for _, m := range all {
		if !m.IsSinger {
			continue
		}
		if att != nil {
			ok, err := att.IsAvailable(ctx, m.ID, date)
			if err != nil {
				return nil, fmt.Errorf("checking attendance of %s: %w", m.ID, err)
			}
			if !ok {
				continue
			}
		}
		out = append(out, seating.Member{ID: m.ID, Name: m.Name, Part: m.Part})
	}
	return out, nil
}

// FilterAvailable drops assignments of members att reports unavailable on
// date. It runs before a store is built from saved seat data.
func FilterAvailable(ctx context.Context, att AttendanceService, date time.Time, list []seating.SeatAssignment) ([]seating.SeatAssignment, error) {
	if att == nil {
		return list, nil
	}
	out := make([]seating.SeatAssignment, 0, len(list))
	for _, a := range list {
		ok, err := att.IsAvailable(ctx, a.MemberID, date)
		if err != nil {
			return nil, fmt.Errorf("checking attendance of %s: %w", a.MemberID, err)
		}
		if ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// PartCounts tallies members by part.
func PartCounts(members []seating.Member) map[seating.Part]int {
	out := make(map[seating.Part]int, len(seating.AllParts()))
	for _, m := range members {
		out[m.Part]++
	}
	return out
}
