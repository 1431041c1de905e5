package arrangement

import (
	"github.com/nerrad567/seatplan-core/internal/seating"
)

// SelectionKind discriminates the Selection union.
type SelectionKind string

const (
	SelectionNone    SelectionKind = "none"
	SelectionSidebar SelectionKind = "sidebar"
	SelectionGrid    SelectionKind = "grid"
)

// Selection is the pending pick of a click-click interaction: nothing, a
// member picked from the sidebar, or an occupied seat picked on the grid.
type Selection struct {
	Kind   SelectionKind   `json:"kind"`
	Member *seating.Member `json:"member,omitempty"`
	Seat   *seating.Seat   `json:"seat,omitempty"`
}

// NoSelection returns the empty selection.
func NoSelection() Selection {
	return Selection{Kind: SelectionNone}
}

// FromSidebar selects a member that is not picked from the grid.
func FromSidebar(m seating.Member) Selection {
	return Selection{Kind: SelectionSidebar, Member: &m}
}

// FromGrid selects the occupant of a seat.
func FromGrid(s seating.Seat) Selection {
	return Selection{Kind: SelectionGrid, Seat: &s}
}

// IsNone reports whether nothing is selected.
func (s Selection) IsNone() bool {
	return s.Kind == "" || s.Kind == SelectionNone
}

// ApplySeatClick resolves a click on target given the pending selection.
//
//   - nothing selected: an occupied seat becomes the selection
//   - sidebar member selected: the member takes target; a member already seated
//     elsewhere swaps with the occupant, otherwise the occupant is unplaced
//   - grid seat selected: the occupant moves to an empty target or swaps with
//     the target's occupant
//   - clicking the selected member again clears the selection
//
// Clicks outside the layout change nothing. The returned bool reports
// whether the state changed; st itself is never modified.
func ApplySeatClick(st State, sel Selection, target seating.Seat) (State, Selection, bool) {
	if !st.Layout.InBounds(target) {
		return st, sel, false
	}
	occupant, occupied := st.Assignments.At(target)

	switch sel.Kind {
	case SelectionSidebar:
		if sel.Member == nil {
			return st, NoSelection(), false
		}
		return clickWithMember(st, *sel.Member, target, occupant, occupied)

	case SelectionGrid:
		if sel.Seat == nil || *sel.Seat == target {
			return st, NoSelection(), false
		}
		src, ok := st.Assignments.At(*sel.Seat)
		if !ok {
			if occupied {
				return st, FromGrid(target), false
			}
			return st, NoSelection(), false
		}
		next := st.Clone()
		delete(next.Assignments, src.Key())
		if occupied {
			delete(next.Assignments, occupant.Key())
			place(next.Assignments, occupant.At(src.Seat()))
		}
		place(next.Assignments, src.At(target))
		return next, NoSelection(), true

	default:
		if occupied {
			return st, FromGrid(target), false
		}
		return st, NoSelection(), false
	}
}

func clickWithMember(st State, m seating.Member, target seating.Seat, occupant seating.SeatAssignment, occupied bool) (State, Selection, bool) {
	if occupied && occupant.MemberID == m.ID {
		return st, NoSelection(), false
	}

	next := st.Clone()
	current, seated := next.Assignments.FindMember(m.ID)
	placed := seating.AssignmentFor(m, target)
	if seated {
		delete(next.Assignments, current.Key())
		placed.IsRowLeader = current.IsRowLeader
	}
	if occupied {
		delete(next.Assignments, occupant.Key())
		if seated {
			place(next.Assignments, occupant.At(current.Seat()))
		} else {
			occupant.IsRowLeader = false
			next.Unplaced = addUnplaced(next.Unplaced, occupant.Member())
		}
	}
	place(next.Assignments, placed)
	next.Unplaced = removeUnplaced(next.Unplaced, m.ID)
	return next, NoSelection(), true
}
