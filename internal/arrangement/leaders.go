package arrangement

import (
	"github.com/nerrad567/seatplan-core/internal/seating"
)

// toggleLeader flips the leader flag at seat, clearing any other leader in
// the same row. Returns false when the seat is empty or out of bounds.
func toggleLeader(st State, s seating.Seat) (State, bool) {
	if !st.Layout.InBounds(s) {
		return st, false
	}
	a, ok := st.Assignments.At(s)
	if !ok {
		return st, false
	}
	next := st.Clone()
	for key, other := range next.Assignments {
		if other.Row == s.Row && other.IsRowLeader {
			other.IsRowLeader = false
			next.Assignments[key] = other
		}
	}
	a.IsRowLeader = !a.IsRowLeader
	next.Assignments[a.Key()] = a
	return next, true
}

// autoAssignLeaders makes the occupant nearest the middle of each row its
// leader. Ties go to the lower column.
func autoAssignLeaders(st State) State {
	next := clearLeaders(st)
	for row := 1; row <= st.Layout.Rows; row++ {
		occupants := next.Assignments.Row(row)
		if len(occupants) == 0 {
			continue
		}
		// Twice the centre keeps the comparison integral.
		centre2 := st.Layout.Capacity(row) + 1
		best := occupants[0]
		for _, a := range occupants[1:] {
			if distance2(a.Col, centre2) < distance2(best.Col, centre2) {
				best = a
			}
		}
		best.IsRowLeader = true
		next.Assignments[best.Key()] = best
	}
	return next
}

func distance2(col, centre2 int) int {
	d := 2*col - centre2
	if d < 0 {
		return -d
	}
	return d
}

// clearLeaders drops every leader flag.
func clearLeaders(st State) State {
	next := st.Clone()
	for key, a := range next.Assignments {
		if a.IsRowLeader {
			a.IsRowLeader = false
			next.Assignments[key] = a
		}
	}
	return next
}

// normalizeLeaders keeps at most one leader per row, the lowest column.
func normalizeLeaders(assignments seating.Assignments) {
	seen := make(map[int]bool)
	for _, a := range assignments.Sorted() {
		if !a.IsRowLeader {
			continue
		}
		if seen[a.Row] {
			a.IsRowLeader = false
			assignments[a.Key()] = a
			continue
		}
		seen[a.Row] = true
	}
}
