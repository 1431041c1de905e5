package arrangement

import (
	"github.com/nerrad567/seatplan-core/internal/seating"
)

// compactRows left-packs every row, keeping row membership and relative order.
func compactRows(st State) State {
	next := st.Clone()
	packed := make(seating.Assignments, len(next.Assignments))
	rows := make(map[int]bool)
	for _, a := range next.Assignments {
		rows[a.Row] = true
	}
	for row := range rows {
		for i, a := range next.Assignments.Row(row) {
			moved := a.At(seating.Seat{Row: row, Col: i + 1})
			packed[moved.Key()] = moved
		}
	}
	next.Assignments = packed
	return next
}
