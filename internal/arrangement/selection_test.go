package arrangement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nerrad567/seatplan-core/internal/seating"
)

func clickState(list ...seating.SeatAssignment) State {
	byKey, _ := seating.FromList(list)
	return State{Layout: seating.NewGridLayout([]int{4, 4}), Assignments: byKey}
}

func TestApplySeatClick(t *testing.T) {
	leader := at("s2", seating.PartSoprano, 1, 2)
	leader.IsRowLeader = true
	base := clickState(at("s1", seating.PartSoprano, 1, 1), leader)

	tests := []struct {
		name        string
		sel         Selection
		target      seating.Seat
		wantChanged bool
		wantSel     SelectionKind
		check       func(t *testing.T, st State)
	}{
		{
			name:    "nothing selected picks the occupant",
			sel:     NoSelection(),
			target:  seating.Seat{Row: 1, Col: 1},
			wantSel: SelectionGrid,
		},
		{
			name:    "nothing selected on an empty seat does nothing",
			sel:     NoSelection(),
			target:  seating.Seat{Row: 2, Col: 1},
			wantSel: SelectionNone,
		},
		{
			name:        "sidebar member takes an empty seat",
			sel:         FromSidebar(member("a1", seating.PartAlto)),
			target:      seating.Seat{Row: 2, Col: 4},
			wantChanged: true,
			wantSel:     SelectionNone,
			check: func(t *testing.T, st State) {
				assert.Equal(t, "a1", occupantAt(st, 2, 4))
			},
		},
		{
			name:        "new member displaces the occupant to unplaced",
			sel:         FromSidebar(member("a1", seating.PartAlto)),
			target:      seating.Seat{Row: 1, Col: 2},
			wantChanged: true,
			wantSel:     SelectionNone,
			check: func(t *testing.T, st State) {
				assert.Equal(t, "a1", occupantAt(st, 1, 2))
				a, _ := st.Assignments.At(seating.Seat{Row: 1, Col: 2})
				assert.False(t, a.IsRowLeader, "leader flag does not pass to the newcomer")
				if assert.Len(t, st.Unplaced, 1) {
					assert.Equal(t, "s2", st.Unplaced[0].ID)
				}
			},
		},
		{
			name:        "seated sidebar member swaps with the occupant",
			sel:         FromSidebar(member("s1", seating.PartSoprano)),
			target:      seating.Seat{Row: 1, Col: 2},
			wantChanged: true,
			wantSel:     SelectionNone,
			check: func(t *testing.T, st State) {
				assert.Equal(t, "s1", occupantAt(st, 1, 2))
				assert.Equal(t, "s2", occupantAt(st, 1, 1))
				a, _ := st.Assignments.At(seating.Seat{Row: 1, Col: 1})
				assert.True(t, a.IsRowLeader, "leader flag travels with the member")
				assert.Empty(t, st.Unplaced)
			},
		},
		{
			name:        "grid selection moves to an empty seat",
			sel:         FromGrid(seating.Seat{Row: 1, Col: 1}),
			target:      seating.Seat{Row: 2, Col: 3},
			wantChanged: true,
			wantSel:     SelectionNone,
			check: func(t *testing.T, st State) {
				assert.Equal(t, "", occupantAt(st, 1, 1))
				assert.Equal(t, "s1", occupantAt(st, 2, 3))
			},
		},
		{
			name:        "grid selection swaps two occupants",
			sel:         FromGrid(seating.Seat{Row: 1, Col: 1}),
			target:      seating.Seat{Row: 1, Col: 2},
			wantChanged: true,
			wantSel:     SelectionNone,
			check: func(t *testing.T, st State) {
				assert.Equal(t, "s2", occupantAt(st, 1, 1))
				assert.Equal(t, "s1", occupantAt(st, 1, 2))
			},
		},
		{
			name:    "clicking the selected seat again clears the selection",
			sel:     FromGrid(seating.Seat{Row: 1, Col: 1}),
			target:  seating.Seat{Row: 1, Col: 1},
			wantSel: SelectionNone,
		},
		{
			name:    "click outside the layout is ignored",
			sel:     FromSidebar(member("a1", seating.PartAlto)),
			target:  seating.Seat{Row: 1, Col: 9},
			wantSel: SelectionSidebar,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := base.Clone()
			next, sel, changed := ApplySeatClick(base, tt.sel, tt.target)

			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.wantSel, sel.Kind)
			assert.True(t, base.Equal(before), "input state must not be modified")
			if !changed {
				assert.True(t, next.Equal(base))
			}
			if tt.check != nil {
				tt.check(t, next)
			}
			assert.Equal(t, len(base.Assignments)+len(base.Unplaced)+btoi(tt.sel.Member != nil && !seatedIn(base, tt.sel.Member.ID) && changed),
				len(next.Assignments)+len(next.Unplaced), "no member is lost or duplicated")
		})
	}
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

func seatedIn(st State, id string) bool {
	_, ok := st.Assignments.FindMember(id)
	return ok
}
