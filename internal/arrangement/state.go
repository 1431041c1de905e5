package arrangement

import (
	"reflect"
	"slices"
	"sort"

	"github.com/nerrad567/seatplan-core/internal/seating"
)

// DefaultHistoryLimit is the number of undo frames kept by default.
const DefaultHistoryLimit = 50

// State is the undoable part of an arrangement.
//
// Unplaced lists members known to the arrangement that have no seat, such
// as occupants displaced by a click or members the engine could not seat.
type State struct {
	Layout      seating.GridLayout  `json:"layout"`
	Assignments seating.Assignments `json:"assignments"`
	Unplaced    []seating.Member    `json:"unplaced,omitempty"`
}

// Clone returns an independent copy of the state.
func (s State) Clone() State {
	return State{
		Layout:      s.Layout.Clone(),
		Assignments: s.Assignments.Clone(),
		Unplaced:    slices.Clone(s.Unplaced),
	}
}

// SeatedMembers returns the seated members in row-major seat order.
func (s State) SeatedMembers() []seating.Member {
	sorted := s.Assignments.Sorted()
	out := make([]seating.Member, 0, len(sorted))
	for _, a := range sorted {
		out = append(out, a.Member())
	}
	return out
}

// Equal reports whether two states are identical.
func (s State) Equal(o State) bool {
	return reflect.DeepEqual(s.normalized(), o.normalized())
}

// normalized maps empty collections to their canonical form.
func (s State) normalized() State {
	if s.Assignments == nil {
		s.Assignments = seating.Assignments{}
	}
	if len(s.Unplaced) == 0 {
		s.Unplaced = nil
	}
	if len(s.Layout.RowOffsets) == 0 {
		s.Layout.RowOffsets = nil
	}
	return s
}

// addUnplaced returns list with m appended unless already present. The
// result is ordered by name then ID.
func addUnplaced(list []seating.Member, members ...seating.Member) []seating.Member {
	out := slices.Clone(list)
	for _, m := range members {
		if slices.ContainsFunc(out, func(x seating.Member) bool { return x.ID == m.ID }) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

// removeUnplaced returns list without the member with id.
func removeUnplaced(list []seating.Member, id string) []seating.Member {
	out := slices.DeleteFunc(slices.Clone(list), func(m seating.Member) bool { return m.ID == id })
	if len(out) == 0 {
		return nil
	}
	return out
}

// place stores a in out, dropping its leader flag when its row already has
// another leader.
func place(out seating.Assignments, a seating.SeatAssignment) {
	if a.IsRowLeader {
		for _, other := range out {
			if other.Row == a.Row && other.IsRowLeader && other.MemberID != a.MemberID {
				a.IsRowLeader = false
				break
			}
		}
	}
	out[a.Key()] = a
}

// history is a bounded snapshot stack.
type history struct {
	past   []State
	future []State
	limit  int
}

func newHistory(limit int) *history {
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	return &history{limit: limit}
}

// push records prev as the frame to return to and drops the redo branch.
func (h *history) push(prev State) {
	h.past = append(h.past, prev)
	if len(h.past) > h.limit {
		h.past = slices.Delete(h.past, 0, len(h.past)-h.limit)
	}
	h.future = nil
}

func (h *history) undo(current State) (State, bool) {
	if len(h.past) == 0 {
		return State{}, false
	}
	prev := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, current)
	return prev, true
}

func (h *history) redo(current State) (State, bool) {
	if len(h.future) == 0 {
		return State{}, false
	}
	next := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, current)
	return next, true
}

func (h *history) reset() {
	h.past = nil
	h.future = nil
}
