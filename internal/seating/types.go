package seating

import (
	"fmt"
	"strconv"
	"strings"
)

// Part is the singer group a member belongs to. Zones are defined per part.
type Part string

const (
	PartSoprano Part = "SOPRANO"
	PartAlto    Part = "ALTO"
	PartTenor   Part = "TENOR"
	PartBass    Part = "BASS"
	PartSpecial Part = "SPECIAL"
)

// AllParts returns every part in display order.
func AllParts() []Part {
	return []Part{PartSoprano, PartAlto, PartTenor, PartBass, PartSpecial}
}

// validParts is a pre-computed set for O(1) part validation.
var validParts = func() map[Part]int {
	m := make(map[Part]int, len(AllParts()))
	for i, p := range AllParts() {
		m[p] = i
	}
	return m
}()

// ValidPart checks whether the given string names a known part.
func ValidPart(s string) bool {
	_, ok := validParts[Part(s)]
	return ok
}

// partOrder returns the display index of a part; unknown parts sort last.
func partOrder(p Part) int {
	if i, ok := validParts[p]; ok {
		return i
	}
	return len(validParts)
}

// Seat is a 1-based grid coordinate.
type Seat struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Key returns the assignment map key for the seat ("row-col").
func (s Seat) Key() string {
	return strconv.Itoa(s.Row) + "-" + strconv.Itoa(s.Col)
}

// String implements fmt.Stringer.
func (s Seat) String() string {
	return s.Key()
}

// Distance returns the Manhattan distance between two seats.
func (s Seat) Distance(o Seat) int {
	return abs(s.Row-o.Row) + abs(s.Col-o.Col)
}

// ParseSeatKey parses a "row-col" key.
func ParseSeatKey(key string) (Seat, error) {
	rowStr, colStr, ok := strings.Cut(key, "-")
	if !ok {
		return Seat{}, fmt.Errorf("%w: %q", ErrInvalidSeatKey, key)
	}
	row, err := strconv.Atoi(rowStr)
	if err != nil {
		return Seat{}, fmt.Errorf("%w: %q", ErrInvalidSeatKey, key)
	}
	col, err := strconv.Atoi(colStr)
	if err != nil {
		return Seat{}, fmt.Errorf("%w: %q", ErrInvalidSeatKey, key)
	}
	if row < 1 || col < 1 {
		return Seat{}, fmt.Errorf("%w: %q", ErrInvalidSeatKey, key)
	}
	return Seat{Row: row, Col: col}, nil
}

// Member is a person who can be seated. It mirrors the directory entry the
// arrangement is built from.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Part Part   `json:"part"`
}

// SeatAssignment places one member at one seat.
type SeatAssignment struct {
	MemberID    string `json:"member_id"`
	MemberName  string `json:"member_name"`
	Part        Part   `json:"part"`
	Row         int    `json:"row"`
	Col         int    `json:"col"`
	IsRowLeader bool   `json:"is_row_leader"`
}

// Seat returns the assignment's coordinate.
func (a SeatAssignment) Seat() Seat {
	return Seat{Row: a.Row, Col: a.Col}
}

// Key returns the assignment map key.
func (a SeatAssignment) Key() string {
	return a.Seat().Key()
}

// Member returns the member carried by the assignment.
func (a SeatAssignment) Member() Member {
	return Member{ID: a.MemberID, Name: a.MemberName, Part: a.Part}
}

// At returns a copy of the assignment moved to seat s.
func (a SeatAssignment) At(s Seat) SeatAssignment {
	a.Row = s.Row
	a.Col = s.Col
	return a
}

// AssignmentFor builds an assignment for member m at seat s.
func AssignmentFor(m Member, s Seat) SeatAssignment {
	return SeatAssignment{
		MemberID:   m.ID,
		MemberName: m.Name,
		Part:       m.Part,
		Row:        s.Row,
		Col:        s.Col,
	}
}

// Assignments is the authoritative seat map keyed by Seat.Key().
type Assignments map[string]SeatAssignment

// Clone returns an independent copy of the map.
func (a Assignments) Clone() Assignments {
	out := make(Assignments, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// FindMember returns the seat occupied by memberID.
func (a Assignments) FindMember(memberID string) (SeatAssignment, bool) {
	for _, v := range a {
		if v.MemberID == memberID {
			return v, true
		}
	}
	return SeatAssignment{}, false
}

// At returns the occupant of seat s.
func (a Assignments) At(s Seat) (SeatAssignment, bool) {
	v, ok := a[s.Key()]
	return v, ok
}

// Sorted returns the assignments in row-major order.
func (a Assignments) Sorted() []SeatAssignment {
	out := make([]SeatAssignment, 0, len(a))
	for _, v := range a {
		out = append(out, v)
	}
	sortAssignments(out)
	return out
}

// Row returns the occupants of a row ordered by column.
func (a Assignments) Row(row int) []SeatAssignment {
	var out []SeatAssignment
	for _, v := range a {
		if v.Row == row {
			out = append(out, v)
		}
	}
	sortAssignments(out)
	return out
}

// FromList builds an Assignments map from a list. Later duplicates of a seat
// or a member are dropped and returned separately.
func FromList(list []SeatAssignment) (Assignments, []SeatAssignment) {
	out := make(Assignments, len(list))
	seen := make(map[string]struct{}, len(list))
	var dropped []SeatAssignment
	for _, a := range list {
		if _, dup := seen[a.MemberID]; dup {
			dropped = append(dropped, a)
			continue
		}
		if _, taken := out[a.Key()]; taken {
			dropped = append(dropped, a)
			continue
		}
		seen[a.MemberID] = struct{}{}
		out[a.Key()] = a
	}
	return out, dropped
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
