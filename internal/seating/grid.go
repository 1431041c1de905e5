package seating

import (
	"fmt"
	"math"
	"sort"
)

// Grid bounds.
const (
	// MaxRows is the largest number of rows a layout may have.
	MaxRows = 20

	// MaxRowCapacity is the largest number of seats in a single row.
	MaxRowCapacity = 60

	// maxRowOffset bounds the horizontal shift of a row, in seats.
	maxRowOffset = 2.0

	// offsetStep is the granularity of row offsets (half a seat).
	offsetStep = 0.5
)

// ZigzagPattern selects which rows receive the base half-seat stagger.
type ZigzagPattern string

const (
	ZigzagNone ZigzagPattern = "none"
	ZigzagEven ZigzagPattern = "even"
	ZigzagOdd  ZigzagPattern = "odd"
)

// GridLayout is the shape of the seating grid.
//
// RowOffsets is keyed by the 0-based row index; every other row argument in
// this package is 1-based.
type GridLayout struct {
	Rows          int             `json:"rows"`
	RowCapacities []int           `json:"row_capacities"`
	RowOffsets    map[int]float64 `json:"row_offsets,omitempty"`
	ZigzagPattern ZigzagPattern   `json:"zigzag_pattern"`
}

// NewGridLayout creates a layout with one row per capacity entry.
// Negative capacities are clamped to zero.
func NewGridLayout(capacities []int) GridLayout {
	caps := make([]int, len(capacities))
	for i, c := range capacities {
		caps[i] = max(c, 0)
	}
	return GridLayout{
		Rows:          len(caps),
		RowCapacities: caps,
		ZigzagPattern: ZigzagEven,
	}
}

// Clone returns an independent copy of the layout.
func (g GridLayout) Clone() GridLayout {
	cpy := g
	cpy.RowCapacities = append([]int(nil), g.RowCapacities...)
	if g.RowOffsets != nil {
		cpy.RowOffsets = make(map[int]float64, len(g.RowOffsets))
		for k, v := range g.RowOffsets {
			cpy.RowOffsets[k] = v
		}
	}
	return cpy
}

// Resize returns a copy of the layout with the given row capacities.
//
// The result is always structurally valid: Rows follows the slice length,
// negative capacities become zero and offsets of removed rows are dropped.
// Occupants are never touched here; callers repair orphaned seats.
func (g GridLayout) Resize(newRowCapacities []int) GridLayout {
	out := g.Clone()
	out.RowCapacities = make([]int, len(newRowCapacities))
	for i, c := range newRowCapacities {
		out.RowCapacities[i] = max(c, 0)
	}
	out.Rows = len(out.RowCapacities)
	for idx := range out.RowOffsets {
		if idx < 0 || idx >= out.Rows {
			delete(out.RowOffsets, idx)
		}
	}
	if len(out.RowOffsets) == 0 {
		out.RowOffsets = nil
	}
	return out
}

// Capacity returns the capacity of a 1-based row, or 0 when the row does not exist.
func (g GridLayout) Capacity(row int) int {
	if row < 1 || row > len(g.RowCapacities) {
		return 0
	}
	return g.RowCapacities[row-1]
}

// InBounds reports whether the seat exists in this layout.
func (g GridLayout) InBounds(s Seat) bool {
	return s.Row >= 1 && s.Row <= g.Rows && s.Col >= 1 && s.Col <= g.Capacity(s.Row)
}

// TotalSeats returns the number of seats across all rows.
func (g GridLayout) TotalSeats() int {
	total := 0
	for _, c := range g.RowCapacities {
		total += c
	}
	return total
}

// Seats returns every seat in row-major order.
func (g GridLayout) Seats() []Seat {
	out := make([]Seat, 0, g.TotalSeats())
	for r := 1; r <= g.Rows; r++ {
		for c := 1; c <= g.Capacity(r); c++ {
			out = append(out, Seat{Row: r, Col: c})
		}
	}
	return out
}

// EmptySeats returns the in-bounds seats not present in assignments, row-major.
func (g GridLayout) EmptySeats(assignments Assignments) []Seat {
	var out []Seat
	for _, s := range g.Seats() {
		if _, taken := assignments[s.Key()]; !taken {
			out = append(out, s)
		}
	}
	return out
}

// OffsetForRow returns the resolved horizontal shift of a 1-based row: the
// zigzag base alternation plus the user offset, clamped to [-2, 2].
func (g GridLayout) OffsetForRow(row int) float64 {
	if row < 1 || row > g.Rows {
		return 0
	}
	base := 0.0
	switch g.ZigzagPattern {
	case ZigzagEven:
		if row%2 == 0 {
			base = offsetStep
		}
	case ZigzagOdd:
		if row%2 == 1 {
			base = offsetStep
		}
	}
	return clampOffset(base + g.RowOffsets[row-1])
}

// WithRowOffset returns a copy with the user offset of a 1-based row set.
// The value is snapped to half-seat steps; a zero offset removes the entry.
func (g GridLayout) WithRowOffset(row int, offset float64) GridLayout {
	out := g.Clone()
	if row < 1 || row > g.Rows {
		return out
	}
	snapped := clampOffset(math.Round(offset/offsetStep) * offsetStep)
	if snapped == 0 {
		delete(out.RowOffsets, row-1)
		if len(out.RowOffsets) == 0 {
			out.RowOffsets = nil
		}
		return out
	}
	if out.RowOffsets == nil {
		out.RowOffsets = make(map[int]float64)
	}
	out.RowOffsets[row-1] = snapped
	return out
}

// WithoutOffsets returns a copy with every user row offset cleared.
func (g GridLayout) WithoutOffsets() GridLayout {
	out := g.Clone()
	out.RowOffsets = nil
	return out
}

// Validate checks the structural invariants of a layout.
func (g GridLayout) Validate() error {
	if g.Rows < 1 || g.Rows > MaxRows {
		return fmt.Errorf("%w: rows must be between 1 and %d", ErrInvalidLayout, MaxRows)
	}
	if len(g.RowCapacities) != g.Rows {
		return fmt.Errorf("%w: %d row capacities for %d rows", ErrInvalidLayout, len(g.RowCapacities), g.Rows)
	}
	for i, c := range g.RowCapacities {
		if c < 0 || c > MaxRowCapacity {
			return fmt.Errorf("%w: row %d capacity %d outside 0..%d", ErrInvalidLayout, i+1, c, MaxRowCapacity)
		}
	}
	for idx, off := range g.RowOffsets {
		if idx < 0 || idx >= g.Rows {
			return fmt.Errorf("%w: offset for unknown row index %d", ErrInvalidLayout, idx)
		}
		if math.Abs(off) > maxRowOffset {
			return fmt.Errorf("%w: row %d offset %.1f outside ±%.0f", ErrInvalidLayout, idx+1, off, maxRowOffset)
		}
	}
	switch g.ZigzagPattern {
	case ZigzagNone, ZigzagEven, ZigzagOdd, "":
	default:
		return fmt.Errorf("%w: unknown zigzag pattern %q", ErrInvalidLayout, g.ZigzagPattern)
	}
	return nil
}

// RecommendCapacities spreads memberCount members over rows as evenly as
// possible. Rows are filled front to back; the remainder goes to the back rows,
// which are conventionally the longest on a riser.
//
// Parameters:
//   - memberCount: Number of members to seat
//   - rows: Desired row count (1..MaxRows)
//   - maxPerRow: Largest allowed row capacity (0 means MaxRowCapacity)
//
// Returns:
//   - []int: Recommended capacity per row
//   - error: ErrInvalidLayout for a bad row count, ErrCapacityExceeded when the members cannot fit
func RecommendCapacities(memberCount, rows, maxPerRow int) ([]int, error) {
	if rows < 1 || rows > MaxRows {
		return nil, fmt.Errorf("%w: rows must be between 1 and %d", ErrInvalidLayout, MaxRows)
	}
	if maxPerRow <= 0 || maxPerRow > MaxRowCapacity {
		maxPerRow = MaxRowCapacity
	}
	if memberCount < 0 {
		memberCount = 0
	}
	if memberCount > rows*maxPerRow {
		return nil, fmt.Errorf("%w: %d members do not fit %d rows of %d", ErrCapacityExceeded, memberCount, rows, maxPerRow)
	}

	caps := make([]int, rows)
	base := memberCount / rows
	remainder := memberCount % rows
	for i := range caps {
		caps[i] = base
	}
	for i := rows - 1; i >= 0 && remainder > 0; i-- {
		caps[i]++
		remainder--
	}
	return caps, nil
}

func clampOffset(v float64) float64 {
	return math.Max(-maxRowOffset, math.Min(maxRowOffset, v))
}

// sortSeats orders seats row-major.
func sortSeats(seats []Seat) {
	sort.Slice(seats, func(i, j int) bool {
		if seats[i].Row != seats[j].Row {
			return seats[i].Row < seats[j].Row
		}
		return seats[i].Col < seats[j].Col
	})
}

// sortAssignments orders assignments row-major.
func sortAssignments(list []SeatAssignment) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Row != list[j].Row {
			return list[i].Row < list[j].Row
		}
		return list[i].Col < list[j].Col
	})
}
