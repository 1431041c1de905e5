package seating

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResize(t *testing.T) {
	g := NewGridLayout([]int{4, 4, 4}).WithRowOffset(3, 1)
	require.Equal(t, map[int]float64{2: 1}, g.RowOffsets)

	out := g.Resize([]int{5, -2})

	assert.Equal(t, 2, out.Rows)
	assert.Equal(t, []int{5, 0}, out.RowCapacities)
	assert.Nil(t, out.RowOffsets, "offset of dropped row 3 must be removed")
	assert.NoError(t, out.Validate())

	// The receiver is untouched.
	assert.Equal(t, []int{4, 4, 4}, g.RowCapacities)
	assert.Equal(t, 1.0, g.RowOffsets[2])
}

func TestOffsetForRow(t *testing.T) {
	tests := []struct {
		name    string
		pattern ZigzagPattern
		offsets map[int]float64
		row     int
		want    float64
	}{
		{"even pattern odd row", ZigzagEven, nil, 1, 0},
		{"even pattern even row", ZigzagEven, nil, 2, 0.5},
		{"odd pattern odd row", ZigzagOdd, nil, 3, 0.5},
		{"odd pattern even row", ZigzagOdd, nil, 2, 0},
		{"none pattern", ZigzagNone, nil, 2, 0},
		{"user offset added", ZigzagEven, map[int]float64{1: 1}, 2, 1.5},
		{"clamped high", ZigzagEven, map[int]float64{1: 2}, 2, 2},
		{"clamped low", ZigzagNone, map[int]float64{0: -3}, 1, -2},
		{"out of range row", ZigzagEven, nil, 9, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGridLayout([]int{3, 3, 3})
			g.ZigzagPattern = tt.pattern
			g.RowOffsets = tt.offsets
			assert.Equal(t, tt.want, g.OffsetForRow(tt.row))
		})
	}
}

func TestWithRowOffset(t *testing.T) {
	g := NewGridLayout([]int{3, 3})

	snapped := g.WithRowOffset(1, 0.74)
	assert.Equal(t, 0.5, snapped.RowOffsets[0])

	clamped := g.WithRowOffset(2, 7)
	assert.Equal(t, 2.0, clamped.RowOffsets[1])

	cleared := snapped.WithRowOffset(1, 0)
	assert.Nil(t, cleared.RowOffsets)

	noop := g.WithRowOffset(5, 1)
	assert.Equal(t, g, noop)
}

func TestGridLayoutValidate(t *testing.T) {
	tests := []struct {
		name    string
		layout  GridLayout
		wantErr bool
	}{
		{"valid", NewGridLayout([]int{4, 0, 6}), false},
		{"no rows", GridLayout{}, true},
		{"length mismatch", GridLayout{Rows: 2, RowCapacities: []int{1}}, true},
		{"capacity too large", NewGridLayout([]int{MaxRowCapacity + 1}), true},
		{"offset out of range", GridLayout{Rows: 1, RowCapacities: []int{3}, RowOffsets: map[int]float64{0: 2.5}}, true},
		{"offset unknown row", GridLayout{Rows: 1, RowCapacities: []int{3}, RowOffsets: map[int]float64{4: 1}}, true},
		{"bad zigzag", GridLayout{Rows: 1, RowCapacities: []int{3}, ZigzagPattern: "diagonal"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layout.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidLayout)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSeatsAndInBounds(t *testing.T) {
	g := NewGridLayout([]int{2, 0, 1})

	assert.Equal(t, []Seat{{1, 1}, {1, 2}, {3, 1}}, g.Seats())
	assert.Equal(t, 3, g.TotalSeats())
	assert.True(t, g.InBounds(Seat{Row: 3, Col: 1}))
	assert.False(t, g.InBounds(Seat{Row: 2, Col: 1}), "empty row has no seats")
	assert.False(t, g.InBounds(Seat{Row: 4, Col: 1}))
	assert.False(t, g.InBounds(Seat{Row: 1, Col: 0}))
}

func TestRecommendCapacities(t *testing.T) {
	caps, err := RecommendCapacities(10, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 4}, caps)

	caps, err = RecommendCapacities(14, 4, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 4, 4}, caps)

	_, err = RecommendCapacities(25, 2, 12)
	assert.True(t, errors.Is(err, ErrCapacityExceeded))

	_, err = RecommendCapacities(5, 0, 10)
	assert.True(t, errors.Is(err, ErrInvalidLayout))
}

func TestParseSeatKey(t *testing.T) {
	s, err := ParseSeatKey("3-12")
	require.NoError(t, err)
	assert.Equal(t, Seat{Row: 3, Col: 12}, s)
	assert.Equal(t, "3-12", s.Key())

	for _, bad := range []string{"", "3", "a-1", "1-b", "0-1", "1--1"} {
		_, err := ParseSeatKey(bad)
		assert.ErrorIs(t, err, ErrInvalidSeatKey, bad)
	}
}

func TestFromListDropsDuplicates(t *testing.T) {
	list := []SeatAssignment{
		{MemberID: "m1", Row: 1, Col: 1},
		{MemberID: "m1", Row: 1, Col: 2},
		{MemberID: "m2", Row: 1, Col: 1},
		{MemberID: "m3", Row: 2, Col: 1},
	}
	out, dropped := FromList(list)

	assert.Len(t, out, 2)
	assert.Equal(t, "m1", out["1-1"].MemberID)
	assert.Equal(t, "m3", out["2-1"].MemberID)
	assert.Len(t, dropped, 2)
}
