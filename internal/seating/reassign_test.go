package seating

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seat builds an assignment for a member named after its ID.
func seat(id string, part Part, row, col int) SeatAssignment {
	return SeatAssignment{MemberID: id, MemberName: "Member " + id, Part: part, Row: row, Col: col}
}

func assignments(list ...SeatAssignment) Assignments {
	out, dropped := FromList(list)
	if len(dropped) > 0 {
		panic(fmt.Sprintf("duplicate test assignments: %v", dropped))
	}
	return out
}

func sopranoEngine(opts ...Option) *Engine {
	zones := NewZoneRegistry(PartZone{Part: PartSoprano, AllowedRows: RowRange{Min: 1, Max: 2}, Side: SideBoth})
	return NewEngine(zones, opts...)
}

func memberAt(t *testing.T, a Assignments, row, col int) string {
	t.Helper()
	v, ok := a.At(Seat{Row: row, Col: col})
	if !ok {
		return ""
	}
	return v.MemberID
}

func TestReassignPullsNearestIntoInteriorGap(t *testing.T) {
	layout := NewGridLayout([]int{4, 4})
	before := assignments(
		seat("s1", PartSoprano, 1, 1),
		seat("s3", PartSoprano, 1, 3),
		seat("s4", PartSoprano, 1, 4),
	)

	res := sopranoEngine().Reassign(ReassignInput{
		Assignments: before,
		Layout:      layout,
		Vacated:     []Seat{{Row: 1, Col: 2}},
	})

	require.Len(t, res.Moved, 1)
	move := res.Moved[0]
	assert.Equal(t, "s1", move.MemberID)
	assert.Equal(t, Seat{Row: 1, Col: 1}, move.From)
	assert.Equal(t, Seat{Row: 1, Col: 2}, move.To)
	assert.Equal(t, ReasonPullInRow, move.Reason)
	assert.False(t, move.OutOfZone)

	assert.Equal(t, "s1", memberAt(t, res.Assignments, 1, 2))
	assert.Equal(t, "", memberAt(t, res.Assignments, 1, 1), "the only new gap is the donor's seat")
	assert.Len(t, res.Assignments, 3)
	assert.Len(t, before, 3, "input must not be modified")
	assert.Equal(t, "s1", memberAt(t, before, 1, 1))
}

func TestReassignLeaderIsMovedLast(t *testing.T) {
	layout := NewGridLayout([]int{4, 4})
	leader := seat("s1", PartSoprano, 1, 1)
	leader.IsRowLeader = true
	in := ReassignInput{
		Assignments: assignments(leader, seat("s3", PartSoprano, 1, 3), seat("s4", PartSoprano, 1, 4)),
		Layout:      layout,
		Vacated:     []Seat{{Row: 1, Col: 2}},
	}

	res := sopranoEngine().Reassign(in)

	// s3 fills 1-2, which opens an interior gap at 1-3 that s4 fills.
	require.Len(t, res.Moved, 2)
	assert.Equal(t, "s3", res.Moved[0].MemberID)
	assert.Equal(t, "s4", res.Moved[1].MemberID)
	assert.Equal(t, Seat{Row: 1, Col: 3}, res.Moved[1].To)
	assert.Equal(t, "s1", memberAt(t, res.Assignments, 1, 1))
	assert.Equal(t, "s3", memberAt(t, res.Assignments, 1, 2))
	assert.Equal(t, "s4", memberAt(t, res.Assignments, 1, 3))
	assert.Equal(t, 2, res.Stats.Pulled)

	bounded := sopranoEngine(WithMaxPullChain(1)).Reassign(in)
	assert.Len(t, bounded.Moved, 1)
}

func TestReassignConsistencyAnchorsMember(t *testing.T) {
	layout := NewGridLayout([]int{4})
	in := ReassignInput{
		Assignments: assignments(seat("s1", PartSoprano, 1, 1), seat("s3", PartSoprano, 1, 3), seat("s4", PartSoprano, 1, 4)),
		Layout:      layout,
		Vacated:     []Seat{{Row: 1, Col: 2}},
	}

	engine := sopranoEngine(WithConsistency(map[string]Consistency{"s1": {Row: 0.9, Col: 0.2}}))
	res := engine.Reassign(in)

	require.NotEmpty(t, res.Moved)
	assert.Equal(t, "s3", res.Moved[0].MemberID)
}

func TestReassignEdgeGapIsLeftAlone(t *testing.T) {
	layout := NewGridLayout([]int{4})
	res := sopranoEngine().Reassign(ReassignInput{
		Assignments: assignments(seat("s2", PartSoprano, 1, 2), seat("s3", PartSoprano, 1, 3)),
		Layout:      layout,
		Vacated:     []Seat{{Row: 1, Col: 1}},
	})

	assert.Empty(t, res.Moved)
	assert.Len(t, res.Assignments, 2)
}

func TestReassignRespectsZoneOnPull(t *testing.T) {
	layout := NewGridLayout([]int{6})
	zones := NewZoneRegistry(
		PartZone{Part: PartAlto, AllowedRows: RowRange{Min: 1, Max: 1}, Side: SideRight},
	)
	leader := seat("s1", PartSoprano, 1, 1)
	leader.IsRowLeader = true

	// Col 2 is left of midCol 3, so a3 may not take it even though the
	// leader scores higher.
	res := NewEngine(zones).Reassign(ReassignInput{
		Assignments: assignments(leader, seat("a3", PartAlto, 1, 3)),
		Layout:      layout,
		Vacated:     []Seat{{Row: 1, Col: 2}},
	})

	require.Len(t, res.Moved, 1)
	assert.Equal(t, "s1", res.Moved[0].MemberID)
	assert.Equal(t, Seat{Row: 1, Col: 2}, res.Moved[0].To)
	assert.True(t, res.Assignments["1-2"].IsRowLeader, "leader flag travels with the member")
}

func TestReassignShrinkOverflow(t *testing.T) {
	before := assignments(
		seat("s1", PartSoprano, 1, 1),
		seat("s2", PartSoprano, 1, 2),
		seat("s4", PartSoprano, 1, 4),
		seat("a2", PartAlto, 2, 2),
		seat("a3", PartAlto, 2, 3),
		seat("a4", PartAlto, 2, 4),
	)
	layout := NewGridLayout([]int{4, 4}).Resize([]int{2, 4})

	res := sopranoEngine().Reassign(ReassignInput{Assignments: before, Layout: layout})

	require.Len(t, res.Moved, 1)
	move := res.Moved[0]
	assert.Equal(t, "s4", move.MemberID)
	assert.Equal(t, Seat{Row: 1, Col: 4}, move.From)
	assert.Equal(t, Seat{Row: 2, Col: 1}, move.To)
	assert.Equal(t, ReasonBoundaryOverflow, move.Reason)
	assert.Equal(t, TierPrimary, move.Tier)
	assert.Equal(t, 1, res.Stats.Orphaned)
	assert.Equal(t, 1, res.Stats.Overflowed)
	assert.Empty(t, res.Unassigned)
	assert.Len(t, res.Assignments, len(before))
}

func TestReassignReportsUnplaceableMembers(t *testing.T) {
	before := assignments(seat("s1", PartSoprano, 1, 1), seat("s2", PartSoprano, 1, 2))
	layout := NewGridLayout([]int{2}).Resize([]int{1})

	res := sopranoEngine().Reassign(ReassignInput{Assignments: before, Layout: layout})

	require.Len(t, res.Unassigned, 1)
	u := res.Unassigned[0]
	assert.Equal(t, "s2", u.Member.ID)
	assert.Equal(t, ReasonNoZoneCapacity, u.Reason)
	require.NotNil(t, u.From)
	assert.Equal(t, Seat{Row: 1, Col: 2}, *u.From)
	assert.Equal(t, len(before), len(res.Assignments)+len(res.Unassigned))
}

func TestReassignOverflowFallbackIsLabelled(t *testing.T) {
	zones := NewZoneRegistry(PartZone{Part: PartTenor, AllowedRows: RowRange{Min: 3, Max: 3}, Side: SideBoth})
	before := assignments(seat("t1", PartTenor, 3, 1))
	layout := NewGridLayout([]int{1, 0, 0}).Resize([]int{1})

	res := NewEngine(zones).Reassign(ReassignInput{Assignments: before, Layout: layout})

	require.Len(t, res.Moved, 1)
	assert.Equal(t, Seat{Row: 1, Col: 1}, res.Moved[0].To)
	assert.Equal(t, TierFallbackSide, res.Moved[0].Tier)
	assert.True(t, res.Moved[0].OutOfZone)
}

func TestReassignIsDeterministic(t *testing.T) {
	build := func() ReassignInput {
		return ReassignInput{
			Assignments: assignments(
				seat("s1", PartSoprano, 1, 1),
				seat("s2", PartSoprano, 1, 3),
				seat("s3", PartSoprano, 1, 5),
				seat("s4", PartSoprano, 1, 6),
				seat("s5", PartSoprano, 2, 5),
				seat("s6", PartSoprano, 2, 6),
			),
			Layout:  NewGridLayout([]int{6, 6}).Resize([]int{6, 4}),
			Vacated: []Seat{{Row: 1, Col: 4}, {Row: 1, Col: 2}, {Row: 1, Col: 2}},
		}
	}

	first := sopranoEngine().Reassign(build())
	for i := 0; i < 10; i++ {
		again := sopranoEngine().Reassign(build())
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("Reassign not deterministic (-first +again):\n%s", diff)
		}
	}
	assert.Equal(t, 6, len(first.Assignments)+len(first.Unassigned))
}

func TestReassignPreservesUniqueness(t *testing.T) {
	res := sopranoEngine().Reassign(ReassignInput{
		Assignments: assignments(
			seat("s1", PartSoprano, 1, 1),
			seat("s2", PartSoprano, 1, 3),
			seat("s3", PartSoprano, 1, 4),
			seat("s4", PartSoprano, 2, 3),
		),
		Layout:  NewGridLayout([]int{4, 4}).Resize([]int{3, 2}),
		Vacated: []Seat{{Row: 1, Col: 2}},
	})

	seen := map[string]bool{}
	for key, a := range res.Assignments {
		assert.Equal(t, key, a.Key())
		assert.False(t, seen[a.MemberID], "member %s seated twice", a.MemberID)
		seen[a.MemberID] = true
		assert.True(t, NewGridLayout([]int{3, 2}).InBounds(a.Seat()))
	}
	assert.Equal(t, 4, len(res.Assignments)+len(res.Unassigned))
}

func TestInsertDisplacesOccupant(t *testing.T) {
	layout := NewGridLayout([]int{2})
	engine := NewEngine(nil)

	res, err := engine.Insert(InsertInput{
		Assignments: assignments(seat("a", PartAlto, 1, 1)),
		Layout:      layout,
		Member:      Member{ID: "b", Name: "B", Part: PartAlto},
		Target:      &Seat{Row: 1, Col: 1},
	})
	require.NoError(t, err)

	require.NotNil(t, res.Placed)
	assert.Equal(t, Seat{Row: 1, Col: 1}, res.Placed.Seat())
	require.Len(t, res.Moved, 1)
	assert.Equal(t, ReasonNearbyReassign, res.Moved[0].Reason)
	assert.Equal(t, Seat{Row: 1, Col: 2}, res.Moved[0].To)
	assert.Equal(t, "a", memberAt(t, res.Assignments, 1, 2))
}

func TestInsertTargetTierFollowsSearchTiers(t *testing.T) {
	zones := NewZoneRegistry(PartZone{Part: PartAlto, AllowedRows: RowRange{Min: 1, Max: 1}, Side: SideLeft})
	engine := NewEngine(zones)
	layout := NewGridLayout([]int{3, 3, 3})

	insertAt := func(target Seat) InsertResult {
		t.Helper()
		res, err := engine.Insert(InsertInput{
			Assignments: assignments(),
			Layout:      layout,
			Member:      Member{ID: "n", Name: "New", Part: PartAlto},
			Target:      &target,
		})
		require.NoError(t, err)
		require.NotNil(t, res.Placed)
		return res
	}

	res := insertAt(Seat{Row: 2, Col: 1})
	assert.Equal(t, TierExpanded, res.Tier)
	assert.False(t, res.Tier.IsFallback())

	res = insertAt(Seat{Row: 3, Col: 3})
	assert.Equal(t, TierFallbackAny, res.Tier)
	assert.True(t, res.Tier.IsFallback())
}

func TestInsertExpandsFullGrid(t *testing.T) {
	layout := NewGridLayout([]int{1})
	in := InsertInput{
		Assignments: assignments(seat("a", PartAlto, 1, 1)),
		Layout:      layout,
		Member:      Member{ID: "b", Name: "B", Part: PartAlto},
	}

	res, err := NewEngine(nil).Insert(in)
	require.NoError(t, err)
	assert.Nil(t, res.Placed)
	require.Len(t, res.Unassigned, 1)

	in.AllowExpand = true
	res, err = NewEngine(nil).Insert(in)
	require.NoError(t, err)
	require.NotNil(t, res.Placed)
	assert.Equal(t, Seat{Row: 1, Col: 2}, res.Placed.Seat())
	assert.Equal(t, []RowResize{{Row: 1, From: 1, To: 2}}, res.Expanded)
	assert.Equal(t, []int{2}, res.Layout.RowCapacities)
	assert.Equal(t, []int{1}, layout.RowCapacities, "input layout untouched")
}

func TestInsertRejectsSeatedMember(t *testing.T) {
	_, err := NewEngine(nil).Insert(InsertInput{
		Assignments: assignments(seat("a", PartAlto, 1, 1)),
		Layout:      NewGridLayout([]int{2}),
		Member:      Member{ID: "a", Name: "A", Part: PartAlto},
	})
	assert.ErrorIs(t, err, ErrMemberSeated)

	_, err = NewEngine(nil).Insert(InsertInput{
		Layout: NewGridLayout([]int{2}),
		Member: Member{ID: "", Part: PartAlto},
	})
	assert.ErrorIs(t, err, ErrInvalidMember)
}

func TestShrinkTrailing(t *testing.T) {
	layout := NewGridLayout([]int{5, 3})
	a := assignments(seat("x", PartBass, 1, 1), seat("y", PartBass, 1, 3), seat("z", PartBass, 2, 3))

	out, changes := ShrinkTrailing(layout, a, 2, 1, 1)

	assert.Equal(t, []RowResize{{Row: 1, From: 5, To: 3}}, changes)
	assert.Equal(t, []int{3, 3}, out.RowCapacities)
}
