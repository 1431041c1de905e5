package arrangement

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/seatplan-core/internal/seating"
	"github.com/nerrad567/seatplan-core/internal/workflow"
)

func member(id string, part seating.Part) seating.Member {
	return seating.Member{ID: id, Name: "Member " + id, Part: part}
}

func at(id string, part seating.Part, row, col int) seating.SeatAssignment {
	return seating.AssignmentFor(member(id, part), seating.Seat{Row: row, Col: col})
}

// newTestStore creates a store over caps with an unconstrained engine.
func newTestStore(t *testing.T, caps []int, opts ...StoreOption) *Store {
	t.Helper()
	base := []StoreOption{WithEngine(seating.NewEngine(nil))}
	return NewStore(seating.NewGridLayout(caps), append(base, opts...)...)
}

func occupantAt(st State, row, col int) string {
	a, ok := st.Assignments.At(seating.Seat{Row: row, Col: col})
	if !ok {
		return ""
	}
	return a.MemberID
}

var stateCmp = cmpopts.EquateEmpty()

func TestUndoRedoRestoresIdenticalState(t *testing.T) {
	s := newTestStore(t, []int{4, 4})
	s.SetAssignments([]seating.SeatAssignment{
		at("s1", seating.PartSoprano, 1, 1),
		at("s2", seating.PartSoprano, 1, 2),
		at("a1", seating.PartAlto, 2, 3),
	})
	first := s.Snapshot()

	require.True(t, s.ToggleRowLeader(1, 1))
	second := s.Snapshot()

	require.True(t, s.RemoveMember(1, 2))
	third := s.Snapshot()

	require.True(t, s.Undo())
	assert.Empty(t, cmp.Diff(second, s.Snapshot(), stateCmp))
	require.True(t, s.Undo())
	assert.Empty(t, cmp.Diff(first, s.Snapshot(), stateCmp))

	require.True(t, s.Redo())
	assert.Empty(t, cmp.Diff(second, s.Snapshot(), stateCmp))
	require.True(t, s.Redo())
	assert.Empty(t, cmp.Diff(third, s.Snapshot(), stateCmp))
	assert.False(t, s.Redo())
	assert.False(t, s.CanRedo())
}

func TestNewCommitDropsRedoBranch(t *testing.T) {
	s := newTestStore(t, []int{4})
	s.SetAssignments([]seating.SeatAssignment{at("s1", seating.PartSoprano, 1, 1)})
	require.True(t, s.SetRowOffset(1, 1))
	require.True(t, s.Undo())
	require.True(t, s.CanRedo())

	require.True(t, s.SetRowOffset(1, -1))
	assert.False(t, s.CanRedo())
}

func TestNoOpOperationsRecordNothing(t *testing.T) {
	s := newTestStore(t, []int{4, 4})

	assert.False(t, s.CompactAllRows())
	assert.False(t, s.ClearAllRowLeaders())
	assert.False(t, s.RemoveMember(1, 1))
	assert.False(t, s.HandleSeatClick(9, 9))
	assert.False(t, s.ToggleRowLeader(1, 1))
	assert.False(t, s.SetRowOffset(7, 1))
	assert.Empty(t, s.SetAssignments(nil))

	assert.False(t, s.CanUndo())
	assert.False(t, s.Undo())
}

func TestHistoryLimitDropsOldestFrame(t *testing.T) {
	s := newTestStore(t, []int{4}, WithHistoryLimit(2))
	require.True(t, s.SetRowOffset(1, 0.5))
	require.True(t, s.SetRowOffset(1, 1))
	require.True(t, s.SetRowOffset(1, 1.5))

	require.True(t, s.Undo())
	require.True(t, s.Undo())
	assert.False(t, s.Undo(), "third frame was dropped")
	assert.InDelta(t, 0.5, s.Snapshot().Layout.RowOffsets[0], 1e-9)
}

func TestSetAssignmentsRejectsDuplicatesAndOutOfBounds(t *testing.T) {
	s := newTestStore(t, []int{3})
	rejected := s.SetAssignments([]seating.SeatAssignment{
		at("s1", seating.PartSoprano, 1, 1),
		at("s1", seating.PartSoprano, 1, 2),
		at("s2", seating.PartSoprano, 1, 1),
		at("s3", seating.PartSoprano, 2, 1),
	})

	st := s.Snapshot()
	assert.Len(t, st.Assignments, 1)
	assert.Equal(t, "s1", occupantAt(st, 1, 1))
	assert.Len(t, rejected, 3)

	ids := make([]string, 0, len(st.Unplaced))
	for _, m := range st.Unplaced {
		ids = append(ids, m.ID)
	}
	assert.ElementsMatch(t, []string{"s2", "s3"}, ids, "seated duplicate is not listed as unplaced")
}

func TestSetAssignmentsKeepsOneLeaderPerRow(t *testing.T) {
	s := newTestStore(t, []int{4})
	a := at("s1", seating.PartSoprano, 1, 3)
	a.IsRowLeader = true
	b := at("s2", seating.PartSoprano, 1, 2)
	b.IsRowLeader = true
	s.SetAssignments([]seating.SeatAssignment{a, b})

	st := s.Snapshot()
	leader, _ := st.Assignments.At(seating.Seat{Row: 1, Col: 2})
	other, _ := st.Assignments.At(seating.Seat{Row: 1, Col: 3})
	assert.True(t, leader.IsRowLeader)
	assert.False(t, other.IsRowLeader)
}

func TestSidebarSelectionSeatsMember(t *testing.T) {
	s := newTestStore(t, []int{4})
	s.SelectMember(member("s1", seating.PartSoprano))

	require.True(t, s.HandleSeatClick(1, 3))
	assert.Equal(t, "s1", occupantAt(s.Snapshot(), 1, 3))
	assert.True(t, s.Selection().IsNone())
}

func TestSetGridLayoutRelocatesOrphansInOneFrame(t *testing.T) {
	s := newTestStore(t, []int{4, 4})
	s.SetAssignments([]seating.SeatAssignment{
		at("s1", seating.PartSoprano, 1, 1),
		at("s4", seating.PartSoprano, 1, 4),
	})
	before := s.Snapshot()

	res, err := s.SetGridLayout(seating.NewGridLayout([]int{3, 4}), false)
	require.NoError(t, err)
	require.Len(t, res.Moved, 1)
	assert.Equal(t, seating.ReasonBoundaryOverflow, res.Moved[0].Reason)
	assert.Equal(t, seating.Seat{Row: 1, Col: 3}, res.Moved[0].To)
	assert.Equal(t, "s4", occupantAt(s.Snapshot(), 1, 3))

	require.True(t, s.Undo())
	assert.Empty(t, cmp.Diff(before, s.Snapshot(), stateCmp))
}

func TestSetGridLayoutSurfacesUnplaceableMembers(t *testing.T) {
	s := newTestStore(t, []int{2})
	s.SetAssignments([]seating.SeatAssignment{
		at("s1", seating.PartSoprano, 1, 1),
		at("s2", seating.PartSoprano, 1, 2),
	})

	res, err := s.SetGridLayout(seating.NewGridLayout([]int{1}), false)
	require.NoError(t, err)
	require.Len(t, res.Unassigned, 1)
	assert.Equal(t, "s2", res.Unassigned[0].Member.ID)

	st := s.Snapshot()
	require.Len(t, st.Unplaced, 1)
	assert.Equal(t, "s2", st.Unplaced[0].ID)
}

func TestSetGridLayoutRejectsInvalidLayout(t *testing.T) {
	s := newTestStore(t, []int{2})
	bad := seating.GridLayout{Rows: 2, RowCapacities: []int{1}}
	_, err := s.SetGridLayout(bad, false)
	require.ErrorIs(t, err, seating.ErrInvalidLayout)
	assert.False(t, s.CanUndo())
}

func TestCompactAllRowsIsIdempotent(t *testing.T) {
	s := newTestStore(t, []int{5, 5})
	s.SetAssignments([]seating.SeatAssignment{
		at("s1", seating.PartSoprano, 1, 2),
		at("s2", seating.PartSoprano, 1, 4),
		at("t1", seating.PartTenor, 2, 5),
	})

	require.True(t, s.CompactAllRows())
	st := s.Snapshot()
	assert.Equal(t, "s1", occupantAt(st, 1, 1))
	assert.Equal(t, "s2", occupantAt(st, 1, 2))
	assert.Equal(t, "t1", occupantAt(st, 2, 1))

	assert.False(t, s.CompactAllRows())
}

func TestRowLeaders(t *testing.T) {
	s := newTestStore(t, []int{5})
	s.SetAssignments([]seating.SeatAssignment{
		at("s1", seating.PartSoprano, 1, 1),
		at("s2", seating.PartSoprano, 1, 2),
		at("s4", seating.PartSoprano, 1, 4),
	})

	require.True(t, s.AutoAssignRowLeaders())
	leaders := func() []string {
		var ids []string
		for _, a := range s.Snapshot().Assignments.Sorted() {
			if a.IsRowLeader {
				ids = append(ids, a.MemberID)
			}
		}
		return ids
	}
	assert.Equal(t, []string{"s2"}, leaders(), "tie at the centre goes to the lower column")

	require.True(t, s.ToggleRowLeader(1, 4))
	assert.Equal(t, []string{"s4"}, leaders())

	require.True(t, s.ToggleRowLeader(1, 4))
	assert.Empty(t, leaders())

	s.AutoAssignRowLeaders()
	require.True(t, s.ClearAllRowLeaders())
	assert.Empty(t, leaders())
}

func TestAutoPlaceSeatsByZone(t *testing.T) {
	s := NewStore(seating.NewGridLayout([]int{4, 4}))
	res := s.AutoPlace([]seating.Member{
		member("b1", seating.PartBass),
		member("s1", seating.PartSoprano),
	})
	require.Len(t, res.Placed, 2)

	st := s.Snapshot()
	sop, ok := st.Assignments.FindMember("s1")
	require.True(t, ok)
	bass, ok := st.Assignments.FindMember("b1")
	require.True(t, ok)
	assert.Equal(t, 1, sop.Row, "sopranos sit at the front")
	assert.Equal(t, 2, bass.Row, "basses sit at the back")
	assert.True(t, s.CanUndo())
}

func TestResetStepArtifacts(t *testing.T) {
	s := newTestStore(t, []int{4, 4})
	s.SetAssignments([]seating.SeatAssignment{
		at("s1", seating.PartSoprano, 1, 1),
		at("s2", seating.PartSoprano, 1, 2),
	})

	require.ErrorIs(t, s.ResetStepArtifacts(workflow.StepSeatAdjust), ErrNoCheckpoint)
	require.ErrorIs(t, s.ResetStepArtifacts(workflow.StepPublish), workflow.ErrNothingToReset)

	s.CheckpointStep(workflow.StepPlacement)
	s.SelectMember(member("s1", seating.PartSoprano))
	require.True(t, s.HandleSeatClick(1, 2))
	assert.Equal(t, "s1", occupantAt(s.Snapshot(), 1, 2))

	require.NoError(t, s.ResetStepArtifacts(workflow.StepSeatAdjust))
	st := s.Snapshot()
	assert.Equal(t, "s1", occupantAt(st, 1, 1))
	assert.Equal(t, "s2", occupantAt(st, 1, 2))

	require.True(t, s.SetRowOffset(2, 1))
	require.NoError(t, s.ResetStepArtifacts(workflow.StepOffsets))
	assert.Empty(t, s.Snapshot().Layout.RowOffsets)

	require.NoError(t, s.ResetStepArtifacts(workflow.StepPlacement))
	st = s.Snapshot()
	assert.Empty(t, st.Assignments)
	assert.Len(t, st.Unplaced, 2)

	require.True(t, s.Undo(), "a reset is one undoable frame")
	assert.Len(t, s.Snapshot().Assignments, 2)
}

func TestMachineDrivesStoreCheckpoints(t *testing.T) {
	s := newTestStore(t, []int{4})
	m := workflow.NewMachine(s)
	require.NoError(t, m.CompleteStep(workflow.StepCapacity))
	require.NoError(t, m.CompleteStep(workflow.StepGrid))

	s.SetAssignments([]seating.SeatAssignment{at("s1", seating.PartSoprano, 1, 1)})
	require.NoError(t, m.CompleteStep(workflow.StepPlacement))

	require.True(t, s.ToggleRowLeader(1, 1))
	require.NoError(t, m.ResetCurrentStepOnly(workflow.StepLeaders))
	a, _ := s.Snapshot().Assignments.At(seating.Seat{Row: 1, Col: 1})
	assert.False(t, a.IsRowLeader)

	m.ResetAll()
	st := s.Snapshot()
	assert.Empty(t, st.Assignments)
	require.Len(t, st.Unplaced, 1)
	assert.Equal(t, "s1", st.Unplaced[0].ID)
	assert.False(t, m.IsCompleted(workflow.StepCapacity))
}

func TestObserversFireOnlyOnChange(t *testing.T) {
	s := newTestStore(t, []int{4, 4})
	var seated []any
	unsubscribe := s.Subscribe(func(st State) any { return len(st.Assignments) }, func(v any) {
		seated = append(seated, v)
	})

	s.SetAssignments([]seating.SeatAssignment{at("s1", seating.PartSoprano, 1, 1)})
	s.SetRowOffset(1, 1)
	s.RemoveMember(1, 1)
	s.Undo()

	assert.Equal(t, []any{1, 0, 1}, seated)

	unsubscribe()
	s.Redo()
	assert.Len(t, seated, 3)
}

func TestStoreMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	s := newTestStore(t, []int{4, 4}, WithMetrics(metrics))

	s.SetAssignments([]seating.SeatAssignment{
		at("s1", seating.PartSoprano, 1, 1),
		at("s4", seating.PartSoprano, 1, 4),
	})
	_, err := s.SetGridLayout(seating.NewGridLayout([]int{3, 4}), false)
	require.NoError(t, err)
	s.CompactAllRows()
	s.CompactAllRows()

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.operations.WithLabelValues("set_assignments")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.operations.WithLabelValues("compact_rows")), 1e-9, "no-op compaction is not counted")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.moves.WithLabelValues(string(seating.ReasonBoundaryOverflow))), 1e-9)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.unassigned), 1e-9)
}
