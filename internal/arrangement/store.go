package arrangement

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/seatplan-core/internal/seating"
	"github.com/nerrad567/seatplan-core/internal/workflow"
)

// Logger defines the logging interface used by the Store and Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithHistoryLimit bounds the undo history.
func WithHistoryLimit(n int) StoreOption {
	return func(s *Store) { s.history = newHistory(n) }
}

// WithEngine sets a fixed reassignment engine.
func WithEngine(e *seating.Engine) StoreOption {
	return func(s *Store) {
		if e != nil {
			s.engineFor = func(int) *seating.Engine { return e }
		}
	}
}

// WithEngineFactory builds the engine for a given row count, so zones can
// follow the grid as rows are added or removed.
func WithEngineFactory(f func(rows int) *seating.Engine) StoreOption {
	return func(s *Store) {
		if f != nil {
			s.engineFor = f
		}
	}
}

// defaultEngine uses the static zones for the row count.
func defaultEngine(rows int) *seating.Engine {
	return seating.NewEngine(seating.DefaultZones(rows))
}

// WithLogger sets the store logger.
func WithLogger(l Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// WithClock overrides the time source used for emergency records.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is the authoritative, undoable state of one arrangement.
//
// Every mutating method commits at most one history frame and reports
// whether anything changed. Addressing seats outside the layout is a no-op.
type Store struct {
	state     State
	initial   State
	selection Selection
	history   *history
	engineFor func(rows int) *seating.Engine

	checkpoints  map[workflow.Step]State
	emergencyLog []EmergencyChangeRecord

	observers observers
	logger    Logger
	metrics   *Metrics
	now       func() time.Time
}

// Compile-time check that Store backs the workflow machine.
var _ workflow.ArtifactStore = (*Store)(nil)

// NewStore creates a store for an empty arrangement over layout.
func NewStore(layout seating.GridLayout, opts ...StoreOption) *Store {
	s := &Store{
		state:       State{Layout: layout.Clone(), Assignments: seating.Assignments{}},
		selection:   NoSelection(),
		history:     newHistory(DefaultHistoryLimit),
		engineFor:   defaultEngine,
		checkpoints: make(map[workflow.Step]State),
		logger:      noopLogger{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.initial = s.state.Clone()
	return s
}

// load replaces the state without recording history. Sessions opened from a
// stored document start with an empty undo stack.
func (s *Store) load(st State) {
	s.state = st.Clone()
	if s.state.Assignments == nil {
		s.state.Assignments = seating.Assignments{}
	}
	normalizeLeaders(s.state.Assignments)
	s.history.reset()
	s.selection = NoSelection()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	return s.state.Clone()
}

// Engine returns the reassignment engine for the current layout.
func (s *Store) Engine() *seating.Engine {
	return s.engineFor(s.state.Layout.Rows)
}

// commit replaces the state and records one history frame. Identical states
// commit nothing.
func (s *Store) commit(op string, next State) bool {
	if s.state.Equal(next) {
		return false
	}
	s.history.push(s.state)
	s.state = next
	s.metrics.operation(op)
	s.logger.Debug("arrangement committed", "op", op, "seated", len(next.Assignments), "undo_depth", len(s.history.past))
	s.observers.notify(s.state)
	return true
}

// SetAssignments replaces every assignment. Duplicate members or seats keep
// the first entry; out-of-bounds entries are not seated. Rejected members
// are returned and listed as unplaced.
func (s *Store) SetAssignments(list []seating.SeatAssignment) []seating.SeatAssignment {
	byKey, dropped := seating.FromList(list)
	next := State{Layout: s.state.Layout.Clone(), Assignments: make(seating.Assignments, len(byKey))}

	var rejected []seating.SeatAssignment
	for key, a := range byKey {
		if !next.Layout.InBounds(a.Seat()) {
			rejected = append(rejected, a)
			continue
		}
		next.Assignments[key] = a
	}
	normalizeLeaders(next.Assignments)
	rejected = append(rejected, dropped...)

	for _, r := range rejected {
		if _, seated := next.Assignments.FindMember(r.MemberID); !seated {
			next.Unplaced = addUnplaced(next.Unplaced, r.Member())
		}
	}
	s.selection = NoSelection()
	s.commit("set_assignments", next)
	return rejected
}

// Selection returns the pending selection.
func (s *Store) Selection() Selection {
	return s.selection
}

// SelectMember picks a member from the sidebar.
func (s *Store) SelectMember(m seating.Member) {
	s.selection = FromSidebar(m)
}

// ClearSelection drops the pending selection.
func (s *Store) ClearSelection() {
	s.selection = NoSelection()
}

// HandleSeatClick applies a click at (row, col). See ApplySeatClick.
func (s *Store) HandleSeatClick(row, col int) bool {
	next, sel, changed := ApplySeatClick(s.state, s.selection, seating.Seat{Row: row, Col: col})
	s.selection = sel
	if !changed {
		return false
	}
	return s.commit("seat_click", next)
}

// RemoveMember clears the seat at (row, col); its occupant becomes unplaced.
func (s *Store) RemoveMember(row, col int) bool {
	seat := seating.Seat{Row: row, Col: col}
	a, ok := s.state.Assignments.At(seat)
	if !ok || !s.state.Layout.InBounds(seat) {
		return false
	}
	next := s.state.Clone()
	delete(next.Assignments, a.Key())
	next.Unplaced = addUnplaced(next.Unplaced, a.Member())
	s.selection = NoSelection()
	return s.commit("remove_member", next)
}

// SetGridLayout replaces the layout. With compact set, rows are left-packed
// first. Occupants left outside the new layout are relocated by the engine
// in the same frame; those it cannot seat become unplaced.
func (s *Store) SetGridLayout(layout seating.GridLayout, compact bool) (seating.ReassignResult, error) {
	if err := layout.Validate(); err != nil {
		return seating.ReassignResult{}, err
	}
	next, res := s.relayout(s.state, layout, compact)
	if s.commit("set_grid_layout", next) {
		s.metrics.engineResult(res.Moved, len(res.Unassigned))
		if len(res.Unassigned) > 0 {
			s.logger.Warn("members left without a seat after layout change", "count", len(res.Unassigned))
		}
	}
	return res, nil
}

// relayout applies layout to st and repairs orphaned occupants.
func (s *Store) relayout(st State, layout seating.GridLayout, compact bool) (State, seating.ReassignResult) {
	next := st.Clone()
	if compact {
		next = compactRows(next)
	}
	next.Layout = layout.Clone()
	res := s.engineFor(layout.Rows).Reassign(seating.ReassignInput{Assignments: next.Assignments, Layout: next.Layout})
	next.Assignments = res.Assignments
	for _, u := range res.Unassigned {
		next.Unplaced = addUnplaced(next.Unplaced, u.Member)
	}
	return next, res
}

// RecommendGrid resizes the grid to the recommended capacities for
// memberCount members over rows.
func (s *Store) RecommendGrid(memberCount, rows, maxPerRow int) (seating.ReassignResult, error) {
	caps, err := seating.RecommendCapacities(memberCount, rows, maxPerRow)
	if err != nil {
		return seating.ReassignResult{}, err
	}
	return s.SetGridLayout(s.state.Layout.Resize(caps), false)
}

// SetRowOffset sets the user offset of a 1-based row.
func (s *Store) SetRowOffset(row int, offset float64) bool {
	next := s.state.Clone()
	next.Layout = s.state.Layout.WithRowOffset(row, offset)
	return s.commit("set_row_offset", next)
}

// CompactAllRows removes column gaps within each row.
func (s *Store) CompactAllRows() bool {
	return s.commit("compact_rows", compactRows(s.state))
}

// ToggleRowLeader flips the leader flag of the occupant at (row, col).
func (s *Store) ToggleRowLeader(row, col int) bool {
	next, ok := toggleLeader(s.state, seating.Seat{Row: row, Col: col})
	if !ok {
		return false
	}
	return s.commit("toggle_row_leader", next)
}

// AutoAssignRowLeaders picks the occupant nearest each row's centre.
func (s *Store) AutoAssignRowLeaders() bool {
	return s.commit("auto_assign_leaders", autoAssignLeaders(s.state))
}

// ClearAllRowLeaders drops every leader flag.
func (s *Store) ClearAllRowLeaders() bool {
	return s.commit("clear_leaders", clearLeaders(s.state))
}

// AutoPlace seats members into free seats by zone. Members that do not fit
// become unplaced.
func (s *Store) AutoPlace(members []seating.Member) seating.PlacementResult {
	res := seating.AutoPlace(members, s.state.Assignments, s.state.Layout, s.Engine().Zones())
	next := s.state.Clone()
	next.Assignments = res.Assignments
	for _, p := range res.Placed {
		next.Unplaced = removeUnplaced(next.Unplaced, p.MemberID)
	}
	for _, u := range res.Unassigned {
		next.Unplaced = addUnplaced(next.Unplaced, u.Member)
	}
	s.commit("auto_place", next)
	return res
}

// Undo restores the previous frame. It is a no-op at the history floor.
func (s *Store) Undo() bool {
	prev, ok := s.history.undo(s.state)
	if !ok {
		return false
	}
	s.state = prev
	s.selection = NoSelection()
	s.observers.notify(s.state)
	return true
}

// Redo re-applies the last undone frame.
func (s *Store) Redo() bool {
	next, ok := s.history.redo(s.state)
	if !ok {
		return false
	}
	s.state = next
	s.selection = NoSelection()
	s.observers.notify(s.state)
	return true
}

// CanUndo reports whether Undo would change anything.
func (s *Store) CanUndo() bool {
	return len(s.history.past) > 0
}

// CanRedo reports whether Redo would change anything.
func (s *Store) CanRedo() bool {
	return len(s.history.future) > 0
}

// Subscribe registers fn to run whenever selector's result changes. The
// returned function removes the subscription.
func (s *Store) Subscribe(selector Selector, fn func(any)) func() {
	return s.observers.add(s.state, selector, fn)
}

// PreviewEmergency computes an emergency edit against a copy of the state.
func (s *Store) PreviewEmergency(req EmergencyRequest) (EmergencyPlan, error) {
	return PlanEmergency(s.state.Clone(), s.Engine(), req)
}

// ApplyEmergency commits an emergency edit as one frame and appends it to
// the emergency log. Undo reverts the seats but never the log.
func (s *Store) ApplyEmergency(req EmergencyRequest) (EmergencyChangeRecord, error) {
	plan, err := PlanEmergency(s.state.Clone(), s.Engine(), req)
	if err != nil {
		return EmergencyChangeRecord{}, err
	}

	s.selection = NoSelection()
	if req.Kind == EmergencyInsertion && req.Mode == ModeManual && req.Member != nil {
		s.selection = FromSidebar(*req.Member)
	}
	s.commit("emergency_"+string(req.Kind), plan.Next)

	memberID := req.MemberID
	if req.Kind == EmergencyInsertion && req.Member != nil {
		memberID = req.Member.ID
	}
	rec := EmergencyChangeRecord{
		ID:               uuid.NewString(),
		Kind:             req.Kind,
		MemberID:         memberID,
		ProcessMode:      req.Mode,
		RemovedFrom:      plan.RemovedFrom,
		CascadeChanges:   plan.Cascade,
		MovedMemberCount: plan.MovedMemberCount,
		CreatedAt:        s.now().UTC(),
	}
	s.emergencyLog = append(s.emergencyLog, rec)
	s.metrics.emergency(req.Kind, req.Mode)
	s.logger.Info("emergency change applied",
		"member_id", memberID,
		"kind", req.Kind,
		"mode", req.Mode,
		"moved", plan.MovedMemberCount,
		"unassigned", len(plan.Unassigned),
	)
	return rec, nil
}

// EmergencyLog returns the applied emergency records, oldest first.
func (s *Store) EmergencyLog() []EmergencyChangeRecord {
	return append([]EmergencyChangeRecord(nil), s.emergencyLog...)
}

// CheckpointStep records the state a completed step produced.
func (s *Store) CheckpointStep(step workflow.Step) {
	s.checkpoints[step] = s.state.Clone()
}

// Baseline returns the reference points step resets return to.
func (s *Store) Baseline() Baseline {
	b := Baseline{Layout: s.initial.Layout.Clone()}
	if cp, ok := s.checkpoints[workflow.StepCapacity]; ok {
		l := cp.Layout.Clone()
		b.Capacity = &l
	}
	if cp, ok := s.checkpoints[workflow.StepPlacement]; ok {
		b.Placement = &PlacementCheckpoint{
			Assignments: cp.Assignments.Sorted(),
			Unplaced:    slices.Clone(cp.Unplaced),
		}
	}
	return b
}

// restoreBaseline reinstates the reference points saved with a document.
// A baseline without a layout keeps the store's starting layout.
func (s *Store) restoreBaseline(b Baseline) {
	if b.Layout.Rows > 0 {
		s.initial = State{Layout: b.Layout.Clone(), Assignments: seating.Assignments{}}
	}
	s.checkpoints = make(map[workflow.Step]State)
	if b.Capacity != nil {
		s.checkpoints[workflow.StepCapacity] = State{Layout: b.Capacity.Clone(), Assignments: seating.Assignments{}}
	}
	if b.Placement != nil {
		byKey, _ := seating.FromList(b.Placement.Assignments)
		s.checkpoints[workflow.StepPlacement] = State{
			Layout:      s.state.Layout.Clone(),
			Assignments: byKey,
			Unplaced:    slices.Clone(b.Placement.Unplaced),
		}
	}
}

// ResetStepArtifacts clears the output of one workflow step as one frame.
//
//	capacity     layout back to the one the store started with
//	grid         layout back to the capacity checkpoint
//	placement    all seats cleared
//	seat adjust  seats back to the placement checkpoint
//	offsets      row offsets cleared
//	leaders      leader flags cleared
func (s *Store) ResetStepArtifacts(step workflow.Step) error {
	var next State
	switch step {
	case workflow.StepCapacity:
		next, _ = s.relayout(s.state, s.initial.Layout, false)
	case workflow.StepGrid:
		base, ok := s.checkpoints[workflow.StepCapacity]
		if !ok {
			base = s.initial
		}
		next, _ = s.relayout(s.state, base.Layout, false)
	case workflow.StepPlacement:
		next = s.state.Clone()
		for _, a := range s.state.Assignments {
			next.Unplaced = addUnplaced(next.Unplaced, a.Member())
		}
		next.Assignments = seating.Assignments{}
	case workflow.StepSeatAdjust:
		base, ok := s.checkpoints[workflow.StepPlacement]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoCheckpoint, workflow.StepPlacement)
		}
		next = s.state.Clone()
		next.Assignments = base.Assignments.Clone()
		next.Unplaced = base.Unplaced
		known := append(s.state.SeatedMembers(), s.state.Unplaced...)
		for _, m := range known {
			if _, seated := next.Assignments.FindMember(m.ID); !seated {
				next.Unplaced = addUnplaced(next.Unplaced, m)
			}
		}
		next, _ = s.relayout(next, s.state.Layout, false)
	case workflow.StepOffsets:
		next = s.state.Clone()
		next.Layout = next.Layout.WithoutOffsets()
	case workflow.StepLeaders:
		next = clearLeaders(s.state)
	case workflow.StepPublish:
		return workflow.ErrNothingToReset
	default:
		return fmt.Errorf("%w: %d", workflow.ErrInvalidStep, step)
	}
	s.selection = NoSelection()
	s.commit("reset_"+step.String(), next)
	return nil
}

// ResetAllArtifacts returns to the starting layout with every member unplaced.
func (s *Store) ResetAllArtifacts() {
	next := s.initial.Clone()
	next.Unplaced = s.state.Unplaced
	for _, a := range s.state.Assignments {
		next.Unplaced = addUnplaced(next.Unplaced, a.Member())
	}
	s.checkpoints = make(map[workflow.Step]State)
	s.selection = NoSelection()
	s.commit("reset_all", next)
}
