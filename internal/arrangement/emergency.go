package arrangement

import (
	"fmt"
	"time"

	"github.com/nerrad567/seatplan-core/internal/seating"
)

// EmergencyKind is the triggering event of an emergency edit.
type EmergencyKind string

const (
	// EmergencyRemoval: a seated member became unavailable.
	EmergencyRemoval EmergencyKind = "removal"

	// EmergencyInsertion: a member became available and needs a seat.
	EmergencyInsertion EmergencyKind = "insertion"
)

// ProcessMode selects how an emergency edit is resolved.
type ProcessMode string

const (
	// ModeLeaveEmpty vacates the seat and changes nothing else.
	ModeLeaveEmpty ProcessMode = "LEAVE_EMPTY"

	// ModeAutoPull runs the reassignment engine.
	ModeAutoPull ProcessMode = "AUTO_PULL"

	// ModeManual vacates the seat, or queues the new member, for placement by hand.
	ModeManual ProcessMode = "MANUAL"
)

// Valid reports whether m is a known mode.
func (m ProcessMode) Valid() bool {
	switch m {
	case ModeLeaveEmpty, ModeAutoPull, ModeManual:
		return true
	}
	return false
}

// CascadeType classifies one step of a cascade.
type CascadeType string

const (
	CascadeRemove CascadeType = "REMOVE"
	CascadeMove   CascadeType = "MOVE"
	CascadeShrink CascadeType = "SHRINK"
	CascadeExpand CascadeType = "EXPAND"
	CascadeAdd    CascadeType = "ADD"
)

// CascadeStep is one change caused by an emergency edit.
type CascadeStep struct {
	Type        CascadeType   `json:"type"`
	Description string        `json:"description"`
	MemberID    string        `json:"member_id,omitempty"`
	From        *seating.Seat `json:"from,omitempty"`
	To          *seating.Seat `json:"to,omitempty"`
}

// EmergencyRequest describes a hypothetical or confirmed emergency edit.
type EmergencyRequest struct {
	Kind EmergencyKind `json:"kind"`
	Mode ProcessMode   `json:"mode"`

	// MemberID names the member to remove.
	MemberID string `json:"member_id,omitempty"`

	// Member, Target and AllowExpand describe an insertion.
	Member      *seating.Member `json:"member,omitempty"`
	Target      *seating.Seat   `json:"target,omitempty"`
	AllowExpand bool            `json:"allow_expand,omitempty"`

	// ShrinkRow trims trailing empty seats of the affected row after an
	// AUTO_PULL removal.
	ShrinkRow bool `json:"shrink_row,omitempty"`
}

// EmergencyPlan is the computed outcome of an emergency edit.
type EmergencyPlan struct {
	Request          EmergencyRequest           `json:"request"`
	Next             State                      `json:"next"`
	Cascade          []CascadeStep              `json:"cascade_changes"`
	MovedMemberCount int                        `json:"moved_member_count"`
	RemovedFrom      *seating.Seat              `json:"removed_from,omitempty"`
	Unassigned       []seating.UnassignedMember `json:"unassigned,omitempty"`
}

// EmergencyChangeRecord is the append-only log entry of an applied emergency edit.
type EmergencyChangeRecord struct {
	ID               string        `json:"id"`
	ArrangementID    string        `json:"arrangement_id,omitempty"`
	Kind             EmergencyKind `json:"kind"`
	MemberID         string        `json:"member_id"`
	ProcessMode      ProcessMode   `json:"process_mode"`
	RemovedFrom      *seating.Seat `json:"removed_from,omitempty"`
	CascadeChanges   []CascadeStep `json:"cascade_changes"`
	MovedMemberCount int           `json:"moved_member_count"`
	CreatedAt        time.Time     `json:"created_at"`
}

// PlanEmergency computes the effect of req on st without side effects.
// Preview and apply both call it, so they cannot disagree.
func PlanEmergency(st State, engine *seating.Engine, req EmergencyRequest) (EmergencyPlan, error) {
	if !req.Mode.Valid() {
		return EmergencyPlan{}, fmt.Errorf("%w: mode %q", ErrInvalidEmergency, req.Mode)
	}
	if engine == nil {
		engine = seating.NewEngine(nil)
	}
	switch req.Kind {
	case EmergencyRemoval:
		return planRemoval(st, engine, req)
	case EmergencyInsertion:
		return planInsertion(st, engine, req)
	default:
		return EmergencyPlan{}, fmt.Errorf("%w: kind %q", ErrInvalidEmergency, req.Kind)
	}
}

func planRemoval(st State, engine *seating.Engine, req EmergencyRequest) (EmergencyPlan, error) {
	current, ok := st.Assignments.FindMember(req.MemberID)
	if !ok {
		return EmergencyPlan{}, fmt.Errorf("%w: %s", ErrMemberNotSeated, req.MemberID)
	}
	vacated := current.Seat()

	next := st.Clone()
	delete(next.Assignments, current.Key())
	plan := EmergencyPlan{
		Request:     req,
		RemovedFrom: &vacated,
		Cascade: []CascadeStep{{
			Type:        CascadeRemove,
			Description: fmt.Sprintf("%s removed from %s", displayName(current.Member()), vacated),
			MemberID:    current.MemberID,
			From:        &vacated,
		}},
	}

	if req.Mode == ModeAutoPull {
		res := engine.Reassign(seating.ReassignInput{
			Assignments: next.Assignments,
			Layout:      next.Layout,
			Vacated:     []seating.Seat{vacated},
		})
		next.Assignments = res.Assignments
		plan.Cascade = append(plan.Cascade, moveSteps(res.Moved)...)
		plan.MovedMemberCount = len(res.Moved)
		plan.Unassigned = res.Unassigned
		for _, u := range res.Unassigned {
			next.Unplaced = addUnplaced(next.Unplaced, u.Member)
		}

		if req.ShrinkRow {
			layout, changes := seating.ShrinkTrailing(next.Layout, next.Assignments, vacated.Row)
			next.Layout = layout
			plan.Cascade = append(plan.Cascade, resizeSteps(CascadeShrink, changes)...)
		}
	}

	plan.Next = next
	return plan, nil
}

func planInsertion(st State, engine *seating.Engine, req EmergencyRequest) (EmergencyPlan, error) {
	if req.Member == nil {
		return EmergencyPlan{}, fmt.Errorf("%w: insertion needs a member", ErrInvalidEmergency)
	}
	m := *req.Member
	if err := seating.ValidateMember(m); err != nil {
		return EmergencyPlan{}, err
	}
	if _, seated := st.Assignments.FindMember(m.ID); seated {
		return EmergencyPlan{}, fmt.Errorf("%w: %s", seating.ErrMemberSeated, m.ID)
	}

	next := st.Clone()
	plan := EmergencyPlan{Request: req}

	switch req.Mode {
	case ModeManual:
		next.Unplaced = addUnplaced(next.Unplaced, m)
		plan.Cascade = []CascadeStep{{
			Type:        CascadeAdd,
			Description: fmt.Sprintf("%s added for manual placement", displayName(m)),
			MemberID:    m.ID,
		}}
		plan.Next = next
		return plan, nil
	case ModeLeaveEmpty:
		return EmergencyPlan{}, fmt.Errorf("%w: %s does not apply to insertions", ErrInvalidEmergency, req.Mode)
	}

	res, err := engine.Insert(seating.InsertInput{
		Assignments: next.Assignments,
		Layout:      next.Layout,
		Member:      m,
		Target:      req.Target,
		AllowExpand: req.AllowExpand,
	})
	if err != nil {
		return EmergencyPlan{}, err
	}
	next.Layout = res.Layout
	next.Assignments = res.Assignments
	next.Unplaced = removeUnplaced(next.Unplaced, m.ID)

	plan.Cascade = append(plan.Cascade, resizeSteps(CascadeExpand, res.Expanded)...)
	if res.Placed != nil {
		to := res.Placed.Seat()
		plan.Cascade = append(plan.Cascade, CascadeStep{
			Type:        CascadeAdd,
			Description: fmt.Sprintf("%s seated at %s", displayName(m), to),
			MemberID:    m.ID,
			To:          &to,
		})
	}
	plan.Cascade = append(plan.Cascade, moveSteps(res.Moved)...)
	plan.MovedMemberCount = len(res.Moved)
	plan.Unassigned = res.Unassigned
	for _, u := range res.Unassigned {
		next.Unplaced = addUnplaced(next.Unplaced, u.Member)
	}

	plan.Next = next
	return plan, nil
}

func moveSteps(moves []seating.MoveRecord) []CascadeStep {
	out := make([]CascadeStep, 0, len(moves))
	for _, mv := range moves {
		from, to := mv.From, mv.To
		desc := fmt.Sprintf("%s moved %s → %s (%s)", displayName(seating.Member{ID: mv.MemberID, Name: mv.MemberName}), from, to, mv.Reason)
		if mv.OutOfZone {
			desc += " outside zone"
		}
		out = append(out, CascadeStep{
			Type:        CascadeMove,
			Description: desc,
			MemberID:    mv.MemberID,
			From:        &from,
			To:          &to,
		})
	}
	return out
}

func resizeSteps(kind CascadeType, changes []seating.RowResize) []CascadeStep {
	out := make([]CascadeStep, 0, len(changes))
	for _, c := range changes {
		out = append(out, CascadeStep{
			Type:        kind,
			Description: fmt.Sprintf("row %d capacity %d → %d", c.Row, c.From, c.To),
		})
	}
	return out
}

func displayName(m seating.Member) string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}
