package seating

import (
	"fmt"
	"sort"
)

// Engine defaults.
const (
	// DefaultMaxPullChain bounds how many consecutive row pulls one gap may trigger.
	DefaultMaxPullChain = 3

	// DefaultConsistencyThreshold is the historical consistency above which a
	// member counts as anchored to their row or column.
	DefaultConsistencyThreshold = 0.7

	// Move-priority weights. Higher scores are moved last.
	leaderWeight         = 100
	rowConsistencyWeight = 50
	colConsistencyWeight = 30
)

// ReasonNoZoneCapacity is reported for members no tier could seat.
const ReasonNoZoneCapacity = "no zone capacity"

// MoveReason tags why the engine moved a member.
type MoveReason string

const (
	ReasonPullInRow        MoveReason = "pull_in_row"
	ReasonNearbyReassign   MoveReason = "nearby_reassign"
	ReasonBoundaryOverflow MoveReason = "boundary_overflow"
)

// MoveRecord is one relocation produced by the engine.
//
// OutOfZone is set only for fallback placements, the only moves allowed to
// break the member's zone.
type MoveRecord struct {
	MemberID   string     `json:"member_id"`
	MemberName string     `json:"member_name"`
	Part       Part       `json:"part"`
	From       Seat       `json:"from"`
	To         Seat       `json:"to"`
	Reason     MoveReason `json:"reason"`
	Tier       ZoneTier   `json:"tier,omitempty"`
	OutOfZone  bool       `json:"out_of_zone"`
}

// UnassignedMember is a member the engine could not seat.
type UnassignedMember struct {
	Member Member `json:"member"`
	From   *Seat  `json:"from,omitempty"`
	Reason string `json:"reason"`
}

// RowResize records a capacity change of one row.
type RowResize struct {
	Row  int `json:"row"`
	From int `json:"from"`
	To   int `json:"to"`
}

// Consistency is a member's historical tendency to keep their row and column,
// each in [0, 1].
type Consistency struct {
	Row float64 `json:"row"`
	Col float64 `json:"col"`
}

// ReassignStats summarises one engine run.
type ReassignStats struct {
	Orphaned   int `json:"orphaned"`
	Pulled     int `json:"pulled"`
	Overflowed int `json:"overflowed"`
	Unassigned int `json:"unassigned"`
}

// ReassignInput is the state the engine repairs.
//
// Vacated seats must already be empty in Assignments; occupied or
// out-of-bounds entries are ignored.
type ReassignInput struct {
	Assignments Assignments
	Layout      GridLayout
	Vacated     []Seat
}

// ReassignResult is the repaired state and its move log.
type ReassignResult struct {
	Assignments Assignments        `json:"assignments"`
	Moved       []MoveRecord       `json:"moved"`
	Unassigned  []UnassignedMember `json:"unassigned"`
	Stats       ReassignStats      `json:"stats"`
}

// Engine computes minimal-disruption repairs of an arrangement.
//
// An Engine is immutable after construction and safe for concurrent use.
type Engine struct {
	zones        *ZoneRegistry
	maxPullChain int
	consistency  map[string]Consistency
	threshold    float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxPullChain sets the bound on consecutive pulls per gap.
func WithMaxPullChain(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxPullChain = n
		}
	}
}

// WithConsistency supplies per-member row/column consistency.
func WithConsistency(c map[string]Consistency) Option {
	return func(e *Engine) {
		e.consistency = make(map[string]Consistency, len(c))
		for k, v := range c {
			e.consistency[k] = v
		}
	}
}

// WithConsistencyThreshold sets the consistency above which a member is anchored.
func WithConsistencyThreshold(t float64) Option {
	return func(e *Engine) {
		if t > 0 && t <= 1 {
			e.threshold = t
		}
	}
}

// NewEngine creates an engine over the given zones. A nil registry leaves
// every part unconstrained.
func NewEngine(zones *ZoneRegistry, opts ...Option) *Engine {
	if zones == nil {
		zones = NewZoneRegistry()
	}
	e := &Engine{
		zones:        zones,
		maxPullChain: DefaultMaxPullChain,
		threshold:    DefaultConsistencyThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Zones returns the registry the engine consults.
func (e *Engine) Zones() *ZoneRegistry {
	return e.zones
}

// Reassign repairs an arrangement against in.Layout.
//
// Steps, in order:
//  1. occupants outside the layout are set aside as orphans
//  2. each vacated interior gap is filled by a same-row pull
//  3. the pull chains at the donor seat while that gap is interior, up to the chain bound
//  4. orphans, ordered by old row then column, take the nearest empty seat by tiered search
//
// The input map is never modified. The total of seated and unassigned
// members always equals the number of input assignments.
func (e *Engine) Reassign(in ReassignInput) ReassignResult {
	out := make(Assignments, len(in.Assignments))
	var orphans []SeatAssignment
	for _, a := range in.Assignments {
		if in.Layout.InBounds(a.Seat()) {
			out[a.Key()] = a
		} else {
			orphans = append(orphans, a)
		}
	}
	sortAssignments(orphans)

	res := ReassignResult{Stats: ReassignStats{Orphaned: len(orphans)}}

	vacated := append([]Seat(nil), in.Vacated...)
	sortSeats(vacated)
	moved := make(map[string]bool)
	for i, gap := range vacated {
		if i > 0 && gap == vacated[i-1] {
			continue
		}
		if !in.Layout.InBounds(gap) {
			continue
		}
		if _, taken := out[gap.Key()]; taken {
			continue
		}
		pulls := e.pullChain(out, in.Layout, gap, moved)
		res.Moved = append(res.Moved, pulls...)
		res.Stats.Pulled += len(pulls)
	}

	for _, o := range orphans {
		from := o.Seat()
		to, tier, ok := e.zones.FindNearestEmpty(from, in.Layout.EmptySeats(out), o.Part, in.Layout, true)
		if !ok {
			res.Unassigned = append(res.Unassigned, UnassignedMember{
				Member: o.Member(),
				From:   &from,
				Reason: ReasonNoZoneCapacity,
			})
			continue
		}
		placed := o.At(to)
		if placed.IsRowLeader && hasLeader(out, to.Row) {
			placed.IsRowLeader = false
		}
		out[to.Key()] = placed
		res.Moved = append(res.Moved, moveRecord(o, to, ReasonBoundaryOverflow, tier))
		res.Stats.Overflowed++
	}

	res.Assignments = out
	res.Stats.Unassigned = len(res.Unassigned)
	return res
}

// pullChain fills gap from its own row and keeps pulling at each donor seat.
func (e *Engine) pullChain(out Assignments, layout GridLayout, gap Seat, moved map[string]bool) []MoveRecord {
	var records []MoveRecord
	for i := 0; i < e.maxPullChain; i++ {
		if !interiorGap(out, gap) {
			break
		}
		donor, ok := e.pullCandidate(out, layout, gap, moved)
		if !ok {
			break
		}
		from := donor.Seat()
		delete(out, from.Key())
		out[gap.Key()] = donor.At(gap)
		moved[donor.MemberID] = true
		records = append(records, moveRecord(donor, gap, ReasonPullInRow, TierPrimary))
		gap = from
	}
	return records
}

// interiorGap reports whether gap has occupants on both sides in its row.
func interiorGap(out Assignments, gap Seat) bool {
	left, right := false, false
	for _, a := range out {
		if a.Row != gap.Row {
			continue
		}
		if a.Col < gap.Col {
			left = true
		} else if a.Col > gap.Col {
			right = true
		}
		if left && right {
			return true
		}
	}
	return false
}

// pullCandidate picks the same-row occupant to move into gap: lowest
// move-priority score, then shortest distance, then the one nearer the row
// edge, then the lower column.
func (e *Engine) pullCandidate(out Assignments, layout GridLayout, gap Seat, moved map[string]bool) (SeatAssignment, bool) {
	row := out.Row(gap.Row)
	capacity := layout.Capacity(gap.Row)

	type candidate struct {
		a        SeatAssignment
		score    int
		distance int
		beyond   int
	}
	var cands []candidate
	for i, a := range row {
		if moved[a.MemberID] {
			continue
		}
		if !IsInZone(gap.Row, gap.Col, a.Part, e.zones.Zone(a.Part), capacity) {
			continue
		}
		beyond := i
		if a.Col > gap.Col {
			beyond = len(row) - 1 - i
		}
		cands = append(cands, candidate{
			a:        a,
			score:    e.movePriority(a),
			distance: abs(a.Col - gap.Col),
			beyond:   beyond,
		})
	}
	if len(cands) == 0 {
		return SeatAssignment{}, false
	}
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.score != b.score {
			return a.score < b.score
		}
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		if a.beyond != b.beyond {
			return a.beyond < b.beyond
		}
		return a.a.Col < b.a.Col
	})
	return cands[0].a, true
}

// movePriority scores how anchored a member is. Leaders are not pinned,
// only moved last.
func (e *Engine) movePriority(a SeatAssignment) int {
	score := 0
	if a.IsRowLeader {
		score += leaderWeight
	}
	if c, ok := e.consistency[a.MemberID]; ok {
		if c.Row >= e.threshold {
			score += rowConsistencyWeight
		}
		if c.Col >= e.threshold {
			score += colConsistencyWeight
		}
	}
	return score
}

// InsertInput describes a member joining an arrangement.
type InsertInput struct {
	Assignments Assignments
	Layout      GridLayout
	Member      Member
	// Target is the requested seat. Nil or out-of-bounds targets let the
	// engine choose from the member's zone.
	Target *Seat
	// AllowExpand widens a row by one seat when no seat is free.
	AllowExpand bool
}

// InsertResult is the arrangement after an insertion.
type InsertResult struct {
	Assignments Assignments        `json:"assignments"`
	Layout      GridLayout         `json:"layout"`
	Placed      *SeatAssignment    `json:"placed,omitempty"`
	Tier        ZoneTier           `json:"tier,omitempty"`
	Moved       []MoveRecord       `json:"moved"`
	Expanded    []RowResize        `json:"expanded,omitempty"`
	Unassigned  []UnassignedMember `json:"unassigned"`
}

// Insert seats a newly available member.
//
// An occupied target seat is taken by the new member and its occupant is
// moved to the nearest empty seat with reason nearby_reassign. When nothing
// is free and AllowExpand is set, the member's anchor row grows by one seat.
// Members that still cannot be seated come back in Unassigned.
//
// Returns ErrInvalidMember or ErrMemberSeated for unusable input.
func (e *Engine) Insert(in InsertInput) (InsertResult, error) {
	if err := ValidateMember(in.Member); err != nil {
		return InsertResult{}, err
	}
	if _, seated := in.Assignments.FindMember(in.Member.ID); seated {
		return InsertResult{}, fmt.Errorf("%w: %s", ErrMemberSeated, in.Member.ID)
	}

	res := InsertResult{
		Assignments: in.Assignments.Clone(),
		Layout:      in.Layout.Clone(),
	}

	if in.Target != nil && res.Layout.InBounds(*in.Target) {
		target := *in.Target
		occupant, occupied := res.Assignments.At(target)
		placed := AssignmentFor(in.Member, target)
		res.Assignments[target.Key()] = placed
		res.Placed = &placed
		res.Tier = e.tierAt(target, in.Member.Part, res.Layout)
		if occupied {
			e.relocate(&res, occupant, in.AllowExpand)
		}
		return res, nil
	}

	anchor := anchorSeat(e.zones.Zone(in.Member.Part), res.Layout)
	seat, tier, ok := e.zones.FindNearestEmpty(anchor, res.Layout.EmptySeats(res.Assignments), in.Member.Part, res.Layout, true)
	if !ok && in.AllowExpand {
		seat, ok = e.expand(&res, in.Member.Part)
		tier = e.tierAt(seat, in.Member.Part, res.Layout)
	}
	if !ok {
		res.Unassigned = append(res.Unassigned, UnassignedMember{Member: in.Member, Reason: ReasonNoZoneCapacity})
		return res, nil
	}
	placed := AssignmentFor(in.Member, seat)
	res.Assignments[seat.Key()] = placed
	res.Placed = &placed
	res.Tier = tier
	return res, nil
}

// relocate moves a displaced occupant to the nearest empty seat.
func (e *Engine) relocate(res *InsertResult, occupant SeatAssignment, allowExpand bool) {
	from := occupant.Seat()
	to, tier, ok := e.zones.FindNearestEmpty(from, res.Layout.EmptySeats(res.Assignments), occupant.Part, res.Layout, true)
	if !ok && allowExpand {
		to, ok = e.expand(res, occupant.Part)
		tier = e.tierAt(to, occupant.Part, res.Layout)
	}
	if !ok {
		res.Unassigned = append(res.Unassigned, UnassignedMember{
			Member: occupant.Member(),
			From:   &from,
			Reason: ReasonNoZoneCapacity,
		})
		return
	}
	moved := occupant.At(to)
	if moved.IsRowLeader && to.Row != from.Row && hasLeader(res.Assignments, to.Row) {
		moved.IsRowLeader = false
	}
	res.Assignments[to.Key()] = moved
	res.Moved = append(res.Moved, moveRecord(occupant, to, ReasonNearbyReassign, tier))
}

// expand grows the anchor row of part by one seat, falling back to the
// shortest row, and returns the new seat.
func (e *Engine) expand(res *InsertResult, part Part) (Seat, bool) {
	if res.Layout.Rows == 0 {
		return Seat{}, false
	}
	row := anchorSeat(e.zones.Zone(part), res.Layout).Row
	if res.Layout.Capacity(row) >= MaxRowCapacity {
		row = 0
		for r := 1; r <= res.Layout.Rows; r++ {
			if res.Layout.Capacity(r) >= MaxRowCapacity {
				continue
			}
			if row == 0 || res.Layout.Capacity(r) < res.Layout.Capacity(row) {
				row = r
			}
		}
		if row == 0 {
			return Seat{}, false
		}
	}
	caps := append([]int(nil), res.Layout.RowCapacities...)
	res.Expanded = append(res.Expanded, RowResize{Row: row, From: caps[row-1], To: caps[row-1] + 1})
	caps[row-1]++
	res.Layout = res.Layout.Resize(caps)
	return Seat{Row: row, Col: caps[row-1]}, true
}

// tierAt labels a seat chosen without a search.
func (e *Engine) tierAt(s Seat, part Part, layout GridLayout) ZoneTier {
	return e.zones.Tier(s, part, layout)
}

// ShrinkTrailing trims empty seats from the end of each given row, never
// below the last occupied column. Rows that do not change are omitted.
func ShrinkTrailing(layout GridLayout, assignments Assignments, rows ...int) (GridLayout, []RowResize) {
	caps := append([]int(nil), layout.RowCapacities...)
	var changes []RowResize
	seen := make(map[int]bool, len(rows))
	sorted := append([]int(nil), rows...)
	sort.Ints(sorted)
	for _, r := range sorted {
		if seen[r] || r < 1 || r > layout.Rows {
			continue
		}
		seen[r] = true
		last := 0
		for _, a := range assignments.Row(r) {
			last = max(last, a.Col)
		}
		if last < caps[r-1] {
			changes = append(changes, RowResize{Row: r, From: caps[r-1], To: last})
			caps[r-1] = last
		}
	}
	if len(changes) == 0 {
		return layout.Clone(), nil
	}
	return layout.Resize(caps), changes
}

func hasLeader(out Assignments, row int) bool {
	for _, a := range out {
		if a.Row == row && a.IsRowLeader {
			return true
		}
	}
	return false
}

func moveRecord(a SeatAssignment, to Seat, reason MoveReason, tier ZoneTier) MoveRecord {
	return MoveRecord{
		MemberID:   a.MemberID,
		MemberName: a.MemberName,
		Part:       a.Part,
		From:       a.Seat(),
		To:         to,
		Reason:     reason,
		Tier:       tier,
		OutOfZone:  tier.IsFallback(),
	}
}
