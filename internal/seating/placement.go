package seating

import (
	"sort"
	"strings"
)

// PlacementResult is the outcome of AutoPlace.
type PlacementResult struct {
	Assignments Assignments         `json:"assignments"`
	Placed      []SeatAssignment    `json:"placed"`
	Tiers       map[string]ZoneTier `json:"tiers"`
	Unassigned  []UnassignedMember  `json:"unassigned"`
}

// AutoPlace seats members into the free seats of layout, each as close to
// their zone's anchor seat as the tiered search allows.
//
// Members are processed by part display order, then name, then ID, so the
// result is the same for any input order. Members already present in
// existing keep their seats. Existing assignments are not modified.
func AutoPlace(members []Member, existing Assignments, layout GridLayout, zones *ZoneRegistry) PlacementResult {
	if zones == nil {
		zones = NewZoneRegistry()
	}
	out := existing.Clone()
	res := PlacementResult{Tiers: make(map[string]ZoneTier)}

	ordered := append([]Member(nil), members...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if pa, pb := partOrder(a.Part), partOrder(b.Part); pa != pb {
			return pa < pb
		}
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})

	seen := make(map[string]bool, len(ordered))
	for _, a := range out {
		seen[a.MemberID] = true
	}

	empty := layout.EmptySeats(out)
	for _, m := range ordered {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true

		anchor := anchorSeat(zones.Zone(m.Part), layout)
		seat, tier, ok := zones.FindNearestEmpty(anchor, empty, m.Part, layout, true)
		if !ok {
			res.Unassigned = append(res.Unassigned, UnassignedMember{Member: m, Reason: ReasonNoZoneCapacity})
			continue
		}
		placed := AssignmentFor(m, seat)
		out[seat.Key()] = placed
		res.Placed = append(res.Placed, placed)
		res.Tiers[m.ID] = tier
		empty = removeSeat(empty, seat)
	}

	res.Assignments = out
	return res
}

// anchorSeat is where a part's search starts: its first preferred row (or
// the front of its allowed range) at the edge matching its side.
func anchorSeat(zone *PartZone, layout GridLayout) Seat {
	if layout.Rows < 1 {
		return Seat{Row: 1, Col: 1}
	}
	if zone == nil {
		return Seat{Row: 1, Col: max(1, (layout.Capacity(1)+1)/2)}
	}
	row := zone.AllowedRows.Min
	if len(zone.PreferredRows) > 0 {
		row = zone.PreferredRows[0]
	}
	row = min(max(row, 1), layout.Rows)

	capacity := layout.Capacity(row)
	col := max(1, (capacity+1)/2)
	switch zone.Side {
	case SideLeft:
		col = 1
	case SideRight:
		col = max(1, capacity)
	}
	return Seat{Row: row, Col: col}
}

func removeSeat(seats []Seat, s Seat) []Seat {
	for i, v := range seats {
		if v == s {
			return append(seats[:i], seats[i+1:]...)
		}
	}
	return seats
}
