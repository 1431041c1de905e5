package seating

import (
	"slices"
	"sort"
)

// Side restricts a part to one half of each row.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
	SideBoth  Side = "both"
)

// ZoneTier records which search tier produced a seat.
type ZoneTier string

const (
	// TierPrimary seats satisfy the zone exactly.
	TierPrimary ZoneTier = "primary"

	// TierExpanded seats sit one row outside the allowed range.
	TierExpanded ZoneTier = "expanded"

	// TierFallbackSide seats keep only the side constraint.
	TierFallbackSide ZoneTier = "fallback_side"

	// TierFallbackAny seats ignore the zone entirely.
	TierFallbackAny ZoneTier = "fallback_any"
)

// InZone reports whether seats found at this tier satisfy the strict zone.
func (t ZoneTier) InZone() bool {
	return t == TierPrimary
}

// IsFallback reports whether the tier dropped zone constraints.
func (t ZoneTier) IsFallback() bool {
	return t == TierFallbackSide || t == TierFallbackAny
}

// RowRange is an inclusive 1-based row interval.
type RowRange struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// Contains reports whether row lies inside the range.
func (r RowRange) Contains(row int) bool {
	return row >= r.Min && row <= r.Max
}

// Widen returns the range grown by n rows on each side, floored at row 1.
func (r RowRange) Widen(n int) RowRange {
	return RowRange{Min: max(1, r.Min-n), Max: r.Max + n}
}

// PartZone describes where a part may sit.
type PartZone struct {
	Part          Part     `json:"part" yaml:"part"`
	AllowedRows   RowRange `json:"allowed_rows" yaml:"allowed_rows"`
	Side          Side     `json:"side" yaml:"side"`
	ForbiddenRows []int    `json:"forbidden_rows,omitempty" yaml:"forbidden_rows,omitempty"`
	PreferredRows []int    `json:"preferred_rows,omitempty" yaml:"preferred_rows,omitempty"`
}

// Clone returns a deep copy of the zone.
func (z PartZone) Clone() PartZone {
	z.ForbiddenRows = slices.Clone(z.ForbiddenRows)
	z.PreferredRows = slices.Clone(z.PreferredRows)
	return z
}

// forbids reports whether row is listed as forbidden.
func (z *PartZone) forbids(row int) bool {
	return slices.Contains(z.ForbiddenRows, row)
}

// preferredRank returns the position of row in PreferredRows, or the list
// length when the row is not preferred.
func (z *PartZone) preferredRank(row int) int {
	if z == nil {
		return 0
	}
	if i := slices.Index(z.PreferredRows, row); i >= 0 {
		return i
	}
	return len(z.PreferredRows)
}

// IsInZone reports whether (row, col) satisfies zone for part.
//
// A nil zone is unconstrained. A zone that names a different part never
// matches. Side is resolved against the row's own capacity with
// midCol = ceil(rowCapacity/2): left is col < midCol, right is col >= midCol.
func IsInZone(row, col int, part Part, zone *PartZone, rowCapacity int) bool {
	if zone == nil {
		return true
	}
	if zone.Part != "" && zone.Part != part {
		return false
	}
	if zone.forbids(row) {
		return false
	}
	if !zone.AllowedRows.Contains(row) {
		return false
	}
	return sideAccepts(zone.Side, col, rowCapacity)
}

// sideAccepts applies the midpoint rule.
func sideAccepts(side Side, col, rowCapacity int) bool {
	midCol := (rowCapacity + 1) / 2
	switch side {
	case SideLeft:
		return col < midCol
	case SideRight:
		return col >= midCol
	default:
		return true
	}
}

// FindNearestEmpty searches emptySeats for the seat nearest to target that
// suits part, degrading through the zone tiers:
//
//  1. primary: strict IsInZone
//  2. expanded: AllowedRows widened by one row each side, forbidden rows and side still apply
//  3. fallback (only with allowFallback): side only, then any seat
//
// Within a tier candidates are ordered by Manhattan distance, preferred-row
// rank, row and column, so the result never depends on input order. Seats
// outside rowCapacities are ignored.
func FindNearestEmpty(target Seat, emptySeats []Seat, part Part, zone *PartZone, rowCapacities []int, allowFallback bool) (Seat, ZoneTier, bool) {
	capacity := func(row int) int {
		if row < 1 || row > len(rowCapacities) {
			return 0
		}
		return rowCapacities[row-1]
	}

	inBounds := make([]Seat, 0, len(emptySeats))
	for _, s := range emptySeats {
		if s.Row >= 1 && s.Col >= 1 && s.Col <= capacity(s.Row) {
			inBounds = append(inBounds, s)
		}
	}
	sort.Slice(inBounds, func(i, j int) bool {
		a, b := inBounds[i], inBounds[j]
		if da, db := a.Distance(target), b.Distance(target); da != db {
			return da < db
		}
		if ra, rb := zone.preferredRank(a.Row), zone.preferredRank(b.Row); ra != rb {
			return ra < rb
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Col < b.Col
	})

	first := func(accept func(Seat) bool) (Seat, bool) {
		for _, s := range inBounds {
			if accept(s) {
				return s, true
			}
		}
		return Seat{}, false
	}

	if s, ok := first(func(s Seat) bool {
		return IsInZone(s.Row, s.Col, part, zone, capacity(s.Row))
	}); ok {
		return s, TierPrimary, true
	}

	if zone != nil {
		expanded := zone.Clone()
		expanded.AllowedRows = zone.AllowedRows.Widen(1)
		if s, ok := first(func(s Seat) bool {
			return IsInZone(s.Row, s.Col, part, &expanded, capacity(s.Row))
		}); ok {
			return s, TierExpanded, true
		}
	}

	if !allowFallback {
		return Seat{}, "", false
	}

	if zone != nil {
		if s, ok := first(func(s Seat) bool {
			return sideAccepts(zone.Side, s.Col, capacity(s.Row))
		}); ok {
			return s, TierFallbackSide, true
		}
	}

	if len(inBounds) > 0 {
		return inBounds[0], TierFallbackAny, true
	}
	return Seat{}, "", false
}

// ZoneRegistry holds one PartZone per part.
type ZoneRegistry struct {
	zones map[Part]PartZone
}

// NewZoneRegistry creates a registry from the given zones. Later zones for
// the same part replace earlier ones.
func NewZoneRegistry(zones ...PartZone) *ZoneRegistry {
	r := &ZoneRegistry{zones: make(map[Part]PartZone, len(zones))}
	for _, z := range zones {
		r.zones[z.Part] = z.Clone()
	}
	return r
}

// DefaultZones returns the static zones for a grid with the given number of
// rows: sopranos front left, altos front right, tenors back left, basses
// back right and special singers anywhere.
func DefaultZones(rows int) *ZoneRegistry {
	rows = max(rows, 1)
	front := RowRange{Min: 1, Max: (rows + 1) / 2}
	back := RowRange{Min: min(rows, rows/2+1), Max: rows}

	frontPref := rowsBetween(front.Min, front.Max)
	backPref := rowsBetween(back.Min, back.Max)
	slices.Reverse(backPref)

	return NewZoneRegistry(
		PartZone{Part: PartSoprano, AllowedRows: front, Side: SideLeft, PreferredRows: frontPref},
		PartZone{Part: PartAlto, AllowedRows: front, Side: SideRight, PreferredRows: frontPref},
		PartZone{Part: PartTenor, AllowedRows: back, Side: SideLeft, PreferredRows: backPref},
		PartZone{Part: PartBass, AllowedRows: back, Side: SideRight, PreferredRows: backPref},
		PartZone{Part: PartSpecial, AllowedRows: RowRange{Min: 1, Max: rows}, Side: SideBoth},
	)
}

// Zone returns a copy of the zone for part, or nil when the part is unconstrained.
func (r *ZoneRegistry) Zone(part Part) *PartZone {
	if r == nil {
		return nil
	}
	z, ok := r.zones[part]
	if !ok {
		return nil
	}
	cpy := z.Clone()
	return &cpy
}

// Set validates and stores a zone, replacing any zone for the same part.
func (r *ZoneRegistry) Set(zone PartZone) error {
	if err := ValidateZone(zone); err != nil {
		return err
	}
	if r.zones == nil {
		r.zones = make(map[Part]PartZone)
	}
	r.zones[zone.Part] = zone.Clone()
	return nil
}

// Zones returns all zones in part display order.
func (r *ZoneRegistry) Zones() []PartZone {
	if r == nil {
		return nil
	}
	out := make([]PartZone, 0, len(r.zones))
	for _, z := range r.zones {
		out = append(out, z.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return partOrder(out[i].Part) < partOrder(out[j].Part)
	})
	return out
}

// IsInZone reports whether seat satisfies the registered zone of part.
func (r *ZoneRegistry) IsInZone(seat Seat, part Part, layout GridLayout) bool {
	return IsInZone(seat.Row, seat.Col, part, r.Zone(part), layout.Capacity(seat.Row))
}

// Tier reports the first search tier that accepts seat for part.
func (r *ZoneRegistry) Tier(seat Seat, part Part, layout GridLayout) ZoneTier {
	return TierOf(seat, part, r.Zone(part), layout.Capacity(seat.Row))
}

// FindNearestEmpty runs the tiered search with the registered zone of part.
func (r *ZoneRegistry) FindNearestEmpty(target Seat, empty []Seat, part Part, layout GridLayout, allowFallback bool) (Seat, ZoneTier, bool) {
	return FindNearestEmpty(target, empty, part, r.Zone(part), layout.RowCapacities, allowFallback)
}

// TierOf reports the first search tier that would accept seat: primary,
// expanded, side-only fallback, or fallback_any when nothing does.
func TierOf(seat Seat, part Part, zone *PartZone, rowCapacity int) ZoneTier {
	if IsInZone(seat.Row, seat.Col, part, zone, rowCapacity) {
		return TierPrimary
	}
	if zone == nil {
		return TierFallbackAny
	}
	expanded := zone.Clone()
	expanded.AllowedRows = zone.AllowedRows.Widen(1)
	if IsInZone(seat.Row, seat.Col, part, &expanded, rowCapacity) {
		return TierExpanded
	}
	if sideAccepts(zone.Side, seat.Col, rowCapacity) {
		return TierFallbackSide
	}
	return TierFallbackAny
}

func rowsBetween(lo, hi int) []int {
	var out []int
	for r := lo; r <= hi; r++ {
		out = append(out, r)
	}
	return out
}
