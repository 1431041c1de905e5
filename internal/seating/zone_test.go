package seating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsInZone(t *testing.T) {
	zone := &PartZone{
		Part:          PartAlto,
		AllowedRows:   RowRange{Min: 1, Max: 3},
		Side:          SideRight,
		ForbiddenRows: []int{2},
	}

	tests := []struct {
		name     string
		row, col int
		part     Part
		capacity int
		want     bool
	}{
		{"right half", 1, 3, PartAlto, 4, true},
		{"midpoint counts as right", 1, 2, PartAlto, 4, true},
		{"left half", 1, 1, PartAlto, 4, false},
		{"forbidden row", 2, 4, PartAlto, 4, false},
		{"below range", 4, 4, PartAlto, 4, false},
		{"odd capacity midpoint", 3, 3, PartAlto, 5, true},
		{"other part", 1, 3, PartBass, 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInZone(tt.row, tt.col, tt.part, zone, tt.capacity))
		})
	}

	assert.True(t, IsInZone(9, 9, PartBass, nil, 1), "nil zone is unconstrained")
}

func TestIsInZoneLeftSide(t *testing.T) {
	zone := &PartZone{Part: PartSoprano, AllowedRows: RowRange{Min: 1, Max: 2}, Side: SideLeft}

	assert.True(t, IsInZone(1, 1, PartSoprano, zone, 4))
	assert.False(t, IsInZone(1, 2, PartSoprano, zone, 4))
	assert.True(t, IsInZone(1, 2, PartSoprano, zone, 5))
	assert.False(t, IsInZone(1, 1, PartSoprano, zone, 1), "single seat belongs to the right half")
}

func TestFindNearestEmptyTiers(t *testing.T) {
	caps := []int{2, 2, 2}
	zone := &PartZone{Part: PartSoprano, AllowedRows: RowRange{Min: 1, Max: 1}, Side: SideBoth}

	t.Run("primary", func(t *testing.T) {
		s, tier, ok := FindNearestEmpty(Seat{Row: 3, Col: 2}, []Seat{{2, 1}, {1, 2}}, PartSoprano, zone, caps, false)
		require.True(t, ok)
		assert.Equal(t, Seat{Row: 1, Col: 2}, s)
		assert.Equal(t, TierPrimary, tier)
	})

	t.Run("expanded", func(t *testing.T) {
		s, tier, ok := FindNearestEmpty(Seat{Row: 1, Col: 1}, []Seat{{3, 1}, {2, 2}}, PartSoprano, zone, caps, false)
		require.True(t, ok)
		assert.Equal(t, Seat{Row: 2, Col: 2}, s)
		assert.Equal(t, TierExpanded, tier)
	})

	t.Run("forbidden row stays excluded when expanded", func(t *testing.T) {
		z := zone.Clone()
		z.ForbiddenRows = []int{2}
		_, _, ok := FindNearestEmpty(Seat{Row: 1, Col: 1}, []Seat{{3, 1}, {2, 2}}, PartSoprano, &z, caps, false)
		assert.False(t, ok)

		s, tier, ok := FindNearestEmpty(Seat{Row: 1, Col: 1}, []Seat{{3, 1}, {2, 2}}, PartSoprano, &z, caps, true)
		require.True(t, ok)
		assert.Equal(t, Seat{Row: 2, Col: 2}, s)
		assert.Equal(t, TierFallbackSide, tier)
	})

	t.Run("fallback any ignores side", func(t *testing.T) {
		z := PartZone{Part: PartBass, AllowedRows: RowRange{Min: 1, Max: 1}, Side: SideLeft}
		s, tier, ok := FindNearestEmpty(Seat{Row: 1, Col: 1}, []Seat{{3, 2}}, PartBass, &z, caps, true)
		require.True(t, ok)
		assert.Equal(t, Seat{Row: 3, Col: 2}, s)
		assert.Equal(t, TierFallbackAny, tier)
		assert.True(t, tier.IsFallback())
	})

	t.Run("out of bounds seats ignored", func(t *testing.T) {
		_, _, ok := FindNearestEmpty(Seat{Row: 1, Col: 1}, []Seat{{1, 3}, {4, 1}}, PartSoprano, zone, caps, true)
		assert.False(t, ok)
	})
}

func TestFindNearestEmptyIsOrderIndependent(t *testing.T) {
	caps := []int{3, 3}
	zone := &PartZone{Part: PartTenor, AllowedRows: RowRange{Min: 1, Max: 2}, Side: SideBoth, PreferredRows: []int{2}}

	// (1,1) and (2,2) are both at distance 1 from (1,2); row 2 is preferred.
	a, _, _ := FindNearestEmpty(Seat{Row: 1, Col: 2}, []Seat{{1, 1}, {2, 2}}, PartTenor, zone, caps, false)
	b, _, _ := FindNearestEmpty(Seat{Row: 1, Col: 2}, []Seat{{2, 2}, {1, 1}}, PartTenor, zone, caps, false)
	assert.Equal(t, Seat{Row: 2, Col: 2}, a)
	assert.Equal(t, a, b)

	// Without a preference the lower row, then lower column, wins.
	zone.PreferredRows = nil
	c, _, _ := FindNearestEmpty(Seat{Row: 1, Col: 2}, []Seat{{2, 2}, {1, 3}, {1, 1}}, PartTenor, zone, caps, false)
	assert.Equal(t, Seat{Row: 1, Col: 1}, c)
}

func TestDefaultZones(t *testing.T) {
	reg := DefaultZones(4)

	sop := reg.Zone(PartSoprano)
	require.NotNil(t, sop)
	assert.Equal(t, RowRange{Min: 1, Max: 2}, sop.AllowedRows)
	assert.Equal(t, SideLeft, sop.Side)

	bass := reg.Zone(PartBass)
	require.NotNil(t, bass)
	assert.Equal(t, RowRange{Min: 3, Max: 4}, bass.AllowedRows)
	assert.Equal(t, []int{4, 3}, bass.PreferredRows)

	for _, z := range reg.Zones() {
		assert.NoError(t, ValidateZone(z), z.Part)
	}
	assert.Len(t, reg.Zones(), len(AllParts()))

	single := DefaultZones(1)
	assert.Equal(t, RowRange{Min: 1, Max: 1}, single.Zone(PartTenor).AllowedRows)
}

func TestZoneRegistryIsolation(t *testing.T) {
	reg := NewZoneRegistry(PartZone{Part: PartAlto, AllowedRows: RowRange{Min: 1, Max: 2}, Side: SideBoth, ForbiddenRows: []int{2}})

	z := reg.Zone(PartAlto)
	z.ForbiddenRows[0] = 1

	assert.Equal(t, []int{2}, reg.Zone(PartAlto).ForbiddenRows)
	assert.Nil(t, reg.Zone(PartBass))

	err := reg.Set(PartZone{Part: "BARITONE", AllowedRows: RowRange{Min: 1, Max: 1}, Side: SideBoth})
	assert.ErrorIs(t, err, ErrInvalidPart)

	err = reg.Set(PartZone{Part: PartBass, AllowedRows: RowRange{Min: 3, Max: 1}, Side: SideBoth})
	assert.ErrorIs(t, err, ErrInvalidZone)
}

func TestTierOf(t *testing.T) {
	zone := &PartZone{Part: PartAlto, AllowedRows: RowRange{Min: 1, Max: 1}, Side: SideLeft}

	tests := []struct {
		name string
		seat Seat
		want ZoneTier
	}{
		{"inside zone", Seat{Row: 1, Col: 1}, TierPrimary},
		{"one row outside", Seat{Row: 2, Col: 1}, TierExpanded},
		{"side only", Seat{Row: 3, Col: 1}, TierFallbackSide},
		{"wrong side in widened rows", Seat{Row: 2, Col: 3}, TierFallbackAny},
		{"nothing matches", Seat{Row: 3, Col: 3}, TierFallbackAny},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TierOf(tt.seat, PartAlto, zone, 3))
		})
	}

	assert.Equal(t, TierPrimary, TierOf(Seat{Row: 9, Col: 9}, PartAlto, nil, 3))
}
