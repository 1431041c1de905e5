// Package seating provides the seat grid model, per-part placement zones and
// the minimal reassignment engine for choir seat arrangements.
//
// A choir arrangement is a grid of rows, each with its own capacity. Members
// belong to a Part (soprano, alto, tenor, bass, special) and every part has a
// PartZone describing where it may sit. The Engine repairs an arrangement
// after a seat is vacated or the grid shrinks, moving as few people as
// possible.
//
// Architecture:
//
//	┌───────────────────────────────────────────────────────┐
//	│                 Engine (reassign.go)                   │
//	│  1. Partition occupants against the target grid        │
//	│  2. Row pull into interior gaps (same row only)        │
//	│  3. Chain the pull at the donor column (bounded)       │
//	│  4. Overflow placement of orphaned occupants           │
//	│        │                                               │
//	│        ▼                                               │
//	│  ┌──────────────┐    ┌────────────────────┐           │
//	│  │ ZoneRegistry │───▶│  FindNearestEmpty  │           │
//	│  │  (zone.go)   │    │ primary → expanded │           │
//	│  └──────────────┘    │ → fallback         │           │
//	│                      └────────────────────┘           │
//	└───────────────────────────────────────────────────────┘
//
// # Coordinates
//
// Rows and columns are 1-based everywhere in the public API. Assignments are
// keyed by Seat.Key() ("row-col"). GridLayout.RowOffsets is keyed by the
// 0-based row index so it round-trips with stored layouts unchanged.
//
// # Thread Safety
//
// GridLayout, PartZone and the engine functions are pure. ZoneRegistry is not
// synchronised; callers that share one across goroutines must not mutate it
// concurrently with lookups.
package seating
