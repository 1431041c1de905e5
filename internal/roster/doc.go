// Package roster stores choir members and their absences.
//
// It is the read side of the member directory and attendance service that
// arrangements are built from:
//
//	┌──────────────┐   ListMembers    ┌─────────────────────┐
//	│   members    │ ───────────────▶ │                     │
//	└──────────────┘                  │ arrangement.Registry│
//	┌──────────────┐   IsAvailable    │  AvailableMembers   │
//	│   absences   │ ───────────────▶ │  FilterAvailable    │
//	└──────────────┘                  └─────────────────────┘
//
// Absences are recorded per calendar date. A member with no absence row for
// a date is available. Emergency removals record an absence so that the
// member is filtered out the next time the arrangement is opened.
package roster
