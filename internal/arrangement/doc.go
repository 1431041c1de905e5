// Package arrangement owns the editable state of one seat arrangement.
//
// A Store holds the grid layout, the seat map and the members that currently
// have no seat, together with a bounded snapshot history for undo and redo.
// Every mutating call commits at most one history frame, so a compound edit
// such as "remove a member and pull the row together" is undone in one step.
//
// Architecture:
//
//	┌──────────────────────────────────────────────────────────┐
//	│                     Registry (sessions)                   │
//	│   id → Session{Store, workflow.Machine}, one mutex each   │
//	└───────────────┬──────────────────────────────────────────┘
//	                │
//	┌───────────────▼──────────────┐     ┌────────────────────┐
//	│            Store             │────▶│  seating.Engine    │
//	│  state ─ selection ─ history │     │  (pure repair)     │
//	│  checkpoints ─ emergency log │     └────────────────────┘
//	│  observers ─ metrics         │
//	└───────────────┬──────────────┘
//	                │ Document
//	┌───────────────▼──────────────┐
//	│   SQLiteRepository (SQLite)  │
//	└──────────────────────────────┘
//
// # Emergencies
//
// PlanEmergency is a pure function over a State. PreviewEmergency runs it on
// a copy of the store state; ApplyEmergency runs the same function and commits
// its result, so a confirmed preview always matches what gets applied.
//
// # Thread Safety
//
// Store is not safe for concurrent use. Registry hands out sessions whose
// Do method serialises access.
package arrangement
