// Package workflow implements the seven-step arrangement editing workflow.
//
// Steps run in a fixed order:
//
//	1 capacity recommendation
//	2 manual grid adjustment
//	3 automatic placement
//	4 manual seat adjustment
//	5 per-row offset tuning (optional)
//	6 row-leader assignment
//	7 publish / share
//
// In wizard mode a step is reachable only when every required step before it
// is complete. Free-edit mode removes the gate. The Machine never touches
// seat assignments itself; completing and resetting steps is delegated to an
// ArtifactStore, which the arrangement store implements.
package workflow
