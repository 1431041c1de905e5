package workflow

import (
	"fmt"
	"sort"
)

// Step is a 1-based workflow step.
type Step int

const (
	StepCapacity Step = iota + 1
	StepGrid
	StepPlacement
	StepSeatAdjust
	StepOffsets
	StepLeaders
	StepPublish
)

// StepCount is the number of workflow steps.
const StepCount = int(StepPublish)

var stepNames = map[Step]string{
	StepCapacity:   "capacity",
	StepGrid:       "grid",
	StepPlacement:  "placement",
	StepSeatAdjust: "seat_adjust",
	StepOffsets:    "offsets",
	StepLeaders:    "leaders",
	StepPublish:    "publish",
}

// Valid reports whether s is one of the seven steps.
func (s Step) Valid() bool {
	return s >= StepCapacity && s <= StepPublish
}

// Optional reports whether the step may be skipped in wizard mode.
func (s Step) Optional() bool {
	return s == StepOffsets
}

// String implements fmt.Stringer.
func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// ArtifactStore owns the outputs the workflow steps produce.
type ArtifactStore interface {
	// CheckpointStep records the current output of a completed step so a later
	// reset of the following step can return to it.
	CheckpointStep(step Step)

	// ResetStepArtifacts clears what step produced, keeping earlier output.
	ResetStepArtifacts(step Step) error

	// ResetAllArtifacts clears every step's output.
	ResetAllArtifacts()
}

// State is the serialisable workflow position. It is embedded in saved
// arrangements.
type State struct {
	CurrentStep      Step   `json:"current_step"`
	CompletedSteps   []Step `json:"completed_steps"`
	IsWizardMode     bool   `json:"is_wizard_mode"`
	ExpandedSections []Step `json:"expanded_sections"`
}

// Machine gates navigation through the steps.
//
// A Machine is not safe for concurrent use.
type Machine struct {
	current   Step
	completed map[Step]bool
	wizard    bool
	expanded  map[Step]bool
	store     ArtifactStore
}

// NewMachine creates a machine at step 1 in wizard mode. store may be nil
// when no artifacts need checkpointing.
func NewMachine(store ArtifactStore) *Machine {
	return &Machine{
		current:   StepCapacity,
		completed: make(map[Step]bool),
		wizard:    true,
		expanded:  map[Step]bool{StepCapacity: true},
		store:     store,
	}
}

// CanAccessStep reports whether step is reachable: always in free-edit mode,
// otherwise only when every required earlier step is complete.
func (m *Machine) CanAccessStep(step Step) bool {
	if !step.Valid() {
		return false
	}
	if !m.wizard {
		return true
	}
	for s := StepCapacity; s < step; s++ {
		if s.Optional() {
			continue
		}
		if !m.completed[s] {
			return false
		}
	}
	return true
}

// GoToStep moves to step. A locked step returns ErrStepLocked and leaves the
// machine unchanged.
func (m *Machine) GoToStep(step Step) error {
	if !step.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}
	if !m.CanAccessStep(step) {
		return fmt.Errorf("%w: %s", ErrStepLocked, step)
	}
	m.current = step
	m.expanded[step] = true
	return nil
}

// CompleteStep marks step complete and checkpoints its output. Completing a
// step twice leaves the completed set unchanged. Only GoToStep is gated.
func (m *Machine) CompleteStep(step Step) error {
	if !step.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}
	m.completed[step] = true
	if m.store != nil {
		m.store.CheckpointStep(step)
	}
	return nil
}

// ToggleWizardMode switches between wizard and free-edit mode. Completed
// steps are kept.
func (m *Machine) ToggleWizardMode() {
	m.wizard = !m.wizard
}

// ToggleSection expands or collapses the panel of step.
func (m *Machine) ToggleSection(step Step) error {
	if !step.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}
	if m.expanded[step] {
		delete(m.expanded, step)
	} else {
		m.expanded[step] = true
	}
	return nil
}

// ResetCurrentStepOnly clears the artifacts of step and marks it incomplete.
// Earlier steps keep their output. Publishing has nothing to reset.
func (m *Machine) ResetCurrentStepOnly(step Step) error {
	if !step.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}
	if step == StepPublish {
		return ErrNothingToReset
	}
	if m.store != nil {
		if err := m.store.ResetStepArtifacts(step); err != nil {
			return fmt.Errorf("resetting %s: %w", step, err)
		}
	}
	delete(m.completed, step)
	return nil
}

// ResetAll clears every artifact and completed step and returns to step 1.
// The wizard mode setting is kept.
func (m *Machine) ResetAll() {
	if m.store != nil {
		m.store.ResetAllArtifacts()
	}
	m.current = StepCapacity
	m.completed = make(map[Step]bool)
	m.expanded = map[Step]bool{StepCapacity: true}
}

// IsCompleted reports whether step is complete.
func (m *Machine) IsCompleted(step Step) bool {
	return m.completed[step]
}

// CurrentStep returns the active step.
func (m *Machine) CurrentStep() Step {
	return m.current
}

// IsWizardMode reports whether gating is active.
func (m *Machine) IsWizardMode() bool {
	return m.wizard
}

// State returns a snapshot of the machine.
func (m *Machine) State() State {
	return State{
		CurrentStep:      m.current,
		CompletedSteps:   sortedSteps(m.completed),
		IsWizardMode:     m.wizard,
		ExpandedSections: sortedSteps(m.expanded),
	}
}

// Restore replaces the machine position with a saved state. Artifacts are
// not touched.
func (m *Machine) Restore(s State) error {
	if !s.CurrentStep.Valid() {
		return fmt.Errorf("%w: current step %d", ErrInvalidStep, s.CurrentStep)
	}
	completed := make(map[Step]bool, len(s.CompletedSteps))
	for _, step := range s.CompletedSteps {
		if !step.Valid() {
			return fmt.Errorf("%w: completed step %d", ErrInvalidStep, step)
		}
		completed[step] = true
	}
	expanded := make(map[Step]bool, len(s.ExpandedSections))
	for _, step := range s.ExpandedSections {
		if !step.Valid() {
			return fmt.Errorf("%w: expanded section %d", ErrInvalidStep, step)
		}
		expanded[step] = true
	}
	m.current = s.CurrentStep
	m.completed = completed
	m.wizard = s.IsWizardMode
	m.expanded = expanded
	return nil
}

func sortedSteps(set map[Step]bool) []Step {
	out := make([]Step, 0, len(set))
	for s, ok := range set {
		if ok {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
