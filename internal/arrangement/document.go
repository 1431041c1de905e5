package arrangement

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/nerrad567/seatplan-core/internal/seating"
	"github.com/nerrad567/seatplan-core/internal/workflow"
)

const maxDocumentNameLength = 100

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Document is the durable form of an arrangement: the layout (row offsets
// included), an embedded workflow snapshot, the seat list and the baseline
// step resets return to. History and selection are session state and are
// not stored.
type Document struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Date        string                   `json:"date"`
	Layout      seating.GridLayout       `json:"layout"`
	Workflow    workflow.State           `json:"workflow"`
	Assignments []seating.SeatAssignment `json:"assignments"`
	Baseline    Baseline                 `json:"baseline"`
	Version     int                      `json:"version"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// Baseline holds the reference points of step resets: the layout the
// arrangement started with and the outputs checkpointed when the capacity
// and placement steps were completed. A zero Layout means the current
// layout is the starting one.
type Baseline struct {
	Layout    seating.GridLayout   `json:"layout"`
	Capacity  *seating.GridLayout  `json:"capacity,omitempty"`
	Placement *PlacementCheckpoint `json:"placement,omitempty"`
}

// PlacementCheckpoint is the seat list recorded when placement was completed.
type PlacementCheckpoint struct {
	Assignments []seating.SeatAssignment `json:"assignments"`
	Unplaced    []seating.Member         `json:"unplaced,omitempty"`
}

// Clone returns an independent copy of the baseline.
func (b Baseline) Clone() Baseline {
	cpy := Baseline{Layout: b.Layout.Clone()}
	if b.Capacity != nil {
		l := b.Capacity.Clone()
		cpy.Capacity = &l
	}
	if b.Placement != nil {
		cpy.Placement = &PlacementCheckpoint{
			Assignments: slices.Clone(b.Placement.Assignments),
			Unplaced:    slices.Clone(b.Placement.Unplaced),
		}
	}
	return cpy
}

// NewDocument captures a store state and workflow position.
func NewDocument(id, name, date string, st State, wf workflow.State) *Document {
	return &Document{
		ID:          id,
		Name:        name,
		Date:        date,
		Layout:      st.Layout.Clone(),
		Workflow:    wf,
		Assignments: st.Assignments.Sorted(),
	}
}

// State returns the store state the document describes.
func (d *Document) State() State {
	byKey, _ := seating.FromList(d.Assignments)
	return State{Layout: d.Layout.Clone(), Assignments: byKey}
}

// DeepCopy creates an independent copy of the document.
func (d *Document) DeepCopy() *Document {
	if d == nil {
		return nil
	}
	cpy := *d
	cpy.Layout = d.Layout.Clone()
	cpy.Assignments = append([]seating.SeatAssignment(nil), d.Assignments...)
	cpy.Baseline = d.Baseline.Clone()
	cpy.Workflow.CompletedSteps = append([]workflow.Step(nil), d.Workflow.CompletedSteps...)
	cpy.Workflow.ExpandedSections = append([]workflow.Step(nil), d.Workflow.ExpandedSections...)
	return &cpy
}

// ValidateDocument checks a document before it is stored.
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	name := strings.TrimSpace(d.Name)
	if name == "" || len(name) > maxDocumentNameLength {
		return fmt.Errorf("%w: name must be 1..%d characters", ErrInvalidDocument, maxDocumentNameLength)
	}
	if d.Date != "" {
		if !datePattern.MatchString(d.Date) {
			return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidDocument, d.Date)
		}
		if _, err := time.Parse(time.DateOnly, d.Date); err != nil {
			return fmt.Errorf("%w: date %q: %v", ErrInvalidDocument, d.Date, err)
		}
	}
	if err := d.Layout.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if d.Baseline.Layout.Rows > 0 {
		if err := d.Baseline.Layout.Validate(); err != nil {
			return fmt.Errorf("%w: baseline %v", ErrInvalidDocument, err)
		}
	}
	if d.Baseline.Capacity != nil {
		if err := d.Baseline.Capacity.Validate(); err != nil {
			return fmt.Errorf("%w: capacity checkpoint %v", ErrInvalidDocument, err)
		}
	}
	if d.Workflow.CurrentStep != 0 && !d.Workflow.CurrentStep.Valid() {
		return fmt.Errorf("%w: workflow step %d", ErrInvalidDocument, d.Workflow.CurrentStep)
	}

	members := make(map[string]bool, len(d.Assignments))
	seats := make(map[string]bool, len(d.Assignments))
	for _, a := range d.Assignments {
		if members[a.MemberID] {
			return fmt.Errorf("%w: member %s seated twice", ErrInvalidDocument, a.MemberID)
		}
		if seats[a.Key()] {
			return fmt.Errorf("%w: seat %s assigned twice", ErrInvalidDocument, a.Key())
		}
		if !d.Layout.InBounds(a.Seat()) {
			return fmt.Errorf("%w: seat %s outside layout", ErrInvalidDocument, a.Key())
		}
		members[a.MemberID] = true
		seats[a.Key()] = true
	}
	return nil
}
