package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/seatplan-core/internal/arrangement"
	"github.com/nerrad567/seatplan-core/internal/seating"
	"github.com/nerrad567/seatplan-core/internal/workflow"
)

// SetAssignmentsRequest replaces every seat of an arrangement.
type SetAssignmentsRequest struct {
	Assignments []seating.SeatAssignment `json:"assignments"`
}

// SelectMemberRequest picks a member from the sidebar. Either Member is
// given in full or MemberID is looked up in the roster.
type SelectMemberRequest struct {
	MemberID string          `json:"member_id,omitempty"`
	Member   *seating.Member `json:"member,omitempty"`
}

// SetLayoutRequest resizes the grid.
type SetLayoutRequest struct {
	RowCapacities []int                 `json:"row_capacities"`
	ZigzagPattern seating.ZigzagPattern `json:"zigzag_pattern,omitempty"`
	Compact       bool                  `json:"compact"`
}

// RecommendLayoutRequest asks for balanced row capacities. Zero fields
// default to the arrangement's member count, its row count and the
// configured row maximum.
type RecommendLayoutRequest struct {
	MemberCount int `json:"member_count"`
	Rows        int `json:"rows"`
	MaxPerRow   int `json:"max_per_row"`
}

// RowOffsetRequest sets the horizontal shift of one row, in seats.
type RowOffsetRequest struct {
	Offset float64 `json:"offset"`
}

// seatParams parses the {row} and {col} URL parameters.
func seatParams(r *http.Request) (row, col int, err error) {
	row, err = positiveParam(r, "row")
	if err != nil {
		return 0, 0, err
	}
	col, err = positiveParam(r, "col")
	if err != nil {
		return 0, 0, err
	}
	return row, col, nil
}

func positiveParam(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return v, nil
}

// handleSetAssignments replaces the seat list. Rejected entries are returned.
func (s *Server) handleSetAssignments(w http.ResponseWriter, r *http.Request) {
	var req SetAssignmentsRequest
	if !decode(w, r, &req) {
		return
	}
	for _, a := range req.Assignments {
		if err := seating.ValidateMember(a.Member()); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
	}
	s.mutate(w, r, "set_assignments", func(st *arrangement.Store, _ *workflow.Machine) (bool, any, error) {
		before := st.Snapshot()
		rejected := st.SetAssignments(req.Assignments)
		if rejected == nil {
			rejected = []seating.SeatAssignment{}
		}
		return !before.Equal(st.Snapshot()), map[string]any{"rejected": rejected}, nil
	})
}

// handleSelectMember picks a sidebar member for the next seat click.
func (s *Server) handleSelectMember(w http.ResponseWriter, r *http.Request) {
	var req SelectMemberRequest
	if !decode(w, r, &req) {
		return
	}

	var m seating.Member
	switch {
	case req.Member != nil:
		m = *req.Member
	case req.MemberID != "" && s.roster != nil:
		dm, err := s.roster.GetMember(r.Context(), req.MemberID)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		m = seating.Member{ID: dm.ID, Name: dm.Name, Part: dm.Part}
	default:
		writeBadRequest(w, "member or member_id is required")
		return
	}
	if err := seating.ValidateMember(m); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.mutate(w, r, "select_member", func(st *arrangement.Store, _ *workflow.Machine) (bool, any, error) {
		st.SelectMember(m)
		return false, nil, nil
	})
}

// handleClearSelection drops the pending selection.
func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "clear_selection", func(st *arrangement.Store, _ *workflow.Machine) (bool, any, error) {
		st.ClearSelection()
		return false, nil, nil
	})
}

// handleSeatClick applies a click-click interaction at one seat.
func (s *Server) handleSeatClick(w http.ResponseWriter, r *http.Request) {
	row, col, err := seatParams(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	s.mutate(w, r, "seat_click", func(st *arrangement.Store, _ *workflow.Machine) (bool, any, error) {
		return st.HandleSeatClick(row, col), nil, nil
	})
}

// handleRemoveMember clears one seat; its occupant becomes unplaced.
func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	row, col, err := seatParams(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	s.mutate(w, r, "remove_member", func(st *arrangement.Store, _ *workflow.Machine) (bool, any, error) {
		return st.RemoveMember(row, col), nil, nil
	})
}

// handleToggleLeader flips the row leader flag of one occupant.
func (s *Server) handleToggleLeader(w http.ResponseWriter, r *http.Request) {
	row, col, err := seatParams(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	s.mutate(w, r, "toggle_row_leader", func(st *arrangement.Store, _ *workflow.Machine) (bool, any, error) {
		return st.ToggleRowLeader(row, col), nil, nil
	})
}

// handleAutoLeaders picks the occupant nearest each row centre.
func (s *Server) handleAutoLeaders(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "auto_assign_leaders", func(st *arrangement.Store, _ *workflow.Machine) (bool, any, error) {
		return st.AutoAssignRowLeaders(), nil, nil
	})
}

// handleClearLeaders drops every leader flag.
func (s *Server) handleClearLeaders(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "clear_leaders", func(st *arrangement.Store, _ *workflow.Machine) (bool, any, error) {
		return st.ClearAllRowLeaders(), nil, nil
	})
}

// handleAutoPlace seats the roster members available on the arrangement's
// date into free seats by zone.
func (s *Server) handleAutoPlace(w http.ResponseWriter, r *http.Request) {
	if s.roster == nil {
		writeUnavailable(w, "member roster not configured")
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var (
		att  arrangement.AttendanceService
		date time.Time
	)
	if d := sess.Document().Date; d != "" {
		parsed, err := time.Parse(time.DateOnly, d)
		if err != nil {
			s.writeDomainError(w, r, fmt.Errorf("%w: date %q", arrangement.ErrInvalidDocument, d))
			return
		}
		att, date = s.roster, parsed
	}
	members, err := arrangement.AvailableMembers(r.Context(), s.roster, att, date)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.mutate(w, r, "auto_place", func(st *arrangement.Store, _ *workflow.Machine) (bool, any, error) {
		res := st.AutoPlace(members)
		return len(res.Placed) > 0, res, nil
	})
}

// handleUndo restores the previous frame.
func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "undo", func(st *arrangement.Store, _ *workflow.Machine) (bool, any, error) {
		return st.Undo(), nil, nil
	})
}

// handleRedo re-applies the next frame.
func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "redo", func(st *arrangement.Store, _ *workflow.Machine) (bool, any, error) {
		return st.Redo(), nil, nil
	})
}

// handleSetLayout resizes the grid, relocating orphaned occupants.
func (s *Server) handleSetLayout(w http.ResponseWriter, r *http.Request) {
	var req SetLayoutRequest
	if !decode(w, r, &req) {
		return
	}
	s.mutate(w, r, "set_grid_layout", func(st *arrangement.Store, _ *workflow.Machine) (bool, any, error) {
		before := st.Snapshot()
		layout := before.Layout.Resize(req.RowCapacities)
		if req.ZigzagPattern != "" {
			layout.ZigzagPattern = req.ZigzagPattern
		}
		res, err := st.SetGridLayout(layout, req.Compact)
		if err != nil {
			return false, nil, err
		}
		return !before.Equal(st.Snapshot()), res, nil
	})
}

// handleRecommendLayout resizes the grid to balanced capacities.
func (s *Server) handleRecommendLayout(w http.ResponseWriter, r *http.Request) {
	var req RecommendLayoutRequest
	if !decode(w, r, &req) {
		return
	}
	maxPerRow := req.MaxPerRow
	if maxPerRow == 0 {
		maxPerRow = s.seatingCfg.MaxRowCapacity
	}
	if maxPerRow == 0 {
		maxPerRow = seating.MaxRowCapacity
	}

	s.mutate(w, r, "recommend_grid", func(st *arrangement.Store, _ *workflow.Machine) (bool, any, error) {
		before := st.Snapshot()
		count := req.MemberCount
		if count == 0 {
			count = len(before.Assignments) + len(before.Unplaced)
		}
		rows := req.Rows
		if rows == 0 {
			rows = before.Layout.Rows
		}
		res, err := st.RecommendGrid(count, rows, maxPerRow)
		if err != nil {
			return false, nil, err
		}
		return !before.Equal(st.Snapshot()), res, nil
	})
}

// handleCompactRows removes column gaps within each row.
func (s *Server) handleCompactRows(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "compact_rows", func(st *arrangement.Store, _ *workflow.Machine) (bool, any, error) {
		return st.CompactAllRows(), nil, nil
	})
}

// handleSetRowOffset sets the user offset of a 1-based row.
func (s *Server) handleSetRowOffset(w http.ResponseWriter, r *http.Request) {
	row, err := positiveParam(r, "row")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req RowOffsetRequest
	if !decode(w, r, &req) {
		return
	}
	s.mutate(w, r, "set_row_offset", func(st *arrangement.Store, _ *workflow.Machine) (bool, any, error) {
		if row > st.Snapshot().Layout.Rows {
			return false, nil, fmt.Errorf("%w: row %d out of range", seating.ErrInvalidLayout, row)
		}
		return st.SetRowOffset(row, req.Offset), nil, nil
	})
}
