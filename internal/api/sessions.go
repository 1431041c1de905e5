package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/seatplan-core/internal/arrangement"
	"github.com/nerrad567/seatplan-core/internal/seating"
	"github.com/nerrad567/seatplan-core/internal/workflow"
)

// SessionView is the editing state of an open arrangement as returned by
// every session endpoint.
type SessionView struct {
	Document  *arrangement.Document `json:"document"`
	Unplaced  []seating.Member      `json:"unplaced"`
	Selection arrangement.Selection `json:"selection"`
	CanUndo   bool                  `json:"can_undo"`
	CanRedo   bool                  `json:"can_redo"`
}

// MutationResponse pairs an operation result with the session after it.
type MutationResponse struct {
	Changed bool        `json:"changed"`
	Result  any         `json:"result,omitempty"`
	Session SessionView `json:"session"`
}

// CreateArrangementRequest is the body of POST /arrangements.
type CreateArrangementRequest struct {
	Name          string                `json:"name"`
	Date          string                `json:"date"`
	RowCapacities []int                 `json:"row_capacities"`
	ZigzagPattern seating.ZigzagPattern `json:"zigzag_pattern,omitempty"`
}

// mutation is one edit run under the session lock. It reports whether the
// arrangement changed and an optional result for the response.
type mutation func(st *arrangement.Store, m *workflow.Machine) (bool, any, error)

// viewOf captures the session state for a response.
func viewOf(sess *arrangement.Session) SessionView {
	var v SessionView
	//nolint:errcheck // the callback never fails
	sess.Do(func(st *arrangement.Store, _ *workflow.Machine) error {
		v.Unplaced = st.Snapshot().Unplaced
		v.Selection = st.Selection()
		v.CanUndo = st.CanUndo()
		v.CanRedo = st.CanRedo()
		return nil
	})
	if v.Unplaced == nil {
		v.Unplaced = []seating.Member{}
	}
	v.Document = sess.Document()
	return v
}

// session resolves the open session named by the {id} URL parameter,
// writing a 404 when it is not open.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*arrangement.Session, bool) {
	sess, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return nil, false
	}
	return sess, true
}

// mutate runs fn on the open session, broadcasts the change and writes the
// resulting view.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, op string, fn mutation) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var (
		changed bool
		result  any
	)
	err := sess.Do(func(st *arrangement.Store, m *workflow.Machine) error {
		var err error
		changed, result, err = fn(st, m)
		return err
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	if changed {
		s.broadcast(ChannelArrangementChanged, ArrangementEvent{ArrangementID: sess.ID, Op: op})
	}
	writeJSON(w, http.StatusOK, MutationResponse{Changed: changed, Result: result, Session: viewOf(sess)})
}

// decode reads a JSON body into v, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return false
	}
	return true
}

// handleListArrangements lists stored arrangements and the open session IDs.
func (s *Server) handleListArrangements(w http.ResponseWriter, r *http.Request) {
	docs, err := s.arrangements.List(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if docs == nil {
		docs = []arrangement.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"arrangements": docs,
		"count":        len(docs),
		"open":         s.registry.List(),
	})
}

// handleCreateArrangement stores a new empty arrangement and opens it.
func (s *Server) handleCreateArrangement(w http.ResponseWriter, r *http.Request) {
	var req CreateArrangementRequest
	if !decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}

	layout := seating.NewGridLayout(req.RowCapacities)
	if req.ZigzagPattern != "" {
		layout.ZigzagPattern = req.ZigzagPattern
	}
	if err := layout.Validate(); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	sess, err := s.registry.Create(r.Context(), req.Name, req.Date, layout)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.logger.Info("arrangement created via API", "id", sess.ID, "rows", layout.Rows)
	writeJSON(w, http.StatusCreated, viewOf(sess))
}

// handleOpenArrangement loads a stored arrangement into a session.
func (s *Server) handleOpenArrangement(w http.ResponseWriter, r *http.Request) {
	sess, err := s.registry.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// handleGetSession returns the editing state of an open arrangement.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// handleSaveArrangement persists the session. A version conflict leaves the
// session as it was.
func (s *Server) handleSaveArrangement(w http.ResponseWriter, r *http.Request) {
	doc, err := s.registry.Save(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if s.publisher != nil {
		s.publisher.RecordSnapshot(doc, "saved")
	}
	s.broadcast(ChannelArrangementSaved, ArrangementEvent{ArrangementID: doc.ID, Op: "save", Version: doc.Version})
	writeJSON(w, http.StatusOK, doc)
}

// handleCloseArrangement drops the session without saving.
func (s *Server) handleCloseArrangement(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Close(chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteArrangement closes and deletes an arrangement.
func (s *Server) handleDeleteArrangement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.registry.Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.logger.Info("arrangement deleted via API", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
