package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/seatplan-core/internal/arrangement"
	"github.com/nerrad567/seatplan-core/internal/roster"
)

// AbsenceRequest marks a member unavailable on a date.
type AbsenceRequest struct {
	Date   string `json:"date"`
	Reason string `json:"reason,omitempty"`
}

// requireRoster writes a 503 when no roster is configured.
func (s *Server) requireRoster(w http.ResponseWriter) bool {
	if s.roster == nil {
		writeUnavailable(w, "member roster not configured")
		return false
	}
	return true
}

// handleListMembers lists the directory, optionally only those available
// on ?date=YYYY-MM-DD.
func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	if !s.requireRoster(w) {
		return
	}
	members, err := s.roster.ListMembers(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	if d := r.URL.Query().Get("date"); d != "" {
		date, err := time.Parse(time.DateOnly, d)
		if err != nil {
			writeBadRequest(w, "date must be YYYY-MM-DD")
			return
		}
		available := members[:0]
		for _, m := range members {
			ok, err := s.roster.IsAvailable(r.Context(), m.ID, date)
			if err != nil {
				s.writeDomainError(w, r, err)
				return
			}
			if ok {
				available = append(available, m)
			}
		}
		members = available
	}

	if members == nil {
		members = []arrangement.DirectoryMember{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"members": members,
		"count":   len(members),
	})
}

// handleCreateMember adds a member to the directory.
func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	if !s.requireRoster(w) {
		return
	}
	var m arrangement.DirectoryMember
	if !decode(w, r, &m) {
		return
	}
	m.ID = strings.TrimSpace(m.ID)
	m.Name = strings.TrimSpace(m.Name)

	if err := s.roster.CreateMember(r.Context(), m); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.logger.Info("member created via API", "member_id", m.ID, "part", m.Part)
	writeJSON(w, http.StatusCreated, m)
}

// handleGetMember returns one member.
func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	if !s.requireRoster(w) {
		return
	}
	m, err := s.roster.GetMember(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleDeleteMember removes a member and their absences.
func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	if !s.requireRoster(w) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.roster.DeleteMember(r.Context(), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.logger.Info("member deleted via API", "member_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleMarkUnavailable records an absence.
func (s *Server) handleMarkUnavailable(w http.ResponseWriter, r *http.Request) {
	if !s.requireRoster(w) {
		return
	}
	var req AbsenceRequest
	if !decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.roster.MarkUnavailable(r.Context(), id, req.Date, req.Reason); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, roster.Absence{MemberID: id, Date: req.Date, Reason: req.Reason})
}

// handleClearUnavailable removes an absence.
func (s *Server) handleClearUnavailable(w http.ResponseWriter, r *http.Request) {
	if !s.requireRoster(w) {
		return
	}
	if err := s.roster.ClearUnavailable(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "date")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListAbsences lists the absences recorded for ?date=YYYY-MM-DD,
// today in the service time zone by default.
func (s *Server) handleListAbsences(w http.ResponseWriter, r *http.Request) {
	if !s.requireRoster(w) {
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = s.today()
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		writeBadRequest(w, "date must be YYYY-MM-DD")
		return
	}
	absences, err := s.roster.ListAbsences(r.Context(), date)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if absences == nil {
		absences = []roster.Absence{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":     date,
		"absences": absences,
		"count":    len(absences),
	})
}
