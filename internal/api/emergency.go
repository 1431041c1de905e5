package api

import (
	"net/http"

	"github.com/nerrad567/seatplan-core/internal/arrangement"
	"github.com/nerrad567/seatplan-core/internal/workflow"
)

// emergencyAbsenceReason is recorded in the roster for emergency removals.
const emergencyAbsenceReason = "emergency removal"

// EmergencyResponse reports an applied emergency change and the follow-up
// steps. Follow-up failures are warnings: the change itself is committed.
type EmergencyResponse struct {
	Record   arrangement.EmergencyChangeRecord `json:"record"`
	Saved    bool                              `json:"saved"`
	Notified bool                              `json:"notified"`
	Warnings []string                          `json:"warnings,omitempty"`
	Session  SessionView                       `json:"session"`
}

// handlePreviewEmergency computes an emergency change without applying it.
func (s *Server) handlePreviewEmergency(w http.ResponseWriter, r *http.Request) {
	var req arrangement.EmergencyRequest
	if !decode(w, r, &req) {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var plan arrangement.EmergencyPlan
	err := sess.Do(func(st *arrangement.Store, _ *workflow.Machine) error {
		var err error
		plan, err = st.PreviewEmergency(req)
		return err
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// handleApplyEmergency applies an emergency change, then records the
// absence, saves the arrangement and notifies downstream services.
func (s *Server) handleApplyEmergency(w http.ResponseWriter, r *http.Request) {
	var req arrangement.EmergencyRequest
	if !decode(w, r, &req) {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var rec arrangement.EmergencyChangeRecord
	err := sess.Do(func(st *arrangement.Store, _ *workflow.Machine) error {
		var err error
		rec, err = st.ApplyEmergency(req)
		return err
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	rec.ArrangementID = sess.ID
	s.broadcast(ChannelArrangementChanged, ArrangementEvent{ArrangementID: sess.ID, Op: "emergency_" + string(rec.Kind)})
	s.broadcast(ChannelEmergencyApplied, ArrangementEvent{ArrangementID: sess.ID, Op: string(rec.Kind), Payload: rec})

	resp := EmergencyResponse{Record: rec}
	ctx := r.Context()
	date := sess.Document().Date

	if rec.Kind == arrangement.EmergencyRemoval && s.roster != nil && date != "" {
		if err := s.roster.MarkUnavailable(ctx, rec.MemberID, date, emergencyAbsenceReason); err != nil {
			s.logger.Warn("recording emergency absence failed", "member_id", rec.MemberID, "date", date, "error", err)
			resp.Warnings = append(resp.Warnings, "absence not recorded: "+err.Error())
		}
	}

	if doc, err := s.registry.Save(ctx, sess.ID); err != nil {
		s.logger.Warn("saving after emergency change failed", "id", sess.ID, "error", err)
		resp.Warnings = append(resp.Warnings, "arrangement not saved: "+err.Error())
	} else {
		resp.Saved = true
		s.broadcast(ChannelArrangementSaved, ArrangementEvent{ArrangementID: doc.ID, Op: "save", Version: doc.Version})
	}

	if s.publisher != nil {
		if err := s.publisher.NotifyEmergency(ctx, sess.ID, date, rec); err != nil {
			s.logger.Warn("emergency notification failed", "id", sess.ID, "error", err)
			resp.Warnings = append(resp.Warnings, "notification not sent: "+err.Error())
		} else {
			resp.Notified = true
		}
	}

	resp.Session = viewOf(sess)
	writeJSON(w, http.StatusOK, resp)
}

// handleEmergencyLog returns the applied emergency changes, oldest first.
func (s *Server) handleEmergencyLog(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var log []arrangement.EmergencyChangeRecord
	//nolint:errcheck // the callback never fails
	sess.Do(func(st *arrangement.Store, _ *workflow.Machine) error {
		log = st.EmergencyLog()
		return nil
	})
	if log == nil {
		log = []arrangement.EmergencyChangeRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"records": log,
		"count":   len(log),
	})
}
