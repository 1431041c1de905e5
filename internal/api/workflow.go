package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/seatplan-core/internal/arrangement"
	"github.com/nerrad567/seatplan-core/internal/workflow"
)

// StepRequest names one workflow step (1-7).
type StepRequest struct {
	Step workflow.Step `json:"step"`
}

// ShareRequest is the body of POST /arrangements/{id}/share.
type ShareRequest struct {
	Recipients []string `json:"recipients"`
	Note       string   `json:"note,omitempty"`
}

// StepView describes one step as a step indicator renders it.
type StepView struct {
	Step       workflow.Step `json:"step"`
	Name       string        `json:"name"`
	Optional   bool          `json:"optional"`
	Completed  bool          `json:"completed"`
	Accessible bool          `json:"accessible"`
}

// WorkflowView is the machine state plus per-step gating.
type WorkflowView struct {
	State workflow.State `json:"state"`
	Steps []StepView     `json:"steps"`
}

func workflowOf(m *workflow.Machine) WorkflowView {
	v := WorkflowView{State: m.State(), Steps: make([]StepView, 0, workflow.StepCount)}
	for step := workflow.StepCapacity; step <= workflow.StepPublish; step++ {
		v.Steps = append(v.Steps, StepView{
			Step:       step,
			Name:       step.String(),
			Optional:   step.Optional(),
			Completed:  m.IsCompleted(step),
			Accessible: m.CanAccessStep(step),
		})
	}
	return v
}

// handleGetWorkflow returns the workflow state of an open arrangement.
func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var v WorkflowView
	//nolint:errcheck // the callback never fails
	sess.Do(func(_ *arrangement.Store, m *workflow.Machine) error {
		v = workflowOf(m)
		return nil
	})
	writeJSON(w, http.StatusOK, v)
}

// handleGoToStep moves to a step if the gate allows it.
func (s *Server) handleGoToStep(w http.ResponseWriter, r *http.Request) {
	var req StepRequest
	if !decode(w, r, &req) {
		return
	}
	s.mutate(w, r, "workflow_goto", func(_ *arrangement.Store, m *workflow.Machine) (bool, any, error) {
		if err := m.GoToStep(req.Step); err != nil {
			return false, nil, err
		}
		return true, workflowOf(m), nil
	})
}

// handleCompleteStep marks a step complete and checkpoints its output.
func (s *Server) handleCompleteStep(w http.ResponseWriter, r *http.Request) {
	var req StepRequest
	if !decode(w, r, &req) {
		return
	}
	s.mutate(w, r, "workflow_complete", func(_ *arrangement.Store, m *workflow.Machine) (bool, any, error) {
		if err := m.CompleteStep(req.Step); err != nil {
			return false, nil, err
		}
		return true, workflowOf(m), nil
	})
}

// handleResetStep clears the output of one completed step.
func (s *Server) handleResetStep(w http.ResponseWriter, r *http.Request) {
	var req StepRequest
	if !decode(w, r, &req) {
		return
	}
	s.mutate(w, r, "workflow_reset", func(_ *arrangement.Store, m *workflow.Machine) (bool, any, error) {
		if err := m.ResetCurrentStepOnly(req.Step); err != nil {
			return false, nil, err
		}
		return true, workflowOf(m), nil
	})
}

// handleResetAll returns the arrangement and workflow to step 1.
func (s *Server) handleResetAll(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "workflow_reset_all", func(_ *arrangement.Store, m *workflow.Machine) (bool, any, error) {
		m.ResetAll()
		return true, workflowOf(m), nil
	})
}

// handleToggleWizard switches between wizard and free-edit mode.
func (s *Server) handleToggleWizard(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "workflow_toggle_wizard", func(_ *arrangement.Store, m *workflow.Machine) (bool, any, error) {
		m.ToggleWizardMode()
		return true, workflowOf(m), nil
	})
}

// handleToggleSection expands or collapses one step section.
func (s *Server) handleToggleSection(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err != nil {
		writeBadRequest(w, "step must be an integer")
		return
	}
	s.mutate(w, r, "workflow_toggle_section", func(_ *arrangement.Store, m *workflow.Machine) (bool, any, error) {
		if err := m.ToggleSection(workflow.Step(n)); err != nil {
			return false, nil, err
		}
		return true, workflowOf(m), nil
	})
}

// enterPublishStep checks the publish gate, optionally completes the step,
// and saves the arrangement.
func (s *Server) enterPublishStep(r *http.Request, sess *arrangement.Session, complete bool) (*arrangement.Document, error) {
	err := sess.Do(func(_ *arrangement.Store, m *workflow.Machine) error {
		if !m.CanAccessStep(workflow.StepPublish) {
			return fmt.Errorf("%w: %s", workflow.ErrStepLocked, workflow.StepPublish)
		}
		if complete {
			return m.CompleteStep(workflow.StepPublish)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.registry.Save(r.Context(), sess.ID)
}

// handlePublish completes step 7, saves the arrangement and publishes it.
// A failed publication leaves the saved arrangement in place.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		writeUnavailable(w, "publishing not configured")
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	doc, err := s.enterPublishStep(r, sess, true)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := s.publisher.PublishArrangement(r.Context(), doc); err != nil {
		s.logger.Warn("arrangement saved but not published", "id", doc.ID, "version", doc.Version, "error", err)
		s.writeDomainError(w, r, err)
		return
	}

	s.logger.Info("arrangement published", "id", doc.ID, "version", doc.Version)
	s.broadcast(ChannelArrangementPublished, ArrangementEvent{ArrangementID: doc.ID, Op: "publish", Version: doc.Version})
	writeJSON(w, http.StatusOK, map[string]any{
		"published": true,
		"document":  doc,
	})
}

// handleShare saves the arrangement and asks downstream services to send it
// to the given recipients.
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		writeUnavailable(w, "publishing not configured")
		return
	}
	var req ShareRequest
	if !decode(w, r, &req) {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	doc, err := s.enterPublishStep(r, sess, false)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := s.publisher.ShareArrangement(r.Context(), doc, req.Recipients, req.Note); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"shared":     true,
		"recipients": len(req.Recipients),
		"version":    doc.Version,
	})
}
