package arrangement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nerrad567/seatplan-core/internal/seating"
	"github.com/nerrad567/seatplan-core/internal/workflow"
)

// Session is one open arrangement: its store, its workflow machine and the
// metadata of the document it was loaded from.
//
// Store and Machine are not safe for concurrent use; all access goes
// through Do.
type Session struct {
	ID string

	mu        sync.Mutex
	doc       *Document
	store     *Store
	machine   *workflow.Machine
	persisted int // emergency records already written to the repository
}

// Do runs fn with exclusive access to the session's store and machine.
func (s *Session) Do(fn func(st *Store, m *workflow.Machine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.store, s.machine)
}

// Document returns the current content of the session as a document.
func (s *Session) Document() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.documentLocked()
}

func (s *Session) documentLocked() *Document {
	doc := NewDocument(s.doc.ID, s.doc.Name, s.doc.Date, s.store.Snapshot(), s.machine.State())
	doc.Baseline = s.store.Baseline()
	doc.Version = s.doc.Version
	doc.CreatedAt = s.doc.CreatedAt
	doc.UpdatedAt = s.doc.UpdatedAt
	return doc
}

// Registry tracks open sessions over a Repository.
//
// All public methods are thread-safe.
type Registry struct {
	repo       Repository
	storeOpts  []StoreOption
	attendance AttendanceService

	mu       sync.RWMutex
	sessions map[string]*Session

	logger  Logger
	metrics *Metrics
}

// NewRegistry creates a session registry. storeOpts apply to every store the
// registry builds.
func NewRegistry(repo Repository, storeOpts ...StoreOption) *Registry {
	return &Registry{
		repo:      repo,
		storeOpts: storeOpts,
		sessions:  make(map[string]*Session),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// SetMetrics attaches Prometheus collectors.
func (r *Registry) SetMetrics(m *Metrics) {
	r.metrics = m
}

// SetAttendance sets the service used to drop unavailable members when a
// stored arrangement is opened.
func (r *Registry) SetAttendance(att AttendanceService) {
	r.attendance = att
}

// Create stores a new empty arrangement and opens a session for it.
func (r *Registry) Create(ctx context.Context, name, date string, layout seating.GridLayout) (*Session, error) {
	doc := &Document{
		Name:     name,
		Date:     date,
		Layout:   layout.Clone(),
		Workflow: workflow.NewMachine(nil).State(),
		Baseline: Baseline{Layout: layout.Clone()},
	}
	if err := r.repo.Save(ctx, doc); err != nil {
		return nil, err
	}
	sess := r.newSession(doc, State{Layout: doc.Layout.Clone()})
	r.add(sess)
	r.logger.Info("arrangement created", "id", doc.ID, "name", doc.Name)
	return sess, nil
}

// Open returns the session for id, loading the arrangement from the
// repository when it is not open yet.
func (r *Registry) Open(ctx context.Context, id string) (*Session, error) {
	if sess, err := r.Get(id); err == nil {
		return sess, nil
	}

	doc, err := r.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	list := doc.Assignments
	baseline := doc.Baseline.Clone()
	if r.attendance != nil && doc.Date != "" {
		date, err := time.Parse(time.DateOnly, doc.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: date %q", ErrInvalidDocument, doc.Date)
		}
		if list, err = FilterAvailable(ctx, r.attendance, date, list); err != nil {
			return nil, err
		}
		if baseline.Placement != nil {
			placed, err := FilterAvailable(ctx, r.attendance, date, baseline.Placement.Assignments)
			if err != nil {
				return nil, err
			}
			baseline.Placement.Assignments = placed
		}
	}
	byKey, _ := seating.FromList(list)
	sess := r.newSession(doc, State{Layout: doc.Layout.Clone(), Assignments: byKey})
	sess.store.restoreBaseline(baseline)
	if doc.Workflow.CurrentStep != 0 {
		if err := sess.machine.Restore(doc.Workflow); err != nil {
			return nil, fmt.Errorf("restoring workflow of %s: %w", id, err)
		}
	}
	records, err := r.repo.ListEmergencyRecords(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.store.emergencyLog = records
	sess.persisted = len(records)

	r.mu.Lock()
	if existing, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	r.sessions[id] = sess
	n := len(r.sessions)
	r.mu.Unlock()
	r.metrics.setSessions(n)

	r.logger.Info("arrangement opened", "id", id, "seated", len(byKey), "dropped", len(doc.Assignments)-len(byKey))
	return sess, nil
}

// Get returns an open session.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// List returns the IDs of open sessions, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Save writes the session to the repository along with any emergency
// records applied since the last save. ErrVersionConflict leaves the
// session untouched.
func (r *Registry) Save(ctx context.Context, id string) (*Document, error) {
	sess, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	doc := sess.documentLocked()
	if err := r.repo.Save(ctx, doc); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			r.logger.Warn("arrangement save conflict", "id", id, "version", sess.doc.Version)
		}
		return nil, err
	}
	sess.doc.Version = doc.Version
	sess.doc.UpdatedAt = doc.UpdatedAt

	log := sess.store.emergencyLog
	for i := sess.persisted; i < len(log); i++ {
		rec := log[i]
		rec.ArrangementID = id
		if err := r.repo.AppendEmergencyRecord(ctx, rec); err != nil {
			return nil, fmt.Errorf("saving emergency record %s: %w", rec.ID, err)
		}
		sess.persisted = i + 1
	}

	r.logger.Debug("arrangement saved", "id", id, "version", doc.Version)
	return doc.DeepCopy(), nil
}

// Close drops an open session without saving it.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	if _, ok := r.sessions[id]; !ok {
		r.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()

	r.metrics.setSessions(n)
	r.logger.Info("arrangement closed", "id", id)
	return nil
}

// Delete closes the session, if open, and removes the stored arrangement.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = r.Close(id) //nolint:errcheck // ErrSessionNotFound when the arrangement was not open
	return nil
}

func (r *Registry) newSession(doc *Document, st State) *Session {
	store := NewStore(doc.Layout, append([]StoreOption{WithLogger(r.logger), WithMetrics(r.metrics)}, r.storeOpts...)...)
	store.load(st)
	return &Session{
		ID:      doc.ID,
		doc:     doc.DeepCopy(),
		store:   store,
		machine: workflow.NewMachine(store),
	}
}

func (r *Registry) add(sess *Session) {
	r.mu.Lock()
	r.sessions[sess.ID] = sess
	n := len(r.sessions)
	r.mu.Unlock()
	r.metrics.setSessions(n)
}
