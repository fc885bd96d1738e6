package plan

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/taskmesh/logging"
)

// StoreOptions configure the plan store.
type StoreOptions struct {
	Logger logging.Logger
}

// Store is the in-memory plan store. Plans are keyed by id; one plan may be
// marked active so commands can omit the id. Store is safe for concurrent
// use, though orchestration assumes a single writer per plan id.
type Store struct {
	mu       sync.Mutex
	plans    map[string]*Plan
	activeID string
	logger   logging.Logger
}

// NewStore creates an empty plan store.
func NewStore(optFns ...func(o *StoreOptions)) *Store {
	opts := StoreOptions{Logger: logging.NewNoOpLogger()}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{
		plans:  make(map[string]*Plan),
		logger: opts.Logger,
	}
}

// Create adds a new plan and makes it the active plan. The id must be unused.
func (s *Store) Create(id, title string, steps []string) (*Plan, error) {
	if id == "" {
		return nil, fmt.Errorf("parameter `plan_id` is required for command: create")
	}
	if title == "" {
		return nil, fmt.Errorf("parameter `title` is required for command: create")
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("parameter `steps` must be a non-empty list of strings for command: create")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[id]; exists {
		return nil, fmt.Errorf("a plan with ID %s already exists. Use 'update' to modify existing plans", id)
	}

	p := NewPlan(id, title, steps)
	s.plans[id] = p
	s.activeID = id

	s.logger.Info("plan.created", "plan_id", id, "steps", len(steps))

	return p.Clone(), nil
}

// Update replaces the title and/or steps of an existing plan. Steps that keep
// their text at the same position retain their status and notes; all other
// positions reset to not_started.
func (s *Store) Update(id, title string, steps []string) (*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	if title != "" {
		p.Title = title
	}

	if len(steps) > 0 {
		newStatuses := make([]StepStatus, len(steps))
		newNotes := make([]string, len(steps))
		for i, step := range steps {
			if i < len(p.Steps) && step == p.Steps[i] {
				newStatuses[i] = p.Statuses[i]
				newNotes[i] = p.Notes[i]
			} else {
				newStatuses[i] = StatusNotStarted
			}
		}
		p.Steps = append([]string(nil), steps...)
		p.Statuses = newStatuses
		p.Notes = newNotes
	}

	p.normalize()
	return p.Clone(), nil
}

// Get returns a copy of the plan with the given id, or the active plan when
// id is empty.
func (s *Store) Get(id string) (*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	p.normalize()
	return p.Clone(), nil
}

// List renders a one-line summary per plan, the active plan flagged.
func (s *Store) List() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.plans) == 0 {
		return "No plans available. Create a plan with the 'create' command."
	}

	ids := make([]string, 0, len(s.plans))
	for id := range s.plans {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("Available plans:\n")
	for _, id := range ids {
		p := s.plans[id]
		marker := ""
		if id == s.activeID {
			marker = " (active)"
		}
		b.WriteString(fmt.Sprintf("• %s%s: %s - %d/%d steps completed\n",
			id, marker, p.Title, p.CountByStatus(StatusCompleted), len(p.Steps)))
	}
	return b.String()
}

// SetActive marks the plan with the given id as the active plan.
func (s *Store) SetActive(id string) error {
	if id == "" {
		return fmt.Errorf("parameter `plan_id` is required for command: set_active")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[id]; !exists {
		return fmt.Errorf("no plan found with ID: %s", id)
	}
	s.activeID = id
	return nil
}

// MarkStep sets the status and/or notes of a single step. An empty status
// leaves the current status in place (notes-only update).
func (s *Store) MarkStep(id string, stepIndex int, status StepStatus, notes string) (*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	p.normalize()

	if stepIndex < 0 || stepIndex >= len(p.Steps) {
		return nil, fmt.Errorf("invalid step_index: %d. Valid indices range from 0 to %d", stepIndex, len(p.Steps)-1)
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("invalid step_status: %s. Valid statuses are: not_started, in_progress, completed, blocked", status)
	}

	if status != "" {
		p.Statuses[stepIndex] = status
	}
	if notes != "" {
		p.Notes[stepIndex] = notes
	}

	s.logger.Debug("plan.step_marked", "plan_id", p.ID, "step_index", stepIndex, "status", string(status))

	return p.Clone(), nil
}

// Delete removes a plan. Deleting the active plan clears the active marker.
func (s *Store) Delete(id string) error {
	if id == "" {
		return fmt.Errorf("parameter `plan_id` is required for command: delete")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[id]; !exists {
		return fmt.Errorf("no plan found with ID: %s", id)
	}
	delete(s.plans, id)
	if s.activeID == id {
		s.activeID = ""
	}
	return nil
}

// Format renders the plan with the given id (or the active plan when id is
// empty) as display text.
func (s *Store) Format(id string) (string, error) {
	p, err := s.Get(id)
	if err != nil {
		return "", err
	}
	return p.Format(), nil
}

// ActiveID returns the id of the active plan, or empty when none is set.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// lookup resolves an id (falling back to the active plan) to its stored plan.
// Callers must hold s.mu.
func (s *Store) lookup(id string) (*Plan, error) {
	if id == "" {
		if s.activeID == "" {
			return nil, fmt.Errorf("no active plan. Please specify a plan_id or set an active plan")
		}
		id = s.activeID
	}
	p, exists := s.plans[id]
	if !exists {
		return nil, fmt.Errorf("no plan found with ID: %s", id)
	}
	return p, nil
}
