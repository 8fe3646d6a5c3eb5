package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/spherelog/spherelog/internal/model"
	"github.com/spherelog/spherelog/internal/store"
)

// AssignmentService owns the per-sphere assignment map: the informational
// sphere default plus per-entity overrides. Mutations write through to
// the store and propagate write errors.
type AssignmentService struct {
	mu          sync.RWMutex
	store       store.Store
	assignments model.AssignmentMap

	onChange  func()
	onDisable func(ctx context.Context, sphere model.Sphere, entityID string)
}

// NewAssignmentService constructs the service. Call Load before use.
func NewAssignmentService(st store.Store) *AssignmentService {
	return &AssignmentService{store: st, assignments: model.AssignmentMap{}}
}

// SetOnChange registers a callback invoked after every successful mutation.
func (s *AssignmentService) SetOnChange(fn func()) { s.onChange = fn }

// SetOnDisable registers the hook invoked when an entity's reminders are
// explicitly turned off (wired to the scheduler's entity-scoped cancel).
func (s *AssignmentService) SetOnDisable(fn func(ctx context.Context, sphere model.Sphere, entityID string)) {
	s.onDisable = fn
}

// Load reads the assignment blob; read failures fall back to empty.
func (s *AssignmentService) Load(ctx context.Context) error {
	asgs, err := s.store.LoadAssignments(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not load assignments; starting empty")
		asgs = model.AssignmentMap{}
	}
	if asgs == nil {
		asgs = model.AssignmentMap{}
	}

	s.mu.Lock()
	s.assignments = asgs
	s.mu.Unlock()
	return nil
}

// Map returns a deep copy of the full assignment map.
func (s *AssignmentService) Map() model.AssignmentMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assignments.Clone()
}

// Assignment returns the assignment for one sphere, empty if none is
// stored.
func (s *AssignmentService) Assignment(sphere model.Sphere) model.SphereAssignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if asg := s.assignments[sphere]; asg != nil {
		cloned := model.AssignmentMap{sphere: asg}.Clone()
		return *cloned[sphere]
	}
	return model.SphereAssignment{Overrides: map[string]model.EntityChoice{}}
}

// SetDefault sets or clears a sphere's default template. The default is
// informational: the resolver never falls back to it.
func (s *AssignmentService) SetDefault(ctx context.Context, sphere model.Sphere, templateID *string) error {
	if !sphere.Valid() {
		return model.NewValidationError("sphere", "unknown sphere")
	}

	s.mu.Lock()
	next := s.assignments.Clone()
	asg := ensureSphere(next, sphere)
	asg.DefaultTemplateID = templateID
	if err := s.store.SaveAssignments(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.assignments = next
	s.mu.Unlock()

	s.notifyChange()
	return nil
}

// SetChoice records an entity's notification choice. Setting the "none"
// kind additionally triggers immediate entity-scoped cancellation.
func (s *AssignmentService) SetChoice(ctx context.Context, sphere model.Sphere, entityID string, choice model.EntityChoice) error {
	if !sphere.Valid() {
		return model.NewValidationError("sphere", "unknown sphere")
	}
	if entityID == "" {
		return model.NewValidationError("entityId", "entity id is required")
	}
	switch choice.Kind {
	case model.ChoiceTemplate:
		if choice.TemplateID == "" {
			return model.NewValidationError("templateId", "template id is required")
		}
		choice.Template = nil
	case model.ChoiceCustom:
		if choice.Template == nil {
			return model.NewValidationError("template", "inline template is required")
		}
		if err := validateTemplate(choice.Template); err != nil {
			return err
		}
		choice.TemplateID = ""
	case model.ChoiceNone:
		choice.TemplateID = ""
		choice.Template = nil
	default:
		return model.NewValidationError("kind", "unknown choice kind")
	}

	s.mu.Lock()
	next := s.assignments.Clone()
	asg := ensureSphere(next, sphere)
	asg.Overrides[entityID] = choice
	if err := s.store.SaveAssignments(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.assignments = next
	s.mu.Unlock()

	if choice.Kind == model.ChoiceNone && s.onDisable != nil {
		s.onDisable(ctx, sphere, entityID)
	}
	s.notifyChange()
	return nil
}

// RemoveChoice deletes an entity's override. For scheduling this is
// equivalent to an explicit "none": reminders are opt-in per entity.
func (s *AssignmentService) RemoveChoice(ctx context.Context, sphere model.Sphere, entityID string) error {
	if !sphere.Valid() {
		return model.NewValidationError("sphere", "unknown sphere")
	}

	s.mu.Lock()
	next := s.assignments.Clone()
	asg := next[sphere]
	if asg == nil {
		s.mu.Unlock()
		return nil
	}
	if _, ok := asg.Overrides[entityID]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(asg.Overrides, entityID)
	if err := s.store.SaveAssignments(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.assignments = next
	s.mu.Unlock()

	if s.onDisable != nil {
		s.onDisable(ctx, sphere, entityID)
	}
	s.notifyChange()
	return nil
}

// RemoveTemplateRefs is the delete cascade for a template: sphere
// defaults pointing at it are cleared and overrides referencing it by id
// are removed. Inline custom overrides don't reference template ids and
// are left alone.
func (s *AssignmentService) RemoveTemplateRefs(ctx context.Context, templateID string) error {
	s.mu.Lock()
	next := s.assignments.Clone()
	changed := false
	for _, asg := range next {
		if asg.DefaultTemplateID != nil && *asg.DefaultTemplateID == templateID {
			asg.DefaultTemplateID = nil
			changed = true
		}
		for entityID, choice := range asg.Overrides {
			if choice.Kind == model.ChoiceTemplate && choice.TemplateID == templateID {
				delete(asg.Overrides, entityID)
				changed = true
			}
		}
	}
	if !changed {
		s.mu.Unlock()
		return nil
	}
	if err := s.store.SaveAssignments(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.assignments = next
	s.mu.Unlock()

	s.notifyChange()
	return nil
}

func (s *AssignmentService) notifyChange() {
	if s.onChange != nil {
		s.onChange()
	}
}

func ensureSphere(m model.AssignmentMap, sphere model.Sphere) *model.SphereAssignment {
	if asg := m[sphere]; asg != nil {
		if asg.Overrides == nil {
			asg.Overrides = map[string]model.EntityChoice{}
		}
		return asg
	}
	asg := &model.SphereAssignment{Overrides: map[string]model.EntityChoice{}}
	m[sphere] = asg
	return asg
}
