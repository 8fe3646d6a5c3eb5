// Package services contains the business logic over the reminder stores:
// template CRUD with default seeding and delete cascade, and per-sphere
// assignment management.
package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/spherelog/spherelog/internal/model"
	"github.com/spherelog/spherelog/internal/store"
)

// TemplateService owns the reminder template list. State is held in
// memory and written through to the store on every mutation; write
// failures surface to the caller.
type TemplateService struct {
	mu        sync.RWMutex
	store     store.Store
	templates []model.Template

	onChange func()
	cascade  func(ctx context.Context, templateID string) error
}

// NewTemplateService constructs the service. Call Load before use.
func NewTemplateService(st store.Store) *TemplateService {
	return &TemplateService{store: st}
}

// SetOnChange registers a callback invoked after every successful
// mutation (wired to the scheduler's change notification).
func (s *TemplateService) SetOnChange(fn func()) { s.onChange = fn }

// SetCascade registers the cascade invoked when a template is deleted
// (wired to AssignmentService.RemoveTemplateRefs).
func (s *TemplateService) SetCascade(fn func(ctx context.Context, templateID string) error) {
	s.cascade = fn
}

// Load reads the template blob. A read failure falls back to an empty
// list; a store that has never been written gets the seeded default.
func (s *TemplateService) Load(ctx context.Context) error {
	tpls, err := s.store.LoadTemplates(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not load templates; starting empty")
		tpls = []model.Template{}
	} else if tpls == nil {
		// First run: seed the system default.
		seeded := seedTemplate()
		if err := s.store.SaveTemplates(ctx, []model.Template{seeded}); err != nil {
			return err
		}
		tpls = []model.Template{seeded}
		log.Info().Str("templateId", seeded.ID).Msg("seeded default reminder template")
	}

	s.mu.Lock()
	s.templates = tpls
	s.mu.Unlock()
	return nil
}

func seedTemplate() model.Template {
	days := 7
	return model.Template{
		ID:                uuid.New().String(),
		Name:              "Check in",
		FrequencyDays:     7,
		TimeOfDay:         "08:00",
		Condition:         model.ConditionNoRecent,
		NoRecentDays:      &days,
		DefaultForSpheres: []model.Sphere{model.SphereRelationships},
	}
}

// List returns a copy of all templates.
func (s *TemplateService) List() []model.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Template(nil), s.templates...)
}

// TemplateByID finds a template by id.
func (s *TemplateService) TemplateByID(id string) (model.Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.templates {
		if t.ID == id {
			return t, true
		}
	}
	return model.Template{}, false
}

// Add validates and stores a new template, assigning its id.
func (s *TemplateService) Add(ctx context.Context, tpl model.Template) (model.Template, error) {
	if err := validateTemplate(&tpl); err != nil {
		return model.Template{}, err
	}
	tpl.ID = uuid.New().String()

	s.mu.Lock()
	next := append(append([]model.Template(nil), s.templates...), tpl)
	if err := s.store.SaveTemplates(ctx, next); err != nil {
		s.mu.Unlock()
		return model.Template{}, err
	}
	s.templates = next
	s.mu.Unlock()

	s.notifyChange()
	return tpl, nil
}

// Update replaces a template by id (full replace).
func (s *TemplateService) Update(ctx context.Context, tpl model.Template) error {
	if tpl.ID == "" {
		return model.NewValidationError("id", "template id is required")
	}
	if err := validateTemplate(&tpl); err != nil {
		return err
	}

	s.mu.Lock()
	idx := -1
	for i, t := range s.templates {
		if t.ID == tpl.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return model.NewNotFoundError("id", "template not found")
	}
	next := append([]model.Template(nil), s.templates...)
	next[idx] = tpl
	if err := s.store.SaveTemplates(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.templates = next
	s.mu.Unlock()

	s.notifyChange()
	return nil
}

// Delete removes a template by id and cascades the deletion into the
// assignment map: the sphere defaults and template-referencing overrides
// that pointed at it are cleared. Inline custom overrides are untouched.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	next := make([]model.Template, 0, len(s.templates))
	found := false
	for _, t := range s.templates {
		if t.ID == id {
			found = true
			continue
		}
		next = append(next, t)
	}
	if !found {
		s.mu.Unlock()
		return model.NewNotFoundError("id", "template not found")
	}
	if err := s.store.SaveTemplates(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.templates = next
	s.mu.Unlock()

	if s.cascade != nil {
		if err := s.cascade(ctx, id); err != nil {
			return err
		}
	}
	s.notifyChange()
	return nil
}

func (s *TemplateService) notifyChange() {
	if s.onChange != nil {
		s.onChange()
	}
}

func validateTemplate(tpl *model.Template) error {
	if tpl.Name == "" {
		return model.NewValidationError("name", "name is required")
	}
	if tpl.FrequencyDays < 1 {
		return model.NewValidationError("frequencyDays", "must be at least 1")
	}
	if tpl.Condition == "" {
		tpl.Condition = model.ConditionNone
	}
	switch tpl.Condition {
	case model.ConditionNone, model.ConditionNoRecent, model.ConditionBelowAvgMoments,
		model.ConditionRelLessThanJob, model.ConditionRelLessThanFriends, model.ConditionRelNoRecent:
	default:
		return model.NewValidationError("condition", "unknown condition")
	}
	for _, sphere := range tpl.DefaultForSpheres {
		if !sphere.Valid() {
			return model.NewValidationError("defaultForSpheres", "unknown sphere")
		}
	}
	return nil
}
