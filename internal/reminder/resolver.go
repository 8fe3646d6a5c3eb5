package reminder

import "github.com/spherelog/spherelog/internal/model"

// TemplateLookup finds named templates by id.
type TemplateLookup interface {
	TemplateByID(id string) (model.Template, bool)
}

// AssignmentLookup returns the current assignment for a sphere. A sphere
// with no stored assignment yields an empty SphereAssignment.
type AssignmentLookup interface {
	Assignment(sphere model.Sphere) model.SphereAssignment
}

// Resolver computes the effective reminder template for an entity.
// Reminders are opt-in per entity: the sphere default template is never
// consulted here, only explicit overrides. Pure function of current state.
type Resolver struct {
	templates   TemplateLookup
	assignments AssignmentLookup
}

// NewResolver constructs a Resolver.
func NewResolver(templates TemplateLookup, assignments AssignmentLookup) *Resolver {
	return &Resolver{templates: templates, assignments: assignments}
}

// Resolve returns the effective template for (sphere, entityID), or
// ok=false when reminders are disabled for the entity: no override,
// an explicit "none" choice, or a dangling reference to a deleted
// template.
func (r *Resolver) Resolve(sphere model.Sphere, entityID string) (model.Template, bool) {
	asg := r.assignments.Assignment(sphere)
	choice, ok := asg.Overrides[entityID]
	if !ok {
		return model.Template{}, false
	}

	switch choice.Kind {
	case model.ChoiceNone:
		return model.Template{}, false
	case model.ChoiceCustom:
		if choice.Template == nil {
			return model.Template{}, false
		}
		return *choice.Template, true
	case model.ChoiceTemplate:
		return r.templates.TemplateByID(choice.TemplateID)
	default:
		return model.Template{}, false
	}
}
