package reminder

import (
	"testing"

	"github.com/spherelog/spherelog/internal/model"
)

type fakeTemplates map[string]model.Template

func (f fakeTemplates) TemplateByID(id string) (model.Template, bool) {
	t, ok := f[id]
	return t, ok
}

type fakeAssignments map[model.Sphere]model.SphereAssignment

func (f fakeAssignments) Assignment(sphere model.Sphere) model.SphereAssignment {
	if asg, ok := f[sphere]; ok {
		return asg
	}
	return model.SphereAssignment{Overrides: map[string]model.EntityChoice{}}
}

func TestResolver_NoOverrideMeansDisabled(t *testing.T) {
	// The sphere default is set but must NOT be used as a fallback.
	defID := "tpl-1"
	tpls := fakeTemplates{"tpl-1": {ID: "tpl-1", Name: "Default"}}
	asgs := fakeAssignments{
		model.SphereFriends: {
			DefaultTemplateID: &defID,
			Overrides:         map[string]model.EntityChoice{},
		},
	}

	r := NewResolver(tpls, asgs)
	if _, ok := r.Resolve(model.SphereFriends, "friend-1"); ok {
		t.Fatal("entity without override resolved to a template; want disabled")
	}
}

func TestResolver_ExplicitNone(t *testing.T) {
	tpls := fakeTemplates{}
	asgs := fakeAssignments{
		model.SphereFamily: {
			Overrides: map[string]model.EntityChoice{
				"mom": {Kind: model.ChoiceNone},
			},
		},
	}

	r := NewResolver(tpls, asgs)
	if _, ok := r.Resolve(model.SphereFamily, "mom"); ok {
		t.Fatal("explicit none resolved to a template; want disabled")
	}
}

func TestResolver_NamedTemplate(t *testing.T) {
	tpls := fakeTemplates{"tpl-1": {ID: "tpl-1", Name: "Weekly", FrequencyDays: 7}}
	asgs := fakeAssignments{
		model.SphereFriends: {
			Overrides: map[string]model.EntityChoice{
				"friend-1": {Kind: model.ChoiceTemplate, TemplateID: "tpl-1"},
			},
		},
	}

	r := NewResolver(tpls, asgs)
	tpl, ok := r.Resolve(model.SphereFriends, "friend-1")
	if !ok || tpl.ID != "tpl-1" {
		t.Fatalf("Resolve = (%+v, %v), want tpl-1", tpl, ok)
	}
}

func TestResolver_DeletedTemplateMeansDisabled(t *testing.T) {
	tpls := fakeTemplates{} // template was deleted
	asgs := fakeAssignments{
		model.SphereFriends: {
			Overrides: map[string]model.EntityChoice{
				"friend-1": {Kind: model.ChoiceTemplate, TemplateID: "gone"},
			},
		},
	}

	r := NewResolver(tpls, asgs)
	if _, ok := r.Resolve(model.SphereFriends, "friend-1"); ok {
		t.Fatal("dangling template reference resolved; want disabled")
	}
}

func TestResolver_CustomInlineTemplate(t *testing.T) {
	tpls := fakeTemplates{}
	asgs := fakeAssignments{
		model.SphereRelationships: {
			Overrides: map[string]model.EntityChoice{
				"partner-1": {Kind: model.ChoiceCustom, Template: &model.Template{
					Name: "Just us", FrequencyDays: 2, TimeOfDay: "21:00", Condition: model.ConditionNone,
				}},
			},
		},
	}

	r := NewResolver(tpls, asgs)
	tpl, ok := r.Resolve(model.SphereRelationships, "partner-1")
	if !ok || tpl.Name != "Just us" || tpl.FrequencyDays != 2 {
		t.Fatalf("Resolve = (%+v, %v), want inline template", tpl, ok)
	}
}

func TestResolver_UnknownChoiceKind(t *testing.T) {
	tpls := fakeTemplates{}
	asgs := fakeAssignments{
		model.SphereFriends: {
			Overrides: map[string]model.EntityChoice{
				"friend-1": {Kind: "mystery"},
			},
		},
	}

	r := NewResolver(tpls, asgs)
	if _, ok := r.Resolve(model.SphereFriends, "friend-1"); ok {
		t.Fatal("unknown choice kind resolved; want disabled")
	}
}
