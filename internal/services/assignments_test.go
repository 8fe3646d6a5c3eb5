package services

import (
	"context"
	"testing"

	"github.com/spherelog/spherelog/internal/model"
)

func newAssignmentFixture(t *testing.T) (*fakeStore, *AssignmentService) {
	t.Helper()
	st := &fakeStore{}
	svc := NewAssignmentService(st)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return st, svc
}

func TestAssignmentService_SetChoiceRoundTrip(t *testing.T) {
	_, svc := newAssignmentFixture(t)
	ctx := context.Background()

	if err := svc.SetChoice(ctx, model.SphereFamily, "mom", model.EntityChoice{
		Kind: model.ChoiceTemplate, TemplateID: "t1",
	}); err != nil {
		t.Fatalf("set choice: %v", err)
	}

	asg := svc.Assignment(model.SphereFamily)
	choice, ok := asg.Overrides["mom"]
	if !ok || choice.Kind != model.ChoiceTemplate || choice.TemplateID != "t1" {
		t.Fatalf("choice = %+v ok=%v", choice, ok)
	}
}

func TestAssignmentService_SetChoiceValidation(t *testing.T) {
	_, svc := newAssignmentFixture(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		sphere model.Sphere
		entity string
		choice model.EntityChoice
	}{
		{"bad sphere", "aura", "e1", model.EntityChoice{Kind: model.ChoiceNone}},
		{"missing entity", model.SphereFriends, "", model.EntityChoice{Kind: model.ChoiceNone}},
		{"template kind without id", model.SphereFriends, "e1", model.EntityChoice{Kind: model.ChoiceTemplate}},
		{"custom kind without template", model.SphereFriends, "e1", model.EntityChoice{Kind: model.ChoiceCustom}},
		{"invalid inline template", model.SphereFriends, "e1", model.EntityChoice{
			Kind: model.ChoiceCustom, Template: &model.Template{FrequencyDays: 1},
		}},
		{"unknown kind", model.SphereFriends, "e1", model.EntityChoice{Kind: "maybe"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.SetChoice(ctx, tc.sphere, tc.entity, tc.choice)
			if !model.IsValidationError(err) {
				t.Fatalf("err = %v, want validation error", err)
			}
		})
	}
}

func TestAssignmentService_SetChoiceNormalizesFields(t *testing.T) {
	// A template choice drops any stray inline template, and a custom
	// choice drops any stray template id.
	_, svc := newAssignmentFixture(t)
	ctx := context.Background()

	if err := svc.SetChoice(ctx, model.SphereFriends, "f1", model.EntityChoice{
		Kind: model.ChoiceTemplate, TemplateID: "t1",
		Template: &model.Template{Name: "Stray", FrequencyDays: 1},
	}); err != nil {
		t.Fatalf("set choice: %v", err)
	}
	if choice := svc.Assignment(model.SphereFriends).Overrides["f1"]; choice.Template != nil {
		t.Fatal("template choice kept an inline template")
	}

	if err := svc.SetChoice(ctx, model.SphereFriends, "f1", model.EntityChoice{
		Kind: model.ChoiceCustom, TemplateID: "t1",
		Template: &model.Template{Name: "Inline", FrequencyDays: 1},
	}); err != nil {
		t.Fatalf("set custom choice: %v", err)
	}
	if choice := svc.Assignment(model.SphereFriends).Overrides["f1"]; choice.TemplateID != "" {
		t.Fatal("custom choice kept a template id")
	}
}

func TestAssignmentService_NoneTriggersDisableHook(t *testing.T) {
	_, svc := newAssignmentFixture(t)
	ctx := context.Background()

	var disabled []string
	svc.SetOnDisable(func(ctx context.Context, sphere model.Sphere, entityID string) {
		disabled = append(disabled, string(sphere)+"/"+entityID)
	})

	if err := svc.SetChoice(ctx, model.SphereFriends, "f1", model.EntityChoice{
		Kind: model.ChoiceTemplate, TemplateID: "t1",
	}); err != nil {
		t.Fatalf("set choice: %v", err)
	}
	if len(disabled) != 0 {
		t.Fatal("a template choice triggered the disable hook")
	}

	if err := svc.SetChoice(ctx, model.SphereFriends, "f1", model.EntityChoice{Kind: model.ChoiceNone}); err != nil {
		t.Fatalf("set none: %v", err)
	}
	if len(disabled) != 1 || disabled[0] != "friends/f1" {
		t.Fatalf("disabled = %v, want [friends/f1]", disabled)
	}
}

func TestAssignmentService_RemoveChoiceActsAsNone(t *testing.T) {
	_, svc := newAssignmentFixture(t)
	ctx := context.Background()

	var disabled int
	svc.SetOnDisable(func(context.Context, model.Sphere, string) { disabled++ })

	if err := svc.SetChoice(ctx, model.SphereFamily, "mom", model.EntityChoice{
		Kind: model.ChoiceTemplate, TemplateID: "t1",
	}); err != nil {
		t.Fatalf("set choice: %v", err)
	}
	if err := svc.RemoveChoice(ctx, model.SphereFamily, "mom"); err != nil {
		t.Fatalf("remove choice: %v", err)
	}

	if _, ok := svc.Assignment(model.SphereFamily).Overrides["mom"]; ok {
		t.Fatal("override survived removal")
	}
	if disabled != 1 {
		t.Fatalf("disable hook fired %d times, want 1", disabled)
	}

	// Removing an absent override is a no-op, hook included.
	if err := svc.RemoveChoice(ctx, model.SphereFamily, "mom"); err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if disabled != 1 {
		t.Fatalf("no-op removal fired the disable hook")
	}
}

func TestAssignmentService_SetDefault(t *testing.T) {
	st, svc := newAssignmentFixture(t)
	ctx := context.Background()

	id := "t1"
	if err := svc.SetDefault(ctx, model.SphereRelationships, &id); err != nil {
		t.Fatalf("set default: %v", err)
	}
	asg := svc.Assignment(model.SphereRelationships)
	if asg.DefaultTemplateID == nil || *asg.DefaultTemplateID != "t1" {
		t.Fatalf("default = %v", asg.DefaultTemplateID)
	}
	if st.assignments[model.SphereRelationships] == nil {
		t.Fatal("default was not persisted")
	}

	if err := svc.SetDefault(ctx, model.SphereRelationships, nil); err != nil {
		t.Fatalf("clear default: %v", err)
	}
	if svc.Assignment(model.SphereRelationships).DefaultTemplateID != nil {
		t.Fatal("default not cleared")
	}
}

func TestAssignmentService_WriteFailureKeepsState(t *testing.T) {
	st, svc := newAssignmentFixture(t)
	ctx := context.Background()

	st.failWrites = true
	err := svc.SetChoice(ctx, model.SphereFriends, "f1", model.EntityChoice{
		Kind: model.ChoiceTemplate, TemplateID: "t1",
	})
	if err == nil {
		t.Fatal("write failure did not surface")
	}
	if _, ok := svc.Assignment(model.SphereFriends).Overrides["f1"]; ok {
		t.Fatal("failed write still mutated in-memory state")
	}
}

func TestAssignmentService_MapReturnsDeepCopy(t *testing.T) {
	_, svc := newAssignmentFixture(t)
	ctx := context.Background()

	if err := svc.SetChoice(ctx, model.SphereFriends, "f1", model.EntityChoice{
		Kind: model.ChoiceTemplate, TemplateID: "t1",
	}); err != nil {
		t.Fatalf("set choice: %v", err)
	}

	m := svc.Map()
	delete(m[model.SphereFriends].Overrides, "f1")
	if _, ok := svc.Assignment(model.SphereFriends).Overrides["f1"]; !ok {
		t.Fatal("mutating the returned map leaked into service state")
	}
}
