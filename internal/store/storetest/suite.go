package storetest

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/spherelog/spherelog/internal/model"
	"github.com/spherelog/spherelog/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// makeStore should provide a clean, isolated store per invocation.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	// Empty reads return empty values, not errors.
	if tpls, err := s.LoadTemplates(ctx); err != nil || len(tpls) != 0 {
		t.Fatalf("LoadTemplates on empty store: n=%d err=%v", len(tpls), err)
	}
	if asgs, err := s.LoadAssignments(ctx); err != nil || len(asgs) != 0 {
		t.Fatalf("LoadAssignments on empty store: n=%d err=%v", len(asgs), err)
	}
	if key, err := s.LoadRescheduleKey(ctx); err != nil || key != "" {
		t.Fatalf("LoadRescheduleKey on empty store: key=%q err=%v", key, err)
	}

	// Templates round-trip, including optional fields.
	days := 14
	tpl := model.Template{
		ID:                uuid.New().String(),
		Name:              "Weekly check-in",
		FrequencyDays:     7,
		TimeOfDay:         "09:30",
		Condition:         model.ConditionNoRecent,
		NoRecentDays:      &days,
		DefaultForSpheres: []model.Sphere{model.SphereFriends},
	}
	if err := s.SaveTemplates(ctx, []model.Template{tpl}); err != nil {
		t.Fatalf("SaveTemplates: %v", err)
	}
	got, err := s.LoadTemplates(ctx)
	if err != nil || len(got) != 1 {
		t.Fatalf("LoadTemplates: n=%d err=%v", len(got), err)
	}
	if got[0].ID != tpl.ID || got[0].TimeOfDay != "09:30" || got[0].NoRecentDays == nil || *got[0].NoRecentDays != 14 {
		t.Fatalf("LoadTemplates: round-trip mismatch: %+v", got[0])
	}

	// Save overwrites, not appends.
	if err := s.SaveTemplates(ctx, nil); err != nil {
		t.Fatalf("SaveTemplates(nil): %v", err)
	}
	if got, err := s.LoadTemplates(ctx); err != nil || len(got) != 0 {
		t.Fatalf("LoadTemplates after clear: n=%d err=%v", len(got), err)
	}

	// Assignments round-trip with every choice kind.
	defID := tpl.ID
	asgs := model.AssignmentMap{
		model.SphereFriends: {
			DefaultTemplateID: &defID,
			Overrides: map[string]model.EntityChoice{
				"friend-1": {Kind: model.ChoiceTemplate, TemplateID: tpl.ID},
				"friend-2": {Kind: model.ChoiceNone},
				"friend-3": {Kind: model.ChoiceCustom, Template: &model.Template{
					Name: "Inline", FrequencyDays: 2, TimeOfDay: "20:00", Condition: model.ConditionNone,
				}},
			},
		},
	}
	if err := s.SaveAssignments(ctx, asgs); err != nil {
		t.Fatalf("SaveAssignments: %v", err)
	}
	loaded, err := s.LoadAssignments(ctx)
	if err != nil {
		t.Fatalf("LoadAssignments: %v", err)
	}
	fr := loaded[model.SphereFriends]
	if fr == nil || fr.DefaultTemplateID == nil || *fr.DefaultTemplateID != tpl.ID {
		t.Fatalf("LoadAssignments: default lost: %+v", fr)
	}
	if c := fr.Overrides["friend-3"]; c.Kind != model.ChoiceCustom || c.Template == nil || c.Template.TimeOfDay != "20:00" {
		t.Fatalf("LoadAssignments: custom override lost: %+v", c)
	}
	if c := fr.Overrides["friend-2"]; c.Kind != model.ChoiceNone {
		t.Fatalf("LoadAssignments: none override lost: %+v", c)
	}

	// Reschedule key round-trip and overwrite.
	if err := s.SaveRescheduleKey(ctx, "k1"); err != nil {
		t.Fatalf("SaveRescheduleKey: %v", err)
	}
	if err := s.SaveRescheduleKey(ctx, "k2"); err != nil {
		t.Fatalf("SaveRescheduleKey overwrite: %v", err)
	}
	if key, err := s.LoadRescheduleKey(ctx); err != nil || key != "k2" {
		t.Fatalf("LoadRescheduleKey: key=%q err=%v", key, err)
	}

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
