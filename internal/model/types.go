package model

import "time"

// Sphere is one of the five fixed life categories an entity or memory
// belongs to.
type Sphere string

const (
	SphereRelationships Sphere = "relationships"
	SphereCareer        Sphere = "career"
	SphereFamily        Sphere = "family"
	SphereFriends       Sphere = "friends"
	SphereHobbies       Sphere = "hobbies"
)

// Spheres lists all spheres in canonical order.
var Spheres = []Sphere{SphereRelationships, SphereCareer, SphereFamily, SphereFriends, SphereHobbies}

// Valid reports whether s is one of the known spheres.
func (s Sphere) Valid() bool {
	switch s {
	case SphereRelationships, SphereCareer, SphereFamily, SphereFriends, SphereHobbies:
		return true
	}
	return false
}

// Condition selects the predicate a reminder template evaluates before
// firing. Unknown values always evaluate to false.
type Condition string

const (
	ConditionNone               Condition = "none"
	ConditionNoRecent           Condition = "noRecent"
	ConditionBelowAvgMoments    Condition = "belowAvgMoments"
	ConditionRelLessThanJob     Condition = "relationshipLessThanJob"
	ConditionRelLessThanFriends Condition = "relationshipLessThanFriendsAvg"
	ConditionRelNoRecent        Condition = "relationshipNoRecent"
)

// Template is a named, reusable reminder rule.
type Template struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	FrequencyDays     int       `json:"frequencyDays"`
	TimeOfDay         string    `json:"timeOfDay"`
	Condition         Condition `json:"condition"`
	NoRecentDays      *int      `json:"noRecentDays,omitempty"`
	DefaultForSpheres []Sphere  `json:"defaultForSpheres,omitempty"`
}

// ChoiceKind tags the per-entity notification choice union.
type ChoiceKind string

const (
	ChoiceTemplate ChoiceKind = "template"
	ChoiceCustom   ChoiceKind = "custom"
	ChoiceNone     ChoiceKind = "none"
)

// EntityChoice is a per-entity override: use a named template, an inline
// custom template, or disable reminders for the entity. TemplateID is set
// when Kind is "template", Template when Kind is "custom".
type EntityChoice struct {
	Kind       ChoiceKind `json:"kind"`
	TemplateID string     `json:"templateId,omitempty"`
	Template   *Template  `json:"template,omitempty"`
}

// SphereAssignment holds the per-sphere default template and the
// per-entity overrides. The default is informational only; resolution
// never falls back to it (see reminder.Resolver).
type SphereAssignment struct {
	DefaultTemplateID *string                 `json:"defaultTemplateId,omitempty"`
	Overrides         map[string]EntityChoice `json:"overrides"`
}

// AssignmentMap maps each sphere to its assignment. Absent spheres are
// treated as empty assignments.
type AssignmentMap map[Sphere]*SphereAssignment

// Clone deep-copies the map so callers can hand out snapshots safely.
func (m AssignmentMap) Clone() AssignmentMap {
	out := make(AssignmentMap, len(m))
	for sphere, asg := range m {
		if asg == nil {
			continue
		}
		cp := SphereAssignment{Overrides: make(map[string]EntityChoice, len(asg.Overrides))}
		if asg.DefaultTemplateID != nil {
			id := *asg.DefaultTemplateID
			cp.DefaultTemplateID = &id
		}
		for entityID, choice := range asg.Overrides {
			if choice.Template != nil {
				tpl := *choice.Template
				choice.Template = &tpl
			}
			cp.Overrides[entityID] = choice
		}
		out[sphere] = &cp
	}
	return out
}

// Entity is a partner, family member or friend as seen by the reminder
// engine. Read-only from this subsystem's perspective.
type Entity struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Sphere  Sphere     `json:"sphere"`
	EndedAt *time.Time `json:"endedAt,omitempty"` // partners only
}

// Current reports whether the entity is an ongoing relationship. Entities
// outside the relationships sphere never carry an end marker.
func (e Entity) Current() bool { return e.EndedAt == nil }

// Memory is a journal record tied to an entity. Read-only here.
type Memory struct {
	ID        string    `json:"id"`
	EntityID  string    `json:"entityId"`
	Sphere    Sphere    `json:"sphere"`
	Positive  int       `json:"positive"`
	Negative  int       `json:"negative"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Moments returns the total moment count recorded in the memory.
func (m Memory) Moments() int { return m.Positive + m.Negative }

// LastTouched returns the later of the create and update timestamps.
func (m Memory) LastTouched() time.Time {
	if m.UpdatedAt.After(m.CreatedAt) {
		return m.UpdatedAt
	}
	return m.CreatedAt
}
