package reminder

import (
	"time"

	"github.com/spherelog/spherelog/internal/model"
)

// defaultNoRecentDays is the recency threshold used when a recency
// condition does not carry its own.
const defaultNoRecentDays = 7

// Dataset is an immutable snapshot of the journal collections for one
// refresh pass, with per-entity aggregates precomputed.
type Dataset struct {
	Partners []model.Entity
	Family   []model.Entity
	Friends  []model.Entity

	MemoryCount int

	moments       map[string]int
	lastTouched   map[string]time.Time
	hasMemories   map[string]bool
	careerMoments int
}

// NewDataset indexes the journal collections.
func NewDataset(partners, family, friends []model.Entity, memories []model.Memory) *Dataset {
	d := &Dataset{
		Partners:    partners,
		Family:      family,
		Friends:     friends,
		MemoryCount: len(memories),
		moments:     make(map[string]int),
		lastTouched: make(map[string]time.Time),
		hasMemories: make(map[string]bool),
	}
	for _, m := range memories {
		d.moments[m.EntityID] += m.Moments()
		d.hasMemories[m.EntityID] = true
		if t := m.LastTouched(); t.After(d.lastTouched[m.EntityID]) {
			d.lastTouched[m.EntityID] = t
		}
		if m.Sphere == model.SphereCareer {
			d.careerMoments += m.Moments()
		}
	}
	return d
}

// Moments returns the total moment count recorded for an entity.
func (d *Dataset) Moments(entityID string) int { return d.moments[entityID] }

// Targets lists every schedulable entity: all friends, all family
// members, and current partners only.
func (d *Dataset) Targets() []model.Entity {
	out := make([]model.Entity, 0, len(d.Friends)+len(d.Family)+len(d.Partners))
	out = append(out, d.Friends...)
	out = append(out, d.Family...)
	for _, p := range d.Partners {
		if p.Current() {
			out = append(out, p)
		}
	}
	return out
}

// IsCurrentPartner reports whether entityID is a partner with no
// relationship-end marker.
func (d *Dataset) IsCurrentPartner(entityID string) bool {
	for _, p := range d.Partners {
		if p.ID == entityID && p.Current() {
			return true
		}
	}
	return false
}

// Evaluator decides whether a reminder template's condition holds for an
// entity, against one Dataset snapshot.
type Evaluator struct {
	data *Dataset
	now  func() time.Time
}

// NewEvaluator constructs an Evaluator. A nil now defaults to time.Now.
func NewEvaluator(data *Dataset, now func() time.Time) *Evaluator {
	if now == nil {
		now = time.Now
	}
	return &Evaluator{data: data, now: now}
}

// Evaluate returns true when the template's condition warrants a reminder
// for (sphere, entityID). Conditions evaluated outside their applicable
// sphere, and unknown condition values, return false.
func (e *Evaluator) Evaluate(tpl model.Template, sphere model.Sphere, entityID string) bool {
	switch tpl.Condition {
	case model.ConditionNone:
		return true

	case model.ConditionNoRecent:
		return e.noRecent(entityID, tpl.NoRecentDays)

	case model.ConditionBelowAvgMoments:
		if sphere != model.SphereFriends && sphere != model.SphereFamily {
			return false
		}
		return e.belowSphereAverage(sphere, entityID)

	case model.ConditionRelLessThanJob:
		if sphere != model.SphereRelationships || !e.data.IsCurrentPartner(entityID) {
			return false
		}
		return e.data.Moments(entityID) < e.data.careerMoments

	case model.ConditionRelLessThanFriends:
		if sphere != model.SphereRelationships || !e.data.IsCurrentPartner(entityID) {
			return false
		}
		if len(e.data.Friends) == 0 {
			return false
		}
		return float64(e.data.Moments(entityID)) < e.friendsAverage()

	case model.ConditionRelNoRecent:
		if sphere != model.SphereRelationships || !e.data.IsCurrentPartner(entityID) {
			return false
		}
		return e.noRecent(entityID, tpl.NoRecentDays)

	default:
		return false
	}
}

// noRecent is true when the entity has no memories at all, or its most
// recent memory is at least threshold days old.
func (e *Evaluator) noRecent(entityID string, days *int) bool {
	if !e.data.hasMemories[entityID] {
		return true
	}
	threshold := defaultNoRecentDays
	if days != nil {
		threshold = *days
	}
	age := e.now().Sub(e.data.lastTouched[entityID])
	return age >= time.Duration(threshold)*24*time.Hour
}

// belowSphereAverage compares the entity's total against the average of
// all other entities in the same sphere. Self is excluded from the
// average; with no other entities there is nothing to compare against.
func (e *Evaluator) belowSphereAverage(sphere model.Sphere, entityID string) bool {
	var peers []model.Entity
	if sphere == model.SphereFriends {
		peers = e.data.Friends
	} else {
		peers = e.data.Family
	}

	sum, n := 0, 0
	for _, p := range peers {
		if p.ID == entityID {
			continue
		}
		sum += e.data.Moments(p.ID)
		n++
	}
	if n == 0 {
		return false
	}
	avg := float64(sum) / float64(n)
	return float64(e.data.Moments(entityID)) < avg
}

func (e *Evaluator) friendsAverage() float64 {
	sum := 0
	for _, f := range e.data.Friends {
		sum += e.data.Moments(f.ID)
	}
	return float64(sum) / float64(len(e.data.Friends))
}
