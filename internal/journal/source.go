// Package journal exposes the read-only entity and memory collections the
// reminder engine evaluates against. The engine never mutates this data.
package journal

import (
	"context"

	"github.com/spherelog/spherelog/internal/model"
)

// Source provides the current journal collections. Implementations must
// return normalized records (see Normalize): the rest of the engine
// assumes every record carries a valid sphere and entity id.
type Source interface {
	Partners(ctx context.Context) ([]model.Entity, error)
	Family(ctx context.Context) ([]model.Entity, error)
	Friends(ctx context.Context) ([]model.Entity, error)
	Memories(ctx context.Context) ([]model.Memory, error)
}

// NormalizeMemory fills defaults left blank by older journal records:
// a missing sphere means relationships, and a missing entity id falls back
// to the legacy profile id. Applied once at read time so downstream code
// never re-derives defaults.
func NormalizeMemory(m model.Memory, profileID string) model.Memory {
	if m.Sphere == "" || !m.Sphere.Valid() {
		m.Sphere = model.SphereRelationships
	}
	if m.EntityID == "" {
		m.EntityID = profileID
	}
	return m
}

// NormalizeEntity stamps the sphere onto records fetched from
// per-sphere endpoints that omit it.
func NormalizeEntity(e model.Entity, sphere model.Sphere) model.Entity {
	if e.Sphere == "" || !e.Sphere.Valid() {
		e.Sphere = sphere
	}
	return e
}
