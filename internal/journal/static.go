package journal

import (
	"context"
	"sync"

	"github.com/spherelog/spherelog/internal/model"
)

// Static is an in-memory Source. It backs tests and standalone runs where
// no journal backend is configured.
type Static struct {
	mu       sync.RWMutex
	partners []model.Entity
	family   []model.Entity
	friends  []model.Entity
	memories []model.Memory
}

// NewStatic returns an empty Static source.
func NewStatic() *Static { return &Static{} }

// SetPartners replaces the partner list.
func (s *Static) SetPartners(partners []model.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partners = normalizeEntities(partners, model.SphereRelationships)
}

// SetFamily replaces the family list.
func (s *Static) SetFamily(family []model.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.family = normalizeEntities(family, model.SphereFamily)
}

// SetFriends replaces the friend list.
func (s *Static) SetFriends(friends []model.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.friends = normalizeEntities(friends, model.SphereFriends)
}

// SetMemories replaces the memory list.
func (s *Static) SetMemories(memories []model.Memory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Memory, 0, len(memories))
	for _, m := range memories {
		out = append(out, NormalizeMemory(m, m.EntityID))
	}
	s.memories = out
}

func normalizeEntities(in []model.Entity, sphere model.Sphere) []model.Entity {
	out := make([]model.Entity, 0, len(in))
	for _, e := range in {
		out = append(out, NormalizeEntity(e, sphere))
	}
	return out
}

func (s *Static) Partners(ctx context.Context) ([]model.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Entity(nil), s.partners...), nil
}

func (s *Static) Family(ctx context.Context) ([]model.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Entity(nil), s.family...), nil
}

func (s *Static) Friends(ctx context.Context) ([]model.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Entity(nil), s.friends...), nil
}

func (s *Static) Memories(ctx context.Context) ([]model.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Memory(nil), s.memories...), nil
}
