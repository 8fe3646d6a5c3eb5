package journal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spherelog/spherelog/internal/model"
)

func TestNormalizeMemory(t *testing.T) {
	m := NormalizeMemory(model.Memory{ID: "m1"}, "p1")
	if m.Sphere != model.SphereRelationships {
		t.Fatalf("missing sphere normalized to %q, want relationships", m.Sphere)
	}
	if m.EntityID != "p1" {
		t.Fatalf("missing entity id normalized to %q, want legacy profile id", m.EntityID)
	}

	m = NormalizeMemory(model.Memory{ID: "m2", EntityID: "e1", Sphere: model.SphereFriends}, "p1")
	if m.Sphere != model.SphereFriends || m.EntityID != "e1" {
		t.Fatalf("populated record was rewritten: %+v", m)
	}

	m = NormalizeMemory(model.Memory{ID: "m3", Sphere: "galaxy"}, "p1")
	if m.Sphere != model.SphereRelationships {
		t.Fatalf("invalid sphere normalized to %q, want relationships", m.Sphere)
	}
}

func TestNormalizeEntity(t *testing.T) {
	e := NormalizeEntity(model.Entity{ID: "e1"}, model.SphereFamily)
	if e.Sphere != model.SphereFamily {
		t.Fatalf("sphere = %q, want family", e.Sphere)
	}
	e = NormalizeEntity(model.Entity{ID: "e1", Sphere: model.SphereFriends}, model.SphereFamily)
	if e.Sphere != model.SphereFriends {
		t.Fatalf("explicit sphere was overwritten: %q", e.Sphere)
	}
}

func TestStatic_NormalizesOnSet(t *testing.T) {
	s := NewStatic()
	s.SetFriends([]model.Entity{{ID: "f1", Name: "Ada"}})
	s.SetMemories([]model.Memory{{ID: "m1", EntityID: "f1"}})

	friends, err := s.Friends(context.Background())
	if err != nil {
		t.Fatalf("friends: %v", err)
	}
	if len(friends) != 1 || friends[0].Sphere != model.SphereFriends {
		t.Fatalf("friends = %+v", friends)
	}

	mems, err := s.Memories(context.Background())
	if err != nil {
		t.Fatalf("memories: %v", err)
	}
	if len(mems) != 1 || mems[0].Sphere != model.SphereRelationships {
		t.Fatalf("memories = %+v", mems)
	}
}

func TestClient_FetchesAndNormalizes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/friends", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "f1", "name": "Ada"},
		})
	})
	mux.HandleFunc("/api/memories", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			// Legacy row: no entityId, no sphere, only profileId.
			{"id": "m1", "profileId": "p1", "positive": 2},
			{"id": "m2", "entityId": "f1", "sphere": "friends", "negative": 1},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	friends, err := c.Friends(ctx)
	if err != nil {
		t.Fatalf("friends: %v", err)
	}
	if len(friends) != 1 || friends[0].ID != "f1" || friends[0].Sphere != model.SphereFriends {
		t.Fatalf("friends = %+v", friends)
	}

	mems, err := c.Memories(ctx)
	if err != nil {
		t.Fatalf("memories: %v", err)
	}
	if len(mems) != 2 {
		t.Fatalf("got %d memories, want 2", len(mems))
	}
	if mems[0].EntityID != "p1" || mems[0].Sphere != model.SphereRelationships {
		t.Fatalf("legacy memory not normalized: %+v", mems[0])
	}
	if mems[1].EntityID != "f1" || mems[1].Sphere != model.SphereFriends {
		t.Fatalf("modern memory rewritten: %+v", mems[1])
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode([]model.Entity{{ID: "p1"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.maxElapsed = 10 * time.Second

	partners, err := c.Partners(context.Background())
	if err != nil {
		t.Fatalf("partners: %v", err)
	}
	if calls.Load() < 3 {
		t.Fatalf("server called %d times, want at least 3", calls.Load())
	}
	if len(partners) != 1 || partners[0].Sphere != model.SphereRelationships {
		t.Fatalf("partners = %+v", partners)
	}
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Family(context.Background()); err == nil {
		t.Fatal("404 did not surface an error")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("server called %d times for a 4xx, want 1", got)
	}
}
