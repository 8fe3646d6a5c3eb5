package reminder

import (
	"context"
	"time"

	"sync"

	"github.com/rs/zerolog"

	"github.com/spherelog/spherelog/internal/notify"
)

// gcBuffer is added to each tracked entry's expected delay before its
// tracking entry is dropped.
const gcBuffer = 60 * time.Second

// DeliveryGuard suppresses premature display of notifications whose
// computed trigger time is still in the future. Some platforms deliver a
// freshly scheduled "future" notification to the foreground handler
// immediately; the guard filters those out.
//
// Entries are tracked under a temporary key at schedule time (before the
// platform id is known) and migrated to the real id once the schedule
// call returns. Tracking is best effort: a lost entry only risks showing
// a notification slightly early.
type DeliveryGuard struct {
	mu       sync.Mutex
	svc      notify.Service
	expected map[string]time.Time
	now      func() time.Time
	log      zerolog.Logger
}

// NewDeliveryGuard constructs a guard over the given notification
// service. A nil now defaults to time.Now.
func NewDeliveryGuard(svc notify.Service, log zerolog.Logger, now func() time.Time) *DeliveryGuard {
	if now == nil {
		now = time.Now
	}
	return &DeliveryGuard{
		svc:      svc,
		expected: make(map[string]time.Time),
		now:      now,
		log:      log.With().Str("component", "delivery-guard").Logger(),
	}
}

// Track records the expected fire time under key (a temp key or a real
// notification id). The entry is garbage-collected after the expected
// delay plus a buffer, whether or not the notification fired.
func (g *DeliveryGuard) Track(key string, fireAt time.Time) {
	g.mu.Lock()
	g.expected[key] = fireAt
	g.mu.Unlock()

	delay := fireAt.Sub(g.now()) + gcBuffer
	if delay < gcBuffer {
		delay = gcBuffer
	}
	time.AfterFunc(delay, func() { g.Forget(key) })
}

// Adopt migrates a tracking entry from its temporary key to the real
// notification id returned by the schedule call.
func (g *DeliveryGuard) Adopt(tempKey, id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if fireAt, ok := g.expected[tempKey]; ok {
		delete(g.expected, tempKey)
		g.expected[id] = fireAt
	}
}

// Forget drops a tracking entry.
func (g *DeliveryGuard) Forget(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.expected, key)
}

// Handle is the delivery interceptor: it returns false (suppress) when
// the delivered notification's expected fire time is still in the
// future, and true (display) otherwise.
func (g *DeliveryGuard) Handle(d notify.Delivered) bool {
	now := g.now()

	g.mu.Lock()
	fireAt, tracked := g.expected[d.ID]
	if !tracked && d.Content.Data.TempKey != "" {
		fireAt, tracked = g.expected[d.Content.Data.TempKey]
	}
	if tracked {
		if fireAt.After(now) {
			g.mu.Unlock()
			g.log.Debug().Str("id", d.ID).Time("expected", fireAt).Msg("suppressing premature delivery")
			return false
		}
		// Fired on time; tracking is done.
		delete(g.expected, d.ID)
		delete(g.expected, d.Content.Data.TempKey)
		g.mu.Unlock()
		return true
	}
	g.mu.Unlock()

	// Not tracked: cross-check the live schedule list. A delivered
	// notification that is still listed with a future trigger is the
	// premature-delivery platform quirk.
	scheduled, err := g.svc.ListScheduled(context.Background())
	if err != nil {
		g.log.Warn().Err(err).Msg("could not list scheduled notifications; allowing display")
		return true
	}
	for _, s := range scheduled {
		if s.ID != d.ID {
			continue
		}
		if next := s.Trigger.NextFire(now); next.After(now) {
			g.Track(d.ID, next)
			g.log.Debug().Str("id", d.ID).Time("expected", next).Msg("suppressing premature delivery (backfilled)")
			return false
		}
	}
	return true
}
