package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Local is an in-process Service backed by real timers. It stands in for
// the mobile platform scheduler when the engine runs as a daemon: fired
// notifications are passed to the delivery handler and logged.
type Local struct {
	mu      sync.Mutex
	log     zerolog.Logger
	pending map[string]*localEntry
	perm    PermissionStatus
	deliver DeliveryHandler
	tap     TapHandler
}

type localEntry struct {
	sched Scheduled
	timer *time.Timer
}

// NewLocal constructs a Local service with permission already granted.
func NewLocal(log zerolog.Logger) *Local {
	return &Local{
		log:     log.With().Str("component", "notify-local").Logger(),
		pending: make(map[string]*localEntry),
		perm:    PermissionGranted,
	}
}

// SetPermission overrides the reported permission state.
func (l *Local) SetPermission(p PermissionStatus) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.perm = p
}

func (l *Local) Schedule(ctx context.Context, content Content, trigger Trigger) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := uuid.New().String()
	entry := &localEntry{sched: Scheduled{ID: id, Content: content, Trigger: trigger}}
	delay := time.Until(trigger.NextFire(time.Now()))
	if delay < 0 {
		delay = 0
	}
	entry.timer = time.AfterFunc(delay, func() { l.fire(id) })
	l.pending[id] = entry

	l.log.Debug().
		Str("id", id).
		Str("entity", content.Data.EntityID).
		Str("sphere", string(content.Data.Sphere)).
		Int64("seconds", trigger.Seconds).
		Bool("repeats", trigger.Repeats).
		Msg("notification scheduled")
	return id, nil
}

func (l *Local) fire(id string) {
	l.mu.Lock()
	entry, ok := l.pending[id]
	if !ok {
		l.mu.Unlock()
		return
	}
	if entry.sched.Trigger.Repeats {
		delay := time.Until(entry.sched.Trigger.NextFire(time.Now()))
		if delay <= 0 {
			delay = time.Duration(entry.sched.Trigger.Seconds) * time.Second
		}
		entry.timer = time.AfterFunc(delay, func() { l.fire(id) })
	} else {
		delete(l.pending, id)
	}
	handler := l.deliver
	delivered := Delivered{ID: id, Content: entry.sched.Content}
	l.mu.Unlock()

	show := true
	if handler != nil {
		show = handler(delivered)
	}
	l.log.Info().
		Str("id", id).
		Str("entity", delivered.Content.Data.EntityID).
		Bool("shown", show).
		Str("title", delivered.Content.Title).
		Msg("notification delivered")
}

func (l *Local) Cancel(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry, ok := l.pending[id]; ok {
		entry.timer.Stop()
		delete(l.pending, id)
	}
	return nil
}

func (l *Local) CancelAll(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, entry := range l.pending {
		entry.timer.Stop()
		delete(l.pending, id)
	}
	return nil
}

func (l *Local) ListScheduled(ctx context.Context) ([]Scheduled, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Scheduled, 0, len(l.pending))
	for _, entry := range l.pending {
		out = append(out, entry.sched)
	}
	return out, nil
}

func (l *Local) PermissionStatus(ctx context.Context) (PermissionStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.perm, nil
}

func (l *Local) RequestPermission(ctx context.Context) (PermissionStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.perm == PermissionUndetermined {
		l.perm = PermissionGranted
	}
	return l.perm, nil
}

func (l *Local) SetDeliveryHandler(h DeliveryHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deliver = h
}

func (l *Local) SetTapHandler(h TapHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tap = h
}

// Tap simulates the user opening a delivered notification.
func (l *Local) Tap(p Payload) {
	l.mu.Lock()
	h := l.tap
	l.mu.Unlock()
	if h != nil {
		h(p)
	}
}
