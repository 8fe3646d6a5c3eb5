package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/spherelog/spherelog/internal/journal"
	"github.com/spherelog/spherelog/internal/metrics"
	"github.com/spherelog/spherelog/internal/model"
	"github.com/spherelog/spherelog/internal/notify"
	"github.com/spherelog/spherelog/internal/store"
)

// TemplateSource is the template store surface the scheduler reads.
type TemplateSource interface {
	TemplateLookup
	List() []model.Template
}

// AssignmentSource is the assignment store surface the scheduler reads.
type AssignmentSource interface {
	AssignmentLookup
	Map() model.AssignmentMap
}

// Options tunes a Scheduler. Zero values select production defaults.
type Options struct {
	// Subscribed reports the premium flag folded into the reschedule key.
	Subscribed func() bool
	// Now overrides the clock, for tests.
	Now func() time.Time
	// Debounce is the quiet period for change-triggered refreshes.
	Debounce time.Duration
}

// Status is a point-in-time view of scheduler state for the status API.
type Status struct {
	LastKey        string     `json:"lastKey,omitempty"`
	HasScheduled   bool       `json:"hasScheduled"`
	LastRun        *time.Time `json:"lastRun,omitempty"`
	ScheduledCount int        `json:"scheduledCount"`
}

// Scheduler orchestrates the full reminder pipeline: per target it
// resolves the effective template, evaluates its condition, computes
// fire times, and issues schedule calls, under a reschedule-key
// change-detection protocol that makes repeated refreshes cheap.
//
// All mutable scheduling state lives on this one instance; construct it
// once at service start.
type Scheduler struct {
	store       store.Store
	source      journal.Source
	notify      notify.Service
	templates   TemplateSource
	assignments AssignmentSource
	resolver    *Resolver
	guard       *DeliveryGuard
	metrics     *metrics.Scheduler
	log         zerolog.Logger
	subscribed  func() bool
	now         func() time.Time

	mu             sync.Mutex
	lastKey        string
	hasScheduled   bool
	lastRun        time.Time
	scheduledCount int

	debounce *Debouncer
}

// NewScheduler wires the orchestrator. metrics may be nil.
func NewScheduler(
	st store.Store,
	source journal.Source,
	svc notify.Service,
	templates TemplateSource,
	assignments AssignmentSource,
	guard *DeliveryGuard,
	m *metrics.Scheduler,
	log zerolog.Logger,
	opts Options,
) *Scheduler {
	if opts.Subscribed == nil {
		opts.Subscribed = func() bool { return false }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Debounce <= 0 {
		opts.Debounce = time.Second
	}
	return &Scheduler{
		store:       st,
		source:      source,
		notify:      svc,
		templates:   templates,
		assignments: assignments,
		resolver:    NewResolver(templates, assignments),
		guard:       guard,
		metrics:     m,
		log:         log.With().Str("component", "scheduler").Logger(),
		subscribed:  opts.Subscribed,
		now:         opts.Now,
		debounce:    NewDebouncer(opts.Debounce),
	}
}

// Start restores the last persisted reschedule key so a fresh process can
// skip an unnecessary reschedule when nothing changed since the previous
// run.
func (s *Scheduler) Start(ctx context.Context) error {
	key, err := s.store.LoadRescheduleKey(ctx)
	if err != nil {
		return errors.Wrap(err, "load reschedule key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if key != "" {
		s.lastKey = key
		s.hasScheduled = true
	}
	return nil
}

// Stop cancels any pending debounced refresh.
func (s *Scheduler) Stop() { s.debounce.Stop() }

// NotifyChange requests a refresh after the debounce quiet period.
// Safe to call on every state change; bursts coalesce into one pass and
// no-op churn is filtered by the reschedule key.
func (s *Scheduler) NotifyChange() {
	s.debounce.Trigger(func() {
		if err := s.Refresh(context.Background(), false); err != nil {
			s.log.Error().Err(err).Msg("debounced refresh failed")
		}
	})
}

// Refresh recomputes and reissues all scheduled notifications, unless
// the reschedule key shows nothing relevant changed since the last
// successful pass. Idempotent; permission denial and not-yet-loaded data
// abort silently.
func (s *Scheduler) Refresh(ctx context.Context, force bool) error {
	partners, err := s.source.Partners(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch partners")
	}
	family, err := s.source.Family(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch family")
	}
	friends, err := s.source.Friends(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch friends")
	}
	memories, err := s.source.Memories(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch memories")
	}

	tpls := s.templates.List()
	asgs := s.assignments.Map()
	key := RescheduleKey(tpls, asgs, len(memories), s.subscribed())

	s.mu.Lock()
	if !force && s.hasScheduled && s.lastKey == key {
		s.mu.Unlock()
		s.log.Debug().Str("key", key).Msg("reschedule key unchanged; skipping")
		s.countPass("skipped")
		return nil
	}
	// Record the key before doing any work so a concurrent re-entrant
	// call sees it and skips; the pass itself is idempotent either way.
	s.lastKey = key
	s.mu.Unlock()

	perm, err := s.notify.PermissionStatus(ctx)
	if err != nil {
		return errors.Wrap(err, "permission status")
	}
	if perm == notify.PermissionUndetermined {
		perm, err = s.notify.RequestPermission(ctx)
		if err != nil {
			return errors.Wrap(err, "request permission")
		}
	}
	if perm != notify.PermissionGranted {
		s.log.Info().Str("permission", string(perm)).Msg("notification permission not granted; skipping reschedule")
		s.countPass("aborted")
		return nil
	}

	data := NewDataset(partners, family, friends, memories)
	targets := data.Targets()
	if len(targets) == 0 && assignmentsEmpty(asgs) {
		// Stores have likely not finished loading; flushing now would
		// destroy legitimate existing schedules.
		s.log.Debug().Msg("no targets and no assignments; journal likely not loaded yet")
		s.countPass("aborted")
		return nil
	}

	if err := s.notify.CancelAll(ctx); err != nil {
		s.log.Error().Err(err).Msg("cancel-all failed; continuing with reschedule")
	}

	eval := NewEvaluator(data, s.now)
	count := 0
	for _, target := range targets {
		count += s.scheduleEntity(ctx, eval, target)
	}

	if err := s.store.SaveRescheduleKey(ctx, key); err != nil {
		s.log.Error().Err(err).Msg("could not persist reschedule key")
	}

	s.mu.Lock()
	s.hasScheduled = true
	s.lastRun = s.now()
	s.scheduledCount = count
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ScheduledTotal.Set(float64(count))
	}
	s.countPass("full")
	s.log.Info().Int("targets", len(targets)).Int("scheduled", count).Str("key", key).Msg("reschedule pass complete")
	return nil
}

// scheduleEntity runs the resolve → evaluate → compute → schedule chain
// for one target. Failures are logged and isolated; one entity's failure
// never aborts the pass for the rest.
func (s *Scheduler) scheduleEntity(ctx context.Context, eval *Evaluator, target model.Entity) int {
	tpl, ok := s.resolver.Resolve(target.Sphere, target.ID)
	if !ok {
		s.log.Debug().Str("entity", target.ID).Str("sphere", string(target.Sphere)).Msg("reminders disabled")
		return 0
	}

	warranted := eval.Evaluate(tpl, target.Sphere, target.ID)
	if s.metrics != nil {
		s.metrics.ConditionEvaluations.WithLabelValues(string(tpl.Condition), boolLabel(warranted)).Inc()
	}
	s.log.Debug().
		Str("entity", target.ID).
		Str("sphere", string(target.Sphere)).
		Str("condition", string(tpl.Condition)).
		Bool("warranted", warranted).
		Msg("condition evaluated")
	if !warranted {
		return 0
	}

	now := s.now()
	ft := ComputeTrigger(now, tpl.TimeOfDay, tpl.FrequencyDays)
	s.log.Debug().
		Str("entity", target.ID).
		Int64("initial_delay_s", ft.InitialDelaySeconds).
		Int64("interval_s", ft.IntervalSeconds).
		Bool("first_is_tomorrow", ft.FirstIsTomorrow).
		Msg("trigger computed")

	count := 0

	// First occurrence: non-repeating, at the exact computed delay.
	firstFireAt := now.Add(time.Duration(ft.InitialDelaySeconds) * time.Second)
	if s.schedule(ctx, target, tpl, notify.SecondsTrigger(ft.InitialDelaySeconds, false), firstFireAt) {
		count++
	}

	// Subsequent occurrences: a separate repeating notification. A single
	// repeating trigger cannot also special-case "first fire may be
	// later today", hence the split.
	var repeat notify.Trigger
	var repeatFireAt time.Time
	if tpl.FrequencyDays == 1 {
		if ft.FirstIsTomorrow {
			repeat = notify.SecondsTrigger(ft.InitialDelaySeconds+ft.IntervalSeconds, true)
			repeatFireAt = now.Add(time.Duration(ft.InitialDelaySeconds+ft.IntervalSeconds) * time.Second)
		} else {
			repeat = notify.ClockTrigger(ft.Hour, ft.Minute)
			repeatFireAt = repeat.NextFire(firstFireAt)
		}
	} else {
		repeat = notify.SecondsTrigger(ft.InitialDelaySeconds+ft.IntervalSeconds, true)
		repeatFireAt = now.Add(time.Duration(ft.InitialDelaySeconds+ft.IntervalSeconds) * time.Second)
	}
	if s.schedule(ctx, target, tpl, repeat, repeatFireAt) {
		count++
	}
	return count
}

// schedule issues one schedule call with delivery-guard tracking around
// it. Returns true when the call succeeded.
func (s *Scheduler) schedule(ctx context.Context, target model.Entity, tpl model.Template, trigger notify.Trigger, fireAt time.Time) bool {
	tempKey := "pending-" + uuid.New().String()
	content := notify.Content{
		Title: notificationTitle(tpl),
		Body:  notificationBody(target),
		Data: notify.Payload{
			EntityID: target.ID,
			Sphere:   target.Sphere,
			TempKey:  tempKey,
		},
	}
	if s.guard != nil {
		s.guard.Track(tempKey, fireAt)
	}
	id, err := s.notify.Schedule(ctx, content, trigger)
	if err != nil {
		if s.guard != nil {
			s.guard.Forget(tempKey)
		}
		if s.metrics != nil {
			s.metrics.ScheduleErrors.Inc()
		}
		s.log.Error().Err(err).Str("entity", target.ID).Msg("schedule call failed")
		return false
	}
	if s.guard != nil {
		s.guard.Adopt(tempKey, id)
	}
	return true
}

// CancelEntity immediately cancels the entity's scheduled notifications,
// matched by the entity id and sphere in each payload, then requests a
// debounced full refresh to reconcile global state. Used when an
// entity's choice is explicitly set to none.
func (s *Scheduler) CancelEntity(ctx context.Context, sphere model.Sphere, entityID string) error {
	scheduled, err := s.notify.ListScheduled(ctx)
	if err != nil {
		return errors.Wrap(err, "list scheduled")
	}
	for _, n := range scheduled {
		if n.Content.Data.EntityID != entityID || n.Content.Data.Sphere != sphere {
			continue
		}
		if err := s.notify.Cancel(ctx, n.ID); err != nil {
			s.log.Error().Err(err).Str("id", n.ID).Msg("cancel failed")
			continue
		}
		if s.guard != nil {
			s.guard.Forget(n.ID)
		}
	}
	s.NotifyChange()
	return nil
}

// Status reports current scheduler state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		LastKey:        s.lastKey,
		HasScheduled:   s.hasScheduled,
		ScheduledCount: s.scheduledCount,
	}
	if !s.lastRun.IsZero() {
		t := s.lastRun
		st.LastRun = &t
	}
	return st
}

func (s *Scheduler) countPass(outcome string) {
	if s.metrics != nil {
		s.metrics.RefreshPasses.WithLabelValues(outcome).Inc()
	}
}

func assignmentsEmpty(asgs model.AssignmentMap) bool {
	for _, asg := range asgs {
		if asg == nil {
			continue
		}
		if asg.DefaultTemplateID != nil || len(asg.Overrides) > 0 {
			return false
		}
	}
	return true
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func notificationTitle(tpl model.Template) string {
	if tpl.Name != "" {
		return tpl.Name
	}
	return "Reminder"
}

func notificationBody(target model.Entity) string {
	if target.Name != "" {
		return "Take a moment for " + target.Name
	}
	return "Take a moment to check in"
}
