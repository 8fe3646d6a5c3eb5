// Package notify abstracts the platform notification service the
// scheduler drives: schedule, cancel, list, permission state, plus
// delivery and tap callbacks.
package notify

import (
	"context"
	"time"

	"github.com/spherelog/spherelog/internal/model"
)

// Payload is the data contract written by the scheduler and read back by
// the tap handler, the delivery guard, and entity-scoped cancellation.
type Payload struct {
	EntityID string       `json:"entityId"`
	Sphere   model.Sphere `json:"sphere"`
	TempKey  string       `json:"_tempKey,omitempty"`
}

// Content is the user-visible part of a notification plus its payload.
type Content struct {
	Title string  `json:"title"`
	Body  string  `json:"body"`
	Data  Payload `json:"data"`
}

// Trigger describes when a notification fires. Two shapes are supported:
// a relative trigger (Seconds > 0) and a clock-of-day trigger (Seconds ==
// 0, Hour/Minute set, always repeating). A repeating relative trigger
// fires every Seconds seconds, first fire Seconds from scheduling.
type Trigger struct {
	Seconds int64 `json:"seconds,omitempty"`
	Hour    int   `json:"hour,omitempty"`
	Minute  int   `json:"minute,omitempty"`
	Repeats bool  `json:"repeats"`
}

// SecondsTrigger builds a relative trigger.
func SecondsTrigger(seconds int64, repeats bool) Trigger {
	return Trigger{Seconds: seconds, Repeats: repeats}
}

// ClockTrigger builds a repeating time-of-day trigger.
func ClockTrigger(hour, minute int) Trigger {
	return Trigger{Hour: hour, Minute: minute, Repeats: true}
}

// IsClock reports whether the trigger is the hour/minute shape.
func (t Trigger) IsClock() bool { return t.Seconds == 0 }

// NextFire computes the next absolute fire instant after now.
func (t Trigger) NextFire(now time.Time) time.Time {
	if !t.IsClock() {
		return now.Add(time.Duration(t.Seconds) * time.Second)
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Scheduled describes a pending notification in the service.
type Scheduled struct {
	ID      string  `json:"id"`
	Content Content `json:"content"`
	Trigger Trigger `json:"trigger"`
}

// Delivered describes a notification handed to the foreground handler.
type Delivered struct {
	ID      string  `json:"id"`
	Content Content `json:"content"`
}

// PermissionStatus mirrors the platform permission states.
type PermissionStatus string

const (
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
	PermissionUndetermined PermissionStatus = "undetermined"
)

// DeliveryHandler decides whether a delivered notification is surfaced
// (alert/sound/badge). Returning false suppresses it.
type DeliveryHandler func(Delivered) bool

// TapHandler is invoked when the user opens a delivered notification.
type TapHandler func(Payload)

// Service is the external notification scheduler the orchestrator is the
// sole writer of.
type Service interface {
	Schedule(ctx context.Context, content Content, trigger Trigger) (string, error)
	Cancel(ctx context.Context, id string) error
	CancelAll(ctx context.Context) error
	ListScheduled(ctx context.Context) ([]Scheduled, error)
	PermissionStatus(ctx context.Context) (PermissionStatus, error)
	RequestPermission(ctx context.Context) (PermissionStatus, error)
	SetDeliveryHandler(h DeliveryHandler)
	SetTapHandler(h TapHandler)
}
