package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/spherelog/spherelog/internal/model"
	"github.com/spherelog/spherelog/internal/notify"
)

func guardDelivered(id, tempKey string) notify.Delivered {
	return notify.Delivered{
		ID: id,
		Content: notify.Content{
			Title: "Reminder",
			Data:  notify.Payload{EntityID: "f1", Sphere: model.SphereFriends, TempKey: tempKey},
		},
	}
}

func TestDeliveryGuard_SuppressesPrematureDelivery(t *testing.T) {
	now := schedNow
	svc := newFakeNotify()
	g := NewDeliveryGuard(svc, zerolog.Nop(), func() time.Time { return now })

	g.Track("pending-1", now.Add(30*time.Minute))
	g.Adopt("pending-1", "n-1")

	if g.Handle(guardDelivered("n-1", "pending-1")) {
		t.Fatal("delivery 30m before the expected fire time was displayed")
	}

	// Once the expected time passes the same notification is displayed
	// and its tracking entry retired.
	now = now.Add(31 * time.Minute)
	if !g.Handle(guardDelivered("n-1", "pending-1")) {
		t.Fatal("on-time delivery was suppressed")
	}
	if !g.Handle(guardDelivered("n-1", "pending-1")) {
		t.Fatal("untracked repeat delivery was suppressed")
	}
}

func TestDeliveryGuard_TempKeyMatchesBeforeAdopt(t *testing.T) {
	// Delivery can race the schedule call's return; the temp key in the
	// payload must be enough to suppress.
	svc := newFakeNotify()
	g := NewDeliveryGuard(svc, zerolog.Nop(), func() time.Time { return schedNow })

	g.Track("pending-7", schedNow.Add(time.Hour))
	if g.Handle(guardDelivered("n-9", "pending-7")) {
		t.Fatal("premature delivery slipped through before Adopt")
	}
}

func TestDeliveryGuard_BackfillsFromScheduleList(t *testing.T) {
	// Untracked id, e.g. after a process restart: the guard cross-checks
	// the live schedule list and suppresses when the trigger is future.
	svc := newFakeNotify()
	id, err := svc.Schedule(context.Background(), notify.Content{
		Data: notify.Payload{EntityID: "f1", Sphere: model.SphereFriends},
	}, notify.SecondsTrigger(3600, false))
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	g := NewDeliveryGuard(svc, zerolog.Nop(), func() time.Time { return schedNow })
	if g.Handle(guardDelivered(id, "")) {
		t.Fatal("future-listed untracked delivery was displayed")
	}
	// The backfilled entry suppresses again without another list call.
	if g.Handle(guardDelivered(id, "")) {
		t.Fatal("backfilled entry did not suppress")
	}
}

func TestDeliveryGuard_UnknownDeliveryIsDisplayed(t *testing.T) {
	svc := newFakeNotify()
	g := NewDeliveryGuard(svc, zerolog.Nop(), func() time.Time { return schedNow })

	if !g.Handle(guardDelivered("n-404", "")) {
		t.Fatal("delivery absent from both tracking and the schedule list was suppressed")
	}
}

func TestDeliveryGuard_ForgetDropsEntry(t *testing.T) {
	svc := newFakeNotify()
	g := NewDeliveryGuard(svc, zerolog.Nop(), func() time.Time { return schedNow })

	g.Track("pending-2", schedNow.Add(time.Hour))
	g.Forget("pending-2")
	if !g.Handle(guardDelivered("n-2", "pending-2")) {
		t.Fatal("forgotten entry still suppressed delivery")
	}
}
