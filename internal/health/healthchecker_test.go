package health

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

func waitTrue(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

type flakyPinger struct{ fail atomic.Bool }

func (p *flakyPinger) Ping(ctx context.Context) error {
	if p.fail.Load() {
		return errors.New("probe refused")
	}
	return nil
}

func TestPingChecker_TracksTargetHealth(t *testing.T) {
	target := &flakyPinger{}
	hc := NewPingChecker("store", target, zerolog.Nop(), time.Second)
	if hc.IsHealthy() {
		t.Fatal("checker healthy before first probe")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hc.Start(ctx, 10*time.Millisecond)

	waitTrue(t, 2*time.Second, hc.IsHealthy)

	target.fail.Store(true)
	waitTrue(t, 2*time.Second, func() bool { return !hc.IsHealthy() })

	target.fail.Store(false)
	waitTrue(t, 2*time.Second, hc.IsHealthy)
}

func TestServiceHealthChecker_AggregatesDependencies(t *testing.T) {
	good := &flakyPinger{}
	bad := &flakyPinger{}
	bad.fail.Store(true)

	goodHC := NewPingChecker("store", good, zerolog.Nop(), time.Second)
	badHC := NewPingChecker("journal", bad, zerolog.Nop(), time.Second)
	svc := NewServiceHealthChecker(zerolog.Nop(), goodHC, badHC)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go goodHC.Start(ctx, 10*time.Millisecond)
	go badHC.Start(ctx, 10*time.Millisecond)
	go svc.Start(ctx, 10*time.Millisecond)

	waitTrue(t, 2*time.Second, goodHC.IsHealthy)
	time.Sleep(50 * time.Millisecond)
	if svc.IsHealthy() {
		t.Fatal("service healthy while a dependency is down")
	}

	bad.fail.Store(false)
	waitTrue(t, 2*time.Second, svc.IsHealthy)
}
