package workers_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/codeprephub/internal/app/system/workers"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingEvicter struct {
	calls atomic.Int32
	idle  atomic.Int64
}

func (c *countingEvicter) Evict(idle time.Duration) int {
	c.calls.Add(1)
	c.idle.Store(int64(idle))
	return 1
}

func TestWorkspaceEviction_SweepsUntilStopped(t *testing.T) {
	ev := &countingEvicter{}
	w := workers.NewWorkspaceEviction(ev, zap.NewNop(), 5*time.Millisecond, time.Hour)

	w.Start()
	deadline := time.Now().Add(time.Second)
	for ev.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	w.Stop()
	w.Stop()

	if ev.calls.Load() < 2 {
		t.Fatalf("expected at least 2 sweeps, got %d", ev.calls.Load())
	}
	if time.Duration(ev.idle.Load()) != time.Hour {
		t.Errorf("Evict called with %v, want 1h", time.Duration(ev.idle.Load()))
	}

	after := ev.calls.Load()
	time.Sleep(20 * time.Millisecond)
	if ev.calls.Load() != after {
		t.Error("worker kept sweeping after Stop")
	}
}
