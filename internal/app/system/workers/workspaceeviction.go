// internal/app/system/workers/workspaceeviction.go
package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Evicter drops idle workspaces. *workspace.Registry satisfies it.
type Evicter interface {
	Evict(idle time.Duration) int
}

// WorkspaceEviction is a background worker that frees workspaces nobody
// has touched for a while.
type WorkspaceEviction struct {
	registry Evicter
	log      *zap.Logger
	interval time.Duration
	idle     time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWorkspaceEviction creates the worker.
//
//   - interval: how often to sweep (e.g., 1 minute)
//   - idle: how long a workspace must go unused before it is dropped
func NewWorkspaceEviction(registry Evicter, logger *zap.Logger, interval, idle time.Duration) *WorkspaceEviction {
	return &WorkspaceEviction{
		registry: registry,
		log:      logger,
		interval: interval,
		idle:     idle,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the sweep loop.
func (w *WorkspaceEviction) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("workspace eviction worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("idle_ttl", w.idle))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *WorkspaceEviction) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("workspace eviction worker stopped")
}

func (w *WorkspaceEviction) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *WorkspaceEviction) sweep() {
	if n := w.registry.Evict(w.idle); n > 0 {
		w.log.Info("evicted idle workspaces", zap.Int("count", n))
	}
}
