package sync

import (
	"context"
	gosync "sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Runner drains the queue on a fixed interval and immediately whenever the
// connectivity monitor reports the backend came back.
type Runner struct {
	svc      *Service
	interval time.Duration
	online   <-chan struct{}

	cancel context.CancelFunc
	done   chan struct{}
	once   gosync.Once
	log    *log.Entry
}

// NewRunner creates a runner. online may be nil when no connectivity
// monitor is wired; the interval tick alone then drives the drain.
func NewRunner(svc *Service, interval time.Duration, online <-chan struct{}) *Runner {
	return &Runner{
		svc:      svc,
		interval: interval,
		online:   online,
		done:     make(chan struct{}),
		log:      log.WithField("component", "sync-runner"),
	}
}

// Start launches the drain loop in the background.
func (r *Runner) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	go r.loop(ctx)
	r.log.WithField("interval", r.interval).Info("Sync runner started")
}

// Stop cancels the loop and waits for it to finish.
func (r *Runner) Stop() {
	r.once.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
		<-r.done
		r.log.Info("Sync runner stopped")
	})
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.drain(ctx)
		case _, ok := <-r.online:
			if !ok {
				r.online = nil
				continue
			}
			r.log.Debug("Connectivity restored, draining queue")
			r.drain(ctx)
		}
	}
}

func (r *Runner) drain(ctx context.Context) {
	if _, _, err := r.svc.DrainAll(ctx); err != nil {
		r.log.WithError(err).Error("Queue drain failed")
	}
}
