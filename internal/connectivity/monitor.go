// Package connectivity watches whether the backend is reachable and tells
// interested parties when it comes back.
package connectivity

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Prober checks reachability of the backend once.
type Prober interface {
	Probe(ctx context.Context) error
}

// Notifier is told about every state transition. Optional.
type Notifier interface {
	NotifyOnline(online bool)
}

// Monitor polls the backend and emits an event on every offline-to-online
// transition. The very first successful probe also counts as a transition,
// so a queue built up before startup gets drained promptly.
type Monitor struct {
	prober   Prober
	notifier Notifier
	interval time.Duration
	events   chan struct{}

	mu     sync.Mutex
	online bool
	probed bool

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	log    *log.Entry
}

// NewMonitor creates a monitor. notifier may be nil.
func NewMonitor(prober Prober, interval time.Duration, notifier Notifier) *Monitor {
	return &Monitor{
		prober:   prober,
		notifier: notifier,
		interval: interval,
		events:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		log:      log.WithField("component", "connectivity"),
	}
}

// Events delivers one value per offline-to-online transition. The channel
// is buffered; a transition during a slow consumer is coalesced, not lost.
func (m *Monitor) Events() <-chan struct{} {
	return m.events
}

// Online reports the last probed state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Start launches the probe loop in the background.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	go m.loop(ctx)
	m.log.WithField("interval", m.interval).Info("Connectivity monitor started")
}

// Stop cancels the loop and waits for it to finish.
func (m *Monitor) Stop() {
	m.once.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}
		<-m.done
		m.log.Info("Connectivity monitor stopped")
	})
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)
	m.check(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *Monitor) check(ctx context.Context) {
	err := m.prober.Probe(ctx)
	now := err == nil

	m.mu.Lock()
	was, first := m.online, !m.probed
	m.online, m.probed = now, true
	m.mu.Unlock()

	if now == was && !first {
		return
	}
	if m.notifier != nil {
		m.notifier.NotifyOnline(now)
	}
	if now {
		m.log.Info("Backend reachable")
		select {
		case m.events <- struct{}{}:
		default:
		}
	} else {
		m.log.WithError(err).Warn("Backend unreachable")
	}
}
