package connectivity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeProber struct {
	mu sync.Mutex
	up bool
}

func (f *fakeProber) set(up bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.up = up
}

func (f *fakeProber) Probe(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.up {
		return errors.New("no route to host")
	}
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	states []bool
}

func (f *fakeNotifier) NotifyOnline(online bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, online)
}

func (f *fakeNotifier) last() (bool, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.states) == 0 {
		return false, 0
	}
	return f.states[len(f.states)-1], len(f.states)
}

func TestMonitor_EmitsEventWhenBackendComesBack(t *testing.T) {
	prober := &fakeProber{}
	monitor := NewMonitor(prober, 10*time.Millisecond, nil)
	monitor.Start(context.Background())
	defer monitor.Stop()

	select {
	case <-monitor.Events():
		t.Fatal("no event expected while offline")
	case <-time.After(50 * time.Millisecond):
	}
	assert.False(t, monitor.Online())

	prober.set(true)
	select {
	case <-monitor.Events():
	case <-time.After(2 * time.Second):
		t.Fatal("expected an online event")
	}
	assert.Eventually(t, monitor.Online, time.Second, 10*time.Millisecond)
}

func TestMonitor_FirstOnlineProbeEmits(t *testing.T) {
	prober := &fakeProber{up: true}
	monitor := NewMonitor(prober, time.Hour, nil)
	monitor.Start(context.Background())
	defer monitor.Stop()

	select {
	case <-monitor.Events():
	case <-time.After(2 * time.Second):
		t.Fatal("expected an event from the startup probe")
	}
}

func TestMonitor_NotifiesTransitions(t *testing.T) {
	prober := &fakeProber{}
	notifier := &fakeNotifier{}
	monitor := NewMonitor(prober, 10*time.Millisecond, notifier)
	monitor.Start(context.Background())
	defer monitor.Stop()

	assert.Eventually(t, func() bool {
		last, n := notifier.last()
		return n == 1 && !last
	}, time.Second, 10*time.Millisecond)

	prober.set(true)
	assert.Eventually(t, func() bool {
		last, n := notifier.last()
		return n == 2 && last
	}, time.Second, 10*time.Millisecond)

	// Steady state produces no further notifications
	time.Sleep(50 * time.Millisecond)
	_, n := notifier.last()
	assert.Equal(t, 2, n)
}
