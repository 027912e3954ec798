// SPDX-License-Identifier: Apache-2.0

// Package netmon observes backend reachability and exposes an online/offline
// signal plus transition events.
//
// The monitor polls a Prober on a fixed interval. A raw transition is only
// reported after it has held stable for the debounce window, so a briefly
// flapping link does not trigger a storm of replay attempts. An
// offline→online transition emits a single Recovered event; the orchestrator
// consumes it to drain the offline queue.
package netmon

import (
	"context"
	"sync"
	"time"

	"github.com/ashirkhanov/syncwell/internal/config"
	"github.com/ashirkhanov/syncwell/internal/logger"
)

// Prober answers a single reachability question. The HTTP adapter's Ping is
// the production prober.
type Prober interface {
	Ping(ctx context.Context) error
}

// Event is a debounced connectivity transition.
type Event struct {
	Online bool
	At     time.Time
}

// Monitor polls a Prober and publishes debounced transitions.
type Monitor struct {
	prober   Prober
	interval time.Duration
	debounce time.Duration
	logger   *logger.Logger

	events chan Event
	now    func() time.Time

	mu       sync.Mutex
	online   bool
	lastRaw  bool
	rawSince time.Time
	started  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewMonitor constructs a Monitor. The monitor is idle until Start is
// called. The engine starts in the offline state; the first successful probe
// that survives the debounce window flips it online and emits a recovery
// event.
func NewMonitor(prober Prober, cfg config.EngineMonitor, log *logger.Logger) *Monitor {
	return &Monitor{
		prober:   prober,
		interval: cfg.ProbeInterval,
		debounce: cfg.Debounce,
		logger:   log,
		events:   make(chan Event, 8),
		now:      time.Now,
	}
}

// IsOnline returns the current debounced reachability state.
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Events returns the channel of debounced transitions. The channel is
// buffered; if the consumer lags, older events are dropped rather than
// blocking the probe loop.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Start launches the probe goroutine. It stops when ctx is cancelled or
// Stop is called. Calling Start on a running monitor is a no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		t := time.NewTicker(m.interval)
		defer t.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-t.C:
				m.probe(runCtx)
			}
		}
	}()
}

// Stop cancels the probe goroutine and blocks until it has exited. Safe to
// call when the monitor is not running.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.started = false
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

// probe performs one reachability check and applies the debounce rule.
func (m *Monitor) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.interval)
	err := m.prober.Ping(probeCtx)
	cancel()

	raw := err == nil
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if raw != m.lastRaw {
		// Raw state changed: restart the stability clock.
		m.lastRaw = raw
		m.rawSince = now
		return
	}

	if raw == m.online {
		return
	}

	if now.Sub(m.rawSince) < m.debounce {
		// Transition not stable yet.
		return
	}

	m.online = raw
	m.logger.Info().Bool("online", raw).Msg("connectivity transition")

	ev := Event{Online: raw, At: now}
	select {
	case m.events <- ev:
	default:
		// Consumer is lagging: discard the oldest pending event so the
		// newest transition is the one that survives.
		m.logger.Warn().Msg("connectivity event buffer full, dropping oldest")
		select {
		case <-m.events:
		default:
		}
		select {
		case m.events <- ev:
		default:
		}
	}
}
