package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lorrc/insuredesk-backend/internal/core/domain"
	"github.com/lorrc/insuredesk-backend/internal/core/ports"
	"github.com/lorrc/insuredesk-backend/internal/infrastructure/metrics"
)

// Poller periodically fetches a snapshot from an external platform and
// broadcasts it. Each tick is independent: a failed fetch is logged and
// skipped, and the next tick proceeds normally. Ticks carry no memory of
// previous results and snapshots are not diffed or deduplicated.
//
// The clock is injected so tests can drive ticks manually.
type Poller struct {
	name     string
	interval time.Duration
	clock    clockwork.Clock
	tick     func(ctx context.Context)
	logger   *slog.Logger
	metrics  *metrics.PollerMetrics

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func newPoller(name string, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, m *metrics.PollerMetrics) *Poller {
	return &Poller{
		name:     name,
		interval: interval,
		clock:    clock,
		logger:   logger.With("component", "poller", "poller", name),
		metrics:  m,
	}
}

// Start launches the polling loop. Calling Start on a running poller is a
// no-op. A stopped poller can be started again.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)

	p.logger.Info("poller started", "interval", p.interval)
}

// Stop halts the polling loop and waits for any in-flight tick to finish.
// Once Stop returns, no further broadcast is issued by this poller.
// Calling Stop on a stopped poller is a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
	p.logger.Info("poller stopped")
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			p.runTick(ctx)
		}
	}
}

// runTick executes one fetch-and-broadcast cycle. A panicking tick is
// contained so the loop keeps running.
func (p *Poller) runTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("poll tick panicked", "panic", r)
			p.fail()
		}
	}()

	if p.metrics != nil {
		p.metrics.Ticks.WithLabelValues(p.name).Inc()
	}

	p.tick(ctx)
}

func (p *Poller) fail() {
	if p.metrics != nil {
		p.metrics.TickFails.WithLabelValues(p.name).Inc()
	}
}

// NewQueuePoller builds the poller that pushes live queue statistics to
// every connected client.
func NewQueuePoller(
	telephony ports.TelephonyGateway,
	broadcaster ports.Broadcaster,
	interval time.Duration,
	clock clockwork.Clock,
	logger *slog.Logger,
	m *metrics.PollerMetrics,
) *Poller {
	p := newPoller("queue", interval, clock, logger, m)
	p.tick = func(ctx context.Context) {
		stats, err := telephony.QueueStats(ctx)
		if err != nil {
			p.logger.Warn("queue stats fetch failed, skipping tick", "error", err)
			p.fail()
			return
		}
		// The fetch may have raced shutdown; never publish after stop.
		if ctx.Err() != nil {
			return
		}
		broadcaster.ToAll(domain.EventQueueUpdated, stats)
	}
	return p
}

// NewAgentPoller builds the poller that pushes the agent-activity snapshot
// to managers.
func NewAgentPoller(
	telephony ports.TelephonyGateway,
	broadcaster ports.Broadcaster,
	interval time.Duration,
	clock clockwork.Clock,
	logger *slog.Logger,
	m *metrics.PollerMetrics,
) *Poller {
	p := newPoller("agents", interval, clock, logger, m)
	p.tick = func(ctx context.Context) {
		agents, err := telephony.AgentActivity(ctx)
		if err != nil {
			p.logger.Warn("agent activity fetch failed, skipping tick", "error", err)
			p.fail()
			return
		}
		if ctx.Err() != nil {
			return
		}
		broadcaster.ToRole(domain.RoleManager, domain.EventAgentsUpdated, domain.AgentsUpdatedPayload{Agents: agents})
	}
	return p
}
