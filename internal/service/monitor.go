package service

import (
	"context"
	"sync/atomic"
	"time"

	"cpu_boost/internal/logger"
	"cpu_boost/internal/metrics"
	"cpu_boost/internal/models"
	"cpu_boost/internal/repository"

	"github.com/google/uuid"
)

// restoreWait is the wait after a boost ends: re-evaluate immediately.
const restoreWait = 0

// shutdownRestoreTimeout bounds persisting the idle state on shutdown.
const shutdownRestoreTimeout = 5 * time.Second

// MonitorOptions configures a BoostMonitor. Zero values select the
// reference deployment defaults.
type MonitorOptions struct {
	PollInterval    time.Duration
	DefaultFloorKHz int
	Clock           func() time.Time
	NewCycleID      func() string
}

// BoostMonitor is the trigger monitor. Its state is owned by the goroutine
// running Run; readers get the snapshot published after every step.
type BoostMonitor struct {
	params    *ParamStore
	floors    *FloorController
	stateRepo repository.StateRepo
	metrics   *metrics.Boost
	log       *logger.Logger

	pollInterval    time.Duration
	defaultFloorKHz int
	now             func() time.Time
	newCycleID      func() string

	state    models.BoostState
	served   int64 // requests pending when the active boost started
	snapshot atomic.Pointer[models.BoostState]
	wake     chan struct{}
}

func NewBoostMonitor(
	params *ParamStore,
	floors *FloorController,
	stateRepo repository.StateRepo,
	m *metrics.Boost,
	log *logger.Logger,
	opts MonitorOptions,
) *BoostMonitor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.DefaultFloorKHz <= 0 {
		opts.DefaultFloorKHz = DefaultFloorKHz
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewCycleID == nil {
		opts.NewCycleID = uuid.NewString
	}
	if log == nil {
		log = logger.Nop()
	}

	mon := &BoostMonitor{
		params:          params,
		floors:          floors,
		stateRepo:       stateRepo,
		metrics:         m,
		log:             log,
		pollInterval:    opts.PollInterval,
		defaultFloorKHz: opts.DefaultFloorKHz,
		now:             opts.Clock,
		newCycleID:      opts.NewCycleID,
		wake:            make(chan struct{}, 1),
	}
	mon.state = models.BoostState{ID: 1, FloorKHz: opts.DefaultFloorKHz}
	mon.publish()
	return mon
}

// State returns the state published by the last step.
func (m *BoostMonitor) State() models.BoostState {
	return *m.snapshot.Load()
}

func (m *BoostMonitor) DefaultFloorKHz() int {
	return m.defaultFloorKHz
}

// Wake asks the loop to evaluate now instead of at the next scheduled
// check. It never blocks.
func (m *BoostMonitor) Wake() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Run executes steps until ctx is canceled, re-arming a single timer with
// the wait each step returns. A boost left behind by a previous process is
// undone before the first step, and an active boost is undone on exit.
func (m *BoostMonitor) Run(ctx context.Context) {
	m.Recover(ctx)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Shutdown()
			return
		case <-m.wake:
			timer.Stop()
		case <-timer.C:
		}
		timer.Reset(m.Step(ctx, m.now()))
	}
}

// Step performs one invocation at now and returns the wait until the next.
func (m *BoostMonitor) Step(ctx context.Context, now time.Time) time.Duration {
	if m.state.Active {
		if now.Before(m.state.Deadline) {
			return m.state.Deadline.Sub(now)
		}
		m.restore(ctx, now, "duration_elapsed")
		return restoreWait
	}

	if !m.params.Requested() {
		return m.pollInterval
	}
	return m.boost(ctx, now)
}

func (m *BoostMonitor) boost(ctx context.Context, now time.Time) time.Duration {
	freq := m.params.FrequencyKHz()
	duration := m.params.Duration()
	m.served = m.params.PendingRequests()
	report := m.floors.Apply(freq)

	m.state = models.BoostState{
		ID:        1,
		Active:    true,
		CycleID:   m.newCycleID(),
		FloorKHz:  freq,
		StartedAt: now.UTC(),
		Deadline:  now.Add(duration).UTC(),
		UpdatedAt: now.UTC(),
	}
	m.persist(ctx)
	m.publish()

	if m.metrics != nil {
		m.metrics.Started.Inc()
		m.metrics.Active.Set(1)
		m.metrics.FloorKHz.Set(float64(freq))
	}
	m.log.Infow("boost_started",
		"cycle_id", m.state.CycleID,
		"floor_khz", freq,
		"duration_ms", duration.Milliseconds(),
		"cpus_applied", len(report.Applied),
		"cpus_skipped", len(report.Skipped),
	)

	if duration < 0 {
		return 0
	}
	return duration
}

// restore applies the default floor, lowers the request flag (dropping any
// request that arrived during the boost) and returns to idle.
func (m *BoostMonitor) restore(ctx context.Context, now time.Time, reason string) {
	report := m.floors.Apply(m.defaultFloorKHz)
	dropped := m.params.ClearRequest() - m.served
	if dropped < 0 {
		dropped = 0
	}
	m.served = 0

	cycleID := m.state.CycleID
	m.state = models.BoostState{
		ID:        1,
		FloorKHz:  m.defaultFloorKHz,
		UpdatedAt: now.UTC(),
	}
	m.persist(ctx)
	m.publish()

	if m.metrics != nil {
		m.metrics.Restored.Inc()
		m.metrics.Dropped.Add(float64(dropped))
		m.metrics.Active.Set(0)
		m.metrics.FloorKHz.Set(float64(m.defaultFloorKHz))
	}
	m.log.Infow("boost_restored",
		"cycle_id", cycleID,
		"reason", reason,
		"requests_dropped", dropped,
		"floor_khz", m.defaultFloorKHz,
		"cpus_applied", len(report.Applied),
		"cpus_skipped", len(report.Skipped),
	)
}

// Recover undoes a boost persisted by a process that exited while boosted.
func (m *BoostMonitor) Recover(ctx context.Context) {
	if m.stateRepo == nil {
		return
	}
	prev, err := m.stateRepo.Load(ctx)
	if err != nil {
		m.log.Errorw("boost_state_load_failed", "err", err)
		return
	}
	if !prev.Active {
		return
	}
	m.log.Warnw("stale_boost_found", "cycle_id", prev.CycleID, "floor_khz", prev.FloorKHz, "deadline", prev.Deadline)
	m.state = prev
	m.restore(ctx, m.now(), "stale_after_restart")
}

// Shutdown restores the default floor if a boost is active.
func (m *BoostMonitor) Shutdown() {
	if !m.state.Active {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownRestoreTimeout)
	defer cancel()
	m.restore(ctx, m.now(), "shutdown")
}

func (m *BoostMonitor) persist(ctx context.Context) {
	if m.stateRepo == nil {
		return
	}
	if err := m.stateRepo.Save(ctx, m.state); err != nil {
		m.log.Errorw("boost_state_save_failed", "err", err, "active", m.state.Active)
	}
}

func (m *BoostMonitor) publish() {
	st := m.state
	m.snapshot.Store(&st)
}
