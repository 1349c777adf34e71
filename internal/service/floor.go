package service

import (
	"errors"
	"fmt"

	"cpu_boost/internal/cpufreq"
	"cpu_boost/internal/logger"
	"cpu_boost/internal/metrics"
)

const (
	skipReasonOffline = "offline"
	skipReasonError   = "error"
)

// AppliedFloor is the floor one CPU actually received after clamping.
type AppliedFloor struct {
	CPU      int
	FloorKHz int
}

// SkippedCPU is a CPU the floor could not be applied to.
type SkippedCPU struct {
	CPU int
	Err error
}

// ApplyReport describes one best-effort Apply call. OnlineErr is set when
// the online set could not be read and no CPU was touched.
type ApplyReport struct {
	RequestedKHz int
	Applied      []AppliedFloor
	Skipped      []SkippedCPU
	OnlineErr    error
}

// FloorController applies a floor to every online CPU.
type FloorController struct {
	host    cpufreq.Host
	metrics *metrics.Boost
	log     *logger.Logger
}

func NewFloorController(host cpufreq.Host, m *metrics.Boost, log *logger.Logger) *FloorController {
	return &FloorController{host: host, metrics: m, log: log}
}

// Apply sets floorKHz, clamped per CPU, on every CPU online when the
// hot-plug read lock is taken. CPUs that vanish or fail are skipped; the
// remaining CPUs are still applied.
func (c *FloorController) Apply(floorKHz int) ApplyReport {
	report := ApplyReport{RequestedKHz: floorKHz}

	report.OnlineErr = c.host.WithOnline(func(cpus []int) {
		for _, cpu := range cpus {
			p, err := c.host.Policy(cpu)
			if err != nil {
				report.Skipped = append(report.Skipped, SkippedCPU{CPU: cpu, Err: err})
				continue
			}
			floor := cpufreq.Clamp(p, floorKHz)
			if err := c.host.SetFloor(cpu, floor); err != nil {
				report.Skipped = append(report.Skipped, SkippedCPU{CPU: cpu, Err: err})
				continue
			}
			report.Applied = append(report.Applied, AppliedFloor{CPU: cpu, FloorKHz: floor})
		}
	})
	if report.OnlineErr != nil && c.log != nil {
		c.log.Errorw("online_cpus_read_failed", "floor_khz", floorKHz, "err", report.OnlineErr)
	}

	for _, s := range report.Skipped {
		reason := skipReasonError
		if errors.Is(s.Err, cpufreq.ErrCPUOffline) {
			reason = skipReasonOffline
		}
		if c.metrics != nil {
			c.metrics.CPUsSkipped.WithLabelValues(reason).Inc()
		}
		if c.log != nil {
			c.log.Debugw("cpu_skipped", "cpu", s.CPU, "floor_khz", floorKHz, "reason", reason, "err", s.Err)
		}
	}
	return report
}

// Snapshot returns the online CPUs and their current policies.
func (c *FloorController) Snapshot() ([]int, []cpufreq.Policy, error) {
	var (
		online   []int
		policies []cpufreq.Policy
	)
	err := c.host.WithOnline(func(cpus []int) {
		online = append(online, cpus...)
		for _, cpu := range cpus {
			if p, err := c.host.Policy(cpu); err == nil {
				policies = append(policies, p)
			}
		}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot cpus: %w", err)
	}
	return online, policies, nil
}
