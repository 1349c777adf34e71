package models

import (
	"time"

	"cpu_boost/internal/cpufreq"
)

// BoostState is the monitor's state, persisted as a single row.
type BoostState struct {
	ID        int       `json:"-"`
	Active    bool      `json:"active"`
	CycleID   string    `json:"cycle_id,omitempty"` // uuid of the running boost
	FloorKHz  int       `json:"floor_khz"`          // floor last applied to all online CPUs
	StartedAt time.Time `json:"started_at,omitempty"`
	Deadline  time.Time `json:"deadline,omitempty"` // when the boost floor is restored
	UpdatedAt time.Time `json:"updated_at"`
}

// BoostParams are the externally settable boost parameters.
type BoostParams struct {
	FrequencyKHz int       `json:"frequency_khz"`
	DurationMs   int       `json:"duration_ms"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// BoostStatus is the read-only view served to clients.
type BoostStatus struct {
	BoostState
	Requested       bool             `json:"requested"`
	RemainingMs     int64            `json:"remaining_ms,omitempty"`
	DefaultFloorKHz int              `json:"default_floor_khz"`
	Params          BoostParams      `json:"params"`
	OnlineCPUs      string           `json:"online_cpus"` // kernel cpulist format
	Policies        []cpufreq.Policy `json:"policies"`
}
