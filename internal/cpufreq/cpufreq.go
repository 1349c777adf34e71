package cpufreq

import "errors"

// ErrCPUOffline is returned when a processor left the online set (or never
// had a cpufreq policy) between enumeration and use.
var ErrCPUOffline = errors.New("cpu is offline")

// Policy is a snapshot of one processor's frequency policy, all values in kHz.
type Policy struct {
	CPU      int `json:"cpu"`
	MinKHz   int `json:"min_khz"`   // lowest supported frequency
	MaxKHz   int `json:"max_khz"`   // highest supported frequency
	FloorKHz int `json:"floor_khz"` // current user-requested minimum
}

// Host is the frequency-policy subsystem together with its hot-plug lock.
type Host interface {
	// WithOnline calls fn with the online processors while holding the
	// read side of the hot-plug lock, on backends that have one. The lock
	// is released when fn returns.
	// fn is not called when the online set cannot be read.
	WithOnline(fn func(cpus []int)) error
	// Policy returns the current policy of cpu or ErrCPUOffline.
	Policy(cpu int) (Policy, error)
	// SetFloor sets the user-requested minimum of cpu. The value must
	// already be clamped to the policy limits.
	SetFloor(cpu int, floorKHz int) error
}

// Clamp returns floorKHz limited to [p.MinKHz, p.MaxKHz]. A zero MaxKHz
// means the policy has no upper limit.
func Clamp(p Policy, floorKHz int) int {
	if floorKHz < p.MinKHz {
		return p.MinKHz
	}
	if p.MaxKHz > 0 && floorKHz > p.MaxKHz {
		return p.MaxKHz
	}
	return floorKHz
}
