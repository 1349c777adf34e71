package service

import (
	"sync/atomic"
	"time"

	"cpu_boost/internal/models"
)

// Reference deployment values.
const (
	DefaultBoostFrequencyKHz = 1134000
	DefaultBoostDurationMs   = 3000
	DefaultPollInterval      = 20 * time.Millisecond
	DefaultFloorKHz          = 192000
)

// ParamStore holds the externally settable boost parameters and the
// request flag. The flag counts the requests raised since it was last
// cleared. All methods are safe for concurrent use; the monitor reads it
// on every poll.
type ParamStore struct {
	frequencyKHz atomic.Int64
	durationMs   atomic.Int64
	updatedAt    atomic.Int64 // unix nanos, 0 when never set
	requests     atomic.Int64
}

// NewParamStore returns a store holding p with no pending request.
func NewParamStore(p models.BoostParams) *ParamStore {
	s := &ParamStore{}
	s.Set(p)
	return s
}

// DefaultParams returns the reference frequency and duration.
func DefaultParams() models.BoostParams {
	return models.BoostParams{
		FrequencyKHz: DefaultBoostFrequencyKHz,
		DurationMs:   DefaultBoostDurationMs,
	}
}

func (s *ParamStore) Set(p models.BoostParams) {
	s.frequencyKHz.Store(int64(p.FrequencyKHz))
	s.durationMs.Store(int64(p.DurationMs))
	if p.UpdatedAt.IsZero() {
		s.updatedAt.Store(0)
	} else {
		s.updatedAt.Store(p.UpdatedAt.UnixNano())
	}
}

func (s *ParamStore) Params() models.BoostParams {
	p := models.BoostParams{
		FrequencyKHz: s.FrequencyKHz(),
		DurationMs:   int(s.durationMs.Load()),
	}
	if ns := s.updatedAt.Load(); ns != 0 {
		p.UpdatedAt = time.Unix(0, ns).UTC()
	}
	return p
}

func (s *ParamStore) FrequencyKHz() int {
	return int(s.frequencyKHz.Load())
}

func (s *ParamStore) Duration() time.Duration {
	return time.Duration(s.durationMs.Load()) * time.Millisecond
}

// Request raises the boost request flag and reports whether it was
// already raised.
func (s *ParamStore) Request() (alreadyPending bool) {
	return s.requests.Add(1) > 1
}

// Requested reports whether a boost request is pending. Reading does not
// consume the request.
func (s *ParamStore) Requested() bool {
	return s.requests.Load() > 0
}

// PendingRequests returns the number of requests raised since the flag was
// last cleared.
func (s *ParamStore) PendingRequests() int64 {
	return s.requests.Load()
}

// ClearRequest lowers the flag and returns how many requests it held. Only
// the monitor calls it, when a boost ends.
func (s *ParamStore) ClearRequest() int64 {
	return s.requests.Swap(0)
}
