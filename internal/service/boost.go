package service

import (
	"context"
	"fmt"
	"time"

	"cpu_boost/internal/logger"
	"cpu_boost/internal/models"
	"cpu_boost/internal/repository"
)

// BoostService is the requester- and operator-facing side of the boost:
// raising the request flag and changing parameters.
type BoostService struct {
	params     *ParamStore
	paramsRepo repository.ParamsRepo
	monitor    *BoostMonitor
	log        *logger.Logger
}

func NewBoostService(params *ParamStore, paramsRepo repository.ParamsRepo, monitor *BoostMonitor, log *logger.Logger) *BoostService {
	if log == nil {
		log = logger.Nop()
	}
	return &BoostService{params: params, paramsRepo: paramsRepo, monitor: monitor, log: log}
}

// Request raises boost_requested and wakes the monitor. A request made
// while a boost is running is not queued: it is cleared when that boost
// ends and counted as dropped by the monitor.
//
// The outcome is best effort. It reflects the state published before the
// flag was raised, so a boost starting or ending concurrently can make it
// wrong; the dropped counter is authoritative.
func (s *BoostService) Request(ctx context.Context) RequestOutcome {
	active := s.monitor.State().Active
	pending := s.params.Request()
	if active {
		s.log.Debugw("boost_request_ignored", "reason", "boost_active")
	}
	s.monitor.Wake()
	return RequestOutcome{Accepted: !active, AlreadyPending: pending}
}

func (s *BoostService) Params(ctx context.Context) models.BoostParams {
	return s.params.Params()
}

// SetParams persists the merged parameters and then makes them visible to
// the monitor. Values are not range checked; the floor is clamped per CPU
// when applied.
func (s *BoostService) SetParams(ctx context.Context, in ParamsInput) (models.BoostParams, error) {
	p := s.params.Params()
	if in.FrequencyKHz != nil {
		p.FrequencyKHz = *in.FrequencyKHz
	}
	if in.DurationMs != nil {
		p.DurationMs = *in.DurationMs
	}
	p.UpdatedAt = time.Now().UTC()

	if s.paramsRepo != nil {
		if err := s.paramsRepo.Save(ctx, p); err != nil {
			return models.BoostParams{}, fmt.Errorf("persist boost params: %w", err)
		}
	}
	s.params.Set(p)
	s.log.Infow("boost_params_updated", "frequency_khz", p.FrequencyKHz, "duration_ms", p.DurationMs)
	return p, nil
}

// LoadParams replaces the in-memory parameters with the persisted ones, if
// any were saved. It reports whether persisted params were found.
func (s *BoostService) LoadParams(ctx context.Context) (bool, error) {
	if s.paramsRepo == nil {
		return false, nil
	}
	p, found, err := s.paramsRepo.Load(ctx)
	if err != nil {
		return false, err
	}
	if found {
		s.params.Set(p)
	}
	return found, nil
}
