package service

import (
	"context"
	"fmt"
	"time"

	"cpu_boost/internal/cpufreq"
	"cpu_boost/internal/logger"
	"cpu_boost/internal/metrics"
	"cpu_boost/internal/models"
	"cpu_boost/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (Identity, error)
}

// Boost exposes the request trigger and the parameter surface.
type Boost interface {
	Request(ctx context.Context) RequestOutcome
	Params(ctx context.Context) models.BoostParams
	SetParams(ctx context.Context, in ParamsInput) (models.BoostParams, error)
}

// Monitoring exposes read-only boost status.
type Monitoring interface {
	GetState(ctx context.Context) (models.BoostStatus, error)
}

// Monitor runs the trigger loop until ctx is canceled.
type Monitor interface {
	Run(ctx context.Context)
}

type Service struct {
	Boost
	Monitoring
	Monitor
	Authorization

	boost *BoostService
	auth  *AuthService
}

// Options carries the startup configuration of the services.
type Options struct {
	Params          models.BoostParams
	PollInterval    time.Duration
	DefaultFloorKHz int
	Auth            AuthOptions
}

// NewService wires the boost core on top of host and the repositories.
func NewService(repos *repository.Repository, host cpufreq.Host, opts Options, m *metrics.Boost, log *logger.Logger) *Service {
	params := NewParamStore(opts.Params)
	floors := NewFloorController(host, m, log)
	monitor := NewBoostMonitor(params, floors, repos.StateRepo, m, log, MonitorOptions{
		PollInterval:    opts.PollInterval,
		DefaultFloorKHz: opts.DefaultFloorKHz,
	})

	boost := NewBoostService(params, repos.ParamsRepo, monitor, log)
	auth := NewAuthService(repos.Auth, opts.Auth)

	return &Service{
		Boost:         boost,
		Monitoring:    NewMonitoringService(monitor, params, floors),
		Monitor:       monitor,
		Authorization: auth,
		boost:         boost,
		auth:          auth,
	}
}

// Bootstrap loads persisted parameters and seeds the operator account.
// Call it once before Run.
func (s *Service) Bootstrap(ctx context.Context, operatorUser, operatorPassword string) error {
	if s.boost != nil {
		if _, err := s.boost.LoadParams(ctx); err != nil {
			return fmt.Errorf("load boost params: %w", err)
		}
	}
	if s.auth != nil {
		if err := s.auth.EnsureOperator(operatorUser, operatorPassword); err != nil {
			return fmt.Errorf("seed operator %q: %w", operatorUser, err)
		}
	}
	return nil
}

// ReloadParams applies parameters changed in the config file.
func (s *Service) ReloadParams(ctx context.Context, p models.BoostParams) error {
	if s.boost == nil {
		return nil
	}
	_, err := s.boost.SetParams(ctx, ParamsInput{FrequencyKHz: &p.FrequencyKHz, DurationMs: &p.DurationMs})
	return err
}
