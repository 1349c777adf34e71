package service

import (
	"context"
	"time"

	"cpu_boost/internal/cpufreq"
	"cpu_boost/internal/models"

	"k8s.io/utils/cpuset"
)

type MonitoringService struct {
	monitor *BoostMonitor
	params  *ParamStore
	floors  *FloorController
	now     func() time.Time
}

func NewMonitoringService(monitor *BoostMonitor, params *ParamStore, floors *FloorController) *MonitoringService {
	return &MonitoringService{monitor: monitor, params: params, floors: floors, now: time.Now}
}

// GetState returns the published boost state together with the current
// parameters and the live policy of every online CPU.
func (s *MonitoringService) GetState(ctx context.Context) (models.BoostStatus, error) {
	if err := ctx.Err(); err != nil {
		return models.BoostStatus{}, err
	}

	st := s.monitor.State()
	online, policies, err := s.floors.Snapshot()
	if err != nil {
		return models.BoostStatus{}, err
	}
	if policies == nil {
		policies = []cpufreq.Policy{}
	}

	status := models.BoostStatus{
		BoostState:      st,
		Requested:       s.params.Requested(),
		DefaultFloorKHz: s.monitor.DefaultFloorKHz(),
		Params:          s.params.Params(),
		OnlineCPUs:      cpuset.New(online...).String(),
		Policies:        policies,
	}
	if st.Active {
		if remaining := st.Deadline.Sub(s.now()); remaining > 0 {
			status.RemainingMs = remaining.Milliseconds()
		}
	}
	return status, nil
}
