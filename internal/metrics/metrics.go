package metrics

import (
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	MetricNamespace = "cpuboost"
	MetricComponent = "boostd"
)

// Boost holds the collectors updated by the boost monitor.
type Boost struct {
	Started     stdprometheus.Counter
	Restored    stdprometheus.Counter
	Dropped     stdprometheus.Counter
	CPUsSkipped *stdprometheus.CounterVec
	Active      stdprometheus.Gauge
	FloorKHz    stdprometheus.Gauge
}

// NewBoost creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which is what tests want.
func NewBoost(reg stdprometheus.Registerer, hostname string) *Boost {
	labels := stdprometheus.Labels{"component": MetricComponent, "hostname": hostname}

	b := &Boost{
		Started: stdprometheus.NewCounter(stdprometheus.CounterOpts{
			Namespace:   MetricNamespace,
			ConstLabels: labels,
			Name:        "boosts_started_total",
			Help:        "Number of boosts applied to the online CPUs.",
		}),
		Restored: stdprometheus.NewCounter(stdprometheus.CounterOpts{
			Namespace:   MetricNamespace,
			ConstLabels: labels,
			Name:        "boosts_restored_total",
			Help:        "Number of boosts ended by restoring the default floor.",
		}),
		Dropped: stdprometheus.NewCounter(stdprometheus.CounterOpts{
			Namespace:   MetricNamespace,
			ConstLabels: labels,
			Name:        "boost_requests_dropped_total",
			Help:        "Requests cleared at the end of a boost they arrived during.",
		}),
		CPUsSkipped: stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
			Namespace:   MetricNamespace,
			ConstLabels: labels,
			Name:        "cpus_skipped_total",
			Help:        "CPUs skipped while applying a floor, by reason.",
		}, []string{"reason"}),
		Active: stdprometheus.NewGauge(stdprometheus.GaugeOpts{
			Namespace:   MetricNamespace,
			ConstLabels: labels,
			Name:        "boost_active",
			Help:        "1 while a boost floor is in effect.",
		}),
		FloorKHz: stdprometheus.NewGauge(stdprometheus.GaugeOpts{
			Namespace:   MetricNamespace,
			ConstLabels: labels,
			Name:        "floor_khz",
			Help:        "Floor last applied to the online CPUs.",
		}),
	}

	if reg != nil {
		reg.MustRegister(b.Started, b.Restored, b.Dropped, b.CPUsSkipped, b.Active, b.FloorKHz)
	}
	return b
}
