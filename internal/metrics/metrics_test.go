package metrics

import (
	"testing"

	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewBoost_RegistersCollectors(t *testing.T) {
	reg := stdprometheus.NewRegistry()
	b := NewBoost(reg, "test-host")

	b.Started.Inc()
	b.CPUsSkipped.WithLabelValues("offline").Add(2)
	b.Active.Set(1)

	if got := testutil.ToFloat64(b.Started); got != 1 {
		t.Fatalf("started = %v; want 1", got)
	}
	if got := testutil.ToFloat64(b.CPUsSkipped.WithLabelValues("offline")); got != 2 {
		t.Fatalf("skipped = %v; want 2", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"cpuboost_boosts_started_total", "cpuboost_boost_active", "cpuboost_cpus_skipped_total"} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}

func TestNewBoost_NilRegistererIsAllowed(t *testing.T) {
	b := NewBoost(nil, "")
	b.Restored.Inc()
	if got := testutil.ToFloat64(b.Restored); got != 1 {
		t.Fatalf("restored = %v; want 1", got)
	}
}
