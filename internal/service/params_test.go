package service

import (
	"sync"
	"testing"
	"time"

	"cpu_boost/internal/models"
)

func TestParamStore_DefaultsAndSet(t *testing.T) {
	s := NewParamStore(DefaultParams())
	if got := s.FrequencyKHz(); got != 1134000 {
		t.Fatalf("frequency = %d; want 1134000", got)
	}
	if got := s.Duration(); got != 3*time.Second {
		t.Fatalf("duration = %v; want 3s", got)
	}
	if !s.Params().UpdatedAt.IsZero() {
		t.Fatalf("expected zero UpdatedAt for defaults")
	}

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	s.Set(models.BoostParams{FrequencyKHz: 1497600, DurationMs: 250, UpdatedAt: at})
	p := s.Params()
	if p.FrequencyKHz != 1497600 || p.DurationMs != 250 || !p.UpdatedAt.Equal(at) {
		t.Fatalf("unexpected params: %+v", p)
	}
	if s.Duration() != 250*time.Millisecond {
		t.Fatalf("duration = %v", s.Duration())
	}
}

func TestParamStore_RequestFlag(t *testing.T) {
	s := NewParamStore(DefaultParams())
	if s.Requested() {
		t.Fatalf("new store must not have a pending request")
	}
	if pending := s.Request(); pending {
		t.Fatalf("first request reported as already pending")
	}
	if pending := s.Request(); !pending {
		t.Fatalf("second request should report already pending")
	}
	if !s.Requested() || !s.Requested() {
		t.Fatalf("reading must not consume the request")
	}
	if got := s.PendingRequests(); got != 2 {
		t.Fatalf("pending = %d; want 2", got)
	}
	if got := s.ClearRequest(); got != 2 {
		t.Fatalf("ClearRequest = %d; want 2", got)
	}
	if s.Requested() {
		t.Fatalf("expected request cleared")
	}
	if pending := s.Request(); pending {
		t.Fatalf("first request after clear reported as already pending")
	}
}

func TestParamStore_ConcurrentAccess(t *testing.T) {
	s := NewParamStore(DefaultParams())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Request()
				s.Set(models.BoostParams{FrequencyKHz: 1000000 + i, DurationMs: j})
				_ = s.Params()
				_ = s.Requested()
			}
		}(i)
	}
	wg.Wait()
	if got := s.ClearRequest(); got != 800 {
		t.Fatalf("cleared %d requests; want 800", got)
	}
}
