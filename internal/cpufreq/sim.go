package cpufreq

import (
	"sync"

	"k8s.io/utils/cpuset"
)

// SimHost is an in-memory frequency-policy subsystem with hot-pluggable
// processors. It backs the "simulated" backend and the tests.
type SimHost struct {
	hotplug sync.RWMutex // read side held by WithOnline

	mu        sync.Mutex // guards cpus and beforeGet
	cpus      map[int]*simCPU
	beforeGet func(cpu int)
}

type simCPU struct {
	online bool
	policy Policy
}

// NewSimHost returns n online processors with the given limits and their
// floor at minKHz.
func NewSimHost(n, minKHz, maxKHz int) *SimHost {
	h := &SimHost{cpus: make(map[int]*simCPU, n)}
	for cpu := 0; cpu < n; cpu++ {
		h.cpus[cpu] = &simCPU{
			online: true,
			policy: Policy{CPU: cpu, MinKHz: minKHz, MaxKHz: maxKHz, FloorKHz: minKHz},
		}
	}
	return h
}

// AddCPU registers (or replaces) a processor with its own limits.
func (h *SimHost) AddCPU(p Policy, online bool) {
	h.hotplug.Lock()
	defer h.hotplug.Unlock()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cpus[p.CPU] = &simCPU{online: online, policy: p}
}

// SetOnline brings cpu online or offline under the write side of the
// hot-plug lock. Unknown processors are ignored.
func (h *SimHost) SetOnline(cpu int, online bool) {
	h.hotplug.Lock()
	defer h.hotplug.Unlock()
	h.setOnline(cpu, online)
}

// Unplug takes cpu offline without the hot-plug lock, the way the kernel
// can remove a processor underneath a sysfs reader.
func (h *SimHost) Unplug(cpu int) {
	h.setOnline(cpu, false)
}

func (h *SimHost) setOnline(cpu int, online bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.cpus[cpu]; ok {
		c.online = online
	}
}

func (h *SimHost) WithOnline(fn func(cpus []int)) error {
	h.hotplug.RLock()
	defer h.hotplug.RUnlock()
	fn(h.online())
	return nil
}

func (h *SimHost) online() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]int, 0, len(h.cpus))
	for id, c := range h.cpus {
		if c.online {
			ids = append(ids, id)
		}
	}
	return cpuset.New(ids...).List()
}

func (h *SimHost) Policy(cpu int) (Policy, error) {
	h.mu.Lock()
	hook := h.beforeGet
	h.mu.Unlock()
	if hook != nil {
		hook(cpu)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.cpus[cpu]
	if !ok || !c.online {
		return Policy{}, ErrCPUOffline
	}
	return c.policy, nil
}

func (h *SimHost) SetFloor(cpu int, floorKHz int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.cpus[cpu]
	if !ok || !c.online {
		return ErrCPUOffline
	}
	c.policy.FloorKHz = floorKHz
	return nil
}

// Floor returns the floor of cpu regardless of its online state.
func (h *SimHost) Floor(cpu int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.cpus[cpu]; ok {
		return c.policy.FloorKHz
	}
	return 0
}

// OnBeforeGet installs a hook run at the start of every Policy call.
func (h *SimHost) OnBeforeGet(fn func(cpu int)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.beforeGet = fn
}
