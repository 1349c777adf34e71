package cpufreq

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"k8s.io/utils/cpuset"
)

const (
	DefaultSysfsRoot = "/sys/devices/system/cpu"

	onlineFile     = "online"
	cpuinfoMinFile = "cpuinfo_min_freq"
	cpuinfoMaxFile = "cpuinfo_max_freq"
	scalingMinFile = "scaling_min_freq"
)

// SysfsHost drives the Linux cpufreq sysfs interface.
//
// The daemon never changes the online set itself, so WithOnline takes no
// lock here. A processor the kernel offlines after enumeration surfaces as
// ErrCPUOffline from Policy or SetFloor.
type SysfsHost struct {
	root string
}

// NewSysfsHost returns a host rooted at root (DefaultSysfsRoot when empty).
func NewSysfsHost(root string) *SysfsHost {
	if root == "" {
		root = DefaultSysfsRoot
	}
	return &SysfsHost{root: root}
}

func (h *SysfsHost) cpuFreqPath(cpu int, resource string) string {
	return filepath.Join(h.root, fmt.Sprintf("cpu%d", cpu), "cpufreq", resource)
}

// OnlineCPUs reads the online processor list, sorted ascending.
func (h *SysfsHost) OnlineCPUs() ([]int, error) {
	data, err := os.ReadFile(filepath.Join(h.root, onlineFile))
	if err != nil {
		return nil, fmt.Errorf("read online cpus: %w", err)
	}
	set, err := cpuset.Parse(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("parse online cpus: %w", err)
	}
	return set.List(), nil
}

// WithOnline calls fn with the online processors. A failure to read the
// online list is returned and fn is not called.
func (h *SysfsHost) WithOnline(fn func(cpus []int)) error {
	cpus, err := h.OnlineCPUs()
	if err != nil {
		return err
	}
	fn(cpus)
	return nil
}

// Policy reads the limits and current floor of cpu.
func (h *SysfsHost) Policy(cpu int) (Policy, error) {
	minKHz, err := h.readKHz(cpu, cpuinfoMinFile)
	if err != nil {
		return Policy{}, err
	}
	maxKHz, err := h.readKHz(cpu, cpuinfoMaxFile)
	if err != nil {
		return Policy{}, err
	}
	floorKHz, err := h.readKHz(cpu, scalingMinFile)
	if err != nil {
		return Policy{}, err
	}
	return Policy{CPU: cpu, MinKHz: minKHz, MaxKHz: maxKHz, FloorKHz: floorKHz}, nil
}

// SetFloor writes scaling_min_freq for cpu.
func (h *SysfsHost) SetFloor(cpu int, floorKHz int) error {
	path := h.cpuFreqPath(cpu, scalingMinFile)
	if err := os.WriteFile(path, []byte(strconv.Itoa(floorKHz)), 0644); err != nil {
		return fmt.Errorf("set floor for cpu %d: %w", cpu, offlineIfMissing(err))
	}
	return nil
}

func (h *SysfsHost) readKHz(cpu int, resource string) (int, error) {
	data, err := os.ReadFile(h.cpuFreqPath(cpu, resource))
	if err != nil {
		return 0, fmt.Errorf("read %s for cpu %d: %w", resource, cpu, offlineIfMissing(err))
	}
	khz, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse %s for cpu %d: %w", resource, cpu, err)
	}
	return khz, nil
}

// offlineIfMissing maps a vanished cpufreq directory to ErrCPUOffline.
func offlineIfMissing(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrCPUOffline
	}
	return err
}
