package cpufreq

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFakeSysfs lays out a cpufreq tree for cpus under a temp dir.
func newFakeSysfs(t *testing.T, online string, cpus ...int) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, onlineFile), []byte(online+"\n"), 0644))

	for _, cpu := range cpus {
		dir := filepath.Join(root, fmt.Sprintf("cpu%d", cpu), "cpufreq")
		require.NoError(t, os.MkdirAll(dir, 0755))
		for name, value := range map[string]string{
			cpuinfoMinFile: "192000\n",
			cpuinfoMaxFile: "2265600\n",
			scalingMinFile: "192000\n",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(value), 0644))
		}
		require.NoError(t, os.WriteFile(filepath.Join(root, fmt.Sprintf("cpu%d", cpu), onlineFile), []byte("1\n"), 0644))
	}
	return root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.TrimSpace(string(data))
}

func TestSysfsHost_WithOnline(t *testing.T) {
	h := NewSysfsHost(newFakeSysfs(t, "0-1,3", 0, 1, 3))

	var got []int
	require.NoError(t, h.WithOnline(func(cpus []int) { got = cpus }))
	assert.Equal(t, []int{0, 1, 3}, got)
}

func TestSysfsHost_OnlineCPUsFormats(t *testing.T) {
	for _, tc := range []struct {
		online string
		want   []int
	}{
		{online: "", want: []int{}},
		{online: "0", want: []int{0}},
		{online: "0-3", want: []int{0, 1, 2, 3}},
		{online: "0-1,4,6-7", want: []int{0, 1, 4, 6, 7}},
		{online: "5,2", want: []int{2, 5}},
	} {
		got, err := NewSysfsHost(newFakeSysfs(t, tc.online)).OnlineCPUs()
		require.NoError(t, err, tc.online)
		assert.Equal(t, tc.want, got, tc.online)
	}

	for _, bad := range []string{"a", "1-", "3-1"} {
		_, err := NewSysfsHost(newFakeSysfs(t, bad)).OnlineCPUs()
		assert.Error(t, err, bad)
	}
}

func TestSysfsHost_WithOnlineReadFailure(t *testing.T) {
	h := NewSysfsHost(t.TempDir())

	called := false
	err := h.WithOnline(func(cpus []int) { called = true })
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.False(t, called, "fn must not run without an online set")
}

func TestSysfsHost_PolicyAndSetFloor(t *testing.T) {
	root := newFakeSysfs(t, "0", 0)
	h := NewSysfsHost(root)

	p, err := h.Policy(0)
	require.NoError(t, err)
	assert.Equal(t, Policy{CPU: 0, MinKHz: 192000, MaxKHz: 2265600, FloorKHz: 192000}, p)

	require.NoError(t, h.SetFloor(0, 1134000))
	assert.Equal(t, "1134000", readFile(t, filepath.Join(root, "cpu0", "cpufreq", scalingMinFile)))

	p, err = h.Policy(0)
	require.NoError(t, err)
	assert.Equal(t, 1134000, p.FloorKHz)
}

func TestSysfsHost_MissingCPUIsOffline(t *testing.T) {
	h := NewSysfsHost(newFakeSysfs(t, "0-1", 0))

	_, err := h.Policy(1)
	assert.ErrorIs(t, err, ErrCPUOffline)

	err = h.SetFloor(1, 1134000)
	assert.ErrorIs(t, err, ErrCPUOffline)
}

func TestSysfsHost_MalformedValue(t *testing.T) {
	root := newFakeSysfs(t, "0", 0)
	require.NoError(t, os.WriteFile(filepath.Join(root, "cpu0", "cpufreq", cpuinfoMaxFile), []byte("fast\n"), 0644))

	_, err := NewSysfsHost(root).Policy(0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCPUOffline)
}

func TestNewSysfsHost_DefaultRoot(t *testing.T) {
	assert.Equal(t, DefaultSysfsRoot, NewSysfsHost("").root)
}
