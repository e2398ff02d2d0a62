// Package battery exposes the device battery level to the pipeline.
//
// The orchestrator's adaptive throttling only needs a percentage; where it
// comes from (sysfs on the device, the companion daemon over HTTP, a mock
// in tests) is an implementation detail behind the Monitor interface.
package battery

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
)

// Monitor reports the current battery level.
type Monitor interface {
	// Level returns the battery percentage in [0, 100].
	Level(ctx context.Context) (int, error)
}

// DefaultSysfsPath is the standard Linux battery capacity file.
const DefaultSysfsPath = "/sys/class/power_supply/BAT0/capacity"

// SysfsMonitor reads the battery level from the kernel's power_supply
// interface. Reads are cheap; no caching is done here.
type SysfsMonitor struct {
	path string
}

// NewSysfs creates a monitor over the given capacity file.
// An empty path uses DefaultSysfsPath.
func NewSysfs(path string) *SysfsMonitor {
	if path == "" {
		path = DefaultSysfsPath
	}
	return &SysfsMonitor{path: path}
}

// Level reads and parses the capacity file.
func (m *SysfsMonitor) Level(ctx context.Context) (int, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return 0, fmt.Errorf("battery: read %s: %w", m.path, err)
	}
	level, err := strconv.Atoi(string(bytes.TrimSpace(data)))
	if err != nil {
		return 0, fmt.Errorf("battery: parse %s: %w", m.path, err)
	}
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	return level, nil
}

// Verify SysfsMonitor implements Monitor at compile time.
var _ Monitor = (*SysfsMonitor)(nil)
