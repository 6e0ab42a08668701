package system

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStats is a snapshot of the machine the job runs on.
type HostStats struct {
	PhysicalCores   int
	LogicalCores    int
	TotalMemory     uint64
	AvailableMemory uint64
	MemoryUsed      float64 // percent
}

// ReadHostStats queries CPU and memory through gopsutil.
func ReadHostStats(ctx context.Context) (HostStats, error) {
	var hs HostStats

	logical, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return hs, fmt.Errorf("cpu counts: %w", err)
	}
	physical, err := cpu.CountsWithContext(ctx, false)
	if err != nil || physical <= 0 {
		physical = logical
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return hs, fmt.Errorf("virtual memory: %w", err)
	}

	hs.PhysicalCores = physical
	hs.LogicalCores = logical
	hs.TotalMemory = vm.Total
	hs.AvailableMemory = vm.Available
	hs.MemoryUsed = vm.UsedPercent
	return hs, nil
}

// DefaultWorkers sizes the frame encoding pool: one worker per logical core,
// capped so in-flight frames of frameBytes each stay under a quarter of
// available memory.
func DefaultWorkers(ctx context.Context, frameBytes int) int {
	hs, err := ReadHostStats(ctx)
	if err != nil {
		return max(1, runtime.NumCPU())
	}
	return workersFor(hs, frameBytes)
}

func workersFor(hs HostStats, frameBytes int) int {
	workers := hs.LogicalCores
	if workers <= 0 {
		workers = 1
	}
	if frameBytes > 0 && hs.AvailableMemory > 0 {
		// each worker holds a source frame plus its encoded copy
		byMemory := int(hs.AvailableMemory / 4 / uint64(frameBytes*2))
		if byMemory < workers {
			workers = byMemory
		}
	}
	return max(1, workers)
}
