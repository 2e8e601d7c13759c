package sampler

import (
	"context"
	"errors"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// GopsutilReader reads utilization through gopsutil. DiskPath is the
// mount point whose filesystem usage is reported, "/" by default.
type GopsutilReader struct {
	DiskPath string
}

func NewGopsutilReader(diskPath string) *GopsutilReader {
	if diskPath == "" {
		diskPath = "/"
	}
	return &GopsutilReader{DiskPath: diskPath}
}

func (g *GopsutilReader) CPUPercent(ctx context.Context) (float64, error) {
	// interval 0 = percentage since the previous call, non-blocking
	pcts, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(pcts) == 0 {
		return 0, errors.New("no cpu reading")
	}
	return pcts[0], nil
}

func (g *GopsutilReader) MemoryPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

func (g *GopsutilReader) DiskPercent(ctx context.Context) (float64, error) {
	du, err := disk.UsageWithContext(ctx, g.DiskPath)
	if err != nil {
		return 0, err
	}
	return du.UsedPercent, nil
}
