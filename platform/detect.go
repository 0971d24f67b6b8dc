package platform

import (
	"context"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// Detector is the interface for machine architecture detection.
type Detector interface {
	Detect(ctx context.Context) (RuntimeArch, error)
}

// RealDetector implements Detector against the running machine.
type RealDetector struct{}

// NewDetector creates a new machine architecture detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect probes the machine architecture. Precedence:
// PROCESSOR_ARCHITECTURE (Windows reports the real machine there even
// under emulation), the kernel architecture reported by the host, then
// runtime.GOARCH. Failure to recognize the architecture is not an
// error; it yields ArchUnknown.
func (d *RealDetector) Detect(ctx context.Context) (RuntimeArch, error) {
	if arch := os.Getenv("PROCESSOR_ARCHITECTURE"); arch != "" {
		if parsed := ParseArch(arch); parsed != ArchUnknown {
			return parsed, nil
		}
	}

	info, err := host.InfoWithContext(ctx)
	if err == nil && info.KernelArch != "" {
		if parsed := ParseArch(info.KernelArch); parsed != ArchUnknown {
			return parsed, nil
		}
	}
	if ctx.Err() != nil {
		return ArchUnknown, ctx.Err()
	}

	return ParseArch(runtime.GOARCH), nil
}
