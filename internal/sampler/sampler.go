package sampler

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/healthwatch/internal/domain"
)

// HostReader is implemented by anything that can report current host
// utilization. Each read may fail independently of the others.
type HostReader interface {
	CPUPercent(ctx context.Context) (float64, error)
	MemoryPercent(ctx context.Context) (float64, error)
	DiskPercent(ctx context.Context) (float64, error)
}

// SamplingError wraps a per-metric read failure so callers can tell which
// kind was unreadable while the rest of the tick proceeds.
type SamplingError struct {
	Kind domain.MetricKind
	Err  error
}

func (e *SamplingError) Error() string {
	return fmt.Sprintf("sample %s: %v", e.Kind, e.Err)
}

func (e *SamplingError) Unwrap() error { return e.Err }

// Sampler reads one sample per metric kind from the host.
type Sampler struct {
	reader HostReader
}

func New(reader HostReader) *Sampler {
	return &Sampler{reader: reader}
}

// Sample reads every metric kind and stamps all readings with the same
// capture time, so a tick's samples share one instant. A kind whose read
// fails is reported in the error slice and omitted from the samples; the
// other kinds are still returned.
func (s *Sampler) Sample(ctx context.Context) ([]domain.MetricSample, []error) {
	capturedAt := time.Now().UTC()

	reads := []struct {
		kind domain.MetricKind
		fn   func(context.Context) (float64, error)
	}{
		{domain.MetricCPU, s.reader.CPUPercent},
		{domain.MetricMemory, s.reader.MemoryPercent},
		{domain.MetricDisk, s.reader.DiskPercent},
	}

	samples := make([]domain.MetricSample, 0, len(reads))
	var errs []error
	for _, r := range reads {
		v, err := r.fn(ctx)
		if err != nil {
			errs = append(errs, &SamplingError{Kind: r.kind, Err: err})
			continue
		}
		samples = append(samples, domain.MetricSample{
			Kind:       r.kind,
			Value:      v,
			CapturedAt: capturedAt,
		})
	}
	return samples, errs
}
