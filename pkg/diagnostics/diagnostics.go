// Package diagnostics periodically logs this process's resource usage:
// total system memory (github.com/pbnjay/memory) and this process's
// RSS and accumulated CPU time (github.com/prometheus/procfs). Neither
// library is exercised anywhere else in the module; this sampler is
// their wiring point: both ship as direct dependencies with no other
// caller once the original chat-bot/wallet transport they supported was
// dropped (see DESIGN.md).
package diagnostics

import (
	"context"
	"time"

	"github.com/decred/slog"
	"github.com/pbnjay/memory"
	"github.com/prometheus/procfs"
)

// Sampler logs a resource snapshot on a fixed interval until its
// context is cancelled.
type Sampler struct {
	interval time.Duration
	log      slog.Logger
	proc     procfs.Proc
}

// New builds a Sampler reading /proc for the current process. Returns
// an error if procfs is unavailable (e.g. non-Linux), in which case the
// caller should log and skip sampling rather than fail startup over a
// best-effort feature.
func New(interval time.Duration, log slog.Logger) (*Sampler, error) {
	proc, err := procfs.Self()
	if err != nil {
		return nil, err
	}
	return &Sampler{interval: interval, log: log, proc: proc}, nil
}

// Run logs a snapshot every interval until ctx is cancelled.
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sampleOnce()
		}
	}
}

func (s *Sampler) sampleOnce() {
	stat, err := s.proc.Stat()
	if err != nil {
		s.log.Warnf("diagnostics: read process stat: %v", err)
		return
	}

	totalMB := memory.TotalMemory() / (1024 * 1024)
	rssMB := stat.ResidentMemory() / (1024 * 1024)

	s.log.Infof("diagnostics: rss=%dMB sysTotal=%dMB cpuTime=%.1fs",
		rssMB, totalMB, stat.CPUTime())
}
