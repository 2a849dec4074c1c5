// Package lockbench runs a synthetic read/write workload against a shared lock
// and checks that the lock keeps readers and writers apart.
package lockbench

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gitlab.com/slon/asynclock/box"
	"gitlab.com/slon/asynclock/lockopt"
	"gitlab.com/slon/asynclock/sharedlock"
)

// Report summarizes a workload run.
type Report struct {
	RunID  string
	Reads  int64
	Writes int64
	// MaxReaders is the largest number of reads observed running at once.
	MaxReaders int64
	// Violations counts reads that overlapped a write and writes that
	// overlapped anything else. A correct lock reports zero.
	Violations int64
	// FinalValue is the counter after the run; every write increments it once.
	FinalValue int64
	Elapsed    time.Duration
}

type state struct {
	counter *box.Box[int64]
	readers atomic.Int64
	writers atomic.Int64
}

type stats struct {
	reads, writes, maxReaders, violations atomic.Int64
}

func (s *stats) observeReaders(n int64) {
	for {
		prev := s.maxReaders.Load()
		if n <= prev || s.maxReaders.CompareAndSwap(prev, n) {
			return
		}
	}
}

// Run executes the workload described by cfg. Options are applied to the
// shared lock; the clock from opts also drives the simulated work.
func Run(ctx context.Context, cfg Config, opts ...lockopt.Option) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}

	opts = append([]lockopt.Option{lockopt.WithName("lockbench")}, opts...)
	lc := lockopt.Apply(opts...)
	runID := uuid.Must(uuid.NewV4()).String()
	log := lc.Logger.With(zap.String("run_id", runID))

	l := sharedlock.New(&state{counter: box.New[int64](0)}, opts...)
	var st stats

	log.Info("workload started",
		zap.Int("readers", cfg.Readers),
		zap.Int("writers", cfg.Writers),
		zap.Int("ops_per_client", cfg.OpsPerClient),
	)
	start := lc.Clock.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Readers; i++ {
		g.Go(func() error {
			for j := 0; j < cfg.OpsPerClient; j++ {
				_, err := sharedlock.Read(l, func(s *state) (int64, error) {
					n := s.readers.Add(1)
					defer s.readers.Add(-1)
					st.observeReaders(n)

					before := s.counter.Get()
					lc.Clock.Sleep(cfg.ReadDuration)
					if s.writers.Load() != 0 || s.counter.Get() != before {
						st.violations.Add(1)
					}
					return before, nil
				}).Await(gctx)
				if err != nil {
					return err
				}
				st.reads.Add(1)
			}
			return nil
		})
	}
	for i := 0; i < cfg.Writers; i++ {
		g.Go(func() error {
			for j := 0; j < cfg.OpsPerClient; j++ {
				_, err := sharedlock.Write(l, func(s *state) (struct{}, error) {
					if s.writers.Add(1) != 1 || s.readers.Load() != 0 {
						st.violations.Add(1)
					}
					defer s.writers.Add(-1)

					// Неатомарный read-modify-write: без исключения записи теряются
					v := s.counter.Get()
					lc.Clock.Sleep(cfg.WriteDuration)
					s.counter.Set(v + 1)
					return struct{}{}, nil
				}).Await(gctx)
				if err != nil {
					return err
				}
				st.writes.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn("workload aborted", zap.Error(err))
		return Report{}, err
	}

	final, err := sharedlock.Read(l, func(s *state) (int64, error) {
		return s.counter.Get(), nil
	}).Await(ctx)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		RunID:      runID,
		Reads:      st.reads.Load(),
		Writes:     st.writes.Load(),
		MaxReaders: st.maxReaders.Load(),
		Violations: st.violations.Load(),
		FinalValue: final,
		Elapsed:    lc.Clock.Since(start),
	}
	log.Info("workload finished",
		zap.Int64("reads", report.Reads),
		zap.Int64("writes", report.Writes),
		zap.Int64("max_readers", report.MaxReaders),
		zap.Int64("violations", report.Violations),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}
