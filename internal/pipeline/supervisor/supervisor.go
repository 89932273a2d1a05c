// Package supervisor implements the worker lifecycle manager: it starts
// one worker per stage class plus the Watchdog, scales each class under
// backpressure signals up to a configured maximum, and drives the whole
// pipeline's shutdown and join.
package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/elchinoo/colt/internal/logging"
	"github.com/elchinoo/colt/internal/pipeline"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

// defaultMaxWorkersPerClass is used when Config.MaxWorkers is zero.
const defaultMaxWorkersPerClass = 8

// tick is the Supervisor's scaling-decision interval.
const tick = time.Second

// Config bounds the Supervisor's scaling decisions.
type Config struct {
	// MaxWorkersPerClass caps how many concurrent workers any single stage
	// class may run. Zero means defaultMaxWorkersPerClass.
	MaxWorkersPerClass int
	// JoinTimeout bounds how long Run waits for workers to exit after
	// shutdown is triggered before giving up on a clean join.
	JoinTimeout time.Duration
}

// classSpec describes one stage class: how to launch one more worker
// instance of it, and which signal indicates it is understaffed.
type classSpec struct {
	name      string
	needMore  *func() bool
	clearFlag func()
	spawn     func(ctx context.Context) error
}

// Supervisor owns the bounded per-class pools and the scaling loop.
type Supervisor struct {
	cfg     Config
	signals *pipeline.Signals
	logger  logging.Logger
	classes []classSpec
	watch   func(ctx context.Context) error

	errMu    sync.Mutex
	firstErr error // first error returned by any stage worker
}

// New constructs a Supervisor. Register stage classes with AddClass before
// calling Run, and the Watchdog with SetWatchdog.
func New(cfg Config, signals *pipeline.Signals, logger logging.Logger) *Supervisor {
	if cfg.MaxWorkersPerClass <= 0 {
		cfg.MaxWorkersPerClass = defaultMaxWorkersPerClass
	}
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = 30 * time.Second
	}
	return &Supervisor{cfg: cfg, signals: signals, logger: logger}
}

// AddClass registers one stage class. spawn runs a single worker instance
// until it exits (on shutdown or fatal error); needMore reports whether the
// Supervisor should consider staffing up; clearFlag resets that signal
// after a scaling decision is made.
func (s *Supervisor) AddClass(name string, spawn func(ctx context.Context) error, needMore func() bool, clearFlag func()) {
	s.classes = append(s.classes, classSpec{name: name, needMore: &needMore, clearFlag: clearFlag, spawn: spawn})
}

// SetWatchdog registers the termination-condition evaluator's Run method.
func (s *Supervisor) SetWatchdog(run func(ctx context.Context) error) {
	s.watch = run
}

// Run starts exactly one worker per registered class plus the Watchdog,
// then scales classes up under backpressure until shutdown is triggered,
// joining every worker with a bounded timeout. The first fatal error from
// any worker or the Watchdog is returned.
func (s *Supervisor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	pools := make(map[string]*pool.Pool, len(s.classes))
	counts := make(map[string]*atomic.Int64, len(s.classes))
	for _, c := range s.classes {
		p := pool.New().WithMaxGoroutines(s.cfg.MaxWorkersPerClass)
		pools[c.name] = p
		count := &atomic.Int64{}
		counts[c.name] = count
		s.launch(gctx, p, c, count)
	}

	if s.watch != nil {
		g.Go(func() error {
			return s.watch(gctx)
		})
	}

	g.Go(func() error {
		s.scaleLoop(gctx, pools, counts)
		return nil
	})

	waitErr := g.Wait()

	done := make(chan struct{})
	go func() {
		for _, p := range pools {
			p.Wait()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(s.cfg.JoinTimeout):
		s.logger.Warn("supervisor: join timeout exceeded, not all workers exited cleanly")
	}

	if waitErr == nil {
		s.errMu.Lock()
		waitErr = s.firstErr
		s.errMu.Unlock()
	}
	return waitErr
}

// launch starts one more worker instance of c in p, tracking it in count for
// as long as it runs so scaleLoop can tell a class's live worker count
// without ever calling into p.Go itself to find out.
func (s *Supervisor) launch(ctx context.Context, p *pool.Pool, c classSpec, count *atomic.Int64) {
	count.Inc()
	p.Go(func() {
		defer count.Dec()
		if err := c.spawn(ctx); err != nil {
			s.logger.Error("supervisor: worker exited with error", err, logging.Fields.String("stage", c.name))
			s.errMu.Lock()
			if s.firstErr == nil {
				s.firstErr = err
			}
			s.errMu.Unlock()
			s.signals.TriggerShutdown()
		}
	})
}

// scaleLoop polls every tick (or wakes early on shutdown) and, for each
// understaffed class reporting need-more-X, launches one additional worker
// up to MaxWorkersPerClass. Stage workers never exit voluntarily, so
// pool.Go itself would block this loop's single goroutine once a class's
// pool is saturated — counts is checked first precisely to avoid that,
// keeping every other class's scaling decisions unblocked even while one
// class stays pinned at its cap under sustained backpressure.
func (s *Supervisor) scaleLoop(ctx context.Context, pools map[string]*pool.Pool, counts map[string]*atomic.Int64) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.signals.Done():
			return
		case <-ticker.C:
			for _, c := range s.classes {
				if !(*c.needMore)() {
					continue
				}
				count := counts[c.name]
				if count.Load() >= int64(s.cfg.MaxWorkersPerClass) {
					continue
				}
				s.logger.Info("supervisor: staffing up understaffed stage", logging.Fields.String("stage", c.name))
				s.launch(ctx, pools[c.name], c, count)
				c.clearFlag()
			}
		}
	}
}
