package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/probe"
	"github.com/hamed0406/sitewatch/internal/repo"
)

// State of the scheduler loop.
type State int32

const (
	Idle State = iota
	Cycling
)

func (s State) String() string {
	if s == Cycling {
		return "cycling"
	}
	return "idle"
}

const DefaultTimeout = 10 * time.Second

// Recorder receives outcomes. *metrics.Registry satisfies it.
type Recorder interface {
	RecordCheck(domain.CheckOutcome)
	RecordCertificate(domain.CertificateStatus)
	RecordCycle(d time.Duration, finishedAt time.Time)
}

type nopRecorder struct{}

func (nopRecorder) RecordCheck(domain.CheckOutcome)            {}
func (nopRecorder) RecordCertificate(domain.CertificateStatus) {}
func (nopRecorder) RecordCycle(time.Duration, time.Time)       {}

// CycleReport summarizes one completed cycle.
type CycleReport struct {
	ID           string
	Started      time.Time
	Duration     time.Duration
	Checks       int
	Certificates int
	Panics       int
}

// Scheduler runs check cycles: every endpoint and certificate task of a
// cycle is dispatched concurrently and joined before the next sleep starts,
// so cycles never overlap.
type Scheduler struct {
	Logger    *zap.Logger
	Targets   repo.TargetRegistry
	Checker   probe.EndpointChecker
	Inspector probe.CertificateInspector
	Metrics   Recorder

	// Timeout bounds every single task.
	Timeout time.Duration
	// Concurrency caps in-flight tasks; 0 means unbounded.
	Concurrency int

	// DNS diagnoses hosts whose certificate inspection failed; nil disables.
	DNS probe.Diagnoser

	state  atomic.Int32
	cycles atomic.Uint64
}

func New(
	logger *zap.Logger,
	targets repo.TargetRegistry,
	checker probe.EndpointChecker,
	inspector probe.CertificateInspector,
	rec Recorder,
	timeout time.Duration,
	concurrency int,
) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if concurrency < 0 {
		concurrency = 0
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Scheduler{
		Logger:      logger,
		Targets:     targets,
		Checker:     checker,
		Inspector:   inspector,
		Metrics:     rec,
		Timeout:     timeout,
		Concurrency: concurrency,
		DNS:         probe.NewDNSDiagnoser(),
	}
}

// recorder tolerates a Metrics field cleared after New.
func (s *Scheduler) recorder() Recorder {
	if s.Metrics == nil {
		return nopRecorder{}
	}
	return s.Metrics
}

func (s *Scheduler) State() State { return State(s.state.Load()) }

// Cycles returns the number of cycles that ran to completion.
func (s *Scheduler) Cycles() uint64 { return s.cycles.Load() }

// Run executes a cycle immediately, then sleeps the registry's minimum
// interval after each join. It returns ctx.Err() on shutdown.
func (s *Scheduler) Run(ctx context.Context) error {
	interval := s.Targets.MinInterval()
	s.Logger.Info("scheduler_started",
		zap.Int("targets", len(s.Targets.List())),
		zap.Duration("interval", interval),
		zap.Duration("timeout", s.Timeout),
		zap.Int("concurrency", s.Concurrency),
	)

	for ctx.Err() == nil {
		s.RunCycle(ctx)

		sleep := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			sleep.Stop()
		case <-sleep.C:
		}
	}

	s.Logger.Info("scheduler_stopped", zap.Uint64("cycles", s.Cycles()))
	return ctx.Err()
}

type task struct {
	target   domain.Target
	endpoint string // empty for the certificate task
}

// RunCycle dispatches one task per (target, endpoint) plus one certificate
// task per target and waits for all of them.
func (s *Scheduler) RunCycle(ctx context.Context) CycleReport {
	s.state.Store(int32(Cycling))
	defer s.state.Store(int32(Idle))

	rep := CycleReport{ID: uuid.NewString(), Started: time.Now()}
	log := s.Logger.With(zap.String("cycle_id", rep.ID))

	var tasks []task
	for _, t := range s.Targets.List() {
		for _, ep := range t.Endpoints {
			tasks = append(tasks, task{target: t, endpoint: ep})
		}
		tasks = append(tasks, task{target: t})
		rep.Checks += len(t.Endpoints)
		rep.Certificates++
	}
	log.Debug("cycle_started", zap.Int("tasks", len(tasks)))

	var sem chan struct{}
	if s.Concurrency > 0 {
		sem = make(chan struct{}, s.Concurrency)
	}

	var panicked atomic.Int32
	var wg conc.WaitGroup
dispatch:
	for _, tk := range tasks {
		tk := tk // per-iteration copy (go directive < 1.22)
		if sem != nil {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				break dispatch
			}
		}
		wg.Go(func() {
			if sem != nil {
				defer func() { <-sem }()
			}
			var pc panics.Catcher
			pc.Try(func() { s.runTask(ctx, log, tk) })
			if r := pc.Recovered(); r != nil {
				panicked.Add(1)
				log.Error("task_panicked",
					zap.String("site", tk.target.Name),
					zap.String("endpoint", tk.endpoint),
					zap.Any("panic", r.Value),
					zap.ByteString("stack", r.Stack),
				)
			}
		})
	}
	wg.Wait()

	rep.Duration = time.Since(rep.Started)
	rep.Panics = int(panicked.Load())

	if ctx.Err() != nil {
		log.Info("cycle_aborted", zap.Duration("elapsed", rep.Duration))
		return rep
	}

	s.cycles.Add(1)
	s.recorder().RecordCycle(rep.Duration, time.Now())
	log.Info("cycle_completed",
		zap.Int("checks", rep.Checks),
		zap.Int("certificates", rep.Certificates),
		zap.Int("panics", rep.Panics),
		zap.Duration("elapsed", rep.Duration),
	)
	return rep
}

func (s *Scheduler) runTask(ctx context.Context, log *zap.Logger, tk task) {
	cctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	if tk.endpoint == "" {
		s.inspect(ctx, cctx, log, tk.target)
		return
	}

	out := s.Checker.Check(cctx, tk.target, tk.endpoint)
	// shutdown: leave no partial record behind
	if ctx.Err() != nil {
		return
	}
	s.recorder().RecordCheck(out)

	fields := []zap.Field{
		zap.String("site", out.Site),
		zap.String("endpoint", out.Endpoint),
		zap.Bool("up", out.Up),
		zap.Duration("elapsed", out.Elapsed),
	}
	if out.StatusCode != nil {
		fields = append(fields, zap.Int("status", *out.StatusCode))
	}
	if out.Reason != "" {
		log.Warn("check_failed", append(fields, zap.String("reason", out.Reason))...)
		return
	}
	log.Debug("checked", fields...)
}

func (s *Scheduler) inspect(parent, ctx context.Context, log *zap.Logger, t domain.Target) {
	st := s.Inspector.Inspect(ctx, t)
	if parent.Err() != nil {
		return
	}
	s.recorder().RecordCertificate(st)

	if st.Days != nil {
		log.Debug("certificate_checked", zap.String("site", t.Name), zap.Int("days", *st.Days))
		return
	}

	fields := []zap.Field{zap.String("site", t.Name), zap.String("reason", st.Reason)}
	if host := probe.ExtractHost(t.BaseURL); host != "" && s.DNS != nil {
		d := s.DNS.Diagnose(parent, host)
		fields = append(fields, zap.String("dns", d.Class), zap.Int("dns_addrs", d.Addrs))
		if d.Err != nil {
			fields = append(fields, zap.NamedError("dns_error", d.Err))
		}
	}
	log.Warn("certificate_check_failed", fields...)
}
