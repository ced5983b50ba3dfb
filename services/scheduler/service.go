package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var ErrInvalidInterval = errors.New("scheduler interval must be positive")

// Job is one scheduled pass. Its context is not cancelled by Stop.
type Job func(ctx context.Context)

// Status is a snapshot of the scheduler state.
type Status struct {
	Running   bool          `json:"running"`
	InFlight  bool          `json:"inFlight"`
	Interval  time.Duration `json:"interval"`
	LastRunAt time.Time     `json:"lastRunAt,omitempty"`
	NextRunAt time.Time     `json:"nextRunAt,omitempty"`
	Runs      int           `json:"runs"`
	Skipped   int           `json:"skipped"`
}

// Service runs a job immediately on Start and then on every interval tick.
// Runs never overlap.
type Service struct {
	interval time.Duration
	job      Job
	log      zerolog.Logger

	// Runtime state
	mu       sync.RWMutex
	running  bool
	inFlight bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	lastRun time.Time
	nextRun time.Time
	runs    int
	skipped int
}

// New creates a scheduler for job.
func New(interval time.Duration, job Job, log zerolog.Logger) (*Service, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	return &Service{interval: interval, job: job, log: log}, nil
}

// Start begins the scheduler background loop
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.wg.Add(1)
	go s.loop()

	s.log.Info().Dur("interval", s.interval).Msg("scheduler started")
	return nil
}

// Stop halts the ticker and waits for an in-flight run to finish, or for ctx
// to expire, whichever comes first.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.cancel()
	s.running = false
	s.nextRun = time.Time{}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stopped before the current run finished")
		return ctx.Err()
	}
}

// Status reports the current scheduler state.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Running:   s.running,
		InFlight:  s.inFlight,
		Interval:  s.interval,
		LastRunAt: s.lastRun,
		NextRunAt: s.nextRun,
		Runs:      s.runs,
		Skipped:   s.skipped,
	}
}

func (s *Service) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start
	s.trigger()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.trigger()
		}
	}
}

// trigger starts a run unless one is still going.
func (s *Service) trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}
	s.nextRun = time.Now().Add(s.interval)
	if s.inFlight {
		s.skipped++
		s.log.Warn().Time("next_run", s.nextRun).Msg("previous run still in progress, skipping this tick")
		return
	}
	s.inFlight = true
	s.lastRun = time.Now()
	s.runs++

	jobCtx := context.WithoutCancel(s.ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			s.inFlight = false
			s.mu.Unlock()
		}()
		s.job(jobCtx)
		s.log.Info().Time("next_run", s.Status().NextRunAt).Msg("scheduled run finished")
	}()
}
