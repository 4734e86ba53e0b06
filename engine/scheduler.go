package engine

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler drives periodic evaluation passes. Ticks are delivered to
// a single worker over a work channel, so passes never overlap and
// there are no shared mutable timers; a tick arriving while a pass is
// still running is dropped.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
	work     chan struct{}
	log      *slog.Logger
}

func NewScheduler(e *Engine, interval time.Duration, log *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		engine:   e,
		interval: interval,
		work:     make(chan struct{}, 1),
		log:      log,
	}
}

// Trigger enqueues an immediate pass without waiting for the ticker.
func (s *Scheduler) Trigger() {
	select {
	case s.work <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is done, executing evaluation passes as ticks
// arrive.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Trigger()
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.work:
			filled, err := s.engine.EvaluatePending(ctx)
			if err != nil {
				s.log.Error("evaluation pass", "err", err)
				continue
			}
			if filled > 0 {
				s.log.Info("evaluation pass", "filled", filled)
			}
		}
	}
}
