package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs a Collector on a cron schedule.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *Collector
	Ctx       context.Context
	log       *slog.Logger
}

// NewScheduler creates a Scheduler that runs col at every tick of spec, a
// standard five-field cron expression evaluated in loc. Ticks that arrive
// while a run is still going are skipped.
func NewScheduler(ctx context.Context, col *Collector, spec string, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		Cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		Collector: col,
		Ctx:       ctx,
		log:       col.log,
	}
	if _, err := s.Cron.AddFunc(spec, s.collect); err != nil {
		return nil, fmt.Errorf("register collection %q: %w", spec, err)
	}
	return s, nil
}

// Start begins the schedule in its own goroutine.
func (s *Scheduler) Start() {
	s.Cron.Start()
	for _, e := range s.Cron.Entries() {
		s.log.Info("collection scheduled", "next", e.Next)
	}
}

// Stop halts the schedule and waits for a running collection to return.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
}

func (s *Scheduler) collect() {
	if _, err := s.Collector.Run(s.Ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Error("scheduled collection failed", "err", err)
	}
}
