package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// Scheduler runs the price-check job once immediately and then on a fixed
// interval until its context is cancelled. It is a process-wide singleton:
// every track request calls EnsureStarted, but only the first call arms the
// timer.
type Scheduler struct {
	job      *PriceCheckJob
	interval time.Duration
	once     sync.Once
}

func New(job *PriceCheckJob, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{job: job, interval: interval}
}

// EnsureStarted arms the hourly timer exactly once, no matter how many times
// it is called. Safe for concurrent use.
func (s *Scheduler) EnsureStarted(ctx context.Context) {
	s.once.Do(func() {
		go s.run(ctx)
	})
}

func (s *Scheduler) run(ctx context.Context) {
	log.Printf("scheduler: started, interval %v", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// One pass right away so a freshly tracked product gets its first
	// scheduled check without waiting a full interval.
	s.job.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler: stopping, context cancelled")
			return
		case <-ticker.C:
			s.job.RunCycle(ctx)
		}
	}
}
