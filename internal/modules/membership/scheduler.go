package membership

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"courtbooking/internal/domain"
)

type expiryRunner interface {
	RunExpiryScan(ctx context.Context, today time.Time) (RunReport, error)
}

// Scheduler fires the expiry scan once a day at a fixed local time. Runs never
// overlap: a run that starts while another is in progress is skipped.
type Scheduler struct {
	runner expiryRunner
	at     int
	loc    *time.Location
	now    func() time.Time
	mu     sync.Mutex
}

func NewScheduler(runner expiryRunner, runAt string, loc *time.Location) (*Scheduler, error) {
	at, err := domain.ParseClock(runAt)
	if err != nil || at >= domain.MinutesPerDay {
		return nil, fmt.Errorf("invalid expiry run time %q", runAt)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{runner: runner, at: at, loc: loc, now: time.Now}, nil
}

// NextRun returns the first scheduled instant strictly after from.
func (s *Scheduler) NextRun(from time.Time) time.Time {
	local := from.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.at/60, s.at%60, 0, 0, s.loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, s.at/60, s.at%60, 0, 0, s.loc)
	}
	return next
}

// Start blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	log.Printf("membership_expiry scheduler started run_at=%s tz=%s", domain.FormatClock(s.at), s.loc)
	for {
		next := s.NextRun(s.now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Printf("membership_expiry scheduler stopped")
			return
		case <-timer.C:
			if _, _, err := s.RunOnce(ctx, s.now()); err != nil {
				log.Printf("membership_expiry run failed error=%q", err.Error())
			}
		}
	}
}

// RunOnce scans as of the local calendar day of now.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) (RunReport, bool, error) {
	return s.RunFor(ctx, domain.DayIn(now, s.loc))
}

// RunFor scans as of day. The boolean is false when the run was skipped
// because another run holds the lock.
func (s *Scheduler) RunFor(ctx context.Context, day time.Time) (RunReport, bool, error) {
	if !s.mu.TryLock() {
		log.Printf("membership_expiry run skipped reason=already_running day=%s", day.Format(domain.DateLayout))
		return RunReport{}, false, nil
	}
	defer s.mu.Unlock()

	report, err := s.runner.RunExpiryScan(ctx, domain.Day(day))
	return report, true, err
}
