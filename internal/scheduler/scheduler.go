// Package scheduler runs the daily automation loop: crawl in the morning,
// generate and publish at the configured slots, check rankings in the
// evening, and write the weekly report.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"blogpilot/internal/config"
)

// Jobs are the actions the loop can fire. Nil entries are skipped.
type Jobs struct {
	Crawl   func(ctx context.Context) error
	Publish func(ctx context.Context) error
	Monitor func(ctx context.Context) error
	Report  func(ctx context.Context) error
}

// Scheduler fires jobs when their configured clock times pass.
type Scheduler struct {
	Cfg    config.Schedule
	Jobs   Jobs
	Logger *log.Logger

	now  func() time.Time
	last time.Time
}

func New(cfg config.Schedule, jobs Jobs, logger *log.Logger) *Scheduler {
	return &Scheduler{Cfg: cfg, Jobs: jobs, Logger: logger, now: time.Now}
}

// Run loops until the context is cancelled, checking for due slots every
// check interval. Slots that already passed before Run started are skipped.
func (s *Scheduler) Run(ctx context.Context) error {
	interval := time.Duration(s.Cfg.IntervalMC) * time.Minute
	if interval <= 0 {
		interval = time.Minute
	}
	s.last = s.now()
	if s.Logger != nil {
		s.Logger.Printf("scheduler started, checking every %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx, s.now())
		}
	}
}

// RunOnce executes one full cycle of all jobs and returns the first error.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	for _, j := range []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"crawl", s.Jobs.Crawl},
		{"publish", s.Jobs.Publish},
		{"monitor", s.Jobs.Monitor},
		{"report", s.Jobs.Report},
	} {
		if j.fn == nil {
			continue
		}
		if err := j.fn(ctx); err != nil {
			return fmt.Errorf("%s failed: %w", j.name, err)
		}
	}
	return nil
}

// tick fires every slot that falls in (s.last, now].
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	defer func() { s.last = now }()

	if s.dueAt(s.Cfg.CrawlAt, now) {
		s.fire(ctx, "crawl", s.Jobs.Crawl)
	}
	for _, at := range strings.Split(s.Cfg.PublishAt, ",") {
		if s.dueAt(at, now) {
			s.fire(ctx, "publish", s.Jobs.Publish)
		}
	}
	if s.dueAt(s.Cfg.MonitorAt, now) {
		s.fire(ctx, "monitor", s.Jobs.Monitor)
		if strings.EqualFold(now.Weekday().String(), strings.TrimSpace(s.Cfg.ReportDay)) {
			s.fire(ctx, "report", s.Jobs.Report)
		}
	}
}

func (s *Scheduler) dueAt(clock string, now time.Time) bool {
	h, m, err := parseClock(clock)
	if err != nil {
		return false
	}
	// Check the slot on both calendar days the window may span, so a
	// slot between the last pre-midnight tick and midnight still fires.
	for _, day := range []time.Time{s.last, now} {
		slot := time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, now.Location())
		if slot.After(s.last) && !slot.After(now) {
			return true
		}
	}
	return false
}

func (s *Scheduler) fire(ctx context.Context, name string, fn func(ctx context.Context) error) {
	if fn == nil {
		return
	}
	if s.Logger != nil {
		s.Logger.Printf("running %s", name)
	}
	if err := fn(ctx); err != nil && s.Logger != nil {
		s.Logger.Printf("%s failed: %v", name, err)
	}
}

// parseClock parses "HH:MM".
func parseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock time %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}
