package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"blogpilot/internal/config"
)

func testConfig() config.Schedule {
	return config.Schedule{
		CrawlAt:    "08:00",
		PublishAt:  "09:00,15:00",
		MonitorAt:  "18:00",
		ReportDay:  "monday",
		IntervalMC: 1,
	}
}

type callLog struct {
	calls []string
}

func (c *callLog) job(name string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		c.calls = append(c.calls, name)
		return nil
	}
}

func testScheduler(log *callLog) *Scheduler {
	return &Scheduler{
		Cfg: testConfig(),
		Jobs: Jobs{
			Crawl:   log.job("crawl"),
			Publish: log.job("publish"),
			Monitor: log.job("monitor"),
			Report:  log.job("report"),
		},
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := parseClock("08:30")
	if err != nil || h != 8 || m != 30 {
		t.Fatalf("parseClock = %d:%d, %v", h, m, err)
	}
	for _, bad := range []string{"", "8", "25:00", "08:61", "a:b"} {
		if _, _, err := parseClock(bad); err == nil {
			t.Errorf("parseClock(%q) did not fail", bad)
		}
	}
}

func TestTickFiresDueSlots(t *testing.T) {
	log := &callLog{}
	s := testScheduler(log)

	// 2026-03-03 is a Tuesday.
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	s.last = day.Add(7*time.Hour + 59*time.Minute)
	s.tick(t.Context(), day.Add(8*time.Hour))

	if len(log.calls) != 1 || log.calls[0] != "crawl" {
		t.Fatalf("calls = %v, want [crawl]", log.calls)
	}
}

func TestTickDoesNotRefire(t *testing.T) {
	log := &callLog{}
	s := testScheduler(log)

	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	s.last = day.Add(7*time.Hour + 59*time.Minute)
	s.tick(t.Context(), day.Add(8*time.Hour))
	s.tick(t.Context(), day.Add(8*time.Hour+time.Minute))
	s.tick(t.Context(), day.Add(8*time.Hour+2*time.Minute))

	if len(log.calls) != 1 {
		t.Fatalf("calls = %v, want a single crawl", log.calls)
	}
}

func TestTickFiresBothPublishSlots(t *testing.T) {
	log := &callLog{}
	s := testScheduler(log)

	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	s.last = day.Add(8*time.Hour + 30*time.Minute)
	// A long gap covers both publish slots at once.
	s.tick(t.Context(), day.Add(16*time.Hour))

	want := []string{"publish", "publish"}
	if strings.Join(log.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", log.calls, want)
	}
}

func TestTickReportOnlyOnReportDay(t *testing.T) {
	log := &callLog{}
	s := testScheduler(log)

	// Tuesday: monitor fires, report does not.
	tuesday := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	s.last = tuesday.Add(17*time.Hour + 59*time.Minute)
	s.tick(t.Context(), tuesday.Add(18*time.Hour))
	if strings.Join(log.calls, ",") != "monitor" {
		t.Fatalf("tuesday calls = %v", log.calls)
	}

	// Monday: both fire.
	log.calls = nil
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	s.last = monday.Add(17*time.Hour + 59*time.Minute)
	s.tick(t.Context(), monday.Add(18*time.Hour))
	if strings.Join(log.calls, ",") != "monitor,report" {
		t.Fatalf("monday calls = %v", log.calls)
	}
}

func TestTickFiresSlotBeforeMidnight(t *testing.T) {
	log := &callLog{}
	s := testScheduler(log)
	s.Cfg.PublishAt = "23:55"

	// Last check before midnight, next one after. The 23:55 slot sits
	// between them and must still fire exactly once.
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	s.last = day.Add(23*time.Hour + 50*time.Minute)
	s.tick(t.Context(), day.Add(24*time.Hour+5*time.Minute))

	if strings.Join(log.calls, ",") != "publish" {
		t.Fatalf("calls = %v, want [publish]", log.calls)
	}

	s.tick(t.Context(), day.Add(24*time.Hour+6*time.Minute))
	if len(log.calls) != 1 {
		t.Fatalf("calls = %v, slot refired after midnight", log.calls)
	}
}

func TestTickSkipsPastSlotsOnStart(t *testing.T) {
	log := &callLog{}
	s := testScheduler(log)

	// Starting mid-afternoon must not replay the morning slots.
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	s.last = day.Add(14 * time.Hour)
	s.tick(t.Context(), day.Add(14*time.Hour+time.Minute))

	if len(log.calls) != 0 {
		t.Fatalf("calls = %v, want none", log.calls)
	}
}

func TestRunOnce(t *testing.T) {
	log := &callLog{}
	s := testScheduler(log)

	if err := s.RunOnce(t.Context()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	want := "crawl,publish,monitor,report"
	if strings.Join(log.calls, ",") != want {
		t.Fatalf("calls = %v, want %s", log.calls, want)
	}
}

func TestRunOnceStopsOnError(t *testing.T) {
	log := &callLog{}
	s := testScheduler(log)
	s.Jobs.Publish = func(ctx context.Context) error { return errors.New("boom") }

	err := s.RunOnce(t.Context())
	if err == nil || !strings.Contains(err.Error(), "publish failed") {
		t.Fatalf("err = %v", err)
	}
	if strings.Join(log.calls, ",") != "crawl" {
		t.Fatalf("calls = %v, want crawl only", log.calls)
	}
}

func TestBuildPlist(t *testing.T) {
	data, err := BuildPlist(AgentOptions{
		ProgramPath: "/usr/local/bin/blogpilot",
		ProgramArgs: []string{"schedule"},
		StdOutPath:  "/tmp/blogpilot.log",
		StdErrPath:  "/tmp/blogpilot.log",
	})
	if err != nil {
		t.Fatalf("build plist: %v", err)
	}
	s := string(data)
	for _, want := range []string{
		"<string>" + AgentLabel + "</string>",
		"<string>/usr/local/bin/blogpilot</string>",
		"<string>schedule</string>",
		"<key>KeepAlive</key>",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("plist missing %q", want)
		}
	}
}

func TestBuildPlistRequiresProgram(t *testing.T) {
	if _, err := BuildPlist(AgentOptions{}); err == nil {
		t.Fatal("expected an error for missing program path")
	}
}
