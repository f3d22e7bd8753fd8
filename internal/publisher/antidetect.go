// Package publisher pushes approved posts to the blog platform on a
// schedule that stays under the platform's automation heuristics.
package publisher

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"blogpilot/internal/config"
)

// Limits are the pacing rules for one blog. History timestamps are
// interpreted in UTC; day caps apply to UTC calendar days and week caps to
// a rolling 7-day window.
type Limits struct {
	MinInterval    time.Duration
	MaxPerDay      int
	MaxPerWeek     int
	PreferredHours []int
	Jitter         time.Duration
}

// DefaultLimits mirrors the configured defaults: 4 hours between posts,
// 2 per day, 5 per week.
func DefaultLimits() Limits {
	return Limits{
		MinInterval:    4 * time.Hour,
		MaxPerDay:      2,
		MaxPerWeek:     5,
		PreferredHours: []int{9, 15, 20},
		Jitter:         30 * time.Minute,
	}
}

// LimitsFromConfig converts publish config into limits, falling back to
// defaults for unset fields.
func LimitsFromConfig(cfg config.Publish) Limits {
	l := DefaultLimits()
	if cfg.MinIntervalHours > 0 {
		l.MinInterval = time.Duration(cfg.MinIntervalHours) * time.Hour
	}
	if cfg.MaxPerDay > 0 {
		l.MaxPerDay = cfg.MaxPerDay
	}
	if cfg.MaxPerWeek > 0 {
		l.MaxPerWeek = cfg.MaxPerWeek
	}
	if len(cfg.PreferredHours) > 0 {
		l.PreferredHours = cfg.PreferredHours
	}
	if cfg.JitterMinutes > 0 {
		l.Jitter = time.Duration(cfg.JitterMinutes) * time.Minute
	}
	return l
}

// CanPublish reports whether publishing at now would stay inside the
// limits given the past publish history, with a short reason when it
// would not. It is a pure function of its arguments.
func (l Limits) CanPublish(history []time.Time, now time.Time) (bool, string) {
	now = now.UTC()
	day := 0
	week := 0
	for _, h := range history {
		h = h.UTC()
		if h.After(now) {
			continue
		}
		if now.Sub(h) < l.MinInterval {
			return false, fmt.Sprintf("last publish %s ago, minimum interval is %s",
				now.Sub(h).Round(time.Minute), l.MinInterval)
		}
		if sameDay(h, now) {
			day++
		}
		if now.Sub(h) < 7*24*time.Hour {
			week++
		}
	}
	if day >= l.MaxPerDay {
		return false, fmt.Sprintf("daily cap of %d reached", l.MaxPerDay)
	}
	if week >= l.MaxPerWeek {
		return false, fmt.Sprintf("weekly cap of %d reached", l.MaxPerWeek)
	}
	return true, ""
}

// NextPublishTime returns the earliest preferred-hour slot at or after now
// at which CanPublish holds. Growing the history never moves the result
// earlier. The returned time carries no jitter; apply Jittered at
// scheduling time.
func (l Limits) NextPublishTime(history []time.Time, now time.Time) time.Time {
	now = now.UTC()
	hours := append([]int(nil), l.PreferredHours...)
	if len(hours) == 0 {
		hours = DefaultLimits().PreferredHours
	}
	sort.Ints(hours)

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	// Two weeks of candidate slots is enough for any reachable limit
	// combination; beyond that the week window has fully rolled over.
	for d := 0; d < 15; d++ {
		for _, h := range hours {
			slot := day.AddDate(0, 0, d).Add(time.Duration(h) * time.Hour)
			if slot.Before(now) {
				continue
			}
			if ok, _ := l.CanPublish(history, slot); ok {
				return slot
			}
		}
	}
	// Degenerate limits; fall back to a plain interval after the last
	// publish.
	last := now
	for _, h := range history {
		if h.UTC().After(last) {
			last = h.UTC()
		}
	}
	return last.Add(l.MinInterval)
}

// Jittered offsets a slot by a normally distributed delay (sigma = Jitter)
// so publish times do not land exactly on the hour. The offset is clamped
// to [-Jitter, 2*Jitter].
func (l Limits) Jittered(slot time.Time, rng *rand.Rand) time.Time {
	if l.Jitter <= 0 {
		return slot
	}
	offset := time.Duration(rng.NormFloat64() * float64(l.Jitter))
	if offset > 2*l.Jitter {
		offset = 2 * l.Jitter
	}
	if offset < -l.Jitter {
		offset = -l.Jitter
	}
	return slot.Add(offset)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
