package research

import (
	"context"
	"database/sql"

	"blogpilot/internal/store"
)

// Trend directions.
const (
	TrendRising  = "rising"
	TrendFalling = "falling"
	TrendStable  = "stable"
)

// Trend summarizes how a keyword's search volume moved over its history.
type Trend struct {
	Term      string
	Direction string
	ChangePct float64
}

// KeywordTrend compares the newest volume observation against the
// average of the prior ones. Fewer than two observations is stable.
func KeywordTrend(ctx context.Context, db *sql.DB, blogID, term string) (Trend, error) {
	hist, err := store.KeywordHistory(ctx, db, blogID, term, 0)
	if err != nil {
		return Trend{}, err
	}
	t := Trend{Term: term, Direction: TrendStable}
	if len(hist) < 2 {
		return t, nil
	}
	var sum float64
	for _, h := range hist[:len(hist)-1] {
		sum += float64(h.Volume)
	}
	avg := sum / float64(len(hist)-1)
	latest := float64(hist[len(hist)-1].Volume)
	if avg == 0 {
		if latest > 0 {
			t.Direction = TrendRising
			t.ChangePct = 100
		}
		return t, nil
	}
	t.ChangePct = (latest - avg) / avg * 100
	switch {
	case t.ChangePct >= 10:
		t.Direction = TrendRising
	case t.ChangePct <= -10:
		t.Direction = TrendFalling
	}
	return t, nil
}
