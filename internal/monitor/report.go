package monitor

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"blogpilot/internal/config"
	"blogpilot/internal/store"
)

// ReportPeriod selects the window a report covers.
type ReportPeriod string

const (
	ReportWeekly  ReportPeriod = "weekly"
	ReportMonthly ReportPeriod = "monthly"
)

func (p ReportPeriod) days() int {
	if p == ReportMonthly {
		return 30
	}
	return 7
}

// Reporter writes markdown performance reports to the reports directory.
type Reporter struct {
	Blog config.Blog
	AI   config.AI
	Dir  string
	now  func() time.Time
}

func NewReporter(blog config.Blog, ai config.AI, dir string) *Reporter {
	return &Reporter{Blog: blog, AI: ai, Dir: dir, now: time.Now}
}

// Write renders the report for the period and saves it under the reports
// dir with a date-stamped filename. It returns the path written.
func (r *Reporter) Write(ctx context.Context, db *sql.DB, period ReportPeriod) (string, error) {
	body, err := r.Render(ctx, db, period)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create reports dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s-%s.md", r.Blog.ID, period, r.now().UTC().Format("2006-01-02"))
	path := filepath.Join(r.Dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// Render builds the markdown report without writing it.
func (r *Reporter) Render(ctx context.Context, db *sql.DB, period ReportPeriod) (string, error) {
	now := r.now().UTC()
	since := now.AddDate(0, 0, -period.days())

	published, err := store.PublishedCountSince(ctx, db, r.Blog.ID, since)
	if err != nil {
		return "", fmt.Errorf("failed to count published posts: %w", err)
	}
	created, err := store.CreatedCountSince(ctx, db, r.Blog.ID, since)
	if err != nil {
		return "", fmt.Errorf("failed to count generated posts: %w", err)
	}
	avgSEO, err := store.AvgSEOScoreSince(ctx, db, r.Blog.ID, since)
	if err != nil {
		return "", fmt.Errorf("failed to average seo scores: %w", err)
	}
	bestRank, avgRank, err := store.RankSummarySince(ctx, db, r.Blog.ID, since)
	if err != nil {
		return "", fmt.Errorf("failed to summarize rankings: %w", err)
	}
	cost := float64(created) * r.AI.CostPerPost

	title := "주간 리포트"
	if period == ReportMonthly {
		title = "월간 리포트"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s - %s\n\n", title, r.Blog.Name)
	fmt.Fprintf(&b, "기간: %s ~ %s\n\n", since.Format("2006-01-02"), now.Format("2006-01-02"))
	b.WriteString("| 항목 | 값 |\n| --- | --- |\n")
	fmt.Fprintf(&b, "| 발행 글 수 | %d |\n", published)
	fmt.Fprintf(&b, "| 생성 글 수 | %d |\n", created)
	fmt.Fprintf(&b, "| 평균 SEO 점수 | %.1f |\n", avgSEO)
	if bestRank > 0 {
		fmt.Fprintf(&b, "| 최고 순위 | %d위 |\n", bestRank)
		fmt.Fprintf(&b, "| 평균 순위 | %.1f위 |\n", avgRank)
	} else {
		b.WriteString("| 최고 순위 | 순위권 밖 |\n")
	}
	fmt.Fprintf(&b, "| 생성 비용(추정) | $%.2f |\n", cost)
	return b.String(), nil
}
