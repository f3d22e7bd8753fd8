package store

import (
	"context"
	"database/sql"
	"time"
)

// PublishedCountSince counts posts published for a blog at or after since.
func PublishedCountSince(ctx context.Context, db *sql.DB, blogID string, since time.Time) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts
        WHERE blog_id = ? AND status = 'published'
          AND datetime(published_at) >= datetime(?)`,
		blogID, since.UTC().Format("2006-01-02 15:04:05")).Scan(&n)
	return n, err
}

// CreatedCountSince counts posts generated for a blog at or after since,
// regardless of status.
func CreatedCountSince(ctx context.Context, db *sql.DB, blogID string, since time.Time) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts
        WHERE blog_id = ? AND datetime(created_at) >= datetime(?)`,
		blogID, since.UTC().Format("2006-01-02 15:04:05")).Scan(&n)
	return n, err
}

// AvgSEOScoreSince averages the SEO score of posts created at or after
// since. Returns 0 when there are none.
func AvgSEOScoreSince(ctx context.Context, db *sql.DB, blogID string, since time.Time) (float64, error) {
	var avg sql.NullFloat64
	err := db.QueryRowContext(ctx, `SELECT AVG(seo_score) FROM posts
        WHERE blog_id = ? AND datetime(created_at) >= datetime(?)`,
		blogID, since.UTC().Format("2006-01-02 15:04:05")).Scan(&avg)
	if err != nil {
		return 0, err
	}
	return avg.Float64, nil
}

// RankSummarySince returns the best (lowest nonzero) and average rank
// observed at or after since. Zero ranks mean the post was not found in
// the search window and are excluded. best is 0 when nothing ranked.
func RankSummarySince(ctx context.Context, db *sql.DB, blogID string, since time.Time) (best int, avg float64, err error) {
	var b sql.NullInt64
	var a sql.NullFloat64
	err = db.QueryRowContext(ctx, `SELECT MIN(rank), AVG(rank) FROM ranking_history
        WHERE blog_id = ? AND rank > 0 AND datetime(checked_at) >= datetime(?)`,
		blogID, since.UTC().Format("2006-01-02 15:04:05")).Scan(&b, &a)
	if err != nil {
		return 0, 0, err
	}
	return int(b.Int64), a.Float64, nil
}
