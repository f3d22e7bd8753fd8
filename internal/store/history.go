package store

import (
	"context"
	"database/sql"
	"time"

	"blogpilot/internal/models"
)

// InsertPublishRecord appends one posting history row. Only successful
// publishes count against the rate limits, but failures are kept for audit.
func InsertPublishRecord(ctx context.Context, db *sql.DB, r models.PublishRecord) error {
	var detail any
	if r.Detail.Valid {
		detail = r.Detail.String
	}
	_, err := db.ExecContext(ctx, `INSERT INTO posting_history
        (blog_id, post_id, published_at, success, detail)
        VALUES (?, ?, ?, ?, ?)`,
		r.BlogID, r.PostID, r.PublishedAt.UTC(), r.Success, detail)
	return err
}

// PublishTimes returns the successful publish timestamps for a blog since
// the given time, oldest first. This feeds the rate limiter.
func PublishTimes(ctx context.Context, db *sql.DB, blogID string, since time.Time) ([]time.Time, error) {
	rows, err := db.QueryContext(ctx, `SELECT published_at FROM posting_history
        WHERE blog_id = ? AND success = 1 AND datetime(published_at) >= datetime(?)
        ORDER BY datetime(published_at) ASC`,
		blogID, since.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// RecentPublishRecords returns the latest posting history rows for a blog,
// newest first, including failures.
func RecentPublishRecords(ctx context.Context, db *sql.DB, blogID string, limit int) ([]models.PublishRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `SELECT id, blog_id, post_id, published_at, success, detail
        FROM posting_history WHERE blog_id = ?
        ORDER BY datetime(published_at) DESC LIMIT ?`, blogID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.PublishRecord
	for rows.Next() {
		var r models.PublishRecord
		if err := rows.Scan(&r.ID, &r.BlogID, &r.PostID, &r.PublishedAt, &r.Success, &r.Detail); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// InsertRanking appends one rank observation.
func InsertRanking(ctx context.Context, db *sql.DB, r models.RankingEntry) error {
	_, err := db.ExecContext(ctx, `INSERT INTO ranking_history
        (blog_id, post_id, keyword, rank, checked_at)
        VALUES (?, ?, ?, ?, ?)`,
		r.BlogID, r.PostID, r.Keyword, r.Rank, time.Now().UTC())
	return err
}

// LatestRankings returns the most recent rank per post for a blog.
func LatestRankings(ctx context.Context, db *sql.DB, blogID string) ([]models.RankingEntry, error) {
	rows, err := db.QueryContext(ctx, `SELECT r.id, r.blog_id, r.post_id, r.keyword, r.rank, r.checked_at
        FROM ranking_history r
        JOIN (SELECT post_id, MAX(datetime(checked_at)) AS latest FROM ranking_history
              WHERE blog_id = ? GROUP BY post_id) m
          ON r.post_id = m.post_id AND datetime(r.checked_at) = m.latest
        WHERE r.blog_id = ?
        ORDER BY r.rank ASC`, blogID, blogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.RankingEntry
	for rows.Next() {
		var e models.RankingEntry
		if err := rows.Scan(&e.ID, &e.BlogID, &e.PostID, &e.Keyword, &e.Rank, &e.CheckedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RankingSeries returns all observations for one post, oldest first.
func RankingSeries(ctx context.Context, db *sql.DB, postID string) ([]models.RankingEntry, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, blog_id, post_id, keyword, rank, checked_at
        FROM ranking_history WHERE post_id = ? ORDER BY datetime(checked_at) ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.RankingEntry
	for rows.Next() {
		var e models.RankingEntry
		if err := rows.Scan(&e.ID, &e.BlogID, &e.PostID, &e.Keyword, &e.Rank, &e.CheckedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
