package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"blogpilot/internal/models"
)

// UpsertKeyword stores a researched keyword, refreshing its metrics on
// conflict, and appends a history row for trend tracking.
func UpsertKeyword(ctx context.Context, db *sql.DB, k models.Keyword) error {
	if strings.TrimSpace(k.Term) == "" || strings.TrimSpace(k.BlogID) == "" {
		return errors.New("missing keyword term or blog id")
	}
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, `INSERT INTO keywords
        (blog_id, term, volume, competition, relevance, score, checked_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(blog_id, term) DO UPDATE SET
           volume=excluded.volume,
           competition=excluded.competition,
           relevance=excluded.relevance,
           score=excluded.score,
           checked_at=excluded.checked_at`,
		k.BlogID, k.Term, k.Volume, k.Competition, k.Relevance, k.Score, now,
	)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT INTO keyword_history (blog_id, term, volume, score, checked_at)
        VALUES (?, ?, ?, ?, ?)`, k.BlogID, k.Term, k.Volume, k.Score, now)
	return err
}

// TopKeywords returns unused keywords ordered by score.
func TopKeywords(ctx context.Context, db *sql.DB, blogID string, minScore float64, limit int) ([]models.Keyword, error) {
	q := `SELECT id, blog_id, term, volume, competition, relevance, score, used, checked_at
          FROM keywords WHERE blog_id = ? AND used = 0 AND score >= ?
          ORDER BY score DESC`
	args := []any{blogID, minScore}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Keyword
	for rows.Next() {
		var k models.Keyword
		if err := rows.Scan(&k.ID, &k.BlogID, &k.Term, &k.Volume, &k.Competition,
			&k.Relevance, &k.Score, &k.Used, &k.CheckedAt); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// MarkKeywordUsed flags a keyword as consumed by a generated post.
func MarkKeywordUsed(ctx context.Context, db *sql.DB, blogID, term string) error {
	_, err := db.ExecContext(ctx, `UPDATE keywords SET used = 1 WHERE blog_id = ? AND term = ?`, blogID, term)
	return err
}

// KeywordHistory returns score observations for a term, oldest first.
func KeywordHistory(ctx context.Context, db *sql.DB, blogID, term string, limit int) ([]models.Keyword, error) {
	q := `SELECT id, blog_id, term, volume, score, checked_at FROM keyword_history
          WHERE blog_id = ? AND term = ? ORDER BY datetime(checked_at) ASC`
	args := []any{blogID, term}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Keyword
	for rows.Next() {
		var k models.Keyword
		if err := rows.Scan(&k.ID, &k.BlogID, &k.Term, &k.Volume, &k.Score, &k.CheckedAt); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// UpsertCompetitorPost stores a scanned competitor post.
func UpsertCompetitorPost(ctx context.Context, db *sql.DB, p models.CompetitorPost) error {
	if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.BlogID) == "" {
		return errors.New("missing competitor post id or blog id")
	}
	_, err := db.ExecContext(ctx, `INSERT INTO competitor_posts
        (id, blog_id, url, title, summary, author)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
           title=excluded.title,
           summary=excluded.summary,
           author=excluded.author`,
		p.ID, p.BlogID, p.URL, p.Title, nullIfEmpty(p.Summary), nullIfEmpty(p.Author),
	)
	return err
}

// CompetitorPosts lists scanned competitor posts for a blog, newest first.
func CompetitorPosts(ctx context.Context, db *sql.DB, blogID string, limit int) ([]models.CompetitorPost, error) {
	q := `SELECT id, blog_id, url, title, summary, author, fetched_at FROM competitor_posts
          WHERE blog_id = ? ORDER BY datetime(fetched_at) DESC`
	args := []any{blogID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.CompetitorPost
	for rows.Next() {
		var p models.CompetitorPost
		var summary, author sql.NullString
		if err := rows.Scan(&p.ID, &p.BlogID, &p.URL, &p.Title, &summary, &author, &p.FetchedAt); err != nil {
			return nil, err
		}
		p.Summary = summary.String
		p.Author = author.String
		out = append(out, p)
	}
	return out, rows.Err()
}
