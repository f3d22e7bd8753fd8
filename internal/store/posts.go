package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"blogpilot/internal/models"
)

const postCols = `id, blog_id, title, body, category, keyword, status, seo_score, quality_score, quality_grade, remote_url, created_at, updated_at, published_at`

func scanPost(row interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	err := row.Scan(&p.ID, &p.BlogID, &p.Title, &p.Body, &p.Category, &p.Keyword,
		&p.Status, &p.SEOScore, &p.QualityScore, &p.QualityGrade, &p.RemoteURL,
		&p.CreatedAt, &p.UpdatedAt, &p.PublishedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertPost inserts or replaces a post by ID.
func UpsertPost(ctx context.Context, db *sql.DB, p models.Post) error {
	if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.BlogID) == "" {
		return errors.New("missing post id or blog id")
	}
	if p.Status == "" {
		p.Status = models.StatusDraft
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `INSERT INTO posts
        (id, blog_id, title, body, category, keyword, status, seo_score, quality_score, quality_grade, remote_url, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
           title=excluded.title,
           body=excluded.body,
           category=excluded.category,
           keyword=excluded.keyword,
           status=excluded.status,
           seo_score=excluded.seo_score,
           quality_score=excluded.quality_score,
           quality_grade=excluded.quality_grade,
           updated_at=excluded.updated_at`,
		p.ID, p.BlogID, p.Title, p.Body, p.Category, p.Keyword, p.Status,
		p.SEOScore, p.QualityScore, p.QualityGrade, nullIfEmpty(p.RemoteURL.String),
		p.CreatedAt, time.Now().UTC(),
	)
	return err
}

// GetPost returns the post with the given ID, or nil when absent.
func GetPost(ctx context.Context, db *sql.DB, id string) (*models.Post, error) {
	row := db.QueryRowContext(ctx, `SELECT `+postCols+` FROM posts WHERE id = ?`, id)
	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// ListPosts returns posts for a blog, newest first, optionally filtered by
// status. blogID may be empty to list across blogs.
func ListPosts(ctx context.Context, db *sql.DB, blogID, status string, limit, offset int) ([]models.Post, error) {
	q := `SELECT ` + postCols + ` FROM posts WHERE 1=1`
	args := []any{}
	if blogID != "" {
		q += ` AND blog_id = ?`
		args = append(args, blogID)
	}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY datetime(created_at) DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
		if offset > 0 {
			q += ` OFFSET ?`
			args = append(args, offset)
		}
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// OldestByStatus returns the oldest post in the given status, or nil.
func OldestByStatus(ctx context.Context, db *sql.DB, blogID, status string) (*models.Post, error) {
	row := db.QueryRowContext(ctx, `SELECT `+postCols+` FROM posts
        WHERE blog_id = ? AND status = ?
        ORDER BY datetime(created_at) ASC LIMIT 1`, blogID, status)
	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// BestByScore returns the highest-scoring post in the given status, or nil.
func BestByScore(ctx context.Context, db *sql.DB, blogID, status string) (*models.Post, error) {
	row := db.QueryRowContext(ctx, `SELECT `+postCols+` FROM posts
        WHERE blog_id = ? AND status = ?
        ORDER BY seo_score DESC, datetime(created_at) ASC LIMIT 1`, blogID, status)
	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// RecentPublished returns the latest published posts for duplicate checks.
func RecentPublished(ctx context.Context, db *sql.DB, blogID string, limit int) ([]models.Post, error) {
	return ListPosts(ctx, db, blogID, models.StatusPublished, limit, 0)
}

// SetPostStatus moves a post to the given status.
func SetPostStatus(ctx context.Context, db *sql.DB, id, status string) error {
	res, err := db.ExecContext(ctx, `UPDATE posts SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkPublished records a successful publish on the post row itself.
func MarkPublished(ctx context.Context, db *sql.DB, id, remoteURL string, at time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE posts SET status = ?, remote_url = ?, published_at = ?, updated_at = ? WHERE id = ?`,
		models.StatusPublished, nullIfEmpty(remoteURL), at.UTC(), time.Now().UTC(), id)
	return err
}

// DeletePost removes a post and its legal references.
func DeletePost(ctx context.Context, db *sql.DB, id string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM legal_references WHERE post_id = ?`, id); err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountPostsByStatus returns status -> count for a blog.
func CountPostsByStatus(ctx context.Context, db *sql.DB, blogID string) (map[string]int, error) {
	q := `SELECT status, COUNT(*) FROM posts`
	args := []any{}
	if blogID != "" {
		q += ` WHERE blog_id = ?`
		args = append(args, blogID)
	}
	q += ` GROUP BY status`
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}
