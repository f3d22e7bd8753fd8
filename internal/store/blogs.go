package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"blogpilot/internal/models"
)

// UpsertBlog registers or refreshes a blog row.
func UpsertBlog(ctx context.Context, db *sql.DB, b models.Blog) error {
	if strings.TrimSpace(b.ID) == "" {
		return errors.New("missing blog id")
	}
	_, err := db.ExecContext(ctx, `INSERT INTO blogs
        (id, name, platform, api_base, category, active)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
           name=excluded.name,
           platform=excluded.platform,
           api_base=excluded.api_base,
           category=excluded.category,
           active=excluded.active`,
		b.ID, b.Name, b.Platform, nullIfEmpty(b.APIBase), nullIfEmpty(b.Category), b.Active,
	)
	return err
}

// GetBlog returns the blog with the given ID, or nil when absent.
func GetBlog(ctx context.Context, db *sql.DB, id string) (*models.Blog, error) {
	row := db.QueryRowContext(ctx, `SELECT id, name, platform, api_base, category, active, created_at, last_publish
        FROM blogs WHERE id = ?`, id)
	var b models.Blog
	var apiBase, category sql.NullString
	err := row.Scan(&b.ID, &b.Name, &b.Platform, &apiBase, &category, &b.Active, &b.CreatedAt, &b.LastPublish)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	b.APIBase = apiBase.String
	b.Category = category.String
	return &b, nil
}

// ListBlogs returns all registered blogs.
func ListBlogs(ctx context.Context, db *sql.DB) ([]models.Blog, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, platform, api_base, category, active, created_at, last_publish
        FROM blogs ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Blog
	for rows.Next() {
		var b models.Blog
		var apiBase, category sql.NullString
		if err := rows.Scan(&b.ID, &b.Name, &b.Platform, &apiBase, &category, &b.Active, &b.CreatedAt, &b.LastPublish); err != nil {
			return nil, err
		}
		b.APIBase = apiBase.String
		b.Category = category.String
		out = append(out, b)
	}
	return out, rows.Err()
}

// TouchLastPublish updates the blog's last publish timestamp.
func TouchLastPublish(ctx context.Context, db *sql.DB, id string, at time.Time) error {
	_, err := db.ExecContext(ctx, `UPDATE blogs SET last_publish = ? WHERE id = ?`, at.UTC(), id)
	return err
}
