package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"blogpilot/internal/models"
)

// UpsertArticle inserts or refreshes a crawled article.
func UpsertArticle(ctx context.Context, db *sql.DB, a models.Article) error {
	if strings.TrimSpace(a.ID) == "" || strings.TrimSpace(a.BlogID) == "" {
		return errors.New("missing article id or blog id")
	}
	_, err := db.ExecContext(ctx, `INSERT INTO articles
        (id, blog_id, url, title, content, category, source_host, published_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
           title=excluded.title,
           content=excluded.content,
           category=excluded.category,
           published_at=excluded.published_at`,
		a.ID, a.BlogID, a.URL, a.Title, a.Content, nullIfEmpty(a.Category),
		nullIfEmpty(a.SourceHost), a.PublishedAt.UTC(),
	)
	return err
}

// UpsertProcessedArticle stores the cleaner's summary for an article.
func UpsertProcessedArticle(ctx context.Context, db *sql.DB, p models.ProcessedArticle) error {
	_, err := db.ExecContext(ctx, `INSERT INTO processed_articles
        (article_id, blog_id, summary, word_count, category, processed_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(article_id) DO UPDATE SET
           summary=excluded.summary,
           word_count=excluded.word_count,
           category=excluded.category,
           processed_at=excluded.processed_at`,
		p.ArticleID, p.BlogID, nullIfEmpty(p.Summary), p.WordCount,
		nullIfEmpty(p.Category), time.Now().UTC(),
	)
	return err
}

// ProcessedArticleFor returns the stored summary for one article, or nil.
func ProcessedArticleFor(ctx context.Context, db *sql.DB, articleID string) (*models.ProcessedArticle, error) {
	row := db.QueryRowContext(ctx, `SELECT article_id, blog_id, summary, word_count, category, processed_at
        FROM processed_articles WHERE article_id = ?`, articleID)
	var p models.ProcessedArticle
	var summary, category sql.NullString
	err := row.Scan(&p.ArticleID, &p.BlogID, &summary, &p.WordCount, &category, &p.ProcessedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Summary = summary.String
	p.Category = category.String
	return &p, nil
}

// ArticleURLs returns the set of already-stored article URLs for a blog,
// used as a cheap pre-filter before scraping.
func ArticleURLs(ctx context.Context, db *sql.DB, blogID string) (map[string]struct{}, error) {
	rows, err := db.QueryContext(ctx, `SELECT url FROM articles WHERE blog_id = ?`, blogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	urls := make(map[string]struct{})
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		if strings.TrimSpace(u) != "" {
			urls[u] = struct{}{}
		}
	}
	return urls, rows.Err()
}

// UnprocessedArticles returns articles not yet fed into generation.
func UnprocessedArticles(ctx context.Context, db *sql.DB, blogID, category string, limit int) ([]models.Article, error) {
	q := `SELECT id, blog_id, url, title, content, category, source_host, published_at, fetched_at, processed
          FROM articles WHERE blog_id = ? AND processed = 0`
	args := []any{blogID}
	if category != "" {
		q += ` AND category = ?`
		args = append(args, category)
	}
	q += ` ORDER BY datetime(published_at) DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Article
	for rows.Next() {
		var a models.Article
		var cat, host sql.NullString
		if err := rows.Scan(&a.ID, &a.BlogID, &a.URL, &a.Title, &a.Content,
			&cat, &host, &a.PublishedAt, &a.FetchedAt, &a.Processed); err != nil {
			return nil, err
		}
		a.Category = cat.String
		a.SourceHost = host.String
		out = append(out, a)
	}
	return out, rows.Err()
}

// MarkArticleProcessed flags an article as consumed by generation.
func MarkArticleProcessed(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx, `UPDATE articles SET processed = 1 WHERE id = ?`, id)
	return err
}

// InsertCrawlRecord appends one row to the crawl audit log.
func InsertCrawlRecord(ctx context.Context, db *sql.DB, r models.CrawlRecord) error {
	var errStr any
	if r.Error.Valid {
		errStr = r.Error.String
	}
	_, err := db.ExecContext(ctx, `INSERT INTO crawl_log
        (blog_id, source_url, found, saved, skipped, failed, started_at, duration_ms, error)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.BlogID, r.SourceURL, r.Found, r.Saved, r.Skipped, r.Failed,
		r.StartedAt.UTC(), r.Duration.Milliseconds(), errStr,
	)
	return err
}

// RecentCrawls returns the latest crawl log rows, newest first.
func RecentCrawls(ctx context.Context, db *sql.DB, blogID string, limit int) ([]models.CrawlRecord, error) {
	q := `SELECT id, blog_id, source_url, found, saved, skipped, failed, started_at, duration_ms, error
          FROM crawl_log`
	args := []any{}
	if blogID != "" {
		q += ` WHERE blog_id = ?`
		args = append(args, blogID)
	}
	q += ` ORDER BY datetime(started_at) DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.CrawlRecord
	for rows.Next() {
		var r models.CrawlRecord
		var ms int64
		if err := rows.Scan(&r.ID, &r.BlogID, &r.SourceURL, &r.Found, &r.Saved,
			&r.Skipped, &r.Failed, &r.StartedAt, &ms, &r.Error); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}
