package store

import "database/sql"

// InitSchema ensures the DB has all tables used by the pipeline.
func InitSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS blogs (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            platform TEXT NOT NULL,
            api_base TEXT,
            category TEXT,
            active INTEGER DEFAULT 1,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            last_publish TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS articles (
            id TEXT PRIMARY KEY,
            blog_id TEXT NOT NULL,
            url TEXT NOT NULL,
            title TEXT NOT NULL,
            content TEXT NOT NULL,
            category TEXT,
            source_host TEXT,
            published_at TIMESTAMP NOT NULL,
            fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            processed INTEGER DEFAULT 0
        )`,
		`CREATE INDEX IF NOT EXISTS idx_articles_blog_url ON articles(blog_id, url)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at)`,
		`CREATE TABLE IF NOT EXISTS processed_articles (
            article_id TEXT PRIMARY KEY,
            blog_id TEXT NOT NULL,
            summary TEXT,
            word_count INTEGER DEFAULT 0,
            category TEXT,
            processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS crawl_log (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            blog_id TEXT NOT NULL,
            source_url TEXT NOT NULL,
            found INTEGER DEFAULT 0,
            saved INTEGER DEFAULT 0,
            skipped INTEGER DEFAULT 0,
            failed INTEGER DEFAULT 0,
            started_at TIMESTAMP NOT NULL,
            duration_ms INTEGER DEFAULT 0,
            error TEXT
        )`,
		`CREATE INDEX IF NOT EXISTS idx_crawl_log_started_at ON crawl_log(started_at)`,
		`CREATE TABLE IF NOT EXISTS keywords (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            blog_id TEXT NOT NULL,
            term TEXT NOT NULL,
            volume INTEGER DEFAULT 0,
            competition REAL DEFAULT 0,
            relevance REAL DEFAULT 0,
            score REAL DEFAULT 0,
            used INTEGER DEFAULT 0,
            checked_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            UNIQUE(blog_id, term)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_keywords_score ON keywords(blog_id, score)`,
		`CREATE TABLE IF NOT EXISTS keyword_history (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            blog_id TEXT NOT NULL,
            term TEXT NOT NULL,
            volume INTEGER DEFAULT 0,
            score REAL DEFAULT 0,
            checked_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS competitor_posts (
            id TEXT PRIMARY KEY,
            blog_id TEXT NOT NULL,
            url TEXT NOT NULL,
            title TEXT NOT NULL,
            summary TEXT,
            author TEXT,
            fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS posts (
            id TEXT PRIMARY KEY,
            blog_id TEXT NOT NULL,
            title TEXT NOT NULL,
            body TEXT NOT NULL,
            category TEXT,
            keyword TEXT,
            status TEXT NOT NULL DEFAULT 'draft',
            seo_score REAL DEFAULT 0,
            quality_score REAL DEFAULT 0,
            quality_grade TEXT,
            remote_url TEXT,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            published_at TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_posts_blog_status ON posts(blog_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at)`,
		`CREATE TABLE IF NOT EXISTS posting_history (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            blog_id TEXT NOT NULL,
            post_id TEXT NOT NULL,
            published_at TIMESTAMP NOT NULL,
            success INTEGER DEFAULT 1,
            detail TEXT
        )`,
		`CREATE INDEX IF NOT EXISTS idx_posting_history_blog ON posting_history(blog_id, published_at)`,
		`CREATE TABLE IF NOT EXISTS ranking_history (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            blog_id TEXT NOT NULL,
            post_id TEXT NOT NULL,
            keyword TEXT NOT NULL,
            rank INTEGER DEFAULT 0,
            checked_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_ranking_history_post ON ranking_history(post_id, checked_at)`,
		`CREATE TABLE IF NOT EXISTS legal_references (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            post_id TEXT NOT NULL,
            citation TEXT NOT NULL,
            law TEXT,
            clause TEXT,
            verdict TEXT,
            detail TEXT,
            checked_at TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_legal_references_post ON legal_references(post_id)`,
		`CREATE TABLE IF NOT EXISTS legal_checks (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            post_id TEXT NOT NULL,
            total INTEGER DEFAULT 0,
            valid INTEGER DEFAULT 0,
            invalid INTEGER DEFAULT 0,
            unknown INTEGER DEFAULT 0,
            status TEXT NOT NULL,
            checked_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_legal_checks_post ON legal_checks(post_id, checked_at)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
