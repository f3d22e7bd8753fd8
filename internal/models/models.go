package models

import (
	"database/sql"
	"time"
)

// Post statuses as stored in the posts table.
const (
	StatusDraft     = "draft"
	StatusReview    = "review"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusPublished = "published"
	StatusFailed    = "failed"
)

// Blog is a registered publishing target. Multiple blogs can share one
// database; every tenant-scoped table carries the blog ID.
type Blog struct {
	ID          string
	Name        string
	Platform    string
	APIBase     string
	Category    string
	Active      bool
	CreatedAt   time.Time
	LastPublish sql.NullTime
}

// Article is a crawled source document after cleaning.
type Article struct {
	ID          string
	BlogID      string
	URL         string
	Title       string
	Content     string
	Category    string
	SourceHost  string
	PublishedAt time.Time
	FetchedAt   sql.NullTime
	Processed   bool
}

// ProcessedArticle is the cleaner's summary record for one stored article.
type ProcessedArticle struct {
	ArticleID   string
	BlogID      string
	Summary     string
	WordCount   int
	Category    string
	ProcessedAt time.Time
}

// CrawlRecord is one row of the crawl audit log.
type CrawlRecord struct {
	ID        int64
	BlogID    string
	SourceURL string
	Found     int
	Saved     int
	Skipped   int
	Failed    int
	StartedAt time.Time
	Duration  time.Duration
	Error     sql.NullString
}

// Keyword is a researched topic candidate with its composite score.
type Keyword struct {
	ID          int64
	BlogID      string
	Term        string
	Volume      int
	Competition float64
	Relevance   float64
	Score       float64
	Used        bool
	CheckedAt   time.Time
}

// Post is a generated article in some stage of the review pipeline.
type Post struct {
	ID           string
	BlogID       string
	Title        string
	Body         string
	Category     string
	Keyword      string
	Status       string
	SEOScore     float64
	QualityScore float64
	QualityGrade string
	RemoteURL    sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
	PublishedAt  sql.NullTime
}

// PublishRecord is one entry of the posting history used by the
// anti-detection rate limiter.
type PublishRecord struct {
	ID          int64
	BlogID      string
	PostID      string
	PublishedAt time.Time
	Success     bool
	Detail      sql.NullString
}

// RankingEntry is a single rank observation for a published post.
type RankingEntry struct {
	ID        int64
	BlogID    string
	PostID    string
	Keyword   string
	Rank      int // 0 means not found in the window
	CheckedAt time.Time
}

// CompetitorPost is a scanned post from a competing blog in the same niche.
type CompetitorPost struct {
	ID        string
	BlogID    string
	URL       string
	Title     string
	Summary   string
	Author    string
	FetchedAt time.Time
}

// LegalCheck summarizes one citation verification run over a post.
type LegalCheck struct {
	ID        int64
	PostID    string
	Total     int
	Valid     int
	Invalid   int
	Unknown   int
	Status    string
	CheckedAt time.Time
}

// LegalReference is a statute citation extracted from a post body.
type LegalReference struct {
	ID        int64
	PostID    string
	Citation  string
	Law       string
	Clause    string
	Verdict   string
	Detail    string
	CheckedAt sql.NullTime
}
