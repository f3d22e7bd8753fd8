// Package crawler fetches source articles for a blog from its configured
// feeds and listing pages and stores the cleaned text for generation.
package crawler

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	neturl "net/url"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"blogpilot/internal/cleaner"
	"blogpilot/internal/config"
	"blogpilot/internal/models"
	"blogpilot/internal/store"
)

// Crawler fetches configured sources for one blog and persists new articles.
type Crawler struct {
	Blog   config.Blog
	Cfg    config.Crawl
	Client *http.Client
	Logger *log.Logger

	// Limit caps the total number of new articles queued across all
	// sources. Zero means no cap beyond the per-source one.
	Limit int

	parser      *gofeed.Parser
	minInterval time.Duration
}

// New constructs a crawler with sensible defaults.
func New(blog config.Blog, cfg config.Crawl, logger *log.Logger) *Crawler {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	cli := &http.Client{Timeout: time.Duration(timeout) * time.Second}
	p := gofeed.NewParser()
	p.Client = cli
	minInt := 1500 * time.Millisecond
	if cfg.MaxWorkers > 8 { // be a bit more gentle when highly parallel
		minInt = 2 * time.Second
	}
	return &Crawler{Blog: blog, Cfg: cfg, Client: cli, Logger: logger, parser: p, minInterval: minInt}
}

type task struct {
	SourceURL   string
	URL         string
	Title       string
	Host        string
	PublishedAt time.Time
}

func (c *Crawler) debugf(format string, args ...any) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
	}
}

// Crawl fetches all sources of the blog and stores new articles. It returns
// the number of articles saved.
func (c *Crawler) Crawl(ctx context.Context, db *sql.DB) (int, error) {
	if db == nil {
		return 0, fmt.Errorf("nil db")
	}
	if err := store.InitSchema(db); err != nil {
		return 0, err
	}

	// Preload existing URLs to avoid obvious duplicates upfront
	existing, _ := store.ArticleURLs(ctx, db, c.Blog.ID)

	// One log record per source. Saved and Failed are filled in while
	// scraping, so the records are only written once all workers finish.
	var tasks []task
	recs := make(map[string]*models.CrawlRecord, len(c.Blog.Sources))
	var order []string
	for _, raw := range c.Blog.Sources {
		src := strings.TrimSpace(raw)
		if src == "" {
			continue
		}
		started := time.Now()
		entries, err := c.discover(ctx, src)
		rec := &models.CrawlRecord{
			BlogID:    c.Blog.ID,
			SourceURL: src,
			Found:     len(entries),
			StartedAt: started.UTC(),
		}
		if err != nil {
			c.debugf("crawl discover failed: source=%s err=%v", src, err)
			rec.Error = sql.NullString{String: err.Error(), Valid: true}
		}
		queued := 0
		for _, e := range entries {
			if c.Limit > 0 && len(tasks) >= c.Limit {
				break
			}
			if c.Cfg.MaxPerSource > 0 && queued >= c.Cfg.MaxPerSource {
				break
			}
			if _, ok := existing[e.URL]; ok {
				rec.Skipped++
				continue
			}
			tasks = append(tasks, e)
			existing[e.URL] = struct{}{}
			queued++
		}
		recs[src] = rec
		order = append(order, src)
		c.debugf("crawl source discovered: source=%s found=%d queued=%d skipped=%d", src, rec.Found, queued, rec.Skipped)
	}

	// Scrape per host: one worker per domain, paced by minInterval.
	byHost := map[string][]task{}
	for _, t := range tasks {
		h := t.Host
		if h == "" {
			h = "__unknown__"
		}
		byHost[h] = append(byHost[h], t)
	}
	c.debugf("crawl: scraping hosts=%d tasks=%d", len(byHost), len(tasks))

	var wg sync.WaitGroup
	saved := 0
	mu := sync.Mutex{}
	for _, list := range byHost {
		items := list
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, t := range items {
				stored, err := c.processOne(ctx, db, t)
				if err != nil {
					c.debugf("crawl article failed: url=%s err=%v", t.URL, err)
				}
				mu.Lock()
				if rec := recs[t.SourceURL]; rec != nil {
					switch {
					case stored:
						rec.Saved++
					case err != nil:
						rec.Failed++
					default:
						rec.Skipped++
					}
				}
				if stored {
					saved++
				}
				mu.Unlock()
				if ctx.Err() != nil {
					return
				}
				select {
				case <-ctx.Done():
					return
				case <-time.After(c.minInterval):
				}
			}
		}()
	}
	wg.Wait()

	for _, src := range order {
		rec := recs[src]
		rec.Duration = time.Since(rec.StartedAt)
		if err := store.InsertCrawlRecord(ctx, db, *rec); err != nil {
			c.debugf("crawl log insert failed: %v", err)
		}
		c.debugf("crawl source done: source=%s saved=%d failed=%d skipped=%d", src, rec.Saved, rec.Failed, rec.Skipped)
	}
	c.debugf("crawl done: tasks=%d saved=%d", len(tasks), saved)
	return saved, nil
}

func (c *Crawler) processOne(ctx context.Context, db *sql.DB, t task) (bool, error) {
	text, title, err := c.extract(ctx, t.URL)
	if err != nil {
		return false, err
	}
	if title == "" {
		title = t.Title
	}
	text = cleaner.Clean(text)
	if len([]rune(text)) < c.minContentChars() {
		c.debugf("crawl skip (too short): url=%s chars=%d", t.URL, len([]rune(text)))
		return false, nil
	}
	a := models.Article{
		ID:          articleID(t.URL),
		BlogID:      c.Blog.ID,
		URL:         t.URL,
		Title:       strings.TrimSpace(title),
		Content:     text,
		Category:    Classify(title + "\n" + text),
		SourceHost:  t.Host,
		PublishedAt: t.PublishedAt,
	}
	if err := store.UpsertArticle(ctx, db, a); err != nil {
		return false, fmt.Errorf("article upsert: %w", err)
	}
	pa := models.ProcessedArticle{
		ArticleID: a.ID,
		BlogID:    a.BlogID,
		Summary:   cleaner.Summary(text, 200),
		WordCount: cleaner.WordCount(text),
		Category:  a.Category,
	}
	if err := store.UpsertProcessedArticle(ctx, db, pa); err != nil {
		c.debugf("processed article upsert failed: url=%s err=%v", t.URL, err)
	}
	return true, nil
}

func (c *Crawler) minContentChars() int {
	if c.Cfg.MinContentChars > 0 {
		return c.Cfg.MinContentChars
	}
	return 300
}

// discover lists candidate article URLs from one source. Feed URLs are
// parsed with gofeed; anything that does not parse as a feed is treated as
// an HTML listing page.
func (c *Crawler) discover(ctx context.Context, src string) ([]task, error) {
	feed, err := c.parser.ParseURLWithContext(src, ctx)
	if err == nil && feed != nil {
		var out []task
		for _, it := range feed.Items {
			if it == nil || strings.TrimSpace(it.Link) == "" {
				continue
			}
			published := time.Now().UTC()
			if it.PublishedParsed != nil {
				published = it.PublishedParsed.UTC()
			} else if it.UpdatedParsed != nil {
				published = it.UpdatedParsed.UTC()
			}
			out = append(out, task{
				SourceURL:   src,
				URL:         it.Link,
				Title:       it.Title,
				Host:        hostOf(it.Link),
				PublishedAt: published,
			})
		}
		return out, nil
	}
	return c.discoverListing(ctx, src)
}

func hostOf(rawURL string) string {
	if u, err := neturl.Parse(rawURL); err == nil {
		return u.Host
	}
	return ""
}

func articleID(url string) string {
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}
