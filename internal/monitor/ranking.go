// Package monitor tracks search rankings for published posts and writes
// periodic markdown reports.
package monitor

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"blogpilot/internal/config"
	"blogpilot/internal/httpclient"
	"blogpilot/internal/models"
	"blogpilot/internal/store"
)

const pageSize = 30

// SearchClient queries the blog search API used for rank lookups.
type SearchClient struct {
	cfg    config.Search
	client *httpclient.Client
}

func NewSearchClient(cfg config.Search) *SearchClient {
	return &SearchClient{
		cfg:    cfg,
		client: httpclient.New(15 * time.Second),
	}
}

type searchItem struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

type searchResponse struct {
	Total int          `json:"total"`
	Start int          `json:"start"`
	Items []searchItem `json:"items"`
}

func (s *SearchClient) page(ctx context.Context, query string, start int) (*searchResponse, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("display", strconv.Itoa(pageSize))
	q.Set("start", strconv.Itoa(start))

	headers := map[string]string{
		"X-Client-Id":     s.cfg.ClientID,
		"X-Client-Secret": s.cfg.ClientSecret,
	}
	resp, err := s.client.Get(ctx, s.cfg.APIBase+"?"+q.Encode(), headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("search api returned %d", resp.StatusCode)
	}
	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return &sr, nil
}

// Rank returns the 1-based position of targetURL in the search results for
// query, scanning up to MaxRank entries. 0 means not found.
func (s *SearchClient) Rank(ctx context.Context, query, targetURL string) (int, error) {
	maxRank := s.cfg.MaxRank
	if maxRank <= 0 {
		maxRank = 100
	}
	target := normalizeURL(targetURL)

	for start := 1; start <= maxRank; start += pageSize {
		sr, err := s.page(ctx, query, start)
		if err != nil {
			return 0, err
		}
		for i, item := range sr.Items {
			rank := start + i
			if rank > maxRank {
				return 0, nil
			}
			if matchesURL(normalizeURL(item.Link), target) {
				return rank, nil
			}
		}
		if len(sr.Items) < pageSize {
			break
		}
	}
	return 0, nil
}

// normalizeURL strips scheme, mobile/www host prefixes and trailing slashes
// so the same post matches across result variants.
func normalizeURL(raw string) string {
	u := strings.TrimSpace(strings.ToLower(raw))
	for _, prefix := range []string{"https://", "http://"} {
		u = strings.TrimPrefix(u, prefix)
	}
	for _, prefix := range []string{"www.", "m."} {
		u = strings.TrimPrefix(u, prefix)
	}
	return strings.TrimRight(u, "/")
}

func matchesURL(candidate, target string) bool {
	if target == "" {
		return false
	}
	return candidate == target || strings.HasPrefix(candidate, target+"/") ||
		strings.HasPrefix(candidate, target+"?")
}

// Ranker is the search lookup the tracker depends on.
type Ranker interface {
	Rank(ctx context.Context, query, targetURL string) (int, error)
}

// Tracker records current search ranks for one blog's published posts.
type Tracker struct {
	Blog   config.Blog
	Cfg    config.Search
	Search Ranker
	Logger *log.Logger

	delay time.Duration
}

func NewTracker(blog config.Blog, cfg config.Search, logger *log.Logger) *Tracker {
	delay := time.Duration(cfg.DelayMillis) * time.Millisecond
	if cfg.DelayMillis <= 0 {
		delay = 500 * time.Millisecond
	}
	return &Tracker{
		Blog:   blog,
		Cfg:    cfg,
		Search: NewSearchClient(cfg),
		Logger: logger,
		delay:  delay,
	}
}

// Run checks the rank of every published post that has a keyword and a
// remote URL, pausing between lookups to stay polite to the API.
func (t *Tracker) Run(ctx context.Context, db *sql.DB) (int, error) {
	posts, err := store.ListPosts(ctx, db, t.Blog.ID, models.StatusPublished, 200, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to list published posts: %w", err)
	}

	checked := 0
	for i, p := range posts {
		if p.Keyword == "" || !p.RemoteURL.Valid {
			continue
		}
		if i > 0 {
			select {
			case <-ctx.Done():
				return checked, ctx.Err()
			case <-time.After(t.delay):
			}
		}
		rank, err := t.Search.Rank(ctx, p.Keyword, p.RemoteURL.String)
		if err != nil {
			if t.Logger != nil {
				t.Logger.Printf("blog %s: rank lookup failed for %q: %v", t.Blog.ID, p.Keyword, err)
			}
			continue
		}
		entry := models.RankingEntry{
			BlogID:  t.Blog.ID,
			PostID:  p.ID,
			Keyword: p.Keyword,
			Rank:    rank,
		}
		if err := store.InsertRanking(ctx, db, entry); err != nil {
			return checked, fmt.Errorf("failed to store ranking: %w", err)
		}
		checked++
	}
	if t.Logger != nil {
		t.Logger.Printf("blog %s: checked rankings for %d posts", t.Blog.ID, checked)
	}
	return checked, nil
}
