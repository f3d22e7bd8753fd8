package research

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"blogpilot/internal/models"
	"blogpilot/internal/store"
)

// CompetitorScanner records recent posts from competing blogs' feeds so the
// generator can avoid topics that are already saturated.
type CompetitorScanner struct {
	BlogID string
	Feeds  []string
	Logger *log.Logger
	parser *gofeed.Parser
}

func NewCompetitorScanner(blogID string, feeds []string, logger *log.Logger) *CompetitorScanner {
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: 20 * time.Second}
	return &CompetitorScanner{BlogID: blogID, Feeds: feeds, Logger: logger, parser: p}
}

// Scan fetches each competitor feed and upserts its items. It returns the
// number of posts stored.
func (s *CompetitorScanner) Scan(ctx context.Context, db *sql.DB) (int, error) {
	saved := 0
	for _, feedURL := range s.Feeds {
		feedURL = strings.TrimSpace(feedURL)
		if feedURL == "" {
			continue
		}
		feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil || feed == nil {
			if s.Logger != nil {
				s.Logger.Printf("competitor feed failed: url=%s err=%v", feedURL, err)
			}
			continue
		}
		for _, it := range feed.Items {
			if it == nil || strings.TrimSpace(it.Link) == "" {
				continue
			}
			sum := sha1.Sum([]byte(it.Link))
			p := models.CompetitorPost{
				ID:      hex.EncodeToString(sum[:]),
				BlogID:  s.BlogID,
				URL:     it.Link,
				Title:   strings.TrimSpace(it.Title),
				Summary: strings.TrimSpace(it.Description),
				Author:  feed.Title,
			}
			if err := store.UpsertCompetitorPost(ctx, db, p); err != nil {
				if s.Logger != nil {
					s.Logger.Printf("competitor upsert failed: url=%s err=%v", it.Link, err)
				}
				continue
			}
			saved++
		}
	}
	return saved, nil
}
