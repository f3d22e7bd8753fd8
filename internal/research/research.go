package research

import (
	"context"
	"database/sql"
	"log"
	"strings"

	"blogpilot/internal/config"
	"blogpilot/internal/models"
	"blogpilot/internal/store"
)

// Runner orchestrates one research pass for a blog: it derives seed terms
// from recent crawled articles, queries the keyword API and stores scored
// candidates.
type Runner struct {
	Blog   config.Blog
	Cfg    config.Research
	Client *SearchAdClient
	Logger *log.Logger
}

func NewRunner(blog config.Blog, cfg config.Research, logger *log.Logger) *Runner {
	return &Runner{Blog: blog, Cfg: cfg, Client: NewSearchAdClient(cfg), Logger: logger}
}

func (r *Runner) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}

// Run researches keywords seeded from up to limit unprocessed articles.
// It returns the number of keywords stored.
func (r *Runner) Run(ctx context.Context, db *sql.DB, limit int) (int, error) {
	if limit <= 0 {
		limit = 10
	}
	articles, err := store.UnprocessedArticles(ctx, db, r.Blog.ID, "", limit)
	if err != nil {
		return 0, err
	}
	if len(articles) == 0 {
		r.logf("research: no unprocessed articles for blog=%s", r.Blog.ID)
		return 0, nil
	}

	saved := 0
	for _, a := range articles {
		seed := seedTerm(a.Title)
		if seed == "" {
			continue
		}
		stats, err := r.Client.RelatedKeywords(ctx, seed)
		if err != nil {
			r.logf("research: keyword lookup failed seed=%q err=%v", seed, err)
			// Keep the seed with neutral stats so an API outage does
			// not drop the topic.
			stats = []KeywordStat{{Term: seed, Competition: 0.5}}
		}
		topic := a.Title + " " + a.Category + " " + r.Blog.Category
		for _, s := range stats {
			rel := Relevance(s.Term, topic)
			score := Score(s.Volume, s.Competition, rel)
			if score < r.Cfg.MinScore {
				continue
			}
			k := models.Keyword{
				BlogID:      r.Blog.ID,
				Term:        s.Term,
				Volume:      s.Volume,
				Competition: s.Competition,
				Relevance:   rel,
				Score:       score,
			}
			if err := store.UpsertKeyword(ctx, db, k); err != nil {
				r.logf("research: keyword upsert failed term=%q err=%v", s.Term, err)
				continue
			}
			saved++
		}
	}
	r.logf("research: stored %d keywords for blog=%s", saved, r.Blog.ID)
	return saved, nil
}

// seedTerm reduces an article title to a short seed phrase for the
// keyword API: the first few meaningful tokens, punctuation stripped.
func seedTerm(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	var tokens []string
	for _, tok := range strings.Fields(title) {
		tok = strings.Trim(tok, `"'()[]{},.!?…·“”‘’`)
		if len([]rune(tok)) < 2 {
			continue
		}
		tokens = append(tokens, tok)
		if len(tokens) == 3 {
			break
		}
	}
	return strings.Join(tokens, " ")
}

// Relevance measures how much of a keyword overlaps the article context,
// as the fraction of keyword characters found in the context.
func Relevance(term, context string) float64 {
	term = strings.TrimSpace(term)
	if term == "" {
		return 0
	}
	context = strings.ToLower(context)
	matched := 0
	total := 0
	for _, tok := range strings.Fields(strings.ToLower(term)) {
		total++
		if strings.Contains(context, tok) {
			matched++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}
