package generator

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"blogpilot/internal/config"
	"blogpilot/internal/models"
	"blogpilot/internal/store"
)

// Completer is the minimal LLM surface the generator needs.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type openAICompleter struct {
	client      openai.Client
	model       string
	temperature float64
}

// NewCompleter builds an OpenAI-compatible completer from AI config.
func NewCompleter(cfg config.AI) Completer {
	var opts []option.RequestOption
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &openAICompleter{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: cfg.Temperature,
	}
}

func (c *openAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: c.model,
	}
	if c.temperature > 0 {
		params.Temperature = openai.Float(c.temperature)
	}
	completion, err := c.client.Chat.Completions.New(timeoutCtx, params)
	if err != nil {
		return "", fmt.Errorf("failed to get AI completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("AI returned no choices")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("AI returned empty content")
	}
	return content, nil
}

// Engine drives the generation pipeline for one blog.
type Engine struct {
	Blog   config.Blog
	Cfg    config.Generate
	LLM    Completer
	Logger *log.Logger
}

func NewEngine(blog config.Blog, cfg config.Generate, llm Completer, logger *log.Logger) *Engine {
	return &Engine{Blog: blog, Cfg: cfg, LLM: llm, Logger: logger}
}

func (e *Engine) logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}

// Run generates up to count posts from the highest scored unused keywords
// and stores them in review status. It returns the generated posts.
func (e *Engine) Run(ctx context.Context, db *sql.DB, count int, category string) ([]models.Post, error) {
	if count <= 0 {
		count = 1
	}
	keywords, err := store.TopKeywords(ctx, db, e.Blog.ID, 0, count*2)
	if err != nil {
		return nil, err
	}
	if len(keywords) == 0 {
		return nil, fmt.Errorf("no unused keywords for blog %s; run research first", e.Blog.ID)
	}
	recent, err := store.RecentPublished(ctx, db, e.Blog.ID, 50)
	if err != nil {
		return nil, err
	}

	var out []models.Post
	for _, kw := range keywords {
		if len(out) >= count {
			break
		}
		sources, err := store.UnprocessedArticles(ctx, db, e.Blog.ID, category, 3)
		if err != nil {
			return nil, err
		}
		post, err := e.Generate(ctx, kw, sources, recent)
		if err != nil {
			e.logf("generate failed: keyword=%q err=%v", kw.Term, err)
			continue
		}
		if err := store.UpsertPost(ctx, db, *post); err != nil {
			return nil, err
		}
		if err := store.MarkKeywordUsed(ctx, db, e.Blog.ID, kw.Term); err != nil {
			e.logf("mark keyword used failed: %v", err)
		}
		for _, src := range sources {
			if err := store.MarkArticleProcessed(ctx, db, src.ID); err != nil {
				e.logf("mark article processed failed: %v", err)
			}
		}
		out = append(out, *post)
		e.logf("generated post: id=%s title=%q seo=%.1f quality=%.1f",
			post.ID, post.Title, post.SEOScore, post.QualityScore)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("all generation attempts failed")
	}
	return out, nil
}

// Generate produces one post for a keyword: it picks a title, writes the
// body, iterates while the SEO review is below target, then humanizes and
// quality-checks the result.
func (e *Engine) Generate(ctx context.Context, kw models.Keyword, sources []models.Article, recent []models.Post) (*models.Post, error) {
	title, err := e.pickTitle(ctx, kw.Term)
	if err != nil {
		return nil, err
	}

	var body string
	var review SEOReview
	suggestions := []string{}
	maxRetries := e.Cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	for attempt := 0; attempt < maxRetries; attempt++ {
		body, err = e.writeBody(ctx, title, kw.Term, sources, suggestions)
		if err != nil {
			return nil, err
		}
		review = ReviewSEO(title, body, kw.Term)
		if review.Total() >= e.minSEOScore() {
			break
		}
		e.logf("seo below target (%.1f), regenerating: keyword=%q attempt=%d", review.Total(), kw.Term, attempt+1)
		suggestions = review.Suggestions
	}

	body, err = Humanize(ctx, e.LLM, body)
	if err != nil {
		return nil, err
	}
	// Humanizing can shift the wording; score what will be stored.
	review = ReviewSEO(title, body, kw.Term)

	var sourceTexts []string
	for _, s := range sources {
		sourceTexts = append(sourceTexts, s.Content)
	}
	quality := CheckQuality(title, body, e.Cfg.MinChars, e.Cfg.MaxChars, sourceTexts)
	if quality.Plagiarism > PlagiarismThreshold {
		return nil, fmt.Errorf("generated body too close to source (ratio %.2f)", quality.Plagiarism)
	}
	for _, p := range recent {
		if IsDuplicate(title, body, p.Title, p.Body) {
			return nil, fmt.Errorf("duplicate of existing post %s", p.ID)
		}
	}

	now := time.Now().UTC()
	sum := sha1.Sum([]byte(e.Blog.ID + title + now.Format(time.RFC3339Nano)))
	post := &models.Post{
		ID:           hex.EncodeToString(sum[:8]),
		BlogID:       e.Blog.ID,
		Title:        title,
		Body:         body,
		Category:     e.Blog.Category,
		Keyword:      kw.Term,
		Status:       models.StatusReview,
		SEOScore:     review.Total(),
		QualityScore: quality.Score,
		QualityGrade: quality.Grade,
		CreatedAt:    now,
	}
	return post, nil
}

func (e *Engine) minSEOScore() float64 {
	if e.Cfg.MinSEOScore > 0 {
		return e.Cfg.MinSEOScore
	}
	return 70
}

// pickTitle asks for several candidates and keeps the one that scores
// best on keyword placement and length.
func (e *Engine) pickTitle(ctx context.Context, keyword string) (string, error) {
	n := e.Cfg.TitleCount
	if n <= 0 {
		n = 5
	}
	prompt := fmt.Sprintf(`키워드 "%s" 에 대한 블로그 글 제목 후보를 %d개 제안해 주세요.
조건: 키워드를 포함할 것, 20~40자, 클릭을 유도하되 낚시성 표현은 피할 것.
제목만 한 줄에 하나씩 출력하세요.`, keyword, n)
	resp, err := e.LLM.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	var best string
	bestScore := -1.0
	for _, line := range strings.Split(resp, "\n") {
		title := cleanTitleLine(line)
		if title == "" {
			continue
		}
		if s := titleScore(title, keyword); s > bestScore {
			best = title
			bestScore = s
		}
	}
	if best == "" {
		return "", fmt.Errorf("no usable title in LLM response")
	}
	return best, nil
}

var titlePrefixRe = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)

func cleanTitleLine(line string) string {
	line = titlePrefixRe.ReplaceAllString(line, "")
	line = strings.Trim(line, `"'“” `)
	return strings.TrimSpace(line)
}

func titleScore(title, keyword string) float64 {
	score := 0.0
	if strings.Contains(title, keyword) {
		score += 50
	}
	n := len([]rune(title))
	if n >= 20 && n <= 40 {
		score += 30
	} else if n >= 10 && n <= 50 {
		score += 15
	}
	if strings.ContainsAny(title, "?!") {
		score += 5
	}
	return score
}

func (e *Engine) writeBody(ctx context.Context, title, keyword string, sources []models.Article, suggestions []string) (string, error) {
	minChars := e.Cfg.MinChars
	if minChars <= 0 {
		minChars = 2000
	}
	maxChars := e.Cfg.MaxChars
	if maxChars <= minChars {
		maxChars = minChars + 1000
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `제목 "%s" 로 블로그 글을 작성해 주세요.

요구사항:
- 핵심 키워드: %s (자연스럽게 본문에 녹일 것)
- 분량: 공백 포함 %d~%d자
- 마크다운 형식, 소제목(##) 3개 이상
- 비교 표 1개와 "## 자주 묻는 질문" 섹션 포함
- 근거가 되는 법령이나 제도는 정확한 명칭으로 인용
`, title, keyword, minChars, maxChars)
	if len(suggestions) > 0 {
		sb.WriteString("\n이전 초안에 대한 보완 지시:\n")
		for _, s := range suggestions {
			fmt.Fprintf(&sb, "- %s\n", s)
		}
	}
	if len(sources) > 0 {
		sb.WriteString("\n참고 자료 (그대로 베끼지 말 것):\n")
		for _, src := range sources {
			fmt.Fprintf(&sb, "\n[%s]\n%s\n", src.Title, firstRunes(src.Content, 1500))
		}
	}
	return e.LLM.Complete(ctx, sb.String())
}
