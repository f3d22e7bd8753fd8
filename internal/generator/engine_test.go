package generator

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"blogpilot/internal/config"
	"blogpilot/internal/models"
	"blogpilot/internal/store"
)

const titleCandidates = `1. 전세보증금 돌려받는 절차 한눈에 정리하기
2. 보증금 반환 분쟁 해결법
3. 전세보증금 반환, 임차인이 꼭 알아야 할 것들`

func testEngine(llm Completer) *Engine {
	blog := config.Blog{ID: "main", Name: "테스트", Category: "부동산"}
	cfg := config.Generate{MinChars: 100, MaxChars: 5000, TitleCount: 3, MaxRetries: 2, MinSEOScore: 5}
	return NewEngine(blog, cfg, llm, log.New(os.Stdout, "[blogpilot-test] ", log.LstdFlags))
}

func TestGeneratePipeline(t *testing.T) {
	llm := &stubCompleter{responses: []string{titleCandidates, wellFormedBody()}}
	e := testEngine(llm)

	kw := models.Keyword{BlogID: "main", Term: keyword, Score: 80}
	sources := []models.Article{{
		ID:      "a1",
		BlogID:  "main",
		Title:   "원문 기사",
		Content: "임대차 계약 관련 행정 절차를 설명하는 원문입니다.",
	}}

	post, err := e.Generate(t.Context(), kw, sources, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if post.Status != models.StatusReview {
		t.Fatalf("status = %q, want review", post.Status)
	}
	if !strings.Contains(post.Title, keyword) {
		t.Fatalf("picked title without keyword: %q", post.Title)
	}
	if post.Keyword != keyword || post.BlogID != "main" {
		t.Fatalf("post metadata wrong: %+v", post)
	}
	if post.SEOScore <= 0 || post.QualityScore <= 0 {
		t.Fatalf("scores not recorded: seo=%v quality=%v", post.SEOScore, post.QualityScore)
	}
	if post.QualityGrade == "" {
		t.Fatal("quality grade missing")
	}
}

func TestGenerateRetriesOnLowSEO(t *testing.T) {
	weak := "키워드 없이 성의 없게 쓴 본문."
	llm := &stubCompleter{responses: []string{titleCandidates, weak, weak, weak}}
	e := testEngine(llm)
	e.Cfg.MinSEOScore = 95 // unreachable, forces the retry loop
	e.Cfg.MaxRetries = 3

	kw := models.Keyword{BlogID: "main", Term: keyword}
	if _, err := e.Generate(t.Context(), kw, nil, nil); err != nil {
		t.Fatalf("generate: %v", err)
	}
	// 1 title call + 3 body attempts; the weak body is natural enough to
	// skip the humanize call.
	if llm.calls != 4 {
		t.Fatalf("LLM calls = %d, want 4", llm.calls)
	}
	if !strings.Contains(llm.prompts[2], "보완 지시") {
		t.Fatal("retry prompt should carry review suggestions")
	}
}

func TestGenerateRejectsPlagiarism(t *testing.T) {
	source := wellFormedBody()
	llm := &stubCompleter{responses: []string{titleCandidates, source}}
	e := testEngine(llm)

	kw := models.Keyword{BlogID: "main", Term: keyword}
	sources := []models.Article{{ID: "a1", BlogID: "main", Title: "원문", Content: source}}
	if _, err := e.Generate(t.Context(), kw, sources, nil); err == nil {
		t.Fatal("verbatim copy of the source should be rejected")
	}
}

func TestGenerateRejectsDuplicates(t *testing.T) {
	llm := &stubCompleter{responses: []string{titleCandidates, wellFormedBody()}}
	e := testEngine(llm)

	kw := models.Keyword{BlogID: "main", Term: keyword}
	recent := []models.Post{{
		ID:    "old",
		Title: "전세보증금 돌려받는 절차 한눈에 정리하기",
		Body:  "이전에 발행한 글 본문",
	}}
	if _, err := e.Generate(t.Context(), kw, nil, recent); err == nil {
		t.Fatal("near-identical title should be rejected as duplicate")
	}
}

func TestEngineRun(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "gen.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if err := store.InitSchema(db); err != nil {
		t.Fatalf("schema: %v", err)
	}
	ctx := t.Context()

	if err := store.UpsertKeyword(ctx, db, models.Keyword{BlogID: "main", Term: keyword, Volume: 20000, Score: 75}); err != nil {
		t.Fatalf("seed keyword: %v", err)
	}
	if err := store.UpsertArticle(ctx, db, models.Article{
		ID: "a1", BlogID: "main", URL: "https://example.com/1",
		Title: "원문", Content: "행정 절차 설명 원문입니다.", PublishedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed article: %v", err)
	}

	llm := &stubCompleter{responses: []string{titleCandidates, wellFormedBody()}}
	e := testEngine(llm)
	posts, err := e.Run(ctx, db, 1, "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}

	stored, err := store.GetPost(ctx, db, posts[0].ID)
	if err != nil || stored == nil {
		t.Fatalf("post not stored: %v %v", stored, err)
	}

	// The keyword is consumed and the source article marked processed.
	kws, err := store.TopKeywords(ctx, db, "main", 0, 10)
	if err != nil {
		t.Fatalf("keywords: %v", err)
	}
	if len(kws) != 0 {
		t.Fatalf("keyword should be marked used, got %v", kws)
	}
	arts, err := store.UnprocessedArticles(ctx, db, "main", "", 0)
	if err != nil {
		t.Fatalf("articles: %v", err)
	}
	if len(arts) != 0 {
		t.Fatalf("article should be marked processed, got %d", len(arts))
	}
}
