package research

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"blogpilot/internal/config"
	"blogpilot/internal/models"
	"blogpilot/internal/store"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "research.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.InitSchema(db); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return db
}

func seedArticle(t *testing.T, db *sql.DB, title string) {
	t.Helper()
	a := models.Article{
		ID:          "a1",
		BlogID:      "main",
		URL:         "https://news.example/1",
		Title:       title,
		Content:     "본문",
		Category:    "부동산",
		PublishedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	if err := store.UpsertArticle(t.Context(), db, a); err != nil {
		t.Fatalf("seed article: %v", err)
	}
}

func TestRunKeepsSeedOnAPIFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))
	defer server.Close()

	db := openTestDB(t)
	seedArticle(t, db, "전세보증금 반환 절차 안내")

	r := NewRunner(
		config.Blog{ID: "main", Category: "부동산"},
		config.Research{APIBase: server.URL, AccessKey: "a", SecretKey: "s", CustomerID: "1", MinScore: 40},
		log.New(os.Stdout, "[blogpilot-test] ", log.LstdFlags),
	)
	saved, err := r.Run(t.Context(), db, 5)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if saved != 1 {
		t.Fatalf("saved = %d, want the seed kept with neutral stats", saved)
	}

	kws, err := store.TopKeywords(t.Context(), db, "main", 0, 10)
	if err != nil {
		t.Fatalf("top keywords: %v", err)
	}
	if len(kws) != 1 {
		t.Fatalf("expected 1 stored keyword, got %d", len(kws))
	}
	kw := kws[0]
	if kw.Term != "전세보증금 반환 절차" {
		t.Fatalf("term = %q", kw.Term)
	}
	if kw.Volume != 0 || kw.Competition != 0.5 {
		t.Fatalf("expected neutral stats, got volume=%d competition=%v", kw.Volume, kw.Competition)
	}
}

func TestCompetitorScan(t *testing.T) {
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := "http://" + r.Host
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>경쟁 블로그</title><link>%s</link>
<item><title>전세 사기 예방법</title><link>%s/p/1</link><description>요약 하나</description></item>
<item><title>보증금 반환 후기</title><link>%s/p/2</link><description>요약 둘</description></item>
</channel></rss>`, host, host, host)
	}))
	defer feed.Close()

	db := openTestDB(t)
	s := NewCompetitorScanner("main", []string{feed.URL}, nil)
	saved, err := s.Scan(t.Context(), db)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if saved != 2 {
		t.Fatalf("saved = %d, want 2", saved)
	}

	posts, err := store.CompetitorPosts(t.Context(), db, "main", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("stored = %d, want 2", len(posts))
	}
	for _, p := range posts {
		if p.Author != "경쟁 블로그" || p.Title == "" {
			t.Fatalf("bad post: %+v", p)
		}
	}

	// Re-scanning the same feed must not duplicate rows.
	if _, err := s.Scan(t.Context(), db); err != nil {
		t.Fatalf("rescan: %v", err)
	}
	posts, err = store.CompetitorPosts(t.Context(), db, "main", 10)
	if err != nil {
		t.Fatalf("list after rescan: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("stored after rescan = %d, want 2", len(posts))
	}
}

func seedHistory(t *testing.T, db *sql.DB, term string, volumes []int) {
	t.Helper()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, v := range volumes {
		_, err := db.ExecContext(t.Context(), `INSERT INTO keyword_history
            (blog_id, term, volume, score, checked_at) VALUES (?, ?, ?, ?, ?)`,
			"main", term, v, 50.0, base.AddDate(0, 0, i))
		if err != nil {
			t.Fatalf("seed history: %v", err)
		}
	}
}

func TestKeywordTrend(t *testing.T) {
	db := openTestDB(t)

	seedHistory(t, db, "전세보증금", []int{1000, 1000, 1500})
	trend, err := KeywordTrend(t.Context(), db, "main", "전세보증금")
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	if trend.Direction != TrendRising {
		t.Fatalf("direction = %q, want rising: %+v", trend.Direction, trend)
	}
	if trend.ChangePct != 50 {
		t.Fatalf("change = %v, want 50", trend.ChangePct)
	}

	seedHistory(t, db, "월세", []int{2000, 2000, 1000})
	trend, err = KeywordTrend(t.Context(), db, "main", "월세")
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	if trend.Direction != TrendFalling {
		t.Fatalf("direction = %q, want falling: %+v", trend.Direction, trend)
	}

	trend, err = KeywordTrend(t.Context(), db, "main", "없는키워드")
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	if trend.Direction != TrendStable {
		t.Fatalf("direction = %q, want stable with no history", trend.Direction)
	}
}
