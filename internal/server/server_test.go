package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"blogpilot/internal/config"
	"blogpilot/internal/models"
	"blogpilot/internal/publisher"
	"blogpilot/internal/store"
)

func testServer(t *testing.T) (*Server, *sql.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.InitSchema(db); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.Blogs = []config.Blog{{ID: "main", Name: "테스트 블로그"}}
	s := New(db, cfg, log.New(os.Stdout, "[blogpilot-test] ", log.LstdFlags))
	s.Publish = func(ctx context.Context, blog config.Blog, post *models.Post) (*publisher.Result, error) {
		now := time.Now().UTC()
		if err := store.MarkPublished(ctx, db, post.ID, "https://blog.example.com/1", now); err != nil {
			return nil, err
		}
		return &publisher.Result{Post: post, RemoteURL: "https://blog.example.com/1"}, nil
	}
	return s, db
}

func seedPost(t *testing.T, db *sql.DB, id, status string, seo float64) {
	t.Helper()
	err := store.UpsertPost(t.Context(), db, models.Post{
		ID:       id,
		BlogID:   "main",
		Title:    "전세보증금 반환 " + id,
		Body:     "## 개요\n\n본문",
		Keyword:  "전세보증금",
		Status:   status,
		SEOScore: seo,
	})
	if err != nil {
		t.Fatalf("seed post: %v", err)
	}
}

func do(t *testing.T, h http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	s, _ := testServer(t)
	w := do(t, s.Handler(), "GET", "/healthz", "")
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestListPostsFilterAndPagination(t *testing.T) {
	s, db := testServer(t)
	seedPost(t, db, "p1", models.StatusReview, 70)
	seedPost(t, db, "p2", models.StatusApproved, 80)
	seedPost(t, db, "p3", models.StatusApproved, 90)

	w := do(t, s.Handler(), "GET", "/api/posts?status=approved", "")
	if w.Code != 200 {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Posts []postView `json:"posts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Posts) != 2 {
		t.Fatalf("got %d posts, want 2", len(resp.Posts))
	}
	for _, p := range resp.Posts {
		if p.Status != models.StatusApproved {
			t.Errorf("post %s status = %s", p.ID, p.Status)
		}
		if p.Body != "" {
			t.Errorf("list response leaked body for %s", p.ID)
		}
	}

	w = do(t, s.Handler(), "GET", "/api/posts?limit=1&offset=1", "")
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Posts) != 1 {
		t.Fatalf("pagination returned %d posts", len(resp.Posts))
	}
}

func TestGetPostNotFound(t *testing.T) {
	s, _ := testServer(t)
	w := do(t, s.Handler(), "GET", "/api/posts/nope", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "error" {
		t.Fatalf("envelope = %+v", resp)
	}
}

func TestApproveRejectFlow(t *testing.T) {
	s, db := testServer(t)
	seedPost(t, db, "p1", models.StatusReview, 75)

	w := do(t, s.Handler(), "POST", "/api/posts/p1/approve", "")
	if w.Code != 200 {
		t.Fatalf("approve status = %d: %s", w.Code, w.Body.String())
	}
	got, err := store.GetPost(t.Context(), db, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.StatusApproved {
		t.Fatalf("status = %s", got.Status)
	}

	w = do(t, s.Handler(), "POST", "/api/posts/p1/reject", "")
	if w.Code != 200 {
		t.Fatalf("reject status = %d", w.Code)
	}
	got, _ = store.GetPost(t.Context(), db, "p1")
	if got.Status != models.StatusRejected {
		t.Fatalf("status = %s", got.Status)
	}
}

func TestPublishEndpoint(t *testing.T) {
	s, db := testServer(t)
	seedPost(t, db, "p1", models.StatusApproved, 75)

	w := do(t, s.Handler(), "POST", "/api/posts/p1/publish", "")
	if w.Code != 200 {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	got, err := store.GetPost(t.Context(), db, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.StatusPublished {
		t.Fatalf("status = %s", got.Status)
	}

	// Publishing again conflicts.
	w = do(t, s.Handler(), "POST", "/api/posts/p1/publish", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("second publish status = %d", w.Code)
	}
}

func TestUpdatePost(t *testing.T) {
	s, db := testServer(t)
	seedPost(t, db, "p1", models.StatusReview, 75)

	w := do(t, s.Handler(), "PUT", "/api/posts/p1", `{"title":"수정된 제목"}`)
	if w.Code != 200 {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	got, _ := store.GetPost(t.Context(), db, "p1")
	if got.Title != "수정된 제목" {
		t.Fatalf("title = %q", got.Title)
	}
	if got.Body != "## 개요\n\n본문" {
		t.Fatalf("body overwritten: %q", got.Body)
	}
}

func TestDeletePost(t *testing.T) {
	s, db := testServer(t)
	seedPost(t, db, "p1", models.StatusRejected, 75)

	w := do(t, s.Handler(), "DELETE", "/api/posts/p1", "")
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
	got, _ := store.GetPost(t.Context(), db, "p1")
	if got != nil {
		t.Fatalf("post still present: %+v", got)
	}
}

func TestStats(t *testing.T) {
	s, db := testServer(t)
	seedPost(t, db, "p1", models.StatusReview, 60)
	seedPost(t, db, "p2", models.StatusApproved, 80)

	w := do(t, s.Handler(), "GET", "/api/stats", "")
	if w.Code != 200 {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		PostsByStatus map[string]int `json:"posts_by_status"`
		AvgSEO        float64        `json:"avg_seo_score"`
		Generated     int            `json:"generated_30d"`
		MonthlyCost   float64        `json:"monthly_cost"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.PostsByStatus["review"] != 1 || resp.PostsByStatus["approved"] != 1 {
		t.Fatalf("counts = %v", resp.PostsByStatus)
	}
	if resp.AvgSEO != 70 {
		t.Fatalf("avg seo = %v", resp.AvgSEO)
	}
	if resp.Generated != 2 {
		t.Fatalf("generated = %d", resp.Generated)
	}
	if resp.MonthlyCost != 0.1 {
		t.Fatalf("cost = %v", resp.MonthlyCost)
	}
}

func TestLegalEndpoint(t *testing.T) {
	s, db := testServer(t)
	ctx := t.Context()
	seedPost(t, db, "p1", models.StatusReview, 75)
	err := store.ReplaceLegalReferences(ctx, db, "p1", []models.LegalReference{
		{PostID: "p1", Citation: "「주택임대차보호법」 제3조", Law: "주택임대차보호법", Clause: "제3조", Verdict: "valid"},
	})
	if err != nil {
		t.Fatalf("seed refs: %v", err)
	}

	w := do(t, s.Handler(), "GET", "/api/posts/p1/legal", "")
	if w.Code != 200 {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "주택임대차보호법") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestBlogIDRequiredWithMultipleBlogs(t *testing.T) {
	s, _ := testServer(t)
	s.Cfg.Blogs = append(s.Cfg.Blogs, config.Blog{ID: "second", Name: "두번째"})

	w := do(t, s.Handler(), "GET", "/api/posts", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	w = do(t, s.Handler(), "GET", "/api/posts?blog=second", "")
	if w.Code != 200 {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
}
