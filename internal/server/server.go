package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"blogpilot/internal/config"
	"blogpilot/internal/models"
	"blogpilot/internal/publisher"
	"blogpilot/internal/store"
)

// PublishFunc force-publishes one post for a blog. Injected so tests can
// run without a platform.
type PublishFunc func(ctx context.Context, blog config.Blog, post *models.Post) (*publisher.Result, error)

// Server serves the dashboard API over the store.
type Server struct {
	DB      *sql.DB
	Cfg     config.Config
	Logger  *log.Logger
	Publish PublishFunc
}

// New builds a server wired to the real publisher.
func New(db *sql.DB, cfg config.Config, logger *log.Logger) *Server {
	return &Server{
		DB:     db,
		Cfg:    cfg,
		Logger: logger,
		Publish: func(ctx context.Context, blog config.Blog, post *models.Post) (*publisher.Result, error) {
			return publisher.New(blog, cfg.Publish, logger).PublishPost(ctx, db, post)
		},
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/blogs", s.handleBlogs)
	mux.HandleFunc("GET /api/posts", s.handleListPosts)
	mux.HandleFunc("GET /api/posts/{id}", s.handleGetPost)
	mux.HandleFunc("PUT /api/posts/{id}", s.handleUpdatePost)
	mux.HandleFunc("DELETE /api/posts/{id}", s.handleDeletePost)
	mux.HandleFunc("POST /api/posts/{id}/approve", s.handleApprove)
	mux.HandleFunc("POST /api/posts/{id}/reject", s.handleReject)
	mux.HandleFunc("POST /api/posts/{id}/publish", s.handlePublish)
	mux.HandleFunc("GET /api/posts/{id}/legal", s.handleLegal)
	mux.HandleFunc("GET /api/rankings", s.handleRankings)
	mux.HandleFunc("GET /api/activity", s.handleActivity)
	return mux
}

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.Cfg.Server.Addr,
		Handler: s.Handler(),
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	if s.Logger != nil {
		s.Logger.Printf("dashboard listening on %s", s.Cfg.Server.Addr)
	}
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		return err
	}
}

func (s *Server) blogID(r *http.Request) (string, error) {
	b, err := s.Cfg.Blog(r.URL.Query().Get("blog"))
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, ErrBadRequest)
	}
	return b.ID, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

type postView struct {
	ID           string     `json:"id"`
	BlogID       string     `json:"blog_id"`
	Title        string     `json:"title"`
	Body         string     `json:"body,omitempty"`
	Category     string     `json:"category"`
	Keyword      string     `json:"keyword"`
	Status       string     `json:"status"`
	SEOScore     float64    `json:"seo_score"`
	QualityScore float64    `json:"quality_score"`
	QualityGrade string     `json:"quality_grade"`
	RemoteURL    string     `json:"remote_url,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
}

func viewOf(p models.Post, withBody bool) postView {
	v := postView{
		ID:           p.ID,
		BlogID:       p.BlogID,
		Title:        p.Title,
		Category:     p.Category,
		Keyword:      p.Keyword,
		Status:       p.Status,
		SEOScore:     p.SEOScore,
		QualityScore: p.QualityScore,
		QualityGrade: p.QualityGrade,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if withBody {
		v.Body = p.Body
	}
	if p.RemoteURL.Valid {
		v.RemoteURL = p.RemoteURL.String
	}
	if p.PublishedAt.Valid {
		t := p.PublishedAt.Time
		v.PublishedAt = &t
	}
	return v
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	blogID, err := s.blogID(r)
	if err != nil {
		respondError(w, s.Logger, err)
		return
	}
	ctx := r.Context()
	counts, err := store.CountPostsByStatus(ctx, s.DB, blogID)
	if err != nil {
		respondError(w, s.Logger, err)
		return
	}
	monthAgo := time.Now().UTC().AddDate(0, 0, -30)
	avgSEO, err := store.AvgSEOScoreSince(ctx, s.DB, blogID, monthAgo)
	if err != nil {
		respondError(w, s.Logger, err)
		return
	}
	created, err := store.CreatedCountSince(ctx, s.DB, blogID, monthAgo)
	if err != nil {
		respondError(w, s.Logger, err)
		return
	}
	cost := float64(created) * s.Cfg.AI.CostPerPost
	budgetUsed := 0.0
	if s.Cfg.AI.MonthlyBudget > 0 {
		budgetUsed = cost / s.Cfg.AI.MonthlyBudget * 100
	}
	respondJSON(w, map[string]any{
		"blog_id":         blogID,
		"posts_by_status": counts,
		"avg_seo_score":   avgSEO,
		"generated_30d":   created,
		"monthly_cost":    cost,
		"budget_used_pct": budgetUsed,
	})
}

func (s *Server) handleBlogs(w http.ResponseWriter, r *http.Request) {
	blogs, err := store.ListBlogs(r.Context(), s.DB)
	if err != nil {
		respondError(w, s.Logger, err)
		return
	}
	type blogView struct {
		ID          string     `json:"id"`
		Name        string     `json:"name"`
		Platform    string     `json:"platform"`
		Category    string     `json:"category"`
		Active      bool       `json:"active"`
		LastPublish *time.Time `json:"last_publish,omitempty"`
	}
	out := []blogView{}
	for _, b := range blogs {
		v := blogView{ID: b.ID, Name: b.Name, Platform: b.Platform, Category: b.Category, Active: b.Active}
		if b.LastPublish.Valid {
			t := b.LastPublish.Time
			v.LastPublish = &t
		}
		out = append(out, v)
	}
	respondJSON(w, out)
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	blogID, err := s.blogID(r)
	if err != nil {
		respondError(w, s.Logger, err)
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(q.Get("offset"))
	posts, err := store.ListPosts(r.Context(), s.DB, blogID, q.Get("status"), limit, offset)
	if err != nil {
		respondError(w, s.Logger, err)
		return
	}
	out := []postView{}
	for _, p := range posts {
		out = append(out, viewOf(p, false))
	}
	respondJSON(w, map[string]any{"posts": out, "limit": limit, "offset": offset})
}

func (s *Server) getPost(r *http.Request) (*models.Post, error) {
	id := r.PathValue("id")
	post, err := store.GetPost(r.Context(), s.DB, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("post %s %w", id, ErrNotFound)
	}
	return post, nil
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.getPost(r)
	if err != nil {
		respondError(w, s.Logger, err)
		return
	}
	respondJSON(w, viewOf(*post, true))
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	post, err := s.getPost(r)
	if err != nil {
		respondError(w, s.Logger, err)
		return
	}
	var patch struct {
		Title    *string `json:"title"`
		Body     *string `json:"body"`
		Category *string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, s.Logger, fmt.Errorf("invalid body: %w", ErrBadRequest))
		return
	}
	if patch.Title != nil {
		post.Title = *patch.Title
	}
	if patch.Body != nil {
		post.Body = *patch.Body
	}
	if patch.Category != nil {
		post.Category = *patch.Category
	}
	if err := store.UpsertPost(r.Context(), s.DB, *post); err != nil {
		respondError(w, s.Logger, err)
		return
	}
	respondJSON(w, viewOf(*post, true))
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	post, err := s.getPost(r)
	if err != nil {
		respondError(w, s.Logger, err)
		return
	}
	if err := store.DeletePost(r.Context(), s.DB, post.ID); err != nil {
		respondError(w, s.Logger, err)
		return
	}
	respondJSON(w, map[string]string{"status": "deleted", "id": post.ID})
}

func (s *Server) setStatus(w http.ResponseWriter, r *http.Request, status string) {
	post, err := s.getPost(r)
	if err != nil {
		respondError(w, s.Logger, err)
		return
	}
	if post.Status == models.StatusPublished {
		respondError(w, s.Logger, fmt.Errorf("post already published: %w", ErrConflict))
		return
	}
	if err := store.SetPostStatus(r.Context(), s.DB, post.ID, status); err != nil {
		respondError(w, s.Logger, err)
		return
	}
	post.Status = status
	respondJSON(w, viewOf(*post, false))
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.setStatus(w, r, models.StatusApproved)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	s.setStatus(w, r, models.StatusRejected)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	post, err := s.getPost(r)
	if err != nil {
		respondError(w, s.Logger, err)
		return
	}
	if post.Status == models.StatusPublished {
		respondError(w, s.Logger, fmt.Errorf("post already published: %w", ErrConflict))
		return
	}
	blog, err := s.Cfg.Blog(post.BlogID)
	if err != nil {
		respondError(w, s.Logger, fmt.Errorf("%v: %w", err, ErrBadRequest))
		return
	}
	res, err := s.Publish(r.Context(), blog, post)
	if err != nil {
		respondError(w, s.Logger, err)
		return
	}
	respondJSON(w, map[string]string{"status": "published", "id": post.ID, "remote_url": res.RemoteURL})
}

func (s *Server) handleLegal(w http.ResponseWriter, r *http.Request) {
	post, err := s.getPost(r)
	if err != nil {
		respondError(w, s.Logger, err)
		return
	}
	refs, err := store.LegalReferences(r.Context(), s.DB, post.ID)
	if err != nil {
		respondError(w, s.Logger, err)
		return
	}
	type refView struct {
		Citation string `json:"citation"`
		Law      string `json:"law"`
		Clause   string `json:"clause,omitempty"`
		Verdict  string `json:"verdict"`
		Detail   string `json:"detail,omitempty"`
	}
	out := []refView{}
	for _, ref := range refs {
		out = append(out, refView{
			Citation: ref.Citation,
			Law:      ref.Law,
			Clause:   ref.Clause,
			Verdict:  ref.Verdict,
			Detail:   ref.Detail,
		})
	}
	resp := map[string]any{"post_id": post.ID, "references": out}
	if check, err := store.LatestLegalCheck(r.Context(), s.DB, post.ID); err == nil && check != nil {
		resp["check"] = map[string]any{
			"status":     check.Status,
			"total":      check.Total,
			"valid":      check.Valid,
			"invalid":    check.Invalid,
			"unknown":    check.Unknown,
			"checked_at": check.CheckedAt,
		}
	}
	respondJSON(w, resp)
}

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	blogID, err := s.blogID(r)
	if err != nil {
		respondError(w, s.Logger, err)
		return
	}
	entries, err := store.LatestRankings(r.Context(), s.DB, blogID)
	if err != nil {
		respondError(w, s.Logger, err)
		return
	}
	type rankView struct {
		PostID    string    `json:"post_id"`
		Keyword   string    `json:"keyword"`
		Rank      int       `json:"rank"`
		CheckedAt time.Time `json:"checked_at"`
	}
	out := []rankView{}
	for _, e := range entries {
		out = append(out, rankView{PostID: e.PostID, Keyword: e.Keyword, Rank: e.Rank, CheckedAt: e.CheckedAt})
	}
	respondJSON(w, out)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	blogID, err := s.blogID(r)
	if err != nil {
		respondError(w, s.Logger, err)
		return
	}
	ctx := r.Context()
	crawls, err := store.RecentCrawls(ctx, s.DB, blogID, 20)
	if err != nil {
		respondError(w, s.Logger, err)
		return
	}
	publishes, err := store.RecentPublishRecords(ctx, s.DB, blogID, 20)
	if err != nil {
		respondError(w, s.Logger, err)
		return
	}
	type crawlView struct {
		SourceURL string    `json:"source_url"`
		Found     int       `json:"found"`
		Saved     int       `json:"saved"`
		Failed    int       `json:"failed"`
		StartedAt time.Time `json:"started_at"`
		Error     string    `json:"error,omitempty"`
	}
	type publishView struct {
		PostID      string    `json:"post_id"`
		PublishedAt time.Time `json:"published_at"`
		Success     bool      `json:"success"`
		Detail      string    `json:"detail,omitempty"`
	}
	cv := []crawlView{}
	for _, c := range crawls {
		v := crawlView{SourceURL: c.SourceURL, Found: c.Found, Saved: c.Saved, Failed: c.Failed, StartedAt: c.StartedAt}
		if c.Error.Valid {
			v.Error = c.Error.String
		}
		cv = append(cv, v)
	}
	pv := []publishView{}
	for _, p := range publishes {
		v := publishView{PostID: p.PostID, PublishedAt: p.PublishedAt, Success: p.Success}
		if p.Detail.Valid {
			v.Detail = p.Detail.String
		}
		pv = append(pv, v)
	}
	respondJSON(w, map[string]any{"crawls": cv, "publishes": pv})
}
