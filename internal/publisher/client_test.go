package publisher

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"blogpilot/internal/config"
	"blogpilot/internal/models"
)

func TestPlatformClientPublish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posts" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer static-token" {
			t.Errorf("Authorization = %q", got)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if !strings.Contains(req["content"], "<h2>") {
			t.Errorf("body was not rendered to HTML: %q", req["content"])
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"url": "https://blog.example/post/1", "id": "1"})
	}))
	defer srv.Close()

	c := NewPlatformClient(config.Blog{ID: "main", APIBase: srv.URL, Token: "static-token"})
	url, err := c.Publish(t.Context(), &models.Post{Title: "제목", Body: "## 개요\n\n본문"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if url != "https://blog.example/post/1" {
		t.Fatalf("url = %q", url)
	}
}

func TestPlatformClientRefreshesToken(t *testing.T) {
	refreshes := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.Form.Get("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.Form.Get("refresh_token"); got != "refresh-1" {
			t.Errorf("refresh_token = %q", got)
		}
		refreshes++
		json.NewEncoder(w).Encode(map[string]any{"access_token": "fresh", "expires_in": 3600})
	})
	mux.HandleFunc("/posts", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer fresh" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"url": "https://blog.example/post/2"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewPlatformClient(config.Blog{
		ID:           "main",
		APIBase:      srv.URL,
		TokenURL:     srv.URL + "/oauth/token",
		ClientID:     "cid",
		ClientSecret: "secret",
		RefreshToken: "refresh-1",
	})
	if _, err := c.Publish(t.Context(), &models.Post{Title: "t", Body: "b"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if refreshes != 1 {
		t.Fatalf("refreshes = %d, want 1", refreshes)
	}

	// Second publish reuses the cached token.
	if _, err := c.Publish(t.Context(), &models.Post{Title: "t2", Body: "b2"}); err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if refreshes != 1 {
		t.Fatalf("refreshes after reuse = %d, want 1", refreshes)
	}
}

func TestPlatformClientRetriesOnExpiredToken(t *testing.T) {
	tokens := []string{"stale", "fresh"}
	issued := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		tok := tokens[issued]
		issued++
		json.NewEncoder(w).Encode(map[string]any{"access_token": tok, "expires_in": 3600})
	})
	mux.HandleFunc("/posts", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"url": "https://blog.example/post/3"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewPlatformClient(config.Blog{
		ID:           "main",
		APIBase:      srv.URL,
		TokenURL:     srv.URL + "/oauth/token",
		RefreshToken: "refresh-1",
	})
	url, err := c.Publish(t.Context(), &models.Post{Title: "t", Body: "b"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if url != "https://blog.example/post/3" {
		t.Fatalf("url = %q", url)
	}
	if issued != 2 {
		t.Fatalf("token issues = %d, want 2", issued)
	}
}
