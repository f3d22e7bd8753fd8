package tui

import (
	"strings"
	"testing"

	"blogpilot/internal/models"
)

func TestFilterPosts(t *testing.T) {
	items := []models.Post{
		{ID: "p1", Title: "전세보증금 돌려받는 방법", Keyword: "전세보증금", Status: models.StatusReview},
		{ID: "p2", Title: "상가 임대차 계약 주의점", Keyword: "상가임대차", Status: models.StatusApproved},
	}

	got := filterPosts(items, "전세")
	if len(got) != 1 || got[0].ID != "p1" {
		t.Fatalf("filter by title = %v", got)
	}
	got = filterPosts(items, "approved")
	if len(got) != 1 || got[0].ID != "p2" {
		t.Fatalf("filter by status = %v", got)
	}
	if got = filterPosts(items, ""); len(got) != 2 {
		t.Fatalf("empty filter returned %d items", len(got))
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("짧은 제목", 20); got != "짧은 제목" {
		t.Fatalf("got %q", got)
	}
	got := truncateString("아주 길고 긴 블로그 글 제목입니다", 10)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("got %q, want truncated with ellipsis", got)
	}
	if len([]rune(got)) != 10 {
		t.Fatalf("got %d runes, want 10", len([]rune(got)))
	}
}

func TestLegalSummary(t *testing.T) {
	d := &postDetail{legal: []models.LegalReference{
		{Citation: "「주택임대차보호법」 제3조", Verdict: "valid"},
		{Citation: "「민법」 제999조", Verdict: "invalid"},
		{Citation: "「상법」 제1조", Verdict: "unknown"},
	}}
	s := legalSummary(d)
	if !strings.Contains(s, "3건") || !strings.Contains(s, "오류 1") {
		t.Fatalf("summary = %q", s)
	}
	if !strings.Contains(s, "「민법」 제999조") {
		t.Fatalf("summary does not name the invalid citation: %q", s)
	}
	if got := legalSummary(&postDetail{}); !strings.Contains(got, "없음") {
		t.Fatalf("empty summary = %q", got)
	}
}
