package research

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"blogpilot/internal/config"
)

func TestRelatedKeywords(t *testing.T) {
	var gotSig, gotTS, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/keywordstool" {
			http.NotFound(w, r)
			return
		}
		gotSig = r.Header.Get("X-Signature")
		gotTS = r.Header.Get("X-Timestamp")
		gotKey = r.Header.Get("X-API-KEY")
		if r.URL.Query().Get("hintKeywords") != "전세보증금반환" {
			t.Errorf("hintKeywords = %q, want spaces stripped", r.URL.Query().Get("hintKeywords"))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"keywordList":[
			{"relKeyword":"전세보증금반환","monthlyPcQcCnt":1200,"monthlyMobileQcCnt":8800,"compIdx":"중간"},
			{"relKeyword":"전세보증보험","monthlyPcQcCnt":"< 10","monthlyMobileQcCnt":40,"compIdx":"낮음"}
		]}`)
	}))
	defer server.Close()

	c := NewSearchAdClient(config.Research{
		APIBase:    server.URL,
		AccessKey:  "access",
		SecretKey:  "secret",
		CustomerID: "123",
	})
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }

	stats, err := c.RelatedKeywords(t.Context(), "전세보증금 반환")
	if err != nil {
		t.Fatalf("related keywords: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 stats, got %d", len(stats))
	}
	if stats[0].Volume != 10000 {
		t.Fatalf("volume = %d, want pc+mobile sum", stats[0].Volume)
	}
	if stats[0].Competition != 0.5 {
		t.Fatalf("competition = %v, want 0.5 for 중간", stats[0].Competition)
	}
	if stats[1].Volume != 45 {
		t.Fatalf("volume = %d, want 5+40 for low-volume marker", stats[1].Volume)
	}
	if stats[1].Competition != 0.2 {
		t.Fatalf("competition = %v, want 0.2 for 낮음", stats[1].Competition)
	}

	if gotKey != "access" || gotTS != "1700000000000" {
		t.Fatalf("auth headers missing: key=%q ts=%q", gotKey, gotTS)
	}
	want := Sign("secret", 1700000000000, "GET", "/keywordstool")
	if gotSig != want {
		t.Fatalf("signature = %q, want %q", gotSig, want)
	}
}

func TestCompetitionIndex(t *testing.T) {
	cases := map[string]float64{
		"높음": 0.8,
		"보통": 0.5,
		"중간": 0.5,
		"낮음": 0.2,
		"":   0.5,
	}
	for idx, want := range cases {
		if got := competitionIndex(idx); got != want {
			t.Errorf("competitionIndex(%q) = %v, want %v", idx, got, want)
		}
	}
}
