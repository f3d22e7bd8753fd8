package cleaner

import (
	"strings"
	"testing"
)

func TestCleanStripsMarkup(t *testing.T) {
	in := `<div><h2>전세보증금 반환</h2><p>계약이 끝나면   보증금을 돌려받아야 합니다.</p><script>alert(1)</script></div>`
	got := Clean(in)
	if strings.Contains(got, "<") && strings.Contains(got, ">") {
		t.Fatalf("markup left in output: %q", got)
	}
	if strings.Contains(got, "alert") {
		t.Fatalf("script content leaked: %q", got)
	}
	if !strings.Contains(got, "전세보증금 반환") || !strings.Contains(got, "보증금을 돌려받아야") {
		t.Fatalf("content lost: %q", got)
	}
}

func TestCleanRemovesBoilerplate(t *testing.T) {
	in := "본문 내용입니다.\nⓒ 무단전재 및 재배포 금지\n저작권자 (c) 어딘가\n다음 문단."
	got := Clean(in)
	if strings.Contains(got, "무단전재") || strings.Contains(got, "저작권자") {
		t.Fatalf("boilerplate kept: %q", got)
	}
	if !strings.Contains(got, "본문 내용입니다.") || !strings.Contains(got, "다음 문단.") {
		t.Fatalf("content lost: %q", got)
	}
}

func TestCleanCollapsesWhitespace(t *testing.T) {
	got := Clean("hello    world\n\n\n  second\t\tline  ")
	want := "hello world\nsecond line"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain text only",
		"<p>문단 하나</p><p>문단   둘</p>",
		"본문\nⓒ 저작권 표시\ncontact: someone@example.com\n끝",
		"<ul><li>하나</li><li>둘</li></ul>",
		"3 < 5 이고 7 > 2 이다",
		"<p>예시 코드: &lt;b&gt;굵게&lt;/b&gt; 태그를 쓰면 됩니다.</p>",
		"<p>비교 연산자 &lt;= 와 &gt;= 설명</p>",
	}
	for _, in := range inputs {
		once := Clean(in)
		twice := Clean(once)
		if once != twice {
			t.Fatalf("not idempotent for %q:\n once: %q\ntwice: %q", in, once, twice)
		}
	}
}

func TestCleanKeepsEntityTextInert(t *testing.T) {
	got := Clean("<p>예시 코드: &lt;b&gt;굵게&lt;/b&gt; 태그</p>")
	if !strings.Contains(got, "굵게") {
		t.Fatalf("entity-decoded text lost: %q", got)
	}
	if strings.Contains(got, "<b>") {
		t.Fatalf("output contains parseable markup: %q", got)
	}
}

func TestSummaryShortText(t *testing.T) {
	if got := Summary("짧은 글", 200); got != "짧은 글" {
		t.Fatalf("got %q", got)
	}
}

func TestSummaryCutsAtWordBoundary(t *testing.T) {
	text := strings.Repeat("전세보증금 반환 절차 안내 ", 40)
	got := Summary(text, 200)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("missing ellipsis: %q", got)
	}
	body := strings.TrimSuffix(got, "...")
	if n := len([]rune(body)); n > 200 {
		t.Fatalf("summary is %d runes, want <= 200", n)
	}
	if strings.HasSuffix(body, " ") {
		t.Fatalf("trailing space before ellipsis: %q", got)
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount("전세 보증금을  돌려받는\n방법"); got != 4 {
		t.Fatalf("got %d, want 4", got)
	}
	if got := WordCount("   "); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}
