package markdown

import (
	"strings"
	"testing"
)

func TestFromHTML(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "empty",
			html: "",
			want: "",
		},
		{
			name: "heading and paragraph",
			html: "<h2>보증금 반환</h2><p>계약 종료 후 절차.</p>",
			want: "## 보증금 반환\n\n계약 종료 후 절차.\n",
		},
		{
			name: "emphasis",
			html: "<p><strong>중요</strong>한 <em>내용</em></p>",
			want: "**중요**한 *내용*\n",
		},
		{
			name: "link",
			html: `<p><a href="https://example.com">출처</a></p>`,
			want: "[출처](https://example.com)\n",
		},
		{
			name: "unordered list",
			html: "<ul><li>하나</li><li>둘</li></ul>",
			want: "- 하나\n- 둘\n",
		},
		{
			name: "ordered list numbering",
			html: "<ol><li>첫째</li><li>둘째</li><li>셋째</li></ol>",
			want: "1. 첫째\n2. 둘째\n3. 셋째\n",
		},
		{
			name: "script dropped",
			html: "<p>본문</p><script>var x = 1;</script>",
			want: "본문\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromHTML(tt.html)
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromHTMLTable(t *testing.T) {
	got := FromHTML("<table><tr><th>구분</th><th>기간</th></tr><tr><td>묵시적 갱신</td><td>2년</td></tr></table>")
	if !strings.Contains(got, "| 구분 | 기간 |") {
		t.Fatalf("missing header row: %q", got)
	}
	if !strings.Contains(got, "| 묵시적 갱신 | 2년 |") {
		t.Fatalf("missing data row: %q", got)
	}
	if !strings.Contains(got, "| --- | --- |") {
		t.Fatalf("missing separator row: %q", got)
	}
}

func TestToHTML(t *testing.T) {
	md := "## 제목\n\n첫 문단입니다.\n\n- 항목 하나\n- 항목 둘\n\n1. 순서 하나\n2. 순서 둘\n"
	got := ToHTML(md)
	for _, want := range []string{
		"<h2>제목</h2>",
		"<p>첫 문단입니다.</p>",
		"<ul>\n<li>항목 하나</li>\n<li>항목 둘</li>\n</ul>",
		"<ol>\n<li>순서 하나</li>\n<li>순서 둘</li>\n</ol>",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
}

func TestToHTMLInline(t *testing.T) {
	got := ToHTML("**굵게** 그리고 [링크](https://example.com)")
	if !strings.Contains(got, "<strong>굵게</strong>") {
		t.Fatalf("bold not rendered: %q", got)
	}
	if !strings.Contains(got, `<a href="https://example.com">링크</a>`) {
		t.Fatalf("link not rendered: %q", got)
	}
}

func TestToHTMLTable(t *testing.T) {
	md := "| 구분 | 값 |\n| --- | --- |\n| 기간 | 2년 |\n"
	got := ToHTML(md)
	if !strings.Contains(got, "<th>구분</th>") || !strings.Contains(got, "<td>기간</td>") {
		t.Fatalf("table not rendered: %q", got)
	}
}

func TestToHTMLEscapes(t *testing.T) {
	got := ToHTML("a < b & c")
	if !strings.Contains(got, "a &lt; b &amp; c") {
		t.Fatalf("not escaped: %q", got)
	}
}
