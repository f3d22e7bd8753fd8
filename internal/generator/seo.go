// Package generator produces blog posts from researched keywords and
// crawled source material, and scores them before review.
package generator

import (
	"fmt"
	"regexp"
	"strings"
)

// SEOReview is the breakdown of a post's search optimization score.
// Each component contributes up to 25 points.
type SEOReview struct {
	Authority   float64 // outbound references and citations
	Density     float64 // keyword density in the body
	Structure   float64 // headings, tables, FAQ section
	Briefing    float64 // keyword placement in title and lead
	Suggestions []string
}

// Total returns the combined score on a 0..100 scale.
func (r SEOReview) Total() float64 {
	return r.Authority + r.Density + r.Structure + r.Briefing
}

var (
	mdLinkRe    = regexp.MustCompile(`\[[^\]]+\]\([^)]+\)`)
	lawCiteRe   = regexp.MustCompile(`「[^」]+」|[가-힣]+법\s*제\d+조`)
	h2Re        = regexp.MustCompile(`(?m)^##\s+`)
	tableRowRe  = regexp.MustCompile(`(?m)^\|.+\|$`)
	faqRe       = regexp.MustCompile(`(?i)(?m)^#{2,3}\s*(자주\s*묻는\s*질문|FAQ|Q&A|Q\.)`)
	densityLow  = 1.5
	densityHigh = 2.5
)

// ReviewSEO scores a post against the ranking signals the blog platform
// is known to reward.
func ReviewSEO(title, body, keyword string) SEOReview {
	var r SEOReview

	// Authority: links and statute citations, 5 points each.
	refs := len(mdLinkRe.FindAllString(body, -1)) + len(lawCiteRe.FindAllString(body, -1))
	r.Authority = float64(refs) * 5
	if r.Authority > 25 {
		r.Authority = 25
	}
	if refs == 0 {
		r.Suggestions = append(r.Suggestions, "출처 링크나 법령 인용을 추가하세요")
	}

	// Density: percentage of body occupied by the keyword, best between
	// 1.5% and 2.5%. Too low reads thin, too high reads like stuffing.
	d := KeywordDensity(body, keyword)
	switch {
	case d >= densityLow && d <= densityHigh:
		r.Density = 25
	case d > 0 && d < densityLow:
		r.Density = 25 * d / densityLow
		r.Suggestions = append(r.Suggestions, fmt.Sprintf("키워드 %q 사용 빈도를 높이세요 (현재 %.1f%%)", keyword, d))
	case d > densityHigh:
		over := d - densityHigh
		r.Density = 25 - over*10
		if r.Density < 0 {
			r.Density = 0
		}
		r.Suggestions = append(r.Suggestions, fmt.Sprintf("키워드 %q 반복이 과합니다 (현재 %.1f%%)", keyword, d))
	default:
		r.Suggestions = append(r.Suggestions, fmt.Sprintf("본문에 키워드 %q 가 없습니다", keyword))
	}

	// Structure: at least three H2 sections, a table, a FAQ block.
	h2s := len(h2Re.FindAllString(body, -1))
	if h2s >= 3 {
		r.Structure += 10
	} else {
		r.Structure += float64(h2s) * 3
		r.Suggestions = append(r.Suggestions, "소제목(H2)을 3개 이상 사용하세요")
	}
	if len(tableRowRe.FindAllString(body, -1)) >= 2 {
		r.Structure += 8
	} else {
		r.Suggestions = append(r.Suggestions, "비교 표를 추가하세요")
	}
	if faqRe.MatchString(body) {
		r.Structure += 7
	} else {
		r.Suggestions = append(r.Suggestions, "자주 묻는 질문 섹션을 추가하세요")
	}

	// Briefing: the keyword should headline the post and appear in the
	// first 100 characters of the body.
	if keyword != "" && strings.Contains(title, keyword) {
		r.Briefing += 15
	} else {
		r.Suggestions = append(r.Suggestions, "제목에 키워드를 포함하세요")
	}
	lead := []rune(stripMarkdown(body))
	if len(lead) > 100 {
		lead = lead[:100]
	}
	if keyword != "" && strings.Contains(string(lead), keyword) {
		r.Briefing += 10
	} else {
		r.Suggestions = append(r.Suggestions, "첫 문단 도입부에 키워드를 배치하세요")
	}

	return r
}

// KeywordDensity returns how many percent of the body's characters are
// occupied by occurrences of the keyword.
func KeywordDensity(body, keyword string) float64 {
	body = stripMarkdown(body)
	keyword = strings.TrimSpace(keyword)
	if body == "" || keyword == "" {
		return 0
	}
	count := strings.Count(body, keyword)
	if count == 0 {
		return 0
	}
	return float64(count*len([]rune(keyword))) / float64(len([]rune(body))) * 100
}

var markdownSyntaxRe = regexp.MustCompile("[#*`>|]|\\[[^\\]]*\\]\\([^)]*\\)")

func stripMarkdown(s string) string {
	s = markdownSyntaxRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
