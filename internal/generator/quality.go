package generator

import (
	"regexp"
	"strings"
)

// Quality grades.
const (
	GradeExcellent = "excellent"
	GradeGood      = "good"
	GradeFair      = "fair"
	GradePoor      = "poor"
)

// Plagiarism threshold: a post is rejected when its best similarity ratio
// against any source document exceeds this.
const PlagiarismThreshold = 0.30

// Duplicate thresholds against the blog's own recent posts.
const (
	DuplicateTitleThreshold = 0.6
	DuplicateBodyThreshold  = 0.4
)

// QualityReport is the breakdown of a post's quality score.
type QualityReport struct {
	Readability float64
	Grammar     float64
	Structure   float64
	Length      float64
	Plagiarism  float64 // best similarity ratio against sources, 0..1
	Score       float64
	Grade       string
	Issues      []string
}

// CheckQuality scores a generated post. sources are the crawled documents
// the post was generated from; recent are the blog's latest published
// posts, used for duplicate detection.
func CheckQuality(title, body string, minChars, maxChars int, sources []string) QualityReport {
	var rep QualityReport

	rep.Readability = readabilityScore(body)
	if rep.Readability < 60 {
		rep.Issues = append(rep.Issues, "문장이 너무 깁니다")
	}
	rep.Grammar = grammarScore(body)
	if rep.Grammar < 60 {
		rep.Issues = append(rep.Issues, "맞춤법/문장 부호를 점검하세요")
	}
	rep.Structure = structureScore(body)
	if rep.Structure < 60 {
		rep.Issues = append(rep.Issues, "문단 구성을 개선하세요")
	}
	rep.Length = lengthScore(body, minChars, maxChars)
	if rep.Length < 60 {
		rep.Issues = append(rep.Issues, "분량이 기준을 벗어났습니다")
	}

	for _, src := range sources {
		if r := SimilarityRatio(firstRunes(body, 1000), firstRunes(src, 1000)); r > rep.Plagiarism {
			rep.Plagiarism = r
		}
	}
	if rep.Plagiarism > PlagiarismThreshold {
		rep.Issues = append(rep.Issues, "원문과의 유사도가 너무 높습니다")
	}

	rep.Score = rep.Readability*0.25 + rep.Grammar*0.25 + rep.Structure*0.20 +
		rep.Length*0.15 + (100-rep.Plagiarism*100)*0.15
	switch {
	case rep.Score >= 85:
		rep.Grade = GradeExcellent
	case rep.Score >= 70:
		rep.Grade = GradeGood
	case rep.Score >= 50:
		rep.Grade = GradeFair
	default:
		rep.Grade = GradePoor
	}
	return rep
}

// IsDuplicate reports whether the candidate is too close to an existing
// post, by title or by body lead.
func IsDuplicate(title, body, otherTitle, otherBody string) bool {
	if SimilarityRatio(title, otherTitle) >= DuplicateTitleThreshold {
		return true
	}
	return SimilarityRatio(firstRunes(body, 1000), firstRunes(otherBody, 1000)) >= DuplicateBodyThreshold
}

// SimilarityRatio computes 2*M/T over matching blocks of the two strings,
// where M is the total matched length and T the combined length. Equal
// strings score 1, disjoint strings 0.
func SimilarityRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	matched := matchLen(ra, rb)
	return 2 * float64(matched) / float64(len(ra)+len(rb))
}

// matchLen sums the lengths of matching blocks: the longest common
// substring, then recursively the pieces left of it and right of it.
func matchLen(a, b []rune) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchLen(a[:ai], b[:bi])
	total += matchLen(a[ai+size:], b[bi+size:])
	return total
}

func longestCommonSubstring(a, b []rune) (ai, bi, size int) {
	// One row of the classic DP table at a time.
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > size {
					size = cur[j]
					ai = i - size
					bi = j - size
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return ai, bi, size
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var sentenceSplitRe = regexp.MustCompile(`[.!?。]+\s*|\n+`)

// readabilityScore rewards an average sentence length around 30-60
// characters, the comfortable range for the target audience.
func readabilityScore(body string) float64 {
	text := stripMarkdown(body)
	parts := sentenceSplitRe.Split(text, -1)
	var lengths []int
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		lengths = append(lengths, len([]rune(p)))
	}
	if len(lengths) == 0 {
		return 0
	}
	sum := 0
	for _, l := range lengths {
		sum += l
	}
	avg := float64(sum) / float64(len(lengths))
	switch {
	case avg >= 20 && avg <= 60:
		return 100
	case avg < 20:
		return 60 + avg*2
	default:
		score := 100 - (avg-60)*1.5
		if score < 0 {
			return 0
		}
		return score
	}
}

var (
	doubleSpaceRe  = regexp.MustCompile(`\S  +\S`)
	repeatPunctRe  = regexp.MustCompile(`[!?]{3,}|\.{4,}`)
	danglingOpenRe = regexp.MustCompile(`[([{「]([^)\]}」]*)$`)
)

// grammarScore applies cheap mechanical checks; real proofreading is the
// reviewer's job in the TUI.
func grammarScore(body string) float64 {
	score := 100.0
	score -= float64(len(doubleSpaceRe.FindAllString(body, -1))) * 5
	score -= float64(len(repeatPunctRe.FindAllString(body, -1))) * 10
	for _, line := range strings.Split(body, "\n") {
		if danglingOpenRe.MatchString(strings.TrimSpace(line)) {
			score -= 5
		}
	}
	if score < 0 {
		return 0
	}
	return score
}

func structureScore(body string) float64 {
	score := 0.0
	if len(h2Re.FindAllString(body, -1)) >= 2 {
		score += 40
	} else if len(h2Re.FindAllString(body, -1)) == 1 {
		score += 20
	}
	paragraphs := 0
	for _, p := range strings.Split(body, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs++
		}
	}
	switch {
	case paragraphs >= 5:
		score += 40
	case paragraphs >= 3:
		score += 25
	case paragraphs >= 1:
		score += 10
	}
	if strings.Contains(body, "- ") || strings.Contains(body, "| ") {
		score += 20
	}
	if score > 100 {
		return 100
	}
	return score
}

func lengthScore(body string, minChars, maxChars int) float64 {
	if minChars <= 0 {
		minChars = 2000
	}
	if maxChars <= minChars {
		maxChars = minChars + 1000
	}
	n := len([]rune(stripMarkdown(body)))
	switch {
	case n >= minChars && n <= maxChars:
		return 100
	case n < minChars:
		return float64(n) / float64(minChars) * 100
	default:
		over := float64(n-maxChars) / float64(maxChars)
		score := 100 - over*100
		if score < 0 {
			return 0
		}
		return score
	}
}
