package crawler

import "strings"

// categoryKeywords lists signal words per category, counted over the title
// and body. Order matters: earlier categories win ties.
var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"부동산", []string{"전세", "월세", "임대차", "보증금", "등기", "매매", "분양", "청약", "재개발", "집주인", "임차인"}},
	{"법률", []string{"소송", "판결", "법원", "변호사", "고소", "형사", "민사", "계약서", "손해배상", "법령", "조항"}},
	{"금융", []string{"대출", "금리", "이자", "예금", "적금", "투자", "주식", "보험", "연금", "세금", "환급"}},
	{"생활정보", []string{"지원금", "신청 방법", "혜택", "할인", "복지", "정부24", "수수료", "발급"}},
}

// Classify picks the best-matching category for an article, defaulting to
// 생활정보 when nothing stands out.
func Classify(text string) string {
	best := "생활정보"
	bestScore := 0
	for _, c := range categoryKeywords {
		score := 0
		for _, w := range c.words {
			score += strings.Count(text, w)
		}
		if score > bestScore {
			best = c.category
			bestScore = score
		}
	}
	return best
}
