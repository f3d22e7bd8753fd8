package generator

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// aiPatterns are phrasings that make machine-written Korean text easy to
// spot. Each hit subtracts its severity from the naturalness score.
var aiPatterns = []struct {
	re       *regexp.Regexp
	severity float64
	label    string
}{
	{regexp.MustCompile(`결론적으로`), 8, "결론적으로"},
	{regexp.MustCompile(`전반적으로`), 6, "전반적으로"},
	{regexp.MustCompile(`이 글에서는`), 8, "이 글에서는"},
	{regexp.MustCompile(`살펴보(겠|도록 하겠)습니다`), 8, "살펴보겠습니다"},
	{regexp.MustCompile(`알아보(겠|도록 하겠)습니다`), 6, "알아보겠습니다"},
	{regexp.MustCompile(`라고 할 수 있습니다`), 6, "~라고 할 수 있습니다"},
	{regexp.MustCompile(`매우 중요합니다`), 5, "매우 중요합니다"},
	{regexp.MustCompile(`도움이 되(었기를|셨기를) 바랍니다`), 6, "도움이 되셨기를 바랍니다"},
	{regexp.MustCompile(`첫째[,.].*둘째[,.].*셋째[,.]`), 10, "첫째/둘째/셋째 나열"},
	{regexp.MustCompile(`(?m)^(또한|그리고|하지만)[, ]`), 3, "접속사로 시작하는 문단"},
}

// NaturalnessScore rates how human the text reads, 0..100. Repeated hits
// of the same pattern each count.
func NaturalnessScore(body string) (float64, []string) {
	score := 100.0
	var hits []string
	for _, p := range aiPatterns {
		n := len(p.re.FindAllString(body, -1))
		if n == 0 {
			continue
		}
		score -= p.severity * float64(n)
		hits = append(hits, p.label)
	}
	if score < 0 {
		score = 0
	}
	return score, hits
}

const humanizeThreshold = 80

// Humanize rewrites the body through the LLM when it reads too machine
// written. Bodies at or above the threshold pass through unchanged.
func Humanize(ctx context.Context, llm Completer, body string) (string, error) {
	score, hits := NaturalnessScore(body)
	if score >= humanizeThreshold {
		return body, nil
	}
	prompt := fmt.Sprintf(`다음 글을 자연스러운 한국어 블로그 글로 다듬어 주세요.
의미와 마크다운 구조는 유지하고, 아래 표현들을 덜 기계적으로 바꿔 주세요: %s

%s`, strings.Join(hits, ", "), body)
	rewritten, err := llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("humanize rewrite: %w", err)
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return body, nil
	}
	return rewritten, nil
}
