package generator

import (
	"context"
	"strings"
	"testing"
)

type stubCompleter struct {
	responses []string
	calls     int
	prompts   []string
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.calls < len(s.responses) {
		r := s.responses[s.calls]
		s.calls++
		return r, nil
	}
	s.calls++
	return s.responses[len(s.responses)-1], nil
}

func TestNaturalnessScore(t *testing.T) {
	natural := "보증금을 돌려받으려면 먼저 내용증명부터 보내는 편이 낫습니다. 실제로 이 단계에서 해결되는 경우가 많습니다."
	score, hits := NaturalnessScore(natural)
	if score < 90 {
		t.Fatalf("natural text scored %v with hits %v", score, hits)
	}

	robotic := `이 글에서는 보증금 반환에 대해 살펴보겠습니다.
첫째, 내용증명을 보냅니다. 둘째, 지급명령을 신청합니다. 셋째, 소송을 제기합니다.
결론적으로 절차를 아는 것이 매우 중요합니다. 도움이 되셨기를 바랍니다.`
	score, hits = NaturalnessScore(robotic)
	if score >= humanizeThreshold {
		t.Fatalf("robotic text scored %v, want below %d; hits=%v", score, humanizeThreshold, hits)
	}
	if len(hits) < 3 {
		t.Fatalf("expected several pattern hits, got %v", hits)
	}
}

func TestHumanizePassThrough(t *testing.T) {
	llm := &stubCompleter{responses: []string{"should not be called"}}
	in := "자연스러운 문장입니다. 바로 통과해야 합니다."
	out, err := Humanize(t.Context(), llm, in)
	if err != nil {
		t.Fatalf("humanize: %v", err)
	}
	if out != in {
		t.Fatalf("natural text modified: %q", out)
	}
	if llm.calls != 0 {
		t.Fatal("LLM should not be called for natural text")
	}
}

func TestHumanizeRewrites(t *testing.T) {
	llm := &stubCompleter{responses: []string{"다듬어진 본문입니다."}}
	robotic := `이 글에서는 살펴보겠습니다. 결론적으로 매우 중요합니다. 전반적으로 그렇습니다. 도움이 되셨기를 바랍니다.`
	out, err := Humanize(t.Context(), llm, robotic)
	if err != nil {
		t.Fatalf("humanize: %v", err)
	}
	if out != "다듬어진 본문입니다." {
		t.Fatalf("expected rewritten body, got %q", out)
	}
	if llm.calls != 1 {
		t.Fatalf("expected 1 LLM call, got %d", llm.calls)
	}
	if !strings.Contains(llm.prompts[0], "결론적으로") {
		t.Fatal("prompt should name the detected patterns")
	}
}
