package legal

import (
	"context"
	"testing"

	"blogpilot/internal/models"
)

func TestExtract(t *testing.T) {
	body := `임차인은 「주택임대차보호법」 제8조 제1항에 따라 보증금 중 일정액을 우선 변제받습니다.
민법 제618조는 임대차의 의의를 정합니다. 집행 단계에서는 민사집행법 제246조를 참고하세요.
「주택임대차보호법」 제8조 제1항은 앞서 언급한 조항과 같습니다.`

	refs := Extract("p1", body)
	if len(refs) != 3 {
		t.Fatalf("expected 3 unique citations, got %d: %+v", len(refs), refs)
	}

	byCitation := map[string]models.LegalReference{}
	for _, r := range refs {
		byCitation[r.Citation] = r
	}
	if r, ok := byCitation["주택임대차보호법 제8조 제1항"]; !ok {
		t.Fatalf("bracketed citation missing: %v", byCitation)
	} else if r.Law != "주택임대차보호법" || r.Clause != "제8조 제1항" {
		t.Fatalf("bad split: %+v", r)
	}
	if _, ok := byCitation["민법 제618조"]; !ok {
		t.Fatalf("bare citation missing: %v", byCitation)
	}
	if _, ok := byCitation["민사집행법 제246조"]; !ok {
		t.Fatalf("citation missing: %v", byCitation)
	}
}

func TestExtractClauseVariants(t *testing.T) {
	refs := Extract("p1", "상가건물 임대차보호법과 무관하게, 소득세법 제12조의2 제3항을 봅니다.")
	if len(refs) != 1 {
		t.Fatalf("expected 1 citation, got %+v", refs)
	}
	if refs[0].Clause != "제12조의2 제3항" {
		t.Fatalf("clause = %q", refs[0].Clause)
	}
}

func TestExtractKnownAbbreviation(t *testing.T) {
	refs := Extract("p1", "주임법 제3조에 따라 대항력이 생깁니다.")
	if len(refs) != 1 {
		t.Fatalf("expected 1 citation, got %+v", refs)
	}
	if refs[0].Verdict != VerdictValid {
		t.Fatalf("known abbreviation should pass without verification, got %+v", refs[0])
	}
}

func TestExtractNone(t *testing.T) {
	if refs := Extract("p1", "법률 얘기가 전혀 없는 본문입니다."); len(refs) != 0 {
		t.Fatalf("expected no citations, got %+v", refs)
	}
}

type scriptedLLM struct {
	response string
	calls    int
}

func (s *scriptedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.response, nil
}

func TestVerify(t *testing.T) {
	refs := []models.LegalReference{
		{PostID: "p1", Citation: "민법 제618조", Law: "민법", Clause: "제618조"},
		{PostID: "p1", Citation: "주택법 제999조", Law: "주택법", Clause: "제999조"},
		{PostID: "p1", Citation: "주임법 제3조", Verdict: VerdictValid},
	}
	llm := &scriptedLLM{response: `민법 제618조 | valid | 임대차의 의의 조항
주택법 제999조 | invalid | 존재하지 않는 조항`}

	got, err := Verify(t.Context(), llm, refs)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if llm.calls != 1 {
		t.Fatalf("expected a single batched LLM call, got %d", llm.calls)
	}
	if got[0].Verdict != VerdictValid || got[1].Verdict != VerdictInvalid {
		t.Fatalf("verdicts wrong: %+v", got)
	}
	if got[1].Detail != "존재하지 않는 조항" {
		t.Fatalf("detail lost: %+v", got[1])
	}
	if got[2].Verdict != VerdictValid {
		t.Fatalf("pre-passed citation should be untouched: %+v", got[2])
	}
}

func TestVerifyUnparsableLine(t *testing.T) {
	refs := []models.LegalReference{{PostID: "p1", Citation: "민법 제618조"}}
	llm := &scriptedLLM{response: "잘 모르겠습니다"}
	got, err := Verify(t.Context(), llm, refs)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got[0].Verdict != VerdictUnknown {
		t.Fatalf("unparsable response should leave verdict unknown, got %+v", got[0])
	}
}

func TestVerifyNothingPending(t *testing.T) {
	refs := []models.LegalReference{{PostID: "p1", Citation: "주임법 제3조", Verdict: VerdictValid}}
	llm := &scriptedLLM{response: "should not be called"}
	if _, err := Verify(t.Context(), llm, refs); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if llm.calls != 0 {
		t.Fatal("no LLM call expected when every citation has a verdict")
	}
}

func TestSummarize(t *testing.T) {
	refs := []models.LegalReference{
		{PostID: "p1", Citation: "민법 제618조", Verdict: VerdictValid},
		{PostID: "p1", Citation: "주택임대차보호법 제8조", Verdict: VerdictInvalid},
		{PostID: "p1", Citation: "민사집행법 제246조", Verdict: VerdictUnknown},
	}
	check := Summarize("p1", refs)
	if check.Total != 3 || check.Valid != 1 || check.Invalid != 1 || check.Unknown != 1 {
		t.Fatalf("counts wrong: %+v", check)
	}
	if check.Status != CheckFailed {
		t.Fatalf("status = %q, want %q", check.Status, CheckFailed)
	}
}

func TestSummarizeStatuses(t *testing.T) {
	valid := models.LegalReference{Verdict: VerdictValid}
	unknown := models.LegalReference{Verdict: VerdictUnknown}
	unchecked := models.LegalReference{}

	if got := Summarize("p", []models.LegalReference{valid, valid}).Status; got != CheckVerified {
		t.Errorf("all valid: %q", got)
	}
	if got := Summarize("p", []models.LegalReference{valid, unknown}).Status; got != CheckWarning {
		t.Errorf("with unknown: %q", got)
	}
	if got := Summarize("p", []models.LegalReference{valid, unchecked}).Status; got != CheckPending {
		t.Errorf("with unchecked: %q", got)
	}
	if got := Summarize("p", nil).Status; got != CheckVerified {
		t.Errorf("no citations: %q", got)
	}
}
