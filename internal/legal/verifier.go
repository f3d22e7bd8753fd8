package legal

import (
	"context"
	"fmt"
	"strings"

	"blogpilot/internal/generator"
	"blogpilot/internal/models"
)

// Verify checks extracted citations in one LLM round trip. References that
// already carry a verdict (known abbreviations) are skipped. The LLM is
// asked for one line per citation in the form "citation | verdict | detail";
// anything unparsable stays unknown.
func Verify(ctx context.Context, llm generator.Completer, refs []models.LegalReference) ([]models.LegalReference, error) {
	var pending []int
	for i, r := range refs {
		if r.Verdict == "" {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return refs, nil
	}

	var sb strings.Builder
	sb.WriteString(`다음 법령 인용이 실제로 존재하고 명칭이 정확한지 확인해 주세요.
각 인용에 대해 정확히 한 줄로, "인용 | valid 또는 invalid | 짧은 설명" 형식으로 답하세요.

`)
	for _, i := range pending {
		fmt.Fprintf(&sb, "%s\n", refs[i].Citation)
	}
	resp, err := llm.Complete(ctx, sb.String())
	if err != nil {
		return nil, fmt.Errorf("verify citations: %w", err)
	}

	verdicts := parseVerdicts(resp)
	for _, i := range pending {
		if v, ok := verdicts[refs[i].Citation]; ok {
			refs[i].Verdict = v.verdict
			refs[i].Detail = v.detail
		} else {
			refs[i].Verdict = VerdictUnknown
		}
	}
	return refs, nil
}

type verdict struct {
	verdict string
	detail  string
}

func parseVerdicts(resp string) map[string]verdict {
	out := map[string]verdict{}
	for _, line := range strings.Split(resp, "\n") {
		parts := strings.SplitN(line, "|", 3)
		if len(parts) < 2 {
			continue
		}
		citation := strings.TrimSpace(parts[0])
		v := strings.ToLower(strings.TrimSpace(parts[1]))
		if citation == "" {
			continue
		}
		if v != VerdictValid && v != VerdictInvalid {
			v = VerdictUnknown
		}
		detail := ""
		if len(parts) == 3 {
			detail = strings.TrimSpace(parts[2])
		}
		out[citation] = verdict{verdict: v, detail: detail}
	}
	return out
}
