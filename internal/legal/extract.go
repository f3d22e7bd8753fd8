// Package legal extracts statute citations from post bodies and verifies
// them before publication.
package legal

import (
	"regexp"
	"strings"

	"blogpilot/internal/models"
)

// Verdicts for a checked citation.
const (
	VerdictValid   = "valid"
	VerdictInvalid = "invalid"
	VerdictUnknown = "unknown"
)

// Statuses for a whole verification run, stored in legal_checks.
const (
	CheckPending  = "pending"
	CheckVerified = "verified"
	CheckWarning  = "warning"
	CheckFailed   = "failed"
)

// Summarize folds citation verdicts into one check record for the post.
// Invalid citations make the run failed, unverified ones make it a warning;
// an empty verdict anywhere means verification has not run yet.
func Summarize(postID string, refs []models.LegalReference) models.LegalCheck {
	check := models.LegalCheck{PostID: postID, Total: len(refs), Status: CheckVerified}
	for _, r := range refs {
		switch r.Verdict {
		case VerdictValid:
			check.Valid++
		case VerdictInvalid:
			check.Invalid++
		case VerdictUnknown:
			check.Unknown++
		default:
			check.Status = CheckPending
		}
	}
	if check.Status == CheckPending {
		return check
	}
	switch {
	case check.Invalid > 0:
		check.Status = CheckFailed
	case check.Unknown > 0:
		check.Status = CheckWarning
	}
	return check
}

var (
	// Bracketed law name with optional clause: 「주택임대차보호법」 제8조 제1항.
	bracketedRe = regexp.MustCompile(`「([^」]+)」(?:\s*(제\d+조(?:의\d+)?(?:\s*제\d+항)?))?`)
	// Bare law name ending in 법/령/규칙: 주택임대차보호법 제8조의2 제1항.
	bareRe = regexp.MustCompile(`([가-힣]+(?:법|령|규칙))\s*(제\d+조(?:의\d+)?(?:\s*제\d+항)?)`)
)

// knownAbbreviations are shorthand law names accepted as valid without a
// verifier round trip.
var knownAbbreviations = map[string]string{
	"주임법": "주택임대차보호법",
	"상임법": "상가건물 임대차보호법",
	"민집법": "민사집행법",
	"도정법": "도시 및 주거환경정비법",
}

// Extract finds statute citations in a post body. Duplicate citations are
// collapsed to one reference.
func Extract(postID, body string) []models.LegalReference {
	seen := map[string]struct{}{}
	var out []models.LegalReference

	add := func(law, clause string) {
		law = strings.TrimSpace(law)
		clause = strings.TrimSpace(clause)
		if law == "" {
			return
		}
		citation := law
		if clause != "" {
			citation += " " + clause
		}
		if _, ok := seen[citation]; ok {
			return
		}
		seen[citation] = struct{}{}
		ref := models.LegalReference{
			PostID:   postID,
			Citation: citation,
			Law:      law,
			Clause:   clause,
		}
		if full, ok := knownAbbreviations[law]; ok {
			ref.Verdict = VerdictValid
			ref.Detail = "약칭: " + full
		}
		out = append(out, ref)
	}

	for _, m := range bracketedRe.FindAllStringSubmatch(body, -1) {
		add(m[1], m[2])
	}
	for _, m := range bareRe.FindAllStringSubmatch(body, -1) {
		add(m[1], m[2])
	}
	return out
}
