package evaluation

import (
	"regexp"

	"github.com/felixgeelhaar/masterylab/internal/domain"
)

var verdictTag = regexp.MustCompile(`^\[(PASS|FAIL|PARTIAL)\]\s*`)

// ParseVerdict reads the verdict tag at the very start of the model reply.
// A reply without a recognized tag is PARTIAL and keeps its full text.
func ParseVerdict(text string) domain.Feedback {
	m := verdictTag.FindStringSubmatchIndex(text)
	if m == nil {
		return feedback(domain.VerdictPartial, text)
	}
	verdict := domain.Verdict(text[m[2]:m[3]])
	return feedback(verdict, text[m[1]:])
}

func feedback(v domain.Verdict, message string) domain.Feedback {
	return domain.Feedback{
		Verdict:  v,
		Headline: v.Headline(),
		Message:  message,
	}
}
