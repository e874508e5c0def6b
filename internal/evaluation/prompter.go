package evaluation

import (
	"strings"

	"github.com/felixgeelhaar/masterylab/internal/domain"
)

const promptTemplate = `You are a coding mentor helping someone learn to build with AI. 

CHALLENGE: {title}
LEARNING OBJECTIVE: {objective}
CONCEPT: {concept}

THEIR CODE:
` + "```typescript" + `
{code}
` + "```" + `

REFERENCE SOLUTION:
` + "```typescript" + `
{solution}
` + "```" + `

Evaluate their code:
1. Does it demonstrate understanding of {concept}?
2. Would it actually work?
3. What's good about their approach?
4. What needs improvement?

Be encouraging but honest. If they got it right, celebrate. If not, guide them.
Format: [PASS/FAIL/PARTIAL] then 2-3 sentences of feedback.`

// BuildPrompt renders the grading prompt for a submission. Values are
// substituted in one pass, so code containing placeholder text is left as is.
func BuildPrompt(c *domain.Challenge, code string) string {
	r := strings.NewReplacer(
		"{title}", c.Title,
		"{objective}", c.LearningObjective,
		"{concept}", c.Concept,
		"{code}", code,
		"{solution}", c.Solution,
	)
	return r.Replace(promptTemplate)
}
