package domain

import "fmt"

// Challenge is a single unit of the curriculum. Challenges are authored as
// content and never mutated at runtime.
type Challenge struct {
	ID                 string     `json:"id"`
	Week               int        `json:"week"`
	Day                int        `json:"day"`
	Title              string     `json:"title"`
	Subtitle           string     `json:"subtitle"`
	Category           Category   `json:"category"`
	Difficulty         Difficulty `json:"difficulty"`
	EstimatedTime      int        `json:"estimatedTime"` // minutes
	Concept            string     `json:"concept"`
	Description        string     `json:"description"`
	LearningObjective  string     `json:"learningObjective"`
	MetaNarrative      string     `json:"metaNarrative,omitempty"`
	StarterCode        string     `json:"starterCode"`
	Hints              []string   `json:"hints"`
	Solution           string     `json:"solution"`
	RealWorldUse       string     `json:"realWorldUse"`
	AICollaborationTip string     `json:"aiCollaborationTip"`
	Requires           []string   `json:"requires"`

	// Unlocks is derived from the requires lists of the rest of the
	// catalog. It is informational only and never consulted for gating.
	Unlocks []string `json:"unlocks"`
}

// Category groups challenges by their role in the curriculum
type Category string

const (
	CategoryFoundation    Category = "foundation"
	CategoryBuilding      Category = "building"
	CategoryMeta          Category = "meta"
	CategoryCustomization Category = "customization"
	CategoryDeployment    Category = "deployment"
)

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	switch c {
	case CategoryFoundation, CategoryBuilding, CategoryMeta, CategoryCustomization, CategoryDeployment:
		return true
	}
	return false
}

// Difficulty represents challenge difficulty level
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Valid reports whether d is a known difficulty
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// HasPrerequisites reports whether the challenge is gated at all
func (c *Challenge) HasPrerequisites() bool {
	return len(c.Requires) > 0
}

// Validate checks the fields a challenge must carry to be served
func (c *Challenge) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: challenge id is required", ErrInvalidChallenge)
	}
	if c.Week <= 0 || c.Day <= 0 {
		return fmt.Errorf("%w: %s: week and day must be positive", ErrInvalidChallenge, c.ID)
	}
	if c.EstimatedTime <= 0 {
		return fmt.Errorf("%w: %s: estimated time must be positive", ErrInvalidChallenge, c.ID)
	}
	if !c.Category.Valid() {
		return fmt.Errorf("%w: %s: unknown category %q", ErrInvalidChallenge, c.ID, c.Category)
	}
	if !c.Difficulty.Valid() {
		return fmt.Errorf("%w: %s: unknown difficulty %q", ErrInvalidChallenge, c.ID, c.Difficulty)
	}
	for _, req := range c.Requires {
		if req == c.ID {
			return fmt.Errorf("%w: %s requires itself", ErrInvalidChallenge, c.ID)
		}
	}
	return nil
}

// ChallengeState is the learner-facing status of a challenge
type ChallengeState string

const (
	StateLocked    ChallengeState = "locked"
	StateAvailable ChallengeState = "available"
	StateCompleted ChallengeState = "completed"
)
