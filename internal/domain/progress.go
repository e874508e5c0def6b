package domain

import (
	"slices"
	"time"
)

// UserProgress is the learner's persisted record. It is stored wholesale as a
// single JSON document, so field names follow the stored wire format.
type UserProgress struct {
	CompletedChallenges []string       `json:"completedChallenges"`
	CurrentWeek         int            `json:"currentWeek"`
	CurrentDay          int            `json:"currentDay"`
	StartedAt           time.Time      `json:"startedAt"`
	Customization       *Customization `json:"customization,omitempty"`
}

// Customization holds cosmetic preferences. It is carried through storage
// untouched.
type Customization struct {
	AppName          string            `json:"appName,omitempty"`
	PrimaryColor     string            `json:"primaryColor,omitempty"`
	AccentColor      string            `json:"accentColor,omitempty"`
	FontFamily       string            `json:"fontFamily,omitempty"`
	PersonalBranding *PersonalBranding `json:"personalBranding,omitempty"`
}

// PersonalBranding is the optional author block of a customization
type PersonalBranding struct {
	Tagline    string `json:"tagline,omitempty"`
	AuthorName string `json:"authorName,omitempty"`
	LogoURL    string `json:"logoUrl,omitempty"`
}

// NewUserProgress returns the record used when nothing has been stored yet
func NewUserProgress(now time.Time) *UserProgress {
	return &UserProgress{
		CompletedChallenges: []string{},
		CurrentWeek:         1,
		CurrentDay:          1,
		StartedAt:           now,
	}
}

// IsCompleted reports whether the challenge id is in the completed set
func (p *UserProgress) IsCompleted(id string) bool {
	return slices.Contains(p.CompletedChallenges, id)
}

// CompletedCount returns the size of the completed set
func (p *UserProgress) CompletedCount() int {
	return len(p.CompletedChallenges)
}

// MarkCompleted adds the challenge to the completed set and moves the cursor
// to its position. The set only grows. It returns false when the id was
// already present, in which case only the cursor moves.
func (p *UserProgress) MarkCompleted(c *Challenge) bool {
	p.CurrentWeek = c.Week
	p.CurrentDay = c.Day
	if p.IsCompleted(c.ID) {
		return false
	}
	p.CompletedChallenges = append(p.CompletedChallenges, c.ID)
	return true
}

// Normalize repairs a decoded record: duplicates are dropped, a missing
// cursor falls back to week 1 day 1.
func (p *UserProgress) Normalize(now time.Time) {
	seen := make(map[string]bool, len(p.CompletedChallenges))
	ids := make([]string, 0, len(p.CompletedChallenges))
	for _, id := range p.CompletedChallenges {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	p.CompletedChallenges = ids

	if p.CurrentWeek <= 0 {
		p.CurrentWeek = 1
	}
	if p.CurrentDay <= 0 {
		p.CurrentDay = 1
	}
	if p.StartedAt.IsZero() {
		p.StartedAt = now
	}
}

// Merge folds a record written elsewhere into p: completed ids missing from p
// are appended, the earlier start time wins and a customization is adopted
// when p has none. The cursor of p is kept.
func (p *UserProgress) Merge(other *UserProgress) {
	if other == nil {
		return
	}
	for _, id := range other.CompletedChallenges {
		if id != "" && !p.IsCompleted(id) {
			p.CompletedChallenges = append(p.CompletedChallenges, id)
		}
	}
	if !other.StartedAt.IsZero() && (p.StartedAt.IsZero() || other.StartedAt.Before(p.StartedAt)) {
		p.StartedAt = other.StartedAt
	}
	if p.Customization == nil && other.Customization != nil {
		p.Customization = other.Clone().Customization
	}
}

// Clone returns a deep copy safe to hand to callers
func (p *UserProgress) Clone() *UserProgress {
	out := *p
	out.CompletedChallenges = slices.Clone(p.CompletedChallenges)
	if p.Customization != nil {
		c := *p.Customization
		if c.PersonalBranding != nil {
			b := *c.PersonalBranding
			c.PersonalBranding = &b
		}
		out.Customization = &c
	}
	return &out
}
