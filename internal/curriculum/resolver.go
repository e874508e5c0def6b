package curriculum

import (
	"math"

	"github.com/felixgeelhaar/masterylab/internal/domain"
)

// WeekProgress summarizes completion within one week
type WeekProgress struct {
	Week       int `json:"week"`
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// IsUnlocked reports whether a challenge can be attempted. A challenge with no
// prerequisites is always unlocked; otherwise every prerequisite must be
// completed. Prerequisites that are not in the catalog can never be
// completed, so such challenges stay locked.
func IsUnlocked(c *domain.Challenge, p *domain.UserProgress) bool {
	for _, req := range c.Requires {
		if !p.IsCompleted(req) {
			return false
		}
	}
	return true
}

// State classifies a challenge for display
func State(c *domain.Challenge, p *domain.UserProgress) domain.ChallengeState {
	switch {
	case p.IsCompleted(c.ID):
		return domain.StateCompleted
	case IsUnlocked(c, p):
		return domain.StateAvailable
	default:
		return domain.StateLocked
	}
}

// ChallengesForWeek returns the challenges of a week in catalog order
func (c *Catalog) ChallengesForWeek(week int) []*domain.Challenge {
	var out []*domain.Challenge
	for _, ch := range c.challenges {
		if ch.Week == week {
			out = append(out, ch)
		}
	}
	return out
}

// WeekProgress counts completed challenges in a week. An empty week reports
// zero percent.
func (c *Catalog) WeekProgress(week int, p *domain.UserProgress) WeekProgress {
	wp := WeekProgress{Week: week}
	for _, ch := range c.ChallengesForWeek(week) {
		wp.Total++
		if p.IsCompleted(ch.ID) {
			wp.Completed++
		}
	}
	wp.Percentage = percent(wp.Completed, wp.Total)
	return wp
}

// OverallProgress returns the rounded share of the catalog that is completed.
// Completed ids that are no longer in the catalog are not counted.
func (c *Catalog) OverallProgress(p *domain.UserProgress) int {
	completed := 0
	for _, id := range p.CompletedChallenges {
		if _, ok := c.byID[id]; ok {
			completed++
		}
	}
	return percent(completed, len(c.challenges))
}

// Available returns every unlocked challenge in catalog order, completed ones
// included.
func (c *Catalog) Available(p *domain.UserProgress) []*domain.Challenge {
	var out []*domain.Challenge
	for _, ch := range c.challenges {
		if IsUnlocked(ch, p) {
			out = append(out, ch)
		}
	}
	return out
}

// Next returns the first unlocked challenge that is not yet completed, or
// nil when there is none.
func (c *Catalog) Next(p *domain.UserProgress) *domain.Challenge {
	for _, ch := range c.challenges {
		if !p.IsCompleted(ch.ID) && IsUnlocked(ch, p) {
			return ch
		}
	}
	return nil
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(n) / float64(total)))
}
