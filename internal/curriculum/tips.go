package curriculum

import (
	"math/rand/v2"
	"slices"

	"github.com/felixgeelhaar/masterylab/internal/domain"
)

// Tips is the read-only rotating content shown next to challenges
type Tips struct {
	aiTips     []string
	categories []domain.TipCategory
	realWorld  []domain.RealWorldTip
	themes     []domain.Theme

	// intn picks an index in [0, n); replaced in tests
	intn func(n int) int
}

// RandomAITip returns one AI collaboration tip, or "" when none are loaded
func (t *Tips) RandomAITip() string {
	if len(t.aiTips) == 0 {
		return ""
	}
	return t.aiTips[t.pick(len(t.aiTips))]
}

// RandomRealWorldTip returns one real-world tip. ok is false when none are
// loaded.
func (t *Tips) RandomRealWorldTip() (tip domain.RealWorldTip, ok bool) {
	if len(t.realWorld) == 0 {
		return domain.RealWorldTip{}, false
	}
	return t.realWorld[t.pick(len(t.realWorld))], true
}

// Categories returns the AI tips grouped by category
func (t *Tips) Categories() []domain.TipCategory {
	return slices.Clone(t.categories)
}

// Category returns the tips of a single category
func (t *Tips) Category(name string) ([]string, bool) {
	for _, c := range t.categories {
		if c.Name == name {
			return slices.Clone(c.Tips), true
		}
	}
	return nil, false
}

// Themes returns the theme presets
func (t *Tips) Themes() []domain.Theme {
	return slices.Clone(t.themes)
}

// Count returns the number of AI tips and real-world tips
func (t *Tips) Count() (ai, realWorld int) {
	return len(t.aiTips), len(t.realWorld)
}

func (t *Tips) pick(n int) int {
	if t.intn != nil {
		return t.intn(n)
	}
	return rand.IntN(n)
}
