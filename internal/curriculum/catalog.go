package curriculum

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/felixgeelhaar/masterylab/internal/domain"
)

// Catalog is the immutable, ordered set of challenges. It is built once at
// startup and safe for concurrent reads.
type Catalog struct {
	challenges []*domain.Challenge
	byID       map[string]*domain.Challenge
	warnings   []string
}

// NewCatalog validates challenges and derives their unlocks. Structural
// problems (duplicate ids, invalid fields, prerequisite cycles) fail the
// build. Dangling references only produce warnings: a challenge requiring an
// unknown id simply stays locked.
func NewCatalog(challenges []*domain.Challenge) (*Catalog, error) {
	c := &Catalog{
		challenges: make([]*domain.Challenge, 0, len(challenges)),
		byID:       make(map[string]*domain.Challenge, len(challenges)),
	}

	for _, ch := range challenges {
		if err := ch.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[ch.ID]; dup {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateChallenge, ch.ID)
		}
		cp := *ch
		cp.Hints = slices.Clone(ch.Hints)
		cp.Requires = slices.Clone(ch.Requires)
		c.challenges = append(c.challenges, &cp)
		c.byID[cp.ID] = &cp
	}

	for _, ch := range c.challenges {
		for _, req := range ch.Requires {
			if _, ok := c.byID[req]; !ok {
				c.warnings = append(c.warnings, fmt.Sprintf("%s requires unknown challenge %s; it will stay locked", ch.ID, req))
			}
		}
	}

	if err := c.checkCycles(); err != nil {
		return nil, err
	}

	c.deriveUnlocks()
	return c, nil
}

// Load reads challenges through the loader and builds a catalog, logging
// content warnings.
func Load(loader *Loader) (*Catalog, error) {
	challenges, err := loader.LoadChallenges()
	if err != nil {
		return nil, err
	}
	catalog, err := NewCatalog(challenges)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	for _, w := range catalog.Warnings() {
		slog.Warn("curriculum content", "warning", w)
	}
	slog.Info("curriculum loaded", "challenges", catalog.Len(), "weeks", len(catalog.Weeks()))
	return catalog, nil
}

// deriveUnlocks replaces each challenge's unlocks with the reverse index of
// requires. Authored values are compared first so drift is reported.
func (c *Catalog) deriveUnlocks() {
	derived := make(map[string][]string, len(c.challenges))
	for _, ch := range c.challenges {
		for _, req := range ch.Requires {
			if _, ok := c.byID[req]; ok {
				derived[req] = append(derived[req], ch.ID)
			}
		}
	}

	for _, ch := range c.challenges {
		want := derived[ch.ID]
		if want == nil {
			want = []string{}
		}
		if ch.Unlocks != nil {
			for _, id := range ch.Unlocks {
				if _, ok := c.byID[id]; !ok {
					c.warnings = append(c.warnings, fmt.Sprintf("%s lists unknown challenge %s in unlocks", ch.ID, id))
				} else if !slices.Contains(want, id) {
					c.warnings = append(c.warnings, fmt.Sprintf("%s lists %s in unlocks, but %s does not require it", ch.ID, id, id))
				}
			}
			for _, id := range want {
				if !slices.Contains(ch.Unlocks, id) {
					c.warnings = append(c.warnings, fmt.Sprintf("%s unlocks %s, but it is missing from the authored unlocks", ch.ID, id))
				}
			}
		}
		ch.Unlocks = want
	}
}

func (c *Catalog) checkCycles() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(c.challenges))

	var visit func(id string, path []string) error
	visit = func(id string, path []string) error {
		switch state[id] {
		case visiting:
			return fmt.Errorf("%w: %v", domain.ErrPrerequisiteCycle, append(path, id))
		case done:
			return nil
		}
		state[id] = visiting
		for _, req := range c.byID[id].Requires {
			if _, ok := c.byID[req]; !ok {
				continue
			}
			if err := visit(req, append(path, id)); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}

	for _, ch := range c.challenges {
		if err := visit(ch.ID, nil); err != nil {
			return err
		}
	}
	return nil
}

// Get returns a challenge by id
func (c *Catalog) Get(id string) (*domain.Challenge, error) {
	ch, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrChallengeNotFound, id)
	}
	return ch, nil
}

// All returns the challenges in catalog order
func (c *Catalog) All() []*domain.Challenge {
	return slices.Clone(c.challenges)
}

// Len returns the number of challenges
func (c *Catalog) Len() int {
	return len(c.challenges)
}

// Warnings returns the content problems found while building the catalog
func (c *Catalog) Warnings() []string {
	return slices.Clone(c.warnings)
}

// Weeks returns the distinct weeks in ascending order
func (c *Catalog) Weeks() []int {
	var weeks []int
	for _, ch := range c.challenges {
		if !slices.Contains(weeks, ch.Week) {
			weeks = append(weeks, ch.Week)
		}
	}
	slices.Sort(weeks)
	return weeks
}
