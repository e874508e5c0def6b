package curriculum

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/felixgeelhaar/masterylab/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed content/*.yaml
var content embed.FS

const (
	curriculumFile = "curriculum.yaml"
	tipsFile       = "tips.yaml"
)

// CurriculumFile represents the YAML structure of a curriculum
type CurriculumFile struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Version     string          `yaml:"version"`
	Description string          `yaml:"description"`
	Challenges  []ChallengeFile `yaml:"challenges"`
}

// ChallengeFile represents the YAML structure of a single challenge
type ChallengeFile struct {
	ID                 string   `yaml:"id"`
	Week               int      `yaml:"week"`
	Day                int      `yaml:"day"`
	Title              string   `yaml:"title"`
	Subtitle           string   `yaml:"subtitle"`
	Category           string   `yaml:"category"`
	Difficulty         string   `yaml:"difficulty"`
	EstimatedTime      int      `yaml:"estimated_time"`
	Concept            string   `yaml:"concept"`
	Description        string   `yaml:"description"`
	LearningObjective  string   `yaml:"learning_objective"`
	MetaNarrative      string   `yaml:"meta_narrative"`
	StarterCode        string   `yaml:"starter_code"`
	Hints              []string `yaml:"hints"`
	Solution           string   `yaml:"solution"`
	RealWorldUse       string   `yaml:"real_world_use"`
	AICollaborationTip string   `yaml:"ai_collaboration_tip"`
	Unlocks            []string `yaml:"unlocks"`
	Requires           []string `yaml:"requires"`
}

// TipsFile represents the YAML structure of the rotating tips content
type TipsFile struct {
	AICollaboration []struct {
		Category string   `yaml:"category"`
		Tips     []string `yaml:"tips"`
	} `yaml:"ai_collaboration"`
	RealWorld []struct {
		Concept      string   `yaml:"concept"`
		Tip          string   `yaml:"tip"`
		CommonErrors []string `yaml:"common_errors"`
		Reality      string   `yaml:"reality"`
	} `yaml:"real_world"`
	Themes []struct {
		Name   string `yaml:"name"`
		Colors struct {
			Primary    string `yaml:"primary"`
			Secondary  string `yaml:"secondary"`
			Accent     string `yaml:"accent"`
			Background string `yaml:"background"`
			Text       string `yaml:"text"`
		} `yaml:"colors"`
		Fonts struct {
			Heading string `yaml:"heading"`
			Body    string `yaml:"body"`
		} `yaml:"fonts"`
	} `yaml:"themes"`
}

// Loader reads curriculum content from a filesystem
type Loader struct {
	fsys fs.FS
}

// NewLoader creates a loader over fsys. Files are expected at the root.
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// EmbeddedLoader returns a loader over the content compiled into the binary
func EmbeddedLoader() *Loader {
	sub, err := fs.Sub(content, "content")
	if err != nil {
		// content is compiled in; a failure here is a build defect
		panic(fmt.Sprintf("curriculum: embedded content: %v", err))
	}
	return NewLoader(sub)
}

// DirLoader returns a loader over a content directory on disk. Files missing
// from dir fall back to the embedded content.
func DirLoader(dir string) *Loader {
	return NewLoader(overlayFS{primary: os.DirFS(dir), fallback: EmbeddedLoader().fsys})
}

// LoadChallenges reads the curriculum file and converts it to domain
// challenges in authored order. Unlocks are carried as authored; the catalog
// derives the real values.
func (l *Loader) LoadChallenges() ([]*domain.Challenge, error) {
	data, err := fs.ReadFile(l.fsys, curriculumFile)
	if err != nil {
		return nil, fmt.Errorf("read curriculum file: %w", err)
	}

	var file CurriculumFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse curriculum file: %w", err)
	}

	challenges := make([]*domain.Challenge, 0, len(file.Challenges))
	for _, cf := range file.Challenges {
		challenges = append(challenges, cf.toDomain())
	}
	return challenges, nil
}

// LoadTips reads the rotating tips and theme presets
func (l *Loader) LoadTips() (*Tips, error) {
	data, err := fs.ReadFile(l.fsys, tipsFile)
	if err != nil {
		return nil, fmt.Errorf("read tips file: %w", err)
	}

	var file TipsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse tips file: %w", err)
	}

	tips := &Tips{}
	for _, c := range file.AICollaboration {
		tips.categories = append(tips.categories, domain.TipCategory{Name: c.Category, Tips: c.Tips})
		tips.aiTips = append(tips.aiTips, c.Tips...)
	}
	for _, rw := range file.RealWorld {
		tips.realWorld = append(tips.realWorld, domain.RealWorldTip{
			Concept:      rw.Concept,
			Tip:          rw.Tip,
			CommonErrors: rw.CommonErrors,
			Reality:      rw.Reality,
		})
	}
	for _, t := range file.Themes {
		tips.themes = append(tips.themes, domain.Theme{
			Name: t.Name,
			Colors: domain.ThemeColors{
				Primary:    t.Colors.Primary,
				Secondary:  t.Colors.Secondary,
				Accent:     t.Colors.Accent,
				Background: t.Colors.Background,
				Text:       t.Colors.Text,
			},
			Fonts: domain.ThemeFonts{
				Heading: t.Fonts.Heading,
				Body:    t.Fonts.Body,
			},
		})
	}
	return tips, nil
}

func (cf ChallengeFile) toDomain() *domain.Challenge {
	requires := cf.Requires
	if requires == nil {
		requires = []string{}
	}
	return &domain.Challenge{
		ID:                 cf.ID,
		Week:               cf.Week,
		Day:                cf.Day,
		Title:              cf.Title,
		Subtitle:           cf.Subtitle,
		Category:           domain.Category(cf.Category),
		Difficulty:         domain.Difficulty(cf.Difficulty),
		EstimatedTime:      cf.EstimatedTime,
		Concept:            cf.Concept,
		Description:        cf.Description,
		LearningObjective:  cf.LearningObjective,
		MetaNarrative:      cf.MetaNarrative,
		StarterCode:        cf.StarterCode,
		Hints:              cf.Hints,
		Solution:           cf.Solution,
		RealWorldUse:       cf.RealWorldUse,
		AICollaborationTip: cf.AICollaborationTip,
		Unlocks:            cf.Unlocks,
		Requires:           requires,
	}
}

// overlayFS serves files from primary and falls back when they are missing
type overlayFS struct {
	primary  fs.FS
	fallback fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	f, err := o.primary.Open(name)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return o.fallback.Open(name)
}
