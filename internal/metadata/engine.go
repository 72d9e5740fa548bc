package metadata

import (
	"context"
	"math"

	"ncertrag/internal/domain"
	"ncertrag/internal/logger"
	"ncertrag/internal/patterns"
	"ncertrag/internal/textutil"
)

// Config bounds list sizes and sets the reading-time model.
type Config struct {
	MaxConcepts        int `yaml:"max_concepts"`
	MaxApplications    int `yaml:"max_applications"`
	MaxKeywords        int `yaml:"max_keywords"`
	WordsPerMinute     int `yaml:"words_per_minute"`
	MinutesPerActivity int `yaml:"minutes_per_activity"`
	MinutesPerExample  int `yaml:"minutes_per_example"`
}

func DefaultConfig() Config {
	return Config{
		MaxConcepts:        15,
		MaxApplications:    10,
		MaxKeywords:        10,
		WordsPerMinute:     200,
		MinutesPerActivity: 15,
		MinutesPerExample:  5,
	}
}

// Engine derives the metadata record of a learning unit.
type Engine struct {
	cfg     Config
	matcher *patterns.Matcher
	hints   domain.ConceptHintProvider
	log     *logger.Logger
}

// NewEngine creates an engine. hints may be nil, in which case only the rule-based path runs.
func NewEngine(matcher *patterns.Matcher, hints domain.ConceptHintProvider, cfg Config, log *logger.Logger) *Engine {
	def := DefaultConfig()
	if cfg.MaxConcepts <= 0 {
		cfg.MaxConcepts = def.MaxConcepts
	}
	if cfg.MaxApplications <= 0 {
		cfg.MaxApplications = def.MaxApplications
	}
	if cfg.MaxKeywords <= 0 {
		cfg.MaxKeywords = def.MaxKeywords
	}
	if cfg.WordsPerMinute <= 0 {
		cfg.WordsPerMinute = def.WordsPerMinute
	}
	if cfg.MinutesPerActivity < 0 {
		cfg.MinutesPerActivity = def.MinutesPerActivity
	}
	if cfg.MinutesPerExample < 0 {
		cfg.MinutesPerExample = def.MinutesPerExample
	}
	if matcher == nil {
		matcher = patterns.NewMatcher(nil)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{cfg: cfg, matcher: matcher, hints: hints, log: log}
}

// Extract builds the metadata for unit. source is the text the unit offsets point into;
// it is only consulted to check whether the unit ends inside a word.
func (e *Engine) Extract(ctx context.Context, unit domain.LearningUnit, source string, sec domain.RawSection) domain.Metadata {
	content := unit.Content()
	comp := e.composition(content, unit)

	var hinted []string
	if e.hints != nil {
		h, err := e.hints.ExtractConcepts(ctx, content, sec.Subject, sec.GradeLevel)
		if err != nil {
			e.log.Warn("concept hints unavailable, using rule-based extraction",
				"provider", e.hints.Name(), "section", sec.SectionNumber, "error", err)
		} else {
			hinted = append(hinted, h.MainConcepts...)
		}
	}

	concepts := e.concepts(content, sec.Subject, hinted)
	apps := e.applications(content)

	md := domain.Metadata{
		BasicInfo: domain.BasicInfo{
			GradeLevel: sec.GradeLevel,
			Subject:    sec.Subject,
			Chapter:    sec.Chapter,
			Section:    sec.SectionNumber,
			Title:      sec.Title,
		},
		ContentComposition: comp,
		PedagogicalElements: domain.PedagogicalElements{
			ContentTypes:         contentTypes(unit, comp, content, len(apps) > 0),
			LearningStyles:       learningStyles(unit, comp),
			CognitiveLevel:       cognitiveLevel(content),
			EstimatedTimeMinutes: e.estimatedMinutes(content, comp),
			DifficultyLevel:      difficulty(content, sec.GradeLevel, comp),
			ReadingLevel:         readingLevel(content),
		},
		ConceptsAndSkills: domain.ConceptsAndSkills{
			MainConcepts:         concepts,
			SkillsDeveloped:      skills(unit, comp, content),
			LearningObjectives:   objectives(unit, content),
			PrerequisiteConcepts: prerequisites(concepts, sec.GradeLevel, sec.Subject),
			Keywords:             e.keywords(content, concepts),
		},
		EducationalContext: domain.EducationalContext{
			RealWorldApplications: apps,
			Misconceptions:        misconceptions(content, concepts),
			CareerConnections:     careers(concepts, sec.Subject),
			SectionReferences:     sectionReferences(content, sec.SectionNumber, comp),
		},
	}
	md.QualityIndicators = indicators(unit, content, source, comp, len(concepts) > 0)
	return md
}

// QualityScore combines the indicators into one 0..1 number rounded to two places.
func QualityScore(q domain.QualityIndicators) float64 {
	s := 0.3*q.Completeness + 0.3*q.Coherence + 0.4*q.PedagogicalSoundness
	return math.Round(s*100) / 100
}

func (e *Engine) composition(content string, unit domain.LearningUnit) domain.ContentComposition {
	ids := func(t domain.ElementType) []string {
		var out []string
		seen := map[string]struct{}{}
		for _, m := range e.matcher.FindMatches(content, t) {
			if _, ok := seen[m.Identifier]; ok {
				continue
			}
			seen[m.Identifier] = struct{}{}
			out = append(out, m.Identifier)
		}
		return out
	}
	c := domain.ContentComposition{
		Activities:   ids(domain.ElementActivity),
		Examples:     ids(domain.ElementExample),
		Figures:      ids(domain.ElementFigure),
		Formulas:     ids(domain.ElementFormula),
		Questions:    ids(domain.ElementQuestion),
		SpecialBoxes: ids(domain.ElementSpecialBox),
	}
	c.ActivityCount = len(c.Activities)
	c.ExampleCount = len(c.Examples)
	c.FigureCount = len(c.Figures)
	c.FormulaCount = len(c.Formulas)
	c.QuestionCount = len(c.Questions)
	c.SpecialBoxCount = len(c.SpecialBoxes)
	c.HasSummary = len(e.matcher.FindMatches(content, domain.ElementSummary)) > 0 || unit.Has(domain.ElementSummary)
	c.HasIntroduction = len(unit.Segments) > 0 && unit.Segments[0].Type == domain.ElementProse
	return c
}

func (e *Engine) estimatedMinutes(content string, comp domain.ContentComposition) int {
	words := textutil.WordCount(content)
	reading := int(math.Ceil(float64(words) / float64(e.cfg.WordsPerMinute)))
	return reading + comp.ActivityCount*e.cfg.MinutesPerActivity + comp.ExampleCount*e.cfg.MinutesPerExample
}
