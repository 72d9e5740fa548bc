package domain

// ContentType classifies what kind of teaching material a chunk contains.
type ContentType string

const (
	ContentConceptualExplanation ContentType = "conceptual_explanation"
	ContentHandsOnActivity       ContentType = "hands_on_activity"
	ContentWorkedExamples        ContentType = "worked_examples"
	ContentVisualAids            ContentType = "visual_aids"
	ContentAssessmentQuestions   ContentType = "assessment_questions"
	ContentMathematicalFormulas  ContentType = "mathematical_formulas"
	ContentEnrichment            ContentType = "enrichment_content"
	ContentRealWorldApplications ContentType = "real_world_applications"
	ContentSummary               ContentType = "summary"
)

// LearningStyle tags the learner modality a chunk serves.
type LearningStyle string

const (
	StyleKinesthetic         LearningStyle = "kinesthetic"
	StyleVisual              LearningStyle = "visual"
	StyleLogicalMathematical LearningStyle = "logical_mathematical"
	StyleAnalytical          LearningStyle = "analytical"
	StyleVerbalLinguistic    LearningStyle = "verbal_linguistic"
	StyleExploratory         LearningStyle = "exploratory"
)

// CognitiveLevel is a coarse Bloom-style level.
type CognitiveLevel string

const (
	CognitiveUnderstanding CognitiveLevel = "understanding"
	CognitiveApplication   CognitiveLevel = "application"
	CognitiveHigherOrder   CognitiveLevel = "higher_order"
)

type BasicInfo struct {
	GradeLevel int    `json:"grade_level"`
	Subject    string `json:"subject"`
	Chapter    int    `json:"chapter"`
	Section    string `json:"section"`
	Title      string `json:"title"`
	PageStart  int    `json:"page_start,omitempty"`
	PageEnd    int    `json:"page_end,omitempty"`
}

type ContentComposition struct {
	ActivityCount   int      `json:"activity_count"`
	ExampleCount    int      `json:"example_count"`
	FigureCount     int      `json:"figure_count"`
	FormulaCount    int      `json:"formula_count"`
	QuestionCount   int      `json:"question_count"`
	SpecialBoxCount int      `json:"special_box_count"`
	Activities      []string `json:"activities,omitempty"`
	Examples        []string `json:"examples,omitempty"`
	Figures         []string `json:"figures,omitempty"`
	Formulas        []string `json:"formulas,omitempty"`
	Questions       []string `json:"questions,omitempty"`
	SpecialBoxes    []string `json:"special_boxes,omitempty"`
	HasIntroduction bool     `json:"has_introduction"`
	HasSummary      bool     `json:"has_summary"`
}

type PedagogicalElements struct {
	ContentTypes         []ContentType   `json:"content_types"`
	LearningStyles       []LearningStyle `json:"learning_styles"`
	CognitiveLevel       CognitiveLevel  `json:"cognitive_level"`
	EstimatedTimeMinutes int             `json:"estimated_time_minutes"`
	DifficultyLevel      string          `json:"difficulty_level"`
	ReadingLevel         float64         `json:"reading_level"`
}

type ConceptsAndSkills struct {
	MainConcepts         []string `json:"main_concepts"`
	SkillsDeveloped      []string `json:"skills_developed"`
	LearningObjectives   []string `json:"learning_objectives"`
	PrerequisiteConcepts []string `json:"prerequisite_concepts"`
	Keywords             []string `json:"keywords"`
}

type EducationalContext struct {
	RealWorldApplications []string `json:"real_world_applications"`
	Misconceptions        []string `json:"misconceptions"`
	CareerConnections     []string `json:"career_connections"`
	SectionReferences     []string `json:"section_references,omitempty"`
}

type QualityIndicators struct {
	Completeness         float64 `json:"completeness"`
	Coherence            float64 `json:"coherence"`
	PedagogicalSoundness float64 `json:"pedagogical_soundness"`
}

// Metadata is the full annotation record attached to a chunk.
type Metadata struct {
	BasicInfo           BasicInfo           `json:"basic_info"`
	ContentComposition  ContentComposition  `json:"content_composition"`
	PedagogicalElements PedagogicalElements `json:"pedagogical_elements"`
	ConceptsAndSkills   ConceptsAndSkills   `json:"concepts_and_skills"`
	EducationalContext  EducationalContext  `json:"educational_context"`
	QualityIndicators   QualityIndicators   `json:"quality_indicators"`
}

// HasContentType reports whether ct is among the chunk's content types.
func (m Metadata) HasContentType(ct ContentType) bool {
	for _, c := range m.PedagogicalElements.ContentTypes {
		if c == ct {
			return true
		}
	}
	return false
}
