package hints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"ncertrag/internal/domain"
)

// ErrNoJSON is returned when a model reply holds no JSON object.
var ErrNoJSON = errors.New("no JSON object in model reply")

// completer sends one prompt to a language model and returns the raw text reply.
type completer interface {
	complete(ctx context.Context, system, prompt string) (string, error)
}

// LLMProvider asks a language model for boundary and concept hints.
type LLMProvider struct {
	name string
	llm  completer
	// maxInput caps the text sent per call, in bytes.
	maxInput int
}

const systemPrompt = "You are an expert analyst of NCERT school science textbooks. " +
	"Reply with exactly one JSON object and no other text."

const boundaryPrompt = `Split the textbook passage below into learning units that should stay together:
an activity or worked example belongs with the prose that introduces and explains it.

Passage:
%s

Reply with JSON of the form:
{"learning_units": [{"start": 0, "end": 200, "type": "activity",
  "description": "short description", "educational_elements": ["Activity 7.1"]}]}
start and end are byte offsets into the passage.`

const conceptPrompt = `List the key concepts taught in this passage.

Subject: %s
Grade: %d
Passage:
%s

Reply with JSON of the form:
{"main_concepts": ["..."], "sub_concepts": ["..."],
 "concept_relationships": [{"from": "...", "to": "...", "relation": "prerequisite"}],
 "educational_context": ["real world application or example"]}`

func (p *LLMProvider) Name() string { return p.name }

func (p *LLMProvider) clip(text string) string {
	if p.maxInput <= 0 || len(text) <= p.maxInput {
		return text
	}
	cut := p.maxInput
	for cut > 0 && !isRuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

func (p *LLMProvider) DetectBoundaries(ctx context.Context, text string) (domain.BoundaryHints, error) {
	text = p.clip(text)
	reply, err := p.llm.complete(ctx, systemPrompt, fmt.Sprintf(boundaryPrompt, text))
	if err != nil {
		return domain.BoundaryHints{}, err
	}
	var out domain.BoundaryHints
	if err := decodeReply(reply, &out); err != nil {
		return domain.BoundaryHints{}, err
	}
	units := out.LearningUnits[:0]
	for _, u := range out.LearningUnits {
		if u.Start < 0 || u.End > len(text) || u.Start >= u.End {
			continue
		}
		units = append(units, u)
	}
	sort.SliceStable(units, func(i, j int) bool { return units[i].Start < units[j].Start })
	out.LearningUnits = units
	return out, nil
}

func (p *LLMProvider) ExtractConcepts(ctx context.Context, text, subject string, gradeLevel int) (domain.ConceptHints, error) {
	reply, err := p.llm.complete(ctx, systemPrompt, fmt.Sprintf(conceptPrompt, subject, gradeLevel, p.clip(text)))
	if err != nil {
		return domain.ConceptHints{}, err
	}
	var raw struct {
		MainConcepts         []string                 `json:"main_concepts"`
		SubConcepts          []string                 `json:"sub_concepts"`
		ConceptRelationships []domain.ConceptRelation `json:"concept_relationships"`
		EducationalContext   json.RawMessage          `json:"educational_context"`
	}
	if err := decodeReply(reply, &raw); err != nil {
		return domain.ConceptHints{}, err
	}
	return domain.ConceptHints{
		MainConcepts:         trimAll(raw.MainConcepts),
		SubConcepts:          trimAll(raw.SubConcepts),
		ConceptRelationships: raw.ConceptRelationships,
		EducationalContext:   flattenContext(raw.EducationalContext),
	}, nil
}

// decodeReply extracts the outermost JSON object from a model reply, tolerating
// code fences and surrounding prose.
func decodeReply(reply string, v any) error {
	start := strings.IndexByte(reply, '{')
	end := strings.LastIndexByte(reply, '}')
	if start < 0 || end < start {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), v); err != nil {
		return fmt.Errorf("decode model reply: %w", err)
	}
	return nil
}

// flattenContext accepts either a list of strings or an object of string lists.
func flattenContext(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return trimAll(list)
	}
	var groups map[string][]string
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		list = append(list, groups[k]...)
	}
	return trimAll(list)
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
