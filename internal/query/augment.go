package query

import (
	"context"
	"math/rand"
	"strconv"

	"github.com/haasonsaas/agentsynth/internal/llmclient"
	"github.com/haasonsaas/agentsynth/internal/parser"
	"github.com/haasonsaas/agentsynth/internal/promptstore"
	"github.com/haasonsaas/agentsynth/pkg/models"
)

// personaTable is a small fixed pool of sampled profiles for the add_ug
// mode. Ethnicity and region are intentionally never modeled here or
// anywhere else in this package (§4.10).
var personaTable = []models.Persona{
	{Age: 29, Occupation: "software engineer", Education: "BSc Computer Science", Professional: "backend development", Skills: "Go, distributed systems", Hobbies: "cycling"},
	{Age: 45, Occupation: "high school teacher", Education: "MEd", Professional: "secondary education", Skills: "curriculum design", Hobbies: "gardening"},
	{Age: 34, Occupation: "restaurant owner", Education: "culinary diploma", Professional: "hospitality management", Skills: "budgeting, staff scheduling", Hobbies: "cooking"},
	{Age: 52, Occupation: "civil engineer", Education: "MSc Civil Engineering", Professional: "infrastructure projects", Skills: "structural analysis", Hobbies: "hiking"},
	{Age: 23, Occupation: "graduate student", Education: "pursuing PhD in biology", Professional: "lab research", Skills: "statistics, R", Hobbies: "photography"},
}

// SamplePersona returns a persona for the add_ug augmentation mode.
func SamplePersona() models.Persona {
	return personaTable[rand.Intn(len(personaTable))] // #nosec G404 -- persona sampling, not security-sensitive
}

// Augmenter produces diverse/complicate/add_ug query variants from an
// original generated question (§4.10).
type Augmenter struct {
	client  *llmclient.Client
	prompts *promptstore.Store
}

// NewAugmenter builds an Augmenter.
func NewAugmenter(client *llmclient.Client, prompts *promptstore.Store) *Augmenter {
	return &Augmenter{client: client, prompts: prompts}
}

// Augment applies mode to the original query, returning the list of
// <variation_i> candidates the model produces. The caller (not this
// function) is responsible for re-emitting the original query unmodified
// alongside these (§4.10: "The original query is always re-emitted with
// augmented_query_info = {}").
func (a *Augmenter) Augment(ctx context.Context, original string, mode models.AugmentMode) ([]models.Variation, error) {
	vars := map[string]string{"question": original}
	if mode == models.AugmentAddUG {
		p := SamplePersona()
		vars["persona_age"] = strconv.Itoa(p.Age)
		vars["persona_occupation"] = p.Occupation
		vars["persona_education"] = p.Education
		vars["persona_professional"] = p.Professional
		vars["persona_skills"] = p.Skills
		vars["persona_hobbies"] = p.Hobbies
	}

	prompt, err := a.prompts.Render(string(mode)+"_augmentation", vars)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, nil)
	if err != nil {
		return nil, err
	}

	fields := parser.ParseVariations(resp.Content, string(mode))
	out := make([]models.Variation, 0, len(fields))
	for _, f := range fields {
		out = append(out, models.Variation{
			Question:    f.Question,
			Context:     f.Context,
			Constraints: f.Constraints,
			Mode:        f.Mode,
		})
	}
	return out, nil
}

// EmitRecords produces the full set of records for one generated query:
// the original (with an empty AugmentedQueryInfo) followed by one record
// per variation produced by mode (§4.10).
func EmitRecords(base models.QueryInfo, mode models.AugmentMode, variations []models.Variation) []models.QueryInfo {
	out := make([]models.QueryInfo, 0, len(variations)+1)

	original := base
	original.AugmentedQueryInfo = &models.AugmentedQueryInfo{}
	out = append(out, original)

	for _, v := range variations {
		rec := base
		rec.GeneratedQuestion = v.Question
		rec.AugmentedQueryInfo = &models.AugmentedQueryInfo{
			Mode:              string(mode),
			AugmentedQuestion: v.Question,
		}
		out = append(out, rec)
	}
	return out
}
