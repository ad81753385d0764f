package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/dan-solli/gencall/pkg/generation"
)

const questionMaxTokens = 800

// GRCCategories are the accepted question categories. Random lets the model pick.
var GRCCategories = []string{
	"Regulation",
	"Risk Management",
	"Compliance",
	"Audit",
	"Governance",
	"Management",
	"Policy",
	"Ethics",
	"Threat Assessment",
	"Leadership",
	"Business Continuity",
	"Random",
}

// GRCDifficulties are the accepted difficulty levels
var GRCDifficulties = []string{"Easy", "Medium", "Hard"}

// GRCQuestion is a four-option multiple choice question
type GRCQuestion struct {
	Question           string            `json:"question" validate:"required"`
	Options            []string          `json:"options" validate:"len=4,dive,required"`
	CorrectAnswerIndex int               `json:"correct_answer_index" validate:"gte=0,lte=3"`
	Explanations       map[string]string `json:"explanations" validate:"len=4,dive,keys,oneof=0 1 2 3,endkeys,required"`
	ExamTip            string            `json:"exam_tip" validate:"required"`
}

var grcRequiredKeys = []string{"question", "options", "correct_answer_index", "explanations", "exam_tip"}

const grcQuestionPrompt = `Generate one multiple-choice question for a governance, risk and compliance (GRC) certification exam.
Category: %s
Difficulty: %s

Requirements:
- Exactly 4 answer options, only one of them correct.
- The wrong options must be plausible and test real understanding, not memorization.
- Explain for every option, keyed "0" to "3", why it is correct or incorrect.
- Add one exam tip that helps tell the correct answer apart from similar-looking options.

Return ONLY a JSON object with this structure:
{
  "question": "...",
  "options": ["...", "...", "...", "..."],
  "correct_answer_index": 0,
  "explanations": {"0": "...", "1": "...", "2": "...", "3": "..."},
  "exam_tip": "..."
}`

// GRCQuestion generates one question for category and difficulty (case-insensitive).
func (g *Generator) GRCQuestion(ctx context.Context, category, difficulty string) (*GRCQuestion, error) {
	cat, ok := matchOption(category, GRCCategories)
	if !ok {
		return nil, invalidInput("category", fmt.Errorf("unknown category %q", category))
	}
	diff, ok := matchOption(difficulty, GRCDifficulties)
	if !ok {
		return nil, invalidInput("difficulty", fmt.Errorf("unknown difficulty %q", difficulty))
	}

	req := g.request("grc_question", fmt.Sprintf(grcQuestionPrompt, cat, diff), questionMaxTokens)
	req.Mode = generation.StrictJSON
	req.Schema = generation.NewJSONSchema[GRCQuestion](grcRequiredKeys...)

	result, err := g.client.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate GRC question: %w", err)
	}

	q, err := generation.Decoded[GRCQuestion](result)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// matchOption returns the canonical spelling of s in options
func matchOption(s string, options []string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, o := range options {
		if strings.EqualFold(s, o) {
			return o, true
		}
	}
	return "", false
}
