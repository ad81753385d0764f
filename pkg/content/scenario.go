package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dan-solli/gencall/pkg/generation"
)

// ScenarioQuestionCount is how many questions ScenarioQuestions asks for
const ScenarioQuestionCount = 3

// ErrNoScenarioQuestions is returned when none of the generated questions is usable
var ErrNoScenarioQuestions = errors.New("no valid scenario questions")

// ScenarioQuestion is a lettered multiple choice question about a scenario
type ScenarioQuestion struct {
	Question      string          `json:"question" validate:"required"`
	Options       ScenarioOptions `json:"options"`
	CorrectAnswer string          `json:"correct_answer" validate:"oneof=A B C D"`
	Explanation   string          `json:"explanation" validate:"required"`
}

// ScenarioOptions holds the four lettered answers
type ScenarioOptions struct {
	A string `json:"A" validate:"required"`
	B string `json:"B" validate:"required"`
	C string `json:"C" validate:"required"`
	D string `json:"D" validate:"required"`
}

const scenarioQuestionsPrompt = `Based on the following security scenario, write %d multiple-choice questions that test understanding of it:

%s

Each question has the answer options A, B, C and D with exactly one correct answer, and a short explanation.
Return ONLY a JSON array with this structure:
[
  {
    "question": "...",
    "options": {"A": "...", "B": "...", "C": "...", "D": "..."},
    "correct_answer": "B",
    "explanation": "..."
  }
]`

// ScenarioQuestions generates questions about scenario. Malformed questions are
// dropped with a warning; ErrNoScenarioQuestions is returned when none remain.
func (g *Generator) ScenarioQuestions(ctx context.Context, scenario string) ([]ScenarioQuestion, error) {
	if strings.TrimSpace(scenario) == "" {
		return nil, invalidInput("scenario", errors.New("must not be empty"))
	}

	req := g.request("scenario_questions", fmt.Sprintf(scenarioQuestionsPrompt, ScenarioQuestionCount, scenario), questionMaxTokens)
	req.Mode = generation.StrictJSON
	// Items are validated one by one below so a single bad item does not fail the call
	req.Schema = generation.NewJSONSchema[[]json.RawMessage]()

	result, err := g.client.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate scenario questions: %w", err)
	}

	items, err := generation.Decoded[[]json.RawMessage](result)
	if err != nil {
		return nil, err
	}

	questions := make([]ScenarioQuestion, 0, len(items))
	for i, raw := range items {
		q, err := parseScenarioQuestion(raw)
		if err != nil {
			g.logger.Warn("dropping invalid scenario question", "index", i, "error", err)
			continue
		}
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: %d generated, all invalid", ErrNoScenarioQuestions, len(items))
	}
	return questions, nil
}

func parseScenarioQuestion(raw json.RawMessage) (ScenarioQuestion, error) {
	var q ScenarioQuestion
	if err := json.Unmarshal(raw, &q); err != nil {
		return ScenarioQuestion{}, err
	}
	q.CorrectAnswer = strings.ToUpper(strings.TrimSpace(q.CorrectAnswer))
	if err := validate.Struct(q); err != nil {
		return ScenarioQuestion{}, err
	}
	return q, nil
}
