package quizbank

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/omex-backend/internal/domain/study"
)

//go:embed placeholder.yaml
var placeholderYAML []byte

// Parse decodes a YAML list of questions and checks every answer resolves to an option.
func Parse(raw []byte) ([]study.QuizQuestion, error) {
	var questions []study.QuizQuestion
	if err := yaml.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("parse quiz bank: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("quiz bank is empty")
	}
	for i, q := range questions {
		if q.Prompt == "" || len(q.Options) != study.OptionsPerQuestion {
			return nil, fmt.Errorf("quiz bank question %d: needs a prompt and exactly %d options", i, study.OptionsPerQuestion)
		}
		if _, ok := q.Answer.Resolve(q.Options); !ok {
			return nil, fmt.Errorf("quiz bank question %d: answer %q is not one of its options", i, q.Answer.String())
		}
	}
	return questions, nil
}

// Placeholder returns the built-in question set.
func Placeholder() ([]study.QuizQuestion, error) {
	return Parse(placeholderYAML)
}
