package services

import (
	"fmt"

	"github.com/yungbote/omex-backend/internal/domain/study"
	"github.com/yungbote/omex-backend/internal/platform/apierr"
	"github.com/yungbote/omex-backend/internal/platform/validate"
	"github.com/yungbote/omex-backend/internal/services/quizbank"
)

// QuizGenerator produces the questions for one subtopic from a mindmap's diagram source.
type QuizGenerator interface {
	Generate(diagramSource string) []study.QuizQuestion
}

type placeholderQuizGenerator struct {
	questions []study.QuizQuestion
}

// NewPlaceholderQuizGenerator ignores the diagram source and returns the built-in question set.
func NewPlaceholderQuizGenerator() (QuizGenerator, error) {
	qs, err := quizbank.Placeholder()
	if err != nil {
		return nil, err
	}
	return &placeholderQuizGenerator{questions: qs}, nil
}

func (g *placeholderQuizGenerator) Generate(string) []study.QuizQuestion {
	return study.CloneQuestions(g.questions)
}

type GenerateInput struct {
	Mindmaps []study.Mindmap `json:"mindmaps" validate:"required,min=1,dive"`
}

// PlanGenerator turns mindmaps into a study plan: one topic per mindmap, each
// with a fixed number of timed subtopics carrying a quiz.
type PlanGenerator struct {
	quizzes   QuizGenerator
	validator *validate.Validator
}

func NewPlanGenerator(quizzes QuizGenerator, validator *validate.Validator) *PlanGenerator {
	return &PlanGenerator{quizzes: quizzes, validator: validator}
}

func (g *PlanGenerator) Generate(mindmaps []study.Mindmap) (study.StudyPlan, error) {
	if err := g.validator.Struct(GenerateInput{Mindmaps: mindmaps}); err != nil {
		return study.StudyPlan{}, apierr.Validation(err.Error())
	}
	topics := make([]study.Topic, 0, len(mindmaps))
	for _, m := range mindmaps {
		subtopics := make([]study.Subtopic, study.SubtopicsPerTopic)
		for i := range subtopics {
			subtopics[i] = study.Subtopic{
				Name:            fmt.Sprintf("Subtopic %d", i+1),
				DurationMinutes: study.SubtopicDurationMinutes,
				Quiz:            g.quizzes.Generate(m.Content),
			}
		}
		topics = append(topics, study.Topic{
			Name:            m.Title,
			DurationMinutes: study.TopicDurationMinutes,
			Subtopics:       subtopics,
		})
	}
	return study.StudyPlan{Topics: topics, TokenBalance: study.InitialTokenBalance}, nil
}
