package study

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	TopicDurationMinutes    = 30
	SubtopicDurationMinutes = 10
	SubtopicsPerTopic       = 3
	InitialTokenBalance     = 100
	PassPercentage          = 70.0
	OptionsPerQuestion      = 4
)

type QuizQuestion struct {
	Prompt  string   `json:"question" yaml:"question"`
	Options []string `json:"options" yaml:"options"`
	Answer  Answer   `json:"answer" yaml:"answer"`
}

type Subtopic struct {
	Name            string         `json:"name"`
	DurationMinutes int            `json:"duration_minutes"`
	Quiz            []QuizQuestion `json:"quiz"`
}

type Topic struct {
	Name            string     `json:"topic"`
	DurationMinutes int        `json:"duration_minutes"`
	Subtopics       []Subtopic `json:"subtopics"`
}

type QuizState string

const (
	QuizNotStarted QuizState = "not_started"
	QuizInProgress QuizState = "in_progress"
	QuizSubmitted  QuizState = "submitted"
)

// QuizProgress is the server-side record of one subtopic quiz.
type QuizProgress struct {
	State          QuizState `json:"state"`
	Attempts       int       `json:"attempts"`
	BestPercentage float64   `json:"best_percentage"`
	Awarded        bool      `json:"awarded"`
}

// StudyPlan is a user's generated plan plus their token balance.
type StudyPlan struct {
	UserID       uuid.UUID               `json:"-"`
	Topics       []Topic                 `json:"study_plan"`
	TokenBalance int                     `json:"tokens"`
	Progress     map[string]QuizProgress `json:"progress,omitempty"`
}

func ProgressKey(topicIndex, subtopicIndex int) string {
	return fmt.Sprintf("%d:%d", topicIndex, subtopicIndex)
}

// Quiz returns the questions at (topicIndex, subtopicIndex).
func (p *StudyPlan) Quiz(topicIndex, subtopicIndex int) ([]QuizQuestion, bool) {
	if p == nil || topicIndex < 0 || topicIndex >= len(p.Topics) {
		return nil, false
	}
	subs := p.Topics[topicIndex].Subtopics
	if subtopicIndex < 0 || subtopicIndex >= len(subs) {
		return nil, false
	}
	return subs[subtopicIndex].Quiz, true
}

func (p *StudyPlan) QuizProgress(topicIndex, subtopicIndex int) QuizProgress {
	if p == nil || p.Progress == nil {
		return QuizProgress{State: QuizNotStarted}
	}
	qp, ok := p.Progress[ProgressKey(topicIndex, subtopicIndex)]
	if !ok {
		return QuizProgress{State: QuizNotStarted}
	}
	return qp
}

func (p *StudyPlan) SetQuizProgress(topicIndex, subtopicIndex int, qp QuizProgress) {
	if p.Progress == nil {
		p.Progress = make(map[string]QuizProgress)
	}
	p.Progress[ProgressKey(topicIndex, subtopicIndex)] = qp
}

// Clone returns a deep copy so stores never hand out shared state.
func (p StudyPlan) Clone() StudyPlan {
	out := p
	if p.Topics != nil {
		out.Topics = make([]Topic, len(p.Topics))
		for i, t := range p.Topics {
			t.Subtopics = cloneSubtopics(t.Subtopics)
			out.Topics[i] = t
		}
	}
	if p.Progress != nil {
		out.Progress = make(map[string]QuizProgress, len(p.Progress))
		for k, v := range p.Progress {
			out.Progress[k] = v
		}
	}
	return out
}

func cloneSubtopics(in []Subtopic) []Subtopic {
	if in == nil {
		return nil
	}
	out := make([]Subtopic, len(in))
	for i, s := range in {
		s.Quiz = CloneQuestions(s.Quiz)
		out[i] = s
	}
	return out
}

func CloneQuestions(in []QuizQuestion) []QuizQuestion {
	if in == nil {
		return nil
	}
	out := make([]QuizQuestion, len(in))
	for i, q := range in {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

// QuizResult is the outcome of one submission.
type QuizResult struct {
	Score          int     `json:"score"`
	Total          int     `json:"total"`
	Percentage     float64 `json:"percentage"`
	Tokens         int     `json:"tokens"`
	Passed         bool    `json:"passed"`
	AlreadyAwarded bool    `json:"already_awarded"`
	Balance        int     `json:"balance"`
}
