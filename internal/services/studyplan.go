package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/omex-backend/internal/data/plans"
	"github.com/yungbote/omex-backend/internal/domain/study"
	"github.com/yungbote/omex-backend/internal/observability"
	"github.com/yungbote/omex-backend/internal/platform/apierr"
	"github.com/yungbote/omex-backend/internal/platform/logger"
)

const (
	msgPlanNotFound  = "Study plan not found"
	msgQuizNotFound  = "Quiz not found"
	msgBadAnswerKey  = "Answer keys must be question indexes"
	msgAnswerOutside = "Answer for question %d is out of range"
)

type StudyPlanService interface {
	Initialize(ctx context.Context, userID uuid.UUID, mindmaps []study.Mindmap) (study.StudyPlan, error)
	GetPlan(ctx context.Context, userID uuid.UUID) (study.StudyPlan, error)
	GetQuiz(ctx context.Context, userID uuid.UUID, topicIndex, subtopicIndex int) ([]study.QuizQuestion, error)
	SubmitQuiz(ctx context.Context, userID uuid.UUID, topicIndex, subtopicIndex int, answers map[string]study.Answer) (study.QuizResult, error)
}

type studyPlanService struct {
	log       *logger.Logger
	store     plans.Store
	generator *PlanGenerator
	rewards   RewardPolicy
}

func NewStudyPlanService(log *logger.Logger, store plans.Store, generator *PlanGenerator, rewards RewardPolicy) StudyPlanService {
	if rewards == nil {
		rewards = FlatReward{Amount: 50}
	}
	return &studyPlanService{
		log:       log.With("service", "StudyPlanService"),
		store:     store,
		generator: generator,
		rewards:   rewards,
	}
}

// Initialize replaces any existing plan for the user, resetting the token balance.
func (s *studyPlanService) Initialize(ctx context.Context, userID uuid.UUID, mindmaps []study.Mindmap) (study.StudyPlan, error) {
	plan, err := s.generator.Generate(mindmaps)
	if err != nil {
		return study.StudyPlan{}, err
	}
	plan.UserID = userID
	if err := s.store.Put(ctx, userID, plan); err != nil {
		return study.StudyPlan{}, fmt.Errorf("store study plan: %w", err)
	}
	observability.Current().IncPlanInitialized()
	s.log.Info("study plan initialized", "user_id", userID, "topics", len(plan.Topics))
	return plan, nil
}

func (s *studyPlanService) GetPlan(ctx context.Context, userID uuid.UUID) (study.StudyPlan, error) {
	plan, err := s.store.Get(ctx, userID)
	if err != nil {
		return study.StudyPlan{}, mapStoreError(err)
	}
	return plan, nil
}

// GetQuiz returns the subtopic's questions and marks the quiz as in progress.
// Fetching again after a submission is how a user retries.
func (s *studyPlanService) GetQuiz(ctx context.Context, userID uuid.UUID, topicIndex, subtopicIndex int) ([]study.QuizQuestion, error) {
	var questions []study.QuizQuestion
	_, err := s.store.Update(ctx, userID, func(plan *study.StudyPlan) error {
		qs, ok := plan.Quiz(topicIndex, subtopicIndex)
		if !ok {
			return apierr.NotFound(msgQuizNotFound)
		}
		qp := plan.QuizProgress(topicIndex, subtopicIndex)
		qp.State = study.QuizInProgress
		plan.SetQuizProgress(topicIndex, subtopicIndex, qp)
		questions = study.CloneQuestions(qs)
		return nil
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return questions, nil
}

// SubmitQuiz scores the answers and, on the first passing submission for the
// subtopic, credits the reward in the same atomic update.
func (s *studyPlanService) SubmitQuiz(
	ctx context.Context,
	userID uuid.UUID,
	topicIndex, subtopicIndex int,
	answers map[string]study.Answer,
) (study.QuizResult, error) {
	indexed, err := indexAnswers(answers)
	if err != nil {
		return study.QuizResult{}, err
	}

	var result study.QuizResult
	plan, err := s.store.Update(ctx, userID, func(plan *study.StudyPlan) error {
		qs, ok := plan.Quiz(topicIndex, subtopicIndex)
		if !ok {
			return apierr.NotFound(msgQuizNotFound)
		}
		for i := range indexed {
			if i >= len(qs) {
				return apierr.Validation(fmt.Sprintf(msgAnswerOutside, i))
			}
		}

		score, total, pct := ScoreQuiz(qs, indexed)
		result = study.QuizResult{Score: score, Total: total, Percentage: pct, Passed: Passed(pct)}

		qp := plan.QuizProgress(topicIndex, subtopicIndex)
		qp.State = study.QuizSubmitted
		qp.Attempts++
		if pct > qp.BestPercentage {
			qp.BestPercentage = pct
		}
		if result.Passed {
			if qp.Awarded {
				result.AlreadyAwarded = true
			} else {
				result.Tokens = s.rewards.Tokens(pct)
				if err := plans.CreditTokens(plan, result.Tokens); err != nil {
					return err
				}
				qp.Awarded = true
			}
		}
		plan.SetQuizProgress(topicIndex, subtopicIndex, qp)
		return nil
	})
	if err != nil {
		return study.QuizResult{}, mapStoreError(err)
	}
	result.Balance = plan.TokenBalance
	observability.Current().ObserveQuizSubmission(result.Passed, result.Tokens)
	s.log.Info("quiz submitted",
		"user_id", userID,
		"topic", topicIndex,
		"subtopic", subtopicIndex,
		"score", result.Score,
		"total", result.Total,
		"tokens", result.Tokens,
	)
	return result, nil
}

func indexAnswers(answers map[string]study.Answer) (map[int]study.Answer, error) {
	out := make(map[int]study.Answer, len(answers))
	for k, v := range answers {
		i, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil || i < 0 {
			return nil, apierr.Validation(msgBadAnswerKey)
		}
		if v.IsZero() {
			continue
		}
		out[i] = v
	}
	return out, nil
}

func mapStoreError(err error) error {
	if errors.Is(err, plans.ErrPlanNotFound) {
		return apierr.NotFound(msgPlanNotFound)
	}
	if _, ok := apierr.As(err); ok {
		return err
	}
	return fmt.Errorf("study plan store: %w", err)
}
