package services

import (
	"fmt"
	"strings"

	"github.com/yungbote/omex-backend/internal/domain/study"
)

// RewardPolicy decides how many tokens a passing percentage earns.
type RewardPolicy interface {
	Tokens(percentage float64) int
}

type FlatReward struct {
	Amount int
}

func (r FlatReward) Tokens(float64) int { return r.Amount }

// TieredReward pays Base plus a bonus for high scores.
type TieredReward struct {
	Base    int
	Bonus80 int
	Bonus90 int
}

func (r TieredReward) Tokens(percentage float64) int {
	switch {
	case percentage >= 90:
		return r.Base + r.Bonus90
	case percentage >= 80:
		return r.Base + r.Bonus80
	default:
		return r.Base
	}
}

func NewRewardPolicy(name string) (RewardPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "flat":
		return FlatReward{Amount: 50}, nil
	case "tiered":
		return TieredReward{Base: 50, Bonus80: 30, Bonus90: 50}, nil
	default:
		return nil, fmt.Errorf("unknown REWARD_POLICY %q (allowed: flat, tiered)", name)
	}
}

// ScoreQuiz counts answers that resolve to the same option as the question's
// correct answer. Unanswered questions score zero; an empty quiz scores 0%.
func ScoreQuiz(questions []study.QuizQuestion, answers map[int]study.Answer) (int, int, float64) {
	total := len(questions)
	score := 0
	for i, q := range questions {
		submitted, ok := answers[i]
		if !ok {
			continue
		}
		want, ok := q.Answer.Resolve(q.Options)
		if !ok {
			continue
		}
		if got, ok := submitted.Resolve(q.Options); ok && got == want {
			score++
		}
	}
	if total == 0 {
		return 0, 0, 0
	}
	return score, total, float64(score) / float64(total) * 100
}

func Passed(percentage float64) bool { return percentage >= study.PassPercentage }
