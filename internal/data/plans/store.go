package plans

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/yungbote/omex-backend/internal/domain/study"
)

var (
	ErrPlanNotFound = errors.New("study plan not found")
	// ErrConflict is returned when an optimistic update keeps losing races.
	ErrConflict = errors.New("study plan update conflict")
	// ErrNegativeAward keeps the token balance from ever going down.
	ErrNegativeAward = errors.New("token award must not be negative")
)

// UpdateFunc mutates plan in place. Returning an error aborts the update and
// leaves the stored plan untouched.
type UpdateFunc func(plan *study.StudyPlan) error

// Store keeps one study plan per user. Every backend applies Put, Update and
// AwardTokens atomically per user and hands out copies, never shared state.
type Store interface {
	Get(ctx context.Context, userID uuid.UUID) (study.StudyPlan, error)
	Put(ctx context.Context, userID uuid.UUID, plan study.StudyPlan) error
	Update(ctx context.Context, userID uuid.UUID, fn UpdateFunc) (study.StudyPlan, error)
	AwardTokens(ctx context.Context, userID uuid.UUID, amount int) (int, error)
}

// CreditTokens adds amount to the plan balance. It is the only way balances change
// after a plan is stored, so callers crediting inside Update go through it too.
func CreditTokens(plan *study.StudyPlan, amount int) error {
	if amount < 0 {
		return ErrNegativeAward
	}
	plan.TokenBalance += amount
	return nil
}

// awardTokens is the shared AwardTokens implementation on top of Update.
func awardTokens(ctx context.Context, s Store, userID uuid.UUID, amount int) (int, error) {
	if amount < 0 {
		return 0, ErrNegativeAward
	}
	plan, err := s.Update(ctx, userID, func(p *study.StudyPlan) error {
		return CreditTokens(p, amount)
	})
	if err != nil {
		return 0, err
	}
	return plan.TokenBalance, nil
}
