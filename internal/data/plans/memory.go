package plans

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/omex-backend/internal/domain/study"
)

// memoryEntry pairs a stored plan with the lock serialising its updates.
type memoryEntry struct {
	mu   sync.Mutex
	plan study.StudyPlan
}

// MemoryStore keeps plans in process memory. Plans are lost on restart.
// Entries exist only for users that have a stored plan.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[uuid.UUID]*memoryEntry)}
}

func (s *MemoryStore) entry(userID uuid.UUID) (*memoryEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	return e, ok
}

func (s *MemoryStore) Get(ctx context.Context, userID uuid.UUID) (study.StudyPlan, error) {
	e, ok := s.entry(userID)
	if !ok {
		return study.StudyPlan{}, ErrPlanNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.plan.Clone(), nil
}

func (s *MemoryStore) Put(ctx context.Context, userID uuid.UUID, plan study.StudyPlan) error {
	plan.UserID = userID
	s.mu.Lock()
	e, ok := s.entries[userID]
	if !ok {
		e = &memoryEntry{}
		s.entries[userID] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.plan = plan.Clone()
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, userID uuid.UUID, fn UpdateFunc) (study.StudyPlan, error) {
	e, ok := s.entry(userID)
	if !ok {
		return study.StudyPlan{}, ErrPlanNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	working := e.plan.Clone()
	if err := fn(&working); err != nil {
		return study.StudyPlan{}, err
	}
	working.UserID = userID
	e.plan = working.Clone()
	return working, nil
}

func (s *MemoryStore) AwardTokens(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	return awardTokens(ctx, s, userID, amount)
}
