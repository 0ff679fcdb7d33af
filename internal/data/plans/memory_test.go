package plans

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/omex-backend/internal/domain/study"
)

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreConcurrentAwards(t *testing.T) {
	exerciseConcurrentAwards(t, NewMemoryStore(), 200)
}

func TestMemoryStoreMissesDoNotGrow(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		userID := uuid.New()
		if _, err := s.Get(ctx, userID); !errors.Is(err, ErrPlanNotFound) {
			t.Fatalf("Get: want ErrPlanNotFound got=%v", err)
		}
		if _, err := s.Update(ctx, userID, func(*study.StudyPlan) error { return nil }); !errors.Is(err, ErrPlanNotFound) {
			t.Fatalf("Update: want ErrPlanNotFound got=%v", err)
		}
		if _, err := s.AwardTokens(ctx, userID, 5); !errors.Is(err, ErrPlanNotFound) {
			t.Fatalf("AwardTokens: want ErrPlanNotFound got=%v", err)
		}
	}
	if got := s.size(); got != 0 {
		t.Fatalf("entries after misses: want=0 got=%d", got)
	}

	if err := s.Put(ctx, uuid.New(), seedPlan()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got := s.size(); got != 1 {
		t.Fatalf("entries after Put: want=1 got=%d", got)
	}
}

func (s *MemoryStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
