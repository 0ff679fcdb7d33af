package plans

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/omex-backend/internal/domain/study"
)

func seedPlan() study.StudyPlan {
	return study.StudyPlan{
		Topics: []study.Topic{{
			Name:            "Photosynthesis",
			DurationMinutes: study.TopicDurationMinutes,
			Subtopics: []study.Subtopic{{
				Name:            "Subtopic 1",
				DurationMinutes: study.SubtopicDurationMinutes,
				Quiz: []study.QuizQuestion{{
					Prompt:  "Which?",
					Options: []string{"A", "B"},
					Answer:  study.TextAnswer("A"),
				}},
			}},
		}},
		TokenBalance: study.InitialTokenBalance,
	}
}

// exerciseStore runs the behaviour every Store backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	userID := uuid.New()

	if _, err := s.Get(ctx, userID); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("Get before Put: want ErrPlanNotFound got=%v", err)
	}
	if _, err := s.AwardTokens(ctx, userID, 10); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("AwardTokens before Put: want ErrPlanNotFound got=%v", err)
	}

	if err := s.Put(ctx, userID, seedPlan()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, userID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.TokenBalance != 100 || len(got.Topics) != 1 || got.Topics[0].Name != "Photosynthesis" {
		t.Fatalf("Get: unexpected plan %+v", got)
	}
	if got.Topics[0].Subtopics[0].Quiz[0].Answer != study.TextAnswer("A") {
		t.Fatalf("Get: answer not preserved: %+v", got.Topics[0].Subtopics[0].Quiz[0].Answer)
	}

	got.Topics[0].Name = "mutated"
	again, _ := s.Get(ctx, userID)
	if again.Topics[0].Name != "Photosynthesis" {
		t.Fatalf("Get returned shared state")
	}

	balance, err := s.AwardTokens(ctx, userID, 50)
	if err != nil {
		t.Fatalf("AwardTokens: %v", err)
	}
	if balance != 150 {
		t.Fatalf("AwardTokens: want=150 got=%d", balance)
	}

	if _, err := s.AwardTokens(ctx, userID, -20); !errors.Is(err, ErrNegativeAward) {
		t.Fatalf("AwardTokens negative: want ErrNegativeAward got=%v", err)
	}
	if kept, _ := s.Get(ctx, userID); kept.TokenBalance != 150 {
		t.Fatalf("negative award changed balance: want=150 got=%d", kept.TokenBalance)
	}

	boom := errors.New("boom")
	_, err = s.Update(ctx, userID, func(p *study.StudyPlan) error {
		p.TokenBalance = 0
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update abort: want boom got=%v", err)
	}
	after, _ := s.Get(ctx, userID)
	if after.TokenBalance != 150 {
		t.Fatalf("aborted Update leaked: balance=%d", after.TokenBalance)
	}

	updated, err := s.Update(ctx, userID, func(p *study.StudyPlan) error {
		p.SetQuizProgress(0, 0, study.QuizProgress{State: study.QuizInProgress})
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.QuizProgress(0, 0).State != study.QuizInProgress {
		t.Fatalf("Update result: want in_progress got=%q", updated.QuizProgress(0, 0).State)
	}
	stored, _ := s.Get(ctx, userID)
	if stored.QuizProgress(0, 0).State != study.QuizInProgress {
		t.Fatalf("Update not persisted")
	}

	if err := s.Put(ctx, userID, seedPlan()); err != nil {
		t.Fatalf("Put replace: %v", err)
	}
	replaced, _ := s.Get(ctx, userID)
	if replaced.TokenBalance != 100 || replaced.QuizProgress(0, 0).State != study.QuizNotStarted {
		t.Fatalf("Put did not replace plan: %+v", replaced)
	}
}

// exerciseConcurrentAwards checks that concurrent awards are never lost.
func exerciseConcurrentAwards(t *testing.T, s Store, workers int) {
	t.Helper()
	ctx := context.Background()
	userID := uuid.New()
	if err := s.Put(ctx, userID, seedPlan()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AwardTokens(ctx, userID, 1); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("AwardTokens: %v", err)
	}

	got, err := s.Get(ctx, userID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if want := 100 + workers; got.TokenBalance != want {
		t.Fatalf("balance: want=%d got=%d", want, got.TokenBalance)
	}
}
