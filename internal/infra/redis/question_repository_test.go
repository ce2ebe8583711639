package redis

import (
	"context"
	"testing"
	"time"

	"estimation-quiz-service/internal/domain"
	"estimation-quiz-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		QuestionLoader: memory.NewStaticQuestionLoader(map[string]domain.QuestionSet{
			"default": sampleSet(),
		}),
	}
	repo := NewQuestionRepository(client, loader, time.Minute)

	_, err = repo.GetQuestionSet(context.Background(), "default")
	if err != nil {
		t.Fatalf("get set: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("questions:default") {
		t.Fatalf("expected cached set in redis")
	}

	// Second call should hit cache, loader not incremented.
	set, err := repo.GetQuestionSet(context.Background(), "default")
	if err != nil {
		t.Fatalf("get cached set: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if len(set.Questions) != 2 || set.Questions[1].Prompt != "Days in a leap year" || set.Questions[1].Target != 366 {
		t.Fatalf("unexpected cached set: %+v", set)
	}
}

func TestQuestionRepositoryInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{
		QuestionLoader: memory.NewStaticQuestionLoader(map[string]domain.QuestionSet{"default": sampleSet()}),
	}
	repo := NewQuestionRepository(newClient(mr), loader, time.Minute)

	_, _ = repo.GetQuestionSet(context.Background(), "default")
	if err := repo.Invalidate(context.Background(), "default"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = repo.GetQuestionSet(context.Background(), "default")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

type countingLoader struct {
	memory.QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestionSet(ctx, setID)
}

func sampleSet() domain.QuestionSet {
	return domain.QuestionSet{
		ID: "default",
		Questions: []domain.Question{
			{Prompt: "2+2", Target: 4},
			{Prompt: "Days in a leap year", Target: 366},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
