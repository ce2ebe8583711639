package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"estimation-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches question sets from a backing store.
type QuestionLoader interface {
	LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// QuestionRepository caches question sets in Redis and falls back to a loader on cache miss.
// Sets are stored as JSON: SET questions:{setID} [{"question":...,"answer":...}, ...]
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) GetQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	if set, ok := r.fromCache(ctx, setID); ok {
		return set, nil
	}

	result, err, _ := r.sf.Do(setID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if set, ok := r.fromCache(ctx, setID); ok {
			return set, nil
		}

		set, err := r.loader.LoadQuestionSet(ctx, setID)
		if err != nil {
			return domain.QuestionSet{}, err
		}

		data, err := json.Marshal(set.Questions)
		if err == nil {
			// best-effort: a failed write only costs another load later
			_ = r.client.Set(ctx, r.key(setID), data, r.ttlWithJitter()).Err()
		}
		return set, nil
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

// Invalidate drops the cached copy of a set, e.g. after an import.
func (r *QuestionRepository) Invalidate(ctx context.Context, setID string) error {
	return r.client.Del(ctx, r.key(setID)).Err()
}

func (r *QuestionRepository) fromCache(ctx context.Context, setID string) (domain.QuestionSet, bool) {
	data, err := r.client.Get(ctx, r.key(setID)).Bytes()
	if err != nil {
		// redis.Nil on a miss; any other error also falls through to the loader
		return domain.QuestionSet{}, false
	}
	questions, err := domain.ParseQuestions(data)
	if err != nil {
		return domain.QuestionSet{}, false
	}
	return domain.QuestionSet{ID: setID, Questions: questions}, true
}

func (r *QuestionRepository) key(setID string) string {
	return "questions:" + setID
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
