package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"ladder-quiz-service/internal/domain"
)

// QuestionLoader fetches the question pool of one level from a backing store.
type QuestionLoader interface {
	LoadLevel(ctx context.Context, level int) ([]domain.Question, error)
}

// QuestionBank caches level pools in Redis and falls back to a loader on cache miss.
// Pools are stored as: SET questions:level:{level} <json array>
type QuestionBank struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuestionBank(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// QuestionsForLevels picks one random question for each level.
func (b *QuestionBank) QuestionsForLevels(ctx context.Context, levels []int) (map[int]domain.Question, error) {
	out := make(map[int]domain.Question, len(levels))
	for _, level := range levels {
		pool, err := b.pool(ctx, level)
		if err != nil {
			return nil, err
		}
		if len(pool) == 0 {
			return nil, fmt.Errorf("%w: level %d", domain.ErrQuestionNotFound, level)
		}
		out[level] = pool[b.intn(len(pool))]
	}
	return out, nil
}

func (b *QuestionBank) pool(ctx context.Context, level int) ([]domain.Question, error) {
	key := b.levelKey(level)
	if pool, ok := b.cached(ctx, key); ok {
		return pool, nil
	}

	result, err, _ := b.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if pool, ok := b.cached(ctx, key); ok {
			return pool, nil
		}

		pool, err := b.loader.LoadLevel(ctx, level)
		if err != nil {
			return nil, err
		}
		if len(pool) == 0 {
			return pool, nil
		}
		data, err := json.Marshal(pool)
		if err != nil {
			return nil, fmt.Errorf("encode level %d: %w", level, err)
		}
		// best-effort: a failed write only costs another load
		_ = b.client.Set(ctx, key, data, b.ttlWithJitter()).Err()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (b *QuestionBank) cached(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := b.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var pool []domain.Question
	if err := json.Unmarshal(raw, &pool); err != nil || len(pool) == 0 {
		return nil, false
	}
	return pool, true
}

// Invalidate drops the cached pool of level, e.g. after seeding new questions.
func (b *QuestionBank) Invalidate(ctx context.Context, levels ...int) error {
	keys := make([]string, len(levels))
	for i, level := range levels {
		keys[i] = b.levelKey(level)
	}
	if len(keys) == 0 {
		return nil
	}
	return b.client.Del(ctx, keys...).Err()
}

func (b *QuestionBank) levelKey(level int) string {
	return "questions:level:" + strconv.Itoa(level)
}

func (b *QuestionBank) intn(n int) int {
	b.rndMu.Lock()
	defer b.rndMu.Unlock()
	return b.rnd.Intn(n)
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	jitterMax := int64(b.ttl) / 10
	b.rndMu.Lock()
	defer b.rndMu.Unlock()
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}
