package memory

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"ladder-quiz-service/internal/domain"
)

// QuestionLoader fetches the pool of questions for one level from a backing store.
type QuestionLoader interface {
	LoadLevel(ctx context.Context, level int) ([]domain.Question, error)
}

// QuestionBank caches level pools with TTL to avoid repeated DB hits and
// draws one random question per requested level.
type QuestionBank struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[int]cachedPool
}

type cachedPool struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionBank(loader QuestionLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int]cachedPool),
	}
}

// QuestionsForLevels picks one question for each level.
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
	now := b.clock()

	b.mu.RLock()
	if entry, ok := b.cache[level]; ok && entry.expiresAt.After(now) {
		b.mu.RUnlock()
		return entry.questions, nil
	}
	b.mu.RUnlock()

	result, err, _ := b.sf.Do(strconv.Itoa(level), func() (interface{}, error) {
		now := b.clock()
		b.mu.RLock()
		if entry, ok := b.cache[level]; ok && entry.expiresAt.After(now) {
			b.mu.RUnlock()
			return entry.questions, nil
		}
		b.mu.RUnlock()

		questions, err := b.loader.LoadLevel(ctx, level)
		if err != nil {
			return nil, err
		}

		b.mu.Lock()
		b.cache[level] = cachedPool{
			questions: questions,
			expiresAt: now.Add(b.ttlWithJitter()),
		}
		b.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
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
	// add up to 10% jitter to spread expirations
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.int63n(jitterMax+1))
}

func (b *QuestionBank) int63n(n int64) int64 {
	b.rndMu.Lock()
	defer b.rndMu.Unlock()
	return b.rnd.Int63n(n)
}

// StaticQuestionLoader is a simple loader backed by an in-memory slice (useful for tests/demos).
type StaticQuestionLoader struct {
	byLevel map[int][]domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	byLevel := make(map[int][]domain.Question)
	for _, q := range questions {
		byLevel[q.Level] = append(byLevel[q.Level], q)
	}
	return &StaticQuestionLoader{byLevel: byLevel}
}

func (l *StaticQuestionLoader) LoadLevel(_ context.Context, level int) ([]domain.Question, error) {
	if pool, ok := l.byLevel[level]; ok {
		return pool, nil
	}
	return nil, fmt.Errorf("%w: level %d", domain.ErrQuestionNotFound, level)
}
