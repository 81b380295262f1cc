package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"ladder-quiz-service/internal/app"
	"ladder-quiz-service/internal/config"
	"ladder-quiz-service/internal/game"
	"ladder-quiz-service/internal/infra/memory"
	"ladder-quiz-service/internal/infra/postgres"
	"ladder-quiz-service/internal/infra/rabbitmq"
	redisstore "ladder-quiz-service/internal/infra/redis"
)

// backends holds the collaborators of app.GameService chosen by config:
// Postgres for questions, games and balances when postgres.url is set,
// Redis for the question cache (and games without Postgres) when redis.addr is set,
// RabbitMQ for game.finished events when rabbitmq.url is set.
type backends struct {
	games     app.GameRepository
	questions game.QuestionSupplier
	ledger    app.Ledger
	publisher app.EventPublisher

	closers []func()
}

func openBackends(ctx context.Context, cfg config.Config, levels int) (b *backends, err error) {
	b = &backends{}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = redisClient.Close() })
	}

	var (
		pool *pgxpool.Pool
		db   *bun.DB
	)
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		db = openBun(cfg.Postgres.URL)
		b.closers = append(b.closers, func() { _ = db.Close() })
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestions(levels))
	if pool != nil {
		loader = postgres.NewQuestionLoader(pool)
	}

	questionTTL := config.Duration(cfg.Questions.TTL, 10*time.Minute)
	if redisClient != nil {
		b.questions = redisstore.NewQuestionBank(redisClient, loader, questionTTL)
	} else {
		b.questions = memory.NewQuestionBank(loader, questionTTL)
	}

	switch {
	case db != nil:
		b.games = postgres.NewGameStore(db)
	case redisClient != nil:
		b.games = redisstore.NewGameStore(redisClient, config.Duration(cfg.Redis.TTL, 0))
	default:
		b.games = memory.NewGameStore()
	}

	if pool != nil {
		b.ledger = postgres.NewLedger(pool)
	} else {
		b.ledger = memory.NewLedger()
	}

	if cfg.RabbitMQ.URL != "" {
		publisher, err := rabbitmq.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = publisher.Close() })
		b.publisher = publisher
		log.Printf("publishing finished games to RabbitMQ")
	}
	return b, nil
}

func (b *backends) serviceOptions() []app.Option {
	if b.publisher == nil {
		return nil
	}
	return []app.Option{app.WithPublisher(b.publisher)}
}

// Close releases connections in reverse order of opening.
func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
