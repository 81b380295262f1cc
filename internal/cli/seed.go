package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"ladder-quiz-service/internal/config"
	"ladder-quiz-service/internal/domain"
	"ladder-quiz-service/internal/infra/postgres"
	redisstore "ladder-quiz-service/internal/infra/redis"
)

// NewSeedCmd loads questions into Postgres, from a JSON file or the built-in sample set.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load questions into the question bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file with an array of questions (default: built-in sample set)")
	return cmd
}

func runSeed(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}
	rules, err := cfg.GameRules()
	if err != nil {
		return err
	}

	questions := sampleQuestions(rules.Prizes.Levels())
	if file != "" {
		questions, err = readQuestions(file)
		if err != nil {
			return err
		}
	}
	if err := validateQuestions(questions); err != nil {
		return err
	}

	db := openBun(cfg.Postgres.URL)
	defer db.Close()
	n, err := postgres.SeedQuestions(ctx, db, questions)
	if err != nil {
		return err
	}
	log.Printf("seeded %d questions", n)

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		bank := redisstore.NewQuestionBank(client, nil, 0)
		if err := bank.Invalidate(ctx, levelsOf(questions)...); err != nil {
			return fmt.Errorf("invalidate question cache: %w", err)
		}
	}
	return nil
}

func readQuestions(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return questions, nil
}

// validateQuestions applies the same shape rules a game enforces at start.
func validateQuestions(questions []domain.Question) error {
	for _, q := range questions {
		if q.ID == "" {
			return fmt.Errorf("question without id at level %d", q.Level)
		}
		if q.Level < 0 {
			return fmt.Errorf("question %s: negative level", q.ID)
		}
		if len(q.Variants) != len(domain.AnswerKeys) {
			return fmt.Errorf("question %s: want %d variants, got %d", q.ID, len(domain.AnswerKeys), len(q.Variants))
		}
		for _, key := range domain.AnswerKeys {
			if _, ok := q.Variants[key]; !ok {
				return fmt.Errorf("question %s: missing variant %q", q.ID, key)
			}
		}
		if _, ok := q.Variants[q.CorrectKey]; !ok {
			return fmt.Errorf("question %s: correct key %q is not a variant", q.ID, q.CorrectKey)
		}
	}
	return nil
}

func levelsOf(questions []domain.Question) []int {
	seen := make(map[int]struct{})
	var levels []int
	for _, q := range questions {
		if _, ok := seen[q.Level]; ok {
			continue
		}
		seen[q.Level] = struct{}{}
		levels = append(levels, q.Level)
	}
	sort.Ints(levels)
	return levels
}
