package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"ladder-quiz-service/internal/game"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Questions struct {
		TTL string `yaml:"ttl"`
	} `yaml:"questions"`
	Game struct {
		TimeLimit string      `yaml:"time_limit"`
		Prizes    []game.Rung `yaml:"prizes"`
	} `yaml:"game"`
	RabbitMQ struct {
		URL   string `yaml:"url"`
		Queue string `yaml:"queue"`
	} `yaml:"rabbitmq"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return fallback
}

// GameRules builds the prize ladder and time limit. An empty prize list means the default ladder.
func (c Config) GameRules() (game.Rules, error) {
	prizes := game.DefaultPrizeTable()
	if len(c.Game.Prizes) > 0 {
		t, err := game.NewPrizeTable(c.Game.Prizes)
		if err != nil {
			return game.Rules{}, fmt.Errorf("game.prizes: %w", err)
		}
		prizes = t
	}
	return game.Rules{
		Prizes:    prizes,
		TimeLimit: Duration(c.Game.TimeLimit, game.DefaultTimeLimit),
	}, nil
}
