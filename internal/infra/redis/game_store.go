package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"ladder-quiz-service/internal/domain"
)

const gameKeyPrefix = "game:"

// createGame stores a game and, for unfinished games, claims the user's active
// pointer in one step. A pointer whose game no longer exists is taken over.
// It returns the id of the game already holding the pointer, or "".
// KEYS: active pointer, game key, user list. ARGV: id, record, claim flag, game key prefix.
var createGame = redis.NewScript(`
if ARGV[3] == "1" then
	local current = redis.call("GET", KEYS[1])
	if current and redis.call("EXISTS", ARGV[4] .. current) == 1 then
		return current
	end
	redis.call("SET", KEYS[1], ARGV[1])
end
redis.call("SET", KEYS[2], ARGV[2])
redis.call("LPUSH", KEYS[3], ARGV[1])
return ""
`)

// releaseActive deletes the active pointer only if it still names this game.
var releaseActive = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// GameStore is a Redis implementation of app.GameRepository.
// Layout:
//   - game:{id}            JSON record
//   - game:active:{userID} id of the user's unfinished game, claimed by createGame
//   - game:user:{userID}   list of game ids, newest first
//
// Finished games expire after retention; zero keeps them forever.
type GameStore struct {
	client    *redis.Client
	retention time.Duration
}

func NewGameStore(client *redis.Client, retention time.Duration) *GameStore {
	return &GameStore{client: client, retention: retention}
}

func (s *GameStore) Create(ctx context.Context, rec domain.GameRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode game: %w", err)
	}

	claim := "0"
	if !rec.Finished() {
		claim = "1"
	}
	keys := []string{s.activeKey(rec.UserID), s.gameKey(rec.ID), s.userKey(rec.UserID)}
	holder, err := createGame.Run(ctx, s.client, keys, rec.ID, data, claim, gameKeyPrefix).Text()
	if err != nil {
		return fmt.Errorf("store game: %w", err)
	}
	if holder != "" {
		return &domain.ActiveGameError{GameID: holder}
	}
	return nil
}

func (s *GameStore) Get(ctx context.Context, gameID string) (domain.GameRecord, error) {
	raw, err := s.client.Get(ctx, s.gameKey(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.GameRecord{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.GameRecord{}, fmt.Errorf("load game: %w", err)
	}
	return decodeRecord(raw)
}

func (s *GameStore) Save(ctx context.Context, rec domain.GameRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode game: %w", err)
	}
	var ttl time.Duration
	if rec.Finished() {
		ttl = s.retention
	}
	ok, err := s.client.SetXX(ctx, s.gameKey(rec.ID), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	if !ok {
		return domain.ErrGameNotFound
	}
	if rec.Finished() {
		if err := releaseActive.Run(ctx, s.client, []string{s.activeKey(rec.UserID)}, rec.ID).Err(); err != nil {
			return fmt.Errorf("release active game: %w", err)
		}
	}
	return nil
}

// Active returns the user's unfinished game. A pointer left behind by a game
// that is gone is dropped.
func (s *GameStore) Active(ctx context.Context, userID string) (domain.GameRecord, error) {
	id, err := s.client.Get(ctx, s.activeKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.GameRecord{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.GameRecord{}, fmt.Errorf("read active game: %w", err)
	}
	rec, err := s.Get(ctx, id)
	if errors.Is(err, domain.ErrGameNotFound) {
		if err := releaseActive.Run(ctx, s.client, []string{s.activeKey(userID)}, id).Err(); err != nil {
			return domain.GameRecord{}, fmt.Errorf("drop stale active game: %w", err)
		}
	}
	return rec, err
}

// ListByUser returns the user's games, newest first.
func (s *GameStore) ListByUser(ctx context.Context, userID string) ([]domain.GameRecord, error) {
	ids, err := s.client.LRange(ctx, s.userKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.gameKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load games: %w", err)
	}

	records := make([]domain.GameRecord, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// expired
			continue
		}
		rec, err := decodeRecord([]byte(raw))
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *GameStore) gameKey(id string) string {
	return gameKeyPrefix + id
}

func (s *GameStore) activeKey(userID string) string {
	return "game:active:" + userID
}

func (s *GameStore) userKey(userID string) string {
	return "game:user:" + userID
}

func decodeRecord(raw []byte) (domain.GameRecord, error) {
	var rec domain.GameRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.GameRecord{}, fmt.Errorf("decode game: %w", err)
	}
	return rec, nil
}
