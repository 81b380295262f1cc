package memory

import (
	"context"
	"sync"

	"ladder-quiz-service/internal/domain"
)

// GameStore is an in-memory implementation of app.GameRepository.
type GameStore struct {
	mu     sync.RWMutex
	games  map[string]domain.GameRecord
	active map[string]string
	byUser map[string][]string
}

func NewGameStore() *GameStore {
	return &GameStore{
		games:  make(map[string]domain.GameRecord),
		active: make(map[string]string),
		byUser: make(map[string][]string),
	}
}

func (s *GameStore) Create(_ context.Context, rec domain.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.active[rec.UserID]; ok {
		return &domain.ActiveGameError{GameID: id}
	}
	s.games[rec.ID] = cloneRecord(rec)
	s.byUser[rec.UserID] = append(s.byUser[rec.UserID], rec.ID)
	if !rec.Finished() {
		s.active[rec.UserID] = rec.ID
	}
	return nil
}

func (s *GameStore) Get(_ context.Context, gameID string) (domain.GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.games[gameID]
	if !ok {
		return domain.GameRecord{}, domain.ErrGameNotFound
	}
	return cloneRecord(rec), nil
}

func (s *GameStore) Save(_ context.Context, rec domain.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[rec.ID]; !ok {
		return domain.ErrGameNotFound
	}
	s.games[rec.ID] = cloneRecord(rec)
	if rec.Finished() && s.active[rec.UserID] == rec.ID {
		delete(s.active, rec.UserID)
	}
	return nil
}

func (s *GameStore) Active(_ context.Context, userID string) (domain.GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.active[userID]
	if !ok {
		return domain.GameRecord{}, domain.ErrGameNotFound
	}
	return cloneRecord(s.games[id]), nil
}

// ListByUser returns the user's games, newest first.
func (s *GameStore) ListByUser(_ context.Context, userID string) ([]domain.GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byUser[userID]
	out := make([]domain.GameRecord, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, cloneRecord(s.games[ids[i]]))
	}
	return out, nil
}

func cloneRecord(rec domain.GameRecord) domain.GameRecord {
	if rec.FinishedAt != nil {
		finishedAt := *rec.FinishedAt
		rec.FinishedAt = &finishedAt
	}
	rec.HelpsUsed = append([]domain.HelpKind(nil), rec.HelpsUsed...)
	questions := make([]domain.Question, len(rec.Questions))
	for i, q := range rec.Questions {
		variants := make(map[string]string, len(q.Variants))
		for k, v := range q.Variants {
			variants[k] = v
		}
		q.Variants = variants
		questions[i] = q
	}
	rec.Questions = questions
	return rec
}
