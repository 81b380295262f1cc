package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"ladder-quiz-service/internal/domain"
	"ladder-quiz-service/internal/game"
)

// GameRepository abstracts how game records are stored (in-memory, Redis, Postgres).
// Create must reject a second active game for the same user with ErrActiveGameExists.
type GameRepository interface {
	Create(ctx context.Context, rec domain.GameRecord) error
	Get(ctx context.Context, gameID string) (domain.GameRecord, error)
	Save(ctx context.Context, rec domain.GameRecord) error
	Active(ctx context.Context, userID string) (domain.GameRecord, error)
	ListByUser(ctx context.Context, userID string) ([]domain.GameRecord, error)
}

// Ledger credits prizes to player balances. Credit is idempotent per game.
type Ledger interface {
	Credit(ctx context.Context, userID, gameID string, amount int) error
	Balance(ctx context.Context, userID string) (int, error)
	TopBalances(ctx context.Context, limit int) ([]domain.PlayerBalance, error)
}

const (
	DefaultLeaderboard = 20
	MaxLeaderboard     = 100
)

// EventPublisher announces finished games to other services.
type EventPublisher interface {
	PublishGameFinished(ctx context.Context, event domain.GameFinished) error
}

// Option customizes a GameService.
type Option func(*GameService)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *GameService) { s.now = now }
}

// WithPublisher enables game.finished events.
func WithPublisher(p EventPublisher) Option {
	return func(s *GameService) { s.publisher = p }
}

// GameService contains the game use cases: one active game per user,
// ownership checks, settlement of finished games and update feeds.
type GameService struct {
	games     GameRepository
	questions game.QuestionSupplier
	ledger    Ledger
	publisher EventPublisher
	rules     game.Rules
	now       func() time.Time
	locks     *keyedMutex
	feeds     *feedHub
}

func NewGameService(games GameRepository, questions game.QuestionSupplier, ledger Ledger, rules game.Rules, opts ...Option) *GameService {
	s := &GameService{
		games:     games,
		questions: questions,
		ledger:    ledger,
		rules:     rules.WithDefaults(),
		now:       time.Now,
		locks:     newKeyedMutex(),
		feeds:     newFeedHub(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartGame creates a new run unless the user still has one in progress.
// An active game that ran out of time is settled and replaced.
func (s *GameService) StartGame(ctx context.Context, userID string) (domain.GameView, error) {
	active, err := s.games.Active(ctx, userID)
	switch {
	case err == nil:
		view, err := s.Game(ctx, userID, active.ID)
		if err != nil {
			return domain.GameView{}, err
		}
		if !view.Status.Terminal() {
			return view, &domain.ActiveGameError{GameID: active.ID}
		}
	case !errors.Is(err, domain.ErrGameNotFound):
		return domain.GameView{}, fmt.Errorf("find active game: %w", err)
	}

	now := s.now()
	session, err := game.New(ctx, s.questions, s.rules, now)
	if err != nil {
		return domain.GameView{}, err
	}
	rec := domain.GameRecord{ID: uuid.NewString(), UserID: userID, GameState: session.State()}
	if err := s.games.Create(ctx, rec); err != nil {
		return domain.GameView{}, err
	}
	log.Printf("game %s started for user %s", rec.ID, userID)
	return s.view(rec, session, now), nil
}

// Game returns the current view of a game, settling it first if it ran out of time.
func (s *GameService) Game(ctx context.Context, userID, gameID string) (domain.GameView, error) {
	return s.mutate(ctx, userID, gameID, expireOverdue)
}

// ActiveGame returns the user's unfinished game.
func (s *GameService) ActiveGame(ctx context.Context, userID string) (domain.GameView, error) {
	rec, err := s.games.Active(ctx, userID)
	if err != nil {
		return domain.GameView{}, err
	}
	return s.Game(ctx, userID, rec.ID)
}

// Answer submits key for the current question.
func (s *GameService) Answer(ctx context.Context, userID, gameID, key string) (domain.AnswerResult, error) {
	var correct bool
	view, err := s.mutate(ctx, userID, gameID, func(session *game.Session, now time.Time) error {
		ok, err := session.Answer(key, now)
		correct = ok
		return err
	})
	if err != nil {
		return domain.AnswerResult{}, err
	}
	return domain.AnswerResult{Correct: correct, Game: view}, nil
}

// CashOut ends the game and credits the prize of the last completed level.
func (s *GameService) CashOut(ctx context.Context, userID, gameID string) (domain.GameView, error) {
	return s.mutate(ctx, userID, gameID, func(session *game.Session, now time.Time) error {
		_, err := session.CashOut(now)
		return err
	})
}

// UseHelp consumes a help for the current question.
func (s *GameService) UseHelp(ctx context.Context, userID, gameID string, kind domain.HelpKind) (domain.HelpPayload, error) {
	var payload domain.HelpPayload
	_, err := s.mutate(ctx, userID, gameID, func(session *game.Session, now time.Time) error {
		p, err := session.RequestHelp(kind, now)
		payload = p
		return err
	})
	if err != nil {
		return domain.HelpPayload{}, err
	}
	return payload, nil
}

// History lists the user's games, newest first.
func (s *GameService) History(ctx context.Context, userID string) ([]domain.GameView, error) {
	records, err := s.games.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]domain.GameView, 0, len(records))
	for _, rec := range records {
		session, err := game.Restore(rec.GameState, s.rules)
		if err != nil {
			return nil, fmt.Errorf("restore game %s: %w", rec.ID, err)
		}
		views = append(views, s.view(rec, session, now))
	}
	return views, nil
}

// PlayerGames lists any player's games, newest first. Current questions are
// hidden so an unfinished game cannot be looked up by someone else.
func (s *GameService) PlayerGames(ctx context.Context, playerID string) ([]domain.GameView, error) {
	views, err := s.History(ctx, playerID)
	if err != nil {
		return nil, err
	}
	for i := range views {
		views[i].Question = nil
	}
	return views, nil
}

// Leaderboard ranks players by credited winnings, richest first.
// A limit outside 1..MaxLeaderboard falls back to DefaultLeaderboard.
func (s *GameService) Leaderboard(ctx context.Context, limit int) ([]domain.PlayerBalance, error) {
	if limit <= 0 || limit > MaxLeaderboard {
		limit = DefaultLeaderboard
	}
	return s.ledger.TopBalances(ctx, limit)
}

// Balance returns the user's credited winnings.
func (s *GameService) Balance(ctx context.Context, userID string) (int, error) {
	return s.ledger.Balance(ctx, userID)
}

// Prizes returns the ladder used for every game.
func (s *GameService) Prizes() []domain.PrizeRung {
	return s.rules.Prizes.Rungs()
}

// Subscribe returns a channel that receives updates for a game.
// The caller must invoke the returned cancel function to avoid leaks.
// The snapshot is taken and the channel registered under the game lock, so
// no update can be published in between.
func (s *GameService) Subscribe(ctx context.Context, userID, gameID string) (<-chan domain.GameView, func(), error) {
	unlock := s.locks.lock(gameID)
	defer unlock()

	view, err := s.mutateLocked(ctx, userID, gameID, expireOverdue)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.feeds.subscribe(gameID, view)
	return ch, cancel, nil
}

// mutate runs fn against a restored session while holding the game lock.
func (s *GameService) mutate(ctx context.Context, userID, gameID string, fn func(*game.Session, time.Time) error) (domain.GameView, error) {
	unlock := s.locks.lock(gameID)
	defer unlock()
	return s.mutateLocked(ctx, userID, gameID, fn)
}

// mutateLocked persists any change fn made and settles a finished game that
// was not paid out yet, so a failed credit is retried by the next call.
// Errors from fn are returned after persisting, since a rejected move may
// still have expired the game. The caller holds the game lock.
func (s *GameService) mutateLocked(ctx context.Context, userID, gameID string, fn func(*game.Session, time.Time) error) (domain.GameView, error) {
	rec, err := s.games.Get(ctx, gameID)
	if err != nil {
		return domain.GameView{}, err
	}
	if rec.UserID != userID {
		return domain.GameView{}, domain.ErrGameNotFound
	}
	session, err := game.Restore(rec.GameState, s.rules)
	if err != nil {
		return domain.GameView{}, fmt.Errorf("restore game %s: %w", gameID, err)
	}

	now := s.now()
	wasFinished := session.Finished()
	before := session.CurrentLevel()
	helpsBefore := len(session.HelpsUsed())

	opErr := fn(session, now)

	changed := session.Finished() != wasFinished ||
		session.CurrentLevel() != before ||
		len(session.HelpsUsed()) != helpsBefore
	if changed {
		rec.GameState = session.State()
		if err := s.games.Save(ctx, rec); err != nil {
			return domain.GameView{}, fmt.Errorf("save game %s: %w", gameID, err)
		}
	}
	view := s.view(rec, session, now)
	if changed {
		s.feeds.publish(gameID, view)
	}

	if rec.NeedsSettlement() {
		if err := s.settle(ctx, &rec, view); err != nil {
			return view, err
		}
	}
	if opErr != nil {
		return view, opErr
	}
	return view, nil
}

// settle credits the final prize, marks the game settled and announces it.
func (s *GameService) settle(ctx context.Context, rec *domain.GameRecord, view domain.GameView) error {
	if rec.FinalPrize > 0 {
		if err := s.ledger.Credit(ctx, rec.UserID, rec.ID, rec.FinalPrize); err != nil {
			return fmt.Errorf("credit prize for game %s: %w", rec.ID, err)
		}
	}
	rec.Settled = true
	if err := s.games.Save(ctx, *rec); err != nil {
		return fmt.Errorf("mark game %s settled: %w", rec.ID, err)
	}
	log.Printf("game %s finished: status=%s level=%d prize=%d", rec.ID, view.Status, rec.CurrentLevel, rec.FinalPrize)

	if s.publisher == nil {
		return nil
	}
	event := domain.GameFinished{
		GameID: rec.ID,
		UserID: rec.UserID,
		Status: view.Status,
		Level:  rec.CurrentLevel,
		Prize:  rec.FinalPrize,
	}
	if rec.FinishedAt != nil {
		event.FinishedAt = *rec.FinishedAt
	}
	// best-effort: the game is already settled in the ledger
	if err := s.publisher.PublishGameFinished(ctx, event); err != nil {
		log.Printf("publish game %s finished: %v", rec.ID, err)
	}
	return nil
}

func expireOverdue(session *game.Session, now time.Time) error {
	session.Expire(now)
	return nil
}

func (s *GameService) view(rec domain.GameRecord, session *game.Session, now time.Time) domain.GameView {
	view := domain.GameView{
		ID:           rec.ID,
		UserID:       rec.UserID,
		Status:       session.Status(now),
		CurrentLevel: session.CurrentLevel(),
		FinalPrize:   session.FinalPrize(),
		HelpsUsed:    session.HelpsUsed(),
		CreatedAt:    session.CreatedAt(),
	}
	if prev, err := session.PreviousLevel(); err == nil {
		view.PreviousLevel = &prev
	}
	if finishedAt, ok := session.FinishedAt(); ok {
		view.FinishedAt = &finishedAt
	}
	if q, ok := session.CurrentQuestion(); ok {
		qv := q.View()
		view.Question = &qv
	}
	return view
}
