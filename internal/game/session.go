package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ladder-quiz-service/internal/domain"
)

// DefaultTimeLimit is the wall-clock ceiling of a run.
const DefaultTimeLimit = time.Hour

// QuestionSupplier hands out one question per requested level.
type QuestionSupplier interface {
	QuestionsForLevels(ctx context.Context, levels []int) (map[int]domain.Question, error)
}

// Rules parameterize a run. Zero fields fall back to the defaults.
type Rules struct {
	Prizes    *PrizeTable
	TimeLimit time.Duration
	Rand      Random
}

// WithDefaults fills zero fields with the production defaults.
func (r Rules) WithDefaults() Rules {
	if r.Prizes == nil {
		r.Prizes = DefaultPrizeTable()
	}
	if r.TimeLimit <= 0 {
		r.TimeLimit = DefaultTimeLimit
	}
	if r.Rand == nil {
		r.Rand = globalRandom{}
	}
	return r
}

// Session is one player's climb up the ladder. It is not safe for concurrent
// mutation; callers serialize access per session.
type Session struct {
	rules        Rules
	questions    []domain.Question
	currentLevel int
	createdAt    time.Time
	finishedAt   time.Time
	outcome      domain.Outcome
	finalPrize   int
	helpsUsed    map[domain.HelpKind]struct{}
}

// New assigns one question per level and starts a run at now.
func New(ctx context.Context, supplier QuestionSupplier, rules Rules, now time.Time) (*Session, error) {
	rules = rules.WithDefaults()
	n := rules.Prizes.Levels()

	levels := make([]int, n)
	for i := range levels {
		levels[i] = i
	}
	byLevel, err := supplier.QuestionsForLevels(ctx, levels)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientQuestions) || errors.Is(err, domain.ErrQuestionNotFound) {
			return nil, fmt.Errorf("%w: %v", domain.ErrInsufficientQuestions, err)
		}
		return nil, fmt.Errorf("assign questions: %w", err)
	}

	questions := make([]domain.Question, n)
	seen := make(map[string]int, n)
	for level := 0; level < n; level++ {
		q, ok := byLevel[level]
		if !ok {
			return nil, fmt.Errorf("%w: no question for level %d", domain.ErrInsufficientQuestions, level)
		}
		if err := validateQuestion(q, level); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInsufficientQuestions, err)
		}
		if q.ID != "" {
			if prev, dup := seen[q.ID]; dup {
				return nil, fmt.Errorf("%w: question %s assigned to levels %d and %d", domain.ErrInsufficientQuestions, q.ID, prev, level)
			}
			seen[q.ID] = level
		}
		questions[level] = cloneQuestion(q)
	}

	return &Session{
		rules:     rules,
		questions: questions,
		createdAt: now,
		outcome:   domain.OutcomeNone,
		helpsUsed: make(map[domain.HelpKind]struct{}),
	}, nil
}

// Restore rebuilds a session from persisted facts.
func Restore(state domain.GameState, rules Rules) (*Session, error) {
	rules = rules.WithDefaults()
	n := rules.Prizes.Levels()

	if len(state.Questions) != n {
		return nil, fmt.Errorf("%w: restore: %d questions for %d levels", domain.ErrInvalidState, len(state.Questions), n)
	}
	if state.CurrentLevel < 0 || state.CurrentLevel > n {
		return nil, fmt.Errorf("%w: restore: level %d out of range", domain.ErrInvalidState, state.CurrentLevel)
	}
	outcome := state.Outcome
	if outcome == "" {
		outcome = domain.OutcomeNone
	}
	switch outcome {
	case domain.OutcomeNone, domain.OutcomeWon, domain.OutcomeFail, domain.OutcomeCashedOut:
	default:
		return nil, fmt.Errorf("%w: restore: unknown outcome %q", domain.ErrInvalidState, outcome)
	}
	if (outcome == domain.OutcomeNone) != (state.FinishedAt == nil) {
		return nil, fmt.Errorf("%w: restore: finish time and outcome disagree", domain.ErrInvalidState)
	}
	if state.CurrentLevel == n && outcome != domain.OutcomeWon {
		return nil, fmt.Errorf("%w: restore: top level reached without a win", domain.ErrInvalidState)
	}
	if outcome == domain.OutcomeWon && (state.CurrentLevel != n || state.FinalPrize != rules.Prizes.Top()) {
		return nil, fmt.Errorf("%w: restore: win at level %d with prize %d", domain.ErrInvalidState, state.CurrentLevel, state.FinalPrize)
	}
	if outcome == domain.OutcomeNone && state.FinalPrize != 0 {
		return nil, fmt.Errorf("%w: restore: prize %d on a live game", domain.ErrInvalidState, state.FinalPrize)
	}
	if !rules.Prizes.Awardable(state.FinalPrize) {
		return nil, fmt.Errorf("%w: restore: prize %d is not on the ladder", domain.ErrInvalidState, state.FinalPrize)
	}

	s := &Session{
		rules:        rules,
		questions:    make([]domain.Question, n),
		currentLevel: state.CurrentLevel,
		createdAt:    state.CreatedAt,
		outcome:      outcome,
		finalPrize:   state.FinalPrize,
		helpsUsed:    make(map[domain.HelpKind]struct{}, len(state.HelpsUsed)),
	}
	for level, q := range state.Questions {
		if err := validateQuestion(q, level); err != nil {
			return nil, fmt.Errorf("%w: restore: %v", domain.ErrInvalidState, err)
		}
		s.questions[level] = cloneQuestion(q)
	}
	for _, kind := range state.HelpsUsed {
		if !knownHelp(kind) {
			return nil, fmt.Errorf("%w: restore: %q", domain.ErrUnknownHelp, kind)
		}
		if _, dup := s.helpsUsed[kind]; dup {
			return nil, fmt.Errorf("%w: restore: help %s used twice", domain.ErrInvalidState, kind)
		}
		s.helpsUsed[kind] = struct{}{}
	}
	if state.FinishedAt != nil {
		s.finishedAt = *state.FinishedAt
	}
	return s, nil
}

// State exports the persisted facts.
func (s *Session) State() domain.GameState {
	questions := make([]domain.Question, len(s.questions))
	for i, q := range s.questions {
		questions[i] = cloneQuestion(q)
	}
	state := domain.GameState{
		CurrentLevel: s.currentLevel,
		Outcome:      s.outcome,
		CreatedAt:    s.createdAt,
		FinalPrize:   s.finalPrize,
		HelpsUsed:    s.HelpsUsed(),
		Questions:    questions,
	}
	if s.Finished() {
		finishedAt := s.finishedAt
		state.FinishedAt = &finishedAt
	}
	return state
}

// Status derives the presentation status at now. It never mutates.
func (s *Session) Status(now time.Time) domain.Status {
	switch s.outcome {
	case domain.OutcomeWon:
		return domain.StatusWon
	case domain.OutcomeCashedOut:
		return domain.StatusMoney
	case domain.OutcomeFail:
		if s.finishedAt.Sub(s.createdAt) > s.rules.TimeLimit {
			return domain.StatusTimeout
		}
		return domain.StatusFail
	}
	if s.overdue(now) {
		return domain.StatusTimeout
	}
	return domain.StatusInProgress
}

// Answer checks key against the current question. Lateness wins over
// correctness: an overdue session terminates and reports false.
func (s *Session) Answer(key string, now time.Time) (bool, error) {
	if s.Finished() {
		return false, fmt.Errorf("%w: game already finished", domain.ErrInvalidState)
	}
	if s.overdue(now) {
		s.expire(now)
		return false, nil
	}

	if key == s.questions[s.currentLevel].CorrectKey {
		s.currentLevel++
		if s.currentLevel == len(s.questions) {
			s.finish(domain.OutcomeWon, s.rules.Prizes.Top(), now)
		}
		return true, nil
	}

	s.finish(domain.OutcomeFail, s.rules.Prizes.FloorPrizeBelow(s.currentLevel), now)
	return false, nil
}

// CashOut ends the run and locks in the prize of the last completed level.
func (s *Session) CashOut(now time.Time) (int, error) {
	if s.Finished() {
		return 0, fmt.Errorf("%w: game already finished", domain.ErrInvalidState)
	}
	if s.overdue(now) {
		s.expire(now)
		return 0, fmt.Errorf("%w: %w", domain.ErrInvalidState, domain.ErrTimeLimitExceeded)
	}
	if s.currentLevel == 0 {
		return 0, fmt.Errorf("%w: nothing to take before the first answer", domain.ErrInvalidState)
	}
	prize, err := s.rules.Prizes.PrizeAt(s.currentLevel - 1)
	if err != nil {
		return 0, err
	}
	s.finish(domain.OutcomeCashedOut, prize, now)
	return prize, nil
}

// RequestHelp consumes kind and reveals its hint for the current question.
func (s *Session) RequestHelp(kind domain.HelpKind, now time.Time) (domain.HelpPayload, error) {
	if s.Finished() {
		return domain.HelpPayload{}, fmt.Errorf("%w: game already finished", domain.ErrInvalidState)
	}
	if !knownHelp(kind) {
		return domain.HelpPayload{}, fmt.Errorf("%w: %q", domain.ErrUnknownHelp, kind)
	}
	if s.overdue(now) {
		s.expire(now)
		return domain.HelpPayload{}, fmt.Errorf("%w: %w", domain.ErrInvalidState, domain.ErrTimeLimitExceeded)
	}
	if _, used := s.helpsUsed[kind]; used {
		return domain.HelpPayload{}, fmt.Errorf("%w: %s already used", domain.ErrInvalidState, kind)
	}

	s.helpsUsed[kind] = struct{}{}
	return buildHelp(kind, s.questions[s.currentLevel], s.rules.Rand), nil
}

// Expire terminates an overdue in-progress run and reports whether it did.
func (s *Session) Expire(now time.Time) bool {
	if s.Finished() || !s.overdue(now) {
		return false
	}
	s.expire(now)
	return true
}

// PreviousLevel is the last level answered correctly.
func (s *Session) PreviousLevel() (int, error) {
	if s.currentLevel == 0 {
		return 0, fmt.Errorf("%w: no level completed yet", domain.ErrInvalidState)
	}
	return s.currentLevel - 1, nil
}

// CurrentQuestion returns the question awaiting an answer, if any.
func (s *Session) CurrentQuestion() (domain.Question, bool) {
	if s.Finished() || s.currentLevel >= len(s.questions) {
		return domain.Question{}, false
	}
	return cloneQuestion(s.questions[s.currentLevel]), true
}

// CurrentLevel is the level awaiting an answer, or the ladder length after a win.
func (s *Session) CurrentLevel() int { return s.currentLevel }

// Outcome is the stored termination fact.
func (s *Session) Outcome() domain.Outcome { return s.outcome }

// FinalPrize is the amount won; zero while the run is live.
func (s *Session) FinalPrize() int { return s.finalPrize }

// CreatedAt is when the run started.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Finished reports whether the run has terminated.
func (s *Session) Finished() bool { return s.outcome != domain.OutcomeNone }

// Prizes is the ladder the run is played on.
func (s *Session) Prizes() *PrizeTable { return s.rules.Prizes }

// TimeLimit is the wall-clock ceiling of the run.
func (s *Session) TimeLimit() time.Duration { return s.rules.TimeLimit }

// FinishedAt is the termination time; ok is false while the run is live.
func (s *Session) FinishedAt() (time.Time, bool) {
	return s.finishedAt, s.Finished()
}

// HelpsUsed lists consumed helps in display order.
func (s *Session) HelpsUsed() []domain.HelpKind {
	used := make([]domain.HelpKind, 0, len(s.helpsUsed))
	for _, kind := range domain.HelpKinds {
		if _, ok := s.helpsUsed[kind]; ok {
			used = append(used, kind)
		}
	}
	return used
}

func (s *Session) overdue(now time.Time) bool {
	return now.Sub(s.createdAt) > s.rules.TimeLimit
}

func (s *Session) expire(now time.Time) {
	s.finish(domain.OutcomeFail, s.rules.Prizes.FloorPrizeBelow(s.currentLevel), now)
}

func (s *Session) finish(outcome domain.Outcome, prize int, now time.Time) {
	s.outcome = outcome
	s.finalPrize = prize
	s.finishedAt = now
}

func validateQuestion(q domain.Question, level int) error {
	if q.Level != level {
		return fmt.Errorf("question %s tagged level %d, want %d", q.ID, q.Level, level)
	}
	if len(q.Variants) != len(domain.AnswerKeys) {
		return fmt.Errorf("question %s has %d variants, want %d", q.ID, len(q.Variants), len(domain.AnswerKeys))
	}
	for _, k := range domain.AnswerKeys {
		if _, ok := q.Variants[k]; !ok {
			return fmt.Errorf("question %s misses variant %q", q.ID, k)
		}
	}
	if _, ok := q.Variants[q.CorrectKey]; !ok {
		return fmt.Errorf("question %s has correct key %q outside its variants", q.ID, q.CorrectKey)
	}
	return nil
}

func cloneQuestion(q domain.Question) domain.Question {
	variants := make(map[string]string, len(q.Variants))
	for k, v := range q.Variants {
		variants[k] = v
	}
	q.Variants = variants
	return q
}
