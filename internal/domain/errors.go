package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when a move is not allowed in the current game state.
	ErrInvalidState = errors.New("invalid game state")
	// ErrOutOfRange is returned when a prize ladder is queried outside its levels.
	ErrOutOfRange = errors.New("level out of range")
	// ErrInsufficientQuestions indicates the question bank cannot fill every level.
	ErrInsufficientQuestions = errors.New("insufficient questions")
	// ErrTimeLimitExceeded is wrapped into ErrInvalidState when a game ran out of time.
	ErrTimeLimitExceeded = errors.New("time limit exceeded")
	// ErrActiveGameExists is returned when a user already has a game in progress.
	ErrActiveGameExists = errors.New("active game exists")
	// ErrGameNotFound is returned for unknown games and games owned by someone else.
	ErrGameNotFound = errors.New("game not found")
	// ErrUnknownHelp indicates an unsupported help kind.
	ErrUnknownHelp = errors.New("unknown help kind")
	// ErrQuestionNotFound indicates a level has no questions in the bank.
	ErrQuestionNotFound = errors.New("question not found")
)

// ActiveGameError carries the id of the game that blocks a new one.
type ActiveGameError struct {
	GameID string
}

func (e *ActiveGameError) Error() string {
	return fmt.Sprintf("%s: %s", ErrActiveGameExists, e.GameID)
}

func (e *ActiveGameError) Unwrap() error {
	return ErrActiveGameExists
}
