package domain

import "time"

// AnswerKeys are the four fixed variant keys of every question.
var AnswerKeys = []string{"a", "b", "c", "d"}

// Question is a multiple-choice question bound to a difficulty level.
type Question struct {
	ID         string            `json:"id"`
	Level      int               `json:"level"`
	Text       string            `json:"text"`
	Variants   map[string]string `json:"variants"`
	CorrectKey string            `json:"correctKey"`
}

// View strips the correct key so the question can be shown to a player.
func (q Question) View() QuestionView {
	variants := make(map[string]string, len(q.Variants))
	for k, v := range q.Variants {
		variants[k] = v
	}
	return QuestionView{ID: q.ID, Level: q.Level, Text: q.Text, Variants: variants}
}

// QuestionView is the player-facing form of a Question.
type QuestionView struct {
	ID       string            `json:"id"`
	Level    int               `json:"level"`
	Text     string            `json:"text"`
	Variants map[string]string `json:"variants"`
}

// Outcome is the stored termination fact of a game.
type Outcome string

const (
	OutcomeNone      Outcome = "none"
	OutcomeWon       Outcome = "won"
	OutcomeFail      Outcome = "fail"
	OutcomeCashedOut Outcome = "cashed_out"
)

// Status is derived on every read from the stored facts and the clock.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusTimeout    Status = "timeout"
	StatusFail       Status = "fail"
	StatusWon        Status = "won"
	StatusMoney      Status = "money"
)

// Terminal reports whether no further moves are possible in this status.
func (s Status) Terminal() bool {
	return s != StatusInProgress
}

// HelpKind names a one-shot assistance feature.
type HelpKind string

const (
	HelpFiftyFifty HelpKind = "fifty_fifty"
	HelpAudience   HelpKind = "audience_help"
	HelpFriendCall HelpKind = "friend_call"
)

// HelpKinds lists every supported help in display order.
var HelpKinds = []HelpKind{HelpFiftyFifty, HelpAudience, HelpFriendCall}

// HelpPayload is the information a help reveals. Only the field matching
// Kind is populated.
type HelpPayload struct {
	Kind         HelpKind       `json:"kind"`
	Keys         []string       `json:"keys,omitempty"`
	Distribution map[string]int `json:"distribution,omitempty"`
	FriendGuess  string         `json:"friendGuess,omitempty"`
}

// GameState holds the persisted facts of one run. Status is never stored.
type GameState struct {
	CurrentLevel int        `json:"currentLevel"`
	Outcome      Outcome    `json:"outcome"`
	CreatedAt    time.Time  `json:"createdAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
	FinalPrize   int        `json:"finalPrize"`
	HelpsUsed    []HelpKind `json:"helpsUsed"`
	Questions    []Question `json:"questions"`
}

// Finished reports whether the run has terminated.
func (s GameState) Finished() bool {
	return s.Outcome != "" && s.Outcome != OutcomeNone
}

// GameRecord is the unit of persistence: the game facts plus ownership.
// Settled is set once the final prize reached the ledger and stays false
// while a finished game still owes its payout.
type GameRecord struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	Settled bool   `json:"settled"`
	GameState
}

// NeedsSettlement reports whether the game finished but was not paid out yet.
func (r GameRecord) NeedsSettlement() bool {
	return r.Finished() && !r.Settled
}

// PlayerBalance is one row of the balance ranking.
type PlayerBalance struct {
	UserID  string `json:"userId"`
	Balance int    `json:"balance"`
}

// PrizeRung is one row of the prize ladder as presented to players.
type PrizeRung struct {
	Level int  `json:"level"`
	Prize int  `json:"prize"`
	Floor bool `json:"floor"`
}

// GameView is the read model handed to transports.
type GameView struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId"`
	Status        Status        `json:"status"`
	CurrentLevel  int           `json:"currentLevel"`
	PreviousLevel *int          `json:"previousLevel,omitempty"`
	FinalPrize    int           `json:"finalPrize"`
	HelpsUsed     []HelpKind    `json:"helpsUsed"`
	CreatedAt     time.Time     `json:"createdAt"`
	FinishedAt    *time.Time    `json:"finishedAt,omitempty"`
	Question      *QuestionView `json:"question,omitempty"`
}

// AnswerResult summarizes a single answer submission.
type AnswerResult struct {
	Correct bool     `json:"correct"`
	Game    GameView `json:"game"`
}

// GameFinished is emitted once when a game reaches a terminal state.
type GameFinished struct {
	GameID     string    `json:"gameId"`
	UserID     string    `json:"userId"`
	Status     Status    `json:"status"`
	Level      int       `json:"level"`
	Prize      int       `json:"prize"`
	FinishedAt time.Time `json:"finishedAt"`
}
