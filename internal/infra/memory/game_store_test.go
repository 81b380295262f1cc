package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"ladder-quiz-service/internal/domain"
)

func TestGameStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewGameStore()

	rec := sampleRecord("g1", "u1")
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	active, err := store.Active(ctx, "u1")
	if err != nil || active.ID != "g1" {
		t.Fatalf("expected active g1, got %+v err=%v", active, err)
	}

	err = store.Create(ctx, sampleRecord("g2", "u1"))
	var activeErr *domain.ActiveGameError
	if !errors.As(err, &activeErr) || activeErr.GameID != "g1" {
		t.Fatalf("expected active game error for g1, got %v", err)
	}

	finished := time.Now()
	rec.Outcome = domain.OutcomeCashedOut
	rec.FinishedAt = &finished
	rec.FinalPrize = 200
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Active(ctx, "u1"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected no active game after finish, got %v", err)
	}

	if err := store.Create(ctx, sampleRecord("g2", "u1")); err != nil {
		t.Fatalf("create second: %v", err)
	}
	games, err := store.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(games) != 2 || games[0].ID != "g2" || games[1].ID != "g1" {
		t.Fatalf("expected newest first, got %+v", games)
	}
	if games[1].FinalPrize != 200 {
		t.Fatalf("expected saved prize, got %d", games[1].FinalPrize)
	}
}

func TestGameStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewGameStore()
	if err := store.Create(ctx, sampleRecord("g1", "u1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, _ := store.Get(ctx, "g1")
	got.Questions[0].Variants["a"] = "tampered"
	got.CurrentLevel = 9

	again, _ := store.Get(ctx, "g1")
	if again.Questions[0].Variants["a"] == "tampered" || again.CurrentLevel != 0 {
		t.Fatalf("store leaked internal state: %+v", again)
	}
}

func TestGameStoreUnknownGame(t *testing.T) {
	store := NewGameStore()
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Save(context.Background(), sampleRecord("missing", "u1")); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected not found on save, got %v", err)
	}
}

func TestLedgerCreditsOncePerGame(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger()

	_ = ledger.Credit(ctx, "u1", "g1", 200)
	_ = ledger.Credit(ctx, "u1", "g1", 200)
	_ = ledger.Credit(ctx, "u1", "g2", 1000)

	balance, err := ledger.Balance(ctx, "u1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 1200 {
		t.Fatalf("expected balance 1200, got %d", balance)
	}
}

func TestLedgerTopBalances(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger()
	_ = ledger.Credit(ctx, "u2", "g1", 100)
	_ = ledger.Credit(ctx, "u1", "g2", 100)
	_ = ledger.Credit(ctx, "u3", "g3", 32000)

	board, err := ledger.TopBalances(ctx, 2)
	if err != nil {
		t.Fatalf("top balances: %v", err)
	}
	want := []domain.PlayerBalance{{UserID: "u3", Balance: 32000}, {UserID: "u1", Balance: 100}}
	if len(board) != 2 || board[0] != want[0] || board[1] != want[1] {
		t.Fatalf("expected %+v, got %+v", want, board)
	}
}

func sampleRecord(id, userID string) domain.GameRecord {
	return domain.GameRecord{
		ID:     id,
		UserID: userID,
		GameState: domain.GameState{
			Outcome:   domain.OutcomeNone,
			CreatedAt: time.Now(),
			HelpsUsed: []domain.HelpKind{},
			Questions: sampleQuestions(15, 1),
		},
	}
}
