package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"ladder-quiz-service/internal/domain"
)

func TestGameStoreLifecycle(t *testing.T) {
	mr := runMiniredis(t)
	store := NewGameStore(newClient(mr), 0)
	ctx := context.Background()

	rec := sampleRecord("g1", "u1")
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !mr.Exists("game:g1") {
		t.Fatalf("expected game key to be set")
	}
	if got, _ := mr.Get("game:active:u1"); got != "g1" {
		t.Fatalf("expected active pointer to g1, got %q", got)
	}

	err := store.Create(ctx, sampleRecord("g2", "u1"))
	var activeErr *domain.ActiveGameError
	if !errors.As(err, &activeErr) || activeErr.GameID != "g1" {
		t.Fatalf("expected active game error for g1, got %v", err)
	}
	if mr.Exists("game:g2") {
		t.Fatalf("rejected game must not be stored")
	}

	active, err := store.Active(ctx, "u1")
	if err != nil || active.ID != "g1" || len(active.Questions) != 15 {
		t.Fatalf("unexpected active game %+v err=%v", active, err)
	}

	finished := rec.CreatedAt.Add(time.Minute)
	rec.CurrentLevel = 2
	rec.Outcome = domain.OutcomeCashedOut
	rec.FinishedAt = &finished
	rec.FinalPrize = 200
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if mr.Exists("game:active:u1") {
		t.Fatalf("expected active pointer removed after finish")
	}
	if ttl := mr.TTL("game:g1"); ttl != 0 {
		t.Fatalf("expected finished game kept without retention, got ttl %v", ttl)
	}
	if _, err := store.Active(ctx, "u1"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected no active game, got %v", err)
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
	if games[1].FinalPrize != 200 || games[1].Outcome != domain.OutcomeCashedOut || games[1].FinishedAt == nil {
		t.Fatalf("expected saved state, got %+v", games[1].GameState)
	}
}

func TestGameStoreSaveKeepsOtherActivePointer(t *testing.T) {
	mr := runMiniredis(t)
	store := NewGameStore(newClient(mr), 0)
	ctx := context.Background()

	old := sampleRecord("g1", "u1")
	if err := store.Create(ctx, old); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Simulate a pointer that already moved on to another game.
	if err := mr.Set("game:active:u1", "g9"); err != nil {
		t.Fatalf("set pointer: %v", err)
	}

	now := time.Now()
	old.Outcome = domain.OutcomeFail
	old.FinishedAt = &now
	if err := store.Save(ctx, old); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got, _ := mr.Get("game:active:u1"); got != "g9" {
		t.Fatalf("expected foreign pointer kept, got %q", got)
	}
}

func TestGameStoreDropsDanglingActivePointer(t *testing.T) {
	mr := runMiniredis(t)
	store := NewGameStore(newClient(mr), 0)
	ctx := context.Background()

	// A pointer whose game record never made it to Redis.
	if err := mr.Set("game:active:u1", "ghost"); err != nil {
		t.Fatalf("set pointer: %v", err)
	}
	if _, err := store.Active(ctx, "u1"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected not found for dangling pointer, got %v", err)
	}
	if mr.Exists("game:active:u1") {
		t.Fatalf("expected dangling pointer dropped")
	}

	if err := mr.Set("game:active:u1", "ghost"); err != nil {
		t.Fatalf("set pointer: %v", err)
	}
	if err := store.Create(ctx, sampleRecord("g1", "u1")); err != nil {
		t.Fatalf("create over dangling pointer: %v", err)
	}
	if got, _ := mr.Get("game:active:u1"); got != "g1" {
		t.Fatalf("expected pointer taken over by g1, got %q", got)
	}
}

func TestGameStoreKeepsSettlementFlag(t *testing.T) {
	mr := runMiniredis(t)
	store := NewGameStore(newClient(mr), 0)
	ctx := context.Background()

	rec := sampleRecord("g1", "u1")
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	now := time.Now()
	rec.Outcome = domain.OutcomeFail
	rec.FinishedAt = &now
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ := store.Get(ctx, "g1")
	if !got.NeedsSettlement() {
		t.Fatalf("expected finished game awaiting settlement")
	}

	rec.Settled = true
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save settled: %v", err)
	}
	got, _ = store.Get(ctx, "g1")
	if got.NeedsSettlement() {
		t.Fatalf("expected settled game")
	}
}

func TestGameStoreUnknownGame(t *testing.T) {
	mr := runMiniredis(t)
	store := NewGameStore(newClient(mr), 0)
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Save(ctx, sampleRecord("missing", "u1")); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected not found on save, got %v", err)
	}
	games, err := store.ListByUser(ctx, "nobody")
	if err != nil || len(games) != 0 {
		t.Fatalf("expected empty history, got %+v err=%v", games, err)
	}
}

func sampleRecord(id, userID string) domain.GameRecord {
	return domain.GameRecord{
		ID:     id,
		UserID: userID,
		GameState: domain.GameState{
			Outcome:   domain.OutcomeNone,
			CreatedAt: time.Now().UTC().Truncate(time.Second),
			HelpsUsed: []domain.HelpKind{},
			Questions: sampleQuestions(15, 1),
		},
	}
}

func TestGameStoreRetentionExpiresFinishedGames(t *testing.T) {
	mr := runMiniredis(t)
	store := NewGameStore(newClient(mr), time.Hour)
	ctx := context.Background()

	rec := sampleRecord("g1", "u1")
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if ttl := mr.TTL("game:g1"); ttl != 0 {
		t.Fatalf("active game must not expire, got ttl %v", ttl)
	}

	now := time.Now()
	rec.Outcome = domain.OutcomeFail
	rec.FinishedAt = &now
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := mr.TTL("game:g1"); ttl != time.Hour {
		t.Fatalf("expected retention ttl, got %v", ttl)
	}

	mr.FastForward(2 * time.Hour)
	games, err := store.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(games) != 0 {
		t.Fatalf("expected expired game skipped, got %+v", games)
	}
}
