package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizlive-service/internal/domain"
)

func storeSession() domain.Session {
	return domain.Session{
		Code:            "ABC123",
		Name:            "Quiz",
		Status:          domain.StatusWaiting,
		CurrentQuestion: -1,
		Questions: []domain.Question{
			{Kind: domain.KindMCQ, Text: "q", Options: []string{"A", "B"}},
		},
	}
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	if err := store.Create(ctx, storeSession()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, storeSession()); !errors.Is(err, domain.ErrSessionExists) {
		t.Fatalf("expected ErrSessionExists, got %v", err)
	}
}

func TestGetReturnsIsolatedSnapshot(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	if err := store.Create(ctx, storeSession()); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := store.Get(ctx, "ABC123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	first.Questions[0].Text = "tampered"

	second, err := store.Get(ctx, "ABC123")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if second.Questions[0].Text != "q" {
		t.Fatalf("snapshot shares state with caller: %q", second.Questions[0].Text)
	}

	if _, err := store.Get(ctx, "NOPE00"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestApplyUpdatesAndReturnsSnapshot(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	if err := store.Create(ctx, storeSession()); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Apply(ctx, "ABC123", domain.Mutation{
		"status":          domain.StatusActive,
		"currentQuestion": 0,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.Status != domain.StatusActive || got.CurrentQuestion != 0 {
		t.Fatalf("unexpected snapshot: %+v", got)
	}

	stored, _ := store.Get(ctx, "ABC123")
	if stored.Status != domain.StatusActive {
		t.Fatalf("apply was not persisted: %+v", stored)
	}

	if _, err := store.Apply(ctx, "ABC123", domain.Mutation{"bogus": 1}); !errors.Is(err, domain.ErrInvalidMutation) {
		t.Fatalf("expected ErrInvalidMutation, got %v", err)
	}
	if _, err := store.Apply(ctx, "NOPE00", domain.Mutation{"status": domain.StatusActive}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestWatchReceivesInitialAndUpdates(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	if err := store.Create(ctx, storeSession()); err != nil {
		t.Fatalf("create: %v", err)
	}

	updates, cancel, err := store.Watch(ctx, "ABC123")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer cancel()

	select {
	case snap := <-updates:
		if snap.Status != domain.StatusWaiting {
			t.Fatalf("unexpected initial snapshot: %+v", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	if _, err := store.Apply(ctx, "ABC123", domain.Mutation{"status": domain.StatusActive}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	select {
	case snap := <-updates:
		if snap.Status != domain.StatusActive {
			t.Fatalf("unexpected update: %+v", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("update never arrived")
	}
}

func TestSlowWatcherSeesLatestSnapshot(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	if err := store.Create(ctx, storeSession()); err != nil {
		t.Fatalf("create: %v", err)
	}

	updates, cancel, err := store.Watch(ctx, "ABC123")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer cancel()

	// Never read while many applies pile up; stale snapshots are dropped.
	for i := 0; i < 50; i++ {
		if _, err := store.Apply(ctx, "ABC123", domain.Mutation{"currentQuestion": 0}); err != nil {
			t.Fatalf("apply #%d: %v", i, err)
		}
	}
	if _, err := store.Apply(ctx, "ABC123", domain.Mutation{"name": "latest"}); err != nil {
		t.Fatalf("final apply: %v", err)
	}

	var last domain.Session
	deadline := time.After(time.Second)
	for {
		select {
		case snap := <-updates:
			last = snap
			if last.Name == "latest" {
				return
			}
		case <-deadline:
			t.Fatalf("latest snapshot never delivered, last seen %q", last.Name)
		}
	}
}

func TestDeleteClosesWatchers(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	if err := store.Create(ctx, storeSession()); err != nil {
		t.Fatalf("create: %v", err)
	}

	updates, cancel, err := store.Watch(ctx, "ABC123")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer cancel()

	store.Delete(ctx, "ABC123")

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-updates:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel was not closed on delete")
		}
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	if err := store.Create(ctx, storeSession()); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, cancel, err := store.Watch(ctx, "ABC123")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	cancel()
	cancel()

	if _, err := store.Apply(ctx, "ABC123", domain.Mutation{"status": domain.StatusActive}); err != nil {
		t.Fatalf("apply after cancel: %v", err)
	}
}
