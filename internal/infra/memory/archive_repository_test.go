package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quizlive-service/internal/domain"
)

// countingLoader wraps StaticArchiveLoader and counts backing loads so
// tests can assert on cache behavior.
type countingLoader struct {
	*StaticArchiveLoader
	mu    sync.Mutex
	loads int
}

func (l *countingLoader) Load(ctx context.Context, id string) (domain.SavedSession, error) {
	l.mu.Lock()
	l.loads++
	l.mu.Unlock()
	return l.StaticArchiveLoader.Load(ctx, id)
}

func (l *countingLoader) loadCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads
}

func savedFixture(id string) domain.SavedSession {
	return domain.SavedSession{
		ID:   id,
		Name: "Quiz",
		Questions: []domain.Question{
			{Kind: domain.KindMCQ, Text: "q", Options: []string{"A", "B"}},
		},
		SavedAt: time.Unix(1700000000, 0),
	}
}

func TestArchiveGetCachesLoads(t *testing.T) {
	loader := &countingLoader{StaticArchiveLoader: NewStaticArchiveLoader()}
	repo := NewArchiveRepository(loader, time.Minute)
	ctx := context.Background()

	if err := loader.Store(ctx, savedFixture("s1")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	for i := 0; i < 3; i++ {
		got, err := repo.Get(ctx, "s1")
		if err != nil {
			t.Fatalf("get #%d: %v", i+1, err)
		}
		if got.ID != "s1" {
			t.Fatalf("unexpected result: %+v", got)
		}
	}
	if loader.loadCount() != 1 {
		t.Fatalf("expected a single backing load, got %d", loader.loadCount())
	}
}

func TestArchiveSaveIsWriteThrough(t *testing.T) {
	loader := &countingLoader{StaticArchiveLoader: NewStaticArchiveLoader()}
	repo := NewArchiveRepository(loader, time.Minute)
	ctx := context.Background()

	if err := repo.Save(ctx, savedFixture("s1")); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Cache was refreshed by the save, so no backing load happens.
	if _, err := repo.Get(ctx, "s1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if loader.loadCount() != 0 {
		t.Fatalf("expected no backing load after save, got %d", loader.loadCount())
	}

	// The loader has the record too.
	if _, err := loader.StaticArchiveLoader.Load(ctx, "s1"); err != nil {
		t.Fatalf("loader missing record: %v", err)
	}
}

func TestArchiveDeleteEvictsCache(t *testing.T) {
	loader := &countingLoader{StaticArchiveLoader: NewStaticArchiveLoader()}
	repo := NewArchiveRepository(loader, time.Minute)
	ctx := context.Background()

	if err := repo.Save(ctx, savedFixture("s1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Delete(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, "s1"); !errors.Is(err, domain.ErrSavedSessionNotFound) {
		t.Fatalf("expected ErrSavedSessionNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "s1"); !errors.Is(err, domain.ErrSavedSessionNotFound) {
		t.Fatalf("double delete: expected ErrSavedSessionNotFound, got %v", err)
	}
}

func TestArchiveListPassesThrough(t *testing.T) {
	loader := &countingLoader{StaticArchiveLoader: NewStaticArchiveLoader()}
	repo := NewArchiveRepository(loader, time.Minute)
	ctx := context.Background()

	if err := repo.Save(ctx, savedFixture("s1")); err != nil {
		t.Fatalf("save s1: %v", err)
	}
	if err := repo.Save(ctx, savedFixture("s2")); err != nil {
		t.Fatalf("save s2: %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 saved sessions, got %d", len(list))
	}
}

func TestArchiveExpiredEntryReloads(t *testing.T) {
	loader := &countingLoader{StaticArchiveLoader: NewStaticArchiveLoader()}
	repo := NewArchiveRepository(loader, time.Nanosecond)
	ctx := context.Background()

	if err := repo.Save(ctx, savedFixture("s1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	time.Sleep(time.Millisecond)

	if _, err := repo.Get(ctx, "s1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if loader.loadCount() != 1 {
		t.Fatalf("expected reload after expiry, got %d loads", loader.loadCount())
	}
}
