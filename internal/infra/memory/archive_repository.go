package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quizlive-service/internal/domain"
)

// ArchiveLoader persists saved question sets in a backing store
// (Postgres in production).
type ArchiveLoader interface {
	Load(ctx context.Context, id string) (domain.SavedSession, error)
	LoadAll(ctx context.Context) ([]domain.SavedSession, error)
	Store(ctx context.Context, saved domain.SavedSession) error
	Remove(ctx context.Context, id string) error
}

// ArchiveRepository caches archive reads with TTL to avoid repeated DB
// hits; writes go through to the loader and refresh the cache entry.
type ArchiveRepository struct {
	loader ArchiveLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedSave
}

type cachedSave struct {
	saved     domain.SavedSession
	expiresAt time.Time
}

func NewArchiveRepository(loader ArchiveLoader, ttl time.Duration) *ArchiveRepository {
	return &ArchiveRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedSave),
	}
}

func (r *ArchiveRepository) Get(ctx context.Context, id string) (domain.SavedSession, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[id]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.saved, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[id]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.saved, nil
		}
		r.mu.RUnlock()

		saved, err := r.loader.Load(ctx, id)
		if err != nil {
			return domain.SavedSession{}, err
		}
		r.put(saved, now)
		return saved, nil
	})
	if err != nil {
		return domain.SavedSession{}, err
	}
	return result.(domain.SavedSession), nil
}

func (r *ArchiveRepository) List(ctx context.Context) ([]domain.SavedSession, error) {
	return r.loader.LoadAll(ctx)
}

func (r *ArchiveRepository) Save(ctx context.Context, saved domain.SavedSession) error {
	if err := r.loader.Store(ctx, saved); err != nil {
		return err
	}
	r.put(saved, r.clock())
	return nil
}

func (r *ArchiveRepository) Delete(ctx context.Context, id string) error {
	if err := r.loader.Remove(ctx, id); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.cache, id)
	r.mu.Unlock()
	return nil
}

func (r *ArchiveRepository) put(saved domain.SavedSession, now time.Time) {
	r.mu.Lock()
	r.cache[saved.ID] = cachedSave{saved: saved, expiresAt: now.Add(r.ttlWithJitter())}
	r.mu.Unlock()
}

func (r *ArchiveRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticArchiveLoader keeps saved sessions in an in-memory map, used
// when no Postgres is configured and in tests.
type StaticArchiveLoader struct {
	mu    sync.RWMutex
	saves map[string]domain.SavedSession
}

func NewStaticArchiveLoader() *StaticArchiveLoader {
	return &StaticArchiveLoader{saves: make(map[string]domain.SavedSession)}
}

func (l *StaticArchiveLoader) Load(_ context.Context, id string) (domain.SavedSession, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if saved, ok := l.saves[id]; ok {
		return saved, nil
	}
	return domain.SavedSession{}, domain.ErrSavedSessionNotFound
}

func (l *StaticArchiveLoader) LoadAll(_ context.Context) ([]domain.SavedSession, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.SavedSession, 0, len(l.saves))
	for _, saved := range l.saves {
		out = append(out, saved)
	}
	return out, nil
}

func (l *StaticArchiveLoader) Store(_ context.Context, saved domain.SavedSession) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.saves[saved.ID] = saved
	return nil
}

func (l *StaticArchiveLoader) Remove(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.saves[id]; !ok {
		return domain.ErrSavedSessionNotFound
	}
	delete(l.saves, id)
	return nil
}
