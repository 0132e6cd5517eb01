package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
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

// ArchiveRepository caches saved sessions in Redis as JSON values
// (quiz:saved:{id}) and falls back to the loader on cache miss. Listing
// always goes to the loader; only single-record reads are cached.
type ArchiveRepository struct {
	client *redis.Client
	loader ArchiveLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewArchiveRepository(client *redis.Client, loader ArchiveLoader, ttl time.Duration) *ArchiveRepository {
	return &ArchiveRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ArchiveRepository) Get(ctx context.Context, id string) (domain.SavedSession, error) {
	key := r.key(id)

	if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
		return decodeSaved(raw)
	}

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
			return decodeSaved(raw)
		}

		saved, err := r.loader.Load(ctx, id)
		if err != nil {
			return domain.SavedSession{}, err
		}
		r.fill(ctx, saved)
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
	r.fill(ctx, saved)
	return nil
}

func (r *ArchiveRepository) Delete(ctx context.Context, id string) error {
	if err := r.loader.Remove(ctx, id); err != nil {
		return err
	}
	_ = r.client.Del(ctx, r.key(id)).Err()
	return nil
}

// fill is best-effort; a failed cache write only costs a later reload.
func (r *ArchiveRepository) fill(ctx context.Context, saved domain.SavedSession) {
	data, err := json.Marshal(saved)
	if err != nil {
		return
	}
	_ = r.client.Set(ctx, r.key(saved.ID), data, r.ttlWithJitter()).Err()
}

func (r *ArchiveRepository) key(id string) string {
	return "quiz:saved:" + id
}

func (r *ArchiveRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func decodeSaved(raw []byte) (domain.SavedSession, error) {
	var saved domain.SavedSession
	if err := json.Unmarshal(raw, &saved); err != nil {
		return domain.SavedSession{}, fmt.Errorf("unmarshal saved session: %w", err)
	}
	return saved, nil
}
