package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quizlive-service/internal/app"
	"quizlive-service/internal/domain"
)

// applyRetries bounds optimistic-transaction retries under contention.
const applyRetries = 5

// SessionStore is a Redis-backed implementation of app.SessionStore.
// Each session document is one JSON value; applies run as optimistic
// WATCH/MULTI transactions, and every committed snapshot is published
// on a per-session channel so watchers on any instance converge.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ app.SessionStore = (*SessionStore)(nil)

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Create(ctx context.Context, session domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.key(session.Code), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if !ok {
		return domain.ErrSessionExists
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, code string) (domain.Session, error) {
	raw, err := s.client.Get(ctx, s.key(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	return decodeSession(raw)
}

func (s *SessionStore) Apply(ctx context.Context, code string, m domain.Mutation) (domain.Session, error) {
	key := s.key(code)
	var updated domain.Session

	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		current, err := decodeSession(raw)
		if err != nil {
			return err
		}
		next, err := domain.Apply(current, m)
		if err != nil {
			return err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			pipe.Publish(ctx, s.channel(code), data)
			return nil
		})
		if err != nil {
			return err
		}
		updated = next
		return nil
	}

	for attempt := 0; attempt < applyRetries; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return domain.Session{}, err
		}
		return updated, nil
	}
	return domain.Session{}, fmt.Errorf("apply session %s: transaction kept failing", code)
}

// Watch subscribes to the session's update channel and delivers full
// snapshots, the current one first. Slow consumers get stale snapshots
// dropped in favor of the newest.
func (s *SessionStore) Watch(ctx context.Context, code string) (<-chan domain.Session, func(), error) {
	initial, err := s.Get(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	pubsub := s.client.Subscribe(ctx, s.channel(code))
	ch := make(chan domain.Session, 8)
	ch <- initial

	go func() {
		defer close(ch)
		for msg := range pubsub.Channel() {
			snapshot, err := decodeSession([]byte(msg.Payload))
			if err != nil {
				continue
			}
			select {
			case ch <- snapshot:
			default:
				select {
				case <-ch:
				default:
				}
				ch <- snapshot
			}
		}
	}()

	cancel := func() { _ = pubsub.Close() }
	return ch, cancel, nil
}

func (s *SessionStore) key(code string) string {
	return "quiz:session:" + code
}

func (s *SessionStore) channel(code string) string {
	return "quiz:events:" + code
}

func decodeSession(raw []byte) (domain.Session, error) {
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return session, nil
}
