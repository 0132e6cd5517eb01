package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizlive-service/internal/domain"
)

// ArchiveLoader persists saved question sets as JSONB rows in Postgres.
type ArchiveLoader struct {
	pool *pgxpool.Pool
}

func NewArchiveLoader(pool *pgxpool.Pool) *ArchiveLoader {
	return &ArchiveLoader{pool: pool}
}

func (l *ArchiveLoader) Load(ctx context.Context, id string) (domain.SavedSession, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM saved_sessions WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SavedSession{}, domain.ErrSavedSessionNotFound
	}
	if err != nil {
		return domain.SavedSession{}, fmt.Errorf("load saved session: %w", err)
	}
	return decodeSaved(raw)
}

func (l *ArchiveLoader) LoadAll(ctx context.Context) ([]domain.SavedSession, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM saved_sessions ORDER BY saved_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list saved sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.SavedSession
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan saved session: %w", err)
		}
		saved, err := decodeSaved(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	return out, rows.Err()
}

func (l *ArchiveLoader) Store(ctx context.Context, saved domain.SavedSession) error {
	data, err := json.Marshal(saved)
	if err != nil {
		return fmt.Errorf("marshal saved session: %w", err)
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO saved_sessions (id, name, data, saved_at) VALUES ($1, $2, $3::jsonb, $4)
		 ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, data=EXCLUDED.data, saved_at=EXCLUDED.saved_at`,
		saved.ID, saved.Name, data, saved.SavedAt)
	if err != nil {
		return fmt.Errorf("store saved session: %w", err)
	}
	return nil
}

func (l *ArchiveLoader) Remove(ctx context.Context, id string) error {
	tag, err := l.pool.Exec(ctx, `DELETE FROM saved_sessions WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete saved session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSavedSessionNotFound
	}
	return nil
}

func decodeSaved(raw []byte) (domain.SavedSession, error) {
	var saved domain.SavedSession
	if err := json.Unmarshal(raw, &saved); err != nil {
		return domain.SavedSession{}, fmt.Errorf("unmarshal saved session: %w", err)
	}
	return saved, nil
}
