package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

// PostgresStore keeps state in the ui_state table (see migrations). Values are
// stored as jsonb: JSON objects and arrays as documents, everything else as a
// JSON string. Documents come back re-serialized by Postgres, equal in meaning
// but not necessarily byte-for-byte.
type PostgresStore struct {
	db  *sql.DB
	ttl time.Duration
}

// NewPostgresStore creates a store over an open database.
func NewPostgresStore(db *sql.DB, ttl time.Duration) *PostgresStore {
	return &PostgresStore{db: db, ttl: ttl}
}

func encodeValue(value string) pqtype.NullRawMessage {
	trimmed := strings.TrimSpace(value)
	if (strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")) && json.Valid([]byte(trimmed)) {
		return pqtype.NullRawMessage{RawMessage: json.RawMessage(trimmed), Valid: true}
	}
	raw, _ := json.Marshal(value)
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}
}

func decodeValue(v pqtype.NullRawMessage) (string, bool) {
	if !v.Valid || len(v.RawMessage) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v.RawMessage, &s); err == nil {
		return s, true
	}
	return string(v.RawMessage), true
}

func (s *PostgresStore) expiresAt() sql.NullTime {
	if s.ttl <= 0 {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: time.Now().Add(s.ttl), Valid: true}
}

func (s *PostgresStore) Get(ctx context.Context, ns, key string) (string, bool, error) {
	var v pqtype.NullRawMessage
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM ui_state
		WHERE namespace = $1 AND key = $2
		  AND (expires_at IS NULL OR expires_at > now())`,
		ns, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select ui_state: %w", err)
	}
	value, ok := decodeValue(v)
	return value, ok, nil
}

func (s *PostgresStore) Set(ctx context.Context, ns, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ui_state (namespace, key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = now()`,
		ns, key, encodeValue(value), s.expiresAt(),
	)
	if err != nil {
		return fmt.Errorf("upsert ui_state: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, ns string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM ui_state WHERE namespace = $1 AND key = ANY($2)`,
		ns, pq.Array(keys),
	)
	if err != nil {
		return fmt.Errorf("delete ui_state: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, ns string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ui_state WHERE namespace = $1`, ns); err != nil {
		return fmt.Errorf("clear ui_state: %w", err)
	}
	return nil
}

// DeleteExpired removes expired rows and returns how many were removed.
func (s *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ui_state WHERE expires_at IS NOT NULL AND expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("sweep ui_state: %w", err)
	}
	return res.RowsAffected()
}
