package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool used by the Postgres store
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres stores documents in the kv_documents table. A document at
// "a/b/c" is the row (collection "a/b", id "c"); a single-segment path is the
// row (collection "a", id "").
type Postgres struct {
	db Querier
}

// NewPostgres creates a Postgres-backed store. The kv_documents migration
// must have been applied.
func NewPostgres(db Querier) *Postgres {
	return &Postgres{db: db}
}

func rowKey(segments []string) (collection, id string) {
	if len(segments) == 1 {
		return segments[0], ""
	}
	return strings.Join(segments[:len(segments)-1], "/"), segments[len(segments)-1]
}

func (p *Postgres) Get(ctx context.Context, path string, dst any) (bool, error) {
	segments, err := splitPath(path)
	if err != nil {
		return false, err
	}
	collection, id := rowKey(segments)

	var data []byte
	err = p.db.QueryRow(ctx,
		`SELECT value FROM kv_documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: get %s: %v", ErrUnavailable, path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return true, nil
}

func (p *Postgres) Put(ctx context.Context, path string, value any) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if isNull(data) {
		return p.Delete(ctx, path)
	}
	collection, id := rowKey(segments)

	_, err = p.db.Exec(ctx, `
		INSERT INTO kv_documents (collection, id, value, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW())
		ON CONFLICT (collection, id)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		collection, id, string(data),
	)
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrUnavailable, path, err)
	}
	return nil
}

// Patch merges in a single statement using the jsonb concatenation operator.
// Null fields are removed from the stored object.
func (p *Postgres) Patch(ctx context.Context, path string, fields map[string]any) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}

	set := make(map[string]any, len(fields))
	var removed []string
	for k, v := range fields {
		if v == nil {
			removed = append(removed, k)
			continue
		}
		set[k] = v
	}
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if removed == nil {
		removed = []string{}
	}
	collection, id := rowKey(segments)

	_, err = p.db.Exec(ctx, `
		INSERT INTO kv_documents (collection, id, value, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW())
		ON CONFLICT (collection, id)
		DO UPDATE SET
			value = CASE WHEN jsonb_typeof(kv_documents.value) = 'object'
				THEN (kv_documents.value || EXCLUDED.value) - $4::text[]
				ELSE EXCLUDED.value END,
			updated_at = NOW()`,
		collection, id, string(data), removed,
	)
	if err != nil {
		return fmt.Errorf("%w: patch %s: %v", ErrUnavailable, path, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, path string) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	collection, id := rowKey(segments)
	full := strings.Join(segments, "/")

	_, err = p.db.Exec(ctx, `
		DELETE FROM kv_documents
		WHERE (collection = $1 AND id = $2)
		   OR collection = $3
		   OR collection LIKE $4`,
		collection, id, full, escapeLike(full)+"/%",
	)
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrUnavailable, path, err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	rows, err := p.db.Query(ctx,
		`SELECT id, value FROM kv_documents WHERE collection = $1 AND id <> ''`,
		strings.Join(segments, "/"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", ErrUnavailable, path, err)
	}
	defer rows.Close()

	out := make(map[string]json.RawMessage)
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("%w: list %s: %v", ErrUnavailable, path, err)
		}
		out[id] = json.RawMessage(data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", ErrUnavailable, path, err)
	}
	return out, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
