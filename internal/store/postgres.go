package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sathvik2005/Prepforge-sub003/pkg/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps documents in a single jsonb table. The version column is
// the optimistic-concurrency guard; cross-instance safety rests on it.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	kind       text NOT NULL,
	id         text NOT NULL,
	doc        jsonb NOT NULL,
	version    bigint NOT NULL DEFAULT 1,
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (kind, id)
);
CREATE INDEX IF NOT EXISTS documents_kind_doc_idx ON documents USING gin (doc);
`

// Migrate creates the documents table.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate documents: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, kind, id string) ([]byte, int64, error) {
	const q = `SELECT doc, version FROM documents WHERE kind = $1 AND id = $2`
	var doc []byte
	var version int64
	err := p.db.QueryRow(ctx, q, kind, id).Scan(&doc, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, apperr.Newf(apperr.KindNotFound, "%s %s not found", kind, id)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get %s %s: %w", kind, id, err)
	}
	return doc, version, nil
}

func (p *Postgres) Put(ctx context.Context, kind, id string, doc []byte, expectedVersion int64) (int64, error) {
	if expectedVersion == 0 {
		const q = `
INSERT INTO documents (kind, id, doc, version) VALUES ($1, $2, $3, 1)
ON CONFLICT (kind, id) DO NOTHING RETURNING version`
		var version int64
		err := p.db.QueryRow(ctx, q, kind, id, doc).Scan(&version)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperr.Newf(apperr.KindConflict, "%s %s already exists", kind, id)
		}
		if err != nil {
			return 0, fmt.Errorf("insert %s %s: %w", kind, id, err)
		}
		return version, nil
	}

	const q = `
UPDATE documents SET doc = $3, version = version + 1, updated_at = now()
WHERE kind = $1 AND id = $2 AND version = $4 RETURNING version`
	var version int64
	err := p.db.QueryRow(ctx, q, kind, id, doc, expectedVersion).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.Newf(apperr.KindConflict, "version mismatch on %s %s", kind, id)
	}
	if err != nil {
		return 0, fmt.Errorf("update %s %s: %w", kind, id, err)
	}
	return version, nil
}

func (p *Postgres) QueryIndex(ctx context.Context, kind, field, key string, limit int) ([][]byte, error) {
	const q = `
SELECT doc FROM documents WHERE kind = $1 AND doc->>$2 = $3
ORDER BY updated_at DESC LIMIT $4`
	rows, err := p.db.Query(ctx, q, kind, field, key, limit)
	if err != nil {
		return nil, fmt.Errorf("query %s by %s: %w", kind, field, err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return out, nil
}
