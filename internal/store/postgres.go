package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Conf is the Postgres-backed record store. All documents live in the
// records table as jsonb, one row per (entity, id).
type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type ops struct {
	q querier
}

func (o ops) Get(ctx context.Context, entity, id string, out any) error {
	return o.get(ctx, entity, id, out, false)
}

func (o ops) get(ctx context.Context, entity, id string, out any, forUpdate bool) error {
	query := `
		SELECT doc
		FROM records
		WHERE entity = $1 AND id = $2
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var doc []byte
	err := o.q.QueryRowContext(ctx, query, entity, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to query record: %w", err)
	}
	if err := json.Unmarshal(doc, out); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}

func (o ops) Query(ctx context.Context, entity string, filter map[string]any) ([]Record, error) {
	query := `
		SELECT id, doc
		FROM records
		WHERE entity = $1
	`
	args := []any{entity}
	if len(filter) > 0 {
		// jsonb containment gives document-store style field matching.
		filterJSON, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("failed to encode filter: %w", err)
		}
		query += ` AND doc @> $2::jsonb`
		args = append(args, string(filterJSON))
	}
	query += ` ORDER BY created_at`

	rows, err := o.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, (*[]byte)(&r.Doc)); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return records, nil
}

func (o ops) Create(ctx context.Context, entity, id string, doc any) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	query := `
		INSERT INTO records (entity, id, doc, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`
	_, err = o.q.ExecContext(ctx, query, entity, id, string(docJSON))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

func (o ops) Update(ctx context.Context, entity, id string, doc any) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	query := `
		UPDATE records
		SET doc = $3, updated_at = NOW()
		WHERE entity = $1 AND id = $2
	`
	res, err := o.q.ExecContext(ctx, query, entity, id, string(docJSON))
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (o ops) Delete(ctx context.Context, entity, id string) error {
	query := `
		DELETE FROM records
		WHERE entity = $1 AND id = $2
	`
	res, err := o.q.ExecContext(ctx, query, entity, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (o ops) AtomicDecrement(ctx context.Context, entity, id, field string, amount int) error {
	if amount < 0 {
		return fmt.Errorf("negative decrement amount: %d", amount)
	}

	// Conditional decrement: the WHERE clause guarantees the field never
	// goes negative, whatever races with us.
	query := `
		UPDATE records
		SET doc = jsonb_set(doc, ARRAY[$3], to_jsonb((doc->>$3)::int - $4)),
		    updated_at = NOW()
		WHERE entity = $1 AND id = $2 AND (doc->>$3)::int >= $4
	`
	res, err := o.q.ExecContext(ctx, query, entity, id, field, amount)
	if err != nil {
		return fmt.Errorf("failed to decrement field: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		// Distinguish a missing record from insufficient stock.
		var exists bool
		err := o.q.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM records WHERE entity = $1 AND id = $2)`,
			entity, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check record existence: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrInsufficient
	}
	return nil
}

func (c *Conf) Get(ctx context.Context, entity, id string, out any) error {
	return ops{q: c.db}.Get(ctx, entity, id, out)
}

func (c *Conf) Query(ctx context.Context, entity string, filter map[string]any) ([]Record, error) {
	return ops{q: c.db}.Query(ctx, entity, filter)
}

func (c *Conf) Create(ctx context.Context, entity, id string, doc any) error {
	return ops{q: c.db}.Create(ctx, entity, id, doc)
}

func (c *Conf) Update(ctx context.Context, entity, id string, doc any) error {
	return ops{q: c.db}.Update(ctx, entity, id, doc)
}

func (c *Conf) Delete(ctx context.Context, entity, id string) error {
	return ops{q: c.db}.Delete(ctx, entity, id)
}

func (c *Conf) AtomicDecrement(ctx context.Context, entity, id, field string, amount int) error {
	return ops{q: c.db}.AtomicDecrement(ctx, entity, id, field, amount)
}

type pgTx struct {
	ops
}

func (t pgTx) GetForUpdate(ctx context.Context, entity, id string, out any) error {
	return t.get(ctx, entity, id, out, true)
}

func (c *Conf) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(pgTx{ops{q: tx}}); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
