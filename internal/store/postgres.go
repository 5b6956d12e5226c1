package store

import (
	"context"
	"fmt"

	"github.com/aruj94/deviceAPI/internal/telemetry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSchema creates both collections if they are missing.
const PostgresSchema = `
	CREATE TABLE IF NOT EXISTS error_records (
		id   BIGSERIAL PRIMARY KEY,
		data TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS api_keys (
		id                   BIGSERIAL PRIMARY KEY,
		data                 TEXT NOT NULL,
		expiration_timestamp TIMESTAMPTZ NOT NULL
	);
`

// EnsureSchema applies PostgresSchema.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("%w: ensure schema: %w", telemetry.ErrStoreUnavailable, err)
	}

	return nil
}

// table maps one record type onto its SQL table.
type table[T telemetry.Record] struct {
	name    string
	columns string
	insert  string
	args    func(T) []any
	scan    func(pgx.CollectableRow) (T, error)
}

// PostgresCollection is a telemetry.Collection backed by a PostgreSQL table.
// Rows are ordered by their serial id, which is insertion order.
type PostgresCollection[T telemetry.Record] struct {
	pool  *pgxpool.Pool
	table table[T]
}

// NewPostgresErrorRecords returns the error record collection.
func NewPostgresErrorRecords(pool *pgxpool.Pool) *PostgresCollection[telemetry.ErrorRecord] {
	return &PostgresCollection[telemetry.ErrorRecord]{
		pool: pool,
		table: table[telemetry.ErrorRecord]{
			name:    "error_records",
			columns: "data",
			insert:  "$1",
			args: func(r telemetry.ErrorRecord) []any {
				return []any{r.Data}
			},
			scan: func(row pgx.CollectableRow) (telemetry.ErrorRecord, error) {
				var r telemetry.ErrorRecord
				err := row.Scan(&r.Data)

				return r, err
			},
		},
	}
}

// NewPostgresAPIKeys returns the api key collection.
func NewPostgresAPIKeys(pool *pgxpool.Pool) *PostgresCollection[telemetry.APIKeyRecord] {
	return &PostgresCollection[telemetry.APIKeyRecord]{
		pool: pool,
		table: table[telemetry.APIKeyRecord]{
			name:    "api_keys",
			columns: "data, expiration_timestamp",
			insert:  "$1, $2",
			args: func(r telemetry.APIKeyRecord) []any {
				return []any{r.Data, r.ExpirationTimestamp}
			},
			scan: func(row pgx.CollectableRow) (telemetry.APIKeyRecord, error) {
				var r telemetry.APIKeyRecord
				err := row.Scan(&r.Data, &r.ExpirationTimestamp)

				return r, err
			},
		},
	}
}

func (p *PostgresCollection[T]) Count(ctx context.Context) (int64, error) {
	var n int64

	query := fmt.Sprintf(`SELECT count(*) FROM %s`, p.table.name)

	if err := p.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, p.wrap("count", err)
	}

	return n, nil
}

func (p *PostgresCollection[T]) Find(ctx context.Context, skip, limit int64) ([]T, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY id
		OFFSET $1
		LIMIT $2
	`, p.table.columns, p.table.name)

	rows, err := p.pool.Query(ctx, query, skip, limit)
	if err != nil {
		return nil, p.wrap("find", err)
	}

	records, err := pgx.CollectRows(rows, p.table.scan)
	if err != nil {
		return nil, p.wrap("find", err)
	}

	return records, nil
}

func (p *PostgresCollection[T]) Insert(ctx context.Context, record T) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, p.table.name, p.table.columns, p.table.insert)

	if _, err := p.pool.Exec(ctx, query, p.table.args(record)...); err != nil {
		return p.wrap("insert", err)
	}

	return nil
}

func (p *PostgresCollection[T]) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := p.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, p.table.name))
	if err != nil {
		return 0, p.wrap("delete", err)
	}

	return tag.RowsAffected(), nil
}

func (p *PostgresCollection[T]) wrap(op string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", telemetry.ErrStoreUnavailable, op, p.table.name, err)
}

// Compile-time checks.
var (
	_ telemetry.Collection[telemetry.ErrorRecord]  = (*PostgresCollection[telemetry.ErrorRecord])(nil)
	_ telemetry.Collection[telemetry.APIKeyRecord] = (*PostgresCollection[telemetry.APIKeyRecord])(nil)
)
