package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fraszczakszymon/dfp-query-tool/internal/lineitem"
)

// Postgres wraps the postgres connection holding the operations journal.
type Postgres struct {
	DB *sql.DB
}

// InitPostgres connects to postgres with the given pool settings and applies
// pending journal migrations.
func InitPostgres(dsn string, maxOpen, maxIdle int, connMaxLifetime time.Duration) (*Postgres, error) {
	driverName, err := otelsql.Register("postgres",
		otelsql.WithAttributes(
			attribute.String("db.system", "postgresql"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if err := Migrate(dsn); err != nil {
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}

	zap.L().Info("Connected to Postgres",
		zap.Int("max_open_conns", maxOpen),
		zap.Int("max_idle_conns", maxIdle))
	return &Postgres{DB: db}, nil
}

// Close closes the underlying connection pool.
func (p *Postgres) Close() error {
	if p == nil || p.DB == nil {
		return nil
	}
	return p.DB.Close()
}

// RecordOperation appends one operation to the journal. The journal is
// append-only; rows are never updated or deleted by this tool.
func (p *Postgres) RecordOperation(ctx context.Context, rec lineitem.JournalRecord) error {
	if p == nil || p.DB == nil {
		return nil
	}
	_, err := p.DB.ExecContext(ctx,
		`INSERT INTO operations (op_id, kind, order_id, line_item_id, key_id, value_ids, changed, outcome, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.OpID, rec.Kind, rec.OrderID, rec.LineItemID, rec.KeyID,
		pq.Array(rec.ValueIDs), rec.Changed, rec.Outcome, rec.Detail, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert operation: %w", err)
	}
	return nil
}

// OperationRow is a journal row as read back for inspection.
type OperationRow struct {
	OpID       string
	Kind       string
	OrderID    int64
	LineItemID int64
	KeyID      int64
	ValueIDs   []int64
	Changed    bool
	Outcome    string
	Detail     string
	CreatedAt  time.Time
}

// OperationsForLineItem lists the journal entries for one line item, newest
// first.
func (p *Postgres) OperationsForLineItem(ctx context.Context, lineItemID int64, limit int) ([]OperationRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.DB.QueryContext(ctx,
		`SELECT op_id, kind, order_id, line_item_id, key_id, value_ids, changed, outcome, detail, created_at
		 FROM operations WHERE line_item_id = $1 ORDER BY created_at DESC LIMIT $2`,
		lineItemID, limit)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	var out []OperationRow
	for rows.Next() {
		var row OperationRow
		var values pq.Int64Array
		if err := rows.Scan(&row.OpID, &row.Kind, &row.OrderID, &row.LineItemID, &row.KeyID,
			&values, &row.Changed, &row.Outcome, &row.Detail, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		row.ValueIDs = values
		out = append(out, row)
	}
	return out, rows.Err()
}
