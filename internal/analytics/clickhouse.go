package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	_ "github.com/ClickHouse/clickhouse-go/v2"
)

// ErrUnavailable is returned when the analytics DB is not configured.
var ErrUnavailable = fmt.Errorf("analytics unavailable")

// OperationEvent is one line-item operation as reported to analytics.
// Value IDs themselves stay in the postgres journal; analytics only needs
// the cardinality.
type OperationEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	OpID       string    `json:"op_id"`
	Kind       string    `json:"kind"`
	OrderID    int64     `json:"order_id"`
	LineItemID int64     `json:"line_item_id"`
	KeyID      int64     `json:"key_id"`
	ValueCount int       `json:"value_count"`
	Changed    bool      `json:"changed"`
	Outcome    string    `json:"outcome"`
}

// Service defines the interface for analytics operations. Implementations
// return ErrUnavailable when the underlying storage is not configured.
type Service interface {
	// RecordOperation records one line-item operation event.
	RecordOperation(ctx context.Context, ev OperationEvent) error
}

// Analytics wraps a ClickHouse DB connection.
type Analytics struct {
	DB *sql.DB
}

var _ Service = (*Analytics)(nil)

// InitClickHouse connects to ClickHouse and ensures the operations table
// exists.
func InitClickHouse(dsn string) (*Analytics, error) {
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(25)
	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	create := `CREATE TABLE IF NOT EXISTS line_item_operations (
       timestamp     DateTime,
       op_id         String,
       kind          String,
       order_id      Int64,
       line_item_id  Int64,
       key_id        Int64,
       value_count   Int32,
       changed       UInt8,
       outcome       String
   ) ENGINE=MergeTree() ORDER BY (kind, timestamp)`
	if _, err := db.ExecContext(context.Background(), create); err != nil {
		return nil, fmt.Errorf("clickhouse create table: %w", err)
	}

	zap.L().Info("Connected to ClickHouse")
	return &Analytics{DB: db}, nil
}

// RecordOperation inserts a single operation row.
func (a *Analytics) RecordOperation(ctx context.Context, ev OperationEvent) error {
	if a == nil || a.DB == nil {
		return ErrUnavailable
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	changed := uint8(0)
	if ev.Changed {
		changed = 1
	}
	_, err := a.DB.ExecContext(ctx,
		`INSERT INTO line_item_operations
		 (timestamp, op_id, kind, order_id, line_item_id, key_id, value_count, changed, outcome)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Timestamp, ev.OpID, ev.Kind, ev.OrderID, ev.LineItemID, ev.KeyID, int32(ev.ValueCount), changed, ev.Outcome)
	if err != nil {
		return fmt.Errorf("insert operation event: %w", err)
	}
	return nil
}

// Close closes the ClickHouse connection.
func (a *Analytics) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
