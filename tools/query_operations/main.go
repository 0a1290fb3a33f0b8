// Command query_operations prints the journal entries recorded for a line
// item, newest first, as indented JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/fraszczakszymon/dfp-query-tool/internal/config"
	"github.com/fraszczakszymon/dfp-query-tool/internal/db"
	"github.com/fraszczakszymon/dfp-query-tool/internal/observability"
)

func main() {
	logger, err := observability.InitLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	var lineItemID int64
	var limit int
	var dsn string
	flag.Int64Var(&lineItemID, "line-item", 0, "line item ID")
	flag.IntVar(&limit, "limit", 100, "maximum entries to print")
	flag.StringVar(&dsn, "dsn", "", "Postgres DSN (defaults to POSTGRES_DSN)")
	flag.Parse()

	if lineItemID == 0 {
		fmt.Fprintln(os.Stderr, "line-item required")
		os.Exit(1)
	}

	cfg := config.Load()
	if dsn == "" {
		dsn = cfg.PostgresDSN
	}
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "no Postgres DSN configured")
		os.Exit(1)
	}

	pg, err := db.InitPostgres(dsn, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect postgres: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	ops, err := pg.OperationsForLineItem(context.Background(), lineItemID, limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query operations: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ops); err != nil {
		fmt.Fprintf(os.Stderr, "encode operations: %v\n", err)
		os.Exit(1)
	}
}
