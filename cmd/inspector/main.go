package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/auditgate/auditgate/internal/config"
	"github.com/auditgate/auditgate/internal/repository"
)

// inspector lists rows from the three log tables straight from Postgres,
// for poking at an environment without going through the HTTP API.
func main() {
	kind := flag.String("kind", "requests", "which table to list: requests | operations | debug")
	limit := flag.Int("limit", 20, "max rows")
	module := flag.String("module", "", "filter by module")
	requestID := flag.Int64("request", 0, "filter operations/debug by request id")
	since := flag.Duration("since", 24*time.Hour, "only rows newer than this")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := repository.NewDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to db: %v", err)
	}
	store := repository.NewPostgresLogStore(db)

	from := time.Now().Add(-*since)
	filter := repository.ListFilter{
		Limit:     *limit,
		Module:    *module,
		RequestID: *requestID,
		From:      &from,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var rows interface{}
	switch *kind {
	case "requests":
		rows, err = store.ListRequests(ctx, filter)
	case "operations":
		rows, err = store.ListOperations(ctx, filter)
	case "debug":
		rows, err = store.ListDebug(ctx, filter)
	default:
		fmt.Fprintf(os.Stderr, "unknown kind %q\n", *kind)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		log.Fatalf("Encode failed: %v", err)
	}
}
