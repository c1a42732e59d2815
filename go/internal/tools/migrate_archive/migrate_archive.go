package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/rendezvous/go/internal/dbconfig"
	"github.com/mcdev12/rendezvous/go/internal/rendezvous/archive"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to ping %s: %v\n", cfg.Redacted(), err)
		os.Exit(1)
	}

	// 2) Apply the archive schema; every statement is idempotent
	if _, err := pool.Exec(ctx, archive.Schema); err != nil {
		fmt.Fprintf(os.Stderr, "apply schema: %v\n", err)
		os.Exit(1)
	}

	// 3) Report what is already archived
	var total, accepted int64
	err = pool.QueryRow(ctx, `
        SELECT count(*), count(*) FILTER (WHERE verdict = 'accept')
        FROM rendezvous_rounds
    `).Scan(&total, &accepted)
	if err != nil {
		fmt.Fprintf(os.Stderr, "count rounds: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Archive schema ready on %s: %d rounds (%d accepted)\n", cfg.Redacted(), total, accepted)
}
