package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"meetix.org/internal/migrate"
	"meetix.org/internal/obs"
	"meetix.org/internal/store/pg"
	"meetix.org/migrations"
)

func main() {
	log := obs.Logger()
	var (
		dsn            = flag.String("dsn", os.Getenv("MEETIX_PG_DSN"), "PostgreSQL DSN")
		migrationsPath = flag.String("migrations", "", "Directory of SQL migrations (defaults to the embedded set)")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal().Msg("missing DSN: provide via -dsn or MEETIX_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal().Msg("usage: migrate [up|down|status]")
	}

	var migrationFS fs.FS = migrations.FS
	if *migrationsPath != "" {
		migrationFS = os.DirFS(*migrationsPath)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := pg.Open(*dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	defer store.Close()

	mgr := migrate.NewManager(store.DB(), migrationFS)

	switch flag.Arg(0) {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "status":
		var entries []migrate.Entry
		entries, err = mgr.Status(ctx)
		for _, e := range entries {
			applied := "pending"
			if e.AppliedAt != nil {
				applied = e.AppliedAt.Format(time.RFC3339)
			}
			fmt.Printf("%-32s %s\n", e.Name, applied)
		}
	default:
		log.Fatal().Str("command", flag.Arg(0)).Msg("unknown command")
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", flag.Arg(0)).Msg("migrate failed")
	}
	log.Info().Str("command", flag.Arg(0)).Msg("migrate done")
}
