// snapshot-import loads a JSON snapshot and stores it in a SQLite database
// that eggmove can open directly.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/eggmove/eggmove/snapshot"
)

func main() {
	in := pflag.String("in", "./data/dump.json", "snapshot file or http(s) URL to import")
	out := pflag.String("out", "./data/snapshot.db", "SQLite database to write")
	attempts := pflag.Uint("fetch-attempts", 3, "attempts when fetching a snapshot URL")
	debug := pflag.Bool("debug", false, "debug logging on")
	pflag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx := context.Background()
	snap, err := snapshot.Open(ctx, *in, snapshot.OpenOptions{FetchAttempts: *attempts})
	if err != nil {
		log.Fatal().Err(err).Str("in", *in).Msg("could-not-read-snapshot")
	}
	store, err := snapshot.OpenSQLStore(*out)
	if err != nil {
		log.Fatal().Err(err).Str("out", *out).Msg("could-not-open-database")
	}
	defer store.Close()
	if err := store.Import(ctx, snap); err != nil {
		log.Fatal().Err(err).Msg("import-failed")
	}
	sum, err := snap.Summary()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid-snapshot")
	}
	log.Info().Int("species", sum.Species).Int("moves", sum.Moves).
		Int("records", sum.Records).Str("fingerprint", sum.Fingerprint).
		Str("out", *out).Msg("imported")
}
