package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLStore keeps a snapshot in a SQLite database with one table per
// record collection.
type SQLStore struct {
	db         *sql.DB
	schemaOnce sync.Once
	schemaErr  error
}

func OpenSQLStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite snapshot %s: %w", path, err)
	}
	return NewSQLStore(db), nil
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS gender_rates (
    pokemon TEXT NOT NULL,
    gender_rate INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS egg_groups (
    pokemon TEXT NOT NULL,
    egg_group TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS moves (
    pokemon TEXT NOT NULL,
    move TEXT NOT NULL,
    learn_method TEXT NOT NULL,
    version_group TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_moves_move_version ON moves(move, version_group);
CREATE INDEX IF NOT EXISTS idx_egg_groups_pokemon ON egg_groups(pokemon);
`)
	})
	return s.schemaErr
}

// Import replaces the stored snapshot with snap in a single transaction.
func (s *SQLStore) Import(ctx context.Context, snap *Snapshot) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"gender_rates", "egg_groups", "moves"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	genderStmt, err := tx.PrepareContext(ctx, `INSERT INTO gender_rates (pokemon, gender_rate) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer genderStmt.Close()
	for _, r := range snap.GenderRates {
		if _, err := genderStmt.ExecContext(ctx, r.Pokemon, r.GenderRate); err != nil {
			return err
		}
	}

	groupStmt, err := tx.PrepareContext(ctx, `INSERT INTO egg_groups (pokemon, egg_group) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer groupStmt.Close()
	for _, r := range snap.EggGroups {
		if _, err := groupStmt.ExecContext(ctx, r.Pokemon, r.EggGroup); err != nil {
			return err
		}
	}

	moveStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO moves (pokemon, move, learn_method, version_group) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer moveStmt.Close()
	for _, r := range snap.Moves {
		if _, err := moveStmt.ExecContext(ctx, r.Pokemon, r.Move, r.LearnMethod, r.VersionGroup); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	log.Debug().Int("gender-rates", len(snap.GenderRates)).Int("egg-groups", len(snap.EggGroups)).
		Int("moves", len(snap.Moves)).Msg("snapshot-imported")
	return nil
}

// Load reads the stored snapshot back in insertion order and validates it.
func (s *SQLStore) Load(ctx context.Context) (*Snapshot, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	snap := &Snapshot{}

	rows, err := s.db.QueryContext(ctx, `SELECT pokemon, gender_rate FROM gender_rates ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var r GenderRate
		if err := rows.Scan(&r.Pokemon, &r.GenderRate); err != nil {
			rows.Close()
			return nil, err
		}
		snap.GenderRates = append(snap.GenderRates, r)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT pokemon, egg_group FROM egg_groups ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var r EggGroup
		if err := rows.Scan(&r.Pokemon, &r.EggGroup); err != nil {
			rows.Close()
			return nil, err
		}
		snap.EggGroups = append(snap.EggGroups, r)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT pokemon, move, learn_method, version_group FROM moves ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var r Move
		if err := rows.Scan(&r.Pokemon, &r.Move, &r.LearnMethod, &r.VersionGroup); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Moves = append(snap.Moves, r)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}
