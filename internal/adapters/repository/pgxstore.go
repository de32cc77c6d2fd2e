package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kzero/skillpoints/internal/domain/dist"
)

//go:embed schema.sql
var schema embed.FS

// DB is the Postgres-backed Store.
type DB struct{ *pgxpool.Pool }

var _ Store = (*DB)(nil)

// Open connects a pool to the given DSN.
func Open(ctx context.Context, dsn string) (*DB, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &DB{p}, nil
}

// Close releases the pool.
func (db *DB) Close(ctx context.Context) { db.Pool.Close() }

// Ping verifies connectivity.
func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

// Migrate applies the embedded schema.
func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

// FilterSnapshot loads tiers, both record sets (ascending by time), and
// any previously stored distribution parameters for a filter.
func (db *DB) FilterSnapshot(ctx context.Context, filterID int64) (*Snapshot, error) {
	snap := &Snapshot{}

	err := db.QueryRow(ctx, `
        SELECT nub_tier, pro_tier
          FROM course_filters
         WHERE id = $1
    `, filterID).Scan(&snap.NubTier, &snap.ProTier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrFilterNotFound, filterID)
		}
		return nil, err
	}

	snap.Nub, err = db.records(ctx, "best_nub_records", filterID)
	if err != nil {
		return nil, err
	}
	snap.Pro, err = db.records(ctx, "best_pro_records", filterID)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `
        SELECT is_pro_leaderboard, a, b, loc, scale, top_scale
          FROM point_distribution_data
         WHERE filter_id = $1
         ORDER BY is_pro_leaderboard
    `, filterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var isPro bool
		var p dist.Params
		if err := rows.Scan(&isPro, &p.A, &p.B, &p.Loc, &p.Scale, &p.TopScale); err != nil {
			return nil, err
		}
		if isPro {
			snap.PrevPro = &p
		} else {
			snap.PrevNub = &p
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snap, nil
}

func (db *DB) records(ctx context.Context, table string, filterID int64) ([]Record, error) {
	// table is one of two fixed identifiers, never user input.
	rows, err := db.Query(ctx, fmt.Sprintf(`
        SELECT record_id, time, points
          FROM %s
         WHERE filter_id = $1
         ORDER BY time ASC
    `, table), filterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.RecordID, &r.Time, &r.Points); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CommitRecompute applies one recompute's full write set in a single
// transaction.
func (db *DB) CommitRecompute(ctx context.Context, filterID int64, nub, pro []PointsUpdate, nubParams, proParams *dist.Params) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, u := range nub {
		batch.Queue(`UPDATE best_nub_records SET points = $1 WHERE record_id = $2`, u.Points, u.RecordID)
	}
	for _, u := range pro {
		batch.Queue(`UPDATE best_pro_records SET points = $1 WHERE record_id = $2`, u.Points, u.RecordID)
	}
	for _, pp := range []struct {
		params *dist.Params
		isPro  bool
	}{{nubParams, false}, {proParams, true}} {
		if pp.params == nil {
			continue
		}
		batch.Queue(`
            INSERT INTO point_distribution_data (
                filter_id, is_pro_leaderboard, a, b, loc, scale, top_scale
            ) VALUES ($1, $2, $3, $4, $5, $6, $7)
            ON CONFLICT (filter_id, is_pro_leaderboard) DO UPDATE
               SET a = EXCLUDED.a,
                   b = EXCLUDED.b,
                   loc = EXCLUDED.loc,
                   scale = EXCLUDED.scale,
                   top_scale = EXCLUDED.top_scale
        `, filterID, pp.isPro, pp.params.A, pp.params.B, pp.params.Loc, pp.params.Scale, pp.params.TopScale)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
