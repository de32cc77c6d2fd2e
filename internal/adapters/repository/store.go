// Package repository defines persistent-store access for leaderboard
// recomputes and its Postgres implementation.
package repository

import (
	"context"

	"github.com/kzero/skillpoints/internal/domain/dist"
)

// Record is one stored completion record. The core only ever mutates
// Points.
type Record struct {
	RecordID int64
	Time     float64
	Points   float64
}

// PointsUpdate carries a recomputed points fraction for one record.
type PointsUpdate struct {
	RecordID int64
	Points   float64
}

// Snapshot is everything a recompute needs for one filter, read in a
// single pass before any write happens. Record slices are ordered by
// time ascending; PrevNub/PrevPro are warm-start seeds and may be nil.
type Snapshot struct {
	NubTier int
	ProTier int
	Nub     []Record
	Pro     []Record
	PrevNub *dist.Params
	PrevPro *dist.Params
}

// Store provides read/write access to leaderboard state.
type Store interface {
	// FilterSnapshot loads records, tiers, and previous distribution
	// parameters for a filter. Returns ErrFilterNotFound when the filter
	// does not exist.
	FilterSnapshot(ctx context.Context, filterID int64) (*Snapshot, error)

	// CommitRecompute applies all of one recompute's writes as a single
	// transaction: per-record points updates for both variants, plus a
	// parameter upsert for each variant whose params pointer is non-nil.
	// A nil params pointer leaves any stored row for that variant
	// untouched.
	CommitRecompute(ctx context.Context, filterID int64, nub, pro []PointsUpdate, nubParams, proParams *dist.Params) error

	// Close releases the underlying connection pool.
	Close(ctx context.Context)
}
