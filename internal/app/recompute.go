package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kzero/skillpoints/internal/adapters/repository"
	"github.com/kzero/skillpoints/internal/domain/dist"
	"github.com/kzero/skillpoints/internal/domain/points"
	"github.com/kzero/skillpoints/pkg/logger"
	"github.com/kzero/skillpoints/pkg/metrics"
)

// RecomputeRequest asks for a full points recompute of one filter.
type RecomputeRequest struct {
	FilterID *int64 `json:"filter_id"`
}

// Timings breaks a recompute down by phase, in milliseconds. Fields are
// always present; a phase that did no work costs zero time.
type Timings struct {
	DBQueryMS    float64 `json:"db_query_ms"`
	NubFitMS     float64 `json:"nub_fit_ms"`
	NubComputeMS float64 `json:"nub_compute_ms"`
	ProFitMS     float64 `json:"pro_fit_ms"`
	ProComputeMS float64 `json:"pro_compute_ms"`
	DBWriteMS    float64 `json:"db_write_ms"`
	TotalMS      float64 `json:"total_ms"`
}

func (t *Timings) total() float64 {
	return t.DBQueryMS + t.NubFitMS + t.NubComputeMS + t.ProFitMS + t.ProComputeMS + t.DBWriteMS
}

// RecomputeResponse echoes the filter and reports phase timings.
// FilterID is null only when the request never parsed far enough to
// know it.
type RecomputeResponse struct {
	FilterID *int64  `json:"filter_id"`
	Timings  Timings `json:"timings"`
}

// Recomputer refits distributions and rewrites stored points for whole
// filters. It assumes its caller serializes recomputes per filter.
type Recomputer struct {
	store repository.Store
	log   logger.Logger
}

// RecomputerOption applies a configuration option to the Recomputer.
type RecomputerOption func(*Recomputer)

// WithRecomputerLogger sets a custom logger.
func WithRecomputerLogger(log logger.Logger) RecomputerOption {
	return func(r *Recomputer) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRecomputer constructs a Recomputer over the given store.
func NewRecomputer(store repository.Store, opts ...RecomputerOption) *Recomputer {
	r := &Recomputer{store: store}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get().Named("recompute")
	}
	return r
}

// HandleLine parses one request line and runs the recompute. Malformed
// input is fatal for the process, matching the rest of the error
// taxonomy.
func (r *Recomputer) HandleLine(ctx context.Context, line []byte) Outcome {
	var req RecomputeRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return Fatal(fmt.Errorf("%w: %w", ErrMalformedRequest, err))
	}
	if req.FilterID == nil {
		return Fatal(fmt.Errorf("%w: missing filter_id", ErrMalformedRequest))
	}
	return r.Recompute(ctx, req)
}

// Recompute runs the full read-then-compute-then-write pass for one
// filter. All reads happen before all writes and the write set commits
// as one unit.
func (r *Recomputer) Recompute(ctx context.Context, req RecomputeRequest) Outcome {
	resp := &RecomputeResponse{FilterID: req.FilterID}
	if req.FilterID == nil {
		return Fatal(fmt.Errorf("%w: missing filter_id", ErrMalformedRequest))
	}
	filterID := *req.FilterID
	var diags []Diagnostic

	start := time.Now()
	snap, err := r.store.FilterSnapshot(ctx, filterID)
	resp.Timings.DBQueryMS = msSince(start)
	metrics.RecordDBQuery(resp.Timings.DBQueryMS)
	if err != nil {
		if isFilterNotFound(err) {
			resp.Timings.TotalMS = resp.Timings.total()
			return Warning(resp, Diagnostic{
				Message: "filter not found",
				Fields:  []logger.Field{logger.Int64("filter_id", filterID)},
			})
		}
		// Store failures are fatal for the whole process.
		return Fatal(err)
	}

	nubTimes := recordTimes(snap.Nub)
	proTimes := recordTimes(snap.Pro)
	metrics.SetLeaderboardSize(metrics.VariantNub, len(nubTimes))
	metrics.SetLeaderboardSize(metrics.VariantPro, len(proTimes))

	// Without a single overall record there is nothing to anchor either
	// leaderboard on; leave stored state untouched.
	if len(nubTimes) == 0 {
		resp.Timings.TotalMS = resp.Timings.total()
		return Warning(resp, Diagnostic{
			Message: "no overall records for filter",
			Fields:  []logger.Field{logger.Int64("filter_id", filterID)},
		})
	}

	// NUB fit decision. Below the threshold the method carries a nil
	// distribution and zeroed params, which routes scoring to the
	// fallback.
	var nubDist *dist.NIG
	var nubParams dist.Params
	if len(nubTimes) >= points.SmallLeaderboardThreshold {
		start = time.Now()
		fr, err := dist.Fit(nubTimes, snap.PrevNub)
		resp.Timings.NubFitMS = msSince(start)
		if err != nil {
			return Fatal(err)
		}
		metrics.RecordFit(metrics.VariantNub, resp.Timings.NubFitMS)
		nubDist, nubParams = fr.Dist, fr.Params
		if fr.TopScaleReset {
			diags = append(diags, topScaleResetDiag(filterID, metrics.VariantNub))
		}
	}

	// NUB fractions.
	start = time.Now()
	nubMethod := points.ForLeaderboard(nubDist, nubParams.TopScale, nubTimes[0], snap.NubTier, len(nubTimes))
	nubUpdates := updates(snap.Nub, nubMethod.Fractions(nubTimes))
	resp.Timings.NubComputeMS = msSince(start)
	metrics.RecordCompute(metrics.VariantNub, resp.Timings.NubComputeMS)
	recordMethod(nubMethod)

	// PRO fit decision, independent threshold check.
	var proDist *dist.NIG
	var proParams dist.Params
	if len(proTimes) >= points.SmallLeaderboardThreshold {
		start = time.Now()
		fr, err := dist.Fit(proTimes, snap.PrevPro)
		resp.Timings.ProFitMS = msSince(start)
		if err != nil {
			return Fatal(err)
		}
		metrics.RecordFit(metrics.VariantPro, resp.Timings.ProFitMS)
		proDist, proParams = fr.Dist, fr.Params
		if fr.TopScaleReset {
			diags = append(diags, topScaleResetDiag(filterID, metrics.VariantPro))
		}
	}

	// PRO fractions: the higher of the PRO evaluation and the NUB
	// evaluation of the same times, so a PRO run is never worth less
	// than it would be on the NUB leaderboard.
	var proUpdates []repository.PointsUpdate
	if len(proTimes) > 0 {
		start = time.Now()
		proMethod := points.ForLeaderboard(proDist, proParams.TopScale, proTimes[0], snap.ProTier, len(proTimes))
		own := proMethod.Fractions(proTimes)
		cross := nubMethod.Fractions(proTimes)
		for i := range own {
			if cross[i] > own[i] {
				own[i] = cross[i]
			}
		}
		proUpdates = updates(snap.Pro, own)
		resp.Timings.ProComputeMS = msSince(start)
		metrics.RecordCompute(metrics.VariantPro, resp.Timings.ProComputeMS)
		recordMethod(proMethod)
	}

	// Persist. Parameters are upserted only for variants that met the
	// fit threshold this pass; a stale row for a variant that fell back
	// is left untouched.
	var storeNub, storePro *dist.Params
	if len(nubTimes) >= points.SmallLeaderboardThreshold {
		storeNub = &nubParams
	}
	if len(proTimes) >= points.SmallLeaderboardThreshold {
		storePro = &proParams
	}
	start = time.Now()
	if err := r.store.CommitRecompute(ctx, filterID, nubUpdates, proUpdates, storeNub, storePro); err != nil {
		return Fatal(err)
	}
	resp.Timings.DBWriteMS = msSince(start)
	metrics.RecordDBWrite(resp.Timings.DBWriteMS)

	resp.Timings.TotalMS = resp.Timings.total()
	if len(diags) > 0 {
		return Warning(resp, diags...)
	}
	return Ok(resp)
}

func topScaleResetDiag(filterID int64, variant string) Diagnostic {
	return Diagnostic{
		Message: "fitted top_scale <= 0, resetting to 1",
		Fields: []logger.Field{
			logger.Int64("filter_id", filterID),
			logger.String("variant", variant),
		},
	}
}

func recordMethod(m points.Method) {
	if m.Fitted() {
		metrics.RecordFittedScored()
	} else {
		metrics.RecordFallbackScored()
	}
}

func recordTimes(records []repository.Record) []float64 {
	out := make([]float64, len(records))
	for i, rec := range records {
		out[i] = rec.Time
	}
	return out
}

func updates(records []repository.Record, fractions []float64) []repository.PointsUpdate {
	out := make([]repository.PointsUpdate, len(records))
	for i, rec := range records {
		out[i] = repository.PointsUpdate{RecordID: rec.RecordID, Points: fractions[i]}
	}
	return out
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t)) / float64(time.Millisecond)
}
