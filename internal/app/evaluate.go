package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kzero/skillpoints/internal/domain/dist"
	"github.com/kzero/skillpoints/internal/domain/points"
)

// LeaderboardContext is everything needed to score one run against one
// leaderboard variant without touching the database: tier, world
// record, current size, and the stored distribution parameters. Params
// are only meaningful at or above the fit threshold and may be absent
// for small leaderboards.
type LeaderboardContext struct {
	Tier            int          `json:"tier"`
	WR              float64      `json:"wr"`
	LeaderboardSize int          `json:"leaderboard_size"`
	DistParams      *dist.Params `json:"dist_params"`
}

// RunRequest scores a single new run.
type RunRequest struct {
	Time    *float64            `json:"time"`
	NubData *LeaderboardContext `json:"nub_data"`
	ProData *LeaderboardContext `json:"pro_data"`
}

// RunResponse carries the computed fractions. ProFraction is null when
// the run has no PRO context.
type RunResponse struct {
	NubFraction float64  `json:"nub_fraction"`
	ProFraction *float64 `json:"pro_fraction"`
}

// Evaluator scores single runs against already-fitted parameters. Pure
// function of its inputs; no I/O and no fitting.
type Evaluator struct{}

// NewEvaluator constructs an Evaluator.
func NewEvaluator() *Evaluator { return &Evaluator{} }

// HandleLine parses one request line and evaluates it. Malformed input
// is fatal for the process.
func (e *Evaluator) HandleLine(ctx context.Context, line []byte) Outcome {
	var req RunRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return Fatal(fmt.Errorf("%w: %w", ErrMalformedRequest, err))
	}
	return e.Evaluate(ctx, req)
}

// Evaluate computes the run's fractions. When a PRO context is present
// the PRO fraction is the max of both evaluations, so a PRO run is
// never worth less than the same time on the NUB leaderboard.
func (e *Evaluator) Evaluate(_ context.Context, req RunRequest) Outcome {
	switch {
	case req.Time == nil:
		return Fatal(fmt.Errorf("%w: missing time", ErrMalformedRequest))
	case req.NubData == nil:
		return Fatal(fmt.Errorf("%w: missing nub_data", ErrMalformedRequest))
	}
	runTime := *req.Time

	nubMethod, err := contextMethod(req.NubData)
	if err != nil {
		return Fatal(err)
	}
	nubFraction := nubMethod.Fraction(runTime)
	recordMethod(nubMethod)

	resp := &RunResponse{NubFraction: nubFraction}
	if req.ProData != nil {
		proMethod, err := contextMethod(req.ProData)
		if err != nil {
			return Fatal(err)
		}
		proFraction := proMethod.Fraction(runTime)
		if nubFraction > proFraction {
			proFraction = nubFraction
		}
		resp.ProFraction = &proFraction
		recordMethod(proMethod)
	}
	return Ok(resp)
}

// contextMethod reconstructs the scoring method for one leaderboard
// context. Absent parameters leave the distribution nil, which routes
// to the sigmoid fallback on the leaderboard size alone.
func contextMethod(lc *LeaderboardContext) (points.Method, error) {
	var d *dist.NIG
	if lc.DistParams != nil {
		var err error
		d, err = dist.FromParams(*lc.DistParams)
		if err != nil {
			return points.Method{}, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
		}
	}
	var topScale float64
	if lc.DistParams != nil {
		topScale = lc.DistParams.TopScale
	}
	return points.ForLeaderboard(d, topScale, lc.WR, lc.Tier, lc.LeaderboardSize), nil
}
