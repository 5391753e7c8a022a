// Package eigensolver drives the outer Picard (source) iteration: the
// state machine spec 4.4 names as
// INIT -> {NORMALIZE -> SOURCES -> SWEEP -> ADD_SOURCE -> STABILIZE? ->
// CMFD? -> RESIDUAL -> KEFF -> CHECK_CONV}*. Grounded on
// model_problems/Euler2D/euler.go's Solve method, which drives the same
// shape of outer loop (Step, CheckIfFinished, PrintUpdate) until a
// convergence or iteration-count condition fires; the per-stage dispatch
// itself mirrors original_source/src/CPUSolver.cpp's own outer loop
// (computeSource, transportSweep, addSourceToScalarFlux, computeResidual,
// computeKeff, all called from the same driving loop in sequence).
package eigensolver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moccore/solver/fsr"
	"github.com/moccore/solver/halo"
	"github.com/moccore/solver/moctypes"
	"github.com/moccore/solver/normresid"
	"github.com/moccore/solver/report"
	"github.com/moccore/solver/source"
	"github.com/moccore/solver/stabilize"
	"github.com/moccore/solver/sweep"
	"github.com/moccore/solver/track"
)

// Stage names the outer loop's state machine states, used only for
// reporting/debugging - Run drives through them in a fixed order every
// iteration rather than branching on a stored stage value, since the spec
// names them as strictly sequential and optional (stabilize/CMFD are
// skipped, never revisited).
type Stage string

const (
	StageInit       Stage = "INIT"
	StageNormalize  Stage = "NORMALIZE"
	StageSources    Stage = "SOURCES"
	StageSweep      Stage = "SWEEP"
	StageAddSource  Stage = "ADD_SOURCE"
	StageStabilize  Stage = "STABILIZE"
	StageCMFD       Stage = "CMFD"
	StageResidual   Stage = "RESIDUAL"
	StageKeff       Stage = "KEFF"
	StageCheckConv  Stage = "CHECK_CONV"
)

// Config bundles the knobs Run needs beyond the structural packages
// (Regions/Tracks/Engine), taken directly from runtime.Parameters's
// fields without importing that package (eigensolver stays reusable
// without the config/YAML layer).
type Config struct {
	MaxIters        int
	Tolerance       float64
	ResidualKind    moctypes.ResidualType
	KeffMode        normresid.KeffMode
	Stabilization   moctypes.StabilizationType
	StabilizeFactor float64
	TotalNumFSRs    int
	Reduce          normresid.Reduce // nil for single-domain runs
}

// Result is what Run returns: the converged (or iteration-exhausted) k_eff,
// the residual history, and a run identifier correlating this result with
// its log output, using google/uuid the way a distributed run needs a
// stable id to match logs across domains.
type Result struct {
	RunID      string
	Keff       float64
	Residuals  []float64
	Iterations int
	Converged  bool

	regions *fsr.Store
}

// FissionRateByFSR returns the volume-weighted fission rate of every FSR at
// convergence, the accessor spec section 9 supplements onto the driver so
// callers (reporting, CMFD handoff) don't need to recompute it themselves
// from raw flux - grounded on CPUSolver.cpp exposing an equivalent
// per-FSR rate accessor for output post-processing.
func (res *Result) FissionRateByFSR() []float64 {
	rates := make([]float64, len(res.regions.Regions))
	for i, r := range res.regions.Regions {
		sum := 0.0
		for g, nsf := range r.Mat.NuSigmaF {
			sum += nsf * r.Flux[g]
		}
		rates[i] = sum * r.Volume
	}
	return rates
}

// Driver owns everything the outer loop touches across iterations. Halo is
// nil for single-domain runs; when set, Run invokes its Exchange after every
// sweep so INTERFACE fluxes left in Boundary reach the neighbor domain's
// persistent Start before the next sweep reads it.
type Driver struct {
	Engine  *sweep.Engine
	Regions *fsr.Store
	Tracks  *track.Store
	Report  *report.Reporter
	Config  Config
	Halo    *halo.Exchanger
}

func New(engine *sweep.Engine, regions *fsr.Store, tracks *track.Store, rep *report.Reporter, cfg Config) *Driver {
	if cfg.MaxIters <= 0 {
		cfg.MaxIters = 1000
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = 1.0e-4
	}
	return &Driver{Engine: engine, Regions: regions, Tracks: tracks, Report: rep, Config: cfg}
}

// Run drives the outer iteration to convergence or exhaustion, following
// the exact stage order spec 4.4 names.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Keff: 1.0, regions: d.Regions}

	for _, r := range d.Regions.Regions {
		r.SnapshotFlux()
	}

	for iter := 0; iter < d.Config.MaxIters; iter++ {
		start := time.Now()
		d.Regions.ResetCounters()

		// NORMALIZE
		normresid.NormalizeFluxes(d.Regions, d.Tracks, d.Config.TotalNumFSRs, d.Config.Reduce)

		// SOURCES
		source.Build(d.Regions, res.Keff, iter)
		if d.Report != nil {
			d.Report.NegativeSourceReport(iter, d.Regions.NegativeSources.Load())
		}

		// STABILIZE (pre-sweep half)
		if d.Config.Stabilization != moctypes.NoStabilization {
			stabilize.ComputeStabilizingFlux(d.Regions, d.Config.Stabilization, d.Config.StabilizeFactor)
		}

		for _, r := range d.Regions.Regions {
			r.SnapshotFlux()
		}

		// SWEEP
		if err := d.Engine.Run(ctx); err != nil {
			return res, fmt.Errorf("eigensolver: sweep failed at iteration %d: %w", iter, err)
		}
		if d.Halo != nil && d.Halo.HasNeighbors() {
			d.Halo.Exchange()
		}

		// ADD_SOURCE
		normresid.AddSourceToScalarFlux(d.Regions)
		if d.Report != nil {
			d.Report.NegativeFluxReport(iter, d.Regions.NegativeFluxes.Load())
		}

		// STABILIZE (post-sweep half)
		if d.Config.Stabilization != moctypes.NoStabilization {
			stabilize.Apply(d.Regions, d.Config.Stabilization, d.Config.StabilizeFactor)
		}

		// CMFD is invoked indirectly: the sweep engine already called
		// into cmfdbridge.Bridge during attenuation, so there is no
		// separate driver-level CMFD stage to run here beyond what the
		// bridge's own acceleration step (external to this core) does
		// between iterations.

		// RESIDUAL
		residual := normresid.ComputeResidual(d.Regions, d.Config.ResidualKind, d.Config.Reduce)
		res.Residuals = append(res.Residuals, residual)

		// KEFF
		res.Keff = normresid.ComputeKeff(d.Regions, d.Tracks, d.Config.KeffMode, res.Keff, d.Config.TotalNumFSRs, d.Config.Reduce)

		if d.Report != nil {
			d.Report.IterationReport(iter, res.Keff, residual, time.Since(start))
			d.Report.FluxReport(iter, d.fsrFluxes())
		}

		res.Iterations = iter + 1

		// CHECK_CONV
		if residual < d.Config.Tolerance {
			res.Converged = true
			break
		}

		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}
	}

	return res, nil
}

// fsrFluxes collects every FSR's scalar flux group vector, the input
// report.Reporter.FluxReport needs for its DEBUG-level full-mesh dump.
func (d *Driver) fsrFluxes() [][]float64 {
	out := make([][]float64, len(d.Regions.Regions))
	for i, r := range d.Regions.Regions {
		out[i] = r.Flux
	}
	return out
}
