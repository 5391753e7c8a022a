// Package sweep implements the transport sweep: the per-track attenuation
// kernel, boundary flux transfer between tracks, and the parallel worker
// pool that drives both across every track in the problem. Grounded on
// model_problems/Euler2D/euler.go's RungeKutta4SSP.Step, which shards work
// across partitions with one goroutine and a sync.WaitGroup per partition -
// the same shape this package uses to shard tracks across worker goroutines,
// generalized with golang.org/x/sync/semaphore to bound concurrency by the
// configured thread count instead of by partition count.
package sweep

import (
	"context"
	"math"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/moccore/solver/cmfdbridge"
	"github.com/moccore/solver/expeval"
	"github.com/moccore/solver/fsr"
	"github.com/moccore/solver/moctypes"
	"github.com/moccore/solver/quadrature"
	"github.com/moccore/solver/track"
)

// DefaultTauCap is the initial Engine.TauCap, the per-segment optical path
// the segmentation step in Engine.attenuate enforces by sub-dividing, matching MOCKernel.cpp's
// max_optical_path parameter (named max_tau there).
const DefaultTauCap = 10.0

// Engine owns everything a transport sweep needs to read and mutate: the
// track store (angular flux in/out), the FSR store (scalar flux tally),
// the quadrature (angle weights) and the exponential table. CMFD is an
// optional collaborator behind the narrow Bridge interface.
//
// Solve3D selects which of the two attenuation kernels transportSweep's
// tallyScalarFlux dispatches on (CPUSolver.cpp:1847, spec 9's "the sweep
// kernel dispatches on solve_3d: bool"): true (the default) means every
// track is a genuine 3D ray fixed to one polar angle (t.PolarIdx), and the
// per-segment loop only ever visits that ray's own numGroups-wide slice of
// a track's flux buffer; false means every track is a 2D ray carrying the
// full polar-half stack at once (F = numGroups * numPolar/2, track.go's
// NumFluxIndices), attenuated with an added inner loop over polar index
// and no sin(theta) length projection, matching the original's un-taken
// branch of transportSweep.
type Engine struct {
	Tracks   *track.Store
	Regions  *fsr.Store
	Quad     quadrature.Quadrature
	Exp      *expeval.Table
	CMFD     cmfdbridge.Bridge
	TauCap   float64
	Solve3D  bool

	NumThreads int
}

func New(tracks *track.Store, regions *fsr.Store, quad quadrature.Quadrature, exp *expeval.Table, cmfd cmfdbridge.Bridge, numThreads int) *Engine {
	if cmfd == nil {
		cmfd = cmfdbridge.NoOp{}
	}
	if numThreads <= 0 {
		numThreads = 1
	}
	return &Engine{
		Tracks:     tracks,
		Regions:    regions,
		Quad:       quad,
		Exp:        exp,
		CMFD:       cmfd,
		TauCap:     DefaultTauCap,
		Solve3D:    true,
		NumThreads: numThreads,
	}
}

// Run performs one full transport sweep, following the exact order
// transportSweep in CPUSolver.cpp uses: zero CMFD currents if flux update
// is on, zero the FSR scalar flux tallies, copy last sweep's persistent
// start flux into this sweep's working boundary flux, tally starting
// currents if sigma-t rebalance is on, zero vacuum leakage when CMFD is
// not present, sweep every track, then (domain-decomposed problems only,
// left to the caller to invoke afterward via halo.Exchanger) transfer
// interface fluxes.
func (e *Engine) Run(ctx context.Context) error {
	if e.CMFD.IsFluxUpdateOn() {
		e.CMFD.ZeroCurrents()
	}
	for _, r := range e.Regions.Regions {
		r.ZeroFlux(0.0)
	}
	e.Tracks.RefreshBoundaryFromStart()
	if e.CMFD.IsSigmaTRebalanceOn() {
		e.tallyStartingCurrents()
	}
	if _, ok := e.CMFD.(cmfdbridge.NoOp); ok {
		e.Tracks.ZeroLeakage()
	}
	return e.sweepAllTracks(ctx)
}

func (e *Engine) tallyStartingCurrents() {
	for i, t := range e.Tracks.Tracks {
		if len(t.Segments) == 0 {
			continue
		}
		e.CMFD.TallyStartingCurrent(i, t.Segments[0].FSRIndex, t.Weight)
		e.CMFD.TallyStartingCurrent(i, t.Segments[len(t.Segments)-1].FSRIndex, t.Weight)
	}
}

// sweepAllTracks shards the track list across NumThreads goroutines,
// mirroring RungeKutta4SSP.Step's per-partition goroutine+WaitGroup
// pattern but bounding concurrency with a semaphore sized to NumThreads
// instead of spawning one goroutine per shard unconditionally.
func (e *Engine) sweepAllTracks(ctx context.Context) error {
	sem := semaphore.NewWeighted(int64(e.NumThreads))
	var wg sync.WaitGroup
	var firstErr error
	var errMu sync.Mutex

	for i := range e.Tracks.Tracks {
		if err := sem.Acquire(ctx, 1); err != nil {
			errMu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			errMu.Unlock()
			break
		}
		wg.Add(1)
		go func(trackIdx int) {
			defer wg.Done()
			defer sem.Release(1)
			e.sweepTrack(trackIdx)
		}(i)
	}
	wg.Wait()
	return firstErr
}

// sweepTrack attenuates one track in both directions (forward and
// reverse), tallying into the FSR scalar flux and transferring whatever
// leaves the track's two ends into the next track's start flux.
func (e *Engine) sweepTrack(trackIdx int) {
	t := &e.Tracks.Tracks[trackIdx]
	for _, dir := range [2]moctypes.Direction{moctypes.Forward, moctypes.Reverse} {
		flux := make([]float64, e.Tracks.FluxLen())
		copy(flux, e.Tracks.Boundary[trackIdx][dir])
		e.attenuate(t, dir, flux)
		copy(e.Tracks.Boundary[trackIdx][dir], flux)
		e.transferBoundaryFlux(trackIdx, dir, flux)
	}
}

// attenuate walks a track's segments in travel order for the given
// direction, splitting any segment whose optical path exceeds TauCap
// (MOCKernel.cpp SegmentationKernel::execute) and tallying each
// sub-segment's contribution into the crossed FSR under its lock. In 3D
// mode (Engine.Solve3D) the track is a single ray fixed to t.PolarIdx and
// only its own numGroups-wide flux slice is visited; in 2D mode every
// track carries the full polar-half stack and the inner p loop attenuates
// each half-angle in turn, matching transportSweep's un-taken branch
// (CPUSolver.cpp:1868-1887) rather than projecting length through
// sin(theta).
func (e *Engine) attenuate(t *track.Track, dir moctypes.Direction, flux []float64) {
	segs := t.Segments
	if dir == moctypes.Reverse {
		segs = reversed(segs)
	}
	numGroups := e.Regions.NumGroups()
	numPolar := 1
	if !e.Solve3D {
		numPolar = e.Tracks.FluxLen() / numGroups
	}
	fluxUpdateOn := e.CMFD.IsFluxUpdateOn()
	for _, seg := range segs {
		region := e.Regions.Regions[seg.FSRIndex]
		length := seg.Length
		sigmaT := region.Mat.SigmaT
		maxSigmaT := 0.0
		for _, st := range sigmaT {
			if st > maxSigmaT {
				maxSigmaT = st
			}
		}
		sinTheta := 1.0
		if e.Solve3D {
			sinTheta = e.Quad.SinTheta(t.PolarIdx)
		}
		numCuts := 1
		if length*maxSigmaT*sinTheta > e.TauCap {
			numCuts = int(math.Ceil(length * maxSigmaT * sinTheta / e.TauCap))
		}
		subLength := length / float64(numCuts)
		// length2D projects the 3D segment onto the 2D plane the optical
		// path is defined over, matching tallyScalarFlux's
		// convertDistance3Dto2D use of the polar angle's sine; in 2D mode
		// sinTheta is 1 and the segment is already planar.
		length2D := subLength * sinTheta

		// entrySurface/exitSurface are the CMFD surfaces this segment's
		// un-split crossing would coincide with, attributed to only the
		// first and last sub-segment respectively (spec 4.1 edge case) -
		// CMFDSurfaceFwd/Bwd name the surface in the track's fixed
		// forward sense, so traveling in reverse swaps which one is
		// entered first.
		entrySurface, exitSurface := seg.CMFDSurfaceBwd, seg.CMFDSurfaceFwd
		if dir == moctypes.Reverse {
			entrySurface, exitSurface = seg.CMFDSurfaceFwd, seg.CMFDSurfaceBwd
		}

		for c := 0; c < numCuts; c++ {
			isFirst := c == 0
			isLast := c == numCuts-1
			for g := 0; g < numGroups; g++ {
				tau := sigmaT[g] * length2D
				exponential := e.Exp.Eval(tau)
				for p := 0; p < numPolar; p++ {
					idx := g
					weight := t.Weight
					if !e.Solve3D {
						idx = g*numPolar + p
						weight = t.Weight * e.Quad.PolarWeight(p)
					}
					deltaPsi := (flux[idx] - region.ReducedSource[g]/sigmaT[g]) * exponential
					region.AddToFlux(g, deltaPsi*weight)
					flux[idx] -= deltaPsi
					if fluxUpdateOn {
						if isFirst && entrySurface >= 0 {
							e.CMFD.TallyCurrent(t.ID, entrySurface, g, weight, flux[idx])
						}
						if isLast && exitSurface >= 0 {
							e.CMFD.TallyCurrent(t.ID, exitSurface, g, weight, flux[idx])
						}
					}
				}
			}
		}
	}
}

func reversed(segs []track.Segment) []track.Segment {
	out := make([]track.Segment, len(segs))
	for i, s := range segs {
		out[len(segs)-1-i] = s
	}
	return out
}

// transferBoundaryFlux routes what exits a track's given end into the
// start flux of whatever continues it, per spec 4.2: REFLECTIVE and
// PERIODIC write the flux directly into the successor's persistent Start
// entry at the successor's entry direction, the same way CPUSolver writes
// straight into _start_flux with no staging buffer. Tracks read their
// incoming flux only from Boundary, which Run copies from Start at the top
// of each sweep, so a value written into Start here is consumed in the
// next sweep. VACUUM zeroes this track's incoming Start entry for the
// opposite direction (nothing enters through a vacuum end) and tallies
// leakage, and INTERFACE defers to halo.Exchanger (this engine only leaves
// the value in Boundary, which Exchanger reads directly).
func (e *Engine) transferBoundaryFlux(trackIdx int, dir moctypes.Direction, flux []float64) {
	t := &e.Tracks.Tracks[trackIdx]
	var boundary moctypes.BoundaryType
	var nextTrack int
	var nextDir moctypes.Direction
	if dir == moctypes.Forward {
		boundary, nextTrack, nextDir = t.BoundaryFwd, t.NextFwdTrack, t.NextFwdDir
	} else {
		boundary, nextTrack, nextDir = t.BoundaryBwd, t.NextBwdTrack, t.NextBwdDir
	}
	switch boundary {
	case moctypes.Reflective, moctypes.Periodic:
		copy(e.Tracks.Start[nextTrack][nextDir], flux)
	case moctypes.Vacuum:
		for k := range e.Tracks.Start[trackIdx][dir.Other()] {
			e.Tracks.Start[trackIdx][dir.Other()][k] = 0
		}
		if _, ok := e.CMFD.(cmfdbridge.NoOp); ok {
			leak := 0.0
			if e.Solve3D {
				for _, v := range flux {
					leak += v
				}
				leak *= t.Weight
			} else {
				numGroups := e.Regions.NumGroups()
				numPolar := e.Tracks.FluxLen() / numGroups
				for p := 0; p < numPolar; p++ {
					polarSum := 0.0
					for g := 0; g < numGroups; g++ {
						polarSum += flux[g*numPolar+p]
					}
					leak += t.Weight * e.Quad.PolarWeight(p) * polarSum
				}
			}
			e.Tracks.Leakage[trackIdx] += leak
		}
	case moctypes.Interface:
		// left in Boundary[trackIdx][dir] for the halo package to pack
		// into its outgoing buffer and route to the neighbor domain.
	}
}
