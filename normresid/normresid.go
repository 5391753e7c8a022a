// Package normresid implements the four bookkeeping steps of the outer
// iteration that sit between a sweep and the convergence check:
// normalizeFluxes, addSourceToScalarFlux, computeResidual and computeKeff.
// Every formula here is grounded directly on
// original_source/src/CPUSolver.cpp's implementations of those four
// methods (lines ~1394-1832 in the retrieved source), translated from its
// MPI_Allreduce-per-domain step into a caller-supplied reduce function so a
// single-domain run (reduce = identity) and a domain-decomposed run
// (reduce = halo.Transport.AllReduce) share the same code path.
package normresid

import (
	"math"

	"github.com/moccore/solver/fsr"
	"github.com/moccore/solver/moctypes"
	"github.com/moccore/solver/source"
	"github.com/moccore/solver/track"
)

// negativeClamp is the floor AddSourceToScalarFlux clamps negative scalar
// flux to, matching CPUSolver.cpp's num_negative_fluxes clamp (1e-20, not
// zero, so a clamped value stays distinguishable from an untouched one).
const negativeClamp = 1e-20

// Reduce combines a local scalar across every domain in a decomposed run;
// a single-domain caller passes an identity function.
type Reduce func(local float64) float64

func identity(v float64) float64 { return v }

// NormalizeFluxes scales scalar flux, start flux and boundary flux so the
// total fission source across the whole domain (after reduction) equals
// the number of FSRs, matching CPUSolver's normalizeFluxes exactly:
// norm_factor = total_num_FSRs / tot_fission_source, applied to
// _scalar_flux in one loop and to _start_flux/_boundary_flux in a second.
func NormalizeFluxes(regions *fsr.Store, tracks *track.Store, totalNumFSRs int, reduce Reduce) float64 {
	if reduce == nil {
		reduce = identity
	}
	local := source.SumFissionSource(regions)
	totalFissionSource := reduce(local)
	if totalFissionSource <= 0 {
		totalFissionSource = 1
	}
	normFactor := float64(totalNumFSRs) / totalFissionSource
	for _, r := range regions.Regions {
		r.ScaleFlux(normFactor)
	}
	for i := range tracks.Tracks {
		for d := 0; d < 2; d++ {
			for k := range tracks.Start[i][d] {
				tracks.Start[i][d][k] *= normFactor
				tracks.Boundary[i][d][k] *= normFactor
			}
		}
	}
	return normFactor
}

// AddSourceToScalarFlux divides the tallied track contribution by
// (sigma_t * volume) and adds the isotropic reduced source term, the
// post-sweep step CPUSolver calls addSourceToScalarFlux. Negative results
// are clamped to negativeClamp and counted, mirroring num_negative_fluxes
// there.
func AddSourceToScalarFlux(regions *fsr.Store) {
	for _, r := range regions.Regions {
		for g := range r.Flux {
			sigmaT := r.Mat.SigmaT[g]
			v := r.Flux[g]
			v /= sigmaT * r.Volume
			v += 4 * math.Pi * r.ReducedSource[g] / sigmaT
			if v < 0 {
				v = negativeClamp
				regions.NegativeFluxes.Inc()
			}
			r.Flux[g] = v
		}
	}
}

// ComputeResidual implements all three metrics CPUSolver's computeResidual
// supports. norm and residual are reduced independently (as two separate
// MPI_Allreduce calls in the original) before the final sqrt(residual/norm).
func ComputeResidual(regions *fsr.Store, kind moctypes.ResidualType, reduce Reduce) float64 {
	if reduce == nil {
		reduce = identity
	}
	residual := 0.0
	norm := 0.0
	switch kind {
	case moctypes.ScalarFlux:
		count := 0
		for _, r := range regions.Regions {
			for g := range r.Flux {
				ref := r.FluxOld[g]
				if ref > 0 {
					d := (r.Flux[g] - ref) / ref
					residual += d * d
				}
				count++
			}
		}
		norm = float64(count)
	case moctypes.FissionSource:
		count := 0
		for _, r := range regions.Regions {
			if !r.Mat.Fissionable {
				continue
			}
			oldFission, newFission := 0.0, 0.0
			for g := range r.Flux {
				oldFission += r.Mat.NuSigmaF[g] * r.FluxOld[g]
				newFission += r.Mat.NuSigmaF[g] * r.Flux[g]
			}
			if oldFission > 0 {
				d := (newFission - oldFission) / oldFission
				residual += d * d
			}
			count++
		}
		norm = float64(count)
	case moctypes.TotalSource:
		count := 0
		for _, r := range regions.Regions {
			oldTotal, newTotal := 0.0, 0.0
			if r.Mat.Fissionable {
				oldFission, newFission := 0.0, 0.0
				for g := range r.Flux {
					oldFission += r.Mat.NuSigmaF[g] * r.FluxOld[g]
					newFission += r.Mat.NuSigmaF[g] * r.Flux[g]
				}
				oldTotal += oldFission
				newTotal += newFission
			}
			for e := range r.Flux {
				for g := range r.Flux {
					oldTotal += r.Mat.ScatteringFrom(g, e) * r.FluxOld[g]
					newTotal += r.Mat.ScatteringFrom(g, e) * r.Flux[g]
				}
			}
			if oldTotal > 0 {
				d := (newTotal - oldTotal) / oldTotal
				residual += d * d
			}
			count++
		}
		norm = float64(count)
	}
	residual = reduce(residual)
	norm = reduce(norm)
	if residual < 0 {
		residual = 0
	}
	if norm <= 0 {
		norm = 1
	}
	return math.Sqrt(residual / norm)
}

// KeffMode selects whether ComputeKeff uses fission/absorption+leakage
// rates (balance mode) or pure fission-rate scaling (fission-only mode),
// matching CPUSolver's _keff_from_fission_rates flag.
type KeffMode int

const (
	FissionOnly KeffMode = iota
	Balance
)

// ComputeKeff implements computeKeff: in FissionOnly mode it scales the
// previous k_eff by the reduced fission rate ratio over total FSR count;
// in Balance mode it takes the ratio of fission rate to absorption+leakage
// rate directly. totalNumFSRs is the global FSR count supplied by the
// caller; the local fission, absorption and leakage sums are each passed
// through reduce, the way MPI_Allreduce of local_rates is in the original.
func ComputeKeff(regions *fsr.Store, tracks *track.Store, mode KeffMode, prevKeff float64, totalNumFSRs int, reduce Reduce) float64 {
	if reduce == nil {
		reduce = identity
	}
	fissionRate := 0.0
	absorptionRate := 0.0
	for _, r := range regions.Regions {
		for g := range r.Flux {
			fissionRate += r.Mat.NuSigmaF[g] * r.Flux[g] * r.Volume
			absorptionRate += r.Mat.SigmaA[g] * r.Flux[g] * r.Volume
		}
	}
	fissionRate = reduce(fissionRate)

	if mode == FissionOnly {
		if fissionRate == 0 {
			return prevKeff
		}
		return prevKeff * fissionRate / float64(totalNumFSRs)
	}

	absorptionRate = reduce(absorptionRate)
	leakage := 0.0
	if tracks != nil {
		for _, l := range tracks.Leakage {
			leakage += l
		}
	}
	leakage = reduce(leakage)
	denom := absorptionRate + leakage
	if denom == 0 {
		return prevKeff
	}
	return fissionRate / denom
}
