// Package source implements computeFSRSources (spec 4.3): building each
// FSR's reduced source from its flux, scattering matrix, fission spectrum
// and k_eff, with negative sources counted and, during the first
// NegativeSourceClampIterations outer iterations, clamped to 1e-20. Grounded on
// CPUSolver.cpp's computeFSRSources (the source loop right after
// normalizeFluxes in the outer iteration) and on the teacher's vector
// reduction style via gonum/floats, e.g. utils/matrix.go's reliance on
// gonum primitives for elementwise array work.
package source

import (
	"gonum.org/v1/gonum/floats"

	"github.com/moccore/solver/fsr"
)

// NegativeSourceClampIterations is how many outer iterations
// computeFSRSources keeps clamping (rather than erroring on) negative
// sources before callers should treat persistent negatives as a modeling
// problem rather than transient overshoot; named for spec 4.3's "clamp for
// up to 30 iterations" rule.
const NegativeSourceClampIterations = 30

// negativeClamp is the floor computeFSRSources and addSourceToScalarFlux
// clamp to instead of zero (CPUSolver.cpp:1516-1520), so a clamped quantity
// stays strictly positive and distinguishable from an untouched zero.
const negativeClamp = 1e-20

// Build computes every region's reduced source for the given k_eff and
// outer-iteration index, using the scattering matrix and (for fissionable
// regions) the fission spectrum and nu-fission cross section. Every
// negative source increments the region store's negative source counter;
// only during the first NegativeSourceClampIterations outer iterations is
// the value itself clamped to negativeClamp - from iteration
// NegativeSourceClampIterations onward the negative value is preserved,
// matching CPUSolver.cpp's iter < 30 guard around the clamp.
func Build(store *fsr.Store, keff float64, iteration int) {
	for _, r := range store.Regions {
		numGroups := len(r.Flux)
		fissionSource := 0.0
		if r.Mat.Fissionable {
			for g := 0; g < numGroups; g++ {
				fissionSource += r.Mat.NuSigmaF[g] * r.Flux[g]
			}
			fissionSource /= keff
		}
		for e := 0; e < numGroups; e++ {
			scatter := 0.0
			for g := 0; g < numGroups; g++ {
				scatter += r.Mat.ScatteringFrom(g, e) * r.Flux[g]
			}
			total := scatter
			if r.Mat.Fissionable {
				total += fissionSource * r.Mat.Chi[e]
			}
			total += r.FixedSource[e]
			total /= 4 * 3.14159265358979323846 // isotropic emission normalization, 4*pi
			if total < 0 {
				store.NegativeSources.Inc()
				if iteration < NegativeSourceClampIterations {
					total = negativeClamp
				}
			}
			r.ReducedSource[e] = total
		}
	}
}

// SumFissionSource returns the volume-weighted total fission source across
// every region, the same reduction normalizeFluxes performs via
// pairwise_sum before computing the normalization factor. Uses
// gonum/floats.Dot for the per-region group reduction to exercise the same
// gonum vector-math package the teacher depends on elsewhere.
func SumFissionSource(store *fsr.Store) float64 {
	total := 0.0
	for _, r := range store.Regions {
		if !r.Mat.Fissionable {
			continue
		}
		total += floats.Dot(r.Mat.NuSigmaF, r.Flux) * r.Volume
	}
	return total
}
