// Package fsr implements the flat source region store: per-region volume,
// material reference, scalar flux, reduced source and the bookkeeping the
// sweep and source packages tally into under concurrent access. Grounded on
// the teacher's per-partition data arrays (model_problems/Euler2D.Euler.Q,
// indexed [partition][variable]) but restructured around a per-region lock
// the way CPUSolver.cpp guards _scalar_flux with omp_set_lock(&_FSR_locks[id]).
package fsr

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/moccore/solver/material"
)

// FlatSourceRegion is one spatial region of homogeneous material and flux.
// Flux, FluxOld, ReducedSource, FixedSource and StabilizingFlux are all
// length NumGroups. The mutex serializes the tally step at the end of
// tallyScalarFlux when several tracks in flight write into the same
// region's Flux concurrently (spec 5: per-FSR mutual exclusion).
type FlatSourceRegion struct {
	ID       int
	Volume   float64
	Mat      *material.Material

	mu              sync.Mutex
	Flux            []float64
	FluxOld         []float64
	ReducedSource   []float64
	FixedSource     []float64
	StabilizingFlux []float64
}

func New(id int, volume float64, m *material.Material) *FlatSourceRegion {
	g := m.NumGroups
	return &FlatSourceRegion{
		ID:              id,
		Volume:          volume,
		Mat:             m,
		Flux:            make([]float64, g),
		FluxOld:         make([]float64, g),
		ReducedSource:   make([]float64, g),
		FixedSource:     make([]float64, g),
		StabilizingFlux: make([]float64, g),
	}
}

// AddToFlux is the locked accumulation point tallyScalarFlux calls at the
// end of each segment's contribution, mirroring CPUSolver's FSR lock scope.
func (r *FlatSourceRegion) AddToFlux(group int, delta float64) {
	r.mu.Lock()
	r.Flux[group] += delta
	r.mu.Unlock()
}

// ZeroFlux clears Flux to the given value (flattenFSRFluxes in CPUSolver
// zeroes to 0.0 at the start of every transport sweep).
func (r *FlatSourceRegion) ZeroFlux(value float64) {
	r.mu.Lock()
	for i := range r.Flux {
		r.Flux[i] = value
	}
	r.mu.Unlock()
}

// SnapshotFlux copies Flux into FluxOld, the storeFSRFluxes step the
// normalization/residual stage needs a pre-sweep reference against.
func (r *FlatSourceRegion) SnapshotFlux() {
	r.mu.Lock()
	copy(r.FluxOld, r.Flux)
	r.mu.Unlock()
}

func (r *FlatSourceRegion) ScaleFlux(factor float64) {
	r.mu.Lock()
	for i := range r.Flux {
		r.Flux[i] *= factor
	}
	r.mu.Unlock()
}

// Store owns every FSR plus the running counters the source builder and
// normalization stage increment across a sweep. Counters use
// go.uber.org/atomic the way the teacher uses it for cross-goroutine tallies
// without a package-level mutex per counter.
type Store struct {
	Regions []*FlatSourceRegion

	NegativeSources atomic.Int64
	NegativeFluxes  atomic.Int64
}

func NewStore(regions []*FlatSourceRegion) *Store {
	return &Store{Regions: regions}
}

func (s *Store) NumGroups() int {
	if len(s.Regions) == 0 {
		return 0
	}
	return len(s.Regions[0].Flux)
}

func (s *Store) ResetCounters() {
	s.NegativeSources.Store(0)
	s.NegativeFluxes.Store(0)
}

// TotalFissionSource sums Volume * nuSigmaF . Flux over every region,
// the quantity normalizeFluxes divides the normalization factor by.
func (s *Store) TotalFissionSource() float64 {
	total := 0.0
	for _, r := range s.Regions {
		sum := 0.0
		for g, nsf := range r.Mat.NuSigmaF {
			sum += nsf * r.Flux[g]
		}
		total += sum * r.Volume
	}
	return total
}
