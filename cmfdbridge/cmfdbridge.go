// Package cmfdbridge defines the narrow interface the sweep and
// normalization stages call into CMFD through. CMFD itself - the
// coarse-mesh acceleration solve - is an external collaborator the core
// never implements (spec 4.1/4.3 treat it as opaque tally/update hooks).
// Grounded on CPUSolver.cpp's _cmfd usage: every call site checks
// `_cmfd != NULL` then calls one of zeroCurrents/tallyStartingCurrents/
// tallyCurrent/isFluxUpdateOn/isSigmaTRebalanceOn - never anything more. The sparse
// tally adapter here uses github.com/james-bowman/sparse for the
// current-tally matrix the way the teacher's utils package wires gonum
// matrix types into its own model problems.
package cmfdbridge

import "github.com/james-bowman/sparse"

// Bridge is the full set of hooks the sweep engine and
// normalize/residual stage need, matching the five call sites CPUSolver.cpp
// guards on _cmfd != NULL.
type Bridge interface {
	IsFluxUpdateOn() bool
	IsSigmaTRebalanceOn() bool
	ZeroCurrents()
	TallyStartingCurrent(trackID, fsrIndex int, weight float64)
	TallyCurrent(trackID, fsrIndex, group int, weight, flux float64)
}

// NoOp is the zero-value collaborator: every hook is a no-op and both
// feature flags report off, matching transportSweep's `_cmfd == NULL`
// branch which skips zeroCurrents/tallyStartingCurrents entirely and
// zeroes _boundary_leakage itself instead of relying on CMFD for leakage.
type NoOp struct{}

func (NoOp) IsFluxUpdateOn() bool       { return false }
func (NoOp) IsSigmaTRebalanceOn() bool  { return false }
func (NoOp) ZeroCurrents()              {}
func (NoOp) TallyStartingCurrent(int, int, float64)    {}
func (NoOp) TallyCurrent(int, int, int, float64, float64) {}

// SparseTally is a CMFD stand-in that accumulates net current into a
// sparse matrix indexed [cmfdSurface][group], suitable for a downstream
// CMFD solver to read without this package needing to know its layout.
// FluxUpdateOn/SigmaTRebalanceOn are plain fields so tests and callers can
// toggle behavior without a constructor argument explosion.
type SparseTally struct {
	FluxUpdateOn      bool
	SigmaTRebalanceOn bool

	numSurfaces int
	numGroups   int
	current     *sparse.DOK
	startingCur *sparse.DOK
}

func NewSparseTally(numSurfaces, numGroups int) *SparseTally {
	return &SparseTally{
		numSurfaces: numSurfaces,
		numGroups:   numGroups,
		current:     sparse.NewDOK(numSurfaces, numGroups),
		startingCur: sparse.NewDOK(numSurfaces, numGroups),
	}
}

func (s *SparseTally) IsFluxUpdateOn() bool      { return s.FluxUpdateOn }
func (s *SparseTally) IsSigmaTRebalanceOn() bool { return s.SigmaTRebalanceOn }

func (s *SparseTally) ZeroCurrents() {
	s.current = sparse.NewDOK(s.numSurfaces, s.numGroups)
}

func (s *SparseTally) TallyStartingCurrent(trackID, fsrIndex int, weight float64) {
	if fsrIndex < 0 || fsrIndex >= s.numSurfaces {
		return
	}
	s.startingCur.Set(fsrIndex, 0, s.startingCur.At(fsrIndex, 0)+weight)
}

func (s *SparseTally) TallyCurrent(trackID, fsrIndex, group int, weight, flux float64) {
	if fsrIndex < 0 || fsrIndex >= s.numSurfaces || group < 0 || group >= s.numGroups {
		return
	}
	s.current.Set(fsrIndex, group, s.current.At(fsrIndex, group)+weight*flux)
}

// Current exposes the tallied matrix read-only for a downstream CMFD solve.
func (s *SparseTally) Current() *sparse.DOK { return s.current }
