// Package track holds the track and segment data model plus the angular
// flux storage tracks carry between sweeps. Track geometry itself (azimuthal
// angle, endpoints, segment lengths) is produced by an external track
// generator per spec section 6 - this package only defines the shapes that
// collaborator must fill in and the flux arrays the sweep engine reads and
// writes. Grounded on the teacher's EdgeKeySlice/edge bookkeeping
// (model_problems/Euler2D/edges.go) for the track-collection shape, and on
// CPUSolver's _boundary_flux / _start_flux layout for the per-track arrays.
package track

import "github.com/moccore/solver/moctypes"

// Segment is one FSR crossing along a track: a length, the FSR it crosses,
// and (only on domain-decomposed problems) the CMFD surface it enters or
// leaves, matching MOCKernel.cpp's cmfd_surface_fwd/bwd fields. CMFDSurface
// is -1 when the segment does not coincide with a CMFD cell surface; the
// segmentation kernel assigns this only to the first and last sub-segment
// of a split segment (spec 4.1 edge case).
type Segment struct {
	Length         float64
	FSRIndex       int
	CMFDSurfaceFwd int
	CMFDSurfaceBwd int
}

// Track is one characteristic line: a fixed sequence of segments between
// two domain or geometry boundaries, with a polar angle and azimuthal
// weight supplied by the quadrature, and with a fixed far end on each
// direction (its successor/predecessor for Reflective/Periodic transfer).
type Track struct {
	ID       int
	AzimIdx  int
	PolarIdx int
	Weight   float64 // 3D mode: azimuthal spacing * polar weight; 2D mode: azimuthal part only (the 2D kernel multiplies in each polar weight)
	Segments []Segment

	// BoundaryFwd/BoundaryBwd classify what happens at the forward end
	// (last segment's exit) and backward end (first segment's entry).
	BoundaryFwd moctypes.BoundaryType
	BoundaryBwd moctypes.BoundaryType

	// NextFwd/NextBwd name the track (and its entry direction) that
	// continues a REFLECTIVE or PERIODIC track past this one's ends.
	// Ignored at VACUUM and INTERFACE ends.
	NextFwdTrack int
	NextFwdDir   moctypes.Direction
	NextBwdTrack int
	NextBwdDir   moctypes.Direction

	// InterfaceFwd/InterfaceBwd, when BoundaryFwd/BoundaryBwd is
	// Interface, name the owning domain rank on the far side plus the
	// successor track id and entry direction this end's exit flux must be
	// unpacked into on that domain, the way NextFwdTrack/NextFwdDir name a
	// REFLECTIVE/PERIODIC successor but across a domain boundary instead
	// of within this domain's own track set.
	InterfaceFwdDomain int
	InterfaceFwdTrack  int
	InterfaceFwdDir    moctypes.Direction
	InterfaceBwdDomain int
	InterfaceBwdTrack  int
	InterfaceBwdDir    moctypes.Direction
}

// NumFluxIndices is the number of angular flux values carried per track end
// per direction: one polar-half times num energy groups, matching
// _fluxes_per_track in CPUSolver (num_groups * num_polar/2, 3D OTF variant
// collapses polar further but the store keeps the full count here).
func NumFluxIndices(numGroups, numPolar int) int {
	return numGroups * (numPolar / 2)
}

// Store owns the fixed per-track-end angular flux buffers. Start is the
// persistent incoming flux every track carries between sweeps - REFLECTIVE
// and PERIODIC transfers write directly into the successor's Start entry
// as soon as a track finishes, exactly like CPUSolver's _start_flux; there
// is no separate staging buffer. Boundary is the per-sweep working copy
// every track reads its initial flux from and that attenuation result gets
// written back into once copied out of Start at the top of the sweep
// (copyBoundaryFluxes), so a value written into Start during a sweep is
// consumed in the next sweep, not by a later track of the same one;
// VACUUM leakage and INTERFACE forwarding both read a track's final value
// out of Boundary, not Start. Both are indexed [trackID][direction]
// [fluxIndex]. Leakage accumulates vacuum leakage per track
// (spec 4.2 supplement: per-track granularity rather than a single
// scalar, so a later debug pass can attribute leakage spatially).
type Store struct {
	Tracks   []Track
	fluxLen  int
	Boundary [][2][]float64
	Start    [][2][]float64
	Leakage  []float64
}

func NewStore(tracks []Track, numGroups, numPolar int) *Store {
	n := NumFluxIndices(numGroups, numPolar)
	s := &Store{
		Tracks:   tracks,
		fluxLen:  n,
		Boundary: make([][2][]float64, len(tracks)),
		Start:    make([][2][]float64, len(tracks)),
		Leakage:  make([]float64, len(tracks)),
	}
	for i := range tracks {
		s.Boundary[i][0] = make([]float64, n)
		s.Boundary[i][1] = make([]float64, n)
		s.Start[i][0] = make([]float64, n)
		s.Start[i][1] = make([]float64, n)
	}
	return s
}

func (s *Store) FluxLen() int { return s.fluxLen }

// RefreshBoundaryFromStart implements copyBoundaryFluxes (CPUSolver.cpp:404):
// at the top of every sweep, the persistent start flux becomes this
// sweep's working boundary flux. Start itself is not written here - it
// changes when a REFLECTIVE/PERIODIC transfer or a VACUUM zeroing (sweep.go's
// transferBoundaryFlux), a halo unpack, or flux normalization
// (normresid.NormalizeFluxes) writes into it.
func (s *Store) RefreshBoundaryFromStart() {
	for i := range s.Tracks {
		copy(s.Boundary[i][0], s.Start[i][0])
		copy(s.Boundary[i][1], s.Start[i][1])
	}
}

func (s *Store) ZeroLeakage() {
	for i := range s.Leakage {
		s.Leakage[i] = 0
	}
}

// TrackGenerator is the external collaborator that produces track geometry
// and segmentation; the sweep and halo packages depend only on this
// interface, never on a concrete mesh/geometry implementation (spec section
// 1 Non-goals: geometry and ray tracing are out of scope for this module).
type TrackGenerator interface {
	Tracks() []Track
	NumAzim() int
	NumPolar() int
	NumGroups() int
}
