// Package material holds per-nuclide-group cross-section data: the
// multigroup material properties a flat source region points at. Grounded
// on the teacher's data-holder style (plain structs with constructors that
// validate shape, e.g. utils.Matrix wrappers) but the cross-section algebra
// itself (scattering matrix as a dense G x G block) is new to this domain.
package material

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Material is the multigroup cross-section set for one material region.
// SigmaS is stored dense (G x G) since scattering matrices for reactor
// physics problems are rarely sparse enough to matter at the group counts
// MOC problems typically use (a handful to a few hundred groups).
type Material struct {
	Name       string
	NumGroups  int
	SigmaT     []float64 // total cross section, per group
	SigmaA     []float64 // absorption cross section, per group
	NuSigmaF   []float64 // nu * fission cross section, per group
	Chi        []float64 // fission spectrum, per group
	SigmaS     *mat.Dense // scattering matrix, [from-group, to-group]
	Fissionable bool
}

// New builds a Material and checks that every group-indexed slice has
// length NumGroups and that SigmaS is NumGroups x NumGroups. Fissionable
// is derived automatically: a material is fissionable when any NuSigmaF
// entry is nonzero, matching the CPUSolver convention of using zero
// nu-fission as the fissionable test.
func New(name string, numGroups int, sigmaT, sigmaA, nuSigmaF, chi []float64, sigmaS *mat.Dense) (*Material, error) {
	check := func(label string, v []float64) error {
		if len(v) != numGroups {
			return fmt.Errorf("material %q: %s has length %d, want %d", name, label, len(v), numGroups)
		}
		return nil
	}
	if err := check("SigmaT", sigmaT); err != nil {
		return nil, err
	}
	if err := check("SigmaA", sigmaA); err != nil {
		return nil, err
	}
	if err := check("NuSigmaF", nuSigmaF); err != nil {
		return nil, err
	}
	if err := check("Chi", chi); err != nil {
		return nil, err
	}
	r, c := sigmaS.Dims()
	if r != numGroups || c != numGroups {
		return nil, fmt.Errorf("material %q: SigmaS is %dx%d, want %dx%d", name, r, c, numGroups, numGroups)
	}
	fissionable := false
	for _, v := range nuSigmaF {
		if v != 0 {
			fissionable = true
			break
		}
	}
	return &Material{
		Name:        name,
		NumGroups:   numGroups,
		SigmaT:      sigmaT,
		SigmaA:      sigmaA,
		NuSigmaF:    nuSigmaF,
		Chi:         chi,
		SigmaS:      sigmaS,
		Fissionable: fissionable,
	}, nil
}

// ScatteringFrom returns sigma_s(g -> e), the scattering cross section from
// group g into group e, matching CPUSolver's scattering_matrix[e*G+g]
// indexing convention (row e, column g when read as a flattened C array -
// here expressed as SigmaS.At(g, e) so callers read "from g to e").
func (m *Material) ScatteringFrom(g, e int) float64 {
	return m.SigmaS.At(g, e)
}

// Store is a named collection of materials, keyed by the identifiers FSRs
// reference. Grounded on the teacher's map-keyed store pattern used for
// boundary condition collections (model_problems/Euler2D/edges.go keys
// edges by EdgeKey into a map).
type Store struct {
	byName map[string]*Material
}

func NewStore() *Store {
	return &Store{byName: make(map[string]*Material)}
}

func (s *Store) Add(m *Material) error {
	if _, exists := s.byName[m.Name]; exists {
		return fmt.Errorf("material %q already present in store", m.Name)
	}
	s.byName[m.Name] = m
	return nil
}

func (s *Store) Get(name string) (*Material, bool) {
	m, ok := s.byName[name]
	return m, ok
}

func (s *Store) Len() int {
	return len(s.byName)
}
