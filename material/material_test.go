package material

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestMaterial(t *testing.T) {
	{ // a well-formed two-group material is fissionable and indexes correctly
		sigmaS := mat.NewDense(2, 2, []float64{0.5, 0.01, 0.02, 0.3})
		m, err := New("fuel", 2,
			[]float64{1.0, 1.2},
			[]float64{0.4, 0.6},
			[]float64{0.1, 0.2},
			[]float64{1.0, 0.0},
			sigmaS)
		assert.NoError(t, err)
		assert.True(t, m.Fissionable)
		assert.Equal(t, 0.01, m.ScatteringFrom(0, 1))
	}
	{ // zero nu-fission everywhere means not fissionable
		sigmaS := mat.NewDense(1, 1, []float64{0.9})
		m, err := New("moderator", 1, []float64{1.0}, []float64{0.1}, []float64{0.0}, []float64{0.0}, sigmaS)
		assert.NoError(t, err)
		assert.False(t, m.Fissionable)
	}
	{ // mismatched slice length is rejected
		sigmaS := mat.NewDense(2, 2, nil)
		_, err := New("bad", 2, []float64{1.0}, []float64{1.0, 1.0}, []float64{0, 0}, []float64{0, 0}, sigmaS)
		assert.Error(t, err)
	}
	{ // store rejects duplicate names and reports Get misses
		s := NewStore()
		sigmaS := mat.NewDense(1, 1, []float64{0.1})
		m, _ := New("water", 1, []float64{0.5}, []float64{0.1}, []float64{0.0}, []float64{0.0}, sigmaS)
		assert.NoError(t, s.Add(m))
		assert.Error(t, s.Add(m))
		got, ok := s.Get("water")
		assert.True(t, ok)
		assert.Equal(t, m, got)
		_, ok = s.Get("missing")
		assert.False(t, ok)
		assert.Equal(t, 1, s.Len())
	}
}
