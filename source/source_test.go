package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"

	"github.com/moccore/solver/fsr"
	"github.com/moccore/solver/material"
)

func TestSource(t *testing.T) {
	{ // a fissionable region with positive flux gets a positive reduced source
		sigmaS := mat.NewDense(1, 1, []float64{0.2})
		m, _ := material.New("fuel", 1, []float64{1.0}, []float64{0.8}, []float64{0.1}, []float64{1.0}, sigmaS)
		r := fsr.New(0, 1.0, m)
		r.Flux[0] = 2.0
		store := fsr.NewStore([]*fsr.FlatSourceRegion{r})
		Build(store, 1.0, 0)
		assert.Greater(t, r.ReducedSource[0], 0.0)
		assert.Equal(t, int64(0), store.NegativeSources.Load())
	}
	{ // a fixed negative source is clamped to 1e-20 and counted during the
		// clamp-iteration window
		sigmaS := mat.NewDense(1, 1, []float64{0.0})
		m, _ := material.New("absorber", 1, []float64{1.0}, []float64{1.0}, []float64{0.0}, []float64{0.0}, sigmaS)
		r := fsr.New(0, 1.0, m)
		r.FixedSource[0] = -10.0
		store := fsr.NewStore([]*fsr.FlatSourceRegion{r})
		Build(store, 1.0, 0)
		assert.Equal(t, negativeClamp, r.ReducedSource[0])
		assert.Equal(t, int64(1), store.NegativeSources.Load())
	}
	{ // from iteration NegativeSourceClampIterations onward, the negative
		// value is preserved instead of clamped
		sigmaS := mat.NewDense(1, 1, []float64{0.0})
		m, _ := material.New("absorber", 1, []float64{1.0}, []float64{1.0}, []float64{0.0}, []float64{0.0}, sigmaS)
		r := fsr.New(0, 1.0, m)
		r.FixedSource[0] = -10.0
		store := fsr.NewStore([]*fsr.FlatSourceRegion{r})
		Build(store, 1.0, NegativeSourceClampIterations)
		assert.Less(t, r.ReducedSource[0], 0.0)
		assert.Equal(t, int64(1), store.NegativeSources.Load())
	}
	{ // SumFissionSource ignores non-fissionable regions
		sigmaS := mat.NewDense(1, 1, []float64{0.1})
		fuel, _ := material.New("fuel", 1, []float64{1.0}, []float64{0.5}, []float64{0.2}, []float64{1.0}, sigmaS)
		mod, _ := material.New("mod", 1, []float64{1.0}, []float64{0.1}, []float64{0.0}, []float64{0.0}, sigmaS)
		rf := fsr.New(0, 1.0, fuel)
		rf.Flux[0] = 1.0
		rm := fsr.New(1, 1.0, mod)
		rm.Flux[0] = 100.0
		store := fsr.NewStore([]*fsr.FlatSourceRegion{rf, rm})
		assert.InDelta(t, 0.2, SumFissionSource(store), 1e-9)
	}
}
