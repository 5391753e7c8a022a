package fsr

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"

	"github.com/moccore/solver/material"
)

func twoGroupMaterial(t *testing.T) *material.Material {
	sigmaS := mat.NewDense(2, 2, []float64{0.5, 0.01, 0.02, 0.3})
	m, err := material.New("fuel", 2,
		[]float64{1.0, 1.2}, []float64{0.4, 0.6}, []float64{0.1, 0.2}, []float64{1.0, 0.0}, sigmaS)
	assert.NoError(t, err)
	return m
}

func TestFSR(t *testing.T) {
	{ // concurrent AddToFlux calls don't race or drop updates
		m := twoGroupMaterial(t)
		r := New(0, 1.0, m)
		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.AddToFlux(0, 0.01)
			}()
		}
		wg.Wait()
		assert.InDelta(t, 1.0, r.Flux[0], 1e-9)
	}
	{ // snapshot then zero then scale behave independently per group
		m := twoGroupMaterial(t)
		r := New(1, 2.0, m)
		r.Flux = []float64{2.0, 4.0}
		r.SnapshotFlux()
		assert.Equal(t, []float64{2.0, 4.0}, r.FluxOld)
		r.ZeroFlux(0.0)
		assert.Equal(t, []float64{0.0, 0.0}, r.Flux)
		r.Flux = []float64{1.0, 1.0}
		r.ScaleFlux(3.0)
		assert.Equal(t, []float64{3.0, 3.0}, r.Flux)
	}
	{ // store aggregates fission source across regions weighted by volume
		m := twoGroupMaterial(t)
		r0 := New(0, 1.0, m)
		r0.Flux = []float64{1.0, 1.0}
		r1 := New(1, 2.0, m)
		r1.Flux = []float64{1.0, 1.0}
		s := NewStore([]*FlatSourceRegion{r0, r1})
		// nuSigmaF = [0.1, 0.2] => per-region sum = 0.3, volumes 1 and 2
		assert.InDelta(t, 0.3*1.0+0.3*2.0, s.TotalFissionSource(), 1e-9)
		assert.Equal(t, 2, s.NumGroups())
	}
	{ // counters reset cleanly
		s := NewStore(nil)
		s.NegativeSources.Add(5)
		s.NegativeFluxes.Add(3)
		s.ResetCounters()
		assert.Equal(t, int64(0), s.NegativeSources.Load())
		assert.Equal(t, int64(0), s.NegativeFluxes.Load())
	}
}
