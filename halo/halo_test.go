package halo

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moccore/solver/moctypes"
	"github.com/moccore/solver/track"
)

func TestDiscoverNeighbors(t *testing.T) {
	{ // a single-axis decomposition has at most two neighbors, not 26
		dims := Dims{4, 1, 1}
		n := DiscoverNeighbors(dims, Coord{1, 0, 0})
		assert.Len(t, n, 2)
	}
	{ // the center of a 3x3x3 grid sees all 26 neighbors
		dims := Dims{3, 3, 3}
		n := DiscoverNeighbors(dims, Coord{1, 1, 1})
		assert.Len(t, n, 26)
	}
	{ // a corner domain only sees the neighbors actually in range
		dims := Dims{2, 2, 2}
		n := DiscoverNeighbors(dims, Coord{0, 0, 0})
		assert.Len(t, n, 7)
	}
}

func TestBuffer(t *testing.T) {
	{ // pack and unpack round-trip each slot's address and flux payload
		buf := NewBuffer(3, 2, 4)
		buf.Pack(0, 7, moctypes.Forward, []float64{1, 2, 3, 4})
		buf.Pack(1, 9, moctypes.Reverse, []float64{5, 6, 7, 8})
		track0, dir0, flux0, ok0 := buf.Slot(0)
		assert.True(t, ok0)
		assert.Equal(t, 7, track0)
		assert.Equal(t, moctypes.Forward, dir0)
		assert.Equal(t, []float64{1, 2, 3, 4}, flux0)
		track1, dir1, flux1, ok1 := buf.Slot(1)
		assert.True(t, ok1)
		assert.Equal(t, 9, track1)
		assert.Equal(t, moctypes.Reverse, dir1)
		assert.Equal(t, []float64{5, 6, 7, 8}, flux1)
	}
	{ // a slot nothing was packed into reports ok=false
		buf := NewBuffer(3, 2, 4)
		buf.Pack(0, 7, moctypes.Forward, []float64{1, 2, 3, 4})
		_, _, _, ok := buf.Slot(1)
		assert.False(t, ok)
	}
}

func TestExchanger(t *testing.T) {
	{ // two domains each with one INTERFACE track end exchange and unpack
		// straight into each other's persistent Start entry
		tr0 := track.Track{
			ID:                 0,
			BoundaryFwd:        moctypes.Interface,
			InterfaceFwdDomain: 1,
			InterfaceFwdTrack:  0,
			InterfaceFwdDir:    moctypes.Forward,
		}
		tracks0 := track.NewStore([]track.Track{tr0}, 1, 2)
		tracks0.Boundary[0][0][0] = 3.0

		tr1 := track.Track{
			ID:                 0,
			BoundaryFwd:        moctypes.Interface,
			InterfaceFwdDomain: 0,
			InterfaceFwdTrack:  0,
			InterfaceFwdDir:    moctypes.Forward,
		}
		tracks1 := track.NewStore([]track.Track{tr1}, 1, 2)
		tracks1.Boundary[0][0][0] = 5.0

		group := NewInProcessGroup(2)
		ex0 := NewExchanger(group[0], tracks0)
		ex1 := NewExchanger(group[1], tracks1)

		assert.True(t, ex0.HasNeighbors())
		assert.True(t, ex1.HasNeighbors())

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); ex0.Exchange() }()
		go func() { defer wg.Done(); ex1.Exchange() }()
		wg.Wait()

		assert.Equal(t, 5.0, tracks0.Start[0][0][0])
		assert.Equal(t, 3.0, tracks1.Start[0][0][0])
	}
	{ // a domain with no INTERFACE ends reports no neighbors
		tr := track.Track{ID: 0, BoundaryFwd: moctypes.Vacuum}
		tracks := track.NewStore([]track.Track{tr}, 1, 2)
		ex := NewExchanger(nil, tracks)
		assert.False(t, ex.HasNeighbors())
	}
}

func TestSeamMismatch(t *testing.T) {
	{ // identical seam values report zero mismatch
		local := []float64{1.0, 2.0, 3.0}
		remote := []float64{1.0, 2.0, 3.0}
		mean, std := SeamMismatch(local, remote)
		assert.InDelta(t, 0.0, mean, 1e-12)
		assert.InDelta(t, 0.0, std, 1e-12)
	}
	{ // a consistent offset across every value shows up as the mean with zero spread
		local := []float64{1.0, 2.0, 3.0}
		remote := []float64{1.1, 2.1, 3.1}
		mean, std := SeamMismatch(local, remote)
		assert.InDelta(t, 0.1, mean, 1e-9)
		assert.InDelta(t, 0.0, std, 1e-9)
	}
}

func TestInProcessTransport(t *testing.T) {
	{ // two domains exchange one buffer each and see each other's payload
		group := NewInProcessGroup(2)
		var wg sync.WaitGroup
		results := make([]map[int]*Buffer, 2)
		for r := 0; r < 2; r++ {
			wg.Add(1)
			go func(rank int) {
				defer wg.Done()
				other := 1 - rank
				group[rank].Post(&Buffer{NeighborRank: other, Values: []float64{float64(rank)}})
				group[rank].Barrier()
				results[rank] = group[rank].Wait()
			}(r)
		}
		wg.Wait()
		assert.Equal(t, []float64{1.0}, results[0][1].Values)
		assert.Equal(t, []float64{0.0}, results[1][0].Values)
	}
	{ // AllReduce sums every rank's local contribution
		group := NewInProcessGroup(3)
		var wg sync.WaitGroup
		sums := make([]float64, 3)
		for r := 0; r < 3; r++ {
			wg.Add(1)
			go func(rank int) {
				defer wg.Done()
				sums[rank] = group[rank].AllReduce(float64(rank + 1))
			}(r)
		}
		wg.Wait()
		for _, s := range sums {
			assert.InDelta(t, 6.0, s, 1e-9)
		}
	}
}
