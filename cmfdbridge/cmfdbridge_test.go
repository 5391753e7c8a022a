package cmfdbridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBridge(t *testing.T) {
	{ // NoOp reports both flags off and accepts every call silently
		var b Bridge = NoOp{}
		assert.False(t, b.IsFluxUpdateOn())
		assert.False(t, b.IsSigmaTRebalanceOn())
		b.ZeroCurrents()
		b.TallyCurrent(0, 0, 0, 1.0, 1.0)
		b.TallyStartingCurrent(0, 0, 1.0)
	}
	{ // SparseTally accumulates weighted flux into the current matrix
		st := NewSparseTally(4, 2)
		st.FluxUpdateOn = true
		st.TallyCurrent(0, 1, 0, 2.0, 3.0)
		st.TallyCurrent(0, 1, 0, 1.0, 1.0)
		assert.InDelta(t, 7.0, st.Current().At(1, 0), 1e-9)
		assert.True(t, st.IsFluxUpdateOn())
	}
	{ // out-of-range indices are dropped, not panics
		st := NewSparseTally(2, 2)
		st.TallyCurrent(0, 99, 99, 1.0, 1.0)
		assert.InDelta(t, 0.0, st.Current().At(0, 0), 1e-9)
	}
	{ // ZeroCurrents clears previously tallied values
		st := NewSparseTally(2, 2)
		st.TallyCurrent(0, 0, 0, 1.0, 1.0)
		st.ZeroCurrents()
		assert.InDelta(t, 0.0, st.Current().At(0, 0), 1e-9)
	}
}
