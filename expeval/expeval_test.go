package expeval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable(t *testing.T) {
	{ // interpolated values track the analytic function closely within range
		tb := NewTable(10.0, 100000)
		for _, tau := range []float64{0.0, 0.001, 0.5, 1.0, 3.33, 9.999} {
			want := 1 - math.Exp(-tau)
			got := tb.Eval(tau)
			assert.InDelta(t, want, got, 1e-6)
		}
	}
	{ // beyond maxTau falls back to the analytic computation
		tb := NewTable(2.0, 10)
		tau := 50.0
		assert.InDelta(t, 1-math.Exp(-tau), tb.Eval(tau), 1e-12)
	}
	{ // negative tau is clamped to zero rather than extrapolated
		tb := NewTable(5.0, 10)
		assert.Equal(t, 0.0, tb.Eval(-1.0))
	}
	{ // default construction with invalid args still produces a usable table
		tb := NewTable(0, 0)
		assert.Equal(t, 10.0, tb.MaxTau())
		assert.InDelta(t, 1-math.Exp(-1), tb.Eval(1.0), 1e-3)
	}
}
