package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moccore/solver/moctypes"
)

func TestRuntime(t *testing.T) {
	{ // defaults match RunTime.cpp's documented -help defaults
		p := Defaults()
		assert.NoError(t, p.Validate())
		assert.Equal(t, 1, p.NumThreads)
		assert.Equal(t, 1000, p.MaxIters)
		assert.Equal(t, moctypes.FissionSource, p.ResidualType())
	}
	{ // parsing a partial YAML overlay keeps unset fields at their default
		data := []byte("NumThreads: 8\nMOCSourceTolerance: 1e-5\n")
		p, err := Parse(data)
		assert.NoError(t, err)
		assert.Equal(t, 8, p.NumThreads)
		assert.Equal(t, 1.0e-5, p.MOCSourceTolerance)
		assert.Equal(t, 1000, p.MaxIters)
	}
	{ // invalid NumThreads fails validation
		p := Defaults()
		p.NumThreads = 0
		assert.Error(t, p.Validate())
	}
	{ // an unknown residual type name fails validation
		p := Defaults()
		p.MOCResidualType = "NOT_A_TYPE"
		assert.Error(t, p.Validate())
	}
	{ // NumDomains multiplies the decomposition dims
		p := Defaults()
		p.DomainDecompose = [3]int{2, 3, 1}
		assert.Equal(t, 6, p.NumDomains())
	}
}
