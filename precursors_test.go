package diffusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naktakala/PDEs/dense"
	"github.com/Naktakala/PDEs/material"
	"github.com/Naktakala/PDEs/mesh"
)

// delayed is a one group fissile material whose prompt and delayed yields
// add up to its total nu sigma_f.
func delayed() *material.Material {
	return &material.Material{
		Name: "fuel",
		XS: &material.CrossSections{
			SigmaT:          []float64{1},
			SigmaS:          [][]float64{{0.5}},
			Chi:             []float64{1},
			NuSigmaF:        []float64{0.2},
			Lambda:          []float64{0.1, 0.5},
			Gamma:           []float64{0.4, 0.6},
			NuPromptSigmaF:  []float64{0.19},
			NuDelayedSigmaF: []float64{0.01},
			ChiDelayed:      [][]float64{{1, 1}},
		},
		Source: &material.IsotropicSource{Values: []float64{1}},
	}
}

func TestPrecursors(t *testing.T) {
	run := func(usePrecursors bool) *Solver {
		s := newSolver(t, slab(t, 20, 10), delayed())
		s.UsePrecursors = usePrecursors
		s.Eigenvalue = 1.25
		initialized(t, s)
		_, err := s.Execute()
		require.NoError(t, err)
		return s
	}

	plain, split := run(false), run(true)
	assert.Equal(t, 0, plain.NumPrecursors())
	assert.Empty(t, plain.Precursors)
	require.Equal(t, 2, split.NumPrecursors())
	require.Len(t, split.Precursors, 40)

	// splitting fission into prompt and delayed parts leaves the flux alone
	for i := range plain.Phi {
		assert.InDelta(t, plain.Phi[i], split.Phi[i], 1e-12*plain.Phi[i])
	}

	for c, phi := range split.Phi {
		production := 0.01 * phi / 1.25
		assert.InDelta(t, 0.4/0.1*production, split.Precursors[c*2], 1e-14, "cell %d", c)
		assert.InDelta(t, 0.6/0.5*production, split.Precursors[c*2+1], 1e-14, "cell %d", c)
	}
}

func TestPrecursors_UnnormalizedFractions(t *testing.T) {
	run := func(usePrecursors bool) dense.Vector {
		mat := delayed()
		mat.XS.Gamma = []float64{1, 1}
		s := newSolver(t, slab(t, 20, 10), mat)
		s.UsePrecursors = usePrecursors
		initialized(t, s)
		_, err := s.Execute()
		require.NoError(t, err)
		return s.Phi
	}

	plain, split := run(false), run(true)
	for i := range plain {
		assert.InDelta(t, plain[i], split[i], 1e-12*plain[i], "dof %d", i)
	}
}

func TestPrecursors_Offsets(t *testing.T) {
	second := delayed()
	second.XS.Lambda = []float64{0.2}
	second.XS.Gamma = []float64{1}
	second.XS.ChiDelayed = [][]float64{{1}}
	plain := oneGroup(1, 0.5, 1)

	m, err := mesh.NewZoned1D([]float64{0, 1, 2, 3}, []int{2, 2, 2}, []int{0, 1, 2}, mesh.Cartesian)
	require.NoError(t, err)
	s := newSolver(t, m, delayed(), plain, second)
	s.UsePrecursors = true
	initialized(t, s)
	require.Equal(t, 3, s.NumPrecursors())

	_, err = s.Execute()
	require.NoError(t, err)
	require.Len(t, s.Precursors, 6*3)

	for c := 0; c < 6; c++ {
		C := s.Precursors[c*3 : c*3+3]
		production := 0.01 * s.Phi[c]
		switch c / 2 {
		case 0:
			assert.InDelta(t, 4*production, C[0], 1e-14)
			assert.InDelta(t, 1.2*production, C[1], 1e-14)
			assert.Zero(t, C[2])
		case 1:
			assert.Equal(t, []float64{0, 0, 0}, []float64(C))
		case 2:
			// the second fuel starts right after the first fuel's precursors
			assert.Zero(t, C[0])
			assert.Zero(t, C[1])
			assert.InDelta(t, 5*production, C[2], 1e-14)
		}
	}
}

func TestPrecursors_NoData(t *testing.T) {
	s := newSolver(t, slab(t, 5, 1), oneGroup(1, 0.5, 1))
	s.UsePrecursors = true
	initialized(t, s)
	assert.Equal(t, 0, s.NumPrecursors())

	_, err := s.Execute()
	require.NoError(t, err)
	assert.Empty(t, s.Precursors)
	assert.NoError(t, s.ComputePrecursors())
}
