package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	diffusion "github.com/Naktakala/PDEs"
	"github.com/Naktakala/PDEs/material"
)

func TestRun_Default(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	err := run([]string{
		"--output", dir,
		"--plot", filepath.Join(dir, "flux.png"),
		"--metrics", filepath.Join(dir, "mgdiff.prom"),
	}, &stdout)
	require.NoError(t, err)

	out, err := diffusion.ReadFile(filepath.Join(dir, "mgdiff.data"))
	require.NoError(t, err)
	assert.Equal(t, 50, out.NumCells)
	assert.Equal(t, []int{0}, out.Groups)
	for c := 0; c < 25; c++ {
		assert.InDelta(t, out.Flux[c], out.Flux[49-c], 1e-10)
	}

	// header plus one line per cell
	assert.Len(t, strings.Split(strings.TrimSpace(stdout.String()), "\n"), 51)

	info, err := os.Stat(filepath.Join(dir, "flux.png"))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	prom, err := os.ReadFile(filepath.Join(dir, "mgdiff.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "mgdiff_converged 1")
	assert.Contains(t, string(prom), `mgdiff_peak_flux{group="0"}`)
}

func TestRun_Deck(t *testing.T) {
	dir := t.TempDir()

	xs := &material.CrossSections{
		SigmaT:   []float64{0.6, 1.4},
		SigmaS:   [][]float64{{0.4, 0}, {0.15, 1.1}},
		Chi:      []float64{1, 0},
		NuSigmaF: []float64{0.005, 0.1},
	}
	mats := []*material.Material{
		{Name: "fuel", XS: xs, Source: &material.IsotropicSource{Values: []float64{1, 0}}},
		{Name: "reflector", XS: &material.CrossSections{
			SigmaT: []float64{0.5, 1},
			SigmaS: [][]float64{{0.45, 0}, {0.04, 0.95}},
		}},
	}
	var buf bytes.Buffer
	require.NoError(t, material.Write(&buf, mats))
	xsPath := filepath.Join(dir, "xs.yaml")
	require.NoError(t, os.WriteFile(xsPath, buf.Bytes(), 0o644))

	deck := `
coordinates: spherical
edges: [0, 5, 8]
subdivisions: [10, 6]
zones: [0, 1]
materials: ` + xsPath + `
algorithm: iterative
groupsets: [[0], [1]]
linear_solver: cg
inner_tolerance: 1.0e-6
max_inner_iterations: 1000
boundaries:
  - type: reflective
  - type: marshak
    values: [[0.1], [0]]
`
	deckPath := filepath.Join(dir, "deck.yaml")
	require.NoError(t, os.WriteFile(deckPath, []byte(deck), 0o644))

	var stdout bytes.Buffer
	err := run([]string{"-c", deckPath, "--output", dir, "--prefix", "sphere", "--print-operator"}, &stdout)
	require.NoError(t, err)

	out, err := diffusion.ReadFile(filepath.Join(dir, "sphere.data"))
	require.NoError(t, err)
	assert.Equal(t, 16, out.NumCells)
	assert.Equal(t, []int{0, 1}, out.Groups)
	for _, v := range out.Flux {
		assert.Greater(t, v, 0.0)
	}
	assert.Contains(t, stdout.String(), "g1")
}

func TestRun_Errors(t *testing.T) {
	tests := map[string][]string{
		"algorithm":   {"--algorithm", "magic"},
		"solver":      {"--linear-solver", "qr"},
		"coordinates": {"--coordinates", "toroidal"},
		"cells":       {"--cells", "0"},
		"materials":   {"--materials", "/does/not/exist.yaml"},
		"config":      {"--config", "/does/not/exist.yaml"},
		"flag":        {"--no-such-flag"},
		"tolerance":   {"--inner-tolerance", "-1"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			args = append(args, "--output", t.TempDir())
			assert.Error(t, run(args, &bytes.Buffer{}))
		})
	}
}

func TestConfigBoundaries(t *testing.T) {
	cfg := &Config{Boundaries: []BoundaryConfig{
		{Type: "dirichlet", Values: [][]float64{{1}}},
		{Type: "vacuum"},
	}}
	info, values, err := cfg.boundaries(2)
	require.NoError(t, err)
	assert.Equal(t, []diffusion.BoundaryInfo{
		{Type: diffusion.Dirichlet, ValueIndex: 0},
		{Type: diffusion.Vacuum, ValueIndex: -1},
	}, info)
	assert.Equal(t, [][][]float64{{{1}}}, values)

	info, _, err = (&Config{}).boundaries(2)
	require.NoError(t, err)
	assert.Equal(t, diffusion.ZeroFlux, info[1].Type)

	_, _, err = cfg.boundaries(1)
	assert.Error(t, err)
	_, _, err = (&Config{Boundaries: []BoundaryConfig{{Type: "periodic"}}}).boundaries(2)
	assert.Error(t, err)
}
