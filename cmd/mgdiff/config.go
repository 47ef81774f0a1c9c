package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	diffusion "github.com/Naktakala/PDEs"
	"github.com/Naktakala/PDEs/material"
	"github.com/Naktakala/PDEs/mesh"
	"github.com/Naktakala/PDEs/sparse"
)

// Config is the input deck.  It is read from an optional YAML file,
// MGDIFF_* environment variables and command line flags, in increasing
// order of precedence.
type Config struct {
	Coordinates string `mapstructure:"coordinates"`
	// Width and Cells describe a uniform single zone slab when Edges is
	// empty.
	Width float64 `mapstructure:"width"`
	Cells int     `mapstructure:"cells"`
	// Edges, Subdivisions and Zones describe a zoned mesh: zone i spans
	// [Edges[i], Edges[i+1]] with Subdivisions[i] cells of material Zones[i].
	Edges        []float64 `mapstructure:"edges"`
	Subdivisions []int     `mapstructure:"subdivisions"`
	Zones        []int     `mapstructure:"zones"`

	// Materials is a cross section file.  Empty selects a one group
	// absorber with unit source.
	Materials string  `mapstructure:"materials"`
	Groups    []int   `mapstructure:"groups"`
	// Groupsets partitions the groups for the iterative algorithm.
	Groupsets [][]int `mapstructure:"groupsets"`

	Boundaries []BoundaryConfig `mapstructure:"boundaries"`

	Algorithm          string  `mapstructure:"algorithm"`
	LinearSolver       string  `mapstructure:"linear_solver"`
	Reorder            bool    `mapstructure:"reorder"`
	UsePrecursors      bool    `mapstructure:"use_precursors"`
	MaxInnerIterations int     `mapstructure:"max_inner_iterations"`
	InnerTolerance     float64 `mapstructure:"inner_tolerance"`
	Eigenvalue         float64 `mapstructure:"eigenvalue"`
	Buckling           float64 `mapstructure:"buckling"`
	Verbosity          int     `mapstructure:"verbosity"`
	Solver             struct {
		Tolerance     float64 `mapstructure:"tolerance"`
		MaxIterations int     `mapstructure:"max_iterations"`
		Omega         float64 `mapstructure:"omega"`
	} `mapstructure:"solver"`

	Output        string `mapstructure:"output"`
	Prefix        string `mapstructure:"prefix"`
	Plot          string `mapstructure:"plot"`
	Metrics       string `mapstructure:"metrics"`
	PrintOperator bool   `mapstructure:"print_operator"`
}

// BoundaryConfig is the condition on one boundary, left first.  Values
// holds the values per cross section group.
type BoundaryConfig struct {
	Type   string      `mapstructure:"type"`
	Values [][]float64 `mapstructure:"values"`
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"coordinates":          "coordinates",
	"width":                "width",
	"cells":                "cells",
	"materials":            "materials",
	"algorithm":            "algorithm",
	"linear-solver":        "linear_solver",
	"reorder":              "reorder",
	"use-precursors":       "use_precursors",
	"max-inner-iterations": "max_inner_iterations",
	"inner-tolerance":      "inner_tolerance",
	"eigenvalue":           "eigenvalue",
	"buckling":             "buckling",
	"verbosity":            "verbosity",
	"solver-tolerance":     "solver.tolerance",
	"solver-max-iter":      "solver.max_iterations",
	"omega":                "solver.omega",
	"output":               "output",
	"prefix":               "prefix",
	"plot":                 "plot",
	"metrics":              "metrics",
	"print-operator":       "print_operator",
}

func newFlagSet() *pflag.FlagSet {
	def := diffusion.DefaultOptions()
	fs := pflag.NewFlagSet("mgdiff", pflag.ContinueOnError)
	fs.StringP("config", "c", "", "YAML input deck")
	fs.String("coordinates", "cartesian", "coordinate system: cartesian, cylindrical or spherical")
	fs.Float64("width", 1, "slab width when no zones are given")
	fs.Int("cells", 50, "number of cells when no zones are given")
	fs.String("materials", "", "cross section file (default: built-in one group absorber)")
	fs.String("algorithm", def.Algorithm.String(), "direct or iterative")
	fs.String("linear-solver", def.LinearSolver.String(), "linear solver method")
	fs.Bool("reorder", false, "reorder unknowns with reverse Cuthill-McKee")
	fs.Bool("use-precursors", false, "track delayed neutron precursors")
	fs.Int("max-inner-iterations", def.MaxInnerIterations, "inner iteration limit")
	fs.Float64("inner-tolerance", def.InnerTolerance, "inner iteration tolerance")
	fs.Float64("eigenvalue", def.Eigenvalue, "fission source divisor")
	fs.Float64("buckling", 0, "transverse buckling B^2")
	fs.IntP("verbosity", "v", 0, "log verbosity")
	fs.Float64("solver-tolerance", def.SolverOptions.Tolerance, "iterative linear solver tolerance")
	fs.Int("solver-max-iter", def.SolverOptions.MaxIterations, "iterative linear solver iteration limit")
	fs.Float64("omega", def.SolverOptions.Omega, "SOR/SSOR relaxation factor")
	fs.StringP("output", "o", ".", "output directory")
	fs.String("prefix", "mgdiff", "output file prefix")
	fs.String("plot", "", "write a flux plot to this PNG file")
	fs.String("metrics", "", "write solver metrics to this Prometheus textfile")
	fs.Bool("print-operator", false, "print the assembled operator")
	return fs
}

// loadConfig merges the config file, environment and flags.
func loadConfig(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MGDIFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, err
		}
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

func (c *Config) buildMesh() (*mesh.Mesh, error) {
	coords, err := mesh.ParseCoordinateSystem(c.Coordinates)
	if err != nil {
		return nil, err
	}
	if len(c.Edges) == 0 {
		if c.Cells <= 0 || !(c.Width > 0) {
			return nil, fmt.Errorf("need a positive width and cell count, got %g and %d", c.Width, c.Cells)
		}
		return mesh.NewZoned1D([]float64{0, c.Width}, []int{c.Cells}, []int{0}, coords)
	}
	zones := c.Zones
	if len(zones) == 0 {
		zones = make([]int, len(c.Subdivisions))
	}
	return mesh.NewZoned1D(c.Edges, c.Subdivisions, zones, coords)
}

func (c *Config) loadMaterials() ([]*material.Material, error) {
	if c.Materials != "" {
		return material.ReadFile(c.Materials)
	}
	return []*material.Material{{
		Name: "absorber",
		XS: &material.CrossSections{
			SigmaT: []float64{1},
			SigmaS: [][]float64{{0.5}},
		},
		Source: &material.IsotropicSource{Values: []float64{1}},
	}}, nil
}

// options converts the deck's solver settings.
func (c *Config) options() (diffusion.Options, error) {
	opts := diffusion.DefaultOptions()
	alg, err := diffusion.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return opts, err
	}
	method, err := sparse.ParseMethod(c.LinearSolver)
	if err != nil {
		return opts, err
	}

	opts.Algorithm = alg
	opts.LinearSolver = method
	opts.Reorder = c.Reorder
	opts.UsePrecursors = c.UsePrecursors
	opts.MaxInnerIterations = c.MaxInnerIterations
	opts.InnerTolerance = c.InnerTolerance
	opts.Eigenvalue = c.Eigenvalue
	opts.Buckling = c.Buckling
	opts.Verbosity = c.Verbosity
	opts.SolverOptions = sparse.Options{
		Tolerance:     c.Solver.Tolerance,
		MaxIterations: c.Solver.MaxIterations,
		Omega:         c.Solver.Omega,
	}
	return opts, nil
}

// boundaries converts the boundary list.  Missing boundaries are zero flux.
func (c *Config) boundaries(n int) ([]diffusion.BoundaryInfo, [][][]float64, error) {
	if len(c.Boundaries) > n {
		return nil, nil, fmt.Errorf("%d boundaries given for a mesh with %d", len(c.Boundaries), n)
	}
	info := make([]diffusion.BoundaryInfo, n)
	var values [][][]float64
	for i := range info {
		info[i] = diffusion.BoundaryInfo{Type: diffusion.ZeroFlux, ValueIndex: -1}
		if i >= len(c.Boundaries) {
			continue
		}
		bc := c.Boundaries[i]
		typ, err := diffusion.ParseBoundaryType(bc.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("boundary %d: %w", i, err)
		}
		info[i].Type = typ
		if len(bc.Values) > 0 {
			info[i].ValueIndex = len(values)
			values = append(values, bc.Values)
		}
	}
	return info, values, nil
}
