// Command mgdiff solves a one dimensional multigroup neutron diffusion
// problem and writes the flux to a .data file.
//
// Without arguments it solves a 50 cell unit slab of a one group absorber
// with a unit source and zero flux boundaries.  Larger problems are
// described with a YAML deck:
//
//	coordinates: spherical
//	edges: [0, 1, 3]
//	subdivisions: [10, 20]
//	zones: [0, 1]
//	materials: xs.yaml
//	algorithm: iterative
//	groupsets: [[0, 1]]
//	boundaries:
//	  - type: reflective
//	  - type: marshak
//	    values: [[0.5], [0]]
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/mat"

	diffusion "github.com/Naktakala/PDEs"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "mgdiff:", err)
		os.Exit(1)
	}
}

// newLogger builds a console logger; logr V levels up to verbosity are
// enabled.
func newLogger(verbosity int) (logr.Logger, func(), error) {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	zc.DisableStacktrace = true
	zl, err := zc.Build()
	if err != nil {
		return logr.Discard(), func() {}, err
	}
	return zapr.NewLogger(zl), func() { _ = zl.Sync() }, nil
}

func run(args []string, stdout io.Writer) error {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	cfg, err := loadConfig(fs)
	if err != nil {
		return err
	}

	log, sync, err := newLogger(cfg.Verbosity)
	if err != nil {
		return err
	}
	defer sync()

	s, err := setup(cfg, log)
	if err != nil {
		return err
	}

	if cfg.PrintOperator {
		direct := s.Algorithm == diffusion.Direct
		if err := s.AssembleMatrix(diffusion.AssemblerFlags{Scatter: direct, Fission: direct}); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%v\n\n", mat.Formatted(s.Operator(), mat.Squeeze()))
	}

	res, err := s.Execute()
	if err != nil {
		return err
	}
	log.Info("solve complete", "algorithm", res.Algorithm.String(), "iterations", res.Iterations,
		"converged", res.Converged, "change", res.Change, "runtime", res.Runtime)

	path, err := s.Write(cfg.Output, cfg.Prefix)
	if err != nil {
		return err
	}
	out, err := diffusion.ReadFile(path)
	if err != nil {
		return err
	}
	if err := printFlux(stdout, out); err != nil {
		return err
	}

	if cfg.Plot != "" {
		if err := plotFlux(out, cfg.Plot); err != nil {
			return fmt.Errorf("plotting: %w", err)
		}
		log.V(1).Info("wrote plot", "path", cfg.Plot)
	}
	if cfg.Metrics != "" {
		m := newMetrics()
		m.observe(s, res)
		if err := m.write(cfg.Metrics); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
		log.V(1).Info("wrote metrics", "path", cfg.Metrics)
	}
	return nil
}

// setup builds and initializes the solver described by cfg.
func setup(cfg *Config, log logr.Logger) (*diffusion.Solver, error) {
	m, err := cfg.buildMesh()
	if err != nil {
		return nil, fmt.Errorf("building mesh: %w", err)
	}
	mats, err := cfg.loadMaterials()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}

	s := diffusion.New(m, mats)
	s.Options = opts
	s.Groups = cfg.Groups
	s.Groupsets = cfg.Groupsets
	s.Logger = log
	s.BoundaryInfo, s.BoundaryValues, err = cfg.boundaries(m.NumBoundaries)
	if err != nil {
		return nil, err
	}
	if err := s.Initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

// printFlux writes one row per cell: the centroid followed by the flux of
// every group.
func printFlux(w io.Writer, out *diffusion.Output) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprint(tw, "cell\tx")
	for _, g := range out.Groups {
		fmt.Fprintf(tw, "\tg%d", g)
	}
	fmt.Fprintln(tw)

	G := out.NumGroups()
	for c := 0; c < out.NumCells; c++ {
		fmt.Fprintf(tw, "%d\t%.6g", c, out.Centroids[3*c])
		for g := 0; g < G; g++ {
			fmt.Fprintf(tw, "\t%.8e", out.Flux[c*G+g])
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
