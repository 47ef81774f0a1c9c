package main

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	diffusion "github.com/Naktakala/PDEs"
)

// metrics summarizes a run in the Prometheus text format so batch runs can
// be picked up by a node exporter textfile collector.
type metrics struct {
	reg *prometheus.Registry

	iterations       prometheus.Gauge
	linearIterations prometheus.Gauge
	change           prometheus.Gauge
	converged        prometheus.Gauge
	runtime          prometheus.Gauge
	cells            prometheus.Gauge
	peakFlux         *prometheus.GaugeVec
	totalFlux        *prometheus.GaugeVec
}

func newMetrics() *metrics {
	m := &metrics{
		reg: prometheus.NewRegistry(),
		iterations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mgdiff_inner_iterations",
			Help: "Inner iterations of the last solve.",
		}),
		linearIterations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mgdiff_linear_iterations",
			Help: "Iterations spent in the iterative linear solver.",
		}),
		change: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mgdiff_final_change",
			Help: "Relative flux change of the last inner iteration.",
		}),
		converged: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mgdiff_converged",
			Help: "1 if the solve converged.",
		}),
		runtime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mgdiff_runtime_seconds",
			Help: "Wall time of the solve.",
		}),
		cells: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mgdiff_cells",
			Help: "Number of mesh cells.",
		}),
		peakFlux: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mgdiff_peak_flux",
			Help: "Largest cell flux per group.",
		}, []string{"group"}),
		totalFlux: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mgdiff_total_flux",
			Help: "Volume integrated flux per group.",
		}, []string{"group"}),
	}
	m.reg.MustRegister(m.iterations, m.linearIterations, m.change, m.converged,
		m.runtime, m.cells, m.peakFlux, m.totalFlux)
	return m
}

func (m *metrics) observe(s *diffusion.Solver, res diffusion.Result) {
	m.iterations.Set(float64(res.Iterations))
	m.linearIterations.Set(float64(res.LinearIterations))
	m.change.Set(res.Change)
	if res.Converged {
		m.converged.Set(1)
	} else {
		m.converged.Set(0)
	}
	m.runtime.Set(res.Runtime.Seconds())
	m.cells.Set(float64(s.Mesh.NumCells()))

	G := s.NumGroups()
	for gi, g := range s.SelectedGroups() {
		peak, total := 0.0, 0.0
		for _, c := range s.Mesh.Cells {
			phi := s.Phi[c.ID*G+gi]
			if phi > peak {
				peak = phi
			}
			total += phi * c.Volume
		}
		label := strconv.Itoa(g)
		m.peakFlux.WithLabelValues(label).Set(peak)
		m.totalFlux.WithLabelValues(label).Set(total)
	}
}

func (m *metrics) write(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
