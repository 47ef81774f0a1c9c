package main

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	diffusion "github.com/Naktakala/PDEs"
)

// plotFlux draws one line per group against the cell centroids and saves
// the figure; the format follows the file extension.
func plotFlux(out *diffusion.Output, path string) error {
	p := plot.New()
	p.Title.Text = "Scalar flux"
	p.X.Label.Text = "position"
	p.Y.Label.Text = "flux"

	for gi, g := range out.Groups {
		flux := out.GroupFlux(gi)
		pts := make(plotter.XYs, out.NumCells)
		for c := range pts {
			pts[c].X = out.Centroids[3*c]
			pts[c].Y = flux[c]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("group %d: %w", g, err)
		}
		line.Color = plotutil.Color(gi)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("group %d", g), line)
	}
	p.Add(plotter.NewGrid())

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
