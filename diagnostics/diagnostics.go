// Copyright ©2014 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diagnostics renders an optional Solve trace as a central-path
// convergence chart. It is never invoked by ipm.Solve itself; a caller
// opts in by setting ipm.Settings.Trace and, after Solve returns, passing
// the accumulated records here.
package diagnostics

import (
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"gonum.org/v1/ipm"
)

// Plot renders mu, nu, the merit value, and the infinity norms of the four
// KKT residual blocks against iteration index, and saves the chart as a
// PNG at path.
func Plot(records []ipm.IterationRecord, path string) error {
	p := plot.New()

	p.Title.Text = "central path"
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "value"

	mu := make(plotter.XYs, len(records))
	nu := make(plotter.XYs, len(records))
	merit := make(plotter.XYs, len(records))
	stationarity := make(plotter.XYs, len(records))
	complementarity := make(plotter.XYs, len(records))
	equality := make(plotter.XYs, len(records))
	inequality := make(plotter.XYs, len(records))

	for i, r := range records {
		x := float64(i)
		mu[i] = plotter.XY{X: x, Y: r.Mu}
		nu[i] = plotter.XY{X: x, Y: r.Nu}
		merit[i] = plotter.XY{X: x, Y: r.Merit}
		a, b, c, d := r.KKT.Norms()
		stationarity[i] = plotter.XY{X: x, Y: a}
		complementarity[i] = plotter.XY{X: x, Y: b}
		equality[i] = plotter.XY{X: x, Y: c}
		inequality[i] = plotter.XY{X: x, Y: d}
	}

	if err := plotutil.AddLines(p,
		"mu", mu,
		"nu", nu,
		"merit", merit,
		"|dL/dx|", stationarity,
		"|dL/ds|", complementarity,
		"|cE|", equality,
		"|cI-s|", inequality,
	); err != nil {
		return err
	}

	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}

// MatrixTrace packs the per-iteration KKT norms into a *mat.Dense (rows are
// iterations, columns are [stationarity, complementarity, equality,
// inequality]) for callers that want the raw numbers rather than a chart.
func MatrixTrace(records []ipm.IterationRecord) *mat.Dense {
	if len(records) == 0 {
		// mat.NewDense rejects zero rows; build the 0x4 shape directly.
		var empty mat.Dense
		empty.SetRawMatrix(blas64.General{Rows: 0, Cols: 4, Stride: 4})
		return &empty
	}
	out := mat.NewDense(len(records), 4, nil)
	for i, r := range records {
		a, b, c, d := r.KKT.Norms()
		out.SetRow(i, []float64{a, b, c, d})
	}
	return out
}
