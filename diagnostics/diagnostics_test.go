// Copyright ©2014 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diagnostics_test

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/ipm"
	"gonum.org/v1/ipm/diagnostics"
)

func sampleTrace() []ipm.IterationRecord {
	return []ipm.IterationRecord{
		{
			Outer: 0, Inner: 0, Mu: 0.2, Nu: 10, Merit: 5,
			KKT: ipm.KKTResidual{
				Stationarity:    []float64{1, -2},
				Complementarity: []float64{0.5},
				Equality:        []float64{0.1},
				Inequality:      []float64{-0.3},
			},
		},
		{
			Outer: 0, Inner: 1, Mu: 0.1, Nu: 10, Merit: 2,
			KKT: ipm.KKTResidual{
				Stationarity:    []float64{0.2, -0.1},
				Complementarity: []float64{0.05},
				Equality:        []float64{0.01},
				Inequality:      []float64{-0.02},
			},
		},
	}
}

func TestMatrixTraceShape(t *testing.T) {
	records := sampleTrace()
	m := diagnostics.MatrixTrace(records)
	r, c := m.Dims()
	if r != len(records) {
		t.Fatalf("rows = %d, want %d", r, len(records))
	}
	if c != 4 {
		t.Fatalf("cols = %d, want 4", c)
	}
	for i, rec := range records {
		a, b, eq, ineq := rec.KKT.Norms()
		want := []float64{a, b, eq, ineq}
		for j, w := range want {
			if got := m.At(i, j); got != w {
				t.Errorf("m[%d][%d] = %v, want %v", i, j, got, w)
			}
		}
	}
}

func TestMatrixTraceEmpty(t *testing.T) {
	m := diagnostics.MatrixTrace(nil)
	r, c := m.Dims()
	if r != 0 || c != 4 {
		t.Errorf("Dims() = (%d, %d), want (0, 4)", r, c)
	}
}

func TestPlotWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "central-path.png")
	if err := diagnostics.Plot(sampleTrace(), path); err != nil {
		t.Fatalf("Plot: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Errorf("output file is empty")
	}
}
