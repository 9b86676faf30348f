// Copyright ©2014 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipm

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

// TestRegularizerFixesInertia exercises the invariant of §8: after
// regularization, the negative eigenvalue count of H equals M+N for every
// system the regularizer accepts.
func TestRegularizerFixesInertia(t *testing.T) {
	cases := []struct {
		name string
		h    *mat.SymDense
		dims [4]int // d, n, m, n
	}{
		{
			name: "indefinite-unconstrained",
			h:    mat.NewSymDense(2, []float64{-1, 0, 0, 3}),
			dims: [4]int{2, 0, 0, 0},
		},
		{
			name: "already-correct-inertia",
			h:    mat.NewSymDense(1, []float64{1}),
			dims: [4]int{1, 0, 0, 0},
		},
		{
			name: "negative-definite-unconstrained",
			h:    mat.NewSymDense(2, []float64{-2, 0, 0, -5}),
			dims: [4]int{2, 0, 0, 0},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sys := &augmentedSystem{H: c.h, g: make([]float64, c.dims[0]), dims: c.dims}
			reg := &regularizer{}
			if err := reg.apply(sys, 1e-4, 0.1, 0.4); err != nil {
				t.Fatalf("apply: %v", err)
			}
			w := symmetricEigenvalues(sys.H)
			target := c.dims[2] + c.dims[3]
			if got := negativeEigenCount(w); got != target {
				t.Errorf("negative eigenvalue count = %d, want %d (eigenvalues %v)", got, target, w)
			}
		})
	}
}
