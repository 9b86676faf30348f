// Copyright ©2014 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipm

// stepConverge detects primal stagnation: a run of inner iterations whose
// step in x falls below Xtol without the KKT residual reaching Ktol. This
// gives Settings.Xtol a use: the spec allows Xtol to bound the
// fraction-to-boundary bisection, but the closed-form rule in
// fractiontoboundary.go has no iteration to bound, so Xtol is applied here
// instead, to the one place an iterate can otherwise spin without moving.
type stepConverge struct {
	Xtol       float64
	Iterations int

	iter int
}

func (sc *stepConverge) init() {
	sc.iter = 0
}

// converged reports whether the infinity norm of the most recent primal
// step has stayed below Xtol for Iterations consecutive calls.
func (sc *stepConverge) converged(stepNorm float64) bool {
	if sc.Iterations == 0 {
		return false
	}
	if stepNorm > sc.Xtol {
		sc.iter = 0
		return false
	}
	sc.iter++
	return sc.iter >= sc.Iterations
}
