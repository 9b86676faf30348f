// Copyright ©2014 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipm

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// symmetricEigenvalues returns the eigenvalues of a, smallest first. Only
// the values are needed anywhere they are used (inertia counting, rcond
// checks), so vectors are never requested.
func symmetricEigenvalues(a mat.Symmetric) []float64 {
	var eig mat.EigenSym
	ok := eig.Factorize(a, false)
	if !ok {
		return nil
	}
	return eig.Values(nil)
}

// symmetricEigenvaluesGeneral returns the magnitudes of the eigenvalues of
// a square, not-necessarily-symmetric matrix, used by the L-BFGS direction
// solver's well-conditioning checks on the constraint Jacobian B and on
// B^T*Adiag^-1*B's leading block (the latter is symmetric in exact
// arithmetic; a general eigendecomposition is robust to small asymmetry
// from floating point).
func symmetricEigenvaluesGeneral(a *mat.Dense) []float64 {
	var eig mat.Eigen
	if !eig.Factorize(a, false, false) {
		return nil
	}
	vals := eig.Values(nil)
	w := make([]float64, len(vals))
	for i, v := range vals {
		w[i] = cabs(v)
	}
	return w
}

func cabs(z complex128) float64 {
	re, im := real(z), imag(z)
	return math.Sqrt(re*re + im*im)
}

// rcond returns the ratio of the smallest to the largest eigenvalue
// magnitude, used as the ill-conditioning test throughout the regularizer
// and the L-BFGS "reduce" branch.
func rcond(w []float64) float64 {
	if len(w) == 0 {
		return 1
	}
	lo, hi := math.Abs(w[0]), math.Abs(w[0])
	for _, v := range w[1:] {
		a := math.Abs(v)
		if a < lo {
			lo = a
		}
		if a > hi {
			hi = a
		}
	}
	if hi == 0 {
		return 0
	}
	return lo / hi
}

func negativeEigenCount(w []float64) int {
	n := 0
	for _, v := range w {
		if v < 0 {
			n++
		}
	}
	return n
}

// symmetricSolve solves a*x = b for symmetric, possibly indefinite a. It
// attempts a Cholesky factorization first (the common case once the
// regularizer has restored definiteness on the relevant block) and falls
// back to a general LU-based solve otherwise, matching the
// Cholesky-then-general-solve pattern of gonum's optimize/convex/lp.
// Both failing yields ErrSingularSystem; no least-squares fallback is tried.
func symmetricSolve(a mat.Symmetric, b []float64) ([]float64, error) {
	n := a.Symmetric()
	bv := mat.NewVecDense(n, append([]float64(nil), b...))

	var chol mat.Cholesky
	if chol.Factorize(a) {
		var x mat.VecDense
		if err := chol.SolveVecTo(&x, bv); err == nil {
			return x.RawVector().Data, nil
		}
	}

	dense := denseFromSymmetric(a)
	var x mat.VecDense
	if err := x.SolveVec(dense, bv); err != nil {
		return nil, ErrSingularSystem
	}
	return x.RawVector().Data, nil
}

func denseFromSymmetric(a mat.Symmetric) *mat.Dense {
	n := a.Symmetric()
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d.Set(i, j, a.At(i, j))
		}
	}
	return d
}

// pseudoinverseSolve returns the minimum-norm least-squares solution of
// a*x = b via a thin SVD, used for the multiplier initialization in
// §4.11 and as the fallback when a direct solve fails.
func pseudoinverseSolve(a *mat.Dense, b []float64) ([]float64, error) {
	rows, cols := a.Dims()
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, ErrSingularSystem
	}
	rank := svd.Rank(1e-15)
	bv := mat.NewVecDense(rows, append([]float64(nil), b...))
	var x mat.VecDense
	x.ReuseAsVec(cols)
	if !svd.SolveVecTo(&x, bv, rank) {
		return nil, ErrSingularSystem
	}
	return x.RawVector().Data, nil
}

// generalSolve solves a*x = b for a square, not-necessarily-symmetric a via
// LU (mat.Dense's Solve), falling back to the minimum-norm least-squares
// solution when a is singular. It backs the small-matrix solves inside the
// compact L-BFGS direction (on L, L^T, and the reduce-branch B), which is
// not symmetric in general.
func generalSolve(a *mat.Dense, b []float64) ([]float64, error) {
	n, _ := a.Dims()
	bv := mat.NewVecDense(n, append([]float64(nil), b...))
	var x mat.VecDense
	if err := x.SolveVec(a, bv); err != nil {
		return leastSquares(a, b)
	}
	return x.RawVector().Data, nil
}

func generalSolveMat(a, b *mat.Dense) (*mat.Dense, error) {
	var x mat.Dense
	if err := x.Solve(a, b); err != nil {
		return nil, ErrSingularSystem
	}
	return &x, nil
}

// leastSquares solves the possibly rectangular, possibly rank-deficient
// system a*x = b in the least-squares sense. It is the named fallback in
// the line search's second-order correction and in the equality-only
// correction case.
func leastSquares(a *mat.Dense, b []float64) ([]float64, error) {
	return pseudoinverseSolve(a, b)
}
