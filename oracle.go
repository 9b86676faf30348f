// Copyright ©2014 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipm

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// Problem describes the optimization problem to be solved: a capability
// bundle of derivative oracles rather than a single monolithic evaluator.
// A nil slot for a constraint Jacobian or the objective gradient means
// "derive by finite difference"; a nil Hess or constraint Hessian slot
// contributes nothing to the Hessian of the Lagrangian. The size of each
// constraint set is NumEquality/NumInequality (zero means the set is
// empty); when it is positive the matching constraint function must be
// non-nil. Func must be non-nil. EqualityHess and InequalityHess return
// the Hessian of the multiplier-weighted sum lambda.c. Hess and the
// constraint Hessian slots are only consulted when Settings.UseLBFGS is
// false.
type Problem struct {
	Func func(x []float64) float64
	Grad func(grad, x []float64) []float64
	Hess func(hess mat.Symmetric, x []float64) mat.Symmetric

	NumEquality   int
	EqualityFunc  func(c, x []float64)
	EqualityJac   func(jac *mat.Dense, x []float64)
	EqualityHess  func(hess mat.Symmetric, x, lambdaE []float64) mat.Symmetric

	NumInequality  int
	InequalityFunc func(c, x []float64)
	InequalityJac  func(jac *mat.Dense, x []float64)
	InequalityHess func(hess mat.Symmetric, x, lambdaI []float64) mat.Symmetric
}

// oracle wraps a Problem with evaluation counters and finite-difference
// fallbacks. It is built once by Configure and reused across a solve call,
// matching the "derivative oracles are compiled once and reused" lifecycle.
type oracle struct {
	prob Problem
	dim  int

	stats *Stats
}

func newOracle(prob Problem, dim int, stats *Stats) *oracle {
	return &oracle{prob: prob, dim: dim, stats: stats}
}

func (o *oracle) objective(x []float64) (float64, error) {
	o.stats.FuncEvaluations++
	f := o.prob.Func(x)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ErrNonFinite{Where: "Func"}
	}
	return f, nil
}

func (o *oracle) gradient(x []float64) ([]float64, error) {
	o.stats.GradEvaluations++
	g := make([]float64, o.dim)
	if o.prob.Grad != nil {
		o.prob.Grad(g, x)
	} else {
		fd.Gradient(g, o.prob.Func, x, nil)
	}
	return g, checkFinite(g, "Grad")
}

func (o *oracle) equality(x []float64) ([]float64, error) {
	if o.prob.NumEquality == 0 {
		return nil, nil
	}
	c := make([]float64, o.prob.NumEquality)
	o.prob.EqualityFunc(c, x)
	return c, checkFinite(c, "EqualityFunc")
}

func (o *oracle) equalityJac(x []float64) (*mat.Dense, error) {
	m := o.prob.NumEquality
	if m == 0 {
		return nil, nil
	}
	jac := mat.NewDense(o.dim, m, nil)
	if o.prob.EqualityJac != nil {
		o.prob.EqualityJac(jac, x)
	} else {
		fdJacobianTranspose(jac, func(c, x []float64) { o.prob.EqualityFunc(c, x) }, x, m, o.dim)
	}
	return jac, checkFiniteMat(jac, "EqualityJac")
}

func (o *oracle) inequality(x []float64) ([]float64, error) {
	if o.prob.NumInequality == 0 {
		return nil, nil
	}
	c := make([]float64, o.prob.NumInequality)
	o.prob.InequalityFunc(c, x)
	return c, checkFinite(c, "InequalityFunc")
}

func (o *oracle) inequalityJac(x []float64) (*mat.Dense, error) {
	n := o.prob.NumInequality
	if n == 0 {
		return nil, nil
	}
	jac := mat.NewDense(o.dim, n, nil)
	if o.prob.InequalityJac != nil {
		o.prob.InequalityJac(jac, x)
	} else {
		fdJacobianTranspose(jac, func(c, x []float64) { o.prob.InequalityFunc(c, x) }, x, n, o.dim)
	}
	return jac, checkFiniteMat(jac, "InequalityJac")
}

// hessianOfLagrangian assembles W = d2f - sum lambda_E*d2c_E - sum
// lambda_I*d2c_I for the exact-Hessian direction solver. Missing
// constraint Hessian slots contribute nothing, matching the source's
// "any component may be None" allowance.
func (o *oracle) hessianOfLagrangian(x, lambdaE, lambdaI []float64) (mat.Symmetric, error) {
	o.stats.HessEvaluations++
	var w *mat.SymDense
	if o.prob.Hess != nil {
		sym := o.prob.Hess(nil, x)
		w = mat.NewSymDense(o.dim, nil)
		w.CopySym(sym)
	} else {
		w = mat.NewSymDense(o.dim, nil)
	}
	if o.prob.EqualityHess != nil && o.prob.NumEquality > 0 {
		h := o.prob.EqualityHess(nil, x, lambdaE)
		addSym(w, h, -1)
	}
	if o.prob.InequalityHess != nil && o.prob.NumInequality > 0 {
		h := o.prob.InequalityHess(nil, x, lambdaI)
		addSym(w, h, -1)
	}
	return w, nil
}

func addSym(dst *mat.SymDense, src mat.Symmetric, k float64) {
	n := src.Symmetric()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			dst.SetSym(i, j, dst.At(i, j)+k*src.At(i, j))
		}
	}
}

// fdJacobianTranspose fills jac (dim x m) with the transpose of the m x
// dim finite-difference Jacobian of c, i.e. jac[:,k] = dc_k/dx.
func fdJacobianTranspose(jac *mat.Dense, c func(y, x []float64), x []float64, m, dim int) {
	full := mat.NewDense(m, dim, nil)
	fd.Jacobian(full, c, x, nil)
	for i := 0; i < dim; i++ {
		for k := 0; k < m; k++ {
			jac.Set(i, k, full.At(k, i))
		}
	}
}

func checkFinite(v []float64, where string) error {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return &ErrNonFinite{Where: where}
		}
	}
	return nil
}

func checkFiniteMat(m *mat.Dense, where string) error {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &ErrNonFinite{Where: where}
			}
		}
	}
	return nil
}
