// Copyright ©2014 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ipm implements a line-search primal-dual interior-point method for
// smooth, possibly nonconvex constrained minimization problems
//
//	minimize    f(x)
//	subject to  c_E(x) = 0
//	            c_I(x) >= 0
//
// following the algorithm in Nocedal & Wright, Numerical Optimization,
// chapter 19, with an optional limited-memory compact BFGS Hessian
// approximation in place of the exact Hessian of the Lagrangian.
package ipm

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Precision selects the rounding applied to the values returned by Solve.
// Internal arithmetic always runs in float64; Float32 only truncates the
// output, matching the single-precision tolerance noted for the algorithm's
// Hessian-based path.
type Precision int

const (
	Float64 Precision = iota
	Float32
)

// Status reports the termination state of a Solve call.
type Status int

const (
	// NotTerminated indicates the solve has not yet converged or failed.
	NotTerminated Status = iota
	// Converged indicates all four KKT residual blocks fell below Ktol.
	Converged
	// IterationLimit indicates OuterIterations was reached without
	// convergence. This is not an error; Result still carries the last
	// iterate and its KKT residuals.
	IterationLimit
	// LineSearchFailure indicates backtracking exhausted its budget
	// without finding an acceptable step, or that the primal step stayed
	// at or below Xtol for five consecutive inner iterations without
	// reaching KKT convergence.
	LineSearchFailure
	// SingularKKT indicates the augmented system could not be solved or
	// regularized to the target inertia.
	SingularKKT
	// Failure indicates an oracle returned a non-finite value.
	Failure
)

func (s Status) String() string {
	switch s {
	case NotTerminated:
		return "NotTerminated"
	case Converged:
		return "Converged"
	case IterationLimit:
		return "IterationLimit"
	case LineSearchFailure:
		return "LineSearchFailure"
	case SingularKKT:
		return "SingularKKT"
	case Failure:
		return "Failure"
	default:
		return "Status(unknown)"
	}
}

// Stats holds evaluation and iteration counters accumulated during a solve.
type Stats struct {
	OuterIterations int
	InnerIterations int
	FuncEvaluations int
	GradEvaluations int
	HessEvaluations int
	Runtime         time.Duration
}

// KKTResidual holds the four first-order optimality residual blocks in the
// fixed order [stationarity, complementarity, equality, inequality].
// Irrelevant blocks (M=0 or N=0) are returned as empty slices.
type KKTResidual struct {
	Stationarity    []float64 // size D: grad f - J_E^T lambda_E - J_I^T lambda_I
	Complementarity []float64 // size N: s .* lambda_I - mu
	Equality        []float64 // size M: c_E(x)
	Inequality      []float64 // size N: c_I(x) - s
}

// Norms returns the infinity norm of each residual block, in the same fixed
// order. Empty blocks report 0.
func (k KKTResidual) Norms() (stationarity, complementarity, equality, inequality float64) {
	return infNorm(k.Stationarity), infNorm(k.Complementarity), infNorm(k.Equality), infNorm(k.Inequality)
}

// Converged reports whether every block's infinity norm is at most tol.
func (k KKTResidual) Converged(tol float64) bool {
	a, b, c, d := k.Norms()
	return a <= tol && b <= tol && c <= tol && d <= tol
}

// roundPrecision returns a copy of v rounded to float32 resolution when p
// is Float32 (and v itself otherwise), matching the documented behavior that Precision only affects
// the values Solve returns — internal arithmetic is always float64.
func roundPrecision(v []float64, p Precision) []float64 {
	if p != Float32 || v == nil {
		return v
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(float32(x))
	}
	return out
}

// infNorm is floats.Norm(v, math.Inf(1)), following the teacher's own use
// of Norm for this in optimize/minimize.go.
func infNorm(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Norm(v, math.Inf(1))
}

// IterationRecord is one entry of an optional Solve trace, capturing the
// central-path state at a single inner iteration: the barrier and penalty
// parameters, the merit function value, and the four KKT residual blocks.
// It exists purely for the diagnostics subpackage; Solve never consults it.
type IterationRecord struct {
	Outer, Inner int
	Mu, Nu       float64
	Merit        float64
	KKT          KKTResidual
}

// Result is the answer of a Solve call.
type Result struct {
	X         []float64
	S         []float64
	Lambda    []float64
	FuncValue float64
	KKT       KKTResidual
	Stats     Stats
	Status    Status
}
